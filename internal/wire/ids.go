package wire

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Timestamp renders t as unix seconds with six fractional digits.
func Timestamp(t time.Time) string {
	return fmt.Sprintf("%d.%06d", t.Unix(), t.Nanosecond()/1000)
}

// NewMessageID returns a short random identifier: the first four hex
// characters of a random UUID.
func NewMessageID() string {
	return uuid.NewString()[:4]
}
