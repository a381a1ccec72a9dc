package wire

import (
	"errors"
	"fmt"
	"strconv"

	"nnrunner/internal/engine"
)

// invalidInputError signals an input_data string that does not decode to a grid.
type invalidInputError struct {
	msg string
	err error
}

func (e invalidInputError) Error() string {
	if e.err != nil {
		return "input_data: " + e.err.Error()
	}
	return "input_data: " + e.msg
}

func (e invalidInputError) Unwrap() error { return e.err }

// IsInvalidInput reports whether err came from decoding an input grid.
func IsInvalidInput(err error) bool {
	var e invalidInputError
	return errors.As(err, &e)
}

// ParseInputData converts a row-major digit string into a height*width grid
// of float32 values. Every cell must be a single ASCII digit.
func ParseInputData(s string, height, width int) ([]float32, error) {
	want := height * width
	if len(s) != want {
		return nil, invalidInputError{err: engine.ErrInputSizeMismatch(len(s), want)}
	}
	grid := make([]float32, want)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return nil, invalidInputError{msg: fmt.Sprintf("invalid character %q at row %d col %d", c, i/width, i%width)}
		}
		grid[i] = float32(c - '0')
	}
	return grid, nil
}

// FormatInputData is the inverse of ParseInputData for values in 0..9.
func FormatInputData(grid []float32) (string, error) {
	b := make([]byte, len(grid))
	for i, v := range grid {
		if v < 0 || v > 9 || v != float32(int(v)) {
			return "", fmt.Errorf("input_data: cell %d value %v is not a digit", i, v)
		}
		b[i] = '0' + byte(v)
	}
	return string(b), nil
}

// FormatOutput stringifies an output vector with two decimals.
func FormatOutput(out []float32) []string {
	s := make([]string, len(out))
	for i, v := range out {
		s[i] = strconv.FormatFloat(float64(v), 'f', 2, 32)
	}
	return s
}
