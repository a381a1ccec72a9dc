// Package mqttlink is the MQTT publish/subscribe transport used by the device agent.
package mqttlink

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// DefaultQoS is the delivery level for publications and subscriptions.
const DefaultQoS byte = 2

const defaultTimeout = 10 * time.Second

// Options configures a Link.
type Options struct {
	BrokerURL      string
	ClientID       string
	Username       string
	Password       string
	QoS            byte
	ConnectTimeout time.Duration
	// PublishTimeout bounds the wait for a publish acknowledgement.
	// Zero means ConnectTimeout.
	PublishTimeout time.Duration
	KeepAlive      time.Duration
	Logger         zerolog.Logger
}

// Link wraps a paho client. Handlers registered through Subscribe are
// restored after a reconnect.
//
// Inbound messages are queued and handled one at a time on the link's own
// goroutine, in arrival order. Paho's callback never blocks, so a handler may
// publish and wait for the acknowledgement without stalling the client.
type Link struct {
	client         mqtt.Client
	qos            byte
	publishTimeout time.Duration
	log            zerolog.Logger

	mu   sync.Mutex
	subs map[string]mqtt.MessageHandler

	inbox *inbox
}

// Dial connects to the broker and returns a ready Link.
func Dial(ctx context.Context, o Options) (*Link, error) {
	if o.BrokerURL == "" {
		return nil, errors.New("mqttlink: broker url is required")
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = defaultTimeout
	}
	if o.PublishTimeout <= 0 {
		o.PublishTimeout = o.ConnectTimeout
	}
	if o.KeepAlive <= 0 {
		o.KeepAlive = 30 * time.Second
	}
	l := newLink(o.QoS, o.PublishTimeout, o.Logger)
	opts := mqtt.NewClientOptions().
		AddBroker(o.BrokerURL).
		SetClientID(o.ClientID).
		SetUsername(o.Username).
		SetPassword(o.Password).
		SetConnectTimeout(o.ConnectTimeout).
		SetKeepAlive(o.KeepAlive).
		SetAutoReconnect(true).
		SetOrderMatters(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			l.log.Warn().Err(err).Msg("mqtt connection lost")
		}).
		SetOnConnectHandler(func(mqtt.Client) { l.resubscribe() })
	l.client = mqtt.NewClient(opts)
	if err := wait(ctx, l.client.Connect(), o.ConnectTimeout); err != nil {
		l.inbox.close()
		return nil, fmt.Errorf("mqtt connect %s: %w", o.BrokerURL, err)
	}
	l.log.Info().Str("broker", o.BrokerURL).Str("client_id", o.ClientID).Msg("mqtt connected")
	return l, nil
}

// NewWithClient wraps an existing client, typically already connected.
func NewWithClient(c mqtt.Client, qos byte, log zerolog.Logger) *Link {
	l := newLink(qos, defaultTimeout, log)
	l.client = c
	return l
}

func newLink(qos byte, publishTimeout time.Duration, log zerolog.Logger) *Link {
	l := &Link{
		qos:            qos,
		publishTimeout: publishTimeout,
		log:            log,
		subs:           map[string]mqtt.MessageHandler{},
		inbox:          newInbox(),
	}
	go l.inbox.run()
	return l
}

// Publish sends payload on topic and waits for the broker acknowledgement,
// at most PublishTimeout.
func (l *Link) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := wait(ctx, l.client.Publish(topic, l.qos, false, payload), l.publishTimeout); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe registers handler for topic. Handlers run sequentially on the
// link's delivery goroutine.
func (l *Link) Subscribe(ctx context.Context, topic string, handler func(topic string, payload []byte)) error {
	h := func(_ mqtt.Client, m mqtt.Message) {
		topic, payload := m.Topic(), m.Payload()
		l.inbox.push(func() { handler(topic, payload) })
	}
	if err := wait(ctx, l.client.Subscribe(topic, l.qos, h), l.publishTimeout); err != nil {
		return fmt.Errorf("mqtt subscribe %s: %w", topic, err)
	}
	l.mu.Lock()
	l.subs[topic] = h
	l.mu.Unlock()
	return nil
}

// Close disconnects, allowing in-flight work 250ms to finish, and stops the
// delivery goroutine. Queued messages not yet handled are dropped.
func (l *Link) Close() {
	l.client.Disconnect(250)
	l.inbox.close()
}

func (l *Link) resubscribe() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for topic, h := range l.subs {
		tok := l.client.Subscribe(topic, l.qos, h)
		go func(topic string) {
			if err := wait(context.Background(), tok, defaultTimeout); err != nil {
				l.log.Error().Err(err).Str("topic", topic).Msg("mqtt resubscribe failed")
			}
		}(topic)
	}
}

// wait blocks until tok completes, ctx ends or the timeout (if > 0) elapses.
func wait(ctx context.Context, tok mqtt.Token, timeout time.Duration) error {
	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer:
		return errors.New("timed out")
	}
}

// inbox is an unbounded FIFO of deliveries drained by a single goroutine.
// push never blocks, which keeps paho's ordered callback path free.
type inbox struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	done   chan struct{}
	closed bool
}

func newInbox() *inbox {
	return &inbox{wake: make(chan struct{}, 1), done: make(chan struct{})}
}

func (b *inbox) push(fn func()) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.queue = append(b.queue, fn)
	b.mu.Unlock()
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

func (b *inbox) run() {
	for {
		b.mu.Lock()
		if len(b.queue) == 0 {
			b.mu.Unlock()
			select {
			case <-b.wake:
				continue
			case <-b.done:
				return
			}
		}
		fn := b.queue[0]
		b.queue[0] = nil
		b.queue = b.queue[1:]
		b.mu.Unlock()
		fn()
	}
}

func (b *inbox) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.queue = nil
	close(b.done)
}
