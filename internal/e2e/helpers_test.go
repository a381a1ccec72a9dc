package e2e

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"nnrunner/internal/device"
	"nnrunner/internal/engine"
	"nnrunner/internal/httpapi"
	"nnrunner/internal/offload"
	"nnrunner/internal/registry"
)

// memBroker is an in-process publish/subscribe hub with exact topic matching.
// Deliveries happen synchronously on the publisher's goroutine.
type memBroker struct {
	mu   sync.Mutex
	subs map[string][]func(string, []byte)
}

func newMemBroker() *memBroker { return &memBroker{subs: map[string][]func(string, []byte){}} }

func (b *memBroker) Publish(_ context.Context, topic string, payload []byte) error {
	b.mu.Lock()
	hs := append(([]func(string, []byte))(nil), b.subs[topic]...)
	b.mu.Unlock()
	for _, h := range hs {
		h(topic, append([]byte(nil), payload...))
	}
	return nil
}

func (b *memBroker) Subscribe(_ context.Context, topic string, h func(string, []byte)) error {
	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], h)
	b.mu.Unlock()
	return nil
}

// collect subscribes to topic and returns a channel of payloads.
func (b *memBroker) collect(t *testing.T, topic string) <-chan []byte {
	t.Helper()
	ch := make(chan []byte, 16)
	if err := b.Subscribe(context.Background(), topic, func(_ string, p []byte) { ch <- p }); err != nil {
		t.Fatalf("subscribe %s: %v", topic, err)
	}
	return ch
}

func receive(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for message")
		return nil
	}
}

type stack struct {
	reg    *registry.Registry
	agent  *device.Agent
	broker *memBroker
	srv    *httptest.Server
}

// newStack wires registry, engine, controller, agent and HTTP server the way
// the run command does, with an in-memory broker in place of MQTT.
func newStack(t *testing.T, reg *registry.Registry) *stack {
	t.Helper()
	eng, err := engine.New(engine.Config{})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	metrics := device.NewMetrics(prometheus.NewRegistry())
	ctrl := offload.NewWithConfig(offload.Config{
		Registry:  reg,
		Engine:    eng,
		Publisher: offload.FanOut{metrics, device.LogPublisher{Logger: zerolog.Nop()}},
	})
	broker := newMemBroker()
	agent, err := device.New(device.Config{
		DeviceID:   "device_e2e",
		ArenaBytes: eng.ArenaCapacity(),
		Controller: ctrl,
		Registry:   reg,
		Transport:  broker,
		Metrics:    metrics,
		Logger:     zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("agent: %v", err)
	}
	srv := httptest.NewServer(httpapi.NewMux(agent))
	t.Cleanup(srv.Close)
	return &stack{reg: reg, agent: agent, broker: broker, srv: srv}
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPostJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}
