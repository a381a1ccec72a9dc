package e2e

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"nnrunner/internal/engine"
	"nnrunner/internal/registry"
	"nnrunner/internal/wire"
	"nnrunner/pkg/types"
)

func embedded(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.Embedded()
	if err != nil {
		t.Fatalf("embedded: %v", err)
	}
	return reg
}

// directOutput runs one layer on input with a fresh engine.
func directOutput(t *testing.T, reg *registry.Registry, index int, input []float32) []string {
	t.Helper()
	eng, err := engine.New(engine.Config{})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	a, err := reg.Resolve(index)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	l, err := eng.Load(a)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	out, _, err := eng.Run(l, input)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return wire.FormatOutput(out)
}

// TestE2E_BrokerRoundTrip drives the agent purely through topics: registration,
// model_inference, the published result and end_computation.
func TestE2E_BrokerRoundTrip(t *testing.T) {
	reg := embedded(t)
	st := newStack(t, reg)
	registrations := st.broker.collect(t, "devices/")
	results := st.broker.collect(t, "device_e2e/model_inference_result")

	ctx := context.Background()
	if err := st.agent.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	var hello types.RegistrationMessage
	if err := json.Unmarshal(receive(t, registrations), &hello); err != nil {
		t.Fatalf("registration: %v", err)
	}
	if hello.MessageContent != "HelloWorld!" || hello.DeviceID != "device_e2e" {
		t.Fatalf("unexpected registration: %+v", hello)
	}

	zeros := strings.Repeat("0", 100)
	req := `{"offloading_layer_index":2,"input_data":"` + zeros + `"}`
	if err := st.broker.Publish(ctx, "device_e2e/model_inference", []byte(req)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	var res types.ResultMessage
	if err := json.Unmarshal(receive(t, results), &res); err != nil {
		t.Fatalf("result: %v", err)
	}
	c := res.MessageContent
	if c.OffloadingLayerIndex != 2 || len(c.LayersInferenceTime) != 3 {
		t.Fatalf("unexpected result: %+v", c)
	}
	want := directOutput(t, reg, 2, make([]float32, 100))
	if strings.Join(c.LayerOutput, ",") != strings.Join(want, ",") {
		t.Fatalf("layer_output %v, want %v", c.LayerOutput, want)
	}

	// An invalid request publishes nothing; the next valid one still works.
	_ = st.broker.Publish(ctx, "device_e2e/model_inference", []byte(`{"offloading_layer_index":5,"input_data":"`+zeros+`"}`))
	_ = st.broker.Publish(ctx, "device_e2e/model_inference", []byte(`{"offloading_layer_index":0,"input_data":"`+zeros+`"}`))
	if err := json.Unmarshal(receive(t, results), &res); err != nil {
		t.Fatalf("result: %v", err)
	}
	if res.MessageContent.OffloadingLayerIndex != 0 {
		t.Fatalf("expected depth 0 result after rejected request, got %+v", res.MessageContent)
	}

	_ = st.broker.Publish(ctx, "device_e2e/end_computation", nil)
	select {
	case <-st.agent.Done():
	default:
		t.Fatalf("end_computation did not signal done")
	}
}

func TestE2E_HTTPSurface(t *testing.T) {
	reg := embedded(t)
	st := newStack(t, reg)

	resp, _ := httpGet(t, st.srv.URL+"/readyz")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("readyz before registration: %d", resp.StatusCode)
	}
	if err := st.agent.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	resp, _ = httpGet(t, st.srv.URL+"/readyz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("readyz after registration: %d", resp.StatusCode)
	}

	resp, body := httpGet(t, st.srv.URL+"/layers")
	var layers types.LayersResponse
	if resp.StatusCode != http.StatusOK || json.Unmarshal(body, &layers) != nil || len(layers.Layers) != 5 {
		t.Fatalf("layers: %d %s", resp.StatusCode, body)
	}

	input := strings.Repeat("7", 100)
	resp, body = httpPostJSON(t, st.srv.URL+"/offload", []byte(`{"offloading_layer_index":4,"input_data":"`+input+`"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("offload: %d %s", resp.StatusCode, body)
	}
	var res types.ResultMessage
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatalf("json: %v", err)
	}
	grid, _ := wire.ParseInputData(input, 10, 10)
	want := directOutput(t, reg, 4, grid)
	if strings.Join(res.MessageContent.LayerOutput, ",") != strings.Join(want, ",") {
		t.Fatalf("layer_output %v, want %v", res.MessageContent.LayerOutput, want)
	}

	resp, body = httpPostJSON(t, st.srv.URL+"/offload", []byte(`{"offloading_layer_index":9,"input_data":"`+input+`"}`))
	var e types.ErrorResponse
	if resp.StatusCode != http.StatusBadRequest || json.Unmarshal(body, &e) != nil || e.Kind != "invalid_depth" {
		t.Fatalf("invalid depth: %d %s", resp.StatusCode, body)
	}

	resp, body = httpGet(t, st.srv.URL+"/status")
	var status types.StatusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		t.Fatalf("status json: %v", err)
	}
	if status.SessionsTotal != 1 || status.CompletedTotal != 1 || status.LastDepth != 4 || !status.Registered || status.ArenaBytes != 12*1024 {
		t.Fatalf("unexpected status: %+v", status)
	}

	resp, body = httpGet(t, st.srv.URL+"/metrics")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "nnrunner_http_requests_total") {
		t.Fatalf("metrics endpoint missing request counters")
	}
}

// TestE2E_LayersFromDirectory serves a registry loaded from disk, including a
// layer compiled from a definition, and checks the schema gate end to end.
func TestE2E_LayersFromDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, a := range embedded(t).Layers()[:2] {
		b, err := registry.Encode(a)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, registry.FileName(a.Index)), b, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	def := registry.Definition{SchemaVersion: 2, InputHeight: 10, InputWidth: 10, Seed: 9, Ops: []registry.OpDefinition{{Out: 4, Activation: "sigmoid"}}}
	old, err := def.Compile(2, registry.FileName(2))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	b, err := registry.Encode(old)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, registry.FileName(2)), b, 0o644); err != nil {
		t.Fatal(err)
	}

	reg, err := registry.LoadDir(dir)
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}
	st := newStack(t, reg)
	zeros := strings.Repeat("0", 100)

	resp, body := httpPostJSON(t, st.srv.URL+"/offload", []byte(`{"offloading_layer_index":1,"input_data":"`+zeros+`"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("depth 1: %d %s", resp.StatusCode, body)
	}
	resp, body = httpPostJSON(t, st.srv.URL+"/offload", []byte(`{"offloading_layer_index":2,"input_data":"`+zeros+`"}`))
	var e types.ErrorResponse
	if resp.StatusCode != http.StatusInternalServerError || json.Unmarshal(body, &e) != nil || e.Kind != "schema_mismatch" {
		t.Fatalf("schema gate: %d %s", resp.StatusCode, body)
	}
	if st.agent.Status().State != "failed" {
		t.Fatalf("expected failed state, got %+v", st.agent.Status())
	}
}
