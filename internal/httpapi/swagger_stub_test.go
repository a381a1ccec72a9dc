//go:build !swagger

package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"

	"nnrunner/pkg/types"
)

func TestMountSwagger_Disabled(t *testing.T) {
	w := httptest.NewRecorder()
	NewMux(&mockService{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected swagger to be disabled, got %d", w.Code)
	}
	var e types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil || e.Kind != "swagger_disabled" {
		t.Fatalf("unexpected body %q (err=%v)", w.Body.String(), err)
	}
}
