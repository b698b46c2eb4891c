package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/canvasport/pkg/dispatch"
	"github.com/matzehuels/canvasport/pkg/errors"
	"github.com/matzehuels/canvasport/pkg/memhost"
	"github.com/matzehuels/canvasport/pkg/observability"
	"github.com/matzehuels/canvasport/pkg/portable"
	"github.com/matzehuels/canvasport/pkg/scene"
	"github.com/matzehuels/canvasport/pkg/storage"
)

func quiet() *log.Logger { return log.New(io.Discard) }

func newTestServer(t *testing.T, withStore bool) (*httptest.Server, *memhost.Host) {
	t.Helper()
	h, err := memhost.FromDocument(&memhost.Document{
		Name: "doc",
		Pages: []*memhost.Page{{ID: "p1", Name: "One", Children: []*memhost.NodeData{
			{ID: "A", Name: "Card", Kind: scene.KindRectangle, Bounds: scene.Rect{X: 5, Y: 5, Width: 10, Height: 10}},
		}}},
		Selection: []string{"A"},
	})
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}

	var store storage.Store
	if withStore {
		fs, err := storage.NewFileStore(t.TempDir())
		if err != nil {
			t.Fatalf("NewFileStore: %v", err)
		}
		store = fs
	}

	s := New(dispatch.New(h, dispatch.Options{Logger: quiet()}), store, quiet())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, h
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response) dispatch.Response {
	t.Helper()
	var out dispatch.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, false)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestMessageStatus(t *testing.T) {
	ts, _ := newTestServer(t, false)
	tests := []struct {
		name   string
		body   string
		status int
		typ    string
		code   errors.Code
	}{
		{"export", `{"type":"export","target":"selected"}`, http.StatusOK, "export-success", ""},
		{"unknown type", `{"type":"rename"}`, http.StatusBadRequest, "rename-error", errors.ErrCodeInvalidMessage},
		{"malformed", `{`, http.StatusBadRequest, "message-error", errors.ErrCodeInvalidMessage},
		{"file", `{"type":"export","target":"file"}`, http.StatusOK, "export-success", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+"/v1/messages", tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			out := decodeResponse(t, resp)
			if out.Type != tt.typ || out.Code != tt.code {
				t.Errorf("response = %+v", out)
			}
		})
	}
}

func TestEmptySelectionIsUnprocessable(t *testing.T) {
	ts, h := newTestServer(t, false)
	if err := h.SetSelection(nil); err != nil {
		t.Fatal(err)
	}
	resp := post(t, ts.URL+"/v1/messages", `{"type":"export","target":"selected"}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if out := decodeResponse(t, resp); out.Code != errors.ErrCodeEmptySelection {
		t.Errorf("code = %q", out.Code)
	}
}

func TestBundlesUnavailableWithoutStore(t *testing.T) {
	ts, _ := newTestServer(t, false)
	resp, err := http.Get(ts.URL + "/v1/bundles")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func exportBundle(t *testing.T, ts *httptest.Server) []byte {
	t.Helper()
	resp := post(t, ts.URL+"/v1/messages", `{"type":"export","target":"page"}`)
	var out struct {
		Data struct {
			Bundle json.RawMessage `json:"bundle"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out.Data.Bundle
}

func TestBundleLifecycle(t *testing.T) {
	ts, h := newTestServer(t, true)
	bundle := exportBundle(t, ts)

	resp := post(t, ts.URL+"/v1/bundles?name=cards", string(bundle))
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("put status = %d: %s", resp.StatusCode, body)
	}
	var rec storage.Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		t.Fatal(err)
	}
	if rec.Name != "cards" || rec.NodeCount != 1 {
		t.Errorf("record = %+v", rec)
	}

	list, err := http.Get(ts.URL + "/v1/bundles")
	if err != nil {
		t.Fatal(err)
	}
	defer list.Body.Close()
	var recs []storage.Record
	if err := json.NewDecoder(list.Body).Decode(&recs); err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].ID != rec.ID {
		t.Errorf("list = %+v", recs)
	}

	get, err := http.Get(ts.URL + "/v1/bundles/" + rec.ID + "?format=yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer get.Body.Close()
	if ct := get.Header.Get("Content-Type"); ct != "application/yaml" {
		t.Errorf("content type = %q", ct)
	}
	b, err := portable.ReadYAML(get.Body)
	if err != nil {
		t.Fatalf("ReadYAML: %v", err)
	}
	if len(b.Nodes) != 1 || b.Nodes[0].Name != "Card" {
		t.Errorf("bundle nodes = %+v", b.Nodes)
	}

	before := h.Len()
	imp := post(t, ts.URL+"/v1/bundles/"+rec.ID+"/import", "")
	if imp.StatusCode != http.StatusOK {
		t.Fatalf("import status = %d", imp.StatusCode)
	}
	if out := decodeResponse(t, imp); out.Type != "import-success" {
		t.Errorf("import response = %+v", out)
	}
	if h.Len() != before+1 {
		t.Errorf("host nodes = %d, want %d", h.Len(), before+1)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/v1/bundles/"+rec.ID, nil)
	del, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	del.Body.Close()
	if del.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d", del.StatusCode)
	}

	missing, err := http.Get(ts.URL + "/v1/bundles/" + rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("missing status = %d", missing.StatusCode)
	}
}

func TestPutRejectsInvalidBundle(t *testing.T) {
	ts, _ := newTestServer(t, true)
	resp := post(t, ts.URL+"/v1/bundles", `{"version":99,"nodes":[]}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestGetRejectsUnknownFormat(t *testing.T) {
	ts, _ := newTestServer(t, true)
	resp, err := http.Get(ts.URL + "/v1/bundles/x?format=pdf")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

type recordingHooks struct {
	observability.NoopHTTPHooks
	mu       sync.Mutex
	statuses []int
}

func (r *recordingHooks) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	ts, _ := newTestServer(t, false)
	post(t, ts.URL+"/v1/messages", `{"type":"nope"}`)

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if len(hooks.statuses) != 1 || hooks.statuses[0] != http.StatusBadRequest {
		t.Errorf("statuses = %v", hooks.statuses)
	}
}

func TestListenAndServeShutsDown(t *testing.T) {
	h := memhost.New("doc")
	s := New(dispatch.New(h, dispatch.Options{Logger: quiet()}), nil, quiet())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

