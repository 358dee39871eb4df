package server

import (
	"bufio"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stochfold/pkg/errors"
	"github.com/matzehuels/stochfold/pkg/observability"
	"github.com/matzehuels/stochfold/pkg/pipeline"
	"github.com/matzehuels/stochfold/pkg/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *Metrics) {
	t.Helper()
	logger := log.New(io.Discard)
	metrics := NewMetrics(nil)
	metrics.Install()
	t.Cleanup(observability.Reset)

	srv := New(pipeline.NewRunner(nil, nil, logger), store.NewMemoryStore(), metrics, logger)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts, metrics
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestSampleAndRunLifecycle(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := post(t, ts.URL+"/v1/sample", `{"sequence":"GGGAAACCC","count":5,"seed":3}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	run := decode[runResponse](t, resp)
	if len(run.Document.Samples) != 5 || run.Document.NonRedundant {
		t.Fatalf("document = %+v", run.Document)
	}
	id := run.Document.RunID

	get, err := http.Get(ts.URL + "/v1/runs/" + id)
	if err != nil {
		t.Fatal(err)
	}
	defer get.Body.Close()
	if get.StatusCode != http.StatusOK {
		t.Fatalf("GET run status = %d", get.StatusCode)
	}
	stored := decode[store.Run](t, get)
	if stored.ID != id || len(stored.Document.Samples) != 5 {
		t.Errorf("stored run = %+v", stored)
	}

	list, err := http.Get(ts.URL + "/v1/runs?limit=5")
	if err != nil {
		t.Fatal(err)
	}
	defer list.Body.Close()
	runs := decode[struct{ Runs []store.Run }](t, list)
	if len(runs.Runs) != 1 {
		t.Errorf("listed %d runs, want 1", len(runs.Runs))
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/v1/runs/"+id, nil)
	del, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	del.Body.Close()
	if del.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE status = %d", del.StatusCode)
	}

	gone, err := http.Get(ts.URL + "/v1/runs/" + id)
	if err != nil {
		t.Fatal(err)
	}
	defer gone.Body.Close()
	if gone.StatusCode != http.StatusNotFound {
		t.Errorf("GET deleted run status = %d", gone.StatusCode)
	}
	if e := decode[errorResponse](t, gone); e.Error.Code != errors.ErrCodeRunNotFound {
		t.Errorf("code = %s", e.Error.Code)
	}
}

func TestNonRedundantExhausts(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := post(t, ts.URL+"/v1/nr", `{"sequence":"GGGAAACCC","count":1000}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	run := decode[runResponse](t, resp)
	if !run.Document.NonRedundant || !run.Document.Exhausted {
		t.Errorf("document = %+v", run.Document)
	}
	seen := map[string]bool{}
	for _, s := range run.Document.Samples {
		if seen[s.Structure] {
			t.Fatalf("duplicate structure %s", s.Structure)
		}
		seen[s.Structure] = true
	}
}

func TestRequestErrors(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   errors.Code
	}{
		{"no input", "/v1/sample", `{}`, 400, errors.ErrCodeInvalidInput},
		{"unknown field", "/v1/sample", `{"sequence":"GGGAAACCC","bogus":1}`, 400, errors.ErrCodeInvalidFormat},
		{"not json", "/v1/nr", `sequence=GGG`, 400, errors.ErrCodeInvalidFormat},
		{"prefix on nr", "/v1/nr", `{"sequence":"GGGAAACCC","prefix":4}`, 400, errors.ErrCodeInvalidInput},
		{"bad model", "/v1/sample", `{"sequence":"GGGAAACCC","model":{"temperature":37,"min_loop":-1,"max_loop":30}}`, 400, errors.ErrCodeInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+tt.path, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if e := decode[errorResponse](t, resp); e.Error.Code != tt.code {
				t.Errorf("code = %s, want %s", e.Error.Code, tt.code)
			}
		})
	}

	resp, err := http.Get(ts.URL + "/v1/runs/not-a-uuid")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed id status = %d", resp.StatusCode)
	}
}

func TestStream(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := post(t, ts.URL+"/v1/nr/stream", `{"sequence":"GGGAAACCC","count":3}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/x-ndjson" {
		t.Errorf("Content-Type = %q", ct)
	}

	var lines []streamLine
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		var l streamLine
		if err := json.Unmarshal(sc.Bytes(), &l); err != nil {
			t.Fatalf("line %q: %v", sc.Text(), err)
		}
		lines = append(lines, l)
	}
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 3 structures and a summary", len(lines))
	}
	last := lines[3]
	if !last.Done || last.Emitted != 3 || last.Error != "" {
		t.Errorf("summary = %+v", last)
	}
	for _, l := range lines[:3] {
		if len(l.Structure) != 9 || l.Probability <= 0 {
			t.Errorf("structure line = %+v", l)
		}
	}
}

func TestHealthAndMetrics(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}

	post(t, ts.URL+"/v1/sample", `{"sequence":"GGGAAACCC","count":2}`)

	m, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer m.Body.Close()
	body, _ := io.ReadAll(m.Body)
	for _, want := range []string{
		`stochfold_http_requests_total{method="POST",route="/v1/sample",status="200"} 1`,
		`stochfold_sampling_draws_total{kind="single",mode="one_shot",status="ok"} 2`,
		`stochfold_fold_duration_seconds_count{kind="single",status="ok"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}
