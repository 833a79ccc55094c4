package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/lilRK/PERT-Analysis/internal/analysis"
	"github.com/lilRK/PERT-Analysis/internal/config"
	"github.com/lilRK/PERT-Analysis/internal/render"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *httptest.Server) {
	t.Helper()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	logger := zaptest.NewLogger(t)
	engine := analysis.New(logger, render.New(cfg.RenderOptions()))
	s, err := New(cfg, engine, logger)
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func post(t *testing.T, ts *httptest.Server, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/analyze", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

const sharedStart = `{"activities":[
  {"name":"A","optimisticTime":"5","mostLikelyTime":"5","pessimisticTime":"5","precedents":""},
  {"name":"B","optimisticTime":5,"mostLikelyTime":5,"pessimisticTime":5,"precedents":"A"},
  {"name":"C","optimisticTime":"2","mostLikelyTime":"2","pessimisticTime":"2","precedents":["A"]}
]}`

func TestAnalyze_Success(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, out := post(t, ts, sharedStart)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))

	assert.Equal(t, "completed", out["status"])
	assert.Equal(t, 10.0, out["estimatedDuration"])
	assert.Equal(t, []any{"A", "B"}, out["criticalPath"])
	assert.NotContains(t, out, "renderErrors")

	for _, key := range []string{"forwardPassGraph", "backwardPassGraph", "criticalPathGraph"} {
		raw, ok := out[key].(string)
		require.True(t, ok, key)
		data, err := base64.StdEncoding.DecodeString(raw)
		require.NoError(t, err, key)
		_, err = png.Decode(bytes.NewReader(data))
		require.NoError(t, err, key)
	}

	acts := out["activities"].([]any)
	require.Len(t, acts, 3)
	c := acts[2].(map[string]any)
	assert.Equal(t, "C", c["name"])
	assert.Equal(t, 3.0, c["slack"])
	assert.Equal(t, false, c["critical"])
}

func TestAnalyze_Deadline(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, out := post(t, ts, `{"activities":[{"name":"A","optimisticTime":1,"mostLikelyTime":2,"pessimisticTime":9}],"deadline":3}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.InDelta(t, 0.5, out["completionProbability"], 1e-9)
	assert.InDelta(t, 4.0/3.0, out["standardDeviation"], 1e-9)
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		status   int
		kind     string
		activity string
	}{
		{"invalid json", `{"activities":`, http.StatusBadRequest, "MalformedRequest", ""},
		{"missing activities", `{"tasks":[]}`, http.StatusBadRequest, "MalformedRequest", ""},
		{"empty", `{"activities":[]}`, http.StatusUnprocessableEntity, "EmptyProjectError", ""},
		{
			"unknown precedent",
			`{"activities":[{"name":"A","optimisticTime":1,"mostLikelyTime":1,"pessimisticTime":1},{"name":"B","optimisticTime":1,"mostLikelyTime":1,"pessimisticTime":1,"precedents":"Z"}]}`,
			http.StatusUnprocessableEntity, "UnknownPrecedentError", "B",
		},
		{
			"duplicate",
			`{"activities":[{"name":"A","optimisticTime":1,"mostLikelyTime":1,"pessimisticTime":1},{"name":"A","optimisticTime":1,"mostLikelyTime":1,"pessimisticTime":1}]}`,
			http.StatusUnprocessableEntity, "DuplicateActivityNameError", "A",
		},
		{
			"cycle",
			`{"activities":[{"name":"A","optimisticTime":1,"mostLikelyTime":1,"pessimisticTime":1,"precedents":"B"},{"name":"B","optimisticTime":1,"mostLikelyTime":1,"pessimisticTime":1,"precedents":"A"}]}`,
			http.StatusUnprocessableEntity, "CyclicDependencyError", "A",
		},
		{
			"bad estimate",
			`{"activities":[{"name":"A","optimisticTime":"soon","mostLikelyTime":1,"pessimisticTime":1}]}`,
			http.StatusUnprocessableEntity, "InvalidEstimateError", "A",
		},
		{
			"estimate overflow",
			`{"activities":[{"name":"A","optimisticTime":"1e308","mostLikelyTime":"1e308","pessimisticTime":"1e308"}]}`,
			http.StatusUnprocessableEntity, "InvalidEstimateError", "A",
		},
		{
			"NaN deadline",
			`{"activities":[{"name":"A","optimisticTime":1,"mostLikelyTime":1,"pessimisticTime":1}],"deadline":"NaN"}`,
			http.StatusBadRequest, "MalformedRequest", "",
		},
		{
			"infinite deadline",
			`{"activities":[{"name":"A","optimisticTime":1,"mostLikelyTime":1,"pessimisticTime":1}],"deadline":"Inf"}`,
			http.StatusBadRequest, "MalformedRequest", "",
		},
	}
	_, ts := newTestServer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := post(t, ts, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, "failed", out["status"])

			e := out["error"].(map[string]any)
			assert.Equal(t, tt.kind, e["kind"])
			if tt.activity != "" {
				assert.Equal(t, tt.activity, e["activity"])
			}
			assert.NotEmpty(t, e["message"])
		})
	}
}

func TestAnalyze_BodyTooLarge(t *testing.T) {
	_, ts := newTestServer(t, func(c *config.Config) { c.Server.MaxBodyBytes = 32 })

	resp, out := post(t, ts, sharedStart)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, "RequestTooLarge", out["error"].(map[string]any)["kind"])
}

func TestAnalyze_PartialRender(t *testing.T) {
	_, ts := newTestServer(t, func(c *config.Config) { c.Render.MaxNodes = 2 })

	resp, out := post(t, ts, sharedStart)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "partial", out["status"])
	assert.Equal(t, 10.0, out["estimatedDuration"])
	assert.NotContains(t, out, "forwardPassGraph")
	assert.Len(t, out["renderErrors"], 3)
}

func TestAnalyze_Timeout(t *testing.T) {
	_, ts := newTestServer(t, func(c *config.Config) { c.Server.RequestTimeout = "1ns" })

	resp, out := post(t, ts, sharedStart)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "Timeout", out["error"].(map[string]any)["kind"])
}

func TestAnalyze_CachedResponse(t *testing.T) {
	s, ts := newTestServer(t, nil)

	resp1, out1 := post(t, ts, sharedStart)
	require.Equal(t, http.StatusOK, resp1.StatusCode)
	assert.Equal(t, 1, s.cache.Len())

	resp2, out2 := post(t, ts, sharedStart)
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.Equal(t, out1, out2)
	assert.Equal(t, 1, s.cache.Len())
	assert.NotEqual(t, resp1.Header.Get(requestIDHeader), resp2.Header.Get(requestIDHeader))
}

func TestAnalyze_CacheDisabled(t *testing.T) {
	s, ts := newTestServer(t, func(c *config.Config) { c.Server.CacheSize = 0 })

	resp, _ := post(t, ts, sharedStart)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, s.cache)
}

func TestAnalyze_MethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/analyze")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestRequestIDPropagated(t *testing.T) {
	_, ts := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(requestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "abc-123", resp.Header.Get(requestIDHeader))
}

func TestCORS(t *testing.T) {
	_, ts := newTestServer(t, func(c *config.Config) {
		c.Server.AllowedOrigins = []string{"http://localhost:3000"}
	})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/analyze", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "http://evil.example")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServe_GracefulShutdown(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.MaxConnections = 4
	s, err := New(cfg, analysis.New(nil, nil), zaptest.NewLogger(t))
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
