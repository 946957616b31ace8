// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/ghrecommend/internal/config"
	"github.com/tomtom215/ghrecommend/internal/events"
	"github.com/tomtom215/ghrecommend/internal/models"
	"github.com/tomtom215/ghrecommend/internal/pipeline"
	"github.com/tomtom215/ghrecommend/internal/profiles"
	"github.com/tomtom215/ghrecommend/internal/ratings"
	"github.com/tomtom215/ghrecommend/internal/recommend"
	"github.com/tomtom215/ghrecommend/internal/recommend/algorithms"
)

type sliceSource []models.Event

func (s sliceSource) ScanWindow(_ context.Context, w models.Window, fn func(models.Event) error) error {
	for _, ev := range s {
		if w.Contains(ev.Timestamp) {
			if err := fn(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

type fakeLoader struct {
	src         ratings.EventSource
	err         error
	loads       int
	invalidated int
}

func (l *fakeLoader) LoadEvents(context.Context) (ratings.EventSource, error) {
	l.loads++
	return l.src, l.err
}

func (l *fakeLoader) Invalidate() bool {
	l.invalidated++
	return true
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fakeCache struct {
	state   string
	cleared int
}

func (c *fakeCache) Cached() []events.CacheKey {
	return []events.CacheKey{{Key: "data/events.csv", Format: events.FormatCSV}}
}

func (c *fakeCache) Clear() int {
	c.cleared++
	return 1
}

func (c *fakeCache) BreakerState() string { return c.state }

func day(d int) time.Time {
	return time.Date(2022, 6, d, 0, 0, 0, 0, time.UTC)
}

func scenarioEvents() sliceSource {
	return sliceSource{
		{User: "u1", Item: "o/repoA", Timestamp: day(1)},
		{User: "u1", Item: "o/repoB", Timestamp: day(1)},
		{User: "u2", Item: "o/repoA", Timestamp: day(2)},
		{User: "u2", Item: "o/repoB", Timestamp: day(2)},
		{User: "u3", Item: "o/repoA", Timestamp: day(3)},
	}
}

func defaultRequest() pipeline.Request {
	return pipeline.Request{
		Algorithm:           algorithms.ALSName,
		Start:               day(1),
		End:                 day(4),
		MinItems:            1,
		MaxItems:            10,
		TopItems:            10,
		UniqueUserThreshold: 0.5,
		Factors:             8,
		Iterations:          20,
		TopN:                5,
		Seed:                42,
	}
}

type testServer struct {
	handler http.Handler
	loader  *fakeLoader
	cache   *fakeCache
}

func newTestServer(t *testing.T, loader *fakeLoader, sec config.SecurityConfig) *testServer {
	t.Helper()
	store, err := profiles.Open(config.ProfilesConfig{Enabled: true, InMemory: true})
	if err != nil {
		t.Fatalf("profiles.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cache := &fakeCache{state: "closed"}
	opts := recommend.Options{ALS: recommend.ALSOptions{Regularization: 0.01, Alpha: 1}}
	h := NewHandler(Dependencies{
		Runner:   pipeline.NewRunner(loader, opts),
		Defaults: defaultRequest(),
		Profiles: store,
		DB:       fakePinger{},
		Events:   cache,
	})
	sec.RateLimitDisabled = sec.RateLimitReqs == 0
	router := NewRouter(h, NewChiMiddleware(ChiMiddlewareConfigFrom(sec)), time.Minute)
	return &testServer{handler: router.Setup(), loader: loader, cache: cache}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path, contentType string, body []byte) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Code != http.StatusNoContent && path != "/metrics" {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s response %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec, env
}

func (s *testServer) postJSON(t *testing.T, path string, v interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return s.do(t, http.MethodPost, path, "application/json", body)
}

func multipartBody(t *testing.T, upload string, fields map[string]string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if upload != "" {
		fw, err := mw.CreateFormFile(PreferencesField, "prefs.json")
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		fw.Write([]byte(upload))
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()
	return buf.Bytes(), mw.FormDataContentType()
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
	return out
}

func TestRecommendJSON(t *testing.T) {
	s := newTestServer(t, &fakeLoader{src: scenarioEvents()}, config.SecurityConfig{})

	rec, env := s.postJSON(t, "/api/v1/recommendations", map[string]interface{}{
		"repo": []string{"github.com/o/repoB"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	res := decodeData[RecommendResponse](t, env)
	if len(res.Recommendations) == 0 || res.Recommendations[0] != "github.com/o/repoA" {
		t.Errorf("Recommendations = %v, want github.com/o/repoA first", res.Recommendations)
	}
	if len(res.Scores) != 0 {
		t.Errorf("Scores = %v, want none without debug", res.Scores)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestRecommendDebugScores(t *testing.T) {
	s := newTestServer(t, &fakeLoader{src: scenarioEvents()}, config.SecurityConfig{})

	rec, env := s.postJSON(t, "/api/v1/recommendations", map[string]interface{}{
		"repo":  []string{"o/repoB"},
		"debug": true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if res := decodeData[RecommendResponse](t, env); len(res.Scores) != len(res.Recommendations) {
		t.Errorf("Scores = %v, want one per recommendation", res.Scores)
	}
}

func TestRecommendMultipart(t *testing.T) {
	s := newTestServer(t, &fakeLoader{src: scenarioEvents()}, config.SecurityConfig{})

	body, ct := multipartBody(t, `{"repo": ["o/repoB"]}`, map[string]string{
		"min_items":  "1",
		"iterations": "10",
	})
	rec, env := s.do(t, http.MethodPost, "/api/v1/recommendations", ct, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if res := decodeData[RecommendResponse](t, env); len(res.Recommendations) == 0 {
		t.Error("Recommendations are empty")
	}
}

func TestRecommendInputErrors(t *testing.T) {
	tests := []struct {
		name        string
		body        func(t *testing.T) ([]byte, string)
		wantCode    string
		wantMessage string
	}{
		{
			name: "wrong upload key",
			body: func(t *testing.T) ([]byte, string) {
				return multipartBody(t, `{"repos": ["o/repoB"]}`, nil)
			},
			wantCode:    ErrCodeBadRequest,
			wantMessage: `no "repo" key`,
		},
		{
			name: "wrong JSON body key",
			body: func(t *testing.T) ([]byte, string) {
				return []byte(`{"repos": ["o/repoB"]}`), "application/json"
			},
			wantCode:    ErrCodeBadRequest,
			wantMessage: `no "repo" key`,
		},
		{
			name: "empty JSON body",
			body: func(t *testing.T) ([]byte, string) {
				return nil, "application/json"
			},
			wantCode:    ErrCodeBadRequest,
			wantMessage: `"repo" key`,
		},
		{
			name: "missing upload",
			body: func(t *testing.T) ([]byte, string) {
				return multipartBody(t, "", map[string]string{"top_n": "5"})
			},
			wantCode: ErrCodeBadRequest,
		},
		{
			name: "non-integer field",
			body: func(t *testing.T) ([]byte, string) {
				return multipartBody(t, `{"repo": ["o/repoB"]}`, map[string]string{"top_n": "five"})
			},
			wantCode: ErrCodeBadRequest,
		},
		{
			name: "empty list",
			body: func(t *testing.T) ([]byte, string) {
				return []byte(`{"repo": []}`), "application/json"
			},
			wantCode: ErrCodeBadRequest,
		},
		{
			name: "repo is not a list",
			body: func(t *testing.T) ([]byte, string) {
				return []byte(`{"repo": "o/repoB"}`), "application/json"
			},
			wantCode: ErrCodeBadRequest,
		},
		{
			name: "factors out of range",
			body: func(t *testing.T) ([]byte, string) {
				return []byte(`{"repo": ["o/repoB"], "params": {"factors": 50}}`), "application/json"
			},
			wantCode: ErrCodeValidationFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := &fakeLoader{src: scenarioEvents()}
			s := newTestServer(t, loader, config.SecurityConfig{})

			body, ct := tt.body(t)
			rec, env := s.do(t, http.MethodPost, "/api/v1/recommendations", ct, body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
			if env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %s", env.Error, tt.wantCode)
			}
			if tt.wantMessage != "" && (env.Error == nil || !strings.Contains(env.Error.Message, tt.wantMessage)) {
				t.Errorf("error = %+v, want message containing %s", env.Error, tt.wantMessage)
			}
			if loader.loads != 0 {
				t.Errorf("loads = %d, want 0", loader.loads)
			}
		})
	}
}

func TestRecommendSourceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"source", fmt.Errorf("%w: load csv:x: no such file", models.ErrSource), http.StatusBadGateway},
		{"breaker open", fmt.Errorf("%w: %w", models.ErrSource, gobreaker.ErrOpenState), http.StatusServiceUnavailable},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &fakeLoader{err: tt.err}, config.SecurityConfig{})
			rec, env := s.postJSON(t, "/api/v1/recommendations", map[string]interface{}{"repo": []string{"o/repoB"}})
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if env.Error == nil || env.Error.Message == "" {
				t.Errorf("error = %+v, want a message", env.Error)
			}
			if env.Error != nil && strings.Contains(env.Error.Message, "boom") {
				t.Errorf("message %q leaks the internal error", env.Error.Message)
			}
		})
	}
}

func TestProfileLifecycle(t *testing.T) {
	loader := &fakeLoader{src: scenarioEvents()}
	s := newTestServer(t, loader, config.SecurityConfig{})

	rec, env := s.postJSON(t, "/api/v1/profiles", map[string]interface{}{
		"repo":   []string{"o/repoB"},
		"params": map[string]interface{}{"top_n": 3},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	profile := decodeData[profiles.Profile](t, env)
	if profile.ID == "" {
		t.Fatal("created profile has no id")
	}
	if loader.loads != 0 {
		t.Errorf("creating a profile loaded events %d times", loader.loads)
	}

	rec, env = s.do(t, http.MethodGet, "/api/v1/profiles/"+profile.ID, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", rec.Code)
	}
	if got := decodeData[profiles.Profile](t, env); len(got.Repos) != 1 || got.Repos[0] != "o/repoB" {
		t.Errorf("Repos = %v, want [o/repoB]", got.Repos)
	}

	rec, env = s.do(t, http.MethodGet, "/api/v1/profiles", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", rec.Code)
	}
	if list := decodeData[[]profiles.Profile](t, env); len(list) != 1 {
		t.Errorf("list has %d profiles, want 1", len(list))
	}

	rec, env = s.do(t, http.MethodPost, "/api/v1/profiles/"+profile.ID+"/recommendations", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("recommend status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if res := decodeData[RecommendResponse](t, env); len(res.Recommendations) == 0 || res.Recommendations[0] != "github.com/o/repoA" {
		t.Errorf("Recommendations = %v, want github.com/o/repoA first", res.Recommendations)
	}

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/profiles/"+profile.ID, "", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
	rec, env = s.do(t, http.MethodGet, "/api/v1/profiles/"+profile.ID, "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
	if env.Error == nil || env.Error.Code != ErrCodeNotFound {
		t.Errorf("error = %+v, want NOT_FOUND", env.Error)
	}
}

func TestCreateProfileRejectsBadParams(t *testing.T) {
	s := newTestServer(t, &fakeLoader{src: scenarioEvents()}, config.SecurityConfig{})
	rec, _ := s.postJSON(t, "/api/v1/profiles", map[string]interface{}{
		"repo":   []string{"o/repoB"},
		"params": map[string]interface{}{"iterations": 0},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestExplain(t *testing.T) {
	s := newTestServer(t, &fakeLoader{src: scenarioEvents()}, config.SecurityConfig{})

	rec, env := s.postJSON(t, "/api/v1/explain", map[string]interface{}{
		"repo": []string{"o/repoB"},
		"item": "o/repoA",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	exp := decodeData[recommend.Explanation](t, env)
	if exp.Item != "github.com/o/repoA" {
		t.Errorf("Item = %s, want github.com/o/repoA", exp.Item)
	}
	if len(exp.Contributions) != 1 || exp.Contributions[0].Item != "github.com/o/repoB" {
		t.Errorf("Contributions = %v, want one from github.com/o/repoB", exp.Contributions)
	}

	rec, env = s.postJSON(t, "/api/v1/explain", map[string]interface{}{"repo": []string{"o/repoB"}})
	if rec.Code != http.StatusBadRequest || env.Error == nil || env.Error.Code != ErrCodeValidationFailed {
		t.Errorf("missing item: status = %d, error = %+v, want 400 VALIDATION_FAILED", rec.Code, env.Error)
	}
}

func TestSimilar(t *testing.T) {
	s := newTestServer(t, &fakeLoader{src: scenarioEvents()}, config.SecurityConfig{})

	rec, env := s.do(t, http.MethodGet, "/api/v1/similar?repo=o/repoB&n=3", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	data := decodeData[struct {
		Repo    string                 `json:"repo"`
		Similar []recommend.ScoredItem `json:"similar"`
	}](t, env)
	if data.Repo != "github.com/o/repoB" {
		t.Errorf("repo = %s, want github.com/o/repoB", data.Repo)
	}
	if len(data.Similar) != 1 || data.Similar[0].Item != "github.com/o/repoA" {
		t.Errorf("similar = %v, want [github.com/o/repoA]", data.Similar)
	}

	for _, path := range []string{"/api/v1/similar", "/api/v1/similar?repo=o/repoB&n=0", "/api/v1/similar?repo=not-a-repo"} {
		if rec, _ := s.do(t, http.MethodGet, path, "", nil); rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want 400", path, rec.Code)
		}
	}
}

func TestInvalidateEvents(t *testing.T) {
	loader := &fakeLoader{src: scenarioEvents()}
	s := newTestServer(t, loader, config.SecurityConfig{})

	rec, _ := s.do(t, http.MethodDelete, "/api/v1/cache/events", "", nil)
	if rec.Code != http.StatusOK || loader.invalidated != 1 {
		t.Errorf("status = %d, invalidated = %d, want 200 and 1", rec.Code, loader.invalidated)
	}

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/cache/events?all=true", "", nil)
	if rec.Code != http.StatusOK || s.cache.cleared != 1 {
		t.Errorf("status = %d, cleared = %d, want 200 and 1", rec.Code, s.cache.cleared)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeLoader{}, config.SecurityConfig{})

	if rec, _ := s.do(t, http.MethodGet, "/api/v1/health/live", "", nil); rec.Code != http.StatusOK {
		t.Errorf("live status = %d, want 200", rec.Code)
	}
	if rec, _ := s.do(t, http.MethodGet, "/api/v1/health/ready", "", nil); rec.Code != http.StatusOK {
		t.Errorf("ready status = %d, want 200", rec.Code)
	}

	s.cache.state = "open"
	if rec, _ := s.do(t, http.MethodGet, "/api/v1/health/ready", "", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready with open breaker status = %d, want 503", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, &fakeLoader{}, config.SecurityConfig{})
	rec, _ := s.do(t, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("metrics output lacks the default collectors")
	}
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, &fakeLoader{}, config.SecurityConfig{
		CORSOrigins:     []string{"*"},
		RateLimitReqs:   1,
		RateLimitWindow: time.Minute,
	})

	if rec, _ := s.do(t, http.MethodDelete, "/api/v1/cache/events", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}
	rec, env := s.do(t, http.MethodDelete, "/api/v1/cache/events", "", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "TOO_MANY_REQUESTS" {
		t.Errorf("error = %+v, want TOO_MANY_REQUESTS", env.Error)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{models.ErrUnknownIdentifier, http.StatusBadRequest},
		{fmt.Errorf("train: %w", models.ErrTraining), http.StatusUnprocessableEntity},
		{profiles.ErrNotFound, http.StatusNotFound},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{fmt.Errorf("%w: %w", models.ErrSource, gobreaker.ErrTooManyRequests), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		if status, _ := classify(tt.err); status != tt.status {
			t.Errorf("classify(%v) = %d, want %d", tt.err, status, tt.status)
		}
	}
}
