package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/celerix-dev/wizards-profile/internal/facts"
	"github.com/celerix-dev/wizards-profile/internal/logger"
	"github.com/celerix-dev/wizards-profile/internal/profile"
	"github.com/celerix-dev/wizards-profile/pkg/schema"
	"github.com/gin-gonic/gin"
)

var isoMillis = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`)

type fakeProvider struct {
	fact  string
	err   error
	delay time.Duration
	calls int
}

func (f *fakeProvider) Fetch(ctx context.Context) (facts.Fact, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return facts.Fact{}, ctx.Err()
		}
	}
	if f.err != nil {
		return facts.Fact{}, f.err
	}
	return facts.Fact{Fact: f.fact, Length: len(f.fact)}, nil
}

func setupTestRouter(p facts.Provider, logOut io.Writer) (*gin.Engine, *Handler) {
	gin.SetMode(gin.TestMode)
	if logOut == nil {
		logOut = io.Discard
	}
	h := &Handler{
		Identity:    profile.Identity{Email: "ada@example.com", Name: "Ada Lovelace", Stack: "Go/Gin"},
		Facts:       p,
		Log:         logger.NewWithOutput("test", logOut),
		FactTimeout: 5 * time.Second,
	}
	r := gin.New()
	r.Use(RequestID(), CORS())
	r.GET("/", h.Root)
	r.GET("/me", h.Me)
	r.NoRoute(h.NotFound)
	return r, h
}

func TestMe_ProviderSucceeded(t *testing.T) {
	p := &fakeProvider{fact: "Cats have five toes on their front paws."}
	r, _ := setupTestRouter(p, nil)

	req, _ := http.NewRequest("GET", "/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Errorf("Expected JSON content type, got %q", ct)
	}

	var resp schema.ProfileResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if resp.Status != "success" {
		t.Errorf("Expected success, got %q", resp.Status)
	}
	if resp.Fact != p.fact {
		t.Errorf("Expected provider fact, got %q", resp.Fact)
	}
	if resp.User.Email != "ada@example.com" || resp.User.Name != "Ada Lovelace" || resp.User.Stack != "Go/Gin" {
		t.Errorf("Unexpected user: %+v", resp.User)
	}
	if !isoMillis.MatchString(resp.Timestamp) {
		t.Errorf("Timestamp %q is not ISO 8601 with milliseconds", resp.Timestamp)
	}
	if p.calls != 1 {
		t.Errorf("Expected exactly one provider call, got %d", p.calls)
	}
}

func TestMe_ProviderFailedUsesFallback(t *testing.T) {
	var logs bytes.Buffer
	p := &fakeProvider{err: errors.New("connection refused")}
	r, _ := setupTestRouter(p, &logs)

	req, _ := http.NewRequest("GET", "/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var resp schema.ProfileResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != "success" {
		t.Errorf("Expected success, got %q", resp.Status)
	}
	if resp.Fact != "Cats are amazing creatures! (Cat Facts API temporarily unavailable)" {
		t.Errorf("Expected fallback fact, got %q", resp.Fact)
	}
	if !strings.Contains(logs.String(), "connection refused") {
		t.Errorf("Expected provider error to be logged, got %q", logs.String())
	}
	if p.calls != 1 {
		t.Errorf("Failure must not be retried, got %d calls", p.calls)
	}
}

func TestMe_LogsFactLengthAtDebug(t *testing.T) {
	var logs bytes.Buffer
	p := &fakeProvider{fact: "A group of cats is called a clowder."}
	r, _ := setupTestRouter(p, &logs)

	req, _ := http.NewRequest("GET", "/me", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(logs.Bytes()), &entry); err != nil {
		t.Fatalf("Expected one JSON log line, got %q", logs.String())
	}
	if entry["level"] != "debug" || entry["msg"] != "Fetched cat fact" {
		t.Errorf("Unexpected log entry: %v", entry)
	}
	if entry["length"] != float64(len(p.fact)) {
		t.Errorf("Expected length %d, got %v", len(p.fact), entry["length"])
	}
}

func TestMe_ProviderErrorGoesToErrorStream(t *testing.T) {
	var out, errOut bytes.Buffer
	r, h := setupTestRouter(&fakeProvider{err: errors.New("connection refused")}, nil)
	h.Log = logger.NewWithStreams("test", &out, &errOut)

	req, _ := http.NewRequest("GET", "/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(errOut.String(), "Error fetching cat fact") || !strings.Contains(errOut.String(), "connection refused") {
		t.Errorf("Expected provider error on the error stream, got %q", errOut.String())
	}
	if strings.Contains(out.String(), "connection refused") {
		t.Errorf("Provider error leaked to the standard stream: %q", out.String())
	}
}

func TestMe_ProviderTimeout(t *testing.T) {
	p := &fakeProvider{fact: "late", delay: time.Second}
	r, h := setupTestRouter(p, nil)
	h.FactTimeout = 20 * time.Millisecond

	req, _ := http.NewRequest("GET", "/me", nil)
	w := httptest.NewRecorder()
	start := time.Now()
	r.ServeHTTP(w, req)

	if time.Since(start) > 500*time.Millisecond {
		t.Errorf("Handler did not honour the provider timeout")
	}
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	var resp schema.ProfileResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Fact != schema.FallbackFact {
		t.Errorf("Expected fallback on timeout, got %q", resp.Fact)
	}
}

func TestMe_TimestampPerRequest(t *testing.T) {
	clock := []time.Time{
		time.Date(2024, 3, 15, 10, 30, 0, 123_000_000, time.UTC),
		time.Date(2024, 3, 15, 10, 30, 1, 456_000_000, time.UTC),
	}
	r, h := setupTestRouter(&fakeProvider{fact: "f"}, nil)
	i := 0
	h.Now = func() time.Time {
		ts := clock[i]
		i++
		return ts
	}

	var got []string
	for range clock {
		req, _ := http.NewRequest("GET", "/me", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		var resp schema.ProfileResponse
		json.Unmarshal(w.Body.Bytes(), &resp)
		got = append(got, resp.Timestamp)
	}

	if got[0] != "2024-03-15T10:30:00.123Z" || got[1] != "2024-03-15T10:30:01.456Z" {
		t.Errorf("Unexpected timestamps: %v", got)
	}
}

func TestMe_IgnoresBodyAndQuery(t *testing.T) {
	r, _ := setupTestRouter(&fakeProvider{fact: "f"}, nil)

	req, _ := http.NewRequest("GET", "/me?name=ignored", bytes.NewBufferString(`{"email":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp schema.ProfileResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.User.Email != "ada@example.com" {
		t.Errorf("Body must not influence the profile, got %q", resp.User.Email)
	}
}

func TestRoot(t *testing.T) {
	r, _ := setupTestRouter(&fakeProvider{}, nil)

	req, _ := http.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	var res map[string]any
	json.Unmarshal(w.Body.Bytes(), &res)
	if res["message"] != "Backend Wizards API is running!" {
		t.Errorf("Unexpected message: %v", res["message"])
	}
	endpoints, _ := res["endpoints"].(map[string]any)
	if endpoints["profile"] != "/me" {
		t.Errorf("Unexpected endpoints: %v", res["endpoints"])
	}
}

func TestNotFound(t *testing.T) {
	r, _ := setupTestRouter(&fakeProvider{}, nil)

	for _, target := range []string{"/unknown-path", "/me/extra"} {
		req, _ := http.NewRequest("GET", target, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("%s: expected status 404, got %d", target, w.Code)
		}
		var res schema.ErrorResponse
		json.Unmarshal(w.Body.Bytes(), &res)
		if res.Status != "error" || res.Message != "Endpoint not found" {
			t.Errorf("%s: unexpected body %+v", target, res)
		}
	}
}

func TestCORS(t *testing.T) {
	r, _ := setupTestRouter(&fakeProvider{fact: "f"}, nil)

	req, _ := http.NewRequest("GET", "/me", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected wildcard origin, got %q", got)
	}

	req, _ = http.NewRequest("OPTIONS", "/me", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected preflight 204, got %d", w.Code)
	}
}

func TestRequestID(t *testing.T) {
	r, _ := setupTestRouter(&fakeProvider{}, nil)

	req, _ := http.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("Expected a generated request id")
	}

	req, _ = http.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "trace-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != "trace-123" {
		t.Errorf("Expected incoming id to be echoed, got %q", got)
	}
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var logs bytes.Buffer
	r := gin.New()
	r.Use(RequestID(), RequestLogger(logger.NewWithOutput("test", &logs)))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req, _ := http.NewRequest("GET", "/ping", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	line := strings.SplitN(logs.String(), "\n", 2)[0]
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("Expected JSON log line, got %q", line)
	}
	if entry["method"] != "GET" || entry["path"] != "/ping" {
		t.Errorf("Unexpected log entry: %v", entry)
	}
	ts, _ := entry["received_at"].(string)
	if !isoMillis.MatchString(ts) {
		t.Errorf("Expected ISO 8601 timestamp, got %q", ts)
	}
}
