package proxy

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/florianilch/claude3-provider/internal/observability/middleware"
	"github.com/florianilch/claude3-provider/internal/openaiadapter"
	"github.com/florianilch/claude3-provider/internal/openaiadapter/types"
)

// adapterFunc adapts a function to the chat completion adapter contract.
type adapterFunc func(ctx context.Context, req openaiadapter.CreateChatCompletionRequest) (*openaiadapter.CreateChatCompletionChunk, error)

func (f adapterFunc) ProcessRequest(
	ctx context.Context,
	req openaiadapter.CreateChatCompletionRequest,
	_ http.RoundTripper,
) (*openaiadapter.CreateChatCompletionChunk, error) {
	return f(ctx, req)
}

type readiness struct{ ready atomic.Bool }

func (r *readiness) IsReady() bool { return r.ready.Load() }

// failingTransport fails the test if the handler reaches the upstream.
type failingTransport struct{ t *testing.T }

func (f failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	f.t.Error("unexpected upstream call")
	return nil, errors.New("unexpected upstream call")
}

func textChunk(model, text string) *openaiadapter.CreateChatCompletionChunk {
	role := "assistant"
	stop := types.CreateChatCompletionStreamResponseChoiceFinishReasonStop
	return &openaiadapter.CreateChatCompletionChunk{
		Id:      "chatcmpl-test",
		Object:  types.ChatCompletionChunk,
		Created: 1700000000,
		Model:   model,
		Choices: []types.CreateChatCompletionStreamResponseChoice{{
			Delta:        types.ChatCompletionStreamResponseDelta{Role: &role, Content: &text},
			FinishReason: &stop,
		}},
		Usage: &types.CompletionUsage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5},
	}
}

func newTestProxy(t *testing.T, adapter openaiadapter.CreateChatCompletionAdapter, opts ...Option) (*Proxy, *readiness) {
	t.Helper()
	health := &readiness{}
	health.ready.Store(true)

	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	p, err := New(adapter, failingTransport{t}, health, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p, health
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeErrorResponse(t *testing.T, rec *httptest.ResponseRecorder) openaiadapter.ErrorResponse {
	t.Helper()
	var errResp openaiadapter.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return errResp
}

func TestNew_RequiresDependencies(t *testing.T) {
	adapter := adapterFunc(func(context.Context, openaiadapter.CreateChatCompletionRequest) (*openaiadapter.CreateChatCompletionChunk, error) {
		return nil, nil
	})
	health := &readiness{}

	if _, err := New(nil, http.DefaultTransport, health); err == nil {
		t.Error("New() accepted a nil adapter")
	}
	if _, err := New(adapter, nil, health); err == nil {
		t.Error("New() accepted a nil transport")
	}
	if _, err := New(adapter, http.DefaultTransport, nil); err == nil {
		t.Error("New() accepted a nil readiness checker")
	}
	if _, err := New(adapter, http.DefaultTransport, health, WithCatalog("vertex")); err == nil {
		t.Error("New() accepted an unknown catalog")
	}
}

func TestChatCompletions_SingleFrame(t *testing.T) {
	for _, stream := range []string{"", `,"stream":true`, `,"stream":false`} {
		var got openaiadapter.CreateChatCompletionRequest
		p, _ := newTestProxy(t, adapterFunc(func(_ context.Context, req openaiadapter.CreateChatCompletionRequest) (*openaiadapter.CreateChatCompletionChunk, error) {
			got = req
			return textChunk(req.Model, "Hello!"), nil
		}))

		rec := post(t, p, `{"model":"claude-3-haiku-20240307","messages":[{"role":"user","content":"hi"}]`+stream+`}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); ct != ndjsonContentType {
			t.Errorf("Content-Type = %q, want %q", ct, ndjsonContentType)
		}
		if got.Model != "claude-3-haiku-20240307" || len(got.Messages) != 1 {
			t.Errorf("adapter received %+v", got)
		}

		body := rec.Body.String()
		if !strings.HasPrefix(body, "data: ") || !strings.HasSuffix(body, "\n\n") || strings.Count(body, "data: ") != 1 {
			t.Fatalf("body is not a single frame: %q", body)
		}

		var chunk openaiadapter.CreateChatCompletionChunk
		if err := json.Unmarshal([]byte(strings.TrimSuffix(strings.TrimPrefix(body, "data: "), "\n\n")), &chunk); err != nil {
			t.Fatalf("decode chunk: %v", err)
		}
		if chunk.Object != types.ChatCompletionChunk || *chunk.Choices[0].Delta.Content != "Hello!" {
			t.Errorf("unexpected chunk %+v", chunk)
		}
	}
}

func TestChatCompletions_MalformedBody(t *testing.T) {
	p, _ := newTestProxy(t, adapterFunc(func(context.Context, openaiadapter.CreateChatCompletionRequest) (*openaiadapter.CreateChatCompletionChunk, error) {
		t.Error("adapter called for a malformed body")
		return nil, nil
	}))

	rec := post(t, p, `{"model":`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := decodeErrorResponse(t, rec).Err.Type; got != "invalid_request_error" {
		t.Errorf("error type = %q", got)
	}
}

func TestChatCompletions_BodyTooLarge(t *testing.T) {
	p, _ := newTestProxy(t, adapterFunc(func(context.Context, openaiadapter.CreateChatCompletionRequest) (*openaiadapter.CreateChatCompletionChunk, error) {
		t.Error("adapter called for an oversized body")
		return nil, nil
	}), WithMaxRequestBytes(64))

	rec := post(t, p, `{"model":"claude-3-haiku-20240307","messages":[{"role":"user","content":"`+strings.Repeat("x", 128)+`"}]}`)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
}

func TestChatCompletions_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "upstream error keeps status and flat body",
			err:        &openaiadapter.UpstreamError{StatusCode: 429, Key: "error", Message: "rate limited"},
			wantStatus: http.StatusTooManyRequests,
			wantBody:   `{"error":"rate limited"}`,
		},
		{
			name:       "upstream error without status",
			err:        &openaiadapter.UpstreamError{Key: "error from remote", Message: "connection refused"},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error from remote":"connection refused"}`,
		},
		{
			name:       "invalid request",
			err:        openaiadapter.NewInvalidRequestError("messages: required"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":{"code":null,"message":"messages: required","param":null,"type":"invalid_request_error"}}`,
		},
		{
			name:       "unexpected error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":{"code":null,"message":"Internal Server Error","param":null,"type":"api_error"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestProxy(t, adapterFunc(func(context.Context, openaiadapter.CreateChatCompletionRequest) (*openaiadapter.CreateChatCompletionChunk, error) {
				return nil, tt.err
			}))

			rec := post(t, p, `{"model":"m","messages":[{"role":"user","content":"hi"}]}`)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tt.wantBody {
				t.Errorf("body = %s, want %s", got, tt.wantBody)
			}
		})
	}
}

func TestChatCompletions_PanicRecovered(t *testing.T) {
	p, _ := newTestProxy(t, adapterFunc(func(context.Context, openaiadapter.CreateChatCompletionRequest) (*openaiadapter.CreateChatCompletionChunk, error) {
		panic("adapter bug")
	}))

	rec := post(t, p, `{"model":"m","messages":[{"role":"user","content":"hi"}]}`)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if rec.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("request ID header missing on recovered panic")
	}
}

func TestModels(t *testing.T) {
	tests := []struct {
		catalog string
		wantID  string
	}{
		{CatalogAnthropic, "claude-3-opus-20240229"},
		{CatalogBedrock, "anthropic.claude-3-haiku-20240307-v1:0"},
	}

	for _, tt := range tests {
		t.Run(tt.catalog, func(t *testing.T) {
			p, _ := newTestProxy(t, adapterFunc(nil), WithCatalog(tt.catalog))

			rec := httptest.NewRecorder()
			p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/models", nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			var list modelList
			if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
				t.Fatal(err)
			}
			if list.Object != "list" || len(list.Data) != 3 {
				t.Fatalf("unexpected listing %+v", list)
			}
			found := false
			for _, m := range list.Data {
				if m.Object != "model" || m.Name == "" {
					t.Errorf("incomplete entry %+v", m)
				}
				found = found || m.ID == tt.wantID
			}
			if !found {
				t.Errorf("listing misses %s", tt.wantID)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	p, health := newTestProxy(t, adapterFunc(nil))

	get := func(path string) int {
		rec := httptest.NewRecorder()
		p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec.Code
	}

	if got := get("/health/readiness"); got != http.StatusOK {
		t.Errorf("readiness = %d while ready", got)
	}
	health.ready.Store(false)
	if got := get("/health/readiness"); got != http.StatusServiceUnavailable {
		t.Errorf("readiness = %d while not ready", got)
	}
	if got := get("/health/liveness"); got != http.StatusOK {
		t.Errorf("liveness = %d", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	p, _ := newTestProxy(t, adapterFunc(func(_ context.Context, req openaiadapter.CreateChatCompletionRequest) (*openaiadapter.CreateChatCompletionChunk, error) {
		return textChunk(req.Model, "ok"), nil
	}))
	post(t, p, `{"model":"m","messages":[{"role":"user","content":"hi"}]}`)

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if !strings.Contains(rec.Body.String(), `route="POST /v1/chat/completions"`) {
		t.Errorf("metrics miss the chat completions route")
	}
}

func TestRequestIDHeader(t *testing.T) {
	p, _ := newTestProxy(t, adapterFunc(nil))

	req := httptest.NewRequest(http.MethodGet, "/health/liveness", nil)
	req.Header.Set(middleware.RequestIDHeader, "client-id-1")
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, req)

	if got := rec.Header().Get(middleware.RequestIDHeader); got != "client-id-1" {
		t.Errorf("X-Request-ID = %q, want client-id-1", got)
	}
}

func TestStartShutdown(t *testing.T) {
	p, _ := newTestProxy(t, adapterFunc(func(_ context.Context, req openaiadapter.CreateChatCompletionRequest) (*openaiadapter.CreateChatCompletionChunk, error) {
		return textChunk(req.Model, "served"), nil
	}))

	errCh, err := p.Start(context.Background(), "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	resp, err := http.Post("http://"+p.Addr().String()+"/v1/chat/completions", "application/json",
		strings.NewReader(`{"model":"m","messages":[{"role":"user","content":"hi"}]}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	_ = resp.Body.Close()
	if err != nil || !strings.Contains(line, `"content":"served"`) {
		t.Errorf("first line = %q, err %v", line, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if err, ok := <-errCh; ok {
		t.Errorf("serve error = %v", err)
	}
}
