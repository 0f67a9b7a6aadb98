package proxy

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/florianilch/claude3-provider/internal/openaiadapter/anthropicclaude"
)

// replayTransport returns a recorded upstream body without network calls.
type replayTransport struct {
	body        string
	contentType string
}

func (m *replayTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(m.body)),
		Header:     http.Header{"Content-Type": []string{m.contentType}},
		Request:    req,
	}, nil
}

// recordedTurn is the subset of a conversation fixture turn needed to replay it.
type recordedTurn struct {
	OpenAIRequest     json.RawMessage `json:"openaiRequest"`
	AnthropicResponse json.RawMessage `json:"anthropicResponse"`
	AnthropicSSE      []string        `json:"anthropicSSE"`
}

// loadTurn reads the first turn of an adapter conversation fixture.
func loadTurn(b *testing.B, mode, name string) (openaiReq string, upstream *replayTransport) {
	b.Helper()

	path := filepath.Join("..", "openaiadapter", "anthropicclaude", "testdata", mode, name)
	data, err := os.ReadFile(path)
	if err != nil {
		b.Fatalf("read fixture %s: %v", path, err)
	}

	var turns []recordedTurn
	if err := json.Unmarshal(data, &turns); err != nil {
		b.Fatalf("parse fixture %s: %v", path, err)
	}
	if len(turns) == 0 {
		b.Fatalf("no turns in fixture %s", path)
	}

	turn := turns[0]
	if len(turn.AnthropicSSE) > 0 {
		return string(turn.OpenAIRequest), &replayTransport{
			body:        strings.Join(turn.AnthropicSSE, "\n") + "\n",
			contentType: "text/event-stream",
		}
	}
	return string(turn.OpenAIRequest), &replayTransport{
		body:        string(turn.AnthropicResponse),
		contentType: "application/json",
	}
}

// setupProxy creates a Proxy with the full middleware stack and the real adapter in
// front of a replayed upstream. Logging is discarded.
func setupProxy(b *testing.B, strategy anthropicclaude.ToolCallingStrategy, transport http.RoundTripper) *Proxy {
	b.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	slog.SetDefault(logger)

	health := &readiness{}
	health.ready.Store(true)

	adapter := anthropicclaude.NewCreateChatCompletionAdapter(anthropicclaude.Config{Strategy: strategy})
	p, err := New(adapter, transport, health, WithLogger(logger))
	if err != nil {
		b.Fatalf("create proxy: %v", err)
	}
	return p
}

// BenchmarkProxy measures end-to-end latency through routing, middleware, request and
// response mapping. Network latency is excluded.
func BenchmarkProxy(b *testing.B) {
	scenarios := []struct {
		name     string
		mode     string
		fixture  string
		strategy anthropicclaude.ToolCallingStrategy
	}{
		{"native_text", "native", "hello.json", anthropicclaude.NativeToolCalling{SystemAsUserTurn: true}},
		{"native_tool_use", "native", "tool_use.json", anthropicclaude.NativeToolCalling{SystemAsUserTurn: true}},
		{"xml_tool_use", "xml", "tool_use.json", anthropicclaude.XMLPromptedToolCalling{}},
	}

	for _, s := range scenarios {
		openaiReq, upstream := loadTurn(b, s.mode, s.fixture)

		b.Run(s.name, func(b *testing.B) {
			server := httptest.NewServer(setupProxy(b, s.strategy, upstream))
			defer server.Close()

			b.ReportAllocs()

			for b.Loop() {
				resp, err := http.Post(server.URL+"/v1/chat/completions", "application/json", strings.NewReader(openaiReq))
				if err != nil {
					b.Fatalf("request failed: %v", err)
				}
				if resp.StatusCode != http.StatusOK {
					b.Fatalf("unexpected status code: %d", resp.StatusCode)
				}
				if _, err := io.Copy(io.Discard, resp.Body); err != nil {
					b.Fatalf("read response: %v", err)
				}
				_ = resp.Body.Close()
			}
		})
	}
}

// BenchmarkProxyConcurrent measures throughput under concurrent load.
func BenchmarkProxyConcurrent(b *testing.B) {
	openaiReq, upstream := loadTurn(b, "xml", "tool_use.json")

	server := httptest.NewServer(setupProxy(b, anthropicclaude.XMLPromptedToolCalling{}, upstream))
	defer server.Close()

	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			resp, err := http.Post(server.URL+"/v1/chat/completions", "application/json", strings.NewReader(openaiReq))
			if err != nil {
				b.Errorf("request failed: %v", err)
				return
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				b.Errorf("unexpected status code: %d", resp.StatusCode)
				return
			}
		}
	})
}
