package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
)

func newTestClient(t *testing.T, srv *httptest.Server, retries int) Client {
	t.Helper()
	c, err := NewClient(logger.Nop(), Config{APIKey: "test-key", BaseURL: srv.URL, MaxRetries: retries})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestStreamForwardsTextDeltas(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" || r.Header.Get("anthropic-version") != apiVersion {
			t.Errorf("missing auth headers: %v", r.Header)
		}
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Stream {
			t.Errorf("expected stream request, got %+v err=%v", req, err)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: message_start\ndata: {\"type\":\"message_start\"}\n\n")
		fmt.Fprint(w, ": keepalive\n\n")
		fmt.Fprint(w, "event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"text_delta\",\"text\":\"Prep \"}}\n\n")
		fmt.Fprint(w, "event: ping\ndata: {\"type\":\"ping\"}\n\n")
		fmt.Fprint(w, "event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"text_delta\",\"text\":\"the line.\"}}\n\n")
		fmt.Fprint(w, "event: message_stop\ndata: {\"type\":\"message_stop\"}\n\n")
	}))
	defer srv.Close()

	var deltas []string
	full, err := newTestClient(t, srv, 0).Stream(context.Background(), Request{Model: "m", MaxTokens: 10}, func(d string) error {
		deltas = append(deltas, d)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if full != "Prep the line." || len(deltas) != 2 {
		t.Fatalf("full=%q deltas=%v", full, deltas)
	}
}

func TestStreamErrorEventAfterStart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"partial\"}}\n\n")
		fmt.Fprint(w, "event: error\ndata: {\"type\":\"error\",\"error\":{\"type\":\"overloaded_error\",\"message\":\"Overloaded\"}}\n\n")
	}))
	defer srv.Close()

	full, err := newTestClient(t, srv, 0).Stream(context.Background(), Request{Model: "m"}, nil)
	var se *StreamError
	if !errors.As(err, &se) || se.Type != "overloaded_error" {
		t.Fatalf("expected StreamError, got %v", err)
	}
	if full != "partial" {
		t.Fatalf("expected partial text to be returned, got %q", full)
	}
}

func TestHTTPErrorsCarryStatus(t *testing.T) {
	cases := []struct {
		status int
		body   string
		calls  int32
	}{
		{http.StatusTooManyRequests, `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`, 2},
		{http.StatusPaymentRequired, `{"type":"error","error":{"type":"billing_error","message":"add credits"}}`, 1},
		{http.StatusBadRequest, `{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`, 1},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprint(tc.status), func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.Header().Set("Retry-After", "0")
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv, 1).Complete(context.Background(), Request{Model: "m"})
			var he *HTTPError
			if !errors.As(err, &he) || he.StatusCode != tc.status {
				t.Fatalf("expected HTTPError %d, got %v", tc.status, err)
			}
			if he.Message == "" {
				t.Fatalf("expected parsed provider message")
			}
			if got := atomic.LoadInt32(&calls); got != tc.calls {
				t.Fatalf("expected %d calls, got %d", tc.calls, got)
			}
		})
	}
}

func TestCompleteParsesToolUse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Tools) != 1 || req.Stream {
			t.Errorf("expected one tool, non-stream: %+v", req)
		}
		fmt.Fprint(w, `{"id":"msg_1","role":"assistant","stop_reason":"tool_use","content":[`+
			`{"type":"text","text":"Let me look."},`+
			`{"type":"tool_use","id":"toolu_1","name":"notion_search","input":{"query":"par levels"}}]}`)
	}))
	defer srv.Close()

	resp, err := newTestClient(t, srv, 0).Complete(context.Background(), Request{
		Model: "m",
		Tools: []Tool{{Name: "notion_search", InputSchema: map[string]any{"type": "object"}}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Text() != "Let me look." {
		t.Fatalf("text=%q", resp.Text())
	}
	uses := resp.ToolUses()
	if len(uses) != 1 || uses[0].ID != "toolu_1" || !strings.Contains(string(uses[0].Input), "par levels") {
		t.Fatalf("tool uses=%+v", uses)
	}
}
