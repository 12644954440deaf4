package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/yungbote/backofhouse-backend/internal/pkg/ctxutil"
	"github.com/yungbote/backofhouse-backend/internal/pkg/httpx"
	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
)

const (
	DefaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
)

type Client interface {
	// Complete issues a non-streaming request; used for the tool-call loop.
	Complete(ctx context.Context, req Request) (*Response, error)
	// Stream forwards each text delta to onDelta and returns the full text.
	// Returning an error from onDelta aborts the stream.
	Stream(ctx context.Context, req Request, onDelta func(delta string) error) (string, error)
}

type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	// RequestsPerSecond bounds outbound calls; zero disables limiting.
	RequestsPerSecond float64
}

type client struct {
	log        *logger.Logger
	apiKey     string
	baseURL    string
	httpClient *http.Client
	maxRetries int
	limiter    *rate.Limiter
}

func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing ANTHROPIC_API_KEY")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return &client{
		log:        log.With("client", "AnthropicClient"),
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: cfg.MaxRetries,
		limiter:    limiter,
	}, nil
}

// HTTPError is a non-2xx response from the provider.
type HTTPError struct {
	StatusCode int
	Type       string
	Message    string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("anthropic http %d (%s): %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("anthropic http %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

// StreamError is an error event received after the stream started.
type StreamError struct {
	Type    string
	Message string
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("anthropic stream error (%s): %s", e.Type, e.Message)
}

func newHTTPError(status int, raw []byte) *HTTPError {
	e := &HTTPError{StatusCode: status, Body: string(raw)}
	var env struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &env) == nil {
		e.Type = env.Error.Type
		e.Message = env.Error.Message
	}
	return e
}

func (c *client) newRequest(ctx context.Context, body any, stream bool) (*http.Request, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("Content-Type", "application/json")
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}
	return req, nil
}

// send returns a 2xx response with an unread body. Retries happen only before
// any byte of a successful response has been consumed.
func (c *client) send(ctx context.Context, body Request) (*http.Response, error) {
	backoff := 1 * time.Second
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		req, err := c.newRequest(ctx, body, body.Stream)
		if err != nil {
			return nil, err
		}
		resp, err := c.httpClient.Do(req)
		if err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}
		if err == nil {
			raw, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			err = newHTTPError(resp.StatusCode, raw)
		}

		if !httpx.IsRetryableError(err) || attempt == c.maxRetries {
			return nil, err
		}
		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("Anthropic request retrying",
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		if err := httpx.SleepContext(ctx, sleepFor); err != nil {
			return nil, err
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("unreachable retry loop")
}

func (c *client) Complete(ctx context.Context, req Request) (*Response, error) {
	ctx, span := otel.Tracer("anthropic").Start(ctxutil.Default(ctx), "anthropic.Complete")
	defer span.End()
	span.SetAttributes(attribute.String("model", req.Model), attribute.Int("tools", len(req.Tools)))

	req.Stream = false
	resp, err := c.send(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("anthropic decode: %w", err)
	}
	span.SetAttributes(
		attribute.String("stop_reason", out.StopReason),
		attribute.Int("input_tokens", out.Usage.InputTokens),
		attribute.Int("output_tokens", out.Usage.OutputTokens),
	)
	return &out, nil
}

type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *client) Stream(ctx context.Context, req Request, onDelta func(delta string) error) (string, error) {
	ctx, span := otel.Tracer("anthropic").Start(ctxutil.Default(ctx), "anthropic.Stream")
	defer span.End()
	span.SetAttributes(attribute.String("model", req.Model))

	req.Stream = true
	req.Tools = nil
	resp, err := c.send(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	defer resp.Body.Close()

	var full strings.Builder
	err = streamSSE(resp.Body, func(event string, data string) error {
		if strings.TrimSpace(data) == "" {
			return nil
		}
		var ev streamEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			return nil
		}
		evt := ev.Type
		if evt == "" {
			evt = event
		}
		switch evt {
		case "error":
			if ev.Error != nil {
				return &StreamError{Type: ev.Error.Type, Message: ev.Error.Message}
			}
			return &StreamError{Type: "unknown", Message: data}
		case "content_block_delta":
			if ev.Delta.Type != "text_delta" || ev.Delta.Text == "" {
				return nil
			}
			full.WriteString(ev.Delta.Text)
			if onDelta != nil {
				return onDelta(ev.Delta.Text)
			}
		}
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return full.String(), err
	}
	span.SetAttributes(attribute.Int("chars", full.Len()))
	return full.String(), nil
}
