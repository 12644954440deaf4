package pos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/backofhouse-backend/internal/pkg/ctxutil"
	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
)

// Client talks to the POS reporting service.
type Client interface {
	Do(ctx context.Context, req ReportRequest) (*ReportResponse, error)
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("missing POS_API_BASE_URL")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &client{
		log:        log.With("client", "POSClient"),
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("pos http %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPError) HTTPStatusCode() int { return e.StatusCode }

func (c *client) Do(ctx context.Context, in ReportRequest) (*ReportResponse, error) {
	if in.ReportType == "" {
		in.ReportType = ReportTypeMetrics
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(in); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), http.MethodPost, c.baseURL+"/reports", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusAccepted {
		out := &ReportResponse{Status: StatusProcessing}
		_ = json.Unmarshal(raw, out)
		out.Status = StatusProcessing
		return out, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out ReportResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("pos decode: %w", err)
	}
	if out.Status == "" {
		out.Status = StatusReady
		if out.Data == nil && out.ReportGUID != "" {
			out.Status = StatusProcessing
		}
	}
	return &out, nil
}
