package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yungbote/backofhouse-backend/internal/pkg/ctxutil"
	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
)

const (
	DefaultBaseURL = "https://api.notion.com"
	apiVersion     = "2022-06-28"

	maxBlockPages = 5
)

// Client exposes the workspace search, page fetch and database query operations.
type Client interface {
	Search(ctx context.Context, query string, filterType string) ([]SearchResult, error)
	GetPage(ctx context.Context, pageID string) (*PageContent, error)
	QueryDatabase(ctx context.Context, databaseID string, q DatabaseQuery) ([]DatabaseRow, error)
}

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type SearchResult struct {
	ID     string `json:"id"`
	Object string `json:"object"`
	Title  string `json:"title"`
	URL    string `json:"url"`
}

type PageContent struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Text  string `json:"text"`
}

type DatabaseQuery struct {
	Filter   map[string]any   `json:"filter,omitempty"`
	Sorts    []map[string]any `json:"sorts,omitempty"`
	PageSize int              `json:"page_size,omitempty"`
}

type DatabaseRow struct {
	ID         string         `json:"id"`
	URL        string         `json:"url"`
	Properties map[string]any `json:"properties"`
}

type HTTPError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("notion http %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

func (e *HTTPError) HTTPStatusCode() int { return e.StatusCode }

type client struct {
	log        *logger.Logger
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing NOTION_API_KEY")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &client{
		log:        log.With("client", "NotionClient"),
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	var rdr io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
		rdr = &buf
	}
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		he := &HTTPError{StatusCode: resp.StatusCode, Message: string(raw)}
		var env struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &env) == nil && env.Message != "" {
			he.Code, he.Message = env.Code, env.Message
		}
		return he
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("notion decode: %w", err)
	}
	return nil
}

type object struct {
	Object     string                     `json:"object"`
	ID         string                     `json:"id"`
	URL        string                     `json:"url"`
	Title      []richText                 `json:"title"`
	Properties map[string]json.RawMessage `json:"properties"`
}

type richText struct {
	PlainText string `json:"plain_text"`
}

func (o object) title() string {
	if len(o.Title) > 0 {
		return joinRich(o.Title)
	}
	for _, raw := range o.Properties {
		var p struct {
			Type  string     `json:"type"`
			Title []richText `json:"title"`
		}
		if json.Unmarshal(raw, &p) == nil && p.Type == "title" {
			return joinRich(p.Title)
		}
	}
	return ""
}

func joinRich(parts []richText) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.PlainText)
	}
	return b.String()
}

func (c *client) Search(ctx context.Context, query string, filterType string) ([]SearchResult, error) {
	body := map[string]any{"query": query, "page_size": 10}
	switch filterType {
	case "page", "database":
		body["filter"] = map[string]any{"property": "object", "value": filterType}
	}
	var resp struct {
		Results []object `json:"results"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/search", body, &resp); err != nil {
		return nil, err
	}
	out := make([]SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, SearchResult{ID: r.ID, Object: r.Object, Title: r.title(), URL: r.URL})
	}
	return out, nil
}

func (c *client) GetPage(ctx context.Context, pageID string) (*PageContent, error) {
	pageID = strings.TrimSpace(pageID)
	if pageID == "" {
		return nil, fmt.Errorf("page_id required")
	}
	var page object
	if err := c.do(ctx, http.MethodGet, "/v1/pages/"+url.PathEscape(pageID), nil, &page); err != nil {
		return nil, err
	}
	var text strings.Builder
	cursor := ""
	for i := 0; i < maxBlockPages; i++ {
		path := "/v1/blocks/" + url.PathEscape(pageID) + "/children?page_size=100"
		if cursor != "" {
			path += "&start_cursor=" + url.QueryEscape(cursor)
		}
		var resp struct {
			Results    []map[string]json.RawMessage `json:"results"`
			HasMore    bool                         `json:"has_more"`
			NextCursor *string                      `json:"next_cursor"`
		}
		if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
			return nil, err
		}
		for _, b := range resp.Results {
			if line := blockText(b); line != "" {
				text.WriteString(line)
				text.WriteString("\n")
			}
		}
		if !resp.HasMore || resp.NextCursor == nil {
			break
		}
		cursor = *resp.NextCursor
	}
	return &PageContent{ID: page.ID, Title: page.title(), URL: page.URL, Text: strings.TrimSpace(text.String())}, nil
}

// blockText flattens the rich_text of a block; blocks without text yield "".
func blockText(b map[string]json.RawMessage) string {
	var typ string
	if err := json.Unmarshal(b["type"], &typ); err != nil || typ == "" {
		return ""
	}
	var body struct {
		RichText []richText `json:"rich_text"`
		Checked  *bool      `json:"checked"`
	}
	if err := json.Unmarshal(b[typ], &body); err != nil {
		return ""
	}
	s := joinRich(body.RichText)
	if s == "" {
		return ""
	}
	switch typ {
	case "heading_1":
		return "# " + s
	case "heading_2":
		return "## " + s
	case "heading_3":
		return "### " + s
	case "bulleted_list_item", "numbered_list_item":
		return "- " + s
	case "to_do":
		if body.Checked != nil && *body.Checked {
			return "[x] " + s
		}
		return "[ ] " + s
	}
	return s
}

func (c *client) QueryDatabase(ctx context.Context, databaseID string, q DatabaseQuery) ([]DatabaseRow, error) {
	databaseID = strings.TrimSpace(databaseID)
	if databaseID == "" {
		return nil, fmt.Errorf("database_id required")
	}
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 25
	}
	var resp struct {
		Results []object `json:"results"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/databases/"+url.PathEscape(databaseID)+"/query", q, &resp); err != nil {
		return nil, err
	}
	out := make([]DatabaseRow, 0, len(resp.Results))
	for _, r := range resp.Results {
		props := make(map[string]any, len(r.Properties))
		for name, raw := range r.Properties {
			props[name] = propertyValue(raw)
		}
		out = append(out, DatabaseRow{ID: r.ID, URL: r.URL, Properties: props})
	}
	return out, nil
}

// propertyValue reduces a typed database property to a plain JSON value.
func propertyValue(raw json.RawMessage) any {
	var p struct {
		Type        string     `json:"type"`
		Title       []richText `json:"title"`
		RichText    []richText `json:"rich_text"`
		Number      *float64   `json:"number"`
		Checkbox    *bool      `json:"checkbox"`
		URL         *string    `json:"url"`
		Email       *string    `json:"email"`
		PhoneNumber *string    `json:"phone_number"`
		Select      *struct {
			Name string `json:"name"`
		} `json:"select"`
		Status *struct {
			Name string `json:"name"`
		} `json:"status"`
		MultiSelect []struct {
			Name string `json:"name"`
		} `json:"multi_select"`
		Date *struct {
			Start string  `json:"start"`
			End   *string `json:"end"`
		} `json:"date"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil
	}
	switch p.Type {
	case "title":
		return joinRich(p.Title)
	case "rich_text":
		return joinRich(p.RichText)
	case "number":
		return p.Number
	case "checkbox":
		return p.Checkbox
	case "url":
		return p.URL
	case "email":
		return p.Email
	case "phone_number":
		return p.PhoneNumber
	case "select":
		if p.Select != nil {
			return p.Select.Name
		}
	case "status":
		if p.Status != nil {
			return p.Status.Name
		}
	case "multi_select":
		names := make([]string, 0, len(p.MultiSelect))
		for _, m := range p.MultiSelect {
			names = append(names, m.Name)
		}
		return names
	case "date":
		if p.Date != nil {
			if p.Date.End != nil {
				return p.Date.Start + " to " + *p.Date.End
			}
			return p.Date.Start
		}
	default:
		var generic any
		_ = json.Unmarshal(raw, &generic)
		return generic
	}
	return nil
}
