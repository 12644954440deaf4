package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/backofhouse-backend/internal/clients/anthropic"
	"github.com/yungbote/backofhouse-backend/internal/clients/notion"
)

const (
	ToolNotionSearch        = "notion_search"
	ToolNotionGetPage       = "notion_get_page"
	ToolNotionQueryDatabase = "notion_query_database"
)

// ToolExecutor runs one tool invocation and returns a JSON-serializable result.
type ToolExecutor interface {
	Tools() []anthropic.Tool
	Execute(ctx context.Context, name string, input json.RawMessage) (any, error)
}

func schemaNotionSearch() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string", "description": "Free-text search across the connected workspace."},
			"filter_type": map[string]any{
				"type":        "string",
				"enum":        []any{"page", "database"},
				"description": "Restrict results to pages or databases.",
			},
		},
		"required": []any{"query"},
	}
}

func schemaNotionGetPage() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"page_id": map[string]any{"type": "string", "description": "Page id returned by notion_search."},
		},
		"required": []any{"page_id"},
	}
}

func schemaNotionQueryDatabase() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"database_id": map[string]any{"type": "string", "description": "Database id returned by notion_search."},
			"filter":      map[string]any{"type": "object", "description": "Notion filter object."},
			"sorts": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "object"},
				"description": "Notion sort objects.",
			},
			"page_size": map[string]any{"type": "integer", "minimum": 1, "maximum": 100},
		},
		"required": []any{"database_id"},
	}
}

type notionTools struct {
	client notion.Client
}

func NewNotionTools(client notion.Client) ToolExecutor {
	return &notionTools{client: client}
}

func (n *notionTools) Tools() []anthropic.Tool {
	return []anthropic.Tool{
		{
			Name:        ToolNotionSearch,
			Description: "Search the restaurant's Notion workspace for pages and databases (SOPs, recipes, checklists, schedules).",
			InputSchema: schemaNotionSearch(),
		},
		{
			Name:        ToolNotionGetPage,
			Description: "Fetch the full text content of a Notion page by id.",
			InputSchema: schemaNotionGetPage(),
		},
		{
			Name:        ToolNotionQueryDatabase,
			Description: "Query a Notion database by id with optional filter and sorts.",
			InputSchema: schemaNotionQueryDatabase(),
		},
	}
}

func (n *notionTools) Execute(ctx context.Context, name string, input json.RawMessage) (any, error) {
	switch name {
	case ToolNotionSearch:
		var in struct {
			Query      string `json:"query"`
			FilterType string `json:"filter_type"`
		}
		if err := decodeToolInput(input, &in); err != nil {
			return nil, err
		}
		results, err := n.client.Search(ctx, in.Query, in.FilterType)
		if err != nil {
			return nil, err
		}
		return map[string]any{"results": results}, nil
	case ToolNotionGetPage:
		var in struct {
			PageID string `json:"page_id"`
		}
		if err := decodeToolInput(input, &in); err != nil {
			return nil, err
		}
		if strings.TrimSpace(in.PageID) == "" {
			return nil, fmt.Errorf("page_id is required")
		}
		return n.client.GetPage(ctx, in.PageID)
	case ToolNotionQueryDatabase:
		var in struct {
			DatabaseID string           `json:"database_id"`
			Filter     map[string]any   `json:"filter"`
			Sorts      []map[string]any `json:"sorts"`
			PageSize   int              `json:"page_size"`
		}
		if err := decodeToolInput(input, &in); err != nil {
			return nil, err
		}
		if strings.TrimSpace(in.DatabaseID) == "" {
			return nil, fmt.Errorf("database_id is required")
		}
		rows, err := n.client.QueryDatabase(ctx, in.DatabaseID, notion.DatabaseQuery{Filter: in.Filter, Sorts: in.Sorts, PageSize: in.PageSize})
		if err != nil {
			return nil, err
		}
		return map[string]any{"results": rows}, nil
	}
	return nil, fmt.Errorf("unknown tool %q", name)
}

func decodeToolInput(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("invalid tool input: %w", err)
	}
	return nil
}
