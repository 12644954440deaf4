package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/backofhouse-backend/internal/data/repos"
	"github.com/yungbote/backofhouse-backend/internal/pkg/dbctx"
)

type knowledgeAssembler struct {
	repo repos.KnowledgeRepo
}

func NewKnowledgeAssembler(repo repos.KnowledgeRepo) Assembler {
	return &knowledgeAssembler{repo: repo}
}

func (a *knowledgeAssembler) Name() string { return AssemblerKnowledge }

func (a *knowledgeAssembler) Assemble(ctx context.Context, tc TurnContext) (Block, error) {
	rows, err := a.repo.ListActive(dbctx.New(ctx), tc.RestaurantID)
	if err != nil {
		return Block{}, fmt.Errorf("list custom knowledge: %w", err)
	}
	entries := make([]string, 0, len(rows))
	for _, k := range rows {
		if k == nil || strings.TrimSpace(k.Content) == "" {
			continue
		}
		entries = append(entries, fmt.Sprintf("**%s** (%s)\n%s", strings.TrimSpace(k.Title), k.Category, strings.TrimSpace(k.Content)))
	}
	if len(entries) == 0 {
		return Block{}, nil
	}
	return Block{Text: "CUSTOM KNOWLEDGE (restaurant-specific rules; these override general best practice):\n\n" + strings.Join(entries, "\n\n")}, nil
}
