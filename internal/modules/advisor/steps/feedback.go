package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/backofhouse-backend/internal/data/repos"
	"github.com/yungbote/backofhouse-backend/internal/pkg/dbctx"
)

const (
	FeedbackRatingLimit  = 50
	feedbackRecentWindow = 10
	feedbackDirectiveCut = 3.5
)

type feedbackAssembler struct {
	repo repos.FeedbackRepo
}

func NewFeedbackAssembler(repo repos.FeedbackRepo) Assembler {
	return &feedbackAssembler{repo: repo}
}

func (a *feedbackAssembler) Name() string { return AssemblerFeedback }

func (a *feedbackAssembler) Assemble(ctx context.Context, tc TurnContext) (Block, error) {
	ratings, err := a.repo.ListRecentRatings(dbctx.New(ctx), tc.RestaurantID, FeedbackRatingLimit)
	if err != nil {
		return Block{}, fmt.Errorf("list feedback ratings: %w", err)
	}
	return Block{Text: RenderFeedback(ratings)}, nil
}

// FeedbackStats summarizes ratings ordered newest first.
type FeedbackStats struct {
	Count         int
	RecentCount   int
	RecentAverage float64
	Average       float64
}

func ComputeFeedbackStats(newestFirst []int) FeedbackStats {
	st := FeedbackStats{Count: len(newestFirst)}
	if st.Count == 0 {
		return st
	}
	sum, recentSum := 0, 0
	for i, r := range newestFirst {
		sum += r
		if i < feedbackRecentWindow {
			recentSum += r
			st.RecentCount++
		}
	}
	st.Average = float64(sum) / float64(st.Count)
	st.RecentAverage = float64(recentSum) / float64(st.RecentCount)
	return st
}

// InterpretRating places an average on the tone ladder.
func InterpretRating(avg float64) string {
	switch {
	case avg >= 4.5:
		return "excellent; maintain the current tone and approach"
	case avg >= 3.5:
		return "good; responses are landing well"
	case avg >= 2.5:
		return "mixed; consider adjusting tone and depth"
	default:
		return "poor; adjust the approach significantly"
	}
}

func RenderFeedback(newestFirst []int) string {
	st := ComputeFeedbackStats(newestFirst)
	if st.Count == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("USER FEEDBACK INSIGHTS:\n")
	fmt.Fprintf(&b, "- Recent average (last %d ratings): %.1f/5, %s\n", st.RecentCount, st.RecentAverage, InterpretRating(st.RecentAverage))
	fmt.Fprintf(&b, "- Overall average (%d ratings): %.1f/5, %s\n", st.Count, st.Average, InterpretRating(st.Average))
	if st.RecentAverage >= feedbackDirectiveCut {
		b.WriteString("Directive: the operator is responding well. Keep the current style and level of detail.")
	} else {
		b.WriteString("Directive: recent ratings are below target. Be more concise and specific, and confirm what the operator needs before advising.")
	}
	return b.String()
}
