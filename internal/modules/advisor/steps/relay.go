package steps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/backofhouse-backend/internal/clients/anthropic"
	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
)

const MaxToolRounds = 5

// Responder is the caller-facing sink for a turn. Emit may be called any
// number of times with incremental text; Finish is called exactly once.
type Responder interface {
	Emit(text string) error
	Finish(res TurnResult) error
}

// TurnResult is what the caller sees when a turn completes. Patched is set
// when text was appended after the output was emitted.
type TurnResult struct {
	MessageID uuid.UUID
	Content   string
	Patched   bool
}

type RelayRequest struct {
	Choice   ModelChoice
	System   string
	Messages []anthropic.Message
	// Tools is the composed tool schema; the tool loop falls back to its
	// executor's full set when empty.
	Tools []anthropic.Tool
}

type RelayResult struct {
	Text    string
	Emitted bool
	Rounds  int
	// Interrupted is set when the provider failed after output reached the caller.
	Interrupted error
}

// Relay turns one composed request into caller-visible output.
type Relay interface {
	Relay(ctx context.Context, req RelayRequest, out Responder) (RelayResult, error)
}

type StreamRelay struct {
	client anthropic.Client
}

func NewStreamRelay(client anthropic.Client) *StreamRelay {
	return &StreamRelay{client: client}
}

func (r *StreamRelay) Relay(ctx context.Context, req RelayRequest, out Responder) (RelayResult, error) {
	emitted := false
	text, err := r.client.Stream(ctx, anthropic.Request{
		Model:     req.Choice.Model,
		MaxTokens: req.Choice.MaxTokens,
		System:    req.System,
		Messages:  req.Messages,
	}, func(delta string) error {
		emitted = true
		return out.Emit(delta)
	})
	if err != nil {
		if !emitted {
			return RelayResult{}, ClassifyProviderError(err)
		}
		return RelayResult{Text: text, Emitted: true, Rounds: 1, Interrupted: err}, nil
	}
	return RelayResult{Text: text, Emitted: emitted, Rounds: 1}, nil
}

// ToolLoopRelay runs non-streamed completions, executing requested tools and
// feeding their results back, for at most MaxToolRounds provider calls.
type ToolLoopRelay struct {
	log    *logger.Logger
	client anthropic.Client
	tools  ToolExecutor
}

func NewToolLoopRelay(log *logger.Logger, client anthropic.Client, tools ToolExecutor) *ToolLoopRelay {
	return &ToolLoopRelay{log: log.With("relay", "ToolLoop"), client: client, tools: tools}
}

func (r *ToolLoopRelay) Relay(ctx context.Context, req RelayRequest, out Responder) (RelayResult, error) {
	msgs := slices.Clone(req.Messages)
	tools := req.Tools
	if len(tools) == 0 {
		tools = r.tools.Tools()
	}
	var parts []string
	rounds := 0
	for rounds < MaxToolRounds {
		rounds++
		resp, err := r.client.Complete(ctx, anthropic.Request{
			Model:     req.Choice.Model,
			MaxTokens: req.Choice.MaxTokens,
			System:    req.System,
			Messages:  msgs,
			Tools:     tools,
		})
		if err != nil {
			if len(parts) == 0 {
				return RelayResult{Rounds: rounds}, ClassifyProviderError(err)
			}
			r.log.Warn("Provider failed mid tool loop; returning accumulated text", "round", rounds, "error", err)
			break
		}
		if t := strings.TrimSpace(resp.Text()); t != "" {
			parts = append(parts, t)
		}
		uses := resp.ToolUses()
		if len(uses) == 0 {
			break
		}
		msgs = append(msgs, anthropic.Message{Role: anthropic.RoleAssistant, Content: resp.Content})
		results := make([]anthropic.ContentBlock, 0, len(uses))
		for _, use := range uses {
			results = append(results, r.execute(ctx, use))
		}
		msgs = append(msgs, anthropic.Message{Role: anthropic.RoleUser, Content: results})
	}
	if rounds == MaxToolRounds {
		r.log.Debug("Tool loop reached round limit", "rounds", rounds)
	}

	text := strings.Join(parts, "\n\n")
	res := RelayResult{Text: text, Rounds: rounds}
	if text != "" {
		if err := out.Emit(text); err != nil {
			return res, err
		}
		res.Emitted = true
	}
	return res, nil
}

// execute never fails: tool errors become an error payload the model can read.
func (r *ToolLoopRelay) execute(ctx context.Context, use anthropic.ContentBlock) anthropic.ContentBlock {
	block := anthropic.ContentBlock{Type: anthropic.BlockToolResult, ToolUseID: use.ID}
	result, err := r.tools.Execute(ctx, use.Name, use.Input)
	if err == nil {
		raw, mErr := json.Marshal(result)
		if mErr == nil {
			block.Content = string(raw)
			return block
		}
		err = mErr
	}
	r.log.Warn("Tool execution failed", "tool", use.Name, "error", err)
	raw, _ := json.Marshal(map[string]string{"error": err.Error()})
	block.Content = string(raw)
	block.IsError = true
	return block
}

const (
	ProviderRateLimited     = "rate_limited"
	ProviderPaymentRequired = "payment_required"
	ProviderUnavailable     = "unavailable"
)

// ProviderFailure is a completion-provider error that happened before any
// output reached the caller.
type ProviderFailure struct {
	Kind string
	Err  error
}

func (e *ProviderFailure) Error() string {
	return fmt.Sprintf("completion provider %s: %v", e.Kind, e.Err)
}

func (e *ProviderFailure) Unwrap() error { return e.Err }

func (e *ProviderFailure) UserMessage() string {
	switch e.Kind {
	case ProviderRateLimited:
		return "I'm getting a lot of requests right now. Give it a moment and try again."
	case ProviderPaymentRequired:
		return "The assistant's usage limit for this account has been reached. Please contact your administrator to restore access."
	default:
		return "Sorry, I couldn't put together a response just now. Please try again."
	}
}

func (e *ProviderFailure) HTTPStatus() int {
	switch e.Kind {
	case ProviderRateLimited:
		return http.StatusTooManyRequests
	case ProviderPaymentRequired:
		return http.StatusPaymentRequired
	default:
		return http.StatusBadGateway
	}
}

func ClassifyProviderError(err error) *ProviderFailure {
	var pf *ProviderFailure
	if errors.As(err, &pf) {
		return pf
	}
	kind := ProviderUnavailable
	var he *anthropic.HTTPError
	if errors.As(err, &he) {
		switch he.StatusCode {
		case http.StatusTooManyRequests:
			kind = ProviderRateLimited
		case http.StatusPaymentRequired:
			kind = ProviderPaymentRequired
		}
	}
	return &ProviderFailure{Kind: kind, Err: err}
}
