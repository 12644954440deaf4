package steps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"

	"github.com/yungbote/backofhouse-backend/internal/clients/anthropic"
	"github.com/yungbote/backofhouse-backend/internal/data/repos"
	types "github.com/yungbote/backofhouse-backend/internal/domain/chat"
	"github.com/yungbote/backofhouse-backend/internal/jobs/worker"
	"github.com/yungbote/backofhouse-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/backofhouse-backend/internal/pkg/errors"
	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
)

const (
	HistoryLimit = 40

	PostTurnTaskName = "advisor.post_turn"
)

// TaskQueue accepts background work that must not block the caller.
type TaskQueue interface {
	Enqueue(task worker.Task) error
}

type TurnDeps struct {
	Log           *logger.Logger
	Conversations repos.ConversationRepo
	Messages      repos.MessageRepo
	States        repos.ConversationStateRepo
	Restaurants   repos.RestaurantRepo

	Assemblers []Assembler
	Provider   anthropic.Client
	// Tools is nil when no external tool is configured.
	Tools ToolExecutor
	// Tasks runs the post-turn update; when nil it runs before ProcessTurn returns.
	Tasks TaskQueue

	Models          ModelConfig
	AssemblyTimeout time.Duration
	DebugAPISummary bool

	Rand func() float64
	Now  func() time.Time
}

type TurnInput struct {
	RestaurantID   uuid.UUID
	ConversationID uuid.UUID
	UserID         uuid.UUID
	Message        string

	OnboardingMode string
	PainPoint      string
	HardMode       bool
	NotionEnabled  bool
	WWAHDMode      bool
}

type TurnOutput struct {
	MessageID uuid.UUID
	Content   string
	Model     string
	Reminded  bool
	Sections  []string
	// Interrupted is set when the provider failed after output had been sent.
	Interrupted bool
}

// ProcessTurn runs one assistant turn end to end. Errors returned before any
// output was emitted leave the conversation without an assistant message;
// a *ProviderFailure means the completion provider refused the request.
func ProcessTurn(ctx context.Context, deps TurnDeps, in TurnInput, out Responder) (TurnOutput, error) {
	userText := strings.TrimSpace(in.Message)
	if userText == "" {
		return TurnOutput{}, fmt.Errorf("%w: message is required", apperr.ErrInvalidArgument)
	}
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	draw := rand.Float64
	if deps.Rand != nil {
		draw = deps.Rand
	}
	log := deps.Log.With("conversation_id", in.ConversationID, "restaurant_id", in.RestaurantID)

	ctx, span := otel.Tracer("advisor").Start(ctx, "advisor.turn")
	defer span.End()
	span.SetAttributes(
		attribute.String("conversation_id", in.ConversationID.String()),
		attribute.Bool("hard_mode", in.HardMode),
		attribute.Bool("notion_enabled", in.NotionEnabled),
	)

	dbc := dbctx.New(ctx)
	if _, err := deps.Conversations.GetByID(dbc, in.RestaurantID, in.ConversationID); err != nil {
		return TurnOutput{}, err
	}
	prior, err := deps.States.GetByConversationID(dbc, in.ConversationID)
	if err != nil {
		return TurnOutput{}, fmt.Errorf("load conversation state: %w", err)
	}
	if prior == nil {
		prior = types.NewConversationState(in.ConversationID)
	}
	rest, err := deps.Restaurants.GetByID(dbc, in.RestaurantID)
	if err != nil {
		return TurnOutput{}, fmt.Errorf("load restaurant: %w", err)
	}
	kpi, err := deps.Restaurants.GetKPI(dbc, in.RestaurantID)
	if err != nil {
		return TurnOutput{}, fmt.Errorf("load kpi: %w", err)
	}
	tuning, err := deps.Restaurants.GetTuning(dbc, in.RestaurantID)
	if err != nil {
		return TurnOutput{}, fmt.Errorf("load tuning: %w", err)
	}
	history, err := deps.Messages.ListRecent(dbc, in.ConversationID, HistoryLimit)
	if err != nil {
		return TurnOutput{}, fmt.Errorf("load history: %w", err)
	}

	userMsg := &types.Message{ConversationID: in.ConversationID, Role: types.RoleUser, Content: userText}
	if err := deps.Messages.Append(dbc, userMsg); err != nil {
		return TurnOutput{}, fmt.Errorf("append user message: %w", err)
	}

	turnNow := now()
	pre := Classify(ClassifyInput{
		Prior:          prior,
		UserText:       userText,
		WWAHDRequested: in.WWAHDMode,
		Now:            turnNow,
	})

	assembled := RunAssemblers(ctx, deps.Log, TurnContext{
		RestaurantID:   in.RestaurantID,
		ConversationID: in.ConversationID,
		Restaurant:     rest,
		Tuning:         tuning,
		Now:            turnNow,
	}, deps.Assemblers, deps.AssemblyTimeout)

	prompt := Compose(ComposeInput{
		Restaurant:      rest,
		KPI:             kpi,
		State:           pre,
		Assembled:       assembled,
		OnboardingMode:  in.OnboardingMode,
		PainPoint:       in.PainPoint,
		HardMode:        in.HardMode,
		NotionEnabled:   in.NotionEnabled,
		DebugAPISummary: deps.DebugAPISummary,
		Tools:           deps.Tools,
	})
	choice := SelectModel(deps.Models, in.HardMode, in.OnboardingMode, IsComplex(userText))
	span.SetAttributes(attribute.String("model", choice.Model), attribute.String("model_reason", choice.Reason))

	var relay Relay = NewStreamRelay(deps.Provider)
	if in.NotionEnabled && deps.Tools != nil {
		relay = NewToolLoopRelay(deps.Log, deps.Provider, deps.Tools)
	}
	res, err := relay.Relay(ctx, RelayRequest{
		Choice:   choice,
		System:   prompt.System,
		Messages: providerMessages(history, userText),
		Tools:    prompt.Tools,
	}, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "relay failed")
		return TurnOutput{}, err
	}
	if res.Interrupted != nil {
		log.Warn("Provider stream interrupted after output; keeping partial text", "error", res.Interrupted)
	}

	count, err := deps.Messages.Count(dbc, in.ConversationID)
	if err != nil {
		log.Warn("Message count failed; skipping reminder", "error", err)
		count = -1
	}
	content := res.Text
	messageCount := int(count) + 1
	reminded := count >= 0 && ShouldAppendReminder(draw(), messageCount, prior.Flags.Data().LastSocraticTipIndex)
	if reminded {
		content += SocraticReminder
	}

	msgID := uuid.New()
	if err := out.Finish(TurnResult{MessageID: msgID, Content: content, Patched: reminded && res.Emitted}); err != nil {
		log.Warn("Responder finish failed", "error", err)
	}

	post := postTurn{
		deps:          deps,
		prior:         prior,
		conversation:  in.ConversationID,
		messageID:     msgID,
		userText:      userText,
		assistantText: content,
		replyText:     res.Text,
		wwahd:         in.WWAHDMode,
		reminded:      reminded,
		messageCount:  messageCount,
		now:           turnNow,
		metadata: turnMetadata{
			Model:       choice.Model,
			ModelReason: choice.Reason,
			Rounds:      res.Rounds,
			Sections:    prompt.Sections,
			Reminder:    reminded,
			Interrupted: res.Interrupted != nil,
			Failures:    assembled.Failures,
		},
	}
	task := worker.Task{Name: PostTurnTaskName, Run: post.run}
	if deps.Tasks == nil {
		if err := task.Run(context.WithoutCancel(ctx)); err != nil {
			log.Error("Post-turn update failed", "error", err)
		}
	} else if err := deps.Tasks.Enqueue(task); err != nil {
		log.Warn("Post-turn enqueue failed; running inline", "error", err)
		if err := task.Run(context.WithoutCancel(ctx)); err != nil {
			log.Error("Post-turn update failed", "error", err)
		}
	}

	return TurnOutput{
		MessageID:   msgID,
		Content:     content,
		Model:       choice.Model,
		Reminded:    reminded,
		Sections:    prompt.Sections,
		Interrupted: res.Interrupted != nil,
	}, nil
}

type turnMetadata struct {
	Model       string            `json:"model"`
	ModelReason string            `json:"model_reason"`
	Rounds      int               `json:"rounds"`
	Sections    []string          `json:"sections"`
	Reminder    bool              `json:"reminder"`
	Interrupted bool              `json:"interrupted,omitempty"`
	Failures    map[string]string `json:"assembler_failures,omitempty"`
}

// postTurn persists the assistant message and the re-classified state.
type postTurn struct {
	deps          TurnDeps
	prior         *types.ConversationState
	conversation  uuid.UUID
	messageID     uuid.UUID
	userText      string
	assistantText string
	// replyText is the model's reply without the reminder; classification
	// reads it so the reminder never changes dialogue state.
	replyText     string
	wwahd         bool
	reminded      bool
	messageCount  int
	now           time.Time
	metadata      turnMetadata
}

func (p postTurn) run(ctx context.Context) error {
	dbc := dbctx.New(ctx)
	var errs []error

	meta, err := json.Marshal(p.metadata)
	if err != nil {
		errs = append(errs, fmt.Errorf("encode metadata: %w", err))
		meta = nil
	}
	msg := &types.Message{
		ID:             p.messageID,
		ConversationID: p.conversation,
		Role:           types.RoleAssistant,
		Content:        p.assistantText,
		Model:          p.metadata.Model,
		Metadata:       datatypes.JSON(meta),
	}
	if err := p.deps.Messages.Append(dbc, msg); err != nil {
		errs = append(errs, fmt.Errorf("append assistant message: %w", err))
	}

	next := Classify(ClassifyInput{
		Prior:          p.prior,
		UserText:       p.userText,
		AssistantText:  p.replyText,
		PostTurn:       true,
		WWAHDRequested: p.wwahd,
		Now:            p.now,
	})
	if p.reminded {
		flags := next.Flags.Data()
		flags.LastSocraticTipIndex = p.messageCount
		next.Flags = datatypes.NewJSONType(flags)
	}
	if err := p.deps.States.Upsert(dbc, next); err != nil {
		errs = append(errs, fmt.Errorf("upsert state: %w", err))
	}
	return errors.Join(errs...)
}

// providerMessages turns persisted history plus the new user text into a
// provider conversation: it must open with a user message and alternate
// roles, so leading assistant messages are dropped and runs of one role merge.
func providerMessages(history []*types.Message, userText string) []anthropic.Message {
	type turn struct {
		role  string
		parts []string
	}
	var turns []turn
	add := func(role, text string) {
		if strings.TrimSpace(text) == "" {
			return
		}
		if len(turns) == 0 && role != anthropic.RoleUser {
			return
		}
		if n := len(turns); n > 0 && turns[n-1].role == role {
			turns[n-1].parts = append(turns[n-1].parts, text)
			return
		}
		turns = append(turns, turn{role: role, parts: []string{text}})
	}
	for _, m := range history {
		role := anthropic.RoleUser
		if m.Role == types.RoleAssistant {
			role = anthropic.RoleAssistant
		}
		add(role, m.Content)
	}
	add(anthropic.RoleUser, userText)

	out := make([]anthropic.Message, 0, len(turns))
	for _, t := range turns {
		out = append(out, anthropic.TextMessage(t.role, strings.Join(t.parts, "\n\n")))
	}
	return out
}
