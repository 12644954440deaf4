package advisor

import (
	"context"
	"time"

	"github.com/yungbote/backofhouse-backend/internal/clients/anthropic"
	"github.com/yungbote/backofhouse-backend/internal/clients/gcp"
	"github.com/yungbote/backofhouse-backend/internal/clients/notion"
	"github.com/yungbote/backofhouse-backend/internal/clients/pos"
	"github.com/yungbote/backofhouse-backend/internal/clients/redis"
	"github.com/yungbote/backofhouse-backend/internal/data/repos"
	"github.com/yungbote/backofhouse-backend/internal/modules/advisor/steps"
	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
)

type UsecasesDeps struct {
	Log *logger.Logger

	Conversations repos.ConversationRepo
	Messages      repos.MessageRepo
	States        repos.ConversationStateRepo
	Restaurants   repos.RestaurantRepo
	Knowledge     repos.KnowledgeRepo
	Feedback      repos.FeedbackRepo
	Files         repos.FileRepo

	Provider anthropic.Client

	// Optional collaborators; nil disables the matching context block or tool set.
	POS         pos.Client
	ReportCache redis.ReportCache
	Notion      notion.Client
	Bucket      gcp.BucketService

	Tasks steps.TaskQueue

	Models          steps.ModelConfig
	POSConfig       steps.POSAssemblerConfig
	AssemblyTimeout time.Duration
	DebugAPISummary bool
}

type Usecases struct {
	deps       UsecasesDeps
	assemblers []steps.Assembler
	tools      steps.ToolExecutor
}

func New(deps UsecasesDeps) Usecases {
	u := Usecases{deps: deps}
	u.assemblers = []steps.Assembler{
		steps.NewKnowledgeAssembler(deps.Knowledge),
		steps.NewFeedbackAssembler(deps.Feedback),
		steps.NewPOSAssembler(deps.Log, deps.POS, deps.ReportCache, deps.POSConfig),
		steps.NewDocumentAssembler(deps.Log, deps.Files, deps.Bucket, nil),
		steps.NewTuningAssembler(),
	}
	if deps.Notion != nil {
		u.tools = steps.NewNotionTools(deps.Notion)
	}
	return u
}

type (
	TurnInput  = steps.TurnInput
	TurnOutput = steps.TurnOutput
	TurnResult = steps.TurnResult
	Responder  = steps.Responder

	ProviderFailure = steps.ProviderFailure
)

const ProviderUnavailable = steps.ProviderUnavailable

// UsesToolLoop reports whether a turn with notionEnabled runs the
// non-streamed tool loop instead of the streaming relay.
func (u Usecases) UsesToolLoop(notionEnabled bool) bool {
	return notionEnabled && u.tools != nil
}

func (u Usecases) RespondTurn(ctx context.Context, in TurnInput, out Responder) (TurnOutput, error) {
	return steps.ProcessTurn(ctx, steps.TurnDeps{
		Log:             u.deps.Log,
		Conversations:   u.deps.Conversations,
		Messages:        u.deps.Messages,
		States:          u.deps.States,
		Restaurants:     u.deps.Restaurants,
		Assemblers:      u.assemblers,
		Provider:        u.deps.Provider,
		Tools:           u.tools,
		Tasks:           u.deps.Tasks,
		Models:          u.deps.Models,
		AssemblyTimeout: u.deps.AssemblyTimeout,
		DebugAPISummary: u.deps.DebugAPISummary,
	}, in, out)
}
