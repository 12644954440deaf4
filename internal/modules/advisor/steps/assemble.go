package steps

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	rtypes "github.com/yungbote/backofhouse-backend/internal/domain/restaurant"
	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
)

const (
	AssemblerKnowledge = "custom_knowledge"
	AssemblerFeedback  = "feedback"
	AssemblerPOS       = "pos"
	AssemblerDocuments = "documents"
	AssemblerTuning    = "tuning"
)

// TurnContext is everything an assembler may read about the current turn.
type TurnContext struct {
	RestaurantID   uuid.UUID
	ConversationID uuid.UUID
	Restaurant     *rtypes.Restaurant
	Tuning         *rtypes.Tuning
	Now            time.Time
}

// Block is one assembler's rendered output. Status is a short machine label
// for the debug summary and may be empty.
type Block struct {
	Text   string
	Status string
}

type Assembler interface {
	Name() string
	Assemble(ctx context.Context, tc TurnContext) (Block, error)
}

// AssembledContext holds the resolved output of every assembler for a turn.
type AssembledContext struct {
	Blocks   map[string]Block
	Failures map[string]string
}

func (a AssembledContext) Text(name string) string {
	return a.Blocks[name].Text
}

// RunAssemblers fans the assemblers out concurrently and waits for all of
// them, bounded by timeout. A failing assembler only loses its own block.
func RunAssemblers(ctx context.Context, log *logger.Logger, tc TurnContext, assemblers []Assembler, timeout time.Duration) AssembledContext {
	out := AssembledContext{Blocks: map[string]Block{}, Failures: map[string]string{}}
	if len(assemblers) == 0 {
		return out
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tracer := otel.Tracer("advisor")
	var mu sync.Mutex
	var g errgroup.Group
	for _, a := range assemblers {
		g.Go(func() error {
			spanCtx, span := tracer.Start(ctx, "advisor.assemble."+a.Name())
			defer span.End()
			started := time.Now()

			block, err := safeAssemble(spanCtx, a, tc)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				out.Failures[a.Name()] = err.Error()
				log.Warn("Context assembler failed; omitting block",
					"assembler", a.Name(),
					"restaurant_id", tc.RestaurantID,
					"conversation_id", tc.ConversationID,
					"error", err,
				)
				return nil
			}
			span.SetAttributes(attribute.Int("block_chars", len(block.Text)), attribute.String("status", block.Status))
			out.Blocks[a.Name()] = block
			log.Debug("Context assembler finished",
				"assembler", a.Name(),
				"chars", len(block.Text),
				"status", block.Status,
				"duration_ms", time.Since(started).Milliseconds(),
			)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func safeAssemble(ctx context.Context, a Assembler, tc TurnContext) (block Block, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &assemblerPanicError{Name: a.Name(), Val: r}
		}
	}()
	return a.Assemble(ctx, tc)
}

type assemblerPanicError struct {
	Name string
	Val  any
}

func (e *assemblerPanicError) Error() string { return "assembler " + e.Name + " panicked" }

// tuningAssembler has no I/O; it exists so the tuning block flows through the
// same fan-out and debug summary as the others.
type tuningAssembler struct{}

func NewTuningAssembler() Assembler { return tuningAssembler{} }

func (tuningAssembler) Name() string { return AssemblerTuning }

func (tuningAssembler) Assemble(_ context.Context, tc TurnContext) (Block, error) {
	return Block{Text: RenderTuning(tc.Tuning)}, nil
}
