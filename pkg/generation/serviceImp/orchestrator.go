package serviceImp

import (
	"context"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/advisorpages/trainingBuilder-sub002/pkg/ai"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/brief"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/generation/service"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/logger"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/outline"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/prompt"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/topic/matcher"
)

const tracerName = "trainingbuilder/generation"

// TopicSource supplies matched topics for a brief.
type TopicSource interface {
	SuggestTopics(ctx context.Context, b brief.Brief) ([]matcher.Match, error)
}

type Options struct {
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
	TopK       int
}

type GenerationSvc struct {
	topics    TopicSource
	composer  *prompt.Composer
	completer ai.Completer
	retriever ai.Retriever
	opts      Options
	log       *logger.Logger
	tracer    trace.Tracer
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

// New wires the orchestrator. completer and retriever may be nil: without a
// completer every outline is the baseline, without a retriever completions
// run without reference snippets.
func New(topics TopicSource, composer *prompt.Composer, completer ai.Completer, retriever ai.Retriever, log *logger.Logger, opts Options) *GenerationSvc {
	if log == nil {
		log = logger.Nop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 250 * time.Millisecond
	}
	if opts.TopK <= 0 {
		opts.TopK = 6
	}
	return &GenerationSvc{
		topics:    topics,
		composer:  composer,
		completer: completer,
		retriever: retriever,
		opts:      opts,
		log:       log.With("service", "GenerationOrchestrator"),
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *GenerationSvc) GenerateOutline(ctx context.Context, b brief.Brief, opts service.GenerateOptions) (*service.OutlineResult, error) {
	ctx, span := s.tracer.Start(ctx, "generation.outline")
	defer span.End()

	if err := b.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	matches := s.match(ctx, b)
	in := s.composer.Compose(b, matches, prompt.Settings{ToneID: opts.ToneID, Tweaks: opts.Tweaks})

	w := 1.0
	if opts.RAGWeight != nil {
		w = *opts.RAGWeight
	}
	r := s.run(ctx, b, matches, in, in.EffectiveRAGWeight(w), s.templateKinds(opts.TemplateID))

	span.SetAttributes(
		attribute.String("generation.source", r.meta.Source),
		attribute.Bool("generation.fallback", r.meta.FallbackUsed),
		attribute.Int("generation.attempts", r.meta.Attempts),
	)
	return &service.OutlineResult{
		Outline:            r.outline,
		RelevantTopics:     matches,
		RAGAvailable:       r.ragAvailable,
		GenerationMetadata: r.meta,
	}, nil
}

func (s *GenerationSvc) match(ctx context.Context, b brief.Brief) []matcher.Match {
	if s.topics == nil {
		return []matcher.Match{}
	}
	matches, err := s.topics.SuggestTopics(ctx, b)
	if err != nil {
		s.log.Warn("topic matching failed, generating without topics", "error", err)
		return []matcher.Match{}
	}
	if matches == nil {
		matches = []matcher.Match{}
	}
	return matches
}

func (s *GenerationSvc) templateKinds(id string) []outline.Kind {
	if id == "" {
		return nil
	}
	t, ok := s.composer.Config().Template(id)
	if !ok {
		s.log.Warn("unknown template, using default sequence", "template_id", id)
		return nil
	}
	return t.Sections
}

type runResult struct {
	outline      *outline.Outline
	meta         service.Metadata
	snippets     []ai.Snippet
	ragAvailable bool
}

// run produces one outline at the given effective weight. It always returns
// an outline: the blend on success, the baseline otherwise.
func (s *GenerationSvc) run(ctx context.Context, b brief.Brief, matches []matcher.Match, in prompt.Instruction, w float64, kinds []outline.Kind) runResult {
	start := s.now()
	base := BuildBaseline(b, matches, in, kinds)
	res := runResult{meta: service.Metadata{TopicsFound: len(matches), RAGWeight: round3(w), SourceIDs: []string{}}}

	var gen *outline.Outline
	if s.completer != nil && w > 0 {
		gen = s.attempt(ctx, in, &res)
	}

	if gen != nil {
		res.outline = Blend(gen, base, w, in.DurationMinutes)
		res.meta.Source = service.SourceRAG
	} else {
		res.outline = base
		res.outline.FallbackUsed = true
		res.meta.Source = service.SourceBaseline
		res.meta.FallbackUsed = true
	}
	res.outline.GeneratedAt = s.now().UTC()

	ids := map[string]bool{}
	total := 0.0
	for _, sn := range res.snippets {
		total += sn.Score
		if !ids[sn.SourceID] {
			ids[sn.SourceID] = true
			res.meta.SourceIDs = append(res.meta.SourceIDs, sn.SourceID)
		}
	}
	if gen != nil {
		res.meta.RAGSourcesUsed = len(res.meta.SourceIDs)
	}
	if len(res.snippets) > 0 {
		avg := round3(total / float64(len(res.snippets)))
		res.meta.AverageSimilarity = &avg
	}
	res.meta.ProcessingTimeMs = s.now().Sub(start).Milliseconds()
	return res
}

// attempt calls the backend up to 1+MaxRetries times, each under its own
// timeout with doubling backoff in between. Retrieval failures degrade to no
// snippets and are retried on the next attempt.
func (s *GenerationSvc) attempt(ctx context.Context, in prompt.Instruction, res *runResult) *outline.Outline {
	backoff := s.opts.Backoff
	retrieved := false
	for n := 1; n <= 1+s.opts.MaxRetries; n++ {
		if n > 1 {
			if err := s.sleep(ctx, backoff); err != nil {
				return nil
			}
			backoff *= 2
		}
		res.meta.Attempts = n

		actx, span := s.tracer.Start(ctx, "generation.attempt", trace.WithAttributes(attribute.Int("attempt", n)))
		actx, cancel := context.WithTimeout(actx, s.opts.Timeout)

		if s.retriever != nil && !retrieved {
			res.meta.RAGQueried = true
			snips, err := s.retriever.Retrieve(actx, in.RetrievalQuery, s.opts.TopK)
			if err != nil {
				s.log.Warn("retrieval failed, continuing without snippets", "attempt", n, "error", err)
			} else {
				retrieved = true
				res.ragAvailable = true
				res.snippets = snips
			}
		}

		o, err := s.completer.CompleteOutline(actx, in, res.snippets)
		if err == nil {
			o, err = normalizeGenerated(o)
		}
		cancel()
		if err == nil {
			span.End()
			return o
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		s.log.Warn("generation attempt failed", "attempt", n, "max_attempts", 1+s.opts.MaxRetries, "error", err)
		if ctx.Err() != nil {
			return nil
		}
	}
	return nil
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
