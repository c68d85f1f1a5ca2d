package serviceImp

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/advisorpages/trainingBuilder-sub002/pkg/brief"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/generation/service"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/prompt"
)

// GenerateVariants builds one outline per configured persona. Variants run
// concurrently and the response is assembled only after all of them finish.
func (s *GenerationSvc) GenerateVariants(ctx context.Context, b brief.Brief, opts service.GenerateOptions) (*service.VariantsResult, error) {
	ctx, span := s.tracer.Start(ctx, "generation.variants")
	defer span.End()
	start := s.now()

	if err := b.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	matches := s.match(ctx, b)
	in := s.composer.Compose(b, matches, prompt.Settings{ToneID: opts.ToneID, Tweaks: opts.Tweaks})
	kinds := s.templateKinds(opts.TemplateID)
	personas := s.composer.Config().Personas

	runs := make([]runResult, len(personas))
	var g errgroup.Group
	for i, p := range personas {
		g.Go(func() error {
			runs[i] = s.run(ctx, b, matches, in, in.EffectiveRAGWeight(p.RAGWeight), kinds)
			return nil
		})
	}
	_ = g.Wait()

	out := &service.VariantsResult{Variants: make([]service.Variant, 0, len(personas)), RelevantTopics: matches}
	sources := map[string]bool{}
	var simSum float64
	var simN int
	for i, p := range personas {
		r := runs[i]
		out.Variants = append(out.Variants, service.Variant{
			ID:             uuid.NewString(),
			Outline:        r.outline,
			Source:         r.meta.Source,
			RAGWeight:      r.meta.RAGWeight,
			RAGSourcesUsed: r.meta.RAGSourcesUsed,
			Label:          p.Label,
			Description:    p.Description,
		})
		if r.ragAvailable {
			out.Metadata.RAGAvailable = true
		}
		for _, id := range r.meta.SourceIDs {
			sources[id] = true
		}
		if r.meta.AverageSimilarity != nil {
			simSum += *r.meta.AverageSimilarity
			simN++
		}
	}
	out.Metadata.TotalSourcesFound = len(sources)
	out.Metadata.VariantCount = len(out.Variants)
	if simN > 0 {
		avg := round3(simSum / float64(simN))
		out.Metadata.AverageSimilarity = &avg
	}
	out.Metadata.TotalProcessingTimeMs = s.now().Sub(start).Milliseconds()

	span.SetAttributes(attribute.Int("generation.variants", len(out.Variants)), attribute.Bool("generation.rag_available", out.Metadata.RAGAvailable))
	s.log.Info("variants generated", "count", len(out.Variants), "rag_available", out.Metadata.RAGAvailable, "sources", out.Metadata.TotalSourcesFound)
	return out, nil
}
