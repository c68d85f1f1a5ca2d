package service

import (
	"context"

	"github.com/advisorpages/trainingBuilder-sub002/pkg/brief"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/outline"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/prompt"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/topic/matcher"
)

const (
	SourceRAG      = "rag"
	SourceBaseline = "baseline"
)

type GenerateOptions struct {
	TemplateID string        `json:"templateId,omitempty"`
	ToneID     string        `json:"toneId,omitempty"`
	Tweaks     prompt.Tweaks `json:"tweaks"`
	// RAGWeight defaults to 1 for single outlines; variants use their
	// persona weights.
	RAGWeight *float64 `json:"ragWeight,omitempty"`
}

type Metadata struct {
	ProcessingTimeMs  int64    `json:"processingTimeMs"`
	RAGQueried        bool     `json:"ragQueried"`
	FallbackUsed      bool     `json:"fallbackUsed"`
	TopicsFound       int      `json:"topicsFound"`
	RAGSourcesUsed    int      `json:"ragSourcesUsed"`
	SourceIDs         []string `json:"sourceIds"`
	AverageSimilarity *float64 `json:"averageSimilarity"`
	Attempts          int      `json:"attempts"`
	Source            string   `json:"source"`
	RAGWeight         float64  `json:"ragWeight"`
}

type OutlineResult struct {
	Outline            *outline.Outline `json:"outline"`
	RelevantTopics     []matcher.Match  `json:"relevantTopics"`
	RAGAvailable       bool             `json:"ragAvailable"`
	GenerationMetadata Metadata         `json:"generationMetadata"`
}

type Variant struct {
	ID             string           `json:"id"`
	Outline        *outline.Outline `json:"outline"`
	Source         string           `json:"source"`
	RAGWeight      float64          `json:"ragWeight"`
	RAGSourcesUsed int              `json:"ragSourcesUsed"`
	Label          string           `json:"label"`
	Description    string           `json:"description"`
}

type VariantsMetadata struct {
	TotalProcessingTimeMs int64    `json:"totalProcessingTimeMs"`
	RAGAvailable          bool     `json:"ragAvailable"`
	TotalSourcesFound     int      `json:"totalSourcesFound"`
	AverageSimilarity     *float64 `json:"averageSimilarity"`
	VariantCount          int      `json:"variantCount"`
}

type VariantsResult struct {
	Variants       []Variant        `json:"variants"`
	RelevantTopics []matcher.Match  `json:"relevantTopics"`
	Metadata       VariantsMetadata `json:"metadata"`
}

// GenerationService never fails because of the generation backend: every
// backend problem ends in the baseline outline. Only an invalid brief is an
// error.
type GenerationService interface {
	GenerateOutline(ctx context.Context, b brief.Brief, opts GenerateOptions) (*OutlineResult, error)
	GenerateVariants(ctx context.Context, b brief.Brief, opts GenerateOptions) (*VariantsResult, error)
}
