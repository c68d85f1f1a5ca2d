package outline

import (
	"errors"
	"fmt"
	"time"
)

// Shape tags which outline representation an Envelope carries.
type Shape string

const (
	ShapeLegacy   Shape = "legacy"
	ShapeFlexible Shape = "flexible"
)

var ErrUnknownShape = errors.New("unknown outline shape")

// Envelope is the only way outlines cross a boundary. Producers set Shape;
// consumers call Normalize and never look at the payload directly.
type Envelope struct {
	Shape   Shape          `json:"shape"`
	Legacy  *LegacyOutline `json:"legacy,omitempty"`
	Outline *Outline       `json:"outline,omitempty"`
}

// Flexible wraps o in an envelope.
func Flexible(o *Outline) Envelope { return Envelope{Shape: ShapeFlexible, Outline: o} }

// LegacyOutline is the older fixed five slot shape.
type LegacyOutline struct {
	Opener                  LegacyOpener      `json:"opener"`
	Topic1                  LegacyTopic       `json:"topic1"`
	Topic2                  LegacyTopic       `json:"topic2"`
	Inspiration             LegacyInspiration `json:"inspiration"`
	Closing                 LegacyClosing     `json:"closing"`
	TotalDuration           int               `json:"totalDuration"`
	SuggestedTitle          string            `json:"suggestedTitle,omitempty"`
	SuggestedDescription    string            `json:"suggestedDescription,omitempty"`
	Difficulty              string            `json:"difficulty,omitempty"`
	RecommendedAudienceSize string            `json:"recommendedAudienceSize,omitempty"`
	FallbackUsed            bool              `json:"fallbackUsed"`
	GeneratedAt             time.Time         `json:"generatedAt"`
}

type LegacyOpener struct {
	Title            string `json:"title"`
	Duration         int    `json:"duration"`
	Description      string `json:"description"`
	Type             string `json:"type,omitempty"`
	FacilitatorNotes string `json:"facilitatorNotes,omitempty"`
}

type LegacyTopic struct {
	Title                string    `json:"title"`
	Duration             int       `json:"duration"`
	Description          string    `json:"description"`
	LearningObjectives   []string  `json:"learningObjectives,omitempty"`
	SuggestedActivities  []string  `json:"suggestedActivities,omitempty"`
	MaterialsNeeded      []string  `json:"materialsNeeded,omitempty"`
	TrainerNotes         string    `json:"trainerNotes,omitempty"`
	DeliveryGuidance     string    `json:"deliveryGuidance,omitempty"`
	ExerciseType         string    `json:"exerciseType,omitempty"`
	ExerciseInstructions string    `json:"exerciseInstructions,omitempty"`
	AssociatedTopic      *TopicRef `json:"associatedTopic,omitempty"`
	TrainerID            *uint     `json:"trainerId,omitempty"`
}

type LegacyInspiration struct {
	Title       string `json:"title"`
	Duration    int    `json:"duration"`
	Description string `json:"description"`
	Type        string `json:"type,omitempty"`
	MediaURL    string `json:"mediaUrl,omitempty"`
	Speaker     string `json:"speaker,omitempty"`
}

type LegacyClosing struct {
	Title        string   `json:"title"`
	Duration     int      `json:"duration"`
	Description  string   `json:"description"`
	KeyTakeaways []string `json:"keyTakeaways,omitempty"`
	ActionItems  []string `json:"actionItems,omitempty"`
	NextSteps    []string `json:"nextSteps,omitempty"`
}

// Normalize turns any envelope into the flexible shape. Flexible outlines are
// returned as-is: only legacy conversion rewrites positions and totals.
func Normalize(env Envelope) (*Outline, error) {
	switch env.Shape {
	case ShapeFlexible:
		if env.Outline == nil {
			return nil, fmt.Errorf("%w: flexible envelope without outline", ErrUnknownShape)
		}
		return env.Outline, nil
	case ShapeLegacy:
		if env.Legacy == nil {
			return nil, fmt.Errorf("%w: legacy envelope without outline", ErrUnknownShape)
		}
		return ConvertLegacy(env.Legacy), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownShape, env.Shape)
	}
}

// ConvertLegacy maps the five legacy slots onto flexible sections in slot
// order. No slot field is dropped.
func ConvertLegacy(l *LegacyOutline) *Outline {
	topic := func(id string, t LegacyTopic) Section {
		return Section{
			ID: id, Type: KindTopic, Title: t.Title, Duration: t.Duration, Description: t.Description,
			Payload: TopicPayload{
				LearningObjectives:   cloneStrings(t.LearningObjectives),
				SuggestedActivities:  cloneStrings(t.SuggestedActivities),
				MaterialsNeeded:      cloneStrings(t.MaterialsNeeded),
				TrainerNotes:         t.TrainerNotes,
				DeliveryGuidance:     t.DeliveryGuidance,
				AssociatedTopic:      cloneRef(t.AssociatedTopic),
				TrainerID:            cloneUint(t.TrainerID),
				ExerciseType:         t.ExerciseType,
				ExerciseInstructions: t.ExerciseInstructions,
			},
		}
	}

	o := &Outline{
		Sections: []Section{
			{
				ID: "legacy-opener", Type: KindOpener,
				Title: l.Opener.Title, Duration: l.Opener.Duration, Description: l.Opener.Description,
				Payload: OpenerPayload{OpenerType: l.Opener.Type, FacilitatorNotes: l.Opener.FacilitatorNotes},
			},
			topic("legacy-topic1", l.Topic1),
			topic("legacy-topic2", l.Topic2),
			{
				ID: "legacy-inspiration", Type: KindInspiration,
				Title: l.Inspiration.Title, Duration: l.Inspiration.Duration, Description: l.Inspiration.Description,
				Payload: InspirationPayload{
					InspirationType: l.Inspiration.Type,
					MediaURL:        l.Inspiration.MediaURL,
					Speaker:         l.Inspiration.Speaker,
				},
			},
			{
				ID: "legacy-closing", Type: KindClosing,
				Title: l.Closing.Title, Duration: l.Closing.Duration, Description: l.Closing.Description,
				Payload: ClosingPayload{
					KeyTakeaways: cloneStrings(l.Closing.KeyTakeaways),
					ActionItems:  cloneStrings(l.Closing.ActionItems),
					NextSteps:    cloneStrings(l.Closing.NextSteps),
				},
			},
		},
		SuggestedTitle:          l.SuggestedTitle,
		SuggestedDescription:    l.SuggestedDescription,
		Difficulty:              l.Difficulty,
		RecommendedAudienceSize: l.RecommendedAudienceSize,
		FallbackUsed:            l.FallbackUsed,
		ConvertedFromLegacy:     true,
		GeneratedAt:             l.GeneratedAt,
	}
	o.Finalize()
	return o
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneRef(r *TopicRef) *TopicRef {
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}

func cloneUint(v *uint) *uint {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}
