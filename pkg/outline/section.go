package outline

import (
	"encoding/json"
	"strings"
)

type Kind string

const (
	KindOpener      Kind = "opener"
	KindTopic       Kind = "topic"
	KindExercise    Kind = "exercise"
	KindDiscussion  Kind = "discussion"
	KindInspiration Kind = "inspiration"
	KindAssessment  Kind = "assessment"
	KindClosing     Kind = "closing"
	KindCustom      Kind = "custom"
)

// Section is one block of a session. Fields shared by every kind live on the
// struct; kind specific data lives in Payload, whose concrete type always
// matches Type for sections produced by this package.
type Section struct {
	ID          string
	Type        Kind
	Position    int
	Title       string
	Duration    int
	Description string
	Payload     Payload
}

// Payload is the kind specific part of a section. The interface is sealed:
// only the payload types below implement it.
type Payload interface {
	Kind() Kind
	filled() []string
}

type TopicRef struct {
	ID         uint    `json:"id,omitempty"`
	Name       string  `json:"name,omitempty"`
	MatchScore float64 `json:"matchScore,omitempty"`
}

type OpenerPayload struct {
	OpenerType       string `json:"openerType,omitempty"`
	FacilitatorNotes string `json:"facilitatorNotes,omitempty"`
}

type TopicPayload struct {
	LearningObjectives   []string  `json:"learningObjectives,omitempty"`
	SuggestedActivities  []string  `json:"suggestedActivities,omitempty"`
	MaterialsNeeded      []string  `json:"materialsNeeded,omitempty"`
	TrainerNotes         string    `json:"trainerNotes,omitempty"`
	DeliveryGuidance     string    `json:"deliveryGuidance,omitempty"`
	AssociatedTopic      *TopicRef `json:"associatedTopic,omitempty"`
	TrainerID            *uint     `json:"trainerId,omitempty"`
	ExerciseType         string    `json:"exerciseType,omitempty"`
	ExerciseInstructions string    `json:"exerciseInstructions,omitempty"`
}

type ExercisePayload struct {
	ExerciseType    string   `json:"exerciseType,omitempty"`
	Instructions    string   `json:"instructions,omitempty"`
	GroupSize       int      `json:"groupSize,omitempty"`
	MaterialsNeeded []string `json:"materialsNeeded,omitempty"`
}

type DiscussionPayload struct {
	DiscussionPrompts []string `json:"discussionPrompts,omitempty"`
	Format            string   `json:"format,omitempty"`
}

type InspirationPayload struct {
	InspirationType string `json:"inspirationType,omitempty"`
	MediaURL        string `json:"mediaUrl,omitempty"`
	Speaker         string `json:"speaker,omitempty"`
}

type AssessmentPayload struct {
	AssessmentType string   `json:"assessmentType,omitempty"`
	Questions      []string `json:"questions,omitempty"`
}

type ClosingPayload struct {
	KeyTakeaways []string `json:"keyTakeaways,omitempty"`
	ActionItems  []string `json:"actionItems,omitempty"`
	NextSteps    []string `json:"nextSteps,omitempty"`
}

type CustomPayload struct {
	Fields map[string]string `json:"fields,omitempty"`
}

func (OpenerPayload) Kind() Kind      { return KindOpener }
func (TopicPayload) Kind() Kind       { return KindTopic }
func (ExercisePayload) Kind() Kind    { return KindExercise }
func (DiscussionPayload) Kind() Kind  { return KindDiscussion }
func (InspirationPayload) Kind() Kind { return KindInspiration }
func (AssessmentPayload) Kind() Kind  { return KindAssessment }
func (ClosingPayload) Kind() Kind     { return KindClosing }
func (CustomPayload) Kind() Kind      { return KindCustom }

func (p OpenerPayload) filled() []string {
	return names(
		field{"openerType", p.OpenerType != ""},
		field{"facilitatorNotes", p.FacilitatorNotes != ""},
	)
}

func (p TopicPayload) filled() []string {
	return names(
		field{"learningObjectives", len(p.LearningObjectives) > 0},
		field{"suggestedActivities", len(p.SuggestedActivities) > 0},
		field{"materialsNeeded", len(p.MaterialsNeeded) > 0},
		field{"trainerNotes", p.TrainerNotes != ""},
		field{"deliveryGuidance", p.DeliveryGuidance != ""},
		field{"associatedTopic", p.AssociatedTopic != nil},
		field{"trainerId", p.TrainerID != nil},
		field{"exerciseType", p.ExerciseType != ""},
		field{"exerciseInstructions", p.ExerciseInstructions != ""},
	)
}

func (p ExercisePayload) filled() []string {
	return names(
		field{"exerciseType", p.ExerciseType != ""},
		field{"instructions", strings.TrimSpace(p.Instructions) != ""},
		field{"groupSize", p.GroupSize > 0},
		field{"materialsNeeded", len(p.MaterialsNeeded) > 0},
	)
}

func (p DiscussionPayload) filled() []string {
	return names(
		field{"discussionPrompts", len(p.DiscussionPrompts) > 0},
		field{"format", p.Format != ""},
	)
}

func (p InspirationPayload) filled() []string {
	return names(
		field{"inspirationType", p.InspirationType != ""},
		field{"mediaUrl", p.MediaURL != ""},
		field{"speaker", p.Speaker != ""},
	)
}

func (p AssessmentPayload) filled() []string {
	return names(
		field{"assessmentType", p.AssessmentType != ""},
		field{"questions", len(p.Questions) > 0},
	)
}

func (p ClosingPayload) filled() []string {
	return names(
		field{"keyTakeaways", len(p.KeyTakeaways) > 0},
		field{"actionItems", len(p.ActionItems) > 0},
		field{"nextSteps", len(p.NextSteps) > 0},
	)
}

func (p CustomPayload) filled() []string {
	return names(field{"fields", len(p.Fields) > 0})
}

type field struct {
	name string
	set  bool
}

func names(fs ...field) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		if f.set {
			out = append(out, f.name)
		}
	}
	return out
}

// newPayload returns a pointer to the zero payload for k, or nil when k is
// not a registered kind.
func newPayload(k Kind) any {
	switch k {
	case KindOpener:
		return &OpenerPayload{}
	case KindTopic:
		return &TopicPayload{}
	case KindExercise:
		return &ExercisePayload{}
	case KindDiscussion:
		return &DiscussionPayload{}
	case KindInspiration:
		return &InspirationPayload{}
	case KindAssessment:
		return &AssessmentPayload{}
	case KindClosing:
		return &ClosingPayload{}
	case KindCustom:
		return &CustomPayload{}
	}
	return nil
}

func derefPayload(p any) Payload {
	switch v := p.(type) {
	case *OpenerPayload:
		return *v
	case *TopicPayload:
		return *v
	case *ExercisePayload:
		return *v
	case *DiscussionPayload:
		return *v
	case *InspirationPayload:
		return *v
	case *AssessmentPayload:
		return *v
	case *ClosingPayload:
		return *v
	case *CustomPayload:
		return *v
	}
	return nil
}

// Present lists every field name with a value, base fields included. The
// names line up with the registry's Required/Optional lists.
func (s Section) Present() map[string]bool {
	out := map[string]bool{}
	if strings.TrimSpace(s.Title) != "" {
		out["title"] = true
	}
	if s.Duration > 0 {
		out["duration"] = true
	}
	if strings.TrimSpace(s.Description) != "" {
		out["description"] = true
	}
	if s.Payload != nil {
		for _, n := range s.Payload.filled() {
			out[n] = true
		}
	}
	return out
}

// Topic returns a copy of the topic payload, or nil for any other kind.
func (s Section) Topic() *TopicPayload {
	if p, ok := s.Payload.(TopicPayload); ok {
		return &p
	}
	return nil
}

// Closing returns the closing payload, or nil for any other kind.
func (s Section) Closing() *ClosingPayload {
	if p, ok := s.Payload.(ClosingPayload); ok {
		return &p
	}
	return nil
}

// Exercise returns the exercise payload, or nil for any other kind.
func (s Section) Exercise() *ExercisePayload {
	if p, ok := s.Payload.(ExercisePayload); ok {
		return &p
	}
	return nil
}

// WithTopic returns a copy of s carrying p. s must be a topic section.
func (s Section) WithTopic(p TopicPayload) Section {
	s.Payload = p
	return s
}

type sectionBase struct {
	ID          string `json:"id"`
	Type        Kind   `json:"type"`
	Position    int    `json:"position"`
	Title       string `json:"title"`
	Duration    int    `json:"duration"`
	Description string `json:"description,omitempty"`
}

func (s Section) MarshalJSON() ([]byte, error) {
	base := sectionBase{
		ID: s.ID, Type: s.Type, Position: s.Position,
		Title: s.Title, Duration: s.Duration, Description: s.Description,
	}
	if s.Payload == nil {
		return json.Marshal(base)
	}
	pb, err := json.Marshal(s.Payload)
	if err != nil {
		return nil, err
	}
	merged := map[string]json.RawMessage{}
	if err := json.Unmarshal(pb, &merged); err != nil {
		return nil, err
	}
	bb, err := json.Marshal(base)
	if err != nil {
		return nil, err
	}
	baseFields := map[string]json.RawMessage{}
	if err := json.Unmarshal(bb, &baseFields); err != nil {
		return nil, err
	}
	for k, v := range baseFields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

func (s *Section) UnmarshalJSON(data []byte) error {
	var base sectionBase
	if err := json.Unmarshal(data, &base); err != nil {
		return err
	}
	*s = Section{
		ID: base.ID, Type: Kind(strings.ToLower(strings.TrimSpace(string(base.Type)))), Position: base.Position,
		Title: base.Title, Duration: base.Duration, Description: base.Description,
	}
	p := newPayload(s.Type)
	if p == nil {
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return err
	}
	s.Payload = derefPayload(p)
	return nil
}
