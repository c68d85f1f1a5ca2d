package outline

import (
	"encoding/json"
	"sort"
	"time"
)

type Outline struct {
	Sections                []Section `json:"sections"`
	TotalDuration           int       `json:"totalDuration"`
	SuggestedTitle          string    `json:"suggestedTitle,omitempty"`
	SuggestedDescription    string    `json:"suggestedDescription,omitempty"`
	Difficulty              string    `json:"difficulty,omitempty"`
	RecommendedAudienceSize string    `json:"recommendedAudienceSize,omitempty"`
	FallbackUsed            bool      `json:"fallbackUsed"`
	ConvertedFromLegacy     bool      `json:"convertedFromLegacy,omitempty"`
	GeneratedAt             time.Time `json:"generatedAt"`
}

// Sum adds up the section durations.
func (o *Outline) Sum() int {
	total := 0
	for _, s := range o.Sections {
		total += s.Duration
	}
	return total
}

// Renumber assigns positions 1..N following slice order.
func (o *Outline) Renumber() {
	for i := range o.Sections {
		o.Sections[i].Position = i + 1
	}
}

// SortByPosition orders the slice by position, keeping the original order for
// equal positions.
func (o *Outline) SortByPosition() {
	sort.SliceStable(o.Sections, func(i, j int) bool {
		return o.Sections[i].Position < o.Sections[j].Position
	})
}

func (o *Outline) RecomputeDuration() {
	o.TotalDuration = o.Sum()
}

// Finalize renumbers and recomputes the total; producers call it right before
// handing an outline out.
func (o *Outline) Finalize() {
	o.Renumber()
	o.RecomputeDuration()
}

// TopicSections returns the topic-typed sections in position order.
func (o *Outline) TopicSections() []Section {
	var out []Section
	for _, s := range o.Sections {
		if s.Type == KindTopic {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// HasKind reports whether any section is of kind k.
func (o *Outline) HasKind(k Kind) bool {
	for _, s := range o.Sections {
		if s.Type == k {
			return true
		}
	}
	return false
}

// Clone deep-copies the outline.
func (o *Outline) Clone() *Outline {
	if o == nil {
		return nil
	}
	b, err := json.Marshal(o)
	if err != nil {
		cp := *o
		cp.Sections = append([]Section(nil), o.Sections...)
		return &cp
	}
	var out Outline
	if err := json.Unmarshal(b, &out); err != nil {
		cp := *o
		cp.Sections = append([]Section(nil), o.Sections...)
		return &cp
	}
	return &out
}
