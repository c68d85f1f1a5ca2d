package prompt

import (
	"fmt"
	"math"
	"strings"

	"github.com/advisorpages/trainingBuilder-sub002/pkg/brief"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/topic/matcher"
)

const (
	maxReuseTopics = 5
	// avgSectionMinutes drives the suggested section count at normal pace.
	avgSectionMinutes = 18
	minSections       = 3
	maxSections       = 10
	// coveredSimilarity is how close a specific topic must be to a matched
	// topic name to count as already covered.
	coveredSimilarity = 0.5
)

// Tweaks are the quick adjustments a user can toggle before generating.
type Tweaks struct {
	DataEmphasis      bool `json:"dataEmphasis"`
	FasterPace        bool `json:"fasterPace"`
	RetrievalPriority bool `json:"retrievalPriority"`
}

type Settings struct {
	ToneID string `json:"toneId,omitempty"`
	Tweaks Tweaks `json:"tweaks"`
}

type TopicHint struct {
	ID         uint    `json:"id"`
	Name       string  `json:"name"`
	MatchScore float64 `json:"matchScore"`
}

// Instruction is the backend-neutral request handed to a generation backend.
type Instruction struct {
	Objective           string      `json:"objective"`
	Category            string      `json:"category"`
	SessionType         string      `json:"sessionType"`
	CurrentProblem      string      `json:"currentProblem,omitempty"`
	AudienceConstraints []string    `json:"audienceConstraints"`
	Pacing              string      `json:"pacing"`
	Reuse               []TopicHint `json:"reuse"`
	Originate           []string    `json:"originate"`
	Tone                Tone        `json:"tone"`
	Tweaks              Tweaks      `json:"tweaks"`
	DataEmphasis        float64     `json:"dataEmphasis"`
	PaceFactor          float64     `json:"paceFactor"`
	RetrievalBoost      float64     `json:"retrievalBoost"`
	DurationMinutes     int         `json:"durationMinutes"`
	TargetSections      int         `json:"targetSections"`
	RetrievalQuery      string      `json:"retrievalQuery"`
}

// EffectiveRAGWeight scales a persona weight by the retrieval boost.
func (in Instruction) EffectiveRAGWeight(w float64) float64 {
	boost := in.RetrievalBoost
	if boost <= 0 {
		boost = 1
	}
	return math.Max(0, math.Min(1, w*boost))
}

type Composer struct {
	cfg            *Config
	defaultMinutes int
}

func NewComposer(cfg *Config, defaultMinutes int) *Composer {
	if defaultMinutes <= 0 {
		defaultMinutes = 90
	}
	return &Composer{cfg: cfg, defaultMinutes: defaultMinutes}
}

func (c *Composer) Config() *Config { return c.cfg }

// Compose builds the instruction for b. It has no side effects and returns
// the same instruction for the same inputs.
func (c *Composer) Compose(b brief.Brief, matches []matcher.Match, s Settings) Instruction {
	minutes := b.Minutes(c.defaultMinutes)
	toneID := s.ToneID
	if toneID == "" {
		toneID = b.ToneID
	}

	in := Instruction{
		Objective:       strings.TrimSpace(b.DesiredOutcome),
		Category:        strings.TrimSpace(b.Category),
		SessionType:     string(b.SessionType),
		CurrentProblem:  strings.TrimSpace(b.CurrentProblem),
		Tone:            c.cfg.Tone(toneID),
		Tweaks:          s.Tweaks,
		DataEmphasis:    1,
		PaceFactor:      1,
		RetrievalBoost:  1,
		DurationMinutes: minutes,
		Reuse:           []TopicHint{},
		Originate:       []string{},
	}
	if s.Tweaks.DataEmphasis {
		in.DataEmphasis = c.cfg.Tweaks.DataEmphasis
	}
	if s.Tweaks.FasterPace {
		in.PaceFactor = c.cfg.Tweaks.FasterPace
	}
	if s.Tweaks.RetrievalPriority {
		in.RetrievalBoost = c.cfg.Tweaks.RetrievalPriority
	}

	in.TargetSections = targetSections(minutes, in.PaceFactor)
	in.Pacing = pacing(minutes, in.TargetSections, in.PaceFactor)
	in.AudienceConstraints = audienceConstraints(b, in.DataEmphasis)

	for i, m := range matches {
		if i == maxReuseTopics {
			break
		}
		in.Reuse = append(in.Reuse, TopicHint{ID: m.Topic.ID, Name: m.Topic.Name, MatchScore: m.MatchScore})
	}
	for _, name := range b.SpecificTopicList() {
		if !covered(name, in.Reuse) {
			in.Originate = append(in.Originate, name)
		}
	}
	in.RetrievalQuery = retrievalQuery(in)
	return in
}

func targetSections(minutes int, pace float64) int {
	if pace <= 0 {
		pace = 1
	}
	n := int(math.Round(float64(minutes) / (avgSectionMinutes * pace)))
	if n < minSections {
		return minSections
	}
	if n > maxSections {
		return maxSections
	}
	return n
}

func pacing(minutes, sections int, pace float64) string {
	per := minutes / sections
	switch {
	case pace < 1:
		return fmt.Sprintf("%d minutes over about %d sections; keep segments brisk (about %d minutes each) with quick transitions.", minutes, sections, per)
	case pace > 1:
		return fmt.Sprintf("%d minutes over about %d sections; allow unhurried segments (about %d minutes each).", minutes, sections, per)
	}
	return fmt.Sprintf("%d minutes over about %d sections (about %d minutes each).", minutes, sections, per)
}

func audienceConstraints(b brief.Brief, dataEmphasis float64) []string {
	var out []string
	switch b.SessionType {
	case brief.SessionWorkshop:
		out = append(out, "Participants expect hands-on practice; include at least one exercise.")
	case brief.SessionTraining:
		out = append(out, "Focus on skill building with practice and check for understanding.")
	case brief.SessionWebinar:
		out = append(out, "Remote audience; keep segments short and use chat-friendly interaction.")
	case brief.SessionEvent:
		out = append(out, "Larger audience; favor discussion and inspiration over individual exercises.")
	}
	if b.AudienceID != nil {
		out = append(out, fmt.Sprintf("Tailor examples to audience profile #%d.", *b.AudienceID))
	}
	if b.LocationID != nil {
		out = append(out, fmt.Sprintf("Delivered at location #%d; use materials available on site.", *b.LocationID))
	}
	if dataEmphasis > 1 {
		out = append(out, "Back key points with data, metrics or research findings.")
	}
	return out
}

func covered(name string, reuse []TopicHint) bool {
	for _, h := range reuse {
		if matcher.NameSimilarity(name, h.Name) >= coveredSimilarity {
			return true
		}
	}
	return false
}

func retrievalQuery(in Instruction) string {
	parts := []string{in.Category, in.Objective, in.CurrentProblem}
	for _, h := range in.Reuse {
		parts = append(parts, h.Name)
	}
	parts = append(parts, in.Originate...)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
