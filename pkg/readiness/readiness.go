package readiness

import (
	"math"
	"strings"
	"time"

	"github.com/advisorpages/trainingBuilder-sub002/pkg/brief"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/outline"
)

const DefaultThreshold = 90

// Metadata is the editable session state outside the outline.
type Metadata struct {
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Category       string     `json:"category,omitempty"`
	SessionType    string     `json:"sessionType,omitempty"`
	DesiredOutcome string     `json:"desiredOutcome,omitempty"`
	CurrentProblem string     `json:"currentProblem,omitempty"`
	SpecificTopics string     `json:"specificTopics,omitempty"`
	StartTime      *time.Time `json:"startTime,omitempty"`
	EndTime        *time.Time `json:"endTime,omitempty"`
	LocationID     *uint      `json:"locationId,omitempty"`
	AudienceID     *uint      `json:"audienceId,omitempty"`
	ToneID         string     `json:"toneId,omitempty"`
}

// WindowMinutes is the scheduled length, 0 without a usable window.
func (m Metadata) WindowMinutes() int {
	if m.StartTime == nil || m.EndTime == nil || !m.EndTime.After(*m.StartTime) {
		return 0
	}
	return int(m.EndTime.Sub(*m.StartTime).Minutes())
}

// Brief projects the metadata onto a generation brief.
func (m Metadata) Brief() brief.Brief {
	return brief.Brief{
		Category:       m.Category,
		SessionType:    brief.SessionType(m.SessionType),
		DesiredOutcome: m.DesiredOutcome,
		CurrentProblem: m.CurrentProblem,
		SpecificTopics: m.SpecificTopics,
		StartTime:      m.StartTime,
		EndTime:        m.EndTime,
		LocationID:     m.LocationID,
		AudienceID:     m.AudienceID,
		ToneID:         m.ToneID,
	}
}

// TopicAssignment links an outline section to a stored topic or a trainer
// outside the outline itself.
type TopicAssignment struct {
	SectionID string `json:"sectionId"`
	TopicID   *uint  `json:"topicId,omitempty"`
	TrainerID *uint  `json:"trainerId,omitempty"`
}

type Check struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Weight int    `json:"weight"`
	Passed bool   `json:"passed"`
}

type Score struct {
	Score           int      `json:"score"`
	Percentage      float64  `json:"percentage"`
	Checks          []Check  `json:"checks"`
	CanPublish      bool     `json:"canPublish"`
	Threshold       int      `json:"threshold"`
	Recommendations []string `json:"recommendations"`
}

type rule struct {
	name, label, advice string
	weight             int
	pass               func(m Metadata, o *outline.Outline, assigned map[string]bool) bool
}

var rules = []rule{
	{"title", "Session has a title", "Add a session title.", 15,
		func(m Metadata, _ *outline.Outline, _ map[string]bool) bool { return strings.TrimSpace(m.Title) != "" }},
	{"objective", "Session has a desired outcome", "Describe the desired outcome for attendees.", 15,
		func(m Metadata, _ *outline.Outline, _ map[string]bool) bool { return strings.TrimSpace(m.DesiredOutcome) != "" }},
	{"schedule", "Scheduling window is set", "Set a start and end time.", 15,
		func(m Metadata, _ *outline.Outline, _ map[string]bool) bool { return m.WindowMinutes() > 0 }},
	{"outline_present", "Outline has sections", "Generate or build an outline.", 10,
		func(_ Metadata, o *outline.Outline, _ map[string]bool) bool { return o != nil && len(o.Sections) > 0 }},
	{"section_descriptions", "Every section has a description", "Add a description to every section.", 10,
		func(_ Metadata, o *outline.Outline, _ map[string]bool) bool {
			return every(o, func(s outline.Section) bool { return strings.TrimSpace(s.Description) != "" })
		}},
	{"section_durations", "Every section has a duration", "Give every section a duration above zero.", 10,
		func(_ Metadata, o *outline.Outline, _ map[string]bool) bool {
			return every(o, func(s outline.Section) bool { return s.Duration > 0 })
		}},
	{"topic_coverage", "Every topic section has a topic or trainer", "Link each topic section to a topic or assign a trainer.", 15,
		func(_ Metadata, o *outline.Outline, assigned map[string]bool) bool {
			return every(o, func(s outline.Section) bool {
				p := s.Topic()
				if p == nil {
					return true
				}
				return assigned[s.ID] || p.TrainerID != nil || (p.AssociatedTopic != nil && p.AssociatedTopic.ID != 0)
			})
		}},
	{"duration_bounds", "Outline length fits the session", "Keep the outline between 30 and 480 minutes and within the scheduled time.", 10,
		func(m Metadata, o *outline.Outline, _ map[string]bool) bool {
			if o == nil || len(o.Sections) == 0 {
				return false
			}
			total := o.Sum()
			if total < brief.MinMinutes || total > brief.MaxMinutes {
				return false
			}
			if w := m.WindowMinutes(); w > 0 && total > w {
				return false
			}
			return true
		}},
}

// every is false for an empty outline: there is nothing ready to check.
func every(o *outline.Outline, f func(outline.Section) bool) bool {
	if o == nil || len(o.Sections) == 0 {
		return false
	}
	for _, s := range o.Sections {
		if !f(s) {
			return false
		}
	}
	return true
}

// Compute scores the session state. It is pure: identical inputs give
// identical scores. threshold <= 0 means DefaultThreshold.
func Compute(m Metadata, o *outline.Outline, assignments []TopicAssignment, threshold int) Score {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	assigned := map[string]bool{}
	for _, a := range assignments {
		if a.TopicID != nil || a.TrainerID != nil {
			assigned[a.SectionID] = true
		}
	}

	out := Score{Threshold: threshold, Checks: make([]Check, 0, len(rules)), Recommendations: []string{}}
	total, passed := 0, 0
	for _, r := range rules {
		ok := r.pass(m, o, assigned)
		total += r.weight
		if ok {
			passed += r.weight
		} else {
			out.Recommendations = append(out.Recommendations, r.advice)
		}
		out.Checks = append(out.Checks, Check{Name: r.name, Label: r.label, Weight: r.weight, Passed: ok})
	}
	pct := float64(passed) / float64(total) * 100
	out.Percentage = math.Round(pct*10) / 10
	out.Score = min(max(int(math.Round(pct)), 0), 100)
	out.CanPublish = out.Score >= threshold
	return out
}
