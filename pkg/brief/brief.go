package brief

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type SessionType string

const (
	SessionEvent    SessionType = "event"
	SessionTraining SessionType = "training"
	SessionWorkshop SessionType = "workshop"
	SessionWebinar  SessionType = "webinar"
)

const (
	MinMinutes = 30
	MaxMinutes = 480
)

var ErrInvalidBrief = errors.New("invalid brief")

// ValidationError names the brief field that failed. It matches
// ErrInvalidBrief with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Message) }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidBrief }

// Brief is the structured request a session outline is generated from. It is
// treated as immutable once handed to generation.
type Brief struct {
	Category       string      `json:"category"`
	SessionType    SessionType `json:"sessionType"`
	DesiredOutcome string      `json:"desiredOutcome"`
	CurrentProblem string      `json:"currentProblem,omitempty"`
	SpecificTopics string      `json:"specificTopics,omitempty"`
	StartTime      *time.Time  `json:"startTime,omitempty"`
	EndTime        *time.Time  `json:"endTime,omitempty"`
	LocationID     *uint       `json:"locationId,omitempty"`
	AudienceID     *uint       `json:"audienceId,omitempty"`
	ToneID         string      `json:"toneId,omitempty"`
}

func (t SessionType) Valid() bool {
	switch t {
	case SessionEvent, SessionTraining, SessionWorkshop, SessionWebinar:
		return true
	}
	return false
}

// Validate checks required fields and the scheduling window. The window is
// optional, but start and end must be given together.
func (b Brief) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return &ValidationError{Field: "category", Message: "category is required"}
	}
	if !b.SessionType.Valid() {
		return &ValidationError{Field: "sessionType", Message: fmt.Sprintf("sessionType must be one of event, training, workshop, webinar (got %q)", b.SessionType)}
	}
	if strings.TrimSpace(b.DesiredOutcome) == "" {
		return &ValidationError{Field: "desiredOutcome", Message: "desiredOutcome is required"}
	}
	switch {
	case b.StartTime == nil && b.EndTime == nil:
		return nil
	case b.StartTime == nil:
		return &ValidationError{Field: "startTime", Message: "startTime is required when endTime is set"}
	case b.EndTime == nil:
		return &ValidationError{Field: "endTime", Message: "endTime is required when startTime is set"}
	}
	if !b.EndTime.After(*b.StartTime) {
		return &ValidationError{Field: "endTime", Message: "endTime must be after startTime"}
	}
	if m := b.windowMinutes(); m < MinMinutes || m > MaxMinutes {
		return &ValidationError{Field: "endTime", Message: fmt.Sprintf("session must last between %d and %d minutes (got %d)", MinMinutes, MaxMinutes, m)}
	}
	return nil
}

func (b Brief) windowMinutes() int {
	return int(b.EndTime.Sub(*b.StartTime).Minutes())
}

// HasWindow reports whether a scheduling window is set.
func (b Brief) HasWindow() bool { return b.StartTime != nil && b.EndTime != nil }

// Minutes is the session length: the window when set, def otherwise.
func (b Brief) Minutes(def int) int {
	if b.HasWindow() {
		return b.windowMinutes()
	}
	return def
}

// Text joins the free text fields used for topic matching and retrieval.
func (b Brief) Text() string {
	parts := []string{b.Category, b.DesiredOutcome, b.CurrentProblem, b.SpecificTopics}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// SpecificTopicList splits the specific topics text on commas, semicolons and
// newlines, dropping empties and repeats.
func (b Brief) SpecificTopicList() []string {
	fields := strings.FieldsFunc(b.SpecificTopics, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	seen := map[string]bool{}
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		key := strings.ToLower(f)
		if f == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out
}
