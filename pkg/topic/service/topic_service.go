package service

import (
	"context"

	"github.com/advisorpages/trainingBuilder-sub002/entities"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/brief"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/outline"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/topic/importer"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/topic/matcher"
)

type LinkStatus string

const (
	LinkReused  LinkStatus = "reused"
	LinkUpdated LinkStatus = "updated"
	LinkCreated LinkStatus = "created"
	LinkSkipped LinkStatus = "skipped"
)

// LinkResult reports what happened to one topic section.
type LinkResult struct {
	SectionID string     `json:"sectionId"`
	Title     string     `json:"title"`
	TopicID   uint       `json:"topicId,omitempty"`
	TopicName string     `json:"topicName,omitempty"`
	Status    LinkStatus `json:"status"`
	Reason    string     `json:"reason,omitempty"`
}

type LinkReport struct {
	// TopicIDs in section order, first occurrence wins.
	TopicIDs []uint       `json:"topicIds"`
	Results  []LinkResult `json:"results"`
}

func (r *LinkReport) Skipped() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == LinkSkipped {
			n++
		}
	}
	return n
}

// Stamp writes associatedTopic refs onto the linked topic sections of o.
// Sections that were skipped keep whatever ref they had.
func (r *LinkReport) Stamp(o *outline.Outline) {
	if r == nil || o == nil {
		return
	}
	byID := make(map[string]LinkResult, len(r.Results))
	for _, res := range r.Results {
		if res.Status != LinkSkipped && res.TopicID != 0 {
			byID[res.SectionID] = res
		}
	}
	for i, s := range o.Sections {
		res, ok := byID[s.ID]
		p := s.Topic()
		if !ok || p == nil {
			continue
		}
		score := 0.0
		if p.AssociatedTopic != nil {
			score = p.AssociatedTopic.MatchScore
		}
		p.AssociatedTopic = &outline.TopicRef{ID: res.TopicID, Name: res.TopicName, MatchScore: score}
		o.Sections[i] = s.WithTopic(*p)
	}
}

type TopicService interface {
	List(ctx context.Context) ([]entities.Topic, error)
	SuggestTopics(ctx context.Context, b brief.Brief) ([]matcher.Match, error)
	EnsureTopicsFromOutline(ctx context.Context, o *outline.Outline, category string) (*LinkReport, error)
	// ImportCatalog runs catalog rows through the same reuse, merge or
	// create path as outline sections.
	ImportCatalog(ctx context.Context, rows []importer.Row) (*LinkReport, error)
}
