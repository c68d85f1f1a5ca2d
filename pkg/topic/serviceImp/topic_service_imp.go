package serviceImp

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/advisorpages/trainingBuilder-sub002/entities"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/brief"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/logger"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/outline"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/topic/cache"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/topic/importer"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/topic/matcher"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/topic/repository"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/topic/service"
)

const DefaultDedupeThreshold = 0.85

type Options struct {
	MatchThreshold  float64
	DedupeThreshold float64
}

type TopicSvc struct {
	repo    repository.TopicRepository
	cache   *cache.LookupCache
	matcher *matcher.Matcher
	dedupe  float64
	log     *logger.Logger
	now     func() time.Time
}

func New(repo repository.TopicRepository, c *cache.LookupCache, log *logger.Logger, opts Options) *TopicSvc {
	if log == nil {
		log = logger.Nop()
	}
	if opts.DedupeThreshold <= 0 || opts.DedupeThreshold > 1 {
		opts.DedupeThreshold = DefaultDedupeThreshold
	}
	return &TopicSvc{
		repo:    repo,
		cache:   c,
		matcher: matcher.New(opts.MatchThreshold),
		dedupe:  opts.DedupeThreshold,
		log:     log.With("service", "TopicSynchronizer"),
		now:     time.Now,
	}
}

func (s *TopicSvc) List(ctx context.Context) ([]entities.Topic, error) {
	return s.repo.List(ctx)
}

// SuggestTopics ranks the stored topics against the brief text.
func (s *TopicSvc) SuggestTopics(ctx context.Context, b brief.Brief) ([]matcher.Match, error) {
	snap, err := s.cache.Get(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("load topics: %w", err)
	}
	return s.matcher.Match(b.Text(), snap.Topics()), nil
}

// EnsureTopicsFromOutline gives every topic section a stored Topic and
// reports the ids in section order. A section whose lookup or write fails is
// skipped and logged; the remaining sections are still processed.
func (s *TopicSvc) EnsureTopicsFromOutline(ctx context.Context, o *outline.Outline, category string) (*service.LinkReport, error) {
	report := &service.LinkReport{TopicIDs: []uint{}, Results: []service.LinkResult{}}
	if o == nil {
		return report, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resolved := map[string]*entities.Topic{}
	seen := map[uint]bool{}
	wrote := false

	for _, sec := range o.TopicSections() {
		res := s.linkSection(ctx, sec, category, resolved)
		if res.Status == service.LinkCreated || res.Status == service.LinkUpdated {
			wrote = true
		}
		if res.Status != service.LinkSkipped && !seen[res.TopicID] {
			seen[res.TopicID] = true
			report.TopicIDs = append(report.TopicIDs, res.TopicID)
		}
		report.Results = append(report.Results, res)
	}

	if wrote {
		s.cache.Invalidate()
	}
	if len(report.TopicIDs) > 0 {
		if err := s.repo.TouchUsed(ctx, report.TopicIDs, s.now()); err != nil {
			s.log.Warn("touch last used failed", "topic_ids", report.TopicIDs, "error", err)
		}
	}
	s.log.Info("topics linked", "sections", len(report.Results), "topics", len(report.TopicIDs), "skipped", report.Skipped())
	return report, nil
}

func (s *TopicSvc) ImportCatalog(ctx context.Context, rows []importer.Row) (*service.LinkReport, error) {
	byCategory := importer.Outlines(rows)
	cats := make([]string, 0, len(byCategory))
	for c := range byCategory {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	total := &service.LinkReport{TopicIDs: []uint{}, Results: []service.LinkResult{}}
	seen := map[uint]bool{}
	for _, c := range cats {
		r, err := s.EnsureTopicsFromOutline(ctx, byCategory[c], c)
		if err != nil {
			return nil, err
		}
		for _, id := range r.TopicIDs {
			if !seen[id] {
				seen[id] = true
				total.TopicIDs = append(total.TopicIDs, id)
			}
		}
		total.Results = append(total.Results, r.Results...)
	}
	s.log.Info("topic catalog imported", "rows", len(rows), "topics", len(total.TopicIDs), "skipped", total.Skipped())
	return total, nil
}

func (s *TopicSvc) linkSection(ctx context.Context, sec outline.Section, category string, resolved map[string]*entities.Topic) service.LinkResult {
	title := strings.TrimSpace(sec.Title)
	res := service.LinkResult{SectionID: sec.ID, Title: title}
	skip := func(reason string, err error) service.LinkResult {
		res.Status = service.LinkSkipped
		res.Reason = reason
		s.log.Warn("topic section skipped", "section_id", sec.ID, "title", title, "reason", reason, "error", err)
		return res
	}

	var found *entities.Topic
	if p := sec.Topic(); p != nil && p.AssociatedTopic != nil && p.AssociatedTopic.ID != 0 {
		t, err := s.repo.FindByID(ctx, p.AssociatedTopic.ID)
		switch {
		case err == nil:
			if prev, ok := resolved[matcher.NormalizeName(t.Name)]; ok && prev.ID == t.ID {
				found = prev
			} else {
				found = t
			}
		case errors.Is(err, repository.ErrNotFound):
			s.log.Debug("associated topic missing, matching by name", "topic_id", p.AssociatedTopic.ID, "section_id", sec.ID)
		default:
			return skip("lookup by id failed", err)
		}
	}

	key := matcher.NormalizeName(title)
	if found == nil {
		if key == "" {
			return skip("section has no title", nil)
		}
		if prev, ok := resolved[key]; ok {
			found = prev
		}
	}
	if found == nil {
		t, err := s.findByName(ctx, title)
		if err != nil {
			return skip("lookup by name failed", err)
		}
		found = t
	}

	if found == nil {
		t := newTopic(sec, title, category)
		if err := s.repo.Create(ctx, t); err != nil {
			return skip("create failed", err)
		}
		s.remember(resolved, key, t)
		res.TopicID, res.TopicName, res.Status = t.ID, t.Name, service.LinkCreated
		return res
	}

	merged := *found
	if mergeEnrichment(&merged, sec) {
		if err := s.repo.Update(ctx, &merged); err != nil {
			return skip("update failed", err)
		}
		res.Status = service.LinkUpdated
	} else {
		res.Status = service.LinkReused
	}
	s.remember(resolved, key, &merged)
	res.TopicID, res.TopicName = merged.ID, merged.Name
	return res
}

func (s *TopicSvc) remember(resolved map[string]*entities.Topic, key string, t *entities.Topic) {
	if key != "" {
		resolved[key] = t
	}
	resolved[matcher.NormalizeName(t.Name)] = t
}

// findByName checks the cache, forcing one refresh on a miss, then falls back
// to the closest near-identical name. A nil topic with nil error means no
// match.
func (s *TopicSvc) findByName(ctx context.Context, name string) (*entities.Topic, error) {
	snap, err := s.cache.Get(ctx, false)
	if err != nil {
		s.log.Warn("topic cache unavailable, using store", "error", err)
		t, err := s.repo.FindByNormalizedName(ctx, matcher.NormalizeName(name))
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return t, err
	}
	if t, ok := snap.Lookup(name); ok {
		return &t, nil
	}
	if snap, err = s.cache.Get(ctx, true); err != nil {
		return nil, err
	}
	if t, ok := snap.Lookup(name); ok {
		return &t, nil
	}

	var best *entities.Topic
	bestScore := 0.0
	for _, t := range snap.Topics() {
		sc := matcher.NameSimilarity(name, t.Name)
		if sc < s.dedupe {
			continue
		}
		if best == nil || sc > bestScore || (sc == bestScore && t.ID < best.ID) {
			cp := t
			best, bestScore = &cp, sc
		}
	}
	if best != nil {
		s.log.Debug("near-identical topic reused", "name", name, "topic", best.Name, "similarity", bestScore)
	}
	return best, nil
}

func newTopic(sec outline.Section, title, category string) *entities.Topic {
	t := &entities.Topic{
		Name:        title,
		Category:    strings.TrimSpace(category),
		Description: strings.TrimSpace(sec.Description),
		AIGenerationMetadata: map[string]any{
			"source":    "outline",
			"sectionId": sec.ID,
		},
	}
	if p := sec.Topic(); p != nil {
		t.LearningOutcomes, _ = union(nil, p.LearningObjectives)
		t.MaterialsNeeded, _ = union(nil, p.MaterialsNeeded)
		t.TrainerNotes = strings.TrimSpace(p.TrainerNotes)
		t.DeliveryGuidance = strings.TrimSpace(p.DeliveryGuidance)
	}
	return t
}

// mergeEnrichment folds the section's enrichment into t. Non-empty scalars
// replace, lists are unioned, empty values never overwrite. It reports
// whether t changed.
func mergeEnrichment(t *entities.Topic, sec outline.Section) bool {
	changed := false
	setStr := func(dst *string, v string) {
		v = strings.TrimSpace(v)
		if v != "" && *dst != v {
			*dst = v
			changed = true
		}
	}
	setList := func(dst *[]string, add []string) {
		if out, ok := union(*dst, add); ok {
			*dst = out
			changed = true
		}
	}

	setStr(&t.Description, sec.Description)
	if p := sec.Topic(); p != nil {
		setList(&t.LearningOutcomes, p.LearningObjectives)
		setStr(&t.TrainerNotes, p.TrainerNotes)
		setList(&t.MaterialsNeeded, p.MaterialsNeeded)
		setStr(&t.DeliveryGuidance, p.DeliveryGuidance)
	}
	return changed
}

// union appends the items of add missing from base (case-insensitive) to a
// fresh slice. base is never modified.
func union(base, add []string) ([]string, bool) {
	out := make([]string, 0, len(base)+len(add))
	have := map[string]bool{}
	for _, v := range base {
		out = append(out, v)
		have[strings.ToLower(strings.TrimSpace(v))] = true
	}
	grew := false
	for _, v := range add {
		v = strings.TrimSpace(v)
		k := strings.ToLower(v)
		if v == "" || have[k] {
			continue
		}
		have[k] = true
		out = append(out, v)
		grew = true
	}
	if len(out) == 0 {
		return nil, grew
	}
	return out, grew
}
