package serviceImp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/advisorpages/trainingBuilder-sub002/entities"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/ai"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/brief"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/generation/service"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/logger"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/outline"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/prompt"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/topic/matcher"
)

type fakeTopics struct {
	matches []matcher.Match
	err     error
}

func (f fakeTopics) SuggestTopics(ctx context.Context, b brief.Brief) ([]matcher.Match, error) {
	return f.matches, f.err
}

// scriptedCompleter fails the first `fail` calls, then returns out.
type scriptedCompleter struct {
	fail  int32
	calls int32
	out   func() *outline.Outline
	block bool
}

func (c *scriptedCompleter) CompleteOutline(ctx context.Context, in prompt.Instruction, snippets []ai.Snippet) (*outline.Outline, error) {
	n := atomic.AddInt32(&c.calls, 1)
	if c.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if n <= c.fail {
		return nil, fmt.Errorf("backend unavailable (call %d)", n)
	}
	return c.out(), nil
}

type fakeRetriever struct {
	snips []ai.Snippet
	err   error
	calls int32
}

func (r *fakeRetriever) Retrieve(ctx context.Context, q string, k int) ([]ai.Snippet, error) {
	atomic.AddInt32(&r.calls, 1)
	return r.snips, r.err
}

func leadershipBrief() brief.Brief {
	return brief.Brief{
		Category:       "Leadership",
		SessionType:    brief.SessionWorkshop,
		DesiredOutcome: "Managers navigate change confidently",
		CurrentProblem: "Teams uncertain about priorities",
	}
}

func ragOutline() *outline.Outline {
	return &outline.Outline{
		SuggestedTitle: "Leading Through Change",
		Sections: []outline.Section{
			{Type: outline.KindOpener, Title: "Change stories", Duration: 10, Payload: outline.OpenerPayload{}},
			{Type: outline.KindTopic, Title: "The change curve", Duration: 30, Description: "Stages people move through.", Payload: outline.TopicPayload{}},
			{Type: outline.KindAssessment, Title: "Quick quiz", Duration: 10, Payload: outline.AssessmentPayload{Questions: []string{"Name a stage"}}},
			{Type: outline.KindClosing, Title: "Commitments", Duration: 10, Payload: outline.ClosingPayload{}},
		},
	}
}

func newTestSvc(t *testing.T, c ai.Completer, r ai.Retriever, topics TopicSource, opts Options) *GenerationSvc {
	t.Helper()
	cfg, err := prompt.DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig: %v", err)
	}
	s := New(topics, prompt.NewComposer(cfg, 90), c, r, logger.Nop(), opts)
	s.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return s
}

func assertOutlineInvariants(t *testing.T, o *outline.Outline) {
	t.Helper()
	if errs := outline.Validate(o); len(errs) != 0 {
		t.Fatalf("outline invalid: %v", errs)
	}
	if o.TotalDuration != o.Sum() {
		t.Fatalf("total: want=%d got=%d", o.Sum(), o.TotalDuration)
	}
}

func TestLeadershipBriefWithoutBackendFallsBack(t *testing.T) {
	s := newTestSvc(t, nil, nil, nil, Options{})
	res, err := s.GenerateOutline(context.Background(), leadershipBrief(), service.GenerateOptions{})
	if err != nil {
		t.Fatalf("GenerateOutline: %v", err)
	}
	o := res.Outline
	if !o.FallbackUsed || !res.GenerationMetadata.FallbackUsed || res.GenerationMetadata.Source != service.SourceBaseline {
		t.Fatalf("fallback flags: outline=%v meta=%+v", o.FallbackUsed, res.GenerationMetadata)
	}
	if !o.HasKind(outline.KindOpener) || !o.HasKind(outline.KindClosing) {
		t.Fatalf("opener/closing missing: %+v", o.Sections)
	}
	assertOutlineInvariants(t, o)
	if o.TotalDuration != 90 {
		t.Fatalf("total: want=90 got=%d", o.TotalDuration)
	}
	if res.GenerationMetadata.RAGQueried || res.GenerationMetadata.Attempts != 0 {
		t.Fatalf("no backend should mean no attempts: %+v", res.GenerationMetadata)
	}
	if !o.HasKind(outline.KindExercise) {
		t.Fatalf("workshop baseline needs an exercise")
	}
}

func TestInvalidBriefIsTheOnlyError(t *testing.T) {
	s := newTestSvc(t, nil, nil, nil, Options{})
	b := leadershipBrief()
	b.DesiredOutcome = " "
	_, err := s.GenerateOutline(context.Background(), b, service.GenerateOptions{})
	var ve *brief.ValidationError
	if !errors.Is(err, brief.ErrInvalidBrief) || !errors.As(err, &ve) || ve.Field != "desiredOutcome" {
		t.Fatalf("want desiredOutcome validation error, got %v", err)
	}
}

func TestRetriesThenBlends(t *testing.T) {
	c := &scriptedCompleter{fail: 2, out: ragOutline}
	r := &fakeRetriever{snips: []ai.Snippet{
		{SourceID: "kb:1", Text: "a", Score: 0.8},
		{SourceID: "kb:1", Text: "b", Score: 0.6},
		{SourceID: "kb:2", Text: "c", Score: 0.4},
	}}
	s := newTestSvc(t, c, r, nil, Options{MaxRetries: 2, Timeout: time.Second})
	var slept []time.Duration
	s.sleep = func(ctx context.Context, d time.Duration) error { slept = append(slept, d); return nil }

	res, err := s.GenerateOutline(context.Background(), leadershipBrief(), service.GenerateOptions{})
	if err != nil {
		t.Fatalf("GenerateOutline: %v", err)
	}
	m := res.GenerationMetadata
	if m.Attempts != 3 || m.Source != service.SourceRAG || m.FallbackUsed || res.Outline.FallbackUsed {
		t.Fatalf("meta: %+v", m)
	}
	if len(slept) != 2 || slept[1] != 2*slept[0] {
		t.Fatalf("backoff: %v", slept)
	}
	if atomic.LoadInt32(&r.calls) != 1 {
		t.Fatalf("retrieval should run once when it succeeds, got %d", r.calls)
	}
	if !m.RAGQueried || !res.RAGAvailable || m.RAGSourcesUsed != 2 || len(m.SourceIDs) != 2 {
		t.Fatalf("rag meta: %+v", m)
	}
	if m.AverageSimilarity == nil || *m.AverageSimilarity != 0.6 {
		t.Fatalf("average similarity: %v", m.AverageSimilarity)
	}
	assertOutlineInvariants(t, res.Outline)
	if res.Outline.TotalDuration != 90 {
		t.Fatalf("blend must keep the session length: %d", res.Outline.TotalDuration)
	}
	if !res.Outline.HasKind(outline.KindAssessment) {
		t.Fatalf("full weight should bring in generated-only kinds: %+v", res.Outline.Sections)
	}
	if res.Outline.Sections[len(res.Outline.Sections)-1].Type != outline.KindClosing {
		t.Fatalf("closing must stay last")
	}
}

func TestBackendTimeoutFallsBack(t *testing.T) {
	c := &scriptedCompleter{block: true}
	s := newTestSvc(t, c, nil, nil, Options{MaxRetries: 1, Timeout: 10 * time.Millisecond})

	res, err := s.GenerateOutline(context.Background(), leadershipBrief(), service.GenerateOptions{})
	if err != nil {
		t.Fatalf("GenerateOutline: %v", err)
	}
	if !res.GenerationMetadata.FallbackUsed || res.GenerationMetadata.Attempts != 2 || atomic.LoadInt32(&c.calls) != 2 {
		t.Fatalf("meta: %+v calls=%d", res.GenerationMetadata, c.calls)
	}
	assertOutlineInvariants(t, res.Outline)
}

func TestInvalidGeneratedOutlineCountsAsFailure(t *testing.T) {
	bad := func() *outline.Outline {
		return &outline.Outline{Sections: []outline.Section{{Type: "keynote", Title: "?", Duration: 10}}}
	}
	c := &scriptedCompleter{out: bad}
	s := newTestSvc(t, c, nil, nil, Options{MaxRetries: 1})
	res, err := s.GenerateOutline(context.Background(), leadershipBrief(), service.GenerateOptions{})
	if err != nil {
		t.Fatalf("GenerateOutline: %v", err)
	}
	if !res.GenerationMetadata.FallbackUsed || res.GenerationMetadata.Attempts != 2 {
		t.Fatalf("meta: %+v", res.GenerationMetadata)
	}
}

func TestRetrievalFailureStillGenerates(t *testing.T) {
	c := &scriptedCompleter{out: ragOutline}
	r := &fakeRetriever{err: errors.New("index offline")}
	s := newTestSvc(t, c, r, nil, Options{})
	res, err := s.GenerateOutline(context.Background(), leadershipBrief(), service.GenerateOptions{})
	if err != nil {
		t.Fatalf("GenerateOutline: %v", err)
	}
	m := res.GenerationMetadata
	if !m.RAGQueried || res.RAGAvailable || m.Source != service.SourceRAG || m.RAGSourcesUsed != 0 || m.AverageSimilarity != nil {
		t.Fatalf("meta: %+v available=%v", m, res.RAGAvailable)
	}
}

func TestMatchedTopicsSeedBaseline(t *testing.T) {
	topics := fakeTopics{matches: []matcher.Match{
		{Topic: entities.Topic{ID: 11, Name: "Change Management", LearningOutcomes: []string{"Map stakeholders"}}, MatchScore: 0.9},
		{Topic: entities.Topic{ID: 12, Name: "Prioritization"}, MatchScore: 0.5},
	}}
	s := newTestSvc(t, nil, nil, topics, Options{})
	b := leadershipBrief()
	b.SpecificTopics = "Difficult Conversations"
	res, err := s.GenerateOutline(context.Background(), b, service.GenerateOptions{})
	if err != nil {
		t.Fatalf("GenerateOutline: %v", err)
	}
	if res.GenerationMetadata.TopicsFound != 2 || len(res.RelevantTopics) != 2 {
		t.Fatalf("topics found: %+v", res.GenerationMetadata)
	}
	ts := res.Outline.TopicSections()
	if len(ts) < 1 || ts[0].Title != "Change Management" {
		t.Fatalf("first topic should be the best match: %+v", ts)
	}
	p := ts[0].Topic()
	if p.AssociatedTopic == nil || p.AssociatedTopic.ID != 11 || p.LearningObjectives[0] != "Map stakeholders" {
		t.Fatalf("topic payload: %+v", p)
	}
	assertOutlineInvariants(t, res.Outline)
}

func TestTopicSourceErrorDegrades(t *testing.T) {
	s := newTestSvc(t, nil, nil, fakeTopics{err: errors.New("db down")}, Options{})
	res, err := s.GenerateOutline(context.Background(), leadershipBrief(), service.GenerateOptions{})
	if err != nil {
		t.Fatalf("GenerateOutline: %v", err)
	}
	if res.GenerationMetadata.TopicsFound != 0 || res.RelevantTopics == nil {
		t.Fatalf("meta: %+v", res.GenerationMetadata)
	}
}

func TestTemplateFixesSequence(t *testing.T) {
	s := newTestSvc(t, nil, nil, nil, Options{})
	res, err := s.GenerateOutline(context.Background(), leadershipBrief(), service.GenerateOptions{TemplateID: "assessed"})
	if err != nil {
		t.Fatalf("GenerateOutline: %v", err)
	}
	want := []outline.Kind{outline.KindOpener, outline.KindTopic, outline.KindExercise, outline.KindTopic, outline.KindAssessment, outline.KindClosing}
	if len(res.Outline.Sections) != len(want) {
		t.Fatalf("sections: %+v", res.Outline.Sections)
	}
	for i, k := range want {
		if res.Outline.Sections[i].Type != k {
			t.Fatalf("sections[%d]: want=%s got=%s", i, k, res.Outline.Sections[i].Type)
		}
	}
	assertOutlineInvariants(t, res.Outline)
}

func TestBaselineFitsEverySessionLength(t *testing.T) {
	cfg, _ := prompt.DefaultConfig()
	composer := prompt.NewComposer(cfg, 90)
	for _, st := range []brief.SessionType{brief.SessionEvent, brief.SessionTraining, brief.SessionWorkshop, brief.SessionWebinar} {
		for minutes := brief.MinMinutes; minutes <= brief.MaxMinutes; minutes += 15 {
			start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
			end := start.Add(time.Duration(minutes) * time.Minute)
			b := leadershipBrief()
			b.SessionType = st
			b.SpecificTopics = "Coaching, Delegation, Feedback, Prioritization, Trust"
			b.StartTime, b.EndTime = &start, &end

			for _, tpl := range []string{"", "classic", "workshop", "assessed"} {
				var kinds []outline.Kind
				if tpl != "" {
					tp, _ := cfg.Template(tpl)
					kinds = tp.Sections
				}
				o := BuildBaseline(b, nil, composer.Compose(b, nil, prompt.Settings{}), kinds)
				if errs := outline.Validate(o); len(errs) != 0 {
					t.Fatalf("%s/%d/%q: %v", st, minutes, tpl, errs)
				}
				if o.TotalDuration != minutes {
					t.Fatalf("%s/%d/%q: total=%d", st, minutes, tpl, o.TotalDuration)
				}
			}
		}
	}
}

func TestVariantsRunConcurrentlyAndAllResolve(t *testing.T) {
	var mu sync.Mutex
	inFlight, peak := 0, 0
	gate := make(chan struct{})
	c := &gatedCompleter{enter: func() {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		if inFlight == 3 {
			close(gate)
		}
		mu.Unlock()
	}, gate: gate}
	r := &fakeRetriever{snips: []ai.Snippet{{SourceID: "kb:1", Score: 0.5}, {SourceID: "kb:2", Score: 0.7}}}
	s := newTestSvc(t, c, r, nil, Options{Timeout: 2 * time.Second})

	res, err := s.GenerateVariants(context.Background(), leadershipBrief(), service.GenerateOptions{})
	if err != nil {
		t.Fatalf("GenerateVariants: %v", err)
	}
	if peak != 3 {
		t.Fatalf("variants should run concurrently, peak=%d", peak)
	}
	if res.Metadata.VariantCount != 3 || len(res.Variants) != 3 {
		t.Fatalf("variants: %d", len(res.Variants))
	}
	ids := map[string]bool{}
	for _, v := range res.Variants {
		if v.Label == "" || v.Description == "" || v.Source != service.SourceRAG {
			t.Fatalf("variant: %+v", v)
		}
		if ids[v.ID] {
			t.Fatalf("duplicate variant id %s", v.ID)
		}
		ids[v.ID] = true
		assertOutlineInvariants(t, v.Outline)
	}
	if res.Variants[0].RAGWeight <= res.Variants[2].RAGWeight {
		t.Fatalf("persona weights should carry through: %v / %v", res.Variants[0].RAGWeight, res.Variants[2].RAGWeight)
	}
	if !res.Metadata.RAGAvailable || res.Metadata.TotalSourcesFound != 2 {
		t.Fatalf("metadata: %+v", res.Metadata)
	}
	if res.Metadata.AverageSimilarity == nil || *res.Metadata.AverageSimilarity != 0.6 {
		t.Fatalf("average similarity: %v", res.Metadata.AverageSimilarity)
	}
}

func TestVariantsWithoutBackendAreBaselines(t *testing.T) {
	s := newTestSvc(t, nil, nil, nil, Options{})
	res, err := s.GenerateVariants(context.Background(), leadershipBrief(), service.GenerateOptions{})
	if err != nil {
		t.Fatalf("GenerateVariants: %v", err)
	}
	for _, v := range res.Variants {
		if v.Source != service.SourceBaseline || !v.Outline.FallbackUsed {
			t.Fatalf("variant: %+v", v)
		}
		assertOutlineInvariants(t, v.Outline)
	}
	if res.Metadata.RAGAvailable || res.Metadata.AverageSimilarity != nil || res.Metadata.TotalSourcesFound != 0 {
		t.Fatalf("metadata: %+v", res.Metadata)
	}
}

// gatedCompleter holds every call until all variants are in flight.
type gatedCompleter struct {
	enter func()
	gate  chan struct{}
}

func (c *gatedCompleter) CompleteOutline(ctx context.Context, in prompt.Instruction, snippets []ai.Snippet) (*outline.Outline, error) {
	c.enter()
	select {
	case <-c.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return ragOutline(), nil
}
