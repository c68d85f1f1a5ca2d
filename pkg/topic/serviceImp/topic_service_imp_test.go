package serviceImp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/advisorpages/trainingBuilder-sub002/database"
	"github.com/advisorpages/trainingBuilder-sub002/entities"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/brief"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/logger"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/outline"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/topic/cache"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/topic/importer"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/topic/repository"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/topic/repositoryImp"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/topic/service"
)

// failingRepo fails Create/Update for the listed names.
type failingRepo struct {
	repository.TopicRepository
	failNames map[string]bool
	creates   int
}

func (f *failingRepo) Create(ctx context.Context, t *entities.Topic) error {
	if f.failNames[t.Name] {
		return errors.New("insert refused")
	}
	f.creates++
	return f.TopicRepository.Create(ctx, t)
}

func (f *failingRepo) Update(ctx context.Context, t *entities.Topic) error {
	if f.failNames[t.Name] {
		return errors.New("update refused")
	}
	return f.TopicRepository.Update(ctx, t)
}

func newSvc(t *testing.T, fail ...string) (*TopicSvc, *failingRepo) {
	t.Helper()
	db, err := database.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	repo := &failingRepo{TopicRepository: repositoryImp.New(db), failNames: map[string]bool{}}
	for _, n := range fail {
		repo.failNames[n] = true
	}
	return New(repo, cache.New(repo, time.Minute), logger.Nop(), Options{}), repo
}

func topicSection(id, title, desc string, p outline.TopicPayload) outline.Section {
	return outline.Section{ID: id, Type: outline.KindTopic, Title: title, Duration: 20, Description: desc, Payload: p}
}

func sampleOutline() *outline.Outline {
	o := &outline.Outline{Sections: []outline.Section{
		{ID: "o", Type: outline.KindOpener, Title: "Welcome", Duration: 10, Payload: outline.OpenerPayload{}},
		topicSection("t1", "Leading Through Change", "Why change stalls", outline.TopicPayload{
			LearningObjectives: []string{"Name the stages of change"},
		}),
		topicSection("t2", "Setting Priorities", "", outline.TopicPayload{MaterialsNeeded: []string{"Sticky notes"}}),
		topicSection("t3", "  leading through CHANGE ", "", outline.TopicPayload{TrainerNotes: "Share a story"}),
		{ID: "c", Type: outline.KindClosing, Title: "Wrap up", Duration: 10, Payload: outline.ClosingPayload{}},
	}}
	o.Finalize()
	return o
}

func TestEnsureTopicsIsIdempotent(t *testing.T) {
	svc, repo := newSvc(t)
	ctx := context.Background()

	first, err := svc.EnsureTopicsFromOutline(ctx, sampleOutline(), "Leadership")
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(first.TopicIDs) != 2 || len(first.Results) != 3 {
		t.Fatalf("first run: ids=%v results=%+v", first.TopicIDs, first.Results)
	}
	if first.Results[0].TopicID != first.Results[2].TopicID {
		t.Fatalf("duplicate titles must share a topic: %+v", first.Results)
	}
	if first.Results[0].Status != service.LinkCreated || first.Results[2].Status != service.LinkUpdated {
		t.Fatalf("statuses: %+v", first.Results)
	}

	second, err := svc.EnsureTopicsFromOutline(ctx, sampleOutline(), "Leadership")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(second.TopicIDs) != len(first.TopicIDs) {
		t.Fatalf("ids: want=%v got=%v", first.TopicIDs, second.TopicIDs)
	}
	for i := range first.TopicIDs {
		if first.TopicIDs[i] != second.TopicIDs[i] {
			t.Fatalf("ids: want=%v got=%v", first.TopicIDs, second.TopicIDs)
		}
	}
	for _, r := range second.Results {
		if r.Status != service.LinkReused {
			t.Fatalf("second run should only reuse: %+v", second.Results)
		}
	}
	if repo.creates != 2 {
		t.Fatalf("creates: want=2 got=%d", repo.creates)
	}
	all, _ := repo.List(ctx)
	if len(all) != 2 {
		t.Fatalf("stored topics: want=2 got=%d", len(all))
	}
}

func TestEnsureTopicsPartialFailureSkipsSection(t *testing.T) {
	svc, _ := newSvc(t, "Setting Priorities")
	rep, err := svc.EnsureTopicsFromOutline(context.Background(), sampleOutline(), "Leadership")
	if err != nil {
		t.Fatalf("EnsureTopicsFromOutline: %v", err)
	}
	if rep.Skipped() != 1 || len(rep.TopicIDs) != 1 {
		t.Fatalf("report: %+v", rep)
	}
	if rep.Results[1].Status != service.LinkSkipped || rep.Results[1].Reason == "" {
		t.Fatalf("failed section: %+v", rep.Results[1])
	}
}

func TestEnsureTopicsNeverBlanksEnrichment(t *testing.T) {
	svc, repo := newSvc(t)
	ctx := context.Background()
	existing := &entities.Topic{
		Name:             "Feedback Culture",
		Description:      "Giving and receiving feedback",
		LearningOutcomes: []string{"Use SBI"},
		TrainerNotes:     "Keep it practical",
		DeliveryGuidance: "Pairs",
	}
	if err := repo.Create(ctx, existing); err != nil {
		t.Fatalf("Create: %v", err)
	}

	o := &outline.Outline{Sections: []outline.Section{
		topicSection("t1", "feedback culture", "", outline.TopicPayload{
			LearningObjectives: []string{"use sbi", "Ask for feedback"},
		}),
	}}
	o.Finalize()
	rep, err := svc.EnsureTopicsFromOutline(ctx, o, "")
	if err != nil {
		t.Fatalf("EnsureTopicsFromOutline: %v", err)
	}
	if rep.Results[0].Status != service.LinkUpdated || rep.Results[0].TopicID != existing.ID {
		t.Fatalf("result: %+v", rep.Results[0])
	}
	got, _ := repo.FindByID(ctx, existing.ID)
	if got.Description != existing.Description || got.TrainerNotes != existing.TrainerNotes || got.DeliveryGuidance != existing.DeliveryGuidance {
		t.Fatalf("scalar fields blanked: %+v", got)
	}
	if strings.Join(got.LearningOutcomes, "|") != "Use SBI|Ask for feedback" {
		t.Fatalf("learning outcomes: %v", got.LearningOutcomes)
	}
}

func TestEnsureTopicsPrefersAssociatedID(t *testing.T) {
	svc, repo := newSvc(t)
	ctx := context.Background()
	a := &entities.Topic{Name: "Coaching Basics"}
	b := &entities.Topic{Name: "Delegation"}
	_ = repo.Create(ctx, a)
	_ = repo.Create(ctx, b)

	o := &outline.Outline{Sections: []outline.Section{
		topicSection("t1", "Delegation", "", outline.TopicPayload{AssociatedTopic: &outline.TopicRef{ID: a.ID}}),
	}}
	o.Finalize()
	rep, err := svc.EnsureTopicsFromOutline(ctx, o, "")
	if err != nil {
		t.Fatalf("EnsureTopicsFromOutline: %v", err)
	}
	if rep.TopicIDs[0] != a.ID {
		t.Fatalf("want associated id %d got %v", a.ID, rep.TopicIDs)
	}

	rep.Stamp(o)
	if ref := o.Sections[0].Topic().AssociatedTopic; ref == nil || ref.ID != a.ID || ref.Name != "Coaching Basics" {
		t.Fatalf("stamp: %+v", ref)
	}
}

func TestEnsureTopicsReusesNearIdenticalName(t *testing.T) {
	svc, repo := newSvc(t)
	ctx := context.Background()
	a := &entities.Topic{Name: "Managing Remote Teams"}
	_ = repo.Create(ctx, a)

	o := &outline.Outline{Sections: []outline.Section{
		topicSection("t1", "Managing the Remote Teams", "", outline.TopicPayload{}),
		topicSection("t2", "Remote Onboarding", "", outline.TopicPayload{}),
	}}
	o.Finalize()
	rep, err := svc.EnsureTopicsFromOutline(ctx, o, "")
	if err != nil {
		t.Fatalf("EnsureTopicsFromOutline: %v", err)
	}
	if rep.Results[0].TopicID != a.ID || rep.Results[0].Status != service.LinkReused {
		t.Fatalf("near duplicate: %+v", rep.Results[0])
	}
	if rep.Results[1].Status != service.LinkCreated {
		t.Fatalf("distinct name: %+v", rep.Results[1])
	}
}

func TestEnsureTopicsSkipsUntitled(t *testing.T) {
	svc, _ := newSvc(t)
	o := &outline.Outline{Sections: []outline.Section{topicSection("t1", "   ", "", outline.TopicPayload{})}}
	rep, err := svc.EnsureTopicsFromOutline(context.Background(), o, "")
	if err != nil {
		t.Fatalf("EnsureTopicsFromOutline: %v", err)
	}
	if rep.Skipped() != 1 || len(rep.TopicIDs) != 0 {
		t.Fatalf("report: %+v", rep)
	}
}

func TestSuggestTopics(t *testing.T) {
	svc, repo := newSvc(t)
	ctx := context.Background()
	_ = repo.Create(ctx, &entities.Topic{Name: "Change Management", Category: "Leadership"})
	_ = repo.Create(ctx, &entities.Topic{Name: "Excel Pivot Tables", Category: "Tools"})

	got, err := svc.SuggestTopics(ctx, brief.Brief{
		Category:       "Leadership",
		SessionType:    brief.SessionWorkshop,
		DesiredOutcome: "Managers lead change management confidently",
	})
	if err != nil {
		t.Fatalf("SuggestTopics: %v", err)
	}
	if len(got) != 1 || got[0].Topic.Name != "Change Management" {
		t.Fatalf("suggestions: %+v", got)
	}
}

func TestImportCatalogReusesExistingTopics(t *testing.T) {
	svc, repo := newSvc(t)
	ctx := context.Background()
	if _, err := svc.EnsureTopicsFromOutline(ctx, sampleOutline(), "Leadership"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	before := repo.creates

	rep, err := svc.ImportCatalog(ctx, []importer.Row{
		{Name: "leading through change", Category: "Leadership", DeliveryGuidance: "Small groups"},
		{Name: "Negotiation", Category: "Sales"},
	})
	if err != nil {
		t.Fatalf("ImportCatalog: %v", err)
	}
	if len(rep.TopicIDs) != 2 || repo.creates != before+1 {
		t.Fatalf("import: ids=%v creates=%d", rep.TopicIDs, repo.creates-before)
	}
	topics, _ := svc.List(ctx)
	for _, tp := range topics {
		if tp.Name == "Leading Through Change" && tp.DeliveryGuidance != "Small groups" {
			t.Fatalf("import should enrich the existing topic: %+v", tp)
		}
	}
}
