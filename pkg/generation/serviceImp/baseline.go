package serviceImp

import (
	"fmt"
	"strings"

	"github.com/advisorpages/trainingBuilder-sub002/pkg/brief"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/outline"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/prompt"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/topic/matcher"
)

const minSectionMinutes = 5

// topicSeed is a topic the baseline will cover, either a stored topic or a
// name to originate.
type topicSeed struct {
	name    string
	desc    string
	match   *matcher.Match
	derived bool
}

// BuildBaseline assembles the deterministic outline used as blend skeleton
// and as fallback. kinds, when non-empty, fixes the section sequence.
func BuildBaseline(b brief.Brief, matches []matcher.Match, in prompt.Instruction, kinds []outline.Kind) *outline.Outline {
	minutes := in.DurationMinutes
	seeds := topicSeeds(b, matches, in)

	if len(kinds) == 0 {
		kinds = defaultSequence(b.SessionType, minutes, len(seeds))
	}

	var secs []outline.Section
	counts := map[outline.Kind]int{}
	topicIdx := 0
	for _, k := range kinds {
		counts[k]++
		id := fmt.Sprintf("baseline-%s-%d", k, counts[k])
		switch k {
		case outline.KindTopic:
			var seed topicSeed
			if topicIdx < len(seeds) {
				seed = seeds[topicIdx]
			} else {
				seed = topicSeed{name: fmt.Sprintf("Applying %s (part %d)", shortOutcome(b), topicIdx+1), derived: true}
			}
			topicIdx++
			secs = append(secs, topicSection(id, seed, b))
		default:
			secs = append(secs, fixedSection(id, k, b, seeds))
		}
	}

	o := &outline.Outline{
		Sections:                secs,
		SuggestedTitle:          suggestedTitle(b),
		SuggestedDescription:    fmt.Sprintf("A %d-minute %s for %s: %s.", minutes, b.SessionType, strings.ToLower(b.Category), strings.TrimSpace(b.DesiredOutcome)),
		Difficulty:              difficulty(b.SessionType),
		RecommendedAudienceSize: audienceSize(b.SessionType),
	}
	fitDurations(o, minutes, true)
	o.Finalize()
	return o
}

// defaultSequence picks kinds for a session of the given length: opener,
// topics, one practice block, inspiration when it fits, closing.
func defaultSequence(st brief.SessionType, minutes, candidates int) []outline.Kind {
	practice := outline.KindExercise
	if st == brief.SessionEvent || st == brief.SessionWebinar {
		practice = outline.KindDiscussion
	}
	fixed := outline.DefaultDuration(outline.KindOpener) + outline.DefaultDuration(outline.KindClosing) + outline.DefaultDuration(practice)
	per := outline.DefaultDuration(outline.KindTopic)

	n := (minutes - fixed) / per
	if n > candidates {
		n = candidates
	}
	if n > 4 {
		n = 4
	}
	if n < 1 {
		n = 1
	}

	kinds := []outline.Kind{outline.KindOpener}
	for i := 0; i < n; i++ {
		kinds = append(kinds, outline.KindTopic)
	}
	kinds = append(kinds, practice)
	if fixed+n*per+outline.DefaultDuration(outline.KindInspiration) <= minutes {
		kinds = append(kinds, outline.KindInspiration)
	}
	return append(kinds, outline.KindClosing)
}

func topicSeeds(b brief.Brief, matches []matcher.Match, in prompt.Instruction) []topicSeed {
	var seeds []topicSeed
	reused := map[uint]bool{}
	for _, h := range in.Reuse {
		reused[h.ID] = true
	}
	for i := range matches {
		m := matches[i]
		if !reused[m.Topic.ID] {
			continue
		}
		seeds = append(seeds, topicSeed{name: m.Topic.Name, desc: m.Topic.Description, match: &m})
	}
	for _, name := range in.Originate {
		seeds = append(seeds, topicSeed{name: name})
	}
	if len(seeds) == 0 {
		seeds = append(seeds, topicSeed{name: "Foundations: " + shortOutcome(b), derived: true})
	}
	return seeds
}

func topicSection(id string, seed topicSeed, b brief.Brief) outline.Section {
	p := outline.TopicPayload{
		LearningObjectives: []string{
			"Explain the key ideas of " + seed.name,
			"Apply " + seed.name + " to: " + strings.TrimSpace(b.DesiredOutcome),
		},
		SuggestedActivities: []string{"Short input followed by pair reflection"},
		DeliveryGuidance:    "Keep input brief and connect every point back to the participants' own work.",
	}
	desc := seed.desc
	if m := seed.match; m != nil {
		if len(m.Topic.LearningOutcomes) > 0 {
			p.LearningObjectives = append([]string(nil), m.Topic.LearningOutcomes...)
		}
		p.MaterialsNeeded = append([]string(nil), m.Topic.MaterialsNeeded...)
		if m.Topic.TrainerNotes != "" {
			p.TrainerNotes = m.Topic.TrainerNotes
		}
		if m.Topic.DeliveryGuidance != "" {
			p.DeliveryGuidance = m.Topic.DeliveryGuidance
		}
		p.AssociatedTopic = &outline.TopicRef{ID: m.Topic.ID, Name: m.Topic.Name, MatchScore: m.MatchScore}
	}
	if strings.TrimSpace(desc) == "" {
		desc = fmt.Sprintf("Cover %s in the context of %s.", seed.name, strings.TrimSpace(b.Category))
		if pb := strings.TrimSpace(b.CurrentProblem); pb != "" {
			desc += " Address the current challenge: " + pb + "."
		}
	}
	return outline.Section{ID: id, Type: outline.KindTopic, Title: seed.name, Duration: outline.DefaultDuration(outline.KindTopic), Description: desc, Payload: p}
}

func fixedSection(id string, k outline.Kind, b brief.Brief, seeds []topicSeed) outline.Section {
	outcome := strings.TrimSpace(b.DesiredOutcome)
	problem := strings.TrimSpace(b.CurrentProblem)
	if problem == "" {
		problem = outcome
	}
	s := outline.Section{ID: id, Type: k, Duration: outline.DefaultDuration(k)}
	switch k {
	case outline.KindOpener:
		s.Title = "Welcome and objectives"
		s.Description = "Set the goal for the session: " + outcome + "."
		s.Payload = outline.OpenerPayload{OpenerType: "icebreaker", FacilitatorNotes: "Ask each participant what they want to leave with."}
	case outline.KindExercise:
		s.Title = "Practice: " + seeds[0].name
		s.Description = "Hands-on practice applying the material to a real situation."
		s.Payload = outline.ExercisePayload{
			ExerciseType: "group-practice",
			Instructions: "In small groups, pick a real example of \"" + problem + "\" and plan how to apply what was covered. Share back in two minutes per group.",
			GroupSize:    4,
		}
	case outline.KindDiscussion:
		s.Title = "Open discussion"
		s.Description = "Facilitated discussion connecting the content to participants' experience."
		s.Payload = outline.DiscussionPayload{
			DiscussionPrompts: []string{"Where do you see " + problem + " today?", "What would change if we achieved: " + outcome + "?"},
			Format:            "facilitated plenary",
		}
	case outline.KindInspiration:
		s.Title = "Inspiration"
		s.Description = "A short story or example of someone who achieved: " + outcome + "."
		s.Payload = outline.InspirationPayload{InspirationType: "story"}
	case outline.KindAssessment:
		s.Title = "Knowledge check"
		s.Description = "Quick check that the key points landed."
		qs := make([]string, 0, len(seeds))
		for _, sd := range seeds {
			qs = append(qs, "What is one way to apply "+sd.name+"?")
		}
		s.Payload = outline.AssessmentPayload{AssessmentType: "quiz", Questions: qs}
	case outline.KindClosing:
		s.Title = "Wrap-up and next steps"
		s.Description = "Summarize, commit to actions and close."
		takeaways := make([]string, 0, len(seeds))
		for _, sd := range seeds {
			takeaways = append(takeaways, sd.name)
		}
		s.Payload = outline.ClosingPayload{
			KeyTakeaways: takeaways,
			ActionItems:  []string{"Commit to one action toward: " + outcome},
			NextSteps:    []string{"Review progress with your manager within two weeks"},
		}
	default:
		s.Title = "Custom segment"
		s.Description = "Facilitator-defined segment."
		s.Payload = outline.CustomPayload{}
	}
	return s
}

// flexible kinds absorb time differences first.
var flexible = map[outline.Kind]bool{
	outline.KindTopic:      true,
	outline.KindExercise:   true,
	outline.KindDiscussion: true,
	outline.KindAssessment: true,
	outline.KindCustom:     true,
}

// dropOrder lists the kinds removed first when a session is too short.
var dropOrder = []outline.Kind{outline.KindInspiration, outline.KindAssessment, outline.KindDiscussion, outline.KindCustom, outline.KindExercise}

// fitDurations adjusts section durations so they add up to minutes, keeping
// every section at 5 minutes or more. With allowDrop, optional sections are
// removed when even minimum durations do not fit.
func fitDurations(o *outline.Outline, minutes int, allowDrop bool) {
	if len(o.Sections) == 0 || minutes <= 0 {
		return
	}
	for i := range o.Sections {
		if o.Sections[i].Duration < minSectionMinutes {
			o.Sections[i].Duration = minSectionMinutes
		}
	}
	for allowDrop && len(o.Sections)*minSectionMinutes > minutes {
		if !dropOne(o) {
			break
		}
	}

	idx := make([]int, 0, len(o.Sections))
	for i, s := range o.Sections {
		if flexible[s.Type] {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		for i := range o.Sections {
			idx = append(idx, i)
		}
	}

	diff := minutes - o.Sum()
	for diff > 0 {
		for _, i := range idx {
			if diff == 0 {
				break
			}
			o.Sections[i].Duration++
			diff--
		}
	}
	// shrink flexible sections first, then everything
	for _, pool := range [][]int{idx, allIndexes(o)} {
		for diff < 0 {
			moved := false
			for _, i := range pool {
				if diff == 0 {
					break
				}
				if o.Sections[i].Duration > minSectionMinutes {
					o.Sections[i].Duration--
					diff++
					moved = true
				}
			}
			if !moved {
				break
			}
		}
	}
	o.RecomputeDuration()
}

func allIndexes(o *outline.Outline) []int {
	out := make([]int, len(o.Sections))
	for i := range out {
		out[i] = i
	}
	return out
}

// dropOne removes the last section of the first droppable kind, or the last
// topic when more than one remains.
func dropOne(o *outline.Outline) bool {
	for _, k := range dropOrder {
		for i := len(o.Sections) - 1; i >= 0; i-- {
			if o.Sections[i].Type == k {
				o.Sections = append(o.Sections[:i], o.Sections[i+1:]...)
				return true
			}
		}
	}
	if len(o.TopicSections()) > 1 {
		for i := len(o.Sections) - 1; i >= 0; i-- {
			if o.Sections[i].Type == outline.KindTopic {
				o.Sections = append(o.Sections[:i], o.Sections[i+1:]...)
				return true
			}
		}
	}
	return false
}

func shortOutcome(b brief.Brief) string {
	s := strings.TrimSpace(b.DesiredOutcome)
	if r := []rune(s); len(r) > 60 {
		s = strings.TrimSpace(string(r[:60])) + "..."
	}
	return s
}

func suggestedTitle(b brief.Brief) string {
	cat := strings.TrimSpace(b.Category)
	st := string(b.SessionType)
	if st != "" {
		st = strings.ToUpper(st[:1]) + st[1:]
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s: %s", cat, st, shortOutcome(b)))
}

func difficulty(st brief.SessionType) string {
	switch st {
	case brief.SessionWorkshop, brief.SessionTraining:
		return "intermediate"
	}
	return "introductory"
}

func audienceSize(st brief.SessionType) string {
	switch st {
	case brief.SessionWorkshop:
		return "8-20"
	case brief.SessionTraining:
		return "10-25"
	case brief.SessionWebinar:
		return "20-200"
	}
	return "30-150"
}
