package serviceImp

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/advisorpages/trainingBuilder-sub002/pkg/outline"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/topic/matcher"
)

// Blend merges a generated outline into the baseline. The baseline keeps its
// kind sequence and durations; the first round(w*m) of the m baseline
// sections that have a same-kind generated counterpart take the generated
// content. From w >= 0.5 on, generated sections of kinds the baseline lacks
// are inserted before the closing. Durations are refitted to minutes.
func Blend(gen, base *outline.Outline, w float64, minutes int) *outline.Outline {
	out := base.Clone()
	if gen == nil || w <= 0 {
		return out
	}
	if w > 1 {
		w = 1
	}

	byKind := map[outline.Kind][]outline.Section{}
	for _, s := range gen.Sections {
		byKind[s.Type] = append(byKind[s.Type], s)
	}

	used := map[outline.Kind]int{}
	var eligible []int
	pair := map[int]outline.Section{}
	for i, s := range out.Sections {
		cands := byKind[s.Type]
		if used[s.Type] < len(cands) {
			pair[i] = cands[used[s.Type]]
			used[s.Type]++
			eligible = append(eligible, i)
		}
	}

	n := int(math.Round(w * float64(len(eligible))))
	for _, i := range eligible[:n] {
		out.Sections[i] = adopt(out.Sections[i], pair[i])
	}

	if w >= 0.5 {
		var extra []outline.Section
		ids := map[string]bool{}
		for _, s := range out.Sections {
			ids[s.ID] = true
		}
		for _, s := range gen.Sections {
			if out.HasKind(s.Type) {
				continue
			}
			if s.ID == "" || ids[s.ID] {
				s.ID = uuid.NewString()
			}
			ids[s.ID] = true
			extra = append(extra, s)
		}
		// keep only the extras the session can hold at minimum length
		if minutes > 0 {
			room := minutes/minSectionMinutes - len(out.Sections)
			if room < 0 {
				room = 0
			}
			if len(extra) > room {
				extra = extra[:room]
			}
		}
		if len(extra) > 0 {
			out.Sections = insertBeforeClosing(out.Sections, extra)
		}
	}

	if gen.SuggestedTitle != "" && w >= 0.5 {
		out.SuggestedTitle = gen.SuggestedTitle
	}
	if gen.SuggestedDescription != "" && w >= 0.5 {
		out.SuggestedDescription = gen.SuggestedDescription
	}
	fitDurations(out, minutes, false)
	out.Finalize()
	return out
}

// adopt takes the generated content for a baseline slot, keeping the slot's
// id and duration. A stored topic link survives when the generated section
// still names the same topic.
func adopt(slot, gen outline.Section) outline.Section {
	res := gen
	res.ID = slot.ID
	res.Duration = slot.Duration
	if res.Payload == nil {
		res.Payload = slot.Payload
	}
	if bt, gt := slot.Topic(), gen.Topic(); bt != nil && gt != nil && bt.AssociatedTopic != nil && gt.AssociatedTopic == nil {
		if matcher.NormalizeName(gen.Title) == matcher.NormalizeName(slot.Title) {
			gt.AssociatedTopic = bt.AssociatedTopic
			res = res.WithTopic(*gt)
		}
	}
	if res.Description == "" {
		res.Description = slot.Description
	}
	return res
}

func insertBeforeClosing(secs, extra []outline.Section) []outline.Section {
	at := len(secs)
	for i := len(secs) - 1; i >= 0; i-- {
		if secs[i].Type == outline.KindClosing {
			at = i
			break
		}
	}
	out := make([]outline.Section, 0, len(secs)+len(extra))
	out = append(out, secs[:at]...)
	out = append(out, extra...)
	return append(out, secs[at:]...)
}

var errInvalidOutput = errors.New("generated outline is invalid")

// normalizeGenerated repairs what a backend commonly gets loosely wrong
// (missing ids, positions, non-positive durations) and rejects the rest.
func normalizeGenerated(o *outline.Outline) (*outline.Outline, error) {
	if o == nil || len(o.Sections) == 0 {
		return nil, fmt.Errorf("%w: no sections", errInvalidOutput)
	}
	o = o.Clone()
	if positionsUsable(o) {
		o.SortByPosition()
	}
	seen := map[string]bool{}
	for i := range o.Sections {
		s := &o.Sections[i]
		if s.ID == "" || seen[s.ID] {
			s.ID = uuid.NewString()
		}
		seen[s.ID] = true
		if s.Duration <= 0 {
			s.Duration = outline.DefaultDuration(s.Type)
		}
	}
	o.Finalize()
	if errs := outline.Validate(o); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", errInvalidOutput, errs[0].Error())
	}
	return o, nil
}

func positionsUsable(o *outline.Outline) bool {
	for _, s := range o.Sections {
		if s.Position <= 0 {
			return false
		}
	}
	return true
}
