package outline

// TypeInfo describes one section kind: its default length and which fields a
// section of that kind must (Required) or may (Optional) carry.
type TypeInfo struct {
	Kind            Kind     `json:"kind"`
	Label           string   `json:"label"`
	DefaultDuration int      `json:"defaultDuration"`
	Required        []string `json:"required"`
	Optional        []string `json:"optional"`
}

var kindOrder = []Kind{
	KindOpener, KindTopic, KindExercise, KindDiscussion,
	KindInspiration, KindAssessment, KindClosing, KindCustom,
}

var registry = map[Kind]TypeInfo{
	KindOpener: {
		Kind: KindOpener, Label: "Opener", DefaultDuration: 10,
		Required: []string{"title", "duration"},
		Optional: []string{"description", "openerType", "facilitatorNotes"},
	},
	KindTopic: {
		Kind: KindTopic, Label: "Topic", DefaultDuration: 25,
		Required: []string{"title", "duration", "description"},
		Optional: []string{
			"learningObjectives", "suggestedActivities", "materialsNeeded", "trainerNotes",
			"deliveryGuidance", "associatedTopic", "trainerId", "exerciseType", "exerciseInstructions",
		},
	},
	KindExercise: {
		Kind: KindExercise, Label: "Exercise", DefaultDuration: 20,
		Required: []string{"title", "duration", "instructions"},
		Optional: []string{"description", "exerciseType", "groupSize", "materialsNeeded"},
	},
	KindDiscussion: {
		Kind: KindDiscussion, Label: "Discussion", DefaultDuration: 15,
		Required: []string{"title", "duration"},
		Optional: []string{"description", "discussionPrompts", "format"},
	},
	KindInspiration: {
		Kind: KindInspiration, Label: "Inspiration", DefaultDuration: 10,
		Required: []string{"title", "duration"},
		Optional: []string{"description", "inspirationType", "mediaUrl", "speaker"},
	},
	KindAssessment: {
		Kind: KindAssessment, Label: "Assessment", DefaultDuration: 15,
		Required: []string{"title", "duration"},
		Optional: []string{"description", "assessmentType", "questions"},
	},
	KindClosing: {
		Kind: KindClosing, Label: "Closing", DefaultDuration: 10,
		Required: []string{"title", "duration"},
		Optional: []string{"description", "keyTakeaways", "actionItems", "nextSteps"},
	},
	KindCustom: {
		Kind: KindCustom, Label: "Custom", DefaultDuration: 15,
		Required: []string{"title", "duration"},
		Optional: []string{"description", "fields"},
	},
}

// Lookup returns the registry entry for k.
func Lookup(k Kind) (TypeInfo, bool) {
	ti, ok := registry[k]
	return ti, ok
}

// Kinds returns every registered kind in catalog order.
func Kinds() []Kind {
	out := make([]Kind, len(kindOrder))
	copy(out, kindOrder)
	return out
}

// Catalog returns the registry entries in catalog order.
func Catalog() []TypeInfo {
	out := make([]TypeInfo, 0, len(kindOrder))
	for _, k := range kindOrder {
		out = append(out, registry[k])
	}
	return out
}

// DefaultDuration is the registry default for k, or 0 for unknown kinds.
func DefaultDuration(k Kind) int {
	return registry[k].DefaultDuration
}
