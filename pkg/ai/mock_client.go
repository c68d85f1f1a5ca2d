// pkg/ai/mock_client.go

package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/advisorpages/trainingBuilder-sub002/pkg/outline"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/prompt"
)

type mockClient struct{}

// NewMock returns a completer that builds a predictable outline from the
// instruction and snippets without calling out. Used for local demos.
func NewMock() Completer { return &mockClient{} }

func (m *mockClient) CompleteOutline(ctx context.Context, in prompt.Instruction, snippets []Snippet) (*outline.Outline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(in.Reuse)+len(in.Originate))
	for _, t := range in.Reuse {
		names = append(names, t.Name)
	}
	names = append(names, in.Originate...)
	if len(names) == 0 {
		names = append(names, in.Objective)
	}
	if len(names) > 3 {
		names = names[:3]
	}

	secs := []outline.Section{{
		ID: "mock-opener", Type: outline.KindOpener, Title: "Why this matters",
		Description: "Frame the session around: " + in.Objective,
		Payload:     outline.OpenerPayload{OpenerType: "question"},
	}}
	for i, n := range names {
		desc := "Explore " + n + "."
		if i < len(snippets) {
			desc = fmt.Sprintf("%s Drawing on %q: %s", desc, snippets[i].Title, clip(snippets[i].Text, 160))
		}
		secs = append(secs, outline.Section{
			ID: fmt.Sprintf("mock-topic-%d", i+1), Type: outline.KindTopic, Title: n, Description: desc,
			Payload: outline.TopicPayload{LearningObjectives: []string{"Apply " + n + " on the job"}},
		})
	}
	secs = append(secs,
		outline.Section{
			ID: "mock-discussion", Type: outline.KindDiscussion, Title: "Group discussion",
			Description: "Connect the material to the current problem.",
			Payload:     outline.DiscussionPayload{DiscussionPrompts: []string{"Where do you see this today?"}, Format: "small groups"},
		},
		outline.Section{
			ID: "mock-closing", Type: outline.KindClosing, Title: "Commitments",
			Description: "Agree on next steps.",
			Payload:     outline.ClosingPayload{ActionItems: []string{"Pick one practice to try this week"}},
		},
	)

	per := in.DurationMinutes / len(secs)
	if per < 5 {
		per = 5
	}
	for i := range secs {
		secs[i].Duration = per
	}
	secs[len(secs)-1].Duration += in.DurationMinutes - per*len(secs)
	if secs[len(secs)-1].Duration < 5 {
		secs[len(secs)-1].Duration = 5
	}

	o := &outline.Outline{
		Sections:       secs,
		SuggestedTitle: strings.TrimSpace(in.Category + ": " + in.Objective),
		GeneratedAt:    time.Now().UTC(),
	}
	o.Finalize()
	return o, nil
}

func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}
