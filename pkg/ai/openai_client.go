// pkg/ai/openai_client.go

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/advisorpages/trainingBuilder-sub002/pkg/outline"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/prompt"
)

const maxSnippetChars = 6000

type openAI struct {
	client openai.Client
	model  string
}

// NewOpenAI talks to any OpenAI-compatible chat completions endpoint. Retries
// are left to the caller, which owns the attempt budget.
func NewOpenAI(baseURL, key, model string) Completer {
	opts := []option.RequestOption{option.WithAPIKey(key), option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(baseURL, "/")+"/"))
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &openAI{client: openai.NewClient(opts...), model: model}
}

func (c *openAI) CompleteOutline(ctx context.Context, in prompt.Instruction, snippets []Snippet) (*outline.Outline, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt(in)),
			openai.UserMessage(userPrompt(in, snippets)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		Temperature: openai.Float(0.4),
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return nil, ErrEmptyResponse
	}
	return DecodeOutline(content)
}

// DecodeOutline reads a flexible outline from model output. Both a bare
// outline object and one wrapped in {"outline": ...} are accepted.
func DecodeOutline(raw string) (*outline.Outline, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var o outline.Outline
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		return nil, fmt.Errorf("decode outline: %w", err)
	}
	if len(o.Sections) == 0 {
		var wrapped struct {
			Outline *outline.Outline `json:"outline"`
		}
		if err := json.Unmarshal([]byte(raw), &wrapped); err == nil && wrapped.Outline != nil {
			o = *wrapped.Outline
		}
	}
	if len(o.Sections) == 0 {
		return nil, fmt.Errorf("decode outline: no sections")
	}
	return &o, nil
}

func systemPrompt(in prompt.Instruction) string {
	kinds := make([]string, 0, len(outline.Kinds()))
	for _, k := range outline.Kinds() {
		kinds = append(kinds, string(k))
	}
	return fmt.Sprintf(`You design training session outlines. Tone: %s. %s
Reply ONLY with a JSON object: {"suggestedTitle": "...", "suggestedDescription": "...", "difficulty": "...", "recommendedAudienceSize": "...", "sections": [...]}.
Each section has "type" (one of %s), "title", "duration" (minutes), "description" and type specific fields:
topic: learningObjectives[], suggestedActivities[], materialsNeeded[], trainerNotes, deliveryGuidance;
exercise: instructions, exerciseType, groupSize; discussion: discussionPrompts[], format;
inspiration: inspirationType, mediaUrl, speaker; assessment: assessmentType, questions[];
closing: keyTakeaways[], actionItems[], nextSteps[]; opener: openerType, facilitatorNotes.
Section durations must add up to the session length.`,
		in.Tone.Name, in.Tone.Style, strings.Join(kinds, ", "))
}

func userPrompt(in prompt.Instruction, snippets []Snippet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "OBJECTIVE: %s\n", in.Objective)
	fmt.Fprintf(&b, "CATEGORY: %s\nSESSION TYPE: %s\n", in.Category, in.SessionType)
	if in.CurrentProblem != "" {
		fmt.Fprintf(&b, "CURRENT PROBLEM: %s\n", in.CurrentProblem)
	}
	fmt.Fprintf(&b, "LENGTH: %d minutes, about %d sections. PACING: %s\n", in.DurationMinutes, in.TargetSections, in.Pacing)
	for _, c := range in.AudienceConstraints {
		fmt.Fprintf(&b, "AUDIENCE: %s\n", c)
	}
	if len(in.Reuse) > 0 {
		b.WriteString("REUSE THESE EXISTING TOPICS (keep their names):\n")
		for _, t := range in.Reuse {
			fmt.Fprintf(&b, "- %s\n", t.Name)
		}
	}
	if len(in.Originate) > 0 {
		b.WriteString("ADD NEW TOPICS FOR:\n")
		for _, t := range in.Originate {
			fmt.Fprintf(&b, "- %s\n", t)
		}
	}
	if in.DataEmphasis > 1 {
		b.WriteString("Emphasize data and evidence.\n")
	}
	if len(snippets) > 0 {
		b.WriteString("\nREFERENCE MATERIAL:\n")
		used := 0
		for _, s := range snippets {
			if used > maxSnippetChars {
				break
			}
			fmt.Fprintf(&b, "---\n[%s] %s\n%s\n", s.SourceID, s.Title, s.Text)
			used += len(s.Text)
		}
	}
	return b.String()
}
