package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"vociary/models"
)

const (
	initialEntrySystem = "You are an empathetic, reflective journal AI. Your task is to analyze the user's raw transcript " +
		"of their day and synthesize it into a coherent, personal, first-person diary entry. " +
		"Focus on emotions, key events, and future tasks. Maintain a warm, thoughtful tone."

	integrateSystem = "The user has added new reflections to an existing diary entry for today. " +
		"Your task is to seamlessly integrate the 'New Content' into the 'Existing Entry' " +
		"to create a single, cohesive, updated diary entry. Do not lose any information " +
		"from the existing entry, only enhance and update it with the new content."

	refineSystem = "You are an expert editor for a personal diary. Your goal is to modify the 'Current Entry' " +
		"based on the user's specific instruction. " +
		"The user has highlighted a specific part of the text ('Selected Text') and provided an " +
		"instruction ('User Instruction/Comment') on how to change it. " +
		"You must rewrite the entry to incorporate this change naturally. " +
		"Maintain the original voice and context. Return ONLY the fully updated entry text."

	reflectionSystem = "You are an insightful personal growth assistant. Analyze the user's diary entry and " +
		"extract structured insights. You must return ONLY a valid JSON object with the following keys:\n" +
		"- 'mood_score': an integer from 1 (lowest) to 10 (highest).\n" +
		"- 'mood_emoji': a single emoji representing the dominant mood.\n" +
		"- 'takeaways': a list of 3 brief, bullet-point style takeaways/observations.\n" +
		"- 'action_item': a single, concrete, actionable step for tomorrow based on the entry.\n\n" +
		"Do not include any markdown formatting (like ```json), just the raw JSON string."
)

// Assistant wraps a Generator with the journal's prompt templates.
type Assistant struct {
	gen Generator
}

func NewAssistant(gen Generator) *Assistant {
	return &Assistant{gen: gen}
}

// DraftEntry turns a raw transcript into a first-person diary entry.
func (a *Assistant) DraftEntry(ctx context.Context, transcript string) (string, error) {
	return a.gen.Complete(ctx, initialEntrySystem,
		"Raw Transcript to be transformed into a diary entry:\n\n"+transcript)
}

// IntegrateContent merges a new transcript into an existing entry of the same day.
func (a *Assistant) IntegrateContent(ctx context.Context, existing, transcript string) (string, error) {
	return a.gen.Complete(ctx, integrateSystem, fmt.Sprintf(
		"Existing Entry:\n---\n%s\n---\n\nNew Content to Integrate:\n---\n%s\n---",
		existing, transcript))
}

// Refine rewrites content so that the selected passage follows the instruction.
func (a *Assistant) Refine(ctx context.Context, content, selected, instruction string) (string, error) {
	return a.gen.Complete(ctx, refineSystem, fmt.Sprintf(
		"Current Entry:\n---\n%s\n---\n\nSelected Text (to be changed): \"%s\"\nUser Instruction/Comment: \"%s\"\n\nPlease provide the updated full entry:",
		content, selected, instruction))
}

// Reflect derives structured insight from an entry. Unusable model output
// produces FallbackInsight rather than an error; only a failed call is an error.
func (a *Assistant) Reflect(ctx context.Context, content string) (models.Insight, error) {
	raw, err := a.gen.Complete(ctx, reflectionSystem, "Diary Entry to Analyze:\n\n"+content)
	if err != nil {
		return models.Insight{}, err
	}
	insight, ok := ParseInsight(raw)
	if !ok {
		return FallbackInsight(), nil
	}
	return insight, nil
}

// FallbackInsight is the fixed insight returned when the model output cannot be parsed.
func FallbackInsight() models.Insight {
	return models.Insight{
		MoodScore:  5,
		MoodEmoji:  "😐",
		Takeaways:  []string{"Could not parse insights.", "Please try again later.", "Keep journaling!"},
		ActionItem: "Reflect on your day manually.",
		Fallback:   true,
	}
}

// ParseInsight decodes model output, tolerating ```json fences.
// It reports false when the text is not JSON or does not have the required shape.
func ParseInsight(raw string) (models.Insight, bool) {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.TrimSpace(strings.ReplaceAll(cleaned, "```", ""))

	var in models.Insight
	if err := json.Unmarshal([]byte(cleaned), &in); err != nil {
		return models.Insight{}, false
	}
	if in.MoodScore < 1 || in.MoodScore > 10 ||
		strings.TrimSpace(in.MoodEmoji) == "" || utf8.RuneCountInString(in.MoodEmoji) > 8 ||
		len(in.Takeaways) != 3 ||
		strings.TrimSpace(in.ActionItem) == "" {
		return models.Insight{}, false
	}
	in.Fallback = false
	return in, true
}
