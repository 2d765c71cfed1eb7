package ai

import (
	"context"

	"vociary/models"
)

// StubTranscript is returned by Stub for every recording.
const StubTranscript = "Today was a really long day. I had a big presentation, and it went much better than I expected. " +
	"I felt a lot of relief afterwards, and I celebrated with a nice cup of tea."

// Stub answers without network access. Its output is deterministic.
type Stub struct{}

func (Stub) Transcribe(context.Context, models.Audio) (string, error) {
	return StubTranscript, nil
}

func (Stub) Complete(_ context.Context, _, userPrompt string) (string, error) {
	excerpt := []rune(userPrompt)
	if len(excerpt) > 200 {
		excerpt = excerpt[:200]
	}
	return "[[MOCK OUTPUT]]: The refined entry should be:\n\n" + string(excerpt) + "...", nil
}
