package agent

import (
	"fmt"
	"time"

	"github.com/sociofi/weather-agent/internal/ai"
	"github.com/sociofi/weather-agent/internal/session"
)

// UserContext is the speaker identity attached to every transcript turn.
type UserContext struct {
	Name     string
	Location string
}

// Annotate prefixes a turn with speaker name, home location, and the
// wall-clock time of the original utterance. The annotation lets the model
// resolve relative dates ("yesterday", "two days before that") without
// re-deriving them from position in the transcript.
func Annotate(name, location string, ts time.Time, content string) string {
	return fmt.Sprintf("User: %s, Home Location: %s, Current Time: %s\nQuery: %s",
		name, location, ts.UTC().Format(time.RFC3339), content)
}

// BuildTranscript maps stored session messages plus the new query into the
// model transcript. Every stored turn keeps the location and timestamp it
// had when originally uttered.
func BuildTranscript(user UserContext, history []session.Message, queryText string, now time.Time) []ai.Message {
	out := make([]ai.Message, 0, len(history)+1)
	for _, m := range history {
		out = append(out, ai.Message{
			Role:    string(m.Role),
			Content: Annotate(user.Name, m.Location, m.CreatedAt, m.Content),
		})
	}
	out = append(out, ai.Message{
		Role:    ai.RoleUser,
		Content: Annotate(user.Name, user.Location, now, queryText),
	})
	return out
}
