package agent

import (
	"testing"
	"time"

	"github.com/sociofi/weather-agent/internal/ai"
	"github.com/sociofi/weather-agent/internal/session"
)

func TestAnnotate(t *testing.T) {
	ts := time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC)
	got := Annotate("Rahim", "Dhaka, Bangladesh", ts, "Will it rain tomorrow?")
	want := "User: Rahim, Home Location: Dhaka, Bangladesh, Current Time: 2025-06-10T14:30:00Z\nQuery: Will it rain tomorrow?"
	if got != want {
		t.Fatalf("annotation mismatch:\n got: %q\nwant: %q", got, want)
	}
}

func TestBuildTranscript(t *testing.T) {
	user := UserContext{Name: "Rahim", Location: "Dhaka, Bangladesh"}
	t1 := time.Date(2025, 6, 9, 9, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 6, 9, 9, 0, 5, 0, time.UTC)
	now := time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC)

	history := []session.Message{
		{Role: session.RoleUser, Content: "weather in Sylhet?", Location: "Sylhet, Bangladesh", CreatedAt: t1},
		{Role: session.RoleAssistant, Content: "Sunny, 30C.", Location: "Sylhet, Bangladesh", CreatedAt: t2},
	}

	out := BuildTranscript(user, history, "and tomorrow?", now)
	if len(out) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(out))
	}
	if out[0].Role != ai.RoleUser || out[1].Role != ai.RoleAssistant || out[2].Role != ai.RoleUser {
		t.Fatalf("unexpected roles: %s %s %s", out[0].Role, out[1].Role, out[2].Role)
	}

	// stored turns keep their own location and timestamp
	if want := Annotate("Rahim", "Sylhet, Bangladesh", t1, "weather in Sylhet?"); out[0].Content != want {
		t.Fatalf("first turn mismatch:\n got: %q\nwant: %q", out[0].Content, want)
	}
	// the fresh turn carries the user's current location and now
	if want := Annotate("Rahim", "Dhaka, Bangladesh", now, "and tomorrow?"); out[2].Content != want {
		t.Fatalf("fresh turn mismatch:\n got: %q\nwant: %q", out[2].Content, want)
	}
}
