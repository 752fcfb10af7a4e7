package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sociofi/weather-agent/internal/ai"
)

// scriptedProvider replays a fixed sequence of responses and records every
// request transcript it sees.
type scriptedProvider struct {
	responses []*ai.ChatResponse
	err       error
	calls     [][]ai.Message
}

func (p *scriptedProvider) Chat(ctx context.Context, msgs []ai.Message, tools []ai.ToolSpec) (*ai.ChatResponse, error) {
	snap := make([]ai.Message, len(msgs))
	copy(snap, msgs)
	p.calls = append(p.calls, snap)
	if p.err != nil {
		return nil, p.err
	}
	if len(p.calls) > len(p.responses) {
		return nil, fmt.Errorf("no scripted response for call %d", len(p.calls))
	}
	return p.responses[len(p.calls)-1], nil
}

type fakeRunner struct {
	results map[string]string
	errs    map[string]error
	ran     []string
}

func (r *fakeRunner) Specs() []ai.ToolSpec {
	return []ai.ToolSpec{{Name: "currentWeather"}, {Name: "forecastWeather"}}
}

func (r *fakeRunner) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	r.ran = append(r.ran, name)
	if err, ok := r.errs[name]; ok {
		return "", err
	}
	out, ok := r.results[name]
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", name)
	}
	return out, nil
}

func answer(text string) *ai.ChatResponse {
	return &ai.ChatResponse{Message: ai.Message{Role: ai.RoleAssistant, Content: text}}
}

func toolRequest(calls ...ai.ToolCall) *ai.ChatResponse {
	return &ai.ChatResponse{Message: ai.Message{Role: ai.RoleAssistant, ToolCalls: calls}}
}

func TestRun_DirectAnswer(t *testing.T) {
	p := &scriptedProvider{responses: []*ai.ChatResponse{answer("Hello! Ask me about the weather.")}}
	r := &fakeRunner{}
	loop := New(p, r, 6, time.Second)

	got, err := loop.Run(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hi"}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got != "Hello! Ask me about the weather." {
		t.Fatalf("unexpected answer: %q", got)
	}
	if len(r.ran) != 0 {
		t.Fatalf("no tools should have run, got %v", r.ran)
	}
	if p.calls[0][0].Role != ai.RoleSystem {
		t.Fatal("transcript must start with the system prompt")
	}
}

func TestRun_ToolCallThenAnswer(t *testing.T) {
	p := &scriptedProvider{responses: []*ai.ChatResponse{
		toolRequest(ai.ToolCall{ID: "c1", Name: "currentWeather", Arguments: map[string]any{"city": "Dhaka"}}),
		answer("It is 31C in Dhaka."),
	}}
	r := &fakeRunner{results: map[string]string{"currentWeather": `{"temp":31}`}}
	loop := New(p, r, 6, time.Second)

	got, err := loop.Run(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "weather in Dhaka?"}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got != "It is 31C in Dhaka." {
		t.Fatalf("unexpected answer: %q", got)
	}
	if len(r.ran) != 1 || r.ran[0] != "currentWeather" {
		t.Fatalf("expected one currentWeather run, got %v", r.ran)
	}

	// the second request must carry the assistant tool request and the
	// observation, in that order
	second := p.calls[1]
	n := len(second)
	if n < 2 {
		t.Fatalf("second transcript too short: %d", n)
	}
	if len(second[n-2].ToolCalls) != 1 {
		t.Fatal("assistant tool request missing from transcript")
	}
	obs := second[n-1]
	if obs.Role != ai.RoleTool || obs.ToolCallID != "c1" || obs.Content != `{"temp":31}` {
		t.Fatalf("unexpected observation: %+v", obs)
	}
}

func TestRun_ParallelCallsKeepRequestOrder(t *testing.T) {
	p := &scriptedProvider{responses: []*ai.ChatResponse{
		toolRequest(
			ai.ToolCall{ID: "c1", Name: "currentWeather", Arguments: map[string]any{"city": "Dhaka"}},
			ai.ToolCall{ID: "c2", Name: "forecastWeather", Arguments: map[string]any{"city": "Dhaka"}},
		),
		answer("done"),
	}}
	r := &fakeRunner{results: map[string]string{
		"currentWeather":  "now",
		"forecastWeather": "later",
	}}
	loop := New(p, r, 6, time.Second)

	if _, err := loop.Run(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "q"}}); err != nil {
		t.Fatalf("run: %v", err)
	}

	second := p.calls[1]
	n := len(second)
	if second[n-2].ToolCallID != "c1" || second[n-2].Content != "now" {
		t.Fatalf("first observation out of order: %+v", second[n-2])
	}
	if second[n-1].ToolCallID != "c2" || second[n-1].Content != "later" {
		t.Fatalf("second observation out of order: %+v", second[n-1])
	}
}

func TestRun_ToolFailureBecomesObservation(t *testing.T) {
	p := &scriptedProvider{responses: []*ai.ChatResponse{
		toolRequest(ai.ToolCall{ID: "c1", Name: "currentWeather", Arguments: map[string]any{"city": "Dhaka"}}),
		answer("Sorry, I could not fetch the current weather."),
	}}
	r := &fakeRunner{errs: map[string]error{"currentWeather": errors.New("upstream 500")}}
	loop := New(p, r, 6, time.Second)

	got, err := loop.Run(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "q"}})
	if err != nil {
		t.Fatalf("tool failure must not fail the loop: %v", err)
	}
	if got == "" {
		t.Fatal("expected a non-empty terminal answer")
	}

	second := p.calls[1]
	obs := second[len(second)-1]
	if obs.Role != ai.RoleTool {
		t.Fatalf("expected tool observation, got role %s", obs.Role)
	}
	if !strings.Contains(obs.Content, "currentWeather failed") {
		t.Fatalf("failure not surfaced to the model: %q", obs.Content)
	}
}

func TestRun_UnknownToolFailsClosed(t *testing.T) {
	p := &scriptedProvider{responses: []*ai.ChatResponse{
		toolRequest(ai.ToolCall{ID: "c1", Name: "launchRockets", Arguments: map[string]any{}}),
		answer("I can only look up weather."),
	}}
	r := &fakeRunner{}
	loop := New(p, r, 6, time.Second)

	if _, err := loop.Run(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "q"}}); err != nil {
		t.Fatalf("run: %v", err)
	}

	second := p.calls[1]
	obs := second[len(second)-1]
	if !strings.Contains(obs.Content, "launchRockets failed") {
		t.Fatalf("unknown tool must produce a failure observation, got %q", obs.Content)
	}
}

func TestRun_StepCap(t *testing.T) {
	// four Deciding steps available; the model never stops asking for tools
	reqs := make([]*ai.ChatResponse, 4)
	for i := range reqs {
		reqs[i] = toolRequest(ai.ToolCall{ID: fmt.Sprintf("c%d", i), Name: "currentWeather", Arguments: map[string]any{"city": "Dhaka"}})
	}
	p := &scriptedProvider{responses: reqs}
	r := &fakeRunner{results: map[string]string{"currentWeather": "ok"}}
	loop := New(p, r, 4, time.Second)

	got, err := loop.Run(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "q"}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got != ExhaustedAnswer {
		t.Fatalf("expected exhausted answer, got %q", got)
	}
	if len(p.calls) != 4 {
		t.Fatalf("expected exactly 4 model calls, got %d", len(p.calls))
	}
}

func TestRun_ModelFailure(t *testing.T) {
	p := &scriptedProvider{err: errors.New("connection refused")}
	loop := New(p, &fakeRunner{}, 6, time.Second)

	_, err := loop.Run(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "q"}})
	if !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}
