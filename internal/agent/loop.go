// Package agent implements the tool-calling loop that turns a transcript
// into a final answer.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sociofi/weather-agent/internal/ai"
)

// ErrModelUnavailable is returned when the language model backend errors or
// is unreachable. Callers degrade to a static fallback answer.
var ErrModelUnavailable = errors.New("model unavailable")

// ExhaustedAnswer is returned when the model keeps requesting tools past the
// step cap. The loop terminates with this degraded reply instead of hanging.
const ExhaustedAnswer = "Sorry, Weather AI could not finish looking that up right now. Please try again later."

// ToolRunner executes model-requested tools against a closed registry.
type ToolRunner interface {
	Specs() []ai.ToolSpec
	Execute(ctx context.Context, name string, args map[string]any) (string, error)
}

// Loop alternates between two states: Deciding (the model either answers or
// requests tools) and Acting (requested tools run, observations are appended).
// A response without tool calls is terminal; its text is the answer.
type Loop struct {
	provider    ai.Provider
	tools       ToolRunner
	maxSteps    int
	toolTimeout time.Duration
}

func New(provider ai.Provider, tools ToolRunner, maxSteps int, toolTimeout time.Duration) *Loop {
	if maxSteps <= 0 {
		maxSteps = 6
	}
	if toolTimeout <= 0 {
		toolTimeout = 15 * time.Second
	}
	return &Loop{
		provider:    provider,
		tools:       tools,
		maxSteps:    maxSteps,
		toolTimeout: toolTimeout,
	}
}

// Run drives the loop to a terminal answer. Tool failures become
// observations the model can apologize for or retry around; only model
// failures surface as errors.
func (l *Loop) Run(ctx context.Context, transcript []ai.Message) (string, error) {
	msgs := make([]ai.Message, 0, len(transcript)+1)
	msgs = append(msgs, ai.Message{Role: ai.RoleSystem, Content: systemPrompt})
	msgs = append(msgs, transcript...)

	specs := l.tools.Specs()

	for step := 0; step < l.maxSteps; step++ {
		resp, err := l.provider.Chat(ctx, msgs, specs)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
		}

		if len(resp.Message.ToolCalls) == 0 {
			return resp.Message.Content, nil
		}

		msgs = append(msgs, resp.Message)
		msgs = append(msgs, l.runTools(ctx, resp.Message.ToolCalls)...)
	}

	log.Printf("[agent] step cap reached steps=%d", l.maxSteps)
	return ExhaustedAnswer, nil
}

// runTools executes all calls requested in one Deciding step. The calls are
// independent reads, so they run concurrently; observations are appended in
// request order once all complete.
func (l *Loop) runTools(ctx context.Context, calls []ai.ToolCall) []ai.Message {
	results := make([]string, len(calls))

	var wg sync.WaitGroup
	for i, tc := range calls {
		wg.Add(1)
		go func(i int, tc ai.ToolCall) {
			defer wg.Done()

			cctx, cancel := context.WithTimeout(ctx, l.toolTimeout)
			defer cancel()

			out, err := l.tools.Execute(cctx, tc.Name, tc.Arguments)
			if err != nil {
				log.Printf("[agent] tool %s failed: %v", tc.Name, err)
				out = fmt.Sprintf("tool %s failed: %v", tc.Name, err)
			}
			results[i] = out
		}(i, tc)
	}
	wg.Wait()

	out := make([]ai.Message, 0, len(calls))
	for i, tc := range calls {
		out = append(out, ai.Message{
			Role:       ai.RoleTool,
			Content:    results[i],
			ToolCallID: tc.ID,
		})
	}
	return out
}
