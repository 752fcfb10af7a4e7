package weather

import (
	"context"
	"fmt"

	"github.com/sociofi/weather-agent/internal/ai"
)

const cityParamDescription = "City name, state code and country code divided by comma, " +
	"e.g. 'London,GB'. Non-English location names are passed through as-is."

// Tool is one callable weather capability exposed to the model.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	Handler     func(ctx context.Context, args map[string]any) (string, error)
}

// Registry maps tool names to statically registered handlers. The model
// names a tool by string; anything outside this registry fails closed.
type Registry struct {
	tools  map[string]*Tool
	client *Client
}

func NewRegistry(client *Client) *Registry {
	r := &Registry{
		tools:  make(map[string]*Tool),
		client: client,
	}
	r.registerBuiltins()
	return r
}

func (r *Registry) registerBuiltins() {
	r.register(&Tool{
		Name:        "currentWeather",
		Description: "Get the current weather for a city.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"city": map[string]any{
					"type":        "string",
					"description": cityParamDescription,
				},
			},
			"required": []string{"city"},
		},
		Handler: r.handleCurrent,
	})

	r.register(&Tool{
		Name:        "forecastWeather",
		Description: "Get the forecast weather for a city for the coming days.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"city": map[string]any{
					"type":        "string",
					"description": cityParamDescription,
				},
			},
			"required": []string{"city"},
		},
		Handler: r.handleForecast,
	})

	r.register(&Tool{
		Name: "historyWeather",
		Description: "Get hourly historical weather for a city over a time period. " +
			"start and end are ISO 8601 timestamps (e.g. '2025-05-08T00:00:00Z') and are " +
			"converted to Unix time (UTC) automatically. Both are optional; when omitted " +
			"the provider default window applies.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"city": map[string]any{
					"type":        "string",
					"description": cityParamDescription,
				},
				"start": map[string]any{
					"type":        "string",
					"description": "Start of the range as ISO 8601 with timezone. Optional.",
				},
				"end": map[string]any{
					"type":        "string",
					"description": "End of the range as ISO 8601 with timezone. Optional.",
				},
			},
			"required": []string{"city"},
		},
		Handler: r.handleHistory,
	})
}

func (r *Registry) register(t *Tool) {
	r.tools[t.Name] = t
}

// Specs returns the tool schemas handed to the model.
func (r *Registry) Specs() []ai.ToolSpec {
	out := make([]ai.ToolSpec, 0, len(r.tools))
	for _, name := range []string{"currentWeather", "forecastWeather", "historyWeather"} {
		t, ok := r.tools[name]
		if !ok {
			continue
		}
		out = append(out, ai.ToolSpec{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	return out
}

// Execute runs a registered tool. Unknown names fail closed.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: unknown tool %q", ErrDataUnavailable, name)
	}
	return t.Handler(ctx, args)
}

func cityArg(args map[string]any) (string, error) {
	city, _ := args["city"].(string)
	if city == "" {
		return "", fmt.Errorf("%w: city is required", ErrDataUnavailable)
	}
	return city, nil
}

func (r *Registry) handleCurrent(ctx context.Context, args map[string]any) (string, error) {
	city, err := cityArg(args)
	if err != nil {
		return "", err
	}
	payload, err := r.client.Current(ctx, city)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

func (r *Registry) handleForecast(ctx context.Context, args map[string]any) (string, error) {
	city, err := cityArg(args)
	if err != nil {
		return "", err
	}
	payload, err := r.client.Forecast(ctx, city)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

func (r *Registry) handleHistory(ctx context.Context, args map[string]any) (string, error) {
	city, err := cityArg(args)
	if err != nil {
		return "", err
	}
	start, _ := args["start"].(string)
	end, _ := args["end"].(string)
	payload, err := r.client.History(ctx, city, start, end)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}
