package main

import (
	"context"
	"log"
	"os"

	"github.com/sociofi/weather-agent/internal/agent"
	"github.com/sociofi/weather-agent/internal/ai"
	"github.com/sociofi/weather-agent/internal/audio"
	"github.com/sociofi/weather-agent/internal/config"
	"github.com/sociofi/weather-agent/internal/db"
	"github.com/sociofi/weather-agent/internal/httpapi"
	"github.com/sociofi/weather-agent/internal/httpapi/handlers"
	"github.com/sociofi/weather-agent/internal/query"
	"github.com/sociofi/weather-agent/internal/session"
	"github.com/sociofi/weather-agent/internal/store/rabbitmq"
	"github.com/sociofi/weather-agent/internal/store/redisstore"
	"github.com/sociofi/weather-agent/internal/weather"
)

func providerSettings(cfg config.Config) ai.Settings {
	return ai.Settings{
		OllamaBaseURL: cfg.OllamaBaseURL,
		OllamaModel:   cfg.OllamaModel,

		OpenRouterBaseURL: cfg.OpenRouterBaseURL,
		OpenRouterAPIKey:  cfg.OpenRouterAPIKey,
		OpenRouterModel:   cfg.OpenRouterModel,
		OpenRouterSiteURL: cfg.OpenRouterSiteURL,
		OpenRouterAppName: cfg.OpenRouterAppName,
	}
}

func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)

	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.WeatherCacheTTL)
	if err := rds.Ping(context.Background()); err != nil {
		log.Printf("redis unreachable, weather cache disabled: %v", err)
		rds = nil
	}

	wxClient := weather.NewClient(cfg.OpenWeatherBaseURL, cfg.OpenWeatherHistoryURL, cfg.OpenWeatherAPIKey, rds)
	tools := weather.NewRegistry(wxClient)

	reg := ai.NewDefaultRegistry(providerSettings(cfg))
	provider, err := reg.Get(context.Background(), cfg.AIProvider, "")
	if err != nil {
		log.Fatalf("ai provider: %v", err)
	}

	loop := agent.New(provider, tools, cfg.AgentMaxSteps, cfg.ToolTimeout)

	sessions := session.NewService(session.NewRepo(gdb))
	querySvc := query.NewService(sessions, loop, cfg.DefaultLocation)
	jobs := query.NewJobs(gdb)

	rabbit, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		log.Fatalf("rabbit: %v", err)
	}
	defer rabbit.Close()

	speech := audio.NewClient(cfg.SpeechKey, cfg.SpeechRegion)

	h := handlers.NewHandler(gdb, cfg, sessions, querySvc, jobs, speech, rabbit)
	r := httpapi.NewRouter(h, cfg)

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	log.Printf("server listening on %s provider=%s", addr, cfg.AIProvider)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
