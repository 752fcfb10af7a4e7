package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"gorm.io/gorm"

	"github.com/sociofi/weather-agent/internal/agent"
	"github.com/sociofi/weather-agent/internal/ai"
	"github.com/sociofi/weather-agent/internal/config"
	"github.com/sociofi/weather-agent/internal/db"
	"github.com/sociofi/weather-agent/internal/models"
	"github.com/sociofi/weather-agent/internal/query"
	"github.com/sociofi/weather-agent/internal/session"
	"github.com/sociofi/weather-agent/internal/store/redisstore"
	"github.com/sociofi/weather-agent/internal/weather"
)

type jobMsg struct {
	JobID string `json:"job_id"`
}

func workerConcurrency() int {
	v := os.Getenv("WORKER_CONCURRENCY")
	if v == "" {
		return 2
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 2
	}
	if n > 50 {
		return 50
	}
	return n
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

	reg := ai.NewDefaultRegistry(ai.Settings{
		OllamaBaseURL: cfg.OllamaBaseURL,
		OllamaModel:   cfg.OllamaModel,

		OpenRouterBaseURL: cfg.OpenRouterBaseURL,
		OpenRouterAPIKey:  cfg.OpenRouterAPIKey,
		OpenRouterModel:   cfg.OpenRouterModel,
		OpenRouterSiteURL: cfg.OpenRouterSiteURL,
		OpenRouterAppName: cfg.OpenRouterAppName,
	})
	provider, err := reg.Get(context.Background(), cfg.AIProvider, "")
	if err != nil {
		log.Fatalf("ai provider: %v", err)
	}

	loop := agent.New(provider, tools, cfg.AgentMaxSteps, cfg.ToolTimeout)
	sessions := session.NewService(session.NewRepo(gdb))
	querySvc := query.NewService(sessions, loop, cfg.DefaultLocation)
	jobs := query.NewJobs(gdb)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("rabbit dial: %v", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("rabbit channel: %v", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(cfg.RabbitQueue, true, false, false, false, nil)
	if err != nil {
		log.Fatalf("queue declare: %v", err)
	}

	concurrency := workerConcurrency()

	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("worker started, queue=%s concurrency=%d", cfg.RabbitQueue, concurrency)

	// worker pool
	deliveries := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range deliveries {
				var m jobMsg
				if err := json.Unmarshal(d.Body, &m); err != nil || m.JobID == "" {
					log.Printf("worker=%d bad message: %v", workerID, err)
					_ = d.Nack(false, false)
					continue
				}

				start := time.Now()
				if err := handleJob(ctx, gdb, querySvc, jobs, m.JobID); err != nil {
					log.Printf("worker=%d job %s failed cost=%s err=%v", workerID, m.JobID, time.Since(start), err)
					_ = d.Nack(false, false)
					continue
				}

				if err := d.Ack(false); err != nil {
					log.Printf("worker=%d ack failed job=%s err=%v", workerID, m.JobID, err)
				}
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Printf("worker shutting down")
			close(deliveries)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Printf("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			deliveries <- d
		}
	}
}

func handleJob(ctx context.Context, gdb *gorm.DB, querySvc *query.Service, jobs *query.Jobs, jobID string) error {
	_ = jobs.MarkRunning(ctx, jobID)

	j, err := jobs.Get(ctx, jobID)
	if err != nil {
		return err
	}

	var user models.User
	if err := gdb.WithContext(ctx).First(&user, j.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = jobs.MarkFailed(ctx, jobID, "user not found")
			return nil
		}
		return err
	}

	result, err := querySvc.HandleQuery(ctx, &user, j.SessionID, j.Query)
	if err != nil {
		_ = jobs.MarkFailed(ctx, jobID, err.Error())
		return err
	}

	return jobs.MarkSucceeded(ctx, jobID, result.SessionID, result.Answer)
}
