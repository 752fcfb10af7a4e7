// Package query coordinates the session store and the agent loop for one
// incoming weather query.
package query

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sociofi/weather-agent/internal/agent"
	"github.com/sociofi/weather-agent/internal/models"
	"github.com/sociofi/weather-agent/internal/session"
)

// ErrInvalidRequest marks caller errors: missing query text or user context.
var ErrInvalidRequest = errors.New("invalid request")

// FallbackAnswer replaces the assistant turn when the model backend is down.
// Every query gets a reply turn, even on total backend failure.
const FallbackAnswer = "Sorry, Weather AI is unavailable at the moment. Please try again later."

// Result is the structured outcome of one handled query.
type Result struct {
	SessionID   string    `json:"sessionId"`
	SessionName string    `json:"sessionName"`
	UpdateTime  time.Time `json:"update_time"`
	Location    string    `json:"location"`
	Query       string    `json:"query"`
	Answer      string    `json:"message"`
}

type Service struct {
	sessions        *session.Service
	loop            *agent.Loop
	defaultLocation string
}

func NewService(sessions *session.Service, loop *agent.Loop, defaultLocation string) *Service {
	if defaultLocation == "" {
		defaultLocation = "Dhaka, Bangladesh"
	}
	return &Service{
		sessions:        sessions,
		loop:            loop,
		defaultLocation: defaultLocation,
	}
}

// HandleQuery resolves or creates the session, runs the agent over the
// annotated transcript, persists the exchange, and returns the result.
// Model failures degrade to FallbackAnswer; storage faults propagate.
func (s *Service) HandleQuery(ctx context.Context, user *models.User, sessionID, queryText string) (*Result, error) {
	if user == nil {
		return nil, fmt.Errorf("%w: user is required", ErrInvalidRequest)
	}
	if queryText == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidRequest)
	}

	location := user.Location
	if location == "" {
		location = s.defaultLocation
	}

	if sessionID == "" {
		sid, err := s.sessions.CreateSession(ctx, user.ID, queryText)
		if err != nil {
			return nil, err
		}
		sessionID = sid
	} else if _, err := s.sessions.Find(ctx, user.ID, sessionID); err != nil {
		return nil, err
	}

	history, err := s.sessions.Messages(ctx, user.ID, sessionID)
	if err != nil {
		return nil, err
	}

	transcript := agent.BuildTranscript(agent.UserContext{
		Name:     user.Name,
		Location: location,
	}, history, queryText, time.Now())

	answer, err := s.loop.Run(ctx, transcript)
	if err != nil {
		log.Printf("[query] agent failed user=%d session=%s err=%v", user.ID, sessionID, err)
		answer = FallbackAnswer
	}
	if answer == "" {
		answer = FallbackAnswer
	}

	sess, err := s.sessions.AppendExchange(ctx, user.ID, sessionID,
		&session.Message{Role: session.RoleUser, Content: queryText, Location: location},
		&session.Message{Role: session.RoleAssistant, Content: answer, Location: location},
	)
	if err != nil {
		return nil, err
	}

	return &Result{
		SessionID:   sess.SessionID,
		SessionName: sess.Name,
		UpdateTime:  sess.UpdateTime,
		Location:    location,
		Query:       queryText,
		Answer:      answer,
	}, nil
}
