package handlers

import (
	"errors"
	"log"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/sociofi/weather-agent/internal/common"
	"github.com/sociofi/weather-agent/internal/query"
	"github.com/sociofi/weather-agent/internal/session"
	"gorm.io/gorm"
)

type weatherQueryReq struct {
	Query     string `json:"query" binding:"required"`
	SessionID string `json:"sessionId"`
}

// HandleWeatherQuery runs one query through the orchestrator.
func (h *Handler) HandleWeatherQuery(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req weatherQueryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "query is required")
		return
	}

	result, err := h.Query.HandleQuery(c.Request.Context(), user, req.SessionID, req.Query)
	if err != nil {
		switch {
		case errors.Is(err, query.ErrInvalidRequest):
			common.Fail(c, http.StatusBadRequest, 10002, err.Error())
		case errors.Is(err, session.ErrSessionNotFound):
			common.Fail(c, http.StatusNotFound, 40401, "session not found")
		default:
			log.Printf("[weather] query failed user=%d err=%v", user.ID, err)
			common.Fail(c, http.StatusInternalServerError, 50001, "failed to process your request")
		}
		return
	}

	common.OK(c, result)
}

// GetAllSessionHistory lists the user's sessions for the sidebar, newest
// first by update time.
func (h *Handler) GetAllSessionHistory(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	sessions, err := h.Sessions.ListSessions(c.Request.Context(), user.ID)
	if err != nil {
		log.Printf("[weather] list sessions failed user=%d err=%v", user.ID, err)
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to fetch query history")
		return
	}

	// store has no ordering contract; sort here for display
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdateTime.After(sessions[j].UpdateTime)
	})

	out := make([]gin.H, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, gin.H{
			"sessionId":   s.SessionID,
			"sessionName": s.Name,
			"update_time": s.UpdateTime,
		})
	}
	common.OK(c, out)
}

// GetSessionHistoryById returns the ordered message list of one session.
// Unknown ids yield an empty list, not an error.
func (h *Handler) GetSessionHistoryById(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")
	msgs, err := h.Sessions.Messages(c.Request.Context(), user.ID, sessionID)
	if err != nil {
		log.Printf("[weather] get session failed user=%d session=%s err=%v", user.ID, sessionID, err)
		common.Fail(c, http.StatusInternalServerError, 50003, "failed to fetch session messages")
		return
	}

	common.OK(c, msgs)
}

// DeleteSessionById removes a session entirely. 404 when it did not exist.
func (h *Handler) DeleteSessionById(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")
	deleted, err := h.Sessions.DeleteSession(c.Request.Context(), user.ID, sessionID)
	if err != nil {
		log.Printf("[weather] delete session failed user=%d session=%s err=%v", user.ID, sessionID, err)
		common.Fail(c, http.StatusInternalServerError, 50004, "failed to delete session")
		return
	}
	if !deleted {
		common.Fail(c, http.StatusNotFound, 40401, "session not found")
		return
	}

	common.OK(c, gin.H{"message": "Session deleted successfully"})
}

// HandleWeatherQueryAsync enqueues a query job and returns its id.
func (h *Handler) HandleWeatherQueryAsync(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req weatherQueryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "query is required")
		return
	}

	if req.SessionID != "" {
		if _, err := h.Sessions.Find(c.Request.Context(), user.ID, req.SessionID); err != nil {
			if errors.Is(err, session.ErrSessionNotFound) {
				common.Fail(c, http.StatusNotFound, 40401, "session not found")
				return
			}
			common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
			return
		}
	}

	jobID, err := common.NewULID()
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	j := &query.Job{
		ID:        jobID,
		UserID:    user.ID,
		SessionID: req.SessionID,
		Query:     req.Query,
		Status:    query.JobQueued,
	}
	if err := h.Jobs.Create(c.Request.Context(), j); err != nil {
		log.Printf("[weather] create job failed user=%d err=%v", user.ID, err)
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	if err := h.Rabbit.PublishJob(c.Request.Context(), j.ID); err != nil {
		log.Printf("[weather] publish job failed user=%d job=%s err=%v", user.ID, j.ID, err)
		common.Fail(c, http.StatusInternalServerError, 50002, "enqueue failed")
		return
	}

	common.OK(c, gin.H{"job_id": j.ID})
}

// GetWeatherJob reports the status/result of an async query job.
func (h *Handler) GetWeatherJob(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	jobID := c.Param("job_id")
	if jobID == "" {
		common.Fail(c, http.StatusBadRequest, 10003, "job_id required")
		return
	}

	j, err := h.Jobs.Get(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40402, "job not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	if j.UserID != user.ID {
		// hide existence
		common.Fail(c, http.StatusNotFound, 40402, "job not found")
		return
	}

	common.OK(c, gin.H{
		"job": gin.H{
			"id":                j.ID,
			"session_id":        j.SessionID,
			"status":            j.Status,
			"result_session_id": j.ResultSessionID,
			"answer":            j.Answer,
			"error":             j.Error,
			"created_at":        j.CreatedAt,
			"updated_at":        j.UpdatedAt,
		},
	})
}
