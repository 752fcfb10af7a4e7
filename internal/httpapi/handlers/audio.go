package handlers

import (
	"encoding/base64"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sociofi/weather-agent/internal/common"
)

// noTranscriptAnswer is the degraded reply for an empty or failed
// transcription. A bad recording is not an error to the caller.
const noTranscriptAnswer = "Sorry, I didn't hear that. Could you try again?"

const maxAudioBytes = 8 << 20

// TranscribeAudio converts an uploaded recording into transcript text.
func (h *Handler) TranscribeAudio(c *gin.Context) {
	if _, ok := h.currentUser(c); !ok {
		return
	}

	wav, ok := h.readAudioUpload(c)
	if !ok {
		return
	}

	transcript, err := h.Speech.Transcribe(c.Request.Context(), wav)
	if err != nil {
		log.Printf("[audio] transcribe failed: %v", err)
		transcript = ""
	}

	common.OK(c, gin.H{"transcript": transcript})
}

// SynthesizeSpeech converts answer text into audio bytes.
func (h *Handler) SynthesizeSpeech(c *gin.Context) {
	if _, ok := h.currentUser(c); !ok {
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "text is required")
		return
	}

	audioBytes, err := h.Speech.Synthesize(c.Request.Context(), req.Text)
	if err != nil {
		log.Printf("[audio] synthesize failed: %v", err)
		common.Fail(c, http.StatusInternalServerError, 50005, "failed to synthesize speech")
		return
	}

	c.Data(http.StatusOK, "audio/mpeg", audioBytes)
}

// HandleVoiceQuery is the full voice round trip: transcribe, run the query,
// synthesize the answer. An empty transcript short-circuits with a canned
// clarification reply instead of failing.
func (h *Handler) HandleVoiceQuery(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	wav, ok := h.readAudioUpload(c)
	if !ok {
		return
	}

	transcript, err := h.Speech.Transcribe(c.Request.Context(), wav)
	if err != nil {
		log.Printf("[audio] transcribe failed: %v", err)
		transcript = ""
	}
	if transcript == "" {
		common.OK(c, gin.H{"transcript": "", "message": noTranscriptAnswer})
		return
	}

	sessionID := c.PostForm("sessionId")
	result, err := h.Query.HandleQuery(c.Request.Context(), user, sessionID, transcript)
	if err != nil {
		log.Printf("[audio] voice query failed user=%d err=%v", user.ID, err)
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to process your request")
		return
	}

	resp := gin.H{
		"transcript":  transcript,
		"sessionId":   result.SessionID,
		"sessionName": result.SessionName,
		"update_time": result.UpdateTime,
		"location":    result.Location,
		"message":     result.Answer,
	}

	if speech, err := h.Speech.Synthesize(c.Request.Context(), result.Answer); err == nil {
		resp["audio"] = base64.StdEncoding.EncodeToString(speech)
	} else {
		log.Printf("[audio] synthesize failed: %v", err)
	}

	common.OK(c, resp)
}

func (h *Handler) readAudioUpload(c *gin.Context) ([]byte, bool) {
	file, _, err := c.Request.FormFile("audio")
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10004, "audio file is required")
		return nil, false
	}
	defer file.Close()

	wav, err := io.ReadAll(io.LimitReader(file, maxAudioBytes))
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10005, "failed to read audio file")
		return nil, false
	}
	return wav, true
}
