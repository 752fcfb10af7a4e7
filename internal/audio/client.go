// Package audio wraps the speech service used for transcription and
// synthesis. It is a thin collaborator: the core only consumes transcript
// text and supplies answer text.
package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"time"
)

// ErrNotConfigured is returned when no speech key is set.
var ErrNotConfigured = errors.New("speech service not configured")

type Client struct {
	Key    string
	Region string
	HTTP   *http.Client
}

func NewClient(key, region string) *Client {
	return &Client{
		Key:    key,
		Region: region,
		HTTP:   &http.Client{Timeout: 30 * time.Second},
	}
}

// ssmlPayload embeds answer text into the synthesis request. The text is
// model output and may contain &, < or >, so it is XML-escaped first.
func ssmlPayload(text string) string {
	return fmt.Sprintf(
		`<speak version='1.0' xml:lang='en-US'><voice name='en-US-JennyNeural'>%s</voice></speak>`,
		html.EscapeString(text),
	)
}

type transcribeResp struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
}

// Transcribe sends WAV bytes to the speech-to-text endpoint and returns the
// recognized text. An unrecognized utterance yields an empty transcript, not
// an error; callers treat that as a degraded query.
func (c *Client) Transcribe(ctx context.Context, wav []byte) (string, error) {
	if c.Key == "" || c.Region == "" {
		return "", ErrNotConfigured
	}

	url := fmt.Sprintf(
		"https://%s.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1?language=en-US",
		c.Region,
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(wav))
	if err != nil {
		return "", err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.Key)
	req.Header.Set("Content-Type", "audio/wav; codecs=audio/pcm; samplerate=16000")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("speech-to-text: status %d", resp.StatusCode)
	}

	var decoded transcribeResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if decoded.RecognitionStatus != "Success" {
		return "", nil
	}
	return decoded.DisplayText, nil
}

// Synthesize converts answer text into audio bytes via the text-to-speech
// endpoint.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if c.Key == "" || c.Region == "" {
		return nil, ErrNotConfigured
	}

	ssml := ssmlPayload(text)

	url := fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", c.Region)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader([]byte(ssml)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.Key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", "audio-16khz-64kbitrate-mono-mp3")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("text-to-speech: status %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, 8<<20))
}
