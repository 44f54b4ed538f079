package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"storyreel/config"
)

const (
	nlsNamespace      = "SpeechSynthesizer"
	nlsStart          = "StartSynthesis"
	nlsCompleted      = "SynthesisCompleted"
	nlsFailed         = "TaskFailed"
	nlsMetaInfo       = "MetaInfo"
	nlsTokenHeader    = "X-NLS-Token"
	nlsHandshakeLimit = 15 * time.Second
)

// NLS is a client for the Alibaba Cloud NLS streaming speech synthesis
// gateway. Audio arrives as binary frames, events as JSON text frames.
type NLS struct {
	URL    string
	Token  string
	AppKey string
	Dialer *websocket.Dialer
}

// TaskError is a failure reported by the synthesis service.
type TaskError struct {
	TaskID     string
	Status     int
	StatusText string
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("speech task %s failed: %d %s", e.TaskID, e.Status, e.StatusText)
}

type nlsHeader struct {
	MessageID  string `json:"message_id"`
	TaskID     string `json:"task_id"`
	Namespace  string `json:"namespace"`
	Name       string `json:"name"`
	AppKey     string `json:"appkey,omitempty"`
	Status     int    `json:"status,omitempty"`
	StatusText string `json:"status_text,omitempty"`
}

type nlsPayload struct {
	Text       string `json:"text"`
	Voice      string `json:"voice"`
	Format     string `json:"format"`
	SampleRate int    `json:"sample_rate"`
	Volume     int    `json:"volume"`
	SpeechRate int    `json:"speech_rate"`
	PitchRate  int    `json:"pitch_rate"`
}

type nlsMessage struct {
	Header  nlsHeader   `json:"header"`
	Payload *nlsPayload `json:"payload,omitempty"`
}

// NewNLS validates cfg and returns a client.
func NewNLS(cfg config.SpeechConfig) (*NLS, error) {
	if cfg.URL == "" || cfg.Token == "" || cfg.AppKey == "" {
		return nil, errors.New("ALI_AUDIO_URL, ALI_AUDIO_TOKEN and ALI_AUDIO_APPKEY must be set")
	}
	return &NLS{URL: cfg.URL, Token: cfg.Token, AppKey: cfg.AppKey}, nil
}

func (n *NLS) Synthesize(ctx context.Context, req Request, sink io.Writer) error {
	dialer := n.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{HandshakeTimeout: nlsHandshakeLimit}
	}

	header := http.Header{}
	header.Set(nlsTokenHeader, n.Token)

	conn, _, err := dialer.DialContext(ctx, n.URL, header)
	if err != nil {
		return fmt.Errorf("failed to connect to speech service: %w", err)
	}
	defer conn.Close()

	// Unblock ReadMessage when the caller gives up.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	taskID := newID()
	start := nlsMessage{
		Header: nlsHeader{
			MessageID: newID(),
			TaskID:    taskID,
			Namespace: nlsNamespace,
			Name:      nlsStart,
			AppKey:    n.AppKey,
		},
		Payload: &nlsPayload{
			Text:       req.Text,
			Voice:      req.Voice,
			Format:     req.Format,
			SampleRate: req.SampleRate,
			Volume:     req.Volume,
			SpeechRate: req.SpeechRate,
			PitchRate:  req.PitchRate,
		},
	}
	if err := conn.WriteJSON(start); err != nil {
		return fmt.Errorf("failed to start synthesis: %w", err)
	}

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("speech stream ended before completion: %w", err)
		}

		switch kind {
		case websocket.BinaryMessage:
			if _, err := sink.Write(data); err != nil {
				return fmt.Errorf("failed to write audio chunk: %w", err)
			}
		case websocket.TextMessage:
			var ev nlsMessage
			if err := json.Unmarshal(data, &ev); err != nil {
				log.Printf("Ignoring malformed speech event: %v", err)
				continue
			}
			switch ev.Header.Name {
			case nlsCompleted:
				return nil
			case nlsFailed:
				return &TaskError{TaskID: taskID, Status: ev.Header.Status, StatusText: ev.Header.StatusText}
			case nlsMetaInfo:
				log.Printf("Speech metainfo for task %s", taskID)
			}
		}
	}
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
