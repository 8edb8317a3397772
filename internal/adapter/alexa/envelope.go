// Package alexa translates between the Alexa Skills Kit JSON envelope and
// the skill's platform-neutral request and utterance types. Only the fields
// the skill reads or writes are modelled.
package alexa

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/couchcryptid/weather-skill-service/internal/domain"
	"github.com/go-playground/validator/v10"
)

// Version is the envelope version written on every response.
const Version = "1.0"

// maxBodyBytes bounds a request envelope; real payloads are a few KB.
const maxBodyBytes = 1 << 20

var validate = validator.New()

// RequestEnvelope is the inbound skill request.
type RequestEnvelope struct {
	Version string   `json:"version"`
	Session *session `json:"session,omitempty"`
	Request request  `json:"request"`
}

type session struct {
	SessionID string `json:"sessionId"`
	New       bool   `json:"new"`
}

type request struct {
	Type      string  `json:"type" validate:"required"`
	RequestID string  `json:"requestId"`
	Timestamp string  `json:"timestamp"`
	Locale    string  `json:"locale"`
	Intent    *intent `json:"intent,omitempty" validate:"required_if=Type IntentRequest"`
	Reason    string  `json:"reason,omitempty"` // SessionEndedRequest only
}

type intent struct {
	Name string `json:"name" validate:"required"`
}

// ResponseEnvelope is the outbound skill response.
type ResponseEnvelope struct {
	Version  string       `json:"version"`
	Response responseBody `json:"response"`
}

type responseBody struct {
	OutputSpeech     *outputSpeech `json:"outputSpeech,omitempty"`
	Reprompt         *reprompt     `json:"reprompt,omitempty"`
	ShouldEndSession bool          `json:"shouldEndSession"`
}

type outputSpeech struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type reprompt struct {
	OutputSpeech outputSpeech `json:"outputSpeech"`
}

// ErrInvalidEnvelope is wrapped by every DecodeRequest failure.
var ErrInvalidEnvelope = errors.New("invalid request envelope")

// DecodeRequest reads and validates a request envelope. Unknown request
// types are accepted; classification is the dispatch chain's job.
func DecodeRequest(r io.Reader) (domain.Request, error) {
	var env RequestEnvelope
	dec := json.NewDecoder(io.LimitReader(r, maxBodyBytes))
	if err := dec.Decode(&env); err != nil {
		return domain.Request{}, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if err := validate.Struct(env); err != nil {
		return domain.Request{}, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return env.toDomain(), nil
}

func (e RequestEnvelope) toDomain() domain.Request {
	req := domain.Request{
		ID:     e.Request.RequestID,
		Type:   e.Request.Type,
		Locale: e.Request.Locale,
	}
	if e.Session != nil {
		req.SessionID = e.Session.SessionID
	}
	if e.Request.Intent != nil {
		req.IntentName = e.Request.Intent.Name
	}
	if ts, err := time.Parse(time.RFC3339, e.Request.Timestamp); err == nil {
		req.Timestamp = ts.UTC()
	}
	return req
}

// EncodeResponse wraps an utterance in a response envelope. Empty speech
// and empty reprompts are omitted.
func EncodeResponse(w io.Writer, utt domain.Utterance) error {
	if err := json.NewEncoder(w).Encode(NewResponse(utt)); err != nil {
		return fmt.Errorf("encode response envelope: %w", err)
	}
	return nil
}

// NewResponse builds the envelope for an utterance.
func NewResponse(utt domain.Utterance) ResponseEnvelope {
	body := responseBody{ShouldEndSession: utt.EndSession}
	if utt.Speech != "" {
		body.OutputSpeech = &outputSpeech{Type: "PlainText", Text: utt.Speech}
	}
	if utt.Reprompt != "" {
		body.Reprompt = &reprompt{OutputSpeech: outputSpeech{Type: "PlainText", Text: utt.Reprompt}}
	}
	return ResponseEnvelope{Version: Version, Response: body}
}
