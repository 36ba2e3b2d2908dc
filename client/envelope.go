package client

import (
	"bytes"
	"encoding/json"
)

// Envelope is the response wrapper used by the API: {code, data, message}.
// Some endpoints answer with {error} or with a bare object instead.
type Envelope struct {
	Code    int             `json:"code,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Response is a decoded API response
type Response struct {
	Status   int
	TraceID  string
	Envelope Envelope
	Body     []byte
}

// Success reports whether both the HTTP status and the envelope code
// signal success
func (r *Response) Success() bool {
	if r.Status < 200 || r.Status >= 300 {
		return false
	}
	if r.Envelope.Error != "" {
		return false
	}
	return envelopeCodeOK(r.Envelope.Code)
}

// FailureStatus is the status used to classify a failed response: the
// envelope code when it carries one, the HTTP status otherwise.
func (r *Response) FailureStatus() int {
	if !envelopeCodeOK(r.Envelope.Code) {
		return r.Envelope.Code
	}
	return r.Status
}

// Message returns the most specific message the response carries
func (r *Response) Message() string {
	if r.Envelope.Message != "" {
		return r.Envelope.Message
	}
	return r.Envelope.Error
}

// Payload returns the bytes holding the result: the envelope data, or the
// whole body for endpoints that do not wrap their results.
func (r *Response) Payload() []byte {
	data := bytes.TrimSpace(r.Envelope.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		if r.Envelope.Code == 0 && r.Envelope.Message == "" {
			return r.Body
		}
		return nil
	}
	return data
}

func envelopeCodeOK(code int) bool {
	return code == 0 || (code >= 200 && code < 300)
}

func decodeEnvelope(body []byte) (Envelope, error) {
	env := Envelope{}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return env, nil
	}
	if body[0] != '{' {
		return env, nil
	}
	err := json.Unmarshal(body, &env)
	return env, err
}
