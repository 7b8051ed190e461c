// Package api layers the backend's response shapes and typed endpoints over
// the gateway. The gateway itself stays envelope-agnostic; everything about
// {ok, result} versus {data} versus a bare payload lives here.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// Envelope is the tagged union of the three response shapes the backend
// emits: a wrapped {ok, result|data, message|error} object, or a bare
// array/object payload.
type Envelope struct {
	// OK is nil for bare payloads.
	OK      *bool
	Result  json.RawMessage
	Data    json.RawMessage
	Message string
	Err     string

	raw json.RawMessage
}

// ParseEnvelope classifies a response body. It never fails: bodies that are
// not JSON objects are carried as bare payloads.
func ParseEnvelope(body []byte) Envelope {
	env := Envelope{raw: json.RawMessage(body)}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return env
	}

	var probe struct {
		OK      *bool           `json:"ok"`
		Result  json.RawMessage `json:"result"`
		Data    json.RawMessage `json:"data"`
		Message json.RawMessage `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return env
	}

	env.OK = probe.OK
	env.Result = probe.Result
	env.Data = probe.Data
	env.Message = stringOrJoined(probe.Message)
	env.Err = stringOrJoined(probe.Error)
	return env
}

// Unwrap returns the payload, or an error when the envelope itself says the
// request failed (ok=false). Preference order: result, data, the raw body.
func (e Envelope) Unwrap() (json.RawMessage, error) {
	if e.OK != nil && !*e.OK {
		msg := e.Message
		if msg == "" {
			msg = e.Err
		}
		if msg == "" {
			msg = "requisição recusada pelo servidor"
		}
		return nil, errors.New(msg)
	}

	if len(e.Result) > 0 && !bytes.Equal(bytes.TrimSpace(e.Result), []byte("null")) {
		return e.Result, nil
	}
	if len(e.Data) > 0 && !bytes.Equal(bytes.TrimSpace(e.Data), []byte("null")) {
		return e.Data, nil
	}
	return e.raw, nil
}

// stringOrJoined decodes a field that is either a string or a list of
// strings (validation backends emit both).
func stringOrJoined(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, m := range list {
			if trimmed := strings.TrimSpace(m); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		return strings.Join(parts, " | ")
	}
	return ""
}
