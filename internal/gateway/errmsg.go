package gateway

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// maxErrorTextLen bounds how much of a non-JSON error body ends up in a
// user-facing message.
const maxErrorTextLen = 300

// ReadErrorMessage extracts a human-readable message from a failed response
// without consuming its body: the body is snapshotted and restored, so the
// caller can still decode the same response afterwards. The same response
// object is routinely read twice by calling code (existence check first,
// detailed message second).
//
// Resolution order: JSON "message" then "error" (arrays joined with " | "),
// then the raw body text truncated to 300 bytes, then fallback, then
// "HTTP <status>". Never returns an error.
func ReadErrorMessage(res *http.Response, fallback string) string {
	if fallback == "" && res != nil {
		fallback = "HTTP " + strconv.Itoa(res.StatusCode)
	}
	if res == nil || res.Body == nil {
		return fallback
	}

	buf, err := io.ReadAll(res.Body)
	res.Body.Close()
	res.Body = io.NopCloser(bytes.NewReader(buf))
	if err != nil || len(buf) == 0 {
		return fallback
	}

	if msg := jsonMessage(buf); msg != "" {
		return msg
	}

	text := strings.TrimSpace(string(buf))
	if text != "" {
		if len(text) > maxErrorTextLen {
			text = text[:maxErrorTextLen]
		}
		return text
	}

	return fallback
}

// jsonMessage pulls "message" or "error" out of a JSON body. Both fields may
// be a string or an array of strings depending on the backend validator.
func jsonMessage(buf []byte) string {
	var payload struct {
		Message json.RawMessage `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(buf, &payload); err != nil {
		return ""
	}

	if msg := decodeMessageField(payload.Message); msg != "" {
		return msg
	}
	return decodeMessageField(payload.Error)
}

func decodeMessageField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
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

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return ""
}
