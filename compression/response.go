package compression

import (
	"bytes"
	"encoding/json"
	"net/http"

	apperrors "github.com/kbukum/lesstokens/errors"
)

// Field aliases in priority order.
var (
	savingsAliases = []string{"tokensSaved", "savings"}
	ratioAliases   = []string{"compressionRatio", "ratio"}
)

type object map[string]json.RawMessage

// decodeResult normalizes a 2xx body into a Result. prompt is used when the
// service returns no compressed text.
func decodeResult(body []byte, prompt string, status int) (*Result, error) {
	var top object
	if err := json.Unmarshal(body, &top); err != nil || top == nil {
		return nil, apperrors.CompressionFailed("Invalid response from compression service", status).WithCause(err)
	}

	data := top
	if raw, ok := top["data"]; ok {
		var nested object
		if err := json.Unmarshal(raw, &nested); err == nil && nested != nil {
			data = nested
		}
	}

	res := &Result{
		Compressed:       data.str("compressed"),
		OriginalTokens:   int(data.num(0, "originalTokens")),
		CompressedTokens: int(data.num(0, "compressedTokens")),
		Savings:          data.num(0, savingsAliases...),
		Ratio:            data.num(1.0, ratioAliases...),
	}
	if res.Compressed == "" {
		res.Compressed = prompt
	}
	return res, nil
}

// num returns the first alias holding a JSON number. Null and non-numeric
// values count as absent.
func (o object) num(def float64, keys ...string) float64 {
	for _, k := range keys {
		raw, ok := o[k]
		if !ok || isNull(raw) {
			continue
		}
		var v float64
		if err := json.Unmarshal(raw, &v); err == nil {
			return v
		}
	}
	return def
}

func (o object) str(key string) string {
	raw, ok := o[key]
	if !ok || isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// errorMessage extracts {"message": "..."} from a failed response, falling
// back to the status text.
func errorMessage(body []byte, status int) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return "Compression failed: " + http.StatusText(status)
}

// errorDetails keeps a decodable error body for diagnostics.
func errorDetails(body []byte) map[string]any {
	var details map[string]any
	if err := json.Unmarshal(body, &details); err != nil {
		return nil
	}
	return details
}
