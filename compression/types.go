// Package compression is the client for the LessTokens compression service.
//
// A Client sends one prompt per call to POST {baseURL}/api/compress,
// retries transport hiccups (TIMEOUT, NETWORK_ERROR, RATE_LIMIT) and
// normalizes both response envelopes the service has shipped:
//
//	{"data": {"compressed": "...", "tokensSaved": 50, "compressionRatio": 0.5}}
//	{"compressed": "...", "savings": 50, "ratio": 0.5}
package compression

// Options are the optional compression knobs. Nil fields are not sent.
type Options struct {
	TargetRatio     *float64 `json:"targetRatio,omitempty"`
	PreserveContext *bool    `json:"preserveContext,omitempty"`
	Aggressive      *bool    `json:"aggressive,omitempty"`
}

// Result is a normalized compression response.
type Result struct {
	Compressed       string  `json:"compressed"`
	OriginalTokens   int     `json:"originalTokens"`
	CompressedTokens int     `json:"compressedTokens"`
	Savings          float64 `json:"savings"`
	Ratio            float64 `json:"ratio"`
}

// request is the wire body of a compression call.
type request struct {
	Prompt string `json:"prompt"`
	*Options
}
