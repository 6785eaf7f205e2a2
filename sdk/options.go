package sdk

import (
	"github.com/kbukum/lesstokens/compression"
	"github.com/kbukum/lesstokens/llm"
)

// DefaultMessageRole is the role of the message carrying the compressed
// prompt when ProcessOptions.MessageRole is empty.
const DefaultMessageRole = llm.RoleUser

// ProcessOptions describes one compress-then-chat call.
type ProcessOptions struct {
	// Prompt is compressed before it reaches the model.
	Prompt string
	// LLMConfig selects the model and carries the vendor API key.
	LLMConfig llm.Config
	// Compression is forwarded to the compression service; nil sends none.
	Compression *compression.Options
	// MessageRole of the final message; defaults to "user".
	MessageRole string
	// MessageContent overrides the final message text. When nil the
	// compressed prompt is sent.
	MessageContent MessageContent
	// Messages precede the final message, in order.
	Messages []llm.Message
}

// MessageContent produces the final message text from a compression
// result. See Content and ContentFunc.
type MessageContent interface {
	Resolve(res *compression.Result) string
}

// Content is a fixed message text.
type Content string

// Resolve implements MessageContent.
func (c Content) Resolve(*compression.Result) string { return string(c) }

// ContentFunc derives the message text from the compression result, for
// example to wrap the compressed prompt in a template.
type ContentFunc func(res *compression.Result) string

// Resolve implements MessageContent.
func (f ContentFunc) Resolve(res *compression.Result) string { return f(res) }

// buildMessages returns the prior messages followed by the message that
// carries the compressed prompt or its override.
func buildMessages(opts ProcessOptions, res *compression.Result) []llm.Message {
	role := opts.MessageRole
	if role == "" {
		role = DefaultMessageRole
	}
	content := res.Compressed
	if opts.MessageContent != nil {
		content = opts.MessageContent.Resolve(res)
	}

	out := make([]llm.Message, 0, len(opts.Messages)+1)
	out = append(out, opts.Messages...)
	return append(out, llm.Message{Role: role, Content: content})
}
