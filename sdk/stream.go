package sdk

import (
	"context"
	"sync"

	"github.com/kbukum/lesstokens/compression"
	apperrors "github.com/kbukum/lesstokens/errors"
	"github.com/kbukum/lesstokens/llm"
)

// mergeStream forwards content chunks unchanged and rewrites the terminal
// chunk's usage. Nothing is emitted after the terminal chunk, and no
// terminal chunk is invented when the inner stream ends without one.
type mergeStream struct {
	inner    llm.Stream
	result   *compression.Result
	onFinish func(err error)

	done       bool
	finishOnce sync.Once
}

func newMergeStream(inner llm.Stream, res *compression.Result, onFinish func(err error)) *mergeStream {
	return &mergeStream{inner: inner, result: res, onFinish: onFinish}
}

func (m *mergeStream) Next(ctx context.Context) (llm.StreamChunk, bool, error) {
	if m.done {
		return llm.StreamChunk{}, false, nil
	}

	chunk, ok, err := m.inner.Next(ctx)
	if err != nil {
		m.done = true
		m.finish(err)
		return llm.StreamChunk{}, false, err
	}
	if !ok {
		m.done = true
		m.finish(nil)
		return llm.StreamChunk{}, false, nil
	}
	if !chunk.Done {
		return chunk, true, nil
	}

	usage := mergeUsage(chunk.Usage, m.result)
	chunk.Usage = &usage
	m.done = true
	m.finish(nil)
	return chunk, true, nil
}

// Close releases the vendor stream. Closing before the terminal chunk is
// not an error.
func (m *mergeStream) Close() error {
	m.done = true
	m.finish(nil)
	return m.inner.Close()
}

func (m *mergeStream) finish(err error) {
	m.finishOnce.Do(func() {
		if m.onFinish != nil {
			m.onFinish(err)
		}
	})
}

func codeOf(err error) string {
	return string(apperrors.CodeOf(err))
}
