package llm

import "context"

// DeltaFunc pulls the next text delta from a vendor stream. ok is false
// once the vendor stream is exhausted. Empty deltas are skipped.
type DeltaFunc func(ctx context.Context) (delta string, ok bool, err error)

// deltaStream turns a vendor delta source into the chunk protocol: one
// Done=false chunk per non-empty delta, then a single Done=true chunk whose
// usage is read when the vendor stream ends.
type deltaStream struct {
	next    DeltaFunc
	usage   func() *Usage
	closeFn func() error

	finished bool
	closed   bool
}

// NewDeltaStream wraps a vendor stream. usage is called once, after the
// vendor stream is exhausted; it may return nil. closeFn may be nil.
func NewDeltaStream(next DeltaFunc, usage func() *Usage, closeFn func() error) Stream {
	return &deltaStream{next: next, usage: usage, closeFn: closeFn}
}

func (s *deltaStream) Next(ctx context.Context) (StreamChunk, bool, error) {
	if s.finished {
		return StreamChunk{}, false, nil
	}
	for {
		delta, ok, err := s.next(ctx)
		if err != nil {
			s.finished = true
			return StreamChunk{}, false, err
		}
		if !ok {
			s.finished = true
			var u *Usage
			if s.usage != nil {
				u = s.usage()
			}
			return StreamChunk{Done: true, Usage: u}, true, nil
		}
		if delta != "" {
			return StreamChunk{Content: delta}, true, nil
		}
	}
}

func (s *deltaStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.finished = true
	if s.closeFn != nil {
		return s.closeFn()
	}
	return nil
}

// SliceStream replays fixed chunks. Useful for tests and cached responses.
func SliceStream(chunks ...StreamChunk) Stream {
	return &sliceStream{chunks: chunks}
}

type sliceStream struct {
	chunks []StreamChunk
	pos    int
}

func (s *sliceStream) Next(ctx context.Context) (StreamChunk, bool, error) {
	if err := ctx.Err(); err != nil {
		return StreamChunk{}, false, err
	}
	if s.pos >= len(s.chunks) {
		return StreamChunk{}, false, nil
	}
	c := s.chunks[s.pos]
	s.pos++
	return c, true, nil
}

func (s *sliceStream) Close() error {
	s.pos = len(s.chunks)
	return nil
}

// Collect drains s, returning the concatenated content and the usage of the
// Done chunk. It closes s.
func Collect(ctx context.Context, s Stream, onChunk func(StreamChunk)) (string, *Usage, error) {
	defer func() { _ = s.Close() }()
	var content []byte
	var usage *Usage
	for {
		chunk, ok, err := s.Next(ctx)
		if err != nil {
			return string(content), usage, err
		}
		if !ok {
			return string(content), usage, nil
		}
		if onChunk != nil {
			onChunk(chunk)
		}
		content = append(content, chunk.Content...)
		if chunk.Done {
			usage = chunk.Usage
		}
	}
}
