package callable

// Stream is a one-shot, finite sequence of partial output fragments from a
// streaming invocation. It is an iterator in the usual shape: call Next until
// it returns false, then check Err.
//
// A Stream is not restartable; obtaining the output again requires a fresh
// InvokeStream call.
type Stream interface {
	// Next advances to the next fragment. It returns false when the stream
	// is exhausted or an error occurred.
	Next() bool

	// Text returns the current fragment. Only valid after Next returned true.
	Text() string

	// Err returns the error that terminated the stream, if any.
	Err() error

	// Close releases any resources held by the stream. It is safe to call
	// Close multiple times and after exhaustion.
	Close() error
}

// sliceStream serves a fixed set of fragments. Used by callables whose
// streaming form is derived from an already-complete value.
type sliceStream struct {
	fragments []string
	current   int
}

// NewSliceStream returns a Stream that yields the given fragments in order.
func NewSliceStream(fragments []string) Stream {
	return &sliceStream{fragments: fragments, current: -1}
}

func (s *sliceStream) Next() bool {
	if s.current+1 >= len(s.fragments) {
		return false
	}
	s.current++
	return true
}

func (s *sliceStream) Text() string {
	if s.current < 0 || s.current >= len(s.fragments) {
		return ""
	}
	return s.fragments[s.current]
}

func (s *sliceStream) Err() error { return nil }

func (s *sliceStream) Close() error { return nil }

// chanStream adapts a fragment channel into a Stream. The producer closes
// frags when done and delivers at most one error on errs.
type chanStream struct {
	frags   <-chan string
	errs    <-chan error
	current string
	err     error
	done    bool
	cancel  func()
}

// NewChanStream returns a Stream backed by a fragment channel. cancel, if
// non-nil, is called on Close to stop the producer.
func NewChanStream(frags <-chan string, errs <-chan error, cancel func()) Stream {
	return &chanStream{frags: frags, errs: errs, cancel: cancel}
}

func (s *chanStream) Next() bool {
	if s.done {
		return false
	}
	f, ok := <-s.frags
	if !ok {
		s.done = true
		if s.errs != nil {
			s.err = <-s.errs
		}
		return false
	}
	s.current = f
	return true
}

func (s *chanStream) Text() string { return s.current }

func (s *chanStream) Err() error { return s.err }

func (s *chanStream) Close() error {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return nil
}

// Drain consumes the remainder of a stream and returns the concatenation of
// all fragments read. The stream is closed before returning.
func Drain(s Stream) (string, error) {
	defer func() { _ = s.Close() }()
	out := ""
	for s.Next() {
		out += s.Text()
	}
	return out, s.Err()
}
