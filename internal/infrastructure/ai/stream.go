package ai

import (
	"errors"
	"iter"
	"sync"

	"github.com/ollama/ollama/api"

	"github.com/doeshing/typecopilot/internal/ports"
)

// generateFunc runs one streamed request, calling fn for every decoded object.
type generateFunc func(fn func(api.GenerateResponse) error) error

// fragmentStream turns the client's push callback into a pull-based sequence.
// The request runs as a coroutine that is suspended inside the callback until the
// consumer asks for the next fragment.
type fragmentStream struct {
	next func() (string, error, bool)
	stop func()

	current  string
	err      error
	finished bool
	once     sync.Once
}

// truncated reports why a body ended without the terminal object.
func newFragmentStream(run generateFunc, truncated func() error) *fragmentStream {
	seq := func(yield func(string, error) bool) {
		var done, closed bool
		err := run(func(resp api.GenerateResponse) error {
			if !yield(resp.Response, nil) {
				closed = true
				return errStreamClosed
			}
			if resp.Done {
				done = true
				return errStreamDone
			}
			return nil
		})
		switch {
		case closed || done:
			return
		case err != nil && !errors.Is(err, errStreamDone):
			yield("", classify("generate stream", err))
		default:
			yield("", truncated())
		}
	}

	next, stop := iter.Pull2(iter.Seq2[string, error](seq))
	return &fragmentStream{next: next, stop: stop}
}

func (s *fragmentStream) Next() bool {
	if s.finished {
		return false
	}
	fragment, err, ok := s.next()
	if !ok {
		s.finish()
		return false
	}
	if err != nil {
		s.err = err
		s.finish()
		return false
	}
	s.current = fragment
	return true
}

func (s *fragmentStream) Fragment() string {
	return s.current
}

func (s *fragmentStream) Err() error {
	return s.err
}

func (s *fragmentStream) Close() error {
	s.finish()
	return nil
}

func (s *fragmentStream) finish() {
	s.once.Do(func() {
		s.finished = true
		s.current = ""
		s.stop()
	})
}

var _ ports.FragmentStream = (*fragmentStream)(nil)
