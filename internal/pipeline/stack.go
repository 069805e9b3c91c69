package pipeline

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Stack records acquired resources and releases them in reverse order.
// Release runs at most once, so it can be deferred and also called
// explicitly on the success path.
type Stack struct {
	entries  []stackEntry
	released bool
}

type stackEntry struct {
	name    string
	release func() error
}

// Push records a resource. The release function runs during Release.
func (s *Stack) Push(name string, release func() error) {
	s.entries = append(s.entries, stackEntry{name: name, release: release})
}

// Len returns the number of resources still held
func (s *Stack) Len() int {
	if s.released {
		return 0
	}
	return len(s.entries)
}

// Release frees every resource, last acquired first. Every release
// function runs even if an earlier one fails; the errors are combined.
func (s *Stack) Release() error {
	if s.released {
		return nil
	}
	s.released = true

	var result *multierror.Error
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		logger.Debugf("releasing %s", e.name)
		if err := e.release(); err != nil {
			result = multierror.Append(result, fmt.Errorf("release %s: %w", e.name, err))
		}
	}
	s.entries = nil
	return result.ErrorOrNil()
}
