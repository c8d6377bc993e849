package apperr

import "sync"

// Status is the loading flag and last error message a store exposes for display.
// The zero value is ready to use.
type Status struct {
	mu      sync.Mutex
	loading bool
	message string
}

// Begin marks an operation in flight and clears the previous message.
func (s *Status) Begin() {
	s.mu.Lock()
	s.loading = true
	s.message = ""
	s.mu.Unlock()
}

// Finish ends the operation, records err's message and returns err unchanged.
func (s *Status) Finish(err error) error {
	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.message = Message(err)
	}
	s.mu.Unlock()
	return err
}

func (s *Status) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// LastError is the message of the last failed operation, "" after a success.
func (s *Status) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}
