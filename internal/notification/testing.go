package notification

import (
	"context"
	"errors"
	"sync"
)

// Recorder captures sent messages for assertions in tests.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
	failNext bool
}

// NewRecorder builds an in-memory notifier for testing.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Send records the message, or fails once if FailNext was called.
func (r *Recorder) Send(_ context.Context, message Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext {
		r.failNext = false
		return errors.New("notifier unavailable")
	}
	r.messages = append(r.messages, message)
	return nil
}

// Messages returns a copy of everything sent so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Last returns the most recent message, if any.
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}

// FailNext makes the next Send return an error.
func (r *Recorder) FailNext() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failNext = true
}
