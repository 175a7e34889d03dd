package alert

import (
	"context"
	"errors"
	"sync"
)

type sentMessage struct {
	Destination int64
	Caption     string
	Image       Image
}

// fakeSink records sends and deletes. Destinations listed in failSend are rejected.
type fakeSink struct {
	mu        sync.Mutex
	nextID    int
	sent      []sentMessage
	deleted   []MessageRef
	failSend  map[int64]error
	deleteErr error
}

func newFakeSink() *fakeSink {
	return &fakeSink{failSend: make(map[int64]error)}
}

func (s *fakeSink) Send(_ context.Context, destination int64, caption string, image Image) (MessageRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.failSend[destination]; ok {
		return MessageRef{}, err
	}
	s.nextID++
	s.sent = append(s.sent, sentMessage{Destination: destination, Caption: caption, Image: image})
	return MessageRef{Destination: destination, MessageID: s.nextID}, nil
}

func (s *fakeSink) Delete(_ context.Context, ref MessageRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, ref)
	return nil
}

func (s *fakeSink) Sent() []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMessage(nil), s.sent...)
}

func (s *fakeSink) Deleted() []MessageRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]MessageRef(nil), s.deleted...)
}

var errChatNotFound = errors.New("Bad Request: chat not found")
