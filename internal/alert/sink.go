// Package alert formats buy alerts and delivers them to every registered destination.
package alert

import "context"

// Image is the picture attached to an alert. Exactly one of Path or URL is used;
// Path wins when both are set.
type Image struct {
	Path string
	URL  string
}

// IsZero reports whether no image is configured.
func (i Image) IsZero() bool {
	return i.Path == "" && i.URL == ""
}

// MessageRef identifies a delivered message so it can be retracted later.
type MessageRef struct {
	Destination int64
	MessageID   int
}

// Sink delivers alerts to a chat service.
type Sink interface {
	// Send posts an image with caption to destination.
	Send(ctx context.Context, destination int64, caption string, image Image) (MessageRef, error)

	// Delete retracts a previously sent message.
	Delete(ctx context.Context, ref MessageRef) error
}
