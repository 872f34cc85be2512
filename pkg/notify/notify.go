package notify

import (
	"fmt"

	"github.com/harrisonrobin/sunsine/pkg/model"
)

// Notifier is the outbound messaging collaborator. Both methods are
// best-effort: a failure affects one message, never the caller's loop.
type Notifier interface {
	// SendDirect delivers a direct message to one user. Unreachable
	// recipients (closed DMs, unknown user) come back as *DeliveryError.
	SendDirect(owner model.UserKey, text string) error

	// SendChannel posts to the configured public channel.
	SendChannel(text string) error
}

// DeliveryError marks a per-recipient delivery failure. Callers log it
// and move on to the next recipient.
type DeliveryError struct {
	Recipient model.UserKey
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("could not deliver to %s: %v", e.Recipient, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
