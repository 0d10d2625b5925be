package ports

import "context"

// Button is one inline action below a message.
type Button struct {
	Label  string
	Action string
}

// Presentation describes how a message is rendered: markup mode, link
// preview behavior, and the inline keyboard rows attached to it.
type Presentation struct {
	HTML               bool
	DisableLinkPreview bool
	Keyboard           [][]Button
}

// Transport is the chat channel the dashboard writes through. Every call
// may fail independently; callers decide which failures to swallow.
type Transport interface {
	// Send posts a new message and returns its id.
	Send(ctx context.Context, chatID int64, text string, view Presentation) (int, error)
	// Edit replaces the text and keyboard of an existing message.
	Edit(ctx context.Context, chatID int64, messageID int, text string, view Presentation) error
	// Delete removes a message.
	Delete(ctx context.Context, chatID int64, messageID int) error
	// Notify answers a UI action with a short toast. Empty text just
	// acknowledges the action.
	Notify(ctx context.Context, actionID, text string) error
}
