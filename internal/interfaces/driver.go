// -----------------------------------------------------------------------
// Driver port - Opaque browser automation capability consumed by the engine
// -----------------------------------------------------------------------

package interfaces

import (
	"context"
	"time"
)

// SelectOption is one enumerated option of a <select> element
type SelectOption struct {
	Value string `json:"value"`
	Text  string `json:"text"`
}

// Driver is the browser automation capability the engine runs against.
// Every operation either succeeds or returns a typed timeout/not-found
// error; the engine never reaches below this interface into the protocol.
type Driver interface {
	// Navigation
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)

	// Location and visibility
	Exists(ctx context.Context, selector string) (int, error)
	IsVisible(ctx context.Context, selector string) (bool, error)
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	WaitHidden(ctx context.Context, selector string, timeout time.Duration) error

	// Interaction
	Click(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, value string) error
	SelectOption(ctx context.Context, selector, value string) error
	Options(ctx context.Context, selector string) ([]SelectOption, error)
	Scroll(ctx context.Context, selector string) error
	KeyPress(ctx context.Context, keys string) error

	// Inspection
	Text(ctx context.Context, selector string) (string, error)
	IsChecked(ctx context.Context, selector string) (bool, error)
	Screenshot(ctx context.Context) ([]byte, error)
	DOMSnapshot(ctx context.Context) (string, error)

	// Close releases the underlying browser session
	Close() error
}

// SessionFactory creates fresh, isolated browser sessions. The batch
// orchestrator opens a new session per route so state never leaks between
// routes.
type SessionFactory interface {
	NewSession(ctx context.Context) (Driver, error)
}
