package publish

import "context"

// Result is what the host returns for a published page. Path is the
// host-generated unguessable locator; EditPath is the private handle for
// later updates.
type Result struct {
	URL      string
	Path     string
	EditPath string
}

// Publisher is the contract to the external content-hosting collaborator.
// Publishing identical content twice is safe: it may create a duplicate
// page but never corrupts state. Retract replaces content and is
// best-effort only.
type Publisher interface {
	Available() bool
	Publish(ctx context.Context, title, content string) (*Result, error)
	Update(ctx context.Context, editPath, title, content string) (*Result, error)
	Retract(ctx context.Context, editPath string) error
}
