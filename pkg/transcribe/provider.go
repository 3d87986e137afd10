package transcribe

import "context"

// Transcriber converts a voice recording to text. It is an optional
// collaborator: when unavailable, voice turns are rejected with a hint to
// type the message instead.
type Transcriber interface {
	Available() bool
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}
