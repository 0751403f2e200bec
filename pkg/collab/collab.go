// Package collab defines the external collaborator seams the chat core calls
// but does not implement: credential verification, translation, speech
// transcription, keyword detection, durable history, and object storage.
//
// The core only ever sees these narrow interfaces. Collaborator failures are
// logged by the caller and never terminate a session or the listener.
package collab

import "context"

// Authenticator verifies user credentials. The core treats it as opaque.
type Authenticator interface {
	Verify(username, password string) bool
}

// Translator translates chat text to a target language. On failure the
// caller falls back to the original text.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// Transcriber converts an audio payload to text. Purely advisory: an empty
// result means nothing was recognized.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// KeywordDetector scans an audio payload for known keywords. Returns the
// first detected keyword, or "" if none.
type KeywordDetector interface {
	Detect(audio []byte) string
}

// HistorySink appends rendered chat lines to a durable log.
type HistorySink interface {
	Append(line string) error
}

// ObjectStore stores opaque binary payloads (audio relays) under a key.
type ObjectStore interface {
	Put(key string, payload []byte) error
}
