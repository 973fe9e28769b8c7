package retrieval

import (
	"errors"
	"fmt"
)

// Kind labels a failure for the stream's error frame. The set is closed;
// handlers emit kinds verbatim and never invent new ones.
type Kind string

const (
	KindEmbeddingUnavailable  Kind = "embedding_unavailable"
	KindRetrievalUnavailable  Kind = "retrieval_unavailable"
	KindGenerationUnavailable Kind = "generation_unavailable"
	KindGenerationInterrupted Kind = "generation_interrupted"
	KindClientSlow            Kind = "client_slow"
	KindInvalidRequest        Kind = "invalid_request"
	KindNotFound              Kind = "not_found"
)

// Error carries a failure kind alongside its cause.
type Error struct {
	Kind Kind
	Err  error
}

func NewError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the kind carried by err; ok is false when err has none.
func KindOf(err error) (Kind, bool) {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return "", false
}
