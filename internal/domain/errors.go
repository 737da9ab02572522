package domain

import "errors"

var (
	// ErrInvalidRequest signals a request body that failed schema validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidMetadata signals a metadata value that is not a string, number or bool.
	ErrInvalidMetadata = errors.New("metadata values must be scalars")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrCompletionProviderError signals a chat completion provider failure.
	ErrCompletionProviderError = errors.New("completion provider error")
	// ErrEmptyCompletion signals a model reply without any choices.
	ErrEmptyCompletion = errors.New("model returned no choices")
	// ErrVectorDimMismatch signals an embedding whose length differs from the index dimensions.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrNotImplemented signals an unimplemented feature.
	ErrNotImplemented = errors.New("not implemented")
)
