package model

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrInvalidArgument indicates caller input that violates a precondition.
	// Surfaced to the caller as-is, never retried.
	ErrInvalidArgument = goerr.New("invalid argument")

	// ErrStorageUnavailable indicates the database could not be opened.
	ErrStorageUnavailable = goerr.New("storage unavailable")

	// ErrStorageIO indicates a read or write against an open database failed.
	ErrStorageIO = goerr.New("storage I/O failure")

	// ErrEmbeddingTransport indicates an embedding backend call failed
	// (network error or non-success HTTP status). Callers degrade rather
	// than propagate: save keeps the textual record, search falls back to
	// keyword mode.
	ErrEmbeddingTransport = goerr.New("embedding request failed")
)
