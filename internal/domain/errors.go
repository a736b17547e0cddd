package domain

import "errors"

var (
	// ErrEmptyQuery signals a missing or blank search query.
	ErrEmptyQuery = errors.New("query is required")
	// ErrQueryTooLong signals a query over the MaxQueryLength limit.
	ErrQueryTooLong = errors.New("query too long")
	// ErrInvalidFilter signals a malformed search filter.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrUnknownScope signals an unrecognized search scope (caller bug).
	ErrUnknownScope = errors.New("unknown search scope")
	// ErrUnknownStrategy signals an unregistered cache strategy name (config bug).
	ErrUnknownStrategy = errors.New("unknown cache strategy")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProvider signals an embedding provider failure (retryable).
	ErrEmbeddingProvider = errors.New("embedding provider error")
)
