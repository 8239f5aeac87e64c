package domain

import "errors"

var (
	ErrAliasAlreadyUsed    = errors.New("alias already used")
	ErrLinkNotFound        = errors.New("link not found")
	ErrLinkExpired         = errors.New("link expired")
	ErrAllocationExhausted = errors.New("failed to allocate unique alias")

	// ErrAliasConflict is returned by stores when an insert violates the alias
	// or short url uniqueness constraint.
	ErrAliasConflict = errors.New("alias conflict")
)
