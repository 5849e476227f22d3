package fetch

import "errors"

var (
	ErrNotFound    = errors.New("replay file not found on host")
	ErrRateLimited = errors.New("rate limited by replay host")
	ErrIncomplete  = errors.New("replay incomplete")
)
