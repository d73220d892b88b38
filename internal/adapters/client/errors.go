package client

import "errors"

// Sentinel kinds for client errors.
var (
	ErrStatus  = errors.New("unexpected response status")
	ErrBaseURL = errors.New("invalid base url")
)
