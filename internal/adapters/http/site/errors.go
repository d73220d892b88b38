package site

import "errors"

// Sentinel kinds for page errors.
var (
	ErrMissingParam = errors.New("missing query parameter")
	ErrMissingFile  = errors.New("missing report file")
	ErrRender       = errors.New("page render failed")
)
