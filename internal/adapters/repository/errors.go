package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound          = errors.New("report not found")
	ErrInvalidReport     = errors.New("report needs a tool and a reference")
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)
