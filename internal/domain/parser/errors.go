package parser

import "errors"

// Sentinel kinds for parser errors.
var (
	ErrUnknownTool = errors.New("unknown analysis tool")
	ErrParse       = errors.New("report parsing failed")
)
