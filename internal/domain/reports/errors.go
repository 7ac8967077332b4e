package reports

import "errors"

var (
	ErrUnknownKind = errors.New("unknown report type")
	ErrUnknownMode = errors.New("unknown summary mode")
)
