package domain

import "errors"

var (
	ErrBadMatchKey      = errors.New("malformed match key")
	ErrUnknownCategory  = errors.New("unknown category code")
	ErrSheetMissing     = errors.New("required worksheet missing")
	ErrLoginFailed      = errors.New("ccb login failed")
	ErrReportRejected   = errors.New("ccb report retrieval failed")
	ErrCacheUnavailable = errors.New("file cache unavailable")
)
