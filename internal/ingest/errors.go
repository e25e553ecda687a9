package ingest

import "errors"

// ErrUnknownKind is returned for events that are neither progress nor quiz.
var ErrUnknownKind = errors.New("unknown event kind")
