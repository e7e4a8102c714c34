package store

import "errors"

var (
	ErrNotFound       = errors.New("object not found")
	ErrInvalidName    = errors.New("invalid object name")
	ErrInvalidIndex   = errors.New("invalid chunk index")
	ErrInvalidLength  = errors.New("invalid length")
	ErrEmptyChunk     = errors.New("empty chunk")
	ErrChunkTooLarge  = errors.New("chunk larger than chunk size")
	ErrObjectTooLarge = errors.New("object larger than max object size")
)
