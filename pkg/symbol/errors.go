package symbol

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all packages.
var (
	ErrNotFound          = errors.New("not found")
	ErrManifestNotFound  = errors.New("manifest not found")
	ErrManifestRead      = errors.New("manifest read failed")
	ErrMissingHeader     = errors.New("manifest header missing")
	ErrMalformedRecord   = errors.New("malformed record")
	ErrImageLoadFailed   = errors.New("image load failed")
	ErrUnknownSymbol     = errors.New("unknown symbol")
	ErrInvalidVocabulary = errors.New("invalid vocabulary")
)

// RecordError locates a failure at a physical line of a manifest file.
type RecordError struct {
	Path string
	Line int
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// UnknownSymbolError reports a symbol that has no id in the vocabulary in use.
type UnknownSymbolError struct {
	Symbol string
}

func (e *UnknownSymbolError) Error() string {
	return fmt.Sprintf("unknown symbol %q", e.Symbol)
}

func (e *UnknownSymbolError) Unwrap() error { return ErrUnknownSymbol }
