package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUpstreamUnavailable  = errors.New("upstream unavailable")
	ErrModelUnavailable     = errors.New("model unavailable")
	ErrModelProtocol        = errors.New("model protocol error")
	ErrVectorStore          = errors.New("vector store error")
	ErrTabularStore         = errors.New("tabular store error")
	ErrTabularWriteRejected = errors.New("tabular write rejected")
	ErrInvalidInput         = errors.New("invalid input")
	ErrTemporary            = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
