package ports

import (
	"context"

	"github.com/pongchanan/Healthcare-AI/internal/core/domain"
)

// AnswerService is the inbound contract for the question-answering pipelines.
type AnswerService interface {
	Ask(ctx context.Context, question string) (*domain.Answer, error)
}
