package app

import (
	"context"

	"ilm-quiz-service/internal/domain"
)

// QuestionRepository loads the question bank (from cache/backing store).
type QuestionRepository interface {
	GetQuestions(ctx context.Context) ([]domain.Question, error)
}
