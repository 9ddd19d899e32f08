package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"ilm-quiz-service/internal/domain"
)

// QuestionLoader loads question JSONB rows from Postgres.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `SELECT data FROM questions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		var q domain.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, fmt.Errorf("unmarshal question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return questions, nil
}
