package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"ilm-quiz-service/internal/domain"
)

// QuestionLoader fetches the question bank from a backing store (YAML file, Postgres).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

// QuestionRepository caches the bank with TTL to avoid repeated backing-store hits.
type QuestionRepository struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	cached    []domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) GetQuestions(ctx context.Context) ([]domain.Question, error) {
	now := r.clock()

	r.mu.RLock()
	if r.cached != nil && r.expiresAt.After(now) {
		questions := r.cached
		r.mu.RUnlock()
		return questions, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do("bank", func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if r.cached != nil && r.expiresAt.After(now) {
			questions := r.cached
			r.mu.RUnlock()
			return questions, nil
		}
		r.mu.RUnlock()

		questions, err := r.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cached = questions
		r.expiresAt = now.Add(r.ttlWithJitter())
		r.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// StaticQuestionLoader serves a fixed in-memory bank (useful for tests/demos).
type StaticQuestionLoader struct {
	questions []domain.Question
}

func NewStaticQuestionLoader(questions []domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{questions: questions}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	return l.questions, nil
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
