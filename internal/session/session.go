// Package session implements the per-attempt quiz state machine. An attempt
// walks a filtered question pool one question at a time, tracks the per
// question countdown, and emits exactly one score record on completion.
// Nothing here touches storage; the transport drives the transitions and the
// timer and persists the final record.
package session

import (
	"errors"
	"math"
	"strings"
	"time"

	"ilm-quiz-service/internal/domain"
)

// QuestionSeconds is the per-question time budget.
const QuestionSeconds = 30

var (
	// ErrAlreadyAnswered rejects a second confirmation or a selection change
	// after the question has been answered.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrNoSelection rejects confirmation without a selected answer.
	ErrNoSelection = errors.New("no answer selected")
	// ErrCompleted rejects transitions after the attempt has finished.
	ErrCompleted = errors.New("attempt already completed")
	// ErrNotCompleted guards reading the result of an unfinished attempt.
	ErrNotCompleted = errors.New("attempt not completed")
)

// Filter narrows a question pool by optional category and level, combined
// with logical AND. Empty selectors match everything.
func Filter(pool []domain.Question, category, level string) []domain.Question {
	filtered := make([]domain.Question, 0, len(pool))
	for _, q := range pool {
		if category != "" && category != domain.FilterAll && q.Category != category {
			continue
		}
		if level != "" && level != domain.FilterAll && q.Level != level {
			continue
		}
		filtered = append(filtered, q)
	}
	return filtered
}

// Attempt is one quiz run. It is not safe for concurrent use; the caller
// serializes access.
type Attempt struct {
	questions []domain.Question
	category  string
	level     string

	index     int
	timeLeft  int
	selected  string
	answered  bool
	correct   int
	completed bool

	now func() time.Time
}

// New builds an attempt over the pool filtered by category and level.
// An empty filtered pool is a terminal condition, reported as
// domain.ErrNoQuestions before any question is entered.
func New(pool []domain.Question, category, level string) (*Attempt, error) {
	return NewWithClock(pool, category, level, time.Now)
}

// NewWithClock is test-only for deterministic record timestamps.
func NewWithClock(pool []domain.Question, category, level string, now func() time.Time) (*Attempt, error) {
	questions := Filter(pool, category, level)
	if len(questions) == 0 {
		return nil, domain.ErrNoQuestions
	}
	if category == "" {
		category = domain.FilterAll
	}
	if level == "" {
		level = domain.FilterAll
	}
	return &Attempt{
		questions: questions,
		category:  category,
		level:     level,
		timeLeft:  QuestionSeconds,
		now:       now,
	}, nil
}

// Current returns the question under play.
func (a *Attempt) Current() (domain.Question, bool) {
	if a.completed {
		return domain.Question{}, false
	}
	return a.questions[a.index], true
}

// Index returns the zero-based current question index.
func (a *Attempt) Index() int { return a.index }

// Total returns the filtered question count.
func (a *Attempt) Total() int { return len(a.questions) }

// TimeLeft returns the remaining seconds for the current question.
func (a *Attempt) TimeLeft() int { return a.timeLeft }

// CorrectCount returns the number of confirmed correct answers so far.
func (a *Attempt) CorrectCount() int { return a.correct }

// Answered reports whether the current question has been confirmed.
func (a *Attempt) Answered() bool { return a.answered }

// Completed reports whether the attempt has run out of questions.
func (a *Attempt) Completed() bool { return a.completed }

// SelectAnswer records a tentative choice. Only allowed while the current
// question is unanswered; it has no effect on the score.
func (a *Attempt) SelectAnswer(option string) error {
	if a.completed {
		return ErrCompleted
	}
	if a.answered {
		return ErrAlreadyAnswered
	}
	a.selected = option
	return nil
}

// ConfirmAnswer scores the selected answer against the correct one using
// trimmed exact string equality. It is allowed once per question; the guard
// makes double confirmation a no-op error so the count moves by at most one.
func (a *Attempt) ConfirmAnswer() (bool, domain.Question, error) {
	if a.completed {
		return false, domain.Question{}, ErrCompleted
	}
	if a.answered {
		return false, domain.Question{}, ErrAlreadyAnswered
	}
	if a.selected == "" {
		return false, domain.Question{}, ErrNoSelection
	}

	question := a.questions[a.index]
	correct := strings.TrimSpace(a.selected) == strings.TrimSpace(question.CorrectAnswer)
	if correct {
		a.correct++
	}
	a.answered = true
	return correct, question, nil
}

// Tick burns one second of the current question's budget and reports whether
// it expired. An expired unanswered question is closed with no credit; the
// caller then calls Advance.
func (a *Attempt) Tick() bool {
	if a.completed || a.answered {
		return false
	}
	if a.timeLeft > 0 {
		a.timeLeft--
	}
	if a.timeLeft > 0 {
		return false
	}
	a.answered = true
	return true
}

// Advance moves to the next question, resetting the timer and the transient
// selection. Past the last question the attempt completes.
func (a *Attempt) Advance() bool {
	if a.completed {
		return true
	}
	a.index++
	a.selected = ""
	a.answered = false
	a.timeLeft = QuestionSeconds
	if a.index >= len(a.questions) {
		a.completed = true
	}
	return a.completed
}

// FinalScore is correctCount / totalQuestions, valid once completed.
func (a *Attempt) FinalScore() float64 {
	return float64(a.correct) / float64(len(a.questions))
}

// Record emits the single score record for a completed attempt. Category and
// level come from the attempt's filter, or "all" when unset.
func (a *Attempt) Record() (domain.ScoreRecord, error) {
	if !a.completed {
		return domain.ScoreRecord{}, ErrNotCompleted
	}
	return domain.ScoreRecord{
		Percentage: int(math.Round(a.FinalScore() * 100)),
		Category:   a.category,
		Level:      a.level,
		Timestamp:  a.now().UnixMilli(),
	}, nil
}
