package session

import (
	"testing"
	"time"

	"ilm-quiz-service/internal/domain"
)

func TestFilterCombinesCategoryAndLevel(t *testing.T) {
	pool := testPool()

	filtered := Filter(pool, "coran", domain.LevelBeginner)
	if len(filtered) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(filtered))
	}
	for _, q := range filtered {
		if q.Category != "coran" || q.Level != domain.LevelBeginner {
			t.Fatalf("filter leaked question %+v", q)
		}
	}

	if got := Filter(pool, "", ""); len(got) != len(pool) {
		t.Fatalf("empty filter should match everything, got %d", len(got))
	}
	if got := Filter(pool, domain.FilterAll, domain.FilterAll); len(got) != len(pool) {
		t.Fatalf("all sentinel should match everything, got %d", len(got))
	}
}

func TestEmptyPoolNeverStarts(t *testing.T) {
	if _, err := New(testPool(), "nope", domain.LevelAdvanced); err != domain.ErrNoQuestions {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestConfirmAnswerScoresTrimmedMatch(t *testing.T) {
	attempt := newAttempt(t, "coran", domain.LevelBeginner)

	if err := attempt.SelectAnswer(" 114 "); err != nil {
		t.Fatalf("select: %v", err)
	}
	correct, question, err := attempt.ConfirmAnswer()
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !correct {
		t.Fatalf("trimmed comparison should match")
	}
	if question.Explanation == "" {
		t.Fatalf("confirmation should reveal the explanation")
	}
	if attempt.CorrectCount() != 1 {
		t.Fatalf("expected 1 correct, got %d", attempt.CorrectCount())
	}
}

func TestConfirmAnswerIsIdempotent(t *testing.T) {
	attempt := newAttempt(t, "coran", domain.LevelBeginner)

	if err := attempt.SelectAnswer("114"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, _, err := attempt.ConfirmAnswer(); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, _, err := attempt.ConfirmAnswer(); err != ErrAlreadyAnswered {
		t.Fatalf("expected ErrAlreadyAnswered, got %v", err)
	}
	if attempt.CorrectCount() != 1 {
		t.Fatalf("double confirm changed count to %d", attempt.CorrectCount())
	}
	if err := attempt.SelectAnswer("other"); err != ErrAlreadyAnswered {
		t.Fatalf("selection after answering should be rejected, got %v", err)
	}
}

func TestConfirmRequiresSelection(t *testing.T) {
	attempt := newAttempt(t, "coran", domain.LevelBeginner)
	if _, _, err := attempt.ConfirmAnswer(); err != ErrNoSelection {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
}

func TestTimeExpiryRecordsUnanswered(t *testing.T) {
	attempt := newAttempt(t, "coran", domain.LevelBeginner)

	for i := 0; i < QuestionSeconds-1; i++ {
		if attempt.Tick() {
			t.Fatalf("expired after %d ticks", i+1)
		}
	}
	if !attempt.Tick() {
		t.Fatalf("expected expiry on tick %d", QuestionSeconds)
	}
	if attempt.CorrectCount() != 0 {
		t.Fatalf("expired question must never count as correct")
	}
	if attempt.Advance() {
		t.Fatalf("one question left, should not be completed")
	}
	if attempt.TimeLeft() != QuestionSeconds {
		t.Fatalf("advance should reset the timer, got %d", attempt.TimeLeft())
	}
}

func TestFiveQuestionScenario(t *testing.T) {
	pool := make([]domain.Question, 0, 5)
	for i := 0; i < 5; i++ {
		pool = append(pool, domain.Question{
			ID:            string(rune('a' + i)),
			Category:      "coran",
			Level:         domain.LevelBeginner,
			Prompt:        "q",
			Options:       []string{"yes", "no"},
			CorrectAnswer: "yes",
		})
	}

	at := time.UnixMilli(1700000000000)
	attempt, err := NewWithClock(pool, "coran", domain.LevelBeginner, func() time.Time { return at })
	if err != nil {
		t.Fatalf("new attempt: %v", err)
	}

	// 4 confirmed correct.
	for i := 0; i < 4; i++ {
		if err := attempt.SelectAnswer("yes"); err != nil {
			t.Fatalf("select %d: %v", i, err)
		}
		if _, _, err := attempt.ConfirmAnswer(); err != nil {
			t.Fatalf("confirm %d: %v", i, err)
		}
		if attempt.Advance() {
			t.Fatalf("completed early at question %d", i)
		}
	}

	// Last one times out.
	for !attempt.Tick() {
	}
	if !attempt.Advance() {
		t.Fatalf("expected completion after last question")
	}

	if attempt.FinalScore() != 0.8 {
		t.Fatalf("expected final score 0.8, got %v", attempt.FinalScore())
	}
	rec, err := attempt.Record()
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec.Percentage != 80 {
		t.Fatalf("expected 80%%, got %d", rec.Percentage)
	}
	if rec.Category != "coran" || rec.Level != domain.LevelBeginner {
		t.Fatalf("record carries wrong filter: %+v", rec)
	}
	if rec.Timestamp != at.UnixMilli() {
		t.Fatalf("expected timestamp %d, got %d", at.UnixMilli(), rec.Timestamp)
	}
}

func TestUnfilteredAttemptRecordsAllSentinel(t *testing.T) {
	attempt, err := New(testPool(), "", "")
	if err != nil {
		t.Fatalf("new attempt: %v", err)
	}
	for !attempt.Completed() {
		attempt.Advance()
	}
	rec, err := attempt.Record()
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec.Category != domain.FilterAll || rec.Level != domain.FilterAll {
		t.Fatalf("expected all/all, got %s/%s", rec.Category, rec.Level)
	}
}

func TestRecordBeforeCompletionFails(t *testing.T) {
	attempt := newAttempt(t, "coran", domain.LevelBeginner)
	if _, err := attempt.Record(); err != ErrNotCompleted {
		t.Fatalf("expected ErrNotCompleted, got %v", err)
	}
}

func newAttempt(t *testing.T, category, level string) *Attempt {
	t.Helper()
	attempt, err := New(testPool(), category, level)
	if err != nil {
		t.Fatalf("new attempt: %v", err)
	}
	return attempt
}

func testPool() []domain.Question {
	return []domain.Question{
		{
			ID:            "c1",
			Category:      "coran",
			Level:         domain.LevelBeginner,
			Prompt:        "Combien de sourates compte le Coran ?",
			Options:       []string{"110", "114"},
			CorrectAnswer: "114",
			Explanation:   "Le Coran compte 114 sourates.",
		},
		{
			ID:            "c2",
			Category:      "coran",
			Level:         domain.LevelBeginner,
			Prompt:        "q2",
			Options:       []string{"a", "b"},
			CorrectAnswer: "a",
			Explanation:   "a.",
		},
		{
			ID:            "c3",
			Category:      "coran",
			Level:         domain.LevelAdvanced,
			Prompt:        "q3",
			Options:       []string{"a", "b"},
			CorrectAnswer: "b",
			Explanation:   "b.",
		},
		{
			ID:            "s1",
			Category:      "sira",
			Level:         domain.LevelBeginner,
			Prompt:        "q4",
			Options:       []string{"a", "b"},
			CorrectAnswer: "a",
			Explanation:   "a.",
		},
	}
}
