package app_test

import (
	"testing"

	"ilm-quiz-service/internal/app"
	"ilm-quiz-service/internal/domain"
)

func TestTopNOrdersByPercentageThenRecency(t *testing.T) {
	accounts := []domain.Account{
		{
			ID:       "u1",
			Username: "amina",
			Scores: []domain.ScoreRecord{
				{Percentage: 90, Category: "coran", Level: "debutant", Timestamp: 1000},
				{Percentage: 80, Category: "sira", Level: "avance", Timestamp: 3000},
			},
		},
		{
			ID:       "u2",
			Username: "bilal",
			Scores: []domain.ScoreRecord{
				{Percentage: 90, Category: "fiqh", Level: "intermediaire", Timestamp: 2000},
			},
		},
	}

	top := app.TopN(accounts, 3)
	if len(top) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(top))
	}
	// Tied at 90: the more recent attempt ranks higher.
	if top[0].Username != "bilal" || top[0].Timestamp != 2000 {
		t.Fatalf("expected bilal@2000 first, got %+v", top[0])
	}
	if top[1].Username != "amina" || top[1].Timestamp != 1000 {
		t.Fatalf("expected amina@1000 second, got %+v", top[1])
	}
	if top[2].Percentage != 80 {
		t.Fatalf("expected 80%% third, got %+v", top[2])
	}
}

func TestTopNReturnsFewerWhenShort(t *testing.T) {
	accounts := []domain.Account{
		{ID: "u1", Username: "amina", Scores: []domain.ScoreRecord{{Percentage: 50, Category: "coran", Level: "all", Timestamp: 1}}},
	}
	if got := app.TopN(accounts, 3); len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	if got := app.TopN(nil, 3); len(got) != 0 {
		t.Fatalf("expected empty leaderboard, got %d", len(got))
	}
}

func TestTopNSlicesToN(t *testing.T) {
	account := domain.Account{ID: "u1", Username: "amina"}
	for i := 0; i < 10; i++ {
		account.Scores = append(account.Scores, domain.ScoreRecord{
			Percentage: i * 10, Category: "coran", Level: "all", Timestamp: int64(i),
		})
	}
	top := app.TopN([]domain.Account{account}, 3)
	if len(top) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(top))
	}
	if top[0].Percentage != 90 || top[2].Percentage != 70 {
		t.Fatalf("expected 90..70, got %+v", top)
	}
}
