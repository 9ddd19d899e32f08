package app

import (
	"sort"

	"ilm-quiz-service/internal/domain"
)

// TopN flattens every score record of every account into leaderboard entries,
// sorted by percentage descending with ties broken by the more recent
// timestamp. Fewer than n entries returns all of them.
func TopN(accounts []domain.Account, n int) []domain.LeaderboardEntry {
	entries := make([]domain.LeaderboardEntry, 0, len(accounts))
	for _, account := range accounts {
		for _, rec := range account.Scores {
			entries = append(entries, domain.LeaderboardEntry{
				AccountID:  account.ID,
				Username:   account.Username,
				Percentage: rec.Percentage,
				Category:   rec.Category,
				Level:      rec.Level,
				Timestamp:  rec.Timestamp,
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Percentage != entries[j].Percentage {
			return entries[i].Percentage > entries[j].Percentage
		}
		return entries[i].Timestamp > entries[j].Timestamp
	})

	if n < 0 {
		n = 0
	}
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
