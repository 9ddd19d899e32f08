package domain

// Quiz levels. "all" is the sentinel for an unfiltered attempt.
const (
	LevelBeginner     = "debutant"
	LevelIntermediate = "intermediaire"
	LevelAdvanced     = "avance"
	FilterAll         = "all"
)

// ValidLevel reports whether s is a known level or the "all" sentinel.
func ValidLevel(s string) bool {
	switch s {
	case LevelBeginner, LevelIntermediate, LevelAdvanced, FilterAll:
		return true
	}
	return false
}

// ScoreRecord is one completed quiz attempt. Records are append-only and
// never mutated once persisted.
type ScoreRecord struct {
	Percentage int    `json:"percentage"`
	Category   string `json:"category"`
	Level      string `json:"level"`
	Timestamp  int64  `json:"timestamp"` // epoch milliseconds
}

// Account is a registered user together with its score ledger.
// Username is unique and immutable after creation.
type Account struct {
	ID         string        `json:"id"`
	Username   string        `json:"username"`
	Credential string        `json:"credential"`
	Scores     []ScoreRecord `json:"scores"`
}

// PublicAccount is the credential-free view returned by the API.
type PublicAccount struct {
	ID       string        `json:"id"`
	Username string        `json:"username"`
	Scores   []ScoreRecord `json:"scores"`
}

// Public strips the credential. Scores is never nil in the view so the
// wire shape stays a JSON array.
func (a Account) Public() PublicAccount {
	scores := a.Scores
	if scores == nil {
		scores = []ScoreRecord{}
	}
	return PublicAccount{ID: a.ID, Username: a.Username, Scores: scores}
}

// LeaderboardEntry is one flattened score record, derived on demand and
// never stored.
type LeaderboardEntry struct {
	AccountID  string `json:"accountId"`
	Username   string `json:"username"`
	Percentage int    `json:"percentage"`
	Category   string `json:"category"`
	Level      string `json:"level"`
	Timestamp  int64  `json:"timestamp"`
}

// Question is one multiple-choice question from the bank.
type Question struct {
	ID            string   `json:"id" yaml:"id"`
	Category      string   `json:"category" yaml:"category"`
	Level         string   `json:"level" yaml:"level"`
	Prompt        string   `json:"prompt" yaml:"prompt"`
	Options       []string `json:"options" yaml:"options"`
	CorrectAnswer string   `json:"correctAnswer" yaml:"correctAnswer"`
	Explanation   string   `json:"explanation" yaml:"explanation"`
}

// Category describes one quiz theme for the catalog endpoint.
type Category struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	Levels      map[string]string `json:"levels" yaml:"levels"`
}
