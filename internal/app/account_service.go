package app

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"ilm-quiz-service/internal/domain"
)

// AccountRepository abstracts how accounts are stored (file, Redis, Postgres).
// All mutating methods persist synchronously before returning; a failed write
// must leave the previously persisted state intact.
type AccountRepository interface {
	// Create fails with domain.ErrDuplicateUsername on an exact case-sensitive match.
	Create(ctx context.Context, username, credential string) (domain.Account, error)
	// FindByCredential is a verbatim exact-match lookup on both fields.
	FindByCredential(ctx context.Context, username, credential string) (domain.Account, error)
	FindByUsername(ctx context.Context, username string) (domain.Account, error)
	FindByID(ctx context.Context, id string) (domain.Account, error)
	Exists(ctx context.Context, username string) (bool, error)
	// ReplaceScores overwrites the whole ledger. Two concurrent callers race
	// last-writer-wins on the full sequence; callers append to a prior read.
	ReplaceScores(ctx context.Context, accountID string, scores []domain.ScoreRecord) (domain.Account, error)
	// List returns all accounts in storage order.
	List(ctx context.Context) ([]domain.Account, error)
}

// AuthOptions tune the login/registration behavior.
type AuthOptions struct {
	// PlaintextCredentials stores and compares credentials verbatim, matching
	// the legacy behavior. Default is bcrypt hashing.
	PlaintextCredentials bool
	// UniformLoginErrors collapses unknown-username and wrong-credential into
	// a single ErrBadCredential, hiding account existence.
	UniformLoginErrors bool
}

// AccountService contains the account and scoring use cases.
type AccountService struct {
	repo AccountRepository
	opts AuthOptions
}

func NewAccountService(repo AccountRepository, opts AuthOptions) *AccountService {
	return &AccountService{repo: repo, opts: opts}
}

// Register creates a new account with an empty score ledger.
func (s *AccountService) Register(ctx context.Context, username, credential string) (domain.Account, error) {
	if strings.TrimSpace(username) == "" || credential == "" {
		return domain.Account{}, domain.ErrValidation
	}
	stored := credential
	if !s.opts.PlaintextCredentials {
		hash, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
		if err != nil {
			return domain.Account{}, err
		}
		stored = string(hash)
	}
	return s.repo.Create(ctx, username, stored)
}

// Login authenticates a user and returns the account on success.
// With UniformLoginErrors unset, an unknown username yields ErrUnknownUsername
// and a credential mismatch yields ErrBadCredential.
func (s *AccountService) Login(ctx context.Context, username, credential string) (domain.Account, error) {
	if username == "" || credential == "" {
		return domain.Account{}, domain.ErrValidation
	}

	if s.opts.PlaintextCredentials {
		account, err := s.repo.FindByCredential(ctx, username, credential)
		if err == nil {
			return account, nil
		}
		if !errors.Is(err, domain.ErrAccountNotFound) {
			return domain.Account{}, err
		}
		return domain.Account{}, s.loginFailure(ctx, username)
	}

	account, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.Account{}, s.loginFailure(ctx, username)
		}
		return domain.Account{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(account.Credential), []byte(credential)) != nil {
		return domain.Account{}, domain.ErrBadCredential
	}
	return account, nil
}

// loginFailure decides between unknown-username and bad-credential reporting.
func (s *AccountService) loginFailure(ctx context.Context, username string) error {
	if s.opts.UniformLoginErrors {
		return domain.ErrBadCredential
	}
	exists, err := s.repo.Exists(ctx, username)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrUnknownUsername
	}
	return domain.ErrBadCredential
}

// ReplaceScores validates and stores a full replacement ledger for an account.
func (s *AccountService) ReplaceScores(ctx context.Context, accountID string, scores []domain.ScoreRecord) (domain.Account, error) {
	if accountID == "" || scores == nil {
		return domain.Account{}, domain.ErrValidation
	}
	for _, rec := range scores {
		if err := validateScore(rec); err != nil {
			return domain.Account{}, err
		}
	}
	return s.repo.ReplaceScores(ctx, accountID, scores)
}

// AppendScore reads the current ledger, appends one record, and writes the
// result back. This is a read-modify-write, not an atomic append.
func (s *AccountService) AppendScore(ctx context.Context, accountID string, rec domain.ScoreRecord) (domain.Account, error) {
	if err := validateScore(rec); err != nil {
		return domain.Account{}, err
	}
	account, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		return domain.Account{}, err
	}
	return s.repo.ReplaceScores(ctx, accountID, append(account.Scores, rec))
}

// List returns every account in storage order.
func (s *AccountService) List(ctx context.Context) ([]domain.Account, error) {
	return s.repo.List(ctx)
}

// Leaderboard recomputes the top-n ranking from the current snapshot on every call.
func (s *AccountService) Leaderboard(ctx context.Context, n int) ([]domain.LeaderboardEntry, error) {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return TopN(accounts, n), nil
}

func validateScore(rec domain.ScoreRecord) error {
	if rec.Percentage < 0 || rec.Percentage > 100 {
		return domain.ErrValidation
	}
	if rec.Category == "" || !domain.ValidLevel(rec.Level) {
		return domain.ErrValidation
	}
	return nil
}
