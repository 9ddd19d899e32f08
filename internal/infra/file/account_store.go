package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"ilm-quiz-service/internal/domain"
)

// AccountStore persists the whole account collection as one JSON document.
// Every operation reads the full file, mutates an in-memory copy, and writes
// the full file back. A mutex serializes writers within the process; writes
// go through a temp file and rename so a failed write leaves the previous
// document intact.
type AccountStore struct {
	path  string
	mu    sync.Mutex
	newID func() string
}

func NewAccountStore(path string) *AccountStore {
	return &AccountStore{path: path, newID: uuid.NewString}
}

func (s *AccountStore) Create(ctx context.Context, username, credential string) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load()
	if err != nil {
		return domain.Account{}, err
	}
	for _, a := range accounts {
		if a.Username == username {
			return domain.Account{}, domain.ErrDuplicateUsername
		}
	}

	account := domain.Account{
		ID:         s.newID(),
		Username:   username,
		Credential: credential,
		Scores:     []domain.ScoreRecord{},
	}
	if err := s.save(append(accounts, account)); err != nil {
		return domain.Account{}, err
	}
	return account, nil
}

func (s *AccountStore) FindByCredential(ctx context.Context, username, credential string) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load()
	if err != nil {
		return domain.Account{}, err
	}
	for _, a := range accounts {
		if a.Username == username && a.Credential == credential {
			return a, nil
		}
	}
	return domain.Account{}, domain.ErrAccountNotFound
}

func (s *AccountStore) FindByUsername(ctx context.Context, username string) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load()
	if err != nil {
		return domain.Account{}, err
	}
	for _, a := range accounts {
		if a.Username == username {
			return a, nil
		}
	}
	return domain.Account{}, domain.ErrAccountNotFound
}

func (s *AccountStore) FindByID(ctx context.Context, id string) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load()
	if err != nil {
		return domain.Account{}, err
	}
	for _, a := range accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return domain.Account{}, domain.ErrAccountNotFound
}

func (s *AccountStore) Exists(ctx context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load()
	if err != nil {
		return false, err
	}
	for _, a := range accounts {
		if a.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (s *AccountStore) ReplaceScores(ctx context.Context, accountID string, scores []domain.ScoreRecord) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load()
	if err != nil {
		return domain.Account{}, err
	}
	for i := range accounts {
		if accounts[i].ID == accountID {
			accounts[i].Scores = scores
			if err := s.save(accounts); err != nil {
				return domain.Account{}, err
			}
			return accounts[i], nil
		}
	}
	return domain.Account{}, domain.ErrAccountNotFound
}

func (s *AccountStore) List(ctx context.Context) ([]domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// load reads the collection, creating an empty document on first access.
func (s *AccountStore) load() ([]domain.Account, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		if err := s.save([]domain.Account{}); err != nil {
			return nil, err
		}
		return []domain.Account{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read accounts: %w", err)
	}
	var accounts []domain.Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}
	return accounts, nil
}

// save writes the full collection through a temp file and an atomic rename.
func (s *AccountStore) save(accounts []domain.Account) error {
	data, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return fmt.Errorf("encode accounts: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "accounts-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write accounts: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace accounts file: %w", err)
	}
	return nil
}
