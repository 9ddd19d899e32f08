package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"ilm-quiz-service/internal/domain"
)

// Account keys:
//
//	HSET accounts:byid   {id}       {account JSON}
//	HSET accounts:byname {username} {id}
//	RPUSH accounts:order {id}
//
// The byname hash is the uniqueness index; the order list preserves
// storage (insertion) order for List.
const (
	byIDKey   = "accounts:byid"
	byNameKey = "accounts:byname"
	orderKey  = "accounts:order"
)

// AccountStore is a Redis-backed implementation of app.AccountRepository.
type AccountStore struct {
	client *redis.Client
	newID  func() string
}

func NewAccountStore(client *redis.Client) *AccountStore {
	return &AccountStore{client: client, newID: uuid.NewString}
}

func (s *AccountStore) Create(ctx context.Context, username, credential string) (domain.Account, error) {
	account := domain.Account{
		ID:         s.newID(),
		Username:   username,
		Credential: credential,
		Scores:     []domain.ScoreRecord{},
	}
	data, err := json.Marshal(account)
	if err != nil {
		return domain.Account{}, fmt.Errorf("encode account: %w", err)
	}

	// HSETNX on the username index is the duplicate guard.
	created, err := s.client.HSetNX(ctx, byNameKey, username, account.ID).Result()
	if err != nil {
		return domain.Account{}, fmt.Errorf("index account: %w", err)
	}
	if !created {
		return domain.Account{}, domain.ErrDuplicateUsername
	}

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, byIDKey, account.ID, data)
	pipe.RPush(ctx, orderKey, account.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		// Roll the index back so a later retry of the same username can succeed.
		_ = s.client.HDel(ctx, byNameKey, username).Err()
		return domain.Account{}, fmt.Errorf("store account: %w", err)
	}
	return account, nil
}

func (s *AccountStore) FindByCredential(ctx context.Context, username, credential string) (domain.Account, error) {
	account, err := s.FindByUsername(ctx, username)
	if err != nil {
		return domain.Account{}, err
	}
	if account.Credential != credential {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return account, nil
}

func (s *AccountStore) FindByUsername(ctx context.Context, username string) (domain.Account, error) {
	id, err := s.client.HGet(ctx, byNameKey, username).Result()
	if err == redis.Nil {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("lookup username: %w", err)
	}
	return s.FindByID(ctx, id)
}

func (s *AccountStore) FindByID(ctx context.Context, id string) (domain.Account, error) {
	data, err := s.client.HGet(ctx, byIDKey, id).Result()
	if err == redis.Nil {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("load account: %w", err)
	}
	var account domain.Account
	if err := json.Unmarshal([]byte(data), &account); err != nil {
		return domain.Account{}, fmt.Errorf("decode account: %w", err)
	}
	return account, nil
}

func (s *AccountStore) Exists(ctx context.Context, username string) (bool, error) {
	exists, err := s.client.HExists(ctx, byNameKey, username).Result()
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return exists, nil
}

func (s *AccountStore) ReplaceScores(ctx context.Context, accountID string, scores []domain.ScoreRecord) (domain.Account, error) {
	account, err := s.FindByID(ctx, accountID)
	if err != nil {
		return domain.Account{}, err
	}
	account.Scores = scores
	data, err := json.Marshal(account)
	if err != nil {
		return domain.Account{}, fmt.Errorf("encode account: %w", err)
	}
	if err := s.client.HSet(ctx, byIDKey, account.ID, data).Err(); err != nil {
		return domain.Account{}, fmt.Errorf("store account: %w", err)
	}
	return account, nil
}

func (s *AccountStore) List(ctx context.Context) ([]domain.Account, error) {
	ids, err := s.client.LRange(ctx, orderKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	accounts := make([]domain.Account, 0, len(ids))
	for _, id := range ids {
		account, err := s.FindByID(ctx, id)
		if errors.Is(err, domain.ErrAccountNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}
