package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
	"ilm-quiz-service/internal/domain"
)

type accountRow struct {
	bun.BaseModel `bun:"table:accounts"`

	ID         string               `bun:"id,pk"`
	Username   string               `bun:"username"`
	Credential string               `bun:"credential"`
	Scores     []domain.ScoreRecord `bun:"scores,type:jsonb"`
	Ord        int64                `bun:"ord,scanonly"`
}

func (r accountRow) account() domain.Account {
	scores := r.Scores
	if scores == nil {
		scores = []domain.ScoreRecord{}
	}
	return domain.Account{ID: r.ID, Username: r.Username, Credential: r.Credential, Scores: scores}
}

// AccountStore is a Postgres-backed implementation of app.AccountRepository
// using bun. Scores live as a JSONB column, replaced wholesale on update.
type AccountStore struct {
	db    *bun.DB
	newID func() string
}

func NewAccountStore(db *bun.DB) *AccountStore {
	return &AccountStore{db: db, newID: uuid.NewString}
}

func (s *AccountStore) Create(ctx context.Context, username, credential string) (domain.Account, error) {
	row := accountRow{
		ID:         s.newID(),
		Username:   username,
		Credential: credential,
		Scores:     []domain.ScoreRecord{},
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return domain.Account{}, domain.ErrDuplicateUsername
		}
		return domain.Account{}, fmt.Errorf("insert account: %w", err)
	}
	return row.account(), nil
}

func (s *AccountStore) FindByCredential(ctx context.Context, username, credential string) (domain.Account, error) {
	var row accountRow
	err := s.db.NewSelect().Model(&row).
		Where("username = ?", username).
		Where("credential = ?", credential).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("select account: %w", err)
	}
	return row.account(), nil
}

func (s *AccountStore) FindByUsername(ctx context.Context, username string) (domain.Account, error) {
	var row accountRow
	err := s.db.NewSelect().Model(&row).Where("username = ?", username).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("select account: %w", err)
	}
	return row.account(), nil
}

func (s *AccountStore) FindByID(ctx context.Context, id string) (domain.Account, error) {
	var row accountRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("select account: %w", err)
	}
	return row.account(), nil
}

func (s *AccountStore) Exists(ctx context.Context, username string) (bool, error) {
	exists, err := s.db.NewSelect().Model((*accountRow)(nil)).
		Where("username = ?", username).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return exists, nil
}

func (s *AccountStore) ReplaceScores(ctx context.Context, accountID string, scores []domain.ScoreRecord) (domain.Account, error) {
	data, err := json.Marshal(scores)
	if err != nil {
		return domain.Account{}, fmt.Errorf("encode scores: %w", err)
	}
	res, err := s.db.NewUpdate().Model((*accountRow)(nil)).
		Set("scores = ?::jsonb", string(data)).
		Where("id = ?", accountID).
		Exec(ctx)
	if err != nil {
		return domain.Account{}, fmt.Errorf("update scores: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Account{}, fmt.Errorf("update scores: %w", err)
	}
	if affected == 0 {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return s.FindByID(ctx, accountID)
}

func (s *AccountStore) List(ctx context.Context) ([]domain.Account, error) {
	var rows []accountRow
	if err := s.db.NewSelect().Model(&rows).Order("ord ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	accounts := make([]domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, row.account())
	}
	return accounts, nil
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == "23505"
}
