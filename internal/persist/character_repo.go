package persist

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNameTaken reports a character name that already belongs to someone.
var ErrNameTaken = errors.New("character name already taken")

type CharacterRow struct {
	ID         int32
	AccountID  int32
	Name       string
	Model      int16
	Level      int16
	Experience int64
	MapIndex   int32
	PosX       float32
	PosZ       float32
	Health     int32
	Mana       int32
}

type CharacterRepo struct {
	db *DB
}

func NewCharacterRepo(db *DB) *CharacterRepo {
	return &CharacterRepo{db: db}
}

func (r *CharacterRepo) Create(ctx context.Context, accountID int32, name string, model int16) (*CharacterRow, error) {
	row := &CharacterRow{AccountID: accountID, Name: name, Model: model}
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO characters (account_id, name, model)
		 VALUES ($1, $2, $3)
		 RETURNING id, level, experience, map_index, pos_x, pos_z, health, mana`,
		accountID, name, model,
	).Scan(&row.ID, &row.Level, &row.Experience, &row.MapIndex,
		&row.PosX, &row.PosZ, &row.Health, &row.Mana)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrNameTaken
		}
		return nil, err
	}
	return row, nil
}

func (r *CharacterRepo) ListByAccount(ctx context.Context, accountID int32) ([]*CharacterRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, account_id, name, model, level, experience, map_index,
		        pos_x, pos_z, health, mana
		 FROM characters WHERE account_id = $1 ORDER BY id`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*CharacterRow
	for rows.Next() {
		row := &CharacterRow{}
		if err := rows.Scan(&row.ID, &row.AccountID, &row.Name, &row.Model,
			&row.Level, &row.Experience, &row.MapIndex,
			&row.PosX, &row.PosZ, &row.Health, &row.Mana); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Update writes back the mutable state of a character after play.
func (r *CharacterRepo) Update(ctx context.Context, row *CharacterRow) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE characters
		 SET level = $2, experience = $3, map_index = $4,
		     pos_x = $5, pos_z = $6, health = $7, mana = $8
		 WHERE id = $1`,
		row.ID, row.Level, row.Experience, row.MapIndex,
		row.PosX, row.PosZ, row.Health, row.Mana)
	return err
}

// Delete removes a character, requiring the owning account and the exact
// name so a stale client cannot delete by id alone.
func (r *CharacterRepo) Delete(ctx context.Context, accountID, characterID int32, name string) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM characters WHERE id = $1 AND account_id = $2 AND name = $3`,
		characterID, accountID, name)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
