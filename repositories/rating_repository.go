package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/IlyaVolvo/spin-master-sub001/models"
	"github.com/lib/pq"
)

var ErrRatingChangeNotFound = errors.New("rating change not found")

// RatingChangeRepository — журнал изменений рейтинга. Строки добавляются
// в той же транзакции, что и результат матча, и удаляются только при
// откате этого результата; задним числом они никогда не правятся.
type RatingChangeRepository interface {
	Create(ctx context.Context, exec SQLExecutor, change *models.RatingChange) error
	ListByPlayer(ctx context.Context, playerID int) ([]*models.RatingChange, error)
	ListByMatchIDs(ctx context.Context, exec SQLExecutor, matchIDs []int) ([]*models.RatingChange, error)
	DeleteByMatchIDs(ctx context.Context, exec SQLExecutor, matchIDs []int) error
}

type postgresRatingChangeRepository struct {
	db *sql.DB
}

func NewPostgresRatingChangeRepository(db *sql.DB) RatingChangeRepository {
	return &postgresRatingChangeRepository{db: db}
}

func (r *postgresRatingChangeRepository) exec(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRatingChangeRepository) Create(ctx context.Context, exec SQLExecutor, change *models.RatingChange) error {
	query := `
		INSERT INTO rating_changes (player_id, match_id, tournament_id, rating_before, delta)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	return r.exec(exec).QueryRowContext(ctx, query,
		change.PlayerID, change.MatchID, change.TournamentID, change.RatingBefore, change.Delta,
	).Scan(&change.ID, &change.CreatedAt)
}

func (r *postgresRatingChangeRepository) ListByPlayer(ctx context.Context, playerID int) ([]*models.RatingChange, error) {
	query := `
		SELECT id, player_id, match_id, tournament_id, rating_before, delta, created_at
		FROM rating_changes
		WHERE player_id = $1
		ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRatingChanges(rows)
}

func (r *postgresRatingChangeRepository) ListByMatchIDs(ctx context.Context, exec SQLExecutor, matchIDs []int) ([]*models.RatingChange, error) {
	if len(matchIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT id, player_id, match_id, tournament_id, rating_before, delta, created_at
		FROM rating_changes
		WHERE match_id = ANY($1)`
	rows, err := r.exec(exec).QueryContext(ctx, query, pq.Array(toInt64(matchIDs)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRatingChanges(rows)
}

func (r *postgresRatingChangeRepository) DeleteByMatchIDs(ctx context.Context, exec SQLExecutor, matchIDs []int) error {
	if len(matchIDs) == 0 {
		return nil
	}
	_, err := r.exec(exec).ExecContext(ctx,
		`DELETE FROM rating_changes WHERE match_id = ANY($1)`, pq.Array(toInt64(matchIDs)))
	return err
}

func scanRatingChanges(rows *sql.Rows) ([]*models.RatingChange, error) {
	changes := make([]*models.RatingChange, 0)
	for rows.Next() {
		var c models.RatingChange
		err := rows.Scan(&c.ID, &c.PlayerID, &c.MatchID, &c.TournamentID, &c.RatingBefore, &c.Delta, &c.CreatedAt)
		if err != nil {
			return nil, err
		}
		changes = append(changes, &c)
	}
	return changes, rows.Err()
}

func toInt64(ids []int) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
