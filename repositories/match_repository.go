package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/IlyaVolvo/spin-master-sub001/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound           = errors.New("match not found")
	ErrMatchParticipantInvalid = errors.New("match participant conflict or invalid")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	CreateBatch(ctx context.Context, exec SQLExecutor, matches []*models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error)
	UpdateResult(ctx context.Context, exec SQLExecutor, match *models.Match) error
	ClearResult(ctx context.Context, exec SQLExecutor, id int) error
	DeleteByIDs(ctx context.Context, exec SQLExecutor, ids []int) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) exec(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, tournament_id, p1_participant_id, p2_participant_id, sets_a, sets_b,
	forfeit_a, forfeit_b, winner_participant_id, round, position,
	rating_before_a, rating_before_b, rating_delta_a, rating_delta_b,
	status, played_at, created_at`

func (r *postgresMatchRepository) scanMatch(rowScanner interface{ Scan(...interface{}) error }) (*models.Match, error) {
	var m models.Match
	err := rowScanner.Scan(
		&m.ID, &m.TournamentID, &m.P1ID, &m.P2ID, &m.SetsA, &m.SetsB,
		&m.ForfeitA, &m.ForfeitB, &m.WinnerID, &m.Round, &m.Position,
		&m.RatingBeforeA, &m.RatingBeforeB, &m.RatingDeltaA, &m.RatingDeltaB,
		&m.Status, &m.PlayedAt, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches
			(tournament_id, p1_participant_id, p2_participant_id, sets_a, sets_b,
			 forfeit_a, forfeit_b, winner_participant_id, round, position,
			 rating_before_a, rating_before_b, rating_delta_a, rating_delta_b, status, played_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at`
	err := r.exec(exec).QueryRowContext(ctx, query,
		match.TournamentID, match.P1ID, match.P2ID, match.SetsA, match.SetsB,
		match.ForfeitA, match.ForfeitB, match.WinnerID, match.Round, match.Position,
		match.RatingBeforeA, match.RatingBeforeB, match.RatingDeltaA, match.RatingDeltaB,
		match.Status, match.PlayedAt,
	).Scan(&match.ID, &match.CreatedAt)
	if isForeignKeyViolation(err) {
		return ErrMatchParticipantInvalid
	}
	return err
}

func (r *postgresMatchRepository) CreateBatch(ctx context.Context, exec SQLExecutor, matches []*models.Match) error {
	for _, m := range matches {
		if err := r.Create(ctx, exec, m); err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return r.scanMatch(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches
		WHERE tournament_id = $1
		ORDER BY round ASC NULLS LAST, position ASC NULLS LAST, id ASC`
	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, errScan := r.scanMatch(rows)
		if errScan != nil {
			return nil, errScan
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		UPDATE matches SET
			sets_a = $1, sets_b = $2, forfeit_a = $3, forfeit_b = $4,
			winner_participant_id = $5, rating_before_a = $6, rating_before_b = $7,
			rating_delta_a = $8, rating_delta_b = $9, status = $10, played_at = $11
		WHERE id = $12`
	result, err := r.exec(exec).ExecContext(ctx, query,
		match.SetsA, match.SetsB, match.ForfeitA, match.ForfeitB,
		match.WinnerID, match.RatingBeforeA, match.RatingBeforeB,
		match.RatingDeltaA, match.RatingDeltaB, match.Status, match.PlayedAt,
		match.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// ClearResult возвращает матч в состояние "запланирован": результат и
// рейтинговые снимки стираются, участники остаются.
func (r *postgresMatchRepository) ClearResult(ctx context.Context, exec SQLExecutor, id int) error {
	query := `
		UPDATE matches SET
			sets_a = 0, sets_b = 0, forfeit_a = FALSE, forfeit_b = FALSE,
			winner_participant_id = NULL, rating_before_a = NULL, rating_before_b = NULL,
			rating_delta_a = NULL, rating_delta_b = NULL, status = 'scheduled', played_at = NULL
		WHERE id = $1`
	result, err := r.exec(exec).ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) DeleteByIDs(ctx context.Context, exec SQLExecutor, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	arr := make([]int64, len(ids))
	for i, id := range ids {
		arr[i] = int64(id)
	}
	_, err := r.exec(exec).ExecContext(ctx, `DELETE FROM matches WHERE id = ANY($1)`, pq.Array(arr))
	return err
}

func (r *postgresMatchRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	_, err := r.exec(exec).ExecContext(ctx, `DELETE FROM matches WHERE tournament_id = $1`, tournamentID)
	return err
}
