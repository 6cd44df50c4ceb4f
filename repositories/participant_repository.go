package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/IlyaVolvo/spin-master-sub001/models"
	"github.com/lib/pq"
)

var (
	ErrParticipantNotFound = errors.New("participant registration not found")
	ErrParticipantConflict = errors.New("player already registered for this tournament")
)

type ParticipantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error
	GetByID(ctx context.Context, id int) (*models.Participant, error)
	GetByTournamentAndPlayer(ctx context.Context, tournamentID, playerID int) (*models.Participant, error)
	ListByTournament(ctx context.Context, tournamentID int, status *models.ParticipantStatus, withPlayers bool) ([]*models.Participant, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.ParticipantStatus) error
	UpdateSeed(ctx context.Context, exec SQLExecutor, id int, seed *int) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) exec(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const participantColumns = `id, player_id, tournament_id, entry_rating, seed, status, invite_token, created_at`

func (r *postgresParticipantRepository) scanParticipant(rowScanner interface{ Scan(...interface{}) error }) (*models.Participant, error) {
	var p models.Participant
	err := rowScanner.Scan(
		&p.ID, &p.PlayerID, &p.TournamentID, &p.EntryRating,
		&p.Seed, &p.Status, &p.InviteToken, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *postgresParticipantRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error {
	query := `
		INSERT INTO participants (player_id, tournament_id, entry_rating, seed, status, invite_token)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	err := r.exec(exec).QueryRowContext(ctx, query,
		p.PlayerID, p.TournamentID, p.EntryRating, p.Seed, p.Status, p.InviteToken,
	).Scan(&p.ID, &p.CreatedAt)
	if isUniqueViolation(err) {
		return ErrParticipantConflict
	}
	return err
}

func (r *postgresParticipantRepository) GetByID(ctx context.Context, id int) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE id = $1`
	return r.scanParticipant(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresParticipantRepository) GetByTournamentAndPlayer(ctx context.Context, tournamentID, playerID int) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE tournament_id = $1 AND player_id = $2`
	return r.scanParticipant(r.db.QueryRowContext(ctx, query, tournamentID, playerID))
}

func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, tournamentID int, status *models.ParticipantStatus, withPlayers bool) ([]*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE tournament_id = $1`
	args := []interface{}{tournamentID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		p, errScan := r.scanParticipant(rows)
		if errScan != nil {
			return nil, errScan
		}
		participants = append(participants, p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	if withPlayers {
		if err := r.attachPlayers(ctx, participants); err != nil {
			return nil, err
		}
	}
	return participants, nil
}

func (r *postgresParticipantRepository) attachPlayers(ctx context.Context, participants []*models.Participant) error {
	if len(participants) == 0 {
		return nil
	}
	byID := make(map[int][]*models.Participant, len(participants))
	ids := make([]int64, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, int64(p.PlayerID))
		byID[p.PlayerID] = append(byID[p.PlayerID], p)
	}
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	playerRepo := &postgresPlayerRepository{db: r.db}
	for rows.Next() {
		player, errScan := playerRepo.scanPlayer(rows)
		if errScan != nil {
			return errScan
		}
		for _, p := range byID[player.ID] {
			p.Player = player
		}
	}
	return rows.Err()
}

func (r *postgresParticipantRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.ParticipantStatus) error {
	result, err := r.exec(exec).ExecContext(ctx,
		`UPDATE participants SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) UpdateSeed(ctx context.Context, exec SQLExecutor, id int, seed *int) error {
	result, err := r.exec(exec).ExecContext(ctx,
		`UPDATE participants SET seed = $1 WHERE id = $2`, seed, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := r.exec(exec).ExecContext(ctx, `DELETE FROM participants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}
