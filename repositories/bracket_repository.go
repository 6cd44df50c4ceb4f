package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/IlyaVolvo/spin-master-sub001/models"
)

var ErrBracketNodeNotFound = errors.New("bracket node not found")

// BracketNodeRepository хранит узлы сетки плоским списком; структура
// восстанавливается из координат (round, position), связи не хранятся.
type BracketNodeRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, nodes []*models.BracketNode) error
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.BracketNode, error)
	Update(ctx context.Context, exec SQLExecutor, node *models.BracketNode) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresBracketNodeRepository struct {
	db *sql.DB
}

func NewPostgresBracketNodeRepository(db *sql.DB) BracketNodeRepository {
	return &postgresBracketNodeRepository{db: db}
}

func (r *postgresBracketNodeRepository) exec(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresBracketNodeRepository) CreateBatch(ctx context.Context, exec SQLExecutor, nodes []*models.BracketNode) error {
	executor := r.exec(exec)
	query := `
		INSERT INTO bracket_nodes
			(tournament_id, round, position, slot_a_participant_id, slot_a_bye,
			 slot_b_participant_id, slot_b_bye, match_id, winner_participant_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	for _, n := range nodes {
		err := executor.QueryRowContext(ctx, query,
			n.TournamentID, n.Round, n.Position,
			n.SlotA.ParticipantID, n.SlotA.Bye,
			n.SlotB.ParticipantID, n.SlotB.Bye,
			n.MatchID, n.WinnerID,
		).Scan(&n.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresBracketNodeRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.BracketNode, error) {
	query := `
		SELECT id, tournament_id, round, position, slot_a_participant_id, slot_a_bye,
		       slot_b_participant_id, slot_b_bye, match_id, winner_participant_id
		FROM bracket_nodes
		WHERE tournament_id = $1
		ORDER BY round ASC, position ASC`
	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	nodes := make([]*models.BracketNode, 0)
	for rows.Next() {
		var n models.BracketNode
		err := rows.Scan(
			&n.ID, &n.TournamentID, &n.Round, &n.Position,
			&n.SlotA.ParticipantID, &n.SlotA.Bye,
			&n.SlotB.ParticipantID, &n.SlotB.Bye,
			&n.MatchID, &n.WinnerID,
		)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, &n)
	}
	return nodes, rows.Err()
}

func (r *postgresBracketNodeRepository) Update(ctx context.Context, exec SQLExecutor, node *models.BracketNode) error {
	query := `
		UPDATE bracket_nodes SET
			slot_a_participant_id = $1, slot_a_bye = $2,
			slot_b_participant_id = $3, slot_b_bye = $4,
			match_id = $5, winner_participant_id = $6
		WHERE tournament_id = $7 AND round = $8 AND position = $9`
	result, err := r.exec(exec).ExecContext(ctx, query,
		node.SlotA.ParticipantID, node.SlotA.Bye,
		node.SlotB.ParticipantID, node.SlotB.Bye,
		node.MatchID, node.WinnerID,
		node.TournamentID, node.Round, node.Position,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrBracketNodeNotFound)
}

func (r *postgresBracketNodeRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	_, err := r.exec(exec).ExecContext(ctx, `DELETE FROM bracket_nodes WHERE tournament_id = $1`, tournamentID)
	return err
}
