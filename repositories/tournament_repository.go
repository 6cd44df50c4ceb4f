package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/IlyaVolvo/spin-master-sub001/models"
)

var (
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentNameConflict = errors.New("tournament name already exists")
)

// TournamentFilter ограничивает выборку списка турниров.
type TournamentFilter struct {
	Status      *models.TournamentStatus
	Format      *models.FormatTag
	OrganizerID *int
	ParentID    *int
	TopLevel    bool // только турниры без родителя
}

type TournamentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, filter TournamentFilter) ([]*models.Tournament, error)
	ListChildren(ctx context.Context, parentID int) ([]*models.Tournament, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus, cancelled bool) error
	UpdateLogoKey(ctx context.Context, id int, key *string) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	ListDueForStatusChange(ctx context.Context, now time.Time) ([]*models.Tournament, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) exec(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `id, name, description, format, organizer_id, status, cancelled,
	reg_date, start_date, end_date, location, max_participants, swiss_rounds,
	group_count, advance_per_group, parent_id, stage, logo_key, created_at`

func (r *postgresTournamentRepository) scanTournament(rowScanner interface{ Scan(...interface{}) error }) (*models.Tournament, error) {
	var t models.Tournament
	err := rowScanner.Scan(
		&t.ID, &t.Name, &t.Description, &t.Format, &t.OrganizerID, &t.Status, &t.Cancelled,
		&t.RegDate, &t.StartDate, &t.EndDate, &t.Location, &t.MaxParticipants, &t.SwissRounds,
		&t.GroupCount, &t.AdvancePerGroup, &t.ParentID, &t.Stage, &t.LogoKey, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *postgresTournamentRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments
			(name, description, format, organizer_id, status, reg_date, start_date, end_date,
			 location, max_participants, swiss_rounds, group_count, advance_per_group, parent_id, stage)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at`
	err := r.exec(exec).QueryRowContext(ctx, query,
		t.Name, t.Description, t.Format, t.OrganizerID, t.Status, t.RegDate, t.StartDate, t.EndDate,
		t.Location, t.MaxParticipants, t.SwissRounds, t.GroupCount, t.AdvancePerGroup, t.ParentID, t.Stage,
	).Scan(&t.ID, &t.CreatedAt)
	if isUniqueViolation(err) {
		return ErrTournamentNameConflict
	}
	return err
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	return r.scanTournament(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter TournamentFilter) ([]*models.Tournament, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + tournamentColumns + ` FROM tournaments WHERE 1=1`)
	args := make([]interface{}, 0, 4)

	addArg := func(clause string, value interface{}) {
		args = append(args, value)
		sb.WriteString(" AND " + clause + "$" + strconv.Itoa(len(args)))
	}
	if filter.Status != nil {
		addArg("status = ", *filter.Status)
	}
	if filter.Format != nil {
		addArg("format = ", *filter.Format)
	}
	if filter.OrganizerID != nil {
		addArg("organizer_id = ", *filter.OrganizerID)
	}
	if filter.ParentID != nil {
		addArg("parent_id = ", *filter.ParentID)
	} else if filter.TopLevel {
		sb.WriteString(" AND parent_id IS NULL")
	}
	sb.WriteString(" ORDER BY start_date DESC, id DESC")

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t, errScan := r.scanTournament(rows)
		if errScan != nil {
			return nil, errScan
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

func (r *postgresTournamentRepository) ListChildren(ctx context.Context, parentID int) ([]*models.Tournament, error) {
	return r.List(ctx, TournamentFilter{ParentID: &parentID})
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus, cancelled bool) error {
	result, err := r.exec(exec).ExecContext(ctx,
		`UPDATE tournaments SET status = $1, cancelled = $2 WHERE id = $3`, status, cancelled, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateLogoKey(ctx context.Context, id int, key *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tournaments SET logo_key = $1 WHERE id = $2`, key, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := r.exec(exec).ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// ListDueForStatusChange возвращает турниры, чей статус пора продвинуть
// по датам: открыть регистрацию или стартовать.
func (r *postgresTournamentRepository) ListDueForStatusChange(ctx context.Context, now time.Time) ([]*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments
		WHERE (status = 'soon' AND reg_date <= $1)
		   OR (status = 'registration' AND start_date <= $1)`
	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t, errScan := r.scanTournament(rows)
		if errScan != nil {
			return nil, errScan
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}
