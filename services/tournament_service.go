package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/IlyaVolvo/spin-master-sub001/brackets"
	"github.com/IlyaVolvo/spin-master-sub001/formats"
	"github.com/IlyaVolvo/spin-master-sub001/models"
	"github.com/IlyaVolvo/spin-master-sub001/repositories"
	"github.com/IlyaVolvo/spin-master-sub001/storage"
)

type CreateTournamentInput struct {
	Name            string           `json:"name"`
	Description     *string          `json:"description"`
	Format          models.FormatTag `json:"format"`
	RegDate         time.Time        `json:"reg_date"`
	StartDate       time.Time        `json:"start_date"`
	EndDate         time.Time        `json:"end_date"`
	Location        *string          `json:"location"`
	MaxParticipants int              `json:"max_participants"`
	SwissRounds     *int             `json:"swiss_rounds"`
	// Для составных форматов: число предварительных групп и сколько
	// игроков из каждой выходит в финальную стадию.
	PreliminaryGroups int `json:"preliminary_groups"`
	AdvancePerGroup   int `json:"advance_per_group"`
}

type TournamentService interface {
	Create(ctx context.Context, organizerID int, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, filter repositories.TournamentFilter) ([]*models.Tournament, error)
	Start(ctx context.Context, id int) (*models.Tournament, error)
	Complete(ctx context.Context, id int) (*models.Tournament, error)
	Cancel(ctx context.Context, id int) error
	Delete(ctx context.Context, id int) error
	SeedFinalStage(ctx context.Context, parentID int) (*models.Tournament, error)
	UploadLogo(ctx context.Context, id int, filename, contentType string, reader io.Reader) (*models.Tournament, error)
	AutoUpdateStatusesByDates(ctx context.Context) error
}

type tournamentService struct {
	db              *sql.DB
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	nodeRepo        repositories.BracketNodeRepository
	playerRepo      repositories.PlayerRepository
	hub             *brackets.Hub
	uploader        storage.FileUploader
	logger          *slog.Logger
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	nodeRepo repositories.BracketNodeRepository,
	playerRepo repositories.PlayerRepository,
	hub *brackets.Hub,
	uploader storage.FileUploader,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		db:              db,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		nodeRepo:        nodeRepo,
		playerRepo:      playerRepo,
		hub:             hub,
		uploader:        uploader,
		logger:          logger,
	}
}

func (s *tournamentService) Create(ctx context.Context, organizerID int, input CreateTournamentInput) (*models.Tournament, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: tournament name is required", ErrValidationFailed)
	}
	if !input.RegDate.Before(input.StartDate) {
		return nil, ErrTournamentInvalidRegDate
	}
	if !input.StartDate.Before(input.EndDate) {
		return nil, ErrTournamentInvalidDateRange
	}
	if input.MaxParticipants <= 0 {
		return nil, ErrTournamentInvalidCapacity
	}
	if _, err := formats.Lookup(input.Format); err != nil {
		return nil, err
	}
	if input.Format == models.FormatSwiss && input.SwissRounds == nil {
		return nil, fmt.Errorf("%w: swiss format requires a round count", ErrValidationFailed)
	}
	if input.Format.Compound() && (input.PreliminaryGroups < 1 || input.AdvancePerGroup < 1) {
		return nil, fmt.Errorf("%w: compound format requires preliminary_groups and advance_per_group", ErrValidationFailed)
	}

	tournament := &models.Tournament{
		Name:            input.Name,
		Description:     input.Description,
		Format:          input.Format,
		OrganizerID:     organizerID,
		Status:          models.StatusSoon,
		RegDate:         input.RegDate,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
		Location:        input.Location,
		MaxParticipants: input.MaxParticipants,
		SwissRounds:     input.SwissRounds,
	}
	if input.Format.Compound() {
		tournament.GroupCount = &input.PreliminaryGroups
		tournament.AdvancePerGroup = &input.AdvancePerGroup
	}
	if err := s.tournamentRepo.Create(ctx, nil, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, ErrTournamentConflict
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	return tournament, nil
}

// GetByID загружает турнир вместе со структурой: участники, матчи, узлы
// сетки и дочерние турниры подтягиваются параллельно.
func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		participants, err := s.participantRepo.ListByTournament(gCtx, id, nil, true)
		if err != nil {
			return fmt.Errorf("failed to load participants: %w", err)
		}
		tournament.Participants = participants
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.ListByTournament(gCtx, id)
		if err != nil {
			return fmt.Errorf("failed to load matches: %w", err)
		}
		tournament.Matches = matches
		return nil
	})
	g.Go(func() error {
		nodes, err := s.nodeRepo.ListByTournament(gCtx, id)
		if err != nil {
			return fmt.Errorf("failed to load bracket nodes: %w", err)
		}
		tournament.Nodes = nodes
		return nil
	})
	if tournament.Format.Compound() {
		g.Go(func() error {
			children, err := s.tournamentRepo.ListChildren(gCtx, id)
			if err != nil {
				return fmt.Errorf("failed to load child tournaments: %w", err)
			}
			for _, child := range children {
				loaded, err := s.GetByID(gCtx, child.ID)
				if err != nil {
					return err
				}
				*child = *loaded
			}
			tournament.Children = children
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.fillLogoURL(tournament)
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context, filter repositories.TournamentFilter) ([]*models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, t := range tournaments {
		s.fillLogoURL(t)
	}
	return tournaments, nil
}

func (s *tournamentService) UploadLogo(ctx context.Context, id int, filename, contentType string, reader io.Reader) (*models.Tournament, error) {
	tournament, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.uploader == nil {
		return nil, fmt.Errorf("%w: object storage is not configured", ErrValidationFailed)
	}

	key := storage.LogoKey(id, path.Ext(filename))
	result, err := s.uploader.Upload(ctx, key, contentType, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to upload logo: %w", err)
	}
	if err := s.tournamentRepo.UpdateLogoKey(ctx, id, &result.Key); err != nil {
		return nil, err
	}
	tournament.LogoKey = &result.Key
	tournament.LogoURL = &result.Location
	return tournament, nil
}

func (s *tournamentService) fillLogoURL(t *models.Tournament) {
	if s.uploader == nil || t.LogoKey == nil {
		return
	}
	if u := s.uploader.GetPublicURL(*t.LogoKey); u != "" {
		t.LogoURL = &u
	}
}

// Start переводит турнир в active и строит структуру соревнования для
// подтверждённых участников. Для составных форматов вместо собственной
// структуры создаются предварительные группы.
func (s *tournamentService) Start(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tournament.Status != models.StatusRegistration && tournament.Status != models.StatusSoon {
		return nil, ErrTournamentInvalidStatus
	}

	confirmed := confirmedOf(tournament.Participants)
	if len(confirmed) < 2 {
		return nil, brackets.ErrInvalidEntryCount
	}

	if tournament.Format.Compound() {
		return s.startCompound(ctx, tournament, confirmed)
	}

	handler, err := formats.Lookup(tournament.Format)
	if err != nil {
		return nil, err
	}
	structure, err := handler.Build(ctx, brackets.GenerateParams{
		Tournament:   tournament,
		Participants: confirmed,
	})
	if err != nil {
		return nil, err
	}

	if err := s.persistStructure(ctx, tournament, confirmed, structure); err != nil {
		return nil, err
	}
	s.hub.NotifyTournament(tournament.ID, brackets.EventBracketUpdated, nil)
	return s.GetByID(ctx, id)
}

func (s *tournamentService) persistStructure(ctx context.Context, tournament *models.Tournament, confirmed []*models.Participant, structure *brackets.Structure) error {
	return inTx(ctx, s.db, func(tx *sql.Tx) error {
		// Сидирование, вычисленное генератором, сохраняется на участниках.
		for _, p := range confirmed {
			if err := s.participantRepo.UpdateSeed(ctx, tx, p.ID, p.Seed); err != nil {
				return err
			}
		}
		if structure.Bracket != nil {
			if err := s.nodeRepo.CreateBatch(ctx, tx, structure.Bracket.Nodes); err != nil {
				return err
			}
		}
		if len(structure.Fixtures) > 0 {
			if err := s.matchRepo.CreateBatch(ctx, tx, structure.Fixtures); err != nil {
				return err
			}
		}
		return s.tournamentRepo.UpdateStatus(ctx, tx, tournament.ID, models.StatusActive, false)
	})
}

// startCompound создаёт дочерние круговые группы и запускает их.
// Участники раздаются по группам "змейкой" по рейтингу входа, чтобы
// группы были сбалансированы.
func (s *tournamentService) startCompound(ctx context.Context, parent *models.Tournament, confirmed []*models.Participant) (*models.Tournament, error) {
	groups := snakeSplit(confirmed, parent.MaxGroups())
	stage := models.StagePreliminary

	for i, group := range groups {
		if len(group) < 2 {
			return nil, brackets.ErrInvalidEntryCount
		}
		child := &models.Tournament{
			Name:            fmt.Sprintf("%s - Group %d", parent.Name, i+1),
			Format:          models.FormatRoundRobin,
			OrganizerID:     parent.OrganizerID,
			Status:          models.StatusSoon,
			RegDate:         parent.RegDate,
			StartDate:       parent.StartDate,
			EndDate:         parent.EndDate,
			MaxParticipants: len(group),
			ParentID:        &parent.ID,
			Stage:           &stage,
		}
		if err := s.tournamentRepo.Create(ctx, nil, child); err != nil {
			return nil, fmt.Errorf("failed to create preliminary group %d: %w", i+1, err)
		}
		for _, p := range group {
			childParticipant := &models.Participant{
				PlayerID:     p.PlayerID,
				TournamentID: child.ID,
				EntryRating:  p.EntryRating,
				Status:       models.ParticipantConfirmed,
			}
			if err := s.participantRepo.Create(ctx, nil, childParticipant); err != nil {
				return nil, err
			}
		}
		if _, err := s.Start(ctx, child.ID); err != nil {
			return nil, err
		}
	}

	if err := s.tournamentRepo.UpdateStatus(ctx, nil, parent.ID, models.StatusActive, false); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, parent.ID)
}

// SeedFinalStage создаёт финальную стадию составного турнира из лучших
// игроков предварительных групп. Требует завершения всех групп.
func (s *tournamentService) SeedFinalStage(ctx context.Context, parentID int) (*models.Tournament, error) {
	parent, err := s.GetByID(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if !parent.Format.Compound() {
		return nil, ErrNotCompound
	}

	stageFinal := models.StageFinal
	for _, child := range parent.Children {
		if child.Stage != nil && *child.Stage == stageFinal {
			return nil, fmt.Errorf("%w: final stage already exists", ErrValidationFailed)
		}
		if child.Status != models.StatusCompleted {
			return nil, ErrChildrenIncomplete
		}
	}
	if len(parent.Children) == 0 {
		return nil, ErrChildrenIncomplete
	}

	finalTag, err := formats.FinalStageTag(parent.Format)
	if err != nil {
		return nil, err
	}

	// Из каждой группы выходят лучшие по её таблице.
	advance := parent.AdvanceCount()
	qualifiers := make([]*models.Participant, 0, advance*len(parent.Children))
	for _, child := range parent.Children {
		table := brackets.ComputeStandings(confirmedOf(child.Participants), child.Matches)
		byID := participantIndex(child.Participants)
		for i := 0; i < advance && i < len(table); i++ {
			qualifiers = append(qualifiers, byID[table[i].ParticipantID])
		}
	}
	if len(qualifiers) < 2 {
		return nil, brackets.ErrInvalidEntryCount
	}

	final := &models.Tournament{
		Name:            parent.Name + " - Final",
		Format:          finalTag,
		OrganizerID:     parent.OrganizerID,
		Status:          models.StatusSoon,
		RegDate:         parent.RegDate,
		StartDate:       parent.StartDate,
		EndDate:         parent.EndDate,
		MaxParticipants: len(qualifiers),
		ParentID:        &parent.ID,
		Stage:           &stageFinal,
	}
	if err := s.tournamentRepo.Create(ctx, nil, final); err != nil {
		return nil, fmt.Errorf("failed to create final stage: %w", err)
	}
	for _, q := range qualifiers {
		// Рейтинг входа в финал — текущий живой рейтинг игрока,
		// включающий очки, набранные в предварительной стадии.
		player, err := s.playerRepo.GetByID(ctx, q.PlayerID)
		if err != nil {
			return nil, err
		}
		participant := &models.Participant{
			PlayerID:     q.PlayerID,
			TournamentID: final.ID,
			EntryRating:  player.Rating,
			Status:       models.ParticipantConfirmed,
		}
		if err := s.participantRepo.Create(ctx, nil, participant); err != nil {
			return nil, err
		}
	}
	return s.Start(ctx, final.ID)
}

// Complete проверяет предикат завершения формата и замораживает турнир.
func (s *tournamentService) Complete(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tournament.Status != models.StatusActive {
		return nil, ErrTournamentInvalidStatus
	}
	handler, err := formats.Lookup(tournament.Format)
	if err != nil {
		return nil, err
	}
	if !handler.IsComplete(tournament) {
		return nil, fmt.Errorf("%w: tournament is not complete yet", ErrValidationFailed)
	}
	if err := s.tournamentRepo.UpdateStatus(ctx, nil, id, models.StatusCompleted, false); err != nil {
		return nil, err
	}
	tournament.Status = models.StatusCompleted
	s.hub.NotifyTournament(id, brackets.EventTournamentUpdated, tournament.Status)
	return tournament, nil
}

// Cancel замораживает турнир в completed с флагом cancelled, не требуя
// фактического завершения. История матчей и журнал рейтинга сохраняются.
func (s *tournamentService) Cancel(ctx context.Context, id int) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}
	if tournament.Status == models.StatusCompleted {
		return ErrTournamentInvalidStatus
	}
	if err := s.tournamentRepo.UpdateStatus(ctx, nil, id, models.StatusCompleted, true); err != nil {
		return err
	}
	s.hub.NotifyTournament(id, brackets.EventTournamentUpdated, models.StatusCompleted)
	return nil
}

// Delete удаляет турнир целиком. Разрешено только пока нет записанных
// результатов: сыгранный турнир отменяют, а не удаляют.
func (s *tournamentService) Delete(ctx context.Context, id int) error {
	tournament, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	handler, err := formats.Lookup(tournament.Format)
	if err != nil {
		return err
	}
	if !handler.CanDelete(tournament) {
		return ErrDeleteNotAllowed
	}

	return inTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, child := range tournament.Children {
			if err := s.deleteStructure(ctx, tx, child.ID); err != nil {
				return err
			}
		}
		return s.deleteStructure(ctx, tx, id)
	})
}

func (s *tournamentService) deleteStructure(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	if err := s.matchRepo.DeleteByTournament(ctx, exec, id); err != nil {
		return err
	}
	if err := s.nodeRepo.DeleteByTournament(ctx, exec, id); err != nil {
		return err
	}
	return s.tournamentRepo.Delete(ctx, exec, id)
}

// AutoUpdateStatusesByDates продвигает статусы турниров по датам;
// вызывается планировщиком.
func (s *tournamentService) AutoUpdateStatusesByDates(ctx context.Context) error {
	due, err := s.tournamentRepo.ListDueForStatusChange(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("failed to list due tournaments: %w", err)
	}
	for _, t := range due {
		switch t.Status {
		case models.StatusSoon:
			if err := s.tournamentRepo.UpdateStatus(ctx, nil, t.ID, models.StatusRegistration, false); err != nil {
				s.logger.Error("failed to open registration", slog.Int("tournament_id", t.ID), slog.Any("error", err))
				continue
			}
			s.logger.Info("registration opened", slog.Int("tournament_id", t.ID))
		case models.StatusRegistration:
			if _, err := s.Start(ctx, t.ID); err != nil {
				s.logger.Error("failed to auto-start tournament", slog.Int("tournament_id", t.ID), slog.Any("error", err))
			} else {
				s.logger.Info("tournament started", slog.Int("tournament_id", t.ID))
			}
		}
	}
	return nil
}

func confirmedOf(participants []*models.Participant) []*models.Participant {
	confirmed := make([]*models.Participant, 0, len(participants))
	for _, p := range participants {
		if p.Status == models.ParticipantConfirmed {
			confirmed = append(confirmed, p)
		}
	}
	return confirmed
}

func participantIndex(participants []*models.Participant) map[int]*models.Participant {
	byID := make(map[int]*models.Participant, len(participants))
	for _, p := range participants {
		byID[p.ID] = p
	}
	return byID
}

// snakeSplit раздаёт участников по группам змейкой по рейтингу входа.
func snakeSplit(participants []*models.Participant, groups int) [][]*models.Participant {
	if groups < 1 {
		groups = 1
	}
	sorted := make([]*models.Participant, len(participants))
	copy(sorted, participants)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].EntryRating != sorted[j].EntryRating {
			return sorted[i].EntryRating > sorted[j].EntryRating
		}
		return sorted[i].ID < sorted[j].ID
	})
	out := make([][]*models.Participant, groups)
	idx, dir := 0, 1
	for _, p := range sorted {
		out[idx] = append(out[idx], p)
		idx += dir
		if idx == groups {
			idx, dir = groups-1, -1
		} else if idx < 0 {
			idx, dir = 0, 1
		}
	}
	return out
}
