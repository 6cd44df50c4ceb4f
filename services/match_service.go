package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/IlyaVolvo/spin-master-sub001/brackets"
	"github.com/IlyaVolvo/spin-master-sub001/cache"
	"github.com/IlyaVolvo/spin-master-sub001/models"
	"github.com/IlyaVolvo/spin-master-sub001/notify"
	"github.com/IlyaVolvo/spin-master-sub001/rating"
	"github.com/IlyaVolvo/spin-master-sub001/repositories"
)

// MatchService записывает, исправляет и удаляет результаты матчей.
// Для сеток результат адресуется координатой узла (раунд, позиция),
// для кругового и швейцарского форматов — id заранее созданного матча.
type MatchService interface {
	RecordBracketResult(ctx context.Context, tournamentID, round, position int, res brackets.Result) (*models.Match, error)
	RecordFixtureResult(ctx context.Context, matchID int, res brackets.Result) (*models.Match, error)
	EditResult(ctx context.Context, matchID int, res brackets.Result) (*models.Match, error)
	DeleteResult(ctx context.Context, matchID int) error
}

type matchService struct {
	db              *sql.DB
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	nodeRepo        repositories.BracketNodeRepository
	ratingRepo      repositories.RatingChangeRepository
	playerRepo      repositories.PlayerRepository
	hub             *brackets.Hub
	standingsCache  *cache.StandingsCache
	announcer       notify.Announcer
	logger          *slog.Logger
	locks           *tournamentLocks
}

func NewMatchService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	nodeRepo repositories.BracketNodeRepository,
	ratingRepo repositories.RatingChangeRepository,
	playerRepo repositories.PlayerRepository,
	hub *brackets.Hub,
	standingsCache *cache.StandingsCache,
	announcer notify.Announcer,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		db:              db,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		nodeRepo:        nodeRepo,
		ratingRepo:      ratingRepo,
		playerRepo:      playerRepo,
		hub:             hub,
		standingsCache:  standingsCache,
		announcer:       announcer,
		logger:          logger,
		locks:           newTournamentLocks(),
	}
}

// tournamentState — всё, что нужно для применения результата: турнир,
// подтверждённые участники и текущие матчи с узлами сетки.
type tournamentState struct {
	tournament   *models.Tournament
	participants []*models.Participant
	matches      []*models.Match
	nodes        []*models.BracketNode
	byID         map[int]*models.Participant
}

func (s *matchService) loadState(ctx context.Context, tournamentID int) (*tournamentState, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if tournament.Status != models.StatusActive {
		return nil, ErrTournamentNotActive
	}
	confirmed := models.ParticipantConfirmed
	participants, err := s.participantRepo.ListByTournament(ctx, tournamentID, &confirmed, true)
	if err != nil {
		return nil, err
	}
	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	var nodes []*models.BracketNode
	if tournament.Format == models.FormatPlayoff {
		nodes, err = s.nodeRepo.ListByTournament(ctx, tournamentID)
		if err != nil {
			return nil, err
		}
	}
	return &tournamentState{
		tournament:   tournament,
		participants: participants,
		matches:      matches,
		nodes:        nodes,
		byID:         participantIndex(participants),
	}, nil
}

func (st *tournamentState) playerOf(participantID int) int {
	if p, ok := st.byID[participantID]; ok {
		return p.PlayerID
	}
	return 0
}

func (st *tournamentState) nameOf(participantID int) string {
	if p, ok := st.byID[participantID]; ok && p.Player != nil {
		return p.Player.FullName()
	}
	return fmt.Sprintf("participant %d", participantID)
}

func (st *tournamentState) matchByID(id int) *models.Match {
	for _, m := range st.matches {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// RecordBracketResult применяет результат к готовому узлу сетки:
// валидация, запись матча со снимками рейтинга, продвижение победителя
// и журнал рейтинга — всё в одной транзакции. Чтение состояния, движок
// и коммит идут под замком турнира: параллельные записи в один турнир
// выстраиваются в очередь.
func (s *matchService) RecordBracketResult(ctx context.Context, tournamentID, round, position int, res brackets.Result) (*models.Match, error) {
	unlock := s.locks.Lock(tournamentID)
	defer unlock()

	st, err := s.loadState(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if st.tournament.Format != models.FormatPlayoff {
		return nil, fmt.Errorf("%w: tournament %d is not a bracket tournament", ErrValidationFailed, tournamentID)
	}

	engine, err := brackets.LoadElimination(st.nodes, st.participants, st.matches)
	if err != nil {
		return nil, err
	}
	coord := brackets.Coord{Round: round, Position: position}
	match, err := engine.RecordResult(coord, res)
	if err != nil {
		return nil, err
	}

	err = inTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.matchRepo.Create(ctx, tx, match); err != nil {
			return err
		}
		node, err := engine.Bracket.Node(coord)
		if err != nil {
			return err
		}
		node.MatchID = &match.ID
		if err := s.nodeRepo.Update(ctx, tx, node); err != nil {
			return err
		}
		if next, _, ok := engine.Bracket.Downstream(coord); ok {
			downstream, err := engine.Bracket.Node(next)
			if err != nil {
				return err
			}
			if err := s.nodeRepo.Update(ctx, tx, downstream); err != nil {
				return err
			}
		}
		return s.writeLedger(ctx, tx, st, match)
	})
	if err != nil {
		return nil, err
	}

	s.afterResult(ctx, st, match, brackets.EventResultRecorded)
	if engine.Bracket.IsComplete() {
		final := engine.Bracket.Final()
		if final != nil && final.WinnerID != nil {
			s.announce(func(a notify.Announcer) error {
				return a.AnnounceCompletion(st.tournament.Name, st.nameOf(*final.WinnerID))
			})
		}
	}
	return match, nil
}

// RecordFixtureResult записывает результат на заранее созданный матч
// кругового или швейцарского турнира. Рейтинг перед матчем — рейтинг
// входа плюс цепочка изменений игрока в этом турнире.
func (s *matchService) RecordFixtureResult(ctx context.Context, matchID int, res brackets.Result) (*models.Match, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(match.TournamentID)
	defer unlock()

	st, err := s.loadState(ctx, match.TournamentID)
	if err != nil {
		return nil, err
	}
	if st.tournament.Format == models.FormatPlayoff {
		return nil, fmt.Errorf("%w: bracket results are recorded by node coordinate", ErrValidationFailed)
	}
	// Матч перечитан под замком: решённость проверяется по свежему
	// состоянию, а не по снимку до очереди.
	if match = st.matchByID(matchID); match == nil {
		return nil, ErrMatchNotFound
	}
	if match.Decided() {
		return nil, fmt.Errorf("%w: match %d already has a result", brackets.ErrInvalidState, matchID)
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}

	p1, p2 := *match.P1ID, *match.P2ID
	beforeA := fixtureRatingBefore(st, p1, match.ID)
	beforeB := fixtureRatingBefore(st, p2, match.ID)
	aWon := resultAWon(res)
	deltaA, deltaB := rating.PointExchange(beforeA, beforeB, aWon)
	winner := p1
	if !aWon {
		winner = p2
	}

	now := time.Now()
	match.SetsA = res.SetsA
	match.SetsB = res.SetsB
	match.ForfeitA = res.ForfeitA
	match.ForfeitB = res.ForfeitB
	match.WinnerID = &winner
	match.RatingBeforeA = &beforeA
	match.RatingBeforeB = &beforeB
	match.RatingDeltaA = &deltaA
	match.RatingDeltaB = &deltaB
	match.Status = models.MatchCompleted
	match.PlayedAt = &now

	err = inTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.matchRepo.UpdateResult(ctx, tx, match); err != nil {
			return err
		}
		return s.writeLedger(ctx, tx, st, match)
	})
	if err != nil {
		return nil, err
	}

	s.afterResult(ctx, st, match, brackets.EventResultRecorded)
	s.maybePairNextSwissRound(ctx, st)
	return match, nil
}

// EditResult исправляет уже записанный результат. Пересчёт очков идёт по
// сохранённым снимкам рейтинга: меняются дельты, но не история до матча.
// Для сетки смена победителя каскадно снимает все производные результаты.
func (s *matchService) EditResult(ctx context.Context, matchID int, res brackets.Result) (*models.Match, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(match.TournamentID)
	defer unlock()

	st, err := s.loadState(ctx, match.TournamentID)
	if err != nil {
		return nil, err
	}
	if match = st.matchByID(matchID); match == nil {
		return nil, ErrMatchNotFound
	}
	if st.tournament.Format == models.FormatPlayoff {
		return s.editBracketResult(ctx, st, match, res)
	}
	return s.editFixtureResult(ctx, st, match, res)
}

func (s *matchService) editBracketResult(ctx context.Context, st *tournamentState, match *models.Match, res brackets.Result) (*models.Match, error) {
	engine, err := brackets.LoadElimination(st.nodes, st.participants, st.matches)
	if err != nil {
		return nil, err
	}
	coord := brackets.Coord{Round: *match.Round, Position: *match.Position}

	byCoord := matchesByCoord(st.matches)
	oldDeltaA, oldDeltaB := *match.RatingDeltaA, *match.RatingDeltaB

	edited, removed, err := engine.EditResult(coord, res)
	if err != nil {
		return nil, err
	}

	err = inTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.matchRepo.UpdateResult(ctx, tx, edited); err != nil {
			return err
		}
		// Игроки исправленного матча получают разницу между новой и
		// старой дельтой; журнал перезаписывается.
		if err := s.rewriteLedger(ctx, tx, st, edited, oldDeltaA, oldDeltaB); err != nil {
			return err
		}
		if err := s.removeCascaded(ctx, tx, st, engine, byCoord, removed); err != nil {
			return err
		}
		return s.persistNodes(ctx, tx, engine)
	})
	if err != nil {
		return nil, err
	}

	s.afterResult(ctx, st, edited, brackets.EventResultEdited)
	return edited, nil
}

func (s *matchService) editFixtureResult(ctx context.Context, st *tournamentState, match *models.Match, res brackets.Result) (*models.Match, error) {
	if !match.Decided() {
		return nil, fmt.Errorf("%w: match %d has no recorded result to edit", brackets.ErrInvalidState, match.ID)
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}

	oldDeltaA, oldDeltaB := *match.RatingDeltaA, *match.RatingDeltaB
	aWon := resultAWon(res)
	deltaA, deltaB := rating.PointExchange(*match.RatingBeforeA, *match.RatingBeforeB, aWon)
	winner := *match.P1ID
	if !aWon {
		winner = *match.P2ID
	}

	match.SetsA = res.SetsA
	match.SetsB = res.SetsB
	match.ForfeitA = res.ForfeitA
	match.ForfeitB = res.ForfeitB
	match.WinnerID = &winner
	match.RatingDeltaA = &deltaA
	match.RatingDeltaB = &deltaB

	err := inTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.matchRepo.UpdateResult(ctx, tx, match); err != nil {
			return err
		}
		return s.rewriteLedger(ctx, tx, st, match, oldDeltaA, oldDeltaB)
	})
	if err != nil {
		return nil, err
	}

	s.afterResult(ctx, st, match, brackets.EventResultEdited)
	return match, nil
}

// DeleteResult снимает результат. Матч сетки удаляется вместе со всеми
// производными результатами ниже по сетке; матч-фикстура возвращается в
// scheduled. Изменения рейтинга откатываются в обоих случаях.
func (s *matchService) DeleteResult(ctx context.Context, matchID int) error {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return err
	}
	unlock := s.locks.Lock(match.TournamentID)
	defer unlock()

	st, err := s.loadState(ctx, match.TournamentID)
	if err != nil {
		return err
	}
	if match = st.matchByID(matchID); match == nil {
		return ErrMatchNotFound
	}

	if st.tournament.Format == models.FormatPlayoff {
		engine, err := brackets.LoadElimination(st.nodes, st.participants, st.matches)
		if err != nil {
			return err
		}
		coord := brackets.Coord{Round: *match.Round, Position: *match.Position}
		byCoord := matchesByCoord(st.matches)

		removed, err := engine.DeleteResult(coord)
		if err != nil {
			return err
		}
		err = inTx(ctx, s.db, func(tx *sql.Tx) error {
			if err := s.removeCascaded(ctx, tx, st, engine, byCoord, removed); err != nil {
				return err
			}
			return s.persistNodes(ctx, tx, engine)
		})
		if err != nil {
			return err
		}
		s.afterResult(ctx, st, match, brackets.EventResultDeleted)
		return nil
	}

	if !match.Decided() {
		return fmt.Errorf("%w: match %d has no recorded result to delete", brackets.ErrInvalidState, matchID)
	}
	deltaA, deltaB := *match.RatingDeltaA, *match.RatingDeltaB
	err = inTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.matchRepo.ClearResult(ctx, tx, matchID); err != nil {
			return err
		}
		if err := s.ratingRepo.DeleteByMatchIDs(ctx, tx, []int{matchID}); err != nil {
			return err
		}
		if err := s.playerRepo.AdjustRating(ctx, tx, st.playerOf(*match.P1ID), -deltaA); err != nil {
			return err
		}
		return s.playerRepo.AdjustRating(ctx, tx, st.playerOf(*match.P2ID), -deltaB)
	})
	if err != nil {
		return err
	}
	s.afterResult(ctx, st, match, brackets.EventResultDeleted)
	return nil
}

// removeCascaded удаляет строки матчей и журнала для всех узлов, чьи
// результаты снял каскад, и откатывает рейтинг их игроков.
func (s *matchService) removeCascaded(ctx context.Context, tx *sql.Tx, st *tournamentState, engine *brackets.Elimination, byCoord map[brackets.Coord]*models.Match, removed []brackets.Coord) error {
	if len(removed) == 0 {
		return nil
	}
	ids := make([]int, 0, len(removed))
	for _, c := range removed {
		old := byCoord[c]
		if old == nil {
			continue
		}
		ids = append(ids, old.ID)
		if err := s.playerRepo.AdjustRating(ctx, tx, st.playerOf(*old.P1ID), -*old.RatingDeltaA); err != nil {
			return err
		}
		if err := s.playerRepo.AdjustRating(ctx, tx, st.playerOf(*old.P2ID), -*old.RatingDeltaB); err != nil {
			return err
		}
		// Узел, потерявший матч, больше на него не ссылается.
		if node, err := engine.Bracket.Node(c); err == nil {
			node.MatchID = nil
		}
	}
	if err := s.ratingRepo.DeleteByMatchIDs(ctx, tx, ids); err != nil {
		return err
	}
	return s.matchRepo.DeleteByIDs(ctx, tx, ids)
}

// persistNodes сохраняет все узлы сетки. Каскад способен задеть путь
// произвольной длины, поэтому проще переписать арену целиком.
func (s *matchService) persistNodes(ctx context.Context, tx *sql.Tx, engine *brackets.Elimination) error {
	for _, node := range engine.Bracket.Nodes {
		if err := s.nodeRepo.Update(ctx, tx, node); err != nil {
			return err
		}
	}
	return nil
}

// writeLedger пишет пару строк журнала и двигает живой рейтинг игроков.
func (s *matchService) writeLedger(ctx context.Context, tx *sql.Tx, st *tournamentState, match *models.Match) error {
	entries := []struct {
		participantID int
		before, delta int
	}{
		{*match.P1ID, *match.RatingBeforeA, *match.RatingDeltaA},
		{*match.P2ID, *match.RatingBeforeB, *match.RatingDeltaB},
	}
	for _, e := range entries {
		playerID := st.playerOf(e.participantID)
		change := &models.RatingChange{
			PlayerID:     playerID,
			MatchID:      match.ID,
			TournamentID: match.TournamentID,
			RatingBefore: e.before,
			Delta:        e.delta,
		}
		if err := s.ratingRepo.Create(ctx, tx, change); err != nil {
			return err
		}
		if err := s.playerRepo.AdjustRating(ctx, tx, playerID, e.delta); err != nil {
			return err
		}
	}
	return nil
}

// rewriteLedger заменяет строки журнала матча и применяет к игрокам
// разницу между новыми и старыми дельтами.
func (s *matchService) rewriteLedger(ctx context.Context, tx *sql.Tx, st *tournamentState, match *models.Match, oldDeltaA, oldDeltaB int) error {
	if err := s.ratingRepo.DeleteByMatchIDs(ctx, tx, []int{match.ID}); err != nil {
		return err
	}
	entries := []struct {
		participantID int
		before        int
		delta         int
		oldDelta      int
	}{
		{*match.P1ID, *match.RatingBeforeA, *match.RatingDeltaA, oldDeltaA},
		{*match.P2ID, *match.RatingBeforeB, *match.RatingDeltaB, oldDeltaB},
	}
	for _, e := range entries {
		playerID := st.playerOf(e.participantID)
		change := &models.RatingChange{
			PlayerID:     playerID,
			MatchID:      match.ID,
			TournamentID: match.TournamentID,
			RatingBefore: e.before,
			Delta:        e.delta,
		}
		if err := s.ratingRepo.Create(ctx, tx, change); err != nil {
			return err
		}
		if err := s.playerRepo.AdjustRating(ctx, tx, playerID, e.delta-e.oldDelta); err != nil {
			return err
		}
	}
	return nil
}

// maybePairNextSwissRound создаёт фикстуры следующего швейцарского тура,
// когда текущий доигран и туры ещё остались.
func (s *matchService) maybePairNextSwissRound(ctx context.Context, st *tournamentState) {
	t := st.tournament
	if t.Format != models.FormatSwiss || t.SwissRounds == nil {
		return
	}
	matches, err := s.matchRepo.ListByTournament(ctx, t.ID)
	if err != nil {
		s.logger.Error("failed to reload swiss matches", slog.Int("tournament_id", t.ID), slog.Any("error", err))
		return
	}
	decided := make([]*models.Match, 0, len(matches))
	for _, m := range matches {
		if m.Decided() {
			decided = append(decided, m)
		}
	}
	if len(decided) != len(matches) {
		return
	}
	perRound := len(st.participants) / 2
	if perRound == 0 || len(matches)/perRound >= *t.SwissRounds {
		return
	}

	pairs, err := brackets.PairSwissRound(st.participants, decided)
	if err != nil {
		s.logger.Error("failed to pair next swiss round", slog.Int("tournament_id", t.ID), slog.Any("error", err))
		return
	}
	fixtures := make([]*models.Match, 0, len(pairs))
	for _, pair := range pairs {
		p1, p2 := pair.P1, pair.P2
		fixtures = append(fixtures, &models.Match{
			TournamentID: t.ID,
			P1ID:         &p1,
			P2ID:         &p2,
			Status:       models.MatchScheduled,
		})
	}
	if err := s.matchRepo.CreateBatch(ctx, nil, fixtures); err != nil {
		s.logger.Error("failed to create swiss fixtures", slog.Int("tournament_id", t.ID), slog.Any("error", err))
		return
	}
	s.hub.NotifyTournament(t.ID, brackets.EventBracketUpdated, nil)
}

func (s *matchService) afterResult(ctx context.Context, st *tournamentState, match *models.Match, event string) {
	s.hub.NotifyTournament(match.TournamentID, event, match.ID)
	s.hub.NotifyTournament(match.TournamentID, brackets.EventStandingsUpdated, nil)
	if err := s.standingsCache.Invalidate(ctx, match.TournamentID); err != nil {
		s.logger.Warn("failed to invalidate standings cache", slog.Int("tournament_id", match.TournamentID), slog.Any("error", err))
	}
	if event == brackets.EventResultRecorded && match.WinnerID != nil {
		winner, loser := *match.P1ID, *match.P2ID
		setsWon, setsLost := match.SetsA, match.SetsB
		if *match.WinnerID == loser {
			winner, loser = loser, winner
			setsWon, setsLost = match.SetsB, match.SetsA
		}
		forfeit := match.ForfeitA || match.ForfeitB
		s.announce(func(a notify.Announcer) error {
			return a.AnnounceResult(st.tournament.Name, st.nameOf(winner), st.nameOf(loser), setsWon, setsLost, forfeit)
		})
	}
}

func (s *matchService) announce(fn func(notify.Announcer) error) {
	if s.announcer == nil {
		return
	}
	if err := fn(s.announcer); err != nil {
		s.logger.Warn("telegram announcement failed", slog.Any("error", err))
	}
}

func (s *matchService) getMatch(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

// fixtureRatingBefore — рейтинг участника на входе в матч: рейтинг входа
// в турнир плюс его цепочка изменений в этом турнире, в порядке игры.
func fixtureRatingBefore(st *tournamentState, participantID, excludeMatchID int) int {
	p, ok := st.byID[participantID]
	if !ok {
		return 0
	}
	current := p.EntryRating

	played := make([]*models.Match, 0, len(st.matches))
	for _, m := range st.matches {
		if m.ID != excludeMatchID && m.Decided() {
			played = append(played, m)
		}
	}
	sort.Slice(played, func(i, j int) bool {
		a, b := played[i], played[j]
		if a.PlayedAt != nil && b.PlayedAt != nil && !a.PlayedAt.Equal(*b.PlayedAt) {
			return a.PlayedAt.Before(*b.PlayedAt)
		}
		return a.ID < b.ID
	})
	for _, m := range played {
		if m.P1ID != nil && *m.P1ID == participantID && m.RatingBeforeA != nil && m.RatingDeltaA != nil {
			current = rating.Apply(*m.RatingBeforeA, *m.RatingDeltaA)
		}
		if m.P2ID != nil && *m.P2ID == participantID && m.RatingBeforeB != nil && m.RatingDeltaB != nil {
			current = rating.Apply(*m.RatingBeforeB, *m.RatingDeltaB)
		}
	}
	return current
}

func resultAWon(res brackets.Result) bool {
	if res.ForfeitA {
		return false
	}
	if res.ForfeitB {
		return true
	}
	return res.SetsA > res.SetsB
}

func matchesByCoord(matches []*models.Match) map[brackets.Coord]*models.Match {
	byCoord := make(map[brackets.Coord]*models.Match, len(matches))
	for _, m := range matches {
		if m.Round != nil && m.Position != nil {
			byCoord[brackets.Coord{Round: *m.Round, Position: *m.Position}] = m
		}
	}
	return byCoord
}
