package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IlyaVolvo/spin-master-sub001/models"
)

// fourPlayerEngine: P1 1580 и P4 1520 в верхней паре, P2 1560 и P3 1540
// в нижней. Разрыв 60 очков — полоса с обменом 6/13, разрыв 20 — 7/10.
func fourPlayerEngine(t *testing.T) (*Elimination, []*models.Participant) {
	t.Helper()
	participants := testField(4)
	bracket := generate(t, participants)
	return NewElimination(bracket, participants), participants
}

func TestResultValidate(t *testing.T) {
	assert.NoError(t, Result{SetsA: 3, SetsB: 1}.Validate())
	assert.NoError(t, Result{ForfeitB: true}.Validate())
	assert.ErrorIs(t, Result{SetsA: 2, SetsB: 2}.Validate(), ErrInvalidResult)
	assert.ErrorIs(t, Result{}.Validate(), ErrInvalidResult)
	assert.ErrorIs(t, Result{ForfeitA: true, ForfeitB: true}.Validate(), ErrInvalidResult)
}

func TestRecordResultPromotesWinner(t *testing.T) {
	engine, _ := fourPlayerEngine(t)

	match, err := engine.RecordResult(Coord{Round: 1, Position: 0}, Result{SetsA: 3, SetsB: 1})
	require.NoError(t, err)
	require.NotNil(t, match.WinnerID)
	assert.Equal(t, 1, *match.WinnerID)

	node, err := engine.Bracket.Node(Coord{Round: 1, Position: 0})
	require.NoError(t, err)
	assert.Equal(t, NodeDecided, State(node))

	final, err := engine.Bracket.Node(Coord{Round: 2, Position: 0})
	require.NoError(t, err)
	require.True(t, final.SlotA.Filled())
	assert.Equal(t, 1, *final.SlotA.ParticipantID)
	assert.False(t, engine.Bracket.IsComplete())
}

func TestRecordResultRejectsBadInput(t *testing.T) {
	engine, _ := fourPlayerEngine(t)
	ready := Coord{Round: 1, Position: 0}

	// Ничьи в настольном теннисе не бывает, 0:0 тоже ничего не решает.
	_, err := engine.RecordResult(ready, Result{SetsA: 2, SetsB: 2})
	assert.ErrorIs(t, err, ErrInvalidResult)
	_, err = engine.RecordResult(ready, Result{})
	assert.ErrorIs(t, err, ErrInvalidResult)
	_, err = engine.RecordResult(ready, Result{ForfeitA: true, ForfeitB: true})
	assert.ErrorIs(t, err, ErrInvalidResult)

	// Отклонённый результат не трогает состояние узла.
	node, err := engine.Bracket.Node(ready)
	require.NoError(t, err)
	assert.Equal(t, NodeReady, State(node))
	assert.Nil(t, engine.Match(ready))
}

func TestRecordResultRejectsWrongState(t *testing.T) {
	engine, _ := fourPlayerEngine(t)

	// Финал ещё PENDING: участники не определены.
	_, err := engine.RecordResult(Coord{Round: 2, Position: 0}, Result{SetsA: 3, SetsB: 0})
	assert.ErrorIs(t, err, ErrInvalidState)

	// Решённый узел не принимает второй результат.
	_, err = engine.RecordResult(Coord{Round: 1, Position: 0}, Result{SetsA: 3, SetsB: 0})
	require.NoError(t, err)
	_, err = engine.RecordResult(Coord{Round: 1, Position: 0}, Result{SetsA: 3, SetsB: 1})
	assert.ErrorIs(t, err, ErrInvalidState)

	// Несуществующая координата.
	_, err = engine.RecordResult(Coord{Round: 5, Position: 0}, Result{SetsA: 3, SetsB: 0})
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestForfeitDecidesWinner(t *testing.T) {
	engine, _ := fourPlayerEngine(t)

	match, err := engine.RecordResult(Coord{Round: 1, Position: 0}, Result{ForfeitB: true})
	require.NoError(t, err)
	assert.Equal(t, 1, *match.WinnerID)
	assert.True(t, match.ForfeitB)

	// Неявка — не bye: обмен очками происходит как обычно.
	assert.Equal(t, 6, *match.RatingDeltaA)
	assert.Equal(t, -6, *match.RatingDeltaB)
}

func TestRatingChainAcrossRounds(t *testing.T) {
	engine, _ := fourPlayerEngine(t)

	// P1 (1580) обыгрывает P4 (1520) как фаворит: +6.
	m1, err := engine.RecordResult(Coord{Round: 1, Position: 0}, Result{SetsA: 3, SetsB: 1})
	require.NoError(t, err)
	assert.Equal(t, 1580, *m1.RatingBeforeA)
	assert.Equal(t, 1520, *m1.RatingBeforeB)
	assert.Equal(t, 6, *m1.RatingDeltaA)

	// P3 (1540) обыгрывает P2 (1560) — апсет ближней полосы: +10.
	m2, err := engine.RecordResult(Coord{Round: 1, Position: 1}, Result{SetsA: 2, SetsB: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, *m2.WinnerID)
	assert.Equal(t, -10, *m2.RatingDeltaA)
	assert.Equal(t, 10, *m2.RatingDeltaB)

	// В финал оба входят с обновлённым рейтингом.
	assert.Equal(t, 1586, engine.RatingBefore(1, 2))
	assert.Equal(t, 1550, engine.RatingBefore(3, 2))

	final, err := engine.RecordResult(Coord{Round: 2, Position: 0}, Result{SetsA: 3, SetsB: 0})
	require.NoError(t, err)
	assert.Equal(t, 1586, *final.RatingBeforeA)
	assert.Equal(t, 1550, *final.RatingBeforeB)
	assert.Equal(t, 7, *final.RatingDeltaA)

	assert.True(t, engine.Bracket.IsComplete())
}

func TestEditResultKeepsStoredSnapshots(t *testing.T) {
	engine, _ := fourPlayerEngine(t)
	c := Coord{Round: 1, Position: 0}
	_, err := engine.RecordResult(c, Result{SetsA: 3, SetsB: 1})
	require.NoError(t, err)

	// Счёт меняется, победитель нет: каскада нет, дельты пересчитаны по
	// сохранённым снимкам.
	edited, removed, err := engine.EditResult(c, Result{SetsA: 3, SetsB: 2})
	require.NoError(t, err)
	assert.Empty(t, removed)
	assert.Equal(t, 3, edited.SetsA)
	assert.Equal(t, 2, edited.SetsB)
	assert.Equal(t, 1580, *edited.RatingBeforeA)
	assert.Equal(t, 6, *edited.RatingDeltaA)
}

func TestEditResultWinnerFlipCascades(t *testing.T) {
	engine, _ := fourPlayerEngine(t)
	require.NoError(t, recordAll(engine))
	require.True(t, engine.Bracket.IsComplete())

	// Пересмотр полуфинала: теперь выигрывает P2. Финал, сыгранный от
	// старого победителя, снимается.
	edited, removed, err := engine.EditResult(Coord{Round: 1, Position: 1}, Result{SetsA: 3, SetsB: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, *edited.WinnerID)
	assert.Equal(t, []Coord{{Round: 2, Position: 0}}, removed)

	// Дельты отредактированного матча — от сохранённых рейтингов.
	assert.Equal(t, 7, *edited.RatingDeltaA)
	assert.Equal(t, -7, *edited.RatingDeltaB)

	final, err := engine.Bracket.Node(Coord{Round: 2, Position: 0})
	require.NoError(t, err)
	assert.Equal(t, NodeReady, State(final))
	assert.Equal(t, 1, *final.SlotA.ParticipantID)
	assert.Equal(t, 2, *final.SlotB.ParticipantID)
	assert.Nil(t, engine.Match(Coord{Round: 2, Position: 0}))
	assert.False(t, engine.Bracket.IsComplete())
}

func TestEditResultRejectsUndecidedNode(t *testing.T) {
	engine, _ := fourPlayerEngine(t)
	_, _, err := engine.EditResult(Coord{Round: 1, Position: 0}, Result{SetsA: 3, SetsB: 0})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestDeleteResultCascades(t *testing.T) {
	engine, _ := fourPlayerEngine(t)
	require.NoError(t, recordAll(engine))

	removed, err := engine.DeleteResult(Coord{Round: 1, Position: 0})
	require.NoError(t, err)
	assert.Equal(t, []Coord{{Round: 1, Position: 0}, {Round: 2, Position: 0}}, removed)

	// Узел снова готов к результату, его участники на месте.
	node, err := engine.Bracket.Node(Coord{Round: 1, Position: 0})
	require.NoError(t, err)
	assert.Equal(t, NodeReady, State(node))
	assert.Equal(t, 1, *node.SlotA.ParticipantID)
	assert.Equal(t, 4, *node.SlotB.ParticipantID)

	// Финал потерял победителя верхней пары и ждёт его заново.
	final, err := engine.Bracket.Node(Coord{Round: 2, Position: 0})
	require.NoError(t, err)
	assert.Equal(t, NodePending, State(final))
	assert.True(t, final.SlotA.Undetermined())
	assert.True(t, final.SlotB.Filled())
}

func TestLoadEliminationResumesState(t *testing.T) {
	engine, participants := fourPlayerEngine(t)
	_, err := engine.RecordResult(Coord{Round: 1, Position: 0}, Result{SetsA: 3, SetsB: 1})
	require.NoError(t, err)
	_, err = engine.RecordResult(Coord{Round: 1, Position: 1}, Result{SetsA: 2, SetsB: 3})
	require.NoError(t, err)

	// Внешние наблюдатели не получают дельт: состояние перечитывается и
	// пересобирается с нуля из плоских узлов и матчей.
	for i, m := range engine.Matches() {
		m.ID = i + 1
	}
	resumed, err := LoadElimination(engine.Bracket.Nodes, participants, engine.Matches())
	require.NoError(t, err)

	assert.Equal(t, 1586, resumed.RatingBefore(1, 2))
	assert.Equal(t, 1550, resumed.RatingBefore(3, 2))

	final, err := resumed.RecordResult(Coord{Round: 2, Position: 0}, Result{SetsA: 3, SetsB: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, *final.WinnerID)
	assert.True(t, resumed.Bracket.IsComplete())
}

func recordAll(e *Elimination) error {
	if _, err := e.RecordResult(Coord{Round: 1, Position: 0}, Result{SetsA: 3, SetsB: 1}); err != nil {
		return err
	}
	// Нижняя пара: выигрывает P3.
	if _, err := e.RecordResult(Coord{Round: 1, Position: 1}, Result{SetsA: 2, SetsB: 3}); err != nil {
		return err
	}
	_, err := e.RecordResult(Coord{Round: 2, Position: 0}, Result{SetsA: 3, SetsB: 0})
	return err
}
