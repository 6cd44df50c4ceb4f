package brackets

import (
	"sort"

	"github.com/IlyaVolvo/spin-master-sub001/models"
)

// ComputeStandings aggregates decided matches into a ranked table for
// round-robin-shaped data: wins descending, then set differential
// descending, then entry order (position in the participants slice) as
// the stable tiebreak. A forfeited match with no sets played counts as a
// 1:0 decision for standings purposes.
func ComputeStandings(participants []*models.Participant, matches []*models.Match) []*models.Standing {
	index := make(map[int]*models.Standing, len(participants))
	entryOrder := make(map[int]int, len(participants))
	rows := make([]*models.Standing, 0, len(participants))

	for i, p := range participants {
		row := &models.Standing{ParticipantID: p.ID, PlayerID: p.PlayerID}
		index[p.ID] = row
		entryOrder[p.ID] = i
		rows = append(rows, row)
	}

	for _, m := range matches {
		if !m.Decided() || m.P1ID == nil || m.P2ID == nil {
			continue
		}
		rowA, okA := index[*m.P1ID]
		rowB, okB := index[*m.P2ID]
		if !okA || !okB {
			continue
		}

		setsA, setsB := m.SetsA, m.SetsB
		if (m.ForfeitA || m.ForfeitB) && setsA == 0 && setsB == 0 {
			if *m.WinnerID == *m.P1ID {
				setsA = 1
			} else {
				setsB = 1
			}
		}

		rowA.SetsWon += setsA
		rowA.SetsLost += setsB
		rowB.SetsWon += setsB
		rowB.SetsLost += setsA
		if *m.WinnerID == *m.P1ID {
			rowA.Wins++
			rowB.Losses++
		} else {
			rowB.Wins++
			rowA.Losses++
		}
	}

	for _, row := range rows {
		row.SetDiff = row.SetsWon - row.SetsLost
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Wins != rows[j].Wins {
			return rows[i].Wins > rows[j].Wins
		}
		if rows[i].SetDiff != rows[j].SetDiff {
			return rows[i].SetDiff > rows[j].SetDiff
		}
		return entryOrder[rows[i].ParticipantID] < entryOrder[rows[j].ParticipantID]
	})
	for i, row := range rows {
		row.Rank = i + 1
	}
	return rows
}
