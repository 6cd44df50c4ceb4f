// Package rating implements the club's point-exchange table for table
// tennis. Unlike Elo, the exchange is a fixed step table keyed by the
// rating gap between the two players and by whether the result is an
// upset: the further apart the ratings, the more an upset pays and the
// less an expected win pays.
package rating

// Exchange values are paired per 25-point band of the absolute rating
// difference. The first band is [0,12], then [13,37], [38,62] and so on.
type bandPoints struct {
	Upset    int
	Expected int
}

// exchangeTable covers rating gaps up to 262. Beyond the last band the
// upset payout keeps growing by 5 per band until MaxExchange, while the
// expected payout stays at zero.
var exchangeTable = []bandPoints{
	{8, 8},   // 0..12
	{10, 7},  // 13..37
	{13, 6},  // 38..62
	{16, 5},  // 63..87
	{20, 4},  // 88..112
	{25, 3},  // 113..137
	{30, 2},  // 138..162
	{35, 2},  // 163..187
	{40, 1},  // 188..212
	{45, 1},  // 213..237
	{50, 0},  // 238..262
}

// MaxExchange is the ceiling on a single-match exchange, reached for
// upsets across a gap of 488 points or more.
const MaxExchange = 100

const bandWidth = 25

// band maps an absolute rating difference to its table band index.
func band(absDiff int) int {
	return (absDiff + bandWidth/2) / bandWidth
}

// Points returns the number of points exchanged for a match between
// players with the given absolute rating difference. upset reports
// whether the lower-rated side won.
func Points(absDiff int, upset bool) int {
	b := band(absDiff)
	if b < len(exchangeTable) {
		if upset {
			return exchangeTable[b].Upset
		}
		return exchangeTable[b].Expected
	}
	if !upset {
		return 0
	}
	last := len(exchangeTable) - 1
	points := exchangeTable[last].Upset + (b-last)*5
	if points > MaxExchange {
		points = MaxExchange
	}
	return points
}

// PointExchange computes the signed rating deltas for a decided match.
// ratingA and ratingB are the pre-match ratings, aWon reports whether
// side A took the match (by sets or by the opponent's forfeit). The
// returned pair is zero-sum: deltaA == -deltaB always.
//
// Byes never reach this function; forfeits with a determined winner do.
func PointExchange(ratingA, ratingB int, aWon bool) (deltaA, deltaB int) {
	diff := ratingB - ratingA
	upset := (aWon && diff > 0) || (!aWon && diff < 0)

	absDiff := diff
	if absDiff < 0 {
		absDiff = -absDiff
	}
	points := Points(absDiff, upset)

	if aWon {
		return points, -points
	}
	return -points, points
}

// Apply adds a delta to a pre-match rating. Ratings never go below zero.
func Apply(before, delta int) int {
	after := before + delta
	if after < 0 {
		return 0
	}
	return after
}
