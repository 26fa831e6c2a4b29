package standings

import "slices"

// Tiebreaker formulas. All of them are pure functions of the opponents'
// score snapshot, so recomputation after any correction reproduces the same
// values.

// buchholz sums the opponents' current points. Bye pseudo-opponents appear
// in the slice already, valued at the configured bye opponent score.
func buchholz(opponentScores []float64) float64 {
	var sum float64
	for _, s := range opponentScores {
		sum += s
	}
	return sum
}

// medianBuchholz drops the single highest and single lowest opponent score.
// With fewer than 3 opponents it falls back to plain Buchholz.
func medianBuchholz(opponentScores []float64) float64 {
	if len(opponentScores) < 3 {
		return buchholz(opponentScores)
	}
	return buchholz(opponentScores) - slices.Max(opponentScores) - slices.Min(opponentScores)
}

// progressive sums the running cumulative point total after each round,
// rewarding early success. Rounds where the participant earned nothing still
// carry the running total forward.
func progressive(pointsByRound map[int]float64, totalRounds int) float64 {
	var cumulative, sum float64
	for round := 1; round <= totalRounds; round++ {
		cumulative += pointsByRound[round]
		sum += cumulative
	}
	return sum
}

type opponentRecord struct {
	wins          int
	matchesPlayed int
}

// opponentWinPct is the mean of the opponents' win ratios, clamped to [0,1].
// Byes contribute no opponent.
func opponentWinPct(opponents []opponentRecord) float64 {
	if len(opponents) == 0 {
		return 0
	}
	var sum float64
	for _, o := range opponents {
		if o.matchesPlayed > 0 {
			sum += float64(o.wins) / float64(o.matchesPlayed)
		}
	}
	pct := sum / float64(len(opponents))
	if pct < 0 {
		return 0
	}
	if pct > 1 {
		return 1
	}
	return pct
}
