// Package probability computes hypergeometric draw probabilities and the
// derived hand-completion estimators the decision engine uses for
// discard expected value.
package probability

import (
	"github.com/rook/blindsolver/internal/solver/card"
	"github.com/rook/blindsolver/internal/solver/deck"
)

// binomial returns C(n, k) as a float64. n and k are small in this
// domain (n <= 52), so float64 accumulation carries no meaningful error.
func binomial(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	result := 1.0
	for i := 0; i < k; i++ {
		result *= float64(n-i) / float64(i+1)
	}
	return result
}

// PMF is the hypergeometric probability mass function: the probability
// of drawing exactly k successes in n draws from a population of N
// containing K successes, without replacement.
func PMF(K, N, n, k int) float64 {
	if n > N || k > K || k > n || n-k > N-K {
		return 0
	}
	denom := binomial(N, n)
	if denom == 0 {
		return 0
	}
	return binomial(K, k) * binomial(N-K, n-k) / denom
}

// CDFAtLeast is P(X >= k) for a hypergeometric(K, N, n) distribution.
// By convention k <= 0 yields 1.
func CDFAtLeast(K, N, n, k int) float64 {
	if k <= 0 {
		return 1
	}
	p := 1.0
	for i := 0; i < k; i++ {
		p -= PMF(K, N, n, i)
	}
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return p
}

// CompletionProbabilities is the aggregate record of hand-completion
// estimates for a given hand and number of future draws.
type CompletionProbabilities struct {
	FlushBySuit      map[card.Suit]float64
	Straight         float64
	ThreeOfAKind     float64
	FullHouse        float64
	FourOfAKind      float64
}

// BestFlush returns the maximum flush-completion probability over suits.
func (c CompletionProbabilities) BestFlush() float64 {
	best := 0.0
	for _, p := range c.FlushBySuit {
		if p > best {
			best = p
		}
	}
	return best
}

// Improvement names a labelled completion probability.
type Improvement struct {
	Name        string
	Probability float64
}

// BestImprovement returns the labelled maximum across every named
// alternative (flush, straight, trips, full house, quads).
func (c CompletionProbabilities) BestImprovement() Improvement {
	best := Improvement{Name: "flush", Probability: c.BestFlush()}
	candidates := []Improvement{
		{"straight", c.Straight},
		{"three_of_a_kind", c.ThreeOfAKind},
		{"full_house", c.FullHouse},
		{"four_of_a_kind", c.FourOfAKind},
	}
	for _, cand := range candidates {
		if cand.Probability > best.Probability {
			best = cand
		}
	}
	return best
}

// FlushCompletion computes, for a single suit, the probability of
// reaching a 5-card flush given the cards already in hand and the
// tracker's remaining composition.
func FlushCompletion(hand []card.Card, tr *deck.Tracker, suit card.Suit, draws int) float64 {
	inHand := 0
	for _, c := range hand {
		if c.HasSuit(suit) {
			inHand++
		}
	}
	needed := 5 - inHand
	if needed <= 0 {
		return 1.0
	}
	if needed > draws {
		return 0.0
	}
	return CDFAtLeast(tr.SuitCount(suit), tr.TotalRemaining(), draws, needed)
}

var straightSequences = [][5]int{
	{14, 2, 3, 4, 5},
	{2, 3, 4, 5, 6},
	{3, 4, 5, 6, 7},
	{4, 5, 6, 7, 8},
	{5, 6, 7, 8, 9},
	{6, 7, 8, 9, 10},
	{7, 8, 9, 10, 11},
	{8, 9, 10, 11, 12},
	{9, 10, 11, 12, 13},
	{10, 11, 12, 13, 14},
}

// StraightCompletion computes the probability of completing some
// straight given the cards in hand and draws remaining. If a straight is
// already present, returns 1.0. See DESIGN.md open question 3 for the
// exact multi-rank approximation formula this pins.
func StraightCompletion(hand []card.Card, tr *deck.Tracker, draws int) float64 {
	handRanks := map[int]bool{}
	for _, c := range hand {
		handRanks[int(c.Rank)] = true
	}

	best := 0.0
	for _, seq := range straightSequences {
		have := 0
		var missing []int
		for _, v := range seq {
			if handRanks[v] {
				have++
			} else {
				missing = append(missing, v)
			}
		}
		needed := 5 - have
		if needed == 0 {
			return 1.0
		}
		if needed > draws {
			continue
		}

		var p float64
		if needed == 1 {
			rank := card.Rank(missing[0])
			p = CDFAtLeast(tr.RankCount(rank), tr.TotalRemaining(), draws, 1)
		} else {
			// Acknowledged upper-bound approximation (DESIGN.md Q3):
			// product of per-rank "at least one" probabilities, with the
			// population decremented by one between factors and the
			// successes count left unchanged.
			p = 1.0
			population := tr.TotalRemaining()
			for _, v := range missing {
				rank := card.Rank(v)
				p *= CDFAtLeast(tr.RankCount(rank), population, draws, 1)
				population--
			}
		}
		if p > best {
			best = p
		}
	}
	return best
}

// ThreeOfAKindCompletion computes the probability of upgrading an
// existing pair to trips.
func ThreeOfAKindCompletion(hand []card.Card, tr *deck.Tracker, draws int) float64 {
	pairRanks := ranksWithCount(hand, 2)
	best := 0.0
	for _, r := range pairRanks {
		p := CDFAtLeast(tr.RankCount(r), tr.TotalRemaining(), draws, 1)
		if p > best {
			best = p
		}
	}
	return best
}

// FullHouseCompletion computes the probability of completing a full
// house: already present -> 1.0; with existing trips, max over the other
// ranks of reaching two copies (a single hit for a rank already held once,
// two hits for a rank not held); with only pairs, single-hit on the
// most-available pair rank.
func FullHouseCompletion(hand []card.Card, tr *deck.Tracker, draws int) float64 {
	tripRanks := ranksWithCount(hand, 3)
	pairRanks := ranksWithCount(hand, 2)

	for _, tripRank := range tripRanks {
		for _, otherRank := range pairRanks {
			if otherRank != tripRank {
				return 1.0
			}
		}
	}

	if len(tripRanks) > 0 {
		best := 0.0
		for _, r := range allRanksExcept(tripRanks) {
			if tr.RankCount(r) == 0 {
				continue
			}
			heldOfRank := countRank(hand, r)
			needed := 2 - heldOfRank
			if needed <= 0 {
				continue
			}
			p := CDFAtLeast(tr.RankCount(r), tr.TotalRemaining(), draws, needed)
			if p > best {
				best = p
			}
		}
		return best
	}

	if len(pairRanks) > 0 {
		best := 0.0
		for _, r := range pairRanks {
			p := CDFAtLeast(tr.RankCount(r), tr.TotalRemaining(), draws, 1)
			if p > best {
				best = p
			}
		}
		return best
	}

	return 0.0
}

// FourOfAKindCompletion computes the max probability of upgrading any
// existing triple or pair rank to quads.
func FourOfAKindCompletion(hand []card.Card, tr *deck.Tracker, draws int) float64 {
	best := 0.0
	for _, r := range card.AllRanks {
		held := countRank(hand, r)
		if held < 2 {
			continue
		}
		needed := 4 - held
		p := CDFAtLeast(tr.RankCount(r), tr.TotalRemaining(), draws, needed)
		if p > best {
			best = p
		}
	}
	return best
}

// CalculateAllCompletionProbabilities is the C4 aggregator.
func CalculateAllCompletionProbabilities(hand []card.Card, tr *deck.Tracker, draws int) CompletionProbabilities {
	flush := make(map[card.Suit]float64, 4)
	for _, s := range card.AllSuits {
		flush[s] = FlushCompletion(hand, tr, s, draws)
	}
	return CompletionProbabilities{
		FlushBySuit:  flush,
		Straight:     StraightCompletion(hand, tr, draws),
		ThreeOfAKind: ThreeOfAKindCompletion(hand, tr, draws),
		FullHouse:    FullHouseCompletion(hand, tr, draws),
		FourOfAKind:  FourOfAKindCompletion(hand, tr, draws),
	}
}

func countRank(hand []card.Card, r card.Rank) int {
	n := 0
	for _, c := range hand {
		if c.Rank == r {
			n++
		}
	}
	return n
}

func ranksWithCount(hand []card.Card, atLeast int) []card.Rank {
	counts := map[card.Rank]int{}
	for _, c := range hand {
		counts[c.Rank]++
	}
	var out []card.Rank
	for _, r := range card.AllRanks {
		if counts[r] >= atLeast {
			out = append(out, r)
		}
	}
	return out
}

func allRanksExcept(exclude []card.Rank) []card.Rank {
	excluded := map[card.Rank]bool{}
	for _, r := range exclude {
		excluded[r] = true
	}
	var out []card.Rank
	for _, r := range card.AllRanks {
		if !excluded[r] {
			out = append(out, r)
		}
	}
	return out
}
