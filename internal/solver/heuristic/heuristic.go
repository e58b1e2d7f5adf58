// Package heuristic implements the cheap scalar evaluator (C8): a fast
// ranking over candidate plays and discards used both as a filter ahead
// of the decision engine and as the rollout policy inside MCTS.
package heuristic

import (
	"sort"

	"github.com/rook/blindsolver/internal/solver/card"
	"github.com/rook/blindsolver/internal/solver/handeval"
	"github.com/rook/blindsolver/internal/solver/scoring"
)

// Config holds the heuristic's weight constants. Defaults are grounded
// directly on the reference implementation's tuned values.
type Config struct {
	LethalBonus           float64
	HandTypeWeight        float64
	ChipEfficiencyWeight  float64
	JokerSynergyWeight    float64
	DiscardImprovementWeight float64
	KeepHighCardsWeight   float64
	KeepSynergyCardsWeight float64
}

// DefaultConfig mirrors the reference weights.
func DefaultConfig() Config {
	return Config{
		LethalBonus:              10000.0,
		HandTypeWeight:           100.0,
		ChipEfficiencyWeight:     1.0,
		JokerSynergyWeight:       50.0,
		DiscardImprovementWeight: 200.0,
		KeepHighCardsWeight:      10.0,
		KeepSynergyCardsWeight:   30.0,
	}
}

// ScoredAction is a candidate play or discard with its heuristic score.
type ScoredAction struct {
	Indices       []int
	Score         float64
	ExpectedChips int
	Reasoning     string
	IsLethal      bool
	Breakdown     scoring.Breakdown
}

// byScoreDesc sorts actions highest score first.
type byScoreDesc []ScoredAction

func (a byScoreDesc) Len() int           { return len(a) }
func (a byScoreDesc) Less(i, j int) bool { return a[i].Score > a[j].Score }
func (a byScoreDesc) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }

// EvaluatePlays scores every 1-5 card subset of hand as a play action,
// sorted best first.
func EvaluatePlays(
	hand []card.Card,
	entities []*scoring.Entity,
	registry scoring.Registry,
	state scoring.GameState,
	chipsNeeded int,
	handsRemaining int,
	cfg Config,
) []ScoredAction {
	var actions []ScoredAction

	forEachSubset(len(hand), 5, func(indices []int) {
		played, held := splitByIndices(hand, indices)

		breakdown, err := scoring.Calculate(played, held, entities, registry, state, nil)
		if err != nil {
			return
		}

		score := 0.0
		isLethal := breakdown.FinalScore >= chipsNeeded
		if isLethal {
			score += cfg.LethalBonus
		}

		score += float64(breakdown.Category) * cfg.HandTypeWeight
		score += float64(breakdown.FinalScore) / float64(len(played)) * cfg.ChipEfficiencyWeight

		score += playSynergy(played, entities, cfg)

		if handsRemaining <= 2 && !isLethal {
			score += float64(breakdown.FinalScore) * 0.1
		}

		if isLethal && len(played) > 2 {
			score -= float64(len(played)) * 10
		}

		actions = append(actions, ScoredAction{
			Indices:       indices,
			Score:         score,
			ExpectedChips: breakdown.FinalScore,
			IsLethal:      isLethal,
			Breakdown:     breakdown,
		})
	})

	sort.Stable(byScoreDesc(actions))
	return actions
}

// EvaluateDiscards scores every 1-5 card subset of hand as a discard
// action, sorted best first.
func EvaluateDiscards(hand []card.Card, entities []*scoring.Entity, cfg Config) []ScoredAction {
	_, bestCards := bestHandIn(hand)
	bestSet := map[card.Card]bool{}
	for _, c := range bestCards {
		bestSet[c] = true
	}

	var actions []ScoredAction
	forEachSubset(len(hand), 5, func(indices []int) {
		discarded, kept := splitByIndices(hand, indices)

		score := 0.0
		discardingBest := false
		for _, c := range discarded {
			if bestSet[c] {
				discardingBest = true
				break
			}
		}
		if discardingBest {
			score -= 500
		}

		score += keptPotential(kept) * cfg.DiscardImprovementWeight

		lowCardBonus := 0.0
		for _, c := range discarded {
			lowCardBonus += float64(14 - int(c.Rank))
		}
		lowCardBonus *= cfg.KeepHighCardsWeight
		score += lowCardBonus

		score += keptSynergy(kept, entities, cfg)
		score -= playSynergy(discarded, entities, cfg) * 0.5
		score -= float64(len(discarded)) * 5

		actions = append(actions, ScoredAction{
			Indices:       indices,
			Score:         score,
			ExpectedChips: 0,
		})
	})

	sort.Stable(byScoreDesc(actions))
	return actions
}

// ShouldDiscard implements the convenience predicate from spec.md §4.8:
// discard only when no lethal play exists, there is more than one hand
// remaining, a discard remains, the current hand can do no better than a
// pair, a positive-scoring discard candidate exists, and the best play's
// expected chips fall below half of what's still needed.
func ShouldDiscard(
	hand []card.Card, entities []*scoring.Entity, registry scoring.Registry, state scoring.GameState,
	chipsNeeded, handsRemaining, discardsRemaining int, cfg Config,
) bool {
	if discardsRemaining <= 0 || handsRemaining <= 1 {
		return false
	}

	plays := EvaluatePlays(hand, entities, registry, state, chipsNeeded, handsRemaining, cfg)
	if len(plays) == 0 {
		return false
	}
	best := plays[0]
	if best.IsLethal {
		return false
	}

	bestCategory, bestCards := bestHandIn(hand)
	if bestCards == nil {
		return true
	}
	if bestCategory > handeval.Pair {
		return false
	}

	discards := EvaluateDiscards(hand, entities, cfg)
	if len(discards) == 0 || discards[0].Score <= 0 {
		return false
	}
	return float64(best.ExpectedChips) < float64(chipsNeeded)*0.5
}

// playSynergy sums per-card entity-synergy predicates: suit-matching
// jokers, pair/trips set jokers, and the half_joker bonus for 3 or fewer
// cards.
func playSynergy(cards []card.Card, entities []*scoring.Entity, cfg Config) float64 {
	bonus := 0.0
	for _, e := range entities {
		switch e.ID {
		case "greedy_joker":
			bonus += countSuit(cards, card.Diamonds) * cfg.JokerSynergyWeight
		case "lusty_joker":
			bonus += countSuit(cards, card.Hearts) * cfg.JokerSynergyWeight
		case "wrathful_joker":
			bonus += countSuit(cards, card.Spades) * cfg.JokerSynergyWeight
		case "gluttonous_joker":
			bonus += countSuit(cards, card.Clubs) * cfg.JokerSynergyWeight
		case "jolly_joker", "sly_joker", "the_duo":
			if maxRankCount(cards) >= 2 {
				bonus += cfg.JokerSynergyWeight
			}
		case "zany_joker", "wily_joker", "the_trio":
			if maxRankCount(cards) >= 3 {
				bonus += cfg.JokerSynergyWeight * 1.5
			}
		case "half_joker":
			if len(cards) <= 3 {
				bonus += cfg.JokerSynergyWeight * 2
			}
		}
	}
	return bonus
}

// keptSynergy scores entities whose effect reads the held (kept) cards:
// blackboard wants every held card Spades/Clubs, raised_fist rewards a
// higher lowest-held-rank.
func keptSynergy(cards []card.Card, entities []*scoring.Entity, cfg Config) float64 {
	bonus := 0.0
	for _, e := range entities {
		switch e.ID {
		case "blackboard":
			allBlack := true
			for _, c := range cards {
				if !(c.Suit == card.Spades || c.Suit == card.Clubs) {
					allBlack = false
					break
				}
			}
			if allBlack && len(cards) > 0 {
				bonus += cfg.JokerSynergyWeight * 3
			}
		case "raised_fist":
			if len(cards) > 0 {
				lowest := int(cards[0].Rank)
				for _, c := range cards[1:] {
					if int(c.Rank) < lowest {
						lowest = int(c.Rank)
					}
				}
				bonus += float64(lowest) * 2
			}
		}
	}
	return bonus
}

// keptPotential scores the raw hand-improvement potential of the cards
// kept after a discard: existing pairs/trips, 4-flush draws, 4-run
// straight draws, and high-card count.
func keptPotential(cards []card.Card) float64 {
	if len(cards) == 0 {
		return 0
	}
	score := 0.0

	rankCounts := map[card.Rank]int{}
	suitCounts := map[card.Suit]int{}
	for _, c := range cards {
		rankCounts[c.Rank]++
		suitCounts[c.Suit]++
	}

	pairs, trips := 0, 0
	for _, n := range rankCounts {
		if n >= 2 {
			pairs++
		}
		if n >= 3 {
			trips++
		}
	}
	score += float64(pairs) * 50
	score += float64(trips) * 100

	for _, n := range suitCounts {
		if n >= 4 {
			score += 80
			break
		}
	}

	ranks := make([]int, 0, len(rankCounts))
	for r := range rankCounts {
		ranks = append(ranks, int(r))
	}
	sort.Ints(ranks)
	maxRun, run := 1, 1
	for i := 1; i < len(ranks); i++ {
		if ranks[i]-ranks[i-1] == 1 {
			run++
			if run > maxRun {
				maxRun = run
			}
		} else {
			run = 1
		}
	}
	if len(ranks) >= 4 && maxRun >= 4 {
		score += 60
	}

	high := 0
	for _, c := range cards {
		if c.Rank >= card.Ten {
			high++
		}
	}
	score += float64(high) * 10

	return score
}

// bestHandIn brute-forces the best hand category achievable with any
// subset of cards (up to 5), used to decide whether discarding would
// break a hand already in progress.
func bestHandIn(cards []card.Card) (handeval.Category, []card.Card) {
	if len(cards) == 0 {
		return handeval.HighCard, nil
	}
	best := handeval.HighCard
	var bestCards []card.Card
	found := false

	forEachSubset(len(cards), 5, func(indices []int) {
		subset, _ := splitByIndices(cards, indices)
		result, err := handeval.EvaluateHand(subset)
		if err != nil {
			return
		}
		if !found || result.Category > best {
			best = result.Category
			bestCards = subset
			found = true
		}
	})
	if !found {
		return handeval.HighCard, nil
	}
	return best, bestCards
}

func countSuit(cards []card.Card, s card.Suit) float64 {
	n := 0.0
	for _, c := range cards {
		if c.HasSuit(s) {
			n++
		}
	}
	return n
}

func maxRankCount(cards []card.Card) int {
	counts := map[card.Rank]int{}
	for _, c := range cards {
		counts[c.Rank]++
	}
	max := 0
	for _, n := range counts {
		if n > max {
			max = n
		}
	}
	return max
}

func splitByIndices(cards []card.Card, indices []int) (selected, remaining []card.Card) {
	seen := map[int]bool{}
	for _, i := range indices {
		seen[i] = true
	}
	for i, c := range cards {
		if seen[i] {
			selected = append(selected, c)
		} else {
			remaining = append(remaining, c)
		}
	}
	return selected, remaining
}

// forEachSubset enumerates every non-empty subset of {0, ..., n-1} of
// size 1 through maxSize, calling fn with each as an ascending index
// slice.
func forEachSubset(n, maxSize int, fn func(indices []int)) {
	if maxSize > n {
		maxSize = n
	}
	for size := 1; size <= maxSize; size++ {
		idx := make([]int, size)
		for i := range idx {
			idx[i] = i
		}
		for {
			fn(append([]int(nil), idx...))
			i := size - 1
			for i >= 0 && idx[i] == n-size+i {
				i--
			}
			if i < 0 {
				break
			}
			idx[i]++
			for j := i + 1; j < size; j++ {
				idx[j] = idx[j-1] + 1
			}
		}
	}
}
