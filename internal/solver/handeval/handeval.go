// Package handeval categorizes 1-5 played cards into one of thirteen
// poker-hand categories and determines which of those cards score.
package handeval

import (
	"fmt"
	"sort"

	"github.com/rook/blindsolver/internal/solver/card"
)

// Category is one of thirteen totally ordered hand categories. Higher
// values are stronger hands; the ordering is the comparison itself.
type Category int

const (
	HighCard Category = iota + 1
	Pair
	TwoPair
	ThreeOfKind
	Straight
	Flush
	FullHouse
	FourOfKind
	StraightFlush
	RoyalFlush
	FiveOfKind
	FlushHouse
	FlushFive
)

var categoryNames = map[Category]string{
	HighCard:      "HighCard",
	Pair:          "Pair",
	TwoPair:       "TwoPair",
	ThreeOfKind:   "ThreeOfKind",
	Straight:      "Straight",
	Flush:         "Flush",
	FullHouse:     "FullHouse",
	FourOfKind:    "FourOfKind",
	StraightFlush: "StraightFlush",
	RoyalFlush:    "RoyalFlush",
	FiveOfKind:    "FiveOfKind",
	FlushHouse:    "FlushHouse",
	FlushFive:     "FlushFive",
}

func (c Category) String() string {
	if n, ok := categoryNames[c]; ok {
		return n
	}
	return "Unknown"
}

type baseValue struct {
	chips int
	mult  int
}

var baseValues = map[Category]baseValue{
	HighCard:      {5, 1},
	Pair:          {10, 2},
	TwoPair:       {20, 2},
	ThreeOfKind:   {30, 3},
	Straight:      {30, 4},
	Flush:         {35, 4},
	FullHouse:     {40, 4},
	FourOfKind:    {60, 7},
	StraightFlush: {100, 8},
	RoyalFlush:    {100, 8},
	FiveOfKind:    {120, 12},
	FlushHouse:    {140, 14},
	FlushFive:     {160, 16},
}

// BaseChips returns the category's level-1 base chip value.
func (c Category) BaseChips() int { return baseValues[c].chips }

// BaseMult returns the category's level-1 base mult value.
func (c Category) BaseMult() int { return baseValues[c].mult }

// Result is the categorized hand plus the sub-sequence of played cards
// designated as scoring cards.
type Result struct {
	Category     Category
	ScoringCards []card.Card
}

// straight sequences, low-to-high rank values; the wheel (A-2-3-4-5) and
// Broadway (10-J-Q-K-A) are both canonical.
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

// EvaluateHand categorizes 1-5 played cards. Returns an error if the
// played set is empty or exceeds five cards.
func EvaluateHand(cards []card.Card) (Result, error) {
	if len(cards) == 0 || len(cards) > 5 {
		return Result{}, fmt.Errorf("handeval: played set must have 1-5 cards, got %d", len(cards))
	}

	var normal, stone []card.Card
	for _, c := range cards {
		if c.IsStone() {
			stone = append(stone, c)
		} else {
			normal = append(normal, c)
		}
	}

	rankCounts := map[card.Rank]int{}
	rankCards := map[card.Rank][]card.Card{}
	for _, c := range normal {
		rankCounts[c.Rank]++
		rankCards[c.Rank] = append(rankCards[c.Rank], c)
	}

	isFlush := flushPredicate(normal)
	isStraight := straightPredicate(normal)
	isAceHighStraight := isStraight && aceHighStraight(normal)

	counts := sortedCounts(rankCounts)

	var category Category
	switch {
	case counts.fiveOfAKind() && isFlush:
		category = FlushFive
	case counts.fiveOfAKind():
		category = FiveOfKind
	case isFlush && isStraight && isAceHighStraight:
		category = RoyalFlush
	case isFlush && isStraight:
		category = StraightFlush
	case counts.fourOfAKind():
		category = FourOfKind
	case counts.fullHouse() && isFlush:
		category = FlushHouse
	case counts.fullHouse():
		category = FullHouse
	case isFlush:
		category = Flush
	case isStraight:
		category = Straight
	case counts.threeOfAKind():
		category = ThreeOfKind
	case counts.twoPair():
		category = TwoPair
	case counts.onePair():
		category = Pair
	default:
		category = HighCard
	}

	scoring := scoringCards(category, normal, rankCounts, rankCards)
	scoring = append(scoring, stone...)

	return Result{Category: category, ScoringCards: scoring}, nil
}

// scoringCards implements the §3 invariant: for HighCard only the single
// highest-ranked card scores; for Pair/TwoPair/ThreeOfKind/FourOfKind only
// cards whose rank participates in the matching set score; for all other
// categories every played (normal) card scores.
func scoringCards(cat Category, normal []card.Card, rankCounts map[card.Rank]int, rankCards map[card.Rank][]card.Card) []card.Card {
	switch cat {
	case HighCard:
		if len(normal) == 0 {
			return nil
		}
		best := normal[0]
		for _, c := range normal[1:] {
			if c.Rank > best.Rank {
				best = c
			}
		}
		return []card.Card{best}
	case Pair, TwoPair, ThreeOfKind, FourOfKind:
		var out []card.Card
		for rank, count := range rankCounts {
			if count >= 2 {
				out = append(out, rankCards[rank]...)
			}
		}
		return out
	default:
		out := make([]card.Card, len(normal))
		copy(out, normal)
		return out
	}
}

func flushPredicate(normal []card.Card) bool {
	for _, s := range card.AllSuits {
		n := 0
		for _, c := range normal {
			if c.HasSuit(s) {
				n++
			}
		}
		if n >= 5 {
			return true
		}
	}
	return false
}

func straightPredicate(normal []card.Card) bool {
	if len(normal) < 5 {
		return false
	}
	values := map[int]bool{}
	for _, c := range normal {
		values[int(c.Rank)] = true
	}
	for _, seq := range straightSequences {
		all := true
		for _, v := range seq {
			if !values[v] {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

// aceHighStraight reports whether the straight present is specifically
// Broadway (10-J-Q-K-A), distinguishing RoyalFlush from StraightFlush.
func aceHighStraight(normal []card.Card) bool {
	values := map[int]bool{}
	for _, c := range normal {
		values[int(c.Rank)] = true
	}
	for _, v := range straightSequences[len(straightSequences)-1] {
		if !values[v] {
			return false
		}
	}
	return true
}

type countSummary struct {
	counts []int // descending multiplicities, e.g. [3,2] for a full house
}

func sortedCounts(rankCounts map[card.Rank]int) countSummary {
	counts := make([]int, 0, len(rankCounts))
	for _, n := range rankCounts {
		counts = append(counts, n)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(counts)))
	return countSummary{counts: counts}
}

func (c countSummary) nth(i int) int {
	if i >= len(c.counts) {
		return 0
	}
	return c.counts[i]
}

func (c countSummary) fiveOfAKind() bool  { return c.nth(0) >= 5 }
func (c countSummary) fourOfAKind() bool  { return c.nth(0) >= 4 }
func (c countSummary) fullHouse() bool    { return c.nth(0) >= 3 && c.nth(1) >= 2 }
func (c countSummary) threeOfAKind() bool { return c.nth(0) >= 3 }
func (c countSummary) twoPair() bool      { return c.nth(0) >= 2 && c.nth(1) >= 2 }
func (c countSummary) onePair() bool      { return c.nth(0) >= 2 }

// BestOf5 enumerates every 5-card subset of cards (len > 5) and returns
// the strongest under (category, base_chips*base_mult) ordering, along
// with the subset that produced it. Complexity is C(N,5); the spec
// expects N <= 8 in practice.
func BestOf5(cards []card.Card) ([]card.Card, Result, error) {
	if len(cards) <= 5 {
		res, err := EvaluateHand(cards)
		return cards, res, err
	}

	var bestSubset []card.Card
	var bestResult Result
	found := false

	forEachCombination(len(cards), 5, func(idx []int) {
		subset := make([]card.Card, 5)
		for i, j := range idx {
			subset[i] = cards[j]
		}
		res, err := EvaluateHand(subset)
		if err != nil {
			return
		}
		if !found || better(res, bestResult) {
			bestResult = res
			bestSubset = subset
			found = true
		}
	})

	if !found {
		return nil, Result{}, fmt.Errorf("handeval: no valid 5-card subset found")
	}
	return bestSubset, bestResult, nil
}

func better(a, b Result) bool {
	if a.Category != b.Category {
		return a.Category > b.Category
	}
	return a.Category.BaseChips()*a.Category.BaseMult() > b.Category.BaseChips()*b.Category.BaseMult()
}

// forEachCombination invokes fn once per k-combination of indices
// [0, n), in lexicographic order.
func forEachCombination(n, k int, fn func(idx []int)) {
	if k > n {
		return
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		fn(idx)
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
