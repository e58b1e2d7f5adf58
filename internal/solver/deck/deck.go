// Package deck tracks the composition of the remaining draw pile and
// exposes counts and straight-out analysis used by the probability
// module. A Tracker is owned by a single evaluation and is never shared
// across goroutines.
package deck

import (
	"sort"

	"github.com/rook/blindsolver/internal/solver/card"
)

// StandardDeck builds a fresh 52-card deck with no modifiers.
func StandardDeck() []card.Card {
	out := make([]card.Card, 0, 52)
	for _, s := range card.AllSuits {
		for _, r := range card.AllRanks {
			out = append(out, card.New(r, s))
		}
	}
	return out
}

// StraightPotential summarizes open-ended vs. gutshot straight draws for
// a set of ranks already in hand.
type StraightPotential struct {
	OpenEnded int
	Gutshot   int
	BestOuts  int
}

// straight sequences, low to high, mirroring handeval's canonical set.
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

// Tracker maintains the three multisets of cards (remaining, played,
// discarded) plus lazily recomputed per-suit and per-rank caches over
// remaining. The invariant: the union of the three multisets equals the
// starting deck composition at all times except during explicit reshuffle.
type Tracker struct {
	remaining []card.Card
	played    []card.Card
	discarded []card.Card

	dirty      bool
	suitCounts map[card.Suit]int
	rankCounts map[card.Rank]int
}

// NewTracker creates a tracker seeded with a fresh standard deck.
func NewTracker() *Tracker {
	t := &Tracker{remaining: StandardDeck()}
	t.refresh()
	return t
}

// FromKnownCards builds a tracker by subtracting the given hand/played/
// discarded cards (by identity: rank+suit, ignoring modifiers) from a
// fresh standard deck.
func FromKnownCards(hand, played, discarded []card.Card) *Tracker {
	type key struct {
		r card.Rank
		s card.Suit
	}
	seen := map[key]bool{}
	mark := func(cs []card.Card) {
		for _, c := range cs {
			seen[key{c.Rank, c.Suit}] = true
		}
	}
	mark(hand)
	mark(played)
	mark(discarded)

	var remaining []card.Card
	for _, c := range StandardDeck() {
		if !seen[key{c.Rank, c.Suit}] {
			remaining = append(remaining, c)
		}
	}

	t := &Tracker{
		remaining: remaining,
		played:    append([]card.Card(nil), played...),
		discarded: append([]card.Card(nil), discarded...),
	}
	t.refresh()
	return t
}

// FromRemainingCount builds an approximate tracker from aggregate counts
// only, used when exact card identity is unknown (e.g. an opponent's
// deck). Distributes any remainder evenly across suits/ranks.
func FromRemainingCount(total int, suitCounts map[card.Suit]int, rankCounts map[card.Rank]int) *Tracker {
	if suitCounts == nil {
		suitCounts = evenSplit(total, card.AllSuits[:])
	}
	if rankCounts == nil {
		rankCounts = evenSplitRanks(total, card.AllRanks[:])
	}

	rankRemaining := make(map[card.Rank]int, len(rankCounts))
	for r, n := range rankCounts {
		rankRemaining[r] = n
	}

	var cards []card.Card
	for _, s := range card.AllSuits {
		need := suitCounts[s]
		for _, r := range card.AllRanks {
			if need <= 0 {
				break
			}
			if rankRemaining[r] > 0 {
				cards = append(cards, card.New(r, s))
				need--
				rankRemaining[r]--
			}
		}
	}

	t := &Tracker{remaining: cards}
	t.refresh()
	return t
}

func evenSplit(total int, suits []card.Suit) map[card.Suit]int {
	out := map[card.Suit]int{}
	per := total / len(suits)
	for _, s := range suits {
		out[s] = per
	}
	for i := 0; i < total%len(suits); i++ {
		out[suits[i]]++
	}
	return out
}

func evenSplitRanks(total int, ranks []card.Rank) map[card.Rank]int {
	out := map[card.Rank]int{}
	per := total / len(ranks)
	for _, r := range ranks {
		out[r] = per
	}
	for i := 0; i < total%len(ranks); i++ {
		out[ranks[i]]++
	}
	return out
}

func (t *Tracker) refresh() {
	t.suitCounts = map[card.Suit]int{}
	t.rankCounts = map[card.Rank]int{}
	for _, c := range t.remaining {
		t.suitCounts[c.Suit]++
		t.rankCounts[c.Rank]++
	}
	t.dirty = false
}

func (t *Tracker) ensureFresh() {
	if t.dirty {
		t.refresh()
	}
}

// RemoveCard removes one matching card (by rank+suit) from remaining and
// appends it to the played or discarded pile. Returns false when no
// matching card was found.
func (t *Tracker) RemoveCard(c card.Card, played bool) bool {
	for i, r := range t.remaining {
		if r.Rank == c.Rank && r.Suit == c.Suit {
			t.remaining = append(t.remaining[:i], t.remaining[i+1:]...)
			if played {
				t.played = append(t.played, c)
			} else {
				t.discarded = append(t.discarded, c)
			}
			t.dirty = true
			return true
		}
	}
	return false
}

// RemoveCards is the batched form of RemoveCard, returning the count
// actually removed.
func (t *Tracker) RemoveCards(cs []card.Card, played bool) int {
	removed := 0
	for _, c := range cs {
		if t.RemoveCard(c, played) {
			removed++
		}
	}
	return removed
}

// Reset restores a fresh standard composition, clearing played/discarded.
func (t *Tracker) Reset() {
	t.remaining = StandardDeck()
	t.played = nil
	t.discarded = nil
	t.dirty = true
}

// Clone produces an independent deep copy.
func (t *Tracker) Clone() *Tracker {
	clone := &Tracker{
		remaining: append([]card.Card(nil), t.remaining...),
		played:    append([]card.Card(nil), t.played...),
		discarded: append([]card.Card(nil), t.discarded...),
	}
	clone.refresh()
	return clone
}

// TotalRemaining returns the number of cards left in the draw pile.
func (t *Tracker) TotalRemaining() int { return len(t.remaining) }

// TotalSeen returns the number of cards played plus discarded.
func (t *Tracker) TotalSeen() int { return len(t.played) + len(t.discarded) }

// SuitCount returns the count of remaining cards of the given suit.
func (t *Tracker) SuitCount(s card.Suit) int {
	t.ensureFresh()
	return t.suitCounts[s]
}

// RankCount returns the count of remaining cards of the given rank.
func (t *Tracker) RankCount(r card.Rank) int {
	t.ensureFresh()
	return t.rankCounts[r]
}

// CardCount returns the count (0 or 1 in a standard deck) of a specific
// rank+suit combination remaining.
func (t *Tracker) CardCount(r card.Rank, s card.Suit) int {
	n := 0
	for _, c := range t.remaining {
		if c.Rank == r && c.Suit == s {
			n++
		}
	}
	return n
}

// SuitDistribution returns a snapshot of per-suit remaining counts.
func (t *Tracker) SuitDistribution() map[card.Suit]int {
	t.ensureFresh()
	out := make(map[card.Suit]int, len(t.suitCounts))
	for k, v := range t.suitCounts {
		out[k] = v
	}
	return out
}

// RankDistribution returns a snapshot of per-rank remaining counts.
func (t *Tracker) RankDistribution() map[card.Rank]int {
	t.ensureFresh()
	out := make(map[card.Rank]int, len(t.rankCounts))
	for k, v := range t.rankCounts {
		out[k] = v
	}
	return out
}

// HighCardCount returns the count of remaining cards ranked 10 or higher.
func (t *Tracker) HighCardCount() int {
	total := 0
	for _, r := range []card.Rank{card.Ten, card.Jack, card.Queen, card.King, card.Ace} {
		total += t.RankCount(r)
	}
	return total
}

// FaceCardCount returns the count of remaining face cards (J, Q, K).
func (t *Tracker) FaceCardCount() int {
	total := 0
	for _, r := range []card.Rank{card.Jack, card.Queen, card.King} {
		total += t.RankCount(r)
	}
	return total
}

// HasStraightPotential analyzes straight draws given the set of ranks
// currently in hand, per the ten canonical 5-rank sequences.
func (t *Tracker) HasStraightPotential(handRanks map[card.Rank]bool) StraightPotential {
	var pot StraightPotential

	for _, seq := range straightSequences {
		have := 0
		for _, v := range seq {
			if handRanks[card.Rank(v)] {
				have++
			}
		}
		need := 5 - have

		switch {
		case need == 1:
			missing := missingValue(seq, handRanks)
			missingRank := card.Rank(missing)
			outs := t.RankCount(missingRank)
			if outs > pot.BestOuts {
				pot.BestOuts = outs
			}
			if missing == seq[0] || missing == seq[len(seq)-1] {
				pot.OpenEnded++
			} else {
				pot.Gutshot++
			}
		case need == 2 && have >= 3:
			pot.Gutshot++
		}
	}

	return pot
}

func missingValue(seq [5]int, handRanks map[card.Rank]bool) int {
	for _, v := range seq {
		if !handRanks[card.Rank(v)] {
			return v
		}
	}
	return seq[0]
}

// sortedRanks is a small helper used by callers building handRanks maps
// from a card slice; kept here so deck and probability share one
// convention for turning played cards into a rank set.
func sortedRanks(cards []card.Card) []card.Rank {
	seen := map[card.Rank]bool{}
	var out []card.Rank
	for _, c := range cards {
		if !seen[c.Rank] {
			seen[c.Rank] = true
			out = append(out, c.Rank)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RanksOf builds the rank-set map HasStraightPotential expects from a
// slice of cards.
func RanksOf(cards []card.Card) map[card.Rank]bool {
	out := map[card.Rank]bool{}
	for _, r := range sortedRanks(cards) {
		out[r] = true
	}
	return out
}
