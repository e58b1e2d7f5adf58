package handeval

import (
	"testing"

	"github.com/rook/blindsolver/internal/solver/card"
)

func parseAll(t *testing.T, ss ...string) []card.Card {
	t.Helper()
	out := make([]card.Card, len(ss))
	for i, s := range ss {
		c, err := card.Parse(s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		out[i] = c
	}
	return out
}

func TestCategoryCompleteness(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		hand []string
		want Category
	}{
		{"high card", []string{"2S", "5H", "9C", "JD", "AS"}, HighCard},
		{"pair", []string{"AS", "AH", "2C", "5D", "9S"}, Pair},
		{"two pair", []string{"AS", "AH", "KC", "KD", "9S"}, TwoPair},
		{"trips", []string{"AS", "AH", "AC", "5D", "9S"}, ThreeOfKind},
		{"straight", []string{"5S", "6H", "7C", "8D", "9S"}, Straight},
		{"wheel straight", []string{"AS", "2H", "3C", "4D", "5S"}, Straight},
		{"flush", []string{"2S", "5S", "9S", "JS", "AS"}, Flush},
		{"full house", []string{"AS", "AH", "AC", "KD", "KS"}, FullHouse},
		{"quads", []string{"AS", "AH", "AC", "AD", "KS"}, FourOfKind},
		{"straight flush", []string{"5S", "6S", "7S", "8S", "9S"}, StraightFlush},
		{"royal flush", []string{"10S", "JS", "QS", "KS", "AS"}, RoyalFlush},
		{"five of a kind", []string{"AS", "AH", "AC", "AD", "AS"}, FiveOfKind},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			hand := parseAll(t, tc.hand...)
			res, err := EvaluateHand(hand)
			if err != nil {
				t.Fatalf("EvaluateHand error: %v", err)
			}
			if res.Category != tc.want {
				t.Errorf("got %s, want %s", res.Category, tc.want)
			}
		})
	}
}

func TestFiveOfAKindFromDuplicateRank(t *testing.T) {
	t.Parallel()
	// five_of_a_kind here reuses a duplicate Ace of spades deliberately to
	// exercise the rank-histogram path without needing card-identity
	// uniqueness, matching the evaluator's pure pattern-matching contract.
	hand := parseAll(t, "AS", "AH", "AC", "AD", "AS")
	res, err := EvaluateHand(hand)
	if err != nil {
		t.Fatal(err)
	}
	if res.Category != FiveOfKind {
		t.Errorf("got %s, want FiveOfKind", res.Category)
	}
}

func TestStraightBeatsFlushWhenBothPresentIsStraightFlush(t *testing.T) {
	t.Parallel()
	hand := parseAll(t, "5S", "6S", "7S", "8S", "9S")
	res, err := EvaluateHand(hand)
	if err != nil {
		t.Fatal(err)
	}
	if res.Category != StraightFlush {
		t.Errorf("highest matching category should win: got %s", res.Category)
	}
}

func TestEmptyOrOversizeIsError(t *testing.T) {
	t.Parallel()
	if _, err := EvaluateHand(nil); err == nil {
		t.Error("expected error for empty hand")
	}
	hand := parseAll(t, "2S", "3S", "4S", "5S", "6S", "7S")
	if _, err := EvaluateHand(hand); err == nil {
		t.Error("expected error for 6-card hand")
	}
}

func TestScoringCardSelectionPair(t *testing.T) {
	t.Parallel()
	hand := parseAll(t, "AS", "AH", "2C", "5D", "9S")
	res, err := EvaluateHand(hand)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.ScoringCards) != 2 {
		t.Fatalf("expected 2 scoring cards for a pair, got %d: %v", len(res.ScoringCards), res.ScoringCards)
	}
	for _, c := range res.ScoringCards {
		if c.Rank != card.Ace {
			t.Errorf("expected only Aces to score, got %v", c)
		}
	}
}

func TestScoringCardSelectionHighCard(t *testing.T) {
	t.Parallel()
	hand := parseAll(t, "2S", "5H", "9C", "JD", "AS")
	res, err := EvaluateHand(hand)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.ScoringCards) != 1 || res.ScoringCards[0].Rank != card.Ace {
		t.Errorf("expected only the Ace to score, got %v", res.ScoringCards)
	}
}

func TestStoneAlwaysScores(t *testing.T) {
	t.Parallel()
	stone := card.New(card.Two, card.Spades).WithEnhancement(card.Stone)
	hand := []card.Card{
		card.MustParse("AS"), card.MustParse("AH"), card.MustParse("2C"), card.MustParse("5D"), stone,
	}
	res, err := EvaluateHand(hand)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, c := range res.ScoringCards {
		if c == stone {
			found = true
		}
	}
	if !found {
		t.Errorf("stone card should always be among scoring cards, got %v", res.ScoringCards)
	}
}

// TestNoFourCardException pins open question 2: 4-card flush/straight/gap
// exceptions are not folded into the evaluator.
func TestNoFourCardException(t *testing.T) {
	t.Parallel()
	hand := parseAll(t, "2S", "5S", "9S", "JS")
	res, err := EvaluateHand(hand)
	if err != nil {
		t.Fatal(err)
	}
	if res.Category == Flush {
		t.Errorf("4-card flush should not be recognized, got %s", res.Category)
	}
}

func TestBestOf5PicksStrongestSubset(t *testing.T) {
	t.Parallel()
	hand := parseAll(t, "AS", "AH", "AC", "2D", "5S", "9C", "KD")
	subset, res, err := BestOf5(hand)
	if err != nil {
		t.Fatal(err)
	}
	if len(subset) != 5 {
		t.Fatalf("expected 5-card subset, got %d", len(subset))
	}
	if res.Category != ThreeOfKind {
		t.Errorf("expected ThreeOfKind to be the best category available, got %s", res.Category)
	}
}
