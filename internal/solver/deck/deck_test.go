package deck

import (
	"testing"

	"github.com/rook/blindsolver/internal/solver/card"
)

func TestConservationInvariant(t *testing.T) {
	t.Parallel()
	tr := NewTracker()
	tr.RemoveCard(card.MustParse("AS"), true)
	tr.RemoveCard(card.MustParse("KH"), false)
	tr.RemoveCard(card.MustParse("2C"), true)

	if got := tr.TotalRemaining() + len(tr.played) + len(tr.discarded); got != 52 {
		t.Errorf("remaining+played+discarded = %d, want 52", got)
	}
}

func TestRemoveCardMissingReturnsFalse(t *testing.T) {
	t.Parallel()
	tr := NewTracker()
	tr.RemoveCard(card.MustParse("AS"), true)
	if tr.RemoveCard(card.MustParse("AS"), true) {
		t.Error("removing an already-removed card should return false")
	}
}

func TestCloneIndependence(t *testing.T) {
	t.Parallel()
	tr := NewTracker()
	clone := tr.Clone()
	clone.RemoveCard(card.MustParse("AS"), true)

	if tr.TotalRemaining() != 52 {
		t.Errorf("parent tracker mutated after clone change: %d remaining, want 52", tr.TotalRemaining())
	}
	if clone.TotalRemaining() != 51 {
		t.Errorf("clone should have 51 remaining after removal, got %d", clone.TotalRemaining())
	}
}

func TestFromKnownCardsSubtractsSeen(t *testing.T) {
	t.Parallel()
	hand := []card.Card{card.MustParse("AS"), card.MustParse("KH")}
	tr := FromKnownCards(hand, nil, nil)
	if tr.TotalRemaining() != 50 {
		t.Errorf("expected 50 remaining, got %d", tr.TotalRemaining())
	}
	if tr.CardCount(card.Ace, card.Spades) != 0 {
		t.Error("AS should not be in remaining deck")
	}
}

func TestHasStraightPotentialOpenEnded(t *testing.T) {
	t.Parallel()
	tr := NewTracker()
	hand := RanksOf([]card.Card{
		card.MustParse("5S"), card.MustParse("6H"), card.MustParse("7C"), card.MustParse("8D"),
	})
	pot := tr.HasStraightPotential(hand)
	if pot.OpenEnded == 0 {
		t.Errorf("expected an open-ended draw, got %+v", pot)
	}
	if pot.BestOuts != 4 {
		// BestOuts is the best single missing rank: 4s or 9s, 4 each remaining
		t.Errorf("expected 4 best single-rank outs for an open-ended 5-6-7-8 draw, got %d", pot.BestOuts)
	}
}

func TestHasStraightPotentialGutshot(t *testing.T) {
	t.Parallel()
	tr := NewTracker()
	hand := RanksOf([]card.Card{
		card.MustParse("5S"), card.MustParse("6H"), card.MustParse("8C"), card.MustParse("9D"),
	})
	pot := tr.HasStraightPotential(hand)
	if pot.Gutshot == 0 {
		t.Errorf("expected a gutshot draw, got %+v", pot)
	}
}
