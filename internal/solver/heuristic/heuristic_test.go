package heuristic

import (
	"testing"

	"github.com/rook/blindsolver/internal/solver/card"
	"github.com/rook/blindsolver/internal/solver/handeval"
	"github.com/rook/blindsolver/internal/solver/scoring"
)

type nilRegistry struct{}

func (nilRegistry) Effect(id string) scoring.EffectFunc { return nil }

func baseState() scoring.GameState {
	return scoring.GameState{HandLevels: map[handeval.Category]int{}}
}

func TestEvaluatePlaysRanksLethalFirst(t *testing.T) {
	t.Parallel()
	hand := []card.Card{
		card.MustParse("AS"), card.MustParse("AH"), card.MustParse("AC"), card.MustParse("AD"), card.MustParse("KS"),
	}
	actions := EvaluatePlays(hand, nil, nilRegistry{}, baseState(), 1, 4, DefaultConfig())
	if len(actions) == 0 {
		t.Fatal("expected at least one action")
	}
	if !actions[0].IsLethal {
		t.Error("expected the top-ranked action to be lethal when requirement is trivially low")
	}
}

func TestEvaluatePlaysAllSubsetSizesRepresented(t *testing.T) {
	t.Parallel()
	hand := []card.Card{
		card.MustParse("AS"), card.MustParse("AH"), card.MustParse("AC"), card.MustParse("AD"), card.MustParse("KS"),
	}
	actions := EvaluatePlays(hand, nil, nilRegistry{}, baseState(), 1, 4, DefaultConfig())
	// C(5,1)+C(5,2)+C(5,3)+C(5,4)+C(5,5) = 5+10+10+5+1 = 31.
	if len(actions) != 31 {
		t.Errorf("expected 31 candidate plays over a 5-card hand, got %d", len(actions))
	}
}

func TestEvaluateDiscardsPenalizesBreakingBestHand(t *testing.T) {
	t.Parallel()
	hand := []card.Card{
		card.MustParse("AS"), card.MustParse("AH"), card.MustParse("2C"), card.MustParse("7D"), card.MustParse("9S"),
	}
	actions := EvaluateDiscards(hand, nil, DefaultConfig())
	var breaksBest, keepsBest *ScoredAction
	for i := range actions {
		a := actions[i]
		idxSet := map[int]bool{}
		for _, idx := range a.Indices {
			idxSet[idx] = true
		}
		if idxSet[0] || idxSet[1] {
			if breaksBest == nil {
				breaksBest = &a
			}
		} else if keepsBest == nil {
			keepsBest = &a
		}
	}
	if breaksBest == nil || keepsBest == nil {
		t.Fatal("expected both kinds of discard candidates")
	}
	if breaksBest.Score >= keepsBest.Score {
		t.Errorf("discarding part of the best pair should score lower: breaks=%v keeps=%v",
			breaksBest.Score, keepsBest.Score)
	}
}

func TestShouldDiscardFalseWhenLethalAvailable(t *testing.T) {
	t.Parallel()
	hand := []card.Card{
		card.MustParse("AS"), card.MustParse("AH"), card.MustParse("AC"), card.MustParse("AD"), card.MustParse("KS"),
	}
	if ShouldDiscard(hand, nil, nilRegistry{}, baseState(), 1, 4, 3, DefaultConfig()) {
		t.Error("should not discard when a lethal play exists")
	}
}

func TestShouldDiscardFalseWithZeroDiscardsRemaining(t *testing.T) {
	t.Parallel()
	hand := []card.Card{
		card.MustParse("2S"), card.MustParse("7H"), card.MustParse("9C"), card.MustParse("4D"), card.MustParse("JS"),
	}
	if ShouldDiscard(hand, nil, nilRegistry{}, baseState(), 100000, 4, 0, DefaultConfig()) {
		t.Error("should not discard with zero discards remaining")
	}
}

func TestPlaySynergyCountsSuitMatches(t *testing.T) {
	t.Parallel()
	entities := []*scoring.Entity{{ID: "greedy_joker"}}
	cards := []card.Card{card.MustParse("2D"), card.MustParse("7D"), card.MustParse("9S")}
	got := playSynergy(cards, entities, DefaultConfig())
	if got != 2*DefaultConfig().JokerSynergyWeight {
		t.Errorf("expected synergy for 2 diamonds, got %v", got)
	}
}

func TestKeptPotentialRewardsPairsAndHighCards(t *testing.T) {
	t.Parallel()
	cards := []card.Card{card.MustParse("AS"), card.MustParse("AH"), card.MustParse("KS")}
	got := keptPotential(cards)
	if got <= 0 {
		t.Errorf("expected positive potential for a pair of aces plus a king, got %v", got)
	}
}
