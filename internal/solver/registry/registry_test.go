package registry

import (
	"testing"

	"github.com/rook/blindsolver/internal/solver/card"
	"github.com/rook/blindsolver/internal/solver/handeval"
	"github.com/rook/blindsolver/internal/solver/scoring"
)

func TestCatalogMissReturnsNilEffect(t *testing.T) {
	t.Parallel()
	reg := New()
	if fn := reg.Effect("no_such_entity"); fn != nil {
		t.Error("unknown entity id should resolve to a nil effect func")
	}
}

func TestGreedyJokerCountsDiamonds(t *testing.T) {
	t.Parallel()
	reg := New()
	fn := reg.Effect("greedy_joker")
	if fn == nil {
		t.Fatal("greedy_joker should be registered")
	}

	ctx := &scoring.Context{
		Scoring: []card.Card{card.MustParse("AD"), card.MustParse("KD"), card.MustParse("2S")},
	}
	eff := fn(&scoring.Entity{ID: "greedy_joker"}, ctx)
	if eff.AddMult != 6 {
		t.Errorf("expected +3 mult per diamond (2 diamonds = 6), got %v", eff.AddMult)
	}
}

func TestHalfJokerConditional(t *testing.T) {
	t.Parallel()
	reg := New()
	fn := reg.Effect("half_joker")

	small := &scoring.Context{Played: []card.Card{card.MustParse("AS"), card.MustParse("KH")}}
	eff := fn(&scoring.Entity{}, small)
	if eff.AddMult != 20 {
		t.Errorf("expected +20 mult for <=3 cards, got %v", eff.AddMult)
	}

	big := &scoring.Context{Played: []card.Card{
		card.MustParse("AS"), card.MustParse("KH"), card.MustParse("QC"), card.MustParse("JD"),
	}}
	eff = fn(&scoring.Entity{}, big)
	if eff.AddMult != 0 {
		t.Errorf("expected no bonus for >3 cards, got %v", eff.AddMult)
	}
}

func TestIceCreamReadsDecayingState(t *testing.T) {
	t.Parallel()
	reg := New()
	fn := reg.Effect("ice_cream")
	entity := &scoring.Entity{ID: "ice_cream", State: map[string]any{"chips": 40}}
	eff := fn(entity, &scoring.Context{})
	if eff.AddChips != 40 {
		t.Errorf("expected ice_cream to read its decayed state, got %v", eff.AddChips)
	}
}

func TestEconomyDispatchMissIsZero(t *testing.T) {
	t.Parallel()
	reg := New()
	eff := reg.EconomyEffect("no_such_entity", scoring.EndOfRound, &scoring.Entity{}, EconomyContext{})
	if eff != (EconomyEffect{}) {
		t.Errorf("missing economy entry should be zero effect, got %+v", eff)
	}
}

func TestGoldenJokerEndOfRound(t *testing.T) {
	t.Parallel()
	reg := New()
	eff := reg.EconomyEffect("golden_joker", scoring.EndOfRound, &scoring.Entity{}, EconomyContext{})
	if eff.Money != 4 {
		t.Errorf("expected golden_joker to earn $4 at end of round, got %v", eff.Money)
	}
}

func TestRegistryIntegratesWithScoringCalculate(t *testing.T) {
	t.Parallel()
	reg := New()
	entity := &scoring.Entity{ID: "jolly_joker", Timing: scoring.OnScore}
	played := []card.Card{card.MustParse("AS"), card.MustParse("AH")}

	b, err := scoring.Calculate(played, nil, []*scoring.Entity{entity}, reg, scoring.GameState{
		HandLevels: map[handeval.Category]int{},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	// Pair base mult 2, +8 from jolly_joker's pair match = 10; chips 32.
	if b.FinalScore != 320 {
		t.Errorf("FinalScore = %d, want 320", b.FinalScore)
	}
}
