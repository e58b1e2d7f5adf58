package scoring

import (
	"math/rand"
	"testing"

	"github.com/rook/blindsolver/internal/solver/card"
	"github.com/rook/blindsolver/internal/solver/handeval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noLevels() GameState { return GameState{HandLevels: map[handeval.Category]int{}} }

// Scenario 1: Pair scoring.
func TestPairScoring(t *testing.T) {
	t.Parallel()
	played := []card.Card{card.MustParse("AS"), card.MustParse("AH")}
	b, err := Calculate(played, nil, nil, nil, noLevels(), nil)
	require.NoError(t, err)
	assert.Equal(t, handeval.Pair, b.Category)
	assert.InDelta(t, 32.0, b.FinalChips, 1e-9)
	assert.InDelta(t, 2.0, b.FinalMult, 1e-9)
	assert.Equal(t, 64, b.FinalScore)
}

// Scenario 2: Flush of diamonds with a +3-mult-per-diamond entity.
func TestFlushWithSynergyEntity(t *testing.T) {
	t.Parallel()
	played := []card.Card{
		card.MustParse("AD"), card.MustParse("KD"), card.MustParse("QD"),
		card.MustParse("JD"), card.MustParse("9D"),
	}
	entity := &Entity{ID: "diamond_synergy", Timing: OnScore}
	reg := registryFunc(func(id string) EffectFunc {
		if id != "diamond_synergy" {
			return nil
		}
		return func(e *Entity, ctx *Context) EntityEffect {
			n := 0
			for _, c := range ctx.Scoring {
				if c.Suit == card.Diamonds {
					n++
				}
			}
			return EntityEffect{AddMult: float64(3 * n), MultMult: 1.0}
		}
	})

	b, err := Calculate(played, nil, []*Entity{entity}, reg, noLevels(), nil)
	require.NoError(t, err)
	assert.InDelta(t, 85.0, b.FinalChips, 1e-9)
	assert.InDelta(t, 19.0, b.FinalMult, 1e-9)
	assert.Equal(t, 1615, b.FinalScore)
}

// Scenario 3: order sensitivity.
func TestOrderSensitivity(t *testing.T) {
	t.Parallel()
	played := []card.Card{card.MustParse("AS"), card.MustParse("AH")}
	addMult := &Entity{ID: "add_mult", Timing: OnScore}
	mulMult := &Entity{ID: "mul_mult", Timing: OnScore}
	reg := registryFunc(func(id string) EffectFunc {
		switch id {
		case "add_mult":
			return func(e *Entity, ctx *Context) EntityEffect { return EntityEffect{AddMult: 4, MultMult: 1.0} }
		case "mul_mult":
			return func(e *Entity, ctx *Context) EntityEffect { return EntityEffect{MultMult: 2.0} }
		}
		return nil
	})

	forward, err := Calculate(played, nil, []*Entity{addMult, mulMult}, reg, noLevels(), nil)
	require.NoError(t, err)
	assert.Equal(t, 384, forward.FinalScore)

	reversed, err := Calculate(played, nil, []*Entity{mulMult, addMult}, reg, noLevels(), nil)
	require.NoError(t, err)
	assert.Equal(t, 256, reversed.FinalScore)
}

// Scenario 4: Red seal retrigger on a Foil card.
func TestRedSealRetriggerOnFoil(t *testing.T) {
	t.Parallel()
	c := card.MustParse("AS").WithEdition(card.Foil).WithSeal(card.RedSeal)
	b, err := Calculate([]card.Card{c}, nil, nil, nil, noLevels(), nil)
	require.NoError(t, err)
	assert.InDelta(t, 116.0, b.FinalChips, 1e-9)
	assert.InDelta(t, 1.0, b.FinalMult, 1e-9)
	assert.Equal(t, 116, b.FinalScore)
}

// Scenario 5: Steel held in hand.
func TestSteelInHand(t *testing.T) {
	t.Parallel()
	played := []card.Card{card.MustParse("AS")}
	held := []card.Card{card.MustParse("KH").WithEnhancement(card.Steel)}
	b, err := Calculate(played, held, nil, nil, noLevels(), nil)
	require.NoError(t, err)
	assert.Equal(t, 24, b.FinalScore)
}

// Scenario 6 (lethal gating) belongs to the decision package; scoring
// only needs to produce the deterministic score the gate compares.
func TestFourAcesScoreIsDeterministic(t *testing.T) {
	t.Parallel()
	played := []card.Card{
		card.MustParse("AS"), card.MustParse("AH"), card.MustParse("AC"), card.MustParse("AD"),
	}
	b1, err := Calculate(played, nil, nil, nil, noLevels(), nil)
	require.NoError(t, err)
	b2, err := Calculate(played, nil, nil, nil, noLevels(), nil)
	require.NoError(t, err)
	assert.Equal(t, b1.FinalScore, b2.FinalScore)
}

// TestEntityRetriggerFieldIsInert pins DESIGN.md open question 1: the
// entity-level Retrigger field is part of the schema but never consumed.
func TestEntityRetriggerFieldIsInert(t *testing.T) {
	t.Parallel()
	played := []card.Card{card.MustParse("AS"), card.MustParse("AH")}
	entity := &Entity{ID: "claims_retrigger", Timing: OnScore}
	reg := registryFunc(func(id string) EffectFunc {
		return func(e *Entity, ctx *Context) EntityEffect {
			return EntityEffect{AddMult: 1, MultMult: 1.0, Retrigger: 5}
		}
	})

	withRetrigger, err := Calculate(played, nil, []*Entity{entity}, reg, noLevels(), nil)
	require.NoError(t, err)

	reg2 := registryFunc(func(id string) EffectFunc {
		return func(e *Entity, ctx *Context) EntityEffect {
			return EntityEffect{AddMult: 1, MultMult: 1.0, Retrigger: 0}
		}
	})
	withoutRetrigger, err := Calculate(played, nil, []*Entity{entity}, reg2, noLevels(), nil)
	require.NoError(t, err)

	assert.Equal(t, withoutRetrigger.FinalScore, withRetrigger.FinalScore,
		"entity-level Retrigger must not change the score; it is schema-only")
}

// TestGlassScoresBeforeDestruction pins DESIGN.md open question 4: the
// Glass card's chips/mult apply unconditionally regardless of the
// independent destruction roll.
func TestGlassScoresBeforeDestruction(t *testing.T) {
	t.Parallel()
	glass := card.MustParse("2S").WithEnhancement(card.Glass)

	var sawDestroyed, sawSpared bool
	for seed := int64(0); seed < 200 && !(sawDestroyed && sawSpared); seed++ {
		rng := rand.New(rand.NewSource(seed))
		b, err := Calculate([]card.Card{glass}, nil, nil, nil, noLevels(), rng)
		require.NoError(t, err)
		// chips = HighCard base(5) + rank(2) = 7; mult = base(1) * 2.0 = 2.
		assert.InDelta(t, 7.0, b.FinalChips, 1e-9)
		assert.InDelta(t, 2.0, b.FinalMult, 1e-9)
		if len(b.CardsDestroyed) == 1 {
			sawDestroyed = true
		} else {
			sawSpared = true
		}
	}
	assert.True(t, sawDestroyed, "expected at least one seed to trigger Glass destruction")
	assert.True(t, sawSpared, "expected at least one seed to spare the Glass card")
}

func TestCatalogMissIsNoOp(t *testing.T) {
	t.Parallel()
	played := []card.Card{card.MustParse("AS"), card.MustParse("AH")}
	unknown := &Entity{ID: "totally_unknown_entity_id", Timing: OnScore}
	reg := registryFunc(func(id string) EffectFunc { return nil })

	b, err := Calculate(played, nil, []*Entity{unknown}, reg, noLevels(), nil)
	require.NoError(t, err)
	assert.Equal(t, 64, b.FinalScore)
	assert.Empty(t, b.EntityEffects)
}

type registryFunc func(entityID string) EffectFunc

func (f registryFunc) Effect(entityID string) EffectFunc { return f(entityID) }
