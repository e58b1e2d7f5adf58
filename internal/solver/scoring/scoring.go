// Package scoring implements the ordered scoring pipeline: hand
// evaluation, per-card modifier effects, the held-in-hand bonus, and the
// modifier-entity chain. Ordering within and across phases is the
// component's central contract; see Phase A-E below.
package scoring

import (
	"math"
	"math/rand"

	"github.com/rook/blindsolver/internal/solver/card"
	"github.com/rook/blindsolver/internal/solver/handeval"
)

// Timing identifies when an entity's effect is evaluated.
type Timing int

const (
	OnScore Timing = iota
	OnCardScore
	OnHandPlayed
	OnDiscard
	EndOfRound
	OnShop
	OnBlindSelect
)

// Entity is a modifier-entity instance: a reference to a static catalog
// entry plus freely-mutable state used by scaling effects. Ordering
// within the holder's sequence is meaningful.
type Entity struct {
	ID     string
	Name   string
	Timing Timing
	State  map[string]any
}

// Clone deep-copies the entity, including its state map.
func (e *Entity) Clone() *Entity {
	state := make(map[string]any, len(e.State))
	for k, v := range e.State {
		state[k] = v
	}
	return &Entity{ID: e.ID, Name: e.Name, Timing: e.Timing, State: state}
}

// EntityEffect is the result of a modifier entity's scoring-phase effect
// calculation.
type EntityEffect struct {
	AddChips int
	AddMult  float64
	MultMult float64 // 1.0 = no change
	// Retrigger exists for schema parity with the source catalog but is
	// never consumed by the Phase D chain loop below; see DESIGN.md open
	// question 1.
	Retrigger int
	Money     int
}

// Registry resolves an entity-id to its scoring-effect function. A
// missing entry must return a nil func, which the engine treats as a
// no-op rather than an error (catalog misses are tolerated, never fatal).
type Registry interface {
	Effect(entityID string) EffectFunc
}

// EffectFunc computes a modifier entity's scoring contribution given the
// current context. Calculate treats a MultMult of 0 as 1.0 (no mult
// change), so an EntityEffect literal may leave MultMult unset.
type EffectFunc func(e *Entity, ctx *Context) EntityEffect

// GameState is the subset of round state modifier effects and the
// scoring engine need: per-category levels and resource counts.
type GameState struct {
	HandLevels        map[handeval.Category]int
	DiscardsRemaining int
	HandsRemaining    int
	Money             int
	Ante              int
	IsBossBlind       bool
}

// Level returns the level for a category, defaulting to 1 when unset.
func (g GameState) Level(cat handeval.Category) int {
	if g.HandLevels == nil {
		return 1
	}
	if lvl, ok := g.HandLevels[cat]; ok && lvl > 0 {
		return lvl
	}
	return 1
}

// Context is built afresh for each entity in the single-threaded Phase D
// loop; it carries the running chips/mult, so any entity may observe the
// effect of every entity that fired before it. Changes an effect makes to
// the Context are not read back.
type Context struct {
	Played   []card.Card
	Scoring  []card.Card
	Held     []card.Card
	Result   handeval.Result
	State    GameState
	Chips    float64
	Mult     float64
	rng      *rand.Rand
}

// CardContribution records one scoring card's modifier contribution for
// the audit breakdown.
type CardContribution struct {
	Card      card.Card
	Chips     int
	Mult      float64
	MultMult  float64
	Money     int
	Retrigger int
	Destroyed bool
}

// EntityContribution records one entity's contribution in firing order.
type EntityContribution struct {
	EntityID string
	AddChips int
	AddMult  float64
	MultMult float64
	Money    int
}

// Breakdown is the full audit record of a scoring call.
type Breakdown struct {
	Category        handeval.Category
	BaseChips       int
	BaseMult        float64
	CardEffects     []CardContribution
	EntityEffects   []EntityContribution
	MoneyEarned     int
	CardsDestroyed  []card.Card
	FinalChips      float64
	FinalMult       float64
	FinalScore      int
}

// Calculate runs the full C5 pipeline: Phase A (hand evaluation), Phase B
// (per-card modifiers), Phase C (held-in-hand bonus), Phase D (entity
// chain), Phase E (finalization). rng may be nil, in which case Glass
// destruction and Lucky triggers never fire (deterministic scoring).
func Calculate(played []card.Card, held []card.Card, entities []*Entity, registry Registry, state GameState, rng *rand.Rand) (Breakdown, error) {
	// Phase A.
	result, err := handeval.EvaluateHand(played)
	if err != nil {
		return Breakdown{}, err
	}
	level := state.Level(result.Category)
	baseChips := result.Category.BaseChips() + (level-1)*result.Category.BaseChips()
	baseMult := float64(result.Category.BaseMult() + (level - 1))

	chips := float64(baseChips)
	mult := baseMult

	var cardContribs []CardContribution
	var destroyed []card.Card
	money := 0

	// Phase B: per-scoring-card modifiers, in played order.
	for _, sc := range orderedScoringCards(played, result.ScoringCards) {
		chips += float64(sc.ChipValue())

		effect := cardEffect(sc, rng)
		applications := 1 + effect.Retrigger
		for i := 0; i < applications; i++ {
			chips += float64(effect.Chips)
			mult += effect.Mult
			mult *= effect.MultMult
			money += effect.Money
		}
		if effect.Destroyed {
			destroyed = append(destroyed, sc)
		}
		cardContribs = append(cardContribs, CardContribution{
			Card: sc, Chips: effect.Chips, Mult: effect.Mult, MultMult: effect.MultMult,
			Money: effect.Money, Retrigger: effect.Retrigger, Destroyed: effect.Destroyed,
		})
	}

	// Phase C: held-in-hand Steel bonus, stacking multiplicatively.
	for _, h := range held {
		if h.Enhancement == card.Steel {
			mult *= 1.5
		}
	}

	// Phase D: modifier-entity chain, in held order.
	var entityContribs []EntityContribution
	for _, e := range entities {
		var fn EffectFunc
		if registry != nil {
			fn = registry.Effect(e.ID)
		}
		if fn == nil {
			continue // catalog miss: silent no-op, per spec.md §7.
		}
		ctx := &Context{
			Played: played, Scoring: result.ScoringCards, Held: held,
			Result: result, State: state, Chips: chips, Mult: mult, rng: rng,
		}
		eff := fn(e, ctx)
		chips += float64(eff.AddChips)
		mult += eff.AddMult
		mmult := eff.MultMult
		if mmult == 0 {
			mmult = 1.0
		}
		mult *= mmult
		money += eff.Money

		entityContribs = append(entityContribs, EntityContribution{
			EntityID: e.ID, AddChips: eff.AddChips, AddMult: eff.AddMult, MultMult: mmult, Money: eff.Money,
		})
	}

	// Phase E: finalization.
	finalScore := int(math.Floor(chips * mult))

	return Breakdown{
		Category: result.Category, BaseChips: baseChips, BaseMult: baseMult,
		CardEffects: cardContribs, EntityEffects: entityContribs,
		MoneyEarned: money, CardsDestroyed: destroyed,
		FinalChips: chips, FinalMult: mult, FinalScore: finalScore,
	}, nil
}

// orderedScoringCards returns result.ScoringCards reordered to match
// their order of appearance in played, since handeval does not guarantee
// ordering for the rank-matching categories.
func orderedScoringCards(played []card.Card, scoring []card.Card) []card.Card {
	want := map[card.Card]int{}
	for _, c := range scoring {
		want[c]++
	}
	var out []card.Card
	for _, c := range played {
		if want[c] > 0 {
			out = append(out, c)
			want[c]--
		}
	}
	// Append any scoring cards not present in played (stone cards already
	// are, but this keeps the function total in edge cases).
	for c, n := range want {
		for i := 0; i < n; i++ {
			out = append(out, c)
		}
	}
	return out
}

// cardEffect computes a CardEffect-shaped set of per-application values
// from a card's enhancement, edition, and seal, per Phase B's table.
func cardEffect(c card.Card, rng *rand.Rand) cardEffectResult {
	eff := cardEffectResult{MultMult: 1.0}

	switch c.Enhancement {
	case card.Bonus:
		eff.Chips += 30
	case card.Mult:
		eff.Mult += 4
	case card.Glass:
		eff.MultMult *= 2.0
		if rng != nil && rng.Intn(4) == 0 {
			eff.Destroyed = true
		}
	case card.Lucky:
		if rng != nil {
			if rng.Intn(5) == 0 {
				eff.Mult += 20
			}
			if rng.Intn(15) == 0 {
				eff.Money += 20
			}
		}
	}

	switch c.Edition {
	case card.Foil:
		eff.Chips += 50
	case card.Holographic:
		eff.Mult += 10
	case card.Polychrome:
		eff.MultMult *= 1.5
	}

	switch c.Seal {
	case card.GoldSeal:
		eff.Money += 3
	case card.RedSeal:
		eff.Retrigger = 1
	}

	return eff
}

type cardEffectResult struct {
	Chips     int
	Mult      float64
	MultMult  float64
	Money     int
	Retrigger int
	Destroyed bool
}
