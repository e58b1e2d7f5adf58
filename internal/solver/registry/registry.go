// Package registry is the modifier-entity dispatch table (C6): two maps
// from entity-id (and entity-id+timing, for economy effects) to pure
// effect functions. A missing entry is a no-op, never an error.
//
// The spec treats the full ~150-entry effect catalog as a data-entry
// exercise, not a design concern (spec.md §1). This package implements a
// representative entity per effect class named in spec.md §4.5's table,
// grounded on original_source/jokers.py's id names and
// original_source/heuristics.py's per-id synergy predicates, plus the
// static catalog metadata (name/description/rarity/cost) those ids carry.
package registry

import (
	"github.com/opencoff/go-chd"

	"github.com/rook/blindsolver/internal/solver/card"
	"github.com/rook/blindsolver/internal/solver/scoring"
)

// Rarity mirrors the catalog's rarity tiers; read-only after init.
type Rarity string

const (
	Common    Rarity = "common"
	Uncommon  Rarity = "uncommon"
	Rare      Rarity = "rare"
	Legendary Rarity = "legendary"
)

// CatalogEntry is the static, read-only metadata for one entity-id.
type CatalogEntry struct {
	ID          string
	Name        string
	Description string
	Rarity      Rarity
	BaseCost    int
	Timing      scoring.Timing
}

// EconomyContext carries the round-level state economy effects read.
type EconomyContext struct {
	Money             int
	Ante              int
	BossBlindsDefeated int
	HandsPlayed       int
	HandsRemaining    int
	DiscardsUsed      int
	DiscardsRemaining int
	DeckSize          int
	NinesInDeck       int
	DiscardedCards    []card.Card
	TargetHandType    string
	PlayedHandType    string
	BossBlindTriggered bool
}

// EconomyEffect is the result of an entity's timed side-channel effect.
type EconomyEffect struct {
	Money            int
	SellValueChange  int
	InterestBonus    int
	DebtLimit        int
}

// EconomyFunc computes an entity's economy-side effect for one timing
// event.
type EconomyFunc func(e *scoring.Entity, ctx EconomyContext) EconomyEffect

type economyKey struct {
	id     string
	timing scoring.Timing
}

// Registry implements scoring.Registry and the economy-side dispatch.
// The scoring table is authoritative; a minimal perfect hash (go-chd),
// built once in New over the registered id set, backs a cache-friendly index
// lookup for the hot scoring path, with the map as the fallback for any
// id outside the build set (a catalog miss, tolerated per spec.md §7).
type Registry struct {
	catalog    map[string]CatalogEntry
	scoreFns   map[string]scoring.EffectFunc
	economyFns map[economyKey]EconomyFunc
	phashKeys  []string
	phashFns   []scoring.EffectFunc
	phash      *chd.CHD
}

// New builds the registry with its representative built-in entity set.
func New() *Registry {
	r := &Registry{
		catalog:    map[string]CatalogEntry{},
		scoreFns:   map[string]scoring.EffectFunc{},
		economyFns: map[economyKey]EconomyFunc{},
	}
	r.registerSuitJokers()
	r.registerSetJokers()
	r.registerHeldHandJokers()
	r.registerScalingJokers()
	r.registerEconomyJokers()
	r.buildPerfectHash()
	return r
}

func (r *Registry) register(entry CatalogEntry, fn scoring.EffectFunc) {
	r.catalog[entry.ID] = entry
	r.scoreFns[entry.ID] = fn
}

func (r *Registry) registerEconomy(id string, timing scoring.Timing, fn EconomyFunc) {
	r.economyFns[economyKey{id, timing}] = fn
}

// buildPerfectHash constructs a minimal perfect hash over the registered
// score-effect ids, plus a parallel slice of effect functions indexed by
// the hash's own ordering so Find's result is what actually resolves the
// dispatch, not just a validated-then-discarded lookup. Building is
// best-effort: a construction error leaves phash nil and every lookup
// falls back to the map, which remains correct on its own.
func (r *Registry) buildPerfectHash() {
	keys := make([][]byte, 0, len(r.scoreFns))
	ids := make([]string, 0, len(r.scoreFns))
	for id := range r.scoreFns {
		keys = append(keys, []byte(id))
		ids = append(ids, id)
	}
	if len(keys) == 0 {
		return
	}
	h, err := chd.New(keys, chd.DefaultLoadFactor)
	if err != nil {
		return
	}

	// chd.Find returns a dense index over the build set; build phashKeys
	// and phashFns in that index order so Find(id) can index directly
	// into phashFns instead of falling back to the map.
	phashKeys := make([]string, len(ids))
	phashFns := make([]scoring.EffectFunc, len(ids))
	for _, id := range ids {
		idx := h.Find([]byte(id))
		phashKeys[idx] = id
		phashFns[idx] = r.scoreFns[id]
	}

	r.phash = h
	r.phashKeys = phashKeys
	r.phashFns = phashFns
}

// Effect implements scoring.Registry. Catalog misses return nil, which
// Calculate treats as a no-op. The hot path resolves entirely through the
// perfect-hash index; the map is only consulted when no hash was built
// (empty registry) or the id is outside the build set (a stale catalog
// id that didn't exist when the hash was built).
func (r *Registry) Effect(entityID string) scoring.EffectFunc {
	if r.phash == nil {
		return r.scoreFns[entityID]
	}
	idx := r.phash.Find([]byte(entityID))
	if int(idx) >= len(r.phashKeys) || r.phashKeys[idx] != entityID {
		return r.scoreFns[entityID]
	}
	return r.phashFns[idx]
}

// EconomyEffect resolves the (entity-id, timing) economy dispatch table.
func (r *Registry) EconomyEffect(entityID string, timing scoring.Timing, e *scoring.Entity, ctx EconomyContext) EconomyEffect {
	fn := r.economyFns[economyKey{entityID, timing}]
	if fn == nil {
		return EconomyEffect{}
	}
	return fn(e, ctx)
}

// Catalog returns the static metadata for an id, and whether it exists.
func (r *Registry) Catalog(entityID string) (CatalogEntry, bool) {
	e, ok := r.catalog[entityID]
	return e, ok
}

// --- Flat / conditional-flat mult: per-suit synergy jokers. ---

func (r *Registry) registerSuitJokers() {
	suitJoker := func(id, name string, s card.Suit) {
		r.register(CatalogEntry{ID: id, Name: name, Rarity: Common, BaseCost: 5, Timing: scoring.OnScore},
			func(e *scoring.Entity, ctx *scoring.Context) scoring.EntityEffect {
				n := 0
				for _, c := range ctx.Scoring {
					if c.HasSuit(s) {
						n++
					}
				}
				return scoring.EntityEffect{AddMult: float64(3 * n), MultMult: 1.0}
			})
	}
	suitJoker("greedy_joker", "Greedy Joker", card.Diamonds)
	suitJoker("lusty_joker", "Lusty Joker", card.Hearts)
	suitJoker("wrathful_joker", "Wrathful Joker", card.Spades)
	suitJoker("gluttonous_joker", "Gluttonous Joker", card.Clubs)
}

// --- Per-matching-card additive / conditional flat mult: set jokers. ---

func (r *Registry) registerSetJokers() {
	pairJoker := func(id, name string) {
		r.register(CatalogEntry{ID: id, Name: name, Rarity: Common, BaseCost: 3, Timing: scoring.OnScore},
			func(e *scoring.Entity, ctx *scoring.Context) scoring.EntityEffect {
				if hasRankCount(ctx.Scoring, 2) {
					return scoring.EntityEffect{AddMult: 8, MultMult: 1.0}
				}
				return scoring.EntityEffect{MultMult: 1.0}
			})
	}
	pairJoker("jolly_joker", "Jolly Joker")
	pairJoker("sly_joker", "Sly Joker")
	pairJoker("the_duo", "The Duo")

	tripsJoker := func(id, name string) {
		r.register(CatalogEntry{ID: id, Name: name, Rarity: Uncommon, BaseCost: 6, Timing: scoring.OnScore},
			func(e *scoring.Entity, ctx *scoring.Context) scoring.EntityEffect {
				if hasRankCount(ctx.Scoring, 3) {
					return scoring.EntityEffect{AddMult: 12, MultMult: 1.0}
				}
				return scoring.EntityEffect{MultMult: 1.0}
			})
	}
	tripsJoker("zany_joker", "Zany Joker")
	tripsJoker("wily_joker", "Wily Joker")
	tripsJoker("the_trio", "The Trio")

	// Conditional flat mult: fewer than or equal to 3 cards played.
	r.register(CatalogEntry{ID: "half_joker", Name: "Half Joker", Rarity: Common, BaseCost: 5, Timing: scoring.OnScore},
		func(e *scoring.Entity, ctx *scoring.Context) scoring.EntityEffect {
			if len(ctx.Played) <= 3 {
				return scoring.EntityEffect{AddMult: 20, MultMult: 1.0}
			}
			return scoring.EntityEffect{MultMult: 1.0}
		})
}

// --- Held-in-hand predicates: entities that read ctx.Held. ---

func (r *Registry) registerHeldHandJokers() {
	// Multiplicative, conditional: all held cards Spades or Clubs.
	r.register(CatalogEntry{ID: "blackboard", Name: "Blackboard", Rarity: Uncommon, BaseCost: 6, Timing: scoring.OnScore},
		func(e *scoring.Entity, ctx *scoring.Context) scoring.EntityEffect {
			for _, c := range ctx.Held {
				if !(c.Suit == card.Spades || c.Suit == card.Clubs) {
					return scoring.EntityEffect{MultMult: 1.0}
				}
			}
			if len(ctx.Held) == 0 {
				return scoring.EntityEffect{MultMult: 1.0}
			}
			return scoring.EntityEffect{MultMult: 3.0}
		})

	// Per-matching-card additive, driven by held cards: +2 mult per point
	// of the lowest held rank.
	r.register(CatalogEntry{ID: "raised_fist", Name: "Raised Fist", Rarity: Common, BaseCost: 5, Timing: scoring.OnScore},
		func(e *scoring.Entity, ctx *scoring.Context) scoring.EntityEffect {
			if len(ctx.Held) == 0 {
				return scoring.EntityEffect{MultMult: 1.0}
			}
			lowest := int(ctx.Held[0].Rank)
			for _, c := range ctx.Held[1:] {
				if int(c.Rank) < lowest {
					lowest = int(c.Rank)
				}
			}
			return scoring.EntityEffect{AddMult: float64(2 * lowest), MultMult: 1.0}
		})
}

// --- Scaling additive: state-transition-backed entities. ---

func (r *Registry) registerScalingJokers() {
	// Ice Cream: chips decay each hand played via its state-transition
	// hook (simulator.go wires the hook); the effect function only reads
	// the current scalar.
	r.register(CatalogEntry{ID: "ice_cream", Name: "Ice Cream", Rarity: Common, BaseCost: 5, Timing: scoring.OnScore},
		func(e *scoring.Entity, ctx *scoring.Context) scoring.EntityEffect {
			chips, _ := e.State["chips"].(int)
			if chips == 0 {
				chips = 100
			}
			return scoring.EntityEffect{AddChips: chips, MultMult: 1.0}
		})

	// Green Joker: mult scales up on play, down on discard via its
	// transition hook; effect function reads the scalar.
	r.register(CatalogEntry{ID: "green_joker", Name: "Green Joker", Rarity: Common, BaseCost: 4, Timing: scoring.OnScore},
		func(e *scoring.Entity, ctx *scoring.Context) scoring.EntityEffect {
			mult, _ := e.State["mult"].(float64)
			return scoring.EntityEffect{AddMult: mult, MultMult: 1.0}
		})
}

// --- Economy-only entities. ---

func (r *Registry) registerEconomyJokers() {
	r.registerEconomy("golden_joker", scoring.EndOfRound, func(e *scoring.Entity, ctx EconomyContext) EconomyEffect {
		return EconomyEffect{Money: 4}
	})
	r.registerEconomy("faceless_joker", scoring.OnDiscard, func(e *scoring.Entity, ctx EconomyContext) EconomyEffect {
		if len(ctx.DiscardedCards) >= 3 {
			return EconomyEffect{Money: 5}
		}
		return EconomyEffect{}
	})
	r.registerEconomy("to_the_moon", scoring.EndOfRound, func(e *scoring.Entity, ctx EconomyContext) EconomyEffect {
		return EconomyEffect{InterestBonus: 1}
	})
}

func hasRankCount(cards []card.Card, n int) bool {
	counts := map[card.Rank]int{}
	for _, c := range cards {
		counts[c.Rank]++
	}
	for _, c := range counts {
		if c >= n {
			return true
		}
	}
	return false
}
