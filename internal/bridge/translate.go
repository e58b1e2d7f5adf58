package bridge

import (
	"strings"

	"github.com/rook/blindsolver/internal/solver/card"
	"github.com/rook/blindsolver/internal/solver/deck"
	"github.com/rook/blindsolver/internal/solver/handeval"
	"github.com/rook/blindsolver/internal/solver/registry"
	"github.com/rook/blindsolver/internal/solver/scoring"
	"github.com/rook/blindsolver/internal/solver/simulator"
)

var suitFromWire = map[string]card.Suit{
	"Spades": card.Spades, "Hearts": card.Hearts,
	"Clubs": card.Clubs, "Diamonds": card.Diamonds,
}

var enhancementFromWire = map[string]card.Enhancement{
	"bonus": card.Bonus, "mult": card.Mult, "wild": card.Wild,
	"glass": card.Glass, "steel": card.Steel, "stone": card.Stone,
	"gold": card.Gold, "lucky": card.Lucky,
}

var editionFromWire = map[string]card.Edition{
	"foil": card.Foil, "holo": card.Holographic, "holographic": card.Holographic,
	"polychrome": card.Polychrome, "negative": card.Negative,
}

var sealFromWire = map[string]card.Seal{
	"gold": card.GoldSeal, "red": card.RedSeal, "blue": card.BlueSeal, "purple": card.PurpleSeal,
}

// toCard converts a wire LiveCard to the domain card.Card. Unknown
// enhancement/edition/seal strings degrade to "none" rather than
// erroring, matching spec.md §7's catalog-miss tolerance for anything
// the engine cannot recognize on the wire.
func toCard(lc LiveCard) card.Card {
	suit, ok := suitFromWire[lc.Suit]
	if !ok {
		suit = card.Spades
	}
	rank := card.Rank(lc.Rank)
	c := card.New(rank, suit)
	if lc.Enhancement != nil {
		if e, ok := enhancementFromWire[strings.ToLower(*lc.Enhancement)]; ok {
			c = c.WithEnhancement(e)
		}
	}
	if lc.Edition != nil {
		if e, ok := editionFromWire[strings.ToLower(*lc.Edition)]; ok {
			c = c.WithEdition(e)
		}
	}
	if lc.Seal != nil {
		if s, ok := sealFromWire[strings.ToLower(*lc.Seal)]; ok {
			c = c.WithSeal(s)
		}
	}
	return c
}

func toCards(lcs []LiveCard) []card.Card {
	out := make([]card.Card, len(lcs))
	for i, lc := range lcs {
		out[i] = toCard(lc)
	}
	return out
}

// toEntities converts the wire's held-entity list to scoring.Entity
// instances, dropping any entity id the registry's catalog doesn't
// recognize — per spec.md §6, "unknown entity ids on the wire are
// logged and dropped from the decision's held sequence (the engine must
// tolerate them, never abort)". The caller is responsible for logging
// the dropped ids; this function returns them alongside the kept slice
// so the caller can do so without a logger dependency threaded through
// translation.
func toEntities(les []LiveEntity, reg *registry.Registry) (kept []*scoring.Entity, dropped []string) {
	for _, le := range les {
		if _, ok := reg.Catalog(le.ID); !ok {
			dropped = append(dropped, le.ID)
			continue
		}
		state := le.State
		if state == nil {
			state = map[string]any{}
		}
		kept = append(kept, &scoring.Entity{ID: le.ID, Name: le.Name, State: state})
	}
	return kept, dropped
}

var blindKindFromWire = map[string]simulator.BlindKind{
	"Small": simulator.SmallBlind, "Big": simulator.BigBlind, "Boss": simulator.BossBlind,
}

var categoryFromWireName = map[string]handeval.Category{
	"High Card": handeval.HighCard, "Pair": handeval.Pair, "Two Pair": handeval.TwoPair,
	"Three of a Kind": handeval.ThreeOfKind, "Straight": handeval.Straight,
	"Flush": handeval.Flush, "Full House": handeval.FullHouse,
	"Four of a Kind": handeval.FourOfKind, "Straight Flush": handeval.StraightFlush,
	"Royal Flush": handeval.RoyalFlush, "Five of a Kind": handeval.FiveOfKind,
	"Flush House": handeval.FlushHouse, "Flush Five": handeval.FlushFive,
}

// toGameState builds the scoring.GameState view the scoring engine and
// decision engine need from a snapshot's hand_levels map (wire key is
// the category's display name, e.g. "Two Pair").
func toGameState(s Snapshot) scoring.GameState {
	levels := map[handeval.Category]int{}
	for name, lvl := range s.HandLevels {
		if cat, ok := categoryFromWireName[name]; ok {
			levels[cat] = lvl
		}
	}
	blindKind := blindKindFromWire[s.Blind.BlindType]
	return scoring.GameState{
		HandLevels:        levels,
		DiscardsRemaining: s.DiscardsRemaining,
		HandsRemaining:    s.HandsRemaining,
		Money:             s.Money,
		Ante:              s.Ante,
		IsBossBlind:       blindKind == simulator.BossBlind,
	}
}

// toTracker builds an approximate deck.Tracker from the snapshot's
// aggregate deck_info counts, since the wire protocol does not enumerate
// remaining cards individually (spec.md §3's "from distribution counts
// (approximate, used when exact identity is unknown)" construction
// variant exists precisely for this caller).
func toTracker(s Snapshot) *deck.Tracker {
	return deck.FromRemainingCount(s.DeckInfo.CardsInDeck, nil, nil)
}

// chipsNeeded computes the outstanding chip requirement for the current
// blind from the wire's blind block.
func chipsNeeded(s Snapshot) int {
	n := s.Blind.ChipsRequired - s.Blind.ChipsScored
	if n < 0 {
		return 0
	}
	return n
}
