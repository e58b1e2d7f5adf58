// Package simulator implements the deterministic round state machine
// (C7): phases, resource bookkeeping, the blind chip-requirement table,
// legal-action enumeration, and the clone contract MCTS depends on.
package simulator

import (
	"fmt"
	mrand "math/rand"

	"github.com/rook/blindsolver/internal/solver/card"
	"github.com/rook/blindsolver/internal/solver/deck"
	"github.com/rook/blindsolver/internal/solver/handeval"
	"github.com/rook/blindsolver/internal/solver/registry"
	"github.com/rook/blindsolver/internal/solver/scoring"
)

// economyRegistry is implemented by registries that also support the timed
// economy side-channel (spec.md §4.5/§4.6's second dispatch table), keyed by
// (entity-id, timing) rather than entity-id alone. It is narrower than
// scoring.Registry on purpose: callers that only need score-effect dispatch
// (scoring.Calculate) stay decoupled from registry's EconomyContext type.
type economyRegistry interface {
	EconomyEffect(entityID string, timing scoring.Timing, e *scoring.Entity, ctx registry.EconomyContext) registry.EconomyEffect
}

// Phase is one of the round's four states.
type Phase int

const (
	BlindSelect Phase = iota
	Playing
	Shop
	GameOver
)

func (p Phase) String() string {
	switch p {
	case BlindSelect:
		return "BlindSelect"
	case Playing:
		return "Playing"
	case Shop:
		return "Shop"
	case GameOver:
		return "GameOver"
	default:
		return "Unknown"
	}
}

// BlindKind is one of the three sub-rounds within an ante.
type BlindKind int

const (
	SmallBlind BlindKind = iota
	BigBlind
	BossBlind
)

func (b BlindKind) String() string {
	switch b {
	case SmallBlind:
		return "Small"
	case BigBlind:
		return "Big"
	case BossBlind:
		return "Boss"
	default:
		return "Unknown"
	}
}

// baseChipsByAnte is the small-blind chip requirement per ante (1-indexed;
// index 0 unused). Big and boss blinds scale off this base. This table is
// a representative approximation of the per-ante scaling factor spec.md
// §4.7 requires, not a byte-for-byte reproduction of any specific game's
// published numbers.
var baseChipsByAnte = []int{0, 300, 800, 2000, 5000, 11000, 20000, 35000, 50000}

const (
	bigBlindMultiplier  = 1.5
	bossBlindMultiplier = 2.0
)

// blindChips computes the chip requirement for (ante, kind).
func blindChips(ante int, kind BlindKind) int {
	idx := ante
	if idx >= len(baseChipsByAnte) {
		idx = len(baseChipsByAnte) - 1
	}
	base := float64(baseChipsByAnte[idx])
	switch kind {
	case BigBlind:
		return int(base * bigBlindMultiplier)
	case BossBlind:
		return int(base * bossBlindMultiplier)
	default:
		return int(base)
	}
}

// blindReward is the base money awarded for beating a blind.
func blindReward(kind BlindKind) int {
	switch kind {
	case BigBlind:
		return 4
	case BossBlind:
		return 5
	default:
		return 3
	}
}

const (
	interestRate = 0.20
	interestCap  = 5
)

// ShopItem is a single purchasable slot in the shop.
type ShopItem struct {
	Index    int
	EntityID string
	Name     string
	Cost     int
}

// PlayResult summarizes the outcome of a play_hand call.
type PlayResult struct {
	Breakdown    scoring.Breakdown
	BlindBeaten  bool
	GameOver     bool
	Won          bool
}

// Simulator is the deterministic round state machine. It owns its deck
// tracker, hand, entity sequence, and RNG; every mutable field here must
// be deep-copied by Clone.
type Simulator struct {
	Phase             Phase
	Blind             BlindKind
	Ante              int
	HandSize          int
	HandsRemaining    int
	DiscardsRemaining int
	CurrentChips      int
	ChipRequirement   int
	Money             int
	HandLevels        map[handeval.Category]int

	Entities []*scoring.Entity
	Shop     []ShopItem

	Deck   *deck.Tracker
	Hand   []card.Card
	Played []card.Card // played-this-round pile, reshuffled on redraw exhaustion

	Destroyed []card.Card // cards permanently removed from the deck by Glass

	BossBlindsDefeated int
	BlindsSkipped      int
	HandsPlayed        int
	DiscardsUsed       int

	rng RNG

	Registry scoring.Registry
}

// New creates a simulator ready for BlindSelect at ante 1.
func New(seed int64, handSize, startHands, startDiscards, startMoney int, registry scoring.Registry) *Simulator {
	return &Simulator{
		Phase:             BlindSelect,
		Blind:             SmallBlind,
		Ante:              1,
		HandSize:          handSize,
		HandsRemaining:    startHands,
		DiscardsRemaining: startDiscards,
		Money:             startMoney,
		HandLevels:        map[handeval.Category]int{},
		Deck:              deck.NewTracker(),
		rng:               NewRNG(seed),
		Registry:          registry,
	}
}

// Clone produces a state that is independent of the parent: every held
// entity (and its state map), the deck tracker, the hand, and the RNG
// handle are deep-copied. The clone carries the parent's current RNG
// state and will therefore reproduce the same sequence unless
// subsequently altered — the MCTS primitive's required contract.
func (s *Simulator) Clone() *Simulator {
	clone := *s
	clone.HandLevels = make(map[handeval.Category]int, len(s.HandLevels))
	for k, v := range s.HandLevels {
		clone.HandLevels[k] = v
	}
	clone.Entities = make([]*scoring.Entity, len(s.Entities))
	for i, e := range s.Entities {
		clone.Entities[i] = e.Clone()
	}
	clone.Shop = append([]ShopItem(nil), s.Shop...)
	clone.Deck = s.Deck.Clone()
	clone.Hand = append([]card.Card(nil), s.Hand...)
	clone.Played = append([]card.Card(nil), s.Played...)
	clone.Destroyed = append([]card.Card(nil), s.Destroyed...)
	return &clone
}

// StartBlind transitions BlindSelect -> Playing, resets round resources,
// and draws up to hand size.
func (s *Simulator) StartBlind() error {
	if s.Phase != BlindSelect {
		return fmt.Errorf("simulator: %w: start_blind requires BlindSelect, got %s", ErrWrongPhase, s.Phase)
	}
	s.ChipRequirement = blindChips(s.Ante, s.Blind)
	s.CurrentChips = 0
	s.HandsRemaining = 4
	s.DiscardsRemaining = 3
	s.Phase = Playing
	s.drawToHandSize()
	return nil
}

// SkipBlind advances to the next blind without playing, only legal when
// the current blind is not Boss.
func (s *Simulator) SkipBlind() error {
	if s.Phase != BlindSelect {
		return fmt.Errorf("simulator: %w: skip_blind requires BlindSelect", ErrWrongPhase)
	}
	if s.Blind == BossBlind {
		return fmt.Errorf("simulator: %w: cannot skip a boss blind", ErrPrecondition)
	}
	s.BlindsSkipped++
	s.advanceBlind()
	return nil
}

func (s *Simulator) advanceBlind() {
	switch s.Blind {
	case SmallBlind:
		s.Blind = BigBlind
	case BigBlind:
		s.Blind = BossBlind
	case BossBlind:
		s.Blind = SmallBlind
		s.Ante++
		if s.Ante > len(baseChipsByAnte)-1 {
			s.Phase = GameOver
			return
		}
	}
	s.Phase = BlindSelect
}

func (s *Simulator) drawToHandSize() {
	for len(s.Hand) < s.HandSize && s.Deck.TotalRemaining() > 0 {
		c := s.drawOne()
		s.Hand = append(s.Hand, c)
	}
	if s.Deck.TotalRemaining() == 0 && len(s.Hand) < s.HandSize {
		s.reshufflePlayed()
		for len(s.Hand) < s.HandSize && s.Deck.TotalRemaining() > 0 {
			s.Hand = append(s.Hand, s.drawOne())
		}
	}
}

// drawOne removes a pseudo-random remaining card from the tracker. The
// tracker does not track positions, so this samples a random index in
// its snapshot, not a true shuffle; acceptable since Tracker only
// exposes aggregate queries, not ordering.
func (s *Simulator) drawOne() card.Card {
	remaining := s.remainingSnapshot()
	idx := s.rng.Intn(len(remaining))
	c := remaining[idx]
	s.Deck.RemoveCard(c, true)
	return c
}

func (s *Simulator) remainingSnapshot() []card.Card {
	// Rebuild from rank/suit distribution is unnecessary: Tracker keeps no
	// positional list publicly, so simulator keeps its own parallel view
	// via FromKnownCards-style reconstruction is wasteful; instead we walk
	// a synthetic standard deck filtered by what's left. This keeps
	// Tracker's internal list private while giving the simulator draw
	// order it needs.
	var out []card.Card
	for _, c := range deck.StandardDeck() {
		if s.Deck.CardCount(c.Rank, c.Suit) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// reshufflePlayed moves the played-this-round pile back into the draw
// pile, matching a fresh-blind reshuffle. Destroyed cards are excluded
// permanently.
func (s *Simulator) reshufflePlayed() {
	s.Deck = deck.FromKnownCards(s.Hand, nil, s.Destroyed)
	s.Played = nil
}

// PlayHand scores the indices from Hand via the C5 scoring engine, adds
// to accumulated chips, decrements hands, runs ON_HAND_PLAYED
// transition hooks, moves played cards to the played-this-round pile,
// and redraws to hand size.
func (s *Simulator) PlayHand(indices []int) (PlayResult, error) {
	if s.Phase != Playing {
		return PlayResult{}, fmt.Errorf("simulator: %w: play requires Playing phase, got %s", ErrWrongPhase, s.Phase)
	}
	if s.HandsRemaining <= 0 {
		return PlayResult{}, fmt.Errorf("simulator: %w: no hands remaining", ErrPrecondition)
	}
	played, held, err := splitHand(s.Hand, indices)
	if err != nil {
		return PlayResult{}, err
	}

	state := s.GameState()
	scoringSeed := int64(s.rng.next())
	breakdown, err := scoring.Calculate(played, held, s.Entities, s.Registry, state, mrand.New(mrand.NewSource(scoringSeed)))
	if err != nil {
		return PlayResult{}, err
	}

	s.CurrentChips += breakdown.FinalScore
	s.Money += breakdown.MoneyEarned
	s.HandsRemaining--
	s.HandsPlayed++

	s.updateEntityStatesAfterPlay(breakdown)

	s.Played = append(s.Played, played...)
	s.removeFromHand(indices)
	s.removeDestroyedFromFuture(breakdown.CardsDestroyed)
	s.drawToHandSize()

	result := PlayResult{Breakdown: breakdown}
	if s.CurrentChips >= s.ChipRequirement {
		result.BlindBeaten = true
		s.handleBlindBeaten()
		if s.Phase == GameOver {
			result.GameOver = true
			result.Won = true
		}
	} else if s.HandsRemaining == 0 {
		s.Phase = GameOver
		result.GameOver = true
	}
	return result, nil
}

// economyContext builds the round-level view EconomyEffect functions read,
// shared by the END_OF_ROUND and ON_DISCARD call sites.
func (s *Simulator) economyContext(discarded []card.Card) registry.EconomyContext {
	return registry.EconomyContext{
		Money:              s.Money,
		Ante:               s.Ante,
		BossBlindsDefeated: s.BossBlindsDefeated,
		HandsPlayed:        s.HandsPlayed,
		HandsRemaining:     s.HandsRemaining,
		DiscardsUsed:       s.DiscardsUsed,
		DiscardsRemaining:  s.DiscardsRemaining,
		DeckSize:           s.Deck.TotalRemaining(),
		DiscardedCards:     discarded,
		BossBlindTriggered: s.Blind == BossBlind,
	}
}

// applyEconomyEffects sums EconomyEffect across the held entity sequence for
// one timing event, crediting s.Money as it goes, and returns the summed
// InterestBonus for callers (handleBlindBeaten) that fold it into the
// interest formula. A registry that doesn't implement economyRegistry (the
// narrow scoring.Registry interface) is a no-op, matching C6's "a missing
// entry is a no-op" contract.
func (s *Simulator) applyEconomyEffects(timing scoring.Timing, ctx registry.EconomyContext) int {
	econ, ok := s.Registry.(economyRegistry)
	if !ok {
		return 0
	}
	var interestBonus int
	for _, e := range s.Entities {
		eff := econ.EconomyEffect(e.ID, timing, e, ctx)
		s.Money += eff.Money
		interestBonus += eff.InterestBonus
	}
	return interestBonus
}

func (s *Simulator) handleBlindBeaten() {
	reward := blindReward(s.Blind)
	interestBonus := s.applyEconomyEffects(scoring.EndOfRound, s.economyContext(nil))
	interest := s.Money/5 + interestBonus
	if interest > interestCap+interestBonus {
		interest = interestCap + interestBonus
	}
	s.Money += reward + interest
	if s.Blind == BossBlind {
		s.BossBlindsDefeated++
	}
	if s.Blind == BossBlind && s.Ante >= len(baseChipsByAnte)-1 {
		s.Phase = GameOver
		return
	}
	s.Phase = Shop
}

// Discard removes the given indices from hand, runs ON_DISCARD transition
// hooks and economy effects, decrements discards, and redraws.
func (s *Simulator) Discard(indices []int) error {
	if s.Phase != Playing {
		return fmt.Errorf("simulator: %w: discard requires Playing phase", ErrWrongPhase)
	}
	if s.DiscardsRemaining <= 0 {
		return fmt.Errorf("simulator: %w: no discards remaining", ErrPrecondition)
	}
	discarded, _, err := splitHand(s.Hand, indices)
	if err != nil {
		return err
	}
	s.updateEntityStatesAfterDiscard(discarded)
	s.Played = append(s.Played, discarded...)
	s.removeFromHand(indices)
	s.DiscardsRemaining--
	s.DiscardsUsed++
	s.applyEconomyEffects(scoring.OnDiscard, s.economyContext(discarded))
	s.drawToHandSize()
	return nil
}

// BuyEntity purchases a shop item by index, appending it to the held
// entity sequence in its current order.
func (s *Simulator) BuyEntity(index int) error {
	if s.Phase != Shop {
		return fmt.Errorf("simulator: %w: buy requires Shop phase", ErrWrongPhase)
	}
	if index < 0 || index >= len(s.Shop) {
		return fmt.Errorf("simulator: %w: shop index %d out of range", ErrInvalidIndices, index)
	}
	item := s.Shop[index]
	if s.Money < item.Cost {
		return fmt.Errorf("simulator: %w: insufficient money for %s", ErrPrecondition, item.Name)
	}
	s.Money -= item.Cost
	s.Entities = append(s.Entities, &scoring.Entity{ID: item.EntityID, Name: item.Name, State: map[string]any{}})
	s.Shop = append(s.Shop[:index], s.Shop[index+1:]...)
	return nil
}

// SellEntity removes an entity from the held sequence and credits the
// caller-supplied sellValue to Money; it does not compute a sell value
// itself.
func (s *Simulator) SellEntity(index int, sellValue int) error {
	if s.Phase != Shop {
		return fmt.Errorf("simulator: %w: sell requires Shop phase", ErrWrongPhase)
	}
	if index < 0 || index >= len(s.Entities) {
		return fmt.Errorf("simulator: %w: entity index %d out of range", ErrInvalidIndices, index)
	}
	s.Money += sellValue
	s.Entities = append(s.Entities[:index], s.Entities[index+1:]...)
	return nil
}

// ReorderEntities applies a permutation to the held entity sequence.
// perm must be a permutation of [0, len(Entities)).
func (s *Simulator) ReorderEntities(perm []int) error {
	if s.Phase != Shop {
		return fmt.Errorf("simulator: %w: reorder requires Shop phase", ErrWrongPhase)
	}
	if len(perm) != len(s.Entities) {
		return fmt.Errorf("simulator: %w: reorder permutation length mismatch", ErrInvalidIndices)
	}
	seen := make([]bool, len(perm))
	next := make([]*scoring.Entity, len(perm))
	for newPos, oldPos := range perm {
		if oldPos < 0 || oldPos >= len(s.Entities) || seen[oldPos] {
			return fmt.Errorf("simulator: %w: invalid reorder permutation", ErrInvalidIndices)
		}
		seen[oldPos] = true
		next[newPos] = s.Entities[oldPos]
	}
	s.Entities = next
	return nil
}

// EndShop advances Shop -> BlindSelect.
func (s *Simulator) EndShop() error {
	if s.Phase != Shop {
		return fmt.Errorf("simulator: %w: end_shop requires Shop phase", ErrWrongPhase)
	}
	s.advanceBlind()
	return nil
}

// GameState builds the scoring.GameState view of the round visible to
// card-modifier and entity effects: per-category levels and resource
// counts. Shared by PlayHand and by external callers (the decision
// engine, MCTS rollouts) that need to score hypothetical plays against
// the current round without mutating it.
func (s *Simulator) GameState() scoring.GameState {
	return scoring.GameState{
		HandLevels: s.HandLevels, DiscardsRemaining: s.DiscardsRemaining,
		HandsRemaining: s.HandsRemaining, Money: s.Money, Ante: s.Ante,
		IsBossBlind: s.Blind == BossBlind,
	}
}

// MaxAnte reports the final ante of the blind chip-requirement table; a
// game is won by beating that ante's boss blind.
func MaxAnte() int { return len(baseChipsByAnte) - 1 }

// IsGameOver reports whether the round machine has reached GameOver.
func (s *Simulator) IsGameOver() bool { return s.Phase == GameOver }

// IsWon reports whether the game ended by beating the final ante's boss.
func (s *Simulator) IsWon() bool {
	return s.Phase == GameOver && s.Ante >= len(baseChipsByAnte)-1 && s.Blind == BossBlind
}

// LegalPlays enumerates every non-empty subset of the hand up to size 5.
func (s *Simulator) LegalPlays() [][]int { return combinationsUpTo(len(s.Hand), 5) }

// LegalDiscards enumerates every non-empty subset of the hand up to size 5.
func (s *Simulator) LegalDiscards() [][]int { return combinationsUpTo(len(s.Hand), 5) }

func combinationsUpTo(n, maxSize int) [][]int {
	if maxSize > n {
		maxSize = n
	}
	var out [][]int
	for size := 1; size <= maxSize; size++ {
		idx := make([]int, size)
		for i := range idx {
			idx[i] = i
		}
		for {
			out = append(out, append([]int(nil), idx...))
			i := size - 1
			for i >= 0 && idx[i] == n-size+i {
				i--
			}
			if i < 0 {
				break
			}
			idx[i]++
			for j := i + 1; j < size; j++ {
				idx[j] = idx[j-1] + 1
			}
		}
	}
	return out
}

func splitHand(hand []card.Card, indices []int) (selected, remaining []card.Card, err error) {
	if len(indices) == 0 || len(indices) > 5 {
		return nil, nil, fmt.Errorf("simulator: %w: must select 1-5 cards, got %d", ErrInvalidIndices, len(indices))
	}
	seen := map[int]bool{}
	for _, i := range indices {
		if i < 0 || i >= len(hand) {
			return nil, nil, fmt.Errorf("simulator: %w: index %d out of range", ErrInvalidIndices, i)
		}
		if seen[i] {
			return nil, nil, fmt.Errorf("simulator: %w: duplicate index %d", ErrInvalidIndices, i)
		}
		seen[i] = true
	}
	for i, c := range hand {
		if seen[i] {
			selected = append(selected, c)
		} else {
			remaining = append(remaining, c)
		}
	}
	return selected, remaining, nil
}

func (s *Simulator) removeFromHand(indices []int) {
	seen := map[int]bool{}
	for _, i := range indices {
		seen[i] = true
	}
	var kept []card.Card
	for i, c := range s.Hand {
		if !seen[i] {
			kept = append(kept, c)
		}
	}
	s.Hand = kept
}

func (s *Simulator) removeDestroyedFromFuture(destroyed []card.Card) {
	for _, c := range destroyed {
		s.Destroyed = append(s.Destroyed, c)
		for i, p := range s.Played {
			if p == c {
				s.Played = append(s.Played[:i], s.Played[i+1:]...)
				break
			}
		}
	}
}

// updateEntityStatesAfterPlay runs the ON_HAND_PLAYED state-transition
// hooks for entities whose timing matches, using small hard-coded
// transition functions grounded on original_source/simulator.py's
// ice_cream/green_joker/ride_the_bus examples.
func (s *Simulator) updateEntityStatesAfterPlay(b scoring.Breakdown) {
	for _, e := range s.Entities {
		switch e.ID {
		case "ice_cream":
			chips, _ := e.State["chips"].(int)
			if chips == 0 {
				chips = 100
			}
			chips -= 5
			if chips < 0 {
				chips = 0
			}
			e.State["chips"] = chips
		case "green_joker":
			mult, _ := e.State["mult"].(float64)
			mult += 1
			e.State["mult"] = mult
		case "ride_the_bus":
			hasFace := false
			for _, c := range b.CardEffects {
				if c.Card.Rank >= card.Jack && c.Card.Rank <= card.King {
					hasFace = true
				}
			}
			mult, _ := e.State["mult"].(float64)
			if hasFace {
				e.State["mult"] = 0.0
			} else {
				e.State["mult"] = mult + 1
			}
		}
	}
}

// updateEntityStatesAfterDiscard runs the ON_DISCARD state-transition
// hooks.
func (s *Simulator) updateEntityStatesAfterDiscard(discarded []card.Card) {
	for _, e := range s.Entities {
		switch e.ID {
		case "green_joker":
			mult, _ := e.State["mult"].(float64)
			mult -= 1
			if mult < 0 {
				mult = 0
			}
			e.State["mult"] = mult
		}
	}
}
