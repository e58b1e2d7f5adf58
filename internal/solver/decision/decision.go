// Package decision implements the gate (C9): it composes the hand
// evaluator, probability module, scoring engine, and heuristic evaluator
// behind a lethality check, an expected-value comparison over discards,
// and a variance-aware tie-break.
package decision

import (
	"sort"

	"github.com/rook/blindsolver/internal/solver/card"
	"github.com/rook/blindsolver/internal/solver/deck"
	"github.com/rook/blindsolver/internal/solver/handeval"
	"github.com/rook/blindsolver/internal/solver/probability"
	"github.com/rook/blindsolver/internal/solver/scoring"
)

// Config holds every weight and threshold the engine uses. Defaults are
// grounded directly on the reference implementation's tuned values.
type Config struct {
	EarlyGameVarianceWeight  float64
	MidGameVarianceWeight    float64
	LateGameVarianceWeight   float64
	LethalRangeVarianceWeight float64

	BaseSafetyMargin          float64
	LowDiscardMarginMultiplier float64
	BossBlindMarginMultiplier  float64
	NearLethalMarginMultiplier float64

	RareRankLossWeight      float64
	SuitImbalanceWeight     float64
	JokerTriggerValueWeight float64

	PreferPlayOverDiscard float64
	PreferFewerCards      float64
	PreferDeterministic   float64
}

// DefaultConfig mirrors the reference weights.
func DefaultConfig() Config {
	return Config{
		EarlyGameVarianceWeight:    0.1,
		MidGameVarianceWeight:      0.3,
		LateGameVarianceWeight:     0.5,
		LethalRangeVarianceWeight:  1.0,
		BaseSafetyMargin:           50.0,
		LowDiscardMarginMultiplier: 1.5,
		BossBlindMarginMultiplier:  2.0,
		NearLethalMarginMultiplier: 3.0,
		RareRankLossWeight:         20.0,
		SuitImbalanceWeight:        10.0,
		JokerTriggerValueWeight:    1.0,
		PreferPlayOverDiscard:      10.0,
		PreferFewerCards:           5.0,
		PreferDeterministic:        20.0,
	}
}

// ActionType distinguishes a play from a discard in the final decision.
type ActionType int

const (
	Play ActionType = iota
	Discard
)

// Action is a fully evaluated candidate: its raw expected score and
// variance, and the final weighted score the pipeline selects on.
type Action struct {
	Type          ActionType
	Indices       []int
	Cards         []card.Card
	ExpectedScore int
	Variance      float64
	Category      handeval.Category
	IsLethal      bool
	Deterministic bool
	FinalScore    float64
	Reasoning     []string
}

// estimateBaseValues mirrors handeval's level-1 base chip/mult table,
// duplicated here because the discard estimator needs it independent of
// any specific scored hand (see DESIGN.md).
var estimateBaseValues = map[handeval.Category][2]float64{
	handeval.HighCard:      {5, 1},
	handeval.Pair:          {10, 2},
	handeval.TwoPair:       {20, 2},
	handeval.ThreeOfKind:   {30, 3},
	handeval.Straight:      {30, 4},
	handeval.Flush:         {35, 4},
	handeval.FullHouse:     {40, 4},
	handeval.FourOfKind:    {60, 7},
	handeval.StraightFlush: {100, 8},
	handeval.RoyalFlush:    {100, 8},
	handeval.FiveOfKind:    {120, 12},
	handeval.FlushHouse:    {140, 14},
	handeval.FlushFive:     {160, 16},
}

// Decide runs the full pipeline: enumerate plays, gate on lethality,
// enumerate discards with EV/variance if no lethal play exists, then
// pick the highest-scoring surviving action.
func Decide(
	hand []card.Card,
	entities []*scoring.Entity,
	registry scoring.Registry,
	state scoring.GameState,
	tracker *deck.Tracker,
	chipsNeeded, blindTotal, handsRemaining, discardsRemaining int,
	isBossBlind bool,
	cfg Config,
) Action {
	plays := evaluatePlays(hand, entities, registry, state, chipsNeeded)

	var lethal []Action
	for _, a := range plays {
		if a.IsLethal {
			lethal = append(lethal, a)
		}
	}
	if len(lethal) > 0 {
		best := safestLethal(lethal)
		best.Reasoning = append(best.Reasoning, "LETHAL - playing safe winning hand")
		return best
	}

	var discards []Action
	if discardsRemaining > 0 && tracker != nil {
		discards = evaluateDiscards(hand, entities, state, tracker, chipsNeeded, isBossBlind, discardsRemaining, cfg)
	}

	all := append(append([]Action(nil), plays...), discards...)
	if len(all) == 0 {
		if len(hand) == 0 {
			return Action{Type: Play, Reasoning: []string{"no valid actions"}}
		}
		return Action{Type: Play, Indices: []int{0}, Cards: []card.Card{hand[0]}, Reasoning: []string{"fallback: playing first card"}}
	}

	varianceWeight := varianceWeight(chipsNeeded, handsRemaining, blindTotal, cfg)
	for i := range all {
		a := &all[i]
		a.FinalScore = float64(a.ExpectedScore)
		a.FinalScore -= varianceWeight * a.Variance
		if a.Type == Play {
			a.FinalScore += cfg.PreferPlayOverDiscard
		}
		if a.Deterministic {
			a.FinalScore += cfg.PreferDeterministic
		}
		a.FinalScore -= float64(len(a.Cards)) * cfg.PreferFewerCards
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].FinalScore > all[j].FinalScore })
	return all[0]
}

func evaluatePlays(hand []card.Card, entities []*scoring.Entity, registry scoring.Registry, state scoring.GameState, chipsNeeded int) []Action {
	var actions []Action
	forEachSubset(len(hand), 5, func(indices []int) {
		played, held := splitByIndices(hand, indices)
		b, err := scoring.Calculate(played, held, entities, registry, state, nil)
		if err != nil {
			return
		}
		isLethal := b.FinalScore >= chipsNeeded
		reasoning := []string{b.Category.String()}
		if isLethal {
			reasoning = append(reasoning, "LETHAL")
		}
		actions = append(actions, Action{
			Type: Play, Indices: indices, Cards: played,
			ExpectedScore: b.FinalScore, Category: b.Category,
			IsLethal: isLethal, Deterministic: true, Reasoning: reasoning,
		})
	})
	return actions
}

func safestLethal(lethal []Action) Action {
	best := lethal[0]
	for _, a := range lethal[1:] {
		if better := func() bool {
			if a.ExpectedScore != best.ExpectedScore {
				return a.ExpectedScore > best.ExpectedScore
			}
			if len(a.Cards) != len(best.Cards) {
				return len(a.Cards) < len(best.Cards)
			}
			return a.Category > best.Category
		}(); better {
			best = a
		}
	}
	return best
}

func varianceWeight(chipsNeeded, handsRemaining, blindTotal int, cfg Config) float64 {
	if blindTotal > 0 && float64(chipsNeeded) < float64(blindTotal)*0.3 {
		return cfg.LethalRangeVarianceWeight
	}
	if handsRemaining <= 2 {
		return cfg.LateGameVarianceWeight
	}
	if handsRemaining <= 3 {
		return cfg.MidGameVarianceWeight
	}
	return cfg.EarlyGameVarianceWeight
}

func safetyMargin(chipsNeeded, currentScore, discardsRemaining int, isBossBlind bool, cfg Config) float64 {
	margin := cfg.BaseSafetyMargin
	if float64(currentScore) >= float64(chipsNeeded)*0.8 {
		margin *= cfg.NearLethalMarginMultiplier
	}
	if discardsRemaining <= 1 {
		margin *= cfg.LowDiscardMarginMultiplier
	}
	if isBossBlind {
		margin *= cfg.BossBlindMarginMultiplier
	}
	return margin
}

func evaluateDiscards(
	hand []card.Card, entities []*scoring.Entity, state scoring.GameState, tracker *deck.Tracker,
	chipsNeeded int, isBossBlind bool, discardsRemaining int, cfg Config,
) []Action {
	currentScore := currentBestScore(hand, entities, state)
	margin := safetyMargin(chipsNeeded, currentScore, discardsRemaining, isBossBlind, cfg)

	var actions []Action
	forEachSubset(len(hand), 5, func(indices []int) {
		discarded, kept := splitByIndices(hand, indices)
		probs := probability.CalculateAllCompletionProbabilities(kept, tracker, len(discarded))

		ev, variance := estimateDiscardEV(kept, probs, entities, state)
		damage := deckDamage(discarded, tracker, entities, cfg)
		adjusted := ev - damage
		if adjusted <= float64(currentScore)+margin {
			return
		}

		improvement := probs.BestImprovement()
		actions = append(actions, Action{
			Type: Discard, Indices: indices, Cards: discarded,
			ExpectedScore: int(adjusted), Variance: variance, Deterministic: false,
			Reasoning: []string{improvement.Name, "EV estimate"},
		})
	})
	return actions
}

func currentBestScore(hand []card.Card, entities []*scoring.Entity, state scoring.GameState) int {
	category, cards := bestHandIn(hand)
	if cards == nil {
		return 0
	}
	return estimateHandScore(category, cards, entities)
}

func estimateDiscardEV(kept []card.Card, probs probability.CompletionProbabilities, entities []*scoring.Entity, state scoring.GameState) (float64, float64) {
	type outcome struct {
		p float64
		s float64
	}
	var outcomes []outcome

	add := func(p float64, cat handeval.Category) {
		if p > 0.01 {
			outcomes = append(outcomes, outcome{p, float64(estimateHandScore(cat, kept, entities))})
		}
	}
	add(probs.BestFlush(), handeval.Flush)
	add(probs.Straight, handeval.Straight)
	add(probs.ThreeOfAKind, handeval.ThreeOfKind)
	add(probs.FullHouse, handeval.FullHouse)
	add(probs.FourOfAKind, handeval.FourOfKind)

	sumP := 0.0
	for _, o := range outcomes {
		sumP += o.p
	}
	if probNoImprove := 1.0 - sumP; probNoImprove > 0 {
		outcomes = append(outcomes, outcome{probNoImprove, float64(currentBestScore(kept, entities, scoring.GameState{}))})
	}
	if len(outcomes) == 0 {
		return 0, 0
	}

	ev := 0.0
	for _, o := range outcomes {
		ev += o.p * o.s
	}
	variance := 0.0
	for _, o := range outcomes {
		d := o.s - ev
		variance += o.p * d * d
	}
	return ev, variance
}

// estimateHandScore projects a representative score for achieving the
// given category with the given kept cards, at the current entity
// configuration, without a real deal: base chips/mult at level 1 times
// an estimated joker multiplier.
func estimateHandScore(cat handeval.Category, cards []card.Card, entities []*scoring.Entity) int {
	base, ok := estimateBaseValues[cat]
	if !ok {
		base = estimateBaseValues[handeval.HighCard]
	}
	chips, mult := base[0], base[1]

	jokerMult := estimateJokerBonus(cards, cat, entities)
	if jokerMult < 1.0 {
		jokerMult = 1.0
	}
	return int(chips * mult * jokerMult)
}

func bestHandIn(cards []card.Card) (handeval.Category, []card.Card) {
	if len(cards) == 0 {
		return handeval.HighCard, nil
	}
	best := handeval.HighCard
	var bestCards []card.Card
	found := false
	forEachSubset(len(cards), 5, func(indices []int) {
		subset, _ := splitByIndices(cards, indices)
		result, err := handeval.EvaluateHand(subset)
		if err != nil {
			return
		}
		if !found || result.Category > best {
			best = result.Category
			bestCards = subset
			found = true
		}
	})
	if !found {
		return handeval.HighCard, nil
	}
	return best, bestCards
}

// estimateJokerBonus mirrors the reference implementation's rough
// per-category joker estimate, normalized to a multiplier.
func estimateJokerBonus(cards []card.Card, cat handeval.Category, entities []*scoring.Entity) float64 {
	multiplier := 1.0
	addMult := 0.0

	for _, e := range entities {
		switch e.ID {
		case "jolly_joker":
			if cat == handeval.Pair || cat == handeval.TwoPair || cat == handeval.FullHouse {
				addMult += 8
			}
		case "zany_joker":
			if cat == handeval.ThreeOfKind || cat == handeval.FullHouse || cat == handeval.FourOfKind {
				addMult += 12
			}
		case "half_joker":
			if len(cards) <= 3 {
				addMult += 20
			}
		case "the_duo":
			if cat == handeval.Pair || cat == handeval.TwoPair || cat == handeval.FullHouse {
				multiplier *= 2
			}
		case "the_trio":
			if cat == handeval.ThreeOfKind || cat == handeval.FullHouse || cat == handeval.FourOfKind {
				multiplier *= 3
			}
		case "greedy_joker", "lusty_joker", "wrathful_joker", "gluttonous_joker":
			suit := suitForJoker(e.ID)
			n := 0
			for _, c := range cards {
				if c.HasSuit(suit) {
					n++
				}
			}
			addMult += float64(n) * 3
		}
	}

	baseChips, baseMult := 10.0, 2.0+addMult
	return baseChips * baseMult * multiplier / 20
}

func suitForJoker(id string) card.Suit {
	switch id {
	case "greedy_joker":
		return card.Diamonds
	case "lusty_joker":
		return card.Hearts
	case "wrathful_joker":
		return card.Spades
	default:
		return card.Clubs
	}
}

var rareRanks = map[card.Rank]bool{card.Ace: true, card.King: true, card.Queen: true, card.Jack: true}

func deckDamage(discarded []card.Card, tracker *deck.Tracker, entities []*scoring.Entity, cfg Config) float64 {
	damage := 0.0
	for _, c := range discarded {
		if rareRanks[c.Rank] {
			damage += cfg.RareRankLossWeight
		}
	}

	dist := tracker.SuitDistribution()
	if len(dist) > 0 {
		total := 0
		for _, n := range dist {
			total += n
		}
		avg := float64(total) / float64(len(dist))
		for _, c := range discarded {
			if float64(dist[c.Suit]) < avg {
				damage += cfg.SuitImbalanceWeight
			}
		}
	}

	for _, e := range entities {
		for _, c := range discarded {
			if cardSynergizesWithEntity(c, e.ID) {
				damage += cfg.JokerTriggerValueWeight * 10
			}
		}
	}
	return damage
}

func cardSynergizesWithEntity(c card.Card, id string) bool {
	switch id {
	case "greedy_joker":
		return c.Suit == card.Diamonds
	case "lusty_joker":
		return c.Suit == card.Hearts
	case "wrathful_joker":
		return c.Suit == card.Spades
	case "gluttonous_joker":
		return c.Suit == card.Clubs
	case "scary_face", "smiley_face", "photograph":
		return c.Rank == card.Jack || c.Rank == card.Queen || c.Rank == card.King
	case "even_steven":
		return int(c.Rank) >= 2 && int(c.Rank) <= 10 && int(c.Rank)%2 == 0
	case "odd_todd":
		return (int(c.Rank) <= 9 && int(c.Rank)%2 == 1) || c.Rank == card.Ace
	}
	return false
}

func splitByIndices(cards []card.Card, indices []int) (selected, remaining []card.Card) {
	seen := map[int]bool{}
	for _, i := range indices {
		seen[i] = true
	}
	for i, c := range cards {
		if seen[i] {
			selected = append(selected, c)
		} else {
			remaining = append(remaining, c)
		}
	}
	return selected, remaining
}

func forEachSubset(n, maxSize int, fn func(indices []int)) {
	if maxSize > n {
		maxSize = n
	}
	for size := 1; size <= maxSize; size++ {
		idx := make([]int, size)
		for i := range idx {
			idx[i] = i
		}
		for {
			fn(append([]int(nil), idx...))
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
}
