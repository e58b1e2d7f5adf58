// Package bridge implements the thin, out-of-process front-end named in
// spec.md §6: a TCP server speaking newline-delimited JSON, bridging a
// live game client's round snapshots to the in-process decision engine
// and replying with one action per inbound line. This package is a
// collaborator at the engine's boundary, not part of the core (C1-C10);
// it concretizes spec.md §6's field list using the shapes
// original_source/live_server.py's LiveCard/LiveJoker/LiveBlind/LiveShop
// actually produce, so the Go side deserializes the same wire shape the
// original server accepted (see SPEC_FULL.md's supplemented-features
// list).
package bridge

// PhaseName is one of the phase strings the live client reports. These
// are the mod's own state names (SELECTING_HAND, HAND_PLAYED, ...), not
// the simulator's internal Phase enum; Server.decide and toActionReply
// switch on them directly.
type PhaseName string

const (
	PhaseSelectingHand PhaseName = "SELECTING_HAND"
	PhaseHandPlayed    PhaseName = "HAND_PLAYED"
	PhaseDrawToHand    PhaseName = "DRAW_TO_HAND"
	PhaseShop          PhaseName = "SHOP"
	PhaseBlindSelect   PhaseName = "BLIND_SELECT"
	PhaseNewRound      PhaseName = "NEW_ROUND"
	PhaseGameOver      PhaseName = "GAME_OVER"
	PhaseTarotPack     PhaseName = "TAROT_PACK"
	PhasePlanetPack    PhaseName = "PLANET_PACK"
	PhaseSpectralPack  PhaseName = "SPECTRAL_PACK"
	PhaseStandardPack  PhaseName = "STANDARD_PACK"
	PhaseBuffoonPack   PhaseName = "BUFFOON_PACK"
	PhaseMenu          PhaseName = "MENU"
	PhaseSplash        PhaseName = "SPLASH"
	PhaseUnknown       PhaseName = "UNKNOWN"
)

// LiveCard is a card as reported over the wire.
type LiveCard struct {
	Suit        string  `json:"suit"`
	Rank        int     `json:"rank"`
	RankName    string  `json:"rank_name"`
	Index       int     `json:"index"`
	Enhancement *string `json:"enhancement,omitempty"`
	Seal        *string `json:"seal,omitempty"`
	Edition     *string `json:"edition,omitempty"`
	Debuff      bool    `json:"debuff,omitempty"`
	Highlighted bool    `json:"highlighted,omitempty"`
}

// LiveEntity is a held modifier entity ("joker") as reported over the
// wire. Field name kept as the spec's neutral "entity" family even
// though the wire tag stays `jokers` to match the original collaborator.
type LiveEntity struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Position  int            `json:"position"`
	Cost      int            `json:"cost"`
	SellCost  int            `json:"sell_cost"`
	Edition   *string        `json:"edition,omitempty"`
	Debuff    bool           `json:"debuff,omitempty"`
	State     map[string]any `json:"state,omitempty"`
}

// LiveBlind is the current blind's status.
type LiveBlind struct {
	Name         string  `json:"name"`
	ChipsRequired int    `json:"chips_required"`
	ChipsScored  int     `json:"chips_scored"`
	BossID       *string `json:"boss_id,omitempty"`
	BlindType    string  `json:"blind_type"`
}

// LiveDeckInfo summarizes remaining-deck composition without requiring
// the bridge to reconstruct a full Tracker from individual card
// identities (the wire protocol does not enumerate the deck card by
// card).
type LiveDeckInfo struct {
	CardsInDeck    int     `json:"cards_in_deck"`
	CardsInHand    int     `json:"cards_in_hand"`
	CardsInDiscard int     `json:"cards_in_discard"`
	NinesInDeck    int     `json:"nines_in_deck"`
	DeckName       *string `json:"deck_name,omitempty"`
}

// LiveShopItem is one purchasable slot.
type LiveShopItem struct {
	Index    int     `json:"index"`
	Name     string  `json:"name"`
	Cost     int     `json:"cost"`
	ItemType string  `json:"item_type"`
	EntityID *string `json:"joker_id,omitempty"`
}

// LiveShop is the shop's full state, present only when phase is Shop.
type LiveShop struct {
	Items      []LiveShopItem `json:"items"`
	Vouchers   []LiveShopItem `json:"vouchers"`
	Boosters   []LiveShopItem `json:"boosters"`
	RerollCost int            `json:"reroll_cost"`
}

// LiveStats is the running-totals block.
type LiveStats struct {
	HandsPlayed       int `json:"hands_played"`
	CardsDiscarded    int `json:"cards_discarded"`
	BossBlindsDefeated int `json:"boss_blinds_defeated"`
	BlindsSkipped     int `json:"blinds_skipped"`
}

// Snapshot is one inbound line: the complete round state spec.md §6
// requires.
type Snapshot struct {
	PhaseName         PhaseName         `json:"phase_name"`
	Ante              int               `json:"ante"`
	Round             int               `json:"round"`
	Stake             int               `json:"stake"`
	Money             int               `json:"money"`
	HandsRemaining    int               `json:"hands_remaining"`
	DiscardsRemaining int               `json:"discards_remaining"`
	HandSize          int               `json:"hand_size"`
	Hand              []LiveCard        `json:"hand"`
	Entities          []LiveEntity      `json:"jokers"`
	Consumables       []LiveEntity      `json:"consumables"`
	Blind             LiveBlind         `json:"blind"`
	DeckInfo          LiveDeckInfo      `json:"deck_info"`
	HandLevels        map[string]int    `json:"hand_levels"`
	VouchersOwned     []string          `json:"vouchers_owned"`
	Stats             LiveStats         `json:"stats"`
	Shop              *LiveShop         `json:"shop,omitempty"`
	Seed              *int64            `json:"seed,omitempty"`
	RequestID         string            `json:"request_id,omitempty"`
}

// ActionType is the outbound action's discriminator.
type ActionType string

const (
	ActionPlay   ActionType = "play"
	ActionDiscard ActionType = "discard"
	ActionShop   ActionType = "shop"
	ActionBlind  ActionType = "blind"
	ActionPack   ActionType = "pack"
	ActionWait   ActionType = "wait"
)

// ActionReply is one outbound line: the recommendation spec.md §6
// requires.
type ActionReply struct {
	ActionType        ActionType `json:"action_type"`
	CardIndices       []int      `json:"card_indices"`
	Skip              bool       `json:"skip"`
	Reroll            bool       `json:"reroll"`
	BuyIndex          *int       `json:"buy_index"`
	ConsumableIndex   *int       `json:"consumable_index"`
	Confidence        float64    `json:"confidence"`
	Reasoning         string     `json:"reasoning"`
	RequestID         string     `json:"request_id,omitempty"`
}

// ErrorReply is sent in place of an ActionReply for invalid-input and
// precondition errors (spec.md §7): the offending message is logged and
// a structured refusal is returned without advancing state.
type ErrorReply struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}
