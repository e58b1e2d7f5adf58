// Package tuning loads the decision/heuristic/MCTS weight structs
// (spec.md §4.8-§4.10) from an HCL file for batch/offline tuning runs,
// the same way internal/server/config.go loads its ServerConfig:
// defaults baked in, overridden block-by-block by whatever the file
// sets, falling back to defaults entirely when the file is absent.
package tuning

import (
	"fmt"
	"os"
	"time"

	"github.com/coder/quartz"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/rook/blindsolver/internal/solver/decision"
	"github.com/rook/blindsolver/internal/solver/heuristic"
	"github.com/rook/blindsolver/internal/solver/mcts"
)

// Config is the full tunable surface of the engine, loadable from a
// single HCL file.
type Config struct {
	Decision  DecisionBlock  `hcl:"decision,block"`
	Heuristic HeuristicBlock `hcl:"heuristic,block"`
	MCTS      MCTSBlock      `hcl:"mcts,block"`
}

// DecisionBlock mirrors decision.Config's fields as optional HCL
// attributes; zero-valued (unset) attributes fall back to
// decision.DefaultConfig()'s value at Resolve time.
type DecisionBlock struct {
	EarlyGameVarianceWeight    float64 `hcl:"early_game_variance_weight,optional"`
	MidGameVarianceWeight      float64 `hcl:"mid_game_variance_weight,optional"`
	LateGameVarianceWeight     float64 `hcl:"late_game_variance_weight,optional"`
	LethalRangeVarianceWeight  float64 `hcl:"lethal_range_variance_weight,optional"`
	BaseSafetyMargin           float64 `hcl:"base_safety_margin,optional"`
	LowDiscardMarginMultiplier float64 `hcl:"low_discard_margin_multiplier,optional"`
	BossBlindMarginMultiplier  float64 `hcl:"boss_blind_margin_multiplier,optional"`
	NearLethalMarginMultiplier float64 `hcl:"near_lethal_margin_multiplier,optional"`
	RareRankLossWeight         float64 `hcl:"rare_rank_loss_weight,optional"`
	SuitImbalanceWeight        float64 `hcl:"suit_imbalance_weight,optional"`
	JokerTriggerValueWeight    float64 `hcl:"joker_trigger_value_weight,optional"`
	PreferPlayOverDiscard      float64 `hcl:"prefer_play_over_discard,optional"`
	PreferFewerCards           float64 `hcl:"prefer_fewer_cards,optional"`
	PreferDeterministic        float64 `hcl:"prefer_deterministic,optional"`
}

// HeuristicBlock mirrors heuristic.Config.
type HeuristicBlock struct {
	LethalBonus              float64 `hcl:"lethal_bonus,optional"`
	HandTypeWeight           float64 `hcl:"hand_type_weight,optional"`
	ChipEfficiencyWeight     float64 `hcl:"chip_efficiency_weight,optional"`
	JokerSynergyWeight       float64 `hcl:"joker_synergy_weight,optional"`
	DiscardImprovementWeight float64 `hcl:"discard_improvement_weight,optional"`
	KeepHighCardsWeight      float64 `hcl:"keep_high_cards_weight,optional"`
	KeepSynergyCardsWeight   float64 `hcl:"keep_synergy_cards_weight,optional"`
}

// MCTSBlock mirrors mcts.Config's non-heuristic fields (the heuristic
// weights it uses are configured once, via HeuristicBlock, and shared).
type MCTSBlock struct {
	ExplorationConstant float64 `hcl:"exploration_constant,optional"`
	MaxIterations        int    `hcl:"max_iterations,optional"`
	MaxRolloutDepth      int    `hcl:"max_rollout_depth,optional"`
	AnteWeight           float64 `hcl:"ante_weight,optional"`
	BlindWeight          float64 `hcl:"blind_weight,optional"`
	Workers              int    `hcl:"workers,optional"`
}

// Load reads filename as HCL and returns a Config. A missing file is
// not an error: Resolve on the zero Config yields every package's
// defaults unchanged, matching internal/server/config.go's
// file-absent-means-defaults behavior.
func Load(filename string) (Config, error) {
	var cfg Config
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return cfg, nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return cfg, fmt.Errorf("tuning: failed to parse HCL file: %s", diags.Error())
	}
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return cfg, fmt.Errorf("tuning: failed to decode HCL: %s", diags.Error())
	}
	return cfg, nil
}

// Resolve merges a loaded Config over each package's defaults: any
// field left at its Go zero value in the HCL file keeps the default
// rather than being coerced to zero, matching the teacher's
// zero-means-unset convention in internal/server/config.go.
func Resolve(cfg Config) (decision.Config, heuristic.Config, mcts.Config) {
	d := decision.DefaultConfig()
	overlayFloat(&d.EarlyGameVarianceWeight, cfg.Decision.EarlyGameVarianceWeight)
	overlayFloat(&d.MidGameVarianceWeight, cfg.Decision.MidGameVarianceWeight)
	overlayFloat(&d.LateGameVarianceWeight, cfg.Decision.LateGameVarianceWeight)
	overlayFloat(&d.LethalRangeVarianceWeight, cfg.Decision.LethalRangeVarianceWeight)
	overlayFloat(&d.BaseSafetyMargin, cfg.Decision.BaseSafetyMargin)
	overlayFloat(&d.LowDiscardMarginMultiplier, cfg.Decision.LowDiscardMarginMultiplier)
	overlayFloat(&d.BossBlindMarginMultiplier, cfg.Decision.BossBlindMarginMultiplier)
	overlayFloat(&d.NearLethalMarginMultiplier, cfg.Decision.NearLethalMarginMultiplier)
	overlayFloat(&d.RareRankLossWeight, cfg.Decision.RareRankLossWeight)
	overlayFloat(&d.SuitImbalanceWeight, cfg.Decision.SuitImbalanceWeight)
	overlayFloat(&d.JokerTriggerValueWeight, cfg.Decision.JokerTriggerValueWeight)
	overlayFloat(&d.PreferPlayOverDiscard, cfg.Decision.PreferPlayOverDiscard)
	overlayFloat(&d.PreferFewerCards, cfg.Decision.PreferFewerCards)
	overlayFloat(&d.PreferDeterministic, cfg.Decision.PreferDeterministic)

	h := heuristic.DefaultConfig()
	overlayFloat(&h.LethalBonus, cfg.Heuristic.LethalBonus)
	overlayFloat(&h.HandTypeWeight, cfg.Heuristic.HandTypeWeight)
	overlayFloat(&h.ChipEfficiencyWeight, cfg.Heuristic.ChipEfficiencyWeight)
	overlayFloat(&h.JokerSynergyWeight, cfg.Heuristic.JokerSynergyWeight)
	overlayFloat(&h.DiscardImprovementWeight, cfg.Heuristic.DiscardImprovementWeight)
	overlayFloat(&h.KeepHighCardsWeight, cfg.Heuristic.KeepHighCardsWeight)
	overlayFloat(&h.KeepSynergyCardsWeight, cfg.Heuristic.KeepSynergyCardsWeight)

	m := mcts.DefaultConfig()
	m.Heuristic = h
	overlayFloat(&m.ExplorationConstant, cfg.MCTS.ExplorationConstant)
	overlayInt(&m.MaxIterations, cfg.MCTS.MaxIterations)
	overlayInt(&m.MaxRolloutDepth, cfg.MCTS.MaxRolloutDepth)
	overlayFloat(&m.AnteWeight, cfg.MCTS.AnteWeight)
	overlayFloat(&m.BlindWeight, cfg.MCTS.BlindWeight)
	overlayInt(&m.Workers, cfg.MCTS.Workers)

	return d, h, m
}

func overlayFloat(dst *float64, override float64) {
	if override != 0 {
		*dst = override
	}
}

func overlayInt(dst *int, override int) {
	if override != 0 {
		*dst = override
	}
}

// quartzDeadline adapts a github.com/coder/quartz clock to mcts.Deadline,
// the one place this module lets the MCTS search's time budget touch a
// real (or, in tests, mocked) wall clock. The mcts package itself stays
// free of the dependency so its own tests run on a plain counter.
type quartzDeadline struct {
	clock quartz.Clock
	until time.Time
}

// NewDeadline returns an mcts.Deadline that expires once clock's notion of
// now passes budget from this call.
func NewDeadline(clock quartz.Clock, budget time.Duration) mcts.Deadline {
	return quartzDeadline{clock: clock, until: clock.Now().Add(budget)}
}

func (d quartzDeadline) Expired() bool {
	return !d.clock.Now().Before(d.until)
}
