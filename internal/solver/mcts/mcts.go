// Package mcts implements the Monte Carlo Tree Search (C10): a UCB1 tree
// over the game simulator (C7) that uses the heuristic evaluator (C8) as
// both rollout policy and expansion-ordering hint, and that reuses the
// same simulator primitives the decision engine (C9) does for its
// deterministic, single-step alternative.
//
// Grounded on the reference implementation's own MCTS module and, for
// the Go idiom of node/tree shape and UCB1 selection, on the pack's
// neural_rps MCTS (other_examples) — classical parent-owned children,
// no weak references, visit-count final selection rather than
// highest-average (spec.md §4.10).
package mcts

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/rook/blindsolver/internal/solver/heuristic"
	"github.com/rook/blindsolver/internal/solver/simulator"
)

// Kind distinguishes the action classes the tree can apply. Shop is
// collapsed to EndShop only (buy/sell/reorder are omitted from tree
// expansion for tractability); spec.md §4.10's own rollout description
// only ever applies start_blind in BlindSelect and end_shop in Shop, so
// the tree's legal-action set mirrors that simplification rather than
// re-introducing full shop enumeration only the rollout then ignores.
type Kind int

const (
	Play Kind = iota
	Discard
	StartBlind
	SkipBlind
	EndShop
)

func (k Kind) String() string {
	switch k {
	case Play:
		return "play"
	case Discard:
		return "discard"
	case StartBlind:
		return "start_blind"
	case SkipBlind:
		return "skip_blind"
	case EndShop:
		return "end_shop"
	default:
		return "unknown"
	}
}

// Action is a single edge in the tree: a kind plus, for Play/Discard,
// the hand indices it applies.
type Action struct {
	Kind    Kind
	Indices []int
}

// key produces a stable map key for an action so children can be looked
// up by the action that produced them.
func (a Action) key() string {
	var b strings.Builder
	b.WriteString(a.Kind.String())
	for _, i := range a.Indices {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(i))
	}
	return b.String()
}

// Config holds the search's tunable constants.
type Config struct {
	ExplorationConstant float64
	MaxIterations       int
	MaxRolloutDepth     int
	AnteWeight          float64
	BlindWeight         float64
	Heuristic           heuristic.Config

	// Workers, when > 1, makes RunParallel build that many independent
	// root-parallel trees (via an errgroup fan-out) and merge their root
	// children's visit counts before picking a best action, the tree-search
	// generalization of internal/solver/probability's Monte-Carlo worker
	// pool. Workers <= 1 runs a single tree in the calling goroutine.
	// Search.Run itself does not read this field.
	Workers int
}

// DefaultConfig matches the reference implementation's tuned constants:
// UCB1's exploration term uses the classical sqrt(2), rollouts cap at a
// depth generous enough to reach a terminal state in practice, and
// partial-credit evaluation weighs ante progress above blind-within-ante
// progress.
func DefaultConfig() Config {
	return Config{
		ExplorationConstant: math.Sqrt2,
		MaxIterations:       1000,
		MaxRolloutDepth:     200,
		AnteWeight:          0.7,
		BlindWeight:         0.1,
		Heuristic:           heuristic.DefaultConfig(),
	}
}

// Deadline abstracts the wall-clock check so tests can drive it with a
// fake clock instead of real time; the bench CLI subcommand wires a
// github.com/coder/quartz clock through this interface (see
// internal/solver/tuning), keeping this package itself free of a direct
// quartz dependency.
type Deadline interface {
	// Expired reports whether the search should stop now.
	Expired() bool
}

// noDeadline never expires; used when the caller only bounds the search
// by iteration count.
type noDeadline struct{}

func (noDeadline) Expired() bool { return false }

// NoDeadline is the zero-value Deadline: iteration-count budgets only.
var NoDeadline Deadline = noDeadline{}

// Node is one position in the search tree. Children are uniquely owned
// by their parent (classical tree, no cycles, no weak references
// needed, per spec.md §9). Caching the simulator clone that produced
// each node trades memory for avoiding a root-to-node replay on every
// selection step.
type Node struct {
	Parent   *Node
	Action   Action
	Sim      *simulator.Simulator
	Children map[string]*Node
	Untried  []Action
	Visits   int
	Value    float64
	Wins     int
}

// legalActions enumerates the actions available from a simulator state,
// per spec.md §4.7's legal_plays/legal_discards plus the phase
// transitions this tree models.
func legalActions(sim *simulator.Simulator) []Action {
	switch sim.Phase {
	case simulator.BlindSelect:
		actions := []Action{{Kind: StartBlind}}
		if sim.Blind != simulator.BossBlind {
			actions = append(actions, Action{Kind: SkipBlind})
		}
		return actions
	case simulator.Playing:
		var actions []Action
		for _, idx := range sim.LegalPlays() {
			actions = append(actions, Action{Kind: Play, Indices: idx})
		}
		if sim.DiscardsRemaining > 0 {
			for _, idx := range sim.LegalDiscards() {
				actions = append(actions, Action{Kind: Discard, Indices: idx})
			}
		}
		return actions
	case simulator.Shop:
		return []Action{{Kind: EndShop}}
	default:
		return nil
	}
}

// apply runs an action against sim in place, matching the C7 operation
// it names. Errors (e.g. a stale index set after the hand changed) are
// not expected here since actions are only ever drawn from
// legalActions() of the exact state they're applied to.
func apply(sim *simulator.Simulator, a Action) error {
	switch a.Kind {
	case Play:
		_, err := sim.PlayHand(a.Indices)
		return err
	case Discard:
		return sim.Discard(a.Indices)
	case StartBlind:
		return sim.StartBlind()
	case SkipBlind:
		return sim.SkipBlind()
	case EndShop:
		return sim.EndShop()
	default:
		return fmt.Errorf("mcts: unknown action kind %v", a.Kind)
	}
}

func newNode(parent *Node, action Action, sim *simulator.Simulator) *Node {
	return &Node{
		Parent:   parent,
		Action:   action,
		Sim:      sim,
		Children: make(map[string]*Node),
		Untried:  legalActions(sim),
	}
}

// Search is a single tree rooted at an initial simulator snapshot. The
// caller clones its own state before constructing a Search so the
// original is never touched (C7's clone contract is what makes this
// safe to share with a live decision).
type Search struct {
	cfg  Config
	root *Node
}

// New roots a search at a clone of state; the original is never mutated.
func New(state *simulator.Simulator, cfg Config) *Search {
	return &Search{cfg: cfg, root: newNode(nil, Action{}, state.Clone())}
}

// Run executes iterations until the configured budget or the deadline
// is exhausted, whichever comes first, then returns the most-visited
// child of the root as spec.md §4.10 requires (robust child selection,
// not highest average, since low-visit children have noisy averages on
// small budgets). Run always searches this single tree; cfg.Workers is
// only honoured by RunParallel.
func (s *Search) Run(deadline Deadline) (Action, bool) {
	if deadline == nil {
		deadline = NoDeadline
	}
	for i := 0; i < s.cfg.MaxIterations; i++ {
		if deadline.Expired() {
			break
		}
		s.iterate()
	}
	return s.BestAction()
}

// RunParallel builds cfg.Workers independent Search trees, each rooted at
// its own clone of state, and runs them concurrently via errgroup — the
// same worker-pool idiom internal/solver/probability uses for its
// Monte-Carlo cross-checks, generalized from "parallel independent
// samples" to "parallel independent trees". Results are merged by
// summing each action's visit count across workers (root parallelization,
// not tree parallelization: no shared mutable tree, no locking). The
// merged visit counts pick the final action exactly as a single tree's
// BestAction would. A deadline is shared across workers by value; each
// worker checks it independently, so it must be safe for concurrent
// Expired() calls (the quartz-backed tuning.NewDeadline is).
func RunParallel(state *simulator.Simulator, cfg Config, deadline Deadline) (Action, bool, int) {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers == 1 {
		search := New(state, cfg)
		action, ok := search.Run(deadline)
		return action, ok, search.Root().Visits
	}

	searches := make([]*Search, workers)
	for i := range searches {
		searches[i] = New(state, cfg)
	}

	var g errgroup.Group
	for _, search := range searches {
		search := search
		g.Go(func() error {
			search.Run(deadline)
			return nil
		})
	}
	_ = g.Wait() // each worker's Run never returns an error

	merged := make(map[string]int)
	actions := make(map[string]Action)
	totalVisits := 0
	for _, search := range searches {
		totalVisits += search.root.Visits
		for key, child := range search.root.Children {
			merged[key] += child.Visits
			actions[key] = child.Action
		}
	}

	bestKey := ""
	bestVisits := -1
	for key, visits := range merged {
		if visits > bestVisits {
			bestVisits = visits
			bestKey = key
		}
	}
	if bestKey == "" {
		return Action{}, false, totalVisits
	}
	return actions[bestKey], true, totalVisits
}

// BestAction returns the root child with the most visits. ok is false
// only when the root has no children at all (terminal root or a search
// that never ran an iteration).
func (s *Search) BestAction() (Action, bool) {
	var best *Node
	for _, child := range s.root.Children {
		if best == nil || child.Visits > best.Visits {
			best = child
		}
	}
	if best == nil {
		return Action{}, false
	}
	return best.Action, true
}

// Root exposes the root node for inspection (visit counts, tree shape)
// by the decision inspector.
func (s *Search) Root() *Node { return s.root }

func (s *Search) iterate() {
	node := s.root
	for !isTerminal(node.Sim) && len(node.Untried) == 0 && len(node.Children) > 0 {
		node = s.selectChild(node)
	}

	var value float64
	if isTerminal(node.Sim) {
		value = terminalValue(node.Sim, s.cfg)
	} else if len(node.Untried) > 0 {
		node = s.expand(node)
		value = s.rollout(node.Sim.Clone())
	} else {
		// No untried actions and no children: a non-terminal dead end
		// (e.g. an empty hand with no legal action). Treat as a loss.
		value = 0
	}

	s.backpropagate(node, value)
}

// selectChild picks the UCB1-best child; an unvisited child (shouldn't
// occur once Untried is empty, guarded defensively) scores +Inf.
func (s *Search) selectChild(node *Node) *Node {
	var best *Node
	bestScore := math.Inf(-1)
	for _, child := range node.Children {
		score := ucb1(child, node.Visits, s.cfg.ExplorationConstant)
		if score > bestScore {
			bestScore = score
			best = child
		}
	}
	return best
}

func ucb1(child *Node, parentVisits int, c float64) float64 {
	if child.Visits == 0 {
		return math.Inf(1)
	}
	avg := child.Value / float64(child.Visits)
	return avg + c*math.Sqrt(math.Log(float64(parentVisits))/float64(child.Visits))
}

// expand picks one untried action — preferring the highest-heuristic-
// scored untried play when the node is in Playing phase, else the first
// untried action arbitrarily (spec.md §4.10's Expansion step) — applies
// it to a clone, and attaches the resulting child.
func (s *Search) expand(node *Node) *Node {
	idx := s.bestUntriedIndex(node)
	action := node.Untried[idx]
	node.Untried = append(node.Untried[:idx], node.Untried[idx+1:]...)

	child := node.Sim.Clone()
	if err := apply(child, action); err != nil {
		// A precondition failure on a legally-enumerated action should
		// not happen; fall back to treating this branch as explored but
		// valueless rather than corrupting the tree with a bad clone.
		child = node.Sim.Clone()
	}
	childNode := newNode(node, action, child)
	node.Children[action.key()] = childNode
	return childNode
}

// bestUntriedIndex finds the untried Play action with the highest C8
// score, falling back to index 0 when the node has no untried plays
// (e.g. only Discard/phase-transition actions remain).
func (s *Search) bestUntriedIndex(node *Node) int {
	if node.Sim.Phase != simulator.Playing {
		return 0
	}
	ranked := heuristic.EvaluatePlays(
		node.Sim.Hand, node.Sim.Entities, node.Sim.Registry, node.Sim.GameState(),
		node.Sim.ChipRequirement-node.Sim.CurrentChips, node.Sim.HandsRemaining,
		s.cfg.Heuristic,
	)
	for _, r := range ranked {
		for i, a := range node.Untried {
			if a.Kind == Play && sameIndices(a.Indices, r.Indices) {
				return i
			}
		}
	}
	return 0
}

func sameIndices(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// rollout runs a simulation to a terminal state (or a depth cap) using
// C8 as the policy: the top-ranked play when Playing, start_blind in
// BlindSelect, end_shop in Shop. The depth cap guarantees termination
// even if a policy choice stalls progress.
func (s *Search) rollout(sim *simulator.Simulator) float64 {
	for depth := 0; depth < s.cfg.MaxRolloutDepth && !isTerminal(sim); depth++ {
		action, ok := rolloutPolicy(sim, s.cfg)
		if !ok {
			break
		}
		if err := apply(sim, action); err != nil {
			break
		}
	}
	return terminalValue(sim, s.cfg)
}

// rolloutPolicy selects the single next action per spec.md §4.10's
// Simulation step. Discards are intentionally excluded from the
// rollout policy (only Playing -> play, BlindSelect -> start_blind,
// Shop -> end_shop are named); a rollout that never discards is a
// pessimistic but bounded-variance policy, consistent with using C8
// (which itself recommends discards only in narrow circumstances) for
// fast, terminating playouts rather than decision-quality ones.
func rolloutPolicy(sim *simulator.Simulator, cfg Config) (Action, bool) {
	switch sim.Phase {
	case simulator.BlindSelect:
		return Action{Kind: StartBlind}, true
	case simulator.Shop:
		return Action{Kind: EndShop}, true
	case simulator.Playing:
		if len(sim.Hand) == 0 {
			return Action{}, false
		}
		ranked := heuristic.EvaluatePlays(
			sim.Hand, sim.Entities, sim.Registry, sim.GameState(),
			sim.ChipRequirement-sim.CurrentChips, sim.HandsRemaining, cfg.Heuristic,
		)
		if len(ranked) == 0 {
			return Action{Kind: Play, Indices: []int{0}}, true
		}
		return Action{Kind: Play, Indices: ranked[0].Indices}, true
	default:
		return Action{}, false
	}
}

func isTerminal(sim *simulator.Simulator) bool { return sim.IsGameOver() }

// terminalValue is spec.md §4.10's Evaluation step: 1.0 on a win,
// otherwise ante*AnteWeight + blindProgress*BlindWeight clamped to
// [0, 1]. blindProgress is 0/1/2 for Small/Big/Boss, matching the
// glossary's three sub-rounds. Non-terminal states (depth-capped
// rollouts) are evaluated the same way as a partial-credit proxy.
func terminalValue(sim *simulator.Simulator, cfg Config) float64 {
	if sim.IsWon() {
		return 1.0
	}
	anteProgress := float64(sim.Ante)
	blindProgress := float64(blindOrdinal(sim.Blind))
	value := anteProgress*cfg.AnteWeight + blindProgress*cfg.BlindWeight
	if value > 1.0 {
		value = 1.0
	}
	if value < 0 {
		value = 0
	}
	return value
}

func blindOrdinal(b simulator.BlindKind) int {
	switch b {
	case simulator.SmallBlind:
		return 0
	case simulator.BigBlind:
		return 1
	case simulator.BossBlind:
		return 2
	default:
		return 0
	}
}

// backpropagate walks the parent chain from node to the root,
// incrementing visits, accumulating value, and counting a win when
// value is exactly 1.0 (a true terminal win, not partial credit).
func (s *Search) backpropagate(node *Node, value float64) {
	for n := node; n != nil; n = n.Parent {
		n.Visits++
		n.Value += value
		if value >= 1.0 {
			n.Wins++
		}
	}
}
