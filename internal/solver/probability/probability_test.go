package probability

import (
	"testing"

	"github.com/rook/blindsolver/internal/solver/card"
	"github.com/rook/blindsolver/internal/solver/deck"
)

func TestPMFImpossibleCasesReturnZero(t *testing.T) {
	t.Parallel()
	cases := []struct{ K, N, n, k int }{
		{5, 10, 11, 1}, // n > N
		{5, 10, 3, 6},  // k > K... wait K=5 so adjust
		{2, 10, 3, 4},  // k > n
	}
	if got := PMF(5, 10, 11, 1); got != 0 {
		t.Errorf("n>N should be 0, got %v", got)
	}
	if got := PMF(2, 10, 3, 3); got != 0 {
		t.Errorf("k>K should be 0, got %v", got)
	}
	if got := PMF(5, 10, 3, 4); got != 0 {
		t.Errorf("k>n should be 0, got %v", got)
	}
	_ = cases
}

func TestPMFSumsToOne(t *testing.T) {
	t.Parallel()
	K, N, n := 13, 52, 5
	sum := 0.0
	for k := 0; k <= n; k++ {
		sum += PMF(K, N, n, k)
	}
	if diff := sum - 1.0; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("PMF should sum to 1 over all k, got %v", sum)
	}
}

func TestCDFAtLeastMonotonicity(t *testing.T) {
	t.Parallel()
	K, N, n := 13, 52, 5
	var prev float64 = 2 // sentinel above any probability
	for k := 0; k <= n; k++ {
		cur := CDFAtLeast(K, N, n, k)
		if cur < 0 || cur > 1 {
			t.Fatalf("CDFAtLeast(%d) out of [0,1]: %v", k, cur)
		}
		if cur > prev {
			t.Errorf("CDFAtLeast should be non-increasing in k: k=%d got %v after %v", k, cur, prev)
		}
		prev = cur
	}
}

func TestCDFAtLeastZeroConvention(t *testing.T) {
	t.Parallel()
	if got := CDFAtLeast(5, 50, 5, 0); got != 1.0 {
		t.Errorf("k<=0 should yield 1.0, got %v", got)
	}
	if got := CDFAtLeast(5, 50, 5, -3); got != 1.0 {
		t.Errorf("negative k should yield 1.0, got %v", got)
	}
}

func TestFlushCompletionAlreadyComplete(t *testing.T) {
	t.Parallel()
	tr := deck.NewTracker()
	hand := []card.Card{
		card.MustParse("AS"), card.MustParse("2S"), card.MustParse("3S"),
		card.MustParse("4S"), card.MustParse("5S"),
	}
	if got := FlushCompletion(hand, tr, card.Spades, 3); got != 1.0 {
		t.Errorf("already-complete flush should be 1.0, got %v", got)
	}
}

func TestFlushCompletionImpossible(t *testing.T) {
	t.Parallel()
	tr := deck.NewTracker()
	hand := []card.Card{card.MustParse("AS")}
	if got := FlushCompletion(hand, tr, card.Spades, 1); got != 0.0 {
		t.Errorf("needing 4 more with only 1 draw should be 0.0, got %v", got)
	}
}

// TestStraightApproximationFormula pins DESIGN.md open question 3: the
// multi-rank completion formula is a product of per-rank at-least-one
// probabilities, decrementing the population (not the successes) between
// factors.
func TestStraightApproximationFormula(t *testing.T) {
	t.Parallel()
	tr := deck.NewTracker()
	hand := []card.Card{card.MustParse("5S"), card.MustParse("6H"), card.MustParse("9C")}
	draws := 2

	got := StraightCompletion(hand, tr, draws)

	// missing ranks for seq [5,6,7,8,9]: 7 and 8; population starts at 52
	// and decrements by 1 between factors, successes (4 each) unchanged.
	want := CDFAtLeast(4, 52, draws, 1) * CDFAtLeast(4, 51, draws, 1)
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("StraightCompletion = %v, want %v (pinned formula)", got, want)
	}
}

func TestStraightCompletionAlreadyPresent(t *testing.T) {
	t.Parallel()
	tr := deck.NewTracker()
	hand := []card.Card{
		card.MustParse("5S"), card.MustParse("6H"), card.MustParse("7C"),
		card.MustParse("8D"), card.MustParse("9S"),
	}
	if got := StraightCompletion(hand, tr, 3); got != 1.0 {
		t.Errorf("existing straight should yield 1.0, got %v", got)
	}
}

func TestBestImprovementPicksMaximum(t *testing.T) {
	t.Parallel()
	probs := CompletionProbabilities{
		FlushBySuit:  map[card.Suit]float64{card.Spades: 0.1},
		Straight:     0.9,
		ThreeOfAKind: 0.2,
	}
	best := probs.BestImprovement()
	if best.Name != "straight" || best.Probability != 0.9 {
		t.Errorf("expected straight to be the best improvement, got %+v", best)
	}
}
