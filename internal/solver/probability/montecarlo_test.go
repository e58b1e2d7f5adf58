package probability

import (
	"math/rand"
	"runtime"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/rook/blindsolver/internal/solver/card"
	"github.com/rook/blindsolver/internal/solver/deck"
)

// monteCarloWorkerResult is a single worker's partial tally, merged by the
// caller once every worker finishes; the shape mirrors
// internal/evaluator/equity.go's workerResult in the teacher repo.
type monteCarloWorkerResult struct {
	trials int
	hits   int
}

// monteCarloFlushHitRate estimates, by repeated random sampling of draws
// cards from tr's remaining pile, the fraction of samples that complete a
// flush in suit s given cardsInHand already held. Uses the same
// errgroup-worker-pool pattern as internal/evaluator/equity.go's Monte
// Carlo equity estimator, generalized from "simulate opponent hands" to
// "simulate draw-pile outcomes".
func monteCarloFlushHitRate(t *testing.T, tr *deck.Tracker, s card.Suit, cardsInHand, draws, samplesPerWorker int) float64 {
	t.Helper()
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	if workers < 1 {
		workers = 1
	}

	remaining := tr.SuitDistribution()
	total := tr.TotalRemaining()
	suitRemaining := remaining[s]
	needed := 5 - cardsInHand
	if needed <= 0 {
		return 1.0
	}

	results := make([]monteCarloWorkerResult, workers)
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			rng := rand.New(rand.NewSource(int64(w) + 1))
			var res monteCarloWorkerResult
			for i := 0; i < samplesPerWorker; i++ {
				hits := sampleHypergeometric(rng, total, suitRemaining, draws)
				res.trials++
				if hits >= needed {
					res.hits++
				}
			}
			results[w] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("monte carlo workers: %v", err)
	}

	var trials, hits int
	for _, r := range results {
		trials += r.trials
		hits += r.hits
	}
	return float64(hits) / float64(trials)
}

// sampleHypergeometric draws `draws` cards without replacement from a
// population of `total` containing `successes` successes, returning the
// number of successes drawn. A direct simulation of the same process
// CDFAtLeast computes in closed form.
func sampleHypergeometric(rng *rand.Rand, total, successes, draws int) int {
	population := make([]bool, total)
	for i := 0; i < successes; i++ {
		population[i] = true
	}
	rng.Shuffle(total, func(i, j int) { population[i], population[j] = population[j], population[i] })

	hits := 0
	for i := 0; i < draws && i < total; i++ {
		if population[i] {
			hits++
		}
	}
	return hits
}

// TestFlushCompletionMatchesMonteCarlo cross-checks FlushCompletion's
// closed-form hypergeometric estimate against a Monte Carlo simulation of
// the same draw process, within a tolerance loose enough to absorb
// sampling noise but tight enough to catch a formula regression.
func TestFlushCompletionMatchesMonteCarlo(t *testing.T) {
	tr := deck.NewTracker()
	hand := []card.Card{
		card.MustParse("AS"), card.MustParse("2S"), card.MustParse("9H"),
	}
	draws := 3

	closedForm := FlushCompletion(hand, tr, card.Spades, draws)
	simulated := monteCarloFlushHitRate(t, tr, card.Spades, 2, draws, 20000)

	if diff := closedForm - simulated; diff > 0.02 || diff < -0.02 {
		t.Errorf("FlushCompletion = %v, Monte Carlo estimate = %v (diff %v exceeds tolerance)", closedForm, simulated, diff)
	}
}
