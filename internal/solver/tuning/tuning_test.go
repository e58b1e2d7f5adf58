package tuning

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rook/blindsolver/internal/solver/decision"
	"github.com/rook/blindsolver/internal/solver/heuristic"
	"github.com/rook/blindsolver/internal/solver/mcts"
)

func TestQuartzDeadlineExpiresAfterBudget(t *testing.T) {
	mock := quartz.NewMock(t)
	d := NewDeadline(mock, 5*time.Second)

	assert.False(t, d.Expired())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mock.Advance(6 * time.Second).MustWait(ctx)

	assert.True(t, d.Expired())
}

func TestLoadMissingFileReturnsZeroConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.hcl"))
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)
}

func TestResolveOnZeroConfigMatchesDefaults(t *testing.T) {
	d, h, m := Resolve(Config{})
	assert.Equal(t, decision.DefaultConfig(), d)
	assert.Equal(t, heuristic.DefaultConfig(), h)
	wantMCTS := mcts.DefaultConfig()
	wantMCTS.Heuristic = heuristic.DefaultConfig()
	assert.Equal(t, wantMCTS, m)
}

func TestLoadAndResolveOverlaysOnlySetFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.hcl")
	contents := `
decision {
  base_safety_margin = 12.5
  prefer_fewer_cards = 1.5
}

heuristic {
  lethal_bonus = 999
}

mcts {
  max_iterations = 5000
  exploration_constant = 1.0
  workers = 4
}
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	d, h, m := Resolve(cfg)

	want := decision.DefaultConfig()
	want.BaseSafetyMargin = 12.5
	want.PreferFewerCards = 1.5
	assert.Equal(t, want, d)

	wantH := heuristic.DefaultConfig()
	wantH.LethalBonus = 999
	assert.Equal(t, wantH, h)

	wantM := mcts.DefaultConfig()
	wantM.MaxIterations = 5000
	wantM.ExplorationConstant = 1.0
	wantM.Workers = 4
	wantM.Heuristic = wantH
	assert.Equal(t, wantM, m)
}

func TestLoadMalformedHCLReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.hcl")
	require.NoError(t, os.WriteFile(path, []byte("decision {"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
