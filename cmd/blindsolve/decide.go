package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rook/blindsolver/internal/bridge"
	"github.com/rook/blindsolver/internal/solver/registry"
	"github.com/rook/blindsolver/internal/solver/tuning"
)

// DecideCmd reads a single Snapshot as JSON from stdin and writes the
// resulting ActionReply as JSON to stdout, for scripting and ad-hoc
// debugging without standing up the TCP bridge.
type DecideCmd struct {
	Config string `kong:"help='Path to an HCL tuning file (optional)'"`
}

func (c *DecideCmd) Run() error {
	input, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}

	var snap bridge.Snapshot
	if err := json.Unmarshal(input, &snap); err != nil {
		return fmt.Errorf("decoding snapshot: %w", err)
	}

	loaded, err := tuning.Load(c.Config)
	if err != nil {
		return err
	}
	decisionCfg, _, _ := tuning.Resolve(loaded)

	srv := bridge.New(
		bridge.WithRegistry(registry.New()),
		bridge.WithDecisionConfig(decisionCfg),
	)
	reply := srv.Decide(snap)

	out, err := json.MarshalIndent(reply, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
