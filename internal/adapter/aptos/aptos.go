// Package aptos implements adapter.ChainAdapter against a purely
// in-process overlay view with an empty base: the Aptos path stays
// in-process rather than collapsing to RPC simulation, with the same
// adapter shape as the Sui adapter.
package aptos

import (
	"context"
	"fmt"

	"github.com/movefuzz/movefuzz/internal/adapter"
	"github.com/movefuzz/movefuzz/internal/coverage"
	"github.com/movefuzz/movefuzz/internal/fuzzinput"
	"github.com/movefuzz/movefuzz/internal/overlay"
	"github.com/movefuzz/movefuzz/internal/vmexec"
	"github.com/movefuzz/movefuzz/pkg/types"
)

// Adapter is the Aptos ChainAdapter: an in-process OverlayStateView (no
// remote backing store) plus a MoveExecutor.
type Adapter struct {
	cfg         adapter.Config
	moduleBytes []byte
	state       *overlay.View
	executor    *vmexec.MoveExecutor
}

// New constructs an Aptos Adapter. vm is the out-of-scope Move VM
// collaborator; moduleBytes, when non-nil, is deployed into the overlay
// before the first execution (the --module-path CLI flag).
func New(cfg adapter.Config, moduleBytes []byte, vm vmexec.MoveVM) *Adapter {
	state := overlay.New(nil)
	return &Adapter{
		cfg:         cfg,
		moduleBytes: moduleBytes,
		state:       state,
		executor:    vmexec.NewMoveExecutor(vm),
	}
}

func (a *Adapter) Name() string { return "aptos" }

// SeedInput deploys the configured module (if any) and builds the seed
// Input from the literal --args CLI values (adapter.ParseArgValues); a
// function fuzzed with no --args seeds as a zero-argument call, since
// there is no ABI-derived argument-Kind schema to default against.
func (a *Adapter) SeedInput(ctx context.Context) (*fuzzinput.Input, error) {
	if a.moduleBytes != nil {
		moduleID := a.cfg.ModuleName
		key := overlay.StateKey("module:" + moduleID)
		a.state.DeployModule(moduleID, key, a.moduleBytes)
	}

	args, err := adapter.ParseArgValues(a.cfg.Args)
	if err != nil {
		return nil, fmt.Errorf("parse seed args: %w", err)
	}

	in := &fuzzinput.Input{
		Kind: fuzzinput.PayloadEntryFunction,
		Target: types.EntryFunctionID{
			ModuleAddress: a.cfg.ModuleAddress,
			ModuleName:    a.cfg.ModuleName,
			FunctionName:  a.cfg.FunctionName,
			TypeArgs:      a.cfg.TypeArgs,
		},
		Args:   args,
		Sender: a.cfg.Sender,
	}
	return in, nil
}

// Execute runs in against the adapter's shared OverlayStateView.
func (a *Adapter) Execute(ctx context.Context, in *fuzzinput.Input) (vmexec.TransactionResult, vmexec.Observation, error) {
	baseID := a.BaseID(in)
	return a.executor.Execute(ctx, a.state, in, baseID)
}

// BaseID computes the coverage base_id for in.
func (a *Adapter) BaseID(in *fuzzinput.Input) uint32 {
	return in.BaseID(coverage.BaseIDForFunction, coverage.BaseIDForScript)
}

// ExtractObjectChanges always returns nil: Aptos resources aren't
// modelled as cacheable shared objects the way Sui's are, so there is
// nothing for the ObjectCache to track on this adapter. Object-cache
// injection is Sui-only.
func (a *Adapter) ExtractObjectChanges(result vmexec.TransactionResult) []adapter.ObjectChange {
	return nil
}
