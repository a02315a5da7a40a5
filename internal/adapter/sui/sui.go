// Package sui implements adapter.ChainAdapter against an RPC-lazy
// backing store: base state for the overlay is
// fetched from a live full node the first time a key is read, then
// cached for the rest of the run.
package sui

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/movefuzz/movefuzz/internal/adapter"
	"github.com/movefuzz/movefuzz/internal/coverage"
	"github.com/movefuzz/movefuzz/internal/fuzzinput"
	"github.com/movefuzz/movefuzz/internal/overlay"
	"github.com/movefuzz/movefuzz/internal/rpcsim"
	"github.com/movefuzz/movefuzz/internal/vmexec"
	"github.com/movefuzz/movefuzz/pkg/types"
)

// Adapter is the Sui ChainAdapter: an RPC-backed OverlayStateView plus a
// MoveExecutor wired with that overlay, and an ObjectInjector tracking
// shared-mutable object history for between-iteration time travel.
type Adapter struct {
	cfg       adapter.Config
	transport *rpcsim.Transport
	store     *rpcsim.RpcBackingStore
	state     *overlay.View
	executor  *vmexec.MoveExecutor
	injector  *ObjectInjector
}

// New constructs a Sui Adapter. vm is the out-of-scope Move VM
// collaborator; rpcURL is the full node the backing store
// lazily reads from.
func New(cfg adapter.Config, rpcURL string, vm vmexec.MoveVM) *Adapter {
	transport := rpcsim.NewTransport(rpcURL, rpcsim.DefaultClientOptions())
	store := rpcsim.NewRpcBackingStore(transport, fetchObjectOrModule)
	state := overlay.New(store)

	return &Adapter{
		cfg:       cfg,
		transport: transport,
		store:     store,
		state:     state,
		executor:  vmexec.NewMoveExecutor(vm),
		injector:  NewObjectInjector(0),
	}
}

func (a *Adapter) Name() string { return "sui" }

// fetchObjectOrModule resolves a single overlay.StateKey miss with one
// sui_getObject call that passes the raw key string as its parameter,
// whatever the key's shape. Module keys ("module:<address>::<name>") are
// sent to sui_getObject the same way; sui_getNormalizedMoveModule is not
// called.
func fetchObjectOrModule(ctx context.Context, t *rpcsim.Transport, key overlay.StateKey) (overlay.Value, bool, error) {
	result, err := t.Call(ctx, "sui_getObject", string(key))
	if err != nil {
		return nil, false, fmt.Errorf("sui_getObject(%s): %w", key, err)
	}
	if !result.Exists() {
		return nil, false, nil
	}
	return overlay.Value(result.Raw), true, nil
}

// SeedInput builds the seed Input from the configured target. Arguments
// come straight from the literal --args CLI values (adapter.ParseArgValues);
// without a normalized Move ABI for the target function there is no
// argument-Kind schema to default unset arguments against, so a function
// fuzzed with no --args seeds as a zero-argument call.
func (a *Adapter) SeedInput(ctx context.Context) (*fuzzinput.Input, error) {
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

// ExtractObjectChanges classifies every non-delete write in result's
// writeset by ownership, reading the ownership tag the VM embedded in the
// write key's adapter-defined encoding ("obj:<ownership>:<id>"). The
// digest is the SHA-256 of the written value.
func (a *Adapter) ExtractObjectChanges(result vmexec.TransactionResult) []adapter.ObjectChange {
	var out []adapter.ObjectChange
	for _, op := range result.WriteSet {
		if op.Delete {
			continue
		}
		id, ownership, ok := parseObjectKey(op.Key)
		if !ok {
			continue
		}
		out = append(out, adapter.ObjectChange{
			ID:        id,
			Ownership: ownership,
			Digest:    sha256.Sum256(op.Value),
			Bytes:     op.Value,
		})
	}
	return out
}

// RecordObjectChanges feeds one execution's shared-mutable object
// changes into the adapter's ObjectInjector.
func (a *Adapter) RecordObjectChanges(changes []adapter.ObjectChange) {
	a.injector.RecordChanges(changes)
}

// InjectHistoricalVersions substitutes a uniform-random historical
// version for each shared-mutable object-ref argument of in.
func (a *Adapter) InjectHistoricalVersions(in *fuzzinput.Input) {
	a.injector.InjectHistoricalVersions(in)
}

// parseObjectKey decodes an overlay.StateKey of shape
// "obj:<ownership>:<64-hex-id>" into its object id and ownership class.
// Keys that don't match this shape (e.g. module keys) are not objects.
func parseObjectKey(key overlay.StateKey) (types.ObjectID, types.ObjectOwnership, bool) {
	s := string(key)
	if len(s) < 5 || s[:4] != "obj:" {
		return types.ObjectID{}, 0, false
	}
	rest := s[4:]

	var ownership types.ObjectOwnership
	var idHex string
	switch {
	case hasPrefix(rest, "owned:"):
		ownership, idHex = types.OwnedObject, rest[len("owned:"):]
	case hasPrefix(rest, "shared_immutable:"):
		ownership, idHex = types.SharedImmutableObject, rest[len("shared_immutable:"):]
	case hasPrefix(rest, "shared_mutable:"):
		ownership, idHex = types.SharedMutableObject, rest[len("shared_mutable:"):]
	default:
		return types.ObjectID{}, 0, false
	}

	id, ok := decodeObjectID(idHex)
	if !ok {
		return types.ObjectID{}, 0, false
	}
	return id, ownership, true
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

func decodeObjectID(hex string) (types.ObjectID, bool) {
	var id types.ObjectID
	if len(hex) != 64 {
		return id, false
	}
	for i := 0; i < 32; i++ {
		hi, ok1 := hexDigit(hex[i*2])
		lo, ok2 := hexDigit(hex[i*2+1])
		if !ok1 || !ok2 {
			return types.ObjectID{}, false
		}
		id[i] = hi<<4 | lo
	}
	return id, true
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}
