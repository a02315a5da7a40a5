// Package adapter defines the ChainAdapter contract the engine drives:
// CLI-parameter parsing, argument seeding, and the post-execution object-
// change/violation extraction that feeds the object cache and the
// feedback/objective decisions. The Sui simulator and the Aptos
// in-process path share this one adapter shape.
package adapter

import (
	"context"

	"github.com/movefuzz/movefuzz/internal/fuzzinput"
	"github.com/movefuzz/movefuzz/internal/vmexec"
	"github.com/movefuzz/movefuzz/pkg/types"
)

// ObjectChange is one mutated object an execution reported, classified
// by ownership so the engine can decide whether it belongs in the
// ObjectCache (only shared-mutable objects do).
type ObjectChange struct {
	ID        types.ObjectID
	Ownership types.ObjectOwnership
	Digest    [32]byte
	Bytes     []byte
}

// ChainAdapter is the contract both the Sui and Aptos adapters satisfy
// identically,.
type ChainAdapter interface {
	// Name identifies the adapter for CLI/report output ("sui", "aptos").
	Name() string

	// SeedInput builds the initial Input for the configured target,
	// populated from the literal --args CLI values.
	SeedInput(ctx context.Context) (*fuzzinput.Input, error)

	// Execute runs one (possibly mutated) Input to completion.
	Execute(ctx context.Context, in *fuzzinput.Input) (vmexec.TransactionResult, vmexec.Observation, error)

	// ExtractObjectChanges reports every object this execution mutated,
	// derived from the just-returned TransactionResult's writeset.
	ExtractObjectChanges(result vmexec.TransactionResult) []ObjectChange

	// BaseID computes the coverage base_id for an Input.
	BaseID(in *fuzzinput.Input) uint32
}

// ObjectInjectingAdapter is the optional capability a ChainAdapter can
// implement on top of the base contract: between-iteration historical-
// object-version injection, for chains (Sui) that model shared-mutable
// objects the ObjectCache can time-travel across. The engine type-
// asserts for this after construction; an adapter that doesn't
// implement it (Aptos) simply runs without object-cache injection.
type ObjectInjectingAdapter interface {
	ChainAdapter

	// RecordObjectChanges feeds one execution's object changes into the
	// adapter's object cache.
	RecordObjectChanges(changes []ObjectChange)

	// InjectHistoricalVersions substitutes a uniform-random historical
	// version for each shared-mutable object-ref argument of in,
	// mutating in in place.
	InjectHistoricalVersions(in *fuzzinput.Input)
}

// Config is the subset of target configuration every adapter needs,
// shared between the Sui and Aptos CLI subcommands.
type Config struct {
	ModuleAddress [32]byte
	ModuleName    string
	FunctionName  string
	TypeArgs      []types.TypeTag
	Sender        [32]byte
	Args          []string // literal CLI arguments, adapter-parsed
}
