// Package fuzzinput defines Input, the unit of data the engine schedules,
// mutates and executes: an ordered argument vector plus a reference to
// the target entry function or script.
package fuzzinput

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/movefuzz/movefuzz/pkg/types"
)

// PayloadKind selects which TransactionPayload variant an Input carries.
type PayloadKind int

const (
	PayloadEntryFunction PayloadKind = iota
	PayloadScript
)

// Input is an ordered sequence of typed arguments plus a reference to the
// target. It is hashable, cloneable, and never shares mutable state with
// a corpus entry after insertion (each Clone deep-copies argument data).
type Input struct {
	Kind PayloadKind

	// Entry-function call fields.
	Target types.EntryFunctionID
	Args   []types.Value

	// Script call fields.
	ScriptBytes []byte
	ScriptArgs  []types.Value

	Sender [32]byte
}

// Clone deep-copies the Input so mutating the clone never affects the
// original stored in a corpus entry.
func (in *Input) Clone() *Input {
	out := &Input{
		Kind:   in.Kind,
		Target: in.Target,
		Sender: in.Sender,
	}
	out.Target.TypeArgs = append([]types.TypeTag(nil), in.Target.TypeArgs...)
	out.Args = cloneValues(in.Args)
	if in.ScriptBytes != nil {
		out.ScriptBytes = append([]byte(nil), in.ScriptBytes...)
	}
	out.ScriptArgs = cloneValues(in.ScriptArgs)
	return out
}

func cloneValues(vs []types.Value) []types.Value {
	if vs == nil {
		return nil
	}
	out := make([]types.Value, len(vs))
	for i, v := range vs {
		out[i] = cloneValue(v)
	}
	return out
}

func cloneValue(v types.Value) types.Value {
	cp := v
	if v.Int != nil {
		w := v.Int.Words()
		cp.Int = types.NewBigUintWords(w[0], w[1], w[2], w[3])
	}
	if v.Vector != nil {
		cp.Vector = cloneValues(v.Vector)
	}
	if v.ObjectRef != nil {
		ref := *v.ObjectRef
		cp.ObjectRef = &ref
	}
	return cp
}

// BaseID returns the base_id used by the CoverageObserver to disambiguate
// edges between functions/scripts.
func (in *Input) BaseID(baseIDFn func(moduleAddress [32]byte, moduleName, functionName string) uint32, scriptBaseIDFn func([]byte) uint32) uint32 {
	if in.Kind == PayloadScript {
		return scriptBaseIDFn(in.ScriptBytes)
	}
	return baseIDFn(in.Target.ModuleAddress, in.Target.ModuleName, in.Target.FunctionName)
}

// ContentHash deterministically serialises the Input and hashes it with
// SHA-256, used for corpus dedup. Two inputs with equal (Kind, Target,
// Args, ScriptBytes, ScriptArgs, Sender) always hash identically.
func (in *Input) ContentHash() string {
	h := sha256.New()
	h.Write([]byte{byte(in.Kind)})
	h.Write(in.Target.ModuleAddress[:])
	h.Write([]byte(in.Target.ModuleName))
	h.Write([]byte(in.Target.FunctionName))
	for _, ta := range in.Target.TypeArgs {
		h.Write([]byte(ta.String()))
	}
	for _, a := range in.Args {
		writeValue(h, a)
	}
	h.Write(in.ScriptBytes)
	for _, a := range in.ScriptArgs {
		writeValue(h, a)
	}
	h.Write(in.Sender[:])
	return hex.EncodeToString(h.Sum(nil))
}

type byteWriter interface {
	Write(p []byte) (int, error)
}

func writeValue(w byteWriter, v types.Value) {
	w.Write([]byte{byte(v.Kind)})
	switch v.Kind {
	case types.KindBool:
		if v.Bool {
			w.Write([]byte{1})
		} else {
			w.Write([]byte{0})
		}
	case types.KindAddress:
		w.Write(v.Address[:])
	case types.KindVector:
		w.Write([]byte{byte(v.ElemKind)})
		var n [4]byte
		binary.LittleEndian.PutUint32(n[:], uint32(len(v.Vector)))
		w.Write(n[:])
		for _, e := range v.Vector {
			writeValue(w, e)
		}
	case types.KindObjectRef:
		if v.ObjectRef != nil {
			w.Write(v.ObjectRef.ID[:])
			var n [8]byte
			binary.LittleEndian.PutUint64(n[:], v.ObjectRef.Version)
			w.Write(n[:])
		}
	default:
		if v.Int != nil {
			w.Write(v.Int.Bytes(v.Kind.BitWidth() / 8))
		}
	}
}
