package vmexec

import (
	"context"
	"testing"

	"github.com/movefuzz/movefuzz/internal/fuzzinput"
	"github.com/movefuzz/movefuzz/internal/overlay"
	"github.com/movefuzz/movefuzz/internal/vmhook"
	"github.com/movefuzz/movefuzz/pkg/types"
)

// fakeVM is a minimal MoveVM collaborator for unit tests: it plays back a
// fixed VMExecutionResult and optionally drives the tracer with a single
// SHL event first.
type fakeVM struct {
	result      VMExecutionResult
	driveShift  bool
	shiftValue  uint64
	shiftAmount uint64
}

func (f *fakeVM) Execute(_ context.Context, _ *overlay.View, _ TransactionEnvelope, tracer vmhook.Tracer) (VMExecutionResult, error) {
	if f.driveShift {
		tracer.OpenFrame("0x1::counter", "bump")
		tracer.Instruction(1, vmhook.OpShl)
		tracer.Effect(vmhook.PoppedValue{Kind: vmhook.OperandInteger, Width: 64, Bits: types.NewBigUint(f.shiftValue)})
		tracer.Effect(vmhook.PoppedValue{Kind: vmhook.OperandInteger, Width: 64, Bits: types.NewBigUint(f.shiftAmount)})
		tracer.CloseFrame()
	}
	return f.result, nil
}

func sampleInput() *fuzzinput.Input {
	return &fuzzinput.Input{
		Kind: fuzzinput.PayloadEntryFunction,
		Target: types.EntryFunctionID{
			ModuleName:   "counter",
			FunctionName: "bump",
		},
	}
}

func TestExecuteOkAppliesWriteSet(t *testing.T) {
	vm := &fakeVM{result: VMExecutionResult{
		Outcome:  Outcome{Kind: OutcomeOk},
		WriteSet: overlay.WriteSet{{Key: "0x1::counter::Value", Value: []byte{1}}},
		PCTrace:  []uint32{1, 2, 3},
	}}
	ex := NewMoveExecutor(vm)
	state := overlay.New(nil)

	result, obs, err := ex.Execute(context.Background(), state, sampleInput(), 7)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if obs.ExitKind != ExitOk {
		t.Fatalf("ExitKind = %v; want ExitOk", obs.ExitKind)
	}
	if state.Size() != 1 {
		t.Fatalf("state.Size() = %d; want 1 after applying writeset", state.Size())
	}
	if len(result.WriteSet) != 1 {
		t.Fatalf("result.WriteSet len = %d; want 1", len(result.WriteSet))
	}
}

func TestExecuteCrashDoesNotApplyWriteSet(t *testing.T) {
	vm := &fakeVM{result: VMExecutionResult{
		Outcome:  Outcome{Kind: OutcomePanic, Detail: "native panic"},
		WriteSet: overlay.WriteSet{{Key: "0x1::counter::Value", Value: []byte{1}}},
	}}
	ex := NewMoveExecutor(vm)
	state := overlay.New(nil)

	_, obs, err := ex.Execute(context.Background(), state, sampleInput(), 7)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if obs.ExitKind != ExitCrash {
		t.Fatalf("ExitKind = %v; want ExitCrash", obs.ExitKind)
	}
	if state.Size() != 0 {
		t.Fatalf("state.Size() = %d; want 0 since a crashing execution's writeset is discarded", state.Size())
	}
}

func TestExecuteRecordsAbortCode(t *testing.T) {
	code := uint64(101)
	vm := &fakeVM{result: VMExecutionResult{
		Outcome:   Outcome{Kind: OutcomeMoveAbort, AbortCode: code},
		AbortCode: &code,
	}}
	ex := NewMoveExecutor(vm)
	state := overlay.New(nil)

	_, obs, err := ex.Execute(context.Background(), state, sampleInput(), 1)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if obs.LastAbort == nil || *obs.LastAbort != code {
		t.Fatalf("LastAbort = %v; want %d", obs.LastAbort, code)
	}
}

func TestExecuteSurfacesShiftViolations(t *testing.T) {
	vm := &fakeVM{
		result:      VMExecutionResult{Outcome: Outcome{Kind: OutcomeOk}},
		driveShift:  true,
		shiftValue:  1,
		shiftAmount: 64,
	}
	ex := NewMoveExecutor(vm)
	state := overlay.New(nil)

	_, obs, err := ex.Execute(context.Background(), state, sampleInput(), 1)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(obs.ShiftEvents) != 1 {
		t.Fatalf("ShiftEvents = %v; want exactly one lossy shift", obs.ShiftEvents)
	}
}

func TestExecuteResetsObserversBetweenCalls(t *testing.T) {
	vm := &fakeVM{
		result:      VMExecutionResult{Outcome: Outcome{Kind: OutcomeOk}},
		driveShift:  true,
		shiftValue:  1,
		shiftAmount: 64,
	}
	ex := NewMoveExecutor(vm)
	state := overlay.New(nil)

	if _, obs, err := ex.Execute(context.Background(), state, sampleInput(), 1); err != nil || len(obs.ShiftEvents) != 1 {
		t.Fatalf("first execute: obs=%v err=%v", obs, err)
	}

	vm.driveShift = false
	_, obs, err := ex.Execute(context.Background(), state, sampleInput(), 1)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(obs.ShiftEvents) != 0 {
		t.Fatalf("ShiftEvents = %v; want none once the tracer has been reset for a new execution", obs.ShiftEvents)
	}
}
