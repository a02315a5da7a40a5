package vmexec

import (
	"context"
	"fmt"

	"github.com/movefuzz/movefuzz/internal/overlay"
	"github.com/movefuzz/movefuzz/internal/vmhook"
)

// UnimplementedVM is a placeholder MoveVM that always reports
// OtherError. The real Move VM binding — deserialiser, gas meter,
// genesis bootstrapping, chain-specific transaction types — is an
// external collaborator consumed as an opaque library, not implemented
// by this module; wiring a concrete binding here is a deployment-time
// decision for whoever links movefuzz against a specific Move runtime.
type UnimplementedVM struct{}

// NewUnimplementedVM constructs the placeholder collaborator.
func NewUnimplementedVM() *UnimplementedVM { return &UnimplementedVM{} }

func (UnimplementedVM) Execute(_ context.Context, _ *overlay.View, envelope TransactionEnvelope, _ vmhook.Tracer) (VMExecutionResult, error) {
	return VMExecutionResult{
		Outcome: Outcome{
			Kind:   OutcomeOtherError,
			Detail: fmt.Sprintf("no Move VM binding linked; cannot execute %s", envelope.Payload.Target.String()),
		},
	}, nil
}
