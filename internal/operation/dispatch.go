package operation

import (
	"context"
	"errors"
	"fmt"

	"github.com/ashureev/repochat/internal/domain"
)

// ErrUnknownOperation is returned when an intent names no catalog operation.
var ErrUnknownOperation = errors.New("unknown operation")

// Call is an intent that has been matched to an operation and whose
// arguments have been bound.
type Call struct {
	Operation Operation
	Args      Args
}

// Prepare matches an intent against the catalog and binds its arguments.
func Prepare(in domain.Intent) (*Call, error) {
	op, ok := Lookup(in.Operation)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, in.Operation)
	}
	args, err := Bind(op.Descriptor, in.Args)
	if err != nil {
		return nil, err
	}
	return &Call{Operation: op, Args: args}, nil
}

// Run invokes the prepared call against p.
func (c *Call) Run(ctx context.Context, p Platform) (domain.Result, error) {
	return c.Operation.Invoke(ctx, p, c.Args)
}

// Dispatch prepares and runs an intent in one step.
func Dispatch(ctx context.Context, p Platform, in domain.Intent) (domain.Result, error) {
	call, err := Prepare(in)
	if err != nil {
		return domain.Result{}, err
	}
	return call.Run(ctx, p)
}
