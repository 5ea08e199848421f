package controller

import "context"

// Confirmer asks the acting user to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, prompt string) bool

// Confirm calls f
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// Confirmed approves unconditionally
var Confirmed Confirmer = ConfirmFunc(func(context.Context, string) bool { return true })

// Declined refuses unconditionally
var Declined Confirmer = ConfirmFunc(func(context.Context, string) bool { return false })
