package service

import "context"

// Notifier is the outbound boundary to the messaging transport. Delivery is
// fire-and-forget: implementations log failures but services never retry or
// block on confirmation.
type Notifier interface {
	Notify(ctx context.Context, userID int64, text string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, userID int64, text string)

func (f NotifierFunc) Notify(ctx context.Context, userID int64, text string) {
	f(ctx, userID, text)
}
