package syncgroup

import (
	"context"

	"golang.org/x/sync/errgroup"
)

type (
	// Group runs goroutines and waits for all of them.
	// The derived context is canceled as soon as one of them fails.
	Group interface {
		Go(fn func() error)
		Wait() error
	}

	group struct {
		*errgroup.Group
	}
)

func New(ctx context.Context) (Group, context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	return &group{Group: g}, ctx
}
