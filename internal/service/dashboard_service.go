package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"booknest/internal/event"
	"booknest/internal/model"
)

type dashboardAPI interface {
	CountBooks(ctx context.Context, token string) (int, error)
	CountDiscounts(ctx context.Context, token string) (int, error)
	CountOrders(ctx context.Context, token string) (int, error)
}

var dashboardMessages = messages{
	fallback: "Failed to load dashboard statistics.",
}

type DashboardService struct {
	api dashboardAPI
	bus event.Bus
}

func NewDashboardService(api dashboardAPI, bus event.Bus) *DashboardService {
	if bus == nil {
		bus = event.Nop{}
	}
	return &DashboardService{api: api, bus: bus}
}

// Stats reads the three admin counters concurrently. The first failure
// cancels the others and fails the whole view.
func (s *DashboardService) Stats(ctx context.Context, scope SessionScope) (model.DashboardStats, error) {
	sess, err := scope.Load(ctx)
	if err != nil {
		return model.DashboardStats{}, fmt.Errorf("load session: %w", err)
	}
	if err := RequireRole(sess, model.RoleAdmin); err != nil {
		return model.DashboardStats{}, err
	}

	var stats model.DashboardStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalBooks, err = s.api.CountBooks(gctx, sess.AuthToken)
		return err
	})
	g.Go(func() (err error) {
		stats.BooksOnSale, err = s.api.CountDiscounts(gctx, sess.AuthToken)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalOrders, err = s.api.CountOrders(gctx, sess.AuthToken)
		return err
	})

	if err := g.Wait(); err != nil {
		expireOnUnauthorized(ctx, scope, s.bus, err)
		return model.DashboardStats{}, classify(err, dashboardMessages)
	}

	return stats, nil
}
