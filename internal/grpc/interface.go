package grpc

import (
	"context"
	"time"

	"github.com/godilite/victim-dashboards/internal/render"
	"github.com/godilite/victim-dashboards/internal/service"
)

// Cacher defines the interface for cache operations.
type Cacher interface {
	Close() error
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

type DashboardService interface {
	Load(ctx context.Context, name string) (service.Panel, error)
	Services(ctx context.Context) (service.ServiceSummary, error)
	Hover(ctx context.Context, name string, x, y float64) (render.HoverState, error)
	ChartRef(name string) (service.ChartRef, error)
	Image(name string, ref service.ChartRef, format render.Format) ([]byte, error)
	Readout(name string) (service.ReadoutState, error)
}
