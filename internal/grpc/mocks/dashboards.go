package mocks

import (
	"context"
	"errors"

	"github.com/godilite/victim-dashboards/internal/render"
	"github.com/godilite/victim-dashboards/internal/service"
)

// MockDashboardService is a mock implementation of the DashboardService interface
// for testing the handler layer.
type MockDashboardService struct {
	LoadFunc     func(ctx context.Context, name string) (service.Panel, error)
	ServicesFunc func(ctx context.Context) (service.ServiceSummary, error)
	HoverFunc    func(ctx context.Context, name string, x, y float64) (render.HoverState, error)
	ChartRefFunc func(name string) (service.ChartRef, error)
	ImageFunc    func(name string, ref service.ChartRef, format render.Format) ([]byte, error)
	ReadoutFunc  func(name string) (service.ReadoutState, error)
}

func (m *MockDashboardService) Load(ctx context.Context, name string) (service.Panel, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, name)
	}
	return service.Panel{}, errors.New("LoadFunc not implemented")
}

func (m *MockDashboardService) Services(ctx context.Context) (service.ServiceSummary, error) {
	if m.ServicesFunc != nil {
		return m.ServicesFunc(ctx)
	}
	return service.ServiceSummary{}, errors.New("ServicesFunc not implemented")
}

func (m *MockDashboardService) Hover(ctx context.Context, name string, x, y float64) (render.HoverState, error) {
	if m.HoverFunc != nil {
		return m.HoverFunc(ctx, name, x, y)
	}
	return render.HoverState{Index: -1}, errors.New("HoverFunc not implemented")
}

func (m *MockDashboardService) ChartRef(name string) (service.ChartRef, error) {
	if m.ChartRefFunc != nil {
		return m.ChartRefFunc(name)
	}
	return service.ChartRef{}, errors.New("ChartRefFunc not implemented")
}

func (m *MockDashboardService) Image(name string, ref service.ChartRef, format render.Format) ([]byte, error) {
	if m.ImageFunc != nil {
		return m.ImageFunc(name, ref, format)
	}
	return nil, errors.New("ImageFunc not implemented")
}

func (m *MockDashboardService) Readout(name string) (service.ReadoutState, error) {
	if m.ReadoutFunc != nil {
		return m.ReadoutFunc(name)
	}
	return service.ReadoutState{}, errors.New("ReadoutFunc not implemented")
}
