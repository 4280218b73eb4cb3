package mocks

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/godilite/victim-dashboards/internal/classify"
	"github.com/godilite/victim-dashboards/internal/dataset"
	"github.com/godilite/victim-dashboards/internal/render"
)

// MockDatasetResolver is a mock implementation of the DatasetResolver interface.
type MockDatasetResolver struct {
	ResolveFunc func(ctx context.Context) (dataset.Resolution, error)
	OpenFunc    func(ctx context.Context, res dataset.Resolution) (io.ReadCloser, error)
}

func (m *MockDatasetResolver) Resolve(ctx context.Context) (dataset.Resolution, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx)
	}
	return dataset.Resolution{}, errors.New("ResolveFunc not implemented")
}

func (m *MockDatasetResolver) Open(ctx context.Context, res dataset.Resolution) (io.ReadCloser, error) {
	if m.OpenFunc != nil {
		return m.OpenFunc(ctx, res)
	}
	return nil, errors.New("OpenFunc not implemented")
}

// MockRowParser is a mock implementation of the RowParser interface.
type MockRowParser struct {
	ParseFunc func(r io.Reader) ([]classify.Record, error)
}

func (m *MockRowParser) Parse(r io.Reader) ([]classify.Record, error) {
	if m.ParseFunc != nil {
		return m.ParseFunc(r)
	}
	return nil, errors.New("ParseFunc not implemented")
}

// MockChartRenderer is a mock implementation of the ChartRenderer interface.
// Chart instances can only be built by a real render.Renderer, so DrawFunc
// usually delegates to one.
type MockChartRenderer struct {
	DrawFunc    func(mount string, b render.Binding, targets render.Targets) (*render.Chart, error)
	ReleaseFunc func(mount string)
}

func (m *MockChartRenderer) Draw(mount string, b render.Binding, targets render.Targets) (*render.Chart, error) {
	if m.DrawFunc != nil {
		return m.DrawFunc(mount, b, targets)
	}
	return nil, errors.New("DrawFunc not implemented")
}

func (m *MockChartRenderer) Release(mount string) {
	if m.ReleaseFunc != nil {
		m.ReleaseFunc(mount)
	}
}

// MockPanelDisplay records panel visibility.
type MockPanelDisplay struct {
	mu      sync.Mutex
	visible map[string]bool
}

func (m *MockPanelDisplay) SetVisible(target string, visible bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.visible == nil {
		m.visible = make(map[string]bool)
	}
	m.visible[target] = visible
}

// Visible reports the last visibility set for target and whether it was ever set.
func (m *MockPanelDisplay) Visible(target string) (bool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visible[target]
	return v, ok
}
