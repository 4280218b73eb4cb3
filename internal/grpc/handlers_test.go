package grpc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/godilite/victim-dashboards/internal/classify"
	"github.com/godilite/victim-dashboards/internal/dataset"
	"github.com/godilite/victim-dashboards/internal/grpc/mocks"
	"github.com/godilite/victim-dashboards/internal/render"
	"github.com/godilite/victim-dashboards/internal/service"
)

func request(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return s
}

// TestNewGRPCHandlers tests the constructor
func TestNewGRPCHandlers(t *testing.T) {
	t.Run("valid parameters", func(t *testing.T) {
		svc := &mocks.MockDashboardService{}
		cache := &mocks.MockCacher{}

		handlers := NewGRPCHandlers(svc, cache, zap.NewNop(), 5*time.Minute)

		assert.Equal(t, svc, handlers.dashboards)
		assert.Equal(t, cache, handlers.cache)
		assert.Equal(t, 5*time.Minute, handlers.cacheTTL)
	})

	t.Run("nil service panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewGRPCHandlers(nil, nil, zap.NewNop(), time.Minute)
		})
	})

	t.Run("non-positive TTL uses default", func(t *testing.T) {
		handlers := NewGRPCHandlers(&mocks.MockDashboardService{}, nil, nil, -time.Minute)
		assert.Equal(t, defaultCacheDuration, handlers.cacheTTL)
		assert.NotNil(t, handlers.logger)
	})
}

func TestLoadDashboard(t *testing.T) {
	ctx := context.Background()

	t.Run("visible panel", func(t *testing.T) {
		svc := &mocks.MockDashboardService{
			LoadFunc: func(ctx context.Context, name string) (service.Panel, error) {
				assert.Equal(t, "age", name)
				return service.Panel{
					Dashboard: "age",
					Visible:   true,
					Year:      2025,
					ChartID:   "c-1",
					Series: service.ComparisonSeries{
						Buckets:  []classify.Bucket{"A", "B"},
						Counts:   []int{3, 1},
						Total:    4,
						Observed: []float64{75, 25},
						Baseline: []float64{60, 40},
					},
				}, nil
			},
		}
		handlers := NewGRPCHandlers(svc, nil, zap.NewNop(), time.Minute)

		resp, err := handlers.LoadDashboard(ctx, request(t, map[string]any{"dashboard": "age"}))

		require.NoError(t, err)
		m := resp.AsMap()
		assert.Equal(t, true, m["visible"])
		assert.Equal(t, float64(2025), m["year"])
		assert.Equal(t, []any{"A", "B"}, m["labels"])
		assert.Equal(t, []any{75.0, 25.0}, m["observed"])
		assert.Equal(t, []any{60.0, 40.0}, m["baseline"])
		assert.Equal(t, "c-1", m["chart_id"])
	})

	t.Run("hidden panel is not an error", func(t *testing.T) {
		svc := &mocks.MockDashboardService{
			LoadFunc: func(ctx context.Context, name string) (service.Panel, error) {
				return service.Panel{Dashboard: name, Reason: service.ReasonEmptySample, Year: 2024}, nil
			},
		}
		handlers := NewGRPCHandlers(svc, nil, zap.NewNop(), time.Minute)

		resp, err := handlers.LoadDashboard(ctx, request(t, map[string]any{"dashboard": "gender"}))

		require.NoError(t, err)
		m := resp.AsMap()
		assert.Equal(t, false, m["visible"])
		assert.Equal(t, "empty_sample", m["reason"])
		assert.NotContains(t, m, "labels")
	})

	t.Run("missing dashboard", func(t *testing.T) {
		handlers := NewGRPCHandlers(&mocks.MockDashboardService{}, nil, zap.NewNop(), time.Minute)

		_, err := handlers.LoadDashboard(ctx, request(t, map[string]any{}))

		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})
}

func TestHandleErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"unknown dashboard", fmt.Errorf("%w: \"x\"", service.ErrUnknownDashboard), codes.NotFound},
		{"dataset not found", fmt.Errorf("%w: victims_{2026..2015}", dataset.ErrNotFound), codes.NotFound},
		{"no chart", render.ErrNoChart, codes.FailedPrecondition},
		{"released chart", render.ErrChartReleased, codes.FailedPrecondition},
		{"stale chart", render.ErrStaleChart, codes.Aborted},
		{"fetch failure", fmt.Errorf("%w: reset", service.ErrFetchFailed), codes.Unavailable},
		{"parse failure", fmt.Errorf("%w: zip", service.ErrParseFailed), codes.DataLoss},
		{"baseline mismatch", service.ErrBaselineMismatch, codes.FailedPrecondition},
		{"other", errors.New("boom"), codes.Internal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mocks.MockDashboardService{
				LoadFunc: func(ctx context.Context, name string) (service.Panel, error) {
					return service.Panel{}, tc.err
				},
			}
			handlers := NewGRPCHandlers(svc, nil, zap.NewNop(), time.Minute)

			_, err := handlers.LoadDashboard(context.Background(), request(t, map[string]any{"dashboard": "age"}))

			assert.Equal(t, tc.code, status.Code(err))
		})
	}

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		svc := &mocks.MockDashboardService{
			LoadFunc: func(ctx context.Context, name string) (service.Panel, error) {
				return service.Panel{}, ctx.Err()
			},
		}
		handlers := NewGRPCHandlers(svc, nil, zap.NewNop(), time.Minute)

		_, err := handlers.LoadDashboard(ctx, request(t, map[string]any{"dashboard": "age"}))

		assert.Equal(t, codes.Canceled, status.Code(err))
	})
}

func TestHover(t *testing.T) {
	ctx := context.Background()

	t.Run("active hover", func(t *testing.T) {
		svc := &mocks.MockDashboardService{
			HoverFunc: func(ctx context.Context, name string, x, y float64) (render.HoverState, error) {
				assert.Equal(t, 120.0, x)
				assert.Equal(t, 80.5, y)
				return render.HoverState{ChartID: "c-1", Index: 1, Label: "Female", Values: []string{"33.33%"}, Color: "#e91e63"}, nil
			},
		}
		handlers := NewGRPCHandlers(svc, nil, zap.NewNop(), time.Minute)

		resp, err := handlers.Hover(ctx, request(t, map[string]any{"dashboard": "gender", "x": 120, "y": 80.5}))

		require.NoError(t, err)
		m := resp.AsMap()
		assert.Equal(t, true, m["active"])
		assert.Equal(t, float64(1), m["index"])
		assert.Equal(t, []any{"33.33%"}, m["values"])
		assert.Equal(t, "#e91e63", m["color"])
	})

	t.Run("pointer outside", func(t *testing.T) {
		svc := &mocks.MockDashboardService{
			HoverFunc: func(ctx context.Context, name string, x, y float64) (render.HoverState, error) {
				return render.HoverState{ChartID: "c-1", Index: -1}, nil
			},
		}
		handlers := NewGRPCHandlers(svc, nil, zap.NewNop(), time.Minute)

		resp, err := handlers.Hover(ctx, request(t, map[string]any{"dashboard": "gender", "x": 0, "y": 0}))

		require.NoError(t, err)
		assert.Equal(t, false, resp.AsMap()["active"])
	})

	t.Run("coordinates are required numbers", func(t *testing.T) {
		handlers := NewGRPCHandlers(&mocks.MockDashboardService{}, nil, zap.NewNop(), time.Minute)

		_, err := handlers.Hover(ctx, request(t, map[string]any{"dashboard": "gender", "x": 1}))
		assert.Equal(t, codes.InvalidArgument, status.Code(err))

		_, err = handlers.Hover(ctx, request(t, map[string]any{"dashboard": "gender", "x": "1", "y": 2}))
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})
}

func TestGetChartImage(t *testing.T) {
	ctx := context.Background()

	newService := func(calls *int32) *mocks.MockDashboardService {
		return &mocks.MockDashboardService{
			ChartRefFunc: func(name string) (service.ChartRef, error) {
				return service.ChartRef{ChartID: "c-1", Highlight: -1}, nil
			},
			ImageFunc: func(name string, ref service.ChartRef, format render.Format) ([]byte, error) {
				atomic.AddInt32(calls, 1)
				return []byte("img-" + string(format)), nil
			},
		}
	}

	t.Run("no cache renders every time", func(t *testing.T) {
		var calls int32
		handlers := NewGRPCHandlers(newService(&calls), nil, zap.NewNop(), time.Minute)

		for i := 0; i < 2; i++ {
			resp, err := handlers.GetChartImage(ctx, request(t, map[string]any{"dashboard": "age", "format": "svg"}))
			require.NoError(t, err)
			assert.Equal(t, []byte("img-svg"), resp.GetValue())
		}
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("cache serves the same chart state", func(t *testing.T) {
		var calls int32
		cache := &mocks.MockCacher{}
		handlers := NewGRPCHandlers(newService(&calls), cache, zap.NewNop(), time.Minute)

		resp, err := handlers.GetChartImage(ctx, request(t, map[string]any{"dashboard": "age"}))
		require.NoError(t, err)
		assert.Equal(t, []byte("img-png"), resp.GetValue())

		require.Eventually(t, func() bool { return cache.Sets() == 1 }, time.Second, 10*time.Millisecond)

		resp, err = handlers.GetChartImage(ctx, request(t, map[string]any{"dashboard": "age"}))
		require.NoError(t, err)
		assert.Equal(t, []byte("img-png"), resp.GetValue())
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("unknown format", func(t *testing.T) {
		handlers := NewGRPCHandlers(&mocks.MockDashboardService{}, nil, zap.NewNop(), time.Minute)

		_, err := handlers.GetChartImage(ctx, request(t, map[string]any{"dashboard": "age", "format": "gif"}))

		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("no chart mounted", func(t *testing.T) {
		svc := &mocks.MockDashboardService{
			ChartRefFunc: func(name string) (service.ChartRef, error) {
				return service.ChartRef{}, render.ErrNoChart
			},
		}
		handlers := NewGRPCHandlers(svc, nil, zap.NewNop(), time.Minute)

		_, err := handlers.GetChartImage(ctx, request(t, map[string]any{"dashboard": "age"}))

		assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	})
}

func TestGetChartImage_StateMovesDuringRender(t *testing.T) {
	ctx := context.Background()
	r := render.NewRenderer(render.WithLogger(zap.NewNop()))
	binding := render.Binding{
		Layout: render.LayoutBar,
		Labels: []string{"20–29", "30–39"},
		Series: []render.Series{{Name: "Victims", Values: []float64{75, 25}}},
	}
	c, err := r.Draw("m", binding, render.Targets{})
	require.NoError(t, err)
	x, y := c.Center(0)

	var moveOnce sync.Once
	svc := &mocks.MockDashboardService{
		ChartRefFunc: func(name string) (service.ChartRef, error) {
			cur, err := r.Current("m")
			if err != nil {
				return service.ChartRef{}, err
			}
			return service.ChartRef{ChartID: cur.ID(), Highlight: r.Highlight("m")}, nil
		},
		ImageFunc: func(name string, ref service.ChartRef, format render.Format) ([]byte, error) {
			// the pointer leaves between reading the state and drawing it
			moveOnce.Do(func() {
				_, err := r.Hover(ctx, "m", 1, 1)
				require.NoError(t, err)
			})
			return r.ImageFor("m", ref.ChartID, ref.Highlight, format)
		},
	}
	cache := &mocks.MockCacher{}
	handlers := NewGRPCHandlers(svc, cache, zap.NewNop(), time.Minute)

	_, err = r.Hover(ctx, "m", x, y)
	require.NoError(t, err)

	resp, err := handlers.GetChartImage(ctx, request(t, map[string]any{"dashboard": "age"}))
	require.NoError(t, err)
	plain, err := r.Image("m", render.FormatPNG)
	require.NoError(t, err)
	assert.Equal(t, plain, resp.GetValue())
	require.Eventually(t, func() bool { return cache.Sets() == 1 }, time.Second, 10*time.Millisecond)

	_, err = r.Hover(ctx, "m", x, y)
	require.NoError(t, err)

	resp, err = handlers.GetChartImage(ctx, request(t, map[string]any{"dashboard": "age"}))
	require.NoError(t, err)
	highlighted, err := r.Image("m", render.FormatPNG)
	require.NoError(t, err)
	assert.Equal(t, highlighted, resp.GetValue())
	assert.NotEqual(t, plain, highlighted)
}

func TestGetChartImage_KeepsChanging(t *testing.T) {
	var calls int32
	svc := &mocks.MockDashboardService{
		ChartRefFunc: func(name string) (service.ChartRef, error) {
			return service.ChartRef{ChartID: "c-1", Highlight: int(atomic.LoadInt32(&calls))}, nil
		},
		ImageFunc: func(name string, ref service.ChartRef, format render.Format) ([]byte, error) {
			atomic.AddInt32(&calls, 1)
			return nil, render.ErrStaleChart
		},
	}
	cache := &mocks.MockCacher{}
	handlers := NewGRPCHandlers(svc, cache, zap.NewNop(), time.Minute)

	_, err := handlers.GetChartImage(context.Background(), request(t, map[string]any{"dashboard": "age"}))

	assert.Equal(t, codes.Aborted, status.Code(err))
	assert.Equal(t, int32(imageAttempts), atomic.LoadInt32(&calls))
	assert.Equal(t, 0, cache.Sets())
}

func TestGetReadout(t *testing.T) {
	svc := &mocks.MockDashboardService{
		ReadoutFunc: func(name string) (service.ReadoutState, error) {
			return service.ReadoutState{
				Dashboard: name,
				Visible:   true,
				Targets: map[string]render.TargetState{
					"hoverVAgeLabel": {Text: "30–39", Opacity: 1, Visible: true},
				},
			}, nil
		},
	}
	handlers := NewGRPCHandlers(svc, nil, zap.NewNop(), time.Minute)

	resp, err := handlers.GetReadout(context.Background(), request(t, map[string]any{"dashboard": "age"}))

	require.NoError(t, err)
	m := resp.AsMap()
	assert.Equal(t, true, m["visible"])
	targets := m["targets"].(map[string]any)
	label := targets["hoverVAgeLabel"].(map[string]any)
	assert.Equal(t, "30–39", label["text"])
	assert.Equal(t, 1.0, label["opacity"])
}

func TestGetServiceSummary(t *testing.T) {
	svc := &mocks.MockDashboardService{
		ServicesFunc: func(ctx context.Context) (service.ServiceSummary, error) {
			return service.ServiceSummary{
				Visible:        true,
				Year:           2025,
				Cases:          4,
				ServiceRecords: 5,
				Categories: []service.ServiceCategory{
					{Code: "A", Title: "Information and Referral", Cases: 2, Percent: 50},
				},
			}, nil
		},
	}
	handlers := NewGRPCHandlers(svc, nil, zap.NewNop(), time.Minute)

	resp, err := handlers.GetServiceSummary(context.Background(), &emptypb.Empty{})

	require.NoError(t, err)
	m := resp.AsMap()
	assert.Equal(t, float64(4), m["cases"])
	assert.Equal(t, float64(5), m["service_records"])
	cats := m["categories"].([]any)
	require.Len(t, cats, 1)
	assert.Equal(t, "50.0%", cats[0].(map[string]any)["percent"])
}
