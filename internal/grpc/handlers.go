package grpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	pb "github.com/godilite/victim-dashboards/api/v1"
	"github.com/godilite/victim-dashboards/internal/render"
	"github.com/godilite/victim-dashboards/internal/service"
)

const (
	defaultCacheDuration = 10 * time.Minute
	defaultGRPCTimeout   = 10 * time.Second
	// Loads probe up to a dozen years and download a workbook.
	loadGRPCTimeout = 45 * time.Second
	// Pointer events may move a chart on between reading its state and drawing it.
	imageAttempts = 3
)

type CacheKeyType string

const (
	cacheKeyChartImage CacheKeyType = "grpc:chart_image"
)

type GRPCHandlers struct {
	pb.UnimplementedDashboardServiceServer
	dashboards DashboardService
	cache      Cacher
	logger     *zap.Logger
	sfGroup    singleflight.Group
	cacheTTL   time.Duration
}

// NewGRPCHandlers initializes the gRPC handlers. A nil cache disables image caching.
func NewGRPCHandlers(dashboards DashboardService, cache Cacher, logger *zap.Logger, ttl time.Duration) *GRPCHandlers {
	if dashboards == nil {
		panic("nil DashboardService provided to NewGRPCHandlers")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = defaultCacheDuration
	}
	return &GRPCHandlers{
		dashboards: dashboards,
		cache:      cache,
		logger:     logger.Named("grpc-handler"),
		cacheTTL:   ttl,
	}
}

func dashboardName(req *structpb.Struct) (string, error) {
	name := req.GetFields()["dashboard"].GetStringValue()
	if name == "" {
		return "", status.Error(codes.InvalidArgument, "dashboard is required")
	}
	return name, nil
}

func numberField(req *structpb.Struct, key string) (float64, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	if _, isNumber := v.GetKind().(*structpb.Value_NumberValue); !isNumber {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a number", key)
	}
	return v.GetNumberValue(), nil
}

func imageKey(prefix CacheKeyType, name string, ref service.ChartRef, format render.Format) string {
	return fmt.Sprintf("%s:%s:%s:%d:%s", prefix, name, ref.ChartID, ref.Highlight, format)
}

func (s *GRPCHandlers) handleError(ctx context.Context, op string, err error) error {
	switch ctx.Err() {
	case context.Canceled:
		s.logger.Warn("request canceled", zap.String("op", op))
		return status.Error(codes.Canceled, "request canceled")
	case context.DeadlineExceeded:
		s.logger.Warn("request timeout", zap.String("op", op))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}

	switch {
	case errors.Is(err, service.ErrUnknownDashboard):
		s.logger.Info("unknown dashboard", zap.String("op", op), zap.Error(err))
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrResourceNotFound):
		s.logger.Info("no dataset found", zap.String("op", op))
		return status.Error(codes.NotFound, "no dataset found")
	case errors.Is(err, render.ErrNoChart), errors.Is(err, render.ErrChartReleased):
		s.logger.Info("no chart available", zap.String("op", op), zap.Error(err))
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, render.ErrStaleChart):
		s.logger.Info("chart kept changing while rendering", zap.String("op", op))
		return status.Error(codes.Aborted, "chart changed while rendering")
	case errors.Is(err, service.ErrFetchFailed):
		s.logger.Error("dataset fetch failure", zap.String("op", op), zap.Error(err))
		return status.Error(codes.Unavailable, "dataset unavailable")
	case errors.Is(err, service.ErrParseFailed):
		s.logger.Error("dataset parse failure", zap.String("op", op), zap.Error(err))
		return status.Error(codes.DataLoss, "dataset could not be read")
	case errors.Is(err, service.ErrBaselineMismatch):
		s.logger.Error("baseline mismatch", zap.String("op", op), zap.Error(err))
		return status.Error(codes.FailedPrecondition, "baseline does not match categories")
	default:
		s.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		return status.Errorf(codes.Internal, "%s failed: %v", op, err)
	}
}

func (s *GRPCHandlers) LoadDashboard(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name, err := dashboardName(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, loadGRPCTimeout)
	defer cancel()

	panel, err := s.dashboards.Load(ctx, name)
	if err != nil {
		return nil, s.handleError(ctx, "LoadDashboard", err)
	}
	return panelStruct(panel)
}

func (s *GRPCHandlers) Hover(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name, err := dashboardName(req)
	if err != nil {
		return nil, err
	}
	x, err := numberField(req, "x")
	if err != nil {
		return nil, err
	}
	y, err := numberField(req, "y")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	state, err := s.dashboards.Hover(ctx, name, x, y)
	if err != nil {
		return nil, s.handleError(ctx, "Hover", err)
	}
	return hoverStruct(state)
}

func (s *GRPCHandlers) GetChartImage(ctx context.Context, req *structpb.Struct) (*wrapperspb.BytesValue, error) {
	name, err := dashboardName(req)
	if err != nil {
		return nil, err
	}
	format, err := render.ParseFormat(req.GetFields()["format"].GetStringValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	var image []byte
	for attempt := 1; ; attempt++ {
		ref, err := s.dashboards.ChartRef(name)
		if err != nil {
			return nil, s.handleError(ctx, "GetChartImage", err)
		}

		// The key names the exact state drawn, so a stale draw is never stored under it.
		cacheKey := imageKey(cacheKeyChartImage, name, ref, format)
		image, err = FindAndCache(ctx, s.cache, &s.sfGroup, cacheKey, s.cacheTTL, s.logger, func(context.Context) ([]byte, error) {
			return s.dashboards.Image(name, ref, format)
		})
		if err == nil {
			break
		}
		if !errors.Is(err, render.ErrStaleChart) || attempt == imageAttempts {
			return nil, s.handleError(ctx, "GetChartImage", err)
		}
		s.logger.Debug("chart changed while rendering, retrying", zap.String("dashboard", name), zap.Int("attempt", attempt))
	}

	return wrapperspb.Bytes(image), nil
}

func (s *GRPCHandlers) GetReadout(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name, err := dashboardName(req)
	if err != nil {
		return nil, err
	}

	readout, err := s.dashboards.Readout(name)
	if err != nil {
		return nil, s.handleError(ctx, "GetReadout", err)
	}
	return readoutStruct(readout)
}

func (s *GRPCHandlers) GetServiceSummary(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	ctx, cancel := context.WithTimeout(ctx, loadGRPCTimeout)
	defer cancel()

	summary, err := s.dashboards.Services(ctx)
	if err != nil {
		return nil, s.handleError(ctx, "GetServiceSummary", err)
	}
	return summaryStruct(summary)
}
