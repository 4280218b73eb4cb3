package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/godilite/victim-dashboards/internal/config"
	"github.com/godilite/victim-dashboards/internal/dataset"
	"github.com/godilite/victim-dashboards/internal/render"
	"github.com/godilite/victim-dashboards/internal/service"
	"github.com/godilite/victim-dashboards/internal/sheet"
)

const httpSourceTimeout = 20 * time.Second

// BaselineStore overrides the baseline counts of the dashboards file. A dashboard the
// store has no counts for is seeded from the file.
type BaselineStore interface {
	GetBaseline(ctx context.Context, dashboard string) (map[string]float64, error)
	ReplaceBaseline(ctx context.Context, dashboard string, counts map[string]float64) error
}

// NewSource picks where yearly datasets are probed and read from.
func NewSource(cfg *config.Config) (dataset.Source, error) {
	switch cfg.DatasetSource {
	case "", "file":
		return dataset.DirSource{Dir: cfg.DataDir}, nil
	case "http":
		if cfg.DataBaseURL == "" {
			return nil, fmt.Errorf("DATA_BASE_URL is required for the http dataset source")
		}
		return dataset.NewHTTPSource(cfg.DataBaseURL, httpSourceTimeout), nil
	case "minio":
		return dataset.NewMinIOSource(dataset.MinIOOptions{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			Prefix:    cfg.MinIO.Prefix,
			UseSSL:    cfg.MinIO.UseSSL,
		})
	default:
		return nil, fmt.Errorf("unknown dataset source %q", cfg.DatasetSource)
	}
}

// NewHub wires every configured dashboard to one renderer and one display board.
// A nil baselines store keeps the counts of the dashboards file.
func NewHub(ctx context.Context, cfg *config.Config, dashboards *config.Dashboards, source dataset.Source, baselines BaselineStore, logger *zap.Logger) (*service.Hub, error) {
	board := render.NewBoard()
	renderer := render.NewRenderer(
		render.WithSize(cfg.ChartWidth, cfg.ChartHeight),
		render.WithReadout(render.NewReadout(board, cfg.ReadoutFade)),
		render.WithLogger(logger),
	)
	parser := sheet.XLSXParser{}

	resolver := func(naming dataset.Naming) *dataset.Resolver {
		return dataset.NewResolver(source, naming,
			dataset.WithFloorYear(cfg.DatasetFloorYear),
			dataset.WithProbeRate(cfg.ProbeRate),
			dataset.WithLogger(logger),
		)
	}

	built := make([]*service.Dashboard, 0, len(dashboards.Dashboards))
	for _, c := range dashboards.Dashboards {
		var seed bool
		if baselines != nil {
			counts, err := baselines.GetBaseline(ctx, c.Name)
			if err != nil {
				return nil, fmt.Errorf("baseline for %s: %w", c.Name, err)
			}
			if len(counts) > 0 {
				logger.Info("baseline loaded from database", zap.String("dashboard", c.Name), zap.Int("buckets", len(counts)))
				c.Baseline = counts
			} else {
				seed = len(c.Baseline) > 0
			}
		}
		spec, err := c.Spec()
		if err != nil {
			return nil, err
		}
		if seed {
			if err := baselines.ReplaceBaseline(ctx, c.Name, c.Baseline); err != nil {
				return nil, fmt.Errorf("seed baseline for %s: %w", c.Name, err)
			}
			logger.Info("baseline seeded from dashboards file", zap.String("dashboard", c.Name), zap.Int("buckets", len(c.Baseline)))
		}
		built = append(built, service.NewDashboard(spec, resolver(c.Dataset.Naming()), parser, renderer, board, logger))
	}

	var services *service.ServicesDashboard
	if dashboards.Services != nil {
		spec, err := dashboards.Services.Spec()
		if err != nil {
			return nil, err
		}
		services = service.NewServicesDashboard(spec, resolver(dashboards.Services.Dataset.Naming()), parser, renderer, board, logger)
	}

	return service.NewHub(built, services, renderer, board, logger), nil
}
