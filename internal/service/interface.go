package service

import (
	"context"
	"io"

	"github.com/godilite/victim-dashboards/internal/classify"
	"github.com/godilite/victim-dashboards/internal/dataset"
	"github.com/godilite/victim-dashboards/internal/render"
)

// DatasetResolver finds and opens the newest yearly dataset.
type DatasetResolver interface {
	Resolve(ctx context.Context) (dataset.Resolution, error)
	Open(ctx context.Context, res dataset.Resolution) (io.ReadCloser, error)
}

// RowParser extracts header-keyed rows from a dataset body.
type RowParser interface {
	Parse(r io.Reader) ([]classify.Record, error)
}

// ChartRenderer mounts charts. Draw replaces whatever is mounted on the same target.
type ChartRenderer interface {
	Draw(mount string, b render.Binding, targets render.Targets) (*render.Chart, error)
	Release(mount string)
}

// PanelDisplay toggles dashboard panels.
type PanelDisplay interface {
	SetVisible(target string, visible bool)
}
