package grpc

import (
	"fmt"
	"sort"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/godilite/victim-dashboards/internal/render"
	"github.com/godilite/victim-dashboards/internal/service"
)

func toStruct(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func stringList(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

func numberList[T int | float64](in []T) []any {
	if in == nil {
		return nil
	}
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

func panelStruct(p service.Panel) (*structpb.Struct, error) {
	m := map[string]any{
		"dashboard": p.Dashboard,
		"visible":   p.Visible,
		"reason":    string(p.Reason),
		"year":      p.Year,
		"chart_id":  p.ChartID,
	}
	if p.Visible {
		m["labels"] = stringList(p.Series.Labels())
		m["counts"] = numberList(p.Series.Counts)
		m["total"] = p.Series.Total
		m["observed"] = numberList(p.Series.Observed)
		if p.Series.Baseline != nil {
			m["baseline"] = numberList(p.Series.Baseline)
		}
	}
	return toStruct(m)
}

func hoverStruct(h render.HoverState) (*structpb.Struct, error) {
	return toStruct(map[string]any{
		"chart_id": h.ChartID,
		"active":   h.Active(),
		"index":    h.Index,
		"label":    h.Label,
		"values":   stringList(h.Values),
		"color":    h.Color,
	})
}

func readoutStruct(r service.ReadoutState) (*structpb.Struct, error) {
	names := make([]string, 0, len(r.Targets))
	for name := range r.Targets {
		names = append(names, name)
	}
	sort.Strings(names)

	targets := make(map[string]any, len(names))
	for _, name := range names {
		t := r.Targets[name]
		targets[name] = map[string]any{
			"text":    t.Text,
			"color":   t.Color,
			"opacity": t.Opacity,
			"visible": t.Visible,
		}
	}
	return toStruct(map[string]any{
		"dashboard": r.Dashboard,
		"visible":   r.Visible,
		"targets":   targets,
	})
}

func summaryStruct(s service.ServiceSummary) (*structpb.Struct, error) {
	cats := make([]any, len(s.Categories))
	for i, c := range s.Categories {
		cats[i] = map[string]any{
			"code":    c.Code,
			"title":   c.Title,
			"detail":  c.Detail,
			"color":   c.Color,
			"cases":   c.Cases,
			"percent": fmt.Sprintf("%.1f%%", c.Percent),
		}
	}
	return toStruct(map[string]any{
		"visible":         s.Visible,
		"reason":          string(s.Reason),
		"year":            s.Year,
		"cases":           s.Cases,
		"service_records": s.ServiceRecords,
		"categories":      cats,
		"chart_id":        s.ChartID,
	})
}
