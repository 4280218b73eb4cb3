//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	pb "github.com/godilite/victim-dashboards/api/v1"
	"github.com/godilite/victim-dashboards/internal/app"
	"github.com/godilite/victim-dashboards/internal/config"
	"github.com/godilite/victim-dashboards/internal/dataset"
	handler "github.com/godilite/victim-dashboards/internal/grpc"
	grpcsrv "github.com/godilite/victim-dashboards/pkg/grpc/server"
	"github.com/godilite/victim-dashboards/tests/e2e/mocks"
)

func writeDemographics(t *testing.T, dir string, year int) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Case ID", "Victim age", "Gender", "Ethnicity"},
		{"1", "25", "Male", "White"},
		{"2", "27", "Male", "White"},
		{"3", "33", "Female", "Hispanic or Latino"},
		{"4", "45", "Female", "Asian"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	require.NoError(t, f.SaveAs(filepath.Join(dir, fmt.Sprintf("victim_demographics_%d.xlsx", year))))
}

func startServer(t *testing.T, dir string, cache handler.Cacher) pb.DashboardServiceClient {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	cfg := &config.Config{DataDir: dir, DatasetFloorYear: time.Now().Year() - 2, ChartWidth: 640, ChartHeight: 320}
	dashboards := config.DefaultDashboards()
	dashboards.Services = nil

	hub, err := app.NewHub(ctx, cfg, dashboards, dataset.DirSource{Dir: dir}, nil, logger)
	require.NoError(t, err)
	t.Cleanup(hub.Close)

	server, err := grpcsrv.New(grpcsrv.WithPort(0), grpcsrv.WithLogger(logger), grpcsrv.WithRecovery(true))
	require.NoError(t, err)
	server.RegisterServiceWithHealth(pb.ServiceName, func(s *grpc.Server) {
		pb.RegisterDashboardServiceServer(s, handler.NewGRPCHandlers(hub, cache, logger, time.Minute))
	})
	server.Start()
	t.Cleanup(func() { _ = server.Shutdown(context.Background()) })

	conn, err := grpc.NewClient(server.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return pb.NewDashboardServiceClient(conn)
}

func req(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return s
}

func TestE2E_LoadHoverAndReadout(t *testing.T) {
	dir := t.TempDir()
	writeDemographics(t, dir, time.Now().Year())
	client := startServer(t, dir, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := client.LoadDashboard(ctx, req(t, map[string]any{"dashboard": "age"}))
	require.NoError(t, err)
	m := resp.AsMap()
	require.Equal(t, true, m["visible"])
	assert.Equal(t, []any{50.0, 25.0, 25.0, 0.0, 0.0}, m["observed"])

	// First band center: plot top 36, five bands over height 320-28-36.
	bandHeight := (320.0 - 28 - 36) / 5
	hover, err := client.Hover(ctx, req(t, map[string]any{"dashboard": "age", "x": 400, "y": 36 + bandHeight/2}))
	require.NoError(t, err)
	h := hover.AsMap()
	assert.Equal(t, true, h["active"])
	assert.Equal(t, "20–29", h["label"])
	assert.Equal(t, []any{"50.00%", "20.69%"}, h["values"])

	readout, err := client.GetReadout(ctx, req(t, map[string]any{"dashboard": "age"}))
	require.NoError(t, err)
	targets := readout.AsMap()["targets"].(map[string]any)
	assert.Equal(t, "20–29", targets["hoverVAgeLabel"].(map[string]any)["text"])
	assert.Equal(t, "50.00%", targets["hoverVAgeVict"].(map[string]any)["text"])

	hover, err = client.Hover(ctx, req(t, map[string]any{"dashboard": "age", "x": 1, "y": 1}))
	require.NoError(t, err)
	assert.Equal(t, false, hover.AsMap()["active"])

	readout, err = client.GetReadout(ctx, req(t, map[string]any{"dashboard": "age"}))
	require.NoError(t, err)
	targets = readout.AsMap()["targets"].(map[string]any)
	assert.Equal(t, "", targets["hoverVAgeLabel"].(map[string]any)["text"])
}

func TestE2E_ChartImageCache(t *testing.T) {
	dir := t.TempDir()
	writeDemographics(t, dir, time.Now().Year())
	cache := mocks.NewTrackingCache()
	client := startServer(t, dir, cache)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := client.LoadDashboard(ctx, req(t, map[string]any{"dashboard": "gender"}))
	require.NoError(t, err)

	first, err := client.GetChartImage(ctx, req(t, map[string]any{"dashboard": "gender", "format": "png"}))
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), first.GetValue()[:4])

	require.Eventually(t, func() bool {
		_, sets := cache.Calls()
		return sets == 1
	}, time.Second, 10*time.Millisecond)

	second, err := client.GetChartImage(ctx, req(t, map[string]any{"dashboard": "gender", "format": "png"}))
	require.NoError(t, err)
	assert.Equal(t, first.GetValue(), second.GetValue())
	_, sets := cache.Calls()
	assert.Equal(t, 1, sets)
}

func TestE2E_MissingDatasets(t *testing.T) {
	client := startServer(t, t.TempDir(), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := client.LoadDashboard(ctx, req(t, map[string]any{"dashboard": "age"}))
	assert.Equal(t, codes.NotFound, status.Code(err))

	resp, err := client.LoadDashboard(ctx, req(t, map[string]any{"dashboard": "ethnicity"}))
	require.NoError(t, err)
	assert.Equal(t, "not_found", resp.AsMap()["reason"])

	_, err = client.GetChartImage(ctx, req(t, map[string]any{"dashboard": "ethnicity"}))
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = client.GetServiceSummary(ctx, &emptypb.Empty{})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.LoadDashboard(ctx, req(t, map[string]any{"dashboard": "income"}))
	assert.Equal(t, codes.NotFound, status.Code(err))
}
