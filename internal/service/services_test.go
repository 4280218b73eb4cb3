package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/godilite/victim-dashboards/internal/classify"
	"github.com/godilite/victim-dashboards/internal/render"
	"github.com/godilite/victim-dashboards/internal/service/mocks"
)

func serviceRows() []classify.Record {
	return []classify.Record{
		{classify.ColumnCaseID: "101", classify.ColumnServiceRecords: "3", "A": "Yes", "B": " yes ", "C": "no"},
		{classify.ColumnCaseID: " 102 ", classify.ColumnServiceRecords: "2.0", "A": "YES", "E": "Yes"},
		{classify.ColumnCaseID: "Access Denied", classify.ColumnServiceRecords: "9", "A": "Yes"},
		{classify.ColumnCaseID: "103", classify.ColumnServiceRecords: "n/a", "D": "yes"},
		{classify.ColumnCaseID: "104x", classify.ColumnServiceRecords: ""},
	}
}

func TestSummarizeServices(t *testing.T) {
	got := SummarizeServices(serviceRows(), DefaultServiceCategories())

	assert.Equal(t, 4, got.Cases)
	assert.Equal(t, 5, got.ServiceRecords)
	require.Len(t, got.Categories, 5)

	cases := make([]int, len(got.Categories))
	for i, c := range got.Categories {
		cases[i] = c.Cases
	}
	assert.Equal(t, []int{2, 1, 0, 1, 1}, cases)
	assert.InDelta(t, 50, got.Categories[0].Percent, 1e-9)
	assert.InDelta(t, 25, got.Categories[1].Percent, 1e-9)
	assert.Equal(t, "Information and Referral", got.Categories[0].Title)
	assert.Equal(t, "#9c27b0", got.Categories[4].Color)
}

func TestSummarizeServicesDoesNotMutateCategories(t *testing.T) {
	cats := DefaultServiceCategories()
	SummarizeServices(serviceRows(), cats)
	assert.Zero(t, cats[0].Cases)
}

func TestSummarizeServicesNoCases(t *testing.T) {
	got := SummarizeServices([]classify.Record{{classify.ColumnCaseID: "restricted"}}, DefaultServiceCategories())
	assert.Equal(t, 0, got.Cases)
	for _, c := range got.Categories {
		assert.Zero(t, c.Percent)
	}
}

func TestServicesDashboardLoad(t *testing.T) {
	ctx := context.Background()
	spec := ServicesSpec{
		Name:     "services",
		Panel:    "victimPanel",
		Mount:    "victimPieChart",
		NotFound: NotFoundEmpty,
		Targets:  render.Targets{Label: "victimDescTitle", Values: []string{"victimDescValue"}, Detail: "victimDescText"},
	}

	t.Run("draws the category pie", func(t *testing.T) {
		renderer := newRecordingRenderer()
		display := &mocks.MockPanelDisplay{}
		d := NewServicesDashboard(spec, foundResolver(2025), rowsParser(serviceRows()...), renderer, display, zap.NewNop())

		summary, err := d.Load(ctx)

		require.NoError(t, err)
		assert.True(t, summary.Visible)
		assert.Equal(t, 2025, summary.Year)
		assert.NotEmpty(t, summary.ChartID)
		assert.Equal(t, render.LayoutPie, renderer.last.Layout)
		assert.Equal(t, "Shelter / Housing Services", renderer.last.Labels[3])
		assert.Equal(t, "#e91e63", renderer.last.Palette[3])
		assert.Equal(t, "Emergency shelter, relocation help, transitional housing.", renderer.last.Details[3])
		visible, _ := display.Visible("victimPanel")
		assert.True(t, visible)
		assert.Equal(t, summary, d.Last())
	})

	t.Run("no served cases hides the panel", func(t *testing.T) {
		renderer := newRecordingRenderer()
		d := NewServicesDashboard(spec, foundResolver(2025), rowsParser(
			classify.Record{classify.ColumnCaseID: "7", "A": "no"},
		), renderer, &mocks.MockPanelDisplay{}, zap.NewNop())

		summary, err := d.Load(ctx)

		require.NoError(t, err)
		assert.False(t, summary.Visible)
		assert.Equal(t, ReasonEmptySample, summary.Reason)
		assert.Equal(t, 1, summary.Cases)
		assert.Equal(t, 0, renderer.draws)
	})
}
