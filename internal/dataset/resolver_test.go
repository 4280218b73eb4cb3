package dataset

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeSource struct {
	present  map[string]bool
	probeErr error
	probed   []string
	opened   []string
}

func (f *fakeSource) Exists(_ context.Context, name string) (bool, error) {
	f.probed = append(f.probed, name)
	if f.probeErr != nil {
		return false, f.probeErr
	}
	return f.present[name], nil
}

func (f *fakeSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	f.opened = append(f.opened, name)
	return io.NopCloser(strings.NewReader(name)), nil
}

func fixedClock(year int) func() time.Time {
	return func() time.Time { return time.Date(year, 6, 1, 0, 0, 0, 0, time.UTC) }
}

func TestNaming_Name(t *testing.T) {
	assert.Equal(t, "victim_demographics_2024.xlsx", Naming{Prefix: "victim_demographics", Separator: "_"}.Name(2024))
	assert.Equal(t, "victim_demographics2024.xlsx", Naming{Prefix: "victim_demographics"}.Name(2024))
	assert.Equal(t, "victims-2019.csv", Naming{Prefix: "victims", Separator: "-", Ext: ".csv"}.Name(2019))
}

func TestResolver_Resolve(t *testing.T) {
	naming := Naming{Prefix: "victim_demographics", Separator: "_"}

	t.Run("returns newest existing year", func(t *testing.T) {
		src := &fakeSource{present: map[string]bool{
			"victim_demographics_2023.xlsx": true,
			"victim_demographics_2021.xlsx": true,
		}}
		r := NewResolver(src, naming, WithClock(fixedClock(2026)), WithLogger(zaptest.NewLogger(t)))

		res, err := r.Resolve(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 2023, res.Year)
		assert.Equal(t, "victim_demographics_2023.xlsx", res.Name)
		assert.Equal(t, []string{
			"victim_demographics_2026.xlsx",
			"victim_demographics_2025.xlsx",
			"victim_demographics_2024.xlsx",
			"victim_demographics_2023.xlsx",
		}, src.probed)
	})

	t.Run("probes every year down to the floor and reports not found", func(t *testing.T) {
		src := &fakeSource{}
		r := NewResolver(src, naming, WithClock(fixedClock(2026)))

		_, err := r.Resolve(context.Background())

		assert.ErrorIs(t, err, ErrNotFound)
		require.Len(t, src.probed, 12)
		assert.Equal(t, "victim_demographics_2026.xlsx", src.probed[0])
		assert.Equal(t, "victim_demographics_2015.xlsx", src.probed[11])
		assert.Empty(t, src.opened)
	})

	t.Run("custom floor", func(t *testing.T) {
		src := &fakeSource{}
		r := NewResolver(src, naming, WithClock(fixedClock(2026)), WithFloorYear(2024))

		_, err := r.Resolve(context.Background())

		assert.ErrorIs(t, err, ErrNotFound)
		assert.Len(t, src.probed, 3)
	})

	t.Run("probe failure stops probing", func(t *testing.T) {
		src := &fakeSource{probeErr: errors.New("connection refused")}
		r := NewResolver(src, naming, WithClock(fixedClock(2026)))

		_, err := r.Resolve(context.Background())

		assert.ErrorIs(t, err, ErrProbeFailed)
		assert.NotErrorIs(t, err, ErrNotFound)
		assert.Len(t, src.probed, 1)
	})

	t.Run("canceled context stops throttled probing", func(t *testing.T) {
		src := &fakeSource{}
		r := NewResolver(src, naming, WithClock(fixedClock(2026)), WithProbeRate(0.001))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := r.Resolve(ctx)

		assert.Error(t, err)
		assert.Empty(t, src.probed)
	})

	t.Run("nil source panics", func(t *testing.T) {
		assert.Panics(t, func() { NewResolver(nil, naming) })
	})
}

func TestResolver_Open(t *testing.T) {
	src := &fakeSource{}
	r := NewResolver(src, Naming{Prefix: "victims", Separator: "_"})

	rc, err := r.Open(context.Background(), Resolution{Year: 2022})
	require.NoError(t, err)
	defer rc.Close()

	assert.Equal(t, []string{"victims_2022.xlsx"}, src.opened)
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "victims_2024.xlsx"), []byte("body"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "victims_2023.xlsx"), 0o755))

	src := DirSource{Dir: dir}
	ctx := context.Background()

	ok, err := src.Exists(ctx, "victims_2024.xlsx")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = src.Exists(ctx, "victims_2023.xlsx")
	require.NoError(t, err)
	assert.False(t, ok, "directories are not datasets")

	ok, err = src.Exists(ctx, "victims_2022.xlsx")
	require.NoError(t, err)
	assert.False(t, ok)

	rc, err := src.Open(ctx, "victims_2024.xlsx")
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "body", string(body))
}

func TestHTTPSource(t *testing.T) {
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method+" "+r.URL.Path)
		if r.URL.Path != "/data/victims_2025.xlsx" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("xlsx-bytes"))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/data/", time.Second)
	ctx := context.Background()

	ok, err := src.Exists(ctx, "victims_2026.xlsx")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = src.Exists(ctx, "victims_2025.xlsx")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := src.Open(ctx, "victims_2025.xlsx")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "xlsx-bytes", string(body))

	_, err = src.Open(ctx, "victims_2026.xlsx")
	assert.Error(t, err)

	assert.Equal(t, []string{
		"HEAD /data/victims_2026.xlsx",
		"HEAD /data/victims_2025.xlsx",
		"GET /data/victims_2025.xlsx",
		"GET /data/victims_2026.xlsx",
	}, methods)
}

func TestHTTPSource_ResolverIntegration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/victim_demographics2019.xlsx" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	r := NewResolver(NewHTTPSource(srv.URL, time.Second), Naming{Prefix: "victim_demographics"}, WithClock(fixedClock(2021)))

	res, err := r.Resolve(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2019, res.Year)
}

func TestNewMinIOSource_Validation(t *testing.T) {
	_, err := NewMinIOSource(MinIOOptions{Endpoint: "localhost:9000"})
	assert.Error(t, err)

	src, err := NewMinIOSource(MinIOOptions{Endpoint: "localhost:9000", Bucket: "datasets", Prefix: "/victims/"})
	require.NoError(t, err)
	assert.Equal(t, "victims/victims_2024.xlsx", src.key("victims_2024.xlsx"))
}
