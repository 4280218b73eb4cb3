package service

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godilite/victim-dashboards/internal/classify"
)

func classified(buckets ...classify.Bucket) []classify.Classified {
	out := make([]classify.Classified, len(buckets))
	for i, b := range buckets {
		out[i] = classify.Classified{Bucket: b}
	}
	return out
}

func sum(vs []float64) float64 {
	var s float64
	for _, v := range vs {
		s += v
	}
	return s
}

func TestAggregate(t *testing.T) {
	order := []classify.Bucket{"A", "B"}

	t.Run("observed and baseline percentages", func(t *testing.T) {
		recs := classified("A", "A", "A", "B")

		got, err := Aggregate(recs, order, Baseline{"A": 60, "B": 40})

		require.NoError(t, err)
		assert.Equal(t, []int{3, 1}, got.Counts)
		assert.Equal(t, 4, got.Total)
		assert.InDeltaSlice(t, []float64{75, 25}, got.Observed, 1e-9)
		assert.InDeltaSlice(t, []float64{60, 40}, got.Baseline, 1e-9)
		assert.Equal(t, []string{"A", "B"}, got.Labels())
	})

	t.Run("excluded and unknown buckets are not counted", func(t *testing.T) {
		recs := append(classified("A", "Z"), classify.Classified{Excluded: true})

		got, err := Aggregate(recs, order, nil)

		require.NoError(t, err)
		assert.Equal(t, 1, got.Total)
		assert.Equal(t, []float64{100, 0}, got.Observed)
		assert.Nil(t, got.Baseline)
	})

	t.Run("empty sample yields zeros", func(t *testing.T) {
		got, err := Aggregate(nil, order, Baseline{"A": 1, "B": 1})

		require.NoError(t, err)
		assert.Equal(t, 0, got.Total)
		assert.Equal(t, []float64{0, 0}, got.Observed)
		assert.Equal(t, []float64{50, 50}, got.Baseline)
		assert.ErrorIs(t, got.Displayable(), ErrEmptySample)
	})

	t.Run("percentages sum to 100", func(t *testing.T) {
		ageOrder := classify.AgeBands{}.Buckets()
		recs := classified(ageOrder[0], ageOrder[1], ageOrder[1], ageOrder[4], ageOrder[2], ageOrder[3], ageOrder[3])
		baseline := Baseline{}
		for i, b := range ageOrder {
			baseline[b] = float64(1000 + i*337)
		}

		got, err := Aggregate(recs, ageOrder, baseline)

		require.NoError(t, err)
		assert.InDelta(t, 100, sum(got.Observed), 1e-6)
		assert.InDelta(t, 100, sum(got.Baseline), 1e-6)
	})

	t.Run("baseline must cover the bucket set", func(t *testing.T) {
		_, err := Aggregate(nil, order, Baseline{"A": 1})
		assert.ErrorIs(t, err, ErrBaselineMismatch)

		_, err = Aggregate(nil, order, Baseline{"A": 1, "C": 1})
		assert.ErrorIs(t, err, ErrBaselineMismatch)

		_, err = Aggregate(nil, order, Baseline{"A": 1, "B": -1})
		assert.ErrorIs(t, err, ErrBaselineMismatch)
	})

	t.Run("order is copied", func(t *testing.T) {
		local := []classify.Bucket{"A", "B"}
		got, err := Aggregate(nil, local, nil)
		require.NoError(t, err)

		local[0] = "changed"
		assert.Equal(t, classify.Bucket("A"), got.Buckets[0])
	})
}

func TestAggregate_SumsTo100(t *testing.T) {
	rng := rand.New(rand.NewSource(20240601))

	buckets := func(n int) []classify.Bucket {
		out := make([]classify.Bucket, n)
		for i := range out {
			out[i] = classify.Bucket(fmt.Sprintf("b%d", i))
		}
		return out
	}

	type input struct {
		name     string
		counts   []int
		baseline []float64
	}
	cases := []input{
		{name: "single bucket", counts: []int{7}, baseline: []float64{153027}},
		{name: "one zero bucket", counts: []int{0, 4, 9}, baseline: []float64{0, 25065, 20257}},
		{name: "single record", counts: []int{0, 0, 1, 0}, baseline: []float64{1, 1, 1, 1}},
	}
	for i := 0; i < 25; i++ {
		n := 1 + rng.Intn(8)
		in := input{name: fmt.Sprintf("random %d", i), counts: make([]int, n), baseline: make([]float64, n)}
		for j := 0; j < n; j++ {
			in.counts[j] = rng.Intn(500)
			if rng.Intn(4) > 0 {
				in.baseline[j] = rng.Float64() * 1e6
			}
		}
		in.counts[rng.Intn(n)]++
		in.baseline[rng.Intn(n)] += 1
		cases = append(cases, in)
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := buckets(len(tc.counts))
			baseline := Baseline{}
			var recs []classify.Classified
			total := 0
			for i, b := range order {
				baseline[b] = tc.baseline[i]
				for k := 0; k < tc.counts[i]; k++ {
					recs = append(recs, classify.Classified{Bucket: b})
				}
				total += tc.counts[i]
			}
			recs = append(recs, classify.Classified{Excluded: true})
			rng.Shuffle(len(recs), func(i, j int) { recs[i], recs[j] = recs[j], recs[i] })

			got, err := Aggregate(recs, order, baseline)

			require.NoError(t, err)
			assert.Equal(t, total, got.Total)
			assert.InDelta(t, 100, sum(got.Observed), 1e-6)
			assert.InDelta(t, 100, sum(got.Baseline), 1e-6)
			for i, c := range tc.counts {
				assert.InDelta(t, float64(c)/float64(total)*100, got.Observed[i], 1e-9)
				assert.GreaterOrEqual(t, got.Observed[i], 0.0)
			}
		})
	}
}
