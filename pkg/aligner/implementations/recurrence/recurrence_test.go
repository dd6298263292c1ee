package recurrence

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/avsync/pkg/aligner"
	"github.com/xaionaro-go/avsync/pkg/chroma"
)

func randomMatrix(rng *rand.Rand, frames int) *chroma.Matrix {
	m := &chroma.Matrix{
		SampleRate: 22050,
		HopSize:    2205,
		Columns:    make([]chroma.Vector, frames),
	}
	for idx := range m.Columns {
		var v chroma.Vector
		for class := range v {
			v[class] = rng.Float64()
		}
		norm := v.Norm()
		for class := range v {
			v[class] /= norm
		}
		m.Columns[idx] = v
	}
	return m
}

func slice(m *chroma.Matrix, from, to int) *chroma.Matrix {
	return &chroma.Matrix{
		SampleRate: m.SampleRate,
		HopSize:    m.HopSize,
		Columns:    m.Columns[from:to],
	}
}

func TestAlign(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1))

	for _, knn := range []int{0, -1} {
		r, err := New(knn, 1, 1)
		require.NoError(t, err)

		t.Run(fmt.Sprintf("knn=%d", knn), func(t *testing.T) {
			t.Run("Identity", func(t *testing.T) {
				m := randomMatrix(rng, 30)
				path, err := r.Align(ctx, m, m)
				require.NoError(t, err)
				require.Len(t, path, 30, spew.Sdump(path))
				for idx, pair := range path {
					assert.Equal(t, aligner.Pair{A: idx, B: idx}, pair)
				}
			})

			t.Run("AInsideB", func(t *testing.T) {
				b := randomMatrix(rng, 50)
				a := slice(b, 10, 40)
				path, err := r.Align(ctx, a, b)
				require.NoError(t, err)
				require.Len(t, path, 30, spew.Sdump(path))
				for idx, pair := range path {
					assert.Equal(t, aligner.Pair{A: idx, B: idx + 10}, pair)
				}
			})

			t.Run("BInsideA", func(t *testing.T) {
				a := randomMatrix(rng, 40)
				b := slice(a, 5, 25)
				path, err := r.Align(ctx, a, b)
				require.NoError(t, err)
				require.Len(t, path, 20, spew.Sdump(path))
				for idx, pair := range path {
					assert.Equal(t, aligner.Pair{A: idx + 5, B: idx}, pair)
				}
			})

			t.Run("Random", func(t *testing.T) {
				for iteration := 0; iteration < 20; iteration++ {
					a := randomMatrix(rng, 1+rng.Intn(40))
					b := randomMatrix(rng, 1+rng.Intn(40))
					path, err := r.Align(ctx, a, b)
					require.NoError(t, err)
					assert.NoError(t, path.Validate(), spew.Sdump(path))
				}
			})
		})
	}

	r, err := New(0, 1, 1)
	require.NoError(t, err)

	t.Run("Silence", func(t *testing.T) {
		silent := &chroma.Matrix{SampleRate: 22050, HopSize: 2205, Columns: make([]chroma.Vector, 10)}
		path, err := r.Align(ctx, silent, randomMatrix(rng, 20))
		require.NoError(t, err)
		assert.Empty(t, path)
	})

	t.Run("EmptyInput", func(t *testing.T) {
		_, err := r.Align(ctx, &chroma.Matrix{}, randomMatrix(rng, 3))
		assert.ErrorIs(t, err, aligner.ErrEmptyInput)
	})

	t.Run("Cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(ctx)
		cancel()
		m := randomMatrix(rng, 5)
		_, err := r.Align(ctx, m, m)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCrossSimilarity(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(2))
	a := randomMatrix(rng, 10)
	b := randomMatrix(rng, 7)

	full, err := CrossSimilarity(ctx, a, b, -1)
	require.NoError(t, err)
	require.Len(t, full, 10)
	for _, row := range full {
		require.Len(t, row, 7)
		for _, v := range row {
			assert.Greater(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0+1e-12)
		}
	}

	sparse, err := CrossSimilarity(ctx, a, b, 3)
	require.NoError(t, err)
	for j := 0; j < 7; j++ {
		kept := 0
		for i := 0; i < 10; i++ {
			if sparse[i][j] > 0 {
				kept++
				assert.Equal(t, full[i][j], sparse[i][j])
			}
		}
		assert.Equal(t, 3, kept, "column %d", j)
	}
}

func TestGaps(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(3))

	// b repeats a with two foreign frames inserted in the middle
	a := randomMatrix(rng, 20)
	foreign := randomMatrix(rng, 2)
	b := &chroma.Matrix{SampleRate: 22050, HopSize: 2205}
	b.Columns = append(b.Columns, a.Columns[:10]...)
	b.Columns = append(b.Columns, foreign.Columns...)
	b.Columns = append(b.Columns, a.Columns[10:]...)

	r, err := New(0, 0.5, 0.5)
	require.NoError(t, err)
	path, err := r.Align(ctx, a, b)
	require.NoError(t, err)
	require.NoError(t, path.Validate())
	assert.Equal(t, aligner.Pair{A: 19, B: 21}, path[len(path)-1], spew.Sdump(path))
	assert.Equal(t, aligner.Pair{A: 0, B: 0}, path[0], spew.Sdump(path))
}

func TestNew(t *testing.T) {
	_, err := New(0, -1, 1)
	assert.Error(t, err)

	a, err := aligner.New(aligner.Config{Strategy: aligner.StrategyRecurrence, KNN: 5, GapOnset: 2, GapExtend: 3})
	require.NoError(t, err)
	require.IsType(t, (*Aligner)(nil), a)
	assert.Equal(t, &Aligner{KNN: 5, GapOnset: 2, GapExtend: 3}, a)
}

func BenchmarkAlign(b *testing.B) {
	rng := rand.New(rand.NewSource(0))
	ma := randomMatrix(rng, 600)
	mb := randomMatrix(rng, 600)
	r, err := New(0, 1, 1)
	require.NoError(b, err)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := r.Align(context.Background(), ma, mb)
		if err != nil {
			b.Fatal(err)
		}
	}
}
