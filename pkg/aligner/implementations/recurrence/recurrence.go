// Package recurrence aligns chromagrams through a cross-similarity matrix and
// a recurrence quantification analysis (RQA) search for the best scoring path.
//
// Similar cells extend a path by their similarity; dissimilar cells are gaps
// which cost GapOnset right after a similar cell and GapExtend otherwise.
// A score that drops to zero resets the path. Besides the diagonal step the
// search allows the knight moves (1, 2) and (2, 1), so a gap may be of any length.
package recurrence

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/avsync/pkg/aligner"
	"github.com/xaionaro-go/avsync/pkg/chroma"
)

type move int8

const (
	moveDiagonal = move(0)
	moveKnightA  = move(1)
	moveKnightB  = move(2)

	// moveReset marks a cell which is not a part of any path.
	moveReset = move(-1)

	// moveStart marks the first cell of a path.
	moveStart = move(-2)
)

var moveOffsets = [...]aligner.Pair{
	moveDiagonal: {A: 1, B: 1},
	moveKnightA:  {A: 1, B: 2},
	moveKnightB:  {A: 2, B: 1},
}

func init() {
	aligner.RegisterFactory(aligner.StrategyRecurrence, Factory{})
}

type Factory struct{}

func (Factory) NewAligner(cfg aligner.Config) (aligner.Aligner, error) {
	return New(cfg.KNN, cfg.GapOnset, cfg.GapExtend)
}

type Aligner struct {
	KNN       int
	GapOnset  float64
	GapExtend float64
}

var _ aligner.Aligner = (*Aligner)(nil)

func New(
	knn int,
	gapOnset float64,
	gapExtend float64,
) (*Aligner, error) {
	if gapOnset < 0 || gapExtend < 0 || math.IsNaN(gapOnset) || math.IsNaN(gapExtend) {
		return nil, fmt.Errorf("gap penalties must be non-negative, got onset:%v extend:%v", gapOnset, gapExtend)
	}
	return &Aligner{
		KNN:       knn,
		GapOnset:  gapOnset,
		GapExtend: gapExtend,
	}, nil
}

// neighbours returns the amount of nearest neighbours to keep per column, or -1 to keep everything.
func (r *Aligner) neighbours(rows int) int {
	switch {
	case r.KNN < 0:
		return -1
	case r.KNN == 0:
		return 2 * int(math.Ceil(math.Sqrt(float64(rows))))
	default:
		return r.KNN
	}
}

func (r *Aligner) Align(
	ctx context.Context,
	a, b *chroma.Matrix,
) (aligner.Path, error) {
	if err := aligner.CheckInputs(a, b); err != nil {
		return nil, err
	}

	sim, err := CrossSimilarity(ctx, a, b, r.neighbours(a.Len()))
	if err != nil {
		return nil, err
	}

	score, moves, err := r.search(ctx, sim)
	if err != nil {
		return nil, err
	}

	end := argmax(score)
	path := backtrack(moves, end)
	logger.Debugf(ctx, "recurrence: A:%d B:%d; the best path ends at %v with score %f and has %d points",
		a.Len(), b.Len(), end, score[end.A][end.B], len(path))
	return path, nil
}

// CrossSimilarity returns the affinity matrix sim[indexA][indexB] of the cosine similarities
// between the columns. If k is non-negative, only the k most similar frames of a are kept
// for every frame of b, the rest is zeroed.
func CrossSimilarity(
	ctx context.Context,
	a, b *chroma.Matrix,
	k int,
) ([][]float64, error) {
	sim := make([][]float64, a.Len())
	for i, columnA := range a.Columns {
		row := make([]float64, b.Len())
		for j, columnB := range b.Columns {
			row[j] = math.Max(0, chroma.CosineSimilarity(columnA, columnB))
		}
		sim[i] = row
	}
	if k < 0 || k >= a.Len() {
		return sim, nil
	}

	order := make([]int, a.Len())
	for j := 0; j < b.Len(); j++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(x, y int) bool {
			return sim[order[x]][j] > sim[order[y]][j]
		})
		for _, i := range order[k:] {
			sim[i][j] = 0
		}
	}
	return sim, nil
}

func (r *Aligner) search(
	ctx context.Context,
	sim [][]float64,
) ([][]float64, [][]move, error) {
	n, m := len(sim), len(sim[0])
	score := make([][]float64, n)
	moves := make([][]move, n)

	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}

		score[i] = make([]float64, m)
		moves[i] = make([]move, m)
		for j := 0; j < m; j++ {
			linked := sim[i][j] > 0
			if i == 0 || j == 0 {
				score[i][j] = sim[i][j]
				moves[i][j] = moveReset
				if linked {
					moves[i][j] = moveStart
				}
				continue
			}

			bestMove, bestValue := moveReset, math.Inf(-1)
			for mv, offset := range moveOffsets {
				pi, pj := i-offset.A, j-offset.B
				if pi < 0 || pj < 0 {
					continue
				}
				value := score[pi][pj]
				if !linked {
					if sim[pi][pj] > 0 {
						value -= r.GapOnset
					} else {
						value -= r.GapExtend
					}
				}
				if value > bestValue {
					bestMove, bestValue = move(mv), value
				}
			}

			if linked {
				score[i][j] = bestValue + sim[i][j]
				moves[i][j] = bestMove
				continue
			}
			if bestValue <= 0 {
				score[i][j] = 0
				moves[i][j] = moveReset
				continue
			}
			score[i][j] = bestValue
			moves[i][j] = bestMove
		}
	}
	return score, moves, nil
}

func argmax(score [][]float64) aligner.Pair {
	var best aligner.Pair
	for i, row := range score {
		for j, value := range row {
			if value > score[best.A][best.B] {
				best = aligner.Pair{A: i, B: j}
			}
		}
	}
	return best
}

func backtrack(moves [][]move, cur aligner.Pair) aligner.Path {
	var path aligner.Path
	for {
		mv := moves[cur.A][cur.B]
		if mv == moveReset {
			break
		}
		path = append(path, cur)
		if mv == moveStart {
			break
		}
		offset := moveOffsets[mv]
		cur = aligner.Pair{A: cur.A - offset.A, B: cur.B - offset.B}
	}

	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	return path
}
