// Package subseqdtw implements subsequence dynamic time warping.
//
// The query chromagram must be matched completely, while the match may start
// and end anywhere within the reference chromagram. The accumulated cost is
//
//	D[0][j] = C[0][j]
//	D[i][j] = C[i][j] + min(D[i-1][j-1], D[i-1][j] + p, D[i][j-1] + p)
//
// where C is the cosine distance between the chroma vectors and p is the
// configured step penalty. The path is backtracked from the cheapest cell of
// the last query row.
package subseqdtw

import (
	"context"
	"fmt"
	"math"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/avsync/pkg/aligner"
	"github.com/xaionaro-go/avsync/pkg/chroma"
)

type step uint8

const (
	stepStart = step(iota)
	stepDiagonal
	stepQuery
	stepReference
)

func init() {
	aligner.RegisterFactory(aligner.StrategySubsequenceDTW, Factory{})
}

type Factory struct{}

func (Factory) NewAligner(cfg aligner.Config) (aligner.Aligner, error) {
	return New(cfg.QueryMode, cfg.StepPenalty)
}

type Aligner struct {
	QueryMode   aligner.QueryMode
	StepPenalty float64
}

var _ aligner.Aligner = (*Aligner)(nil)

func New(
	queryMode aligner.QueryMode,
	stepPenalty float64,
) (*Aligner, error) {
	if stepPenalty < 0 || math.IsNaN(stepPenalty) {
		return nil, fmt.Errorf("the step penalty must be non-negative, got %v", stepPenalty)
	}
	switch queryMode {
	case aligner.QueryModeAuto, aligner.QueryModeA, aligner.QueryModeB:
	default:
		return nil, fmt.Errorf("unknown query mode %d", queryMode)
	}
	return &Aligner{
		QueryMode:   queryMode,
		StepPenalty: stepPenalty,
	}, nil
}

func (dtw *Aligner) queryIsA(a, b *chroma.Matrix) bool {
	switch dtw.QueryMode {
	case aligner.QueryModeA:
		return true
	case aligner.QueryModeB:
		return false
	default:
		return a.Len() <= b.Len()
	}
}

func (dtw *Aligner) Align(
	ctx context.Context,
	a, b *chroma.Matrix,
) (aligner.Path, error) {
	if err := aligner.CheckInputs(a, b); err != nil {
		return nil, err
	}

	query, reference := a, b
	queryIsA := dtw.queryIsA(a, b)
	if !queryIsA {
		query, reference = b, a
	}

	steps, endIdx, cost, err := dtw.accumulate(ctx, query.Columns, reference.Columns)
	if err != nil {
		return nil, err
	}
	logger.Debugf(ctx, "subsequence DTW: query:%d (A:%v) reference:%d; the best match ends at %d with cost %f",
		query.Len(), queryIsA, reference.Len(), endIdx, cost)

	path := backtrack(steps, query.Len()-1, endIdx)
	if !queryIsA {
		for idx := range path {
			path[idx].A, path[idx].B = path[idx].B, path[idx].A
		}
	}
	return path, nil
}

// accumulate fills the step matrix and returns it together with the reference
// index of the cheapest end of the match.
func (dtw *Aligner) accumulate(
	ctx context.Context,
	query, reference []chroma.Vector,
) ([][]step, int, float64, error) {
	n, m := len(query), len(reference)
	steps := make([][]step, n)
	prev := make([]float64, m)
	cur := make([]float64, m)

	steps[0] = make([]step, m)
	for j := range reference {
		prev[j] = chroma.CosineDistance(query[0], reference[j])
	}

	for i := 1; i < n; i++ {
		select {
		case <-ctx.Done():
			return nil, 0, 0, ctx.Err()
		default:
		}

		row := make([]step, m)
		for j := 0; j < m; j++ {
			cost := chroma.CosineDistance(query[i], reference[j])
			best, bestStep := prev[j]+dtw.StepPenalty, stepQuery
			if j > 0 {
				if prev[j-1] <= best {
					best, bestStep = prev[j-1], stepDiagonal
				}
				if horizontal := cur[j-1] + dtw.StepPenalty; horizontal < best {
					best, bestStep = horizontal, stepReference
				}
			}
			cur[j] = cost + best
			row[j] = bestStep
		}
		steps[i] = row
		prev, cur = cur, prev
	}

	endIdx := 0
	for j := 1; j < m; j++ {
		if prev[j] < prev[endIdx] {
			endIdx = j
		}
	}
	return steps, endIdx, prev[endIdx], nil
}

func backtrack(steps [][]step, i, j int) aligner.Path {
	path := aligner.Path{{A: i, B: j}}
	for i > 0 {
		switch steps[i][j] {
		case stepDiagonal:
			i, j = i-1, j-1
		case stepQuery:
			i--
		case stepReference:
			j--
		default:
			panic(fmt.Errorf("internal error: unexpected step %d at (%d, %d)", steps[i][j], i, j))
		}
		path = append(path, aligner.Pair{A: i, B: j})
	}

	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	return path
}
