// Package aligner finds correspondences between two chromagrams.
package aligner

import (
	"context"
	"errors"
	"fmt"

	"github.com/xaionaro-go/avsync/pkg/chroma"
)

// ErrEmptyInput is returned when any of the chromagrams has no frames.
var ErrEmptyInput = errors.New("the chromagram has no frames")

// Pair is a correspondence between frame A of the first chromagram and frame B of the second one.
type Pair struct {
	A int
	B int
}

// Path is an ordered (from start to end) sequence of correspondences.
type Path []Pair

// Validate checks that the path is monotonically non-decreasing in both
// coordinates and contains no repeated pairs.
func (p Path) Validate() error {
	for idx, pair := range p {
		if pair.A < 0 || pair.B < 0 {
			return fmt.Errorf("pair #%d has a negative index: %v", idx, pair)
		}
		if idx == 0 {
			continue
		}
		prev := p[idx-1]
		if pair == prev {
			return fmt.Errorf("pair #%d repeats the previous one: %v", idx, pair)
		}
		if pair.A < prev.A || pair.B < prev.B {
			return fmt.Errorf("pair #%d goes backwards: %v -> %v", idx, prev, pair)
		}
	}
	return nil
}

type Aligner interface {
	// Align returns the correspondence path between a and b. Pairs are always
	// reported as (index in a, index in b).
	Align(ctx context.Context, a, b *chroma.Matrix) (Path, error)
}

// CheckInputs returns ErrEmptyInput if any of the matrices has no frames.
func CheckInputs(a, b *chroma.Matrix) error {
	if a.Len() == 0 {
		return fmt.Errorf("the first chromagram: %w", ErrEmptyInput)
	}
	if b.Len() == 0 {
		return fmt.Errorf("the second chromagram: %w", ErrEmptyInput)
	}
	return nil
}
