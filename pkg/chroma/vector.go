package chroma

import (
	"math"
)

// NumPitchClasses is the amount of pitch classes in an octave (C, C#, ..., B).
const NumPitchClasses = 12

// Vector is the energy distribution of a single frame across pitch classes,
// indexed from C (0) to B (11).
type Vector [NumPitchClasses]float64

func (v Vector) Norm() float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func (v Vector) IsZero() bool {
	return v == Vector{}
}

// Dominant returns the pitch class with the highest energy.
func (v Vector) Dominant() int {
	best := 0
	for idx := 1; idx < NumPitchClasses; idx++ {
		if v[idx] > v[best] {
			best = idx
		}
	}
	return best
}

// CosineSimilarity returns the cosine of the angle between a and b.
// It is zero if either of the vectors is a zero vector.
func CosineSimilarity(a, b Vector) float64 {
	var dot, normA, normB float64
	for idx := range a {
		dot += a[idx] * b[idx]
		normA += a[idx] * a[idx]
		normB += b[idx] * b[idx]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / math.Sqrt(normA*normB)
}

// CosineDistance is 1 - CosineSimilarity; it lies in [0, 2] and is 1 for silent frames.
func CosineDistance(a, b Vector) float64 {
	return 1 - CosineSimilarity(a, b)
}
