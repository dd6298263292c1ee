package aligner

import (
	"fmt"
	"sort"
	"sync"
)

// Config is the union of the tunables of all the alignment strategies;
// each strategy uses only the fields relevant to it.
type Config struct {
	Strategy Strategy

	// QueryMode selects which chromagram must be matched completely by the subsequence DTW.
	QueryMode QueryMode

	// StepPenalty is added to the cost of horizontal and vertical DTW steps.
	StepPenalty float64

	// KNN is the amount of nearest neighbours kept per column of the affinity matrix;
	// zero means 2*ceil(sqrt(frames)), negative disables the sparsification.
	KNN int

	// GapOnset and GapExtend are the penalties for opening and extending a gap
	// in the recurrence alignment.
	GapOnset  float64
	GapExtend float64
}

// DefaultStepPenalty keeps the DTW path diagonal on stationary content,
// where horizontal and vertical chains would otherwise cost nothing.
const DefaultStepPenalty = 0.1

func DefaultConfig() Config {
	return Config{
		Strategy:    StrategySubsequenceDTW,
		QueryMode:   QueryModeAuto,
		StepPenalty: DefaultStepPenalty,
		GapOnset:    1,
		GapExtend:   1,
	}
}

type QueryMode int

const (
	// QueryModeAuto uses the chromagram with fewer frames as the query.
	QueryModeAuto = QueryMode(iota)
	QueryModeA
	QueryModeB
)

type Factory interface {
	NewAligner(cfg Config) (Aligner, error)
}

var (
	factoryRegistryLocker sync.Mutex
	factoryRegistry       = map[Strategy]Factory{}
)

// RegisterFactory makes the strategy available to New. It panics on a duplicate registration.
func RegisterFactory(
	strategy Strategy,
	factory Factory,
) {
	factoryRegistryLocker.Lock()
	defer factoryRegistryLocker.Unlock()
	if _, ok := factoryRegistry[strategy]; ok {
		panic(fmt.Errorf("there is already registered a factory for strategy %v", strategy))
	}
	factoryRegistry[strategy] = factory
}

// Strategies returns the registered strategies.
func Strategies() []Strategy {
	factoryRegistryLocker.Lock()
	defer factoryRegistryLocker.Unlock()
	var result []Strategy
	for strategy := range factoryRegistry {
		result = append(result, strategy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i] < result[j]
	})
	return result
}

// New constructs the aligner for cfg.Strategy.
func New(cfg Config) (Aligner, error) {
	factoryRegistryLocker.Lock()
	factory, ok := factoryRegistry[cfg.Strategy]
	factoryRegistryLocker.Unlock()
	if !ok {
		return nil, fmt.Errorf("alignment strategy %v is not registered (available: %v)", cfg.Strategy, Strategies())
	}
	return factory.NewAligner(cfg)
}
