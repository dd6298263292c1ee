package aligner

import (
	"fmt"
	"strings"
)

type Strategy int

const (
	StrategyUndefined = Strategy(iota)
	StrategySubsequenceDTW
	StrategyRecurrence
	EndOfStrategy
)

func (s Strategy) String() string {
	switch s {
	case StrategyUndefined:
		return "<undefined>"
	case StrategySubsequenceDTW:
		return "subseqdtw"
	case StrategyRecurrence:
		return "recurrence"
	default:
		return fmt.Sprintf("<unknown_strategy_%d>", int(s))
	}
}

// Set implements pflag.Value.
func (s *Strategy) Set(value string) error {
	for candidate := StrategyUndefined + 1; candidate < EndOfStrategy; candidate++ {
		if strings.EqualFold(candidate.String(), value) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown alignment strategy '%s'", value)
}

// Type implements pflag.Value.
func (s *Strategy) Type() string {
	return "strategy"
}
