package recommendation

import (
	"time"

	"github.com/alchemorsel/nutriguide/internal/domain/dietary"
)

// Observer receives workflow measurements
type Observer interface {
	StepCompleted(step dietary.Step, duration time.Duration, failed bool)
	TurnCompleted(status dietary.ResultStatus, duration time.Duration)
	AggregationSelected(tier dietary.AggregationTier)
}

type nopObserver struct{}

func (nopObserver) StepCompleted(dietary.Step, time.Duration, bool) {}
func (nopObserver) TurnCompleted(dietary.ResultStatus, time.Duration) {}
func (nopObserver) AggregationSelected(dietary.AggregationTier) {}
