package refresh

import (
	"fmt"
	"time"
)

const (
	RegimeMarket   = "market"
	RegimeOffHours = "offhours"

	marketBucketWidth   = 3 * time.Minute
	offHoursBucketWidth = 15 * time.Minute

	DefaultMarketTimezone = "America/New_York"
)

// BucketCalculator derives the opaque refresh-due identifier from wall-clock
// time. Pure: no I/O, no side effects; callers inject now.
type BucketCalculator struct {
	location *time.Location
}

func NewBucketCalculator(timezone string) (*BucketCalculator, error) {
	if timezone == "" {
		timezone = DefaultMarketTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load market timezone %q: %w", timezone, err)
	}
	return &BucketCalculator{location: loc}, nil
}

// Bucket returns "<regime>-<floor(now_ms/width_ms)>". Two instants share an
// id iff they fall in the same width-aligned window of the same regime; a
// regime flip changes the prefix, so open/close boundaries always force a
// new id even when the floored counter would collide.
func (c *BucketCalculator) Bucket(now time.Time) string {
	regime := c.regime(now)

	width := offHoursBucketWidth
	if regime == RegimeMarket {
		width = marketBucketWidth
	}

	return fmt.Sprintf("%s-%d", regime, now.UnixMilli()/width.Milliseconds())
}

// regime reports market for weekdays 09:30-16:00 exchange-local, offhours
// otherwise.
func (c *BucketCalculator) regime(now time.Time) string {
	local := now.In(c.location)

	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return RegimeOffHours
	}

	minuteOfDay := local.Hour()*60 + local.Minute()
	open := 9*60 + 30
	close := 16 * 60

	if minuteOfDay >= open && minuteOfDay < close {
		return RegimeMarket
	}
	return RegimeOffHours
}
