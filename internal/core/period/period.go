// Package period maps timestamps to the day or ISO week they fall into.
//
// Timestamps are treated as timezone-less: only the wall-clock calendar date of a
// timestamp, in whatever location it carries, decides its period. Indexes grow
// monotonically with the date and consecutive periods differ by exactly one, so
// adjacency across month and ISO year boundaries is plain integer arithmetic.
package period

import (
	"fmt"
	"time"

	"github.com/comitanigiacomo/metime/internal/core/domain"
)

const secondsPerDay = 24 * 60 * 60

// epochMondayOffset shifts day indexes so that weeks start on Monday.
// 1970-01-01 was a Thursday, the Monday before it is day -3.
const epochMondayOffset = 3

type Calculator interface {
	Periodicity() domain.Periodicity

	// Index returns the period index containing the calendar date of t.
	Index(t time.Time) int

	// Bounds returns the half-open interval of the period with the given index.
	Bounds(index int) domain.Period

	// Between counts the periods from start to end, both periods included.
	// It returns 0 when end falls on a date before start.
	Between(start, end time.Time) int
}

func For(p domain.Periodicity) (Calculator, error) {
	switch p {
	case domain.Daily:
		return daily{}, nil
	case domain.Weekly:
		return weekly{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidPeriodicity, p)
	}
}

func Index(t time.Time, p domain.Periodicity) (int, error) {
	calc, err := For(p)
	if err != nil {
		return 0, err
	}
	return calc.Index(t), nil
}

func Of(t time.Time, p domain.Periodicity) (domain.Period, error) {
	calc, err := For(p)
	if err != nil {
		return domain.Period{}, err
	}
	return calc.Bounds(calc.Index(t)), nil
}

func PeriodsBetween(start, end time.Time, p domain.Periodicity) (int, error) {
	calc, err := For(p)
	if err != nil {
		return 0, err
	}
	return calc.Between(start, end), nil
}

// SamePeriod reports whether a and b share a day (daily) or an ISO week (weekly).
func SamePeriod(a, b time.Time, p domain.Periodicity) (bool, error) {
	calc, err := For(p)
	if err != nil {
		return false, err
	}
	return calc.Index(a) == calc.Index(b), nil
}

func dayIndex(t time.Time) int {
	// Civil midnights are exact multiples of a day, so the division never truncates.
	return int(domain.CivilDate(t).Unix() / secondsPerDay)
}

func dayStart(index int) time.Time {
	return time.Unix(int64(index)*secondsPerDay, 0).UTC()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func between(c Calculator, start, end time.Time) int {
	if domain.CivilDate(end).Before(domain.CivilDate(start)) {
		return 0
	}
	return c.Index(end) - c.Index(start) + 1
}

type daily struct{}

func (daily) Periodicity() domain.Periodicity { return domain.Daily }

func (daily) Index(t time.Time) int { return dayIndex(t) }

func (daily) Bounds(index int) domain.Period {
	start := dayStart(index)
	return domain.Period{
		Periodicity: domain.Daily,
		Index:       index,
		Start:       start,
		End:         start.AddDate(0, 0, 1),
	}
}

func (d daily) Between(start, end time.Time) int { return between(d, start, end) }

type weekly struct{}

func (weekly) Periodicity() domain.Periodicity { return domain.Weekly }

func (weekly) Index(t time.Time) int {
	return floorDiv(dayIndex(t)+epochMondayOffset, 7)
}

func (weekly) Bounds(index int) domain.Period {
	start := dayStart(index*7 - epochMondayOffset)
	return domain.Period{
		Periodicity: domain.Weekly,
		Index:       index,
		Start:       start,
		End:         start.AddDate(0, 0, 7),
	}
}

func (w weekly) Between(start, end time.Time) int { return between(w, start, end) }
