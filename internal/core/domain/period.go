package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Period is one half-open interval [Start, End) of a habit's periodicity.
type Period struct {
	Periodicity Periodicity `json:"periodicity"`
	Index       int         `json:"index"`
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`
}

func (p Period) Contains(t time.Time) bool {
	d := CivilDate(t)
	return !d.Before(p.Start) && d.Before(p.End)
}

// Label renders the period as 2024-01-02 for days and 2024-W01 for ISO weeks.
func (p Period) Label() string {
	if p.Periodicity == Weekly {
		year, week := p.Start.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	}
	return p.Start.Format(DateLayout)
}

func (p Period) ISOWeek() (year, week int) {
	return p.Start.ISOWeek()
}

func (p Period) MarshalJSON() ([]byte, error) {
	type alias Period
	return json.Marshal(struct {
		alias
		Label string `json:"label"`
	}{alias(p), p.Label()})
}
