package keyword

import (
	"fmt"
	"strings"

	"keywordpulse/pkg/validation"
)

type Timeframe string

const (
	Daily   Timeframe = "daily"
	Weekly  Timeframe = "weekly"
	Monthly Timeframe = "monthly"
)

// Divisors that turn a monthly search-volume baseline into the requested interval.
const (
	DailyDivisor   = 30.0
	WeeklyDivisor  = 4.3
	MonthlyDivisor = 1.0
)

// TrendPoints is the number of trend entries every result carries.
const TrendPoints = 7

func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(strings.ToLower(strings.TrimSpace(s)))
	if tf == "" {
		return Monthly, nil
	}
	if err := validation.OneOf("timeframe", string(tf), string(Daily), string(Weekly), string(Monthly)); err != nil {
		return "", err
	}
	return tf, nil
}

// Divisor returns the denominator applied to the monthly baseline.
func (t Timeframe) Divisor() float64 {
	switch t {
	case Daily:
		return DailyDivisor
	case Weekly:
		return WeeklyDivisor
	default:
		return MonthlyDivisor
	}
}

// Scale converts a monthly baseline to this timeframe.
func (t Timeframe) Scale(monthly float64) float64 {
	return monthly / t.Divisor()
}

type Competition string

const (
	CompetitionLow    Competition = "Low"
	CompetitionMedium Competition = "Medium"
	CompetitionHigh   Competition = "High"
)

// Query is the validated input to one analysis.
type Query struct {
	Keyword   string    `json:"keyword"`
	Location  string    `json:"location"`
	Timeframe Timeframe `json:"timeframe"`
}

// NewQuery trims and checks the raw form values. It never touches the network.
func NewQuery(keyword, location, timeframe string) (Query, error) {
	kw, err := validation.Required("keyword", keyword)
	if err != nil {
		return Query{}, err
	}
	loc, err := validation.Required("location", location)
	if err != nil {
		return Query{}, err
	}
	tf, err := ParseTimeframe(timeframe)
	if err != nil {
		return Query{}, err
	}
	return Query{Keyword: kw, Location: loc, Timeframe: tf}, nil
}

func (q Query) String() string {
	return fmt.Sprintf("%q in %q (%s)", q.Keyword, q.Location, q.Timeframe)
}

type TrendPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Result is one complete analysis. Trend values share the unit and timeframe of Volume.
type Result struct {
	Keyword     string       `json:"keyword"`
	Location    string       `json:"location"`
	Timeframe   Timeframe    `json:"timeframe"`
	Volume      float64      `json:"volume"`
	Competition Competition  `json:"competition"`
	Analysis    string       `json:"analysis"`
	Trend       []TrendPoint `json:"trend"`
	Sources     []Source     `json:"sources"`
}
