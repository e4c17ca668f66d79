package keyword

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"keywordpulse/pkg/provider"
	"keywordpulse/pkg/validation"
)

// maxScaleRatio is how far the trend mean may drift from volume before the trend is rescaled.
const maxScaleRatio = 10.0

type trendPayload struct {
	Date  string   `json:"date" validate:"required"`
	Value *float64 `json:"value" validate:"required,gte=0"`
}

type analysisPayload struct {
	Volume      *float64       `json:"volume" validate:"required,gte=0"`
	Competition string         `json:"competition" validate:"required,oneof=Low Medium High"`
	Analysis    string         `json:"analysis" validate:"required"`
	Trend       []trendPayload `json:"trend" validate:"len=7,dive"`
}

// normalizeCompetition accepts any casing of the three levels. Anything else is left as is and
// fails validation.
func normalizeCompetition(s string) string {
	s = strings.TrimSpace(s)
	switch c := cases.Title(language.English).String(strings.ToLower(s)); Competition(c) {
	case CompetitionLow, CompetitionMedium, CompetitionHigh:
		return c
	}
	return s
}

// parsePayload decodes and validates the structured body. Every failure is a *validation.ParseError.
func parsePayload(raw string) (*analysisPayload, error) {
	var p analysisPayload
	if err := validation.DecodeJSON(raw, &p); err != nil {
		return nil, err
	}
	p.Competition = normalizeCompetition(p.Competition)
	if err := validation.Struct(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// alignTrend keeps the trend on the volume's scale. When the mean of the trend is more than
// maxScaleRatio away from volume, every point is multiplied by volume/mean so the shape is kept
// and the magnitude matches. Afterwards every single point must lie within maxScaleRatio of
// volume; a zero volume only admits an all-zero trend. Anything else is a ParseError.
func alignTrend(volume float64, trend []TrendPoint) ([]TrendPoint, error) {
	if len(trend) == 0 {
		return trend, nil
	}
	if volume == 0 {
		for _, p := range trend {
			if p.Value != 0 {
				return nil, &validation.ParseError{Reason: fmt.Sprintf("trend point %s is %g but volume is 0", p.Date, p.Value)}
			}
		}
		return trend, nil
	}

	var sum float64
	for _, p := range trend {
		sum += p.Value
	}
	out := trend
	if mean := sum / float64(len(trend)); mean > 0 && outOfScale(mean, volume) {
		factor := volume / mean
		out = make([]TrendPoint, len(trend))
		for i, p := range trend {
			out[i] = TrendPoint{Date: p.Date, Value: math.Round(p.Value*factor*100) / 100}
		}
	}

	for _, p := range out {
		if outOfScale(p.Value, volume) {
			return nil, &validation.ParseError{Reason: fmt.Sprintf("trend point %s (%g) is not on the scale of volume %g", p.Date, p.Value, volume)}
		}
	}
	return out, nil
}

// outOfScale reports whether v is more than maxScaleRatio above or below volume.
func outOfScale(v, volume float64) bool {
	ratio := v / volume
	return ratio > maxScaleRatio || ratio < 1/maxScaleRatio
}

// dedupeSources keeps the first citation for each URI, in response order. Never returns nil.
func dedupeSources(citations []provider.Citation) []Source {
	out := make([]Source, 0, len(citations))
	seen := make(map[string]struct{}, len(citations))
	for _, c := range citations {
		if c.URI == "" {
			continue
		}
		if _, ok := seen[c.URI]; ok {
			continue
		}
		seen[c.URI] = struct{}{}
		title := strings.TrimSpace(c.Title)
		if title == "" {
			title = c.URI
		}
		out = append(out, Source{URI: c.URI, Title: title})
	}
	return out
}

func buildResult(q Query, p *analysisPayload, citations []provider.Citation) (*Result, error) {
	trend := make([]TrendPoint, len(p.Trend))
	for i, t := range p.Trend {
		trend[i] = TrendPoint{Date: t.Date, Value: *t.Value}
	}
	trend, err := alignTrend(*p.Volume, trend)
	if err != nil {
		return nil, err
	}
	return &Result{
		Keyword:     q.Keyword,
		Location:    q.Location,
		Timeframe:   q.Timeframe,
		Volume:      *p.Volume,
		Competition: Competition(p.Competition),
		Analysis:    strings.TrimSpace(p.Analysis),
		Trend:       trend,
		Sources:     dedupeSources(citations),
	}, nil
}
