package output

import (
	"strconv"

	"github.com/fatih/color"

	"keywordpulse/pkg/chat"
	"keywordpulse/pkg/keyword"
)

// CompetitionBadge colors the competition level: green for Low, yellow for Medium, red for High.
func (p *Printer) CompetitionBadge(c keyword.Competition) string {
	if !p.useColors {
		return "[" + string(c) + "]"
	}
	switch c {
	case keyword.CompetitionLow:
		return color.GreenString(string(c))
	case keyword.CompetitionMedium:
		return color.YellowString(string(c))
	case keyword.CompetitionHigh:
		return color.RedString(string(c))
	default:
		return string(c)
	}
}

// Result prints an analysis: headline numbers, the written analysis, the trend and sources.
func (p *Printer) Result(r *keyword.Result) error {
	p.Header(r.Keyword + " in " + r.Location)
	p.Print("%s %s", p.Bold("Volume ("+string(r.Timeframe)+"):"), FormatVolume(r.Volume))
	p.Print("%s %s", p.Bold("Competition:"), p.CompetitionBadge(r.Competition))

	if r.Analysis != "" {
		p.Header("Analysis")
		p.Print("%s", r.Analysis)
	}

	if len(r.Trend) > 0 {
		p.Header("Trend")
		t := NewTable(p.out, []string{"Date", "Value"})
		for _, pt := range r.Trend {
			t.AddRow([]string{pt.Date, FormatVolume(pt.Value)})
		}
		if err := t.Render(); err != nil {
			return err
		}
	}

	p.Header("Sources")
	if len(r.Sources) == 0 {
		p.Print("%s", p.Dim("no grounding sources"))
		return nil
	}
	t := NewTable(p.out, []string{"Title", "URI"})
	for _, s := range r.Sources {
		t.AddRow([]string{s.Title, s.URI})
	}
	return t.Render()
}

func (p *Printer) Tips(tips string) {
	p.Header("Quick tips")
	p.Print("%s", tips)
}

// ChatMessage prints one chat line prefixed by its speaker.
func (p *Printer) ChatMessage(m chat.Message) {
	if m.Role == chat.RoleUser {
		p.Print("%s %s", p.Bold("you:"), m.Text)
		return
	}
	if p.useColors {
		p.Print("%s %s", color.New(color.FgMagenta, color.Bold).Sprint("expert:"), m.Text)
		return
	}
	p.Print("expert: %s", m.Text)
}

// FormatVolume renders whole numbers without decimals and everything else with two.
func FormatVolume(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
