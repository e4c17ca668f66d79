package keyword

import (
	"fmt"
	"strconv"
	"strings"

	"keywordpulse/pkg/provider"
)

func formatDivisor(d float64) string {
	return strconv.FormatFloat(d, 'f', -1, 64)
}

// SystemInstruction tells the model how to derive every field, including the scaling rule and
// the requirement that trend values share the volume's scale.
func SystemInstruction() string {
	var b strings.Builder
	b.WriteString("You are a professional SEO data engine. Report keyword volume metrics as exact numbers.\n\n")
	b.WriteString("STEP 1: Use Google Search to find the monthly search volume (MSV) of the keyword in the requested location.\n")
	b.WriteString("STEP 2: Scale MSV to the requested timeframe and output the result as \"volume\":\n")
	fmt.Fprintf(&b, "- %s: divide the monthly search volume by %s.\n", Daily, formatDivisor(DailyDivisor))
	fmt.Fprintf(&b, "- %s: divide the monthly search volume by %s.\n", Weekly, formatDivisor(WeeklyDivisor))
	fmt.Fprintf(&b, "- %s: use the monthly search volume unchanged.\n", Monthly)
	fmt.Fprintf(&b, "STEP 3: Produce exactly %d \"trend\" points, oldest first. ", TrendPoints)
	b.WriteString("Every trend value MUST be on the same scale as the scaled \"volume\". ")
	b.WriteString("If the daily volume is 50, trend values are around 50 (45, 52, 48), never around 1500.\n")
	b.WriteString("STEP 4: Rate competition as exactly one of Low, Medium or High and give a short strategic analysis.\n")
	b.WriteString("STEP 5: Respond with JSON only, matching the response schema. No prose outside the JSON.")
	return b.String()
}

// Prompt is the user turn for one query. It repeats the scaling rule for the chosen timeframe.
func Prompt(q Query) string {
	rule := "use the monthly search volume unchanged"
	if q.Timeframe != Monthly {
		rule = fmt.Sprintf("monthly search volume / %s", formatDivisor(q.Timeframe.Divisor()))
	}
	return fmt.Sprintf(
		"Analyze the keyword %q for the location %q.\n"+
			"The user requested data on a %s scale (%s).\n"+
			"Calculate the numerical volume from search-grounded metrics and return %d trend points on that same %s scale.",
		q.Keyword, q.Location, q.Timeframe, rule, TrendPoints, q.Timeframe)
}

// TipsPrompt is the fast, ungrounded side request.
func TipsPrompt(keyword string) string {
	return fmt.Sprintf("Give me 3 punchy SEO tips for %q.", keyword)
}

// ResponseSchema declares the structured payload the model must return.
func ResponseSchema() *provider.Schema {
	return &provider.Schema{
		Type: provider.TypeObject,
		Properties: map[string]*provider.Schema{
			"volume": {
				Type:        provider.TypeNumber,
				Description: "The calculated volume for the requested interval.",
			},
			"competition": {
				Type: provider.TypeString,
				Enum: []string{string(CompetitionLow), string(CompetitionMedium), string(CompetitionHigh)},
			},
			"analysis": {Type: provider.TypeString},
			"trend": {
				Type:        provider.TypeArray,
				Description: fmt.Sprintf("Exactly %d points on the same scale as volume.", TrendPoints),
				Items: &provider.Schema{
					Type: provider.TypeObject,
					Properties: map[string]*provider.Schema{
						"date":  {Type: provider.TypeString},
						"value": {Type: provider.TypeNumber},
					},
					PropertyOrdering: []string{"date", "value"},
					Required:         []string{"date", "value"},
				},
			},
		},
		PropertyOrdering: []string{"volume", "competition", "analysis", "trend"},
		Required:         []string{"volume", "competition", "analysis", "trend"},
	}
}
