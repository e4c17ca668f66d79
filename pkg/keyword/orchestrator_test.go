package keyword

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keywordpulse/pkg/provider"
	"keywordpulse/pkg/validation"
)

type stubProvider struct {
	mu          sync.Mutex
	structured  []provider.StructuredRequest
	textPrompts []string

	raw       string
	citations []provider.Citation
	structErr error
	tips      string
	tipsErr   error

	structGate chan struct{}
	tipsGate   chan struct{}
}

func (s *stubProvider) GenerateStructured(ctx context.Context, req provider.StructuredRequest) (*provider.StructuredResult, error) {
	s.mu.Lock()
	s.structured = append(s.structured, req)
	s.mu.Unlock()
	if s.structGate != nil {
		<-s.structGate
	}
	if s.structErr != nil {
		return nil, s.structErr
	}
	return &provider.StructuredResult{RawJSON: s.raw, Citations: s.citations}, nil
}

func (s *stubProvider) GenerateText(ctx context.Context, prompt, systemInstruction string) (string, error) {
	s.mu.Lock()
	s.textPrompts = append(s.textPrompts, prompt)
	s.mu.Unlock()
	if s.tipsGate != nil {
		<-s.tipsGate
	}
	return s.tips, s.tipsErr
}

func (s *stubProvider) calls() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.structured), len(s.textPrompts)
}

func payloadJSON(volume float64, competition string, values ...float64) string {
	points := make([]string, len(values))
	for i, v := range values {
		points[i] = fmt.Sprintf(`{"date":"W%d","value":%g}`, i+1, v)
	}
	return fmt.Sprintf(`{"volume":%g,"competition":%q,"analysis":"Solid intent.","trend":[%s]}`,
		volume, competition, strings.Join(points, ","))
}

func sevenAround(v float64) []float64 {
	return []float64{v * 0.95, v * 1.02, v, v * 1.05, v * 0.98, v * 1.01, v}
}

func TestAnalyze_EmptyInputNeverCallsProvider(t *testing.T) {
	stub := &stubProvider{raw: payloadJSON(1, "Low", sevenAround(1)...)}
	o := NewOrchestrator(stub)

	cases := []Query{
		{Keyword: "", Location: "US", Timeframe: Monthly},
		{Keyword: "x", Location: "", Timeframe: Monthly},
		{Keyword: "   ", Location: "US", Timeframe: Monthly},
	}
	for _, q := range cases {
		_, err := o.Analyze(context.Background(), q)
		require.Error(t, err)
		assert.True(t, validation.IsValidation(err), "expected ValidationError, got %v", err)
		assert.False(t, errors.Is(err, ErrAnalysisFailed))

		_, err = o.AnalyzeWithTips(context.Background(), q, func(string) { t.Error("tips must not be requested") })
		require.Error(t, err)
		assert.True(t, validation.IsValidation(err))
	}

	structured, text := stub.calls()
	assert.Zero(t, structured)
	assert.Zero(t, text)
}

func TestAnalyze_EndToEndMonthly(t *testing.T) {
	stub := &stubProvider{raw: payloadJSON(1000, "Low", sevenAround(1000)...)}
	o := NewOrchestrator(stub)

	res, err := o.Analyze(context.Background(), Query{Keyword: "cloud security", Location: "New York", Timeframe: Monthly})
	require.NoError(t, err)

	assert.Equal(t, "cloud security", res.Keyword)
	assert.Equal(t, "New York", res.Location)
	assert.Equal(t, 1000.0, res.Volume)
	assert.Equal(t, CompetitionLow, res.Competition)
	assert.Equal(t, "Solid intent.", res.Analysis)
	assert.Len(t, res.Trend, TrendPoints)
	require.NotNil(t, res.Sources)
	assert.Empty(t, res.Sources)

	for _, p := range res.Trend {
		assert.InDelta(t, 1000, p.Value, 100, "trend must stay on the volume scale")
	}
}

func TestAnalyze_RequestShape(t *testing.T) {
	stub := &stubProvider{raw: payloadJSON(10, "High", sevenAround(10)...)}
	o := NewOrchestrator(stub)

	_, err := o.Analyze(context.Background(), Query{Keyword: "seo", Location: "Berlin", Timeframe: Weekly})
	require.NoError(t, err)

	require.Len(t, stub.structured, 1)
	req := stub.structured[0]
	assert.True(t, req.EnableSearchGrounding)
	require.NotNil(t, req.Schema)
	assert.ElementsMatch(t, []string{"volume", "competition", "analysis", "trend"}, req.Schema.Required)
	assert.Equal(t, []string{"Low", "Medium", "High"}, req.Schema.Properties["competition"].Enum)
	assert.Equal(t, provider.TypeArray, req.Schema.Properties["trend"].Type)
	assert.Contains(t, req.SystemInstruction, "same scale")
	assert.Contains(t, req.SystemInstruction, "JSON only")
	assert.Contains(t, req.Prompt, `"seo"`)
	assert.Contains(t, req.Prompt, `"Berlin"`)
}

func TestScalingLaw(t *testing.T) {
	const monthly = 3000.0
	assert.InDelta(t, monthly/30, Daily.Scale(monthly), 1e-9)
	assert.InDelta(t, monthly/4.3, Weekly.Scale(monthly), 1e-9)
	assert.Equal(t, monthly, Monthly.Scale(monthly))

	instruction := SystemInstruction()
	assert.Contains(t, instruction, "daily: divide the monthly search volume by 30.")
	assert.Contains(t, instruction, "weekly: divide the monthly search volume by 4.3.")
	assert.Contains(t, instruction, "monthly: use the monthly search volume unchanged.")

	tests := []struct {
		tf   Timeframe
		want string
	}{
		{Daily, "monthly search volume / 30"},
		{Weekly, "monthly search volume / 4.3"},
		{Monthly, "use the monthly search volume unchanged"},
	}
	for _, tt := range tests {
		stub := &stubProvider{raw: payloadJSON(tt.tf.Scale(monthly), "Medium", sevenAround(tt.tf.Scale(monthly))...)}
		res, err := NewOrchestrator(stub).Analyze(context.Background(), Query{Keyword: "k", Location: "l", Timeframe: tt.tf})
		require.NoError(t, err)
		assert.Contains(t, stub.structured[0].Prompt, tt.want)
		assert.Contains(t, stub.structured[0].Prompt, string(tt.tf)+" scale")
		assert.InDelta(t, tt.tf.Scale(monthly), res.Volume, 1e-6)
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	stub := &stubProvider{
		raw:       payloadJSON(420, "Medium", sevenAround(420)...),
		citations: []provider.Citation{{URI: "https://a.example", Title: "A"}},
	}
	o := NewOrchestrator(stub)
	q := Query{Keyword: "crm", Location: "Paris", Timeframe: Daily}

	first, err := o.Analyze(context.Background(), q)
	require.NoError(t, err)
	second, err := o.Analyze(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAnalyze_SchemaFailures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "Sorry, I could not find data."},
		{"empty body", ""},
		{"missing volume", `{"competition":"Low","analysis":"a","trend":[]}`},
		{"short trend", payloadJSON(10, "Low", 1, 2, 3)},
		{"long trend", payloadJSON(10, "Low", 1, 2, 3, 4, 5, 6, 7, 8)},
		{"unknown competition", payloadJSON(10, "Extreme", sevenAround(10)...)},
		{"negative volume", payloadJSON(-5, "Low", sevenAround(5)...)},
		{"negative trend point", payloadJSON(1000, "Low", -5000, 1000, 1000, 1000, 1000, 1000, 1)},
		{"zero volume with trend", payloadJSON(0, "Low", sevenAround(1500)...)},
		{"single outlier point", payloadJSON(50, "Low", 50, 48, 52, 50, 49, 51, 3000)},
		{"point far below volume", payloadJSON(1000, "Low", 1000, 990, 1010, 1000, 2, 1000, 1000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOrchestrator(&stubProvider{raw: tt.raw})
			_, err := o.Analyze(context.Background(), Query{Keyword: "k", Location: "l", Timeframe: Monthly})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrAnalysisFailed))

			var aerr *AnalysisError
			require.True(t, errors.As(err, &aerr))
			assert.True(t, aerr.SchemaFailure())
			assert.Equal(t, MsgSynthesisFailed, aerr.Message)
		})
	}
}

func TestAnalyze_ProviderFailure(t *testing.T) {
	perr := &provider.Error{Op: "generateContent", StatusCode: 503, Message: "unavailable"}
	o := NewOrchestrator(&stubProvider{structErr: perr})

	_, err := o.Analyze(context.Background(), Query{Keyword: "k", Location: "l", Timeframe: Monthly})
	require.Error(t, err)

	var aerr *AnalysisError
	require.True(t, errors.As(err, &aerr))
	assert.False(t, aerr.SchemaFailure())
	assert.Equal(t, MsgProviderFailed, aerr.Message)
	assert.True(t, provider.IsProvider(err))
}

func TestAnalyze_CompetitionCoercion(t *testing.T) {
	for _, in := range []string{"HIGH", "high", " High "} {
		o := NewOrchestrator(&stubProvider{raw: payloadJSON(10, in, sevenAround(10)...)})
		res, err := o.Analyze(context.Background(), Query{Keyword: "k", Location: "l", Timeframe: Monthly})
		require.NoError(t, err, in)
		assert.Equal(t, CompetitionHigh, res.Competition)
	}
}

func TestAnalyze_RescalesInconsistentTrend(t *testing.T) {
	// daily volume of 50 with a trend the model left on the monthly scale
	o := NewOrchestrator(&stubProvider{raw: payloadJSON(50, "Low", sevenAround(1500)...)})
	res, err := o.Analyze(context.Background(), Query{Keyword: "k", Location: "l", Timeframe: Daily})
	require.NoError(t, err)

	var sum float64
	for _, p := range res.Trend {
		assert.Less(t, p.Value, 500.0)
		assert.Greater(t, p.Value, 5.0)
		sum += p.Value
	}
	assert.InDelta(t, 50, sum/float64(len(res.Trend)), 0.5)
	assert.Equal(t, "W1", res.Trend[0].Date)
}

func TestAnalyze_ZeroVolumeFlatTrend(t *testing.T) {
	o := NewOrchestrator(&stubProvider{raw: payloadJSON(0, "Low", 0, 0, 0, 0, 0, 0, 0)})
	res, err := o.Analyze(context.Background(), Query{Keyword: "k", Location: "l", Timeframe: Weekly})
	require.NoError(t, err)

	assert.Equal(t, float64(0), res.Volume)
	require.Len(t, res.Trend, TrendPoints)
	for _, p := range res.Trend {
		assert.Equal(t, float64(0), p.Value)
	}
}

func TestAlignTrend_EveryPointOnVolumeScale(t *testing.T) {
	trend := []TrendPoint{{Date: "W1", Value: 100}, {Date: "W2", Value: 900}, {Date: "W3", Value: 1100}}
	got, err := alignTrend(1000, trend)
	require.NoError(t, err)
	assert.Equal(t, trend, got)

	_, err = alignTrend(1000, []TrendPoint{{Date: "W1", Value: 1000}, {Date: "W2", Value: 10001}})
	require.Error(t, err)
	assert.True(t, validation.IsSchema(err))
	assert.Contains(t, err.Error(), "W2")
}

func TestAnalyze_SourcesDeduplicated(t *testing.T) {
	stub := &stubProvider{
		raw: payloadJSON(10, "Low", sevenAround(10)...),
		citations: []provider.Citation{
			{URI: "https://b.example", Title: "B"},
			{URI: "https://a.example", Title: "A"},
			{URI: "https://b.example", Title: "B again"},
			{URI: "", Title: "nothing"},
			{URI: "https://c.example"},
		},
	}
	res, err := NewOrchestrator(stub).Analyze(context.Background(), Query{Keyword: "k", Location: "l", Timeframe: Monthly})
	require.NoError(t, err)
	assert.Equal(t, []Source{
		{URI: "https://b.example", Title: "B"},
		{URI: "https://a.example", Title: "A"},
		{URI: "https://c.example", Title: "https://c.example"},
	}, res.Sources)
}

func TestAnalyzeWithTips_TipsAfterResult(t *testing.T) {
	stub := &stubProvider{
		raw:      payloadJSON(10, "Low", sevenAround(10)...),
		tips:     "  1. Target long-tail.  ",
		tipsGate: make(chan struct{}),
	}
	o := NewOrchestrator(stub)

	got := make(chan string, 1)
	res, err := o.AnalyzeWithTips(context.Background(), Query{Keyword: "k", Location: "l", Timeframe: Monthly}, func(tips string) {
		got <- tips
	})
	require.NoError(t, err)
	require.NotNil(t, res)

	close(stub.tipsGate)
	select {
	case tips := <-got:
		assert.Equal(t, "1. Target long-tail.", tips)
	case <-time.After(2 * time.Second):
		t.Fatal("tips never arrived")
	}
}

func TestAnalyzeWithTips_TipsBeforeResult(t *testing.T) {
	stub := &stubProvider{
		raw:        payloadJSON(10, "Low", sevenAround(10)...),
		tips:       "tips",
		structGate: make(chan struct{}),
	}
	o := NewOrchestrator(stub)

	got := make(chan string, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := o.AnalyzeWithTips(context.Background(), Query{Keyword: "k", Location: "l", Timeframe: Monthly}, func(tips string) {
			got <- tips
		})
		assert.NoError(t, err)
	}()

	select {
	case tips := <-got:
		assert.Equal(t, "tips", tips)
	case <-time.After(2 * time.Second):
		t.Fatal("tips should not wait for the main analysis")
	}
	close(stub.structGate)
	<-done
}

func TestAnalyzeWithTips_TipsFailureSwallowed(t *testing.T) {
	stub := &stubProvider{
		raw:     payloadJSON(10, "Low", sevenAround(10)...),
		tipsErr: errors.New("tips backend down"),
	}
	o := NewOrchestrator(stub)

	res, err := o.AnalyzeWithTips(context.Background(), Query{Keyword: "k", Location: "l", Timeframe: Monthly}, func(string) {
		t.Error("failed tips must not be delivered")
	})
	require.NoError(t, err)
	assert.Equal(t, 10.0, res.Volume)

	assert.Eventually(t, func() bool {
		_, text := stub.calls()
		return text == 1
	}, time.Second, 5*time.Millisecond)
}

func TestNewQuery(t *testing.T) {
	q, err := NewQuery("  cloud   security ", " New York ", "")
	require.NoError(t, err)
	assert.Equal(t, Query{Keyword: "cloud security", Location: "New York", Timeframe: Monthly}, q)

	q, err = NewQuery("k", "l", "WEEKLY")
	require.NoError(t, err)
	assert.Equal(t, Weekly, q.Timeframe)

	_, err = NewQuery("k", "l", "hourly")
	require.Error(t, err)
	assert.True(t, validation.IsValidation(err))
}
