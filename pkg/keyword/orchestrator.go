// Package keyword builds keyword-volume analyses on top of a grounded structured generation
// call, with a quick-tips request running beside it.
package keyword

import (
	"context"
	"errors"
	"strings"
	"time"

	"keywordpulse/pkg/logger"
	"keywordpulse/pkg/provider"
	"keywordpulse/pkg/validation"
)

// User-facing messages. Parse failures and provider failures read differently on purpose so a
// user can tell bad model data from a broken connection.
const (
	MsgSynthesisFailed = "Data synthesis failed. The model could not find reliable search metrics for this query."
	MsgProviderFailed  = "Analysis failed. Please try again."
)

var ErrAnalysisFailed = errors.New("analysis failed")

// AnalysisError wraps either a *validation.ParseError or a provider error.
type AnalysisError struct {
	Message string
	Err     error
}

func (e *AnalysisError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

func (e *AnalysisError) Is(target error) bool {
	return target == ErrAnalysisFailed
}

// SchemaFailure reports whether the provider answered but the body was unusable.
func (e *AnalysisError) SchemaFailure() bool {
	return validation.IsSchema(e.Err)
}

// Provider is the subset of the provider client the orchestrator needs.
type Provider interface {
	GenerateStructured(ctx context.Context, req provider.StructuredRequest) (*provider.StructuredResult, error)
	GenerateText(ctx context.Context, prompt, systemInstruction string) (string, error)
}

// TipsFunc receives quick tips when they arrive. It is called from its own goroutine, at most
// once, and only with non-empty text.
type TipsFunc func(tips string)

type Orchestrator struct {
	provider    Provider
	tipsTimeout time.Duration
	log         *logger.Logger
}

func NewOrchestrator(p Provider) *Orchestrator {
	return &Orchestrator{
		provider:    p,
		tipsTimeout: 60 * time.Second,
		log:         logger.GetLogger().Component("keyword_analysis"),
	}
}

// Analyze runs the grounded structured call for q. Invalid input yields a ValidationError
// without any provider call; every later failure is an *AnalysisError.
func (o *Orchestrator) Analyze(ctx context.Context, q Query) (*Result, error) {
	q, err := NewQuery(q.Keyword, q.Location, string(q.Timeframe))
	if err != nil {
		return nil, err
	}
	return o.analyze(ctx, q)
}

// AnalyzeWithTips validates q, starts the quick-tips request without waiting for it, then runs
// the main analysis. The two complete in no particular order; tips failures are only logged.
func (o *Orchestrator) AnalyzeWithTips(ctx context.Context, q Query, onTips TipsFunc) (*Result, error) {
	q, err := NewQuery(q.Keyword, q.Location, string(q.Timeframe))
	if err != nil {
		return nil, err
	}

	if onTips != nil {
		tipsCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.tipsTimeout)
		go func() {
			defer cancel()
			tips, err := o.QuickTips(tipsCtx, q.Keyword)
			if err != nil {
				o.log.WithError(err).WithField("keyword", q.Keyword).Debug("Quick tips failed")
				return
			}
			if tips != "" {
				onTips(tips)
			}
		}()
	}

	return o.analyze(ctx, q)
}

// QuickTips asks for a few short, ungrounded tips.
func (o *Orchestrator) QuickTips(ctx context.Context, keyword string) (string, error) {
	kw, err := validation.Required("keyword", keyword)
	if err != nil {
		return "", err
	}
	tips, err := o.provider.GenerateText(ctx, TipsPrompt(kw), "")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(tips), nil
}

func (o *Orchestrator) analyze(ctx context.Context, q Query) (*Result, error) {
	log := o.log.WithFields(map[string]interface{}{
		"keyword":   q.Keyword,
		"location":  q.Location,
		"timeframe": q.Timeframe,
	})
	log.Debug("Starting keyword analysis")

	res, err := o.provider.GenerateStructured(ctx, provider.StructuredRequest{
		Prompt:                Prompt(q),
		SystemInstruction:     SystemInstruction(),
		Schema:                ResponseSchema(),
		EnableSearchGrounding: true,
	})
	if err != nil {
		log.WithError(err).Warn("Keyword analysis request failed")
		return nil, &AnalysisError{Message: MsgProviderFailed, Err: err}
	}

	payload, err := parsePayload(res.RawJSON)
	if err != nil {
		log.WithError(err).Warn("Keyword analysis payload rejected")
		return nil, &AnalysisError{Message: MsgSynthesisFailed, Err: err}
	}

	result, err := buildResult(q, payload, res.Citations)
	if err != nil {
		log.WithError(err).Warn("Keyword analysis trend rejected")
		return nil, &AnalysisError{Message: MsgSynthesisFailed, Err: err}
	}
	log.WithFields(map[string]interface{}{
		"volume":  result.Volume,
		"sources": len(result.Sources),
	}).Info("Keyword analysis completed")
	return result, nil
}
