package cli

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"keywordpulse/pkg/keyword"
)

type analyzeOptions struct {
	keyword   string
	location  string
	timeframe string
	tipsWait  time.Duration
	json      bool
}

func newAnalyzeCommand(a *app) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Estimate search volume, competition and trend for a keyword",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, a, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.keyword, "keyword", "k", "", "keyword to analyze")
	cmd.Flags().StringVarP(&opts.location, "location", "l", "", "market or location, e.g. \"New York\"")
	cmd.Flags().StringVarP(&opts.timeframe, "timeframe", "t", string(keyword.Monthly), "daily, weekly or monthly")
	cmd.Flags().DurationVar(&opts.tipsWait, "tips-wait", 10*time.Second, "how long to wait for quick tips after the analysis")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the result as JSON")
	return cmd
}

func runAnalyze(cmd *cobra.Command, a *app, opts *analyzeOptions) error {
	q, err := keyword.NewQuery(opts.keyword, opts.location, opts.timeframe)
	if err != nil {
		return err
	}

	tips := make(chan string, 1)
	orch := keyword.NewOrchestrator(a.client)
	result, err := orch.AnalyzeWithTips(cmd.Context(), q, func(t string) {
		tips <- t
	})
	if err != nil {
		var ae *keyword.AnalysisError
		if errors.As(err, &ae) {
			a.printer.Error("%s", ae.Message)
		}
		return err
	}

	if opts.json {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		out := struct {
			*keyword.Result
			Tips string `json:"tips,omitempty"`
		}{Result: result, Tips: waitTips(tips, opts.tipsWait)}
		return enc.Encode(out)
	}

	if err := a.printer.Result(result); err != nil {
		return err
	}
	if t := waitTips(tips, opts.tipsWait); t != "" {
		a.printer.Tips(t)
	}
	return nil
}

// waitTips returns the tips if they arrive within wait. Tips never arrive when their request
// failed, so an empty string after the wait is normal.
func waitTips(tips <-chan string, wait time.Duration) string {
	select {
	case t := <-tips:
		return t
	default:
	}
	if wait <= 0 {
		return ""
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case t := <-tips:
		return t
	case <-timer.C:
		return ""
	}
}
