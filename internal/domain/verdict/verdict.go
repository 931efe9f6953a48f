// Package verdict implements the arbitration rules that reduce a set of
// reporter results into a single release decision. The reduction is a pure
// function of its input so that every arbiter instance, replay, and test
// computes the same decision from the same results.
package verdict

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/target/releasegate/internal/domain/model"
)

const (
	rejectThreshold  = 0.4
	approveThreshold = 0.7
)

// Input carries everything the reduction needs. Results holds the merged
// reporter results; Expected, Weights and Blocking come from configuration.
type Input struct {
	JobID    string
	Results  map[string]model.Result
	Expected []string
	Weights  map[string]float64
	Blocking []string
}

// Decide reduces the input to a decision. The rules, in order:
//
//  1. A reject from a blocking authority forces a reject regardless of the
//     weighted score.
//  2. Otherwise the weighted score decides: below 0.4 rejects, below 0.7
//     warns, anything else approves.
//
// Reporters that never reported contribute nothing; the score is
// renormalized over the weights of the reporters that did report, so a
// missing low-weight reporter cannot drag an otherwise clean job into a
// warn.
func Decide(in Input) *model.Decision {
	dec := &model.Decision{
		JobID:     in.JobID,
		Summary:   Summarize(in.Results),
		Missing:   missingReporters(in),
		Score:     Score(in.Results, in.Weights),
		CreatedAt: time.Now().UTC(),
	}

	blockers := blockingRejects(in)
	switch {
	case len(blockers) > 0:
		dec.Verdict = model.VerdictReject
	case dec.Score < rejectThreshold:
		dec.Verdict = model.VerdictReject
	case dec.Score < approveThreshold:
		dec.Verdict = model.VerdictWarn
	default:
		dec.Verdict = model.VerdictApprove
	}

	dec.Explanation = explain(dec, blockers)
	return dec
}

// Score computes the weighted verdict score over the reporters present in
// results, renormalized by the sum of their weights. An empty input or an
// all-zero weight set yields the neutral 0.5.
func Score(results map[string]model.Result, weights map[string]float64) float64 {
	var weighted, total float64
	for reporter, res := range results {
		w, ok := weights[reporter]
		if !ok {
			continue
		}
		weighted += verdictValue(res.Verdict) * res.Confidence * w
		total += w
	}
	if total == 0 {
		return 0.5
	}
	return weighted / total
}

// Summarize flattens the result map into sorted audit entries.
func Summarize(results map[string]model.Result) []model.ResultSummary {
	summary := make([]model.ResultSummary, 0, len(results))
	for _, res := range results {
		summary = append(summary, model.ResultSummary{
			Reporter:   res.Reporter,
			Verdict:    res.Verdict,
			Confidence: res.Confidence,
		})
	}
	sort.Slice(summary, func(i, j int) bool { return summary[i].Reporter < summary[j].Reporter })
	return summary
}

func verdictValue(v model.Verdict) float64 {
	switch v {
	case model.VerdictApprove:
		return 1.0
	case model.VerdictWarn:
		return 0.5
	default:
		return 0.0
	}
}

func blockingRejects(in Input) []string {
	var blockers []string
	for _, name := range in.Blocking {
		if res, ok := in.Results[name]; ok && res.Verdict == model.VerdictReject {
			blockers = append(blockers, name)
		}
	}
	return blockers
}

func missingReporters(in Input) []string {
	var missing []string
	for _, name := range in.Expected {
		if _, ok := in.Results[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func explain(dec *model.Decision, blockers []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Weighted score %.2f from %d reporter(s).", dec.Score, len(dec.Summary))
	for _, s := range dec.Summary {
		fmt.Fprintf(&b, " %s: %s (%.2f).", s.Reporter, s.Verdict, s.Confidence)
	}
	if len(blockers) > 0 {
		fmt.Fprintf(&b, " Blocking reject from %s.", strings.Join(blockers, ", "))
	}
	if len(dec.Missing) > 0 {
		fmt.Fprintf(&b, " No result from %s before the wait deadline.", strings.Join(dec.Missing, ", "))
	}
	return b.String()
}
