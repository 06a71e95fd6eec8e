package simulate

import (
	"fmt"
	"math"
)

// checkResult reports the ways res breaks the scoring contract.
func checkResult(res Result, stepUp, reject float64) []string {
	var out []string
	want := math.Max(res.WeightedScore, res.ConditionScore)
	if math.Abs(res.FinalScore-want) > scoreTolerance {
		out = append(out, fmt.Sprintf("%s: final %.2f != max(%.2f, %.2f)",
			res.TransactionID, res.FinalScore, res.WeightedScore, res.ConditionScore))
	}
	if d := expectedDecision(res.FinalScore, stepUp, reject); d != res.Decision {
		out = append(out, fmt.Sprintf("%s: decision %s for score %.2f, want %s",
			res.TransactionID, res.Decision, res.FinalScore, d))
	}
	return out
}

func expectedDecision(score, stepUp, reject float64) string {
	switch {
	case score < stepUp:
		return "ACCEPT"
	case score <= reject:
		return "STEP_UP"
	default:
		return "REJECT"
	}
}

// checkHistory compares an identifier's audit records against what the run
// got back. baseline is the record count seen before the run. The count
// is not checked once the history reaches historyLimit.
func checkHistory(identifier string, records []AuditEntry, baseline int, audited map[string]Result) []string {
	var out []string
	if got, want := len(records)-baseline, len(audited); len(records) < historyLimit && got != want {
		out = append(out, fmt.Sprintf("%s: %d new audit records, want %d", identifier, got, want))
	}

	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		seen[rec.ID] = true
		res, ok := audited[rec.Transaction.ID]
		if !ok {
			continue
		}
		if rec.ID != res.RecordID {
			out = append(out, fmt.Sprintf("%s: record id %s, response said %s", rec.Transaction.ID, rec.ID, res.RecordID))
		}
		if rec.Breakdown.Decision != res.Decision || math.Abs(rec.Breakdown.FinalScore-res.FinalScore) > scoreTolerance {
			out = append(out, fmt.Sprintf("%s: audited %s/%.2f, response %s/%.2f", rec.Transaction.ID,
				rec.Breakdown.Decision, rec.Breakdown.FinalScore, res.Decision, res.FinalScore))
		}
	}
	for txID, res := range audited {
		if !seen[res.RecordID] {
			out = append(out, fmt.Sprintf("%s: record %s missing from audit log", txID, res.RecordID))
		}
	}
	return out
}
