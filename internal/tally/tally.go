// Package tally computes poll results from recorded votes.
package tally

import "math"

// OptionCount is the result line for a single poll option. Percent is rounded
// to a whole number per option, so a result's percentages may not sum to 100.
type OptionCount struct {
	Option  string `json:"option"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

// Result is a full tally for one poll. Leader is nil when no votes have been
// cast; on a tie the option declared first on the poll wins.
type Result struct {
	Total   int           `json:"total"`
	Options []OptionCount `json:"options"`
	Leader  *string       `json:"leader"`
}

// Count tallies selections against the declared options. Selections that do
// not match any declared option are ignored; options with zero votes still
// appear in the result. The output is recomputed from scratch every call.
func Count(options []string, selections []string) Result {
	counts := make(map[string]int, len(options))
	valid := make(map[string]bool, len(options))
	for _, option := range options {
		valid[option] = true
	}

	total := 0
	for _, selection := range selections {
		if !valid[selection] {
			continue
		}
		counts[selection]++
		total++
	}

	result := Result{Total: total, Options: make([]OptionCount, 0, len(options))}
	best := -1
	for _, option := range options {
		count := counts[option]
		percent := 0
		if total > 0 {
			percent = int(math.Round(float64(count) / float64(total) * 100))
		}
		result.Options = append(result.Options, OptionCount{Option: option, Count: count, Percent: percent})
		if total > 0 && count > best {
			best = count
			leader := option
			result.Leader = &leader
		}
	}
	return result
}
