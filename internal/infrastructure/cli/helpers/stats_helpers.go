package helpers

import (
	"sort"
	"time"

	"github.com/doeshing/typecopilot/internal/domain"
)

// Statistic is a named occurrence count.
type Statistic struct {
	Name  string
	Count int
}

// HistorySummary aggregates a batch of correction records.
type HistorySummary struct {
	Total       int
	Applied     int
	Fragments   int
	AvgDuration time.Duration
	Outcomes    []Statistic
	Models      []Statistic
	Modes       []Statistic
}

// SummarizeHistory computes counts over records. Top lists are limited to limit
// entries when limit is positive.
func SummarizeHistory(records []domain.CorrectionRecord, limit int) HistorySummary {
	outcomes := make(map[string]int)
	models := make(map[string]int)
	modes := make(map[string]int)

	summary := HistorySummary{Total: len(records)}
	var totalMS int64
	for _, rec := range records {
		if rec.Outcome == domain.Outcome(nil) {
			summary.Applied++
		}
		summary.Fragments += rec.Fragments
		totalMS += rec.DurationMS
		outcomes[rec.Outcome]++
		if rec.Model != "" {
			models[rec.Model]++
		}
		modes[string(rec.Mode)]++
	}
	if len(records) > 0 {
		summary.AvgDuration = time.Duration(totalMS/int64(len(records))) * time.Millisecond
	}

	summary.Outcomes = CalculateTop(outcomes, limit)
	summary.Models = CalculateTop(models, limit)
	summary.Modes = CalculateTop(modes, limit)
	return summary
}

// CalculateTop returns the top N most frequent names.
// If limit is 0 or negative, returns all names
func CalculateTop(frequency map[string]int, limit int) []Statistic {
	stats := convertFrequencyMapToStatistics(frequency)
	sortStatisticsByFrequency(stats)

	if shouldLimitResults(limit, len(stats)) {
		return stats[:limit]
	}
	return stats
}

// convertFrequencyMapToStatistics converts a map to a slice of Statistic
func convertFrequencyMapToStatistics(frequency map[string]int) []Statistic {
	stats := make([]Statistic, 0, len(frequency))
	for name, count := range frequency {
		stats = append(stats, Statistic{
			Name:  name,
			Count: count,
		})
	}
	return stats
}

// sortStatisticsByFrequency sorts statistics by count (descending) then by name (ascending)
func sortStatisticsByFrequency(stats []Statistic) {
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count == stats[j].Count {
			return stats[i].Name < stats[j].Name
		}
		return stats[i].Count > stats[j].Count
	})
}

// shouldLimitResults checks if we should limit the results based on the limit and actual length
func shouldLimitResults(limit int, actualLength int) bool {
	return limit > 0 && actualLength > limit
}

// CalculateSuccessRate calculates the success rate as a percentage
func CalculateSuccessRate(successfulCount int, totalCount int) float64 {
	if totalCount == 0 {
		return 0.0
	}
	return float64(successfulCount) / float64(totalCount) * 100.0
}
