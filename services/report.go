package services

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"home-rush/models"
	"home-rush/utils"
)

// BotSummary is a point-in-time copy of one bot's counters.
type BotSummary struct {
	Bot        string
	StartedAt  time.Time
	Polls      int
	EmptyPolls int
	Parsed     int
	Matched    int
	Replied    int
	Failed     int
	Replies    []models.HousingOffer
}

// RunStats counts what one bot's monitor loop did. It is written by the
// bot goroutine and read by main after the pool drains.
type RunStats struct {
	mu sync.Mutex
	BotSummary
}

// NewRunStats starts the clock for bot.
func NewRunStats(bot string) *RunStats {
	return &RunStats{BotSummary: BotSummary{Bot: bot, StartedAt: time.Now()}}
}

// RecordPoll adds one completed poll with its parsed and matched counts.
func (s *RunStats) RecordPoll(parsed, matched int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Polls++
	s.Parsed += parsed
	s.Matched += matched
}

// RecordEmpty adds one poll that hit the site's empty state.
func (s *RunStats) RecordEmpty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Polls++
	s.EmptyPolls++
}

// RecordReply adds one reply attempt; a nil err counts as replied.
func (s *RunStats) RecordReply(offer models.HousingOffer, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.Failed++
		return
	}
	s.Replied++
	s.Replies = append(s.Replies, offer)
}

// Summary returns a copy of the counters.
func (s *RunStats) Summary() BotSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := s.BotSummary
	sum.Replies = append([]models.HousingOffer(nil), s.Replies...)
	return sum
}

// Report is the shutdown summary across all bots.
type Report struct {
	Bots            []BotSummary
	TotalReplied    int
	TotalFailed     int
	AverageRent     float64
	MinRent         float64
	MaxRent         float64
	Cheapest        *models.HousingOffer
	RepliesByCity   map[string]int
	RepliesByStreet map[string]int
}

type ReportService struct {
	logger *utils.Logger
}

func NewReportService(logger *utils.Logger) *ReportService {
	return &ReportService{logger: logger}
}

// Generate aggregates the per-bot stats. Rent figures only consider
// replied offers with a known monthly price.
func (r *ReportService) Generate(stats []*RunStats) *Report {
	report := &Report{
		RepliesByCity:   make(map[string]int),
		RepliesByStreet: make(map[string]int),
	}

	var rents []models.HousingOffer
	for _, s := range stats {
		snap := s.Summary()
		report.Bots = append(report.Bots, snap)
		report.TotalReplied += snap.Replied
		report.TotalFailed += snap.Failed

		for _, o := range snap.Replies {
			if o.Address.City != "" {
				report.RepliesByCity[o.Address.City]++
			}
			if o.Address.Street != "" {
				report.RepliesByStreet[o.Address.Street]++
			}
			if o.MonthlyPrice > 0 {
				rents = append(rents, o)
			}
		}
	}

	if len(rents) == 0 {
		return report
	}

	cheapest := rents[0]
	report.MinRent = rents[0].MonthlyPrice
	report.MaxRent = rents[0].MonthlyPrice
	var total float64
	for _, o := range rents {
		total += o.MonthlyPrice
		if o.MonthlyPrice < report.MinRent {
			report.MinRent = o.MonthlyPrice
			cheapest = o
		}
		if o.MonthlyPrice > report.MaxRent {
			report.MaxRent = o.MonthlyPrice
		}
	}
	report.Cheapest = &cheapest
	report.AverageRent = round2(total / float64(len(rents)))
	report.MinRent = round2(report.MinRent)
	report.MaxRent = round2(report.MaxRent)

	return report
}

func (r *ReportService) Print(rep *Report) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  HOME RUSH SESSION SUMMARY\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Bots\033[0m\n")
	fmt.Printf("  %s\n", thin)
	for _, b := range rep.Bots {
		fmt.Printf("  %-14s polls %4d (empty %d) | parsed %4d | matched %3d | replied %3d | failed %3d | up %s\n",
			b.Bot, b.Polls, b.EmptyPolls, b.Parsed, b.Matched, b.Replied, b.Failed,
			time.Since(b.StartedAt).Truncate(time.Second))
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Replies\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Replied : \033[1;32m%d\033[0m\n", rep.TotalReplied)
	fmt.Printf("  Failed  : \033[1;31m%d\033[0m\n", rep.TotalFailed)
	if rep.AverageRent > 0 {
		fmt.Printf("  Average rent : €%.2f p/m\n", rep.AverageRent)
		fmt.Printf("  Lowest rent  : €%.2f p/m\n", rep.MinRent)
		fmt.Printf("  Highest rent : €%.2f p/m\n", rep.MaxRent)
	}
	if rep.Cheapest != nil {
		fmt.Printf("  Cheapest     : %s %s, %s\n",
			rep.Cheapest.Address.Street, rep.Cheapest.Address.Number, rep.Cheapest.Address.City)
	}
	fmt.Println()

	if len(rep.RepliesByCity) > 0 {
		fmt.Printf("\033[1;33m  Replies by City\033[0m\n")
		fmt.Printf("  %s\n", thin)
		printCounts(rep.RepliesByCity)
		fmt.Println()
	}
	if len(rep.RepliesByStreet) > 0 {
		fmt.Printf("\033[1;33m  Replies by Complex\033[0m\n")
		fmt.Printf("  %s\n", thin)
		printCounts(rep.RepliesByStreet)
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func printCounts(counts map[string]int) {
	type kv struct {
		key   string
		count int
	}
	var rows []kv
	for k, c := range counts {
		rows = append(rows, kv{k, c})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].key < rows[j].key
	})
	for _, r := range rows {
		fmt.Printf("  %-30s %s (%d)\n", truncate(r.key, 28), strings.Repeat("█", r.count), r.count)
	}
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
