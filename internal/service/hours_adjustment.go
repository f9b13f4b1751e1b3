package service

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shuankun/shuankun-api/internal/models"
)

// Hours assigned by the default rules. 0.67 and 0.83 are kept as the decimal
// approximations of 2/3 and 5/6 so equality checks against stored plans hold.
const (
	EventDayHours      = 0.5
	ShortPeriodHours   = 0.67
	SubjectBalanceHour = 0.83

	balanceFloorHours   = 0.5
	balanceVarianceBand = 2.0
	sameDayClusterLimit = 2

	weeklyHoursUpperBound = 30.0
	weeklyHoursLowerBound = 25.0

	increaseMarker = " (時数調整+)"
	decreaseMarker = " (時数調整-)"
	eventDayMarker = " (行事日調整)"
)

var eventKeywords = []string{"行事", "運動会", "発表会", "式", "参観", "避難訓練", "会議"}

var eventDayPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)運動会|体育祭`),
	regexp.MustCompile(`(?i)発表会|学習発表会`),
	regexp.MustCompile(`(?i)参観|授業参観`),
	regexp.MustCompile(`(?i)式|入学式|卒業式|始業式|終業式`),
	regexp.MustCompile(`(?i)避難訓練`),
	regexp.MustCompile(`(?i)会議|職員会議`),
	regexp.MustCompile(`(?i)研修|校内研修`),
}

// AdjustmentRule is a named, prioritised cell transformation. Condition may
// inspect the whole grid; Adjust returns the new hours value, not a delta.
type AdjustmentRule struct {
	Name        string
	Description string
	Priority    int
	Condition   func(cell models.WeeklyPlanCell, grid []models.WeeklyPlanCell) bool
	Adjust      func(cell models.WeeklyPlanCell) float64
}

// DefaultAdjustmentRules returns the event, shortened period and same-day
// clustering rules in declaration order.
func DefaultAdjustmentRules() []AdjustmentRule {
	return []AdjustmentRule{
		{
			Name:        "event_day_adjustment",
			Description: "行事日の時数調整",
			Priority:    1,
			Condition: func(cell models.WeeklyPlanCell, _ []models.WeeklyPlanCell) bool {
				for _, keyword := range eventKeywords {
					if strings.Contains(cell.Memo, keyword) {
						return true
					}
				}
				return false
			},
			Adjust: func(models.WeeklyPlanCell) float64 { return EventDayHours },
		},
		{
			Name:        "short_period_adjustment",
			Description: "短縮授業日の時数調整",
			Priority:    2,
			Condition: func(cell models.WeeklyPlanCell, _ []models.WeeklyPlanCell) bool {
				return strings.Contains(cell.Memo, "短縮")
			},
			Adjust: func(models.WeeklyPlanCell) float64 { return ShortPeriodHours },
		},
		{
			Name:        "weekly_balance_adjustment",
			Description: "教科バランス調整",
			Priority:    3,
			Condition: func(cell models.WeeklyPlanCell, grid []models.WeeklyPlanCell) bool {
				count := 0
				for _, other := range grid {
					if other.Day == cell.Day && other.SubjectID == cell.SubjectID {
						count++
					}
				}
				return count > sameDayClusterLimit
			},
			Adjust: func(models.WeeklyPlanCell) float64 { return SubjectBalanceHour },
		},
	}
}

// AdjustmentEngine applies an ordered rule list to weekly plan grids.
// It holds no per-call state and is safe for concurrent use.
type AdjustmentEngine struct {
	rules []AdjustmentRule
}

// NewAdjustmentEngine sorts rules by ascending priority, keeping declaration
// order for ties. With no rules it uses DefaultAdjustmentRules.
func NewAdjustmentEngine(rules ...AdjustmentRule) *AdjustmentEngine {
	if len(rules) == 0 {
		rules = DefaultAdjustmentRules()
	}
	sorted := make([]AdjustmentRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })
	return &AdjustmentEngine{rules: sorted}
}

// Rules returns the rules in application order.
func (e *AdjustmentEngine) Rules() []AdjustmentRule {
	out := make([]AdjustmentRule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Adjust returns an adjusted copy of grid; the input slice is never modified.
// Each rule walks the progressively adjusted grid once. When targets are given,
// a subject balance pass then moves hours toward them, first-fit in grid order.
// Annotations are appended to memos, so feeding the output back in annotates
// again: callers run Adjust once per edit.
func (e *AdjustmentEngine) Adjust(grid []models.WeeklyPlanCell, targets []models.SubjectTarget) []models.WeeklyPlanCell {
	adjusted := make([]models.WeeklyPlanCell, len(grid))
	copy(adjusted, grid)

	for _, rule := range e.rules {
		if rule.Condition == nil || rule.Adjust == nil {
			continue
		}
		for i := range adjusted {
			if !rule.Condition(adjusted[i], adjusted) {
				continue
			}
			adjusted[i].Hours = rule.Adjust(adjusted[i])
			adjusted[i].Memo = annotate(adjusted[i].Memo, rule.Description)
		}
	}

	for _, target := range targets {
		switch {
		case target.Variance < -balanceVarianceBand:
			increaseSubjectHours(adjusted, target.SubjectID, math.Abs(target.Variance))
		case target.Variance > balanceVarianceBand:
			decreaseSubjectHours(adjusted, target.SubjectID, target.Variance)
		}
	}

	return adjusted
}

func annotate(memo, description string) string {
	if memo == "" {
		return description
	}
	return memo + " (" + description + ")"
}

func increaseSubjectHours(grid []models.WeeklyPlanCell, subjectID string, amount float64) {
	remaining := amount
	for i := range grid {
		cell := &grid[i]
		if cell.SubjectID != subjectID || cell.Hours >= 1 {
			continue
		}
		if remaining <= 0 {
			return
		}
		increase := math.Min(remaining, 1-cell.Hours)
		cell.Hours += increase
		remaining -= increase
		cell.Memo += increaseMarker
	}
}

func decreaseSubjectHours(grid []models.WeeklyPlanCell, subjectID string, amount float64) {
	remaining := amount
	for i := range grid {
		cell := &grid[i]
		if cell.SubjectID != subjectID || cell.Hours <= balanceFloorHours {
			continue
		}
		if remaining <= 0 {
			return
		}
		decrease := math.Min(remaining, cell.Hours-balanceFloorHours)
		cell.Hours -= decrease
		remaining -= decrease
		cell.Memo += decreaseMarker
	}
}

// CalculateWeeklyHoursSummary totals a grid. Unscheduled cells count toward the
// total but not toward any subject; a cell is adjusted when hours != 1 exactly.
func CalculateWeeklyHoursSummary(grid []models.WeeklyPlanCell) models.WeeklyHoursSummary {
	summary := models.WeeklyHoursSummary{SubjectHours: map[string]float64{}}
	for _, cell := range grid {
		summary.TotalHours += cell.Hours
		if cell.SubjectID != "" {
			summary.SubjectHours[cell.SubjectID] += cell.Hours
		}
		if cell.Hours != models.DefaultCellHours {
			summary.AdjustedCells++
		}
	}
	return summary
}

// GenerateAdjustmentSuggestions produces advisory messages for a grid.
func GenerateAdjustmentSuggestions(grid []models.WeeklyPlanCell, targets []models.SubjectTarget) []string {
	suggestions := make([]string, 0)
	summary := CalculateWeeklyHoursSummary(grid)

	if summary.TotalHours > weeklyHoursUpperBound {
		suggestions = append(suggestions, fmt.Sprintf("総時数が%s時間で標準を超えています。調整を検討してください。", formatHours(summary.TotalHours)))
	} else if summary.TotalHours < weeklyHoursLowerBound {
		suggestions = append(suggestions, fmt.Sprintf("総時数が%s時間で不足しています。時数を増やしてください。", formatHours(summary.TotalHours)))
	}

	for _, target := range targets {
		if target.Variance < -balanceVarianceBand {
			suggestions = append(suggestions, fmt.Sprintf("%sが%s時間不足しています。", target.SubjectID, formatHours(math.Abs(target.Variance))))
		} else if target.Variance > balanceVarianceBand {
			suggestions = append(suggestions, fmt.Sprintf("%sが%s時間過多です。", target.SubjectID, formatHours(target.Variance)))
		}
	}

	if summary.AdjustedCells > 0 {
		suggestions = append(suggestions, fmt.Sprintf("%dコマで時数調整が適用されています。", summary.AdjustedCells))
	}

	return suggestions
}

// DetectEventDays halves full-hour cells whose memo names an event. It is
// narrower than the event rule of AdjustmentEngine and returns a new slice.
func DetectEventDays(grid []models.WeeklyPlanCell) []models.WeeklyPlanCell {
	out := make([]models.WeeklyPlanCell, len(grid))
	for i, cell := range grid {
		out[i] = cell
		if cell.Memo == "" || cell.Hours != models.DefaultCellHours || !matchesEventPattern(cell.Memo) {
			continue
		}
		out[i].Hours = EventDayHours
		out[i].Memo = cell.Memo + eventDayMarker
	}
	return out
}

func matchesEventPattern(memo string) bool {
	for _, pattern := range eventDayPatterns {
		if pattern.MatchString(memo) {
			return true
		}
	}
	return false
}

func formatHours(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
