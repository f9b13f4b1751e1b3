package service

import (
	"math"
	"time"

	"github.com/shuankun/shuankun-api/internal/models"
	"github.com/shuankun/shuankun-api/pkg/curriculum"
)

const (
	monthsPerAcademicYear = 12
	academicYearStart     = time.April

	warningVariance = -5.0
)

// MonthsFromApril numbers months within the academic year, April = 1 ... March = 12.
func MonthsFromApril(month int) int {
	if month >= int(academicYearStart) {
		return month - 3
	}
	return month + 9
}

// AcademicYearOf returns the academic year (starting in April) containing t.
func AcademicYearOf(t time.Time) int {
	if t.Month() >= academicYearStart {
		return t.Year()
	}
	return t.Year() - 1
}

// roundHalfUp rounds .5 toward positive infinity.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// ForecastEngine computes per-subject hour forecasts against a reference table.
type ForecastEngine struct {
	table *curriculum.Table
}

// NewForecastEngine builds an engine over table, defaulting to the embedded table.
func NewForecastEngine(table *curriculum.Table) *ForecastEngine {
	if table == nil {
		table = curriculum.Default()
	}
	return &ForecastEngine{table: table}
}

// Table exposes the reference table backing the engine.
func (e *ForecastEngine) Table() *curriculum.Table {
	return e.table
}

// ComputeSubjectHoursReport derives planned, actual and projected hours for one
// subject. Only records of the subject and grade dated inside the academic year
// and no later than the as-of month are counted.
func (e *ForecastEngine) ComputeSubjectHoursReport(subject models.Subject, grade, academicYear, asOfMonth int, records []models.ActualHourRecord) models.HoursData {
	annualPlanned := e.table.AnnualHours(grade, subject.Name)
	elapsed := MonthsFromApril(asOfMonth)
	currentPlanned := roundHalfUp(float64(annualPlanned) / monthsPerAcademicYear * float64(elapsed))

	cumulativeActual := sumActualHours(records, subject.ID, grade, academicYear, asOfMonth)
	variance := cumulativeActual - float64(currentPlanned)
	prediction := roundHalfUp(cumulativeActual / float64(maxInt(elapsed, 1)) * monthsPerAcademicYear)

	data := models.HoursData{
		SubjectID:           subject.ID,
		SubjectName:         subject.Name,
		Grade:               grade,
		AcademicYear:        academicYear,
		Month:               asOfMonth,
		AnnualPlanned:       annualPlanned,
		CurrentPlanned:      currentPlanned,
		CurrentActual:       roundHalfUp(cumulativeActual),
		CumulativePlanned:   currentPlanned,
		CumulativeActual:    cumulativeActual,
		Variance:            variance,
		EndOfYearPrediction: prediction,
		Status:              VarianceStatusOf(variance),
	}
	if variance < 0 {
		data.RemainingAdjustHours = -variance
	}
	return data
}

// VarianceStatusOf buckets a variance: >= 0 on track, >= -5 warning, else critical.
func VarianceStatusOf(variance float64) models.VarianceStatus {
	switch {
	case variance >= 0:
		return models.VarianceOnTrack
	case variance >= warningVariance:
		return models.VarianceWarning
	default:
		return models.VarianceCritical
	}
}

// PredictionAlert reports the projected shortfall against the annual plan, or
// nil when the projection meets it. The leading cumulative-actual argument is
// kept in the signature but does not affect the result.
func PredictionAlert(_, predicted, planned, currentMonth int) *models.HoursAlert {
	shortage := planned - predicted
	if shortage <= 0 {
		return nil
	}
	monthsRemaining := monthsPerAcademicYear - MonthsFromApril(currentMonth)
	additional := int(math.Ceil(float64(shortage) / float64(maxInt(monthsRemaining, 1))))

	monthsToResolve := int(math.Ceil(float64(shortage) / float64(additional)))
	resolvedBy := (currentMonth+monthsToResolve-1)%monthsPerAcademicYear + 1

	return &models.HoursAlert{
		Shortage:              shortage,
		AdditionalHoursNeeded: additional,
		MonthsRemaining:       monthsRemaining,
		ResolvedByMonth:       resolvedBy,
	}
}

func sumActualHours(records []models.ActualHourRecord, subjectID string, grade, academicYear, asOfMonth int) float64 {
	windowStart := dateKey(academicYear, time.April, 1)
	windowEnd := dateKey(academicYear+1, time.March, 31)

	cutoffYear := academicYear
	if asOfMonth < int(academicYearStart) {
		cutoffYear++
	}
	cutoff := monthKey(cutoffYear, time.Month(asOfMonth))

	var total float64
	for _, record := range records {
		if record.SubjectID != subjectID || record.Grade == nil || *record.Grade != grade {
			continue
		}
		y, m, d := record.WeekStartDate.Date()
		day := dateKey(y, m, d)
		if day < windowStart || day > windowEnd || monthKey(y, m) > cutoff {
			continue
		}
		if record.Hours != nil {
			total += *record.Hours
		}
	}
	return total
}

func dateKey(y int, m time.Month, d int) int {
	return y*10000 + int(m)*100 + d
}

func monthKey(y int, m time.Month) int {
	return y*100 + int(m)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
