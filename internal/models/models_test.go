package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyPeriodsRoundTrip(t *testing.T) {
	in := DailyPeriods{1: 6, 3: 5}
	raw, err := in.Value()
	require.NoError(t, err)

	var out DailyPeriods
	require.NoError(t, out.Scan(raw))
	assert.Equal(t, in, out)
	assert.Equal(t, 5, out.For(3, 6))
	assert.Equal(t, 6, out.For(2, 6))
}

func TestDailyPeriodsScanRejectsBadKeys(t *testing.T) {
	var out DailyPeriods
	assert.Error(t, out.Scan(`{"mon":6}`))
	assert.Error(t, out.Scan(42))
	require.NoError(t, out.Scan(nil))
	assert.Empty(t, out)
}

func TestExportJobParamsScan(t *testing.T) {
	var p ExportJobParams
	require.NoError(t, p.Scan(`{"format":"pdf","grade":5,"academic_year":2024,"as_of_month":9}`))
	assert.Equal(t, ExportFormatPDF, p.Format)
	assert.Equal(t, 9, p.AsOfMonth)
	require.NoError(t, p.Scan([]byte{}))
	assert.Equal(t, ExportJobParams{}, p)
}

func TestWeeklyPlanDetailCell(t *testing.T) {
	unit := "unit-1"
	grade := 5
	cell := WeeklyPlanDetail{DayOfWeek: 2, Period: 3, SubjectID: "s1", UnitID: &unit, Grade: &grade, Hours: 0.5, Memo: "運動会"}.Cell()
	assert.Equal(t, WeeklyPlanCell{Day: 2, Period: 3, SubjectID: "s1", UnitID: "unit-1", Grade: &grade, Hours: 0.5, Memo: "運動会"}, cell)
}

func TestJWTClaimsActorID(t *testing.T) {
	c := &JWTClaims{}
	c.RegisteredClaims.Subject = "sub-1"
	assert.Equal(t, "sub-1", c.ActorID())
	c.UserID = "user-1"
	assert.Equal(t, "user-1", c.ActorID())
	var nilClaims *JWTClaims
	assert.Empty(t, nilClaims.ActorID())
}
