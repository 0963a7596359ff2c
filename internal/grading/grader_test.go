package grading

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/moneysignalai/breakpoint-engine/internal/database"
	"github.com/moneysignalai/breakpoint-engine/internal/market"
)

// ============================================================================
// OUTCOME GRADING TESTS
// ============================================================================

var gradeStart = time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC)

func longAlert() *database.AlertRecord {
	return &database.AlertRecord{
		ID:        uuid.New(),
		Symbol:    "TEST",
		Direction: string(market.Long),
		Entry:     100.0,
		Stop:      99.0,
		Target1:   101.0,
		Target2:   102.0,
		CreatedAt: gradeStart,
	}
}

func shortAlert() *database.AlertRecord {
	a := longAlert()
	a.Direction = string(market.Short)
	a.Stop = 101.0
	a.Target1 = 99.0
	a.Target2 = 98.0
	return a
}

func gradeBar(minutes int, high, low float64) market.Bar {
	return market.Bar{
		Timestamp: gradeStart.Add(time.Duration(minutes) * time.Minute),
		Open:      (high + low) / 2,
		High:      high,
		Low:       low,
		Close:     (high + low) / 2,
		Volume:    1000,
	}
}

func TestGradeOutcome_LongHitsBothTargets(t *testing.T) {
	bars := []market.Bar{
		gradeBar(5, 100.5, 99.8),
		gradeBar(10, 101.2, 100.3), // T1
		gradeBar(15, 102.3, 101.0), // T2
	}
	grade := GradeOutcome(longAlert(), bars)

	if !grade.HitT1 || !grade.HitT2 {
		t.Fatalf("Expected both targets hit, got T1=%v T2=%v", grade.HitT1, grade.HitT2)
	}
	if grade.StoppedOut {
		t.Error("Expected no stop-out")
	}
	if grade.MinutesToT1 == nil || *grade.MinutesToT1 != 10 {
		t.Errorf("Expected 10 minutes to T1, got %v", grade.MinutesToT1)
	}
	if grade.MinutesToT2 == nil || *grade.MinutesToT2 != 15 {
		t.Errorf("Expected 15 minutes to T2, got %v", grade.MinutesToT2)
	}
	if grade.MFEPct == nil || *grade.MFEPct != (102.3-100.0)/100.0 {
		t.Errorf("Expected MFE 2.3%%, got %v", grade.MFEPct)
	}
	if grade.MAEPct == nil || *grade.MAEPct != (100.0-99.8)/100.0 {
		t.Errorf("Expected MAE 0.2%%, got %v", grade.MAEPct)
	}
}

func TestGradeOutcome_StopBeforeTargetEndsTrade(t *testing.T) {
	bars := []market.Bar{
		gradeBar(5, 100.4, 98.9), // stop
		gradeBar(10, 101.5, 100.0),
	}
	grade := GradeOutcome(longAlert(), bars)

	if !grade.StoppedOut {
		t.Error("Expected stop-out")
	}
	if grade.HitT1 || grade.HitT2 {
		t.Error("Expected no target credit after the stop")
	}
	// the walk stops at the stop bar
	if grade.MFEPct == nil || *grade.MFEPct != (100.4-100.0)/100.0 {
		t.Errorf("Expected MFE from the stop bar only, got %v", grade.MFEPct)
	}
}

func TestGradeOutcome_T1WithoutT2(t *testing.T) {
	bars := []market.Bar{
		gradeBar(5, 101.1, 100.2),
		gradeBar(10, 101.5, 100.8),
	}
	grade := GradeOutcome(longAlert(), bars)

	if !grade.HitT1 {
		t.Error("Expected T1 hit")
	}
	if grade.HitT2 {
		t.Error("Expected T2 untouched")
	}
	if grade.MinutesToT2 != nil {
		t.Error("Expected nil minutes to T2")
	}
}

func TestGradeOutcome_StopAfterT1DoesNotStopOut(t *testing.T) {
	// once T1 is hit, a later tag of the stop is not recorded as a stop-out
	bars := []market.Bar{
		gradeBar(5, 101.2, 100.3), // T1
		gradeBar(10, 100.2, 98.8),
	}
	grade := GradeOutcome(longAlert(), bars)

	if !grade.HitT1 {
		t.Error("Expected T1 hit")
	}
	if grade.StoppedOut {
		t.Error("Expected no stop-out after T1")
	}
}

func TestGradeOutcome_Short(t *testing.T) {
	bars := []market.Bar{
		gradeBar(5, 100.2, 98.9), // T1
		gradeBar(10, 99.5, 97.9), // T2
	}
	grade := GradeOutcome(shortAlert(), bars)

	if !grade.HitT1 || !grade.HitT2 {
		t.Fatalf("Expected both targets hit short, got T1=%v T2=%v", grade.HitT1, grade.HitT2)
	}
	if grade.StoppedOut {
		t.Error("Expected no stop-out")
	}
	if grade.MFEPct == nil || *grade.MFEPct != (100.0-97.9)/100.0 {
		t.Errorf("Expected short MFE from the low, got %v", grade.MFEPct)
	}
	if grade.MAEPct == nil || *grade.MAEPct != (100.2-100.0)/100.0 {
		t.Errorf("Expected short MAE from the high, got %v", grade.MAEPct)
	}
}

func TestGradeOutcome_ShortStop(t *testing.T) {
	bars := []market.Bar{
		gradeBar(5, 101.2, 100.1),
	}
	grade := GradeOutcome(shortAlert(), bars)

	if !grade.StoppedOut {
		t.Error("Expected short stop-out on the high")
	}
}

func TestGradeOutcome_NoBars(t *testing.T) {
	alert := longAlert()
	grade := GradeOutcome(alert, nil)

	if grade.AlertID != alert.ID {
		t.Error("Expected alert id carried")
	}
	if grade.HitT1 || grade.HitT2 || grade.StoppedOut {
		t.Error("Expected a blank grade without bars")
	}
	if grade.MFEPct != nil || grade.MAEPct != nil {
		t.Error("Expected nil excursions without bars")
	}
}

func TestBarsSince(t *testing.T) {
	bars := []market.Bar{
		gradeBar(-10, 100, 99),
		gradeBar(-5, 100, 99),
		gradeBar(5, 100, 99),
		gradeBar(10, 100, 99),
	}
	got := barsSince(bars, gradeStart)
	if len(got) != 2 {
		t.Fatalf("Expected 2 bars after the alert, got %d", len(got))
	}
	if !got[0].Timestamp.After(gradeStart) {
		t.Error("Expected only bars after the cut")
	}

	if barsSince(bars, gradeStart.Add(time.Hour)) != nil {
		t.Error("Expected nil when everything predates the cut")
	}
}
