package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateProgress(t *testing.T) {
	tests := []struct {
		name      string
		current   float64
		target    float64
		progress  float64
		remaining float64
		complete  bool
	}{
		{"partial", 8_000_000, 20_000_000, 40.0, 12_000_000, false},
		{"empty", 0, 100, 0, 100, false},
		{"exact", 100, 100, 100, 0, true},
		{"over target clamps", 250, 100, 100, 0, true},
		{"zero target", 50, 0, 0, 0, true},
		{"rounds to one decimal", 1, 3, 33.3, 2, false},
		{"rounds half up", 2, 3, 66.7, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := CalculateProgress(SavingsGoal{CurrentAmount: tt.current, TargetAmount: tt.target})
			assert.Equal(t, tt.progress, p.Progress)
			assert.Equal(t, tt.remaining, p.Remaining)
			assert.Equal(t, tt.complete, p.IsComplete)
		})
	}
}

func TestProgressIsMonotonicAndBounded(t *testing.T) {
	prev := -1.0
	for current := 0.0; current <= 300; current += 7 {
		p := CalculateProgress(SavingsGoal{CurrentAmount: current, TargetAmount: 200})
		assert.GreaterOrEqual(t, p.Progress, prev)
		assert.GreaterOrEqual(t, p.Progress, 0.0)
		assert.LessOrEqual(t, p.Progress, 100.0)
		assert.GreaterOrEqual(t, p.Remaining, 0.0)
		assert.Equal(t, current >= 200, p.IsComplete)
		prev = p.Progress
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.TotalGoals)
	assert.Equal(t, 0.0, s.TotalTarget)
	assert.Equal(t, 0.0, s.TotalCurrent)
	assert.Equal(t, 0.0, s.OverallProgress)
	require.NotNil(t, s.Goals)
	assert.Empty(t, s.Goals)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]SavingsGoal{
		{Name: "a", TargetAmount: 100, CurrentAmount: 100},
		{Name: "b", TargetAmount: 300, CurrentAmount: 50},
	})
	assert.Equal(t, 2, s.TotalGoals)
	assert.Equal(t, 1, s.CompletedGoals)
	assert.Equal(t, 400.0, s.TotalTarget)
	assert.Equal(t, 150.0, s.TotalCurrent)
	assert.Equal(t, 37.5, s.OverallProgress)
	assert.Len(t, s.Goals, 2)
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		D Date `json:"d"`
		E Date `json:"e"`
	}{D: NewDate(2025, 12, 31)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2025-12-31","e":null}`, string(b))

	var out struct {
		D Date `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"d":"2026-01-02"}`), &out))
	assert.Equal(t, "2026-01-02", out.D.String())

	err = json.Unmarshal([]byte(`{"d":"02/01/2026"}`), &out)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestGoalPatchDeadline(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantSet bool
		want    string
	}{
		{"absent", `{"name":"Xe"}`, false, ""},
		{"null clears", `{"deadline":null}`, true, ""},
		{"empty clears", `{"deadline":""}`, true, ""},
		{"date", `{"deadline":"2026-03-01"}`, true, "2026-03-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p GoalPatch
			require.NoError(t, json.Unmarshal([]byte(tt.body), &p))
			assert.Equal(t, tt.wantSet, p.Deadline.Set)
			assert.Equal(t, tt.want, p.Deadline.Date.String())
		})
	}

	var p GoalPatch
	err := json.Unmarshal([]byte(`{"deadline":"31/12/2026"}`), &p)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-06-30T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-30", d.String())

	d, err = ParseDate("")
	require.NoError(t, err)
	assert.True(t, d.IsEmpty())

	_, err = ParseDate("yesterday")
	assert.Error(t, err)
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2025, 1, 1, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, 30, NewDate(2025, 1, 31).DaysUntil(now))
	assert.Equal(t, -1, NewDate(2024, 12, 31).DaysUntil(now))
}

func TestErrorTaxonomy(t *testing.T) {
	err := Invalid("name", "Tên mục tiêu không được để trống")
	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "Tên mục tiêu không được để trống", UserMessage(err))

	err = NotFound(EntityGoal, 7)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "goal 7 not found", err.Error())
	assert.Equal(t, "Không tìm thấy mục tiêu", UserMessage(err))

	wrapped := &ExternalServiceError{Service: "gemini", Kind: "quota", Err: errors.New("429")}
	assert.True(t, errors.Is(wrapped, ErrExternalService))
}

func TestParseTxType(t *testing.T) {
	tt, ok := ParseTxType(" Income ")
	assert.True(t, ok)
	assert.Equal(t, Income, tt)
	_, ok = ParseTxType("transfer")
	assert.False(t, ok)
}
