package schedule_test

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pravodoc/pravodoc-backend/internal/dates"
	"github.com/pravodoc/pravodoc-backend/internal/schedule"
	"github.com/pravodoc/pravodoc-backend/pkg/errors"
)

func TestBuild_Example(t *testing.T) {
	start := dates.Date(2024, time.March, 25)

	payments, err := schedule.Build(start, 132000)
	require.NoError(t, err)

	want := []int64{10000, 27000, 35000, 10000, 10000, 10000, 10000, 10000, 10000}
	require.Len(t, payments, len(want))
	for i, p := range payments {
		assert.Equal(t, i+1, p.Month)
		assert.Equal(t, want[i], p.Amount, "month %d", p.Month)
	}
	assert.Equal(t, dates.Date(2024, time.March, 25), payments[0].DueAt)
	assert.Equal(t, dates.Date(2024, time.April, 25), payments[1].DueAt)
	assert.Equal(t, dates.Date(2024, time.May, 25), payments[2].DueAt)
	assert.Equal(t, int64(132000), schedule.Total(payments))
}

func TestBuild_Small(t *testing.T) {
	payments, err := schedule.Build(dates.Date(2024, time.January, 1), 5000)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, int64(5000), payments[0].Amount)
	assert.Equal(t, 1, payments[0].Month)
}

func TestBuild_RemainderInLastMonth(t *testing.T) {
	payments, err := schedule.Build(dates.Date(2024, time.January, 1), 40000)
	require.NoError(t, err)
	require.Len(t, payments, 3)
	assert.Equal(t, []int64{10000, 27000, 3000}, []int64{payments[0].Amount, payments[1].Amount, payments[2].Amount})
}

func TestBuild_ClampsMonthEnd(t *testing.T) {
	payments, err := schedule.Build(dates.Date(2024, time.January, 31), 100000)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(payments), 4)

	assert.Equal(t, dates.Date(2024, time.February, 29), payments[1].DueAt)
	assert.Equal(t, dates.Date(2024, time.March, 31), payments[2].DueAt)
	assert.Equal(t, dates.Date(2024, time.April, 30), payments[3].DueAt)
}

func TestBuild_Invalid(t *testing.T) {
	_, err := schedule.Build(dates.Date(2024, time.January, 1), 0)
	assert.Error(t, err)

	_, err = schedule.Build(dates.Date(2024, time.January, 1), -10)
	assert.Error(t, err)

	_, err = schedule.Build(time.Time{}, 1000)
	assert.Error(t, err)
}

func TestBuild_Limit(t *testing.T) {
	start := dates.Date(2024, time.January, 31)

	payments, err := schedule.Build(start, schedule.MaxTotal)
	require.NoError(t, err)
	require.Len(t, payments, schedule.MaxPayments)
	assert.Equal(t, dates.Date(2073, time.December, 31), payments[len(payments)-1].DueAt)

	tests := []struct {
		name  string
		total int64
	}{
		{"one ruble over", schedule.MaxTotal + 1},
		{"ten billion", 10_000_000_000},
		{"max int64", 1<<63 - 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schedule.Build(start, tt.total)
			assert.True(t, errors.IsBadRequest(err), "got %v", err)
		})
	}
}

func TestMonths(t *testing.T) {
	tests := []struct {
		total int64
		want  int
	}{
		{0, 0},
		{1, 1},
		{10000, 1},
		{10001, 2},
		{37000, 2},
		{72000, 3},
		{72001, 4},
		{132000, 9},
		{schedule.MaxTotal, schedule.MaxPayments},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, schedule.Months(tt.total), "total %d", tt.total)
	}
}

func TestBuild_Properties(t *testing.T) {
	faker := gofakeit.New(42)

	for i := 0; i < 200; i++ {
		total := int64(faker.IntRange(1, 2_000_000))
		start := dates.Date(faker.IntRange(2000, 2040), time.Month(faker.IntRange(1, 12)), faker.IntRange(1, 28))

		payments, err := schedule.Build(start, total)
		require.NoError(t, err)

		assert.Equal(t, total, schedule.Total(payments), "total %d", total)
		assert.Len(t, payments, schedule.Months(total))
		for j, p := range payments {
			assert.Positive(t, p.Amount)
			assert.Equal(t, j+1, p.Month)
			assert.LessOrEqual(t, p.Amount, schedule.Nominal(p.Month))
			assert.Equal(t, dates.AddMonths(start, j), p.DueAt)
			if j > 0 {
				assert.True(t, p.DueAt.After(payments[j-1].DueAt))
			}
		}
	}
}
