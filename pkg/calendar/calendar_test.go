package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/paiban/kinmu/pkg/errors"
	"github.com/paiban/kinmu/pkg/model"
)

func TestNew_InvalidRange(t *testing.T) {
	_, err := New(model.Date(2025, 9, 10), model.Date(2025, 9, 1), Markers{})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidTimeRange))
}

func TestNew_SingleDay(t *testing.T) {
	c, err := New(model.Date(2025, 9, 1), model.Date(2025, 9, 1), Markers{})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, time.Monday, c.Day(0).Weekday)
}

func TestNew_Markers(t *testing.T) {
	m := Markers{
		Holidays:         []time.Time{model.Date(2025, 9, 15)},
		CheerDays:        []time.Time{model.Date(2025, 9, 6), model.Date(2025, 10, 1)},
		CampaignDays:     []time.Time{model.Date(2025, 9, 6)},
		PriorityDays:     []time.Time{model.Date(2025, 8, 31), model.Date(2025, 9, 7)},
		LateLongWeekdays: []time.Weekday{time.Sunday},
	}
	// 2025-09-01 为周一
	c, err := New(model.Date(2025, 9, 1), model.Date(2025, 9, 15), m)
	require.NoError(t, err)
	require.Equal(t, 15, c.Len())

	assert.True(t, c.Day(5).IsCheer)
	assert.True(t, c.Day(5).IsCampaign)
	assert.False(t, c.Day(5).IsLateLongDay, "周六不是晚班 E 日")
	assert.True(t, c.Day(6).IsLateLongDay, "周日")
	assert.True(t, c.Day(6).IsPriority)
	assert.True(t, c.Day(14).IsHoliday)
	assert.True(t, c.Day(14).IsLateLongDay, "节假日")

	assert.Equal(t, []int{6}, c.Indices(m.PriorityDays), "区间外的日期被忽略")
	assert.Equal(t, []int{5}, c.Filter(func(d Day) bool { return d.IsCheer }))

	i, ok := c.IndexOf(model.Date(2025, 9, 3))
	assert.True(t, ok)
	assert.Equal(t, 2, i)
	_, ok = c.IndexOf(model.Date(2025, 8, 1))
	assert.False(t, ok)
}

func TestMarkersFrom(t *testing.T) {
	p := model.DefaultPolicy()
	p.Holidays = []time.Time{model.Date(2025, 9, 15)}
	m := MarkersFrom(p)
	assert.Equal(t, p.Holidays, m.Holidays)
	assert.Equal(t, []time.Weekday{time.Sunday}, m.LateLongWeekdays)
}
