package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunTime(t *testing.T) {
	res := &RunResult{Events: []EventMark{
		{Name: EventStart, TimeSeq: 10.0},
		{Name: EventEnd, TimeSeq: 10.35},
	}}
	assert.InDelta(t, 0.35, res.RunTime(), 1e-9)
}

func TestRunTimeMissingMarkerMeasuresZero(t *testing.T) {
	res := &RunResult{Events: []EventMark{{Name: EventStart, TimeSeq: 10.0}}}
	assert.Zero(t, res.RunTime())

	res = &RunResult{Events: []EventMark{{Name: EventEnd, TimeSeq: 10.0}}}
	assert.Zero(t, res.RunTime())
}

func TestRunTimeInvertedMarkersMeasureZero(t *testing.T) {
	res := &RunResult{Events: []EventMark{
		{Name: EventStart, TimeSeq: 11.0},
		{Name: EventEnd, TimeSeq: 10.0},
	}}
	assert.Zero(t, res.RunTime())
}

func TestRelativeTimesExcludesMarkers(t *testing.T) {
	res := &RunResult{Events: []EventMark{
		{Name: EventStart, TimeSeq: 10.0},
		{Name: "first_paint", TimeSeq: 10.12},
		{Name: EventEnd, TimeSeq: 10.5},
	}}
	rel := res.RelativeTimes()
	require.Len(t, rel, 1)
	assert.InDelta(t, 0.12, rel["first_paint"], 1e-9)
}

func TestRelativeTimesWithoutStart(t *testing.T) {
	res := &RunResult{Events: []EventMark{{Name: "first_paint", TimeSeq: 10.12}}}
	assert.Nil(t, res.RelativeTimes())
}

func TestMergeReplacesByNameAndReorders(t *testing.T) {
	res := &RunResult{Events: []EventMark{
		{Name: EventStart, TimeSeq: 10.0},
		{Name: EventEnd, TimeSeq: 12.0},
	}}
	res.Merge(&RunResult{
		Events:     []EventMark{{Name: EventEnd, TimeSeq: 10.5}},
		SpeedIndex: 812,
	})

	require.Len(t, res.Events, 2)
	end, ok := res.Find(EventEnd)
	require.True(t, ok)
	assert.Equal(t, 10.5, end.TimeSeq)
	assert.Equal(t, EventStart, res.Events[0].Name)
	assert.Equal(t, 812.0, res.SpeedIndex)

	// A zero index in a later contribution does not wipe the earlier one.
	res.Merge(&RunResult{})
	assert.Equal(t, 812.0, res.SpeedIndex)
}

func TestEmpty(t *testing.T) {
	var res *RunResult
	assert.True(t, res.Empty())
	assert.True(t, (&RunResult{SpeedIndex: 1}).Empty())
	assert.False(t, (&RunResult{Events: []EventMark{{Name: EventStart}}}).Empty())
}

func TestCheckInvariant(t *testing.T) {
	rec := &RunRecord{
		TotalRunNo: 5,
		ErrorNo:    1,
		TimeList:   []TimingSample{{RunTime: 0.1}, {RunTime: 0.2}, {RunTime: 0.3}},
		Outlier:    []TimingSample{{RunTime: 2.0}},
	}
	require.NoError(t, rec.CheckInvariant())

	rec.TotalRunNo = 6
	err := rec.CheckInvariant()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvariantViolated)
}
