package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEffortBandBoundaries(t *testing.T) {
	cases := []struct {
		effort float64
		band   string
	}{
		{0, EffortBandLow},
		{99.99, EffortBandLow},
		{100, EffortBandMedium},
		{250.4, EffortBandMedium},
		{299.99, EffortBandMedium},
		{300, EffortBandHigh},
		{599.99, EffortBandHigh},
		{600, EffortBandVeryHigh},
		{5000, EffortBandVeryHigh},
	}

	for _, tc := range cases {
		require.Equal(t, tc.band, EffortBand(tc.effort), "effort %v", tc.effort)
	}
}

func TestVarianceUndefinedWithoutActual(t *testing.T) {
	_, _, ok := Variance(120, nil)
	require.False(t, ok)

	zero := 0.0
	_, _, ok = Variance(120, &zero)
	require.False(t, ok)
}

func TestVarianceComputesAbsoluteDifference(t *testing.T) {
	actual := 200.0

	diff, percent, ok := Variance(250, &actual)
	require.True(t, ok)
	require.InDelta(t, 50, diff, 1e-9)
	require.InDelta(t, 25, percent, 1e-9)

	diff, percent, ok = Variance(150, &actual)
	require.True(t, ok)
	require.InDelta(t, 50, diff, 1e-9)
	require.InDelta(t, 25, percent, 1e-9)
}

func TestVarianceCategoryThresholds(t *testing.T) {
	require.Equal(t, VarianceExcellent, VarianceCategory(0))
	require.Equal(t, VarianceExcellent, VarianceCategory(9.99))
	require.Equal(t, VarianceGood, VarianceCategory(10))
	require.Equal(t, VarianceGood, VarianceCategory(24.99))
	require.Equal(t, VarianceNeedsImprovement, VarianceCategory(25))
	require.Equal(t, VarianceNeedsImprovement, VarianceCategory(140))
}

func TestHasFeedback(t *testing.T) {
	project := Project{}
	require.False(t, project.HasFeedback())

	rating := 4
	project.FeedbackRating = &rating
	require.True(t, project.HasFeedback())
}
