package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalMonths(t *testing.T) {
	months, err := CanonicalMonths([]string{"feb", "Jan", " MAR "})
	require.NoError(t, err)
	assert.Equal(t, []string{"Jan", "Feb", "Mar"}, months)
}

func TestCanonicalMonthsRejectsUnknown(t *testing.T) {
	_, err := CanonicalMonths([]string{"Jan", "Januray"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown month")
}

func TestCanonicalMonthsRejectsDuplicates(t *testing.T) {
	_, err := CanonicalMonths([]string{"Jan", "jan"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate month")
}

func TestCanonicalMonthsRequiresAtLeastOne(t *testing.T) {
	_, err := CanonicalMonths(nil)
	assert.Error(t, err)
}

func TestSortMonths(t *testing.T) {
	assert.Equal(t, []string{"Feb", "Jul", "Dec"}, SortMonths([]string{"Dec", "Feb", "Jul"}))
	assert.Empty(t, SortMonths(nil))
}
