package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRaiseInvariant(t *testing.T) {
	invariantsMetric.Reset() // Reset the metric to ensure a clean state for the test.
	RaiseInvariant("invariant", "test", "This is a test invariant violation")
	assert.Equal(t, 1, GetMetricValue("invariant" /*module*/, "test" /*invariantType*/))
	assert.Equal(t, 0, GetMetricValue("invariant" /*module*/, "other" /*invariantType*/))

	RaiseInvariant("invariant", "test", "Raised again", "attempt", 2)
	assert.Equal(t, 2, GetMetricValue("invariant" /*module*/, "test" /*invariantType*/))
}

func TestRaiseInvariant_TestModePanics(t *testing.T) {
	prev := IsTestMode
	IsTestMode = true
	t.Cleanup(func() { IsTestMode = prev })

	assert.PanicsWithValue(t, "invariant violated: invariant/loud", func() {
		RaiseInvariant("invariant", "loud", "Should panic in test mode")
	})
}
