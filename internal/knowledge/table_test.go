package knowledge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup_ExactMatch(t *testing.T) {
	got := WaterQuality.Lookup("Is water with 20 mg/L nitrate safe to drink?")
	assert.True(t, strings.HasPrefix(got, "Water with 20 mg/L nitrate does not meet the EPA's maximum contaminant level (MCL)"))
	assert.Contains(t, got, "blue baby syndrome")
}

func TestLookup_Fallback(t *testing.T) {
	cases := []string{
		"",
		"is water with 20 mg/L nitrate safe to drink?",
		"Is water with 20 mg/L nitrate safe to drink? ",
		"What is the meaning of life?",
	}
	for _, q := range cases {
		assert.Equal(t, Fallback, WaterQuality.Lookup(q), "query %q", q)
	}
	assert.Equal(t, "I'm sorry, I don't have an answer for that.", Fallback)
}

func TestTables(t *testing.T) {
	assert.Len(t, WaterQuality, 3)
	assert.Len(t, HealthRisk, 4)

	assert.Contains(t, HealthRisk.Lookup("How does high lead contamination in water affect health?"), "0.015 mg/L")
	assert.Contains(t, HealthRisk.Lookup("I have water with high ph is safe for my cows?"), "struvite")

	// Tables are independent.
	assert.Equal(t, Fallback, HealthRisk.Lookup("Is water with 20 mg/L nitrate safe to drink?"))
	assert.Equal(t, Fallback, WaterQuality.Lookup("What are the symptoms of nitrate poisoning from drinking water?"))
}

func TestLookup_NilTable(t *testing.T) {
	var empty Table
	assert.Equal(t, Fallback, empty.Lookup("anything"))
}
