package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intp(n int) *int { return &n }

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want DurationInfo
	}{
		{"42", DurationInfo{MinMinutes: intp(42), MaxMinutes: intp(42)}},
		{"max 20", DurationInfo{MaxMinutes: intp(20)}},
		{"15 to 35", DurationInfo{MinMinutes: intp(15), MaxMinutes: intp(35), IsVariableDuration: true}},
		{"25 to 35", DurationInfo{MinMinutes: intp(25), MaxMinutes: intp(35), IsVariableDuration: true}},
		{"Untimed", DurationInfo{IsUntimed: true}},
		{"untimed assessment", DurationInfo{IsUntimed: true}},
		{"TBC", DurationInfo{IsVariableDuration: true}},
		{"n/a", DurationInfo{IsVariableDuration: true}},
		{"-", DurationInfo{IsVariableDuration: true}},
		{"Variable", DurationInfo{IsVariableDuration: true}},
		{"", DurationInfo{}},
		{"na", DurationInfo{}},
		{"unknown", DurationInfo{}},
		{"soon", DurationInfo{}},

		// Unit-suffixed forms from the scraped catalog.
		{"30 minutes", DurationInfo{MinMinutes: intp(30), MaxMinutes: intp(30)}},
		{"1 hour", DurationInfo{MinMinutes: intp(60), MaxMinutes: intp(60)}},
		{"15-25 minutes", DurationInfo{MinMinutes: intp(15), MaxMinutes: intp(25), IsVariableDuration: true}},
		{"1 to 2 hours", DurationInfo{MinMinutes: intp(60), MaxMinutes: intp(120), IsVariableDuration: true}},

		// Inverted ranges are rejected to unknown.
		{"35 to 15", DurationInfo{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDuration(tt.in))
		})
	}
}

func TestParseDurationIsTotal(t *testing.T) {
	// Anything parses; junk comes back unknown, never a panic.
	for _, s := range []string{"!!!", "minutes", "max", "to 5", "9999999999999999999999"} {
		_ = ParseDuration(s)
	}
}

func TestRenderDuration(t *testing.T) {
	assert.Equal(t, "Untimed assessment", RenderDuration(Assessment{IsUntimed: true}))
	assert.Equal(t, "Duration: 30 minutes", RenderDuration(Assessment{DurationMinMinutes: intp(30), DurationMaxMinutes: intp(30)}))
	assert.Equal(t, "Variable duration", RenderDuration(Assessment{IsVariableDuration: true}))
	assert.Equal(t, "25 to 35", RenderDuration(Assessment{DurationText: "25 to 35", DurationMinMinutes: intp(25), DurationMaxMinutes: intp(35)}))
	assert.Equal(t, "Unknown", RenderDuration(Assessment{}))
}

func TestDurationMinutes(t *testing.T) {
	assert.Equal(t, 35, DurationMinutes(Assessment{DurationMinMinutes: intp(25), DurationMaxMinutes: intp(35)}))
	assert.Equal(t, 25, DurationMinutes(Assessment{DurationMinMinutes: intp(25)}))
	assert.Equal(t, 60, DurationMinutes(Assessment{DurationText: "60"}))
	assert.Equal(t, 0, DurationMinutes(Assessment{DurationText: "Untimed", IsUntimed: true}))
}
