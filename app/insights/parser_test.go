package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSections(t *testing.T) {
	text := `Some opening remarks.

# Project Health
The project is on track.
Velocity is stable.

Key Risks:
Two high-priority bugs are unassigned.`

	sections := ParseSections(text)

	assert.Equal(t, "Some opening remarks.", sections["general"])
	assert.Equal(t, "The project is on track.\nVelocity is stable.", sections["project health"])
	assert.Equal(t, "Two high-priority bugs are unassigned.", sections["key risks"])
}

func TestParseSectionsUnstructuredFallsBackToGeneral(t *testing.T) {
	text := "Just a paragraph with no headers at all."

	sections := ParseSections(text)

	assert.Len(t, sections, 1)
	assert.Equal(t, text, sections["general"])
}

func TestParseSectionsEmptyInput(t *testing.T) {
	sections := ParseSections("")

	assert.Empty(t, sections)
}

func TestParseSectionsMergesRepeatedHeaders(t *testing.T) {
	text := "Risks:\nfirst\n\nRisks:\nsecond"

	sections := ParseSections(text)

	assert.Equal(t, "first\nsecond", sections["risks"])
}

func TestParseSectionsHashHeaderVariants(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"# Summary", "summary"},
		{"## Summary", "summary"},
		{"Summary:", "summary"},
		{"### Team Performance:", "team performance"},
	}

	for _, tt := range tests {
		sections := ParseSections(tt.line + "\nbody")
		if _, ok := sections[tt.want]; !ok {
			t.Errorf("header %q: expected section %q, got %v", tt.line, tt.want, sections)
		}
	}
}
