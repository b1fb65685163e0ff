package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caredesk/internal/model"
)

func TestOverlaps(t *testing.T) {
	a := appt("a", at(10, 9, 0), at(10, 9, 30))
	b := appt("b", at(10, 9, 30), at(10, 10, 0))
	c := appt("c", at(10, 9, 15), at(10, 9, 45))

	// Back-to-back appointments are not a conflict.
	assert.False(t, Overlaps(a, b))
	assert.True(t, Overlaps(a, c))
	assert.True(t, Overlaps(c, b))
}

func TestOverlaps_Symmetry(t *testing.T) {
	pairs := [][2]model.Appointment{
		{appt("a", at(10, 9, 0), at(10, 10, 0)), appt("b", at(10, 9, 30), at(10, 11, 0))},
		{appt("a", at(10, 9, 0), at(10, 10, 0)), appt("b", at(10, 10, 0), at(10, 11, 0))},
		{appt("a", at(10, 9, 0), at(10, 10, 0)), appt("b", at(11, 9, 0), at(11, 10, 0))},
		{appt("a", at(10, 9, 0), at(10, 12, 0)), appt("b", at(10, 10, 0), at(10, 11, 0))},
	}
	for _, p := range pairs {
		assert.Equal(t, Overlaps(p[0], p[1]), Overlaps(p[1], p[0]))
	}
}

func TestDetectConflicts(t *testing.T) {
	existing := []model.Appointment{
		appt("e1", at(10, 9, 0), at(10, 9, 30)),
		appt("e2", at(10, 9, 30), at(10, 10, 0)),
		appt("e3", at(10, 11, 0), at(10, 12, 0)),
	}

	candidate := appt("new", at(10, 9, 15), at(10, 9, 45))
	conflicts := DetectConflicts(candidate, existing)
	require.Len(t, conflicts, 2)
	assert.Equal(t, "e1", conflicts[0].ID)
	assert.Equal(t, "e2", conflicts[1].ID)

	free := appt("new", at(10, 10, 0), at(10, 11, 0))
	assert.Empty(t, DetectConflicts(free, existing))
}

func TestDetectConflicts_ExcludesOwnID(t *testing.T) {
	existing := []model.Appointment{
		appt("e1", at(10, 9, 0), at(10, 10, 0)),
		appt("e2", at(10, 9, 30), at(10, 10, 30)),
	}

	// Editing e1: it must not conflict with itself, only with e2.
	edited := appt("e1", at(10, 9, 15), at(10, 10, 15))
	conflicts := DetectConflicts(edited, existing)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "e2", conflicts[0].ID)
}
