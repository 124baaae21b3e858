package retroscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnitMapCounts(t *testing.T) {
	m := NewUnitMap(10)
	m.MarkRange(0, 6, UnitWritten)
	m.MarkRange(0, 4, UnitVerified)
	m.Mark(5, UnitBad)

	written, verified, bad := m.Counts()
	assert.Equal(t, int64(1), written)
	assert.Equal(t, int64(4), verified)
	assert.Equal(t, int64(1), bad)
}

func TestUnitMapMarkBoundsAreClamped(t *testing.T) {
	m := NewUnitMap(4)
	m.Mark(-1, UnitBad)
	m.Mark(4, UnitBad)
	m.MarkRange(2, 100, UnitWritten)

	written, _, bad := m.Counts()
	assert.Equal(t, int64(2), written)
	assert.Equal(t, int64(0), bad)
}

func TestUnitMapMarkRangeKeepsBadUnits(t *testing.T) {
	m := NewUnitMap(10)
	m.Mark(4, UnitBad)
	m.MarkRange(0, 10, UnitVerified)

	_, verified, bad := m.Counts()
	assert.Equal(t, int64(9), verified)
	assert.Equal(t, int64(1), bad)
}

func TestUnitMapRenderWraps(t *testing.T) {
	m := NewUnitMap(10)
	m.MarkRange(0, 10, UnitVerified)

	lines := m.Render(4, 5)
	assert.Equal(t, []string{"████", "████", "██"}, lines)
}

func TestUnitMapRenderFollowsPosition(t *testing.T) {
	m := NewUnitMap(100)
	m.MarkRange(0, 100, UnitWritten)
	m.Mark(99, UnitBad)

	// Only 10 cells fit; the window must include the follow position.
	lines := m.Render(5, 2)
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[1], "✗")
}

func TestUnitMapRenderEmpty(t *testing.T) {
	assert.Nil(t, NewUnitMap(0).Render(10, 2))
	assert.Nil(t, NewUnitMap(5).Render(0, 2))
}
