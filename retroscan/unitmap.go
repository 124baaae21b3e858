package retroscan

import "strings"

// Unit states for the glyph map.
const (
	UnitPending byte = iota
	UnitWritten
	UnitVerified
	UnitBad
)

var unitGlyphs = [...]rune{'░', '▒', '█', '✗'}

// Legend returns a one-line glyph legend for the unit map.
func Legend() string {
	return "Legend:  ░ pending   ▒ written   █ verified   ✗ mismatch | Q to quit"
}

// UnitMap tracks per-unit state and renders it as glyph rows, one glyph
// per unit, scrolled to follow the most recently touched unit.
type UnitMap struct {
	state []byte
	pos   int64
}

// NewUnitMap creates a map for total units, all pending.
func NewUnitMap(total int64) *UnitMap {
	return &UnitMap{state: make([]byte, total)}
}

// Mark sets the state of one unit and moves the follow position there.
func (m *UnitMap) Mark(i int64, state byte) {
	if i < 0 || i >= int64(len(m.state)) {
		return
	}
	m.state[i] = state
	m.pos = i
}

// MarkRange sets count units starting at start to state. Units already
// marked bad keep that state, so a phase-wide sweep never erases a
// recorded mismatch.
func (m *UnitMap) MarkRange(start, count int64, state byte) {
	end := start + count
	if end > int64(len(m.state)) {
		end = int64(len(m.state))
	}
	for i := start; i < end; i++ {
		if i >= 0 && m.state[i] != UnitBad {
			m.state[i] = state
		}
	}
	if end > 0 {
		m.pos = end - 1
	}
}

// Counts returns how many units are in each non-pending state.
func (m *UnitMap) Counts() (written, verified, bad int64) {
	for _, s := range m.state {
		switch s {
		case UnitWritten:
			written++
		case UnitVerified:
			verified++
		case UnitBad:
			bad++
		}
	}
	return
}

// Render builds up to rows glyph rows of width w, scrolled so the follow
// position stays visible.
func (m *UnitMap) Render(w, rows int) []string {
	total := int64(len(m.state))
	if total <= 0 || w <= 0 || rows <= 0 {
		return nil
	}
	cells := int64(w * rows)

	start := int64(0)
	if total > cells {
		if m.pos >= cells-1 {
			start = m.pos - (cells - 1)
		}
		if start+cells > total {
			start = total - cells
		}
		if start < 0 {
			start = 0
		}
	}

	lines := make([]string, 0, rows)
	for row := 0; row < rows; row++ {
		var b strings.Builder
		b.Grow(w)
		for col := 0; col < w; col++ {
			abs := start + int64(row*w+col)
			if abs >= total {
				break
			}
			b.WriteRune(unitGlyphs[m.state[abs]])
		}
		if b.Len() == 0 {
			break
		}
		lines = append(lines, b.String())
	}
	return lines
}
