// Package retroscan provides a fullscreen terminal display for long
// device-scan style operations: a title bar, a glyph map of scanned
// units, a phase checklist, and rolling status lines. It renders what it
// is given and knows nothing about the task driving it.
package retroscan

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
)

// UI is a terminal screen with a fixed layout: title, legend, unit map,
// phase line, status block.
type UI struct {
	s        tcell.Screen
	stopChan chan struct{}
	once     sync.Once

	mu           sync.Mutex
	title        string
	phases       []string
	phaseDoneMap map[string]bool
	legendLines  []string
	statusLines  []string
	unitMapLines []string
}

// New creates and initializes a UI, taking over the terminal and starting
// the input event loop.
func New() (*UI, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := s.Init(); err != nil {
		return nil, err
	}
	s.DisableMouse()
	u := &UI{
		s:            s,
		stopChan:     make(chan struct{}),
		phaseDoneMap: make(map[string]bool),
	}
	go u.eventLoop()
	return u, nil
}

// Close restores the terminal to its original state.
func (u *UI) Close() {
	if u.s == nil {
		return
	}
	u.s.Fini()
	u.s = nil
	fmt.Print("\033[?1049l\033[?25h")
}

// RequestStop signals that the user asked to stop. Safe to call more
// than once.
func (u *UI) RequestStop() {
	u.once.Do(func() {
		close(u.stopChan)
		if s := u.s; s != nil {
			s.PostEvent(tcell.NewEventInterrupt(nil))
		}
	})
}

// Stopped exposes the stop channel, for wiring into context
// cancellation.
func (u *UI) Stopped() <-chan struct{} { return u.stopChan }

// Size returns the current screen width and height.
func (u *UI) Size() (width, height int) {
	if u.s == nil {
		return 0, 0
	}
	return u.s.Size()
}

func putStr(s tcell.Screen, x, y int, str string) {
	w, _ := s.Size()
	for i, r := range []rune(str) {
		pos := x + i
		if pos >= w {
			break
		}
		s.SetContent(pos, y, r, nil, tcell.StyleDefault)
	}
}

// LayoutAndDraw redraws the whole screen from the current state.
func (u *UI) LayoutAndDraw() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.s == nil {
		return
	}
	u.s.Clear()
	w, h := u.s.Size()

	y := 0
	if u.title != "" {
		putStr(u.s, 0, y, strings.Repeat("═", w))
		putStr(u.s, (w-len(u.title))/2, y, u.title)
		y++
	}

	for _, line := range u.legendLines {
		if y >= h {
			break
		}
		putStr(u.s, 0, y, line)
		y++
	}

	if len(u.unitMapLines) > 0 {
		// Leave room for the phase and status blocks below.
		avail := h - y - 7
		if avail < 1 {
			avail = 1
		}
		rows := avail
		if rows > len(u.unitMapLines) {
			rows = len(u.unitMapLines)
		}
		for i := 0; i < rows && y < h; i++ {
			runes := []rune(u.unitMapLines[i])
			if len(runes) > w {
				runes = runes[:w]
			}
			putStr(u.s, 0, y, string(runes))
			y++
		}
	}

	if len(u.phases) > 0 {
		putStr(u.s, 0, y, strings.Repeat("─", w))
		putStr(u.s, 2, y, " Phase ")
		y++
		check := func(ok bool) rune {
			if ok {
				return '✓'
			}
			return ' '
		}
		b := strings.Builder{}
		for i, p := range u.phases {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(fmt.Sprintf("[%c]%s", check(u.phaseDoneMap[strings.ToLower(p)]), p))
		}
		putStr(u.s, 0, y, b.String())
		y++
	}

	if len(u.statusLines) > 0 {
		putStr(u.s, 0, y, strings.Repeat("─", w))
		putStr(u.s, 2, y, " Status ")
		y++
		for _, line := range u.statusLines {
			if y >= h {
				break
			}
			putStr(u.s, 0, y, line)
			y++
		}
	}

	u.s.Show()
}

// SetTitle sets the title centered in the top bar.
func (u *UI) SetTitle(t string) {
	u.mu.Lock()
	u.title = t
	u.mu.Unlock()
}

// SetPhases sets the phase checklist. Phases gain checkmarks via
// SetPhaseDone.
func (u *UI) SetPhases(labels []string) {
	u.mu.Lock()
	u.phases = append([]string(nil), labels...)
	u.mu.Unlock()
}

// SetPhaseDone marks a phase completed. Case-insensitive.
func (u *UI) SetPhaseDone(p string) {
	u.mu.Lock()
	u.phaseDoneMap[strings.ToLower(p)] = true
	u.mu.Unlock()
}

// SetLegend sets the legend lines shown under the title.
func (u *UI) SetLegend(lines []string) {
	u.mu.Lock()
	u.legendLines = append([]string(nil), lines...)
	u.mu.Unlock()
}

// SetStatusLines sets the status block at the bottom.
func (u *UI) SetStatusLines(lines []string) {
	u.mu.Lock()
	u.statusLines = append([]string(nil), lines...)
	u.mu.Unlock()
}

// SetUnitMap sets the unit map rows. Each string is one rendered row;
// the UI draws what it is handed and does not track progress itself.
func (u *UI) SetUnitMap(lines []string) {
	u.mu.Lock()
	u.unitMapLines = append([]string(nil), lines...)
	u.mu.Unlock()
}

func (u *UI) eventLoop() {
	// Hold the screen locally: Close clears u.s, and Fini makes PollEvent
	// return nil, which ends the loop.
	s := u.s
	for {
		select {
		case <-u.stopChan:
			return
		default:
		}
		ev := s.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventKey:
			switch {
			case ev.Key() == tcell.KeyCtrlC:
				u.RequestStop()
			case ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q'):
				u.RequestStop()
			case ev.Key() == tcell.KeyEscape:
				u.RequestStop()
			}
		case *tcell.EventResize:
			s.Sync()
		case *tcell.EventInterrupt:
			return
		case nil:
			return
		}
	}
}
