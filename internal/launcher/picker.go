// Package launcher is a built-in full-screen picker, used when no external
// launcher is available.
package launcher

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"
)

// Picker shows a list of lines and lets the user choose one.
type Picker struct {
	// Screen is used instead of the terminal when set. It must already be
	// initialized; Pick finalizes it on return.
	Screen tcell.Screen
	Title  string

	screen     tcell.Screen
	items      []string
	matches    []int // indexes into items, in display order
	selected   int
	offset     int
	searchMode bool
	searchText string
}

func New(title string) *Picker {
	return &Picker{Title: title}
}

// Pick blocks until the user chooses a line, returning its index in items,
// or -1 when the user cancels.
func (p *Picker) Pick(items []string) (int, error) {
	screen := p.Screen
	if screen == nil {
		var err error
		screen, err = tcell.NewScreen()
		if err != nil {
			return -1, fmt.Errorf("failed to create screen: %w", err)
		}
		if err := screen.Init(); err != nil {
			return -1, fmt.Errorf("failed to initialize screen: %w", err)
		}
	}
	defer screen.Fini()

	screen.SetStyle(tcell.StyleDefault.
		Background(tcell.ColorReset).
		Foreground(tcell.ColorReset))

	p.screen = screen
	p.items = items
	p.searchMode = false
	p.searchText = ""
	p.filter()

	for {
		p.draw()

		ev := screen.PollEvent()
		if ev == nil {
			// Screen finalized underneath us
			return -1, nil
		}
		switch ev := ev.(type) {
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventKey:
			if done, index := p.handleKey(ev); done {
				return index, nil
			}
		}
	}
}

// handleKey applies one key press and reports whether picking is over
func (p *Picker) handleKey(ev *tcell.EventKey) (bool, int) {
	if p.searchMode {
		switch ev.Key() {
		case tcell.KeyEscape:
			p.searchMode = false
			p.searchText = ""
			p.filter()
		case tcell.KeyEnter:
			p.searchMode = false
		case tcell.KeyBackspace, tcell.KeyBackspace2:
			if r := []rune(p.searchText); len(r) > 0 {
				p.searchText = string(r[:len(r)-1])
				p.filter()
			}
		case tcell.KeyRune:
			p.searchText += string(ev.Rune())
			p.filter()
		}
		return false, 0
	}

	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true, -1
	case tcell.KeyUp, tcell.KeyCtrlP:
		p.moveSelection(-1)
	case tcell.KeyDown, tcell.KeyCtrlN:
		p.moveSelection(1)
	case tcell.KeyHome:
		p.moveSelection(-len(p.matches))
	case tcell.KeyEnd:
		p.moveSelection(len(p.matches))
	case tcell.KeyPgUp:
		p.moveSelection(-10)
	case tcell.KeyPgDn:
		p.moveSelection(10)
	case tcell.KeyEnter:
		if len(p.matches) > 0 {
			return true, p.matches[p.selected]
		}
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'j':
			p.moveSelection(1)
		case 'k':
			p.moveSelection(-1)
		case 'g':
			p.moveSelection(-len(p.matches))
		case 'G':
			p.moveSelection(len(p.matches))
		case '/':
			p.searchMode = true
			p.searchText = ""
		case 'q':
			return true, -1
		}
	}
	return false, 0
}

// filter recomputes the visible lines; an empty query keeps store order,
// otherwise matches are ranked best first
func (p *Picker) filter() {
	p.selected = 0
	p.offset = 0
	if p.searchText == "" {
		p.matches = make([]int, len(p.items))
		for i := range p.items {
			p.matches[i] = i
		}
		return
	}
	found := fuzzy.Find(p.searchText, p.items)
	p.matches = make([]int, len(found))
	for i, m := range found {
		p.matches[i] = m.Index
	}
}

func (p *Picker) moveSelection(delta int) {
	p.selected += delta
	if p.selected >= len(p.matches) {
		p.selected = len(p.matches) - 1
	}
	if p.selected < 0 {
		p.selected = 0
	}

	// Adjust offset for scrolling
	visibleHeight := p.visibleHeight()
	if p.selected-p.offset >= visibleHeight {
		p.offset = p.selected - visibleHeight + 1
	} else if p.selected < p.offset {
		p.offset = p.selected
	}
}

func (p *Picker) visibleHeight() int {
	_, height := p.screen.Size()
	if h := height - 4; h > 0 { // header, help, separator, footer
		return h
	}
	return 1
}

func (p *Picker) draw() {
	p.screen.Clear()
	width, height := p.screen.Size()

	title := p.Title
	if title == "" {
		title = "Clipboard History"
	}
	drawStringCenter(p.screen, 0, " "+title+" ", tcell.StyleDefault.Reverse(true))

	help := "↑/k:Up  ↓/j:Down  Enter:Copy  g/G:Top/Bottom  /:Filter  Esc/q:Quit"
	drawStringCenter(p.screen, 1, help, tcell.StyleDefault.Foreground(tcell.ColorYellow))

	if p.searchMode || p.searchText != "" {
		prompt := fmt.Sprintf(" Filter: %s", p.searchText)
		if p.searchMode {
			prompt += "█"
		}
		drawString(p.screen, 0, 2, prompt, tcell.StyleDefault.Reverse(p.searchMode))
	} else {
		drawString(p.screen, 0, 2, strings.Repeat("─", width), tcell.StyleDefault)
	}

	end := p.offset + p.visibleHeight()
	if end > len(p.matches) {
		end = len(p.matches)
	}
	for i, idx := range p.matches[p.offset:end] {
		style := tcell.StyleDefault
		if i+p.offset == p.selected {
			style = style.Reverse(true)
		}
		line := fmt.Sprintf(" %3d  %s", idx, p.items[idx])
		drawString(p.screen, 0, i+3, runewidth.Truncate(line, width, "…"), style)
	}

	if len(p.matches) > 0 {
		status := fmt.Sprintf(" %d/%d ", p.selected+1, len(p.matches))
		drawString(p.screen, width-runewidth.StringWidth(status), height-1, status, tcell.StyleDefault)
	}

	p.screen.Show()
}

func drawString(s tcell.Screen, x, y int, str string, style tcell.Style) {
	for _, r := range str {
		s.SetContent(x, y, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
}

func drawStringCenter(s tcell.Screen, y int, str string, style tcell.Style) {
	w, _ := s.Size()
	x := (w - runewidth.StringWidth(str)) / 2
	if x < 0 {
		x = 0
	}
	drawString(s, x, y, str, style)
}
