package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const heightStep = 0.05

type tickMsg time.Time

type model struct {
	src      *loopSource
	name     string
	rate     int
	stateErr error
	saved    []byte
}

func newModel(src *loopSource, name string, rate int) model {
	return model{src: src, name: name, rate: rate}
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return tickCmd()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k", "+":
			m.src.SetHeight(m.src.Height() + heightStep)
		case "down", "j", "-":
			m.src.SetHeight(m.src.Height() - heightStep)
		case "0":
			m.src.SetHeight(0)
		case "b", " ":
			m.src.SetBypassed(!m.src.Bypassed())
		case "r":
			m.src.Restart()
		case "s":
			m.saved = m.src.engine.State()
			m.stateErr = nil
		case "l":
			if m.saved != nil {
				m.stateErr = m.src.engine.LoadState(m.saved)
			}
		}
	case tickMsg:
		return m, tickCmd()
	}
	return m, nil
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#D35400"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true)
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))
	bypassStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A40000"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A40000"))
)

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Skillet - headphone height"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%s @ %d Hz", m.name, m.rate)))
	b.WriteString("\n\n")

	h := m.src.Height()
	b.WriteString(fmt.Sprintf(" height  %+.2f  %s\n", h, heightBar(h, 41)))

	st := m.src.status()
	b.WriteString(fmt.Sprintf(" floor   %6.2f ms   chest %5.2f ms   wet %6.1f dB\n",
		st.floorMs, st.chestMs, st.wetGainDB))
	b.WriteString(fmt.Sprintf(" pinna   %+5.2f / %+5.2f / %+5.2f dB\n",
		st.pinnaDB[0], st.pinnaDB[1], st.pinnaDB[2]))

	peak := m.src.Peak()
	peakDB := 20 * math.Log10(peak+1e-12)
	b.WriteString(fmt.Sprintf(" level   %6.1f dBFS\n", peakDB))

	if m.src.Bypassed() {
		b.WriteString("\n ")
		b.WriteString(bypassStyle.Render("BYPASSED"))
		b.WriteString("\n")
	}
	if m.stateErr != nil {
		b.WriteString("\n ")
		b.WriteString(errStyle.Render(m.stateErr.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("↑/↓ height  0 centre  b bypass  r restart  s/l save/load state  q quit"))
	b.WriteString("\n")
	return b.String()
}

// heightBar draws a width-cell slider with the marker at h in [-1, 1].
func heightBar(h float32, width int) string {
	pos := int(math.Round(float64(h+1) / 2 * float64(width-1)))
	if pos < 0 {
		pos = 0
	}
	if pos >= width {
		pos = width - 1
	}
	cells := []rune(strings.Repeat("─", width))
	cells[width/2] = '┼'
	cells[pos] = '●'
	return barStyle.Render(string(cells))
}
