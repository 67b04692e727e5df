package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"

	"stinstaller/internal/wizard"
)

const defaultFollowThreshold = 3

// logPane shows the backend log tail. It follows new output only while the
// reader is within threshold rows of the bottom.
type logPane struct {
	viewport  viewport.Model
	threshold int
	seq       uint64
	update    wizard.LogUpdate
	hasUpdate bool
}

func newLogPane(width, height, threshold int) *logPane {
	if threshold <= 0 {
		threshold = defaultFollowThreshold
	}
	vp := viewport.New(max(1, width), max(1, height))
	vp.SetContent(wizard.LogUpdate{}.PlainText())
	return &logPane{viewport: vp, threshold: threshold}
}

func (p *logPane) Resize(width, height int) {
	p.viewport.Width = max(1, width)
	p.viewport.Height = max(1, height)
	if p.hasUpdate {
		p.setContent(renderLogLines(p.update))
	}
}

// Apply renders ev unless a newer event was already shown.
func (p *logPane) Apply(ev wizard.LogEvent) bool {
	if ev.Seq != 0 && ev.Seq <= p.seq {
		return false
	}
	p.seq = ev.Seq
	p.update = ev.Update
	p.hasUpdate = true
	p.setContent(renderLogLines(ev.Update))
	return true
}

func (p *logPane) setContent(content string) {
	follow := p.nearBottom()
	offset := p.viewport.YOffset
	p.viewport.SetContent(content)
	if follow {
		p.viewport.GotoBottom()
		return
	}
	p.viewport.SetYOffset(offset)
}

// nearBottom reports whether fewer than threshold rows are hidden below the
// visible window.
func (p *logPane) nearBottom() bool {
	hidden := p.viewport.TotalLineCount() - (p.viewport.YOffset + p.viewport.Height)
	return hidden < p.threshold
}

func (p *logPane) ScrollUp(n int) {
	p.viewport.LineUp(n)
}

func (p *logPane) ScrollDown(n int) {
	p.viewport.LineDown(n)
}

func (p *logPane) PageUp() {
	p.viewport.PageUp()
}

func (p *logPane) PageDown() {
	p.viewport.PageDown()
}

func (p *logPane) PlainText() string {
	return p.update.PlainText()
}

func (p *logPane) View() string {
	return p.viewport.View()
}

func renderLogLines(update wizard.LogUpdate) string {
	if update.Err != nil || len(update.Lines) == 0 {
		text := update.PlainText()
		if update.Err != nil {
			return logErrorStyle.Render(text)
		}
		return text
	}
	lines := make([]string, len(update.Lines))
	for i, line := range update.Lines {
		if style, ok := logStyle(line.Severity); ok {
			lines[i] = style.Render(line.Text)
			continue
		}
		lines[i] = line.Text
	}
	return strings.Join(lines, "\n")
}
