package cmd

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/RyanBlaney/hls2mp4/pkg/stream/hls"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	stageStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("211")).
			Width(20)
	jobStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))
	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// progressBar renders download progress on a single terminal line
type progressBar struct {
	mu    sync.Mutex
	out   io.Writer
	bar   progress.Model
	title cases.Caser
	job   string
	stage hls.Stage
	last  float64
}

func newProgressBar(out io.Writer, job string) *progressBar {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	return &progressBar{
		out:   out,
		bar:   bar,
		title: cases.Title(language.English),
		job:   job,
		stage: -1,
	}
}

// Update is an hls.ProgressFunc
func (p *progressBar) Update(stage hls.Stage, fraction float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if stage == p.stage && fraction == p.last {
		return
	}
	if stage != p.stage && p.stage >= 0 {
		fmt.Fprintln(p.out)
	}
	p.stage = stage
	p.last = fraction

	fmt.Fprintf(p.out, "\r%s %s %s", jobStyle.Render(p.job), stageStyle.Render(p.stageLabel(stage)), p.bar.ViewAs(fraction))
}

// Finish ends the current line and prints the outcome
func (p *progressBar) Finish(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stage >= 0 {
		fmt.Fprintln(p.out)
	}
	if err != nil {
		fmt.Fprintln(p.out, failStyle.Render("failed"))
		return
	}
	fmt.Fprintln(p.out, doneStyle.Render("done"))
}

func (p *progressBar) stageLabel(stage hls.Stage) string {
	return p.title.String(strings.ReplaceAll(stage.String(), "_", " "))
}
