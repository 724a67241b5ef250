package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// printer writes coloured command output
type printer struct {
	w io.Writer

	heading *color.Color
	good    *color.Color
	warn    *color.Color
	bad     *color.Color
	faint   *color.Color
}

func newPrinter(w io.Writer) *printer {
	return &printer{
		w:       w,
		heading: color.New(color.FgCyan, color.Bold),
		good:    color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		bad:     color.New(color.FgRed, color.Bold),
		faint:   color.New(color.Faint),
	}
}

func (p *printer) Info(format string, args ...interface{}) {
	p.faint.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) Warn(format string, args ...interface{}) {
	p.warn.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) Error(err error) {
	p.bad.Fprintf(p.w, "Error: %v\n", err)
}

// Answer prints the answer text followed by its numbered sources
func (p *printer) Answer(a *domain.Answer) {
	if a.Grounded {
		p.heading.Fprintln(p.w, "Answer:")
		fmt.Fprintln(p.w, a.Text)
	} else {
		p.warn.Fprintln(p.w, a.Text)
		if a.Fallback != domain.FallbackNone {
			p.faint.Fprintf(p.w, "(%s)\n", a.Fallback)
		}
	}

	if len(a.Passages) == 0 {
		return
	}
	fmt.Fprintln(p.w)
	p.heading.Fprintln(p.w, "Sources:")
	for i, passage := range a.Passages {
		fmt.Fprintf(p.w, "  [%d] %s#%d ", i+1, passage.Record.SourcePath, passage.Record.ChunkIndex)
		p.faint.Fprintf(p.w, "(score %.3f)\n", passage.Score)
	}
}

// IngestResult prints the counts of a finished run
func (p *printer) IngestResult(r *domain.IngestResult) {
	p.good.Fprintf(p.w, "Indexed %d chunks from %d documents", r.Stats.ChunksIndexed, r.Stats.DocumentsIndexed)
	fmt.Fprintf(p.w, " in %.1fs (run %s)\n", r.Duration, r.RunID)
	if r.Stats.DocumentsSkipped > 0 {
		p.warn.Fprintf(p.w, "Skipped %d unreadable documents\n", r.Stats.DocumentsSkipped)
	}
}

// Status prints the index state, size and most recent run
func (p *printer) Status(s *domain.IndexStatus, indexDir string) {
	state := p.warn
	if s.State == domain.IndexStateReady {
		state = p.good
	}
	fmt.Fprint(p.w, "State:     ")
	state.Fprintln(p.w, s.State)
	fmt.Fprintf(p.w, "Index dir: %s\n", indexDir)
	fmt.Fprintf(p.w, "Entries:   %d\n", s.Entries)
	if s.Dimension > 0 {
		fmt.Fprintf(p.w, "Dimension: %d\n", s.Dimension)
	}
	if s.Model != "" {
		fmt.Fprintf(p.w, "Model:     %s\n", s.Model)
	}

	if s.LastRun == nil {
		return
	}
	run := s.LastRun
	fmt.Fprintf(p.w, "Last run:  %s %s", run.ID, run.StartedAt.Format(time.RFC3339))
	switch run.Status {
	case domain.IngestStatusCompleted:
		p.good.Fprintf(p.w, " %s", run.Status)
	case domain.IngestStatusFailed:
		p.bad.Fprintf(p.w, " %s", run.Status)
	default:
		p.warn.Fprintf(p.w, " %s", run.Status)
	}
	fmt.Fprintln(p.w)
	if run.Error != "" {
		p.faint.Fprintf(p.w, "           %s\n", run.Error)
	}
}
