package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/poiesic/fileoracle/reembed"
	"github.com/schollz/progressbar/v3"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	okColor     = color.New(color.FgGreen)
	warnColor   = color.New(color.FgYellow)
	errColor    = color.New(color.FgRed, color.Bold)
)

// printer writes to w and remembers the first write error.
type printer struct {
	w   io.Writer
	err error
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w}
}

func (p *printer) printf(c *color.Color, format string, args ...any) {
	if p.err != nil {
		return
	}
	if c == nil {
		_, p.err = fmt.Fprintf(p.w, format, args...)
		return
	}
	_, p.err = c.Fprintf(p.w, format, args...)
}

func (p *printer) println(c *color.Color, args ...any) {
	p.printf(c, "%s\n", fmt.Sprint(args...))
}

func newProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionClearOnFinish(),
	)
}

// barReporter shows reembedding progress as a progress bar.
type barReporter struct {
	w           io.Writer
	description string
	bar         *progressbar.ProgressBar
}

var _ reembed.Reporter = (*barReporter)(nil)

func newBarReporter(w io.Writer, description string) *barReporter {
	return &barReporter{w: w, description: description}
}

func (r *barReporter) Start(total int) {
	r.bar = newProgressBar(r.w, total, r.description)
}

func (r *barReporter) Update(current int) {
	if r.bar != nil {
		_ = r.bar.Set(current)
	}
}

func (r *barReporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}
