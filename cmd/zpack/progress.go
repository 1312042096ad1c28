package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/meigma/zpack/unpack"
)

// progressLine prints a single self-overwriting percentage line.
type progressLine struct {
	out   io.Writer
	label string
	last  int
	quiet bool
}

func newProgressLine(label string) *progressLine {
	return &progressLine{
		out:   os.Stderr,
		label: label,
		last:  -1,
		quiet: settings.GetBool("quiet"),
	}
}

func (p *progressLine) update(ev unpack.ProgressEvent) {
	if p.quiet {
		return
	}
	pct := int(ev.Fraction() * 100)
	if pct == p.last {
		return
	}
	p.last = pct
	fmt.Fprintf(p.out, "\r%s %3d%%", p.label, pct)
}

// done terminates the line. Nothing is printed if no update was shown.
func (p *progressLine) done(err error) {
	if p.quiet || p.last < 0 {
		return
	}
	if err != nil {
		fmt.Fprintf(p.out, "\r%s %s\n", p.label, color.RedString("failed"))
		return
	}
	fmt.Fprintf(p.out, "\r%s %s\n", p.label, color.GreenString("done"))
}
