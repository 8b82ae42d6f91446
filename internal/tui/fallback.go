package tui

import (
	"fmt"
	"io"
)

// FallbackRunner handles non-TTY execution by pointing users at line mode.
type FallbackRunner struct {
	out io.Writer
}

// NewFallbackRunner creates a FallbackRunner writing to out.
func NewFallbackRunner(out io.Writer) *FallbackRunner {
	return &FallbackRunner{out: out}
}

// Run prints guidance for non-interactive use.
func (f *FallbackRunner) Run() error {
	fmt.Fprintln(f.out, "Non-TTY environment detected.")
	fmt.Fprintln(f.out, "Use 'qudud chat --mood <mood> --reason <text>' to chat line by line.")
	return nil
}
