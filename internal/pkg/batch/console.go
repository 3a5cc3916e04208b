package batch

import (
	"fmt"
	"io"
	"os"
	"time"
)

// redrawInterval throttles console redraws so a fast backend does not flood
// the terminal.
const redrawInterval = 100 * time.Millisecond

// ConsoleProgress returns a progress sink that redraws a single line on
// stderr. The final update and the trailing newline are always printed.
func ConsoleProgress(label string) func(Progress) {
	return consoleProgress(label, os.Stderr)
}

func consoleProgress(label string, out io.Writer) func(Progress) {

	var last time.Time
	return func(p Progress) {

		done := p.Processed >= p.Total
		if !done && time.Since(last) < redrawInterval {
			return
		}
		last = time.Now()

		fmt.Fprintf(out, "\r%s: %d/%d (%.0f items/s, %s remaining, %d failed)",
			label, p.Processed, p.Total, p.Rate, p.Remaining, p.Failed)
		if done {
			fmt.Fprintln(out)
		}
	}
}
