package dashboard

import (
	"fmt"
	"io"
)

// TerminalAlerter renders the sound+toast pair on a terminal: the BEL
// control character for the sound, a highlighted line for the toast.
type TerminalAlerter struct {
	out io.Writer
}

var _ Alerter = (*TerminalAlerter)(nil)

// NewTerminalAlerter writes alerts to out (usually os.Stdout).
func NewTerminalAlerter(out io.Writer) *TerminalAlerter {
	return &TerminalAlerter{out: out}
}

// NewOrder rings the bell and prints the toast line.
func (a *TerminalAlerter) NewOrder(o OrderSummary) {
	shortID := o.ID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	fmt.Fprintf(a.out, "\a🔔 new order #%s from %s, total %s\n", shortID, o.CustomerName, o.Total.StringFixed(2))
}
