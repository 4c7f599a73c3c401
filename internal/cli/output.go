package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

// isTerminal reports whether w is an interactive terminal.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// table writes aligned columns on a terminal and tab-separated values
// otherwise, so output stays easy to pipe into cut or awk.
type table struct {
	w     io.Writer
	tw    *tabwriter.Writer
	plain bool
}

func newTable(w io.Writer, headers ...string) *table {
	t := &table{w: w, plain: !isTerminal(w)}
	if !t.plain {
		t.tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		t.row(headers...)
	}
	return t
}

func (t *table) row(cols ...string) {
	line := strings.Join(cols, "\t") + "\n"
	if t.plain {
		io.WriteString(t.w, line)
		return
	}
	io.WriteString(t.tw, line)
}

func (t *table) flush() error {
	if t.plain {
		return nil
	}
	return t.tw.Flush()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func printWarnings(w io.Writer, warnings []string) {
	for _, warning := range warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}
}

// formatMB renders a MiB amount as IEC bytes, e.g. "7.7 GiB".
func formatMB(mb float64) string {
	if mb <= 0 {
		return "-"
	}
	return humanize.IBytes(uint64(mb * 1024 * 1024))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
