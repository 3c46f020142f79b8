package history

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatCycles renders records as human-readable text, newest first as
// returned by Recent. now anchors the relative timestamps so output is
// deterministic in tests.
func FormatCycles(w io.Writer, recs []CycleRecord, now time.Time) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "no recorded cycles")
		return
	}
	for _, rec := range recs {
		fmt.Fprintf(w, "#%d  %-7s  %s  (%s, token %s)\n",
			rec.Seq,
			rec.State,
			rec.Detail,
			humanize.RelTime(rec.RecordedAt, now, "ago", "from now"),
			rec.Token,
		)
		fmt.Fprintf(w, "     watching: %s\n", strings.Join(rec.Watches, ", "))
	}
}
