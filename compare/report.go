package compare

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/LevanBokeria/autoemulate/metrics"
)

// Report renders the ranked results as a plain-text table: one row per
// representative, best first, plus a trailer listing wholly-failed
// combinations. Suitable for terminal output and logs.
func Report(results []*TrialResult, failed map[string]error, primary, secondary metrics.Metric) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 2, 4, 2, ' ', 0)

	fmt.Fprintf(w, "rank\tmodel\tx-transforms\ty-transforms\t%s (test)\t%s (test)\tcv %s\n",
		primary.Name, secondary.Name, primary.Name)
	for i, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.4f\t%.4f\t%.4f\n",
			i+1, r.Model, r.XChain, r.YChain, r.TestScore, r.SecondaryScore, r.CVScore)
	}
	w.Flush()

	if len(failed) > 0 {
		b.WriteString("\nfailed combinations:\n")
		names := make([]string, 0, len(failed))
		for name := range failed {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "  %s: %v\n", name, failed[name])
		}
	}
	return b.String()
}

// Report renders the session's last Compare as a ranked table.
func (s *Session) Report() string {
	return Report(s.results, s.failed, s.opts.PrimaryMetric, s.opts.SecondaryMetric)
}
