package journal

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/rustyeddy/marginsim/sim"
)

var orgFuncs = template.FuncMap{
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var orgTemplate = template.Must(template.New("run").Funcs(orgFuncs).Parse(RunOrgTemplate))

// WriteOrg renders the run as an Org-mode heading.
func (r Run) WriteOrg(w io.Writer) error {
	return orgTemplate.Execute(w, r)
}

const RunOrgTemplate = `* RUN: {{.Strategy}} {{if .Pair}}{{.Pair}}{{else}}(pair?){{end}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:STRATEGY:    {{.Strategy}}
:PAIR:        {{.Pair}}
:DATASET:     {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:START_DATE:  {{.Start.UTC.Format "2006-01-02"}}
:END_DATE:    {{.End.UTC.Format "2006-01-02"}}
:INVESTMENT:  {{printf "%.2f" .Investment}}
:FINAL_VALUE: {{printf "%.2f" .FinalValue}}
:NET_PL:      {{printf "%.2f" .NetPL}}
:RETURN_PCT:  {{printf "%.2f" .ReturnPct}}
:MAX_DD_PCT:  {{printf "%.2f" .MaxDDPct}}
:INTEREST:    {{printf "%.2f" .InterestCost}}
:FEES:        {{printf "%.2f" .FeesCost}}
:ROUND_TRIPS: {{.RoundTrips}}
:WINS:        {{.Wins}}
:LOSSES:      {{.Losses}}
:WIN_RATE:    {{printf "%.2f" .WinRate}}
:CREATED:     [{{(orTime .Created).UTC.Format "2006-01-02 Mon 15:04"}}]
:END:

** Configuration
#+begin_src yaml
{{printf "%s" .Config}}
#+end_src

** Performance Summary
- Net P/L:          *{{printf "%.2f" .NetPL}}*
- Return:           *{{printf "%.2f" .ReturnPct}}%*
- Max Drawdown:     *{{printf "%.2f" .MaxDDPct}}%*
- Interest paid:    *{{printf "%.2f" .InterestCost}}*
- Fees paid:        *{{printf "%.2f" .FeesCost}}*

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Wins}} |
| Losses  | {{.Losses}} |
| Total   | {{.RoundTrips}} |

{{- if .Notes }}

** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}
`

// FormatFillOrg renders one fill as an Org-mode sub-heading.
func FormatFillOrg(f sim.Fill) string {
	ts := time.Unix(f.Time, 0).UTC().Format(time.RFC3339)

	var b strings.Builder
	fmt.Fprintf(&b, "*** %s %s @ %.6f\n", strings.ToUpper(f.Action.String()), ts, f.ExecutionPrice)
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":TIME: %d\n", f.Time)
	fmt.Fprintf(&b, ":REASON: %s\n", f.Reason)
	fmt.Fprintf(&b, ":EFFECTIVE_PRICE: %.6f\n", f.EffectivePrice)
	fmt.Fprintf(&b, ":SHARES: %.6f\n", f.Shares)
	fmt.Fprintf(&b, ":FEE: %.2f\n", f.Fee)
	fmt.Fprintf(&b, ":BORROWED: %.2f\n", f.Borrowed)
	fmt.Fprintf(&b, ":DEBT: %.2f\n", f.Debt)
	fmt.Fprintf(&b, ":CASH: %.2f\n", f.Cash)
	fmt.Fprintf(&b, ":VALUE: %.2f\n", f.Value)
	b.WriteString(":END:\n")
	return b.String()
}

// FormatFillsOrg renders fills under a "Fills" heading, separated by blank
// lines.
func FormatFillsOrg(fills []sim.Fill) string {
	if len(fills) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("** Fills\n")
	for i, f := range fills {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatFillOrg(f))
	}
	return b.String()
}

// ExportOrg loads a run and its fills and renders them as one Org block.
func (j *SQLite) ExportOrg(ctx context.Context, runID string) (string, error) {
	r, err := j.GetRun(ctx, runID)
	if err != nil {
		return "", err
	}
	fills, err := j.ListFills(ctx, runID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if err := r.WriteOrg(&b); err != nil {
		return "", err
	}
	if s := FormatFillsOrg(fills); s != "" {
		b.WriteString("\n")
		b.WriteString(s)
	}
	return b.String(), nil
}
