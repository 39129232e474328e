package errors

import (
	"fmt"

	"github.com/fatih/color"
	"golang.org/x/text/message"

	"github.com/sunholo/bloodc/internal/ast"
)

// Fix is an optional suggested remediation attached to a Report.
type Fix struct {
	Suggestion string
	Confidence float64
}

// Report is the structured diagnostic every phase emits. Collection-
// and body-checking errors are accumulated rather than raised, so that
// one pass surfaces as many reports as possible (§7 propagation policy).
type Report struct {
	Code    string
	Phase   string
	Message string
	Span    ast.Span
	Data    map[string]any
	Fix     *Fix
}

func (r *Report) Error() string {
	if r.Span.IsDummy() {
		return fmt.Sprintf("%s: %s", r.Code, r.Message)
	}
	return fmt.Sprintf("%s: %s: %s", r.Span.Start, r.Code, r.Message)
}

// New builds a bare report; Data/Fix are attached with WithData/WithFix.
func New(code, phase, message string, span ast.Span) *Report {
	return &Report{Code: code, Phase: phase, Message: message, Span: span}
}

func (r *Report) WithData(data map[string]any) *Report {
	r.Data = data
	return r
}

func (r *Report) WithFix(suggestion string, confidence float64) *Report {
	r.Fix = &Fix{Suggestion: suggestion, Confidence: confidence}
	return r
}

// Collector accumulates reports across a pass, per the "continue after
// error" policy: collection and body-checking never abort on the first
// failure, they keep going with Error-tainted types and gather every
// report found along the way.
type Collector struct {
	reports []*Report
}

func (c *Collector) Add(r *Report) { c.reports = append(c.reports, r) }

func (c *Collector) HasErrors() bool { return len(c.reports) > 0 }

func (c *Collector) Reports() []*Report { return c.reports }

// Render returns every collected report as colored text, one per line
// in the `[code] message (span start)` shape plus an optional help line,
// followed by an "N error(s)" count formatted through an x/text printer.
func (c *Collector) Render() string {
	p := message.NewPrinter(message.MatchLanguage("en"))
	red := color.New(color.FgRed, color.Bold)
	dim := color.New(color.FgHiBlack)

	out := ""
	for _, r := range c.reports {
		out += red.Sprintf("[%s]", r.Code) + " " + r.Message
		if !r.Span.IsDummy() {
			out += dim.Sprintf(" (%s)", r.Span.Start)
		}
		if r.Fix != nil {
			out += fmt.Sprintf("\n  help: %s", r.Fix.Suggestion)
		}
		out += "\n"
	}
	out += p.Sprintf("%d error(s)\n", len(c.reports))
	return out
}
