package errors

import "encoding/json"

// jsonReport is Report's wire shape; encoding/json sorts map keys on its
// own, so Data renders deterministically without extra bookkeeping.
type jsonReport struct {
	Schema  string         `json:"schema"`
	Code    string         `json:"code"`
	Phase   string         `json:"phase"`
	Message string         `json:"message"`
	Span    *jsonSpan      `json:"span,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Fix     *Fix           `json:"fix,omitempty"`
}

type jsonSpan struct {
	File        string `json:"file"`
	StartLine   int    `json:"start_line"`
	StartColumn int    `json:"start_column"`
	EndLine     int    `json:"end_line"`
	EndColumn   int    `json:"end_column"`
}

const schemaVersion = "bloodc.diagnostic/v1"

// ToJSON renders r as deterministic JSON for CI/tooling consumption.
func (r *Report) ToJSON() ([]byte, error) {
	jr := jsonReport{
		Schema:  schemaVersion,
		Code:    r.Code,
		Phase:   r.Phase,
		Message: r.Message,
		Data:    r.Data,
		Fix:     r.Fix,
	}
	if !r.Span.IsDummy() {
		jr.Span = &jsonSpan{
			File:        r.Span.Start.File,
			StartLine:   r.Span.Start.Line,
			StartColumn: r.Span.Start.Column,
			EndLine:     r.Span.End.Line,
			EndColumn:   r.Span.End.Column,
		}
	}
	return json.MarshalIndent(jr, "", "  ")
}

// ToJSON renders every collected report as a JSON array, in collection
// order.
func (c *Collector) ToJSON() ([]byte, error) {
	reports := make([]jsonReport, len(c.reports))
	for i, r := range c.reports {
		jr := jsonReport{
			Schema:  schemaVersion,
			Code:    r.Code,
			Phase:   r.Phase,
			Message: r.Message,
			Data:    r.Data,
			Fix:     r.Fix,
		}
		if !r.Span.IsDummy() {
			jr.Span = &jsonSpan{
				File:        r.Span.Start.File,
				StartLine:   r.Span.Start.Line,
				StartColumn: r.Span.Start.Column,
				EndLine:     r.Span.End.Line,
				EndColumn:   r.Span.End.Column,
			}
		}
		reports[i] = jr
	}
	return json.MarshalIndent(reports, "", "  ")
}
