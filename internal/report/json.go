package report

import (
	"encoding/json"
	"io"
)

// JSONGenerator renders a Report as JSON, optionally indented.
type JSONGenerator struct {
	Indent bool
}

// Generate writes report to w as JSON.
func (g *JSONGenerator) Generate(report *Report, w io.Writer) error {
	encoder := json.NewEncoder(w)
	if g.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(report)
}

// Extension returns "json".
func (g *JSONGenerator) Extension() string {
	return "json"
}

// GenerateBytes renders report as a JSON byte slice.
func (g *JSONGenerator) GenerateBytes(report *Report) ([]byte, error) {
	if g.Indent {
		return json.MarshalIndent(report, "", "  ")
	}
	return json.Marshal(report)
}
