package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/de-tools/ratio-atlas/pkg/adapters"
	"github.com/de-tools/ratio-atlas/pkg/models/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (expected table, json or yaml)", s)
	}
}

type TableConfig struct {
	MetricWidth    int
	ConsensusWidth int
	TargetWidth    int
	StatusWidth    int
	SourcesWidth   int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		MetricWidth:    24,
		ConsensusWidth: 12,
		TargetWidth:    12,
		StatusWidth:    10,
		SourcesWidth:   48,
	}
}

const valuePrecision = 2

// Reporter renders the analysis session state.
type Reporter struct {
	writer io.Writer
	config TableConfig
	format Format
}

func NewReporter(writer io.Writer, format Format) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	if format == "" {
		format = FormatTable
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
		format: format,
	}
}

func (c *Reporter) Handle(state domain.SessionState) error {
	switch c.format {
	case FormatJSON:
		enc := json.NewEncoder(c.writer)
		enc.SetIndent("", "  ")
		return enc.Encode(adapters.MapDomainSessionToAPI(state))
	case FormatYAML:
		enc := yaml.NewEncoder(c.writer)
		enc.SetIndent(2)
		if err := enc.Encode(adapters.MapDomainSessionToAPI(state)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return c.table(state)
	}
}

func (c *Reporter) table(state domain.SessionState) error {
	switch state.Phase() {
	case domain.PhaseIdle:
		_, err := fmt.Fprintln(c.writer, "No analysis loaded.")
		return err
	case domain.PhaseLoading:
		_, err := fmt.Fprintf(c.writer, "Analyzing %s...\n", state.CurrentTicker)
		return err
	case domain.PhaseFailed:
		_, err := fmt.Fprintf(c.writer, "Error: %s\n", state.ErrorMessage)
		return err
	}

	funcMap := template.FuncMap{
		"formatRow": func(metric, consensus, target, status, sources string) string {
			return fmt.Sprintf("| %-*s | %-*s | %-*s | %-*s | %-*s |",
				c.config.MetricWidth, metric,
				c.config.ConsensusWidth, consensus,
				c.config.TargetWidth, target,
				c.config.StatusWidth, status,
				c.config.SourcesWidth, sources)
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+%s+%s+",
				strings.Repeat("-", c.config.MetricWidth+2),
				strings.Repeat("-", c.config.ConsensusWidth+2),
				strings.Repeat("-", c.config.TargetWidth+2),
				strings.Repeat("-", c.config.StatusWidth+2),
				strings.Repeat("-", c.config.SourcesWidth+2))
		},
		"value":   formatValue,
		"sources": formatSources,
	}

	tmpl := `
{{.Ticker}}: {{.OverallScore}}/{{.MaxScore}} ratios passed

{{separator}}
{{formatRow "Metric" "Consensus" "Target" "Status" "Sources"}}
{{separator}}
{{range .Ratios}}{{formatRow .Metric (value .Consensus) .Target (printf "%s" .Status) (sources .Values)}}
{{end}}{{separator}}
`

	t, err := template.New("analysis").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, state.Result)
}

func formatValue(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return decimal.NewFromFloat(*v).StringFixed(valuePrecision)
}

func formatSources(values []domain.SourceValue) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprintf("%s=%s", v.Source, formatValue(v.Value)))
	}
	return strings.Join(parts, ", ")
}
