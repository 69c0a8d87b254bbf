package domain

import (
	"errors"
	"strings"
)

var ErrInvalidTicker = errors.New("ticker symbol is empty")

// Ticker is a trimmed, upper-cased security symbol.
type Ticker string

// NormalizeTicker trims surrounding whitespace and upper-cases raw input.
func NormalizeTicker(raw string) (Ticker, error) {
	t := strings.ToUpper(strings.TrimSpace(raw))
	if t == "" {
		return "", ErrInvalidTicker
	}
	return Ticker(t), nil
}

func (t Ticker) String() string {
	return string(t)
}

type RatioStatus string

const (
	StatusPass     RatioStatus = "Pass"
	StatusFail     RatioStatus = "Fail"
	StatusInfoOnly RatioStatus = "Info Only"
)

type SourceValue struct {
	Source string   // Finviz
	Value  *float64 // nil when the source had no reading
}

type RatioResult struct {
	Metric    string // Gross Margin
	Values    []SourceValue
	Consensus *float64
	Target    string // >60%
	Status    RatioStatus
}

// AnalysisResult is the full response for one ticker. Values handed out by the
// analysis store are copies; callers must treat them as read-only.
type AnalysisResult struct {
	Ticker       Ticker
	Ratios       []RatioResult
	OverallScore int // ratios that passed
	MaxScore     int // ratios that count towards the score
}

// Clone returns a deep copy of the result.
func (r *AnalysisResult) Clone() *AnalysisResult {
	if r == nil {
		return nil
	}

	out := &AnalysisResult{
		Ticker:       r.Ticker,
		OverallScore: r.OverallScore,
		MaxScore:     r.MaxScore,
	}
	if r.Ratios == nil {
		return out
	}

	out.Ratios = make([]RatioResult, len(r.Ratios))
	for i, ratio := range r.Ratios {
		cp := ratio
		cp.Consensus = cloneFloat(ratio.Consensus)
		if ratio.Values != nil {
			cp.Values = make([]SourceValue, len(ratio.Values))
			for j, v := range ratio.Values {
				cp.Values[j] = SourceValue{Source: v.Source, Value: cloneFloat(v.Value)}
			}
		}
		out.Ratios[i] = cp
	}
	return out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

type HealthStatus struct {
	Status  string
	Service string
}
