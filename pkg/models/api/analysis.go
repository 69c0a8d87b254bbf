package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

// SourceValue and RatioResult require every key to be present. Value and
// Consensus may be null but not omitted; the strings may be empty.
type SourceValue struct {
	Source string   `json:"source" yaml:"source"`
	Value  *float64 `json:"value" yaml:"value"`
}

func (v *SourceValue) UnmarshalJSON(data []byte) error {
	type sourceValue SourceValue
	return decodeFields(data, (*sourceValue)(v), "source", "value")
}

type RatioResult struct {
	Metric    string        `json:"metric" yaml:"metric"`
	Values    []SourceValue `json:"values" yaml:"values" validate:"required,dive"`
	Consensus *float64      `json:"consensus" yaml:"consensus"`
	Target    string        `json:"target" yaml:"target"`
	Status    string        `json:"status" yaml:"status" validate:"required,oneof=Pass Fail 'Info Only'"`
}

func (r *RatioResult) UnmarshalJSON(data []byte) error {
	type ratioResult RatioResult
	return decodeFields(data, (*ratioResult)(r), "metric", "values", "consensus", "target", "status")
}

// AnalysisResponse is the body of GET /api/analyze/{ticker}.
// Scores are pointers so that a missing field can be told apart from zero.
type AnalysisResponse struct {
	Ticker       string        `json:"ticker" yaml:"ticker" validate:"required"`
	Ratios       []RatioResult `json:"ratios" yaml:"ratios" validate:"required,dive"`
	OverallScore *int          `json:"overall_score" yaml:"overall_score" validate:"required"`
	MaxScore     *int          `json:"max_score" yaml:"max_score" validate:"required"`
}

// ErrorResponse is the optional body of a non-2xx answer.
type ErrorResponse struct {
	Detail string `json:"detail" yaml:"detail"`
}

type HealthResponse struct {
	Status  string `json:"status" yaml:"status" validate:"required"`
	Service string `json:"service" yaml:"service" validate:"required"`
}

// decodeFields decodes the object in data into v, rejecting unknown keys and
// any of keys that is absent.
func decodeFields(data []byte, v interface{}, keys ...string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for _, key := range keys {
		if _, ok := fields[key]; !ok {
			return fmt.Errorf("missing field %q", key)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validate checks that a decoded payload carries every required field.
func Validate(v interface{}) error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate.Struct(v)
}
