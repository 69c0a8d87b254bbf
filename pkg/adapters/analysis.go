package adapters

import (
	"github.com/de-tools/ratio-atlas/pkg/models/api"
	"github.com/de-tools/ratio-atlas/pkg/models/domain"
)

// MapAPIAnalysisToDomain expects a response that already passed api.Validate.
func MapAPIAnalysisToDomain(resp api.AnalysisResponse) *domain.AnalysisResult {
	result := &domain.AnalysisResult{
		Ticker: domain.Ticker(resp.Ticker),
		Ratios: make([]domain.RatioResult, 0, len(resp.Ratios)),
	}
	if resp.OverallScore != nil {
		result.OverallScore = *resp.OverallScore
	}
	if resp.MaxScore != nil {
		result.MaxScore = *resp.MaxScore
	}

	for _, r := range resp.Ratios {
		values := make([]domain.SourceValue, 0, len(r.Values))
		for _, v := range r.Values {
			values = append(values, domain.SourceValue{Source: v.Source, Value: copyFloat(v.Value)})
		}
		result.Ratios = append(result.Ratios, domain.RatioResult{
			Metric:    r.Metric,
			Values:    values,
			Consensus: copyFloat(r.Consensus),
			Target:    r.Target,
			Status:    domain.RatioStatus(r.Status),
		})
	}

	return result
}

func MapDomainAnalysisToAPI(result *domain.AnalysisResult) *api.AnalysisResponse {
	if result == nil {
		return nil
	}

	overall, maxScore := result.OverallScore, result.MaxScore
	resp := &api.AnalysisResponse{
		Ticker:       result.Ticker.String(),
		Ratios:       make([]api.RatioResult, 0, len(result.Ratios)),
		OverallScore: &overall,
		MaxScore:     &maxScore,
	}

	for _, r := range result.Ratios {
		values := make([]api.SourceValue, 0, len(r.Values))
		for _, v := range r.Values {
			values = append(values, api.SourceValue{Source: v.Source, Value: copyFloat(v.Value)})
		}
		resp.Ratios = append(resp.Ratios, api.RatioResult{
			Metric:    r.Metric,
			Values:    values,
			Consensus: copyFloat(r.Consensus),
			Target:    r.Target,
			Status:    string(r.Status),
		})
	}

	return resp
}

func MapDomainSessionToAPI(state domain.SessionState) api.SessionState {
	out := api.SessionState{
		Phase:         string(state.Phase()),
		CurrentTicker: state.CurrentTicker.String(),
		Result:        MapDomainAnalysisToAPI(state.Result),
		IsLoading:     state.IsLoading,
	}
	if state.ErrorMessage != "" {
		msg := state.ErrorMessage
		out.Error = &msg
	}
	return out
}

func MapDomainHealthToAPI(h domain.HealthStatus) api.Health {
	return api.Health{Status: h.Status, Service: h.Service}
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
