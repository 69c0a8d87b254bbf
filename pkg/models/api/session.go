package api

// SessionState is what the session web API returns to the UI.
type SessionState struct {
	Phase         string            `json:"phase" yaml:"phase"`
	CurrentTicker string            `json:"current_ticker" yaml:"current_ticker"`
	Result        *AnalysisResponse `json:"result" yaml:"result"`
	IsLoading     bool              `json:"is_loading" yaml:"is_loading"`
	Error         *string           `json:"error" yaml:"error"`
}

type Health struct {
	Status  string `json:"status" yaml:"status"`
	Service string `json:"service" yaml:"service"`
}
