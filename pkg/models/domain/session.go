package domain

type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseLoaded  Phase = "loaded"
	PhaseFailed  Phase = "failed"
)

// SessionState is a point-in-time view of the analysis session.
type SessionState struct {
	CurrentTicker Ticker
	Result        *AnalysisResult
	IsLoading     bool
	ErrorMessage  string
}

func (s SessionState) Phase() Phase {
	switch {
	case s.IsLoading:
		return PhaseLoading
	case s.ErrorMessage != "":
		return PhaseFailed
	case s.Result != nil:
		return PhaseLoaded
	default:
		return PhaseIdle
	}
}
