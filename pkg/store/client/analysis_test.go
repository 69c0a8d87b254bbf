package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/de-tools/ratio-atlas/pkg/models/domain"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aaplBody = `{
	"ticker": "AAPL",
	"ratios": [{
		"metric": "P/E",
		"values": [{"source": "X", "value": 15.2}],
		"consensus": 15.2,
		"target": "<20",
		"status": "Pass"
	}],
	"overall_score": 1,
	"max_score": 1
}`

func ptr(v float64) *float64 { return &v }

func aaplResult() *domain.AnalysisResult {
	return &domain.AnalysisResult{
		Ticker: "AAPL",
		Ratios: []domain.RatioResult{{
			Metric:    "P/E",
			Values:    []domain.SourceValue{{Source: "X", Value: ptr(15.2)}},
			Consensus: ptr(15.2),
			Target:    "<20",
			Status:    domain.StatusPass,
		}},
		OverallScore: 1,
		MaxScore:     1,
	}
}

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

type backend struct {
	status int
	body   string
	seen   []*http.Request
}

func newBackend(t *testing.T, b *backend) *httptest.Server {
	router := chi.NewRouter()
	router.Get("/api/analyze/{ticker}", func(w http.ResponseWriter, r *http.Request) {
		b.seen = append(b.seen, r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(b.status)
		_, _ = w.Write([]byte(b.body))
	})
	router.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(b.status)
		_, _ = w.Write([]byte(b.body))
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestNew(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())

	c, err = New("http://api.example.com:9000/")
	require.NoError(t, err)
	assert.Equal(t, "http://api.example.com:9000", c.BaseURL())

	_, err = New("localhost")
	assert.Error(t, err)

	_, err = New("http://%zz")
	assert.Error(t, err)
}

func TestClient_AnalyzeStock_Success(t *testing.T) {
	b := &backend{status: http.StatusOK, body: aaplBody}
	srv := newBackend(t, b)
	c, err := New(srv.URL)
	require.NoError(t, err)

	result, err := c.AnalyzeStock(testContext(t), " aapl ")

	require.NoError(t, err)
	assert.Equal(t, aaplResult(), result)
	require.Len(t, b.seen, 1)
	assert.Equal(t, "/api/analyze/AAPL", b.seen[0].URL.Path)
	assert.Equal(t, "application/json", b.seen[0].Header.Get("Accept"))
	assert.NotEmpty(t, b.seen[0].Header.Get("X-Request-ID"))
}

func TestClient_AnalyzeStock_NullValues(t *testing.T) {
	b := &backend{status: http.StatusOK, body: `{
		"ticker": "PLTR",
		"ratios": [{"metric": "ROIC", "values": [{"source": "Finviz", "value": null}], "consensus": null, "target": ">10-12%", "status": "Info Only"}],
		"overall_score": 0,
		"max_score": 4
	}`}
	c, err := New(newBackend(t, b).URL)
	require.NoError(t, err)

	result, err := c.AnalyzeStock(testContext(t), "PLTR")

	require.NoError(t, err)
	require.Len(t, result.Ratios, 1)
	assert.Nil(t, result.Ratios[0].Consensus)
	assert.Nil(t, result.Ratios[0].Values[0].Value)
	assert.Equal(t, domain.StatusInfoOnly, result.Ratios[0].Status)
	assert.Equal(t, 0, result.OverallScore)
	assert.Equal(t, 4, result.MaxScore)
}

func TestClient_AnalyzeStock_ErrorPrecedence(t *testing.T) {
	t.Run("backend detail wins", func(t *testing.T) {
		b := &backend{status: http.StatusNotFound, body: `{"detail": "Ticker not found"}`}
		c, err := New(newBackend(t, b).URL)
		require.NoError(t, err)

		_, err = c.AnalyzeStock(testContext(t), "ZZZZ")

		var reqErr *RequestError
		require.ErrorAs(t, err, &reqErr)
		assert.Equal(t, "Ticker not found", reqErr.Error())
		assert.Equal(t, KindStatus, reqErr.Kind)
		assert.Equal(t, http.StatusNotFound, reqErr.StatusCode)
	})

	t.Run("status description without detail", func(t *testing.T) {
		b := &backend{status: http.StatusInternalServerError, body: `oops`}
		srv := newBackend(t, b)
		c, err := New(srv.URL)
		require.NoError(t, err)

		_, err = c.AnalyzeStock(testContext(t), "MSFT")

		require.Error(t, err)
		assert.Equal(t, "GET "+srv.URL+"/api/analyze/MSFT: 500 Internal Server Error", err.Error())
	})

	t.Run("transport message", func(t *testing.T) {
		hc := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("dial tcp 127.0.0.1:8000: connect: connection refused")
		})}
		c, err := New("http://localhost:8000", WithHTTPClient(hc))
		require.NoError(t, err)

		_, err = c.AnalyzeStock(testContext(t), "AAPL")

		var reqErr *RequestError
		require.ErrorAs(t, err, &reqErr)
		assert.Equal(t, "dial tcp 127.0.0.1:8000: connect: connection refused", reqErr.Message)
		assert.Equal(t, KindTransport, reqErr.Kind)
	})

	t.Run("fallback when nothing describes the failure", func(t *testing.T) {
		hc := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("")
		})}
		c, err := New("http://localhost:8000", WithHTTPClient(hc))
		require.NoError(t, err)

		_, err = c.AnalyzeStock(testContext(t), "AAPL")

		require.Error(t, err)
		assert.Equal(t, FallbackMessage, err.Error())
		assert.Contains(t, err.Error(), "http://localhost:8000")
	})
}

func TestClient_AnalyzeStock_StrictDecode(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "unknown field",
			body: `{"ticker": "AAPL", "ratios": [], "overall_score": 1, "max_score": 1, "extra": true}`,
		},
		{
			name: "missing score",
			body: `{"ticker": "AAPL", "ratios": [], "max_score": 1}`,
		},
		{
			name: "missing ratios",
			body: `{"ticker": "AAPL", "overall_score": 1, "max_score": 1}`,
		},
		{
			name: "unknown status",
			body: `{"ticker": "AAPL", "ratios": [{"metric": "P/E", "values": [], "consensus": null, "target": "<20", "status": "Maybe"}], "overall_score": 1, "max_score": 1}`,
		},
		{
			name: "nested unknown field",
			body: `{"ticker": "AAPL", "ratios": [{"metric": "P/E", "values": [{"source": "X", "value": 1, "weight": 2}], "consensus": 1, "target": "<20", "status": "Pass"}], "overall_score": 1, "max_score": 1}`,
		},
		{
			name: "missing consensus",
			body: `{"ticker": "AAPL", "ratios": [{"metric": "P/E", "values": [{"source": "X", "value": 1}], "target": "<20", "status": "Pass"}], "overall_score": 1, "max_score": 1}`,
		},
		{
			name: "missing value",
			body: `{"ticker": "AAPL", "ratios": [{"metric": "P/E", "values": [{"source": "X"}], "consensus": 1, "target": "<20", "status": "Pass"}], "overall_score": 1, "max_score": 1}`,
		},
		{
			name: "missing target",
			body: `{"ticker": "AAPL", "ratios": [{"metric": "P/E", "values": [], "consensus": null, "status": "Pass"}], "overall_score": 1, "max_score": 1}`,
		},
		{
			name: "null source value",
			body: `{"ticker": "AAPL", "ratios": [{"metric": "P/E", "values": [null], "consensus": null, "target": "<20", "status": "Pass"}], "overall_score": 1, "max_score": 1}`,
		},
		{
			name: "malformed json",
			body: `{"ticker": `,
		},
		{
			name: "wrong type",
			body: `{"ticker": "AAPL", "ratios": [], "overall_score": "one", "max_score": 1}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := &backend{status: http.StatusOK, body: tc.body}
			c, err := New(newBackend(t, b).URL)
			require.NoError(t, err)

			result, err := c.AnalyzeStock(testContext(t), "AAPL")

			assert.Nil(t, result)
			var reqErr *RequestError
			require.ErrorAs(t, err, &reqErr)
			assert.Equal(t, KindDecode, reqErr.Kind)
			assert.Contains(t, reqErr.Message, "decode analysis response")
		})
	}
}

func TestClient_AnalyzeStock_EmptyStrings(t *testing.T) {
	body := `{"ticker": "AAPL", "ratios": [{"metric": "", "values": [{"source": "", "value": null}], "consensus": null, "target": "", "status": "Info Only"}], "overall_score": 0, "max_score": 0}`
	b := &backend{status: http.StatusOK, body: body}
	c, err := New(newBackend(t, b).URL)
	require.NoError(t, err)

	result, err := c.AnalyzeStock(testContext(t), "AAPL")

	require.NoError(t, err)
	assert.Equal(t, &domain.AnalysisResult{
		Ticker: "AAPL",
		Ratios: []domain.RatioResult{{
			Values: []domain.SourceValue{{}},
			Status: domain.StatusInfoOnly,
		}},
	}, result)
}

func TestClient_AnalyzeStock_Timeout(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/api/analyze/{ticker}", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})
	srv := httptest.NewServer(router)
	defer srv.Close()

	c, err := New(srv.URL, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = c.AnalyzeStock(testContext(t), "AAPL")

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, KindTimeout, reqErr.Kind)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_AnalyzeStock_EmptyTicker(t *testing.T) {
	called := false
	hc := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		called = true
		return nil, errors.New("unexpected call")
	})}
	c, err := New("", WithHTTPClient(hc))
	require.NoError(t, err)

	_, err = c.AnalyzeStock(testContext(t), "   ")

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, KindValidation, reqErr.Kind)
	assert.ErrorIs(t, err, domain.ErrInvalidTicker)
	assert.False(t, called)
}

func TestClient_HealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		b := &backend{status: http.StatusOK, body: `{"status": "healthy", "service": "gross-backend"}`}
		c, err := New(newBackend(t, b).URL)
		require.NoError(t, err)

		health, err := c.HealthCheck(testContext(t))

		require.NoError(t, err)
		assert.Equal(t, &domain.HealthStatus{Status: "healthy", Service: "gross-backend"}, health)
	})

	t.Run("non-2xx", func(t *testing.T) {
		b := &backend{status: http.StatusServiceUnavailable, body: ``}
		c, err := New(newBackend(t, b).URL)
		require.NoError(t, err)

		_, err = c.HealthCheck(testContext(t))

		var reqErr *RequestError
		require.ErrorAs(t, err, &reqErr)
		assert.Equal(t, KindStatus, reqErr.Kind)
		assert.Contains(t, reqErr.Message, "503 Service Unavailable")
	})

	t.Run("bad body", func(t *testing.T) {
		b := &backend{status: http.StatusOK, body: `{"status": "healthy"}`}
		c, err := New(newBackend(t, b).URL)
		require.NoError(t, err)

		_, err = c.HealthCheck(testContext(t))

		var reqErr *RequestError
		require.ErrorAs(t, err, &reqErr)
		assert.Equal(t, KindDecode, reqErr.Kind)
	})

	t.Run("transport", func(t *testing.T) {
		cause := errors.New("network is unreachable")
		hc := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, cause
		})}
		c, err := New("", WithHTTPClient(hc))
		require.NoError(t, err)

		_, err = c.HealthCheck(testContext(t))

		assert.ErrorIs(t, err, cause)
	})
}
