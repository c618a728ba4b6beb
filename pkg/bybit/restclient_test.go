package bybit

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doFunc func(*http.Request) (*http.Response, error)

func (f doFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

// go test -v --run TestGetTicker
func TestGetTicker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v5/market/tickers", r.URL.Path)
		assert.Equal(t, "spot", r.URL.Query().Get("category"))
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"retCode":0,"retMsg":"OK","result":{"category":"spot","list":[{"symbol":"BTCUSDT","lastPrice":"64250.5","bid1Price":"64250.4","ask1Price":"64250.6"}]},"time":1700000000000}`))
	}))
	defer server.Close()

	client := NewRESTClient(server.URL, 5*time.Second)

	ticker, err := client.GetTicker(t.Context(), "spot", "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", ticker.Symbol)
	assert.Equal(t, "64250.5", ticker.LastPrice)
}

// go test -v --run TestGetTicker_HTTPStatus
func TestGetTicker_HTTPStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewRESTClient(server.URL, 5*time.Second).GetTicker(t.Context(), "spot", "BTCUSDT")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.True(t, apiErr.IsRateLimited())
}

// go test -v --run TestGetTicker_RetCode
func TestGetTicker_RetCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"retCode":10006,"retMsg":"Too many visits!","result":{}}`))
	}))
	defer server.Close()

	_, err := NewRESTClient(server.URL, 5*time.Second).GetTicker(t.Context(), "spot", "BTCUSDT")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, RetCodeTooManyVisits, apiErr.RetCode)
	assert.True(t, apiErr.IsRateLimited())
	assert.False(t, apiErr.IsServerError())
}

// go test -v --run TestGetTicker_Missing
func TestGetTicker_Missing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"retCode":0,"retMsg":"OK","result":{"category":"spot","list":[]}}`))
	}))
	defer server.Close()

	_, err := NewRESTClient(server.URL, 5*time.Second).GetTicker(t.Context(), "spot", "BTCUSDT")
	require.ErrorContains(t, err, "not found")
}

// go test -v --run TestGetTicker_TransportError
func TestGetTicker_TransportError(t *testing.T) {
	refused := errors.New("connection refused")
	client := NewRESTClient("http://bybit.invalid", time.Second).WithHTTPClient(doFunc(func(*http.Request) (*http.Response, error) {
		return nil, refused
	}))

	_, err := client.GetTicker(t.Context(), "spot", "BTCUSDT")
	require.ErrorIs(t, err, refused)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}
