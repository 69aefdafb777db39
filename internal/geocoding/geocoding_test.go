package geocoding

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestResolver(t *testing.T, handler http.HandlerFunc) *Resolver {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewResolver(srv.URL+"/v1/search", srv.Client(), zaptest.NewLogger(t), nil)
}

func TestResolve_FirstMatch(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		assert.Equal(t, "/v1/search", req.URL.Path)
		assert.Equal(t, "São Paulo", q.Get("name"))
		assert.Equal(t, "1", q.Get("count"))
		assert.Equal(t, "en", q.Get("language"))
		assert.Equal(t, "json", q.Get("format"))
		_, _ = w.Write([]byte(`{"results":[{"latitude":-23.5475,"longitude":-46.63611},{"latitude":1,"longitude":2}]}`))
	})

	coords, err := r.Resolve(context.Background(), "São Paulo")
	require.NoError(t, err)
	require.NotNil(t, coords)
	assert.InDelta(t, -23.5475, coords.Lat, 1e-9)
	assert.InDelta(t, -46.63611, coords.Lon, 1e-9)
}

func TestResolve_StringCoordinates(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"latitude":"48.85341","longitude":"2.3488"}]}`))
	})

	coords, err := r.Resolve(context.Background(), "Paris")
	require.NoError(t, err)
	assert.InDelta(t, 48.85341, coords.Lat, 1e-9)
}

func TestResolve_NoMatchIsNotAnError(t *testing.T) {
	for _, body := range []string{`{}`, `{"results":[]}`, `{"generationtime_ms":0.5}`} {
		r := newTestResolver(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(body))
		})

		coords, err := r.Resolve(context.Background(), "Atlantis")
		require.NoError(t, err)
		assert.Nil(t, coords)
	}
}

func TestResolve_HTTPStatusIsGeocodingError(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := r.Resolve(context.Background(), "Paris")
	var geoErr *GeocodingError
	require.True(t, errors.As(err, &geoErr))
	assert.Equal(t, "Geocoding Error: Geocoding HTTP Error Code: 503", err.Error())
}

func TestResolve_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	r := NewResolver(url, nil, zaptest.NewLogger(t), nil)
	_, err := r.Resolve(context.Background(), "Paris")

	var geoErr *GeocodingError
	require.ErrorAs(t, err, &geoErr)
	assert.Contains(t, err.Error(), "Geocoding Error: ")
	assert.NotNil(t, errors.Unwrap(err))
}

func TestResolve_MalformedBody(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":`))
	})

	_, err := r.Resolve(context.Background(), "Paris")
	var geoErr *GeocodingError
	require.ErrorAs(t, err, &geoErr)
}
