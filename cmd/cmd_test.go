package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/novacast/internal/client"
	"github.com/vzahanych/novacast/internal/forecast"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		line, city, date string
	}{
		{"Paris", "Paris", ""},
		{"  New   York  ", "New York", ""},
		{"New York 2027-03-14", "New York", "2027-03-14"},
		{"2027-03-14", "2027-03-14", ""},
		{"Rio 14/03/2027", "Rio 14/03/2027", ""},
	}

	for _, tt := range tests {
		city, date := parseQuery(tt.line)
		assert.Equal(t, tt.city, city, tt.line)
		assert.Equal(t, tt.date, date, tt.line)
	}
}

type query struct {
	city, date string
	force      bool
}

type recordingSearcher struct {
	mu      sync.Mutex
	queries []query
}

func (r *recordingSearcher) Search(_ context.Context, city, date string, force bool) (client.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, query{city, date, force})
	if city == "Atlantis" {
		return client.Result{}, client.ErrNotFound
	}
	return client.Result{City: city}, nil
}

func TestRunShell(t *testing.T) {
	in := strings.NewReader("Paris\n\nAtlantis\n!New York 2027-03-14\nexit\nLima\n")
	var out bytes.Buffer
	s := &recordingSearcher{}

	require.NoError(t, runShell(context.Background(), in, &out, s))

	assert.Equal(t, []query{
		{"Paris", "", false},
		{"Atlantis", "", false},
		{"New York", "2027-03-14", true},
	}, s.queries)
	assert.True(t, strings.HasPrefix(out.String(), shellPrompt))
}

func TestRunShell_StopsOnCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runShell(ctx, pr, &bytes.Buffer{}, &recordingSearcher{}) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("shell did not stop after cancellation")
	}
}

// upstreams fakes the geocoding API and the predict backend.
type upstreams struct {
	*httptest.Server
	geocodes atomic.Int32
	predicts atomic.Int32
}

func newUpstreams(t *testing.T) *upstreams {
	t.Helper()
	u := &upstreams{}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		u.geocodes.Add(1)
		_, _ = w.Write([]byte(`{"results":[{"latitude":48.85,"longitude":2.35}]}`))
	})
	mux.HandleFunc("/api/predict", func(w http.ResponseWriter, r *http.Request) {
		u.predicts.Add(1)
		var req forecast.Request
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(forecast.Response{Daily: []forecast.DayForecast{{
			Date:              time.Now().Format(forecast.DateLayout),
			Tmax:              forecast.Celsius(14),
			PrecipProbability: 10,
			PrecipType:        forecast.PrecipTypeNone,
		}}})
	})
	u.Server = httptest.NewServer(mux)
	t.Cleanup(u.Close)
	return u
}

func writeConfig(t *testing.T, u *upstreams) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := fmt.Sprintf(`client:
  backend_url: %s/api/predict
  geocoding_url: %s/v1/search
store:
  backend: memory
logging:
  level: error
`, u.URL, u.URL)
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func TestShellCommand_RepeatedQueryServedFromCache(t *testing.T) {
	u := newUpstreams(t)

	root := rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetIn(strings.NewReader("Paris\nparis\n!Paris\n"))
	root.SetArgs([]string{"shell", "--config", writeConfig(t, u)})

	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.Equal(t, int32(2), u.predicts.Load(), "only the forced query refetches")
	assert.Equal(t, int32(1), u.geocodes.Load(), "geocoding results come from the offline cache")
	assert.Equal(t, 3, strings.Count(out.String(), "Max temperature: 14°C"))
}

func TestStopServer_LogsShutdownError(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	entered := make(chan struct{})
	release := make(chan struct{})
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
	})}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(ln) }()
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String())
		if err == nil {
			_ = resp.Body.Close()
		}
	}()
	<-entered

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stopServer(ctx, srv, zap.New(core))
	close(release)

	require.Equal(t, 1, logs.FilterMessage("Failed to shut down metrics server").Len())
	_ = srv.Close()
}
