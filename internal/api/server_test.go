package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/mapscene/internal/config"
	"github.com/sells-group/mapscene/internal/scene"
	"github.com/sells-group/mapscene/pkg/overpass"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		box := overpass.BoundingBox(52.52, 13.405, 300)
		w.Write([]byte(overpass.SyntheticResponse(box)))
	}))
	t.Cleanup(upstream.Close)

	svc := overpass.NewService([]string{upstream.URL},
		overpass.WithMinInterval(time.Millisecond),
		overpass.WithTimeout(2*time.Second))

	cfg := &config.Config{
		Generation: config.GenerationConfig{
			RadiusM:                 300,
			TreeDensity:             0.3,
			BuildingScaleMultiplier: 1,
			OutputScale:             1,
			Seed:                    42,
			BatchSize:               64,
			RoadStepM:               12,
			MinRemainderM:           4,
			FootprintPadding:        1.25,
			CorridorMarginM:         2,
			ScatterCellM:            20,
			ScatterJitter:           0.5,
			MaxProps:                500,
			MinFeatureCount:         1,
			ContextRadiusM:          300,
		},
	}
	return NewServer(svc, cfg)
}

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(testServer(t).Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestCacheStats(t *testing.T) {
	srv := httptest.NewServer(testServer(t).Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/cache/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var stats overpass.MemStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Zero(t, stats.Entries)
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(testServer(t).Router())
	defer srv.Close()

	body := bytes.NewBufferString(`{"lat": 52.52, "lon": 13.405, "seed": 7}`)
	resp, err := http.Post(srv.URL+"/api/generate", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out scene.Scene
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, uint64(7), out.Seed)
	assert.NotEmpty(t, out.Buildings)
	assert.NotEmpty(t, out.Roads)
}

func TestGenerate_BadRequests(t *testing.T) {
	srv := httptest.NewServer(testServer(t).Router())
	defer srv.Close()

	tests := []struct {
		name string
		body string
	}{
		{"invalid_json", "{nope"},
		{"missing_coords", `{"radius_m": 300}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/generate", "application/json",
				bytes.NewBufferString(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestGenerate_InvalidOriginRejected(t *testing.T) {
	srv := httptest.NewServer(testServer(t).Router())
	defer srv.Close()

	// Out-of-range latitude fails projector construction.
	resp, err := http.Post(srv.URL+"/api/generate", "application/json",
		bytes.NewBufferString(`{"lat": 95, "lon": 13}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
