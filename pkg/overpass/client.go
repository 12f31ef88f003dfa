package overpass

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/mapscene/internal/decoder"
	"github.com/sells-group/mapscene/internal/store"
)

// DefaultEndpoints lists public Overpass API interpreters in failover
// order.
var DefaultEndpoints = []string{
	"https://overpass-api.de/api/interpreter",
	"https://overpass.kumi.systems/api/interpreter",
	"https://maps.mail.ru/osm/tools/overpass/api/interpreter",
}

// Progress is one notification emitted while a fetch runs.
type Progress struct {
	Stage    string // "cache_hit", "requesting", "endpoint_failed", "fetched", "synthetic"
	Endpoint string
	Err      error
}

// ProgressFunc receives fetch progress notifications.
type ProgressFunc func(Progress)

// Result is the outcome of one fetch: the raw response text and where it
// came from.
type Result struct {
	Raw       string
	Source    string
	Box       BBox
	Cached    bool
	Synthetic bool
}

// Service issues bounding-box queries against an ordered endpoint list.
// It is explicitly constructed and passed by reference; there is no
// package-level instance.
type Service struct {
	endpoints []string
	client    *http.Client
	limiter   *rate.Limiter
	timeout   time.Duration
	ttlHours  int
	userAgent string
	cache     *memCache
	persist   store.Store
	progress  ProgressFunc
	querySecs int
}

// Option configures the Service.
type Option func(*Service)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithMinInterval sets the minimum interval between outgoing requests.
func WithMinInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithTTLHours sets the cache record TTL.
func WithTTLHours(hours int) Option {
	return func(s *Service) { s.ttlHours = hours }
}

// WithStore attaches a persistent cache store.
func WithStore(st store.Store) Option {
	return func(s *Service) { s.persist = st }
}

// WithHTTPClient replaces the HTTP client; used by tests.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) { s.client = c }
}

// WithProgress registers a progress notification callback.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Service) { s.progress = fn }
}

// WithCacheSize sets the in-memory cache capacity.
func WithCacheSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.cache = newMemCache(n)
		}
	}
}

// NewService creates a fetch service over the given endpoints, tried in
// order.
func NewService(endpoints []string, opts ...Option) *Service {
	if len(endpoints) == 0 {
		endpoints = DefaultEndpoints
	}
	s := &Service{
		endpoints: endpoints,
		client:    &http.Client{},
		limiter:   rate.NewLimiter(rate.Every(time.Second), 1),
		timeout:   25 * time.Second,
		ttlHours:  24,
		userAgent: "mapscene/1.0",
		cache:     newMemCache(64),
		querySecs: 25,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) notify(p Progress) {
	if s.progress != nil {
		s.progress(p)
	}
}

// Fetch returns the raw response for the region, consulting the caches
// first and falling over across endpoints on miss. When every endpoint
// fails it returns the deterministic synthetic dataset for the bounding
// box, so network failure never propagates as an error. The only error
// returned is context cancellation.
func (s *Service) Fetch(ctx context.Context, lat, lon, radiusM float64) (*Result, error) {
	key := store.NewCacheKey(lat, lon, radiusM)
	box := BoundingBox(lat, lon, radiusM)
	now := time.Now().UTC()

	if rec := s.cache.get(key, now); rec != nil {
		s.notify(Progress{Stage: "cache_hit", Endpoint: rec.Source})
		return &Result{Raw: rec.Response, Source: rec.Source, Box: box, Cached: true}, nil
	}
	if s.persist != nil {
		rec, err := s.persist.GetFetch(ctx, key)
		if err != nil {
			zap.L().Warn("overpass: persistent cache lookup failed", zap.Error(err))
		} else if rec != nil {
			s.cache.put(rec)
			s.notify(Progress{Stage: "cache_hit", Endpoint: rec.Source})
			return &Result{Raw: rec.Response, Source: rec.Source, Box: box, Cached: true}, nil
		}
	}

	query := BuildQuery(box, s.querySecs)
	for _, endpoint := range s.endpoints {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "overpass: rate limiter wait")
		}
		s.notify(Progress{Stage: "requesting", Endpoint: endpoint})

		raw, err := s.post(ctx, endpoint, query)
		if err != nil {
			s.notify(Progress{Stage: "endpoint_failed", Endpoint: endpoint, Err: err})
			zap.L().Warn("overpass: endpoint failed, trying next",
				zap.String("endpoint", endpoint),
				zap.Error(err),
			)
			continue
		}

		rec := &store.Record{
			Key:       key,
			Response:  raw,
			Source:    endpoint,
			FetchedAt: now,
			TTLHours:  s.ttlHours,
		}
		s.cache.put(rec)
		if s.persist != nil {
			if err := s.persist.SetFetch(ctx, rec); err != nil {
				zap.L().Warn("overpass: persistent cache write failed", zap.Error(err))
			}
		}
		s.notify(Progress{Stage: "fetched", Endpoint: endpoint})
		return &Result{Raw: raw, Source: endpoint, Box: box}, nil
	}

	// Synthetic fallback is intentionally not cached, so the next fetch
	// retries the live endpoints.
	zap.L().Warn("overpass: all endpoints failed, using synthetic dataset",
		zap.Int("endpoints", len(s.endpoints)))
	s.notify(Progress{Stage: "synthetic"})
	return &Result{Raw: SyntheticResponse(box), Source: "synthetic", Box: box, Synthetic: true}, nil
}

// FetchAsync runs Fetch in the background and delivers the outcome to
// the callback. The caller's generation loop stays free to keep
// stepping.
func (s *Service) FetchAsync(ctx context.Context, lat, lon, radiusM float64, cb func(*Result, error)) {
	go func() {
		cb(s.Fetch(ctx, lat, lon, radiusM))
	}()
}

// post issues the query to one endpoint with the per-request timeout and
// validates that the payload is well-formed and non-empty.
func (s *Service) post(ctx context.Context, endpoint, query string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", eris.Errorf("status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "read body")
	}

	raw := string(body)
	root, ok := decoder.ParseObject(raw)
	if !ok {
		return "", eris.New("malformed response body")
	}
	if len(decoder.GetArray(root, "elements")) == 0 {
		return "", eris.New("empty elements array")
	}
	return raw, nil
}

// EndpointStatus is the outcome of probing a single endpoint.
type EndpointStatus struct {
	Endpoint string
	OK       bool
	Latency  time.Duration
	Err      error
}

// Probe checks every endpoint concurrently and reports reachability.
func (s *Service) Probe(ctx context.Context) []EndpointStatus {
	statuses := make([]EndpointStatus, len(s.endpoints))
	eg, gCtx := errgroup.WithContext(ctx)
	for i, endpoint := range s.endpoints {
		eg.Go(func() error {
			start := time.Now()
			err := s.probeOne(gCtx, endpoint)
			statuses[i] = EndpointStatus{
				Endpoint: endpoint,
				OK:       err == nil,
				Latency:  time.Since(start),
				Err:      err,
			}
			return nil //nolint:nilerr // individual probe failures don't fail the probe
		})
	}
	_ = eg.Wait()
	return statuses
}

func (s *Service) probeOne(ctx context.Context, endpoint string) error {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return eris.Wrap(err, "create probe request")
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "probe")
	}
	defer resp.Body.Close() //nolint:errcheck
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 500 {
		return eris.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

// CacheStats reports the in-memory cache counters.
func (s *Service) CacheStats() MemStats {
	return s.cache.stats()
}

// ClearCache drops the in-memory cache and, when a persistent store is
// attached, its records too.
func (s *Service) ClearCache(ctx context.Context) error {
	s.cache.clear()
	if s.persist != nil {
		return s.persist.Clear(ctx)
	}
	return nil
}
