package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/jc9677/budget-app-2/internal/core"
	"github.com/jc9677/budget-app-2/internal/events"
	"github.com/jc9677/budget-app-2/internal/forecast"
	"github.com/jc9677/budget-app-2/internal/storage"
)

var (
	ErrInvalidWindow = errors.New("window end must not be before window start")
	ErrInvalidMode   = errors.New("invalid forecast mode")
)

// ForecastService computes forecasts from the current stored snapshot.
// Results are cached per (from, to, mode) until Invalidate is called or
// the TTL expires; concurrent identical requests share one computation.
type ForecastService struct {
	store  storage.Gateway
	engine forecast.Engine
	cache  *cache.Cache
	group  singleflight.Group

	// gen counts invalidations. A fill stores its result only if gen has
	// not moved since the fill started.
	mu  sync.Mutex
	gen uint64
}

func NewForecastService(store storage.Gateway, maxOccurrencesPerRule int, ttl time.Duration) *ForecastService {
	engine := forecast.NewEngine(maxOccurrencesPerRule)
	engine.OnTruncate = func(rule core.Transaction) {
		slog.Warn("Occurrence cap reached, forecast truncated",
			"rule_id", rule.ID,
			"frequency", rule.Frequency,
			"limit", maxOccurrencesPerRule)
	}
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &ForecastService{
		store:  store,
		engine: engine,
		cache:  cache.New(ttl, 2*time.Minute),
	}
}

// Invalidate drops every cached forecast.
func (s *ForecastService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.cache.Flush()
}

func (s *ForecastService) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// storeIfCurrent caches f under key unless an invalidation happened since gen.
func (s *ForecastService) storeIfCurrent(key string, gen uint64, f core.Forecast) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.cache.SetDefault(key, f)
	return true
}

// Publisher returns an events.Publisher that invalidates the cache on every
// change event, for inclusion in the gateway's publisher fan-out.
func (s *ForecastService) Publisher() events.Publisher {
	return events.PublisherFunc(func(context.Context, events.Event) error {
		s.Invalidate()
		return nil
	})
}

// ComputeForecast returns the ledger for [from, to] in the requested mode
// together with its chart series.
func (s *ForecastService) ComputeForecast(ctx context.Context, from, to core.Date, mode core.Mode) (core.Forecast, error) {
	if !mode.IsValid() {
		return core.Forecast{}, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	if to.Before(from) {
		return core.Forecast{}, ErrInvalidWindow
	}

	key := fmt.Sprintf("%s|%s|%s", from, to, mode)
	if v, ok := s.cache.Get(key); ok {
		return v.(core.Forecast), nil
	}

	// Callers arriving after an invalidation must not join a fill that
	// started before it, so the flight key carries the generation.
	gen := s.generation()
	v, err, shared := s.group.Do(fmt.Sprintf("%d|%s", gen, key), func() (any, error) {
		start := time.Now()
		f, err := s.compute(ctx, from, to, mode)
		if err != nil {
			return nil, err
		}
		if !s.storeIfCurrent(key, gen, f) {
			slog.DebugContext(ctx, "Forecast invalidated during computation, not cached", "key", key)
		}
		slog.DebugContext(ctx, "Forecast computed",
			"from", from,
			"to", to,
			"mode", mode,
			"duration", time.Since(start))
		return f, nil
	})
	if err != nil {
		return core.Forecast{}, err
	}
	if shared {
		slog.DebugContext(ctx, "Forecast computation shared", "key", key)
	}
	return v.(core.Forecast), nil
}

func (s *ForecastService) compute(ctx context.Context, from, to core.Date, mode core.Mode) (core.Forecast, error) {
	snap, err := storage.LoadSnapshot(ctx, s.store)
	if err != nil {
		return core.Forecast{}, fmt.Errorf("load snapshot: %w", err)
	}
	for _, rule := range snap.Transactions {
		if !forecast.IsExpandable(rule) {
			slog.WarnContext(ctx, "Rule with unknown frequency contributes no occurrences",
				"rule_id", rule.ID, "frequency", rule.Frequency)
		}
	}

	f := core.Forecast{Mode: mode, From: from, To: to}
	if g, grouped := mode.Granularity(); grouped {
		groups, err := s.engine.BuildGroupedLedger(snap, from, to, g)
		if err != nil {
			return core.Forecast{}, err
		}
		f.Groups = groups
		f.Chart = forecast.ProjectGroups(groups, snap.Accounts)
		return f, nil
	}

	rows, err := s.engine.BuildLedger(snap, from, to)
	if err != nil {
		return core.Forecast{}, err
	}
	f.Rows = rows
	f.Chart = forecast.ProjectRows(rows, snap.Accounts)
	return f, nil
}

// DefaultWindow returns [today, today+horizonDays-1].
func DefaultWindow(today core.Date, horizonDays int) (core.Date, core.Date) {
	if horizonDays < 1 {
		horizonDays = 1
	}
	return today, today.AddDays(horizonDays - 1)
}
