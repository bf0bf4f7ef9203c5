package loader

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Sternrassler/pokedex-loader/pkg/logging"
	"github.com/Sternrassler/pokedex-loader/pkg/pagination"
	"github.com/Sternrassler/pokedex-loader/pkg/pokemon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for page loads.
var (
	pageLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokedex_page_loads_total",
		Help: "Total page loads by result (success, error, exhausted)",
	}, []string{"result"})

	pageLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pokedex_page_load_duration_seconds",
		Help:    "Duration of a page load including detail resolution",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	recordsLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pokedex_records_loaded",
		Help: "Records held by the most recently updated loader",
	})
)

// Source is the PokeAPI surface the loader needs. *client.Client
// implements it.
type Source interface {
	ListPage(ctx context.Context, limit, offset int) (pokemon.ListPayload, error)
	Detail(ctx context.Context, nameOrID string) (pokemon.DetailPayload, error)
}

// Loader owns the view state of one UI session.
type Loader struct {
	source         Source
	pageSize       int
	maxConcurrency int
	logger         zerolog.Logger

	mu        sync.Mutex
	records   []pokemon.Record
	loading   bool
	lastError string
	selected  *pokemon.Record
	pageIndex int
	hasMore   bool
	query     string

	observersMu sync.Mutex
	observers   map[int]func(State)
	nextID      int
}

// Option configures a Loader.
type Option func(*Loader)

// WithPageSize overrides the number of entries per page.
func WithPageSize(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.pageSize = n
		}
	}
}

// WithMaxConcurrency bounds concurrent detail requests per page.
// Zero or less means one request per entry, all at once.
func WithMaxConcurrency(n int) Option {
	return func(l *Loader) {
		l.maxConcurrency = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// New creates an empty loader reading from source.
func New(source Source, opts ...Option) *Loader {
	l := &Loader{
		source:         source,
		pageSize:       pagination.DefaultPageSize,
		maxConcurrency: pagination.DefaultPageSize,
		logger:         logging.NewLogger("loader"),
		hasMore:        true,
		observers:      make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ResolveDetail fetches one Pokémon by name or id and maps it to a Record.
// The request is not retried.
func (l *Loader) ResolveDetail(ctx context.Context, identifier string) (pokemon.Record, error) {
	payload, err := l.source.Detail(ctx, identifier)
	if err != nil {
		return pokemon.Record{}, err
	}
	return pokemon.FromPayload(payload), nil
}

// ResolveDetailByID is ResolveDetail for a numeric id.
func (l *Loader) ResolveDetailByID(ctx context.Context, id int) (pokemon.Record, error) {
	return l.ResolveDetail(ctx, strconv.Itoa(id))
}

// LoadNextPage loads and appends the next page of records.
//
// It is a no-op returning nil while another load is in flight or after the
// listing is exhausted. On failure the error is returned and also recorded
// as LastError; records, page index and HasMore are left unchanged.
//
// A started load runs to completion: cancelling ctx does not abort it. Only
// the values of ctx are carried into the requests.
func (l *Loader) LoadNextPage(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)

	l.mu.Lock()
	if l.loading || !l.hasMore {
		l.mu.Unlock()
		return nil
	}
	l.loading = true
	l.lastError = ""
	pageIndex := l.pageIndex
	l.mu.Unlock()
	l.notify()

	start := time.Now()
	offset := pagination.Offset(pageIndex, l.pageSize)
	logger := l.logger.With().Int("page", pageIndex).Int("offset", offset).Logger()

	records, hasNext, err := l.fetchPage(ctx, offset)

	l.mu.Lock()
	switch {
	case err != nil:
		l.lastError = err.Error()
	case records == nil:
		l.hasMore = false
	default:
		l.records = append(l.records, records...)
		l.pageIndex++
		l.hasMore = hasNext
	}
	l.loading = false
	total := len(l.records)
	l.mu.Unlock()

	pageLoadDuration.Observe(time.Since(start).Seconds())
	recordsLoaded.Set(float64(total))

	switch {
	case err != nil:
		pageLoadsTotal.WithLabelValues("error").Inc()
		logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("Page load failed")
	case records == nil:
		pageLoadsTotal.WithLabelValues("exhausted").Inc()
		logger.Info().Msg("Listing exhausted")
	default:
		pageLoadsTotal.WithLabelValues("success").Inc()
		logger.Info().
			Int("loaded", len(records)).
			Int("total", total).
			Bool("has_more", hasNext).
			Dur("duration", time.Since(start)).
			Msg("Page loaded")
	}

	l.notify()
	return err
}

// fetchPage lists one page and resolves all of its entries. A nil slice with
// nil error means the page was empty.
func (l *Loader) fetchPage(ctx context.Context, offset int) ([]pokemon.Record, bool, error) {
	list, err := l.source.ListPage(ctx, l.pageSize, offset)
	if err != nil {
		return nil, false, err
	}
	if len(list.Results) == 0 {
		return nil, false, nil
	}

	records, err := pagination.FanOut(ctx, list.Results, l.maxConcurrency,
		func(ctx context.Context, s pokemon.Summary) (pokemon.Record, error) {
			return l.ResolveDetail(ctx, s.Name)
		})
	if err != nil {
		var itemErr *pagination.ItemError
		if errors.As(err, &itemErr) {
			// LastError shows the failing fetch, not the fan-out index.
			return nil, false, itemErr.Err
		}
		return nil, false, fmt.Errorf("resolve page: %w", err)
	}

	return records, list.HasNext(), nil
}

// Select marks a record as selected.
func (l *Loader) Select(record pokemon.Record) {
	l.mu.Lock()
	l.selected = &record
	l.mu.Unlock()
	l.notify()
}

// ClearSelection clears the selected record.
func (l *Loader) ClearSelection() {
	l.mu.Lock()
	l.selected = nil
	l.mu.Unlock()
	l.notify()
}

// SetSearchQuery sets the name filter applied by Filtered.
func (l *Loader) SetSearchQuery(query string) {
	l.mu.Lock()
	l.query = query
	l.mu.Unlock()
	l.notify()
}

// Filtered returns loaded records whose name matches the search query.
func (l *Loader) Filtered() []pokemon.Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]pokemon.Record, 0, len(l.records))
	for _, r := range l.records {
		if r.MatchesQuery(l.query) {
			out = append(out, r)
		}
	}
	return out
}

// Find returns a loaded record by name.
func (l *Loader) Find(name string) (pokemon.Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, r := range l.records {
		if r.Name == name {
			return r, true
		}
	}
	return pokemon.Record{}, false
}

// State returns a snapshot of the view state.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Loader) snapshotLocked() State {
	s := State{
		Records:          append([]pokemon.Record(nil), l.records...),
		IsLoading:        l.loading,
		LastError:        l.lastError,
		CurrentPageIndex: l.pageIndex,
		HasMore:          l.hasMore,
		SearchQuery:      l.query,
	}
	if s.Records == nil {
		s.Records = []pokemon.Record{}
	}
	if l.selected != nil {
		selected := *l.selected
		s.Selected = &selected
	}
	return s
}

// Records returns the loaded records in load order.
func (l *Loader) Records() []pokemon.Record {
	return l.State().Records
}

// IsLoading reports whether a page load is in flight.
func (l *Loader) IsLoading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// LastError returns the message of the last failed load, or "".
func (l *Loader) LastError() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastError
}

// Selected returns the selected record, or nil.
func (l *Loader) Selected() *pokemon.Record {
	return l.State().Selected
}

// HasMore reports whether further pages may exist.
func (l *Loader) HasMore() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hasMore
}

// CurrentPageIndex returns the number of pages loaded so far.
func (l *Loader) CurrentPageIndex() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pageIndex
}

// Subscribe registers fn to receive a snapshot after every state change.
// Callbacks run synchronously on the goroutine that changed the state and
// must not block. The returned function removes the subscription.
func (l *Loader) Subscribe(fn func(State)) (unsubscribe func()) {
	l.observersMu.Lock()
	id := l.nextID
	l.nextID++
	l.observers[id] = fn
	l.observersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.observersMu.Lock()
			delete(l.observers, id)
			l.observersMu.Unlock()
		})
	}
}

// notify must be called without l.mu held.
func (l *Loader) notify() {
	l.observersMu.Lock()
	if len(l.observers) == 0 {
		l.observersMu.Unlock()
		return
	}
	fns := make([]func(State), 0, len(l.observers))
	for _, fn := range l.observers {
		fns = append(fns, fn)
	}
	l.observersMu.Unlock()

	state := l.State()
	for _, fn := range fns {
		fn(state)
	}
}
