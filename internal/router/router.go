// Package router drives tiered fallback across translation providers: it
// orders candidates per request, splits the batch into provider-sized
// chunks and moves on to the next provider when one fails.
package router

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nulzo/translation-router/internal/cache"
	"github.com/nulzo/translation-router/internal/config"
	"github.com/nulzo/translation-router/internal/diagnostics"
	"github.com/nulzo/translation-router/internal/platform/logger"
	"github.com/nulzo/translation-router/internal/translate"
)

const tracerName = "github.com/nulzo/translation-router/internal/router"

// Router is safe for concurrent use. Its cache, provider limiters and
// counters are shared by all requests.
type Router struct {
	cfg        config.RouterConfig
	candidates []candidate

	cache      cache.Cache
	log        *zap.Logger
	recorder   diagnostics.Recorder
	tracer     trace.Tracer
	httpClient *http.Client
	providers  []translate.Provider
}

type Option func(*Router)

// WithCache shares c between all providers of the router.
func WithCache(c cache.Cache) Option {
	return func(r *Router) { r.cache = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Router) { r.log = l }
}

// WithRecorder receives every fallback event, in addition to the log
// recorder enabled by log_fallback_events.
func WithRecorder(rec diagnostics.Recorder) Option {
	return func(r *Router) { r.recorder = rec }
}

// WithProviders uses ready-made providers instead of building them from the
// provider sections of the configuration. Their order is the configuration
// order.
func WithProviders(ps ...translate.Provider) Option {
	return func(r *Router) { r.providers = append(r.providers, ps...) }
}

func WithHTTPClient(c *http.Client) Option {
	return func(r *Router) { r.httpClient = c }
}

func WithTracer(t trace.Tracer) Option {
	return func(r *Router) { r.tracer = t }
}

// New validates cfg, builds the enabled providers and fixes their base
// order. It fails with a *config.ConfigError when no provider can be used.
func New(cfg config.RouterConfig, opts ...Option) (*Router, error) {
	r := &Router{cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Get()
	}
	if r.tracer == nil {
		r.tracer = otel.Tracer(tracerName)
	}
	if r.cache == nil {
		lru, err := cache.NewLRU(cache.DefaultSize)
		if err != nil {
			return nil, err
		}
		r.cache = lru
	}

	var recorders diagnostics.Multi
	if cfg.LogFallbackEvents {
		recorders = append(recorders, diagnostics.NewLogRecorder(r.log))
	}
	if r.recorder != nil {
		recorders = append(recorders, r.recorder)
	}
	r.recorder = recorders

	providers := r.providers
	if len(providers) == 0 {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		built, err := r.build(cfg.Providers)
		if err != nil {
			return nil, err
		}
		providers = built
	}

	if err := r.classify(providers); err != nil {
		return nil, err
	}

	for tier, names := range tierTies(r.candidates) {
		r.log.Warn("providers share a priority tier, configuration order breaks the tie",
			zap.Int("tier", tier),
			zap.Strings("providers", names),
		)
	}
	if !cfg.StopOnFirstSuccess {
		r.log.Debug("stop_on_first_success is false; quality comparison is not implemented, the first success is returned")
	}

	return r, nil
}

func (r *Router) build(sections []config.ProviderConfig) ([]translate.Provider, error) {
	deps := translate.Deps{Cache: r.cache, Logger: r.log, HTTPClient: r.httpClient}

	var out []translate.Provider
	for _, pc := range sections {
		if !pc.Enabled {
			r.log.Debug("provider disabled", zap.String("provider", pc.Name))
			continue
		}
		p, err := translate.Build(pc, deps)
		if err != nil {
			return nil, &config.ConfigError{Provider: pc.Name, Field: "type", Reason: err.Error(), Err: err}
		}
		out = append(out, p)
	}
	return out, nil
}

// classify sorts providers into callable candidates and skipped ones.
// Disabled providers are dropped, as are providers without credentials
// unless skip_on_missing_credentials keeps them in the trail.
func (r *Router) classify(providers []translate.Provider) error {
	available := 0
	for i, p := range providers {
		c := candidate{provider: p, position: i}
		if !p.IsAvailable() {
			if e, ok := p.(enabler); ok && !e.Enabled() {
				continue
			}
			if cr, ok := p.(credentialed); ok && cr.HasCredentials() {
				continue
			}
			if !r.cfg.SkipOnMissingCredentials {
				r.log.Warn("dropping provider without credentials",
					zap.String("provider", p.Name()),
					zap.Int("tier", p.Tier()),
				)
				continue
			}
			r.log.Warn("skipping provider without credentials",
				zap.String("provider", p.Name()),
				zap.Int("tier", p.Tier()),
			)
			c.skipped = true
		} else {
			available++
		}
		r.candidates = append(r.candidates, c)
	}

	if available == 0 {
		return &config.ConfigError{
			Reason: translate.ErrNoProvidersAvailable.Error(),
			Err:    translate.ErrNoProvidersAvailable,
		}
	}

	sort.SliceStable(r.candidates, func(i, j int) bool {
		return r.candidates[i].provider.Tier() < r.candidates[j].provider.Tier()
	})
	return nil
}

// Translate runs the request through the candidates in order and returns
// the first complete translation. Every key of the request is present in
// the result, in request order.
func (r *Router) Translate(ctx context.Context, req *translate.Request) (*translate.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	source := r.sourceLanguage(req)
	target := req.TargetLanguage

	ctx, span := r.tracer.Start(ctx, "router.Translate", trace.WithAttributes(
		attribute.String("translation.request_id", requestID),
		attribute.String("translation.target_language", target),
		attribute.Int("translation.keys", req.Len()),
	))
	defer span.End()

	if req.Len() == 0 {
		return &translate.Result{RequestID: requestID, Keys: []string{}, Translations: map[string]string{}}, nil
	}

	texts := req.Ordered()
	var trail []translate.Failure

	for i, c := range orderFor(r.candidates, target) {
		p := c.provider
		ev := diagnostics.Event{
			RequestID:      requestID,
			Provider:       p.Name(),
			Tier:           p.Tier(),
			Attempt:        i + 1,
			Keys:           len(texts),
			SourceLanguage: source,
			TargetLanguage: target,
		}

		if c.skipped {
			ev.Outcome = diagnostics.OutcomeSkipped
			ev.Err = translate.ErrMissingCredentials
			ev.At = time.Now()
			r.recorder.Record(ev)
			trail = append(trail, translate.Failure{Provider: p.Name(), Tier: p.Tier(), Skipped: true, Err: translate.ErrMissingCredentials})
			continue
		}

		start := time.Now()
		out, chunks, err := r.attempt(ctx, p, texts, source, target)
		ev.Elapsed = time.Since(start)
		ev.Chunks = chunks
		ev.At = start

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				span.RecordError(ctxErr)
				span.SetStatus(codes.Error, "request abandoned")
				return nil, fmt.Errorf("translation request %s abandoned: %w", requestID, ctxErr)
			}
			ev.Outcome = diagnostics.OutcomeFailure
			ev.Err = err
			r.recorder.Record(ev)
			trail = append(trail, translate.Failure{Provider: p.Name(), Tier: p.Tier(), Err: err})
			continue
		}

		ev.Outcome = diagnostics.OutcomeSuccess
		r.recorder.Record(ev)
		span.SetAttributes(attribute.String("translation.provider", p.Name()))

		res := &translate.Result{
			RequestID:    requestID,
			Keys:         append([]string(nil), req.Keys...),
			Translations: make(map[string]string, len(req.Keys)),
			Provider:     p.Name(),
			Tier:         p.Tier(),
			Trail:        trail,
		}
		for j, key := range req.Keys {
			res.Translations[key] = out[j]
		}
		return res, nil
	}

	err := &AllProvidersFailedError{RequestID: requestID, Failures: trail}
	span.RecordError(err)
	span.SetStatus(codes.Error, ErrAllProvidersFailed.Error())
	return nil, err
}

// attempt translates all texts with one provider, chunk by chunk. Chunks run
// concurrently up to max_concurrent_chunks; the first failing chunk fails
// the whole attempt.
func (r *Router) attempt(ctx context.Context, p translate.Provider, texts []string, source, target string) ([]string, int, error) {
	ctx, span := r.tracer.Start(ctx, "provider.attempt", trace.WithAttributes(
		attribute.String("translation.provider", p.Name()),
		attribute.Int("translation.tier", p.Tier()),
	))
	defer span.End()

	chunks := chunk(texts, p.BatchSize())
	span.SetAttributes(attribute.Int("translation.chunks", len(chunks)))

	out := make([]string, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.chunkConcurrency())

	offset := 0
	for _, part := range chunks {
		at := offset
		offset += len(part)
		g.Go(func() error {
			res, err := p.TranslateBatch(gctx, part, source, target)
			if err != nil {
				return err
			}
			if len(res) != len(part) {
				return translate.NewError(p.Name(), translate.KindMalformedResponse,
					"expected %d translations, got %d", len(part), len(res))
			}
			copy(out[at:], res)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(translate.KindOf(err)))
		return nil, len(chunks), err
	}
	return out, len(chunks), nil
}

func (r *Router) chunkConcurrency() int {
	if r.cfg.MaxConcurrentChunks <= 0 {
		return 1
	}
	return r.cfg.MaxConcurrentChunks
}

func (r *Router) sourceLanguage(req *translate.Request) string {
	if s := strings.TrimSpace(req.SourceLanguage); s != "" {
		return s
	}
	if s := strings.TrimSpace(r.cfg.SourceLanguage); s != "" {
		return s
	}
	return translate.AutoDetect
}

// ProviderInfo describes a provider in base order.
type ProviderInfo struct {
	Name      string `json:"name"`
	Tier      int    `json:"tier"`
	Available bool   `json:"available"`
	Skipped   bool   `json:"skipped"`
	BatchSize int    `json:"batch_size"`
}

// Providers lists the candidates in base order, skipped ones included.
func (r *Router) Providers() []ProviderInfo {
	out := make([]ProviderInfo, len(r.candidates))
	for i, c := range r.candidates {
		out[i] = ProviderInfo{
			Name:      c.provider.Name(),
			Tier:      c.provider.Tier(),
			Available: c.provider.IsAvailable(),
			Skipped:   c.skipped,
			BatchSize: c.provider.BatchSize(),
		}
	}
	return out
}

// Order returns the provider names in the order a request for target would
// try them.
func (r *Router) Order(target string) []string {
	cands := orderFor(r.candidates, target)
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.provider.Name()
	}
	return out
}

// Stats returns the usage counters of every provider in base order.
func (r *Router) Stats() []translate.StatsSnapshot {
	out := make([]translate.StatsSnapshot, len(r.candidates))
	for i, c := range r.candidates {
		out[i] = c.provider.Stats()
	}
	return out
}

// CacheSize reports the number of cached translations.
func (r *Router) CacheSize() int {
	return r.cache.Len()
}
