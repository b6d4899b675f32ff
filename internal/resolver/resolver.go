// Package resolver maps pitches to sample files and loads each file at most
// once, sharing in-flight loads between concurrent callers.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/eartrainer/internal/audio"
	"github.com/zjrosen/eartrainer/internal/log"
	"github.com/zjrosen/eartrainer/internal/theory"
)

// ErrUnknownPitch is returned by Load for the unknown locator.
var ErrUnknownPitch = errors.New("resolver: no sample for pitch")

// Resolution is the outcome of resolving a pitch. Buffer is nil when the
// sample could not be loaded; Locator is still the path that was attempted.
type Resolution struct {
	Pitch   theory.Pitch
	Locator string
	Buffer  *audio.Buffer
}

// Missing reports whether no buffer is available.
func (r Resolution) Missing() bool { return r.Buffer == nil }

// Config configures a Resolver.
type Config struct {
	Fetcher Fetcher
	Decoder audio.Decoder
	// Dir prefixes every sample locator. Defaults to "audio".
	Dir string
	// Tracer is optional; the global provider's tracer is used otherwise.
	Tracer trace.Tracer
}

// Resolver resolves pitches to decoded buffers.
type Resolver struct {
	fetcher Fetcher
	decoder audio.Decoder
	dir     string
	tracer  trace.Tracer
	loads   *cache.Cache
}

// entry is one load, shared by every caller asking for the same locator.
type entry struct {
	done chan struct{}
	buf  *audio.Buffer
	err  error
}

// New creates a Resolver.
func New(cfg Config) *Resolver {
	if cfg.Dir == "" {
		cfg.Dir = "audio"
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer("github.com/zjrosen/eartrainer/internal/resolver")
	}
	return &Resolver{
		fetcher: cfg.Fetcher,
		decoder: cfg.Decoder,
		dir:     cfg.Dir,
		tracer:  cfg.Tracer,
		loads:   cache.New(cache.NoExpiration, 0),
	}
}

// Dir returns the locator prefix.
func (r *Resolver) Dir() string { return r.dir }

// Resolve returns the buffer for p. Failures never surface as errors: the
// resolution is simply Missing.
func (r *Resolver) Resolve(ctx context.Context, p theory.Pitch) Resolution {
	loc, ok := Locator(r.dir, p)
	res := Resolution{Pitch: p, Locator: loc}
	if !ok {
		return res
	}
	buf, err := r.Load(ctx, loc)
	if err != nil {
		log.Debug(log.CatAudio, "Sample unavailable", "locator", loc, "error", err)
		return res
	}
	res.Buffer = buf
	return res
}

// Load fetches and decodes the file at locator. The first caller for a
// locator starts the load; later and concurrent callers wait for the same
// result. A caller whose ctx ends stops waiting without cancelling the load.
func (r *Resolver) Load(ctx context.Context, locator string) (*audio.Buffer, error) {
	if locator == UnknownLocator {
		return nil, ErrUnknownPitch
	}
	e := r.claim(ctx, locator)
	select {
	case <-e.done:
		return e.buf, e.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cached reports whether locator has a completed load.
func (r *Resolver) Cached(locator string) bool {
	v, ok := r.loads.Get(locator)
	if !ok {
		return false
	}
	select {
	case <-v.(*entry).done:
		return true
	default:
		return false
	}
}

// Invalidate forgets the load for locator so the next caller loads afresh.
func (r *Resolver) Invalidate(locator string) {
	r.loads.Delete(locator)
}

// InvalidateAll forgets every load.
func (r *Resolver) InvalidateAll() {
	r.loads.Flush()
}

func (r *Resolver) claim(ctx context.Context, locator string) *entry {
	for {
		e := &entry{done: make(chan struct{})}
		if err := r.loads.Add(locator, e, cache.NoExpiration); err == nil {
			loadCtx := context.WithoutCancel(ctx)
			log.SafeGo("resolver-load", func() { r.fill(loadCtx, locator, e) })
			return e
		}
		if v, ok := r.loads.Get(locator); ok {
			return v.(*entry)
		}
		// Invalidated between Add and Get; try to claim again.
	}
}

func (r *Resolver) fill(ctx context.Context, locator string, e *entry) {
	defer close(e.done)

	ctx, span := r.tracer.Start(ctx, "resolver.load", trace.WithAttributes(attribute.String("locator", locator)))
	defer span.End()

	data, err := r.fetcher.Fetch(ctx, locator)
	if err != nil {
		e.err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return
	}
	buf, err := r.decoder.Decode(ctx, data)
	if err == nil && buf == nil {
		err = errors.New("decoder returned no buffer")
	}
	if err != nil {
		e.err = fmt.Errorf("decoding %s: %w", locator, err)
		span.RecordError(e.err)
		span.SetStatus(codes.Error, "decode failed")
		return
	}
	e.buf = buf
	span.SetAttributes(attribute.Int64("frames", int64(buf.Frames())))
	log.Debug(log.CatAudio, "Sample loaded", "locator", locator, "duration", buf.Duration())
}
