package checkout

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/resumeforge-web/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	defaultLoadTimeout = 15 * time.Second
	maxScriptSize      = 2 << 20
)

// ScriptLoader fetches a gateway SDK script once and keeps it for serving to
// browsers. Concurrent Load calls share one fetch and all see its outcome.
// A successful load is permanent; after a failure the next Load tries again.
type ScriptLoader struct {
	url        string
	httpClient *http.Client
	timeout    time.Duration

	mu       sync.Mutex
	inflight *loadCall
	script   []byte
	loaded   bool
	fetches  int
}

type loadCall struct {
	done chan struct{}
	err  error
}

// ScriptLoaderOption defines a function type to modify the ScriptLoader instance.
type ScriptLoaderOption func(*ScriptLoader)

// WithHTTPClient sets the client used to fetch the script
func WithHTTPClient(c *http.Client) ScriptLoaderOption {
	return func(l *ScriptLoader) {
		l.httpClient = c
	}
}

// WithLoadTimeout bounds one fetch
func WithLoadTimeout(d time.Duration) ScriptLoaderOption {
	return func(l *ScriptLoader) {
		l.timeout = d
	}
}

// NewScriptLoader creates a loader for the script at url
func NewScriptLoader(url string, options ...ScriptLoaderOption) *ScriptLoader {
	l := &ScriptLoader{
		url:        url,
		httpClient: http.DefaultClient,
		timeout:    defaultLoadTimeout,
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

// Load makes sure the script is available. A caller whose ctx ends while
// waiting gets ctx.Err(); the shared fetch itself carries on for the others.
func (l *ScriptLoader) Load(ctx context.Context) error {
	l.mu.Lock()
	if l.loaded {
		l.mu.Unlock()
		return nil
	}
	call := l.inflight
	if call == nil {
		call = &loadCall{done: make(chan struct{})}
		l.inflight = call
		l.fetches++
		go l.fetch(context.WithoutCancel(ctx), call)
	}
	l.mu.Unlock()

	select {
	case <-call.done:
		return call.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *ScriptLoader) fetch(ctx context.Context, call *loadCall) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	script, err := l.download(ctx)

	l.mu.Lock()
	if err == nil {
		l.script = script
		l.loaded = true
		log.Info().Str("url", l.url).Int("bytes", len(script)).Msg("payment SDK loaded")
	} else {
		err = errors.Wrapf(apperrors.ErrScriptLoad, "[Load] %s: %v", l.url, err)
		log.Error().Err(err).Msg("payment SDK failed to load")
	}
	call.err = err
	l.inflight = nil
	l.mu.Unlock()

	close(call.done)
}

func (l *ScriptLoader) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected status %d", resp.StatusCode)
	}
	script, err := io.ReadAll(io.LimitReader(resp.Body, maxScriptSize))
	if err != nil {
		return nil, err
	}
	if len(script) == 0 {
		return nil, errors.New("empty script")
	}
	return script, nil
}

// Script returns the loaded script, and false before a successful Load
func (l *ScriptLoader) Script() ([]byte, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.script, l.loaded
}

// Fetches returns how many times the script has been fetched
func (l *ScriptLoader) Fetches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fetches
}
