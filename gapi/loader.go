package gapi

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-gapi-session/provider"
	"github.com/rs/zerolog"
)

// State is the provider client lifecycle.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// initAttempt is one in-flight initialisation. done is closed once err is final.
type initAttempt struct {
	done chan struct{}
	err  error
}

type initResult struct {
	instance provider.AuthInstance
	err      error
}

// clientLoader initialises the provider client at most once at a time. Concurrent callers
// share the in-flight attempt. A failed attempt moves to StateFailed and the next call
// starts a new one.
type clientLoader struct {
	global  provider.Global
	config  provider.ClientConfig
	timeout time.Duration
	onReady func(provider.AuthInstance)
	logger  zerolog.Logger

	lock     sync.Mutex
	state    State
	inflight *initAttempt
}

func (l *clientLoader) State() State {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.state
}

// ensureReady returns the provider global once the client is ready. ctx only bounds
// this caller's wait; the shared attempt is bounded by the loader timeout.
func (l *clientLoader) ensureReady(ctx context.Context) (provider.Global, error) {
	l.lock.Lock()
	var attempt *initAttempt
	switch l.state {
	case StateReady:
		l.lock.Unlock()
		return l.global, nil
	case StateInitializing:
		attempt = l.inflight
	default:
		attempt = &initAttempt{done: make(chan struct{})}
		l.inflight = attempt
		l.state = StateInitializing
		go l.run(attempt)
	}
	l.lock.Unlock()

	select {
	case <-attempt.done:
		if attempt.err != nil {
			return nil, attempt.err
		}
		return l.global, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *clientLoader) run(attempt *initAttempt) {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	results := make(chan initResult, 1)
	go func() {
		instance, err := l.initialise(ctx)
		results <- initResult{instance: instance, err: err}
	}()

	var res initResult
	select {
	case res = <-results:
	case <-ctx.Done():
		// A provider that ignores ctx must not keep waiters pending.
		res = initResult{err: &ProviderInitError{Step: "timeout", Err: ctx.Err()}}
	}

	l.lock.Lock()
	if res.err != nil {
		l.state = StateFailed
		attempt.err = res.err
		l.logger.Err(res.err).Dur("timeout", l.timeout).Msg("Failed to initialize gapi")
	} else {
		l.onReady(res.instance)
		l.state = StateReady
		l.logger.Info().Msg("gapi client initialised")
	}
	l.inflight = nil
	l.lock.Unlock()

	close(attempt.done)
}

func (l *clientLoader) initialise(ctx context.Context) (provider.AuthInstance, error) {
	if l.global == nil {
		return nil, &ProviderInitError{Step: "load", Err: ErrMissingGlobal}
	}
	if err := l.global.Load(ctx, provider.ModuleClient, provider.ModuleAuth2); err != nil {
		return nil, &ProviderInitError{Step: "load", Err: err}
	}
	if err := l.global.InitClient(ctx, l.config); err != nil {
		return nil, &ProviderInitError{Step: "client.init", Err: err}
	}
	instance, err := l.global.AuthInstance()
	if err != nil {
		return nil, &ProviderInitError{Step: "auth2.getAuthInstance", Err: err}
	}
	if instance == nil {
		return nil, &ProviderInitError{Step: "auth2.getAuthInstance", Err: ErrNotInitialized}
	}
	return instance, nil
}
