package goAdmin

import (
	"context"
	"errors"
	"sync"
	"time"

	internalaudit "github.com/MrEthical07/goAdmin/internal/audit"
	"github.com/MrEthical07/goAdmin/jwt"
	"github.com/MrEthical07/goAdmin/password"
	"github.com/MrEthical07/goAdmin/session"
	"github.com/MrEthical07/goAdmin/storage"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Engine is the session store. Create it with [Builder.Build].
type Engine struct {
	config       Config
	store        storage.Storage
	logger       *zap.Logger
	audit        *internalaudit.Dispatcher
	metrics      *Metrics
	passwordHash *password.Argon2
	jwtManager   *jwt.Manager
	validate     *validator.Validate

	// mu serializes changes to the session keys and state.
	mu    sync.RWMutex
	state session.Session
}

// Close stops the audit dispatcher after flushing queued events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports audit events that never reached the sink.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// AuditPending reports how many audit events wait for the sink.
func (e *Engine) AuditPending() int {
	if e == nil {
		return 0
	}
	return e.audit.Pending()
}

// MetricsSnapshot copies the current counters and histograms. With metrics
// disabled the maps are empty.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Session returns a copy of the in-memory session state.
func (e *Engine) Session() session.Session {
	if e == nil {
		return session.Session{}
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// RecordNavigation counts one guard decision and its latency.
func (e *Engine) RecordNavigation(redirected bool, elapsed time.Duration) {
	if e == nil {
		return
	}
	if redirected {
		e.metricInc(MetricNavigationRedirected)
	} else {
		e.metricInc(MetricNavigationAllowed)
	}
	e.metricObserve(MetricNavigationLatency, elapsed)
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricObserve(id MetricID, d time.Duration) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(id, d)
}

func (e *Engine) ready() error {
	if e == nil || e.store == nil || e.jwtManager == nil || e.passwordHash == nil {
		return ErrEngineNotReady
	}
	return nil
}

func (e *Engine) validateForm(form any) error {
	if err := e.validate.Struct(form); err != nil {
		return errors.Join(ErrInvalidForm, err)
	}
	return nil
}

func (e *Engine) newProfile(username string) session.Profile {
	return session.Profile{
		Username: username,
		Avatar:   e.config.Session.DefaultAvatar,
		Nickname: username,
	}
}

func storageErr(err error) error {
	if err == nil || errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	return errors.Join(ErrStorageUnavailable, err)
}

// abortUpdate marks an error raised inside a storage.UpdateFunc so it can
// be told apart from backend failures.
type abortUpdate struct {
	err error
}

func (a abortUpdate) Error() string { return a.err.Error() }
func (a abortUpdate) Unwrap() error { return a.err }

func updateErr(err error) error {
	if err == nil {
		return nil
	}
	var abort abortUpdate
	if errors.As(err, &abort) {
		return abort.err
	}
	return storageErr(err)
}

// loadUsers reads and decodes the user table. An absent key is an empty table.
func (e *Engine) loadUsers(ctx context.Context) ([]session.UserRecord, error) {
	raw, err := e.store.Get(ctx, session.KeyUsers)
	if errors.Is(err, storage.ErrNotFound) {
		return []session.UserRecord{}, nil
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return session.DecodeUsers(raw)
}
