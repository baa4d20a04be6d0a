// Package vaultdialog is the view model behind the "Secret Vault" dialog. It
// lists configured secret names, accepts one name/value pair at a time and
// reports the outcome of each save as a status banner.
package vaultdialog

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"secretVault/internal/secretclient"
)

const (
	MsgRequiredFields = "Both name and value are required."
	MsgSaveFailed     = "Failed to save secret."
	MsgNetworkError   = "Network error."
)

var (
	ErrClosed = errors.New("vault dialog is closed")
	ErrBusy   = errors.New("vault dialog is already saving")
)

// SecretClient is the slice of secretclient.Client the dialog needs.
type SecretClient interface {
	ListSecretNames(ctx context.Context) ([]string, error)
	SaveSecret(ctx context.Context, name, value string) (*secretclient.SaveResult, error)
}

var _ SecretClient = (*secretclient.Client)(nil)

type State int

const (
	Closed State = iota
	LoadingList
	Ready
	Submitting
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case LoadingList:
		return "loading"
	case Ready:
		return "ready"
	case Submitting:
		return "submitting"
	default:
		return "unknown"
	}
}

type StatusKind int

const (
	StatusNone StatusKind = iota
	StatusSuccess
	StatusFailure
)

// Status is the banner shown above the inputs.
type Status struct {
	Kind    StatusKind
	Message string
}

func success(msg string) Status { return Status{Kind: StatusSuccess, Message: msg} }
func failure(msg string) Status { return Status{Kind: StatusFailure, Message: msg} }

// Snapshot is a copy of the dialog's visible state.
type Snapshot struct {
	State  State
	Name   string
	Value  string
	Status Status
	Names  []string
}

// Dialog is safe for concurrent use. Network calls run outside the lock; their
// results are applied only if the dialog is still on the same open.
type Dialog struct {
	client SecretClient
	logger *zap.Logger

	mu     sync.Mutex
	state  State
	name   string
	value  string
	status Status
	names  []string

	// gen changes on every open and close.
	gen    uint64
	scope  context.Context
	cancel context.CancelFunc
}

func New(client SecretClient, logger *zap.Logger) *Dialog {
	return &Dialog{client: client, logger: logger, state: Closed}
}

// Open shows the dialog and fetches the list of names once. ctx bounds the
// whole open lifetime; Close cancels it early. Opening an open dialog is a
// no-op.
func (d *Dialog) Open(ctx context.Context) {
	d.mu.Lock()
	if d.state != Closed {
		d.mu.Unlock()
		return
	}
	d.gen++
	gen := d.gen
	d.scope, d.cancel = context.WithCancel(ctx)
	scope := d.scope
	d.state = LoadingList
	d.mu.Unlock()

	d.logger.Debug("vaultdialog.opened")
	d.fetchNames(scope, gen)

	d.mu.Lock()
	if d.gen == gen && d.state == LoadingList {
		d.state = Ready
	}
	d.mu.Unlock()
}

// Close discards all transient state and cancels anything still in flight.
func (d *Dialog) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == Closed {
		return
	}
	d.cancel()
	d.gen++
	d.scope, d.cancel = nil, nil
	d.state = Closed
	d.name, d.value = "", ""
	d.status = Status{}
	d.names = nil
	d.logger.Debug("vaultdialog.closed")
}

func (d *Dialog) SetName(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == Closed {
		return ErrClosed
	}
	d.name = name
	return nil
}

func (d *Dialog) SetValue(value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == Closed {
		return ErrClosed
	}
	d.value = value
	return nil
}

// DismissStatus clears the banner.
func (d *Dialog) DismissStatus() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status = Status{}
}

// Save submits the current fields. Outcomes are reported through the status
// banner; the returned error is only ErrClosed or ErrBusy.
func (d *Dialog) Save(ctx context.Context) error {
	d.mu.Lock()
	switch d.state {
	case Closed:
		d.mu.Unlock()
		return ErrClosed
	case Submitting:
		d.mu.Unlock()
		return ErrBusy
	}

	d.status = Status{}
	name, value := d.name, d.value
	if name == "" || value == "" {
		d.status = failure(MsgRequiredFields)
		d.mu.Unlock()
		return nil
	}

	gen, scope := d.gen, d.scope
	d.state = Submitting
	d.mu.Unlock()

	reqCtx, cancel := scoped(ctx, scope)
	defer cancel()

	result, err := d.client.SaveSecret(reqCtx, name, value)

	d.mu.Lock()
	if d.gen != gen {
		d.mu.Unlock()
		d.logger.Debug("vaultdialog.save_dropped", zap.String("name", name))
		return ErrClosed
	}
	switch {
	case err != nil:
		d.logger.Warn("vaultdialog.save_failed", zap.String("name", name), zap.Error(err))
		d.status = failure(MsgNetworkError)
		d.state = Ready
		d.mu.Unlock()
		return nil
	case result == nil || !result.OK():
		msg, status := MsgSaveFailed, ""
		if result != nil {
			status = result.Status
			if result.Error != "" {
				msg = result.Error
			}
		}
		d.logger.Info("vaultdialog.save_rejected", zap.String("name", name), zap.String("status", status))
		d.status = failure(msg)
		d.state = Ready
		d.mu.Unlock()
		return nil
	}

	d.name, d.value = "", ""
	d.status = success(result.Message)
	d.mu.Unlock()

	d.logger.Info("vaultdialog.saved", zap.String("name", name))
	d.fetchNames(reqCtx, gen)

	d.mu.Lock()
	if d.gen == gen {
		d.state = Ready
	}
	d.mu.Unlock()
	return nil
}

// Refresh re-fetches the name list. Fields and banner are left alone.
func (d *Dialog) Refresh(ctx context.Context) error {
	d.mu.Lock()
	if d.state == Closed {
		d.mu.Unlock()
		return ErrClosed
	}
	gen, scope := d.gen, d.scope
	d.mu.Unlock()

	reqCtx, cancel := scoped(ctx, scope)
	defer cancel()

	d.fetchNames(reqCtx, gen)
	return nil
}

// View returns a snapshot safe to read without holding the dialog.
func (d *Dialog) View() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	var names []string
	if d.names != nil {
		names = append([]string{}, d.names...)
	}
	return Snapshot{
		State:  d.state,
		Name:   d.name,
		Value:  d.value,
		Status: d.status,
		Names:  names,
	}
}

// fetchNames refreshes the name list. Failures are logged and leave the
// current list as it was.
func (d *Dialog) fetchNames(ctx context.Context, gen uint64) {
	names, err := d.client.ListSecretNames(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.gen != gen {
		d.logger.Debug("vaultdialog.list_dropped")
		return
	}
	if err != nil {
		d.logger.Warn("vaultdialog.list_failed", zap.Error(err))
		return
	}
	d.names = append([]string{}, names...)
}

// scoped derives a context from the open scope that also ends with ctx.
func scoped(ctx, scope context.Context) (context.Context, context.CancelFunc) {
	reqCtx, cancel := context.WithCancel(scope)
	stop := context.AfterFunc(ctx, cancel)
	return reqCtx, func() {
		stop()
		cancel()
	}
}
