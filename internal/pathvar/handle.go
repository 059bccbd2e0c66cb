package pathvar

import (
	"strings"
	"sync"

	"workbench/internal/errors"
	"workbench/internal/log"

	"github.com/google/uuid"
)

var (
	// ErrClosed is returned by a handle after Commit or Cancel
	ErrClosed = errors.New("path variable session is closed")
	// ErrNotOffered is returned for chooser requests the session kinds exclude
	ErrNotOffered = errors.New("request not offered by this session")
)

// Observer is told about every change of the published result
type Observer interface {
	OnResultChanged(Result)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(Result)

func (f ObserverFunc) OnResultChanged(r Result) { f(r) }

// Option configures a Handle
type Option func(*Handle)

// WithNamePolicy replaces the default name policy
func WithNamePolicy(p NamePolicy) Option {
	return func(h *Handle) { h.validator.Names = p }
}

// WithPathSyntax replaces the default path syntax
func WithPathSyntax(s PathSyntax) Option {
	return func(h *Handle) { h.validator.Syntax = s }
}

// WithProbe replaces the default existence probe
func WithProbe(p ExistenceProbe) Option {
	return func(h *Handle) { h.validator.Probe = p }
}

// WithChooser sets the bridge used by RequestFile and RequestFolder
func WithChooser(c Chooser) Option {
	return func(h *Handle) { h.chooser = c }
}

// WithLogger sets the logger
func WithLogger(l log.Logging) Option {
	return func(h *Handle) { h.validator.Logger = l }
}

// WithObserver subscribes o before the initial validation
func WithObserver(o Observer) Option {
	return func(h *Handle) { h.addObserver(o) }
}

// Handle drives one editing session
type Handle struct {
	id        string
	session   Session
	validator *Validator
	chooser   Chooser
	logger    log.Logging

	mu        sync.Mutex
	draft     Draft
	result    Result
	closed    bool
	observers []subscription
	nextSub   int
}

type subscription struct {
	id       int
	observer Observer
}

// Open starts a session. In edit mode the draft is preloaded from the
// original name and value and both fields count as touched.
func Open(session Session, opts ...Option) *Handle {
	session.NamesInUse = append([]string(nil), session.NamesInUse...)
	// The draft holds the trimmed name, so self-exclusion must compare against it
	session.OriginalName = strings.TrimSpace(session.OriginalName)
	h := &Handle{
		id:        uuid.NewString(),
		session:   session,
		validator: NewValidator(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.validator.logger().With(log.F("session", h.id), log.F("mode", session.Mode.String()))
	h.validator.Logger = h.logger

	if session.Mode == Edit {
		h.draft = Draft{
			Name:         session.OriginalName,
			Value:        strings.TrimSpace(session.OriginalValue),
			NameTouched:  true,
			ValueTouched: true,
		}
	}
	h.result = h.validator.Validate(h.session, h.draft)
	h.logger.Debugf("Session opened: severity=%s commit=%t", h.result.Severity, h.result.CommitEnabled)
	h.notify(h.snapshotObservers(), h.result)
	return h
}

// ID identifies the session in logs
func (h *Handle) ID() string {
	return h.id
}

// Session returns the session the handle was opened with
func (h *Handle) Session() Session {
	return h.session
}

// Result returns the most recent validation result
func (h *Handle) Result() Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result
}

// Draft returns a copy of the current draft
func (h *Handle) Draft() Draft {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.draft
}

// Subscribe registers o and returns a function that removes it
func (h *Handle) Subscribe(o Observer) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.addObserver(o)
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		for i, sub := range h.observers {
			if sub.id == id {
				h.observers = append(h.observers[:i], h.observers[i+1:]...)
				return
			}
		}
	}
}

func (h *Handle) addObserver(o Observer) int {
	h.nextSub++
	h.observers = append(h.observers, subscription{id: h.nextSub, observer: o})
	return h.nextSub
}

func (h *Handle) snapshotObservers() []Observer {
	observers := make([]Observer, 0, len(h.observers))
	for _, sub := range h.observers {
		observers = append(observers, sub.observer)
	}
	return observers
}

// SetName assigns the name verbatim and revalidates
func (h *Handle) SetName(name string) (Result, error) {
	return h.update(func(d *Draft) {
		d.Name = name
		if name != "" {
			d.NameTouched = true
		}
	})
}

// SetValue assigns the trimmed value and revalidates
func (h *Handle) SetValue(value string) (Result, error) {
	value = strings.TrimSpace(value)
	return h.update(func(d *Draft) {
		d.Value = value
		if value != "" {
			d.ValueTouched = true
		}
	})
}

// FileRequestsEnabled reports whether RequestFile is offered
func (h *Handle) FileRequestsEnabled() bool {
	return h.chooser != nil && h.session.Kinds.Has(KindFile)
}

// FolderRequestsEnabled reports whether RequestFolder is offered
func (h *Handle) FolderRequestsEnabled() bool {
	return h.chooser != nil && h.session.Kinds.Has(KindFolder)
}

// RequestFile asks the chooser for a file and uses the answer as the value
func (h *Handle) RequestFile() (Result, error) {
	if !h.FileRequestsEnabled() {
		return h.Result(), ErrNotOffered
	}
	return h.request(h.chooser.ChooseFile)
}

// RequestFolder asks the chooser for a folder and uses the answer as the value
func (h *Handle) RequestFolder() (Result, error) {
	if !h.FolderRequestsEnabled() {
		return h.Result(), ErrNotOffered
	}
	return h.request(h.chooser.ChooseFolder)
}

func (h *Handle) request(choose func(seed string) (string, bool, error)) (Result, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return h.result, ErrClosed
	}
	seed := h.draft.Value
	h.mu.Unlock()

	path, ok, err := choose(seed)
	if err != nil {
		// Chooser failures count as cancellation
		h.logger.WithError(err).Warn("Path chooser failed")
		return h.Result(), nil
	}
	if !ok || path == "" {
		return h.Result(), nil
	}
	abs, err := normalize(path)
	if err != nil {
		h.logger.WithError(err).Warn("Cannot normalize chosen path")
		return h.Result(), nil
	}
	return h.SetValue(abs)
}

// Commit returns the variable if the draft may be committed and closes the
// handle. Otherwise it fails with a NotReady error and the handle stays open.
func (h *Handle) Commit() (Variable, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return Variable{}, ErrClosed
	}

	// Revalidate so a stale probe answer cannot let a bad value through
	current, observers := h.revalidate()
	if !current.CommitEnabled {
		h.mu.Unlock()
		h.notify(observers, current)
		return Variable{}, errors.NewValidationError(current.Message, "variable", errors.NotReady)
	}
	h.closed = true
	v := Variable{Name: h.draft.Name, Value: h.draft.Value}
	h.mu.Unlock()

	h.notify(observers, current)
	h.logger.With(log.F("name", v.Name)).Debug("Variable committed")
	return v, nil
}

// Cancel discards the draft and closes the handle
func (h *Handle) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	h.draft = Draft{}
	h.observers = nil
	h.logger.Debug("Session cancelled")
}

func (h *Handle) update(mutate func(*Draft)) (Result, error) {
	h.mu.Lock()
	if h.closed {
		r := h.result
		h.mu.Unlock()
		return r, ErrClosed
	}
	mutate(&h.draft)
	current, observers := h.revalidate()
	h.mu.Unlock()

	h.notify(observers, current)
	return current, nil
}

// revalidate recomputes the result and returns the observers to notify,
// which is none when the result did not change. Called with mu held.
func (h *Handle) revalidate() (Result, []Observer) {
	previous := h.result
	h.result = h.validator.Validate(h.session, h.draft)
	current := h.result
	if current == previous {
		return current, nil
	}
	h.logger.Debugf("Validation changed: severity=%s commit=%t message=%q", current.Severity, current.CommitEnabled, current.Message)
	return current, h.snapshotObservers()
}

func (h *Handle) notify(observers []Observer, r Result) {
	for _, o := range observers {
		o.OnResultChanged(r)
	}
}
