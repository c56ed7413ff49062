// Package views mounts one calendar/triage view per authenticated viewer and
// tears it down on navigation away, logout, or loss of the clinical session.
package views

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"healthcare-portal/internal/appointments"
	"healthcare-portal/internal/calendar"
	"healthcare-portal/internal/clinicalapi"
	"healthcare-portal/internal/consultations"
	"healthcare-portal/internal/metrics"
	"healthcare-portal/internal/models"
	"healthcare-portal/internal/session"

	"go.uber.org/zap"
)

var (
	ErrNotMounted = errors.New("view not mounted")
	// ErrSessionExpired means the clinical API rejected the viewer's session
	// and the viewer must sign in again.
	ErrSessionExpired = errors.New("session expired")
	ErrNoFeed         = errors.New("consultation feed not available for this role")
)

// Config controls how views are built.
type Config struct {
	PollInterval time.Duration
	FeedRoles    []models.Role
	Location     *time.Location
	Now          func() time.Time
}

// Event is the last outbound notification a view emitted.
type Event struct {
	Name          string            `json:"name"`
	At            time.Time         `json:"at"`
	AppointmentID string            `json:"appointmentId,omitempty"`
	ViewMode      calendar.ViewMode `json:"viewMode,omitempty"`
}

const (
	EventAppointmentClick = "appointment_click"
	EventViewModeChange   = "view_mode_change"
)

// View is the live state of one viewer's calendar/triage page.
type View struct {
	Viewer   models.Viewer
	Calendar *calendar.Machine
	// Feed is nil for roles without a consultation feed.
	Feed     *consultations.Reconciler
	Location *time.Location

	poller *consultations.Poller

	mu        sync.Mutex
	lastEvent *Event
}

// LastEvent returns the most recent notification, if any.
func (v *View) LastEvent() (Event, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.lastEvent == nil {
		return Event{}, false
	}
	return *v.lastEvent, true
}

func (v *View) record(e Event) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastEvent = &e
}

// Registry owns every mounted view.
type Registry struct {
	source  clinicalapi.Source
	store   session.Store
	log     *zap.Logger
	metrics *metrics.Collector
	cfg     Config

	baseCtx context.Context
	cancel  context.CancelFunc

	// lifecycle serializes Mount against Logout and expiry so a rejected
	// session never clears credentials saved by a newer mount.
	lifecycle sync.Mutex

	mu      sync.Mutex
	views   map[string]*View
	expired map[string]bool
}

func NewRegistry(source clinicalapi.Source, store session.Store, cfg Config, logger *zap.Logger, collector *metrics.Collector) *Registry {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		source:  source,
		store:   store,
		log:     logger,
		metrics: collector,
		cfg:     cfg,
		baseCtx: ctx,
		cancel:  cancel,
		views:   make(map[string]*View),
		expired: make(map[string]bool),
	}
}

// Mount stores the viewer's clinical API credentials and returns their view,
// creating it (and starting its feed poller) if it is not mounted yet.
func (r *Registry) Mount(ctx context.Context, viewer models.Viewer, creds clinicalapi.Credentials) (*View, error) {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	if err := r.store.Save(ctx, viewer.UserID, creds); err != nil {
		return nil, fmt.Errorf("mount view: %w", err)
	}

	r.mu.Lock()
	delete(r.expired, viewer.UserID)
	if v, ok := r.views[viewer.UserID]; ok && v.Viewer.Role == viewer.Role {
		r.mu.Unlock()
		return v, nil
	}
	stale := r.views[viewer.UserID]
	v := r.newView(viewer)
	r.views[viewer.UserID] = v
	r.mu.Unlock()

	if stale != nil {
		r.stop(stale)
	}
	if v.poller != nil {
		v.poller.Start(r.baseCtx)
	}
	r.metrics.ViewMounted()
	r.log.Info("views.Registry view mounted",
		zap.String("user_id", viewer.UserID),
		zap.String("role", string(viewer.Role)),
		zap.Bool("feed", v.Feed != nil),
	)
	return v, nil
}

// Now returns the registry clock's current time.
func (r *Registry) Now() time.Time { return r.cfg.Now() }

// Get returns the viewer's mounted view.
func (r *Registry) Get(viewerID string) (*View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.expired[viewerID] {
		return nil, ErrSessionExpired
	}
	v, ok := r.views[viewerID]
	if !ok {
		return nil, ErrNotMounted
	}
	return v, nil
}

// Unmount tears the view down when the viewer navigates away. Stored
// credentials are kept.
func (r *Registry) Unmount(viewerID string) bool {
	r.mu.Lock()
	v, ok := r.views[viewerID]
	delete(r.views, viewerID)
	r.mu.Unlock()
	if !ok {
		return false
	}
	r.stop(v)
	r.log.Info("views.Registry view unmounted", zap.String("user_id", viewerID))
	return true
}

// Logout tears the view down and clears the viewer's stored credentials.
func (r *Registry) Logout(ctx context.Context, viewerID string) error {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	r.Unmount(viewerID)
	if err := r.store.Clear(ctx, viewerID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Expire handles a rejected clinical session: credentials are cleared, the
// view is torn down, and the viewer's next request is told to sign in again.
func (r *Registry) Expire(ctx context.Context, viewerID string, cause error) {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()
	r.expire(ctx, viewerID, nil, cause)
}

// expireView expires the viewer only if v is still their mounted view, so a
// late signal from a replaced view cannot tear down its successor.
func (r *Registry) expireView(v *View, cause error) {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()
	r.expire(context.Background(), v.Viewer.UserID, v, cause)
}

// expire requires r.lifecycle. When only is set, nothing happens unless it is
// the mounted view.
func (r *Registry) expire(ctx context.Context, viewerID string, only *View, cause error) {
	r.mu.Lock()
	v, mounted := r.views[viewerID]
	if only != nil && v != only {
		r.mu.Unlock()
		return
	}
	r.expired[viewerID] = true
	delete(r.views, viewerID)
	r.mu.Unlock()

	if err := r.store.Clear(ctx, viewerID); err != nil {
		r.log.Error("views.Registry failed to clear credentials",
			zap.String("user_id", viewerID),
			zap.Error(err),
		)
	}
	if mounted {
		r.stop(v)
		r.log.Info("views.Registry view unmounted", zap.String("user_id", viewerID))
	}
	r.metrics.RecordSessionExpired()
	r.log.Warn("views.Registry clinical session rejected; viewer must sign in again",
		zap.String("user_id", viewerID),
		zap.Error(cause),
	)
}

// Appointments fetches and normalizes the viewer's appointments. Records that
// fail normalization are dropped.
func (r *Registry) Appointments(ctx context.Context, viewerID string) ([]models.Appointment, error) {
	creds, err := r.credentials(ctx, viewerID)
	if err != nil {
		if errors.Is(err, clinicalapi.ErrUnauthorized) {
			r.Expire(ctx, viewerID, err)
			return nil, ErrSessionExpired
		}
		return nil, err
	}
	raws, err := r.source.ListAppointments(ctx, creds)
	if err != nil {
		if errors.Is(err, clinicalapi.ErrUnauthorized) {
			r.Expire(ctx, viewerID, err)
			return nil, ErrSessionExpired
		}
		return nil, err
	}
	appts, rejected := appointments.NormalizeAll(raws)
	if rejected > 0 {
		r.metrics.RecordRejected("appointments", rejected)
		r.log.Warn("views.Registry dropped appointments with invalid data",
			zap.String("user_id", viewerID),
			zap.Int("rejected", rejected),
		)
	}
	return appts, nil
}

// Close stops every view. The registry must not be used afterwards.
func (r *Registry) Close() {
	r.cancel()
	r.mu.Lock()
	views := make([]*View, 0, len(r.views))
	for id, v := range r.views {
		views = append(views, v)
		delete(r.views, id)
	}
	r.mu.Unlock()
	for _, v := range views {
		r.stop(v)
	}
}

func (r *Registry) stop(v *View) {
	if v.poller != nil {
		v.poller.Stop()
	}
	r.metrics.ViewUnmounted()
}

func (r *Registry) credentials(ctx context.Context, viewerID string) (clinicalapi.Credentials, error) {
	creds, err := r.store.Get(ctx, viewerID)
	if errors.Is(err, session.ErrNotFound) {
		return creds, fmt.Errorf("%w: no stored credentials", clinicalapi.ErrUnauthorized)
	}
	return creds, err
}

func (r *Registry) newView(viewer models.Viewer) *View {
	v := &View{
		Viewer:   viewer,
		Location: r.cfg.Location,
	}
	localNow := func() time.Time { return r.cfg.Now().In(r.cfg.Location) }
	v.Calendar = calendar.NewMachine(localNow, calendar.ListenerFuncs{
		AppointmentClick: func(a models.Appointment) {
			v.record(Event{Name: EventAppointmentClick, At: r.cfg.Now(), AppointmentID: a.ID})
			r.metrics.RecordCalendarEvent(EventAppointmentClick)
			r.log.Debug("views.View appointment clicked",
				zap.String("user_id", viewer.UserID),
				zap.String("appointment_id", a.ID),
			)
		},
		ViewModeChange: func(mode calendar.ViewMode) {
			v.record(Event{Name: EventViewModeChange, At: r.cfg.Now(), ViewMode: mode})
			r.metrics.RecordCalendarEvent(EventViewModeChange)
			r.log.Debug("views.View view mode changed",
				zap.String("user_id", viewer.UserID),
				zap.String("mode", string(mode)),
			)
		},
	})

	if !r.hasFeed(viewer.Role) {
		return v
	}
	v.Feed = consultations.NewReconciler()
	fetch := func(ctx context.Context) ([]clinicalapi.Consultation, error) {
		creds, err := r.credentials(ctx, viewer.UserID)
		if err != nil {
			return nil, err
		}
		return r.source.ListConsultations(ctx, creds)
	}
	v.poller = consultations.NewPoller(v.Feed, fetch, r.cfg.PollInterval,
		r.log.With(zap.String("user_id", viewer.UserID)), r.metrics,
		func(err error) { r.expireView(v, err) },
	)
	return v
}

func (r *Registry) hasFeed(role models.Role) bool {
	for _, allowed := range r.cfg.FeedRoles {
		if role == allowed {
			return true
		}
	}
	return false
}
