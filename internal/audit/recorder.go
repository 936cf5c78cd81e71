package audit

import (
	"context"
	"sync"

	"github.com/qrqwqeqt/GoF-Patt/internal/auth"
	"github.com/qrqwqeqt/GoF-Patt/internal/device"
)

// queueSize is the buffer size of the asynchronous write queue.
// Entries beyond this are dropped to avoid back-pressure on requests.
const queueSize = 256

// Logger defines the logging interface used by the Recorder.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Recorder queues audit entries and writes them serially from Run.
// It observes device lifecycle and account events.
type Recorder struct {
	repo   Repository
	queue  chan *AuditLog
	logger Logger
	done   chan struct{}
	once   sync.Once
}

// NewRecorder creates a recorder writing to repo.
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{
		repo:   repo,
		queue:  make(chan *AuditLog, queueSize),
		logger: noopLogger{},
		done:   make(chan struct{}),
	}
}

// SetLogger sets the logger for the recorder.
func (r *Recorder) SetLogger(logger Logger) {
	r.logger = logger
}

// Record enqueues an entry (best-effort). If the queue is full the entry is
// dropped and a warning is logged.
func (r *Recorder) Record(action, entityType, entityID, userID string, details map[string]any) {
	entry := &AuditLog{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		UserID:     userID,
		Details:    details,
	}

	select {
	case r.queue <- entry:
	default:
		r.logger.Warn("audit queue full, dropping entry",
			"action", action,
			"entity_type", entityType,
		)
	}
}

// HandleDeviceEvent records a device lifecycle event against its owner.
func (r *Recorder) HandleDeviceEvent(_ context.Context, ev device.Event) error {
	details := map[string]any{"imageCount": ev.ImageCount}
	if ev.Title != "" {
		details["title"] = ev.Title
	}
	r.Record(actionFor(ev.Type), "device", ev.DeviceID, ev.OwnerID, details)
	return nil
}

// HandleUserEvent records an account event against the account itself.
func (r *Recorder) HandleUserEvent(_ context.Context, ev auth.Event) error {
	var details map[string]any
	if ev.Type == auth.EventLoggedIn {
		details = map[string]any{"userType": string(ev.UserType)}
	}
	r.Record(userActionFor(ev.Type), "user", ev.UserID, ev.UserID, details)
	return nil
}

func userActionFor(t auth.EventType) string {
	switch t {
	case auth.EventRegistered:
		return "register"
	case auth.EventLoggedIn:
		return "login"
	case auth.EventUpdated:
		return "update"
	case auth.EventPasswordChanged:
		return "password_change"
	case auth.EventDeleted:
		return "delete"
	default:
		return string(t)
	}
}

func actionFor(t device.EventType) string {
	switch t {
	case device.EventCreated:
		return "create"
	case device.EventUpdated:
		return "update"
	case device.EventDeleted:
		return "delete"
	default:
		return string(t)
	}
}

// Run writes queued entries until ctx is cancelled, then drains what is
// left and returns.
func (r *Recorder) Run(ctx context.Context) {
	defer r.once.Do(func() { close(r.done) })

	for {
		select {
		case entry := <-r.queue:
			r.write(entry)
		case <-ctx.Done():
			for {
				select {
				case entry := <-r.queue:
					r.write(entry)
				default:
					return
				}
			}
		}
	}
}

// Done is closed when Run has returned.
func (r *Recorder) Done() <-chan struct{} {
	return r.done
}

func (r *Recorder) write(entry *AuditLog) {
	if err := r.repo.Create(context.Background(), entry); err != nil {
		r.logger.Error("audit log write failed",
			"action", entry.Action,
			"entity_type", entry.EntityType,
			"error", err,
		)
	}
}
