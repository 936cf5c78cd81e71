package device

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/qrqwqeqt/GoF-Patt/internal/formdata"
	"github.com/qrqwqeqt/GoF-Patt/internal/infrastructure/objectstore"
)

// Logger defines the logging interface used by the Service.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// OwnerDirectory resolves owner IDs to public profiles.
// Unknown IDs are absent from the returned map.
type OwnerDirectory interface {
	Owners(ctx context.Context, ids []string) (map[string]Owner, error)
}

// Service orchestrates the device lifecycle across the document store and
// the image object store, and enforces ownership on every write.
//
// Configure it with the setters before serving requests; the setters are
// not safe to call concurrently with operations.
type Service struct {
	repo     Repository
	blobs    objectstore.Gateway
	owners   OwnerDirectory
	logger   Logger
	handlers []EventHandler

	requirePolicyAgreement bool
	maxImages              int
	now                    func() time.Time
}

// NewService creates a device service. owners may be nil, in which case
// owner references are never expanded.
func NewService(repo Repository, blobs objectstore.Gateway, owners OwnerDirectory) *Service {
	return &Service{
		repo:   repo,
		blobs:  blobs,
		owners: owners,
		logger: noopLogger{},
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetLogger sets the logger for the service.
func (s *Service) SetLogger(logger Logger) {
	s.logger = logger
}

// AddEventHandler registers h to receive lifecycle events.
func (s *Service) AddEventHandler(h EventHandler) {
	s.handlers = append(s.handlers, h)
}

// SetRequirePolicyAgreement makes acceptance of the rental policy mandatory.
func (s *Service) SetRequirePolicyAgreement(required bool) {
	s.requirePolicyAgreement = required
}

// SetMaxImages limits the number of attachments per device. Zero means no limit.
func (s *Service) SetMaxImages(n int) {
	s.maxImages = n
}

// Create lists a new device owned by callerID.
//
// fields are raw form values; they are coerced, and "imageDimensions" must
// hold one {width,height} entry per attachment, in attachment order. The
// device is validated before anything is uploaded. Attachments are then
// uploaded concurrently; if any upload fails the device is not stored and
// images already uploaded are left in place.
func (s *Service) Create(ctx context.Context, fields map[string]string, attachments []objectstore.Blob, callerID string) (*Device, error) {
	if callerID == "" {
		return nil, fmt.Errorf("%w: no caller", ErrForbidden)
	}

	values := formdata.Coerce(fields)
	dims, err := takeImageDimensions(values)
	if err != nil {
		return nil, err
	}
	if len(dims) != len(attachments) {
		return nil, fmt.Errorf("%w: got %d image dimensions for %d images", ErrBadRequest, len(dims), len(attachments))
	}
	if s.maxImages > 0 && len(attachments) > s.maxImages {
		return nil, fmt.Errorf("%w: at most %d images allowed", ErrBadRequest, s.maxImages)
	}
	if err := ValidateImageDimensions(dims); err != nil {
		return nil, err
	}

	var d Device
	if err := decodeFields(withoutKeys(withoutKeys(values, immutableFields...), "images", "isInRent"), &d); err != nil {
		return nil, err
	}
	d.OwnerID = callerID
	d.IsInRent = false
	if err := ValidateDevice(&d, s.requirePolicyAgreement); err != nil {
		return nil, err
	}

	locators, err := s.uploadAll(ctx, attachments)
	if err != nil {
		return nil, err
	}

	d.Images = make([]Image, len(locators))
	for i, url := range locators {
		d.Images[i] = Image{URL: url, Width: dims[i].Width, Height: dims[i].Height}
	}

	if err := s.repo.Insert(ctx, &d); err != nil {
		s.logger.Error("device insert failed after upload", "owner_id", callerID, "orphaned_images", len(locators), "error", err)
		return nil, err
	}

	s.logger.Info("device created", "device_id", d.ID, "owner_id", d.OwnerID, "images", len(d.Images))
	s.emit(ctx, newEvent(EventCreated, &d, s.now()))
	return &d, nil
}

// GetByID returns a device with its owner's contact details.
// Returns ErrDeviceNotFound if the device does not exist.
func (s *Service) GetByID(ctx context.Context, id string) (*View, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	owners, err := s.lookupOwners(ctx, []string{d.OwnerID})
	if err != nil {
		return nil, err
	}

	view := &View{Device: *d}
	if o, ok := owners[d.OwnerID]; ok {
		view.Owner = detailProjection(o)
	}
	return view, nil
}

// ListByOwner returns every device owned by ownerID without owner expansion.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]Device, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// List returns devices matching filter with each owner's town.
func (s *Service) List(ctx context.Context, filter Filter) ([]View, error) {
	devices, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(devices))
	ids := make([]string, 0, len(devices))
	for _, d := range devices {
		if _, ok := seen[d.OwnerID]; ok {
			continue
		}
		seen[d.OwnerID] = struct{}{}
		ids = append(ids, d.OwnerID)
	}

	owners, err := s.lookupOwners(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]View, 0, len(devices))
	for _, d := range devices {
		view := View{Device: d}
		if o, ok := owners[d.OwnerID]; ok {
			view.Owner = listingProjection(o)
		}
		if filter.Town != "" && (view.Owner == nil || !strings.EqualFold(view.Owner.Town, filter.Town)) {
			continue
		}
		views = append(views, view)
	}
	return views, nil
}

// Update applies a partial update to a device owned by callerID.
//
// Ownership is checked against the stored device before any change is
// applied, inside the same repository transaction. id, ownerId and the
// timestamps cannot be changed. Replacing images does not delete the old
// image objects.
//
// Returns ErrDeviceNotFound, ErrForbidden or ErrBadRequest.
func (s *Service) Update(ctx context.Context, id string, updates map[string]any, callerID string) (*Device, error) {
	clean := withoutKeys(updates, immutableFields...)

	updated, err := s.repo.UpdateByID(ctx, id, func(d *Device) error {
		if err := Authorize(d.OwnerID, callerID); err != nil {
			return err
		}
		if _, ok := clean["images"]; ok {
			d.Images = nil
		}
		if err := decodeFields(clean, d); err != nil {
			return err
		}
		return ValidateDevice(d, s.requirePolicyAgreement)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("device updated", "device_id", updated.ID, "owner_id", updated.OwnerID, "fields", len(clean))
	s.emit(ctx, newEvent(EventUpdated, updated, s.now()))
	return updated, nil
}

// Delete removes a device owned by callerID together with its images.
//
// Image objects are deleted concurrently before the document. If any image
// delete fails the document is kept and the error is returned, so the
// delete can be retried.
//
// Returns ErrDeviceNotFound or ErrForbidden. On ErrForbidden no image is touched.
func (s *Service) Delete(ctx context.Context, id string, callerID string) error {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := Authorize(d.OwnerID, callerID); err != nil {
		return err
	}

	locators := make([]string, len(d.Images))
	for i, img := range d.Images {
		locators[i] = img.URL
	}
	if err := s.deleteAll(ctx, locators); err != nil {
		return err
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return err
	}

	s.logger.Info("device deleted", "device_id", d.ID, "owner_id", d.OwnerID, "images", len(locators))
	s.emit(ctx, newEvent(EventDeleted, d, s.now()))
	return nil
}

// DeleteByOwner removes every device owned by ownerID together with its
// images, stopping at the first failure. Returns the number deleted.
func (s *Service) DeleteByOwner(ctx context.Context, ownerID string) (int, error) {
	devices, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, d := range devices {
		if err := s.Delete(ctx, d.ID, ownerID); err != nil {
			return deleted, fmt.Errorf("deleting device %s: %w", d.ID, err)
		}
		deleted++
	}
	return deleted, nil
}

// uploadAll puts every blob concurrently and returns locators in input order.
func (s *Service) uploadAll(ctx context.Context, blobs []objectstore.Blob) ([]string, error) {
	locators := make([]string, len(blobs))

	g, gctx := errgroup.WithContext(ctx)
	for i, blob := range blobs {
		g.Go(func() error {
			url, err := s.blobs.Put(gctx, blob)
			if err != nil {
				return fmt.Errorf("uploading image %d (%s): %w", i, blob.Filename, err)
			}
			locators[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return locators, nil
}

// deleteAll removes every locator concurrently.
func (s *Service) deleteAll(ctx context.Context, locators []string) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, locator := range locators {
		g.Go(func() error {
			if err := s.blobs.Delete(gctx, locator); err != nil {
				return fmt.Errorf("deleting image %s: %w", locator, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

func (s *Service) lookupOwners(ctx context.Context, ids []string) (map[string]Owner, error) {
	if s.owners == nil || len(ids) == 0 {
		return map[string]Owner{}, nil
	}
	owners, err := s.owners.Owners(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving owners: %w", ErrUnavailable, err)
	}
	return owners, nil
}

// emit delivers ev to every handler. Cancellation of the request does not
// cut delivery short.
func (s *Service) emit(ctx context.Context, ev Event) {
	ctx = context.WithoutCancel(ctx)
	for _, h := range s.handlers {
		if err := h.HandleDeviceEvent(ctx, ev); err != nil {
			s.logger.Warn("device event handler failed", "event", ev.Type, "device_id", ev.DeviceID, "error", err)
		}
	}
}
