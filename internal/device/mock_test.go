package device

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/qrqwqeqt/GoF-Patt/internal/infrastructure/objectstore"
)

// callLog records calls across mocks so tests can assert ordering.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// mockRepository is an in-memory Repository with injectable errors.
type mockRepository struct {
	mu      sync.Mutex
	devices map[string]*Device
	nextID  int
	log     *callLog

	insertErr error
	getErr    error
	deleteErr error
}

func newMockRepository(log *callLog) *mockRepository {
	return &mockRepository{devices: make(map[string]*Device), log: log}
}

func (m *mockRepository) Insert(_ context.Context, d *Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log.add("repo.Insert")
	if m.insertErr != nil {
		return m.insertErr
	}
	m.nextID++
	d.ID = fmt.Sprintf("dev-%d", m.nextID)
	d.CreatedAt = time.Date(2026, 1, 1, 0, 0, m.nextID, 0, time.UTC)
	d.UpdatedAt = d.CreatedAt
	m.devices[d.ID] = d.DeepCopy()
	return nil
}

func (m *mockRepository) GetByID(_ context.Context, id string) (*Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log.add("repo.GetByID")
	if m.getErr != nil {
		return nil, m.getErr
	}
	d, ok := m.devices[id]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return d.DeepCopy(), nil
}

func (m *mockRepository) ListByOwner(_ context.Context, ownerID string) ([]Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Device
	for _, d := range m.sorted() {
		if d.OwnerID == ownerID {
			out = append(out, *d.DeepCopy())
		}
	}
	return out, nil
}

func (m *mockRepository) List(_ context.Context, filter Filter) ([]Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Device
	for _, d := range m.sorted() {
		if filter.AvailableOnly && d.IsInRent {
			continue
		}
		out = append(out, *d.DeepCopy())
	}
	return out, nil
}

func (m *mockRepository) UpdateByID(_ context.Context, id string, mutate func(*Device) error) (*Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log.add("repo.UpdateByID")
	current, ok := m.devices[id]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	next := current.DeepCopy()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.ID, next.OwnerID, next.CreatedAt = current.ID, current.OwnerID, current.CreatedAt
	m.devices[id] = next.DeepCopy()
	return next, nil
}

func (m *mockRepository) DeleteByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log.add("repo.DeleteByID")
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.devices[id]; !ok {
		return ErrDeviceNotFound
	}
	delete(m.devices, id)
	return nil
}

func (m *mockRepository) sorted() []*Device {
	out := make([]*Device, 0, len(m.devices))
	for _, d := range m.devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *mockRepository) get(id string) *Device {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.devices[id].DeepCopy()
}

// mockGateway records puts and deletes; failOn makes Put fail for a filename.
type mockGateway struct {
	mu      sync.Mutex
	log     *callLog
	puts    []string
	deletes []string
	failOn  string
	delErr  error
	delay   func(filename string) time.Duration
}

func (g *mockGateway) Put(ctx context.Context, blob objectstore.Blob) (string, error) {
	if g.delay != nil {
		select {
		case <-time.After(g.delay(blob.Filename)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.log.add("blob.Put")
	if blob.Filename == g.failOn {
		return "", errors.New("upload refused")
	}
	g.puts = append(g.puts, blob.Filename)
	return "https://blobs.test/" + blob.Filename, nil
}

func (g *mockGateway) Delete(_ context.Context, locator string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.log.add("blob.Delete")
	if g.delErr != nil {
		return g.delErr
	}
	g.deletes = append(g.deletes, locator)
	return nil
}

func (g *mockGateway) counts() (puts, deletes int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.puts), len(g.deletes)
}

// mockOwners is a static OwnerDirectory.
type mockOwners struct {
	owners map[string]Owner
	err    error
	calls  int
}

func (m *mockOwners) Owners(_ context.Context, ids []string) (map[string]Owner, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]Owner)
	for _, id := range ids {
		if o, ok := m.owners[id]; ok {
			out[id] = o
		}
	}
	return out, nil
}

// recordingHandler collects events.
type recordingHandler struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (h *recordingHandler) HandleDeviceEvent(_ context.Context, ev Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
	return h.err
}

func (h *recordingHandler) types() []EventType {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]EventType, len(h.events))
	for i, ev := range h.events {
		out[i] = ev.Type
	}
	return out
}
