package sensortwin

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gocloud.dev/docstore"
	"gocloud.dev/docstore/memdocstore"
	"gocloud.dev/gcerrors"
)

// KeyField is the name of the key field of every collection of a Store.
const KeyField = "id"

// maxUpdateAttempts bounds the read-modify-write cycles of UpdateTwin.
const maxUpdateAttempts = 8

// Store persists devices, digital twins and device templates in three document
// collections. Documents are keyed by their "id" field.
//
// The Store holds no state of its own; it is safe for concurrent use to the
// extent the underlying collections are.
type Store struct {
	devices   *docstore.Collection
	twins     *docstore.Collection
	templates *docstore.Collection
}

// StoreURLs locates the collections of a Store. Each URL is opened with
// docstore.OpenCollection, so the scheme selects the driver, e.g.
// "mem://devices/id". The driver package must be linked into the binary.
type StoreURLs struct {
	Devices   string
	Twins     string
	Templates string
}

// OpenStore opens the collections located by urls.
func OpenStore(ctx context.Context, urls StoreURLs) (*Store, error) {
	var (
		s   Store
		err error
	)
	open := []struct {
		name string
		url  string
		coll **docstore.Collection
	}{
		{"devices", urls.Devices, &s.devices},
		{"digital twins", urls.Twins, &s.twins},
		{"device templates", urls.Templates, &s.templates},
	}
	for _, o := range open {
		*o.coll, err = docstore.OpenCollection(ctx, o.url)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("open %s collection: %w", o.name, err)
		}
	}
	return &s, nil
}

// NewMemStore returns a Store backed by in-memory collections.
func NewMemStore() (*Store, error) {
	var (
		s   Store
		err error
	)
	for _, coll := range []**docstore.Collection{&s.devices, &s.twins, &s.templates} {
		if *coll, err = memdocstore.OpenCollection(KeyField, nil); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("open in-memory collection: %w", err)
		}
	}
	return &s, nil
}

// Close closes the underlying collections.
func (s *Store) Close() error {
	var errs []error
	for _, coll := range []*docstore.Collection{s.devices, s.twins, s.templates} {
		if coll != nil {
			errs = append(errs, coll.Close())
		}
	}
	return errors.Join(errs...)
}

// notFound translates a missing-document error of the store into sentinel.
func notFound(err, sentinel error) error {
	if gcerrors.Code(err) == gcerrors.NotFound {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return err
}

// ---- devices ----

// CreateDevice stores a new device. It fails if a device with the same ID
// exists.
func (s *Store) CreateDevice(ctx context.Context, d Device) error {
	if err := s.devices.Create(ctx, newDeviceDoc(d)); err != nil {
		return fmt.Errorf("create device %q: %w", d.ID, err)
	}
	return nil
}

// Device returns the device with the given ID.
func (s *Store) Device(ctx context.Context, id string) (Device, error) {
	doc := deviceDoc{ID: id}
	if err := s.devices.Get(ctx, &doc); err != nil {
		return Device{}, fmt.Errorf("get device %q: %w", id, notFound(err, ErrDeviceNotFound))
	}
	return doc.device(), nil
}

// ReplaceDevice replaces a stored device.
func (s *Store) ReplaceDevice(ctx context.Context, d Device) error {
	if err := s.devices.Replace(ctx, newDeviceDoc(d)); err != nil {
		return fmt.Errorf("replace device %q: %w", d.ID, notFound(err, ErrDeviceNotFound))
	}
	return nil
}

// LinkTwin records the digital twin of a stored device.
func (s *Store) LinkTwin(ctx context.Context, deviceID, twinID string) error {
	err := s.devices.Update(ctx, &deviceDoc{ID: deviceID}, docstore.Mods{"digital_twin_id": twinID})
	if err != nil {
		return fmt.Errorf("link device %q: %w", deviceID, notFound(err, ErrDeviceNotFound))
	}
	return nil
}

// DeleteDevice deletes a stored device. Deleting a missing device is not an
// error.
func (s *Store) DeleteDevice(ctx context.Context, id string) error {
	if err := s.devices.Delete(ctx, &deviceDoc{ID: id}); err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return fmt.Errorf("delete device %q: %w", id, err)
	}
	return nil
}

// Devices returns the devices of the given owner, or every device if owner is
// empty.
func (s *Store) Devices(ctx context.Context, owner string) ([]Device, error) {
	docs, err := list[deviceDoc](ctx, s.devices, owner)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	devices := make([]Device, len(docs))
	for i := range docs {
		devices[i] = docs[i].device()
	}
	return devices, nil
}

// ---- digital twins ----

// CreateTwin stores a new digital twin. It fails if a twin with the same ID
// exists.
func (s *Store) CreateTwin(ctx context.Context, t DigitalTwin) error {
	t.DocstoreRevision = nil
	if err := s.twins.Create(ctx, &t); err != nil {
		return fmt.Errorf("create digital twin %q: %w", t.ID, err)
	}
	return nil
}

// Twin returns the digital twin with the given ID.
func (s *Store) Twin(ctx context.Context, id string) (DigitalTwin, error) {
	t := DigitalTwin{ID: id}
	if err := s.twins.Get(ctx, &t); err != nil {
		return DigitalTwin{}, fmt.Errorf("get digital twin %q: %w", id, notFound(err, ErrTwinNotFound))
	}
	return t, nil
}

// UpdateTwin applies modify to the stored digital twin with the given ID and
// stores the result, unless modify returns an error.
//
// The twin is replaced only if nobody changed it since it was read. Otherwise
// UpdateTwin reads it again and retries, so modify may run more than once and
// must not have side effects beyond the twin.
func (s *Store) UpdateTwin(ctx context.Context, id string, modify func(*DigitalTwin) error) (DigitalTwin, error) {
	for range maxUpdateAttempts {
		t, err := s.Twin(ctx, id)
		if err != nil {
			return DigitalTwin{}, err
		}
		if err := modify(&t); err != nil {
			return DigitalTwin{}, err
		}
		err = s.twins.Replace(ctx, &t)
		switch gcerrors.Code(err) {
		case gcerrors.OK:
			return t, nil
		case gcerrors.FailedPrecondition:
			countConflict(ctx)
			continue
		default:
			return DigitalTwin{}, fmt.Errorf("replace digital twin %q: %w", id, notFound(err, ErrTwinNotFound))
		}
	}
	return DigitalTwin{}, fmt.Errorf("update digital twin %q: %w", id, errTooManyConflicts)
}

// DeleteTwin deletes a stored digital twin. Deleting a missing twin is not an
// error.
func (s *Store) DeleteTwin(ctx context.Context, id string) error {
	if err := s.twins.Delete(ctx, &DigitalTwin{ID: id}); err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return fmt.Errorf("delete digital twin %q: %w", id, err)
	}
	return nil
}

// Twins returns the digital twins of the given owner, or every twin if owner is
// empty.
func (s *Store) Twins(ctx context.Context, owner string) ([]DigitalTwin, error) {
	twins, err := list[DigitalTwin](ctx, s.twins, owner)
	if err != nil {
		return nil, fmt.Errorf("list digital twins: %w", err)
	}
	return twins, nil
}

// ---- device templates ----

// CreateTemplate stores a new device template. It fails if the template is
// invalid or a template with the same ID exists.
func (s *Store) CreateTemplate(ctx context.Context, t DeviceTemplate) error {
	if t.Version == "" {
		t.Version = DefaultTemplateVersion
	}
	problems := validationErrors{subject: "device template"}
	problems.addStruct(t)
	if err := problems.err(); err != nil {
		return err
	}
	t.DocstoreRevision = nil
	if err := s.templates.Create(ctx, &t); err != nil {
		return fmt.Errorf("create device template %q: %w", t.ID, err)
	}
	return nil
}

// Template returns the device template with the given ID.
func (s *Store) Template(ctx context.Context, id string) (DeviceTemplate, error) {
	t := DeviceTemplate{ID: id}
	if err := s.templates.Get(ctx, &t); err != nil {
		return DeviceTemplate{}, fmt.Errorf("get device template %q: %w", id, notFound(err, ErrTemplateNotFound))
	}
	return t, nil
}

// DeleteTemplate deletes a stored device template. Deleting a missing template
// is not an error.
func (s *Store) DeleteTemplate(ctx context.Context, id string) error {
	if err := s.templates.Delete(ctx, &DeviceTemplate{ID: id}); err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return fmt.Errorf("delete device template %q: %w", id, err)
	}
	return nil
}

// Templates returns the device templates of the given owner, or every template
// if owner is empty.
func (s *Store) Templates(ctx context.Context, owner string) ([]DeviceTemplate, error) {
	templates, err := list[DeviceTemplate](ctx, s.templates, owner)
	if err != nil {
		return nil, fmt.Errorf("list device templates: %w", err)
	}
	return templates, nil
}

// list returns the documents of coll owned by owner, or all of them if owner is
// empty.
func list[D any](ctx context.Context, coll *docstore.Collection, owner string) ([]D, error) {
	q := coll.Query()
	if owner != "" {
		q = q.Where("owner_id", "=", owner)
	}
	iter := q.Get(ctx)
	defer iter.Stop()

	var docs []D
	for {
		var doc D
		err := iter.Next(ctx, &doc)
		if err == io.EOF {
			return docs, nil
		} else if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
}
