package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/listing"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("record")
	ErrUnknownResource = errors.New("unknown resource")
	ErrKeyExists       = errors.New("a record with this key already exists")
)

type (
	Repository interface {
		QueryRecords(ctx context.Context, resource string) ([]Record, error)
		GetRecord(ctx context.Context, resource, key string) (Record, error)
		// CreateRecord reports ErrKeyExists on a duplicate key.
		CreateRecord(ctx context.Context, resource, key string, rec Record) (Record, error)
		UpdateRecord(ctx context.Context, resource, key string, rec Record) (Record, error)
		DeleteRecord(ctx context.Context, resource, key string) error
	}

	Service struct {
		repo  Repository
		descs map[string]Descriptor
	}
)

func NewService(repo Repository, descs []Descriptor) *Service {
	m := make(map[string]Descriptor, len(descs))
	for _, d := range descs {
		m[d.Name] = d
	}
	return &Service{repo: repo, descs: m}
}

func (svc *Service) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(svc.descs))
	for _, d := range Builtin { // keep registry order
		if desc, ok := svc.descs[d.Name]; ok {
			out = append(out, desc)
		}
	}
	return out
}

func (svc *Service) descriptor(resource string) (Descriptor, error) {
	d, ok := svc.descs[resource]
	if !ok {
		return Descriptor{}, ErrUnknownResource
	}
	return d, nil
}

func (svc *Service) Query(ctx context.Context, resource string) ([]Record, error) {
	if _, err := svc.descriptor(resource); err != nil {
		return nil, err
	}
	return svc.repo.QueryRecords(ctx, resource)
}

// ListView runs the table pipeline over the resource's rows.
func (svc *Service) ListView(ctx context.Context, resource string, state listing.ViewState) (listing.Result, error) {
	d, err := svc.descriptor(resource)
	if err != nil {
		return listing.Result{}, err
	}
	rows, err := svc.repo.QueryRecords(ctx, resource)
	if err != nil {
		return listing.Result{}, err
	}
	return listing.Apply(rows, d.Columns(), state), nil
}

func (svc *Service) Get(ctx context.Context, resource, key string) (Record, error) {
	if _, err := svc.descriptor(resource); err != nil {
		return nil, err
	}
	return svc.repo.GetRecord(ctx, resource, key)
}

func (svc *Service) Create(ctx context.Context, resource string, rec Record) (Record, error) {
	d, err := svc.descriptor(resource)
	if err != nil {
		return nil, err
	}
	if err := d.validate(rec, true /* forCreate */); err != nil {
		return nil, err
	}

	var key string
	if d.NaturalKey {
		key = keyString(rec[d.KeyField])
		if key == "" {
			return nil, core.NewValidationError(nil, core.FieldError{Field: d.KeyField, Error: "this field is required"})
		}
	} else {
		key = uuid.NewString()
	}

	// never trust a client copy of the record identity
	out := cloneRecord(rec)
	out[d.KeyField] = key
	out["created_at"] = time.Now().UTC().Format(time.RFC3339)

	created, err := svc.repo.CreateRecord(ctx, resource, key, out)
	if err == ErrKeyExists {
		return nil, core.NewConflictError(fmt.Errorf("a %s record with this %s already exists", resource, d.KeyField), d.KeyField)
	}
	return created, err
}

func (svc *Service) Update(ctx context.Context, resource, key string, rec Record) (Record, error) {
	d, err := svc.descriptor(resource)
	if err != nil {
		return nil, err
	}
	if err := d.validate(rec, false); err != nil {
		return nil, err
	}
	if v, ok := rec[d.KeyField]; ok && keyString(v) != key {
		return nil, core.NewValidationError(nil, core.FieldError{Field: d.KeyField, Error: "record key cannot be changed"})
	}

	orig, err := svc.repo.GetRecord(ctx, resource, key)
	if err != nil {
		return nil, err
	}

	merged := cloneRecord(orig)
	for k, v := range rec {
		merged[k] = v
	}
	merged[d.KeyField] = key
	merged["updated_at"] = time.Now().UTC().Format(time.RFC3339)

	return svc.repo.UpdateRecord(ctx, resource, key, merged)
}

func (svc *Service) Delete(ctx context.Context, resource, key string) error {
	if _, err := svc.descriptor(resource); err != nil {
		return err
	}
	if _, err := svc.repo.GetRecord(ctx, resource, key); err != nil {
		return err
	}
	return svc.repo.DeleteRecord(ctx, resource, key)
}

func cloneRecord(rec Record) Record {
	out := make(Record, len(rec)+2)
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func keyString(v interface{}) string {
	s, _ := v.(string)
	return s
}
