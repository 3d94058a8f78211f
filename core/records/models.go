package records

import (
	"time"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/listing"
)

// Record is a generic row of one list-backed resource.
type Record = listing.Row

// Descriptor declares the shape of one resource: its key, the fields a
// write must carry, which fields are dates, and which columns feed the
// free-text search.
type Descriptor struct {
	// Name is the resource slug used in URLs and storage ("leaves", ...).
	Name string
	// KeyField holds the record identity ("id", or a natural key such as
	// "date" for holidays).
	KeyField string
	// NaturalKey records carry their key on create; surrogate keys are
	// assigned by the service.
	NaturalKey bool
	Required   []string
	DateFields []string
	Searchable []string
}

func (d Descriptor) Columns() []listing.Column {
	cols := make([]listing.Column, 0, len(d.Searchable))
	for _, f := range d.Searchable {
		cols = append(cols, listing.Column{Field: f, Searchable: true})
	}
	return cols
}

func (d Descriptor) isDateField(field string) bool {
	for _, f := range d.DateFields {
		if f == field {
			return true
		}
	}
	return false
}

// validate checks required fields and date formats on a write payload.
func (d Descriptor) validate(rec Record, forCreate bool) error {
	var flds []core.FieldError
	if forCreate {
		for _, f := range d.Required {
			v, ok := rec[f]
			if !ok || v == nil || v == "" {
				flds = append(flds, core.FieldError{Field: f, Error: "this field is required"})
			}
		}
	}
	for _, f := range d.DateFields {
		v, ok := rec[f]
		if !ok || v == nil || v == "" {
			continue
		}
		s, ok := v.(string)
		if !ok {
			if _, isTime := v.(time.Time); isTime {
				continue
			}
			flds = append(flds, core.FieldError{Field: f, Error: "must be a date in YYYY-MM-DD format"})
			continue
		}
		if _, err := time.Parse("2006-01-02", s); err != nil {
			flds = append(flds, core.FieldError{Field: f, Error: "must be a date in YYYY-MM-DD format"})
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}
