// Package inmemdb provides map-backed repositories for tests and local
// development. Semantics mirror the postgres implementations.
package inmemdb

import (
	"sync"

	"github.com/darasahq/darasa/core/fees"
	"github.com/darasahq/darasa/core/records"
	"github.com/darasahq/darasa/core/student"
)

type (
	DB struct {
		student *studentTable
		payment *paymentTable
		record  *recordTable
	}

	studentTable struct {
		mutex sync.RWMutex
		table map[string]*student.Student
		creds map[string]*student.Credential
	}

	paymentTable struct {
		mutex sync.RWMutex
		table map[string]*fees.Payment
	}

	recordTable struct {
		mutex sync.RWMutex
		// resource -> key -> record
		table map[string]map[string]records.Record
	}
)

func Open() (*DB, error) {
	db := &DB{
		student: &studentTable{
			table: make(map[string]*student.Student),
			creds: make(map[string]*student.Credential),
		},
		payment: &paymentTable{table: make(map[string]*fees.Payment)},
		record:  &recordTable{table: make(map[string]map[string]records.Record)},
	}
	return db, nil
}
