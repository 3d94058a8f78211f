package inmemdb

import (
	"context"
	"sort"

	"github.com/darasahq/darasa/core/records"
)

type recordRepository struct {
	db *recordTable
}

var _ records.Repository = (*recordRepository)(nil) // interface compliance check

func NewRecordRepository(db *DB) records.Repository {
	return &recordRepository{db: db.record}
}

func clone(rec records.Record) records.Record {
	out := make(records.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func (repo *recordRepository) QueryRecords(ctx context.Context, resource string) ([]records.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	table := repo.db.table[resource]
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	recs := make([]records.Record, 0, len(keys))
	for _, k := range keys {
		recs = append(recs, clone(table[k]))
	}
	return recs, nil
}

func (repo *recordRepository) GetRecord(ctx context.Context, resource, key string) (records.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if rec, ok := repo.db.table[resource][key]; ok {
		return clone(rec), nil
	}
	return nil, records.ErrNotFound
}

func (repo *recordRepository) CreateRecord(ctx context.Context, resource, key string, rec records.Record) (records.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	table, ok := repo.db.table[resource]
	if !ok {
		table = make(map[string]records.Record)
		repo.db.table[resource] = table
	}
	if _, exists := table[key]; exists {
		return nil, records.ErrKeyExists
	}
	table[key] = clone(rec)
	return clone(rec), nil
}

func (repo *recordRepository) UpdateRecord(ctx context.Context, resource, key string, rec records.Record) (records.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[resource][key]; !ok {
		return nil, records.ErrNotFound
	}
	repo.db.table[resource][key] = clone(rec)
	return clone(rec), nil
}

func (repo *recordRepository) DeleteRecord(ctx context.Context, resource, key string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[resource][key]; !ok {
		return records.ErrNotFound
	}
	delete(repo.db.table[resource], key)
	return nil
}
