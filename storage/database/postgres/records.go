package postgresdb

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/records"
)

type recordRepository struct {
	db *sqlx.DB
}

var _ records.Repository = (*recordRepository)(nil) // interface compliance check

func NewRecordRepository(db *sqlx.DB) records.Repository {
	return &recordRepository{db: db}
}

func (repo *recordRepository) QueryRecords(ctx context.Context, resource string) ([]records.Record, error) {
	rows, err := repo.db.QueryxContext(ctx,
		`SELECT payload FROM record WHERE resource = $1 ORDER BY key`, resource)
	if err != nil {
		return nil, errors.Wrap(err, "querying records")
	}
	defer func() { _ = rows.Close() }()

	recs := make([]records.Record, 0)
	for rows.Next() {
		var payload []byte
		if err = rows.Scan(&payload); err != nil {
			return nil, errors.Wrap(err, "scanning record")
		}
		var rec records.Record
		if err = json.Unmarshal(payload, &rec); err != nil {
			return nil, errors.Wrap(err, "decoding record payload")
		}
		recs = append(recs, rec)
	}
	return recs, errors.Wrap(rows.Err(), "querying records")
}

func (repo *recordRepository) GetRecord(ctx context.Context, resource, key string) (records.Record, error) {
	var payload []byte
	err := repo.db.GetContext(ctx, &payload,
		`SELECT payload FROM record WHERE resource = $1 AND key = $2`, resource, key)
	if err == sql.ErrNoRows {
		return nil, records.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "getting record")
	}

	var rec records.Record
	if err = json.Unmarshal(payload, &rec); err != nil {
		return nil, errors.Wrap(err, "decoding record payload")
	}
	return rec, nil
}

func (repo *recordRepository) CreateRecord(ctx context.Context, resource, key string, rec records.Record) (records.Record, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, errors.Wrap(err, "encoding record payload")
	}

	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO record (resource, key, payload) VALUES ($1, $2, $3)`, resource, key, payload)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, records.ErrKeyExists
		}
		return nil, errors.Wrap(err, "inserting record")
	}
	return rec, nil
}

func (repo *recordRepository) UpdateRecord(ctx context.Context, resource, key string, rec records.Record) (records.Record, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, errors.Wrap(err, "encoding record payload")
	}

	res, err := repo.db.ExecContext(ctx,
		`UPDATE record SET payload = $3, updated_at = now() WHERE resource = $1 AND key = $2`,
		resource, key, payload)
	if err != nil {
		return nil, errors.Wrap(err, "updating record")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, records.ErrNotFound
	}
	return rec, nil
}

func (repo *recordRepository) DeleteRecord(ctx context.Context, resource, key string) error {
	res, err := repo.db.ExecContext(ctx,
		`DELETE FROM record WHERE resource = $1 AND key = $2`, resource, key)
	if err != nil {
		return errors.Wrap(err, "deleting record")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return records.ErrNotFound
	}
	return nil
}
