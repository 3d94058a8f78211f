// Package postgresdb implements the repositories over PostgreSQL with sqlx.
package postgresdb

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/student"
)

const uniqueViolation = "23505"

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

const studentColumns = `student_id, roll_number, name, class, section, gender, date_of_birth,
blood_group, address, parent_name, phone_number, student_email, enrollment_date,
total_fee, concession, amount_paid, balance, created_at, updated_at`

func (repo *studentRepository) CheckUniqueness(ctx context.Context, id, rollNumber string, excludedIDs ...string) error {
	query := `SELECT student_id, roll_number FROM student WHERE (student_id = $1 OR roll_number = $2)`
	args := []interface{}{id, rollNumber}
	if len(excludedIDs) > 0 {
		query += ` AND student_id != ALL($3)`
		args = append(args, pq.Array(excludedIDs))
	}

	rows, err := repo.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "checking student uniqueness")
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var gotID, gotRoll string
		if err = rows.Scan(&gotID, &gotRoll); err != nil {
			return errors.Wrap(err, "checking student uniqueness")
		}
		if gotID == id {
			return student.ErrIDExists
		}
		if gotRoll == rollNumber {
			return student.ErrRollExists
		}
	}
	return rows.Err()
}

func (repo *studentRepository) CreateStudent(ctx context.Context, st student.Student, cred student.Credential) (student.Student, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.NamedExecContext(ctx, `
		INSERT INTO student (`+studentColumns+`)
		VALUES (:student_id, :roll_number, :name, :class, :section, :gender, :date_of_birth,
			:blood_group, :address, :parent_name, :phone_number, :student_email, :enrollment_date,
			:total_fee, :concession, :amount_paid, :balance, :created_at, :updated_at)`, st); err != nil {
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "roll_number") {
				return student.Student{}, student.ErrRollExists
			}
			return student.Student{}, student.ErrIDExists
		}
		return student.Student{}, errors.Wrap(err, "inserting student")
	}

	if _, err = tx.NamedExecContext(ctx, `
		INSERT INTO student_credential (student_id, password_hash)
		VALUES (:student_id, :password_hash)`, cred); err != nil {
		return student.Student{}, errors.Wrap(err, "inserting credential")
	}

	if err = tx.Commit(); err != nil {
		return student.Student{}, errors.Wrap(err, "committing tx")
	}
	return st, nil
}

func (repo *studentRepository) QueryAllStudents(ctx context.Context) ([]student.Student, error) {
	students := make([]student.Student, 0)
	err := repo.db.SelectContext(ctx, &students, `SELECT `+studentColumns+` FROM student ORDER BY student_id`)
	return students, errors.Wrap(err, "querying students")
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	var st student.Student
	err := repo.db.GetContext(ctx, &st, `SELECT `+studentColumns+` FROM student WHERE student_id = $1`, id)
	if err == sql.ErrNoRows {
		return student.Student{}, student.ErrNotFound
	}
	return st, errors.Wrap(err, "getting student")
}

func (repo *studentRepository) FilterStudents(ctx context.Context, filter student.QueryFilter) ([]student.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM student WHERE 1=1`
	args := make([]interface{}, 0, 4)
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Class != "" {
		query += ` AND class = ` + arg(filter.Class)
	}
	if filter.Section != "" {
		query += ` AND section = ` + arg(filter.Section)
	}
	if filter.Gender != "" {
		query += ` AND gender = ` + arg(filter.Gender)
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		query += ` AND (name ILIKE ` + p + ` OR student_id ILIKE ` + p + ` OR roll_number ILIKE ` + p + `)`
	}
	query += ` ORDER BY student_id`

	students := make([]student.Student, 0)
	err := repo.db.SelectContext(ctx, &students, query, args...)
	return students, errors.Wrap(err, "filtering students")
}

func (repo *studentRepository) UpdateStudentProfile(ctx context.Context, st student.Student) (student.Student, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE student SET
			roll_number = :roll_number, name = :name, class = :class, section = :section,
			gender = :gender, date_of_birth = :date_of_birth, blood_group = :blood_group,
			address = :address, parent_name = :parent_name, phone_number = :phone_number,
			student_email = :student_email, enrollment_date = :enrollment_date,
			updated_at = :updated_at
		WHERE student_id = :student_id`, st)
	if err != nil {
		if isUniqueViolation(err) {
			return student.Student{}, student.ErrRollExists
		}
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return repo.GetStudentByID(ctx, st.ID)
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM student WHERE student_id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return ok && pqErr.Code == uniqueViolation
}
