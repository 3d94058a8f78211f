package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/darasahq/darasa/core/student"
)

type studentRepository struct {
	db  *studentTable
	pmt *paymentTable // payments cascade on profile deletion
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.student, pmt: db.payment}
}

func (repo *studentRepository) query() []student.Student {
	students := make([]student.Student, 0, len(repo.db.table))
	for _, st := range repo.db.table {
		students = append(students, *st)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students
}

func (repo *studentRepository) CheckUniqueness(ctx context.Context, id, rollNumber string, excludedIDs ...string) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, st := range repo.query() {
		if isExcluded(st.ID, excludedIDs) {
			continue
		}
		if id != "" && st.ID == id {
			return student.ErrIDExists
		}
		if rollNumber != "" && st.RollNumber == rollNumber {
			return student.ErrRollExists
		}
	}
	return nil
}

func (repo *studentRepository) CreateStudent(ctx context.Context, st student.Student, cred student.Credential) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.table[st.ID] = &st
	repo.db.creds[st.ID] = &cred
	return st, nil
}

func (repo *studentRepository) QueryAllStudents(ctx context.Context) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if st, ok := repo.db.table[id]; ok {
		return *st, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) FilterStudents(ctx context.Context, filter student.QueryFilter) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	matches := make([]student.Student, 0)
	search := strings.ToLower(filter.Search)
	for _, st := range repo.query() {
		if filter.Class != "" && st.Class != filter.Class {
			continue
		}
		if filter.Section != "" && st.Section != filter.Section {
			continue
		}
		if filter.Gender != "" && st.Gender != filter.Gender {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(st.Name), search) &&
			!strings.Contains(strings.ToLower(st.ID), search) &&
			!strings.Contains(strings.ToLower(st.RollNumber), search) {
			continue
		}
		matches = append(matches, st)
	}
	return matches, nil
}

func (repo *studentRepository) UpdateStudentProfile(ctx context.Context, st student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[st.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	// fee account fields stay as stored
	st.TotalFee = orig.TotalFee
	st.Concession = orig.Concession
	st.AmountPaid = orig.AmountPaid
	st.Balance = orig.Balance
	st.CreatedAt = orig.CreatedAt

	repo.db.table[st.ID] = &st
	return st, nil
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return student.ErrNotFound
	}
	delete(repo.db.table, id)
	delete(repo.db.creds, id)

	repo.pmt.mutex.Lock()
	defer repo.pmt.mutex.Unlock()
	for pid, pmt := range repo.pmt.table {
		if pmt.StudentID == id {
			delete(repo.pmt.table, pid)
		}
	}
	return nil
}

func isExcluded(id string, excludedIDs []string) bool {
	for _, ex := range excludedIDs {
		if ex == id {
			return true
		}
	}
	return false
}
