package service

import (
	"context"
	"maps"
	"mime/multipart"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"eduplatform/internal/core/cache"
	"eduplatform/internal/core/storage"
	"eduplatform/internal/domain"
)

func newTestAdminCache(t *testing.T) *cache.Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	return cache.New(mr.Addr(), "", 0)
}

// memStore 内存版 Store，服务层测试不碰数据库
type memStore struct {
	mu          sync.Mutex
	users       map[string]*domain.User
	students    map[string]*domain.Student
	instructors map[string]*domain.Instructor
	admins      map[string]*domain.Admin

	failProfileCreate error // 注入事务内失败
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[string]*domain.User{},
		students:    map[string]*domain.Student{},
		instructors: map[string]*domain.Instructor{},
		admins:      map[string]*domain.Admin{},
	}
}

func (s *memStore) Users() domain.UserRepository             { return &memUsers{s} }
func (s *memStore) Students() domain.StudentRepository       { return &memStudents{s} }
func (s *memStore) Instructors() domain.InstructorRepository { return &memInstructors{s} }
func (s *memStore) Admins() domain.AdminRepository           { return &memAdmins{s} }

// InTx 先打快照，fn 报错时整体回滚
func (s *memStore) InTx(_ context.Context, fn func(domain.Store) error) error {
	s.mu.Lock()
	users := maps.Clone(s.users)
	students := maps.Clone(s.students)
	instructors := maps.Clone(s.instructors)
	admins := maps.Clone(s.admins)
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.users, s.students, s.instructors, s.admins = users, students, instructors, admins
		s.mu.Unlock()
		return err
	}
	return nil
}

func cloneUser(u *domain.User) *domain.User {
	cp := *u
	if u.RefreshToken != nil {
		v := *u.RefreshToken
		cp.RefreshToken = &v
	}
	if u.ResetTokenHash != nil {
		v := *u.ResetTokenHash
		cp.ResetTokenHash = &v
	}
	return &cp
}

type memUsers struct{ s *memStore }

func (r *memUsers) Create(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.users[u.ID] = cloneUser(u)
	return nil
}

func (r *memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok || u.DeletedAt.Valid {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (r *memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email && !u.DeletedAt.Valid {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r *memUsers) FindByResetTokenHash(_ context.Context, hash string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.ResetTokenHash != nil && *u.ResetTokenHash == hash && !u.DeletedAt.Valid {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r *memUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	u, err := r.FindByEmail(ctx, email)
	return u != nil, err
}

func (r *memUsers) List(_ context.Context, q domain.UserQuery) ([]domain.User, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.User
	for _, u := range r.s.users {
		if u.DeletedAt.Valid {
			continue
		}
		if q.Role != "" && u.Role != q.Role {
			continue
		}
		if q.Search != "" && !strings.Contains(u.Name, q.Search) && !strings.Contains(u.Email, q.Search) {
			continue
		}
		out = append(out, *cloneUser(u))
	}
	return out, int64(len(out)), nil
}

func (r *memUsers) Update(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.users[u.ID] = cloneUser(u)
	return nil
}

func (r *memUsers) ClaimSession(_ context.Context, id, refreshToken string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok || u.DeletedAt.Valid {
		return false, nil
	}
	if u.RefreshToken != nil {
		return false, nil
	}
	u.RefreshToken = &refreshToken
	u.LastLogin = &at
	return true, nil
}

func (r *memUsers) ClearSession(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		u.RefreshToken = nil
	}
	return nil
}

func (r *memUsers) SoftDelete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		u.DeletedAt.Valid = true
		u.DeletedAt.Time = time.Now()
	}
	return nil
}

func (r *memUsers) HardDelete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.users, id)
	return nil
}

type memStudents struct{ s *memStore }

func (r *memStudents) Create(_ context.Context, st *domain.Student) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failProfileCreate != nil {
		return r.s.failProfileCreate
	}
	cp := *st
	r.s.students[st.UserID] = &cp
	return nil
}

func (r *memStudents) FindByID(_ context.Context, id string) (*domain.Student, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, st := range r.s.students {
		if st.ID == id {
			cp := *st
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memStudents) FindByUserID(_ context.Context, userID string) (*domain.Student, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.students[userID]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

func (r *memStudents) List(_ context.Context, q domain.StudentQuery) ([]domain.Student, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Student
	for _, st := range r.s.students {
		if q.Stage != "" && st.Stage != q.Stage {
			continue
		}
		out = append(out, *st)
	}
	return out, int64(len(out)), nil
}

func (r *memStudents) Update(_ context.Context, st *domain.Student) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st.RecomputeProgress()
	cp := *st
	r.s.students[st.UserID] = &cp
	return nil
}

func (r *memStudents) DeleteByUserID(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.students, userID)
	return nil
}

type memInstructors struct{ s *memStore }

func (r *memInstructors) Create(_ context.Context, i *domain.Instructor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failProfileCreate != nil {
		return r.s.failProfileCreate
	}
	cp := *i
	r.s.instructors[i.UserID] = &cp
	return nil
}

func (r *memInstructors) FindByID(_ context.Context, id string) (*domain.Instructor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, i := range r.s.instructors {
		if i.ID == id {
			cp := *i
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memInstructors) FindByUserID(_ context.Context, userID string) (*domain.Instructor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i, ok := r.s.instructors[userID]
	if !ok {
		return nil, nil
	}
	cp := *i
	return &cp, nil
}

func (r *memInstructors) List(_ context.Context, q domain.InstructorQuery) ([]domain.Instructor, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Instructor
	for _, i := range r.s.instructors {
		if q.Subject != "" && !i.Subjects.Contains(string(q.Subject)) {
			continue
		}
		out = append(out, *i)
	}
	return out, int64(len(out)), nil
}

func (r *memInstructors) Update(_ context.Context, i *domain.Instructor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i.Subjects = i.Subjects.Dedup()
	cp := *i
	r.s.instructors[i.UserID] = &cp
	return nil
}

func (r *memInstructors) DeleteByUserID(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.instructors, userID)
	return nil
}

type memAdmins struct{ s *memStore }

func (r *memAdmins) Create(_ context.Context, a *domain.Admin) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failProfileCreate != nil {
		return r.s.failProfileCreate
	}
	cp := *a
	r.s.admins[a.UserID] = &cp
	return nil
}

func (r *memAdmins) FindByID(_ context.Context, id string) (*domain.Admin, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.admins {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memAdmins) FindByUserID(_ context.Context, userID string) (*domain.Admin, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.admins[userID]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *memAdmins) FindByPermission(_ context.Context, p domain.Permission) ([]domain.Admin, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Admin
	for _, a := range r.s.admins {
		if a.Permissions.Contains(string(p)) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memAdmins) Update(_ context.Context, a *domain.Admin) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *a
	r.s.admins[a.UserID] = &cp
	return nil
}

func (r *memAdmins) DeleteByUserID(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.admins, userID)
	return nil
}

// fakeMailer 捕获发出的邮件
type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail error
}

type sentMail struct {
	To      string
	Subject string
	HTML    string
}

func (m *fakeMailer) Send(_ context.Context, to, subject, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, HTML: html})
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *fakeMailer) last() sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

// fakeStorage 记录上传与删除
type fakeStorage struct {
	mu      sync.Mutex
	uploads int
	deleted []string
	nextID  string
	nextURL string
}

func (s *fakeStorage) Upload(_ context.Context, _ *multipart.FileHeader) (storage.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads++
	return storage.Asset{URL: s.nextURL, ID: s.nextID}, nil
}

func (s *fakeStorage) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, id)
	return nil
}
