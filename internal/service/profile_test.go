package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"eduplatform/internal/core/apperr"
	"eduplatform/internal/core/email"
	"eduplatform/internal/core/token"
	"eduplatform/internal/domain"
)

func registerOneStudent(t *testing.T, store *memStore) *domain.User {
	t.Helper()
	mailer := &fakeMailer{}
	emails, err := email.NewService(mailer, "http://front.test", zap.NewNop())
	require.NoError(t, err)
	tokens := &token.Service{Secret: []byte("s"), Issuer: "t", AccessTTL: time.Minute, RefreshTTL: time.Hour, VerifyTTL: time.Hour}
	auth := NewAuthService(store, tokens, emails, time.Hour, zap.NewNop())
	res, err := auth.RegisterStudent(context.Background(), studentInput())
	require.NoError(t, err)
	return res.User
}

func TestStudentUpdateMyProfile(t *testing.T) {
	store := newMemStore()
	u := registerOneStudent(t, store)
	svc := NewStudentService(store)

	stage := "primary"
	phone := " 0100000000 "
	st, err := svc.UpdateMyProfile(context.Background(), u.ID, UpdateStudentInput{Stage: &stage, ParentPhone: &phone})
	require.NoError(t, err)
	assert.Equal(t, domain.StagePrimary, st.Stage)
	assert.Equal(t, "0100000000", st.ParentPhone)

	bad := "nursery"
	_, err = svc.UpdateMyProfile(context.Background(), u.ID, UpdateStudentInput{Stage: &bad})
	assertCode(t, err, apperr.CodeValidationError)
}

func TestStudentProfileMissing(t *testing.T) {
	svc := NewStudentService(newMemStore())
	_, err := svc.MyProfile(context.Background(), "nobody")
	assertCode(t, err, apperr.CodeUserNotFound)
}

func TestInstructorUpdateSubjectsValidated(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.Instructors().Create(context.Background(), &domain.Instructor{
		ID: "i1", UserID: "u1", Subjects: domain.StringList{"math"},
	}))
	svc := NewInstructorService(store)

	ins, err := svc.UpdateMyProfile(context.Background(), "u1", UpdateInstructorInput{
		Subjects: []string{"math", "physics", "math"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StringList{"math", "physics"}, ins.Subjects)

	_, err = svc.UpdateMyProfile(context.Background(), "u1", UpdateInstructorInput{
		Subjects: []string{"astrology"},
	})
	assertCode(t, err, apperr.CodeValidationError)
}

func TestAdminUpdatePermissionsValidated(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.Admins().Create(context.Background(), &domain.Admin{
		ID: "a1", UserID: "u1", Permissions: domain.StringList{"manage_users"},
	}))

	mrCache := newTestAdminCache(t)
	svc := NewAdminService(store, mrCache, zap.NewNop())

	a, err := svc.UpdatePermissions(context.Background(), "u1", []string{"view_reports", "it_support"})
	require.NoError(t, err)
	assert.Equal(t, domain.StringList{"view_reports", "it_support"}, a.Permissions)

	_, err = svc.UpdatePermissions(context.Background(), "u1", []string{"rule_the_world"})
	assertCode(t, err, apperr.CodeValidationError)

	_, err = svc.UpdatePermissions(context.Background(), "ghost", []string{"view_reports"})
	assertCode(t, err, apperr.CodeUserNotFound)
}

func TestAdminListByPermission(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.Admins().Create(context.Background(), &domain.Admin{
		ID: "a1", UserID: "u1", Permissions: domain.StringList{"manage_users"},
	}))
	require.NoError(t, store.Admins().Create(context.Background(), &domain.Admin{
		ID: "a2", UserID: "u2", Permissions: domain.StringList{"view_reports"},
	}))

	svc := NewAdminService(store, newTestAdminCache(t), zap.NewNop())
	admins, err := svc.ListByPermission(context.Background(), domain.PermManageUsers)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "u1", admins[0].UserID)
}
