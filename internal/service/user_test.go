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

func newUserFixture(t *testing.T) (*UserService, *AuthService, *memStore, *fakeMailer, *fakeStorage) {
	t.Helper()
	store := newMemStore()
	mailer := &fakeMailer{}
	emails, err := email.NewService(mailer, "http://front.test", zap.NewNop())
	require.NoError(t, err)
	tokens := &token.Service{
		Secret:     []byte("test-secret"),
		Issuer:     "test",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		VerifyTTL:  24 * time.Hour,
	}
	assets := &fakeStorage{nextID: "avatars/abc", nextURL: "https://cdn.test/abc.png"}
	authSvc := NewAuthService(store, tokens, emails, time.Hour, zap.NewNop())
	userSvc := NewUserService(store, assets, tokens, emails, zap.NewNop())
	return userSvc, authSvc, store, mailer, assets
}

func TestUpdateMeEmailChangeResetsVerification(t *testing.T) {
	users, auth, store, mailer, _ := newUserFixture(t)
	res, err := auth.RegisterStudent(context.Background(), studentInput())
	require.NoError(t, err)

	vt, _ := auth.tokens.IssueEmailVerification(res.User.ID)
	_, err = auth.VerifyEmail(context.Background(), vt)
	require.NoError(t, err)

	next := "new@example.com"
	u, err := users.UpdateMe(context.Background(), res.User.ID, UpdateMeInput{Email: &next})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", u.Email)
	assert.False(t, u.IsEmailVerified)

	// 注册 + 欢迎 + 换邮箱重发 = 3 封
	assert.Equal(t, 3, mailer.count())

	stored, _ := store.Users().FindByID(context.Background(), res.User.ID)
	assert.False(t, stored.IsEmailVerified)
}

func TestUpdateMeSameEmailNoReverify(t *testing.T) {
	users, auth, _, mailer, _ := newUserFixture(t)
	res, err := auth.RegisterStudent(context.Background(), studentInput())
	require.NoError(t, err)
	before := mailer.count()

	same := "ahmed@example.com"
	name := "Ahmed M."
	u, err := users.UpdateMe(context.Background(), res.User.ID, UpdateMeInput{Name: &name, Email: &same})
	require.NoError(t, err)
	assert.Equal(t, "Ahmed M.", u.Name)
	assert.Equal(t, before, mailer.count())
}

func TestUpdateMeEmailTaken(t *testing.T) {
	users, auth, _, _, _ := newUserFixture(t)
	res, err := auth.RegisterStudent(context.Background(), studentInput())
	require.NoError(t, err)

	other := studentInput()
	other.Email = "other@example.com"
	_, err = auth.RegisterStudent(context.Background(), other)
	require.NoError(t, err)

	taken := "other@example.com"
	_, err = users.UpdateMe(context.Background(), res.User.ID, UpdateMeInput{Email: &taken})
	assertCode(t, err, apperr.CodeUserAlreadyExists)
}

func TestSetBannedKicksSession(t *testing.T) {
	users, auth, store, _, _ := newUserFixture(t)
	res, err := auth.RegisterStudent(context.Background(), studentInput())
	require.NoError(t, err)
	oldVersion := res.User.TokenVersion

	u, err := users.SetBanned(context.Background(), res.User.ID, true)
	require.NoError(t, err)
	assert.True(t, u.IsBanned)

	stored, _ := store.Users().FindByID(context.Background(), res.User.ID)
	assert.Nil(t, stored.RefreshToken)
	assert.Equal(t, oldVersion+1, stored.TokenVersion)

	// 解禁不清会话，只翻状态
	u, err = users.SetBanned(context.Background(), res.User.ID, false)
	require.NoError(t, err)
	assert.False(t, u.IsBanned)
}

func TestSoftDeleteHidesUser(t *testing.T) {
	users, auth, store, _, _ := newUserFixture(t)
	res, err := auth.RegisterStudent(context.Background(), studentInput())
	require.NoError(t, err)

	require.NoError(t, users.SoftDelete(context.Background(), res.User.ID))

	u, _ := store.Users().FindByID(context.Background(), res.User.ID)
	assert.Nil(t, u)

	_, err = users.Get(context.Background(), res.User.ID)
	assertCode(t, err, apperr.CodeUserNotFound)
}

func TestHardDeleteCascades(t *testing.T) {
	users, auth, store, _, assets := newUserFixture(t)
	res, err := auth.RegisterStudent(context.Background(), studentInput())
	require.NoError(t, err)

	// 给用户挂一个头像资产
	u, _ := store.Users().FindByID(context.Background(), res.User.ID)
	u.AvatarID = "avatars/old"
	u.AvatarURL = "https://cdn.test/old.png"
	require.NoError(t, store.Users().Update(context.Background(), u))

	require.NoError(t, users.HardDelete(context.Background(), res.User.ID))

	gone, _ := store.Users().FindByID(context.Background(), res.User.ID)
	assert.Nil(t, gone)
	st, _ := store.Students().FindByUserID(context.Background(), res.User.ID)
	assert.Nil(t, st)
	assert.Contains(t, assets.deleted, "avatars/old")
}

func TestListFiltersByRole(t *testing.T) {
	users, auth, _, _, _ := newUserFixture(t)
	_, err := auth.RegisterStudent(context.Background(), studentInput())
	require.NoError(t, err)
	_, err = auth.RegisterInstructor(context.Background(), RegisterInstructorInput{
		Name: "Mona", Email: "mona@example.com", Password: "secret-pass",
		Subjects: []string{"math"},
	})
	require.NoError(t, err)

	list, total, err := users.List(context.Background(), domain.UserQuery{Role: domain.RoleInstructor})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "mona@example.com", list[0].Email)
}
