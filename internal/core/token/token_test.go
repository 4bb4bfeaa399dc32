package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService() *Service {
	return &Service{
		Secret:     []byte("test-secret"),
		Issuer:     "eduplatform-test",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		VerifyTTL:  24 * time.Hour,
	}
}

func TestAccessRoundtrip(t *testing.T) {
	s := testService()
	tok, err := s.IssueAccess(AccessInput{
		UserID:          "u1",
		Email:           "a@b.c",
		Role:            "student",
		IsEmailVerified: true,
		TokenVersion:    3,
	})
	require.NoError(t, err)

	c, err := s.ParseAccess(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UserID)
	assert.Equal(t, "a@b.c", c.Email)
	assert.Equal(t, "student", c.Role)
	assert.True(t, c.IsEmailVerified)
	assert.False(t, c.IsBanned)
	assert.Equal(t, 3, c.TokenVersion)
}

func TestRefreshRoundtrip(t *testing.T) {
	s := testService()
	tok, err := s.IssueRefresh("u2", 1)
	require.NoError(t, err)

	c, err := s.ParseRefresh(tok)
	require.NoError(t, err)
	assert.Equal(t, "u2", c.UserID)
	assert.Equal(t, 1, c.TokenVersion)
}

func TestExpiredMapsToErrExpired(t *testing.T) {
	s := testService()
	// leeway 为 60s，需要过期得足够久
	s.AccessTTL = -2 * time.Minute
	tok, err := s.IssueAccess(AccessInput{UserID: "u1"})
	require.NoError(t, err)

	_, err = s.ParseAccess(tok)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestTamperedMapsToErrInvalid(t *testing.T) {
	s := testService()
	tok, err := s.IssueRefresh("u1", 0)
	require.NoError(t, err)

	_, err = s.ParseRefresh(tok + "x")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestWrongSecretMapsToErrInvalid(t *testing.T) {
	s := testService()
	tok, err := s.IssueRefresh("u1", 0)
	require.NoError(t, err)

	other := testService()
	other.Secret = []byte("another-secret")
	_, err = other.ParseRefresh(tok)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestWrongIssuerMapsToErrInvalid(t *testing.T) {
	s := testService()
	tok, err := s.IssueRefresh("u1", 0)
	require.NoError(t, err)

	other := testService()
	other.Issuer = "someone-else"
	_, err = other.ParseRefresh(tok)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestEmailVerificationTypeDiscriminator(t *testing.T) {
	s := testService()

	vt, err := s.IssueEmailVerification("u1")
	require.NoError(t, err)
	c, err := s.ParseEmailVerification(vt)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UserID)

	// 签名合法但不是 email-verification 载荷，不能当验证令牌用
	rt, err := s.IssueRefresh("u1", 0)
	require.NoError(t, err)
	_, err = s.ParseEmailVerification(rt)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestAccessTokenNotAcceptedAcrossKinds(t *testing.T) {
	s := testService()
	at, err := s.IssueAccess(AccessInput{UserID: "u1"})
	require.NoError(t, err)

	// 访问令牌缺 type 字段，按验证令牌解析必须失败
	_, err = s.ParseEmailVerification(at)
	assert.ErrorIs(t, err, ErrInvalid)
}
