package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// 校验失败只归并为两类终态，不做静默回退
var (
	ErrInvalid = errors.New("token invalid")
	ErrExpired = errors.New("token expired")
)

const emailVerificationType = "email-verification"

// AccessClaims 访问令牌载荷。TokenVersion 与用户当前版本不一致即失效。
type AccessClaims struct {
	UserID          string `json:"uid"`
	Email           string `json:"email"`
	Role            string `json:"role"`
	IsEmailVerified bool   `json:"isEmailVerified"`
	IsBanned        bool   `json:"isBanned"`
	TokenVersion    int    `json:"tokenVersion"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	UserID       string `json:"uid"`
	TokenVersion int    `json:"tokenVersion"`
	jwt.RegisteredClaims
}

// EmailVerificationClaims Type 判别符在校验时强检查，
// 签名合法但类型不符一律按 ErrInvalid 处理。
type EmailVerificationClaims struct {
	UserID string `json:"uid"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

type Service struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	VerifyTTL  time.Duration
}

func (s *Service) registered(ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Issuer:    s.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

type AccessInput struct {
	UserID          string
	Email           string
	Role            string
	IsEmailVerified bool
	IsBanned        bool
	TokenVersion    int
}

func (s *Service) IssueAccess(in AccessInput) (string, error) {
	claims := AccessClaims{
		UserID:          in.UserID,
		Email:           in.Email,
		Role:            in.Role,
		IsEmailVerified: in.IsEmailVerified,
		IsBanned:        in.IsBanned,
		TokenVersion:    in.TokenVersion,

		RegisteredClaims: s.registered(s.AccessTTL),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
}

func (s *Service) IssueRefresh(userID string, tokenVersion int) (string, error) {
	claims := RefreshClaims{
		UserID:           userID,
		TokenVersion:     tokenVersion,
		RegisteredClaims: s.registered(s.RefreshTTL),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
}

func (s *Service) IssueEmailVerification(userID string) (string, error) {
	claims := EmailVerificationClaims{
		UserID:           userID,
		Type:             emailVerificationType,
		RegisteredClaims: s.registered(s.VerifyTTL),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
}

func (s *Service) parse(tokenStr string, claims jwt.Claims) error {
	t, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected alg")
		}
		return s.Secret, nil
	}, jwt.WithIssuer(s.Issuer), jwt.WithLeeway(60*time.Second))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpired
		}
		return ErrInvalid
	}
	if !t.Valid {
		return ErrInvalid
	}
	return nil
}

func (s *Service) ParseAccess(tokenStr string) (*AccessClaims, error) {
	var c AccessClaims
	if err := s.parse(tokenStr, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) ParseRefresh(tokenStr string) (*RefreshClaims, error) {
	var c RefreshClaims
	if err := s.parse(tokenStr, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) ParseEmailVerification(tokenStr string) (*EmailVerificationClaims, error) {
	var c EmailVerificationClaims
	if err := s.parse(tokenStr, &c); err != nil {
		return nil, err
	}
	if c.Type != emailVerificationType {
		return nil, ErrInvalid
	}
	return &c, nil
}
