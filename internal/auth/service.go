package auth

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrTokenExpired     = errors.New("token has expired")
	ErrInvalidToken     = errors.New("could not validate credentials")
	ErrMissingUserClaim = errors.New("token payload missing 'user'")
)

var (
	reUsername = regexp.MustCompile(`[^\w]`)
	rePassword = regexp.MustCompile(`[^\w@#$%^&+=]`)
)

// Service issues and validates HS256 access tokens and handles password
// hashing.
type Service struct {
	secret      []byte
	tokenExpiry time.Duration
}

func NewService(secret string, tokenExpiry time.Duration) *Service {
	return &Service{
		secret:      []byte(secret),
		tokenExpiry: tokenExpiry,
	}
}

// TokenExpiry reports the configured access token lifetime.
func (s *Service) TokenExpiry() time.Duration {
	return s.tokenExpiry
}

// GenerateToken signs a JWT carrying the username. A zero expiresIn falls
// back to 15 minutes.
func (s *Service) GenerateToken(username string, expiresIn time.Duration) (string, error) {
	if expiresIn <= 0 {
		expiresIn = 15 * time.Minute
	}
	claims := jwt.MapClaims{
		"user": username,
		"exp":  time.Now().UTC().Add(expiresIn).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies signature and expiry and returns the username from
// the "user" claim.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	username, _ := claims["user"].(string)
	if username == "" {
		return "", ErrMissingUserClaim
	}
	return username, nil
}

// HashPassword returns the bcrypt hash as a UTF-8 string.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword checks a plaintext password against a stored bcrypt hash.
func VerifyPassword(password, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}

// SanitizeUsername strips everything outside \w.
func SanitizeUsername(input string) string {
	return reUsername.ReplaceAllString(input, "")
}

// SanitizePassword strips everything outside \w and @#$%^&+=.
func SanitizePassword(input string) string {
	return rePassword.ReplaceAllString(input, "")
}

// SanitizeLoginInput sanitizes a username/password pair.
func SanitizeLoginInput(username, password string) (string, string) {
	return SanitizeUsername(username), SanitizePassword(password)
}
