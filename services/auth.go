package services

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/CrowderSoup/taskflow-pro/config"
)

const (
	magicLinkTTL = 15 * time.Minute
	sessionTTL   = 7 * 24 * time.Hour
)

var (
	ErrInvalidMagicToken = errors.New("invalid or expired token")
	ErrInvalidToken      = errors.New("invalid token")
)

// Identity is the principal carried by a session token.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type magicToken struct {
	email   string
	expires time.Time
}

type AuthService struct {
	jwtSecret  []byte
	smtpConfig config.SMTPConfig
	now        func() time.Time
	mail       func(to, link string) error

	mu     sync.Mutex
	tokens map[string]magicToken
}

func NewAuthService(jwtSecret string, smtpConfig config.SMTPConfig) *AuthService {
	s := &AuthService{
		jwtSecret:  []byte(jwtSecret),
		smtpConfig: smtpConfig,
		now:        time.Now,
		tokens:     make(map[string]magicToken),
	}
	s.mail = s.sendMagicLinkEmail
	return s
}

// EmailsLinks reports whether sign-in links go out by email only.
func (s *AuthService) EmailsLinks() bool {
	return s.smtpConfig.Host != ""
}

// GenerateMagicLink creates a one-time token for email. With SMTP configured
// the link is emailed and an empty string is returned; without it the link is
// handed back so local setups can sign in.
func (s *AuthService) GenerateMagicLink(email string, baseURL string) (string, error) {
	token, err := s.generateSecureToken(32)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	now := s.now()
	s.mu.Lock()
	for t, mt := range s.tokens {
		if now.After(mt.expires) {
			delete(s.tokens, t)
		}
	}
	s.tokens[token] = magicToken{email: email, expires: now.Add(magicLinkTTL)}
	s.mu.Unlock()

	magicLink := fmt.Sprintf("%s/api/auth/magic-link?token=%s", baseURL, url.QueryEscape(token))

	if !s.EmailsLinks() {
		return magicLink, nil
	}
	if err := s.mail(email, magicLink); err != nil {
		s.mu.Lock()
		delete(s.tokens, token)
		s.mu.Unlock()
		return "", err
	}
	slog.Debug("magic link emailed", "email", email)
	return "", nil
}

// VerifyMagicLinkToken consumes a one-time token and returns its email.
func (s *AuthService) VerifyMagicLinkToken(token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mt, exists := s.tokens[token]
	if !exists {
		return "", ErrInvalidMagicToken
	}
	delete(s.tokens, token)

	if s.now().After(mt.expires) {
		return "", ErrInvalidMagicToken
	}
	return mt.email, nil
}

// CreateJWT signs a session token for id.
func (s *AuthService) CreateJWT(id Identity) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   id.UserID,
		"email": id.Email,
		"exp":   s.now().Add(sessionTTL).Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// VerifyJWT validates a session token and returns its identity.
func (s *AuthService) VerifyJWT(tokenString string) (Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return Identity{}, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, errors.New("invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if sub == "" {
		return Identity{}, errors.New("sub claim missing")
	}

	return Identity{UserID: sub, Email: email}, nil
}

func (s *AuthService) generateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func (s *AuthService) sendMagicLinkEmail(to, magicLink string) error {
	if s.smtpConfig.Host == "" || s.smtpConfig.Port == "" ||
		s.smtpConfig.Username == "" || s.smtpConfig.Password == "" {
		return errors.New("SMTP not fully configured")
	}

	auth := smtp.PlainAuth("", s.smtpConfig.Username, s.smtpConfig.Password, s.smtpConfig.Host)

	from := s.smtpConfig.From
	if from == "" {
		from = s.smtpConfig.Username
	}

	subject := "Your TaskFlow Pro sign-in link"
	body := fmt.Sprintf("Click the link below to sign in to TaskFlow Pro:\n\n%s\n\nThe link expires in 15 minutes. If you didn't request it, you can safely ignore this email.", magicLink)
	message := fmt.Sprintf("From: %s\nTo: %s\nSubject: %s\n\n%s", from, to, subject, body)

	addr := fmt.Sprintf("%s:%s", s.smtpConfig.Host, s.smtpConfig.Port)
	if err := smtp.SendMail(addr, auth, from, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
