package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MathijsBok/ticket-system-sub002/internal/domain"
)

// TokenManager verifies identity claims minted by the external identity
// provider and issues feedback submission tokens. Both use the shared
// HMAC secret.
type TokenManager struct {
	secret      []byte
	feedbackTTL time.Duration
}

// NewTokenManager constructs a manager.
func NewTokenManager(secret string, feedbackTTLDays int) *TokenManager {
	ttl := time.Duration(feedbackTTLDays) * 24 * time.Hour
	if feedbackTTLDays <= 0 {
		ttl = 14 * 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), feedbackTTL: ttl}
}

// IdentityClaims are the role claims supplied with every human-triggered
// call. The engine trusts them and does not re-authenticate.
type IdentityClaims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// ParseIdentity validates a bearer token and extracts the actor.
func (m *TokenManager) ParseIdentity(token string) (*domain.Actor, error) {
	var claims IdentityClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, m.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, errors.New("invalid identity token")
	}
	switch claims.Role {
	case domain.RoleUser, domain.RoleAgent, domain.RoleAdmin:
	default:
		return nil, fmt.Errorf("unknown role %q", claims.Role)
	}
	return &domain.Actor{ID: claims.Subject, Role: claims.Role}, nil
}

// feedbackClaims carry the ticket id and the one-time secret whose hash
// is stored with the feedback request.
type feedbackClaims struct {
	TicketID string `json:"ticket_id"`
	Secret   string `json:"secret"`
	jwt.RegisteredClaims
}

// IssueFeedbackToken signs a feedback submission token for a ticket.
func (m *TokenManager) IssueFeedbackToken(ticketID, secret string) (string, error) {
	now := time.Now()
	claims := feedbackClaims{
		TicketID: ticketID,
		Secret:   secret,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ticketID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.feedbackTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// ParseFeedbackToken validates a feedback token and returns the ticket id
// and secret it carries.
func (m *TokenManager) ParseFeedbackToken(token string) (ticketID, secret string, err error) {
	var claims feedbackClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, m.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil {
		return "", "", err
	}
	if !parsed.Valid || claims.TicketID == "" || claims.Secret == "" {
		return "", "", errors.New("invalid feedback token")
	}
	return claims.TicketID, claims.Secret, nil
}

func (m *TokenManager) keyFunc(token *jwt.Token) (any, error) {
	return m.secret, nil
}
