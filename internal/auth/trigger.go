// Package auth guards the reminder sweep trigger.
//
// A caller proves it may run a sweep with the shared cron secret, sent as a
// Bearer token, or with a short-lived HS256 JWT signed with that secret.
// The worker mints a JWT for every remote trigger.
//
// When no secret is configured the trigger is open.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// TriggerAudience is the audience claim on trigger tokens.
	TriggerAudience = "familieapp-reminders"

	// TriggerIssuer is the issuer claim on minted trigger tokens.
	TriggerIssuer = "familieapp-worker"

	// TriggerTokenExpiry is how long minted trigger tokens are valid.
	TriggerTokenExpiry = 5 * time.Minute
)

// ErrUnauthorized is returned when a trigger credential is missing or invalid.
var ErrUnauthorized = errors.New("unauthorized")

// TriggerClaims are the claims carried by trigger tokens.
type TriggerClaims struct {
	jwt.RegisteredClaims

	// Job names the job the token was minted for.
	Job string `json:"job,omitempty"`
}

// TriggerAuthenticator validates and mints trigger credentials.
type TriggerAuthenticator struct {
	secret []byte
	now    func() time.Time
}

// NewTriggerAuthenticator creates an authenticator for secret. An empty
// secret disables authentication.
func NewTriggerAuthenticator(secret string) *TriggerAuthenticator {
	return &TriggerAuthenticator{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Enabled reports whether a secret is configured.
func (a *TriggerAuthenticator) Enabled() bool {
	return len(a.secret) > 0
}

// Authorize checks the value of an Authorization header.
func (a *TriggerAuthenticator) Authorize(header string) error {
	if !a.Enabled() {
		return nil
	}

	token, ok := bearerToken(header)
	if !ok {
		return fmt.Errorf("%w: missing bearer token", ErrUnauthorized)
	}

	if subtle.ConstantTimeCompare([]byte(token), a.secret) == 1 {
		return nil
	}

	if _, err := a.validate(token); err != nil {
		return err
	}
	return nil
}

// Mint issues a trigger token for job.
func (a *TriggerAuthenticator) Mint(job string) (string, time.Time, error) {
	if !a.Enabled() {
		return "", time.Time{}, errors.New("trigger secret is not configured")
	}

	now := a.now()
	expiresAt := now.Add(TriggerTokenExpiry)

	claims := TriggerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TriggerIssuer,
			Audience:  jwt.ClaimStrings{TriggerAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			ID:        generateTokenID(),
		},
		Job: job,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing trigger token: %w", err)
	}
	return signed, expiresAt, nil
}

func (a *TriggerAuthenticator) validate(tokenString string) (*TriggerClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TriggerClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithAudience(TriggerAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, err.Error())
	}

	claims, ok := token.Claims.(*TriggerClaims)
	if !ok || !token.Valid {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func generateTokenID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
