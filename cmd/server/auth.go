package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nickyhof/PlaygroundDB/core"
)

var hmacMethods = []string{
	jwt.SigningMethodHS256.Alg(),
	jwt.SigningMethodHS384.Alg(),
	jwt.SigningMethodHS512.Alg(),
}

// AuthConfig turns on JWT login. Tokens are HMAC-signed with JWTSecret;
// Issuer and Audience are only checked when set.
type AuthConfig struct {
	Enabled   bool
	JWTSecret string
	Issuer    string
	Audience  string

	// Claims holding the committer, "name" and "email" when empty.
	NameClaim  string
	EmailClaim string
}

func (config *AuthConfig) parserOptions() []jwt.ParserOption {
	options := []jwt.ParserOption{jwt.WithValidMethods(hmacMethods)}
	if config.Issuer != "" {
		options = append(options, jwt.WithIssuer(config.Issuer))
	}
	if config.Audience != "" {
		options = append(options, jwt.WithAudience(config.Audience))
	}
	return options
}

func claimOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

// verify checks a token and returns the identity it carries and its expiry,
// zero when the token has no exp claim.
func (config *AuthConfig) verify(token string) (core.Identity, time.Time, error) {
	if config.JWTSecret == "" {
		return core.Identity{}, time.Time{}, errors.New("no JWT secret configured")
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(config.JWTSecret), nil
	}, config.parserOptions()...)
	if err != nil {
		return core.Identity{}, time.Time{}, fmt.Errorf("invalid token: %w", err)
	}

	nameClaim := claimOr(config.NameClaim, "name")
	emailClaim := claimOr(config.EmailClaim, "email")
	identity := core.Identity{}
	identity.Name, _ = claims[nameClaim].(string)
	identity.Email, _ = claims[emailClaim].(string)
	if identity.Name == "" && identity.Email == "" {
		return core.Identity{}, time.Time{}, fmt.Errorf("token missing identity claims (%s or %s)", nameClaim, emailClaim)
	}

	var expiresAt time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}
	return identity, expiresAt, nil
}

// ConnectionState is the login of one connection.
type ConnectionState struct {
	identity  *core.Identity
	expiresAt time.Time
}

// IsAuthenticated reports whether the connection logged in and its token
// has not expired since.
func (cs *ConnectionState) IsAuthenticated() bool {
	if cs.identity == nil {
		return false
	}
	return cs.expiresAt.IsZero() || time.Now().Before(cs.expiresAt)
}

func (cs *ConnectionState) Identity() *core.Identity {
	return cs.identity
}

// parseAuthCommand splits "AUTH <type> <credentials>". Only JWT is accepted.
func parseAuthCommand(line string) (authType, credentials string, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || !strings.EqualFold(fields[0], "AUTH") {
		return "", "", errors.New("not an AUTH command")
	}
	if len(fields) < 3 {
		return "", "", errors.New("invalid AUTH command: expected AUTH <type> <credentials>")
	}

	authType = strings.ToUpper(fields[1])
	if authType != "JWT" {
		return "", "", fmt.Errorf("unsupported auth type: %s", authType)
	}
	return authType, fields[2], nil
}

func authFailure(err error) Response {
	return Response{Success: false, Type: "auth", Error: err.Error()}
}

// handleAuth logs the connection in. A failed attempt leaves an earlier
// login in place.
func (s *Server) handleAuth(line string, state *ConnectionState) Response {
	if s.authConfig == nil {
		return authFailure(errors.New("authentication not configured"))
	}

	_, token, err := parseAuthCommand(line)
	if err != nil {
		return authFailure(err)
	}

	identity, expiresAt, err := s.authConfig.verify(token)
	if err != nil {
		return authFailure(err)
	}
	state.identity = &identity
	state.expiresAt = expiresAt

	reply := AuthResponse{
		Authenticated: true,
		Identity:      fmt.Sprintf("%s <%s>", identity.Name, identity.Email),
	}
	if !expiresAt.IsZero() {
		reply.ExpiresIn = int(time.Until(expiresAt).Seconds())
	}
	data, err := json.Marshal(reply)
	if err != nil {
		return authFailure(err)
	}
	return Response{Success: true, Type: "auth", Result: data}
}
