// Package auth authenticates CRUD and event-log callers: JWT session/API
// tokens signed with HMAC-SHA256, and Argon2id password hashing.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/argon2"
)

// Role values recognized by the pipeline's auth collaborator contract.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Token type values distinguish session tokens (24h) from long-lived API
// tokens.
const (
	TokenTypeSession = "session"
	TokenTypeAPI     = "api"
)

// ErrInvalidCredentials covers unknown username, disabled user, or wrong
// password — deliberately undifferentiated to avoid leaking which.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// ErrTokenRevoked is returned when a validated API token's id has been
// revoked.
var ErrTokenRevoked = errors.New("auth: token revoked")

// Claims mirrors the JWT payload: subject, role, and token type.
type Claims struct {
	Username  string `json:"username"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// User is the persisted account record.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         string
	Enabled      bool
	Email        *string
}

// Service issues and validates JWTs and hashes/verifies passwords against
// the users/api_tokens tables.
type Service struct {
	db     *sql.DB
	secret []byte
}

// NewService constructs an auth Service backed by db, signing tokens with
// secret.
func NewService(db *sql.DB, secret string) *Service {
	return &Service{db: db, secret: []byte(secret)}
}

// HashPassword derives an Argon2id hash encoded as
// "$argon2id$v=19$m=...,t=...,p=...$salt$hash".
func HashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("auth: generate salt: %w", err)
	}
	const (
		memory  = 64 * 1024
		time_   = 1
		threads = 4
		keyLen  = 32
	)
	hash := argon2.IDKey([]byte(password), salt, time_, memory, threads, keyLen)
	encoded := fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory, time_, threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash))
	return encoded, nil
}

// VerifyPassword reports whether password matches the Argon2id encoded
// hash, in constant time.
func VerifyPassword(password, encoded string) bool {
	parts := splitHash(encoded)
	if parts == nil {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts.salt)
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts.hash)
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(password), salt, parts.time, parts.memory, parts.threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

type hashParts struct {
	memory, time uint32
	threads      uint8
	salt, hash   string
}

func splitHash(encoded string) *hashParts {
	var p hashParts
	var saltB64, hashB64 string
	n, err := fmt.Sscanf(encoded, "$argon2id$v=19$m=%d,t=%d,p=%d$%[^$]$%s", &p.memory, &p.time, &p.threads, &saltB64, &hashB64)
	if err != nil || n != 5 {
		return nil
	}
	p.salt, p.hash = saltB64, hashB64
	return &p
}

// Authenticate validates username/password against the users table and
// returns a fresh session token on success.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, string, error) {
	var u User
	var email sql.NullString
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, enabled, email FROM users WHERE username = ? AND enabled = 1`, username)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Enabled, &email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("auth: lookup user: %w", err)
	}
	if email.Valid {
		u.Email = &email.String
	}
	if !VerifyPassword(password, u.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	_, _ = s.db.ExecContext(ctx,
		`UPDATE users SET last_login = strftime('%Y-%m-%dT%H:%M:%fZ','now') WHERE id = ?`, u.ID)

	token, err := s.generateToken(fmt.Sprint(u.ID), u.Username, u.Role, TokenTypeSession, 24*time.Hour)
	if err != nil {
		return nil, "", err
	}
	return &u, token, nil
}

// CreateUser hashes password and inserts a new user row.
func (s *Service) CreateUser(ctx context.Context, username, password, role string, email *string) (*User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, role, email, enabled) VALUES (?, ?, ?, ?, 1)`,
		username, hash, role, email)
	if err != nil {
		return nil, fmt.Errorf("auth: create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("auth: create user id: %w", err)
	}
	return &User{ID: id, Username: username, PasswordHash: hash, Role: role, Enabled: true, Email: email}, nil
}

// UpdatePassword rehashes and replaces userID's stored password.
func (s *Service) UpdatePassword(ctx context.Context, userID int64, newPassword string) error {
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, hash, userID); err != nil {
		return fmt.Errorf("auth: update password: %w", err)
	}
	return nil
}

// CreateAPIToken mints a long-lived API token for userID and records its
// SHA-256 hash. Revocation is looked up by the token's row id (the JWT
// subject), not by the hash.
func (s *Service) CreateAPIToken(ctx context.Context, name string, userID int64, username, role string, expiresInDays *int) (string, error) {
	var expiresAt any
	ttl := 365 * 24 * time.Hour
	if expiresInDays != nil {
		ttl = time.Duration(*expiresInDays) * 24 * time.Hour
		expiresAt = time.Now().Add(ttl).UTC().Format(time.RFC3339)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO api_tokens (name, token_hash, user_id, expires_at, revoked) VALUES (?, '', ?, ?, 0)`,
		name, userID, expiresAt)
	if err != nil {
		return "", fmt.Errorf("auth: create api token row: %w", err)
	}
	tokenID, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("auth: create api token id: %w", err)
	}

	token, err := s.generateToken(fmt.Sprint(tokenID), username, role, TokenTypeAPI, ttl)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(token))
	if _, err := s.db.ExecContext(ctx,
		`UPDATE api_tokens SET token_hash = ? WHERE id = ?`, hex.EncodeToString(sum[:]), tokenID,
	); err != nil {
		return "", fmt.Errorf("auth: store api token hash: %w", err)
	}
	return token, nil
}

// RevokeAPIToken marks a token id as revoked.
func (s *Service) RevokeAPIToken(ctx context.Context, tokenID int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE api_tokens SET revoked = 1 WHERE id = ?`, tokenID)
	if err != nil {
		return fmt.Errorf("auth: revoke token: %w", err)
	}
	return nil
}

func (s *Service) generateToken(subject, username, role, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Username:  username,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies tokenStr, rejecting revoked API tokens,
// and records API token last-used time.
func (s *Service) ValidateToken(ctx context.Context, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("auth: parse token: %w", err)
	}

	if claims.TokenType == TokenTypeAPI {
		var revoked bool
		if err := s.db.QueryRowContext(ctx, `SELECT revoked FROM api_tokens WHERE id = ?`, claims.Subject).Scan(&revoked); err != nil {
			return nil, fmt.Errorf("auth: lookup api token: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
		_, _ = s.db.ExecContext(ctx,
			`UPDATE api_tokens SET last_used = strftime('%Y-%m-%dT%H:%M:%fZ','now') WHERE id = ?`, claims.Subject)
	}
	return claims, nil
}
