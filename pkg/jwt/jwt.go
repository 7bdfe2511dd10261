package jwt

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// algorithm is the only signing algorithm issued or accepted
const algorithm = "RS256"

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrUnsupportedAlg   = errors.New("unsupported signing algorithm")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenNotYetValid = errors.New("token not yet valid")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidKey       = errors.New("invalid key")
)

// Claims is the payload of a CRM access token. Subject carries the
// username; UserID and Role describe the account at issue time.
type Claims struct {
	Issuer    string `json:"iss,omitempty"`
	Subject   string `json:"sub,omitempty"`
	ExpiresAt int64  `json:"exp,omitempty"`
	NotBefore int64  `json:"nbf,omitempty"`
	IssuedAt  int64  `json:"iat,omitempty"`

	UserID int64  `json:"user_id,omitempty"`
	Role   string `json:"role,omitempty"` // admin, manager or master
}

// Valid checks the token lifetime against the current time
func (c *Claims) Valid() error {
	return c.validAt(time.Now().Unix())
}

func (c *Claims) validAt(now int64) error {
	switch {
	case c.ExpiresAt != 0 && now > c.ExpiresAt:
		return ErrTokenExpired
	case c.NotBefore != 0 && now < c.NotBefore:
		return ErrTokenNotYetValid
	}
	return nil
}

type header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ,omitempty"`
}

// Service signs and validates access tokens. A service loaded with only a
// public key can validate but not sign.
type Service struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
	expiration time.Duration
}

// Config holds JWT service configuration
type Config struct {
	PrivateKeyPath string
	PublicKeyPath  string
	Issuer         string
	ExpirationMins int
}

// NewService loads the configured keys. When a private key is given its
// public half is used for validation and PublicKeyPath is ignored.
func NewService(cfg Config) (*Service, error) {
	svc := &Service{
		issuer:     cfg.Issuer,
		expiration: time.Duration(cfg.ExpirationMins) * time.Minute,
	}

	switch {
	case cfg.PrivateKeyPath != "":
		key, err := loadPrivateKey(cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("load private key: %w", err)
		}
		svc.privateKey = key
		svc.publicKey = &key.PublicKey
	case cfg.PublicKeyPath != "":
		key, err := loadPublicKey(cfg.PublicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("load public key: %w", err)
		}
		svc.publicKey = key
	}

	return svc, nil
}

// NewTestService creates a service around an in-memory key. Tests only.
func NewTestService(privateKey *rsa.PrivateKey, issuer string, expiration time.Duration) *Service {
	return &Service{
		privateKey: privateKey,
		publicKey:  &privateKey.PublicKey,
		issuer:     issuer,
		expiration: expiration,
	}
}

// GenerateKeyPair writes a fresh 2048-bit RSA key pair as PEM files
func GenerateKeyPair(privateKeyPath, publicKeyPath string) error {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return fmt.Errorf("marshal public key: %w", err)
	}

	if err := writePEM(privateKeyPath, "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(key), 0o600); err != nil {
		return err
	}
	return writePEM(publicKeyPath, "PUBLIC KEY", pubDER, 0o644)
}

// GetExpiration returns the lifetime given to issued tokens
func (s *Service) GetExpiration() time.Duration {
	return s.expiration
}

// Sign issues a token for claims. Issuer, IssuedAt and NotBefore are always
// overwritten; ExpiresAt is kept when already set.
func (s *Service) Sign(claims Claims) (string, error) {
	if s.privateKey == nil {
		return "", ErrInvalidKey
	}

	now := time.Now()
	claims.Issuer = s.issuer
	claims.IssuedAt = now.Unix()
	claims.NotBefore = now.Unix()
	if claims.ExpiresAt == 0 {
		claims.ExpiresAt = now.Add(s.expiration).Unix()
	}

	h, err := encodeSegment(header{Alg: algorithm, Typ: "JWT"})
	if err != nil {
		return "", err
	}
	c, err := encodeSegment(claims)
	if err != nil {
		return "", err
	}

	signingInput := h + "." + c
	digest := sha256.Sum256([]byte(signingInput))
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.privateKey, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signingInput + "." + base64URLEncode(sig), nil
}

// Validate verifies the signature, lifetime, issuer and subject of a token
// and returns its claims
func (s *Service) Validate(tokenString string) (*Claims, error) {
	if s.publicKey == nil {
		return nil, ErrInvalidKey
	}

	segments := strings.Split(tokenString, ".")
	if len(segments) != 3 {
		return nil, ErrInvalidToken
	}

	// The header cannot choose the algorithm
	var h header
	if err := decodeSegment(segments[0], &h); err != nil {
		return nil, ErrInvalidToken
	}
	if h.Alg != algorithm {
		return nil, ErrUnsupportedAlg
	}

	sig, err := base64URLDecode(segments[2])
	if err != nil {
		return nil, ErrInvalidToken
	}
	digest := sha256.Sum256([]byte(segments[0] + "." + segments[1]))
	if err := rsa.VerifyPKCS1v15(s.publicKey, crypto.SHA256, digest[:], sig); err != nil {
		return nil, ErrInvalidSignature
	}

	var claims Claims
	if err := decodeSegment(segments[1], &claims); err != nil {
		return nil, ErrInvalidToken
	}
	if err := claims.Valid(); err != nil {
		return nil, err
	}
	if claims.Issuer != s.issuer || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &claims, nil
}

// Helper functions

func encodeSegment(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode token segment: %w", err)
	}
	return base64URLEncode(data), nil
}

func decodeSegment(seg string, v any) error {
	data, err := base64URLDecode(seg)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func base64URLEncode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

func base64URLDecode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}

func readPEM(path string) (*pem.Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block in %s", ErrInvalidKey, path)
	}
	return block, nil
}

func writePEM(path, blockType string, der []byte, perm os.FileMode) error {
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// loadPrivateKey accepts PKCS#1 and PKCS#8 encodings
func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	block, err := readPEM(path)
	if err != nil {
		return nil, err
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA private key", ErrInvalidKey)
	}
	return key, nil
}

func loadPublicKey(path string) (*rsa.PublicKey, error) {
	block, err := readPEM(path)
	if err != nil {
		return nil, err
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA public key", ErrInvalidKey)
	}
	return key, nil
}
