package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// ============================================================================
// Test Helpers
// ============================================================================

func newTestService(t *testing.T) *Service {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}
	return NewTestService(privateKey, "test-issuer", 15*time.Minute)
}

func staffClaims() Claims {
	return Claims{Subject: "alice", UserID: 7, Role: "manager"}
}

// ============================================================================
// Claims.Valid() Tests
// ============================================================================

func TestClaims_Valid(t *testing.T) {
	t.Parallel()
	now := time.Now()

	tests := []struct {
		name   string
		claims Claims
		want   error
	}{
		{"no expiration", Claims{Subject: "a"}, nil},
		{"not expired", Claims{Subject: "a", ExpiresAt: now.Add(time.Hour).Unix()}, nil},
		{"expired", Claims{Subject: "a", ExpiresAt: now.Add(-time.Hour).Unix()}, ErrTokenExpired},
		{"not yet valid", Claims{Subject: "a", NotBefore: now.Add(time.Hour).Unix()}, ErrTokenNotYetValid},
		{"not before in past", Claims{Subject: "a", NotBefore: now.Add(-time.Hour).Unix()}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := tt.claims.Valid(); err != tt.want {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// ============================================================================
// Sign() Tests
// ============================================================================

func TestSign_ValidClaims_ReturnsThreePartToken(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	token, err := svc.Sign(staffClaims())

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Errorf("expected 3 parts, got %d", len(parts))
	}
}

func TestSign_NilPrivateKey_ReturnsErrInvalidKey(t *testing.T) {
	t.Parallel()
	svc := &Service{issuer: "test-issuer"}

	_, err := svc.Sign(staffClaims())

	if err != ErrInvalidKey {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}

func TestSign_SetsStandardClaims(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	before := time.Now().Unix()

	token, err := svc.Sign(staffClaims())
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if claims.Issuer != "test-issuer" {
		t.Errorf("expected issuer 'test-issuer', got %q", claims.Issuer)
	}
	if claims.IssuedAt < before {
		t.Errorf("IssuedAt %d is before sign time %d", claims.IssuedAt, before)
	}
	if want := claims.IssuedAt + int64((15 * time.Minute).Seconds()); claims.ExpiresAt != want {
		t.Errorf("expected default expiration %d, got %d", want, claims.ExpiresAt)
	}
}

func TestSign_PreservesCustomExpiration(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	exp := time.Now().Add(2 * time.Hour).Unix()
	c := staffClaims()
	c.ExpiresAt = exp

	token, _ := svc.Sign(c)
	claims, err := svc.Validate(token)

	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.ExpiresAt != exp {
		t.Errorf("expected ExpiresAt %d, got %d", exp, claims.ExpiresAt)
	}
}

// ============================================================================
// Validate() Tests
// ============================================================================

func TestSignAndValidate_RoundTrip(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	token, err := svc.Sign(staffClaims())
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if claims.Subject != "alice" {
		t.Errorf("Subject: expected 'alice', got %q", claims.Subject)
	}
	if claims.UserID != 7 {
		t.Errorf("UserID: expected 7, got %d", claims.UserID)
	}
	if claims.Role != "manager" {
		t.Errorf("Role: expected 'manager', got %q", claims.Role)
	}
}

func TestValidate_NilPublicKey_ReturnsErrInvalidKey(t *testing.T) {
	t.Parallel()
	svc := &Service{issuer: "test-issuer"}

	_, err := svc.Validate("a.b.c")

	if err != ErrInvalidKey {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}

func TestValidate_MalformedTokens_ReturnErrInvalidToken(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	for _, token := range []string{"", "onepart", "two.parts", "a.b.c.d", "!!!.b.c"} {
		if _, err := svc.Validate(token); err != ErrInvalidToken {
			t.Errorf("Validate(%q): expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestValidate_InvalidSignature_ReturnsErrInvalidSignature(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	token, _ := svc.Sign(staffClaims())

	parts := strings.Split(token, ".")
	wrongSig := base64URLEncode([]byte("this is not a valid signature but is valid base64"))

	_, err := svc.Validate(parts[0] + "." + parts[1] + "." + wrongSig)

	if err != ErrInvalidSignature {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestValidate_TamperedRole_ReturnsErrInvalidSignature(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	token, _ := svc.Sign(staffClaims())

	parts := strings.Split(token, ".")
	forged := base64URLEncode([]byte(`{"sub":"alice","user_id":7,"role":"admin","iss":"test-issuer"}`))

	_, err := svc.Validate(parts[0] + "." + forged + "." + parts[2])

	if err != ErrInvalidSignature {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestValidate_AlgNone_ReturnsErrUnsupportedAlg(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	token, _ := svc.Sign(staffClaims())

	parts := strings.Split(token, ".")
	noneHeader := base64URLEncode([]byte(`{"alg":"none","typ":"JWT"}`))

	_, err := svc.Validate(noneHeader + "." + parts[1] + ".")

	if err != ErrUnsupportedAlg {
		t.Errorf("expected ErrUnsupportedAlg, got %v", err)
	}
}

func TestValidate_ExpiredToken_ReturnsErrTokenExpired(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	c := staffClaims()
	c.ExpiresAt = time.Now().Add(-time.Hour).Unix()
	token, _ := svc.Sign(c)

	_, err := svc.Validate(token)

	if err != ErrTokenExpired {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestValidate_WrongIssuer_ReturnsErrInvalidToken(t *testing.T) {
	t.Parallel()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}
	signer := NewTestService(privateKey, "other-issuer", time.Hour)
	verifier := NewTestService(privateKey, "test-issuer", time.Hour)
	token, _ := signer.Sign(staffClaims())

	_, err = verifier.Validate(token)

	if err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidate_MissingSubject_ReturnsErrInvalidToken(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	token, _ := svc.Sign(Claims{UserID: 7, Role: "admin"})

	_, err := svc.Validate(token)

	if err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidate_DifferentKey_ReturnsErrInvalidSignature(t *testing.T) {
	t.Parallel()
	token, _ := newTestService(t).Sign(staffClaims())

	_, err := newTestService(t).Validate(token)

	if err != ErrInvalidSignature {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}
}

// ============================================================================
// Key Loading Tests
// ============================================================================

func TestGenerateKeyPair_NewServiceLoadsKeys(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	priv := filepath.Join(dir, "private.pem")
	pub := filepath.Join(dir, "public.pem")

	if err := GenerateKeyPair(priv, pub); err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}

	signer, err := NewService(Config{PrivateKeyPath: priv, Issuer: "crm", ExpirationMins: 5})
	if err != nil {
		t.Fatalf("NewService(private) failed: %v", err)
	}
	verifier, err := NewService(Config{PublicKeyPath: pub, Issuer: "crm", ExpirationMins: 5})
	if err != nil {
		t.Fatalf("NewService(public) failed: %v", err)
	}

	token, err := signer.Sign(staffClaims())
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if _, err := verifier.Validate(token); err != nil {
		t.Errorf("public-key-only service should validate: %v", err)
	}
	if _, err := verifier.Sign(staffClaims()); err != ErrInvalidKey {
		t.Errorf("public-key-only service should not sign, got %v", err)
	}
	if got := verifier.GetExpiration(); got != 5*time.Minute {
		t.Errorf("expected expiration 5m, got %v", got)
	}
}

func TestNewService_MissingKeyFile_ReturnsError(t *testing.T) {
	t.Parallel()

	_, err := NewService(Config{PrivateKeyPath: filepath.Join(t.TempDir(), "missing.pem")})

	if err == nil {
		t.Error("expected error for missing key file")
	}
}

func TestNewService_InvalidPEM_ReturnsError(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bad.pem")
	if err := os.WriteFile(path, []byte("not a pem"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := NewService(Config{PublicKeyPath: path})

	if err == nil {
		t.Error("expected error for invalid PEM")
	}
}

func TestNewService_PKCS8PrivateKey(t *testing.T) {
	t.Parallel()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal PKCS8: %v", err)
	}
	path := filepath.Join(t.TempDir(), "pkcs8.pem")
	if err := os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), 0600); err != nil {
		t.Fatal(err)
	}

	svc, err := NewService(Config{PrivateKeyPath: path, Issuer: "crm", ExpirationMins: 5})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	token, err := svc.Sign(staffClaims())
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if _, err := svc.Validate(token); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

// ============================================================================
// base64 Helpers
// ============================================================================

func TestBase64URL_RoundTripWithoutPadding(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"a", "ab", "abc", "abcd", `{"alg":"RS256"}`} {
		enc := base64URLEncode([]byte(in))
		if strings.Contains(enc, "=") {
			t.Errorf("encoded %q contains padding: %s", in, enc)
		}
		dec, err := base64URLDecode(enc)
		if err != nil {
			t.Fatalf("decode %q: %v", enc, err)
		}
		if string(dec) != in {
			t.Errorf("round trip: expected %q, got %q", in, dec)
		}
	}

	if _, err := base64URLDecode(base64.URLEncoding.EncodeToString([]byte("xy"))); err != nil {
		t.Errorf("padded input should decode: %v", err)
	}
}
