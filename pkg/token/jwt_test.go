package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	manager := NewJWTManager("test-secret", 1, 7)

	tokenString, err := manager.GenerateToken(42, "jiyoung", "USER")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := manager.VerifyToken(tokenString)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("expected userID 42, got %d", claims.UserID)
	}
	if claims.Username != "jiyoung" {
		t.Errorf("expected username jiyoung, got %s", claims.Username)
	}
	if claims.Role != "USER" {
		t.Errorf("expected role USER, got %s", claims.Role)
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	manager := NewJWTManager("secret-a", 1, 7)
	other := NewJWTManager("secret-b", 1, 7)

	tokenString, err := manager.GenerateToken(1, "user", "USER")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := other.VerifyToken(tokenString); err == nil {
		t.Error("expected verification to fail with wrong secret")
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	manager := NewJWTManager("test-secret", 1, 7)

	// 手动构造一个已过期的 token
	claims := CustomClaims{
		UserID:   1,
		Username: "user",
		Role:     "USER",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token failed: %v", err)
	}

	if _, err := manager.VerifyToken(tokenString); err == nil {
		t.Error("expected verification to fail for expired token")
	}
}

func TestVerifyToken_Garbage(t *testing.T) {
	manager := NewJWTManager("test-secret", 1, 7)
	if _, err := manager.VerifyToken("not.a.token"); err == nil {
		t.Error("expected verification to fail for garbage input")
	}
}
