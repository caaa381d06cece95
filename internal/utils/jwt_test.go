package utils

import (
	"testing"
	"time"

	"sd-gallery-server/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

func useSecret(t *testing.T, secret string) {
	t.Helper()
	prev := config.Get()
	t.Cleanup(func() { config.Set(prev) })
	config.Set(config.Config{JWT: config.JWTConfig{Secret: secret, ExpirationHours: 1}})
}

// 测试内容：验证登录令牌生成后可解析出相同的用户信息。
func TestLoginToken_RoundTrip(t *testing.T) {
	useSecret(t, "unit_test_secret")
	token, err := GenerateLoginToken(123, "alice", time.Hour)
	if err != nil {
		t.Fatalf("GenerateLoginToken error: %v", err)
	}
	claims, err := ParseLoginToken(token)
	if err != nil {
		t.Fatalf("ParseLoginToken error: %v", err)
	}
	if claims.ID != 123 || claims.Username != "alice" || claims.Type != "login" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

// 测试内容：验证过期令牌被拒绝。
func TestParseLoginToken_Expired(t *testing.T) {
	useSecret(t, "unit_test_secret")
	token, err := GenerateLoginToken(1, "alice", -1*time.Second)
	if err != nil {
		t.Fatalf("GenerateLoginToken error: %v", err)
	}
	if _, err := ParseLoginToken(token); err == nil {
		t.Fatalf("expected expired token error")
	}
}

// 测试内容：验证密钥变更后旧令牌失效。
func TestParseLoginToken_WrongSecret(t *testing.T) {
	useSecret(t, "secret_a")
	token, _ := GenerateLoginToken(1, "alice", time.Hour)
	config.Set(config.Config{JWT: config.JWTConfig{Secret: "secret_b"}})
	if _, err := ParseLoginToken(token); err == nil {
		t.Fatalf("expected signature error")
	}
}

// 测试内容：验证类型不是 login 的令牌被拒绝。
func TestParseLoginToken_RejectsWrongType(t *testing.T) {
	useSecret(t, "unit_test_secret")
	claims := LoginClaims{
		ID:   1,
		Type: "email_verify",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Issuer:    tokenIssuer,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("unit_test_secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseLoginToken(token); err == nil {
		t.Fatalf("expected error for wrong token type")
	}
}
