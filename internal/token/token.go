// Package token 负责会话令牌的签发与验证。
// 令牌仅做完整性保护，不做加密：claims 里只放非机密的身份信息，
// 绝不放密码哈希。密钥是进程级配置，启动时加载一次，轮换密钥会使
// 所有未过期令牌失效。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// DefaultTTL 是会话令牌的默认有效期。
const DefaultTTL = time.Hour

// 验证失败的具体原因，调用方据此决定日志与响应。
var (
	// ErrTokenMalformed 表示令牌无法解析
	ErrTokenMalformed = errors.New("token: malformed token")
	// ErrTokenExpired 表示令牌已过期
	ErrTokenExpired = errors.New("token: token expired")
	// ErrTokenInvalidSignature 表示签名与当前密钥不匹配
	ErrTokenInvalidSignature = errors.New("token: invalid signature")
)

// Claims 是嵌入会话令牌的最小身份声明。
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Service 用进程级密钥签发和验证 HS256 令牌。
type Service struct {
	secret []byte
}

// NewService 创建 Service 实例。
// secret 应从安全配置中获取，不能为空。
func NewService(secret string) (*Service, error) {
	if secret == "" {
		return nil, fmt.Errorf("token: secret key cannot be empty")
	}
	return &Service{secret: []byte(secret)}, nil
}

// Issue 为指定用户签发一个有效期为 ttl 的令牌。
// ttl <= 0 时使用 DefaultTTL。
func (s *Service) Issue(userID uint, username string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now()
	claims := &Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("token: failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify 解析并验证令牌，成功时返回其中的 Claims。
// 失败时返回 ErrTokenMalformed / ErrTokenExpired / ErrTokenInvalidSignature 之一。
func (s *Service) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		// 只接受 HMAC (HS256) 签名方法
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, mapValidationError(err)
	}
	if !tok.Valid {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// mapValidationError 将 jwt 库的验证错误映射为本包定义的错误类型。
// 顺序有讲究：过期优先于签名检查 (jwt-go 会把多个原因按位组合)。
func mapValidationError(err error) error {
	var vErr *jwt.ValidationError
	if errors.As(err, &vErr) {
		switch {
		case vErr.Errors&jwt.ValidationErrorMalformed != 0:
			return ErrTokenMalformed
		case vErr.Errors&jwt.ValidationErrorExpired != 0:
			return ErrTokenExpired
		case vErr.Errors&jwt.ValidationErrorSignatureInvalid != 0:
			return ErrTokenInvalidSignature
		}
	}
	// 其余情况 (无法验证、claims 类型不符等) 统一按格式错误处理
	return ErrTokenMalformed
}
