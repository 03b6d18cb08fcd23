package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"personal-blog/internal/domain"
	"personal-blog/internal/repository"
	"personal-blog/internal/token"
)

// 注册输入的基本约束
const (
	minUsernameLength = 3
	minPasswordLength = 6
)

// 邮箱只做基本格式检查，真正的有效性由验证邮件保证 (不在本服务范围内)
var emailPattern = regexp.MustCompile(`^.+@.+\..+$`)

// AuthService 负责用户注册、登录和资料查询的业务逻辑。
type AuthService struct {
	userRepo repository.UserRepository
	tokens   *token.Service
	tokenTTL time.Duration // 会话令牌有效期
}

// NewAuthService 创建 AuthService 实例。
// tokenTTL <= 0 时使用 token.DefaultTTL (1 小时)。
func NewAuthService(userRepo repository.UserRepository, tokens *token.Service, tokenTTL time.Duration) *AuthService {
	if userRepo == nil {
		panic("UserRepository cannot be nil for AuthService")
	}
	if tokens == nil {
		panic("token service cannot be nil for AuthService")
	}
	if tokenTTL <= 0 {
		tokenTTL = token.DefaultTTL
	}
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		tokenTTL: tokenTTL,
	}
}

// TokenTTL 返回会话令牌有效期，Cookie 的 MaxAge 与之对齐。
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}

// Register 处理用户注册。
// 注意：任何路径下都不记录明文密码或其哈希。
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	logCtx := logrus.WithFields(logrus.Fields{"username": username, "email": email})

	// 1. 基本验证
	if err := validateRegistration(username, email, password); err != nil {
		logCtx.WithError(err).Warn("Registration failed: invalid input")
		return nil, err
	}

	// 2. 预检查用户名和邮箱是否已被占用 (友好报错；并发兜底靠唯一索引)
	if _, err := s.userRepo.FindByUsername(ctx, username); err == nil {
		logCtx.Warn("Registration failed: username already exists")
		return nil, ErrRegistrationFailed
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		logCtx.WithError(err).Error("Database error while checking username")
		return nil, ErrInternalServer
	}
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		logCtx.Warn("Registration failed: email already exists")
		return nil, ErrRegistrationFailed
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		logCtx.WithError(err).Error("Database error while checking email")
		return nil, ErrInternalServer
	}

	// 3. 哈希密码
	hashed, err := hashPassword(password)
	if err != nil {
		logCtx.WithError(err).Error("Failed to hash password during registration")
		return nil, ErrInternalServer
	}

	// 4. 保存用户
	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		// 两个并发注册中输掉唯一索引竞争的那一个走到这里
		if errors.Is(err, repository.ErrDuplicateEntry) {
			logCtx.WithError(err).Warn("Registration failed: duplicate entry on save")
			return nil, ErrRegistrationFailed
		}
		logCtx.WithError(err).Error("Database error during user creation")
		return nil, ErrInternalServer
	}

	logCtx.WithField("user_id", user.ID).Info("User registered successfully")
	user.PasswordHash = "" // 清除哈希再返回
	return user, nil
}

// Login 处理用户登录。identifier 可以是用户名或邮箱。
// 失败时统一返回 ErrAuthenticationFailed，客户端无法区分具体原因。
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*domain.User, string, error) {
	identifier = strings.TrimSpace(identifier)
	logCtx := logrus.WithField("identifier", identifier)

	if identifier == "" || password == "" {
		return nil, "", fmt.Errorf("%w: username/email and password are required", ErrValidation)
	}

	// 1. 查找用户
	user, err := s.userRepo.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			logCtx.Warn("Login attempt failed: user not found")
		} else {
			logCtx.WithError(err).Warn("Login attempt failed: error finding user")
		}
		// 对客户端统一返回认证失败
		return nil, "", ErrAuthenticationFailed
	}

	// 2. 验证密码
	if !checkPassword(password, user.PasswordHash) {
		logCtx.Warn("Login attempt failed: invalid password")
		return nil, "", ErrAuthenticationFailed
	}

	// 3. 签发会话令牌
	tok, err := s.tokens.Issue(user.ID, user.Username, s.tokenTTL)
	if err != nil {
		logCtx.WithError(err).Error("Failed to issue session token during login")
		return nil, "", ErrInternalServer
	}

	logCtx.WithField("user_id", user.ID).Info("User logged in successfully")
	user.PasswordHash = ""
	return user, tok, nil
}

// Profile 返回用户的公开资料 (不含密码哈希)。
func (s *AuthService) Profile(ctx context.Context, id uint) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// 理论上不应发生，因为令牌已验证通过
			logrus.WithField("user_id", id).Warn("Profile lookup failed: user not found")
			return nil, ErrUserNotFound
		}
		logrus.WithError(err).WithField("user_id", id).Error("Database error during profile lookup")
		return nil, ErrInternalServer
	}
	user.PasswordHash = ""
	return user, nil
}

// validateRegistration 检查注册输入的格式约束。
func validateRegistration(username, email, password string) error {
	if username == "" || email == "" || password == "" {
		return fmt.Errorf("%w: username, email, and password are required", ErrValidation)
	}
	if utf8.RuneCountInString(username) < minUsernameLength {
		return fmt.Errorf("%w: username must be at least %d characters long", ErrValidation, minUsernameLength)
	}
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters long", ErrValidation, minPasswordLength)
	}
	return nil
}

// hashPassword 使用 bcrypt 对密码进行哈希处理
func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to generate hash from password: %w", err)
	}
	return string(bytes), nil
}

// checkPassword 验证提供的密码是否与存储的哈希匹配。
// bcrypt 的比较是常数时间的；密码错误和哈希格式非法都只返回 false。
func checkPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
