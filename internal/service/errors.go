package service

import "errors"

// 业务层错误，handler 据此映射 HTTP 状态码。
var (
	// ErrValidation 表示输入缺失或格式非法，通常用 fmt.Errorf("%w: ...") 附带具体原因
	ErrValidation = errors.New("invalid input")
	// ErrRegistrationFailed 表示用户名或邮箱已被占用。
	ErrRegistrationFailed = errors.New("username or email already exists")
	// ErrAuthenticationFailed 是登录失败的统一错误：
	// 不区分"用户不存在"和"密码错误"，避免泄露账号是否存在。
	ErrAuthenticationFailed = errors.New("invalid username/email or password")
	// ErrForbidden 表示调用者不是资源的作者
	ErrForbidden = errors.New("you are not the author of this post")
	ErrUserNotFound = errors.New("user not found")
	ErrPostNotFound = errors.New("post not found")
	// ErrInternalServer 是存储或基础设施失败的统一出口，细节只进日志
	ErrInternalServer = errors.New("internal server error")
)
