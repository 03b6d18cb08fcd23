// Package domain 定义了应用程序中使用的数据结构 (数据库模型)。
package domain

import "time"

// User 表示博客的注册用户。
// PasswordHash 存储的是 bcrypt 哈希，任何时候都不应出现明文密码。
type User struct {
	ID           uint      `gorm:"primaryKey"` // 用户唯一标识符 (主键)
	Username     string    `gorm:"type:varchar(191);uniqueIndex:idx_username;not null"`
	Email        string    `gorm:"type:varchar(191);uniqueIndex:idx_email;not null"`
	PasswordHash string    `gorm:"type:text;not null" json:"-"` // 只存哈希，序列化时排除
	CreatedAt    time.Time `gorm:"autoCreateTime"` // 用户记录创建时间 (GORM 自动填充)
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}
