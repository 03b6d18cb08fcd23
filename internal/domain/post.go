package domain

import "time"

// Post 表示一篇博客文章。
// AuthorID 在创建后不可变，只有作者本人可以修改或删除文章。
type Post struct {
	ID        uint      `gorm:"primaryKey"`           // 文章唯一标识符 (主键)
	Title     string    `gorm:"size:255;not null"`    // 标题
	Summary   string    `gorm:"size:512;not null"`    // 摘要
	Content   string    `gorm:"type:text;not null"`   // 正文内容
	ImageFile string    `gorm:"size:255;not null"`    // 封面图片的文件名 (由图片存储生成，不含路径)
	AuthorID  uint      `gorm:"index;not null"`       // 作者的用户 ID (外键关联 User.ID)
	Author    User      `gorm:"foreignKey:AuthorID"`  // 作者信息 (查询时按需 Preload)
	CreatedAt time.Time `gorm:"autoCreateTime;index"` // 创建时间 (列表按此倒序)
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// IsOwnedBy 判断文章是否属于指定用户。
// 所有权比较的是 ID 的值，绝不信任客户端提供的作者字段。
func (p *Post) IsOwnedBy(userID uint) bool {
	return p.AuthorID == userID
}
