package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User 表示系统中的账号信息。
type User struct {
	gorm.Model
	Email        string   `gorm:"uniqueIndex;size:255"`
	PasswordHash string   `gorm:"size:255"`
	Resumes      []Resume `gorm:"constraint:OnDelete:CASCADE"`
}

// Profile 是与账号一一对应的展示信息，主键即用户 ID。
// 注册时与 User 在同一事务内创建，之后以读为主。
type Profile struct {
	ID        uint   `gorm:"primaryKey"`
	Email     string `gorm:"size:255"`
	FullName  string `gorm:"size:255"`
	AvatarURL string `gorm:"size:512"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Resume 表示用户创建的简历内容。
// Content 存结构化 JSON，渲染前必须先通过 resume.ParseContent 校验。
type Resume struct {
	gorm.Model
	Title    string         `gorm:"size:255"`
	Content  datatypes.JSON `gorm:"type:jsonb"`
	IsPublic bool           `gorm:"default:false"`
	UserID   uint           `gorm:"index"`
	User     User           `gorm:"constraint:OnDelete:CASCADE"`
}

// JobScrape 记录一次成功的职位抓取，仅追加、尽力而为。
// 写入失败不会影响抓取请求本身的响应。
type JobScrape struct {
	ID          uint      `gorm:"primaryKey"`
	UserID      uint      `gorm:"index"`
	URL         string    `gorm:"size:1024"`
	Title       string    `gorm:"size:255"`
	Company     string    `gorm:"size:255"`
	Location    string    `gorm:"size:255"`
	Description string    `gorm:"type:text"`
	Source      string    `gorm:"size:32"`
	ScrapedAt   time.Time `gorm:"autoCreateTime"`
}
