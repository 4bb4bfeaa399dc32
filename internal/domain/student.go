package domain

import (
	"context"
	"math"
	"time"
)

type Student struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	UserID          string     `gorm:"uniqueIndex;size:36;not null" json:"userId"`
	Stage           Stage      `gorm:"size:16;not null" json:"stage"`
	ParentPhone     string     `gorm:"size:32" json:"parentPhone,omitempty"`
	EnrolledCourses StringList `gorm:"type:text" json:"enrolledCourses"`
	Grades          GradeMap   `gorm:"type:text" json:"grades"`
	Progress        int        `gorm:"not null;default:0" json:"progress"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Student) TableName() string { return "students" }

// RecomputeProgress 显式重算 progress = 已评分课程数/已选课程数 ×100。
// 由仓储在每次保存前调用，不依赖任何隐式钩子。
func (s *Student) RecomputeProgress() {
	total := len(s.EnrolledCourses)
	if total == 0 {
		s.Progress = 0
		return
	}
	completed := len(s.Grades)
	p := int(math.Round(float64(completed) / float64(total) * 100))
	if p > 100 {
		p = 100
	}
	s.Progress = p
}

type StudentQuery struct {
	Stage  Stage
	Search string // 关联 user 的 name/email 模糊搜
	Page   int
	Limit  int
}

type StudentRepository interface {
	Create(ctx context.Context, s *Student) error
	FindByID(ctx context.Context, id string) (*Student, error)
	FindByUserID(ctx context.Context, userID string) (*Student, error)
	List(ctx context.Context, q StudentQuery) ([]Student, int64, error)
	Update(ctx context.Context, s *Student) error
	DeleteByUserID(ctx context.Context, userID string) error
}
