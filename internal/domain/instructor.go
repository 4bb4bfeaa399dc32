package domain

import (
	"context"
	"time"
)

type Instructor struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	UserID        string     `gorm:"uniqueIndex;size:36;not null" json:"userId"`
	Bio           string     `gorm:"size:1024" json:"bio"`
	Subjects      StringList `gorm:"type:text" json:"subjects"` // 非空、保存时去重
	TaughtCourses StringList `gorm:"type:text" json:"taughtCourses"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Instructor) TableName() string { return "instructors" }

type InstructorQuery struct {
	Subject Subject
	Search  string
	Page    int
	Limit   int
}

type InstructorRepository interface {
	Create(ctx context.Context, i *Instructor) error
	FindByID(ctx context.Context, id string) (*Instructor, error)
	FindByUserID(ctx context.Context, userID string) (*Instructor, error)
	List(ctx context.Context, q InstructorQuery) ([]Instructor, int64, error)
	Update(ctx context.Context, i *Instructor) error
	DeleteByUserID(ctx context.Context, userID string) error
}
