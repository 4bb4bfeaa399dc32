package domain

// Role 用户角色（闭集，静态分发，不做动态加载）
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Permission 管理员细粒度权限
type Permission string

const (
	PermManageUsers       Permission = "manage_users"
	PermManageCourses     Permission = "manage_courses"
	PermViewReports       Permission = "view_reports"
	PermManageInstructors Permission = "manage_instructors"
	PermManageAdmins      Permission = "manage_admins"
	PermITSupport         Permission = "it_support"
)

var allPermissions = map[Permission]struct{}{
	PermManageUsers:       {},
	PermManageCourses:     {},
	PermViewReports:       {},
	PermManageInstructors: {},
	PermManageAdmins:      {},
	PermITSupport:         {},
}

func (p Permission) Valid() bool {
	_, ok := allPermissions[p]
	return ok
}

// Subject 讲师可授科目
type Subject string

const (
	SubjectMath      Subject = "math"
	SubjectScience   Subject = "science"
	SubjectEnglish   Subject = "english"
	SubjectArabic    Subject = "arabic"
	SubjectHistory   Subject = "history"
	SubjectGeography Subject = "geography"
	SubjectChemistry Subject = "chemistry"
	SubjectPhysics   Subject = "physics"
	SubjectBiology   Subject = "biology"
)

var allSubjects = map[Subject]struct{}{
	SubjectMath: {}, SubjectScience: {}, SubjectEnglish: {},
	SubjectArabic: {}, SubjectHistory: {}, SubjectGeography: {},
	SubjectChemistry: {}, SubjectPhysics: {}, SubjectBiology: {},
}

func (s Subject) Valid() bool {
	_, ok := allSubjects[s]
	return ok
}

// Stage 学生学段
type Stage string

const (
	StagePrimary     Stage = "primary"
	StagePreparatory Stage = "preparatory"
	StageSecondary   Stage = "secondary"
)

func (s Stage) Valid() bool {
	switch s {
	case StagePrimary, StagePreparatory, StageSecondary:
		return true
	}
	return false
}
