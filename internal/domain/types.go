package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// StringList 以 JSON 存储的字符串数组列
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *StringList) Scan(src any) error {
	if src == nil {
		*l = StringList{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return errors.New("unsupported column type for StringList")
}

// Dedup 去重并保持原顺序
func (l StringList) Dedup() StringList {
	seen := make(map[string]struct{}, len(l))
	out := make(StringList, 0, len(l))
	for _, s := range l {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func (l StringList) Contains(s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}

// NormalizePage 分页参数越界时回退默认值，响应回显与查询取同一结果
func NormalizePage(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// GradeMap 课程 key -> 成绩，以 JSON 存储
type GradeMap map[string]float64

func (m GradeMap) Value() (driver.Value, error) {
	if m == nil {
		m = GradeMap{}
	}
	b, err := json.Marshal(m)
	return string(b), err
}

func (m *GradeMap) Scan(src any) error {
	if src == nil {
		*m = GradeMap{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	}
	return errors.New("unsupported column type for GradeMap")
}
