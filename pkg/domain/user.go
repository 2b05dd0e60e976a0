package domain

import "strings"

// UserProfile is the employee identity cached on a paired device.
type UserProfile struct {
	EmpNo    string `json:"emp_no"`
	Name     string `json:"name"`
	DeptName string `json:"dept_name,omitempty"`
}

// Merge overlays the non-empty fields of fresh onto p. Fields the fresher
// response omits keep their cached values.
func (p UserProfile) Merge(fresh UserProfile) UserProfile {
	if fresh.EmpNo != "" {
		p.EmpNo = fresh.EmpNo
	}
	if fresh.Name != "" {
		p.Name = fresh.Name
	}
	if fresh.DeptName != "" {
		p.DeptName = fresh.DeptName
	}
	return p
}

// Summary renders "name / dept", skipping empty parts, or "-" when both are empty.
func (p UserProfile) Summary() string {
	var parts []string
	for _, s := range []string{p.Name, p.DeptName} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " / ")
}
