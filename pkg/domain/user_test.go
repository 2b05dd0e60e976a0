package domain

import "testing"

func TestUserProfileMerge(t *testing.T) {
	cached := UserProfile{EmpNo: "2024001", Name: "김철수", DeptName: "생산팀"}

	tests := []struct {
		name  string
		fresh UserProfile
		want  UserProfile
	}{
		{"empty keeps cached", UserProfile{}, cached},
		{"dept omitted", UserProfile{EmpNo: "2024001", Name: "김철수"}, cached},
		{"dept updated", UserProfile{DeptName: "품질팀"}, UserProfile{EmpNo: "2024001", Name: "김철수", DeptName: "품질팀"}},
		{"name updated", UserProfile{Name: "김영희"}, UserProfile{EmpNo: "2024001", Name: "김영희", DeptName: "생산팀"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cached.Merge(tt.fresh); got != tt.want {
				t.Errorf("Merge() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestUserProfileSummary(t *testing.T) {
	tests := []struct {
		p    UserProfile
		want string
	}{
		{UserProfile{Name: "김철수", DeptName: "생산팀"}, "김철수 / 생산팀"},
		{UserProfile{Name: "김철수"}, "김철수"},
		{UserProfile{DeptName: "생산팀"}, "생산팀"},
		{UserProfile{}, "-"},
	}
	for _, tt := range tests {
		if got := tt.p.Summary(); got != tt.want {
			t.Errorf("Summary(%+v) = %q, want %q", tt.p, got, tt.want)
		}
	}
}
