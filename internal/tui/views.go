package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mealauth/mealauth/pkg/domain"
)

func loadingView() string {
	return "\n" + dimStyle.Render("세션을 확인하는 중입니다...") + "\n"
}

func (a App) homeView() string {
	var b strings.Builder
	if a.st.user != nil {
		b.WriteString(selectedStyle.Render(a.st.user.Name+" 님") + "\n")
		b.WriteString(dimStyle.Render("사번: "+a.st.user.EmpNo) + "\n\n")
	}
	b.WriteString(metaStyle.Render(formatDate(a.clock)) + "  " + normalStyle.Render(formatClock(a.clock)) + "\n\n")
	b.WriteString(accentStyle.Render("[s]") + " " + normalStyle.Render("QR 스캔으로 식수 인증") + "\n")
	if !a.st.lastAuthAt.IsZero() {
		b.WriteString(metaStyle.Render("최근 인증 "+a.st.lastAuthAt.Format("01/02 15:04:05")) + "\n")
	}
	return b.String()
}

func (a App) scannerView() string {
	var b strings.Builder
	b.WriteString(selectedStyle.Render("QR 코드 스캔") + "\n\n")
	inner := dimStyle.Render("QR 코드를\n리더기에 대 주세요")
	if a.authPending {
		inner = goldStyle.Render("인증 중...")
	}
	b.WriteString(scanBoxStyle.Render(inner) + "\n")
	if a.scanner != nil && a.scanner.Misses() > 0 {
		b.WriteString(metaStyle.Render(fmt.Sprintf("인식 실패 %d회", a.scanner.Misses())) + "\n")
	}
	return b.String()
}

func (a App) authSuccessView() string {
	var u domain.UserProfile
	if a.st.user != nil {
		u = *a.st.user
	}
	remaining := a.st.window.Remaining(a.clock)
	secs := int((remaining + time.Second - 1) / time.Second)

	var b strings.Builder
	b.WriteString(successStyle.Render("✓ 식수 인증 완료") + "\n\n")
	b.WriteString(dimStyle.Render(formatDate(a.clock)) + "\n")
	b.WriteString(clockStyle.Render(formatClock(a.clock)) + "\n\n")
	b.WriteString(normalStyle.Render(u.EmpNo) + "\n")
	b.WriteString(normalStyle.Render(u.Summary()) + "\n")
	if a.st.authTime != "" {
		b.WriteString(metaStyle.Render("인증 시각 "+a.st.authTime) + "\n")
	}
	b.WriteString("\n" + countdownStyle(secs).Render("남은 시간 "+domain.FormatRemaining(remaining)))
	return successCardStyle.Render(b.String())
}

func (a App) helpView() string {
	commands := []struct{ cmd, desc string }{
		{"mealauth", "키오스크 화면 실행"},
		{"mealauth status", "저장된 기기 인증 확인"},
		{"mealauth logout", "기기 인증 정보 삭제"},
		{"mealauth admin", "관리자 페이지 열기"},
		{"mealauth serve", "오프라인 캐시 프록시 실행"},
	}
	cmdStyle := lipgloss.NewStyle().Bold(true)

	var b strings.Builder
	b.WriteString(selectedStyle.Render("도움말") + "  " + metaStyle.Render(a.version) + "\n\n")
	for _, c := range commands {
		fmt.Fprintf(&b, "  %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-18s", c.cmd)), dimStyle.Render(c.desc))
	}
	if a.adminURL != "" {
		b.WriteString("\n  " + accentStyle.Render("▸ ") + normalStyle.Render(truncStr(a.adminURL, 60)) + "\n")
	}
	return b.String()
}

// alertView renders the modal notice. queued is how many more are waiting.
func alertView(text string, queued int) string {
	body := text
	if queued > 0 {
		body += "\n\n" + metaStyle.Render(fmt.Sprintf("(+%d)", queued))
	}
	return "\n" + alertStyle.Render(body) + "\n"
}
