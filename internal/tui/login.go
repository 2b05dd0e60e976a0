package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mealauth/mealauth/pkg/domain"
)

type loginField int

const (
	fieldEmpNo loginField = iota
	fieldName
	fieldPassword
	numLoginFields
)

var loginLabels = [numLoginFields]string{"사번", "이름", "초기 비밀번호"}

// loginForm is the device-verification form.
type loginForm struct {
	values     [numLoginFields]string
	focus      loginField
	submitting bool
}

// request returns the trimmed field values.
func (f loginForm) request() domain.VerifyDeviceRequest {
	return domain.VerifyDeviceRequest{
		EmpNo:    strings.TrimSpace(f.values[fieldEmpNo]),
		Name:     strings.TrimSpace(f.values[fieldName]),
		Password: strings.TrimSpace(f.values[fieldPassword]),
	}
}

// update applies a key to the form. submit is true when the user asked to
// send the form.
func (f loginForm) update(msg tea.KeyMsg) (form loginForm, submit bool) {
	switch msg.Type {
	case tea.KeyTab, tea.KeyDown:
		f.focus = (f.focus + 1) % numLoginFields
	case tea.KeyShiftTab, tea.KeyUp:
		f.focus = (f.focus + numLoginFields - 1) % numLoginFields
	case tea.KeyEnter:
		if f.focus < fieldPassword {
			f.focus++
			return f, false
		}
		return f, true
	case tea.KeyBackspace:
		f.values[f.focus] = editRune(f.values[f.focus], "backspace")
	case tea.KeySpace:
		f.values[f.focus] = appendRunes(f.values[f.focus], []rune{' '})
	case tea.KeyRunes:
		f.values[f.focus] = appendRunes(f.values[f.focus], msg.Runes)
	}
	return f, false
}

// resetSecret clears the password once it has been used.
func (f loginForm) resetSecret() loginForm {
	f.values[fieldPassword] = ""
	f.focus = fieldEmpNo
	f.submitting = false
	return f
}

func (f loginForm) view() string {
	var b strings.Builder
	b.WriteString(selectedStyle.Render("기기 인증") + "\n")
	b.WriteString(dimStyle.Render("처음 사용하는 기기입니다. 사번, 이름, 초기 비밀번호를 입력해주세요.") + "\n\n")
	for i := loginField(0); i < numLoginFields; i++ {
		v := f.values[i]
		if i == fieldPassword {
			v = mask(v)
		}
		label := dimStyle.Render(padLabel(loginLabels[i]))
		if i == f.focus {
			cursor := accentStyle.Render("█")
			b.WriteString(inputPromptStyle.Render("> ") + label + normalStyle.Render(v) + cursor + "\n")
			continue
		}
		if v == "" {
			v = inputPlaceholderStyle.Render("입력")
		} else {
			v = normalStyle.Render(v)
		}
		b.WriteString("  " + label + v + "\n")
	}
	if f.submitting {
		b.WriteString("\n" + goldStyle.Render("인증 중...") + "\n")
	}
	return b.String()
}

// padLabel aligns labels by display width; Hangul takes two cells per rune.
func padLabel(s string) string {
	const width = 16
	w := lipgloss.Width(s)
	if w >= width {
		return s + " "
	}
	return s + strings.Repeat(" ", width-w)
}
