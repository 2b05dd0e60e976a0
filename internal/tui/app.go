package tui

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/mealauth/mealauth/internal/browser"
	"github.com/mealauth/mealauth/internal/logging"
	"github.com/mealauth/mealauth/internal/nav"
	"github.com/mealauth/mealauth/internal/scanner"
	"github.com/mealauth/mealauth/internal/session"
	"github.com/mealauth/mealauth/pkg/client"
	"github.com/mealauth/mealauth/pkg/domain"
)

// bootMsg asks the App to (re)validate the stored session.
type bootMsg struct{}

// tickMsg is one beat of a navigator timer.
type tickMsg struct {
	handle nav.Handle
	t      time.Time
}

// noticeMsg sets the transient status line.
type noticeMsg struct {
	text string
}

// tickInterval paces every navigator timer.
var tickInterval = time.Second

func tickCmd(h nav.Handle) tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg{handle: h, t: t}
	})
}

// Deps are the collaborators the App runs against.
type Deps struct {
	Client *client.Client
	Store  session.Store
	// Scanner builds the scanner adapter the first time the scanner page opens.
	Scanner  func() *scanner.Adapter
	Log      logrus.FieldLogger
	Now      func() time.Time
	AdminURL string
	Version  string
}

// state mirrors the persisted session for the running kiosk.
type state struct {
	loggedIn   bool
	user       *domain.UserProfile
	lastAuthAt time.Time
	window     domain.AuthWindow
	authTime   string
}

// App is the root Bubbletea model.
type App struct {
	client     *client.Client
	store      session.Store
	newScanner func() *scanner.Adapter
	scanner    *scanner.Adapter
	log        logrus.FieldLogger
	now        func() time.Time
	adminURL   string
	version    string

	nav         nav.Navigator
	st          state
	login       loginForm
	alerts      []string
	notice      string
	helpOpen    bool
	bootSeq     uint64
	scanSeq     uint64
	scan        *scanSession
	authPending bool
	hidden      bool
	clock       time.Time
	width       int
	height      int
}

// NewApp creates the kiosk application. It starts on the loading page until
// the stored session has been checked.
func NewApp(d Deps) App {
	if d.Log == nil {
		d.Log = logging.Discard()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Scanner == nil {
		d.Scanner = func() *scanner.Adapter {
			return scanner.NewAdapter(scanner.NewDeviceDecoder(""), scanner.DefaultConfig())
		}
	}
	return App{
		client:     d.Client,
		store:      d.Store,
		newScanner: d.Scanner,
		log:        d.Log,
		now:        d.Now,
		adminURL:   d.AdminURL,
		version:    d.Version,
		nav:        nav.New(nav.Loading),
		clock:      d.Now(),
	}
}

func (a App) Init() tea.Cmd {
	return func() tea.Msg { return bootMsg{} }
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case bootMsg:
		return a.boot()

	case tea.BlurMsg:
		return a.hide()

	case tea.FocusMsg:
		// Only a return from Blur re-validates; some terminals report focus on startup.
		if !a.hidden {
			return a, nil
		}
		a.hidden = false
		return a.boot()

	case statusCheckedMsg:
		return a.restore(msg)

	case loginResultMsg:
		return a.loginFinished(msg)

	case qrDecodedMsg:
		return a.decoded(msg)

	case scanResultMsg:
		return a.scanFinished(msg)

	case tickMsg:
		return a.tick(msg)

	case noticeMsg:
		a.notice = msg.text
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

// tick advances a running timer. Ticks from stopped timers are dropped.
func (a App) tick(msg tickMsg) (App, tea.Cmd) {
	if !a.nav.Active(msg.handle) {
		return a, nil
	}
	now := a.now()
	a.clock = now
	if msg.handle.Kind() == nav.Countdown && a.st.window.Expired(now) {
		a.nav.Stop(msg.handle)
		a.log.Info("auth window expired")
		a.alert(msgExpired)
		cmd := a.fire(nav.WindowExpired)
		return a, cmd
	}
	return a, tickCmd(msg.handle)
}

func (a App) handleKey(msg tea.KeyMsg) (App, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		a.stopScanner()
		return a, tea.Quit
	}

	// Alerts are modal: nothing else sees keys until they are dismissed.
	if len(a.alerts) > 0 {
		switch msg.Type {
		case tea.KeyEnter, tea.KeyEsc, tea.KeySpace:
			a.alerts = a.alerts[1:]
		}
		return a, nil
	}

	if a.helpOpen {
		switch msg.String() {
		case "h", "esc":
			a.helpOpen = false
		case "enter":
			a.helpOpen = false
			return a, openAdmin(a.adminURL)
		}
		return a, nil
	}

	a.notice = ""
	switch a.nav.Page() {
	case nav.Login:
		var submit bool
		a.login, submit = a.login.update(msg)
		if submit {
			return a.loginDevice()
		}

	case nav.Home:
		switch msg.String() {
		case "s", "enter":
			return a.openQrScanner()
		case "a":
			return a.showAuthScreen()
		case "l":
			return a.logout()
		case "h":
			a.helpOpen = true
		case "q":
			return a, tea.Quit
		}

	case nav.Scanner:
		if msg.Type == tea.KeyEsc {
			return a.closeScanner()
		}

	case nav.AuthSuccess:
		switch msg.String() {
		case "esc", "enter":
			cmd := a.fire(nav.Dismiss)
			return a, cmd
		case "c":
			return a, copyConfirmation(a.confirmationText())
		}
	}
	return a, nil
}

// confirmationText is what "c" puts on the clipboard for the cafeteria log.
func (a App) confirmationText() string {
	var u domain.UserProfile
	if a.st.user != nil {
		u = *a.st.user
	}
	at := a.st.authTime
	if at == "" {
		at = a.st.lastAuthAt.Format("2006-01-02 15:04:05")
	}
	return fmt.Sprintf("식수 인증 %s %s (%s)", u.EmpNo, u.Summary(), at)
}

func copyConfirmation(text string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return noticeMsg{text: "복사 실패: " + err.Error()}
		}
		return noticeMsg{text: "인증 내역을 클립보드에 복사했습니다."}
	}
}

func openAdmin(url string) tea.Cmd {
	return func() tea.Msg {
		if err := browser.Open(url); err != nil {
			return noticeMsg{text: "관리자 페이지를 열 수 없습니다: " + err.Error()}
		}
		return noticeMsg{text: "브라우저에서 관리자 페이지를 열었습니다."}
	}
}

func (a App) View() string {
	header := lipgloss.PlaceHorizontal(a.width, lipgloss.Center, renderLogo())

	var body, help string
	switch a.nav.Page() {
	case nav.Login:
		body = a.login.view()
		help = helpEntry("tab", "다음") + "  " + helpEntry("enter", "인증") + "  " + helpEntry("ctrl+c", "종료")
	case nav.Loading:
		body = loadingView()
		help = ""
	case nav.Home:
		body = a.homeView()
		help = helpEntry("s", "QR 스캔") + "  " + helpEntry("a", "인증 화면") + "  " + helpEntry("l", "로그아웃") + "  " + helpEntry("h", "도움말") + "  " + helpEntry("q", "종료")
	case nav.Scanner:
		body = a.scannerView()
		help = helpEntry("esc", "닫기")
	case nav.AuthSuccess:
		body = a.authSuccessView()
		help = helpEntry("esc", "홈") + "  " + helpEntry("c", "복사")
	}

	if a.helpOpen {
		body = a.helpView()
		help = helpEntry("enter", "관리자 페이지") + "  " + helpEntry("esc", "닫기")
	}
	if len(a.alerts) > 0 {
		body = alertView(a.alerts[0], len(a.alerts)-1)
		help = helpEntry("enter", "확인")
	}

	body = lipgloss.PlaceHorizontal(a.width, lipgloss.Center, body)
	// Chrome: header(1) + gap(1) + notice(1) + help(1)
	body = truncateToHeight(body, a.height-4)

	notice := ""
	if a.notice != "" {
		notice = " " + dimStyle.Render(a.notice)
	}
	return fmt.Sprintf("%s\n\n%s\n%s\n %s", header, body, notice, help)
}
