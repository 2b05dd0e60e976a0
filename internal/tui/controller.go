package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-playground/validator/v10"

	"github.com/mealauth/mealauth/internal/nav"
	"github.com/mealauth/mealauth/internal/session"
	"github.com/mealauth/mealauth/pkg/client"
	"github.com/mealauth/mealauth/pkg/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Alert texts shown to the person at the kiosk.
const (
	msgFieldsRequired    = "사번, 이름, 초기 비밀번호를 모두 입력해주세요."
	msgDeviceVerified    = "기기 인증이 완료되었습니다. 이제 스캔 버튼을 눌러주세요."
	msgLoginRejected     = "인증에 실패했습니다."
	msgConnFailed        = "서버 연결 실패: "
	msgLoginMalformed    = "서버 연결 실패: 서버 응답 형식이 올바르지 않습니다 (JSON 아님)."
	msgNoToken           = "기기 인증 정보가 없습니다. 다시 로그인해주세요."
	msgCameraUnavailable = "보안 정책 또는 장치 문제로 카메라(QR 리더기)를 시작할 수 없습니다.\n\n리더기 연결 상태를 확인해 주세요."
	msgSessionRevoked    = "기기가 초기화되었거나 인증이 만료되었습니다. 다시 로그인(재인증)해 주세요."
	msgScanRejected      = "식수 인증에 실패했습니다."
	msgHTMLResponse      = "서버 연동 오류: API가 HTML을 반환했습니다.\n\n• 접속 주소와 서버 상태를 확인해 주세요."
	msgMalformed         = "서버 연동 오류: 응답 형식이 올바르지 않습니다."
	msgScanTransport     = "서버 연동 오류: "
	msgStoreFailed       = "인증 기록을 이 기기에 저장하지 못했습니다. 관리자에게 문의해 주세요."
	msgExpired           = "인증 시간이 만료되었습니다. 다시 시도해주세요."
	msgNoProfile         = "인증 정보가 없습니다. 먼저 QR을 스캔해주세요."
	msgReplayLapsed      = "인증 화면을 다시 볼 수 있는 시간(5분)이 지났습니다. 다시 스캔해주세요."
)

// statusCheckedMsg carries the backend verdict on a stored session.
type statusCheckedMsg struct {
	seq  uint64
	sess domain.Session
	err  error
}

// loginResultMsg carries the result of VerifyDevice.
type loginResultMsg struct {
	resp *domain.VerifyDeviceResponse
	err  error
}

// qrDecodedMsg carries a payload read by the scanner.
type qrDecodedMsg struct {
	seq     uint64
	payload string
}

// scanResultMsg carries the result of AuthorizeScan.
type scanResultMsg struct {
	seq uint64
	res *domain.ScanResult
	err error
}

// scanSession links one scanner run to the Update loop. payload is never
// closed so a late decoder callback cannot panic; done ends the wait.
type scanSession struct {
	payload chan string
	done    chan struct{}
}

func newScanSession() *scanSession {
	return &scanSession{payload: make(chan string, 1), done: make(chan struct{})}
}

func (s *scanSession) deliver(p string) {
	select {
	case s.payload <- p:
	default:
	}
}

func waitForDecode(seq uint64, s *scanSession) tea.Cmd {
	return func() tea.Msg {
		select {
		case p := <-s.payload:
			return qrDecodedMsg{seq: seq, payload: p}
		case <-s.done:
			return nil
		}
	}
}

// fire moves the navigator and schedules ticks for any timer it started.
func (a *App) fire(t nav.Trigger) tea.Cmd {
	tr, err := a.nav.Fire(t)
	if err != nil {
		a.log.WithField("page", a.nav.Page()).WithField("trigger", t).Debug("transition ignored")
		return nil
	}
	a.clock = a.now()
	a.log.WithField("from", tr.From).WithField("to", tr.To).Debug("page")
	cmds := make([]tea.Cmd, 0, len(tr.Started))
	for _, h := range tr.Started {
		cmds = append(cmds, tickCmd(h))
	}
	return tea.Batch(cmds...)
}

func (a *App) alert(text string) {
	a.alerts = append(a.alerts, text)
}

// boot reads the stored token and either shows login or validates it.
func (a App) boot() (App, tea.Cmd) {
	ctx := context.Background()
	sess, err := session.Load(ctx, a.store)
	if err != nil {
		a.log.WithError(err).Warn("session load failed, clearing")
		if cerr := session.Clear(ctx, a.store); cerr != nil {
			a.log.WithError(cerr).Error("session clear failed")
		}
		sess = domain.Session{}
	}
	if !sess.HasToken() {
		cmd := a.fire(nav.NoSession)
		return a, cmd
	}
	cmd := a.fire(nav.Restore)
	a.bootSeq++
	seq := a.bootSeq
	c := a.client.WithToken(sess.Token)
	return a, tea.Batch(cmd, func() tea.Msg {
		err := c.CheckStatus(context.Background())
		return statusCheckedMsg{seq: seq, sess: sess, err: err}
	})
}

func (a App) restore(msg statusCheckedMsg) (App, tea.Cmd) {
	if msg.seq != a.bootSeq || a.nav.Page() != nav.Loading {
		return a, nil
	}
	if msg.err != nil {
		a.log.WithError(msg.err).Info("stored session rejected")
		return a.logout()
	}
	if msg.sess.User == nil {
		a.log.Info("stored session has no cached profile")
		return a.logout()
	}
	a.client = a.client.WithToken(msg.sess.Token)
	a.st = state{
		loggedIn:   true,
		user:       msg.sess.User,
		lastAuthAt: msg.sess.LastAuthAt,
	}
	cmd := a.fire(nav.SessionValid)
	return a, cmd
}

// loginDevice validates the form and sends it to the backend.
func (a App) loginDevice() (App, tea.Cmd) {
	req := a.login.request()
	if err := validate.Struct(req); err != nil {
		a.alert(msgFieldsRequired)
		return a, nil
	}
	a.login.submitting = true
	c := a.client.WithToken("")
	return a, func() tea.Msg {
		resp, err := c.VerifyDevice(context.Background(), req.EmpNo, req.Name, req.Password)
		return loginResultMsg{resp: resp, err: err}
	}
}

func (a App) loginFinished(msg loginResultMsg) (App, tea.Cmd) {
	a.login.submitting = false
	if !nav.Allowed(a.nav.Page(), nav.DeviceVerified) {
		return a, nil
	}
	switch {
	case msg.err == nil:
	case client.IsTransport(msg.err):
		a.log.WithError(msg.err).Warn("device verification unreachable")
		a.alert(msgConnFailed + msg.err.Error())
		return a, nil
	case client.IsMalformed(msg.err):
		a.log.WithError(msg.err).Warn("device verification malformed response")
		a.alert(msgLoginMalformed)
		return a, nil
	default:
		a.log.WithError(msg.err).Info("device verification rejected")
		a.alert(orDefault(client.Detail(msg.err), msgLoginRejected))
		return a, nil
	}

	if err := session.SaveLogin(context.Background(), a.store, msg.resp.AccessToken, msg.resp.User); err != nil {
		a.log.WithError(err).Error("persist login failed")
		a.alert(msgStoreFailed)
		return a, nil
	}
	user := msg.resp.User
	a.client = a.client.WithToken(msg.resp.AccessToken)
	a.st = state{loggedIn: true, user: &user}
	a.login = a.login.resetSecret()
	a.alert(msgDeviceVerified)
	a.log.WithField("emp_no", user.EmpNo).Info("device verified")
	cmd := a.fire(nav.DeviceVerified)
	return a, cmd
}

// logout clears everything persisted and in memory and shows login.
func (a App) logout() (App, tea.Cmd) {
	a.stopScanner()
	if err := session.Clear(context.Background(), a.store); err != nil {
		a.log.WithError(err).Error("clear session failed")
	}
	a.st = state{}
	a.client = a.client.WithToken("")
	a.authPending = false
	cmd := a.fire(nav.Logout)
	return a, cmd
}

// openQrScanner shows the scanner page and starts decoding.
func (a App) openQrScanner() (App, tea.Cmd) {
	token, _, err := a.store.Get(context.Background(), session.KeyToken)
	if err != nil {
		a.log.WithError(err).Warn("token read failed")
	}
	if token == "" {
		a.alert(msgNoToken)
		return a.logout()
	}
	if !nav.Allowed(a.nav.Page(), nav.OpenScanner) {
		return a, nil
	}
	cmd := a.fire(nav.OpenScanner)

	if a.scanner == nil {
		a.scanner = a.newScanner()
	}
	a.scanSeq++
	sc := newScanSession()
	if err := a.scanner.Start(context.Background(), sc.deliver); err != nil {
		a.log.WithError(err).Warn("scanner start failed")
		a.alert(msgCameraUnavailable)
		back := a.fire(nav.CameraUnavailable)
		return a, tea.Batch(cmd, back)
	}
	a.scan = sc
	a.log.Debug("scanner started")
	return a, tea.Batch(cmd, waitForDecode(a.scanSeq, sc))
}

// stopScanner halts the decoder and releases the pending wait.
func (a *App) stopScanner() {
	if a.scan == nil {
		return
	}
	if err := a.scanner.Stop(); err != nil {
		a.log.WithError(err).Warn("scanner stop failed")
	}
	close(a.scan.done)
	a.scan = nil
	a.log.WithField("misses", a.scanner.Misses()).Debug("scanner stopped")
}

func (a App) closeScanner() (App, tea.Cmd) {
	a.stopScanner()
	a.authPending = false
	cmd := a.fire(nav.CloseScanner)
	return a, cmd
}

func (a App) decoded(msg qrDecodedMsg) (App, tea.Cmd) {
	if msg.seq != a.scanSeq || a.scan == nil || a.nav.Page() != nav.Scanner {
		return a, nil
	}
	a.stopScanner()
	return a.processQrAuth(msg.payload)
}

// processQrAuth asks the backend to authorize a meal for this device.
func (a App) processQrAuth(payload string) (App, tea.Cmd) {
	a.log.WithField("payload", payload).Info("qr decoded")
	a.authPending = true
	seq := a.scanSeq
	c := a.client
	return a, func() tea.Msg {
		res, err := c.AuthorizeScan(context.Background())
		return scanResultMsg{seq: seq, res: res, err: err}
	}
}

func (a App) scanFinished(msg scanResultMsg) (App, tea.Cmd) {
	if msg.seq != a.scanSeq || a.nav.Page() != nav.Scanner || !a.authPending {
		a.log.Debug("stale scan result discarded")
		return a, nil
	}
	a.authPending = false

	switch {
	case msg.err == nil:
	case client.IsMalformed(msg.err):
		a.log.WithError(msg.err).Warn("scan authorize malformed response")
		var m *client.MalformedResponseError
		if errors.As(msg.err, &m) && m.HTML {
			a.alert(msgHTMLResponse)
		} else {
			a.alert(msgMalformed)
		}
		cmd := a.fire(nav.ScanFailed)
		return a, cmd
	case client.IsUnauthorized(msg.err):
		a.log.WithError(msg.err).Warn("device trust revoked")
		a.alert(msgSessionRevoked)
		return a.logout()
	case client.IsTransport(msg.err):
		a.log.WithError(msg.err).Warn("scan authorize unreachable")
		a.alert(msgScanTransport + msg.err.Error())
		cmd := a.fire(nav.ScanFailed)
		return a, cmd
	default:
		a.log.WithError(msg.err).Info("scan rejected")
		a.alert(orDefault(client.Detail(msg.err), msgScanRejected))
		cmd := a.fire(nav.ScanFailed)
		return a, cmd
	}

	ctx := context.Background()
	var user domain.UserProfile
	if a.st.user != nil {
		user = *a.st.user
	}
	user = user.Merge(msg.res.User)
	now := a.now()
	a.st.user = &user
	a.st.lastAuthAt = now
	a.st.authTime = msg.res.AuthTime
	if err := session.SaveUser(ctx, a.store, user); err != nil {
		a.log.WithError(err).Error("persist user failed")
	}
	if err := session.SaveLastAuth(ctx, a.store, now); err != nil {
		a.log.WithError(err).Error("persist last auth failed")
		a.alert(msgStoreFailed)
	}
	a.log.WithField("log_id", msg.res.LogID).WithField("auth_time", msg.res.AuthTime).Info("meal authorized")
	return a.startAuth(nav.ScanAuthorized, domain.ScanWindow)
}

// startAuth shows the success page with a live clock and a countdown that
// ends window after the last successful auth.
func (a App) startAuth(t nav.Trigger, window time.Duration) (App, tea.Cmd) {
	cmd := a.fire(t)
	if a.nav.Page() != nav.AuthSuccess {
		return a, cmd
	}
	a.st.window = domain.NewAuthWindow(a.st.lastAuthAt, window)
	clock := a.nav.Start(nav.AuthClock)
	countdown := a.nav.Start(nav.Countdown)
	return a, tea.Batch(cmd, tickCmd(clock), tickCmd(countdown))
}

// showAuthScreen re-displays the last success without a new scan. A lapsed
// window leaves lastAuthAt alone so a later try cannot restart it.
func (a App) showAuthScreen() (App, tea.Cmd) {
	if a.st.user == nil {
		a.alert(msgNoProfile)
		return a, nil
	}
	if a.st.lastAuthAt.IsZero() || a.now().Sub(a.st.lastAuthAt) > domain.ReplayWindow {
		a.alert(msgReplayLapsed)
		cmd := a.fire(nav.ReplayLapsed)
		return a, cmd
	}
	return a.startAuth(nav.ReplayAuth, domain.ReplayWindow)
}

// hide shows Loading while the terminal is out of focus.
func (a App) hide() (App, tea.Cmd) {
	a.stopScanner()
	a.authPending = false
	a.hidden = true
	cmd := a.fire(nav.Hidden)
	return a, cmd
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
