package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/moviex/internal/auth"
	"github.com/desertthunder/moviex/internal/feed"
	"github.com/desertthunder/moviex/internal/formatter"
	"github.com/desertthunder/moviex/internal/locale"
	"github.com/desertthunder/moviex/internal/models"
	"github.com/desertthunder/moviex/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	FeedView ViewState = iota
	DetailView
	LoginView
	SignUpView
)

// MovieSource serves the feed listing and the detail record.
type MovieSource interface {
	feed.Source
	feed.DetailSource
}

// Accounts is the account backend behind the login and sign-up views.
type Accounts interface {
	Login(ctx context.Context, userID, password string) (*auth.Session, error)
	SignUp(ctx context.Context, form auth.SignUpForm) (*models.Profile, error)
	Hydrate(ctx context.Context) (*models.Profile, error)
	Logout(ctx context.Context) error
}

// Opts configures a [Model]. Movies is required; a nil Accounts hides the auth views.
type Opts struct {
	Movies       MovieSource
	Accounts     Accounts
	Switcher     *locale.Switcher
	Debounce     time.Duration
	PrefetchRows int
	ImageBase    string
	Style        string // glamour style, chosen from the terminal background when empty
	OpenURL      func(string) error
	Logger       *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	feed        *feed.SearchFeed
	detail      *feed.DetailFetcher
	accounts    Accounts
	switcher    *locale.Switcher
	menu        *locale.Menu
	unsubscribe func()
	openURL     func(string) error
	imageBase   string
	style       string
	logger      *log.Logger

	sendMu sync.Mutex
	send   func(tea.Msg)

	width      int
	height     int
	input      textinput.Model
	list       list.Model
	listFocus  bool
	viewport   viewport.Model
	spinner    spinner.Model
	help       help.Model
	keys       keyMap
	feedSnap   feed.Snapshot
	detailSnap feed.DetailSnapshot
	card       string
	profile    *models.Profile
	form       *form
	status     string
}

// NewModel creates a new TUI model. Call [Model.SetSender] with the program's Send before running it.
func NewModel(ctx context.Context, opts Opts) *Model {
	if opts.Switcher == nil {
		opts.Switcher = locale.NewSwitcher(locale.Default)
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	l := opts.Switcher.Active()

	m := &Model{
		ctx:       ctx,
		view:      FeedView,
		accounts:  opts.Accounts,
		switcher:  opts.Switcher,
		menu:      locale.NewMenu(opts.Switcher),
		openURL:   opts.OpenURL,
		imageBase: opts.ImageBase,
		style:     opts.Style,
		logger:    shared.WithLogger(opts.Logger, "component", "ui"),
		viewport:  viewport.New(0, 0),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:      help.New(),
		keys:      newKeyMap(),
	}

	m.feed = feed.NewSearchFeed(feed.Opts{
		Source:       opts.Movies,
		Locale:       l,
		Debounce:     opts.Debounce,
		PrefetchRows: opts.PrefetchRows,
		Logger:       opts.Logger,
		OnUpdate:     func(s feed.Snapshot) { m.dispatch(feedUpdatedMsg(s)) },
	})
	m.detail = feed.NewDetailFetcher(feed.DetailOpts{
		Source:   opts.Movies,
		Locale:   l,
		Logger:   opts.Logger,
		OnUpdate: func(s feed.DetailSnapshot) { m.dispatch(detailUpdatedMsg(s)) },
	})
	m.unsubscribe = opts.Switcher.Subscribe(func(l locale.Locale) {
		m.feed.SetLocale(l)
		m.detail.SetLocale(l)
	})

	m.input = textinput.New()
	m.input.Prompt = "> "
	m.input.CharLimit = 200
	m.input.Placeholder = locale.T(l, locale.KeySearchPlaceholder)
	m.input.Focus()

	m.list = list.New(nil, list.NewDefaultDelegate(), 0, 0)
	m.list.SetShowTitle(false)
	m.list.SetShowStatusBar(false)
	m.list.SetShowHelp(false)
	m.list.SetFilteringEnabled(false)
	m.list.KeyMap.Quit.SetEnabled(false)
	m.list.KeyMap.ForceQuit.SetEnabled(false)
	return m
}

// SetSender connects the model to a running program. Feed and detail snapshots are delivered through fn.
func (m *Model) SetSender(fn func(tea.Msg)) {
	m.sendMu.Lock()
	defer m.sendMu.Unlock()
	m.send = fn
}

// dispatch delivers msg off the calling goroutine. Snapshots may be emitted from inside Update, where a
// blocking Send would deadlock; ordering is restored by the sequence check.
func (m *Model) dispatch(msg tea.Msg) {
	m.sendMu.Lock()
	send := m.send
	m.sendMu.Unlock()
	if send != nil {
		go send(msg)
	}
}

// Close stops the feed and detail fetchers and detaches from the locale switcher.
func (m *Model) Close() {
	m.unsubscribe()
	m.feed.Close()
	m.detail.Close()
}

func (m *Model) active() locale.Locale { return m.switcher.Active() }

// Init starts the popular listing and restores the saved session.
func (m *Model) Init() tea.Cmd {
	m.feed.Start()
	m.applyFeed(m.feed.Snapshot())

	cmds := []tea.Cmd{m.spinner.Tick, textinput.Blink}
	if m.accounts != nil {
		cmds = append(cmds, m.hydrate())
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateInputs(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgFeedUpdated:
		return m, m.applyFeed(msg.data.(feed.Snapshot))

	case MsgDetailUpdated:
		m.applyDetail(msg.data.(feed.DetailSnapshot))
		return m, nil

	case MsgProfileLoaded:
		res := msg.data.(authResult)
		if res.err != nil && !errors.Is(res.err, shared.ErrNotAuthenticated) {
			m.logger.Warn("session restore failed", "err", res.err)
		}
		m.profile = res.profile
		return m, nil

	case MsgLoginDone:
		res := msg.data.(authResult)
		if m.form == nil || m.view != LoginView {
			return m, nil
		}
		if res.err != nil {
			return m, m.form.fail(res.err, m.active(), locale.KeyLoginError)
		}
		m.profile = res.profile
		m.form = nil
		m.view = FeedView
		m.status = ""
		return m, nil

	case MsgSignUpDone:
		res := msg.data.(authResult)
		if m.form == nil || m.view != SignUpView {
			return m, nil
		}
		if res.err != nil {
			return m, m.form.fail(res.err, m.active(), locale.KeySignUpFailed)
		}
		userID := m.form.value(fieldUserID)
		m.form = newLoginForm(m.active())
		m.form.setValue(fieldUserID, userID)
		m.form.notice = locale.T(m.active(), locale.KeySignUpSuccess)
		m.view = LoginView
		return m, m.form.focusField(fieldPassword)

	case MsgLogoutDone:
		if err, _ := msg.data.(error); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.profile = nil
		return m, nil

	case MsgBrowserOpened:
		if err, _ := msg.data.(error); err != nil {
			m.status = err.Error()
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.menu.IsOpen() {
		if m.menu.HandleKey(msg.String()) {
			return m, m.localeChanged()
		}
		return m, nil
	}

	if key.Matches(msg, m.keys.locale) && (msg.String() == "ctrl+l" || !m.typing()) {
		m.menu.Open()
		return m, nil
	}

	switch m.view {
	case FeedView:
		if !m.listFocus {
			return m.handleSearchKeys(msg)
		}
		return m.handleListKeys(msg)
	case DetailView:
		return m.handleDetailKeys(msg)
	case LoginView, SignUpView:
		return m.handleFormKeys(msg)
	}
	return m, nil
}

// typing reports whether key presses are going into a text input.
func (m *Model) typing() bool {
	return (m.view == FeedView && !m.listFocus) || m.view == LoginView || m.view == SignUpView
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.feed.SetQuery(strings.TrimSpace(m.input.Value()))
		m.focusList()
		return m, m.applyFeed(m.feed.Snapshot())
	case "esc", "tab", "down":
		m.focusList()
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != before {
		m.feed.Input(v)
	}
	return m, cmd
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.focus):
		m.listFocus = false
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.enter):
		if it, ok := m.list.SelectedItem().(movieItem); ok {
			m.openDetail(it.movie.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		m.feed.Refresh()
		return m, m.applyFeed(m.feed.Snapshot())
	case m.accounts != nil && key.Matches(msg, m.keys.login) && m.profile == nil:
		return m, m.openForm(LoginView)
	case m.accounts != nil && key.Matches(msg, m.keys.signUp) && m.profile == nil:
		return m, m.openForm(SignUpView)
	case m.accounts != nil && key.Matches(msg, m.keys.logout) && m.profile != nil:
		return m, m.logout()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	if m.feed.Near(m.list.Index()) {
		return m, tea.Batch(cmd, m.applyFeed(m.feed.Snapshot()))
	}
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = FeedView
		return m, nil
	case key.Matches(msg, m.keys.open):
		if mv := m.detailSnap.Movie; mv != nil {
			return m, m.browse(mv.PageURL())
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.form = nil
		m.view = FeedView
		return m, nil
	case key.Matches(msg, m.keys.next):
		return m, m.form.next()
	case key.Matches(msg, m.keys.prev):
		return m, m.form.prev()
	case key.Matches(msg, m.keys.enter):
		if !m.form.last() {
			return m, m.form.next()
		}
		return m, m.submit()
	}
	return m, m.form.update(msg)
}

// handleMouse closes the language popover on a click outside it and selects the entry under a click inside.
func (m *Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !m.menu.IsOpen() || msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}

	box := m.popoverView()
	top, left := 1, 0
	inside := msg.Y >= top && msg.Y < top+lipgloss.Height(box) && msg.X >= left && msg.X < left+lipgloss.Width(box)
	if !inside {
		m.menu.ClickOutside()
		return m, nil
	}

	row := msg.Y - top - 1
	if items := m.menu.Items(); row >= 0 && row < len(items) {
		if m.menu.Select(items[row]) {
			return m, m.localeChanged()
		}
	}
	return m, nil
}

func (m *Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case FeedView:
		if m.listFocus {
			m.list, cmd = m.list.Update(msg)
		} else {
			m.input, cmd = m.input.Update(msg)
		}
	case DetailView:
		m.viewport, cmd = m.viewport.Update(msg)
	case LoginView, SignUpView:
		cmd = m.form.update(msg)
	}
	return m, cmd
}

func (m *Model) focusList() {
	m.input.Blur()
	m.listFocus = true
}

func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	m.input.Width = max(w-4, 10)
	m.list.SetSize(w, max(h-6, 3))
	m.viewport.Width = w
	m.viewport.Height = max(h-4, 3)
	m.renderCard()
}

// applyFeed installs s unless a newer snapshot was already applied.
func (m *Model) applyFeed(s feed.Snapshot) tea.Cmd {
	if s.Seq <= m.feedSnap.Seq {
		return nil
	}
	reset := s.Query != m.feedSnap.Query || s.Locale != m.feedSnap.Locale
	m.feedSnap = s
	cmd := m.list.SetItems(movieItems(s.Items, s.Locale))
	if reset {
		m.list.ResetSelected()
	}
	return cmd
}

// applyDetail installs s unless a newer snapshot was already applied.
func (m *Model) applyDetail(s feed.DetailSnapshot) {
	if s.Seq <= m.detailSnap.Seq {
		return
	}
	m.detailSnap = s
	m.renderCard()
}

func (m *Model) renderCard() {
	s := m.detailSnap
	if s.Status != feed.DetailLoaded || s.Movie == nil {
		m.card = ""
		return
	}

	card, err := formatter.RenderDetail(*s.Movie, s.Locale, formatter.RenderOpts{
		Width:     m.width,
		Style:     m.style,
		ImageBase: m.imageBase,
	})
	if err != nil {
		m.logger.Warn("render failed", "id", s.ID, "err", err)
		card = formatter.DetailMarkdown(*s.Movie, s.Locale, m.imageBase)
	}
	m.card = card
	m.viewport.SetContent(card)
	m.viewport.GotoTop()
}

func (m *Model) openDetail(id int64) {
	m.view = DetailView
	m.status = ""
	m.detail.Fetch(id, m.active())
	m.applyDetail(m.detail.Snapshot())
}

// localeChanged relabels visible text after a language switch. The feed and detail refetch through the
// switcher subscription.
func (m *Model) localeChanged() tea.Cmd {
	l := m.active()
	m.input.Placeholder = locale.T(l, locale.KeySearchPlaceholder)
	if m.form != nil {
		m.form.relabel(l)
	}
	m.applyDetail(m.detail.Snapshot())
	return m.applyFeed(m.feed.Snapshot())
}

func (m *Model) openForm(v ViewState) tea.Cmd {
	m.view = v
	m.status = ""
	if v == SignUpView {
		m.form = newSignUpForm(m.active())
	} else {
		m.form = newLoginForm(m.active())
	}
	return textinput.Blink
}

func (m *Model) submit() tea.Cmd {
	if m.form.busy {
		return nil
	}
	m.form.clearError()
	m.form.notice = ""
	m.form.busy = true

	ctx := m.ctx
	if m.view == SignUpView {
		f := m.form.signUpForm()
		return func() tea.Msg {
			p, err := m.accounts.SignUp(ctx, f)
			return signUpDoneMsg(p, err)
		}
	}

	userID, password := m.form.value(fieldUserID), m.form.value(fieldPassword)
	return func() tea.Msg {
		sess, err := m.accounts.Login(ctx, userID, password)
		if err != nil {
			return loginDoneMsg(nil, err)
		}
		return loginDoneMsg(&sess.User, nil)
	}
}

func (m *Model) hydrate() tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		p, err := m.accounts.Hydrate(ctx)
		return profileLoadedMsg(p, err)
	}
}

func (m *Model) logout() tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return logoutDoneMsg(m.accounts.Logout(ctx))
	}
}

func (m *Model) browse(url string) tea.Cmd {
	open := m.openURL
	return func() tea.Msg {
		return browserOpenedMsg(open(url))
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case FeedView:
		body = m.renderFeed()
	case DetailView:
		body = m.renderDetail()
	case LoginView:
		body = m.form.view(locale.T(m.active(), locale.KeyLogin), m.active())
		body += m.help.ShortHelpView([]key.Binding{m.keys.next, m.keys.enter, m.keys.back})
	case SignUpView:
		body = m.form.view(locale.T(m.active(), locale.KeySignUp), m.active())
		body += m.help.ShortHelpView([]key.Binding{m.keys.next, m.keys.enter, m.keys.back})
	}

	if m.menu.IsOpen() {
		body = m.popoverView() + "\n" + body
	}
	if m.status != "" {
		body += "\n" + styles.warn.Render(m.status)
	}
	return m.renderHeader() + "\n" + body
}

func (m *Model) renderHeader() string {
	l := m.active()
	left := styles.ok.Render("moviex") + "  " + l.Label()

	var right string
	switch {
	case m.accounts == nil:
	case m.profile != nil:
		right = fmt.Sprintf("%s (%s)", m.profile.Name, m.profile.Provider)
	default:
		right = styles.help.Render(fmt.Sprintf("l %s · s %s", locale.T(l, locale.KeyLogin), locale.T(l, locale.KeySignUp)))
	}

	line := left
	if right != "" {
		line = left + "  " + right
	}
	if l.Direction() == locale.RTL && m.width > 0 {
		return lipgloss.NewStyle().Width(m.width).Align(lipgloss.Right).Render(line)
	}
	return line
}

func (m *Model) popoverView() string {
	var b strings.Builder
	for i, l := range m.menu.Items() {
		if i > 0 {
			b.WriteString("\n")
		}
		label := l.Label()
		switch {
		case i == m.menu.Cursor():
			label = styles.active.Render(label)
		case l == m.active():
			label = styles.ok.Render(label)
		}
		b.WriteString(label)
	}
	return styles.popover.Render(b.String())
}

func (m *Model) renderFeed() string {
	l := m.active()
	s := m.feedSnap

	var status string
	switch {
	case s.Loading:
		status = m.spinner.View() + " " + locale.T(l, locale.KeyLoading)
	case s.Err != nil:
		status = styles.err.Render(s.Err.Error())
	case len(s.Items) == 0 && s.Page > 0:
		status = styles.help.Render(locale.T(l, locale.KeyNoResults))
	case len(s.Failed) > 0:
		names := make([]string, len(s.Failed))
		for i, f := range s.Failed {
			names[i] = f.Locale.Label()
		}
		status = styles.warn.Render("unavailable: " + strings.Join(names, ", "))
	}

	keys := []key.Binding{m.keys.focus, m.keys.enter, m.keys.locale}
	if s.Err != nil {
		keys = append(keys, m.keys.refresh)
	}
	if m.accounts != nil {
		if m.profile == nil {
			keys = append(keys, m.keys.login, m.keys.signUp)
		} else {
			keys = append(keys, m.keys.logout)
		}
	}
	keys = append(keys, m.keys.quit)

	return fmt.Sprintf("%s\n%s\n%s\n%s", m.input.View(), m.list.View(), status, m.help.ShortHelpView(keys))
}

func (m *Model) renderDetail() string {
	l := m.active()
	var body string
	switch m.detailSnap.Status {
	case feed.DetailLoading:
		body = m.spinner.View() + " " + locale.T(l, locale.KeyLoading)
	case feed.DetailNotFound:
		body = styles.err.Render(locale.T(l, locale.KeyNotFound))
	case feed.DetailLoaded:
		body = m.viewport.View()
	}

	back := key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", locale.T(l, locale.KeyBack)))
	return fmt.Sprintf("%s\n\n%s", body, m.help.ShortHelpView([]key.Binding{back, m.keys.open, m.keys.locale, m.keys.quit}))
}
