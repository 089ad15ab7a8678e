package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/stefanpenner/tempo/pkg/api"
	"github.com/stefanpenner/tempo/pkg/board"
	"github.com/stefanpenner/tempo/pkg/plan"
	"github.com/stefanpenner/tempo/pkg/store"
)

// StateChangedMsg is sent when the file watcher sees another process write
// the state database.
type StateChangedMsg struct{}

// PlansLoadedMsg is sent when a plan load finishes.
type PlansLoadedMsg struct {
	Err error
}

// HealthMsg carries the result of a backend health check.
type HealthMsg struct {
	OK  bool
	Err error
}

type healthTickMsg struct{}

// EventCreatedMsg is sent when the calendar event gating a move to doing
// has been created or has failed.
type EventCreatedMsg struct {
	Ref   board.TaskRef
	Event *api.Event
	Err   error
}

// PushDoneMsg is sent when unsynced plans were pushed to the backend.
type PushDoneMsg struct {
	Accepted int
	Err      error
}

// LoginDoneMsg is sent when a login attempt finishes.
type LoginDoneMsg struct {
	Username string
	Err      error
}

// EditorFinishedMsg is sent when $EDITOR returns.
type EditorFinishedMsg struct {
	PlanID string
	Path   string
	Err    error
}

// PlanSavedMsg is sent when an edited plan was sent to the backend.
type PlanSavedMsg struct {
	Result *plan.Result
	Err    error
}

// Client is the part of the backend the TUI calls directly. Plan loads and
// status pushes go through the board.
type Client interface {
	Health(ctx context.Context) (*api.Health, error)
	Login(ctx context.Context, username, password string) (*api.LoginResult, error)
	CreateEvent(ctx context.Context, in api.EventInput) (*api.Event, error)
	ResolveEventType(ctx context.Context, ref string) (*api.EventType, error)
	UpdatePlan(ctx context.Context, id string, d plan.Draft) (*plan.Result, error)
}

// Options tunes the model.
type Options struct {
	HealthInterval time.Duration
	Logger         *slog.Logger
}

type viewMode int

const (
	modeBoard viewMode = iota
	modePlans
)

// Event modal fields.
const (
	eventTitle = iota
	eventStart
	eventDuration
	eventType
)

// Model is the Bubble Tea model for the execution board.
type Model struct {
	ctx            context.Context
	board          *board.Board
	client         Client
	logger         *slog.Logger
	healthInterval time.Duration
	keys           KeyMap
	width          int
	height         int
	mode           viewMode

	// Board view
	view board.View
	lane int
	rows [4]int

	// Plans view
	planItems    []PlanItem
	planExpanded map[string]bool
	planCursor   int

	// Backend state
	online        bool
	checkedHealth bool
	busy          map[string]bool
	pushAgain     bool

	// Modal state
	showHelpModal bool

	showEventModal bool
	eventCard      board.TaskCard
	eventInputs    []textinput.Model
	eventFocus     int
	eventErr       string

	showLoginModal bool
	loginInputs    []textinput.Model
	loginFocus     int
	loginErr       string

	// Search state (plans view)
	isSearching bool
	searchQuery string

	// Status message
	statusMsg     string
	statusTimeout time.Time

	// Cached glamour renderer (expensive to create)
	glamourRenderer *glamour.TermRenderer
	glamourWidth    int
}

// NewModel creates a new TUI model over a board and the backend client.
func NewModel(ctx context.Context, b *board.Board, client Client, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.HealthInterval <= 0 {
		opts.HealthInterval = 30 * time.Second
	}
	m := Model{
		ctx:            ctx,
		board:          b,
		client:         client,
		logger:         opts.Logger,
		healthInterval: opts.HealthInterval,
		keys:           DefaultKeyMap(),
		planExpanded:   make(map[string]bool),
		busy:           make(map[string]bool),
	}
	m.refresh(false)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	m.busy["load"] = true
	m.busy["health"] = true
	return tea.Batch(
		tea.WindowSize(),
		m.loadPlans(false),
		m.checkHealth(),
		m.healthTick(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.getGlamourRenderer(m.detailsWidth() - 2)
		return m, tea.ClearScreen

	case StateChangedMsg:
		m.board.Reload()
		m.refresh(false)
		return m, nil

	case PlansLoadedMsg:
		m.busy["load"] = false
		if msg.Err != nil {
			m.logger.Warn("plan load failed", "error", msg.Err)
			if errors.Is(msg.Err, api.ErrUnauthorized) {
				m.openLoginModal("Session expired, log in again")
				return m, m.refresh(false)
			}
			m.setStatus("Cannot load plans: " + msg.Err.Error())
			return m, m.refresh(false)
		}
		return m, m.refresh(true)

	case HealthMsg:
		m.busy["health"] = false
		wasOnline := m.online
		m.online = msg.OK
		m.checkedHealth = true
		if !msg.OK || wasOnline {
			return m, nil
		}
		var cmds []tea.Cmd
		if !m.board.Plans.Loaded() && !m.busy["load"] {
			m.busy["load"] = true
			cmds = append(cmds, m.loadPlans(false))
		}
		if len(m.board.Sync.Unsynced()) > 0 {
			cmds = append(cmds, m.startPush())
		}
		return m, tea.Batch(cmds...)

	case healthTickMsg:
		var cmds []tea.Cmd
		if !m.busy["health"] {
			m.busy["health"] = true
			cmds = append(cmds, m.checkHealth())
		}
		cmds = append(cmds, m.healthTick())
		return m, tea.Batch(cmds...)

	case EventCreatedMsg:
		m.busy["event"] = false
		if msg.Err != nil {
			if errors.Is(msg.Err, api.ErrUnauthorized) {
				m.closeEventModal()
				m.openLoginModal("Session expired, log in again")
				return m, nil
			}
			m.eventErr = msg.Err.Error()
			return m, nil
		}
		m.closeEventModal()
		moved, err := m.board.MoveTask(m.ctx, msg.Ref, store.TaskDoing, board.Approve)
		if err != nil {
			m.setStatus("Error: " + err.Error())
			return m, m.refresh(false)
		}
		if moved && msg.Event != nil {
			m.setStatus("Scheduled: " + msg.Event.Title)
		}
		return m, m.refresh(true)

	case PushDoneMsg:
		m.busy["push"] = false
		if msg.Err != nil {
			m.logger.Warn("push failed", "error", msg.Err)
			if errors.Is(msg.Err, api.ErrUnauthorized) {
				m.openLoginModal("Session expired, log in again")
			} else {
				m.setStatus("Sync failed, changes kept locally: " + msg.Err.Error())
			}
		} else if msg.Accepted > 0 {
			m.setStatus(fmt.Sprintf("Synced %d plan(s)", msg.Accepted))
		}
		// A render can re-derive a status the backend answered differently.
		cmd := m.refresh(msg.Err == nil)
		if m.pushAgain {
			m.pushAgain = false
			cmd = m.startPush()
		}
		return m, cmd

	case LoginDoneMsg:
		m.busy["login"] = false
		if msg.Err != nil {
			m.loginErr = msg.Err.Error()
			return m, nil
		}
		m.showLoginModal = false
		m.setStatus("Logged in as " + msg.Username)
		m.busy["load"] = true
		cmds := []tea.Cmd{m.loadPlans(true)}
		if len(m.board.Sync.Unsynced()) > 0 {
			cmds = append(cmds, m.startPush())
		}
		return m, tea.Batch(cmds...)

	case EditorFinishedMsg:
		return m.finishEdit(msg)

	case PlanSavedMsg:
		m.busy["save"] = false
		if msg.Err != nil {
			var apiErr *api.Error
			if errors.As(msg.Err, &apiErr) && apiErr.RemainingScore != nil {
				m.setStatus(fmt.Sprintf("Save failed: %s (%d points left)", apiErr.Message, *apiErr.RemainingScore))
			} else {
				m.setStatus("Save failed: " + msg.Err.Error())
			}
			return m, nil
		}
		m.board.ApplyResult(msg.Result)
		m.setStatus("Saved: " + msg.Result.Plan.Title)
		return m, m.refresh(true)

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	// Forward blink and other input messages to the focused field
	if m.showEventModal {
		var cmd tea.Cmd
		m.eventInputs[m.eventFocus], cmd = m.eventInputs[m.eventFocus].Update(msg)
		return m, cmd
	}
	if m.showLoginModal {
		var cmd tea.Cmd
		m.loginInputs[m.loginFocus], cmd = m.loginInputs[m.loginFocus].Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showEventModal {
		return m.handleEventModal(msg)
	}

	if m.showLoginModal {
		return m.handleLoginModal(msg)
	}

	if m.isSearching {
		return m.handleSearchInput(msg)
	}

	if m.showHelpModal {
		switch msg.String() {
		case "esc", "enter", "?", "q":
			m.showHelpModal = false
		}
		return m, nil
	}

	// If search filter is active (not typing), Esc clears it
	if m.mode == modePlans && m.searchQuery != "" && msg.Type == tea.KeyEsc {
		curID := m.selectedPlanItemID()
		m.searchQuery = ""
		m.rebuildPlanItems()
		m.focusPlanItem(curID)
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelpModal = true
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		if m.mode == modeBoard {
			m.mode = modePlans
		} else {
			m.mode = modeBoard
		}
		m.refresh(false)
		return m, nil

	case key.Matches(msg, m.keys.Reload):
		if m.busy["load"] {
			return m, nil
		}
		m.busy["load"] = true
		m.board.Reload()
		m.setStatus("Reloading…")
		return m, m.loadPlans(true)

	case key.Matches(msg, m.keys.Sync):
		if len(m.board.Sync.Unsynced()) == 0 {
			m.setStatus("Nothing to sync")
			return m, nil
		}
		m.checkedHealth = false
		return m, m.startPush()

	case key.Matches(msg, m.keys.Login):
		m.openLoginModal("")
		return m, textinput.Blink
	}

	if m.mode == modePlans {
		return m.handlePlansKey(msg)
	}
	return m.handleBoardKey(msg)
}

func (m Model) handleBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.laneItems(m.lane)

	switch {
	case key.Matches(msg, m.keys.Left):
		if m.lane > 0 {
			m.lane--
		}

	case key.Matches(msg, m.keys.Right):
		if m.lane < len(store.Lanes)-1 {
			m.lane++
		}

	case key.Matches(msg, m.keys.Up):
		if m.rows[m.lane] > 0 {
			m.rows[m.lane]--
		}

	case key.Matches(msg, m.keys.Down):
		if m.rows[m.lane] < len(items)-1 {
			m.rows[m.lane]++
		}

	case key.Matches(msg, m.keys.Enter):
		item, ok := m.selectedLaneItem()
		if ok && item.Goal != nil {
			m.board.ToggleExpanded(item.Goal.PlanID, item.Goal.GoalID)
			m.refresh(false)
		}

	case key.Matches(msg, m.keys.Dequeue):
		item, ok := m.selectedLaneItem()
		if !ok || item.Goal == nil {
			m.setStatus("Select a goal card to remove it")
			break
		}
		if m.board.Dequeue(item.Goal.PlanID, item.Goal.GoalID) {
			m.setStatus("Removed from board: " + item.Goal.GoalName)
		}
		return m, m.refresh(true)

	case key.Matches(msg, m.keys.Backlog):
		return m.moveSelected(store.TaskBacklog)

	case key.Matches(msg, m.keys.Todo):
		return m.moveSelected(store.TaskTodo)

	case key.Matches(msg, m.keys.Doing):
		return m.moveSelected(store.TaskDoing)

	case key.Matches(msg, m.keys.Done):
		return m.moveSelected(store.TaskDone)

	case key.Matches(msg, m.keys.LanePrev), key.Matches(msg, m.keys.LaneNext):
		item, ok := m.selectedLaneItem()
		if !ok || item.Task == nil {
			break
		}
		idx := laneIndex(item.Task.Lane)
		if key.Matches(msg, m.keys.LanePrev) {
			idx--
		} else {
			idx++
		}
		if idx < 0 || idx >= len(store.Lanes) {
			break
		}
		return m.moveSelected(store.Lanes[idx])
	}

	return m, nil
}

// moveSelected moves the selected task. Backlog means dropping it on its
// own goal card; doing opens the event modal and commits once the event is
// created.
func (m Model) moveSelected(lane store.TaskStatus) (tea.Model, tea.Cmd) {
	item, ok := m.selectedLaneItem()
	if !ok || item.Task == nil {
		m.setStatus("Select a task to move it")
		return m, nil
	}
	card := *item.Task
	if card.Lane == lane {
		return m, nil
	}

	switch lane {
	case store.TaskBacklog:
		if m.board.DropOnGoal(card.Ref(), card.PlanID, card.GoalID) {
			m.setStatus("Back to " + card.GoalName)
		}
		return m, m.refresh(true)

	case store.TaskDoing:
		m.openEventModal(card)
		return m, textinput.Blink
	}

	moved, err := m.board.MoveTask(m.ctx, card.Ref(), lane, nil)
	if err != nil {
		m.setStatus("Error: " + err.Error())
		return m, nil
	}
	if moved {
		m.setStatus(fmt.Sprintf("%s → %s", card.Text, lane))
	}
	return m, m.refresh(true)
}

func (m Model) handlePlansKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.planCursor > 0 {
			m.planCursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.planCursor < len(m.planItems)-1 {
			m.planCursor++
		}

	case key.Matches(msg, m.keys.Right):
		if item, ok := m.selectedPlanItem(); ok && item.IsPlan() && !item.IsExpanded {
			m.planExpanded[item.ID] = true
			m.rebuildPlanItems()
		}

	case key.Matches(msg, m.keys.Left):
		item, ok := m.selectedPlanItem()
		if !ok {
			break
		}
		if item.IsPlan() {
			delete(m.planExpanded, item.ID)
			m.rebuildPlanItems()
		} else {
			m.focusPlanItem(item.ParentID)
		}

	case key.Matches(msg, m.keys.Enter):
		if item, ok := m.selectedPlanItem(); ok && item.IsPlan() {
			if m.planExpanded[item.ID] {
				delete(m.planExpanded, item.ID)
			} else {
				m.planExpanded[item.ID] = true
			}
			m.rebuildPlanItems()
		}

	case key.Matches(msg, m.keys.Space):
		item, ok := m.selectedPlanItem()
		if !ok || item.IsPlan() {
			break
		}
		queued, err := m.board.ToggleQueued(item.ParentID, item.Goal.ID)
		if err != nil {
			m.setStatus("Error: " + err.Error())
			break
		}
		if queued {
			m.setStatus("Queued: " + item.Name)
		} else {
			m.setStatus("Removed from board: " + item.Name)
		}
		return m, m.refresh(true)

	case key.Matches(msg, m.keys.ExternalEdit):
		item, ok := m.selectedPlanItem()
		if !ok || m.busy["save"] {
			break
		}
		return m, m.openEditor(item.Plan)

	case key.Matches(msg, m.keys.Search):
		m.isSearching = true
		return m, nil
	}

	return m, nil
}

func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.isSearching = false
		m.searchQuery = ""
		m.rebuildPlanItems()
		return m, nil

	case tea.KeyEnter, tea.KeyDown, tea.KeyTab:
		// Keep the filter, leave the input
		m.isSearching = false
		return m, nil

	case tea.KeyBackspace:
		if len(m.searchQuery) > 0 {
			_, size := utf8.DecodeLastRuneInString(m.searchQuery)
			m.searchQuery = m.searchQuery[:len(m.searchQuery)-size]
		}
		m.rebuildPlanItems()
		return m, nil

	default:
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			m.searchQuery += string(msg.Runes)
			m.planCursor = 0
			m.rebuildPlanItems()
		}
		return m, nil
	}
}

func (m Model) handleEventModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		if m.busy["event"] {
			return m, nil
		}
		m.closeEventModal()
		m.setStatus("Cancelled")
		return m, nil

	case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
		m.eventInputs[m.eventFocus].Blur()
		n := len(m.eventInputs)
		if msg.Type == tea.KeyShiftTab || msg.Type == tea.KeyUp {
			m.eventFocus = (m.eventFocus - 1 + n) % n
		} else {
			m.eventFocus = (m.eventFocus + 1) % n
		}
		return m, m.eventInputs[m.eventFocus].Focus()

	case tea.KeyEnter:
		return m.submitEvent()
	}

	var cmd tea.Cmd
	m.eventInputs[m.eventFocus], cmd = m.eventInputs[m.eventFocus].Update(msg)
	return m, cmd
}

func (m Model) submitEvent() (tea.Model, tea.Cmd) {
	if m.busy["event"] {
		return m, nil
	}
	in, err := m.eventInput(time.Now())
	if err != nil {
		m.eventErr = err.Error()
		return m, nil
	}
	m.eventErr = ""
	m.busy["event"] = true

	client, ctx, ref := m.client, m.ctx, m.eventCard.Ref()
	typeRef := m.eventInputs[eventType].Value()
	return m, func() tea.Msg {
		et, err := client.ResolveEventType(ctx, typeRef)
		if err != nil {
			return EventCreatedMsg{Ref: ref, Err: err}
		}
		ev, err := client.CreateEvent(ctx, in.WithType(et))
		return EventCreatedMsg{Ref: ref, Event: ev, Err: err}
	}
}

// eventInput reads the event modal fields.
func (m Model) eventInput(now time.Time) (api.EventInput, error) {
	start, err := api.ParseStart(m.eventInputs[eventStart].Value(), now)
	if err != nil {
		return api.EventInput{}, err
	}
	dur, err := time.ParseDuration(strings.TrimSpace(m.eventInputs[eventDuration].Value()))
	if err != nil || dur <= 0 {
		return api.EventInput{}, fmt.Errorf("duration must look like 30m or 1h30m")
	}
	in := api.EventInput{
		Title:  m.eventInputs[eventTitle].Value(),
		Start:  start,
		End:    start.Add(dur),
		Remark: m.eventCard.PlanTitle + " / " + m.eventCard.GoalName,
	}
	return in, in.Validate()
}

func (m *Model) openEventModal(card board.TaskCard) {
	title := newInput("what", 120)
	title.SetValue(card.Text)
	title.Focus()
	start := newInput(api.InputLayout, 32)
	start.SetValue(api.NextSlot(time.Now()).Format(api.InputLayout))
	dur := newInput("1h", 16)
	dur.SetValue("1h")
	typ := newInput("event type (optional)", 64)

	m.eventInputs = []textinput.Model{title, start, dur, typ}
	m.eventFocus = eventTitle
	m.eventCard = card
	m.eventErr = ""
	m.showEventModal = true
}

func (m *Model) closeEventModal() {
	m.showEventModal = false
	m.eventInputs = nil
	m.eventErr = ""
}

func (m Model) handleLoginModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		if !m.busy["login"] {
			m.showLoginModal = false
		}
		return m, nil

	case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
		m.loginInputs[m.loginFocus].Blur()
		m.loginFocus = (m.loginFocus + 1) % len(m.loginInputs)
		return m, m.loginInputs[m.loginFocus].Focus()

	case tea.KeyEnter:
		if m.busy["login"] {
			return m, nil
		}
		user := strings.TrimSpace(m.loginInputs[0].Value())
		pass := m.loginInputs[1].Value()
		if user == "" || pass == "" {
			m.loginErr = "username and password are required"
			return m, nil
		}
		m.busy["login"] = true
		m.loginErr = ""
		client, ctx := m.client, m.ctx
		return m, func() tea.Msg {
			_, err := client.Login(ctx, user, pass)
			return LoginDoneMsg{Username: user, Err: err}
		}
	}

	var cmd tea.Cmd
	m.loginInputs[m.loginFocus], cmd = m.loginInputs[m.loginFocus].Update(msg)
	return m, cmd
}

func (m *Model) openLoginModal(reason string) {
	if m.showLoginModal {
		return
	}
	user := newInput("username", 64)
	user.Focus()
	pass := newInput("password", 128)
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'

	m.loginInputs = []textinput.Model{user, pass}
	m.loginFocus = 0
	m.loginErr = reason
	m.showLoginModal = true
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	return ti
}

// refresh renders the board and rebuilds the cursors. With push set, a
// render that changed any derived status pushes every unsynced plan.
func (m *Model) refresh(push bool) tea.Cmd {
	m.view = m.board.Render()
	m.rebuildPlanItems()
	for i := range m.rows {
		n := len(m.laneItems(i))
		if m.rows[i] >= n {
			m.rows[i] = n - 1
		}
		if m.rows[i] < 0 {
			m.rows[i] = 0
		}
	}
	if push && len(m.view.Changed) > 0 {
		return m.startPush()
	}
	return nil
}

// startPush pushes unsynced plans unless the backend is known to be down.
// A push requested while one is in flight runs after it.
func (m *Model) startPush() tea.Cmd {
	if m.checkedHealth && !m.online {
		return nil
	}
	if m.busy["push"] {
		m.pushAgain = true
		return nil
	}
	m.busy["push"] = true
	b, ctx := m.board, m.ctx
	return func() tea.Msg {
		n, err := b.Reconcile(ctx)
		return PushDoneMsg{Accepted: n, Err: err}
	}
}

func (m Model) loadPlans(force bool) tea.Cmd {
	b, ctx := m.board, m.ctx
	return func() tea.Msg {
		return PlansLoadedMsg{Err: b.Load(ctx, force)}
	}
}

func (m Model) checkHealth() tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		h, err := client.Health(ctx)
		if err != nil {
			return HealthMsg{Err: err}
		}
		return HealthMsg{OK: h.OK()}
	}
}

func (m Model) healthTick() tea.Cmd {
	return tea.Tick(m.healthInterval, func(time.Time) tea.Msg {
		return healthTickMsg{}
	})
}

func (m Model) laneItems(lane int) []LaneItem {
	if lane < 0 || lane >= len(m.view.Columns) {
		return nil
	}
	return FlattenColumn(m.view.Columns[lane])
}

func (m Model) selectedLaneItem() (LaneItem, bool) {
	items := m.laneItems(m.lane)
	row := m.rows[m.lane]
	if row < 0 || row >= len(items) {
		return LaneItem{}, false
	}
	return items[row], true
}

func (m *Model) rebuildPlanItems() {
	queued := make(map[string]bool)
	if len(m.view.Columns) > 0 {
		for _, g := range m.view.Columns[0].Goals {
			queued[store.QueueKey(g.PlanID, g.GoalID)] = true
		}
	}
	isQueued := func(planID, goalID string) bool {
		return queued[store.QueueKey(planID, goalID)]
	}

	plans := m.board.Plans.Plans()
	if m.searchQuery != "" {
		all := make(map[string]bool, len(plans))
		for _, p := range plans {
			all[plan.NormalizeID(p.ID)] = true
		}
		m.planItems = FilterPlanItems(FlattenPlans(plans, all, isQueued), m.searchQuery)
	} else {
		m.planItems = FlattenPlans(plans, m.planExpanded, isQueued)
	}
	if m.planCursor >= len(m.planItems) {
		m.planCursor = len(m.planItems) - 1
	}
	if m.planCursor < 0 {
		m.planCursor = 0
	}
}

func (m Model) selectedPlanItem() (PlanItem, bool) {
	if m.planCursor < 0 || m.planCursor >= len(m.planItems) {
		return PlanItem{}, false
	}
	return m.planItems[m.planCursor], true
}

func (m Model) selectedPlanItemID() string {
	item, _ := m.selectedPlanItem()
	return item.ID
}

func (m *Model) focusPlanItem(id string) {
	for i, item := range m.planItems {
		if item.ID == id {
			m.planCursor = i
			return
		}
	}
}

func (m *Model) getGlamourRenderer(width int) *glamour.TermRenderer {
	if width < 20 {
		width = 20
	}
	if m.glamourRenderer != nil && m.glamourWidth == width {
		return m.glamourRenderer
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	m.glamourRenderer = r
	m.glamourWidth = width
	return r
}

func (m *Model) setStatus(msg string) {
	m.statusMsg = CleanLine(msg)
	m.statusTimeout = time.Now().Add(3 * time.Second)
}

// openEditor writes the plan as a document to a temp file and opens it in
// $EDITOR.
func (m *Model) openEditor(p *plan.Plan) tea.Cmd {
	if p == nil {
		return nil
	}
	doc, err := plan.SerializeDocument(plan.DraftFromPlan(*p))
	if err != nil {
		m.setStatus("Error: " + err.Error())
		return nil
	}
	f, err := os.CreateTemp("", "tempo-plan-*.md")
	if err != nil {
		m.setStatus("Error: " + err.Error())
		return nil
	}
	path := f.Name()
	_, err = f.WriteString(doc)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		m.setStatus("Error: " + err.Error())
		return nil
	}

	editor := strings.Fields(os.Getenv("EDITOR"))
	if len(editor) == 0 {
		editor = []string{"vim"}
	}
	c := exec.Command(editor[0], append(editor[1:], path)...)
	id := plan.NormalizeID(p.ID)
	return tea.ExecProcess(c, func(err error) tea.Msg {
		return EditorFinishedMsg{PlanID: id, Path: path, Err: err}
	})
}

// finishEdit validates the edited document against the budget and sends it.
func (m Model) finishEdit(msg EditorFinishedMsg) (tea.Model, tea.Cmd) {
	defer os.Remove(msg.Path)
	if msg.Err != nil {
		m.setStatus("Editor failed: " + msg.Err.Error())
		return m, nil
	}
	data, err := os.ReadFile(msg.Path)
	if err != nil {
		m.setStatus("Error: " + err.Error())
		return m, nil
	}
	current := m.board.Plans.FindByID(msg.PlanID)
	if current == nil {
		m.setStatus("Plan no longer exists")
		return m, nil
	}
	if before, err := plan.SerializeDocument(plan.DraftFromPlan(*current)); err == nil && before == string(data) {
		m.setStatus("No changes")
		return m, nil
	}
	draft, err := plan.ParseDocument(string(data))
	if err != nil {
		m.setStatus("Invalid plan: " + err.Error())
		return m, nil
	}
	available := m.board.Plans.RemainingScore() + current.GoalTotal()
	if err := plan.ValidateDraft(*draft, available); err != nil {
		m.setStatus("Invalid plan: " + err.Error())
		return m, nil
	}

	m.busy["save"] = true
	client, ctx, id, d := m.client, m.ctx, msg.PlanID, *draft
	return m, func() tea.Msg {
		res, err := client.UpdatePlan(ctx, id, d)
		return PlanSavedMsg{Result: res, Err: err}
	}
}

func laneIndex(lane store.TaskStatus) int {
	for i, l := range store.Lanes {
		if l == lane {
			return i
		}
	}
	return 0
}
