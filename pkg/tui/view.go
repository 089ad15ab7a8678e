package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/stefanpenner/tempo/pkg/board"
	"github.com/stefanpenner/tempo/pkg/plan"
	"github.com/stefanpenner/tempo/pkg/store"
)

const minWidth = 60
const minHeight = 10

// View implements tea.Model.
func (m Model) View() string {
	w := m.width
	h := m.height
	if w < minWidth {
		w = minWidth
	}
	if h < minHeight {
		h = minHeight
	}

	if m.showHelpModal {
		return placeOverlay(m.renderHelpModal(), w, h)
	}
	if m.showEventModal {
		return placeOverlay(m.renderEventModal(), w, h)
	}
	if m.showLoginModal {
		return placeOverlay(m.renderLoginModal(), w, h)
	}

	var b strings.Builder

	b.WriteString(m.renderHeader(w))
	b.WriteString("\n")
	b.WriteString(m.renderTabs(w))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", w))
	b.WriteString("\n")

	headerLines := 3
	footerLines := 2

	searchActive := m.mode == modePlans && (m.isSearching || m.searchQuery != "")
	if searchActive {
		headerLines++
		b.WriteString(m.renderSearchBar(w))
		b.WriteString("\n")
	}

	contentHeight := h - headerLines - footerLines

	if m.mode == modePlans {
		b.WriteString(m.renderPlans(w, contentHeight))
	} else {
		b.WriteString(m.renderBoard(w, contentHeight))
	}

	b.WriteString(strings.Repeat("─", w))
	b.WriteString("\n")
	b.WriteString(m.renderFooter(w))

	return b.String()
}

func (m Model) renderHeader(width int) string {
	title := HeaderStyle.Render("Tempo")

	var right []string
	if n := len(m.board.Sync.Unsynced()); n > 0 {
		right = append(right, UnsyncedStyle.Render(fmt.Sprintf("%s %d unsynced", IconUnsynced, n)))
	}
	right = append(right, HeaderCountStyle.Render(fmt.Sprintf("%d/%d points left", m.view.RemainingScore, plan.ScoreBudget)))
	switch {
	case !m.checkedHealth:
		right = append(right, DimStyle.Render(IconUnqueued+" connecting"))
	case m.online:
		right = append(right, OnlineStyle.Render(IconQueued+" online"))
	default:
		right = append(right, OfflineStyle.Render(IconIncomplete+" offline"))
	}
	stats := strings.Join(right, "  ")

	status := ""
	if m.statusMsg != "" && time.Now().Before(m.statusTimeout) {
		status = "  " + lipgloss.NewStyle().Foreground(ColorCyan).Render(m.statusMsg) + "  "
	}

	gap := width - lipgloss.Width(title) - lipgloss.Width(stats) - lipgloss.Width(status)
	if gap < 1 {
		gap = 1
	}

	return title + strings.Repeat(" ", gap) + status + stats
}

func (m Model) renderTabs(width int) string {
	tabs := []struct {
		name string
		mode viewMode
	}{
		{"Board", modeBoard},
		{"Plans", modePlans},
	}
	var parts []string
	for _, t := range tabs {
		if t.mode == m.mode {
			parts = append(parts, ActiveTabStyle.Render(t.name))
		} else {
			parts = append(parts, InactiveTabStyle.Render(t.name))
		}
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(strings.Join(parts, " "))
}

func (m Model) renderSearchBar(width int) string {
	prompt := InputPromptStyle.Render("/")
	query := SearchBarStyle.Render(m.searchQuery)
	cursor := ""
	if m.isSearching {
		cursor = lipgloss.NewStyle().Foreground(ColorPurple).Render("█")
	}
	left := prompt + query + cursor

	goals := 0
	for _, item := range m.planItems {
		if !item.IsPlan() {
			goals++
		}
	}
	count := SearchCountStyle.Render(fmt.Sprintf("%d goals", goals))

	gap := width - lipgloss.Width(left) - lipgloss.Width(count)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + count
}

// renderBoard lays out the four lanes side by side.
func (m Model) renderBoard(width, height int) string {
	if !m.view.Loaded && m.view.Err != nil && len(m.view.Columns[0].Goals) == 0 {
		msg := OfflineStyle.Render("Cannot load plans: " + m.view.Err.Error())
		return padBlock(msg, width, height)
	}

	colWidth := (width - (len(store.Lanes) - 1)) / len(store.Lanes)
	panels := make([]string, len(store.Lanes))
	for i := range store.Lanes {
		panels[i] = m.renderLane(i, colWidth, height)
	}

	sep := lipgloss.NewStyle().Foreground(ColorGrayDim).Render("│")
	var b strings.Builder
	for row := 0; row < height; row++ {
		for i, panel := range panels {
			if i > 0 {
				b.WriteString(sep)
			}
			b.WriteString(getLine(panel, row, colWidth))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderLane(idx, width, height int) string {
	col := m.view.Columns[idx]
	items := FlattenColumn(col)

	count := len(col.Tasks)
	if col.Lane == store.TaskBacklog {
		count = len(col.Goals)
	}
	headerStyle := LaneHeaderStyle
	if idx == m.lane && m.mode == modeBoard {
		headerStyle = LaneHeaderFocusedStyle
	}
	header := headerStyle.Render(strings.ToUpper(string(col.Lane))) + " " + DimStyle.Render(fmt.Sprintf("%d", count))

	var lines []string
	lines = append(lines, header, "")

	visible := height - len(lines)
	if len(items) == 0 {
		empty := "no tasks"
		if col.Lane == store.TaskBacklog {
			empty = "queue goals from Plans (tab)"
		}
		lines = append(lines, DimStyle.Render(empty))
		return strings.Join(lines, "\n")
	}

	cursor := m.rows[idx]
	start := 0
	if visible > 0 && cursor >= visible {
		start = cursor - visible + 1
	}
	end := start + visible
	if end > len(items) {
		end = len(items)
	}

	for i := start; i < end; i++ {
		selected := idx == m.lane && i == cursor
		lines = append(lines, m.renderLaneItem(items[i], selected, width))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderLaneItem(item LaneItem, selected bool, width int) string {
	indent := strings.Repeat(DepthIndent, item.Depth)

	if g := item.Goal; g != nil {
		icon := IconCollapsed
		if g.Expanded {
			icon = IconExpanded
		}
		progress := fmt.Sprintf("%d/%d", g.Done, g.Total)
		unsynced := ""
		if g.Unsynced {
			unsynced = " " + IconUnsynced
		}
		if selected {
			text := fmt.Sprintf("%s %s %s %s%s", icon, goalGlyph(g.Status), CleanLine(g.GoalName), progress, unsynced)
			return SelectedStyle.Width(width).MaxWidth(width).Render(text)
		}
		text := DimStyle.Render(icon) + " " + goalIcon(g.Status) + " " + CleanLine(g.GoalName) + " " +
			DimStyle.Render(progress) + UnsyncedStyle.Render(unsynced)
		return lipgloss.NewStyle().MaxWidth(width).Render(text)
	}

	t := item.Task
	if selected {
		text := fmt.Sprintf("%s%s %s", indent, laneGlyph(t.Lane), CleanLine(t.Text))
		return SelectedStyle.Width(width).MaxWidth(width).Render(text)
	}
	text := indent + laneIcon(t.Lane) + " " + CleanLine(t.Text)
	if item.Depth == 0 {
		text += " " + DimStyle.Render("· "+CleanLine(t.GoalName))
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(text)
}

// renderPlans shows the plan list with the selected row rendered as
// markdown beside it.
func (m Model) renderPlans(width, height int) string {
	leftWidth := width / 3
	if leftWidth < 24 {
		leftWidth = 24
	}
	rightWidth := width - leftWidth - 1

	left := m.renderPlanList(leftWidth, height)
	right := m.renderPlanDetails(rightWidth, height)

	sep := lipgloss.NewStyle().Foreground(ColorGrayDim).Render("│")
	var b strings.Builder
	for i := 0; i < height; i++ {
		b.WriteString(getLine(left, i, leftWidth))
		b.WriteString(sep)
		b.WriteString(getLine(right, i, rightWidth))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderPlanList(width, height int) string {
	if len(m.planItems) == 0 {
		if m.searchQuery != "" {
			return DimStyle.Render("no matches")
		}
		if m.busy["load"] {
			return DimStyle.Render("loading…")
		}
		return DimStyle.Render("no plans")
	}

	start := 0
	if m.planCursor >= height {
		start = m.planCursor - height + 1
	}
	end := start + height
	if end > len(m.planItems) {
		end = len(m.planItems)
	}

	var lines []string
	for i := start; i < end; i++ {
		lines = append(lines, m.renderPlanItem(m.planItems[i], i == m.planCursor, width))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderPlanItem(item PlanItem, selected bool, width int) string {
	indent := strings.Repeat(DepthIndent, item.Depth)

	var icon, text string
	if item.IsPlan() {
		icon = IconCollapsed
		if item.IsExpanded || m.searchQuery != "" {
			icon = IconExpanded
		}
		text = fmt.Sprintf("%s %s", item.Name, DimStyle.Render(string(item.Plan.Status)))
		if m.board.Sync.IsUnsynced(item.ID) {
			text += " " + UnsyncedStyle.Render(IconUnsynced)
		}
	} else {
		icon = IconUnqueued
		if item.Queued {
			icon = IconQueued
		}
		text = fmt.Sprintf("%s %s", goalIcon(item.Goal.Status), item.Name)
	}

	if selected {
		plain := indent + icon + " " + item.Name
		return SelectedStyle.Width(width).MaxWidth(width).Render(plain)
	}
	if m.searchQuery != "" && !item.IsPlan() {
		text = goalIcon(item.Goal.Status) + " " + highlightMatch(item.Name, m.searchQuery, SearchCharStyle, SearchRowStyle)
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(indent + DimStyle.Render(icon) + " " + text)
}

func (m Model) renderPlanDetails(width, height int) string {
	item, ok := m.selectedPlanItem()
	if !ok {
		return ""
	}

	var md string
	if item.IsPlan() {
		md = planMarkdown(item.Plan)
	} else {
		md = m.goalMarkdown(item)
	}

	md = CleanBlock(md)
	rendered := md
	if r := m.getGlamourRenderer(width - 2); r != nil {
		if out, err := r.Render(md); err == nil {
			rendered = strings.Trim(out, "\n")
		}
	}

	lines := strings.Split(rendered, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

func planMarkdown(p *plan.Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.Title)
	fmt.Fprintf(&b, "**Status:** %s", p.Status)
	if p.Year > 0 {
		fmt.Fprintf(&b, " · **Year:** %d", p.Year)
	}
	fmt.Fprintf(&b, " · **Score:** %d\n\n", p.GoalTotal())
	if desc := strings.TrimSpace(p.Description); desc != "" {
		b.WriteString(desc)
		b.WriteString("\n\n")
	}
	if len(p.Goals) > 0 {
		b.WriteString("## Goals\n\n")
		for _, g := range p.Goals {
			fmt.Fprintf(&b, "- **%s** · %d pts · %s\n", g.Name, g.ScoreAllocation, g.Status)
		}
	}
	return b.String()
}

func (m Model) goalMarkdown(item PlanItem) string {
	g := item.Goal
	lanes := make(map[string]store.TaskStatus)
	for _, col := range m.view.Columns {
		for _, t := range col.Tasks {
			lanes[store.TaskKey(t.PlanID, t.GoalID, t.ID)] = t.Lane
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", g.Name)
	fmt.Fprintf(&b, "_%s_\n\n", item.Plan.Title)
	fmt.Fprintf(&b, "**Score:** %d · **Status:** %s", g.ScoreAllocation, g.Status)
	if g.ExpectedTimeframe != "" {
		fmt.Fprintf(&b, " · **Timeframe:** %s", g.ExpectedTimeframe)
	}
	b.WriteString("\n\n")
	if item.Queued {
		b.WriteString("On the board.\n\n")
	} else {
		b.WriteString("Not on the board, press space to queue it.\n\n")
	}

	tasks := board.DeriveTasks(item.ParentID, *g)
	if len(tasks) == 0 {
		b.WriteString("_No tasks. Add one line per task to the goal details._\n")
		return b.String()
	}
	b.WriteString("## Tasks\n\n")
	for _, t := range tasks {
		lane, ok := lanes[store.TaskKey(t.PlanID, t.GoalID, t.ID)]
		if !ok {
			lane = store.TaskBacklog
		}
		switch lane {
		case store.TaskDone:
			fmt.Fprintf(&b, "- [x] %s\n", t.Text)
		case store.TaskBacklog:
			fmt.Fprintf(&b, "- [ ] %s\n", t.Text)
		default:
			fmt.Fprintf(&b, "- [ ] %s _(%s)_\n", t.Text, lane)
		}
	}
	return b.String()
}

func (m Model) renderFooter(width int) string {
	help := m.keys.ShortHelp()
	switch {
	case m.isSearching:
		help = "type to search  enter/↓ keep filter  esc clear"
	case m.mode == modePlans && m.searchQuery != "":
		help = "esc clear filter  ↑↓ nav  space queue"
	case m.mode == modePlans:
		help = m.keys.PlansHelp()
	}
	return FooterStyle.MaxWidth(width).Render(help)
}

func (m Model) renderHelpModal() string {
	var b strings.Builder

	b.WriteString(ModalTitleStyle.Render("Keyboard Shortcuts"))
	b.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().Foreground(ColorBlue).Width(16)
	descStyle := lipgloss.NewStyle().Foreground(ColorWhite)

	for _, binding := range m.keys.FullHelp() {
		b.WriteString(keyStyle.Render(binding[0]))
		b.WriteString(descStyle.Render(binding[1]))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(FooterStyle.Render("Press Esc or ? to close"))

	return ModalStyle.Render(b.String())
}

func (m Model) renderEventModal() string {
	var b strings.Builder

	b.WriteString(ModalTitleStyle.Render("Schedule task"))
	b.WriteString("\n")
	b.WriteString(DimStyle.Render(CleanLine(m.eventCard.PlanTitle + " / " + m.eventCard.GoalName)))
	b.WriteString("\n\n")

	labels := []string{"Title", "Start", "Duration", "Type"}
	for i, ti := range m.eventInputs {
		label := ModalLabelStyle.Render(labels[i])
		if i == m.eventFocus {
			label = ModalLabelStyle.Foreground(ColorPurple).Render(labels[i])
		}
		b.WriteString(label + ti.View() + "\n")
	}

	b.WriteString("\n")
	switch {
	case m.busy["event"]:
		b.WriteString(DimStyle.Render("Creating event…"))
	case m.eventErr != "":
		b.WriteString(ModalErrorStyle.Render(m.eventErr))
	default:
		b.WriteString(FooterStyle.Render("enter create event & start  tab next field  esc cancel"))
	}

	return ModalStyle.Width(64).Render(b.String())
}

func (m Model) renderLoginModal() string {
	var b strings.Builder

	b.WriteString(ModalTitleStyle.Render("Log in"))
	b.WriteString("\n\n")

	labels := []string{"Username", "Password"}
	for i, ti := range m.loginInputs {
		b.WriteString(ModalLabelStyle.Render(labels[i]) + ti.View() + "\n")
	}

	b.WriteString("\n")
	switch {
	case m.busy["login"]:
		b.WriteString(DimStyle.Render("Logging in…"))
	case m.loginErr != "":
		b.WriteString(ModalErrorStyle.Render(m.loginErr))
	default:
		b.WriteString(FooterStyle.Render("enter log in  tab next field  esc close"))
	}

	return ModalStyle.Width(52).Render(b.String())
}

func (m Model) detailsWidth() int {
	w := m.width
	if w < minWidth {
		w = minWidth
	}
	left := w / 3
	if left < 24 {
		left = 24
	}
	return w - left - 1
}

// highlightMatch splits name into before/match/after and styles the match portion
// with charStyle, and the rest with rowStyle. The match is case-insensitive.
func highlightMatch(name, query string, charStyle, rowStyle lipgloss.Style) string {
	lower := strings.ToLower(name)
	idx := strings.Index(lower, strings.ToLower(query))
	if idx < 0 {
		return rowStyle.Render(name)
	}
	before := name[:idx]
	match := name[idx : idx+len(query)]
	after := name[idx+len(query):]

	var result string
	if before != "" {
		result += rowStyle.Render(before)
	}
	result += charStyle.Render(match)
	if after != "" {
		result += rowStyle.Render(after)
	}
	return result
}

func goalGlyph(st plan.GoalStatus) string {
	switch st {
	case plan.GoalDone:
		return IconComplete
	case plan.GoalExecuting:
		return IconInProgress
	}
	return IconIncomplete
}

func laneGlyph(lane store.TaskStatus) string {
	switch lane {
	case store.TaskDone:
		return IconComplete
	case store.TaskDoing:
		return IconInProgress
	}
	return IconIncomplete
}

// Helper functions

func padBlock(block string, width, height int) string {
	var b strings.Builder
	for i := 0; i < height; i++ {
		b.WriteString(getLine(block, i, width))
		b.WriteString("\n")
	}
	return b.String()
}

func getLine(block string, idx int, width int) string {
	lines := strings.Split(block, "\n")
	if idx < len(lines) {
		line := lines[idx]
		lineWidth := lipgloss.Width(line)
		if lineWidth < width {
			return line + strings.Repeat(" ", width-lineWidth)
		}
		return line
	}
	return strings.Repeat(" ", width)
}

func placeOverlay(modal string, width, height int) string {
	modalLines := strings.Split(modal, "\n")

	topPadding := (height - len(modalLines)) / 2
	if topPadding < 0 {
		topPadding = 0
	}

	leftPadding := (width - lipgloss.Width(modalLines[0])) / 2
	if leftPadding < 0 {
		leftPadding = 0
	}

	var result strings.Builder
	for i := 0; i < topPadding; i++ {
		result.WriteString("\n")
	}

	for _, line := range modalLines {
		result.WriteString(strings.Repeat(" ", leftPadding))
		result.WriteString(line)
		result.WriteString("\n")
	}

	return result.String()
}
