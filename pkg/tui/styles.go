package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/stefanpenner/tempo/pkg/plan"
	"github.com/stefanpenner/tempo/pkg/store"
)

// Color palette
var (
	ColorPurple      = lipgloss.Color("#7D56F4")
	ColorGreen       = lipgloss.Color("#25A065")
	ColorBlue        = lipgloss.Color("#4285F4")
	ColorRed         = lipgloss.Color("#E05252")
	ColorYellow      = lipgloss.Color("#E5C07B")
	ColorGray        = lipgloss.Color("#626262")
	ColorGrayDim     = lipgloss.Color("#404040")
	ColorWhite       = lipgloss.Color("#FFFFFF")
	ColorOffWhite    = lipgloss.Color("#D0D0D0")
	ColorSelectionBg = lipgloss.Color("#2D3B4D")
	ColorCyan        = lipgloss.Color("#56B6C2")
	ColorOrange      = lipgloss.Color("#D19A66")
)

// Header styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPurple)

	HeaderCountStyle = lipgloss.NewStyle().
				Foreground(ColorGray)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	OnlineStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	OfflineStyle = lipgloss.NewStyle().
			Foreground(ColorRed)
)

// Tab styles
var (
	ActiveTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite).
			Background(ColorPurple).
			Padding(0, 1)

	InactiveTabStyle = lipgloss.NewStyle().
				Foreground(ColorGray).
				Padding(0, 1)
)

// Item styles
var (
	SelectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite).
			Background(ColorSelectionBg)

	CompleteStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	InProgressStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	IncompleteStyle = lipgloss.NewStyle().
			Foreground(ColorOffWhite)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	UnsyncedStyle = lipgloss.NewStyle().
			Foreground(ColorOrange)

	DepthIndent = "  "
)

// Lane header styles
var (
	LaneHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorOffWhite)

	LaneHeaderFocusedStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorPurple)
)

// Modal styles
var (
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPurple).
			Padding(1, 2)

	ModalTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPurple)

	ModalLabelStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Width(10)

	ModalErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed)
)

// Input styles
var (
	InputPromptStyle = lipgloss.NewStyle().
				Foreground(ColorPurple).
				Bold(true)
)

// Search styles
var (
	ColorSearchRowBg  = lipgloss.Color("#1E1A2E")
	ColorSearchCharBg = lipgloss.Color("#2E2545")

	SearchBarStyle = lipgloss.NewStyle().
			Foreground(ColorWhite)

	SearchRowStyle = lipgloss.NewStyle().
			Background(ColorSearchRowBg)

	SearchCharStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPurple).
			Background(ColorSearchCharBg)

	SearchCharSelectedStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorPurple).
				Background(ColorSelectionBg)

	SearchCountStyle = lipgloss.NewStyle().
				Foreground(ColorGray)
)

// Status icons
const (
	IconComplete   = "✓"
	IconInProgress = "◐"
	IconIncomplete = "○"
	IconExpanded   = "▼"
	IconCollapsed  = "▶"
	IconQueued     = "●"
	IconUnqueued   = "·"
	IconUnsynced   = "⟳"
)

// goalIcon renders the icon of a goal status.
func goalIcon(st plan.GoalStatus) string {
	switch st {
	case plan.GoalDone:
		return CompleteStyle.Render(IconComplete)
	case plan.GoalExecuting:
		return InProgressStyle.Render(IconInProgress)
	default:
		return IncompleteStyle.Render(IconIncomplete)
	}
}

// laneIcon renders the icon of a task lane.
func laneIcon(lane store.TaskStatus) string {
	switch lane {
	case store.TaskDone:
		return CompleteStyle.Render(IconComplete)
	case store.TaskDoing:
		return InProgressStyle.Render(IconInProgress)
	default:
		return IncompleteStyle.Render(IconIncomplete)
	}
}
