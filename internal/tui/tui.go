// Package tui is a hot-seat blackjack table for the terminal. Every seat
// shares one keyboard and plays against a local game.Engine.
package tui

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/lox/blackjack/internal/bot"
	"github.com/lox/blackjack/internal/game"
)

// Model is the Bubble Tea model for a local table. Engine events are
// formatted into the scrolling log as they are published.
type Model struct {
	engine    *game.Engine
	formatter *game.EventFormatter
	logger    *log.Logger
	ids       []string

	// UI components
	logViewport viewport.Model
	betInput    textinput.Model

	// State
	gameLog     []string
	betSeat     int // index into ids of the seat being asked for a bet
	status      string
	statusErr   bool
	quitting    bool
	unsubscribe func()

	// Dimensions
	width  int
	height int
}

// New seats one player per name, each with balance, and returns a model
// waiting for the first bets
func New(engine *game.Engine, names []string, balance uint, logger *log.Logger) (*Model, error) {
	if len(names) == 0 {
		return nil, errors.New("at least one player is required")
	}

	ti := textinput.New()
	ti.Placeholder = "amount"
	ti.CharLimit = 9
	ti.Width = 12
	ti.Prompt = "$ "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Focus()

	m := &Model{
		engine:      engine,
		formatter:   game.NewEventFormatter(game.FormattingOptions{ShowBalance: true}),
		logger:      logger.WithPrefix("tui"),
		logViewport: viewport.New(10, 5),
		betInput:    ti,
	}
	m.unsubscribe = engine.EventBus().Subscribe(game.SubscriberFunc(m.onEvent))

	for i, name := range names {
		id := fmt.Sprintf("seat-%d", i+1)
		if !engine.AddPlayer(id, name, balance) {
			m.unsubscribe()
			return nil, fmt.Errorf("could not seat %s: table holds %d players", name, engine.PlayerCount())
		}
		m.ids = append(m.ids, id)
	}

	m.setStatus("Enter a bet for each seat, then press n to deal", false)
	return m, nil
}

// Run starts the program on the terminal and blocks until the user quits
func Run(m *Model) error {
	UseColorProfile(os.Stdout)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logger.Debug("Updating dimensions", "width", m.width, "height", m.height)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.quitting = true
			m.unsubscribe()
			return m, tea.Quit
		case "pgup", "pgdown", "up", "down":
			var cmd tea.Cmd
			m.logViewport, cmd = m.logViewport.Update(msg)
			return m, cmd
		}

		if m.engine.State() == game.PlayerTurn {
			m.handleTurnKey(msg.String())
			return m, nil
		}
		return m, m.handleBettingKey(msg)
	}

	var cmd tea.Cmd
	m.betInput, cmd = m.betInput.Update(msg)
	return m, cmd
}

func (m *Model) handleTurnKey(key string) {
	var action game.Action
	switch key {
	case "h":
		action = game.Hit
	case "s":
		action = game.Stand
	case "d":
		action = game.DoubleDown
	default:
		return
	}

	id, ok := m.engine.CurrentPlayerID()
	if !ok {
		return
	}
	if err := m.engine.PlayerAction(id, action); err != nil {
		m.setStatus(fmt.Sprintf("Cannot %s: %v", action, err), true)
		return
	}
	m.setStatus("", false)
	m.afterMove()
}

func (m *Model) handleBettingKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "n":
		m.startRound()
		return nil
	case "enter":
		m.placeBet()
		return nil
	}

	// amounts only
	if msg.Type == tea.KeyRunes && !isDigits(msg.Runes) {
		return nil
	}
	var cmd tea.Cmd
	m.betInput, cmd = m.betInput.Update(msg)
	return cmd
}

// placeBet submits the input for the seat being asked. An empty amount
// skips the seat, which then plays for nothing.
func (m *Model) placeBet() {
	if m.betSeat >= len(m.ids) {
		m.setStatus("All bets are in, press n to deal", false)
		return
	}
	id := m.ids[m.betSeat]
	raw := strings.TrimSpace(m.betInput.Value())
	m.betInput.Reset()

	if raw != "" {
		amount, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			m.setStatus(fmt.Sprintf("Invalid amount %q", raw), true)
			return
		}
		if err := m.engine.PlaceBet(id, uint(amount)); err != nil {
			m.setStatus(fmt.Sprintf("Bet rejected: %v", err), true)
			return
		}
	}

	m.betSeat++
	if m.betSeat == len(m.ids) {
		m.setStatus("All bets are in, press n to deal", false)
	} else {
		m.setStatus("", false)
	}
}

func (m *Model) startRound() {
	if err := m.engine.StartNewRound(); err != nil {
		m.setStatus(fmt.Sprintf("Cannot deal: %v", err), true)
		return
	}
	m.setStatus("", false)
	m.afterMove()
}

// afterMove returns to betting once the engine has settled the round
func (m *Model) afterMove() {
	if m.engine.State() == game.PlayerTurn {
		return
	}
	m.betSeat = 0
	m.setStatus("Round over. Enter new bets, then press n to deal", false)
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m *Model) onEvent(event game.GameEvent) {
	text := m.formatter.Format(event)
	if text == "" {
		return
	}
	for line := range strings.SplitSeq(strings.TrimRight(text, "\n"), "\n") {
		m.AddLogEntry(line)
	}
}

// AddLogEntry appends a line to the game log and scrolls to it
func (m *Model) AddLogEntry(entry string) {
	m.gameLog = append(m.gameLog, entry)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// Log returns a copy of the game log
func (m *Model) Log() []string {
	return append([]string(nil), m.gameLog...)
}

// Hint returns the basic strategy action for the player to act, if any
func (m *Model) Hint() (game.Action, bool) {
	snap := m.engine.Public()
	p, ok := snap.CurrentPlayer()
	if !ok {
		return 0, false
	}
	s, ok := bot.SituationFor(snap, p.ID)
	if !ok {
		return 0, false
	}
	return bot.BasicStrategy(s.Hand, s.DealerUp, s.CanDouble()), true
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	snap := m.engine.Public()
	header := HeaderStyle.Width(m.width).Render(
		fmt.Sprintf(" Blackjack • round %d • %s", snap.Round, snap.State))

	paneStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(max(1, m.width-2))

	tablePane := paneStyle.Render(m.renderTable(snap))
	actionPane := paneStyle.BorderForeground(lipgloss.Color("#04B575")).Render(m.renderActionPane(snap))

	logHeight := m.height - lipgloss.Height(header) - lipgloss.Height(tablePane) - lipgloss.Height(actionPane) - 2
	m.logViewport.Width = max(1, m.width-2)
	m.logViewport.Height = max(1, logHeight)
	logPane := paneStyle.Render(m.logViewport.View())

	return lipgloss.JoinVertical(lipgloss.Left, header, tablePane, logPane, actionPane)
}

// renderTable lists the dealer and every seat with hand, bet and balance
func (m *Model) renderTable(snap game.Snapshot) string {
	var content strings.Builder

	dealer := formatCards(snap.DealerHand.Cards, snap.DealerHiddenCards)
	content.WriteString(HandInfoStyle.Render("Dealer") + "  " + dealer)
	if snap.DealerHiddenCards == 0 && snap.DealerHand.Len() > 0 {
		content.WriteString(fmt.Sprintf(" (%d)", snap.DealerHand.Score()))
	}
	content.WriteString("\n\n")

	current, hasCurrent := snap.CurrentPlayer()
	for _, p := range snap.Players {
		padded := fmt.Sprintf("%-12s", p.Name)
		marker, name := "  ", PlayerInfoStyle.Render(padded)
		if hasCurrent && p.ID == current.ID {
			marker, name = CurrentPlayerStyle.Render("▶ "), CurrentPlayerStyle.Render(padded)
		}

		line := fmt.Sprintf("%s%s %s", marker, name, formatCards(p.Hand.Cards, 0))
		if p.Hand.Len() > 0 {
			line += fmt.Sprintf(" (%d)", p.Hand.Score())
		}
		line += InfoStyle.Render(fmt.Sprintf("  bet $%d  balance $%d", p.Bet, p.Balance))
		if p.Result != nil {
			line += "  " + outcomeStyle(p.Result.Outcome).Render(m.formatResult(*p.Result))
		}
		content.WriteString(line + "\n")
	}
	return strings.TrimRight(content.String(), "\n")
}

func (m *Model) formatResult(r game.Result) string {
	switch r.Outcome {
	case game.OutcomeBlackjack:
		return fmt.Sprintf("blackjack +$%d", r.Net())
	case game.OutcomeWin:
		return fmt.Sprintf("win +$%d", r.Net())
	case game.OutcomeLose:
		return fmt.Sprintf("lose -$%d", r.Bet)
	case game.OutcomePush:
		return "push"
	default:
		return "sat out"
	}
}

// renderActionPane shows whose move it is and the keys that apply
func (m *Model) renderActionPane(snap game.Snapshot) string {
	var content strings.Builder

	if p, ok := snap.CurrentPlayer(); ok {
		content.WriteString(HandInfoStyle.Render(p.Name+" to act") + "  ")
		content.WriteString(ActionsStyle.Render("[h]it [s]tand [d]ouble"))
		if hint, ok := m.Hint(); ok {
			content.WriteString("\n" + InfoStyle.Render("Basic strategy: "+hint.String()))
		}
	} else if m.betSeat < len(m.ids) {
		if p, ok := snap.Player(m.ids[m.betSeat]); ok {
			content.WriteString(HandInfoStyle.Render(fmt.Sprintf("Bet for %s ($%d available)", p.Name, p.Balance+p.Bet)) + "\n")
		}
		content.WriteString(m.betInput.View())
	} else {
		content.WriteString(HandInfoStyle.Render("Ready to deal"))
	}

	if m.status != "" {
		style := InfoStyle
		if m.statusErr {
			style = ErrorStyle
		}
		content.WriteString("\n" + style.Render(m.status))
	}

	content.WriteString("\n" + InfoStyle.Render("enter bet (empty skips) • n deal • ↑↓ scroll log • q quit"))
	return content.String()
}

func isDigits(runes []rune) bool {
	for _, r := range runes {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(runes) > 0
}
