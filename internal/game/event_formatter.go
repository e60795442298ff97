package game

import (
	"fmt"
	"strings"
)

// FormattingOptions controls how events are formatted for different contexts
type FormattingOptions struct {
	ShowForced  bool   // Mark stands forced by disconnects or timeouts
	ShowBalance bool   // Append balances to actions and results
	Perspective string // Player ID for personalized formatting ("You")
}

// EventFormatter provides centralized formatting for all game events
type EventFormatter struct {
	opts FormattingOptions
}

// NewEventFormatter creates a new event formatter with the given options
func NewEventFormatter(opts FormattingOptions) *EventFormatter {
	return &EventFormatter{opts: opts}
}

// Format renders any game event as a single human-readable line. Events
// with nothing worth showing, such as individual cards, return "".
func (ef *EventFormatter) Format(event GameEvent) string {
	switch e := event.(type) {
	case PlayerJoinedEvent:
		return fmt.Sprintf("%s joins the table with $%d", ef.name(e.Player.ID, e.Player.Name), e.Player.Balance)
	case PlayerLeftEvent:
		if e.Refund > 0 {
			return fmt.Sprintf("%s leaves the table ($%d bet returned)", ef.name(e.Player.ID, e.Player.Name), e.Refund)
		}
		return fmt.Sprintf("%s leaves the table", ef.name(e.Player.ID, e.Player.Name))
	case BetPlacedEvent:
		return fmt.Sprintf("%s bets $%d", ef.name(e.PlayerID, e.Name), e.Amount)
	case RoundStartEvent:
		return ef.FormatRoundStart(e)
	case PlayerActionEvent:
		return ef.FormatPlayerAction(e)
	case TurnChangeEvent:
		return fmt.Sprintf("%s to act", ef.name(e.PlayerID, e.Name))
	case DealerTurnEvent:
		return ef.FormatDealerTurn(e)
	case RoundEndEvent:
		return ef.FormatRoundEnd(e)
	default:
		return ""
	}
}

// FormatRoundStart formats a round start event into a human-readable string
func (ef *EventFormatter) FormatRoundStart(event RoundStartEvent) string {
	text := fmt.Sprintf("*** ROUND %d *** %d players • dealer shows %s", event.Round, len(event.Players), event.DealerUp)
	if event.Reshuffle {
		text += " • fresh deck"
	}
	return text
}

// FormatPlayerAction formats a player action event into a human-readable string
func (ef *EventFormatter) FormatPlayerAction(event PlayerActionEvent) string {
	playerName := ef.name(event.PlayerID, event.Name)
	score := event.Hand.Score()

	var actionText string
	switch event.Action {
	case Hit:
		last := event.Hand.Cards[event.Hand.Len()-1]
		actionText = fmt.Sprintf("%s: hits %s (%d)", playerName, last, score)
		if event.Hand.IsBusted() {
			actionText += " and busts"
		}
	case Stand:
		if event.Forced && ef.opts.ShowForced {
			actionText = fmt.Sprintf("%s: times out and stands on %d", playerName, score)
		} else {
			actionText = fmt.Sprintf("%s: stands on %d", playerName, score)
		}
	case DoubleDown:
		last := event.Hand.Cards[event.Hand.Len()-1]
		actionText = fmt.Sprintf("%s: doubles to $%d, draws %s (%d)", playerName, event.Bet, last, score)
	default:
		actionText = fmt.Sprintf("%s: %s", playerName, event.Action)
	}

	if ef.opts.ShowBalance {
		actionText += fmt.Sprintf(" [$%d]", event.Balance)
	}
	return actionText
}

// FormatDealerTurn formats the dealer's finished hand
func (ef *EventFormatter) FormatDealerTurn(event DealerTurnEvent) string {
	h := event.Hand
	switch {
	case h.IsBlackjack():
		return fmt.Sprintf("Dealer: [%s] blackjack", ef.formatHand(h))
	case h.IsBusted():
		return fmt.Sprintf("Dealer: [%s] busts with %d", ef.formatHand(h), h.Score())
	default:
		return fmt.Sprintf("Dealer: [%s] stands on %d", ef.formatHand(h), h.Score())
	}
}

// FormatRoundEnd formats a round end event into a multi-line summary
func (ef *EventFormatter) FormatRoundEnd(event RoundEndEvent) string {
	var result strings.Builder

	result.WriteString(fmt.Sprintf("=== Round %d Complete ===\n", event.Round))
	result.WriteString(fmt.Sprintf("Dealer: %d [%s]\n", event.Dealer.Score(), ef.formatHand(event.Dealer)))

	for _, r := range event.Results {
		line := fmt.Sprintf("%s: %d • %s", ef.name(r.PlayerID, r.Name), r.Score, ef.formatOutcome(r.Result))
		if ef.opts.ShowBalance {
			line += fmt.Sprintf(" • balance $%d", r.Balance)
		}
		result.WriteString(line + "\n")
	}

	return result.String()
}

func (ef *EventFormatter) formatOutcome(r Result) string {
	switch r.Outcome {
	case OutcomeBlackjack:
		return fmt.Sprintf("blackjack, wins $%d", r.Net())
	case OutcomeWin:
		return fmt.Sprintf("wins $%d", r.Net())
	case OutcomePush:
		return "push"
	case OutcomeLose:
		return fmt.Sprintf("loses $%d", r.Bet)
	default:
		return "sat out"
	}
}

func (ef *EventFormatter) formatHand(h Hand) string {
	if h.Len() == 0 {
		return "--"
	}
	return h.String()
}

func (ef *EventFormatter) name(id, name string) string {
	if ef.opts.Perspective != "" && id == ef.opts.Perspective {
		return "You"
	}
	if name == "" {
		return id
	}
	return name
}
