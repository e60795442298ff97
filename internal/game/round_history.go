package game

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/lox/blackjack/internal/fileutil"
)

// RoundHistoryWriter persists the transcript of a finished round
type RoundHistoryWriter interface {
	WriteRoundHistory(roundID string, content string) error
}

// FileRoundHistoryWriter writes one text file per round
type FileRoundHistoryWriter struct {
	directory string
}

// NewFileRoundHistoryWriter creates a new file-based round history writer
func NewFileRoundHistoryWriter(directory string) *FileRoundHistoryWriter {
	return &FileRoundHistoryWriter{directory: directory}
}

// WriteRoundHistory writes the transcript to round_<id>.txt
func (w *FileRoundHistoryWriter) WriteRoundHistory(roundID string, content string) error {
	filename := filepath.Join(w.directory, fmt.Sprintf("round_%s.txt", roundID))
	if err := fileutil.WriteFileAtomic(filename, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write round history file: %w", err)
	}
	return nil
}

// NoOpRoundHistoryWriter discards every transcript
type NoOpRoundHistoryWriter struct{}

// WriteRoundHistory does nothing
func (w *NoOpRoundHistoryWriter) WriteRoundHistory(string, string) error {
	return nil
}

// RoundHistory subscribes to an engine's events and writes a transcript for
// every round as it ends. Round ids come from the supplied generator so they
// stay unique across tables and restarts.
type RoundHistory struct {
	writer    RoundHistoryWriter
	formatter *EventFormatter
	newID     func() string
	onError   func(error)

	startTime time.Time
	lines     []string
}

// NewRoundHistory creates a recorder writing through w
func NewRoundHistory(w RoundHistoryWriter, newID func() string, onError func(error)) *RoundHistory {
	if onError == nil {
		onError = func(error) {}
	}
	return &RoundHistory{
		writer:    w,
		formatter: NewEventFormatter(FormattingOptions{ShowForced: true, ShowBalance: true}),
		newID:     newID,
		onError:   onError,
	}
}

// OnEvent implements EventSubscriber
func (h *RoundHistory) OnEvent(event GameEvent) {
	switch e := event.(type) {
	case RoundStartEvent:
		h.startTime = e.Timestamp()
		h.lines = h.lines[:0]
		for _, p := range e.Players {
			h.lines = append(h.lines, fmt.Sprintf("Seat %s: %s ($%d bet, $%d behind) [%s]", p.ID, p.Name, p.Bet, p.Balance, p.Hand))
		}
		h.lines = append(h.lines, h.formatter.Format(e))

	case CardDealtEvent, TurnChangeEvent, BetPlacedEvent, PlayerJoinedEvent, PlayerLeftEvent:
		// table chatter, not part of the transcript

	case RoundEndEvent:
		if h.startTime.IsZero() {
			return
		}
		h.lines = append(h.lines, h.formatter.Format(e))
		id := h.newID()
		header := fmt.Sprintf("Blackjack Round #%s - %s\n", id, h.startTime.UTC().Format(time.RFC3339))
		if err := h.writer.WriteRoundHistory(id, header+strings.Join(h.lines, "\n")); err != nil {
			h.onError(err)
		}
		h.startTime = time.Time{}

	default:
		if h.startTime.IsZero() {
			return
		}
		if line := h.formatter.Format(e); line != "" {
			h.lines = append(h.lines, line)
		}
	}
}
