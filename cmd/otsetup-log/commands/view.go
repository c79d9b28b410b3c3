// Package commands implements the otsetup-log CLI commands.
package commands

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/otsetup/otsetup-go/pkg/log"
	"github.com/otsetup/otsetup-go/pkg/otsettings"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Layer      *log.Layer
	Direction  *log.Direction
	Category   *log.Category
	Field      string
	FailedOnly bool
}

func (f ViewFilter) toFilter() log.Filter {
	return log.Filter{
		Layer:      f.Layer,
		Direction:  f.Direction,
		Category:   f.Category,
		Field:      f.Field,
		FailedOnly: f.FailedOnly,
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [conn:id] DIRECTION LAYER Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	connID := shortenConnID(event.ConnectionID)
	if connID == "" {
		connID = "-"
	}

	fmt.Fprintf(w, "%s [conn:%s] %-3s %s %s\n", ts, connID, event.Direction.String(), event.Layer.String(), typeLabel(event))

	switch {
	case event.Access != nil:
		formatAccessDetails(w, event.Access)
	case event.Setting != nil:
		formatSettingDetails(w, event.Setting)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}
	if event.RemoteAddr != "" {
		fmt.Fprintf(w, "  Peer: %s\n", event.RemoteAddr)
	}

	fmt.Fprintln(w)
}

// typeLabel names the payload carried by event.
func typeLabel(event log.Event) string {
	switch {
	case event.Access != nil:
		return event.Access.Op.String()
	case event.Setting != nil:
		return event.Setting.Op.String()
	case event.StateChange != nil:
		return "State"
	case event.Error != nil:
		return "Error"
	default:
		return "Unknown"
	}
}

// shortenConnID returns the first 8 characters of the connection ID.
func shortenConnID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// formatAccessDetails writes characteristic access details.
func formatAccessDetails(w io.Writer, a *log.AccessEvent) {
	fmt.Fprintf(w, "  Field: %s", a.Field)
	if a.UUID != "" {
		fmt.Fprintf(w, " (%s)", a.UUID)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Offset: %d  Length: %d\n", a.Offset, a.Length)
	switch {
	case a.Redacted:
		fmt.Fprintln(w, "  Data: <redacted>")
	case len(a.Data) > 0:
		fmt.Fprintf(w, "  Data: %s\n", hex.EncodeToString(a.Data))
	}
	if a.Status != 0 {
		fmt.Fprintf(w, "  Status: 0x%02X\n", a.Status)
	} else if a.Committed {
		fmt.Fprintln(w, "  Committed")
	}
}

// formatSettingDetails writes settings mutation details.
func formatSettingDetails(w io.Writer, s *log.SettingEvent) {
	if s.Field == "" {
		fmt.Fprintln(w, "  Field: <all>")
		return
	}
	fmt.Fprintf(w, "  Field: %s  Length: %d\n", s.Field, s.Length)
}

// formatStateChangeDetails writes state change details.
func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity.String())
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

// formatErrorDetails writes error details.
func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer.String())
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Code != nil {
		fmt.Fprintf(w, "  Code: %d\n", *err.Code)
	}
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// ParseLayerFlag parses a layer string from command-line flag (case-insensitive).
func ParseLayerFlag(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "transport":
		return log.LayerTransport, nil
	case "gatt":
		return log.LayerGATT, nil
	case "settings":
		return log.LayerSettings, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be transport, gatt, or settings)", s)
	}
}

// ParseDirectionFlag parses a direction string from command-line flag (case-insensitive).
func ParseDirectionFlag(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "access":
		return log.CategoryAccess, nil
	case "setting":
		return log.CategorySetting, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be access, setting, state, or error)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter.toFilter())
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}

	return nil
}

// FieldName resolves a field given by store key or name to the name used
// in trace events.
func FieldName(s string) (string, error) {
	f, err := otsettings.ParseField(s)
	if err != nil {
		return "", err
	}
	return f.String(), nil
}
