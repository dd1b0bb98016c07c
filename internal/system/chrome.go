package system

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/mattn/go-isatty"
)

// ErrChromeUnavailable is returned when there is no surface to recolour.
var ErrChromeUnavailable = errors.New("system chrome unavailable")

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ChromeSetter updates the background colour of the hosting UI chrome.
type ChromeSetter interface {
	SetBackgroundColor(ctx context.Context, color string) error
}

// TerminalChrome sets the terminal background with the OSC 11 sequence.
type TerminalChrome struct {
	w       io.Writer
	enabled bool
}

// NewTerminalChrome writes to f only when f is a terminal.
func NewTerminalChrome(f *os.File) *TerminalChrome {
	enabled := f != nil && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
	return &TerminalChrome{w: f, enabled: enabled}
}

// NewWriterChrome writes to w unconditionally.
func NewWriterChrome(w io.Writer) *TerminalChrome {
	return &TerminalChrome{w: w, enabled: w != nil}
}

func (c *TerminalChrome) SetBackgroundColor(ctx context.Context, color string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !c.enabled {
		return ErrChromeUnavailable
	}
	if !hexColor.MatchString(color) {
		return fmt.Errorf("invalid chrome colour %q", color)
	}
	if _, err := fmt.Fprintf(c.w, "\x1b]11;%s\x07", color); err != nil {
		return fmt.Errorf("writing chrome colour: %w", err)
	}
	return nil
}
