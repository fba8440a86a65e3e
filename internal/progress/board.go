package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/term"
)

const (
	// CompletedText is the status shown once a download has finished.
	CompletedText = "Completed"

	defaultWidth          = 60
	defaultAppendInterval = time.Second

	cursorUp       = "\x1b[%dA"
	clearLine      = "\x1b[K"
	hideCursor     = "\x1b[?25l"
	showCursor     = "\x1b[?25h"
	carriageReturn = "\r"
)

// Entry is one board row.
type Entry struct {
	Key    string
	Status string
}

type Option func(*Board)

// WithInteractive forces in-place redraw (true) or append-only output (false)
// instead of detecting a terminal.
func WithInteractive(interactive bool) Option {
	return func(b *Board) {
		b.interactive = interactive
	}
}

// WithWidth sets the width the completed status is padded to.
func WithWidth(width int) Option {
	return func(b *Board) {
		if width > 0 {
			b.width = width
		}
	}
}

// WithAppendInterval sets the minimum gap between two in-progress lines for
// the same key in append mode. Zero logs every change.
func WithAppendInterval(d time.Duration) Option {
	return func(b *Board) {
		if d >= 0 {
			b.appendInterval = d
		}
	}
}

// Board keeps the latest status per key and renders all of them as a block of
// lines anchored at the position the board started at. Keys keep the row they
// were first seen on. All methods are safe for concurrent use.
type Board struct {
	mu  sync.Mutex
	out io.Writer

	interactive    bool
	width          int
	appendInterval time.Duration
	now            func() time.Time

	keys        []string
	status      map[string]string
	lastPrinted map[string]time.Time

	drawn   int
	started bool
	closed  bool
}

func NewBoard(out io.Writer, opts ...Option) *Board {
	b := &Board{
		out:            out,
		interactive:    isTerminal(out),
		width:          defaultWidth,
		appendInterval: defaultAppendInterval,
		now:            time.Now,
		status:         make(map[string]string),
		lastPrinted:    make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (b *Board) Interactive() bool {
	return b.interactive
}

// Update sets the status for key, appending the key below the existing rows
// when it is new, and redraws the board.
func (b *Board) Update(key, status string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.set(key, status, false)
}

// Complete marks key as finished.
func (b *Board) Complete(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.set(key, fmt.Sprintf("%-*s", b.width, CompletedText), true)
}

func (b *Board) set(key, status string, final bool) {
	prev, seen := b.status[key]
	if !seen {
		b.keys = append(b.keys, key)
	}
	b.status[key] = status

	if b.interactive {
		if !b.closed {
			b.redraw()
		}
		return
	}

	if seen && prev == status {
		return
	}
	now := b.now()
	if !final && b.appendInterval > 0 {
		if last, ok := b.lastPrinted[key]; ok && now.Sub(last) < b.appendInterval {
			return
		}
	}
	b.lastPrinted[key] = now
	fmt.Fprintf(b.out, "%s: %s\n", key, strings.TrimRight(status, " "))
}

// Println writes a message line without disturbing the board. In interactive
// mode the message takes the board's first row and the board moves one line down.
func (b *Board) Println(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.interactive || b.closed || !b.started {
		fmt.Fprintln(b.out, line)
		return
	}

	var sb strings.Builder
	b.rewind(&sb)
	sb.WriteString(carriageReturn + line + clearLine + "\n")
	b.drawn = 0
	b.render(&sb)
	io.WriteString(b.out, sb.String())
}

func (b *Board) redraw() {
	var sb strings.Builder
	if !b.started {
		sb.WriteString(hideCursor)
		b.started = true
	}
	b.rewind(&sb)
	b.render(&sb)
	io.WriteString(b.out, sb.String())
}

func (b *Board) rewind(sb *strings.Builder) {
	if b.drawn > 0 {
		fmt.Fprintf(sb, cursorUp, b.drawn)
	}
}

func (b *Board) render(sb *strings.Builder) {
	for _, key := range b.keys {
		status := b.status[key]
		if strings.HasPrefix(status, CompletedText) {
			status = text.FgGreen.Sprint(status)
		}
		sb.WriteString(carriageReturn + key + ": " + status + clearLine + "\n")
	}
	b.drawn = len(b.keys)
}

// Snapshot returns the entries in row order.
func (b *Board) Snapshot() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := make([]Entry, 0, len(b.keys))
	for _, key := range b.keys {
		entries = append(entries, Entry{Key: key, Status: b.status[key]})
	}
	return entries
}

func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.keys)
}

// Close stops redrawing and leaves the cursor on the line below the last row.
func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	if b.interactive && b.started {
		io.WriteString(b.out, showCursor)
	}
}
