package progress

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// screen replays the escape sequences the board emits and returns the
// resulting terminal lines.
func screen(output string) []string {
	var rows [][]rune
	row, col := 0, 0
	ensure := func() {
		for len(rows) <= row {
			rows = append(rows, nil)
		}
	}
	in := []rune(output)
	for i := 0; i < len(in); i++ {
		switch r := in[i]; {
		case r == '\x1b' && i+1 < len(in) && in[i+1] == '[':
			j := i + 2
			for j < len(in) && (in[j] < 0x40 || in[j] > 0x7e) {
				j++
			}
			if j >= len(in) {
				i = j
				continue
			}
			params := string(in[i+2 : j])
			switch in[j] {
			case 'A':
				n, err := strconv.Atoi(params)
				if err != nil {
					n = 1
				}
				row -= n
				if row < 0 {
					row = 0
				}
			case 'K':
				ensure()
				if col < len(rows[row]) {
					rows[row] = rows[row][:col]
				}
			}
			i = j
		case r == '\r':
			col = 0
		case r == '\n':
			row++
			col = 0
		default:
			ensure()
			for len(rows[row]) <= col {
				rows[row] = append(rows[row], ' ')
			}
			rows[row][col] = r
			col++
		}
	}
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, strings.TrimRight(string(r), " "))
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func TestBoardFirstSeenOrder(t *testing.T) {
	var buf bytes.Buffer
	board := NewBoard(&buf, WithInteractive(true))

	board.Update("d1/a.txt", "0/10 bytes (0% done)")
	board.Update("d2/a.txt", "0/10 bytes (0% done)")
	board.Update("d1/a.txt", "5/10 bytes (50% done)")
	board.Update("d3/a.txt", "1/10 bytes (10% done)")
	board.Complete("d2/a.txt")
	board.Close()

	assert.Equal(t, []Entry{
		{Key: "d1/a.txt", Status: "5/10 bytes (50% done)"},
		{Key: "d2/a.txt", Status: fmt.Sprintf("%-60s", "Completed")},
		{Key: "d3/a.txt", Status: "1/10 bytes (10% done)"},
	}, board.Snapshot())

	assert.Equal(t, []string{
		"d1/a.txt: 5/10 bytes (50% done)",
		"d2/a.txt: Completed",
		"d3/a.txt: 1/10 bytes (10% done)",
	}, screen(buf.String()))
}

func TestBoardCompletedOverwritesLongerStatus(t *testing.T) {
	var buf bytes.Buffer
	board := NewBoard(&buf, WithInteractive(true), WithWidth(12))

	board.Update("big.bin", "123,456,789/987,654,321 bytes (12% done)")
	board.Complete("big.bin")

	assert.Equal(t, []string{"big.bin: Completed"}, screen(buf.String()))
	assert.Equal(t, "Completed   ", board.Snapshot()[0].Status)
}

func TestBoardPrintlnKeepsRows(t *testing.T) {
	var buf bytes.Buffer
	board := NewBoard(&buf, WithInteractive(true))

	board.Println("before/a.txt already exists, skipping...")
	board.Update("d1/a.txt", "1/2 bytes (50% done)")
	board.Update("d2/a.txt", "1/2 bytes (50% done)")
	board.Println("Error encountered on server. Message:'denied' when downloading b.txt to d2/b.txt")
	board.Complete("d1/a.txt")
	board.Close()
	fmt.Fprintln(&buf, "Completed in 00:00:01")

	assert.Equal(t, []string{
		"before/a.txt already exists, skipping...",
		"Error encountered on server. Message:'denied' when downloading b.txt to d2/b.txt",
		"d1/a.txt: Completed",
		"d2/a.txt: 1/2 bytes (50% done)",
		"Completed in 00:00:01",
	}, screen(buf.String()))
}

func TestBoardSummaryBelowLastRow(t *testing.T) {
	var buf bytes.Buffer
	board := NewBoard(&buf, WithInteractive(true))

	for i := 0; i < 3; i++ {
		board.Update(fmt.Sprintf("f%d", i), "0/1 bytes (0% done)")
	}
	for i := 0; i < 3; i++ {
		board.Complete(fmt.Sprintf("f%d", i))
	}
	board.Close()
	fmt.Fprintln(&buf, "Completed in 00:00:00")

	lines := screen(buf.String())
	require.Len(t, lines, 4)
	assert.Equal(t, "Completed in 00:00:00", lines[3])
	assert.True(t, strings.HasSuffix(buf.String(), showCursor+"Completed in 00:00:00\n"))
}

func TestBoardConcurrentUpdates(t *testing.T) {
	var buf bytes.Buffer
	board := NewBoard(&buf, WithInteractive(true))

	const keys = 25
	const updates = 40

	var wg sync.WaitGroup
	for k := 0; k < keys; k++ {
		wg.Add(1)
		go func(k int) {
			defer wg.Done()
			key := fmt.Sprintf("dir/file-%02d", k)
			for u := 1; u <= updates; u++ {
				board.Update(key, fmt.Sprintf("%d/%d bytes (%d%% done)", u, updates, u*100/updates))
			}
			board.Complete(key)
		}(k)
	}
	wg.Wait()
	board.Close()

	entries := board.Snapshot()
	require.Len(t, entries, keys)
	assert.Equal(t, keys, board.Len())

	seen := make(map[string]bool)
	for _, e := range entries {
		assert.False(t, seen[e.Key], "key %s rendered twice", e.Key)
		seen[e.Key] = true
	}

	lines := screen(buf.String())
	require.Len(t, lines, keys)
	for i, line := range lines {
		assert.Equal(t, entries[i].Key+": Completed", line)
	}
}

func TestBoardAppendMode(t *testing.T) {
	var buf bytes.Buffer
	board := NewBoard(&buf, WithInteractive(false), WithAppendInterval(0))

	board.Update("d1/a.txt", "0/10 bytes (0% done)")
	board.Update("d1/a.txt", "0/10 bytes (0% done)")
	board.Update("d1/a.txt", "10/10 bytes (100% done)")
	board.Complete("d1/a.txt")
	board.Println("d2/a.txt already exists, skipping...")
	board.Close()

	assert.False(t, board.Interactive())
	assert.NotContains(t, buf.String(), "\x1b[")
	assert.Equal(t, "d1/a.txt: 0/10 bytes (0% done)\n"+
		"d1/a.txt: 10/10 bytes (100% done)\n"+
		"d1/a.txt: Completed\n"+
		"d2/a.txt already exists, skipping...\n", buf.String())
}

func TestBoardAppendModeThrottles(t *testing.T) {
	var buf bytes.Buffer
	board := NewBoard(&buf, WithInteractive(false), WithAppendInterval(time.Second))

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	board.now = func() time.Time { return now }

	board.Update("k", "1/4 bytes (25% done)")
	now = now.Add(100 * time.Millisecond)
	board.Update("k", "2/4 bytes (50% done)")
	now = now.Add(time.Second)
	board.Update("k", "3/4 bytes (75% done)")
	now = now.Add(10 * time.Millisecond)
	board.Complete("k")

	assert.Equal(t, "k: 1/4 bytes (25% done)\n"+
		"k: 3/4 bytes (75% done)\n"+
		"k: Completed\n", buf.String())
}

func TestBoardDetectsNonTerminal(t *testing.T) {
	board := NewBoard(&bytes.Buffer{})
	assert.False(t, board.Interactive())
}
