// Package progress renders per-file download status as a block of terminal
// lines that is redrawn in place, or as plain appended lines when the output
// is not a terminal.
package progress
