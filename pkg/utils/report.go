package utils

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"s3download/internal/models"
)

// RenderTable writes the per-job outcomes of a run as a table followed by a totals footer.
func RenderTable(w io.Writer, result *models.DownloadResult) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Footer = text.FormatDefault
	tw.AppendHeader(table.Row{"Key", "Destination", "Outcome", "Size", "Duration", "Error"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Size", Align: text.AlignRight},
		{Name: "Error", WidthMax: 60},
	})

	for _, item := range result.Items {
		size := ""
		if item.Outcome == models.OutcomeCompleted {
			size = FormatBytes(item.Size)
		}
		tw.AppendRow(table.Row{item.RemotePath, item.LocalPath, item.Outcome.String(), size, item.Duration, item.Error})
	}

	tw.AppendFooter(table.Row{
		"Total",
		"",
		summaryCounts(result),
		result.TotalSizeHuman,
		result.DownloadDuration,
		"",
	})
	tw.Render()
}

func summaryCounts(result *models.DownloadResult) string {
	return fmt.Sprintf("%d ok / %d skipped / %d failed", result.CompletedFiles, result.SkippedFiles, result.FailedFiles)
}
