// Package report renders the end-of-run crawl summary as Markdown.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/nao1215/markdown"

	"github.com/pdfhound/pdfhound/internal/crawler"
)

// WriteFile renders the summary to path, creating parent directories.
func WriteFile(path string, summary crawler.Summary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer f.Close()
	if err := Write(f, summary); err != nil {
		return err
	}
	return f.Close()
}

// Write renders the summary as Markdown to w.
func Write(w io.Writer, summary crawler.Summary) error {
	md := markdown.NewMarkdown(w)

	md.H1("Crawl Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed", "`" + summary.Seed + "`"},
			{"Run ID", "`" + summary.RunID + "`"},
			{"Duration", summary.Duration.Round(time.Millisecond).String()},
		},
	})
	md.PlainText("")

	md.H2("Counters")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Value"},
		Rows: [][]string{
			{"Pages discovered", formatInt(summary.Stats.PagesDiscovered)},
			{"Pages crawled", formatInt(summary.Stats.PagesCrawled)},
			{"PDFs found", formatInt(summary.Stats.PdfsFound)},
			{"PDFs downloaded", formatInt(summary.Stats.PdfsDownloaded)},
			{"Skips", formatInt(summary.Stats.Skips)},
			{"Errors", formatInt(summary.Stats.Errors)},
		},
	})
	md.PlainText("")

	writeDownloads(md, summary)
	writeFailures(md, summary)

	if err := md.Build(); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

func writeDownloads(md *markdown.Markdown, summary crawler.Summary) {
	md.H2("Downloaded Files")
	md.PlainText("")
	if len(summary.Downloads) == 0 {
		md.PlainText("No PDFs were downloaded.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(summary.Downloads))
	for i, item := range summary.Downloads {
		rows[i] = []string{
			filepath.Base(item.Path),
			"`" + item.URL + "`",
			formatBytes(item.Bytes),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"File", "Source", "Size"},
		Rows:   rows,
	})
	md.PlainText("")
}

func writeFailures(md *markdown.Markdown, summary crawler.Summary) {
	if len(summary.Failures) == 0 {
		return
	}
	md.H2("Failed Downloads")
	md.PlainText("")
	rows := make([][]string, len(summary.Failures))
	for i, f := range summary.Failures {
		rows[i] = []string{"`" + f.URL + "`", f.Reason}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Reason"},
		Rows:   rows,
	})
	md.PlainText("")
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
