package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.yaml.in/yaml/v4"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	dupefind "github.com/mattkeenan/dupefind/pkg"
)

// reportDocument is the machine-readable form of a report
type reportDocument struct {
	Root     string                    `json:"root" yaml:"root"`
	Verified bool                      `json:"verified" yaml:"verified"`
	Groups   []dupefind.DuplicateGroup `json:"groups" yaml:"groups"`
	Summary  dupefind.Summary          `json:"summary" yaml:"summary"`
	Warnings []string                  `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func newReportDocument(report *dupefind.Report, verified bool) reportDocument {
	doc := reportDocument{
		Root:     report.Root,
		Verified: verified,
		Groups:   report.Groups(),
		Summary:  report.Summary(),
	}
	for _, w := range report.Warnings {
		doc.Warnings = append(doc.Warnings, w.String())
	}
	return doc
}

// render writes report to w in the named format
func render(w io.Writer, format string, report *dupefind.Report, verified bool) error {
	switch format {
	case dupefind.FormatHuman, "":
		return renderHuman(w, report)
	case dupefind.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(newReportDocument(report, verified))
	case dupefind.FormatYAML:
		data, err := yaml.Marshal(newReportDocument(report, verified))
		if err != nil {
			return fmt.Errorf("failed to encode report as yaml: %w", err)
		}
		_, err = w.Write(data)
		return err
	case dupefind.FormatFdupes:
		return renderFdupes(w, report)
	default:
		return &dupefind.ConfigError{Field: "format", Reason: fmt.Sprintf("unknown output format %q", format)}
	}
}

// renderHuman lists groups under a heading per size, then the summary sentence
func renderHuman(w io.Writer, report *dupefind.Report) error {
	p := message.NewPrinter(language.English)
	var buf bytes.Buffer

	buf.WriteString("\n# Duplicates:\n\n")
	buf.WriteString("File Size\tFiles Hash with the list of duplicate files\n\n")

	lastSize := int64(-1)
	report.ForEach(func(g *dupefind.DuplicateGroup) bool {
		if g.Size != lastSize {
			if lastSize >= 0 {
				buf.WriteString("\n")
			}
			fmt.Fprintf(&buf, "%s\n", dupefind.FormatHumanSize(g.Size))
			lastSize = g.Size
		}
		fmt.Fprintf(&buf, "\t%s\n", g.Hash)
		for _, path := range g.Files {
			fmt.Fprintf(&buf, "\t\t%s\n", path)
		}
		buf.WriteString("\n")
		return true
	})

	summary := report.Summary()
	fmt.Fprintf(&buf, "\n## Searching for duplicate files in the Base Directory: %s ->\n\n", report.Root)
	p.Fprintf(&buf, "There are %d groups of duplicate files with %d total number of files in these groups, whereof %d are duplicates.\n",
		summary.Groups, summary.Files, summary.Redundant)
	if summary.ReclaimableBytes > 0 {
		p.Fprintf(&buf, "Removing the duplicates would free %s (%d bytes).\n",
			dupefind.FormatHumanSize(summary.ReclaimableBytes), summary.ReclaimableBytes)
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// renderFdupes prints one path per line with a blank line after each group.
// On a real file the lines go out through writev.
func renderFdupes(w io.Writer, report *dupefind.Report) error {
	var lines [][]byte
	newline := []byte("\n")
	report.ForEach(func(g *dupefind.DuplicateGroup) bool {
		for _, path := range g.Files {
			lines = append(lines, []byte(path), newline)
		}
		lines = append(lines, newline)
		return true
	})

	if f, ok := w.(*os.File); ok {
		_, err := dupefind.WriteVector(f, lines)
		return err
	}
	_, err := w.Write(bytes.Join(lines, nil))
	return err
}
