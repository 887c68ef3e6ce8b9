package analysis

import (
	"fmt"
	"strings"

	"famtree/internal/model"
)

// GenerateReport renders an analysis as plain text. Verbose adds every
// longest nesting path per family.
func GenerateReport(r AnalysisResult, verbose bool) string {
	var sb strings.Builder

	sb.WriteString("FAMTREE NESTING REPORT\n")
	sb.WriteString("======================\n")
	fmt.Fprintf(&sb, "Run:        %s\n", r.RunID)
	if !r.StartedAt.IsZero() {
		fmt.Fprintf(&sb, "Started:    %s\n", r.StartedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(&sb, "Containers: %d\n", r.Containers)
	fmt.Fprintf(&sb, "Families:   %d (%d root families reported)\n\n", len(r.Families), len(r.RootFamilies))

	circular := r.CircularFamilies()
	fmt.Fprintf(&sb, "CIRCULAR NESTING (%d)\n", len(circular))
	sb.WriteString("--------------------\n")
	if len(circular) == 0 {
		sb.WriteString("  none\n")
	}
	for _, f := range circular {
		fmt.Fprintf(&sb, "%s %s\n", model.IconCircular, f.Ref())
		for _, c := range f.Circular {
			fmt.Fprintf(&sb, "    level %d, %s: %s\n", c.Level, c.Family, c.Path)
		}
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "MISSING FAMILIES (%d)\n", len(r.Missing))
	sb.WriteString("--------------------\n")
	if len(r.Missing) == 0 {
		sb.WriteString("  none\n")
	}
	for _, m := range r.Missing {
		fmt.Fprintf(&sb, "%s %s\n", model.IconMissing, m)
	}
	if len(r.MissingHosts) > 0 {
		sb.WriteString("\n  Root families hosting missing families:\n")
		for _, h := range r.MissingHosts {
			fmt.Fprintf(&sb, "    %s %s  [%s]\n", model.IconRoot, h.Ref(), h.FilePath)
		}
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "ROOT FAMILIES NOT NESTED ANYWHERE (%d)\n", len(r.NotNested))
	sb.WriteString("------------------------------------\n")
	if len(r.NotNested) == 0 {
		sb.WriteString("  none\n")
	}
	for _, n := range r.NotNested {
		fmt.Fprintf(&sb, "%s %s\n", model.IconOrphan, n.Ref())
	}

	if verbose {
		sb.WriteString("\nFAMILY TREES\n")
		sb.WriteString("------------\n")
		for _, f := range r.Families {
			icon := model.IconRoot
			if !f.HasRoot {
				icon = model.IconMissing
			}
			fmt.Fprintf(&sb, "%s %s  (%d occurrences, %d branches)\n", icon, f.Ref(), f.Occurrences, len(f.LongestPaths))
			for _, p := range f.LongestPaths {
				fmt.Fprintf(&sb, "    %s %s\n", model.IconNested, p.RootPath)
			}
		}
	}

	return sb.String()
}
