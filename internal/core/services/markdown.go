package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/sujeethshingade/docster/internal/core/domain"
)

// RenderMarkdown formats a RepoDoc as a standalone Markdown document:
// title, repository info, overview, per-file sections, optional
// diagram, and a generation footer.
func RenderMarkdown(doc *domain.RepoDoc) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s Documentation\n\n", doc.Repo.Name)

	b.WriteString("## Repository\n\n")
	fmt.Fprintf(&b, "**Name:** %s\n", doc.Repo.Name)
	fmt.Fprintf(&b, "**Owner:** %s\n", doc.Repo.Owner)
	if doc.Repo.Revision != "" {
		fmt.Fprintf(&b, "**Revision:** %s\n", doc.Repo.Revision)
	}
	fmt.Fprintf(&b, "**URL:** https://github.com/%s/%s\n", doc.Repo.Owner, doc.Repo.Name)
	if doc.Description != "" {
		fmt.Fprintf(&b, "**Description:** %s\n", doc.Description)
	}
	if doc.PrimaryLanguage != "" {
		fmt.Fprintf(&b, "**Language:** %s\n", doc.PrimaryLanguage)
	}
	b.WriteString("\n")

	b.WriteString("## Summary\n\n")
	b.WriteString(doc.Overview)
	b.WriteString("\n\n")

	b.WriteString("## Files\n\n")
	for _, fd := range doc.FileDocs {
		if fd.Failed {
			continue
		}
		fmt.Fprintf(&b, "### %s\n\n%s\n\n", fd.Path, fd.Summary)
	}

	if len(doc.Incomplete) > 0 {
		b.WriteString("## Not Documented\n\n")
		b.WriteString("Documentation could not be generated for:\n\n")
		for _, path := range doc.Incomplete {
			fmt.Fprintf(&b, "- %s\n", path)
		}
		b.WriteString("\n")
	}

	if doc.Diagram != "" {
		b.WriteString("## Diagrams\n\n### Flow Diagram\n\n")
		b.WriteString(doc.Diagram)
		b.WriteString("\n\n")
	}

	b.WriteString("---\n")
	fmt.Fprintf(&b, "Generated at: %s\n", doc.GeneratedAt.Format(time.RFC3339))

	return b.String()
}
