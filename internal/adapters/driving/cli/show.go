package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sujeethshingade/docster/internal/core/domain"
)

var showCmd = &cobra.Command{
	Use:   "show [owner/repo] [path]",
	Short: "Show stored documentation",
	Long: `Prints the stored documentation for a repository. With a file path
argument, prints only that file's documentation.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	ref, err := domain.ParseRepositoryRef(args[0])
	if err != nil {
		return fmt.Errorf("invalid repository %q: expected owner/repo", args[0])
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if len(args) == 2 {
		return showFile(cmd, a, ref, args[1])
	}
	return showRepo(cmd, a, ref)
}

func showRepo(cmd *cobra.Command, a *app, ref domain.RepositoryRef) error {
	doc, err := a.store.GetRepoDoc(cmd.Context(), ref)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no documentation for %s; run \"docster generate %s\" first", ref, ref)
		}
		return err
	}

	cmd.Printf("%s", doc.Repo)
	if doc.Repo.Revision != "" {
		cmd.Printf(" @ %s", doc.Repo.Revision)
	}
	cmd.Println()
	if doc.Description != "" {
		cmd.Println(doc.Description)
	}
	cmd.Println()
	cmd.Println(doc.Overview)
	cmd.Println()

	cmd.Printf("Documented files (%d):\n", len(doc.FileDocs))
	for _, fd := range doc.FileDocs {
		marker := " "
		if fd.Failed {
			marker = "!"
		}
		cmd.Printf("  %s %s\n", marker, fd.Path)
	}

	if !doc.Complete {
		cmd.Printf("\nIncomplete: %d files could not be documented.\n", len(doc.Incomplete))
	}
	return nil
}

func showFile(cmd *cobra.Command, a *app, ref domain.RepositoryRef, path string) error {
	fd, err := a.store.GetFileDoc(cmd.Context(), ref, path)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no documentation for %s in %s", path, ref)
		}
		return err
	}

	if fd.Failed {
		cmd.Printf("%s: documentation failed (%s)\n", fd.Path, fd.FailReason)
		return nil
	}

	cmd.Printf("%s\n\n%s\n", fd.Path, fd.Summary)
	return nil
}
