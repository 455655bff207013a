package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sujeethshingade/docster/internal/core/domain"
	"github.com/sujeethshingade/docster/internal/core/services"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export [owner/repo]",
	Short: "Export stored documentation as Markdown",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ref, err := domain.ParseRepositoryRef(args[0])
	if err != nil {
		return fmt.Errorf("invalid repository %q: expected owner/repo", args[0])
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	doc, err := a.store.GetRepoDoc(cmd.Context(), ref)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no documentation for %s; run \"docster generate %s\" first", ref, ref)
		}
		return err
	}

	markdown := services.RenderMarkdown(doc)

	if exportOutput == "" {
		cmd.Print(markdown)
		return nil
	}
	if err := os.WriteFile(exportOutput, []byte(markdown), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", exportOutput, err)
	}
	cmd.Printf("Exported documentation to %s\n", exportOutput)
	return nil
}
