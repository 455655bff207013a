package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sujeethshingade/docster/internal/core/domain"
	"github.com/sujeethshingade/docster/internal/core/ports/driving"
)

var (
	generateForce    bool
	generateDiagram  bool
	generateRevision string
)

var generateCmd = &cobra.Command{
	Use:   "generate [owner/repo]",
	Short: "Generate documentation for a repository",
	Long: `Fetches the repository, summarises each source file and aggregates
the summaries into repository-level documentation. A fresh cached doc
is served without regenerating unless --force is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().BoolVarP(&generateForce, "force", "f", false, "regenerate even if cached documentation is current")
	generateCmd.Flags().BoolVar(&generateDiagram, "diagram", false, "also generate a Mermaid architecture diagram")
	generateCmd.Flags().StringVar(&generateRevision, "revision", "", "branch or commit to document (default: default branch)")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ref, err := domain.ParseRepositoryRef(args[0])
	if err != nil {
		return fmt.Errorf("invalid repository %q: expected owner/repo", args[0])
	}
	ref.Revision = generateRevision

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	generator, err := a.buildGenerator()
	if err != nil {
		return err
	}

	cmd.Printf("Generating documentation for %s...\n", ref)

	doc, err := generator.Generate(cmd.Context(), ref, driving.GenerateOptions{
		Force:   generateForce,
		Diagram: generateDiagram,
	})
	if err != nil {
		if doc != nil {
			// Cancellation mid-run still produced a partial doc.
			cmd.Printf("Generation interrupted; partial documentation saved (%d files).\n", len(doc.FileDocs))
		}
		return err
	}

	cmd.Printf("Documented %d files", len(doc.FileDocs))
	if !doc.Complete {
		cmd.Printf(" (%d failed or missing)", len(doc.Incomplete))
	}
	cmd.Println()
	cmd.Println()
	cmd.Println(doc.Overview)

	return nil
}
