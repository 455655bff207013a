package cli

import (
	"github.com/spf13/cobra"
)

var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "List repositories with stored documentation",
	Args:  cobra.NoArgs,
	RunE:  runRepos,
}

func init() {
	rootCmd.AddCommand(reposCmd)
}

func runRepos(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	refs, err := a.store.ListRepos(cmd.Context())
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		cmd.Println("No documented repositories.")
		return nil
	}

	for _, ref := range refs {
		if ref.Revision != "" {
			cmd.Printf("%s @ %s\n", ref, ref.Revision)
		} else {
			cmd.Println(ref.String())
		}
	}
	return nil
}
