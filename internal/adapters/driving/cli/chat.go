package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sujeethshingade/docster/internal/core/domain"
	"github.com/sujeethshingade/docster/internal/core/ports/driving"
)

var chatShowHistory bool

var chatCmd = &cobra.Command{
	Use:   "chat [owner/repo] [question]",
	Short: "Ask questions about a documented repository",
	Long: `Answers questions grounded in the repository's generated
documentation. With a question argument, answers once and exits;
without one, starts an interactive session.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatShowHistory, "history", false, "print the conversation history and exit")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ref, err := domain.ParseRepositoryRef(args[0])
	if err != nil {
		return fmt.Errorf("invalid repository %q: expected owner/repo", args[0])
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	chat, err := a.buildChat()
	if err != nil {
		return err
	}

	if chatShowHistory {
		turns, err := chat.History(cmd.Context(), ref)
		if err != nil {
			return err
		}
		if len(turns) == 0 {
			cmd.Println("No conversation history.")
			return nil
		}
		for _, turn := range turns {
			cmd.Printf("> %s\n%s\n\n", turn.Question, turn.Answer)
		}
		return nil
	}

	if len(args) == 2 {
		return askOnce(cmd, chat, ref, args[1])
	}
	return interactiveChat(cmd, chat, ref)
}

func askOnce(cmd *cobra.Command, chat driving.ChatService, ref domain.RepositoryRef, question string) error {
	turn, err := chat.Ask(cmd.Context(), ref, question)
	if err != nil {
		return chatError(ref, err)
	}
	cmd.Println(turn.Answer)
	return nil
}

func interactiveChat(cmd *cobra.Command, chat driving.ChatService, ref domain.RepositoryRef) error {
	cmd.Printf("Chatting about %s. Type a question, or \"exit\" to quit.\n\n", ref)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)

	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			cmd.Println()
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			return nil
		}

		turn, err := chat.Ask(cmd.Context(), ref, question)
		if err != nil {
			if errors.Is(err, domain.ErrNoDocumentation) {
				return chatError(ref, err)
			}
			cmd.PrintErrf("Error: %v\n\n", err)
			continue
		}
		cmd.Printf("\n%s\n\n", turn.Answer)
	}
}

func chatError(ref domain.RepositoryRef, err error) error {
	if errors.Is(err, domain.ErrNoDocumentation) {
		return fmt.Errorf("no documentation for %s; run \"docster generate %s\" first", ref, ref)
	}
	return err
}
