package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"keywordpulse/pkg/chat"
	"keywordpulse/pkg/validation"
)

func newChatCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to the marketing strategy expert",
		Long:  `Reads one message per line from stdin. An empty line is ignored; "exit" or EOF ends the session.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, a)
		},
	}
}

func runChat(cmd *cobra.Command, a *app) error {
	conv := chat.NewConversation()
	orch := chat.NewOrchestrator(a.client)

	for _, m := range conv.Messages() {
		a.printer.ChatMessage(m)
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(cmd.OutOrStdout(), "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			break
		}

		reply, err := conv.Exchange(cmd.Context(), orch, line)
		if validation.IsValidation(err) {
			continue
		}
		if err != nil {
			return err
		}
		a.printer.ChatMessage(reply)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return scanner.Err()
}
