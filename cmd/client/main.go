// repochat - terminal client for the GitHub assistant server
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ashureev/repochat/internal/client"
)

func main() {
	_ = godotenv.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repochat",
		Short: "Chat with your GitHub account in plain language",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			server, _ := cmd.Flags().GetString("server")
			user, _ := cmd.Flags().GetString("user")
			ws, _ := cmd.Flags().GetBool("ws")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c := client.New(server, user, client.WithWebSocket(ws))
			return c.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().String("server", envOr("REPOCHAT_SERVER", "http://127.0.0.1:5000"), "chat server base URL")
	cmd.Flags().String("user", envOr("REPOCHAT_USER", "main_user"), "user identifier sent with every request")
	cmd.Flags().Bool("ws", false, "send prompts over the websocket channel")
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
