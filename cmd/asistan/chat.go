package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tesvikportal/asistan/internal/session"
	"github.com/tesvikportal/asistan/pkg/asistan"
)

func chatCMD() *cobra.Command {
	var serverURL string
	var email string
	var password string
	var storePath string

	var cmd = &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat against a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := asistan.NewClient(serverURL)

			var storage session.Storage
			if email != "" {
				if err := client.Login(cmd.Context(), email, password); err != nil {
					return fmt.Errorf("login: %w", err)
				}
				storage = session.NewRemoteStorage(client)
			} else {
				storage = session.NewFileStorage(storePath)
			}

			mgr, err := session.NewManager(cmd.Context(), storage, client)
			if err != nil {
				return err
			}
			mgr.OnUpdate = func(s session.Session) {
				if len(s.Messages) == 0 {
					return
				}
				last := s.Messages[len(s.Messages)-1]
				fmt.Printf("\r\033[K%s", last.Content)
			}

			sess, err := mgr.NewSession(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println("Yeni sohbet başlatıldı. Çıkmak için Ctrl+D, cevabı durdurmak için Ctrl+C.")

			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("\n> ")
				if !scanner.Scan() {
					return scanner.Err()
				}
				text := strings.TrimSpace(scanner.Text())
				if text == "" {
					continue
				}

				// Ctrl+C stops the reveal of this answer only
				ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
				res, err := mgr.SendMessage(ctx, sess.ID, text)
				stop()
				if err != nil {
					fmt.Printf("hata: %v\n", err)
					continue
				}
				fmt.Println()
				for _, src := range res.Message.Sources {
					fmt.Printf("  [%d] %s (%s)\n", src.Index, src.Question, src.SourceDocument)
				}
			}
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:10010", "server base URL")
	cmd.Flags().StringVar(&email, "email", "", "login email (omit for local-only history)")
	cmd.Flags().StringVar(&password, "password", "", "login password")
	cmd.Flags().StringVar(&storePath, "store", "asistan-sessions.json", "local history file when not logged in")

	return cmd
}
