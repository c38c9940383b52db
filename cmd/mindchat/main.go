package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/set-night/mindchat/internal/api"
	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/repository"
	"github.com/set-night/mindchat/internal/service"
	"github.com/set-night/mindchat/internal/terminal"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "mindchat",
	Short:         "Chat with LLM models from the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newRegisterCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newBalanceCmd())
	rootCmd.AddCommand(newChatsCmd())
	rootCmd.AddCommand(newOpenCmd())
	rootCmd.AddCommand(newSendCmd())
	rootCmd.AddCommand(newDictateCmd())
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newModelsCmd())
	rootCmd.AddCommand(newThemeCmd())
	rootCmd.AddCommand(newFavoriteCmd())
	rootCmd.AddCommand(newRenameCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newProfileCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Client failures were already printed as notices.
		var r reportedError
		if !errors.As(err, &r) {
			fmt.Fprintf(os.Stderr, "mindchat: %v\n", err)
		}
		os.Exit(1)
	}
}

// reportedError marks an error the client has already shown to the user.
type reportedError struct {
	error
}

func reported(err error) error {
	if err == nil {
		return nil
	}
	return reportedError{err}
}

var errNotLoggedIn = errors.New("not logged in, run: mindchat login EMAIL")

// openClient builds a client over the local state file.
func openClient(cmd *cobra.Command) (*service.Client, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	path := cfg.StatePath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, nil, fmt.Errorf("determine home directory: %w", err)
		}
		path = filepath.Join(home, ".mindchat", "state.db")
	}
	store, err := repository.OpenSQLite(path)
	if err != nil {
		return nil, nil, err
	}

	models := service.NewModelCatalog()
	client := service.New(service.Deps{
		Backend:      api.NewClient(cfg.APIBaseURL),
		Store:        store,
		Surface:      terminal.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), models),
		Models:       models,
		DefaultModel: cfg.DefaultModel,
	})

	closeStore := func() {
		if err := store.Close(); err != nil {
			slog.Warn("close state store", "error", err)
		}
	}
	return client, closeStore, nil
}

// withClient runs fn with a started client, closing the store afterwards.
// Commands that need a session fail when the chat list could not be loaded.
func withClient(cmd *cobra.Command, needLogin bool, fn func(ctx context.Context, client *service.Client) error) error {
	client, closeStore, err := openClient(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := cmd.Context()
	startErr := client.Start(ctx)
	if needLogin {
		if startErr != nil {
			return reported(startErr)
		}
		if !client.LoggedIn() {
			return errNotLoggedIn
		}
	}
	return fn(ctx, client)
}

// readPassword prompts for a password on in when none was given.
func readPassword(in io.Reader, out io.Writer, given string) (string, error) {
	if given != "" {
		return given, nil
	}
	fmt.Fprint(out, "Пароль: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}
