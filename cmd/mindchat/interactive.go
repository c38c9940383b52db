package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/set-night/mindchat/internal/service"
	"github.com/set-night/mindchat/internal/voice"
	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	var opts sendOptions

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat; /attach PATH, /model ID, /new, /quit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, true, func(ctx context.Context, client *service.Client) error {
				if err := opts.prepare(ctx, client); err != nil {
					return err
				}
				return repl(ctx, client, cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}
	opts.register(cmd)
	return cmd
}

// repl reads one message per line until EOF or /quit. Failures are shown as
// notices and do not end the loop.
func repl(ctx context.Context, client *service.Client, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		cmd, arg, _ := strings.Cut(line, " ")

		switch cmd {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/attach":
			attachFile(ctx, client, strings.TrimSpace(arg))
		case "/model":
			client.SelectModel(ctx, strings.TrimSpace(arg))
		case "/new":
			client.CreateChat(ctx, arg)
		default:
			client.SendMessage(ctx, line)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func newDictateCmd() *cobra.Command {
	var (
		opts sendOptions
		from string
	)

	cmd := &cobra.Command{
		Use:   "dictate",
		Short: "Send a message composed from a speech recognizer's JSON-lines output",
		Long: "Reads recognition events, one JSON object per line, such as\n" +
			`{"results":[{"transcript":"привет","isFinal":true}],"resultIndex":0}` + "\n" +
			`or {"error":"no-speech"}, and sends the finalized text.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if from != "" && from != "-" {
				f, err := os.Open(from)
				if err != nil {
					return fmt.Errorf("open recognizer output: %w", err)
				}
				defer f.Close()
				in = f
			}

			return withClient(cmd, true, func(ctx context.Context, client *service.Client) error {
				if err := opts.prepare(ctx, client); err != nil {
					return err
				}

				var draft voice.Draft
				failed := false
				err := voice.Feed(in, &draft, voice.Handlers{
					Interim: func(text string) {
						fmt.Fprintf(cmd.ErrOrStderr(), "… %s\n", text)
					},
					Error: func(notice string) {
						failed = true
						fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s\n", notice)
					},
				})
				if err != nil {
					return err
				}

				text := draft.Take()
				if text == "" {
					if failed {
						return reported(errors.New("recognition failed"))
					}
					return errors.New("nothing recognized")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "👤 %s\n", text)
				_, err = client.SendMessage(ctx, text)
				return reported(err)
			})
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&from, "from", "-", "recognizer output file (- for stdin)")
	return cmd
}
