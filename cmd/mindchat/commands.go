package main

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/service"
	"github.com/set-night/mindchat/internal/terminal"
	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	return newAuthCmd("login", "Log in and store the session locally", (*service.Client).Login)
}

func newRegisterCmd() *cobra.Command {
	return newAuthCmd("register", "Create an account and log in", (*service.Client).Register)
}

func newAuthCmd(use, short string, action func(*service.Client, context.Context, string, string) error) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   use + " EMAIL",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr(), password)
			if err != nil {
				return err
			}
			return withClient(cmd, false, func(ctx context.Context, client *service.Client) error {
				return reported(action(client, ctx, args[0], pw))
			})
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when empty)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, false, func(ctx context.Context, client *service.Client) error {
				return client.Logout(ctx)
			})
		},
	}
}

func newBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the account balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, true, func(ctx context.Context, client *service.Client) error {
				sess, _ := client.Session.Current()
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s₽\n", sess.User.Email, client.Balance().StringFixed(2))
				return nil
			})
		},
	}
}

func newChatsCmd() *cobra.Command {
	var (
		formatFlag string
		noHeader   bool
		favorites  bool
		search     string
	)

	cmd := &cobra.Command{
		Use:   "chats",
		Short: "List chats, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, true, func(ctx context.Context, client *service.Client) error {
				chats := client.Chats.Chats()
				switch {
				case search != "":
					chats = client.Chats.Search(search)
				case favorites:
					chats = client.Chats.Favorites()
				}
				return terminal.WriteChats(cmd.OutOrStdout(), chats, !noHeader, strings.ToLower(formatFlag))
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&formatFlag, "format", "tsv", "output format (tsv or json)")
	flags.BoolVar(&noHeader, "no-header", false, "omit the tsv header row")
	flags.BoolVar(&favorites, "favorites", false, "only favorite chats")
	flags.StringVar(&search, "search", "", "only chats whose title or messages contain the text")
	return cmd
}

func newOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open CHAT_ID",
		Short: "Print a chat's messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, true, func(ctx context.Context, client *service.Client) error {
				_, err := client.OpenChat(ctx, domain.ID(args[0]))
				return reported(err)
			})
		},
	}
}

// sendOptions are shared by the commands that post a message.
type sendOptions struct {
	chatID  string
	model   string
	attachs []string
}

func (o *sendOptions) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&o.chatID, "chat", "", "chat to send to (a new chat when empty)")
	flags.StringVarP(&o.model, "model", "m", "", "model id")
	flags.StringArrayVarP(&o.attachs, "attach", "a", nil, "file to attach (repeatable)")
}

// prepare opens the target chat, selects the model and reads attachments.
func (o *sendOptions) prepare(ctx context.Context, client *service.Client) error {
	if o.chatID != "" {
		if _, err := client.OpenChat(ctx, domain.ID(o.chatID)); err != nil {
			return reported(err)
		}
	}
	if o.model != "" {
		if err := client.SelectModel(ctx, o.model); err != nil {
			return reported(err)
		}
	}
	for _, path := range o.attachs {
		if err := attachFile(ctx, client, path); err != nil {
			return err
		}
	}
	return nil
}

func attachFile(ctx context.Context, client *service.Client, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open attachment: %w", err)
	}
	defer f.Close()

	_, err = client.Attach(ctx, filepath.Base(path), mime.TypeByExtension(filepath.Ext(path)), f)
	return reported(err)
}

func newSendCmd() *cobra.Command {
	var opts sendOptions

	cmd := &cobra.Command{
		Use:   "send MESSAGE...",
		Short: "Send a message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, true, func(ctx context.Context, client *service.Client) error {
				if err := opts.prepare(ctx, client); err != nil {
					return err
				}
				_, err := client.SendMessage(ctx, strings.Join(args, " "))
				return reported(err)
			})
		},
	}
	opts.register(cmd)
	return cmd
}

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List available models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, false, func(ctx context.Context, client *service.Client) error {
				return terminal.WriteModels(cmd.OutOrStdout(), client.Models.List(), client.Chats.SelectedModel())
			})
		},
	}
}

func newThemeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "theme [dark|light]",
		Short:     "Set the theme, or toggle it when no name is given",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"dark", "light"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, false, func(ctx context.Context, client *service.Client) error {
				if len(args) == 0 {
					theme, err := client.ToggleTheme(ctx)
					if err != nil {
						return reported(err)
					}
					fmt.Fprintln(cmd.OutOrStdout(), theme)
					return nil
				}
				if err := client.SetTheme(ctx, args[0]); err != nil {
					return reported(err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), args[0])
				return nil
			})
		},
	}
}

func newFavoriteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "favorite CHAT_ID",
		Short: "Toggle a chat's favorite flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, true, func(ctx context.Context, client *service.Client) error {
				chat, err := client.ToggleFavorite(ctx, domain.ID(args[0]))
				if err != nil {
					return reported(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tfavorite=%t\n", chat.ID, chat.IsFavorite)
				return nil
			})
		},
	}
}

func newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename CHAT_ID TITLE...",
		Short: "Rename a chat",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, true, func(ctx context.Context, client *service.Client) error {
				chat, err := client.RenameChat(ctx, domain.ID(args[0]), strings.Join(args[1:], " "))
				if err != nil {
					return reported(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", chat.ID, chat.Title)
				return nil
			})
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete CHAT_ID",
		Short: "Delete a chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, true, func(ctx context.Context, client *service.Client) error {
				return reported(client.DeleteChat(ctx, domain.ID(args[0])))
			})
		},
	}
}

// errProfileArg marks arguments rejected before the client saw them, so
// nothing has been shown to the user yet.
var errProfileArg = errors.New("invalid argument")

// profileAction edits the signed-in user's profile from command arguments.
type profileAction func(ctx context.Context, client *service.Client, args []string) (domain.Profile, error)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the profile, or edit it with a subcommand",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, true, func(ctx context.Context, client *service.Client) error {
				p, err := client.Profile(ctx)
				if err != nil {
					return reported(err)
				}
				terminal.WriteProfile(cmd.OutOrStdout(), p)
				return nil
			})
		},
	}

	var level int
	addSkill := newProfileEditCmd("add-skill NAME...", "Add a skill", cobra.MinimumNArgs(1),
		func(ctx context.Context, client *service.Client, args []string) (domain.Profile, error) {
			return client.AddSkill(ctx, strings.Join(args, " "), level)
		})
	addSkill.Flags().IntVarP(&level, "level", "l", 0, fmt.Sprintf("skill level %d-%d (default %d)",
		domain.MinSkillLevel, domain.MaxSkillLevel, config.DefaultSkillLevel))

	cmd.AddCommand(
		newProfileEditCmd("set-value NAME WEIGHT", "Set how much a value matters, 0-100", cobra.MinimumNArgs(2), setProfileValue),
		newProfileEditCmd("add-interest TEXT...", "Add an interest", cobra.MinimumNArgs(1),
			func(ctx context.Context, client *service.Client, args []string) (domain.Profile, error) {
				return client.AddInterest(ctx, strings.Join(args, " "))
			}),
		newProfileEditCmd("remove-interest N", "Remove the N-th interest", cobra.ExactArgs(1),
			byPosition((*service.Client).RemoveInterest)),
		addSkill,
		newProfileEditCmd("remove-skill N", "Remove the N-th skill", cobra.ExactArgs(1),
			byPosition((*service.Client).RemoveSkill)),
	)
	return cmd
}

// newProfileEditCmd runs action; the printer shows the edited profile.
func newProfileEditCmd(use, short string, args cobra.PositionalArgs, action profileAction) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, true, func(ctx context.Context, client *service.Client) error {
				_, err := action(ctx, client, args)
				if errors.Is(err, errProfileArg) {
					return err
				}
				return reported(err)
			})
		},
	}
}

// setProfileValue takes the weight from the last argument so value names
// may have spaces.
func setProfileValue(ctx context.Context, client *service.Client, args []string) (domain.Profile, error) {
	weight, err := strconv.Atoi(args[len(args)-1])
	if err != nil {
		return domain.Profile{}, fmt.Errorf("%w: weight %q is not a number", errProfileArg, args[len(args)-1])
	}
	return client.SetProfileValue(ctx, strings.Join(args[:len(args)-1], " "), weight)
}

// byPosition adapts a removal by 0-based index to the 1-based position
// WriteProfile prints.
func byPosition(remove func(*service.Client, context.Context, int) (domain.Profile, error)) profileAction {
	return func(ctx context.Context, client *service.Client, args []string) (domain.Profile, error) {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return domain.Profile{}, fmt.Errorf("%w: position %q is not a number", errProfileArg, args[0])
		}
		return remove(client, ctx, n-1)
	}
}
