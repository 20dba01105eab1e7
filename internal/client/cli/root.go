package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/server"
	serverconfig "github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/spf13/cobra"
)

var ErrPasswordMismatch = errors.New("passwords do not match")

// Dialer builds the remote client for one command. tokens is the saved
// session; onRefresh must be called whenever the session changes.
type Dialer func(cfg *config.Config, tokens client.Tokens, onRefresh func(client.Tokens)) (client.Client, error)

// AdminOpener builds the server stack for administrative commands.
type AdminOpener func(ctx context.Context) (Admin, error)

// App carries what every command needs.
type App struct {
	cfg       *config.Config
	in        *bufio.Reader
	out       io.Writer
	dial      Dialer
	openAdmin AdminOpener
}

// NewApp returns an App talking to the real server stack and terminal.
func NewApp(cfg *config.Config) *App {
	return &App{
		cfg:       cfg,
		in:        bufio.NewReader(os.Stdin),
		out:       os.Stdout,
		dial:      dialGRPC,
		openAdmin: openServerApp,
	}
}

func dialGRPC(cfg *config.Config, tokens client.Tokens, onRefresh func(client.Tokens)) (client.Client, error) {
	return client.NewGophAuthClient(cfg.ServerEndpointAddr, cfg.AudienceToken,
		client.WithTokens(tokens), client.WithRefreshHook(onRefresh))
}

func openServerApp(ctx context.Context) (Admin, error) {
	app, err := server.NewApp(ctx, serverconfig.LoadConfig())
	if err != nil {
		return nil, err
	}
	return app, nil
}

// RootCmd assembles the command tree.
func (a *App) RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "credctl",
		Short:         "Administer and use a gophauth credential service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.out)

	// -c is read by the config loaders straight from os.Args; it is declared
	// here so cobra accepts it.
	root.PersistentFlags().StringP("config", "c", "", "JSON config file")
	root.PersistentFlags().StringVar(&a.cfg.ServerEndpointAddr, "server", a.cfg.ServerEndpointAddr, "credential service address")
	root.PersistentFlags().StringVar(&a.cfg.AudienceToken, "audience", a.cfg.AudienceToken, "audience token of this client")
	root.PersistentFlags().StringVar(&a.cfg.SessionFile, "session", a.cfg.SessionFile, "session file")
	root.PersistentFlags().DurationVar(&a.cfg.RequestTimeout, "timeout", a.cfg.RequestTimeout, "request timeout")

	root.AddCommand(
		a.migrateCmd(),
		a.audienceCmd(),
		a.userCmd(),
		a.registerCmd(),
		a.loginCmd(),
		a.refreshCmd(),
		a.passwdCmd(),
		a.prefsCmd(),
		a.logoutCmd(),
		a.tokenCmd(),
	)
	return root
}

// Execute runs the command line in args.
func (a *App) Execute(ctx context.Context, args []string) error {
	root := a.RootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
