package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/riskfabric/riskctl/internal/client"
	"github.com/riskfabric/riskctl/internal/session"
	"github.com/riskfabric/riskctl/pkg/log"
)

type GlobalOptions struct {
	ConfigFilePath string
	ServerUrl      string
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		ConfigFilePath: client.DefaultConfigPath(),
	}
}

func (o *GlobalOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ConfigFilePath, "config", "c", o.ConfigFilePath, "Path to the client config file")
	fs.StringVarP(&o.ServerUrl, "server-url", "u", o.ServerUrl, "Address of the server (overrides config file)")
}

func (o *GlobalOptions) Complete(cmd *cobra.Command, args []string) error {
	return nil
}

func (o *GlobalOptions) Validate(args []string) error {
	return nil
}

// Service builds the API client: config file + env + flags, the persisted
// credential, and the session store whose expiry callback tells the
// operator to log in again.
func (o *GlobalOptions) Service() (*client.Service, *session.Store, error) {
	config, err := client.ParseConfigFile(o.ConfigFilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if o.ServerUrl != "" {
		config.Service.Server = o.ServerUrl
	}

	sessions := session.NewStore(func() {
		fmt.Fprintln(os.Stderr, "session expired, please run \"riskctl login\" again")
		if err := client.RemoveCredentials(client.DefaultCredentialsPath()); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	})
	creds, err := client.LoadCredentials(client.DefaultCredentialsPath())
	if err != nil {
		return nil, nil, err
	}
	if creds.AccessToken != "" {
		sessions.SetToken(creds.AccessToken)
	}

	logger := log.InitLog(log.FromLevelString(config.LogLevel))
	svc, err := client.NewService(config, sessions, logger)
	if err != nil {
		return nil, nil, err
	}
	return svc, sessions, nil
}
