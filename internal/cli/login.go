package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	api "github.com/riskfabric/riskctl/api/v1alpha1"
	"github.com/riskfabric/riskctl/internal/client"
)

type LoginOptions struct {
	GlobalOptions

	Email    string
	Password string
	TenantId string
}

func DefaultLoginOptions() *LoginOptions {
	return &LoginOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdLogin() *cobra.Command {
	o := DefaultLoginOptions()
	cmd := &cobra.Command{
		Use:          "login",
		Short:        "Authenticate against the back office and store the session token.",
		Example:      "login --email ops@example.com --password secret --tenant acme",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *LoginOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVar(&o.Email, "email", o.Email, "User email")
	fs.StringVar(&o.Password, "password", o.Password, "User password")
	fs.StringVar(&o.TenantId, "tenant", o.TenantId, "Tenant identifier")
}

func (o *LoginOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if o.Email == "" || o.Password == "" {
		return fmt.Errorf("--email and --password are required")
	}
	return nil
}

func (o *LoginOptions) Run(ctx context.Context, args []string) error {
	svc, _, err := o.Service()
	if err != nil {
		return err
	}

	resp, err := svc.Login(ctx, api.LoginRequest{
		Email:    o.Email,
		Password: o.Password,
		TenantId: o.TenantId,
	})
	if err != nil {
		return describeError(err)
	}

	creds := &client.Credentials{
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
		TenantId:    o.TenantId,
	}
	if err := client.SaveCredentials(client.DefaultCredentialsPath(), creds); err != nil {
		return err
	}
	fmt.Println("login succeeded")
	return nil
}
