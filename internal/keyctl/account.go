package keyctl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/lifelog/internal/server/models"
	"github.com/dmitrijs2005/lifelog/internal/server/services"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

type createAccountOptions struct {
	Username      string
	Email         string
	FullName      string
	Roles         []string
	PasswordStdin bool
}

// NewCreateAccountCommand creates the create-account command.
func NewCreateAccountCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &createAccountOptions{}

	cmd := &cobra.Command{
		Use:   "create-account",
		Short: "Create a local account with an explicit role set",
		Long: `Create a local account. The password is read from the terminal without
echo, or from the first line of stdin with --password-stdin. The first
role given is the primary role.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateAccount(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Username, "username", "u", "", "login name (required)")
	cmd.Flags().StringVarP(&opts.Email, "email", "e", "", "email address (required)")
	cmd.Flags().StringVar(&opts.FullName, "full-name", "", "display name")
	cmd.Flags().StringSliceVar(&opts.Roles, "role", []string{models.DefaultRole}, "role, repeatable; the first is primary")
	cmd.Flags().BoolVar(&opts.PasswordStdin, "password-stdin", false, "read the password from stdin")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runCreateAccount(rootOpts *RootOptions, opts *createAccountOptions, cmd *cobra.Command) error {
	for _, r := range opts.Roles {
		if !models.IsKnownRole(r) {
			return fmt.Errorf("unknown role %q: must be one of %v", r, models.KnownRoles)
		}
	}

	password, err := promptPassword(cmd, opts.PasswordStdin)
	if err != nil {
		return err
	}

	s, err := rootOpts.open(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	svc := services.NewAccountService(s.db, s.rm, rootOpts.cfg)
	acc, err := svc.CreateWithRoles(cmd.Context(), services.Registration{
		Username: opts.Username,
		Email:    opts.Email,
		Password: password,
		FullName: opts.FullName,
	}, opts.Roles...)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created account %d (%s, roles %s)\n", acc.ID, acc.Username, strings.Join(acc.Roles, ","))
	return nil
}

func promptPassword(cmd *cobra.Command, fromStdin bool) (string, error) {
	if fromStdin {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && err != io.EOF {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(cmd.ErrOrStderr(), "Enter password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
