package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"fintrack/internal/log"
	"fintrack/internal/models"
	"fintrack/internal/util"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gorm.io/gorm"
)

type addUserOptions struct {
	Username string
	Email    string
	Password string
}

func NewAddUserCommand(opts *RootOptions) *cobra.Command {
	o := &addUserOptions{}

	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAddUser(cmd, opts, o)
		},
	}

	cmd.Flags().StringVarP(&o.Username, "username", "u", "", "username (required)")
	cmd.Flags().StringVarP(&o.Email, "email", "e", "", "email address (required)")
	cmd.Flags().StringVarP(&o.Password, "password", "p", "", "password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runAddUser(cmd *cobra.Command, opts *RootOptions, o *addUserOptions) error {
	out := cmd.OutOrStdout()
	username := strings.TrimSpace(o.Username)
	email := strings.ToLower(strings.TrimSpace(o.Email))

	e, err := opts.setup(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer e.close()

	if err := util.ValidateUsername(username); err != nil {
		return err
	}
	if err := util.ValidateEmail(email, e.cfg.Security.AllowedEmailDomain); err != nil {
		return err
	}

	password := o.Password
	if password == "" {
		fmt.Fprint(out, "Password: ")
		password, err = readPassword(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		fmt.Fprintln(out)
	}
	if err := util.ValidatePassword(password); err != nil {
		return err
	}

	hash, err := util.HashPassword(password, e.cfg.Security.BcryptCost)
	if err != nil {
		return err
	}

	user := models.User{Username: username, Email: email, PasswordHash: hash}
	if err := e.db.WithContext(cmd.Context()).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("user %s or email %s already exists", username, email)
		}
		return fmt.Errorf("create user: %w", err)
	}

	e.logger.Info("user created", log.FieldUserID, user.ID)
	fmt.Fprintf(out, "User %s created with ID %d\n", user.Username, user.ID)
	return nil
}

// readPassword reads without echo from a terminal, or one line otherwise.
func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
