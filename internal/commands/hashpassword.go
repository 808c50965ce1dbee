package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/klabast/wb-services/groupie-dates/internal/app"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newHashPasswordCmd() *cobra.Command {
	var (
		overwrite      bool
		insecureUnmask bool
	)

	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Create an auth.secret file with a hashed password (Argon2id)",
		Long: `Creates an auth.secret file with hashed password (Argon2id).

Environment Variables:
  AUTH_FILE    Path to auth file (default: auth.secret next to the binary)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			authFile, err := cfg.AuthFilePath()
			if err != nil {
				return err
			}
			return hashPassword(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), authFile, overwrite, insecureUnmask)
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing auth file without asking")
	cmd.Flags().BoolVar(&insecureUnmask, "insecure-unmask-password", false, "Show password as plain text (INSECURE!)")
	return cmd
}

func hashPassword(in io.Reader, out, errOut io.Writer, authFile string, overwrite, insecureUnmask bool) error {
	reader := bufio.NewReader(in)

	fmt.Fprint(out, "Enter username: ")
	username, err := readLine(reader)
	if err != nil {
		return fmt.Errorf("error reading username: %w", err)
	}
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	var password, passwordConfirm string
	if insecureUnmask {
		fmt.Fprintln(errOut, "⚠️  WARNING: Password will be visible on screen!")
		fmt.Fprint(out, "Enter password:   ")
		if password, err = readLine(reader); err != nil {
			return fmt.Errorf("error reading password: %w", err)
		}
		fmt.Fprint(out, "Confirm password: ")
		if passwordConfirm, err = readLine(reader); err != nil {
			return fmt.Errorf("error reading password confirmation: %w", err)
		}
	} else {
		password = readPasswordWithMask(out, "Enter password:   ")
		passwordConfirm = readPasswordWithMask(out, "Confirm password: ")
	}

	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}
	if password != passwordConfirm {
		return fmt.Errorf("passwords do not match")
	}

	return app.CreateAuthFile(authFile, username, password, overwrite, reader, out)
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line, nil
}

// readPasswordWithMask reads password input from the terminal and displays asterisks
func readPasswordWithMask(out io.Writer, prompt string) string {
	fmt.Fprint(out, prompt)
	fd := int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		// Fallback to hidden input if we can't set raw mode
		password, _ := term.ReadPassword(fd)
		fmt.Fprintln(out)
		return string(password)
	}
	defer term.Restore(fd, oldState)

	var password []byte
	reader := bufio.NewReader(os.Stdin)

	for {
		char, _, err := reader.ReadRune()
		if err != nil {
			break
		}

		switch char {
		case '\n', '\r': // Enter key
			fmt.Fprint(out, "\r\n")
			return string(password)
		case 127, 8: // Backspace or Delete
			if len(password) > 0 {
				password = password[:len(password)-1]
				fmt.Fprint(out, "\b \b")
			}
		case 3: // Ctrl+C
			term.Restore(fd, oldState)
			fmt.Fprintln(out)
			os.Exit(1)
		default:
			// Only accept printable characters
			if char >= 32 && char <= 126 {
				password = append(password, byte(char))
				fmt.Fprint(out, "*")
			}
		}
	}

	fmt.Fprintln(out)
	return string(password)
}
