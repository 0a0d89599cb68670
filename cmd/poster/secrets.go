package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"poster/pkg/config"
	"poster/pkg/logx"
)

// secretsCmd manages the encrypted credentials file
var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Manage encrypted credentials",
	Long: `Credentials are read from <state-dir>/secrets.json.enc first, then from the
environment. The file is unlocked with POSTER_SECRETS_PASSWORD or an
interactive prompt.

Known names: ANTHROPIC_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY, OLLAMA_HOST,
X_API_KEY, X_API_SECRET, X_ACCESS_TOKEN, X_ACCESS_SECRET`,
}

var secretsSetCmd = &cobra.Command{
	Use:   "set NAME",
	Short: "Store a secret (value read from the terminal or stdin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.SecretsPath(stateDir)
		fresh := !config.SecretsFileExists(stateDir)

		password, err := secretsPassword(fresh)
		if err != nil {
			return err
		}
		secrets := config.NewSecrets()
		if !fresh {
			if secrets, err = config.LoadEncrypted(path, password); err != nil {
				return err
			}
		}

		fmt.Fprintf(os.Stderr, "Value for %s: ", args[0])
		value, err := readSecret()
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return err
		}
		if value == "" {
			return fmt.Errorf("empty value for %s", args[0])
		}

		secrets.Set(args[0], value)
		if err := secrets.SaveEncrypted(path, password); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stored %s in %s\n", args[0], path)
		return nil
	},
}

var secretsDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Remove a secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !config.SecretsFileExists(stateDir) {
			return fmt.Errorf("no secrets file in %s", stateDir)
		}
		password, err := secretsPassword(false)
		if err != nil {
			return err
		}
		path := config.SecretsPath(stateDir)
		secrets, err := config.LoadEncrypted(path, password)
		if err != nil {
			return err
		}
		secrets.Delete(args[0])
		if err := secrets.SaveEncrypted(path, password); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
		return nil
	},
}

var secretsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored secret names and which credentials are resolvable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		secrets, err := loadSecrets(stateDir)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, name := range secrets.Names() {
			fmt.Fprintf(out, "%s (file)\n", name)
		}
		for _, name := range knownSecretNames() {
			if secrets.Lookup(name) != "" && !contains(secrets.Names(), name) {
				fmt.Fprintf(out, "%s (env)\n", name)
			}
		}
		return nil
	},
}

func init() { //nolint:gochecknoinits // cobra command registration
	secretsCmd.AddCommand(secretsSetCmd, secretsDeleteCmd, secretsListCmd)
}

func knownSecretNames() []string {
	return []string{
		config.EnvAnthropicAPIKey, config.EnvOpenAIAPIKey, config.EnvGoogleAPIKey, config.EnvOllamaHost,
		config.EnvXConsumerKey, config.EnvXConsumerSecret, config.EnvXAccessToken, config.EnvXAccessSecret,
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// loadSecrets returns the decrypted secrets file when one exists, else an
// empty holder that resolves from the environment.
func loadSecrets(dir string) (*config.Secrets, error) {
	if !config.SecretsFileExists(dir) {
		return config.NewSecrets(), nil
	}
	password, err := secretsPassword(false)
	if err != nil {
		return nil, err
	}
	secrets, err := config.LoadEncrypted(config.SecretsPath(dir), password)
	if err != nil {
		return nil, fmt.Errorf("failed to unlock secrets: %w", err)
	}
	logx.NewLogger("poster").Debug("Loaded %d secrets from %s", len(secrets.Names()), dir)
	return secrets, nil
}

// secretsPassword reads the password from the environment or the terminal.
// A new file asks for confirmation.
func secretsPassword(confirm bool) (string, error) {
	if p := os.Getenv(config.EnvSecretsPassword); p != "" {
		return p, nil
	}
	fd := int(os.Stdin.Fd()) //nolint:gosec // fd fits in int
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("secrets file is encrypted: set %s", config.EnvSecretsPassword)
	}

	fmt.Fprint(os.Stderr, "Secrets password: ")
	password1, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if !confirm {
		return string(password1), nil
	}

	fmt.Fprint(os.Stderr, "Confirm password: ")
	password2, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if !bytes.Equal(password1, password2) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(password1), nil
}

// readSecret reads a value without echo on a terminal, or one line of stdin otherwise.
func readSecret() (string, error) {
	fd := int(os.Stdin.Fd()) //nolint:gosec // fd fits in int
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		if err != nil {
			return "", fmt.Errorf("failed to read value: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read value: %w", err)
	}
	return strings.TrimSpace(line), nil
}
