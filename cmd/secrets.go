package cmd

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/OpenCHAMI/powerctl/internal/util"
	"github.com/OpenCHAMI/powerctl/pkg/secrets"
	"github.com/spf13/cobra"
)

var (
	secretsStoreFormat    string
	secretsStoreInputFile string
)

var secretsCmd = &cobra.Command{
	Use: "secrets",
	Example: `  // generate new key and set environment variable
  export MASTER_KEY=$(powerctl secrets generatekey)

  // store credentials for a PDU port (or use the 'default' id for all ports)
  powerctl secrets store pdu-lab admin:hunter2

  // retrieve creds from a specific secrets file
  powerctl secrets retrieve pdu-lab --secrets-file pdus.json

  // keep credentials in the OS keyring instead
  powerctl secrets store pdu-lab admin:hunter2 --secrets-backend keyring`,
	Short: "Manage credentials for PDUs and BMCs",
	Long:  "Manage credentials used by network power backends. The local backend requires generating a key and setting the 'MASTER_KEY' environment variable; the keyring backend uses the OS keyring.",
}

var secretsGenerateKeyCmd = &cobra.Command{
	Use:   "generatekey",
	Args:  cobra.NoArgs,
	Short: "Generates a new 32-byte master key (in hex).",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := secrets.GenerateMasterKey()
		if err != nil {
			return fmt.Errorf("failed to generate master key: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

var secretsStoreCmd = &cobra.Command{
	Use:   "store secretID [value]",
	Args:  cobra.RangeArgs(1, 2),
	Short: "Stores the given value under secretID.",
	Long:  "Stores credentials under secretID. The value is username:password (basic), a JSON document (json) or base64 encoded JSON (base64).",
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			secretID    = args[0]
			secretValue string
		)

		// require either the args or input file
		switch {
		case len(args) > 1 && secretsStoreInputFile != "":
			return fmt.Errorf("cannot use -i/--input-file with positional argument")
		case len(args) > 1:
			secretValue = args[1]
		case secretsStoreInputFile != "":
			b, err := os.ReadFile(secretsStoreInputFile)
			if err != nil {
				return fmt.Errorf("failed to read input file: %w", err)
			}
			secretValue = strings.TrimSpace(string(b))
		default:
			return fmt.Errorf("no input data or file")
		}

		creds, err := parseCredentials(secretValue, secretsStoreFormat)
		if err != nil {
			return err
		}
		store, err := util.OpenSecretStore()
		if err != nil {
			return err
		}
		if err := secrets.StoreCredentials(store, secretID, creds); err != nil {
			return fmt.Errorf("failed to store secret: %w", err)
		}
		return nil
	},
}

// parseCredentials() decodes a secret value in the given input format.
func parseCredentials(value string, inputFormat string) (secrets.Credentials, error) {
	var creds secrets.Credentials
	switch inputFormat {
	case "basic": // format: $username:$password
		username, password, ok := strings.Cut(value, ":")
		if !ok {
			return creds, fmt.Errorf("expected credentials in [username:password] format")
		}
		return secrets.Credentials{Username: username, Password: password}, nil
	case "base64":
		decoded, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			return creds, fmt.Errorf("failed to decode base64 data: %w", err)
		}
		value = string(decoded)
		fallthrough
	case "json": // format: {"username": $username, "password": $password}
		if !isValidCredsJSON(value) {
			return creds, fmt.Errorf("value is not valid JSON or is missing credentials")
		}
		if err := json.Unmarshal([]byte(value), &creds); err != nil {
			return creds, err
		}
		return creds, nil
	}
	return creds, fmt.Errorf("unknown input format '%s' (basic|json|base64)", inputFormat)
}

func isValidCredsJSON(val string) bool {
	var creds map[string]any
	if err := json.Unmarshal([]byte(val), &creds); err != nil {
		return false
	}
	_, validUsername := creds["username"]
	_, validPassword := creds["password"]
	return validUsername && validPassword
}

var secretsRetrieveCmd = &cobra.Command{
	Use:   "retrieve secretID",
	Args:  cobra.ExactArgs(1),
	Short: "Prints the value stored under secretID.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := util.OpenSecretStore()
		if err != nil {
			return err
		}
		secretValue, err := store.GetSecretByID(args[0])
		if err != nil {
			return fmt.Errorf("failed to retrieve secret: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Secret for %s: %s\n", args[0], secretValue)
		return nil
	},
}

var secretsListCmd = &cobra.Command{
	Use:   "list",
	Args:  cobra.NoArgs,
	Short: "Lists all the secret IDs and their values.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := util.OpenSecretStore()
		if err != nil {
			return err
		}
		all, err := store.ListSecrets()
		if err != nil {
			return fmt.Errorf("failed to list secrets: %w", err)
		}
		ids := make([]string, 0, len(all))
		for id := range all {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", id, all[id])
		}
		return nil
	},
}

var secretsRemoveCmd = &cobra.Command{
	Use:   "remove secretIDs...",
	Args:  cobra.MinimumNArgs(1),
	Short: "Remove secrets by IDs from secret store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := util.OpenSecretStore()
		if err != nil {
			return err
		}
		for _, secretID := range args {
			if err := store.RemoveSecretByID(secretID); err != nil {
				return fmt.Errorf("failed to remove secret: %w", err)
			}
		}
		return nil
	},
}

func init() {
	secretsStoreCmd.Flags().StringVarP(&secretsStoreFormat, "format", "F", "basic", "Set the input format (basic|json|base64).")
	secretsStoreCmd.Flags().StringVarP(&secretsStoreInputFile, "input-file", "i", "", "Set the file to read as input.")

	secretsCmd.AddCommand(secretsGenerateKeyCmd)
	secretsCmd.AddCommand(secretsStoreCmd)
	secretsCmd.AddCommand(secretsRetrieveCmd)
	secretsCmd.AddCommand(secretsListCmd)
	secretsCmd.AddCommand(secretsRemoveCmd)

	rootCmd.AddCommand(secretsCmd)
}
