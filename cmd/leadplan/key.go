package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"leadplan/engine/internal/logging"
	"leadplan/engine/internal/openai"
)

var (
	keyFromEnv  string
	keyValidate bool
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the stored OpenAI API key",
	Long:  "The key is encrypted in the data directory and used when OPENAI_API_KEY is not set.",
}

var keySetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store an OpenAI API key read from stdin or an environment variable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		key, err := readKey(cmd)
		if err != nil {
			return err
		}
		if keyValidate {
			cfg, err := current.resolveConfig()
			if err != nil {
				return err
			}
			client := openai.NewClient(openai.WithBaseURL(cfg.Engine.BaseURL), openai.WithTimeout(cfg.Engine.RequestTimeout))
			if err := client.ValidateKey(cmd.Context(), key); err != nil {
				return fmt.Errorf("key rejected: %w", err)
			}
		}
		if err := current.secrets.SetOpenAIKey(key); err != nil {
			return err
		}
		current.logger.Info("leadplan.key_stored", "api_key", logging.RedactValue(key))
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "key stored")
		return err
	},
}

var keyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored OpenAI API key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := current.secrets.ClearOpenAIKey(); err != nil {
			return err
		}
		current.logger.Info("leadplan.key_cleared")
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "key cleared")
		return err
	},
}

var keyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where the OpenAI API key comes from",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := current.resolveConfig()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "source: %s\nkey: %s\nmodel: %s\n",
			cfg.KeySource, logging.RedactValue(cfg.Engine.APIKey), cfg.Engine.Model)
		return err
	},
}

func init() {
	keySetCmd.Flags().StringVar(&keyFromEnv, "from-env", "", "Read the key from this environment variable")
	keySetCmd.Flags().BoolVar(&keyValidate, "validate", false, "Check the key against the OpenAI API before storing it")
	keyCmd.AddCommand(keySetCmd, keyClearCmd, keyStatusCmd)
}

func readKey(cmd *cobra.Command) (string, error) {
	if keyFromEnv != "" {
		key := strings.TrimSpace(os.Getenv(keyFromEnv))
		if key == "" {
			return "", fmt.Errorf("environment variable %s is empty", keyFromEnv)
		}
		return key, nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	key := strings.TrimSpace(line)
	if key == "" {
		if err != nil {
			return "", fmt.Errorf("read key: %w", err)
		}
		return "", errors.New("no key provided on stdin")
	}
	return key, nil
}
