package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			errObj := map[string]any{
				"error": err.Error(),
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				errObj["http_status"] = apiErr.HTTPStatus
				errObj["code"] = apiErr.Code
			}
			_ = PrintJSON(os.Stdout, errObj)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// settings are the resolved global options shared by all commands.
type settings struct {
	host      string
	token     string
	output    string
	profile   string
	schemaDir string
}

func newRootCmd() *cobra.Command {
	s := &settings{}
	client := NewClient("http://localhost:8080", "")

	rootCmd := &cobra.Command{
		Use:           "fleet",
		Short:         "Fleet dashboard CLI",
		Long:          "Command-line interface for the fleet dashboard API and offline payload decoding.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			profiles, err := LoadProfiles()
			if err != nil {
				return err
			}
			p := profiles.Active(s.profile)

			// Precedence: flag > env > profile > default
			flags := cmd.Root().PersistentFlags()
			resolve(flags.Changed("host"), &s.host, "FLEET_HOST", p.Host)
			resolve(flags.Changed("token"), &s.token, "FLEET_TOKEN", p.Token)
			resolve(flags.Changed("output"), &s.output, "FLEET_OUTPUT", p.Output)
			resolve(flags.Changed("schema-dir"), &s.schemaDir, "FLEET_SCHEMA_DIR", p.SchemaDir)
			if !flags.Changed("output") && s.output != "" {
				_ = flags.Set("output", s.output)
			}

			if err := validateOutputFormat(s.output); err != nil {
				return err
			}
			client.BaseURL = s.host
			client.Token = s.token
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&s.host, "host", "http://localhost:8080", "API host URL")
	pf.StringVar(&s.token, "token", "", "JWT token for authentication")
	pf.StringVarP(&s.output, "output", "o", "table", "Output format (table, json)")
	pf.StringVarP(&s.profile, "profile", "p", "", "Config profile to use")
	pf.StringVar(&s.schemaDir, "schema-dir", "", "Directory of extra YAML decode schemas")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newProfileCmd())
	rootCmd.AddCommand(newDecodeCmd(s))
	rootCmd.AddCommand(newSchemasCmd(client, s))
	rootCmd.AddCommand(newVehiclesCmd(client))
	rootCmd.AddCommand(newDriversCmd(client))
	rootCmd.AddCommand(newLocationsCmd(client))
	rootCmd.AddCommand(newTripsCmd(client))
	rootCmd.AddCommand(newKPIsCmd(client))
	rootCmd.AddCommand(newSyncCmd(client))
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// resolve fills *dst from the environment or the profile unless the flag
// was set explicitly.
func resolve(changed bool, dst *string, envKey, profileVal string) {
	if changed {
		return
	}
	if v := os.Getenv(envKey); v != "" {
		*dst = v
	} else if profileVal != "" {
		*dst = profileVal
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
}
