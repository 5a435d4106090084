package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "profile",
		Aliases: []string{"profiles"},
		Short:   "Manage saved connection profiles",
	}
	cmd.AddCommand(newProfileListCmd(), newProfileSetCmd(), newProfileUseCmd(), newProfileDeleteCmd())
	return cmd
}

type profileRow struct {
	Name      string `json:"name"`
	Current   bool   `json:"current"`
	Host      string `json:"host"`
	Token     string `json:"token"`
	Output    string `json:"output"`
	SchemaDir string `json:"schema_dir"`
}

func newProfileListCmd() *cobra.Command {
	var reveal bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List profiles (tokens masked unless --reveal)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ps, err := LoadProfiles()
			if err != nil {
				return err
			}
			rows := make([]profileRow, 0, len(ps.Entries))
			for _, name := range ps.Names() {
				p := ps.Entries[name]
				tok := p.Token
				if !reveal {
					tok = maskToken(tok)
				}
				rows = append(rows, profileRow{name, name == ps.Current, p.Host, tok, p.Output, p.SchemaDir})
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, map[string]any{"path": profilesPath(), "profiles": rows})
			}
			table := make([][]string, 0, len(rows))
			for _, r := range rows {
				marker := ""
				if r.Current {
					marker = "*"
				}
				table = append(table, []string{marker, r.Name, r.Host, r.Token, r.Output, r.SchemaDir})
			}
			PrintTable(os.Stdout, []string{"current", "name", "host", "token", "output", "schema_dir"}, table)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print tokens in clear text")
	return cmd
}

func newProfileSetCmd() *cobra.Command {
	var p Profile
	cmd := &cobra.Command{
		Use:   "set <name>",
		Short: "Create or update a profile; the first profile becomes current",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			flags := cmd.Flags()
			if flags.Changed("output") {
				if err := validateOutputFormat(p.Output); err != nil {
					return err
				}
			}
			ps, err := LoadProfiles()
			if err != nil {
				return err
			}
			cur := ps.Entries[name]
			if flags.Changed("host") {
				cur.Host = p.Host
			}
			if flags.Changed("token") {
				cur.Token = p.Token
			}
			if flags.Changed("output") {
				cur.Output = p.Output
			}
			if flags.Changed("schema-dir") {
				cur.SchemaDir = p.SchemaDir
			}
			ps.Entries[name] = cur
			if ps.Current == "" {
				ps.Current = name
			}
			if err := ps.Save(); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(os.Stderr, "saved profile %s to %s\n", name, profilesPath())
			return nil
		},
	}
	// Local flags shadow the persistent ones of the same name.
	cmd.Flags().StringVar(&p.Host, "host", "", "API host URL")
	cmd.Flags().StringVar(&p.Token, "token", "", "JWT bearer token")
	cmd.Flags().StringVar(&p.Output, "output", "", "Default output format (table, json)")
	cmd.Flags().StringVar(&p.SchemaDir, "schema-dir", "", "Directory of extra YAML decode schemas")
	return cmd
}

func newProfileUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Make a profile current",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ps, err := LoadProfiles()
			if err != nil {
				return err
			}
			if _, ok := ps.Entries[args[0]]; !ok {
				return fmt.Errorf("profile %q not found", args[0])
			}
			ps.Current = args[0]
			return ps.Save()
		},
	}
}

func newProfileDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ps, err := LoadProfiles()
			if err != nil {
				return err
			}
			if err := ps.Remove(args[0]); err != nil {
				return err
			}
			return ps.Save()
		},
	}
}
