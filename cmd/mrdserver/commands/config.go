package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ismrmrd-go/mrdstream/internal/cliutil"
	"github.com/ismrmrd-go/mrdstream/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective server configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadServer(GetConfigFile())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return cliutil.PrintYAML(os.Stdout, cfg)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
