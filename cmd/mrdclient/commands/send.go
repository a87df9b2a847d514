package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ismrmrd-go/mrdstream/internal/client"
	"github.com/ismrmrd-go/mrdstream/internal/cliutil"
	"github.com/ismrmrd-go/mrdstream/internal/config"
	"github.com/ismrmrd-go/mrdstream/internal/dataset"
	"github.com/ismrmrd-go/mrdstream/internal/logger"
)

var (
	flagAddress        string
	flagPort           int
	flagInFile         string
	flagOutFile        string
	flagInGroup        string
	flagOutGroup       string
	flagConfigSelector string
	flagConfigLocal    string
	flagVerboseSend    bool
	flagYes            bool
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a dataset group to an MRD server and save the reply",
	Long: `Send streams one group's acquisitions (or images) from an input
dataset to an MRD server, then writes whatever the server streams back
into an output dataset group.

Input and output paths are local directories by default, or
"s3://bucket/prefix" URIs to use the S3-backed dataset store.

Examples:
  mrdclient send --filename ./scan --outfile ./recon --address 127.0.0.1
  mrdclient send --filename s3://mrd-data/raw --outfile ./recon --config simplefft`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVar(&flagAddress, "address", "", "server address (overrides config)")
	sendCmd.Flags().IntVar(&flagPort, "port", 0, "server port (overrides config)")
	sendCmd.Flags().StringVar(&flagInFile, "filename", "", "input dataset path (overrides config)")
	sendCmd.Flags().StringVar(&flagOutFile, "outfile", "", "output dataset path (overrides config)")
	sendCmd.Flags().StringVar(&flagInGroup, "in-group", "", "input group name (overrides config)")
	sendCmd.Flags().StringVar(&flagOutGroup, "out-group", "", "output group name (overrides config)")
	sendCmd.Flags().StringVar(&flagConfigSelector, "config-selector", "", "remote ConfigSelector (overrides config)")
	sendCmd.Flags().StringVar(&flagConfigLocal, "config-local", "", "path to a local config script sent inline (overrides config)")
	sendCmd.Flags().BoolVarP(&flagVerboseSend, "verbose", "v", false, "enable debug logging")
	sendCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "overwrite an existing output group without prompting")
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadClient(GetConfigFile())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applySendOverrides(cfg)
	if cfg.Filename == "" || cfg.OutFile == "" {
		return fmt.Errorf("--filename and --outfile are required (set via flag, env MRD_FILENAME/MRD_OUTFILE, or config file)")
	}

	if err := logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: cfg.Logging.Output}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	ctx := context.Background()

	input, err := openDataset(ctx, cfg.Filename)
	if err != nil {
		return fmt.Errorf("open input dataset: %w", err)
	}
	output, err := openDataset(ctx, cfg.OutFile)
	if err != nil {
		return fmt.Errorf("open output dataset: %w", err)
	}

	if _, err := output.Kind(cfg.OutGroup); err == nil {
		ok, err := cliutil.ConfirmWithForce(
			fmt.Sprintf("output group %q already exists in %s, overwrite", cfg.OutGroup, cfg.OutFile),
			flagYes,
		)
		if err != nil {
			if errors.Is(err, cliutil.ErrAborted) {
				return fmt.Errorf("aborted")
			}
			return fmt.Errorf("confirm overwrite: %w", err)
		}
		if !ok {
			return fmt.Errorf("aborted: output group %q already exists", cfg.OutGroup)
		}
	} else {
		var notFound *dataset.ErrGroupNotFound
		if !errors.As(err, &notFound) {
			return fmt.Errorf("check output group: %w", err)
		}
	}

	return client.Run(client.Options{
		Address:        cfg.Address,
		Port:           cfg.Port,
		Input:          input,
		InGroup:        cfg.InGroup,
		Output:         output,
		OutGroup:       cfg.OutGroup,
		ConfigSelector: cfg.ConfigSelector,
		ConfigLocal:    cfg.ConfigLocal,
		ConnectTimeout: cfg.ConnectTimeout,
	})
}

func applySendOverrides(cfg *config.ClientConfig) {
	if flagAddress != "" {
		cfg.Address = flagAddress
	}
	if flagPort != 0 {
		cfg.Port = flagPort
	}
	if flagInFile != "" {
		cfg.Filename = flagInFile
	}
	if flagOutFile != "" {
		cfg.OutFile = flagOutFile
	}
	if flagInGroup != "" {
		cfg.InGroup = flagInGroup
	}
	if flagOutGroup != "" {
		cfg.OutGroup = flagOutGroup
	}
	if flagConfigSelector != "" {
		cfg.ConfigSelector = flagConfigSelector
	}
	if flagConfigLocal != "" {
		cfg.ConfigLocal = flagConfigLocal
	}
	if flagVerboseSend {
		cfg.Logging.Level = "DEBUG"
	}
}
