package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ismrmrd-go/mrdstream/internal/cliutil"
	"github.com/ismrmrd-go/mrdstream/internal/dataset"
)

// groupLister is an optional Dataset capability, implemented by both
// localstore and s3store, for enumerating the groups a store holds.
// Not part of the core dataset.Dataset interface since the client driver
// itself never needs to list groups, only read/write a named one.
type groupLister interface {
	Groups() ([]string, error)
}

var groupsCmd = &cobra.Command{
	Use:   "groups <path>",
	Short: "List the groups held by a local or S3 dataset",
	Long: `Groups lists the group names present in path, printed with their
raw/image kind.

Examples:
  mrdclient groups ./scan
  mrdclient groups s3://mrd-data/raw`,
	Args: cobra.ExactArgs(1),
	RunE: runGroups,
}

func init() {
	rootCmd.AddCommand(groupsCmd)
}

func runGroups(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	ds, err := openDataset(ctx, args[0])
	if err != nil {
		return fmt.Errorf("open dataset: %w", err)
	}
	defer ds.Close()

	lister, ok := ds.(groupLister)
	if !ok {
		return fmt.Errorf("groups: %s does not support listing", args[0])
	}

	names, err := lister.Groups()
	if err != nil {
		return fmt.Errorf("list groups: %w", err)
	}

	table := cliutil.NewTableData("GROUP", "KIND")
	for _, name := range names {
		kind, err := ds.Kind(name)
		if err != nil {
			kind = dataset.KindUnknown
		}
		table.AddRow(name, kind.String())
	}
	cliutil.PrintTable(os.Stdout, table)
	return nil
}
