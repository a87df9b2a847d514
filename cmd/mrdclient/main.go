// Command mrdclient drives an MRD streaming session against a server.
package main

import (
	"fmt"
	"os"

	"github.com/ismrmrd-go/mrdstream/cmd/mrdclient/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
