// Command mrdserver runs the MRD streaming reconstruction server.
package main

import (
	"fmt"
	"os"

	"github.com/ismrmrd-go/mrdstream/cmd/mrdserver/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
