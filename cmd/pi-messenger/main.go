// pi-messenger is the CLI for the file-based coordination fabric.
package main

import (
	"os"

	"github.com/pi-messenger/messenger/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
