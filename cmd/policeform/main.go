// Command policeform runs the tenant verification API.
// Usage: policeform serve [--config config.yaml] [--addr :3000]
package main

import (
	"os"

	"github.com/raysh454/policeform/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
