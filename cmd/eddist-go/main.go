// Command eddist-go runs the bbs.cgi-compatible bulletin board server.
package main

import (
	"fmt"
	"os"

	"github.com/eddist-go/bbs/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
