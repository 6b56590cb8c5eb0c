package main

import (
	"os"

	"github.com/hugo-lorenzo-mato/quorum-forge/cmd/quorumctl/cmd"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cmd.SetVersion(version, commit, date)
	os.Exit(cmd.Execute())
}
