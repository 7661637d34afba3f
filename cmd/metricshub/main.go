package main

import (
	"github.com/taxbase/metricshub/internal/cli"
)

// Version information (injected at build time)
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	cli.SetVersion(Version, Commit)
	cli.Execute()
}
