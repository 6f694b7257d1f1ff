package main

import (
	"github.com/caas-team/kestrel/cmd"
)

// version is the current version of kestrel
// It is set at build time by using -ldflags "-X main.version=x.x.x"
var version string

func main() {
	cmd.Execute(version)
}
