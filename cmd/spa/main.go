package main

import (
	"github.com/klothoplatform/spa-stack/pkg/cli"
)

// Version is set at build time with `-ldflags "-X main.Version=..."`.
var Version = "0.0.0-local"

func main() {
	cli.SpaMain{Version: Version}.Main()
}
