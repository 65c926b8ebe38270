package main

import "github.com/klabast/wb-services/abfall-fhem/internal/commands"

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	commands.SetVersion(version)
	commands.Execute()
}
