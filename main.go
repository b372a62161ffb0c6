package main

import (
	"os"

	"bskyrss/cmd"

	_ "golang.org/x/crypto/x509roots/fallback" // We need this to make TLS work in scratch containers
)

func main() {
	os.Exit(cmd.Run(os.Args, os.Stdout, os.Stderr))
}
