package main

import (
	"os"

	"github.com/juriadams/angular-build-info/internal/cli"
)

func main() {
	code := cli.Execute(os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}
