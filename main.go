package main

import (
	"fmt"
	"os"

	"github.com/giygas/slim-api/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "slim-api:", err)
		os.Exit(1)
	}
}
