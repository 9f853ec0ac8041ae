package main

import (
	"fmt"
	"os"

	"incident-tracker/core/appbootstrap"
)

func main() {
	if err := appbootstrap.Run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
