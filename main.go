package main

import (
	"fmt"
	"os"

	"github.com/sivakumaru2002/devops-ease-access/internal/bootstrap"
)

func main() {
	if err := bootstrap.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
