package main

import (
	"fmt"
	"os"

	"payledger/internal/app/server"
)

func main() {
	if err := server.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "payledger: %v\n", err)
		os.Exit(1)
	}
}
