// Command autoemulate runs emulator model comparisons from the terminal: it
// loads training data from CSV files or a built-in synthetic simulator,
// evaluates every candidate model/transform combination, and prints the
// ranked summary.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
