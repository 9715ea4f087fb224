// The main package for the pdfhound executable.
package main

import (
	"github.com/pdfhound/pdfhound/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
