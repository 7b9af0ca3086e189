// create-test-pdf writes the test_resume.pdf fixture to the working directory.
package main

import (
	"fmt"
	"os"

	"github.com/novvoo/go-pdffixture/pkg/fixture"
)

func main() {
	if err := fixture.CreateSimplePDF(os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
