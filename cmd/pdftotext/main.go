// pdftotext - PDF text extraction utility
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/novvoo/go-pdffixture/pkg/fixture"
	"github.com/novvoo/go-pdffixture/pkg/pdf"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("pdftotext", flag.ContinueOnError)
	flags.SetOutput(stderr)
	firstPage := flags.Int("f", 1, "first page to convert")
	lastPage := flags.Int("l", 0, "last page to convert")
	layout := flags.Bool("layout", false, "prefix each line with its position and font")
	quiet := flags.Bool("q", false, "don't print any messages or errors")

	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: pdftotext [options] [<PDF-file>] [<text-file>]\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return 2
	}

	// errorf honours -q
	errorf := func(format string, a ...any) {
		if !*quiet {
			fmt.Fprintf(stderr, format, a...)
		}
	}

	inputFile := fixture.FileName
	if flags.NArg() > 0 {
		inputFile = flags.Arg(0)
	}

	doc, err := pdf.Open(inputFile)
	if err != nil {
		errorf("Error: %v\n", err)
		return 1
	}
	defer doc.Close()

	for _, w := range doc.Warnings {
		errorf("Syntax Warning: %s\n", w)
	}

	last := *lastPage
	if last <= 0 || last > doc.NumPages() {
		last = doc.NumPages()
	}
	if *firstPage < 1 || *firstPage > last {
		errorf("Error: invalid page range %d-%d\n", *firstPage, last)
		return 1
	}

	if flags.NArg() > 1 && flags.Arg(1) != "-" {
		err = writeFile(flags.Arg(1), doc, *firstPage, last, *layout)
	} else {
		err = writeText(stdout, doc, *firstPage, last, *layout)
	}
	if err != nil {
		errorf("Error: %v\n", err)
		return 1
	}
	return 0
}

// writeFile writes the text to path, returning flush and close errors.
func writeFile(path string, doc *pdf.Document, first, last int, layout bool) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(f)
	if err := writeText(bw, doc, first, last, layout); err != nil {
		return err
	}
	return bw.Flush()
}

func writeText(w io.Writer, doc *pdf.Document, first, last int, layout bool) error {
	for n := first; n <= last; n++ {
		page, err := doc.GetPage(n)
		if err != nil {
			return err
		}
		if err := writePage(w, page, layout); err != nil {
			return fmt.Errorf("page %d: %w", n, err)
		}
		// form feed between pages, as poppler does
		if _, err := io.WriteString(w, "\f"); err != nil {
			return err
		}
	}
	return nil
}

func writePage(w io.Writer, page *pdf.Page, layout bool) error {
	if !layout {
		text, err := page.Text()
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, text)
		return err
	}

	lines, err := page.TextLines()
	if err != nil {
		return err
	}
	for _, line := range lines {
		_, err := fmt.Fprintf(w, "%7.2f %7.2f %-12s %5.1f  %s\n",
			line.X, line.Y, line.FontName, line.FontSize, line.Text)
		if err != nil {
			return err
		}
	}
	return nil
}
