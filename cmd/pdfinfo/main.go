package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/novvoo/go-pdffixture/pkg/fixture"
	"github.com/novvoo/go-pdffixture/pkg/pdf"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("pdfinfo", flag.ContinueOnError)
	flags.SetOutput(stderr)
	box := flags.Bool("box", false, "print the page bounding boxes")
	xref := flags.Bool("xref", false, "print the cross-reference table as declared in the file")
	quiet := flags.Bool("q", false, "don't print repair warnings")

	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: pdfinfo [options] [<PDF-file>]\n\n")
		fmt.Fprintf(stderr, "Prints information about a PDF file (default %s).\n\n", fixture.FileName)
		fmt.Fprintf(stderr, "Options:\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return 2
	}

	inputFile := fixture.FileName
	if flags.NArg() > 0 {
		inputFile = flags.Arg(0)
	}

	data, err := os.ReadFile(inputFile)
	if err != nil {
		fmt.Fprintf(stderr, "Error: Couldn't open file '%s': %v\n", inputFile, err)
		return 1
	}
	doc, err := pdf.NewDocument(data)
	if err != nil {
		fmt.Fprintf(stderr, "Error: Couldn't read file '%s': %v\n", inputFile, err)
		return 1
	}
	defer doc.Close()

	if !*quiet {
		for _, w := range doc.Warnings {
			fmt.Fprintf(stderr, "Syntax Warning: %s\n", w)
		}
	}

	fmt.Fprintf(stdout, "Objects:        %d\n", len(doc.Objects()))
	fmt.Fprintf(stdout, "Pages:          %d\n", doc.NumPages())

	if doc.NumPages() > 0 {
		page, _ := doc.GetPage(1)
		mediaBox := page.GetMediaBox()
		fmt.Fprintf(stdout, "Page size:      %g x %g pts", mediaBox.Width(), mediaBox.Height())
		if paperSize := detectPaperSize(mediaBox.Width(), mediaBox.Height()); paperSize != "" {
			fmt.Fprintf(stdout, " (%s)", paperSize)
		}
		fmt.Fprintln(stdout)
	}

	fmt.Fprintf(stdout, "File size:      %d bytes\n", doc.Size())
	fmt.Fprintf(stdout, "BLAKE2b-256:    %s\n", fixture.Fingerprint(data))
	fmt.Fprintf(stdout, "Fixture:        %s\n", fixtureStatus(data))
	fmt.Fprintf(stdout, "Repaired:       %s\n", boolToYesNo(doc.Repaired))
	fmt.Fprintf(stdout, "PDF version:    %s\n", doc.Version)

	if *box {
		for _, page := range doc.Pages {
			mb := page.GetMediaBox()
			fmt.Fprintf(stdout, "Page %4d MediaBox: %8.2f %8.2f %8.2f %8.2f\n",
				page.Number, mb.LLX, mb.LLY, mb.URX, mb.URY)
		}
	}

	if *xref {
		fmt.Fprintf(stdout, "\nstartxref %d\n", doc.StartXRef)
		for _, e := range doc.XRefEntries() {
			kind := "f"
			if e.InUse {
				kind = "n"
			}
			fmt.Fprintf(stdout, "%6d: %010d %05d %s\n", e.Number, e.Offset, e.Generation, kind)
		}
	}
	return 0
}

func fixtureStatus(data []byte) string {
	offset, ok, err := fixture.Compare(data)
	switch {
	case err != nil:
		return "unknown (" + err.Error() + ")"
	case ok:
		return "matches " + fixture.FileName
	default:
		return fmt.Sprintf("differs at byte %d", offset)
	}
}

func boolToYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// paperSizes lists common paper sizes in points
var paperSizes = []struct {
	name          string
	width, height float64
}{
	{"letter", 612, 792},
	{"legal", 612, 1008},
	{"A4", 595.276, 841.89},
	{"A3", 841.89, 1190.55},
	{"A5", 419.528, 595.276},
	{"B5", 498.898, 708.661},
	{"executive", 522, 756},
	{"tabloid", 792, 1224},
}

func detectPaperSize(width, height float64) string {
	const tolerance = 5.0

	for _, size := range paperSizes {
		// either orientation
		if (math.Abs(width-size.width) < tolerance && math.Abs(height-size.height) < tolerance) ||
			(math.Abs(width-size.height) < tolerance && math.Abs(height-size.width) < tolerance) {
			orientation := "portrait"
			if width > height {
				orientation = "landscape"
			}
			return fmt.Sprintf("%s, %s", size.name, orientation)
		}
	}
	return ""
}
