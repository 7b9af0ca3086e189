package fixture

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Encode returns the payload as ISO-8859-1 bytes, one byte per character.
func Encode() ([]byte, error) {
	return charmap.ISO8859_1.NewEncoder().Bytes([]byte(Payload))
}

// WriteTo writes the encoded payload to w.
func WriteTo(w io.Writer) (int64, error) {
	tw := transform.NewWriter(w, charmap.ISO8859_1.NewEncoder())
	n, err := io.WriteString(tw, Payload)
	if err != nil {
		return int64(n), err
	}
	// Close flushes the encoder; it does not close w.
	return int64(n), tw.Close()
}

// WriteFile creates or truncates path and writes the payload to it.
// Errors from the filesystem are returned unchanged.
func WriteFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	_, err = WriteTo(f)
	return err
}

// CreateSimplePDF writes FileName in the working directory and acknowledges
// on out.
func CreateSimplePDF(out io.Writer) error {
	if err := WriteFile(FileName); err != nil {
		return err
	}
	fmt.Fprintf(out, "Created %s\n", FileName)
	return nil
}
