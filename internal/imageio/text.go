package imageio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ctitools/arctic"
)

// Errors returned by the text codec.
var (
	// ErrMalformed is returned when a text image cannot be parsed.
	ErrMalformed = errors.New("imageio: malformed text image")

	// ErrNilImage is returned when asked to save a nil image.
	ErrNilImage = errors.New("imageio: nil image")
)

// LoadText reads a text image from path.
func LoadText(path string) (*arctic.Image, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("imageio: open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	img, err := DecodeText(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// DecodeText parses a text image from r. The first non-blank line holds
// n_rows and n_columns; each following line holds one row of n_columns
// values. Blank lines are ignored.
func DecodeText(r io.Reader) (*arctic.Image, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	nextLine := func() ([]string, bool) {
		for sc.Scan() {
			if fields := strings.Fields(sc.Text()); len(fields) > 0 {
				return fields, true
			}
		}
		return nil, false
	}
	readErr := func(err error) error {
		if sc.Err() != nil {
			return fmt.Errorf("imageio: read: %w", sc.Err())
		}
		return err
	}

	header, ok := nextLine()
	if !ok {
		return nil, readErr(fmt.Errorf("%w: missing n_rows", ErrMalformed))
	}
	switch {
	case len(header) < 2:
		return nil, fmt.Errorf("%w: missing n_columns", ErrMalformed)
	case len(header) > 2:
		return nil, fmt.Errorf("%w: extra header value %q", ErrMalformed, header[2])
	}
	var dims [2]int
	for i, name := range [2]string{"n_rows", "n_columns"} {
		n, err := strconv.Atoi(header[i])
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: %s %q", ErrMalformed, name, header[i])
		}
		dims[i] = n
	}

	img, err := arctic.NewImage(dims[0], dims[1])
	if err != nil {
		return nil, err
	}
	for row := range dims[0] {
		fields, ok := nextLine()
		if !ok {
			return nil, readErr(fmt.Errorf("%w: missing value at [%d, 0]", ErrMalformed, row))
		}
		switch {
		case len(fields) < dims[1]:
			return nil, fmt.Errorf("%w: missing value at [%d, %d]", ErrMalformed, row, len(fields))
		case len(fields) > dims[1]:
			return nil, fmt.Errorf("%w: extra value %q at [%d, %d]", ErrMalformed, fields[dims[1]], row, dims[1])
		}
		for col, tok := range fields {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: value %q at [%d, %d]", ErrMalformed, tok, row, col)
			}
			img.Set(row, col, v)
		}
	}
	if fields, ok := nextLine(); ok {
		return nil, fmt.Errorf("%w: extra row starting %q after %d rows", ErrMalformed, fields[0], dims[0])
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("imageio: read: %w", err)
	}
	return img, nil
}

// SaveText writes img to path in the text format.
func SaveText(path string, img *arctic.Image) error {
	if img == nil {
		return ErrNilImage
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("imageio: create file: %w", err)
	}

	if err := EncodeText(f, img); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

// EncodeText writes img to w in the text format. Values use the shortest
// representation that parses back to the same float64.
func EncodeText(w io.Writer, img *arctic.Image) error {
	if img == nil {
		return ErrNilImage
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %d\n", img.Rows(), img.Cols())

	var buf []byte
	for i := range img.Rows() {
		buf = buf[:0]
		for j, v := range img.Row(i) {
			if j > 0 {
				buf = append(buf, ' ')
			}
			buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return fmt.Errorf("imageio: write: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("imageio: write: %w", err)
	}
	return nil
}
