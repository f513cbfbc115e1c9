package data

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gota/gota/dataframe"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Options controls how delimited files are parsed.
type Options struct {
	// Delimiter separates fields. Zero means ','.
	Delimiter rune
	// Encoding names the file charset ("utf-8", "gbk", "latin1", ...).
	// Empty means utf-8.
	Encoding string
	// NaNValues are the cell tokens read as missing.
	NaNValues []string
}

// DefaultOptions reads comma-separated utf-8 with blank, NA and NaN as missing.
func DefaultOptions() Options {
	return Options{
		Delimiter: ',',
		Encoding:  "utf-8",
		NaNValues: []string{"", "NA", "NaN", "<nil>"},
	}
}

func (o Options) loadOptions() []dataframe.LoadOption {
	delim := o.Delimiter
	if delim == 0 {
		delim = ','
	}
	nan := o.NaNValues
	if nan == nil {
		nan = DefaultOptions().NaNValues
	}
	return []dataframe.LoadOption{
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.WithDelimiter(delim),
		dataframe.NaNValues(nan),
	}
}

// decoder wraps r so it yields utf-8 text.
func (o Options) decoder(r io.Reader) (io.Reader, error) {
	name := strings.ToLower(strings.TrimSpace(o.Encoding))
	if name == "" || name == "utf-8" || name == "utf8" {
		return r, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported encoding %q", ErrInput, o.Encoding)
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

// Load reads a delimited file whose first row names the columns.
func Load(path string, opts Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInput, err)
	}
	defer f.Close()
	return Read(bufio.NewReader(f), path, opts)
}

// Read parses a delimited stream. name is recorded as the dataset path.
func Read(r io.Reader, name string, opts Options) (*Dataset, error) {
	h := xxhash.New()
	text, err := opts.decoder(io.TeeReader(r, h))
	if err != nil {
		return nil, err
	}
	df := dataframe.ReadCSV(text, opts.loadOptions()...)
	ds, err := FromFrame(name, df)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", displayName(name), err)
	}
	ds.Fingerprint = h.Sum64()
	return ds, nil
}

func displayName(name string) string {
	if name == "" {
		return "<stream>"
	}
	return name
}
