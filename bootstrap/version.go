package bootstrap

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// readLimit bounds how much of the stream is buffered while the version is read.
// Resetting fails if finding the root element required reading more than this (1 MiB);
// in practice the root element is within the first few bytes.
const readLimit = 1024 * 1024

// defaultVersion is assumed when the root element carries no version attribute.
const defaultVersion = "1.0"

var errMarkInvalidated = errors.New("read limit exceeded after mark")

// markReader records everything read after mark so the stream can be replayed by reset.
type markReader struct {
	r     io.Reader
	buf   bytes.Buffer
	limit int
	over  bool
}

func newMarkReader(r io.Reader, limit int) *markReader {
	return &markReader{r: r, limit: limit}
}

func (m *markReader) Read(p []byte) (int, error) {
	n, err := m.r.Read(p)
	if n > 0 && !m.over {
		if m.buf.Len()+n > m.limit {
			m.over = true
			m.buf.Reset()
		} else {
			m.buf.Write(p[:n])
		}
	}
	return n, err
}

// reset returns a reader that yields the stream from the mark on.
func (m *markReader) reset() (io.Reader, error) {
	if m.over {
		return nil, errMarkInvalidated
	}
	return io.MultiReader(bytes.NewReader(m.buf.Bytes()), m.r), nil
}

// readVersion returns the version attribute of the root element, or defaultVersion.
func readVersion(r io.Reader) (string, error) {
	dec := newDecoder(r)
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return "", errors.New("no root element")
			}
			return "", err
		}

		if se, ok := tok.(xml.StartElement); ok {
			for _, a := range se.Attr {
				if a.Name.Local == "version" && a.Name.Space == "" {
					return strings.TrimSpace(a.Value), nil
				}
			}
			return defaultVersion, nil
		}
	}
}

// schemaVersion reads the version from the stream and rewinds it.
func schemaVersion(resource string, r io.Reader) (string, io.Reader, error) {
	mr := newMarkReader(r, readLimit)

	version, err := readVersion(mr)
	if err != nil {
		return "", nil, configError(resource, "version", fmt.Errorf("%w: %v", ErrUnknownSchemaVersion, err))
	}

	rewound, err := mr.reset()
	if err != nil {
		return "", nil, configError(resource, "version", fmt.Errorf("%w: %v", ErrStreamReset, err))
	}

	return version, rewound, nil
}
