package dimension

import (
	"bufio"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nao1215/taxocrawl/internal/model"
	"golang.org/x/crypto/sha3"
)

// Header is written before the root element.
const Header = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>` + "\n"

// Indent is the per-level indentation of the serialized document.
const Indent = "  "

// Property names attached to every taxonomy node.
const (
	PropertyUniquePath = "UNIQUE_PATH"
	PropertySID        = "SID"
)

// ErrAlreadyWritten is returned when WriteFile is called a second time.
var ErrAlreadyWritten = errors.New("dimension document already written")

// Document is an in-memory dimension document.
// Nodes are appended once and the document is written to a file once.
type Document struct {
	dimension string
	nodes     []model.DimensionNode
	written   bool
}

// New creates a Document for the named dimension.
func New(dimension string) *Document {
	return &Document{dimension: dimension}
}

// Dimension returns the dimension name.
func (d *Document) Dimension() string {
	return d.dimension
}

// Append adds nodes after the ones already present.
func (d *Document) Append(nodes ...model.DimensionNode) {
	d.nodes = append(d.nodes, nodes...)
}

// Len returns the number of taxonomy nodes, excluding the dimension node.
func (d *Document) Len() int {
	return len(d.nodes)
}

// WriteTo serializes the document to w with two-space indentation.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}

	if _, err := io.WriteString(cw, Header); err != nil {
		return cw.n, err
	}

	enc := xml.NewEncoder(cw)
	enc.Indent("", Indent)
	if err := enc.Encode(d.wire()); err != nil {
		return cw.n, fmt.Errorf("encode dimension %q: %w", d.dimension, err)
	}
	if err := enc.Close(); err != nil {
		return cw.n, err
	}

	_, err := io.WriteString(cw, "\n")
	return cw.n, err
}

// WriteResult describes a written dimension file.
type WriteResult struct {
	// Path is the file that was written.
	Path string

	// Bytes is the file size.
	Bytes int64

	// Checksum is the hex-encoded SHA3-256 digest of the file content.
	Checksum string
}

// WriteFile creates or truncates path and writes the document to it.
// It may be called only once per Document.
func (d *Document) WriteFile(path string) (*WriteResult, error) {
	if d.written {
		return nil, ErrAlreadyWritten
	}
	d.written = true

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644) //nolint:gosec // dimension files are read by the indexer
	if err != nil {
		return nil, fmt.Errorf("create dimension file: %w", err)
	}

	hash := sha3.New256()
	buf := bufio.NewWriter(io.MultiWriter(f, hash))

	n, err := d.WriteTo(buf)
	if err == nil {
		err = buf.Flush()
	}
	if err != nil {
		_ = f.Close() //nolint:errcheck // the write error is reported
		return nil, fmt.Errorf("write dimension file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close dimension file %s: %w", path, err)
	}

	return &WriteResult{
		Path:     path,
		Bytes:    n,
		Checksum: hex.EncodeToString(hash.Sum(nil)),
	}, nil
}

// wire converts the document into its XML representation.
func (d *Document) wire() xmlDocument {
	doc := xmlDocument{
		Nodes: make([]xmlNode, 0, len(d.nodes)+1),
	}
	doc.Nodes = append(doc.Nodes, xmlNode{ID: d.dimension, Name: d.dimension})
	for _, n := range d.nodes {
		doc.Nodes = append(doc.Nodes, newXMLNode(n))
	}
	return doc
}

// countingWriter counts bytes passed to the underlying writer.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
