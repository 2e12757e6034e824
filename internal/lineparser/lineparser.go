// Package lineparser turns a stream of raw, separator-delimited lines
// into a cursor over fields, tracking the "current" row the way the
// merge-join's two read heads need it: advance, inspect the key, read
// a field, repeat until exhausted.
package lineparser

import (
	"bytes"
	"fmt"
)

// LineSource is anything that can deliver whole lines on demand,
// reporting exhaustion with a zero-length, nil-error read. Both
// *offsetio.Stream and *rangeline.Reader satisfy this structurally.
type LineSource interface {
	ReadLine(buf *[]byte) (int, error)
}

// Parser wraps a LineSource, splitting each line it reads into fields
// on separator and tracking the one field (keyField) the merge-join
// compares on.
type Parser struct {
	source    LineSource
	separator byte
	keyField  int

	lastFields []string
	finished   bool
}

// New wraps source. The parser has no current row until the first
// Advance call.
func New(source LineSource, separator byte, keyField int) *Parser {
	return &Parser{source: source, separator: separator, keyField: keyField}
}

// Advance reads the next line and splits it into fields, becoming the
// parser's new current row. Once the source is exhausted, lastFields
// collapses to [""] and HasCurrent returns false from then on; Advance
// after that is a no-op.
func (p *Parser) Advance() error {
	if p.finished {
		return nil
	}
	var buf []byte
	n, err := p.source.ReadLine(&buf)
	if err != nil {
		return err
	}
	if n == 0 {
		p.finished = true
		p.lastFields = []string{""}
		return nil
	}
	line := bytes.TrimSuffix(buf, []byte{'\n'})
	parts := bytes.Split(line, []byte{p.separator})
	fields := make([]string, len(parts))
	for i, part := range parts {
		fields[i] = string(part)
	}
	p.lastFields = fields
	return nil
}

// HasCurrent reports false once Advance has run off the end of the
// source, and true before that, including before the first Advance.
func (p *Parser) HasCurrent() bool { return !p.finished }

// Key returns the current row's key field, or "" past EOF.
func (p *Parser) Key() string {
	if p.finished {
		return ""
	}
	return p.Field(p.keyField)
}

// Field returns the current row's field at i. Requesting a field past
// EOF other than 0 is a programming error: the caller should have
// checked HasCurrent first.
func (p *Parser) Field(i int) string {
	if i < 0 || i >= len(p.lastFields) {
		panic(fmt.Sprintf("lineparser: field %d absent from row %q", i, p.lastFields))
	}
	return p.lastFields[i]
}

// FieldCount returns the number of fields split out of the current row.
func (p *Parser) FieldCount() int { return len(p.lastFields) }
