//-------------------------------------------------------------------------
//
// pgEdge Financial Data Generator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package writers

import (
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/goccy/go-json"

	"github.com/pgEdge/pgedge-findatagen/internal/record"
)

// Default XML element names.
const (
	DefaultXMLRoot = "records"
	DefaultXMLItem = "record"
)

// ValidXMLName reports whether s can be used as an XML element name.
// Namespace prefixes and names reserved by the "xml" prefix are refused.
func ValidXMLName(s string) bool {
	if s == "" || strings.HasPrefix(strings.ToLower(s), "xml") {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && (r == '-' || r == '.' || unicode.IsDigit(r)):
		default:
			return false
		}
	}
	return true
}

// csvWriter writes a header taken from the first record's keys followed
// by one row per record.
type csvWriter struct{}

func (csvWriter) Name() string { return "CSV" }

func (csvWriter) Write(w io.Writer, records []record.Record, opts Options) error {
	if len(records) == 0 {
		return errNoRecords
	}

	cw := csv.NewWriter(w)
	if opts.Delimiter != 0 {
		cw.Comma = opts.Delimiter
	}

	header := records[0].Keys()
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for _, r := range records {
		for i, k := range header {
			v, ok := r.Get(k)
			if !ok || v == nil {
				row[i] = Missing
				continue
			}
			row[i] = record.Format(v)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// jsonlWriter writes one JSON object per line.
type jsonlWriter struct{}

func (jsonlWriter) Name() string { return "JSONL" }

func (jsonlWriter) Write(w io.Writer, records []record.Record, _ Options) error {
	if len(records) == 0 {
		return errNoRecords
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

// jsonWriter writes a single JSON array.
type jsonWriter struct{}

func (jsonWriter) Name() string { return "JSON" }

func (jsonWriter) Write(w io.Writer, records []record.Record, _ Options) error {
	if len(records) == 0 {
		return errNoRecords
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// xmlWriter writes records as child elements of a root element. Each field
// becomes an element named after its key; null fields are empty elements.
type xmlWriter struct{}

func (xmlWriter) Name() string { return "XML" }

func (xmlWriter) Write(w io.Writer, records []record.Record, opts Options) error {
	if len(records) == 0 {
		return errNoRecords
	}
	root := opts.XMLRoot
	if root == "" {
		root = DefaultXMLRoot
	}
	item := opts.XMLItem
	if item == "" {
		item = DefaultXMLItem
	}
	for _, name := range []string{root, item} {
		if !ValidXMLName(name) {
			return fmt.Errorf("invalid XML element name %q", name)
		}
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	rootStart := xml.StartElement{Name: xml.Name{Local: root}}
	if err := enc.EncodeToken(rootStart); err != nil {
		return err
	}
	itemStart := xml.StartElement{Name: xml.Name{Local: item}}
	for _, r := range records {
		if err := enc.EncodeToken(itemStart); err != nil {
			return err
		}
		for _, k := range r.Keys() {
			v, _ := r.Get(k)
			if err := enc.EncodeElement(record.Format(v), xml.StartElement{Name: xml.Name{Local: k}}); err != nil {
				return err
			}
		}
		if err := enc.EncodeToken(itemStart.End()); err != nil {
			return err
		}
	}
	if err := enc.EncodeToken(rootStart.End()); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
