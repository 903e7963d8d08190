package ingestor

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DocumentSource yields the files to ingest one at a time.
type DocumentSource interface {
	Next() bool
	Current() File
	Err() error
}

// File is one document to register for a shipment.
type File struct {
	Name         string
	DocumentType string
	Reader       io.Reader
}

// FileSource reads documents from local paths. The document type is
// guessed from the file name when DocumentType is empty.
type FileSource struct {
	Paths        []string
	DocumentType string

	idx     int
	current File
	err     error
}

var _ DocumentSource = (*FileSource)(nil)

func (s *FileSource) Next() bool {
	if s.err != nil || s.idx >= len(s.Paths) {
		return false
	}
	p := s.Paths[s.idx]
	s.idx++

	b, err := os.ReadFile(p)
	if err != nil {
		s.err = fmt.Errorf("unable to read %s: %w", p, err)
		return false
	}
	name := filepath.Base(p)
	docType := s.DocumentType
	if docType == "" {
		docType = GuessDocumentType(name)
	}
	s.current = File{Name: name, DocumentType: docType, Reader: bytes.NewReader(b)}
	return true
}

func (s *FileSource) Current() File {
	return s.current
}

func (s *FileSource) Err() error {
	return s.err
}

var typeHints = []struct {
	hint    string
	docType string
}{
	{"invoice", "Commercial Invoice"},
	{"packing", "Packing List"},
	{"waybill", "Air Waybill"},
	{"awb", "Air Waybill"},
	{"lading", "Bill of Lading"},
	{"origin", "Certificate of Origin"},
	{"sds", "Safety Data Sheet"},
	{"license", "License"},
	{"certificate", "Certificate"},
}

// GuessDocumentType maps common file name patterns to a document type label.
func GuessDocumentType(fileName string) string {
	lower := strings.ToLower(fileName)
	for _, h := range typeHints {
		if strings.Contains(lower, h.hint) {
			return h.docType
		}
	}
	return "Other"
}
