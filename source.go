package volley

import (
	"encoding/csv"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// RequestSource produces an ordered, lazy sequence of RequestSpecs.
// Next returns io.EOF once the source is exhausted; any other error aborts
// the run. Sources are read sequentially, single-pass and never retried.
type RequestSource interface {
	Next() (*RequestSpec, error)
	Close() error
}

// SyntheticSource repeats a single method/URL/header tuple, producing
// descriptor indices in [skip, num).
type SyntheticSource struct {
	method string
	url    string
	header http.Header
	next   int
	end    int
}

// NewSyntheticSource builds a source that yields num-skip requests with
// indices skip through num-1.
func NewSyntheticSource(method, url string, header http.Header, skip, num int) *SyntheticSource {
	return &SyntheticSource{
		method: method,
		url:    url,
		header: header,
		next:   skip,
		end:    num,
	}
}

func (s *SyntheticSource) Next() (*RequestSpec, error) {
	if s.next >= s.end {
		return nil, io.EOF
	}
	spec := &RequestSpec{
		Index:   s.next,
		URL:     s.url,
		Method:  s.method,
		Header:  s.header,
		Created: time.Now(),
	}
	s.next++
	return spec, nil
}

func (s *SyntheticSource) Close() error {
	return nil
}

// FileSource streams requests from a CSV file with url, method, headers and
// body columns. Missing or empty cells fall back to the defaults given at
// open time; the headers cell is a query string merged over the default
// headers, with its names overriding duplicates.
type FileSource struct {
	method string
	url    string
	header http.Header

	path    string
	file    *os.File
	reader  *csv.Reader
	columns map[string]int
	index   int
	end     int
}

// OpenFileSource opens path and positions the source on the first row to
// issue. Skipped rows still consume indices, so the first produced spec
// carries index skip. A positive num bounds the run to indices below it;
// zero leaves the source bounded only by the file length.
func OpenFileSource(path, method, url string, header http.Header, skip, num int) (*FileSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &SourceReadError{Path: path, Err: err}
	}

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	columnRow, err := reader.Read()
	if err != nil {
		file.Close()
		return nil, &SourceReadError{Path: path, Err: err}
	}

	columns := make(map[string]int, len(columnRow))
	for i, name := range columnRow {
		columns[strings.TrimSpace(name)] = i
	}

	source := &FileSource{
		method:  method,
		url:     url,
		header:  header,
		path:    path,
		file:    file,
		reader:  reader,
		columns: columns,
		end:     num,
	}

	for i := 0; i < skip; i++ {
		if _, err := reader.Read(); err == io.EOF {
			break
		} else if err != nil {
			file.Close()
			return nil, &SourceReadError{Path: path, Err: err}
		}
		source.index++
	}
	return source, nil
}

func (s *FileSource) Next() (*RequestSpec, error) {
	if s.end > 0 && s.index >= s.end {
		return nil, io.EOF
	}

	row, err := s.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, &SourceReadError{Path: s.path, Err: err}
	}

	header := s.header
	if encoded := s.cell(row, "headers", ""); encoded != "" {
		overrides, err := ParseHeaders(encoded)
		if err != nil {
			return nil, &SourceReadError{Path: s.path, Err: err}
		}
		header = MergeHeaders(s.header, overrides)
	}

	spec := &RequestSpec{
		Index:   s.index,
		URL:     s.cell(row, "url", s.url),
		Method:  s.cell(row, "method", s.method),
		Header:  header,
		Body:    s.cell(row, "body", ""),
		Created: time.Now(),
	}
	s.index++
	return spec, nil
}

func (s *FileSource) cell(row []string, name, fallback string) string {
	i, ok := s.columns[name]
	if !ok || i >= len(row) || row[i] == "" {
		return fallback
	}
	return row[i]
}

func (s *FileSource) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
