// Package parser turns uploaded CSV and Excel files into header-keyed rows for
// the import pipeline. It does not interpret values; that is the validator's job.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ErrEmptyFile is wrapped by the ParseError returned for files without data rows
var ErrEmptyFile = errors.New("file is empty or missing data rows")

// ParseError reports a file that cannot be imported at all
type ParseError struct {
	FileName string
	Message  string
	Err      error
}

func (e *ParseError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.FileName != "" {
		return fmt.Sprintf("%s: %s", e.FileName, msg)
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Row is one mapped data row
type Row struct {
	Line   int               `json:"line"`   // 1-based file line, the header is line 1
	Values map[string]string `json:"values"` // header name -> field value
}

// Get returns the value under a header, or "" when the column is absent
func (r Row) Get(column string) string {
	return r.Values[column]
}

// Document is a parsed file: its header row and every data row
type Document struct {
	Headers []string
	Rows    []Row
}

// Parse tokenizes CSV text and maps the data rows by the first row's headers
func Parse(text string) (*Document, error) {
	return fromTokens(Tokenize(text))
}

// ReadFile decodes an uploaded file. Workbooks are read with excelize,
// everything else is treated as UTF-8 CSV text.
func ReadFile(name string, data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, &ParseError{FileName: name, Message: "could not read file", Err: ErrEmptyFile}
	}

	var tokens [][]string
	if isWorkbook(name) {
		rows, err := readWorkbook(data)
		if err != nil {
			return nil, &ParseError{FileName: name, Message: "could not read workbook", Err: err}
		}
		tokens = rows
	} else {
		data = bytes.TrimPrefix(data, []byte("\ufeff"))
		if !utf8.Valid(data) {
			return nil, &ParseError{FileName: name, Message: "file is not valid UTF-8 text"}
		}
		tokens = Tokenize(string(data))
	}

	doc, err := fromTokens(tokens)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.FileName = name
		}
		return nil, err
	}
	return doc, nil
}

func fromTokens(tokens [][]string) (*Document, error) {
	if len(tokens) < 2 {
		return nil, &ParseError{Message: "could not import file", Err: ErrEmptyFile}
	}
	headers := tokens[0]
	return &Document{
		Headers: headers,
		Rows:    MapRows(headers, tokens[1:]),
	}, nil
}

func isWorkbook(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".xlsx")
}
