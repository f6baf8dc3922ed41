package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// SyntaxError locates a JSON parse failure inside a file.
type SyntaxError struct {
	Path   string
	Line   int
	Column int
	Err    error

	data []byte
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("JSON file %s parsing failed at line %d column %d: %v", e.Path, e.Line, e.Column, e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// Excerpt returns up to five lines before the defect followed by a caret
// pointing at the failing column.
func (e *SyntaxError) Excerpt() string {
	var b strings.Builder
	lines := strings.Split(string(e.data), "\n")
	for i, line := range lines {
		lineNo := i + 1
		if lineNo+5 < e.Line {
			continue
		}
		prefix := fmt.Sprintf("Line %d:", lineNo)
		fmt.Fprintf(&b, "%s\t%s\n", prefix, strings.TrimRight(line, "\r"))
		if lineNo == e.Line {
			fmt.Fprintf(&b, "%s\t%s^\n", strings.Repeat(" ", len(prefix)), strings.Repeat("-", max(e.Column-1, 0)))
			break
		}
	}
	return b.String()
}

// LoadJSON reads path and decodes it into v. Syntax and type errors are
// returned as *SyntaxError carrying the line and column of the defect.
func LoadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("JSON file %s not opened: %w", path, err)
	}
	return DecodeJSON(path, data, v)
}

// DecodeJSON decodes data into v, locating parse failures like LoadJSON.
func DecodeJSON(path string, data []byte, v interface{}) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}

	var offset int64 = -1
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	}
	if offset < 0 {
		return fmt.Errorf("JSON file %s parsing failed: %w", path, err)
	}

	line, column := position(data, offset)
	return &SyntaxError{Path: path, Line: line, Column: column, Err: err, data: data}
}

// position converts a byte offset into a 1-based line and column.
func position(data []byte, offset int64) (int, int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	head := data[:offset]
	line := bytes.Count(head, []byte("\n")) + 1
	column := int(offset)
	if idx := bytes.LastIndexByte(head, '\n'); idx >= 0 {
		column = int(offset) - idx - 1
	}
	if column < 1 {
		column = 1
	}
	return line, column
}
