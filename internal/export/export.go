// Package export writes converted sheets to disk as <sheet>.json.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// PreviewLimit is how many records the on-screen preview shows
const PreviewLimit = 50

// literal writes strings with only the escapes JSON requires
var literal = sonic.Config{
	EscapeHTML:     false,
	ValidateString: true,
}.Froze()

// Marshal pretty-prints records with two-space indentation, keeping each
// record's key order as received. Escapes applied upstream (\uXXXX for
// non-ASCII, \u0026 for &) are written back as literal characters.
func Marshal(records []json.RawMessage) ([]byte, error) {
	var compact bytes.Buffer
	compact.WriteByte('[')
	for i, rec := range records {
		if i > 0 {
			compact.WriteByte(',')
		}
		if err := reencode(&compact, rec); err != nil {
			return nil, fmt.Errorf("export: record %d: %w", i, err)
		}
	}
	compact.WriteByte(']')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// reencode copies one JSON value token by token, decoding every string and
// writing it again through literal. Numbers keep their original text.
func reencode(w *bytes.Buffer, raw json.RawMessage) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	// per open container: is it an object, and how many tokens it holds so far
	type frame struct {
		object bool
		n      int
	}
	var stack []frame
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		if d, ok := tok.(json.Delim); ok && (d == '}' || d == ']') {
			stack = stack[:len(stack)-1]
			w.WriteByte(byte(d))
			continue
		}
		if len(stack) > 0 {
			top := &stack[len(stack)-1]
			switch {
			case top.n == 0:
			case top.object && top.n%2 == 1:
				w.WriteByte(':')
			default:
				w.WriteByte(',')
			}
			top.n++
		}

		switch v := tok.(type) {
		case json.Delim:
			w.WriteByte(byte(v))
			stack = append(stack, frame{object: v == '{'})
		case string:
			b, err := literal.Marshal(v)
			if err != nil {
				return err
			}
			w.Write(b)
		case json.Number:
			w.WriteString(v.String())
		case bool:
			w.WriteString(strconv.FormatBool(v))
		case nil:
			w.WriteString("null")
		}
	}
	if len(stack) > 0 {
		return io.ErrUnexpectedEOF
	}
	return nil
}

// Preview renders at most PreviewLimit records
func Preview(records []json.RawMessage) (string, error) {
	if len(records) > PreviewLimit {
		records = records[:PreviewLimit]
	}
	b, err := Marshal(records)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FileName is the download name for a sheet
func FileName(sheet string) string {
	return sheet + ".json"
}

// WriteSheet writes the full record list for sheet into dir and returns the
// path written. The file is replaced atomically.
func WriteSheet(dir, sheet string, records []json.RawMessage) (string, error) {
	if sheet == "" || strings.ContainsAny(sheet, `/\`) || sheet == "." || sheet == ".." {
		return "", fmt.Errorf("export: sheet name %q cannot be used as a file name", sheet)
	}
	data, err := Marshal(records)
	if err != nil {
		return "", fmt.Errorf("export: encode %s: %w", sheet, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}

	path := filepath.Join(dir, FileName(sheet))
	tmp, err := os.CreateTemp(dir, ".sheetjson-*")
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("export: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("export: write %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	return path, nil
}
