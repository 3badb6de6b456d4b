package tsc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	tc "github.com/leapstack-labs/tsbridge/pkg/toolchain"
)

// ParseConfigText decodes tsconfig text. Comments and trailing commas are
// accepted, as tsc accepts them.
func (c *Compiler) ParseConfigText(fileName string, text []byte) (*tc.ParsedConfig, *tc.Diagnostic) {
	return parseConfigText(fileName, text)
}

func parseConfigText(fileName string, text []byte) (*tc.ParsedConfig, *tc.Diagnostic) {
	clean := stripJSONC(text)
	if len(bytes.TrimSpace(clean)) == 0 {
		return &tc.ParsedConfig{Raw: map[string]any{}}, nil
	}

	var raw any
	if err := json.Unmarshal(clean, &raw); err != nil {
		loc := &tc.Location{File: fileName}
		var syn *json.SyntaxError
		if errors.As(err, &syn) {
			loc.Line, loc.Character = position(clean, syn.Offset)
		}
		d := tc.NewDiagnostic(tc.CategoryError, 1005, loc, err.Error())
		return nil, &d
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		d := tc.NewDiagnostic(tc.CategoryError, 5092, &tc.Location{File: fileName},
			fmt.Sprintf("The root value of a '%s' file must be an object.", tc.ConfigFileName))
		return nil, &d
	}
	return &tc.ParsedConfig{Raw: obj}, nil
}

// stripJSONC blanks out comments and drops trailing commas. Newlines and
// byte offsets are preserved so error positions still match the input.
func stripJSONC(in []byte) []byte {
	out := make([]byte, len(in))
	copy(out, in)
	blankComments(out)
	blankTrailingCommas(out)
	return out
}

func blankComments(b []byte) {
	inString := false
	for i := 0; i < len(b); i++ {
		ch := b[i]
		switch {
		case inString:
			if ch == '\\' {
				i++
			} else if ch == '"' {
				inString = false
			}
		case ch == '"':
			inString = true
		case ch == '/' && i+1 < len(b) && b[i+1] == '/':
			for i < len(b) && b[i] != '\n' {
				b[i] = ' '
				i++
			}
		case ch == '/' && i+1 < len(b) && b[i+1] == '*':
			b[i], b[i+1] = ' ', ' '
			i += 2
			for i < len(b) && (b[i] != '*' || i+1 >= len(b) || b[i+1] != '/') {
				if b[i] != '\n' {
					b[i] = ' '
				}
				i++
			}
			if i < len(b) {
				b[i], b[i+1] = ' ', ' '
				i++
			}
		}
	}
}

func blankTrailingCommas(b []byte) {
	inString := false
	for i := 0; i < len(b); i++ {
		ch := b[i]
		switch {
		case inString:
			if ch == '\\' {
				i++
			} else if ch == '"' {
				inString = false
			}
		case ch == '"':
			inString = true
		case ch == ',':
			j := i + 1
			for j < len(b) && isSpace(b[j]) {
				j++
			}
			if j < len(b) && (b[j] == '}' || b[j] == ']') {
				b[i] = ' '
			}
		}
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// position converts a byte offset to a 0-based line and character.
func position(text []byte, offset int64) (int, int) {
	if offset > int64(len(text)) {
		offset = int64(len(text))
	}
	line, col := 0, 0
	for _, b := range text[:offset] {
		if b == '\n' {
			line++
			col = 0
			continue
		}
		col++
	}
	return line, col
}
