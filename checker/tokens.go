package checker

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const maxTokenLineBytes = 64 * 1024

// ReadTokens reads one token per line. Blank lines and lines starting with '#' are skipped.
// Lines of the form "email:password:token" keep only the last field.
func ReadTokens(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxTokenLineBytes)

	var tokens []string
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if i := strings.LastIndexByte(text, ':'); i >= 0 {
			text = strings.TrimSpace(text[i+1:])
		}
		if text != "" {
			tokens = append(tokens, text)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tokens: %w", err)
	}
	return tokens, nil
}
