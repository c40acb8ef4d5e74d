package loader

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"
)

// generatedRegexp matches the header comments of generated Python
// files, including the test modules this tool writes.
var generatedRegexp = regexp.MustCompile(`^#\s*(Generated by testgen\b.*|Code generated .* DO NOT EDIT\.)$`)

// IsGenerated reports whether content starts with a generated-file
// header. Only the leading comment block is scanned.
func IsGenerated(content []byte) bool {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#!") {
			continue
		}
		if !strings.HasPrefix(line, "#") {
			return false
		}
		if generatedRegexp.MatchString(line) {
			return true
		}
	}
	return false
}
