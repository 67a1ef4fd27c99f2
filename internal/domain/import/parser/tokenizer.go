package parser

import "strings"

// Tokenize splits CSV text into rows of fields. Blank lines are dropped and
// commas inside double-quoted fields are not treated as delimiters.
func Tokenize(text string) [][]string {
	lines := strings.Split(text, "\n")
	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		rows = append(rows, SplitLine(line))
	}
	return rows
}

// SplitLine splits a single line on every comma that is followed by an even
// number of double quotes up to the end of the line.
func SplitLine(line string) []string {
	quotesAhead := strings.Count(line, `"`)
	fields := make([]string, 0, strings.Count(line, ",")+1)
	start := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			quotesAhead--
		case ',':
			if quotesAhead%2 == 0 {
				fields = append(fields, cleanField(line[start:i]))
				start = i + 1
			}
		}
	}
	return append(fields, cleanField(line[start:]))
}

// cleanField trims a field and strips one pair of surrounding quotes
func cleanField(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
