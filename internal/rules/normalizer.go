// Package rules normalizes recognizer transcripts with deterministic
// substitutions. Speech recognition routinely mangles the wake phrase and
// mood words ("hay proton", "angree"), so a small rules file lets a
// deployment patch those mishearings without code changes.
package rules

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

type rewrite interface {
	Apply(input string) (output string, changed bool)
}

// LineParser parses one rules-file line into a compiled rewrite.
type LineParser interface {
	CanParse(line string) bool
	Parse(line string) (rewrite, error)
}

// Normalizer applies its rewrites repeatedly until the text settles or the
// pass limit is reached, so chained corrections converge.
type Normalizer struct {
	rewrites  []rewrite
	passLimit int
}

// Load compiles a rules file. An empty path or a missing file yields a
// pass-through normalizer.
func Load(path string, passLimit int) (*Normalizer, error) {
	return LoadWithParsers(path, passLimit, defaultParsers())
}

// LoadWithParsers allows rule-format extension without touching the engine.
func LoadWithParsers(path string, passLimit int, parsers []LineParser) (*Normalizer, error) {
	if passLimit <= 0 {
		passLimit = 30
	}
	if len(parsers) == 0 {
		parsers = defaultParsers()
	}

	if strings.TrimSpace(path) == "" {
		return &Normalizer{passLimit: passLimit}, nil
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Normalizer{passLimit: passLimit}, nil
		}
		return nil, fmt.Errorf("reading rules file %q: %w", path, err)
	}

	rewrites, err := compile(string(contents), parsers)
	if err != nil {
		return nil, fmt.Errorf("parsing rules file %q: %w", path, err)
	}

	return &Normalizer{rewrites: rewrites, passLimit: passLimit}, nil
}

// Apply runs every rewrite over the transcript until a full pass changes
// nothing.
func (n *Normalizer) Apply(text string) (string, error) {
	if len(n.rewrites) == 0 {
		return text, nil
	}

	result := text
	for i := 0; i < n.passLimit; i++ {
		changed := false
		for _, rw := range n.rewrites {
			next, applied := rw.Apply(result)
			if applied {
				result = next
				changed = true
			}
		}
		if !changed {
			return result, nil
		}
	}

	return result, nil
}

func compile(contents string, parsers []LineParser) ([]rewrite, error) {
	lines := strings.Split(contents, "\n")
	rewrites := make([]rewrite, 0, len(lines))

	for index, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parsed := false
		for _, parser := range parsers {
			if !parser.CanParse(line) {
				continue
			}
			rw, err := parser.Parse(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", index+1, err)
			}
			rewrites = append(rewrites, rw)
			parsed = true
			break
		}

		if !parsed {
			return nil, fmt.Errorf("line %d: unsupported rule format", index+1)
		}
	}

	return rewrites, nil
}

func defaultParsers() []LineParser {
	return []LineParser{sedParser{}, literalParser{}}
}

// literalParser handles "misheard => corrected" lines. Matching is
// case-insensitive and replaces every occurrence.
type literalParser struct{}

func (literalParser) CanParse(line string) bool {
	return strings.Contains(line, "=>")
}

func (literalParser) Parse(line string) (rewrite, error) {
	parts := strings.SplitN(line, "=>", 2)
	from := strings.TrimSpace(parts[0])
	to := strings.TrimSpace(parts[1])
	if from == "" {
		return nil, errors.New("literal rule source cannot be empty")
	}

	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(from))
	if err != nil {
		return nil, fmt.Errorf("invalid literal source: %w", err)
	}

	return literalRewrite{replacement: to, re: re}, nil
}

type literalRewrite struct {
	replacement string
	re          *regexp.Regexp
}

func (r literalRewrite) Apply(input string) (string, bool) {
	output := r.re.ReplaceAllString(input, r.replacement)
	return output, output != input
}

// sedParser handles "s/pattern/replacement/flags" lines with an arbitrary
// non-alphanumeric delimiter. Supported flags: i, g, m, s. Case-insensitive
// by default; without g only the first match is replaced.
type sedParser struct{}

func (sedParser) CanParse(line string) bool {
	return len(line) > 1 && line[0] == 's' && !isWordByte(line[1])
}

func (sedParser) Parse(line string) (rewrite, error) {
	delim := line[1]

	pattern, pos, err := readDelimited(line, 2, delim)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	replacement, pos, err := readDelimited(line, pos, delim)
	if err != nil {
		return nil, fmt.Errorf("invalid replacement: %w", err)
	}

	ignoreCase, global, multiLine, dotAll := true, false, false, false
	for _, flag := range strings.TrimSpace(line[pos:]) {
		switch flag {
		case 'i':
			ignoreCase = true
		case 'g':
			global = true
		case 'm':
			multiLine = true
		case 's':
			dotAll = true
		case ' ':
		default:
			return nil, fmt.Errorf("unsupported flag %q", flag)
		}
	}

	prefix := ""
	if ignoreCase {
		prefix += "i"
	}
	if multiLine {
		prefix += "m"
	}
	if dotAll {
		prefix += "s"
	}
	if prefix != "" {
		pattern = "(?" + prefix + ")" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex: %w", err)
	}

	return sedRewrite{re: re, replacement: replacement, global: global}, nil
}

type sedRewrite struct {
	re          *regexp.Regexp
	replacement string
	global      bool
}

func (r sedRewrite) Apply(input string) (string, bool) {
	if r.global {
		output := r.re.ReplaceAllString(input, r.replacement)
		return output, output != input
	}

	loc := r.re.FindStringIndex(input)
	if loc == nil {
		return input, false
	}

	segment := input[loc[0]:loc[1]]
	output := input[:loc[0]] + r.re.ReplaceAllString(segment, r.replacement) + input[loc[1]:]
	return output, output != input
}

func readDelimited(line string, start int, delim byte) (string, int, error) {
	if start >= len(line) {
		return "", 0, errors.New("unexpected end of expression")
	}

	var builder strings.Builder
	escaped := false
	for index := start; index < len(line); index++ {
		char := line[index]
		if escaped {
			builder.WriteByte(char)
			escaped = false
			continue
		}
		if char == '\\' {
			escaped = true
			builder.WriteByte(char)
			continue
		}
		if char == delim {
			return builder.String(), index + 1, nil
		}
		builder.WriteByte(char)
	}
	return "", 0, errors.New("unterminated expression")
}

func isWordByte(char byte) bool {
	return (char >= 'a' && char <= 'z') ||
		(char >= 'A' && char <= 'Z') ||
		(char >= '0' && char <= '9') ||
		char == ' ' || char == '\t'
}
