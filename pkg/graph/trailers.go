package graph

import (
	"regexp"
	"strings"
)

var trailerLineRe = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9-]*):[ \t]*(.*)$`)

// Trailer is a structured "Key: value" line found at the end of a commit message
type Trailer struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Trailers is the ordered list of trailers of a commit message
type Trailers []Trailer

// ParseTrailers extracts the trailer block of a commit message.
//
// The trailer block is the last paragraph of the message, provided it is not the
// subject paragraph and all its lines are "Key: value" lines. Otherwise the message
// has no trailers.
func ParseTrailers(message string) Trailers {
	text := strings.TrimRight(strings.ReplaceAll(message, "\r\n", "\n"), " \t\n")
	idx := strings.LastIndex(text, "\n\n")
	if idx < 0 {
		return nil
	}

	block := strings.TrimLeft(text[idx+2:], "\n")
	if block == "" {
		return nil
	}

	lines := strings.Split(block, "\n")
	trailers := make(Trailers, 0, len(lines))
	for _, line := range lines {
		m := trailerLineRe.FindStringSubmatch(strings.TrimRight(line, " \t"))
		if m == nil {
			return nil
		}
		trailers = append(trailers, Trailer{Key: m[1], Value: m[2]})
	}
	return trailers
}

// Get the value of the first trailer with this key. Keys are case-insensitive.
func (t Trailers) Get(key string) (string, bool) {
	for _, trailer := range t {
		if strings.EqualFold(trailer.Key, key) {
			return trailer.Value, true
		}
	}
	return "", false
}

// Has a trailer with this key and value
func (t Trailers) Has(key, value string) bool {
	for _, trailer := range t {
		if strings.EqualFold(trailer.Key, key) && trailer.Value == value {
			return true
		}
	}
	return false
}

func (t Trailers) String() string {
	var b strings.Builder
	for _, trailer := range t {
		b.WriteString(trailer.Key)
		b.WriteString(": ")
		b.WriteString(trailer.Value)
		b.WriteByte('\n')
	}
	return b.String()
}

// FormatMessage builds a commit message from a subject line and a trailer block
func FormatMessage(subject string, trailers Trailers) string {
	subject = strings.TrimSpace(subject)
	if len(trailers) == 0 {
		return subject + "\n"
	}
	return subject + "\n\n" + trailers.String()
}
