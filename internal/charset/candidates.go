package charset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUndecodable is returned when no candidate decodes the input.
var ErrUndecodable = errors.New("no candidate encoding could decode the input")

// DefaultNames lists the candidate encodings in the order they are tried.
var DefaultNames = []string{"utf-8", "latin1", "cp1252", "gbk", "gb2312", "gb18030"}

// Candidates is an ordered list of encodings; the first strict decode wins.
type Candidates []Encoding

// DefaultCandidates returns the built-in candidate list.
func DefaultCandidates() Candidates {
	c, err := ParseCandidates(DefaultNames)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseCandidates resolves names in order. An empty list is an error.
func ParseCandidates(names []string) (Candidates, error) {
	out := make(Candidates, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		enc, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		out = append(out, enc)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("candidate encoding list is empty")
	}
	return out, nil
}

// Names returns the candidate names in priority order.
func (c Candidates) Names() []string {
	names := make([]string, len(c))
	for i, enc := range c {
		names[i] = enc.Name
	}
	return names
}

// Decode tries each candidate in order and returns the text together with the
// name of the encoding that produced it.
func (c Candidates) Decode(data []byte) (string, string, error) {
	for _, enc := range c {
		text, err := enc.Decode(data)
		if err != nil {
			continue
		}
		return text, enc.Name, nil
	}
	return "", "", fmt.Errorf("%w (tried %s)", ErrUndecodable, strings.Join(c.Names(), ", "))
}
