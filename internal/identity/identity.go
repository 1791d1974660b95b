// Package identity parses an optional IDENTITY.md file into a short block
// appended to the system prompt, giving an agent a persistent name and
// personality distinct from the underlying model.
package identity

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// Identity is the parsed content of an IDENTITY.md file.
type Identity struct {
	Name        string
	Description string
}

// Load reads and parses path. A missing file is not an error: Load returns
// the zero Identity.
func Load(path string) (Identity, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return Identity{}, nil
	}
	if err != nil {
		return Identity{}, err
	}
	defer f.Close()

	return ParseIdentityMarkdown(f)
}

// ParseIdentityMarkdown reads a simple IDENTITY.md format:
//
//	# Name
//	Free-form description text, possibly multiple lines/paragraphs.
//
// The first top-level heading becomes Name; everything after it becomes
// Description, trimmed.
func ParseIdentityMarkdown(r io.Reader) (Identity, error) {
	scanner := bufio.NewScanner(r)
	var id Identity
	var body strings.Builder
	sawHeading := false

	for scanner.Scan() {
		line := scanner.Text()
		if !sawHeading && strings.HasPrefix(line, "# ") {
			id.Name = strings.TrimSpace(strings.TrimPrefix(line, "# "))
			sawHeading = true
			continue
		}
		if !sawHeading {
			continue
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return Identity{}, err
	}

	id.Description = strings.TrimSpace(body.String())
	return id, nil
}

// Block renders the identity as a system-prompt section, or the empty
// string if no identity was loaded.
func (id Identity) Block() string {
	if id.Name == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString("You are ")
	b.WriteString(id.Name)
	b.WriteString(".\n")
	if id.Description != "" {
		b.WriteString(id.Description)
		b.WriteString("\n")
	}
	return b.String()
}
