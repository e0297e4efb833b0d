// Package images locates card image files on disk.
//
// A missing image is never an error: cards render without a thumbnail
// when no file can be found.
package images

import (
	"os"
	"path/filepath"
	"strings"
)

// imageExtensions are tried in order when guessing a file name.
var imageExtensions = []string{".png", ".jpg", ".jpeg", ".webp"}

// Resolver locates card images inside a single root directory. The
// root is also what the static file route serves, so every resolved
// name maps to a fetchable URL.
type Resolver struct {
	root string
}

// NewResolver picks the image root with the fallback order: configured
// directory, ./images, ./data/images. The first existing directory
// wins; when none exist the resolver finds nothing.
func NewResolver(configuredDir string) *Resolver {
	candidates := []string{}
	if configuredDir != "" {
		candidates = append(candidates, configuredDir)
	}
	candidates = append(candidates, "./images", "./data/images")

	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return &Resolver{root: dir}
		}
	}
	return &Resolver{}
}

// Root returns the selected image directory, or "" when none exist.
// Used to mount the static file route.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve returns the path of the named image file relative to the
// root, or "" when the file does not exist there.
func (r *Resolver) Resolve(filename string) string {
	if filename == "" || r.root == "" {
		return ""
	}
	path := filepath.Join(r.root, filename)
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return filename
	}
	return ""
}

// Guess tries to find an image file from the card's set id and number
// when no explicit file name was given. Candidate names combine the
// sanitized set id with the number, zero-padded variants included.
func (r *Resolver) Guess(setID, number string) string {
	if setID == "" || number == "" {
		return ""
	}
	for _, name := range candidateNames(setID, number) {
		for _, ext := range imageExtensions {
			if found := r.Resolve(name + ext); found != "" {
				return found
			}
		}
	}
	return ""
}

// candidateNames yields base names to probe for a set id + number pair.
func candidateNames(setID, number string) []string {
	set := sanitize(setID)
	num := strings.ToLower(strings.TrimSpace(number))
	num = strings.ReplaceAll(num, "#", "")
	num = strings.ReplaceAll(num, " ", "")

	var digits, alnum strings.Builder
	for _, ch := range num {
		if ch >= '0' && ch <= '9' {
			digits.WriteRune(ch)
		}
		if (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'z') {
			alnum.WriteRune(ch)
		}
	}

	bases := []string{num}
	if d := digits.String(); d != "" {
		bases = append(bases, d, zeroPad(d, 3), zeroPad(d, 4))
	}
	if a := alnum.String(); a != "" {
		bases = append(bases, a)
	}

	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for _, base := range bases {
		add(set + "_" + base)
		add(set + base)
		add(base)
	}
	return names
}

// sanitize lowercases and replaces non-alphanumeric characters with
// underscores, trimming leading/trailing ones.
func sanitize(s string) string {
	var b strings.Builder
	for _, ch := range strings.ToLower(s) {
		if (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'z') {
			b.WriteRune(ch)
		} else {
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}

func zeroPad(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}
