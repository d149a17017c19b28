package services

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// SanitizeText reduces s to a single line of plain text: tags are stripped,
// control characters and whitespace runs collapse to one space.
func SanitizeText(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// Slugify derives a lowercase, dash-separated key from a display name.
// Accents are folded ("Café" -> "cafe"). Letters and digits of any script
// are kept, "_" too; everything else becomes a dash.
func Slugify(name string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, name)
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(SanitizeText(folded))

	var b strings.Builder
	dash := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			b.WriteRune(r)
			dash = false
		default:
			if b.Len() > 0 && !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// NormalizeURL validates that raw is an absolute http or https URL and returns
// it with surrounding whitespace removed and scheme and host lowercased
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return "", fmt.Errorf("%w: %q is not absolute", ErrInvalidURL, raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	u.Host = strings.ToLower(u.Host)

	return u.String(), nil
}

// ValidateBodyTemplate checks that a non-empty template is a JSON object
func ValidateBodyTemplate(template string) error {
	if strings.TrimSpace(template) == "" {
		return nil
	}
	_, err := decodeBodyTemplate(template)
	return err
}

func decodeBodyTemplate(template string) (map[string]interface{}, error) {
	dec := json.NewDecoder(strings.NewReader(template))
	dec.UseNumber()

	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBodyTemplate, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: not a JSON object", ErrInvalidBodyTemplate)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrInvalidBodyTemplate)
	}
	return fields, nil
}
