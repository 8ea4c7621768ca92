// Package extract pulls identity fields out of OCR text lines using layout
// heuristics. Line order is load bearing: it encodes the card layout.
package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	idNumberRe     = regexp.MustCompile(`\b\d{4}\s\d{4}\s\d{4}\b`)
	idNumberFullRe = regexp.MustCompile(`^\d{4}\s\d{4}\s\d{4}$`)
	dateRe         = regexp.MustCompile(`\d{2}/\d{2}/\d{4}`)
)

var birthKeywords = []string{"DOB", "YEAR OF BIRTH", "DATE OF BIRTH"}

// boilerplate words printed on every card that are never the holder's name
var nameStoplist = map[string]struct{}{
	"GOVERNMENT": {},
	"INDIA":      {},
	"MALE":       {},
	"FEMALE":     {},
	"AADHAAR":    {},
}

const addressSpan = 4 // keyword line plus the three below it

// IsIDNumber reports whether s is exactly a grouped 12-digit identity number.
func IsIDNumber(s string) bool {
	return idNumberFullRe.MatchString(s)
}

// Extract runs the field heuristics over lines in reading order. It never
// fails; an empty input is marked NotDetected.
func Extract(lines []string) Fields {
	if len(lines) == 0 {
		return Fields{Name: NotDetected, IDNumber: NotDetected}
	}

	f := Fields{RawText: strings.Join(lines, " ")}
	f.IDNumber = idNumberRe.FindString(f.RawText)

	anchor := birthAnchor(lines)
	if anchor >= 0 {
		dob := lines[anchor]
		f.DOB = &dob
	}

	if anchor > 0 {
		f.Name = nameAbove(lines, anchor)
	} else {
		f.Name = fallbackName(lines)
	}

	f.Address = address(lines)
	return f
}

// birthAnchor returns the index of the first birth-date line, or -1.
func birthAnchor(lines []string) int {
	for i, l := range lines {
		up := strings.ToUpper(l)
		for _, kw := range birthKeywords {
			if strings.Contains(up, kw) {
				return i
			}
		}
		if dateRe.MatchString(l) {
			return i
		}
	}
	return -1
}

// nameAbove takes the line printed just above the birth date, stepping one
// more line up when that one is only a short label.
func nameAbove(lines []string, anchor int) string {
	name := letters(lines[anchor-1])
	if utf8.RuneCountInString(name) < 3 && anchor > 1 {
		name = letters(lines[anchor-2])
	}
	return name
}

func fallbackName(lines []string) string {
	for _, l := range lines {
		if utf8.RuneCountInString(l) <= 3 || !isAlpha(l) {
			continue
		}
		if _, stop := nameStoplist[strings.ToUpper(l)]; stop {
			continue
		}
		return l
	}
	return ""
}

func address(lines []string) string {
	for i, l := range lines {
		if strings.Contains(strings.ToUpper(l), "ADDRESS") {
			end := min(i+addressSpan, len(lines))
			return strings.Join(lines[i:end], ", ")
		}
	}
	return ""
}

// letters drops everything except letters and whitespace, then trims.
func letters(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}
