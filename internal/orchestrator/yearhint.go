package orchestrator

import (
	"regexp"
	"strconv"
	"strings"
)

// Best-effort year extraction from paths and document text. These hints feed
// the facts prompt and serve as a fallback when the model answers "unknown".

var (
	exactYear     = regexp.MustCompile(`^(19|20)\d{2}$`)
	yearDigits    = regexp.MustCompile(`(19|20)\d{2}`)
	monthYear     = regexp.MustCompile(`(^|\D)\d{1,2}[._-]((19|20)\d{2})(\D|$)`)
	dayMonthYear  = regexp.MustCompile(`(^|\D)\d{1,2}[._-]\d{1,2}[._-]((19|20)\d{2})(\D|$)`)
	dayMonthYear2 = regexp.MustCompile(`(^|\D)\d{1,2}[._-]\d{1,2}[._-](\d{2})(\D|$)`)
	isoDate       = regexp.MustCompile(`(^|\D)((19|20)\d{2})-\d{1,2}-\d{1,2}(\D|$)`)
	timestampDate = regexp.MustCompile(`(^|\D)((19|20)\d{2})(0[1-9]|1[0-2])([0-2]\d|3[01])(\D|$)`)
)

// standaloneYears returns every plausible year in text that is not embedded
// in a longer digit run. RE2 has no lookaround, so the digit neighbors are
// checked by hand.
func standaloneYears(text string) []string {
	var years []string
	for _, loc := range yearDigits.FindAllStringIndex(text, -1) {
		if loc[0] > 0 && isDigit(text[loc[0]-1]) {
			continue
		}
		if loc[1] < len(text) && isDigit(text[loc[1]]) {
			continue
		}
		years = append(years, text[loc[0]:loc[1]])
	}
	return years
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// YearHintFromPath extracts a reference-year hint from a slash-separated
// relative path. It catches folder names that are exactly a year, dotted and
// dashed dates in filenames, ISO dates, and yyyymmdd timestamps.
func YearHintFromPath(relPath string) string {
	parts := strings.Split(relPath, "/")

	// A directory or token that is exactly a year wins, innermost first.
	for i := len(parts) - 1; i >= 0; i-- {
		if exactYear.MatchString(parts[i]) {
			return parts[i]
		}
	}

	text := strings.Join(parts, " ")

	if m := dayMonthYear.FindStringSubmatch(text); m != nil {
		return m[2]
	}
	if m := monthYear.FindStringSubmatch(text); m != nil {
		return m[2]
	}
	if m := dayMonthYear2.FindStringSubmatch(text); m != nil {
		// Two-digit year with a conservative pivot: 00-69 is 2000s.
		yy, _ := strconv.Atoi(m[2])
		if yy <= 69 {
			return strconv.Itoa(2000 + yy)
		}
		return strconv.Itoa(1900 + yy)
	}
	if m := isoDate.FindStringSubmatch(text); m != nil {
		return m[2]
	}
	if m := timestampDate.FindStringSubmatch(text); m != nil {
		return m[2]
	}
	if years := standaloneYears(text); len(years) > 0 {
		return years[0]
	}
	return ""
}

// YearHintFromText picks the most frequent plausible year from the head of
// the extracted text, breaking ties toward the latest year.
func YearHintFromText(text string) string {
	const sampleLen = 8000
	if len(text) > sampleLen {
		text = text[:sampleLen]
	}

	counts := make(map[string]int)
	for _, year := range standaloneYears(text) {
		counts[year]++
	}

	best := ""
	for year, n := range counts {
		if best == "" || n > counts[best] || (n == counts[best] && year > best) {
			best = year
		}
	}
	return best
}
