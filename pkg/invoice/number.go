package invoice

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"
	"unicode"
)

const (
	defaultNumberPrefix = "INV"
	subjectPrefixLen    = 6
	subjectHashLen      = 6
	dayLayout           = "060102"
)

// FormatNumber builds an invoice number like INV-250314-ACME01-9C1F04-0003.
// The day is taken in UTC. The readable prefix may be shared by several
// subjects, the hash segment of the full id keeps their numbers apart.
func FormatNumber(prefix string, day time.Time, subjectID string, seq int64) string {
	return fmt.Sprintf("%s-%s-%s-%s-%04d", prefix, DayKey(day), SubjectPrefix(subjectID), SubjectHash(subjectID), seq)
}

// DayKey returns the yymmdd form of the UTC calendar day.
func DayKey(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

// SubjectPrefix returns up to six upper-cased alphanumeric characters of the subject id.
func SubjectPrefix(subjectID string) string {
	var b strings.Builder
	for _, r := range subjectID {
		if b.Len() >= subjectPrefixLen {
			break
		}
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	if b.Len() == 0 {
		return "X"
	}
	return b.String()
}

// SubjectHash returns six upper-case hex digits of the FNV-1a hash of the
// trimmed subject id. It is stable across processes and releases.
func SubjectHash(subjectID string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.TrimSpace(subjectID)))
	return fmt.Sprintf("%08X", h.Sum32())[:subjectHashLen]
}
