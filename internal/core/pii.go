package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"

	"github.com/JonMunkholm/synthedata/internal/schema"
)

// PII sensitivity levels recorded in the envelope.
const (
	PIIHigh = "high"
	PIILow  = "low"
)

// DefaultPIISalt is used by MaskPII when no salt is configured.
const DefaultPIISalt = "default_salt"

var piiPatterns = map[string]bool{
	schema.PatternEmail:     true,
	schema.PatternPhone:     true,
	schema.PatternFirstName: true,
	schema.PatternLastName:  true,
	schema.PatternFullName:  true,
}

var (
	piiNameRe  = regexp.MustCompile(`(?i)(email|phone|first_name|last_name|full_name|ssn|birth|address)`)
	emailValRe = regexp.MustCompile(`@`)
	phoneValRe = regexp.MustCompile(`\d{7,}`)
)

// IsPII reports whether a field holds personal data, judged by its string
// pattern or its name.
func IsPII(spec schema.FieldSpec) bool {
	if spec.Kind != schema.KindString {
		return false
	}
	return piiPatterns[spec.Domain.Pattern] || piiNameRe.MatchString(spec.Name)
}

// PIIFields returns the names of the PII fields of desc.
func PIIFields(desc *schema.Descriptor) []string {
	var out []string
	for _, f := range desc.Fields {
		if IsPII(f) {
			out = append(out, f.Name)
		}
	}
	return out
}

// Sensitivity classifies a whole table.
func Sensitivity(desc *schema.Descriptor) string {
	if len(PIIFields(desc)) > 0 {
		return PIIHigh
	}
	return PIILow
}

// TagValue classifies a single value as "email", "phone" or "".
func TagValue(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	switch {
	case emailValRe.MatchString(s):
		return "email"
	case phoneValRe.MatchString(s):
		return "phone"
	}
	return ""
}

// HashValue returns the salted SHA-256 of a value as hex.
func HashValue(salt string, v any) string {
	h := sha256.New()
	h.Write([]byte(salt))
	fmt.Fprint(h, v)
	return hex.EncodeToString(h.Sum(nil))
}

// MaskPII replaces every non-null PII value in rs with its salted hash and
// returns the number of cells rewritten. Key fields are left alone so links
// stay intact.
func MaskPII(rs *RecordSet, salt string) int {
	if salt == "" {
		salt = DefaultPIISalt
	}
	var masked int
	for _, name := range PIIFields(rs.Schema) {
		if rs.Schema.IsKeyField(name) {
			continue
		}
		for i := range rs.Records {
			v := rs.Records[i].Fields[name]
			if v == nil {
				continue
			}
			rs.Records[i].Fields[name] = HashValue(salt, v)
			masked++
		}
	}
	return masked
}
