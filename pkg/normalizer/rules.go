// Package normalizer cleans raw marketplace records before matching.
// Cleaning is expressed as named rules applied in priority order, so the
// pipeline for a field is data, not control flow.
package normalizer

import (
	"html"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Rule is a function that rewrites a string value
type Rule func(string) string

// RuleKind tags what a rule does to a value
type RuleKind string

const (
	RuleKindCleanup   RuleKind = "cleanup"   // removes noise (whitespace, markup, boilerplate)
	RuleKindNormalize RuleKind = "normalize" // rewrites to a canonical form (units, casing)
	RuleKindMapping   RuleKind = "mapping"   // dictionary substitution (typos, aliases)
)

// FieldRule is a tagged rule with an application priority (lower runs first)
type FieldRule struct {
	Name     string
	Kind     RuleKind
	Priority int
	Apply    Rule
}

// registry holds all registered rules by name
var registry = make(map[string]Rule)

func init() {
	Register("collapse_whitespace", CollapseWhitespace)
	Register("trim", strings.TrimSpace)
	Register("lowercase", strings.ToLower)
	Register("strip_markup", StripMarkup)
	Register("decode_entities", html.UnescapeString)
	Register("normalize_key", NormalizeKey)
	Register("normalize_casing", NormalizeCasing)
}

// Register adds a rule to the registry
func Register(name string, fn Rule) {
	registry[name] = fn
}

// Get retrieves a rule by name
func Get(name string) (Rule, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named rule to a value; unknown names pass the value through
func Apply(value, rule string) string {
	fn, ok := registry[rule]
	if !ok {
		return value
	}
	return fn(value)
}

// ApplyChain applies multiple named rules in sequence
func ApplyChain(value string, rules ...string) string {
	result := value
	for _, name := range rules {
		result = Apply(result, name)
	}
	return result
}

// RunPipeline applies field rules in ascending priority order
func RunPipeline(value string, pipeline []FieldRule) string {
	sorted := make([]FieldRule, len(pipeline))
	copy(sorted, pipeline)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })

	result := value
	for _, rule := range sorted {
		result = rule.Apply(result)
	}
	return result
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// CollapseWhitespace folds runs of whitespace into single spaces and trims
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

var markupRe = regexp.MustCompile(`<[^>]*>`)

// StripMarkup removes HTML/XML tags
func StripMarkup(s string) string {
	return markupRe.ReplaceAllString(s, " ")
}

var nonWordRe = regexp.MustCompile(`[^a-z0-9_]+`)

// NormalizeKey rewrites an attribute key: lowercase, whitespace to underscore,
// non-word characters dropped
func NormalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = whitespaceRe.ReplaceAllString(s, "_")
	s = nonWordRe.ReplaceAllString(s, "")
	return strings.Trim(s, "_")
}

// NormalizeCasing title-cases all-caps input and lower-cases letters that
// directly follow digits ("WIRELESS MOUSE 100ML" -> "Wireless Mouse 100ml")
func NormalizeCasing(s string) string {
	if isAllCaps(s) {
		s = titleCase(s)
	}
	return lowerAfterDigits(s)
}

func isAllCaps(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		if unicode.IsLetter(r[0]) {
			r[0] = unicode.ToUpper(r[0])
		}
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func lowerAfterDigits(s string) string {
	r := []rune(s)
	for i := 1; i < len(r); i++ {
		if unicode.IsDigit(r[i-1]) && unicode.IsLetter(r[i]) {
			r[i] = unicode.ToLower(r[i])
		}
	}
	return string(r)
}

// WordReplacer substitutes whole words using a dictionary, case-insensitively
func WordReplacer(dict map[string]string) Rule {
	return func(s string) string {
		if len(dict) == 0 {
			return s
		}
		words := strings.Fields(s)
		for i, w := range words {
			if repl, ok := dict[strings.ToLower(w)]; ok {
				words[i] = repl
			}
		}
		return strings.Join(words, " ")
	}
}

// PhraseStripper removes boilerplate phrases, case-insensitively
func PhraseStripper(phrases []string) Rule {
	lowered := make([]string, len(phrases))
	for i, p := range phrases {
		lowered[i] = strings.ToLower(p)
	}
	return func(s string) string {
		result := s
		for _, phrase := range lowered {
			for {
				idx := strings.Index(strings.ToLower(result), phrase)
				if idx < 0 {
					break
				}
				result = result[:idx] + result[idx+len(phrase):]
			}
		}
		return CollapseWhitespace(result)
	}
}

// UnitStandardizer rewrites "<number> <unit>" occurrences to "<number><canonical>"
// for every unit spelling in the dictionary ("2 Kilograms" -> "2kg")
func UnitStandardizer(units map[string]string) Rule {
	if len(units) == 0 {
		return func(s string) string { return s }
	}

	spellings := make([]string, 0, len(units))
	for spelling := range units {
		spellings = append(spellings, regexp.QuoteMeta(spelling))
	}
	// longest spellings first so "milliliters" wins over "ml"
	sort.Slice(spellings, func(i, j int) bool { return len(spellings[i]) > len(spellings[j]) })

	re := regexp.MustCompile(`(?i)\b(\d+(?:[.,]\d+)?)\s*(` + strings.Join(spellings, "|") + `)\b`)
	return func(s string) string {
		return re.ReplaceAllStringFunc(s, func(match string) string {
			groups := re.FindStringSubmatch(match)
			canonical, ok := units[strings.ToLower(groups[2])]
			if !ok {
				return match
			}
			return groups[1] + canonical
		})
	}
}
