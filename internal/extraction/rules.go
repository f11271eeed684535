package extraction

import (
	"regexp"
	"strings"

	"rto-receipt-reconciler/internal/models"
)

// Rule tries to resolve one field from normalized text. A rule that finds
// nothing, or finds only whitespace, reports ok=false.
type Rule func(text string) (value string, ok bool)

// FieldRule is an ordered fallback chain for a single output field.
type FieldRule struct {
	Name  string
	Rules []Rule
}

// Resolve runs the chain and returns the first successful value, or the
// NotFound sentinel once every rule has failed.
func (f FieldRule) Resolve(text string) string {
	for _, rule := range f.Rules {
		if v, ok := rule(text); ok {
			return v
		}
	}
	return models.NotFound
}

// Ruleset is the full field list of one receipt template, in output order.
type Ruleset struct {
	Schema models.Schema
	Fields []FieldRule
}

// FieldNames returns the field names in output order.
func (rs Ruleset) FieldNames() []string {
	names := make([]string, len(rs.Fields))
	for i, f := range rs.Fields {
		names[i] = f.Name
	}
	return names
}

// Extract resolves every field. It never fails: the worst case is a record
// whose fields all hold the sentinel.
func (rs Ruleset) Extract(text string) []models.Field {
	fields := make([]models.Field, len(rs.Fields))
	for i, f := range rs.Fields {
		fields[i] = models.Field{Name: f.Name, Value: f.Resolve(text)}
	}
	return fields
}

func accept(v string) (string, bool) {
	v = strings.TrimSpace(v)
	return v, v != ""
}

// Pattern returns the first capture group of the first match of expr, or
// the whole match when expr has no groups.
func Pattern(expr string) Rule {
	re := regexp.MustCompile(expr)
	return patternRule(re)
}

func patternRule(re *regexp.Regexp) Rule {
	return func(text string) (string, bool) {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return "", false
		}
		if len(m) > 1 {
			return accept(m[1])
		}
		return accept(m[0])
	}
}

// JoinAll collects every non-overlapping match of expr and joins them with sep.
func JoinAll(expr, sep string) Rule {
	re := regexp.MustCompile(expr)
	return func(text string) (string, bool) {
		return accept(strings.Join(re.FindAllString(text, -1), sep))
	}
}

// Block narrows the text to the span between start and the nearest end
// marker (spanning lines) and applies inner to that span only.
func Block(start, end string, inner Rule) Rule {
	re := regexp.MustCompile(`(?s)` + start + `(.*?)(?:` + end + `)`)
	return func(text string) (string, bool) {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return "", false
		}
		return inner(m[1])
	}
}

// Keywords returns the first keyword that occurs verbatim in the text.
func Keywords(words ...string) Rule {
	return func(text string) (string, bool) {
		for _, w := range words {
			if strings.Contains(text, w) {
				return w, true
			}
		}
		return "", false
	}
}

// LabelLookahead handles values that the PDF layer sometimes pushes onto a
// later line than their label. For each line containing one of labels it
// first looks for "label <shape>" on the same line, trying labels in order,
// then checks up to window following lines for a line consisting solely of
// shape.
func LabelLookahead(labels []string, shape string, window int) Rule {
	inline := make([]*regexp.Regexp, len(labels))
	for i, label := range labels {
		inline[i] = regexp.MustCompile(regexp.QuoteMeta(label) + `\s*(` + shape + `)`)
	}
	whole := regexp.MustCompile(`^(?:` + shape + `)$`)

	return func(text string) (string, bool) {
		lines := strings.Split(text, "\n")
		for i, line := range lines {
			if !containsAny(line, labels) {
				continue
			}
			for _, re := range inline {
				if m := re.FindStringSubmatch(line); m != nil {
					return m[1], true
				}
			}
			for j := i + 1; j < len(lines) && j <= i+window; j++ {
				candidate := strings.TrimSpace(lines[j])
				if whole.MatchString(candidate) {
					return candidate, true
				}
			}
		}
		return "", false
	}
}
