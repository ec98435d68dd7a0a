package contract

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// matchHeaders checks that every expected header is present on actual
func matchHeaders(expected map[string]string, actual http.Header, rules map[string]MatchingRule) []string {
	var mismatches []string
	for name, want := range expected {
		got := actual.Get(name)
		path := "$.headers." + name

		if len(actual.Values(name)) == 0 {
			mismatches = append(mismatches, fmt.Sprintf("%s: expected header %q, but it was missing", path, want))
			continue
		}

		rule, ok := rules[path]
		switch {
		case ok && rule.Match == "type":
		case ok && rule.Match == "regex":
			if !regexMatch(rule.Regex, got) {
				mismatches = append(mismatches, fmt.Sprintf("%s: %q does not match %q", path, got, rule.Regex))
			}
		default:
			if normalizeHeader(want) != normalizeHeader(got) {
				mismatches = append(mismatches, fmt.Sprintf("%s: expected %q, got %q", path, want, got))
			}
		}
	}
	return mismatches
}

func normalizeHeader(v string) string {
	parts := strings.Split(v, ";")
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return strings.Join(parts, ";")
}

// matchBody compares decoded JSON values. Objects may carry keys the
// consumer did not ask for; everything else must match exactly unless a
// matching rule at the path (or an ancestor's type rule) relaxes it.
func matchBody(path string, expected, actual any, rules map[string]MatchingRule, byType bool) []string {
	if rule, ok := lookupRule(rules, path); ok {
		switch rule.Match {
		case "type":
			byType = true
		case "regex":
			s, isString := actual.(string)
			if !isString || !regexMatch(rule.Regex, s) {
				return []string{fmt.Sprintf("%s: %v does not match %q", path, actual, rule.Regex)}
			}
			return nil
		}
	}

	switch want := expected.(type) {
	case map[string]any:
		got, ok := actual.(map[string]any)
		if !ok {
			return []string{fmt.Sprintf("%s: expected an object, got %s", path, kind(actual))}
		}
		var mismatches []string
		for key, value := range want {
			child := path + "." + key
			gotValue, present := got[key]
			if !present {
				mismatches = append(mismatches, fmt.Sprintf("%s: expected key is missing", child))
				continue
			}
			mismatches = append(mismatches, matchBody(child, value, gotValue, rules, byType)...)
		}
		return mismatches

	case []any:
		got, ok := actual.([]any)
		if !ok {
			return []string{fmt.Sprintf("%s: expected an array, got %s", path, kind(actual))}
		}
		if byType {
			return matchArrayByType(path, want, got, rules)
		}
		if len(want) != len(got) {
			return []string{fmt.Sprintf("%s: expected %d elements, got %d", path, len(want), len(got))}
		}
		var mismatches []string
		for i := range want {
			mismatches = append(mismatches, matchBody(fmt.Sprintf("%s[%d]", path, i), want[i], got[i], rules, byType)...)
		}
		return mismatches

	default:
		if byType {
			if kind(expected) != kind(actual) {
				return []string{fmt.Sprintf("%s: expected a %s, got %s", path, kind(expected), kind(actual))}
			}
			return nil
		}
		if expected != actual {
			return []string{fmt.Sprintf("%s: expected %v, got %v", path, expected, actual)}
		}
		return nil
	}
}

// matchArrayByType checks every actual element against the first expected
// element's shape, and enforces a min rule when present
func matchArrayByType(path string, want, got []any, rules map[string]MatchingRule) []string {
	if rule, ok := lookupRule(rules, path); ok && rule.Min > 0 && len(got) < rule.Min {
		return []string{fmt.Sprintf("%s: expected at least %d elements, got %d", path, rule.Min, len(got))}
	}
	if len(want) == 0 {
		return nil
	}
	var mismatches []string
	for i := range got {
		mismatches = append(mismatches, matchBody(fmt.Sprintf("%s[%d]", path, i), want[0], got[i], rules, true)...)
	}
	return mismatches
}

var indexPattern = regexp.MustCompile(`\[\d+\]`)

func lookupRule(rules map[string]MatchingRule, path string) (MatchingRule, bool) {
	if rule, ok := rules[path]; ok {
		return rule, true
	}
	rule, ok := rules[indexPattern.ReplaceAllString(path, "[*]")]
	return rule, ok
}

func regexMatch(pattern, value string) bool {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(value)
}

func kind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
