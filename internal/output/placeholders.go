// Package output renders per-request log lines, templated record output,
// and the end-of-run summary report.
package output

import "regexp"

// Placeholders use {{key}} syntax with an optional default: {{key|default}}.
var placeholderPattern = regexp.MustCompile(`\{\{([^}|]+)(?:\|([^}]*))?\}\}`)

// ApplyPlaceholders replaces {{key}} tokens in template with values from
// data. Unknown keys without a default are left as-is so typos are visible
// in the output rather than silently erased.
func ApplyPlaceholders(template string, data map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		parts := placeholderPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		key := parts[1]
		if val, ok := data[key]; ok {
			return val
		}
		// hasDefault distinguishes {{key|}} from {{key}}
		if idx := placeholderPattern.FindStringSubmatchIndex(match); idx != nil && idx[4] != -1 {
			return parts[2]
		}
		return match
	})
}
