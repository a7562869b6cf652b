package model

import (
	"fmt"
	"regexp"
	"strconv"
)

// {field} or {field[from]} or {field[from..to]}
var templateRegexp = regexp.MustCompile(`\{(\w+)(\[(\d+)(\.\.(\d+))?\])?\}`)

// FormatTemplate expands placeholders with values from row. A missing or
// null field expands to "". Slices are taken on bytes and clipped.
func FormatTemplate(template string, row map[string]any) string {
	return templateRegexp.ReplaceAllStringFunc(template, func(match string) string {
		parts := templateRegexp.FindStringSubmatch(match)
		key, from, to := parts[1], parts[3], parts[5]

		valRaw, ok := row[key]
		if !ok || valRaw == nil {
			return ""
		}
		val := fmt.Sprint(valRaw)
		if from == "" {
			return val
		}

		startIdx, _ := strconv.Atoi(from)
		endIdx := startIdx + 1
		if to != "" {
			endIdx, _ = strconv.Atoi(to)
		}
		if startIdx >= len(val) || endIdx <= startIdx {
			return ""
		}
		if endIdx > len(val) {
			endIdx = len(val)
		}
		return val[startIdx:endIdx]
	})
}

// TemplateFields lists the field names a template refers to.
func TemplateFields(template string) []string {
	var out []string
	for _, m := range templateRegexp.FindAllStringSubmatch(template, -1) {
		out = append(out, m[1])
	}
	return out
}
