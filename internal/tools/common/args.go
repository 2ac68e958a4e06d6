package common

import "strings"

// StringArg returns the trimmed string argument name, or "" when it is
// missing or not a string.
func StringArg(args map[string]interface{}, name string) string {
	v, ok := args[name].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

// StringArgOr is StringArg with a fallback for missing or blank values.
func StringArgOr(args map[string]interface{}, name, fallback string) string {
	if v := StringArg(args, name); v != "" {
		return v
	}
	return fallback
}
