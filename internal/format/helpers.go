package format

import "fmt"

// Unknown is the table cell rendered for values the evaluation could
// not establish.
const Unknown = "—"

// Money formats an optional USD amount; nil renders as Unknown.
func Money(v *float64) string {
	if v == nil {
		return Unknown
	}
	return fmt.Sprintf("$%.2f", *v)
}

// Mark renders an optional verdict: "✓" for true, "✗" for false,
// Unknown for nil.
func Mark(v *bool) string {
	if v == nil {
		return Unknown
	}
	if *v {
		return "✓"
	}
	return "✗"
}

// Str returns an optional string, or Unknown when nil or empty.
func Str(v *string) string {
	if v == nil || *v == "" {
		return Unknown
	}
	return *v
}

// Truncate shortens s to maxLen characters, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
