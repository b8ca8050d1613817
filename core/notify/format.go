package notify

import "strings"

// none is the placeholder for empty sections in the Slack summary.
const none = "_-None-_"

// FormatSummary renders a summary as the Slack message body: one
// section per operation kind, one backticked label per line. A run
// that touched nothing collapses to a single "_No Changes_" line.
func FormatSummary(s Summary) string {
	var b strings.Builder
	b.WriteString("Property: " + s.PropertyName + "\n")
	if s.Result.Empty() {
		b.WriteString("_No Changes_")
		return b.String()
	}
	writeSection(&b, "Deleted:", s.Result.Deletions)
	writeSection(&b, "Updated:", s.Result.Updates)
	writeSection(&b, "Added:", s.Result.Additions)
	writeSection(&b, "Errors:", s.Result.Errors)
	return b.String()
}

func writeSection(b *strings.Builder, header string, items []string) {
	b.WriteString(header + "\n")
	if len(items) == 0 {
		b.WriteString(none + "\n")
		return
	}
	for _, item := range items {
		b.WriteString("`" + item + "`\n")
	}
}
