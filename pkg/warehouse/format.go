package warehouse

import (
	"fmt"
	"strconv"
	"strings"
)

// NoResults is returned by Format for an empty row set.
const NoResults = "The query returned no results."

// Format renders rows as a numbered list, one "key: value | ..." line per row.
func Format(rows []Row) string {
	if len(rows) == 0 {
		return NoResults
	}

	var sb strings.Builder
	sb.WriteString("Here are the results:\n")
	for i, row := range rows {
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString(". ")
		for j, field := range row {
			if j > 0 {
				sb.WriteString(" | ")
			}
			sb.WriteString(field.Name)
			sb.WriteString(": ")
			sb.WriteString(formatValue(field.Value))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case []byte:
		return string(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
