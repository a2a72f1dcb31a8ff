package dataset

import "strings"

// Normalize canonicalizes dataset names and their aliases.
func Normalize(name string) string {
	normalized := strings.TrimSpace(strings.ToLower(name))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	normalized = strings.Trim(normalized, "-")
	if normalized == "" {
		return ""
	}
	for _, candidate := range aliasCandidates(normalized) {
		if canonical, ok := canonicalName(candidate); ok {
			return canonical
		}
	}
	return normalized
}

func aliasCandidates(normalized string) []string {
	candidates := []string{normalized}
	for _, prefix := range []string{"dataset-", "logical-", "logic-"} {
		if trimmed := strings.TrimPrefix(normalized, prefix); trimmed != normalized && trimmed != "" {
			candidates = append(candidates, trimmed)
		}
	}
	return candidates
}

func canonicalName(alias string) (string, bool) {
	switch strings.ReplaceAll(alias, "-", "") {
	case "xor", "exclusiveor":
		return "xor", true
	case "and":
		return "and", true
	case "or", "inclusiveor":
		return "or", true
	default:
		return "", false
	}
}
