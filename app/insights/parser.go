package insights

import "strings"

// ParseSections splits an analysis text into named sections. A line
// ending in ":" or starting with "#" opens a new section; everything
// else accumulates under the current one. Text before the first header
// lands in "general". Unstructured input degrades to a single "general"
// section, never an error.
func ParseSections(text string) map[string]string {
	sections := map[string]string{}
	if strings.TrimSpace(text) == "" {
		return sections
	}
	current := "general"
	var body []string

	flush := func() {
		content := strings.TrimSpace(strings.Join(body, "\n"))
		if content == "" {
			return
		}
		if existing, ok := sections[current]; ok && existing != "" {
			content = existing + "\n" + content
		}
		sections[current] = content
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		if isHeader(trimmed) {
			flush()
			current = headerName(trimmed)
			body = body[:0]
			continue
		}

		body = append(body, line)
	}
	flush()

	if len(sections) == 0 {
		sections["general"] = strings.TrimSpace(text)
	}

	return sections
}

func isHeader(line string) bool {
	if line == "" {
		return false
	}
	return strings.HasPrefix(line, "#") || strings.HasSuffix(line, ":")
}

func headerName(line string) string {
	name := strings.TrimLeft(line, "# ")
	name = strings.TrimSuffix(name, ":")
	name = strings.TrimSpace(name)
	name = strings.ToLower(name)
	if name == "" {
		return "general"
	}
	return name
}
