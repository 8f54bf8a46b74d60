package insights

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const sampleSize = 5

// BuildGeneralPrompt summarizes the whole issue set: distribution counts
// plus a small raw sample for the model to ground on.
func BuildGeneralPrompt(issues []map[string]any) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze the following Jira project data and provide general insights.\n\n")
	fmt.Fprintf(&b, "Total issues: %d\n\n", len(issues))

	writeDistribution(&b, "Issues by type", countBy(issues, "issue_type"))
	writeDistribution(&b, "Issues by status", countBy(issues, "status"))
	writeDistribution(&b, "Issues by priority", countBy(issues, "priority"))
	writeSample(&b, issues)

	b.WriteString("Provide insights about the overall health of the project, notable patterns, ")
	b.WriteString("potential risks, and recommendations. Organize your analysis into clearly ")
	b.WriteString("labeled sections.")

	return b.String()
}

// BuildSprintPrompt focuses the analysis on sprint composition and flow.
func BuildSprintPrompt(issues []map[string]any) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze the following Jira sprint data and provide sprint-focused insights.\n\n")
	fmt.Fprintf(&b, "Total issues: %d\n\n", len(issues))

	writeDistribution(&b, "Issues by sprint", countBy(issues, "sprint"))
	writeDistribution(&b, "Issues by status", countBy(issues, "status"))
	writeSample(&b, issues)

	b.WriteString("Provide insights about sprint progress, velocity patterns, scope distribution, ")
	b.WriteString("and blockers. Organize your analysis into clearly labeled sections.")

	return b.String()
}

// BuildTeamPrompt groups the issue set by assignee for workload analysis.
func BuildTeamPrompt(issues []map[string]any) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze the following Jira data and provide team performance insights.\n\n")
	fmt.Fprintf(&b, "Total issues: %d\n\n", len(issues))

	writeDistribution(&b, "Issues by assignee", countBy(issues, "assignee"))
	writeDistribution(&b, "Issues by status", countBy(issues, "status"))
	writeSample(&b, issues)

	b.WriteString("Provide insights about workload distribution, individual and team throughput, ")
	b.WriteString("and collaboration patterns. Organize your analysis into clearly labeled sections.")

	return b.String()
}

// BuildPriorityPrompt highlights the high-priority slice of the issue set.
func BuildPriorityPrompt(issues []map[string]any) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze the following Jira data with a focus on issue priorities.\n\n")
	fmt.Fprintf(&b, "Total issues: %d\n\n", len(issues))

	writeDistribution(&b, "Issues by priority", countBy(issues, "priority"))
	writeDistribution(&b, "Issues by status", countBy(issues, "status"))
	writeSample(&b, issues)

	b.WriteString("Provide insights about how priorities are distributed, whether high-priority ")
	b.WriteString("work is progressing, and any misalignment between priority and activity. ")
	b.WriteString("Organize your analysis into clearly labeled sections.")

	return b.String()
}

func countBy(issues []map[string]any, field string) map[string]int {
	counts := map[string]int{}
	for _, issue := range issues {
		value, _ := issue[field].(string)
		if value == "" {
			value = "Unspecified"
		}
		counts[value]++
	}
	return counts
}

func writeDistribution(b *strings.Builder, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(b, "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(b, "- %s: %d\n", k, counts[k])
	}
	b.WriteString("\n")
}

func writeSample(b *strings.Builder, issues []map[string]any) {
	if len(issues) == 0 {
		return
	}

	n := len(issues)
	if n > sampleSize {
		n = sampleSize
	}

	sample, err := json.MarshalIndent(issues[:n], "", "  ")
	if err != nil {
		return
	}

	fmt.Fprintf(b, "Sample issues:\n%s\n\n", sample)
}
