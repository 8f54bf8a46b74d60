package processor

import (
	"fmt"
)

// BuildVectorReady derives one embedding-ready item per merged record.
// The text blob concatenates every salient field; by the time records
// reach this point all markup has already been stripped, so the blob is
// guaranteed plain text.
func BuildVectorReady(merged []MergedRecord) []VectorReadyItem {
	items := make([]VectorReadyItem, 0, len(merged))

	for _, record := range merged {
		text := fmt.Sprintf(
			"Issue: %s Summary: %s Description: %s Type: %s Status: %s "+
				"Priority: %s Assignee: %s Reporter: %s Created: %s Updated: %s "+
				"Labels: %s Components: %s Epic: %s Epic Summary: %s Comments: %s",
			record.Key, record.Summary, record.Description, record.IssueType,
			record.Status, record.Priority, record.Assignee, record.Reporter,
			record.CreatedDate, record.UpdatedDate, record.Labels,
			record.Components, record.EpicName, record.EpicSummary,
			record.Comments)

		items = append(items, VectorReadyItem{
			ID:   record.ID,
			Text: collapseWhitespace(text),
			Metadata: ItemMetadata{
				Key:         record.Key,
				Summary:     record.Summary,
				Description: record.Description,
				Type:        record.IssueType,
				Status:      record.Status,
				Priority:    record.Priority,
				Assignee:    record.Assignee,
				Reporter:    record.Reporter,
				Created:     record.CreatedDate,
				Updated:     record.UpdatedDate,
				Labels:      record.Labels,
				Components:  record.Components,
				Epic:        record.EpicName,
				EpicSummary: record.EpicSummary,
				Comments:    record.Comments,
			},
		})
	}

	return items
}
