package slides

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mdubba/jira-insights/app/insights"
)

// Slide kinds understood by both the local .pptx writer and the remote
// Beautiful.ai sync.
const (
	SlideTitle   = "title"
	SlideSection = "section"
	SlideBullets = "bullets"
)

type Slide struct {
	Kind     string   `json:"kind"`
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle,omitempty"`
	Bullets  []string `json:"bullets,omitempty"`
}

type Deck struct {
	Title  string  `json:"title"`
	Slides []Slide `json:"slides"`
}

// BuildDeck turns insight reports into a flat slide list: one title
// slide, then per report a section slide followed by one bullet slide
// per parsed section. Failed reports contribute a single slide noting
// the failure.
func BuildDeck(title string, reports []*insights.Result) Deck {
	deck := Deck{Title: title}

	deck.Slides = append(deck.Slides, Slide{
		Kind:     SlideTitle,
		Title:    title,
		Subtitle: "Generated " + time.Now().Format("January 2, 2006"),
	})

	for _, report := range reports {
		if report == nil {
			continue
		}

		heading := titleCase(report.Type) + " Insights"
		deck.Slides = append(deck.Slides, Slide{Kind: SlideSection, Title: heading})

		if report.Error != "" {
			deck.Slides = append(deck.Slides, Slide{
				Kind:    SlideBullets,
				Title:   heading,
				Bullets: []string{fmt.Sprintf("Insight generation failed: %s", report.Error)},
			})
			continue
		}

		for _, name := range sectionOrder(report.Sections) {
			deck.Slides = append(deck.Slides, Slide{
				Kind:    SlideBullets,
				Title:   titleCase(name),
				Bullets: toBullets(report.Sections[name]),
			})
		}
	}

	return deck
}

// sectionOrder puts "general" first, the rest alphabetically.
func sectionOrder(sections map[string]string) []string {
	names := make([]string, 0, len(sections))
	for name := range sections {
		if name != "general" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	if _, ok := sections["general"]; ok {
		names = append([]string{"general"}, names...)
	}
	return names
}

// toBullets splits section text into bullet lines, dropping blanks and
// any leading list markers the model emitted.
func toBullets(text string) []string {
	var bullets []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")
		line = strings.TrimPrefix(line, "* ")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		bullets = append(bullets, line)
	}
	return bullets
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
