package intent

import "strings"

// Tag is a heuristic label describing what a visitor is asking about.
type Tag string

const (
	Pricing      Tag = "pricing"
	Availability Tag = "availability"
	Room         Tag = "room"
)

// Result holds the tags found in a message. SalesMode is set when any tag matched.
type Result struct {
	Tags      []Tag
	SalesMode bool
}

type bucket struct {
	tag      Tag
	keywords []string
}

// buckets are checked in this order, which is also the order of Result.Tags.
var buckets = []bucket{
	{tag: Pricing, keywords: []string{"price", "cost", "rate", "expensive"}},
	{tag: Availability, keywords: []string{"available", "book", "reserve"}},
	{tag: Room, keywords: []string{"room", "bed", "dorm", "private"}},
}

// Classify tags a message by plain substring membership against fixed keyword lists.
// Buckets are independent, so several tags can co-occur.
func Classify(text string) Result {
	normalized := strings.ToLower(text)
	if strings.TrimSpace(normalized) == "" {
		return Result{}
	}

	var result Result
	for _, b := range buckets {
		for _, word := range b.keywords {
			if strings.Contains(normalized, word) {
				result.Tags = append(result.Tags, b.tag)
				break
			}
		}
	}

	result.SalesMode = len(result.Tags) > 0
	return result
}
