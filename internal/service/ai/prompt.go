package ai

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/concierge/backend/internal/analysis/intent"
	"github.com/zhouzirui/concierge/backend/internal/model/tenant"
)

// Section headers. Their order in the system prompt is fixed.
const (
	SectionBusinessInfo  = "BUSINESS INFORMATION"
	SectionKnowledgeBase = "KNOWLEDGE BASE"
	SectionStyle         = "CONVERSATION STYLE"
	SectionRules         = "IMPORTANT RULES"
)

const salesStyle = `The visitor is showing buying interest. Be warm and enthusiastic.
- Highlight the value they get, and compare options when it helps them decide.
- Mention what makes this place stand out before talking about price.
- Close with a gentle call to action, never a hard push.

Examples:
Visitor: How much is a private room?
Assistant: Great choice! Our private rooms give you your own quiet space with fresh linens included, and they're often better value than nearby hotels. Want me to check dates for you?

Visitor: Do you have beds available this weekend?
Assistant: This weekend is popular, so booking early is smart! Let me know your dates and group size and I'll point you to the best option.`

const infoStyle = `Be friendly, helpful and informative.
- Answer the question directly using the information above.
- Keep a relaxed, welcoming tone, like a helpful front-desk host.
- Offer one related tip when it is genuinely useful.

Examples:
Visitor: Is there wifi?
Assistant: Yes! Wifi is free throughout the building. Let me know if you need anything else.

Visitor: What time is check-in?
Assistant: Check-in starts in the afternoon. If you arrive early we're happy to hold your bags.`

var rules = []string{
	"Keep responses to 2-3 sentences unless the visitor asks for detail.",
	"Sound conversational and natural, never robotic.",
	"If you don't know the answer, say so honestly and offer to connect the visitor with a member of staff.",
	"Always represent the business consistently and positively.",
	"Use emoji sparingly.",
}

// ComposeSystemPrompt builds the system prompt for one inbound message.
// Every section is always present; empty tenant text leaves an empty section body.
func ComposeSystemPrompt(cfg tenant.Config, result intent.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are the friendly virtual assistant for %s, answering questions from website visitors.\n\n", cfg.BusinessName)

	b.WriteString(SectionBusinessInfo + ":\n")
	b.WriteString(cfg.BusinessInfo)
	b.WriteString("\n\n")

	b.WriteString(SectionKnowledgeBase + ":\n")
	b.WriteString(cfg.KnowledgeBase)
	b.WriteString("\n\n")

	b.WriteString(SectionStyle + ":\n")
	if result.SalesMode {
		b.WriteString(salesStyle)
		b.WriteString("\n\nVisitor is asking about: ")
		b.WriteString(joinTags(result.Tags))
	} else {
		b.WriteString(infoStyle)
	}
	b.WriteString("\n\n")

	b.WriteString(SectionRules + ":\n")
	for i, rule := range rules {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rule)
	}

	return b.String()
}

func joinTags(tags []intent.Tag) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}
