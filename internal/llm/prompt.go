package llm

import (
	"fmt"
	"strings"

	"tablevote/internal/group"
)

func BuildSummaryPrompt(restaurantName string, reviews []group.Review) string {
	var lines []string
	for _, review := range reviews {
		lines = append(lines, fmt.Sprintf(
			"- %s (%d/5): %s",
			review.AuthorName,
			review.Rating,
			review.Text,
		))
	}

	return fmt.Sprintf(`You summarize restaurant reviews for a small decision card.

Rules:
- Write 2 sentences at most.
- Mention the overall mood and one standout dish or feature if reviewers name one.
- Plain text only. No headings, no bullet points, no markdown.
- Do not invent details that are not in the reviews.

Restaurant: %s

Reviews:
%s`, restaurantName, strings.Join(lines, "\n"))
}
