package stub

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"chika/internal/model"
)

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// mentions extracts @-mentioned provider ids, keeping only AIs active in
// the room and preserving first-mention order.
func mentions(content string, activeAIs []string) []string {
	active := make(map[string]bool, len(activeAIs))
	for _, ai := range activeAIs {
		active[ai] = true
	}

	seen := make(map[string]bool)
	var result []string
	for _, match := range mentionPattern.FindAllStringSubmatch(content, -1) {
		name := strings.ToLower(match[1])
		if active[name] && !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}
	return result
}

// respond fabricates the AI side of a chat turn. When the user mentions
// two or more active AIs, the first two hold a private discussion that
// resolves with a consensus, exercising the discussion path end to end.
func respond(room model.Room, content string, now time.Time) (model.Message, *model.Discussion) {
	mentioned := mentions(content, room.ActiveAIs)

	author := "mock"
	if len(mentioned) > 0 {
		author = mentioned[0]
	} else if len(room.ActiveAIs) > 0 {
		author = room.ActiveAIs[0]
	}

	timestamp := now.UTC().Format(time.RFC3339Nano)
	reply := model.Message{
		Role:      "assistant",
		Author:    author,
		Content:   fmt.Sprintf("[%s] You said: %s", author, content),
		Mentions:  mentioned,
		Timestamp: timestamp,
	}

	if len(mentioned) < 2 {
		return reply, nil
	}

	a, b := mentioned[0], mentioned[1]
	topic := content
	if len(topic) > 120 {
		topic = topic[:120]
	}
	discussion := &model.Discussion{
		Participants: []string{a, b},
		Topic:        topic,
		Status:       model.StatusResolved,
		Messages: []model.DiscussionMessage{
			{AI: a, Content: fmt.Sprintf("I think we should answer: %s", content)},
			{AI: b, Content: "Agreed, with one refinement."},
			{AI: a, Content: "Works for me."},
		},
		Consensus: fmt.Sprintf("%s and %s agree on a combined answer.", a, b),
	}
	reply.Content = fmt.Sprintf("[%s+%s] After discussing it, we agree: %s", a, b, content)
	return reply, discussion
}
