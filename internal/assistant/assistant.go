// Package assistant produces PsychAI replies for messages that did not trigger the crisis response.
package assistant

import (
	"context"
	"hash/fnv"
	"strings"
)

// Turn is one entry of a conversation, from the user or from the assistant.
type Turn struct {
	Role    string `json:"type"`
	Content string `json:"content"`
}

// Turn roles, matching what the chat client renders.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// Responder generates a reply to message given the prior turns, oldest first.
type Responder interface {
	Reply(ctx context.Context, message string, history []Turn) (string, error)
	Name() string
}

// Fallback answers with canned supportive replies chosen deterministically from the message.
type Fallback struct{}

type topic struct {
	cues  []string
	reply string
}

var topics = []topic{
	{
		cues:  []string{"anxious", "anxiety", "panic", "nervous", "worried"},
		reply: "It sounds like anxiety is weighing on you. Try slowing your breathing: in for four counts, hold for four, out for six. What do you notice in your body right now?",
	},
	{
		cues:  []string{"sad", "depressed", "down", "empty", "hopeless"},
		reply: "I'm sorry you're feeling low. Those feelings are valid, and you don't have to carry them alone. Would you like to talk about what has been happening?",
	},
	{
		cues:  []string{"lonely", "alone", "isolated", "no friends"},
		reply: "Feeling lonely can be really hard. The support groups here are full of people who understand. Is there someone you could reach out to today, even briefly?",
	},
	{
		cues:  []string{"sleep", "insomnia", "tired", "exhausted"},
		reply: "Rest matters a lot for how we feel. A steady bedtime and some screen-free time before sleep can help. How have your nights been lately?",
	},
	{
		cues:  []string{"stress", "stressed", "overwhelmed", "pressure", "burnout"},
		reply: "That sounds like a lot to handle. Sometimes it helps to pick one small thing you can do next and set the rest aside for now. What feels most pressing?",
	},
}

var generic = []string{
	"Thank you for sharing that with me. How are you feeling about it right now?",
	"I'm here to listen. Can you tell me a bit more about what's on your mind?",
	"That sounds important. What would feel most helpful to talk through?",
	"I hear you. What has been helping you cope so far?",
}

// Reply never fails.
func (Fallback) Reply(_ context.Context, message string, _ []Turn) (string, error) {
	lower := strings.ToLower(message)
	for _, t := range topics {
		for _, cue := range t.cues {
			if strings.Contains(lower, cue) {
				return t.reply, nil
			}
		}
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(lower))
	return generic[h.Sum32()%uint32(len(generic))], nil
}

func (Fallback) Name() string { return "fallback" }
