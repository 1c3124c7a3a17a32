package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"inertus/internal/assistant"
	"inertus/internal/crisis"
	"inertus/internal/featureflags"
	"inertus/internal/middleware"
	"inertus/internal/models"
	"inertus/internal/notifications"
	"inertus/internal/observability"
	"inertus/internal/repository"

	"go.uber.org/zap"
)

const (
	// historyTurns is how much stored history is handed to the assistant.
	historyTurns      = 10
	maxChatMessageLen = 4000
)

// PsychAIReply is the response of one PsychAI exchange.
type PsychAIReply struct {
	Success   bool   `json:"success"`
	Response  string `json:"response"`
	IsCrisis  bool   `json:"is_crisis"`
	Timestamp string `json:"timestamp"`
}

type PsychAIService struct {
	detector *crisis.Detector
	llm      assistant.Responder
	fallback assistant.Responder
	flags    *featureflags.Manager
	history  repository.ChatHistoryRepository
	now      func() time.Time
}

// NewPsychAIService wires the responder chain. llm may be nil, in which case every
// reply comes from the fallback.
func NewPsychAIService(
	detector *crisis.Detector,
	llm assistant.Responder,
	flags *featureflags.Manager,
	history repository.ChatHistoryRepository,
) *PsychAIService {
	if detector == nil {
		detector = crisis.Default()
	}
	if flags == nil {
		flags = featureflags.NewManager("")
	}
	return &PsychAIService{
		detector: detector,
		llm:      llm,
		fallback: assistant.Fallback{},
		flags:    flags,
		history:  history,
		now:      time.Now,
	}
}

func (s *PsychAIService) responder(userID uint) assistant.Responder {
	if s.llm != nil && s.flags.Enabled(featureflags.PsychAILLM, userID) {
		return s.llm
	}
	return s.fallback
}

// Respond answers message. Crisis messages get the fixed safety message whatever their
// length and never reach the assistant.
func (s *PsychAIService) Respond(ctx context.Context, userID uint, message string) (*PsychAIReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, models.NewValidationError("Message is required")
	}

	now := s.now()
	reply := &PsychAIReply{Success: true, Timestamp: now.Format(notifications.TimestampLayout)}

	if s.detector.Check(message) {
		observability.CrisisDetections.Inc()
		middleware.LoggerFrom(ctx).Warn("crisis keywords detected in psychai message")
		reply.Response = s.detector.SafetyMessage()
		reply.IsCrisis = true
		s.remember(ctx, userID, message, reply.Response, true, now)
		return reply, nil
	}

	if utf8.RuneCountInString(message) > maxChatMessageLen {
		return nil, models.NewValidationError("Message too long (max 4000 characters)")
	}

	r := s.responder(userID)
	text, err := r.Reply(ctx, message, s.turns(ctx, userID))
	if err != nil {
		observability.AssistantReplies.WithLabelValues(r.Name(), "error").Inc()
		return nil, models.NewUpstreamError("Assistant is unavailable, please try again", err)
	}
	observability.AssistantReplies.WithLabelValues(r.Name(), "ok").Inc()

	reply.Response = text
	s.remember(ctx, userID, message, text, false, now)
	return reply, nil
}

// History returns the stored exchanges, oldest first.
func (s *PsychAIService) History(ctx context.Context, userID uint) ([]repository.ChatEntry, error) {
	if s.history == nil {
		return []repository.ChatEntry{}, nil
	}
	entries, err := s.history.Recent(ctx, userID, repository.MaxChatHistory)
	if err != nil {
		middleware.LoggerFrom(ctx).Warn("failed to read psychai history", zap.Error(err))
		return []repository.ChatEntry{}, nil
	}
	return entries, nil
}

func (s *PsychAIService) turns(ctx context.Context, userID uint) []assistant.Turn {
	if s.history == nil {
		return nil
	}
	entries, err := s.history.Recent(ctx, userID, historyTurns)
	if err != nil {
		return nil
	}
	turns := make([]assistant.Turn, 0, len(entries))
	for _, e := range entries {
		turns = append(turns, assistant.Turn{Role: e.Type, Content: e.Content})
	}
	return turns
}

func (s *PsychAIService) remember(ctx context.Context, userID uint, message, reply string, isCrisis bool, at time.Time) {
	if s.history == nil {
		return
	}
	err := s.history.Append(ctx, userID,
		repository.ChatEntry{Type: assistant.RoleUser, Content: message, IsCrisis: isCrisis, Timestamp: at},
		repository.ChatEntry{Type: assistant.RoleBot, Content: reply, IsCrisis: isCrisis, Timestamp: at},
	)
	if err != nil {
		middleware.LoggerFrom(ctx).Warn("failed to store psychai history", zap.Error(err))
	}
}
