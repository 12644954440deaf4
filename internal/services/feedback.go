package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/backofhouse-backend/internal/data/repos"
	rtypes "github.com/yungbote/backofhouse-backend/internal/domain/restaurant"
	"github.com/yungbote/backofhouse-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/backofhouse-backend/internal/pkg/errors"
	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
)

var ErrInvalidRating = fmt.Errorf("%w: rating must be between %d and %d", apperr.ErrInvalidArgument, rtypes.MinRating, rtypes.MaxRating)

type FeedbackInput struct {
	RestaurantID   uuid.UUID
	UserID         uuid.UUID
	ConversationID *uuid.UUID
	MessageID      *uuid.UUID
	Rating         int
	Comment        string
}

type FeedbackService interface {
	Submit(dbc dbctx.Context, in FeedbackInput) (*rtypes.Feedback, error)
}

type feedbackService struct {
	log           *logger.Logger
	feedback      repos.FeedbackRepo
	conversations repos.ConversationRepo
}

func NewFeedbackService(log *logger.Logger, feedback repos.FeedbackRepo, conversations repos.ConversationRepo) FeedbackService {
	return &feedbackService{
		log:           log.With("service", "FeedbackService"),
		feedback:      feedback,
		conversations: conversations,
	}
}

func (s *feedbackService) Submit(dbc dbctx.Context, in FeedbackInput) (*rtypes.Feedback, error) {
	if in.Rating < rtypes.MinRating || in.Rating > rtypes.MaxRating {
		return nil, ErrInvalidRating
	}
	if in.ConversationID != nil {
		if _, err := s.conversations.GetByID(dbc, in.RestaurantID, *in.ConversationID); err != nil {
			return nil, fmt.Errorf("check conversation: %w", err)
		}
	}
	row := &rtypes.Feedback{
		RestaurantID:   in.RestaurantID,
		ConversationID: in.ConversationID,
		MessageID:      in.MessageID,
		UserID:         in.UserID,
		Rating:         in.Rating,
		Comment:        strings.TrimSpace(in.Comment),
	}
	if err := s.feedback.Create(dbc, row); err != nil {
		return nil, fmt.Errorf("create feedback: %w", err)
	}
	return row, nil
}
