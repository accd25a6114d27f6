package service

import (
	"context"
	"errors"

	"golf-concierge-be/internal/pkg/logger"
	"golf-concierge-be/pkg/quiz"
)

const quizModule = "QuizService"

// IQuizService serves the in-process quiz engine over the same contract a
// remote quiz microservice would.
type IQuizService interface {
	Start(ctx context.Context, req quiz.StartRequest) (*quiz.StartResponse, error)
	SubmitAnswer(ctx context.Context, req quiz.AnswerRequest) (*quiz.AnswerResponse, error)
	Question(ctx context.Context, id string) (*quiz.Question, error)
}

type quizService struct {
	engine quiz.Client
	logger logger.ILogger
}

func NewQuizService(engine quiz.Client, log logger.ILogger) IQuizService {
	return &quizService{engine: engine, logger: log}
}

func (s *quizService) Start(ctx context.Context, req quiz.StartRequest) (*quiz.StartResponse, error) {
	res, err := s.engine.Start(ctx, req)
	if err != nil {
		s.logger.Error(quizModule, "Start failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}
	if res.Question != nil {
		s.logger.Info(quizModule, "Quiz session started", map[string]interface{}{
			"session_id":  res.SessionID,
			"question_id": res.Question.ID,
		})
	}
	return res, nil
}

func (s *quizService) SubmitAnswer(ctx context.Context, req quiz.AnswerRequest) (*quiz.AnswerResponse, error) {
	res, err := s.engine.SubmitAnswer(ctx, req)
	if err != nil {
		level := s.logger.Error
		if isClientError(err) {
			level = s.logger.Warn
		}
		level(quizModule, "Answer rejected", map[string]interface{}{
			"session_id":  req.SessionID,
			"question_id": req.QuestionID,
			"error":       err.Error(),
		})
		return nil, err
	}
	if res.Complete {
		s.logger.Info(quizModule, "Quiz completed", map[string]interface{}{
			"session_id": req.SessionID,
			"answers":    len(res.Answers),
		})
	}
	return res, nil
}

func (s *quizService) Question(ctx context.Context, id string) (*quiz.Question, error) {
	return s.engine.Question(ctx, id)
}

// isClientError reports errors caused by the request rather than the engine.
func isClientError(err error) bool {
	return errors.Is(err, quiz.ErrUnknownSession) ||
		errors.Is(err, quiz.ErrUnknownQuestion) ||
		errors.Is(err, quiz.ErrInvalidOption) ||
		errors.Is(err, quiz.ErrAlreadyAnswered)
}
