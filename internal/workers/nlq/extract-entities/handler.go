// internal/workers/nlq/extract-entities/handler.go
package extractentities

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"jira-askbot/internal/common/camunda"
	apperrors "jira-askbot/internal/common/errors"
	"jira-askbot/internal/common/llm"
	"jira-askbot/internal/common/logger"
	"jira-askbot/internal/common/metrics"
	"jira-askbot/internal/common/validation"
	"jira-askbot/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "extract-entities"
)

var (
	ErrInvalidModelReply = errors.New("INVALID_MODEL_REPLY")
)

type Handler struct {
	config       *Config
	llm          llm.Completer
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, completer llm.Completer, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		llm:          completer,
		logger:       log,
		errorHandler: apperrors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := camunda.Decode(job, &input); err != nil {
		camunda.Fail(ctx, h.errorHandler, client, job, err)
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		camunda.Fail(ctx, h.errorHandler, client, job, err)
		return
	}
	camunda.Complete(ctx, client, job, output, h.logger)
}

// Execute tries the model and falls back to ExtractByRules. Model and
// parse failures never surface as errors.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, apperrors.NewInvalidInputError("text is required")
	}

	bag, err := h.extractWithModel(ctx, text)
	if err == nil {
		return &Output{Entities: bag, Source: models.SourceLLM}, nil
	}

	reason := fallbackReason(err)
	metrics.StageFallbacks.WithLabelValues(TaskType, reason).Inc()
	h.logger.Warn("model extraction failed, using rules", map[string]interface{}{
		"reason":       reason,
		"error":        err.Error(),
		"rulesVersion": RulesVersion,
	})

	return &Output{
		Entities:     ExtractByRules(text),
		Source:       models.SourceRules,
		RulesVersion: RulesVersion,
	}, nil
}

func (h *Handler) extractWithModel(ctx context.Context, text string) (models.EntityBag, error) {
	raw, err := h.llm.Complete(ctx, llm.Request{
		Template:    llm.TemplateEntities,
		Instruction: instruction,
		UserText:    userText(text),
		Temperature: h.config.Temperature,
		MaxTokens:   h.config.MaxTokens,
	})
	if err != nil {
		return models.EntityBag{}, err
	}

	doc, err := llm.ExtractJSON(raw)
	if err != nil {
		return models.EntityBag{}, err
	}
	if err := validation.EntitySchema.ValidateJSON(doc).Err(); err != nil {
		return models.EntityBag{}, fmt.Errorf("%w: %v", ErrInvalidModelReply, err)
	}

	var reply modelReply
	if err := json.Unmarshal([]byte(doc), &reply); err != nil {
		return models.EntityBag{}, fmt.Errorf("%w: %v", ErrInvalidModelReply, err)
	}
	return reply.toBag(), nil
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, llm.ErrModelUnavailable), errors.Is(err, context.DeadlineExceeded):
		return "model_unavailable"
	case errors.Is(err, ErrInvalidModelReply):
		return "invalid_reply"
	default:
		return "extraction_failed"
	}
}
