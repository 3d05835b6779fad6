// internal/workers/nlq/enrich-context/handler.go
package enrichcontext

import (
	"context"
	"strings"

	"jira-askbot/internal/common/camunda"
	apperrors "jira-askbot/internal/common/errors"
	"jira-askbot/internal/common/logger"
	"jira-askbot/internal/common/metrics"
	"jira-askbot/internal/conversation"
	"jira-askbot/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "enrich-context"
)

type Handler struct {
	config       *Config
	store        conversation.Store
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, store conversation.Store, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		store:        store,
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

// Execute returns the text unchanged with no extra entities unless a prior
// turn exists and the text reads as a follow-up to it. Blank text and a
// failing store only disable enrichment.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	inert := &Output{Text: input.Text}
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return inert, nil
	}
	if input.UserID == "" {
		return nil, apperrors.NewInvalidInputError("userId is required")
	}

	if !followUp.Match(text) {
		return inert, nil
	}

	prior, err := h.store.Load(ctx, input.UserID, input.ChannelID)
	if err != nil {
		metrics.StageFallbacks.WithLabelValues(TaskType, "store_unavailable").Inc()
		h.logger.Warn("conversation store unavailable, skipping enrichment", map[string]interface{}{
			"userId": input.UserID,
			"error":  err.Error(),
		})
		return inert, nil
	}
	if prior == nil || strings.TrimSpace(prior.LastQuery) == "" {
		return inert, nil
	}

	extra := models.EntityBag{}.Merge(prior.LastEntities)
	var applied []string
	for _, rw := range rewrites {
		if rw.apply(text, &extra) {
			applied = append(applied, rw.name)
		}
	}

	h.logger.Debug("follow-up detected", map[string]interface{}{
		"userId":   input.UserID,
		"rewrites": applied,
	})

	return &Output{
		Text:         prior.LastQuery + " " + text,
		Extra:        extra,
		Active:       true,
		Rewrites:     applied,
		RulesVersion: RulesVersion,
	}, nil
}
