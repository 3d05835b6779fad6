// internal/workers/dictionary/refresh-dictionaries/handler.go
package refreshdictionaries

import (
	"context"
	"errors"

	"jira-askbot/internal/common/auth"
	"jira-askbot/internal/common/camunda"
	apperrors "jira-askbot/internal/common/errors"
	"jira-askbot/internal/common/logger"
	"jira-askbot/internal/dictionary"
	"jira-askbot/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "refresh-dictionaries"
)

type Refresher interface {
	Refresh(ctx context.Context, accountID string, creds models.Credentials) (*dictionary.RefreshReport, error)
}

type Handler struct {
	config       *Config
	refresher    Refresher
	credentials  dictionary.CredentialSource
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, refresher Refresher, credentials dictionary.CredentialSource, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		refresher:    refresher,
		credentials:  credentials,
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.AccountID == "" {
		return nil, apperrors.NewInvalidInputError("accountId is required")
	}

	creds, err := h.credentials.Credentials(ctx, input.AccountID)
	if errors.Is(err, auth.ErrNoCredentials) || (err == nil && creds == nil) {
		return nil, apperrors.NewTrackerAuthError("no stored credentials for account " + input.AccountID)
	}
	if err != nil {
		return nil, apperrors.NewDictionaryUnavailableError(input.AccountID, err)
	}

	report, err := h.refresher.Refresh(ctx, input.AccountID, *creds)
	if err != nil {
		return nil, apperrors.NewDictionaryUnavailableError(input.AccountID, err)
	}
	return &Output{AccountID: report.AccountID, Counts: report.Counts, Failed: report.Failed}, nil
}
