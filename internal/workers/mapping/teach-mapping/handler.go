// internal/workers/mapping/teach-mapping/handler.go
package teachmapping

import (
	"context"
	"errors"
	"fmt"

	"jira-askbot/internal/common/camunda"
	apperrors "jira-askbot/internal/common/errors"
	"jira-askbot/internal/common/logger"
	"jira-askbot/internal/mapping"
	"jira-askbot/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "teach-mapping"
)

// Teacher stores taught mappings.
type Teacher interface {
	TeachClient(ctx context.Context, name, projectKey, teacherID string) (*models.ClientMapping, error)
	TeachUser(ctx context.Context, displayName, username, teacherID string) (*models.UserMapping, error)
}

type Handler struct {
	config       *Config
	teacher      Teacher
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, teacher Teacher, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		teacher:      teacher,
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
	cmd, err := command(input)
	if err != nil {
		return nil, err
	}
	if input.TeacherID == "" {
		return nil, apperrors.NewInvalidInputError("teacherId is required")
	}

	switch cmd.Kind {
	case mapping.TeachClientKind:
		m, err := h.teacher.TeachClient(ctx, cmd.Name, cmd.Value, input.TeacherID)
		if err != nil {
			return nil, teachError(err)
		}
		return &Output{Kind: cmd.Kind, Name: m.ClientName, Value: m.ProjectKey, LearnedBy: m.LearnedBy, LearnedAt: m.LearnedAt}, nil

	case mapping.TeachUserKind:
		m, err := h.teacher.TeachUser(ctx, cmd.Name, cmd.Value, input.TeacherID)
		if err != nil {
			return nil, teachError(err)
		}
		return &Output{Kind: cmd.Kind, Name: m.DisplayName, Value: m.Username, LearnedBy: m.LearnedBy, LearnedAt: m.LearnedAt}, nil
	}
	return nil, apperrors.NewInvalidInputError(fmt.Sprintf("unknown mapping kind %q", cmd.Kind))
}

func command(input *Input) (*mapping.TeachCommand, error) {
	if input.Text == "" {
		return &mapping.TeachCommand{Kind: input.Kind, Name: input.Name, Value: input.Value}, nil
	}
	cmd, err := mapping.ParseTeachCommand(input.Text)
	if err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("%v; usage:\n%s", err, mapping.TeachUsage))
	}
	return cmd, nil
}

func teachError(err error) error {
	if errors.Is(err, mapping.ErrEmptyName) {
		return apperrors.NewInvalidInputError(err.Error())
	}
	return err
}
