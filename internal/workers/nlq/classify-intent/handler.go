// internal/workers/nlq/classify-intent/handler.go
package classifyintent

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
	TaskType = "classify-intent"
)

var (
	ErrInvalidModelReply = errors.New("INVALID_MODEL_REPLY")
)

// parameter names the model uses, mapped to ours.
var paramAliases = map[string]string{
	"chart_type": models.ParamChartType,
	"chartType":  models.ParamChartType,
	"group_by":   models.ParamGroupBy,
	"groupBy":    models.ParamGroupBy,
	"status":     models.ParamStatus,
}

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

// Execute asks the model first and falls back to ClassifyByRules on any
// model or parse failure. It only errors on empty input.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, apperrors.NewInvalidInputError("text is required")
	}

	intent, err := h.classifyWithModel(ctx, text)
	if err == nil {
		h.logger.Debug("intent classified", map[string]interface{}{
			"intent": intent.Type,
			"source": intent.Source,
		})
		return &Output{Intent: intent}, nil
	}

	reason := fallbackReason(err)
	metrics.StageFallbacks.WithLabelValues(TaskType, reason).Inc()
	h.logger.Warn("model classification failed, using rules", map[string]interface{}{
		"reason":       reason,
		"error":        err.Error(),
		"rulesVersion": RulesVersion,
	})

	return &Output{Intent: ClassifyByRules(text), RulesVersion: RulesVersion}, nil
}

func (h *Handler) classifyWithModel(ctx context.Context, text string) (models.Intent, error) {
	raw, err := h.llm.Complete(ctx, llm.Request{
		Template:    llm.TemplateIntent,
		Instruction: instruction,
		UserText:    userText(text),
		Temperature: h.config.Temperature,
		MaxTokens:   h.config.MaxTokens,
	})
	if err != nil {
		return models.Intent{}, err
	}

	doc, err := llm.ExtractJSON(raw)
	if err != nil {
		return models.Intent{}, err
	}
	if err := validation.IntentSchema.ValidateJSON(doc).Err(); err != nil {
		return models.Intent{}, fmt.Errorf("%w: %v", ErrInvalidModelReply, err)
	}

	var reply modelReply
	if err := json.Unmarshal([]byte(doc), &reply); err != nil {
		return models.Intent{}, fmt.Errorf("%w: %v", ErrInvalidModelReply, err)
	}

	intent := models.Intent{
		Type:       models.IntentType(reply.Intent),
		NeedsChart: reply.NeedsChart || visualization.Match(text),
		Parameters: normalizeParameters(reply.Parameters),
		Source:     models.SourceLLM,
	}
	if !intent.Type.Valid() {
		return models.Intent{}, fmt.Errorf("%w: unknown intent %q", ErrInvalidModelReply, reply.Intent)
	}
	return intent, nil
}

func normalizeParameters(raw map[string]interface{}) map[string]string {
	out := map[string]string{}
	for k, v := range raw {
		name, ok := paramAliases[k]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		s = strings.TrimSpace(s)
		if name == models.ParamGroupBy && s == "issue_type" {
			s = "issuetype"
		}
		out[name] = s
	}
	if len(out) == 0 {
		return nil
	}
	return out
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
