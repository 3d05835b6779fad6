// internal/workers/nlq/synthesize-query/handler.go
package synthesizequery

import (
	"context"
	"errors"
	"strings"
	"time"

	"jira-askbot/internal/common/camunda"
	apperrors "jira-askbot/internal/common/errors"
	"jira-askbot/internal/common/llm"
	"jira-askbot/internal/common/logger"
	"jira-askbot/internal/common/metrics"
	"jira-askbot/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "synthesize-query"

	// learnedByDictionary marks user mappings learned from the users
	// dictionary rather than taught by a person.
	learnedByDictionary = "dictionary"
	sourceGate          = "gate"
)

// MappingStore resolves taught client and user names.
type MappingStore interface {
	ResolveClient(ctx context.Context, name string) (string, bool, error)
	ResolveUser(ctx context.Context, displayName string) (string, bool, error)
	ListAll(ctx context.Context) (*models.Mappings, error)
}

// DictionarySource returns the tracker vocabularies of an account,
// refreshing them when none are cached.
type DictionarySource interface {
	EnsureFresh(ctx context.Context, accountID string) (models.Dictionaries, error)
}

type Handler struct {
	config       *Config
	mappings     MappingStore
	dictionaries DictionarySource
	llm          llm.Completer
	now          func() time.Time
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, mappings MappingStore, dictionaries DictionarySource, completer llm.Completer, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		mappings:     mappings,
		dictionaries: dictionaries,
		llm:          completer,
		now:          time.Now,
		logger:       log,
		errorHandler: apperrors.NewErrorHandler(log),
	}
}

// WithClock replaces the clock used to resolve month names.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
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
	result, err := h.Synthesize(ctx, input)
	if err != nil {
		return nil, err
	}
	return toOutput(result), nil
}

// synthesis is the state carried between steps.
type synthesis struct {
	accountID  string
	entities   models.EntityBag
	projectKey string
	assignee   string
	clauses    []string
	learned    []models.UserMapping

	snapshot       models.Dictionaries
	snapshotLoaded bool
}

type step struct {
	state string
	run   func(h *Handler, ctx context.Context, s *synthesis) Result
}

// steps run after RESOLVE_CLIENT. A step returning a Result ends
// synthesis with it.
var steps = []step{
	{"RESOLVE_ASSIGNEE", (*Handler).resolveAssignee},
	{"COMPOSE_CLAUSES", (*Handler).composeClauses},
	{"RESOLVE_STATUS", (*Handler).resolveStatus},
	{"RESOLVE_TIME", (*Handler).resolveTime},
	{"RESOLVE_TEXT", (*Handler).resolveText},
}

// Synthesize turns intent and entities into a query. Unresolvable
// entities produce a Need* result, never an error; errors are reserved
// for a failing mapping store.
func (h *Handler) Synthesize(ctx context.Context, input *Input) (Result, error) {
	s := &synthesis{
		accountID: input.AccountID,
		entities:  input.Entities.Normalize(),
	}

	if r := h.resolveClient(ctx, s); r != nil {
		h.record(r, sourceGate)
		return r, nil
	}

	if text := strings.TrimSpace(input.Text); text != "" {
		query, err := h.queryWithModel(ctx, text, input.Intent, s.projectKey)
		if err == nil {
			r := Resolved{Query: query, Source: models.SourceLLM}
			h.record(r, models.SourceLLM)
			return r, nil
		}
		reason := fallbackReason(err)
		metrics.StageFallbacks.WithLabelValues(TaskType, reason).Inc()
		h.logger.Warn("model query rejected, using rules", map[string]interface{}{
			"reason": reason,
			"error":  err.Error(),
		})
	}

	for _, st := range steps {
		if r := st.run(h, ctx, s); r != nil {
			h.logger.Info("synthesis stopped", map[string]interface{}{
				"state":   st.state,
				"outcome": r.Outcome(),
			})
			h.record(r, models.SourceRules)
			return r, nil
		}
	}

	query := strings.Join(s.clauses, " AND ")
	if query == "" {
		query = fallbackClause(s.entities.QueryType, s.projectKey)
	}
	r := Resolved{Query: query, Source: models.SourceRules, LearnedUsers: s.learned}
	h.record(r, models.SourceRules)
	return r, nil
}

func (h *Handler) record(r Result, source string) {
	metrics.SynthesisOutcomes.WithLabelValues(r.Outcome(), source).Inc()
}

// resolveClient runs before the model so an unknown client is always
// reported instead of being guessed. A failing store counts as a miss,
// as for user lookups.
func (h *Handler) resolveClient(ctx context.Context, s *synthesis) Result {
	name := models.Deref(s.entities.ClientName)
	if name == "" {
		s.projectKey = models.Deref(s.entities.ProjectKey)
		return nil
	}

	key, ok, err := h.mappings.ResolveClient(ctx, name)
	if err != nil {
		metrics.StageFallbacks.WithLabelValues(TaskType, "mapping_unavailable").Inc()
		h.logger.Warn("client mapping lookup failed", map[string]interface{}{
			"clientName": name,
			"error":      err.Error(),
		})
	}
	if !ok {
		return NeedClientMapping{ClientName: name}
	}
	s.projectKey = key
	return nil
}

func (h *Handler) resolveAssignee(ctx context.Context, s *synthesis) Result {
	raw := models.Deref(s.entities.AssigneeRaw)
	switch raw {
	case "":
		return nil
	case models.AssigneeUnassigned:
		s.assignee = clauseUnassigned
		return nil
	case models.AssigneeCurrentUser:
		s.assignee = clauseCurrentUser
		return nil
	}

	if username, ok := h.lookupUser(ctx, s, raw); ok {
		s.assignee = "assignee = " + quote(username)
		return nil
	}
	if h.config.StrictAssignee {
		return NeedUserMapping{DisplayName: raw}
	}
	s.assignee = "assignee = " + quote(raw)
	return nil
}

// lookupUser tries taught mappings, then the users dictionary. Lookup
// errors count as a miss.
func (h *Handler) lookupUser(ctx context.Context, s *synthesis, displayName string) (string, bool) {
	username, ok, err := h.mappings.ResolveUser(ctx, displayName)
	if err != nil {
		h.logger.Warn("user mapping lookup failed", map[string]interface{}{
			"displayName": displayName,
			"error":       err.Error(),
		})
	}
	if ok {
		return username, true
	}

	for _, u := range h.snapshot(ctx, s)[models.DictUsers] {
		if u.ID != "" && strings.EqualFold(strings.TrimSpace(u.Name), displayName) {
			s.learned = append(s.learned, models.UserMapping{
				DisplayName: displayName,
				Username:    u.ID,
				LearnedBy:   learnedByDictionary,
				LearnedAt:   h.now().UTC(),
			})
			return u.ID, true
		}
	}
	return "", false
}

func (h *Handler) composeClauses(_ context.Context, s *synthesis) Result {
	if s.projectKey != "" {
		s.clauses = append(s.clauses, "project = "+quote(s.projectKey))
	}
	if s.assignee != "" {
		s.clauses = append(s.clauses, s.assignee)
	}
	if v := models.Deref(s.entities.IssueType); v != "" {
		s.clauses = append(s.clauses, "issuetype = "+quote(v))
	}
	if v := models.Deref(s.entities.Priority); v != "" {
		s.clauses = append(s.clauses, "priority = "+quote(v))
	}
	return nil
}

func (h *Handler) resolveStatus(ctx context.Context, s *synthesis) Result {
	intent := s.entities.StatusIntent
	if intent != models.StatusOpen && intent != models.StatusClosed {
		return nil
	}

	names := statusNames(h.snapshot(ctx, s)[models.DictStatuses], intent)
	if len(names) == 0 {
		names = fallbackOpen
		if intent == models.StatusClosed {
			names = fallbackClosed
		}
	}
	s.clauses = append(s.clauses, statusClause(names))
	return nil
}

func (h *Handler) resolveTime(_ context.Context, s *synthesis) Result {
	if clause := timeClause(models.Deref(s.entities.TimePeriod), h.now()); clause != "" {
		s.clauses = append(s.clauses, clause)
	}
	return nil
}

func (h *Handler) resolveText(_ context.Context, s *synthesis) Result {
	if text := models.Deref(s.entities.SearchText); text != "" {
		s.clauses = append(s.clauses, textClause(text))
	}
	return nil
}

// snapshot loads the account's dictionaries once per synthesis. A
// failure leaves it empty so status resolution uses the fixed lists.
func (h *Handler) snapshot(ctx context.Context, s *synthesis) models.Dictionaries {
	if s.snapshotLoaded {
		return s.snapshot
	}
	s.snapshotLoaded = true
	if h.dictionaries == nil || s.accountID == "" {
		return nil
	}

	dicts, err := h.dictionaries.EnsureFresh(ctx, s.accountID)
	if err != nil {
		metrics.StageFallbacks.WithLabelValues(TaskType, "dictionary_unavailable").Inc()
		h.logger.Warn("dictionaries unavailable, using fixed status lists", map[string]interface{}{
			"accountId": s.accountID,
			"error":     err.Error(),
		})
		return nil
	}
	s.snapshot = dicts
	return dicts
}

func (h *Handler) queryWithModel(ctx context.Context, text string, intent models.Intent, projectKey string) (string, error) {
	known, err := h.mappings.ListAll(ctx)
	if err != nil {
		h.logger.Warn("mappings unavailable for prompt", map[string]interface{}{"error": err.Error()})
		known = nil
	}

	raw, err := h.llm.Complete(ctx, llm.Request{
		Template:    llm.TemplateQuery,
		Instruction: instruction,
		UserText:    userText(text, intent, projectKey, known),
		Temperature: h.config.Temperature,
		MaxTokens:   h.config.MaxTokens,
	})
	if err != nil {
		return "", err
	}

	query, err := llm.ExtractQuery(raw)
	if err != nil {
		return "", err
	}
	if err := ValidateQuery(query, h.config.MaxQueryLength); err != nil {
		return "", err
	}
	return query, nil
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, llm.ErrModelUnavailable), errors.Is(err, context.DeadlineExceeded):
		return "model_unavailable"
	case errors.Is(err, ErrQueryLength), errors.Is(err, ErrQueryNoFields), errors.Is(err, ErrQueryLooksProse):
		return "invalid_reply"
	default:
		return "extraction_failed"
	}
}
