// internal/bot/processor.go
package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"jira-askbot/internal/common/auth"
	"jira-askbot/internal/common/cache"
	apperrors "jira-askbot/internal/common/errors"
	"jira-askbot/internal/common/logger"
	"jira-askbot/internal/common/observability"
	"jira-askbot/internal/conversation"
	"jira-askbot/internal/dictionary"
	"jira-askbot/internal/models"
	classifyintent "jira-askbot/internal/workers/nlq/classify-intent"
	enrichcontext "jira-askbot/internal/workers/nlq/enrich-context"
	extractentities "jira-askbot/internal/workers/nlq/extract-entities"
	synthesizequery "jira-askbot/internal/workers/nlq/synthesize-query"

	"github.com/google/uuid"
)

// Message is one inbound chat message.
type Message struct {
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id"`
	Text      string `json:"text"`
}

// Reply is what the chat boundary sends back. Chart is set when the
// question asked for a visualization and there was data to plot.
type Reply struct {
	Text  string     `json:"text"`
	Chart *ChartSpec `json:"chart,omitempty"`
}

// Message outcomes recorded on the otel meter.
const (
	OutcomeCommand        = "command"
	OutcomeAnswered       = "answered"
	OutcomeNoResults      = "no_results"
	OutcomeNeedAuth       = "need_auth"
	OutcomeNeedClient     = "need_client_mapping"
	OutcomeNeedUser       = "need_user_mapping"
	OutcomeTrackerAuth    = "tracker_auth_error"
	OutcomeTrackerFailure = "tracker_error"
	OutcomeFailed         = "failed"
)

// learnedByDictionary marks user mappings committed from the users
// dictionary rather than taught by a person.
const learnedByDictionary = "dictionary"

type Tracker interface {
	Search(ctx context.Context, jql string, creds models.Credentials, maxResults int) (*models.SearchResult, error)
	Myself(ctx context.Context, creds models.Credentials) (string, error)
}

type CredentialStore interface {
	Save(ctx context.Context, userID string, creds models.Credentials) error
	Get(ctx context.Context, userID string) (*models.Credentials, error)
	InvalidateUser(ctx context.Context, userID string) error
}

type MappingStore interface {
	TeachClient(ctx context.Context, name, projectKey, teacherID string) (*models.ClientMapping, error)
	TeachUser(ctx context.Context, displayName, username, teacherID string) (*models.UserMapping, error)
	ListAll(ctx context.Context) (*models.Mappings, error)
}

type Dictionaries interface {
	EnsureFresh(ctx context.Context, accountID string) (models.Dictionaries, error)
	Refresh(ctx context.Context, accountID string, creds models.Credentials) (*dictionary.RefreshReport, error)
	Invalidate(ctx context.Context, accountID string) error
}

type ResultCache interface {
	Get(ctx context.Context, query, accountID string) (*models.SearchResult, bool)
	Put(ctx context.Context, query, accountID string, result *models.SearchResult)
}

type HistoryRecorder interface {
	Record(ctx context.Context, h *models.QueryHistory) error
	Recent(ctx context.Context, userID string, limit int) ([]models.QueryHistory, error)
}

type CacheStats interface {
	Stats(ctx context.Context) (*cache.Stats, error)
}

// Stages are the pipeline workers run in-process.
type Stages struct {
	Enricher    *enrichcontext.Handler
	Classifier  *classifyintent.Handler
	Extractor   *extractentities.Handler
	Synthesizer *synthesizequery.Handler
}

// Deps wires the processor. History, Stats and Observability may be nil.
type Deps struct {
	Stages        Stages
	Tracker       Tracker
	Credentials   CredentialStore
	Mappings      MappingStore
	Dictionaries  Dictionaries
	Results       ResultCache
	Conversations conversation.Store
	History       HistoryRecorder
	Stats         CacheStats
	Observability *observability.Observability
}

type Config struct {
	MaxResults int
	ReplyLimit int
}

type Processor struct {
	config        *Config
	stages        Stages
	tracker       Tracker
	credentials   CredentialStore
	mappings      MappingStore
	dictionaries  Dictionaries
	results       ResultCache
	conversations conversation.Store
	history       HistoryRecorder
	stats         CacheStats
	obs           *observability.Observability
	commands      map[Command]commandFunc
	logger        logger.Logger
}

func NewProcessor(config *Config, deps Deps, log logger.Logger) *Processor {
	p := &Processor{
		config:        config,
		stages:        deps.Stages,
		tracker:       deps.Tracker,
		credentials:   deps.Credentials,
		mappings:      deps.Mappings,
		dictionaries:  deps.Dictionaries,
		results:       deps.Results,
		conversations: deps.Conversations,
		history:       deps.History,
		stats:         deps.Stats,
		obs:           deps.Observability,
		logger:        log.WithFields(map[string]interface{}{"component": "bot"}),
	}
	p.commands = p.commandTable()
	return p
}

// Process answers one chat message. Only invalid input is returned as an
// error; everything else becomes reply text.
func (p *Processor) Process(ctx context.Context, msg Message) (*Reply, error) {
	msg.Text = strings.TrimSpace(msg.Text)
	if msg.UserID == "" {
		return nil, apperrors.NewInvalidInputError("user_id is required")
	}
	if msg.Text == "" {
		return nil, apperrors.NewInvalidInputError("text is required")
	}

	start := time.Now()
	log := p.logger.WithFields(map[string]interface{}{
		"requestId": uuid.NewString(),
		"userId":    msg.UserID,
		"channelId": msg.ChannelID,
	})
	log.Info("processing message", map[string]interface{}{"length": len([]rune(msg.Text))})

	reply, outcome := p.dispatch(ctx, msg, log)

	p.obs.RecordMessage(ctx, outcome, time.Since(start))
	log.Info("message processed", map[string]interface{}{
		"outcome":    outcome,
		"durationMs": time.Since(start).Milliseconds(),
	})
	return reply, nil
}

func (p *Processor) dispatch(ctx context.Context, msg Message, log logger.Logger) (*Reply, string) {
	if cmd := ParseCommand(msg.Text); cmd != CommandNone {
		ctx, end := p.obs.StartSpan(ctx, "command."+cmd.String())
		defer end()

		text, err := p.commands[cmd](ctx, msg)
		if err != nil {
			log.Error("command failed", map[string]interface{}{"command": cmd.String(), "error": err.Error()})
			return &Reply{Text: "❌ Ошибка при выполнении команды: " + userMessage(err)}, OutcomeFailed
		}
		return &Reply{Text: text}, OutcomeCommand
	}
	return p.answer(ctx, msg, log)
}

// query is the state carried through one pipeline run.
type query struct {
	msg      Message
	creds    *models.Credentials
	enriched *enrichcontext.Output
	intent   models.Intent
	entities models.EntityBag
	start    time.Time
}

func (p *Processor) answer(ctx context.Context, msg Message, log logger.Logger) (*Reply, string) {
	q := &query{msg: msg, start: time.Now()}

	creds, err := p.credentials.Get(ctx, msg.UserID)
	if errors.Is(err, auth.ErrNoCredentials) {
		return &Reply{Text: authRequiredText}, OutcomeNeedAuth
	}
	if err != nil {
		log.Error("credentials lookup failed", map[string]interface{}{"error": err.Error()})
		return &Reply{Text: "❌ Произошла ошибка при обработке запроса: " + userMessage(err)}, OutcomeFailed
	}
	q.creds = creds

	p.understand(ctx, q, log)

	sctx, end := p.obs.StartSpan(ctx, synthesizequery.TaskType)
	result, err := p.stages.Synthesizer.Synthesize(sctx, &synthesizequery.Input{
		Text:      q.enriched.Text,
		Intent:    q.intent,
		Entities:  q.entities,
		AccountID: creds.AccountID,
	})
	end()
	if err != nil {
		log.Error("query synthesis failed", map[string]interface{}{"error": err.Error()})
		return &Reply{Text: "❌ Не удалось понять запрос: " + userMessage(err)}, OutcomeFailed
	}

	switch r := result.(type) {
	case synthesizequery.NeedClientMapping:
		text := clientMappingPrompt(r.ClientName)
		p.commit(ctx, q, "", nil, false, text, log)
		return &Reply{Text: text}, OutcomeNeedClient
	case synthesizequery.NeedUserMapping:
		return &Reply{Text: userMappingPrompt(r.DisplayName)}, OutcomeNeedUser
	case synthesizequery.Resolved:
		return p.search(ctx, q, r, log)
	}
	return &Reply{Text: "❌ Не удалось понять запрос"}, OutcomeFailed
}

// understand runs the enrich, classify and extract stages. None of them
// fail the request: each degrades to its rule tier or to the bare text.
func (p *Processor) understand(ctx context.Context, q *query, log logger.Logger) {
	ectx, end := p.obs.StartSpan(ctx, enrichcontext.TaskType)
	enriched, err := p.stages.Enricher.Execute(ectx, &enrichcontext.Input{
		UserID:    q.msg.UserID,
		ChannelID: q.msg.ChannelID,
		Text:      q.msg.Text,
	})
	end()
	if err != nil {
		log.Warn("context enrichment skipped", map[string]interface{}{"error": err.Error()})
		enriched = &enrichcontext.Output{Text: q.msg.Text}
	}
	q.enriched = enriched

	cctx, end := p.obs.StartSpan(ctx, classifyintent.TaskType)
	classified, err := p.stages.Classifier.Execute(cctx, &classifyintent.Input{Text: enriched.Text})
	end()
	if err != nil {
		q.intent = classifyintent.ClassifyByRules(enriched.Text)
	} else {
		q.intent = classified.Intent
	}

	xctx, end := p.obs.StartSpan(ctx, extractentities.TaskType)
	extracted, err := p.stages.Extractor.Execute(xctx, &extractentities.Input{Text: q.msg.Text})
	end()
	if err != nil {
		q.entities = extractentities.ExtractByRules(q.msg.Text)
	} else {
		q.entities = extracted.Entities
	}
	if enriched.Active {
		q.entities = enriched.Extra.Merge(q.entities)
	}

	log.Debug("message understood", map[string]interface{}{
		"intent":   q.intent.Type,
		"source":   q.intent.Source,
		"followUp": enriched.Active,
		"rewrites": enriched.Rewrites,
	})
}

func (p *Processor) search(ctx context.Context, q *query, r synthesizequery.Resolved, log logger.Logger) (*Reply, string) {
	log = log.WithFields(map[string]interface{}{"query": r.Query, "querySource": r.Source})
	accountID := q.creds.AccountID

	result, cached := p.results.Get(ctx, r.Query, accountID)
	if !cached {
		tctx, end := p.obs.StartSpan(ctx, "tracker.search")
		var err error
		result, err = p.tracker.Search(tctx, r.Query, *q.creds, p.config.MaxResults)
		end()

		switch {
		case apperrors.HasCode(err, apperrors.ErrCodeTrackerAuth):
			if err := p.credentials.InvalidateUser(ctx, q.msg.UserID); err != nil {
				log.Warn("failed to drop rejected credentials", map[string]interface{}{"error": err.Error()})
			}
			return &Reply{Text: "❌ Ошибка авторизации в Jira. Необходимо повторить авторизацию."}, OutcomeTrackerAuth
		case err != nil:
			log.Error("tracker search failed", map[string]interface{}{"error": err.Error()})
			return &Reply{Text: "❌ Ошибка Jira API: " + userMessage(err)}, OutcomeTrackerFailure
		}
	}
	log.Info("search finished", map[string]interface{}{"total": result.Total, "cached": cached})

	reply := &Reply{Text: formatIssues(result, p.config.ReplyLimit)}
	if q.intent.NeedsChart {
		reply.Chart = buildChart(result.Issues, q.intent)
	}

	p.commit(ctx, q, r.Query, result, cached, reply.Text, log)
	for _, u := range r.LearnedUsers {
		p.learnUser(ctx, u, log)
	}

	if len(result.Issues) == 0 {
		return reply, OutcomeNoResults
	}
	return reply, OutcomeAnswered
}

// commit persists the side effects of a finished request. Nothing is
// written once the request context is done.
func (p *Processor) commit(ctx context.Context, q *query, jql string, result *models.SearchResult, cached bool, response string, log logger.Logger) {
	if ctx.Err() != nil {
		log.Warn("request cancelled, skipping writes", map[string]interface{}{"error": ctx.Err().Error()})
		return
	}

	if result != nil && !cached {
		p.results.Put(ctx, jql, q.creds.AccountID, result)
	}

	if result != nil && p.history != nil {
		err := p.history.Record(ctx, &models.QueryHistory{
			UserID:      q.msg.UserID,
			Question:    q.msg.Text,
			Query:       jql,
			QueryType:   q.entities.QueryType,
			ResultCount: result.Total,
			Duration:    time.Since(q.start),
			Cached:      cached,
		})
		if err != nil {
			log.Warn("failed to record query history", map[string]interface{}{"error": err.Error()})
		}
	}

	err := p.conversations.Save(ctx, &models.ConversationTurn{
		UserID:       q.msg.UserID,
		ChannelID:    q.msg.ChannelID,
		LastQuery:    q.enriched.Text,
		LastIntent:   q.intent.Type,
		LastEntities: q.entities,
		LastResponse: response,
		UpdatedAt:    time.Now().UTC(),
	})
	if err != nil {
		log.Warn("failed to save conversation turn", map[string]interface{}{"error": err.Error()})
	}
}

func (p *Processor) learnUser(ctx context.Context, u models.UserMapping, log logger.Logger) {
	if ctx.Err() != nil {
		return
	}
	if _, err := p.mappings.TeachUser(ctx, u.DisplayName, u.Username, learnedByDictionary); err != nil {
		log.Warn("failed to store learned user", map[string]interface{}{
			"displayName": u.DisplayName,
			"error":       err.Error(),
		})
		return
	}
	log.Info("user mapping learned from dictionary", map[string]interface{}{
		"displayName": u.DisplayName,
		"username":    u.Username,
	})
}

// userMessage prefers the StandardError details over its wrapper text.
func userMessage(err error) string {
	if stdErr, ok := apperrors.As(err); ok {
		if stdErr.Details != "" {
			return stdErr.Details
		}
		return stdErr.Message
	}
	return err.Error()
}
