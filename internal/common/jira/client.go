package jira

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "jira-askbot/internal/common/errors"
	httpclient "jira-askbot/internal/common/http"
	"jira-askbot/internal/common/metrics"
	"jira-askbot/internal/models"
)

const (
	apiPrefix     = "/rest/api/2"
	searchFields  = "summary,status,assignee,priority,issuetype,project,created,updated"
	timeLayout    = "2006-01-02T15:04:05.000-0700"
	userPageLimit = 1000
)

// Client is the tracker REST boundary. It only transports; query text is
// built elsewhere.
type Client struct {
	baseURL string
	http    *httpclient.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpclient.NewClient(timeout),
	}
}

type issueFields struct {
	Summary string `json:"summary"`
	Status  *struct {
		Name string `json:"name"`
	} `json:"status"`
	Assignee *struct {
		DisplayName string `json:"displayName"`
	} `json:"assignee"`
	Priority *struct {
		Name string `json:"name"`
	} `json:"priority"`
	IssueType *struct {
		Name string `json:"name"`
	} `json:"issuetype"`
	Project *struct {
		Key string `json:"key"`
	} `json:"project"`
	Created string `json:"created"`
	Updated string `json:"updated"`
}

type searchResponse struct {
	Total  int `json:"total"`
	Issues []struct {
		Key    string      `json:"key"`
		Fields issueFields `json:"fields"`
	} `json:"issues"`
}

// Search runs a JQL query and returns at most maxResults issues.
func (c *Client) Search(ctx context.Context, jql string, creds models.Credentials, maxResults int) (*models.SearchResult, error) {
	params := url.Values{}
	params.Set("jql", jql)
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("fields", searchFields)

	var resp searchResponse
	if err := c.get(ctx, "search", "/search?"+params.Encode(), creds, &resp); err != nil {
		return nil, err
	}

	result := &models.SearchResult{Total: resp.Total, Issues: make([]models.Issue, 0, len(resp.Issues))}
	for _, raw := range resp.Issues {
		f := raw.Fields
		issue := models.Issue{
			Key:     raw.Key,
			Summary: f.Summary,
			Created: parseTime(f.Created),
			Updated: parseTime(f.Updated),
		}
		if f.Status != nil {
			issue.Status = f.Status.Name
		}
		if f.Assignee != nil {
			issue.Assignee = f.Assignee.DisplayName
		}
		if f.Priority != nil {
			issue.Priority = f.Priority.Name
		}
		if f.IssueType != nil {
			issue.IssueType = f.IssueType.Name
		}
		if f.Project != nil {
			issue.Project = f.Project.Key
		}
		result.Issues = append(result.Issues, issue)
	}
	return result, nil
}

// Myself checks the credentials and returns the account's display name.
func (c *Client) Myself(ctx context.Context, creds models.Credentials) (string, error) {
	var resp struct {
		Name        string `json:"name"`
		DisplayName string `json:"displayName"`
	}
	if err := c.get(ctx, "myself", "/myself", creds, &resp); err != nil {
		return "", err
	}
	if resp.DisplayName != "" {
		return resp.DisplayName, nil
	}
	return resp.Name, nil
}

func (c *Client) ListProjects(ctx context.Context, creds models.Credentials) ([]models.DictionaryRecord, error) {
	var resp []struct {
		Key  string `json:"key"`
		Name string `json:"name"`
	}
	if err := c.get(ctx, "projects", "/project", creds, &resp); err != nil {
		return nil, err
	}
	out := make([]models.DictionaryRecord, 0, len(resp))
	for _, p := range resp {
		out = append(out, models.DictionaryRecord{ID: p.Key, Name: p.Name})
	}
	return out, nil
}

func (c *Client) ListStatuses(ctx context.Context, creds models.Credentials) ([]models.DictionaryRecord, error) {
	var resp []struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		StatusCategory *struct {
			Key  string `json:"key"`
			Name string `json:"name"`
		} `json:"statusCategory"`
	}
	if err := c.get(ctx, "statuses", "/status", creds, &resp); err != nil {
		return nil, err
	}
	out := make([]models.DictionaryRecord, 0, len(resp))
	for _, s := range resp {
		rec := models.DictionaryRecord{ID: s.ID, Name: s.Name}
		if s.StatusCategory != nil {
			// The key (new/indeterminate/done) does not depend on locale.
			rec.Category = s.StatusCategory.Key
			if rec.Category == "" {
				rec.Category = s.StatusCategory.Name
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func (c *Client) ListIssueTypes(ctx context.Context, creds models.Credentials) ([]models.DictionaryRecord, error) {
	return c.listNamed(ctx, "issue_types", "/issuetype", creds)
}

func (c *Client) ListPriorities(ctx context.Context, creds models.Credentials) ([]models.DictionaryRecord, error) {
	return c.listNamed(ctx, "priorities", "/priority", creds)
}

// ListUsers returns users keyed by login with their display names.
func (c *Client) ListUsers(ctx context.Context, creds models.Credentials) ([]models.DictionaryRecord, error) {
	params := url.Values{}
	params.Set("username", ".")
	params.Set("maxResults", strconv.Itoa(userPageLimit))

	var resp []struct {
		Name        string `json:"name"`
		DisplayName string `json:"displayName"`
		Active      *bool  `json:"active"`
	}
	if err := c.get(ctx, "users", "/user/search?"+params.Encode(), creds, &resp); err != nil {
		return nil, err
	}
	out := make([]models.DictionaryRecord, 0, len(resp))
	for _, u := range resp {
		if u.Active != nil && !*u.Active {
			continue
		}
		out = append(out, models.DictionaryRecord{ID: u.Name, Name: u.DisplayName})
	}
	return out, nil
}

func (c *Client) listNamed(ctx context.Context, op, path string, creds models.Credentials) ([]models.DictionaryRecord, error) {
	var resp []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := c.get(ctx, op, path, creds, &resp); err != nil {
		return nil, err
	}
	out := make([]models.DictionaryRecord, 0, len(resp))
	for _, r := range resp {
		out = append(out, models.DictionaryRecord{ID: r.ID, Name: r.Name})
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, op, path string, creds models.Credentials, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+apiPrefix+path, nil)
	if err != nil {
		return apperrors.NewTrackerAPIError(0, err.Error())
	}
	req.SetBasicAuth(creds.Username, creds.Secret)

	err = c.http.DoJSON(ctx, req, out)
	if err == nil {
		metrics.TrackerRequests.WithLabelValues(op, "ok").Inc()
		return nil
	}

	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		metrics.TrackerRequests.WithLabelValues(op, strconv.Itoa(statusErr.StatusCode)).Inc()
		if statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden {
			return apperrors.NewTrackerAuthError(fmt.Sprintf("%s: HTTP %d", op, statusErr.StatusCode))
		}
		return apperrors.NewTrackerAPIError(statusErr.StatusCode, statusErr.Body)
	}
	metrics.TrackerRequests.WithLabelValues(op, "error").Inc()
	return apperrors.NewTrackerAPIError(0, err.Error())
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
