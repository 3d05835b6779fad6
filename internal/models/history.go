package models

import "time"

type QueryHistory struct {
	ID          int64         `json:"id" db:"id"`
	UserID      string        `json:"userId" db:"user_id"`
	Question    string        `json:"question" db:"question"`
	Query       string        `json:"query" db:"jql_query"`
	QueryType   QueryType     `json:"queryType" db:"query_type"`
	ResultCount int           `json:"resultCount" db:"result_count"`
	Duration    time.Duration `json:"duration" db:"execution_ms"`
	Cached      bool          `json:"cached" db:"cached"`
	CreatedAt   time.Time     `json:"createdAt" db:"created_at"`
}
