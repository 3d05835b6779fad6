package validation

// IntentSchema constrains the classifier's model output.
var IntentSchema = MustCompile("intent", `{
  "type": "object",
  "required": ["intent"],
  "properties": {
    "intent": {"type": "string", "enum": ["analytics", "search", "worklog", "status", "chart"]},
    "needs_chart": {"type": "boolean"},
    "parameters": {
      "type": ["object", "null"],
      "additionalProperties": {"type": ["string", "null"]}
    }
  }
}`)

// EntitySchema constrains the extractor's model output.
var EntitySchema = MustCompile("entities", `{
  "type": "object",
  "properties": {
    "client_name":   {"type": ["string", "null"]},
    "assignee":      {"type": ["string", "null"]},
    "time_period":   {"type": ["string", "null"]},
    "search_text":   {"type": ["string", "null"]},
    "issue_type":    {"type": ["string", "null"]},
    "priority":      {"type": ["string", "null"]},
    "project_key":   {"type": ["string", "null"]},
    "status_intent": {"type": ["string", "null"], "enum": ["open", "closed", "all", null]},
    "query_type":    {"type": ["string", "null"], "enum": ["count", "analytics", "list", "ranking", "search", null]}
  }
}`)

// MessageSchema validates inbound chat messages on the HTTP boundary.
var MessageSchema = MustCompile("message", `{
  "type": "object",
  "required": ["user_id", "channel_id", "text"],
  "properties": {
    "user_id":    {"type": "string", "minLength": 1},
    "channel_id": {"type": "string", "minLength": 1},
    "text":       {"type": "string", "minLength": 1, "maxLength": 4000}
  }
}`)
