package connection

// Ack is the backend's acknowledgment of a single write or removal.
// Field names follow the wire: this is a native shape, never normalized.
type Ack struct {
	OK  bool   `json:"ok"`
	ID  string `json:"id"`
	Rev string `json:"rev"`
}

// Row is one enumeration row as produced by an allDocs-style listing.
// Doc is populated only when the enumeration ran with includeDocs.
type Row struct {
	ID    string         `json:"id"`
	Key   string         `json:"key"`
	Value RowValue       `json:"value"`
	Doc   map[string]any `json:"doc,omitempty"`
}

// RowValue carries the stub payload of an enumeration row.
type RowValue struct {
	Rev string `json:"rev"`
}

// BulkRef addresses one document in a batched fetch, in the backend's
// native field naming.
type BulkRef struct {
	ID  string `json:"id"`
	Rev string `json:"rev,omitempty"`
}

// BulkResult is the backend's answer for one requested ref. Docs holds
// one leg per matching revision; a leg is either an ok document or an
// error descriptor.
type BulkResult struct {
	ID   string    `json:"id"`
	Docs []BulkDoc `json:"docs"`
}

// BulkDoc is a single leg of a BulkResult.
type BulkDoc struct {
	OK    map[string]any `json:"ok,omitempty"`
	Error *BulkError     `json:"error,omitempty"`
}

// BulkError describes why one leg of a batched fetch failed.
type BulkError struct {
	ID     string `json:"id"`
	Rev    string `json:"rev,omitempty"`
	Err    string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// Query is a structured find request in the backend's native shape.
// Settee forwards it without planning of its own; Selector carries the
// Mango-style match expression, Sort a list of field names or
// {"field": "asc"|"desc"} maps.
type Query struct {
	Selector map[string]any `json:"selector"`
	Fields   []string       `json:"fields,omitempty"`
	Sort     []any          `json:"sort,omitempty"`
	Limit    int            `json:"limit,omitempty"`
	Skip     int            `json:"skip,omitempty"`
	UseIndex string         `json:"use_index,omitempty"`
}

// FindResult is the envelope a find query returns.
type FindResult struct {
	Docs    []map[string]any `json:"docs"`
	Warning string           `json:"warning,omitempty"`
}

// IndexResult is the outcome of an index creation call. Result is
// "created" for a new index and "exists" for an idempotent repeat.
type IndexResult struct {
	Result string `json:"result"`
	ID     string `json:"id,omitempty"`
	Name   string `json:"name,omitempty"`
}
