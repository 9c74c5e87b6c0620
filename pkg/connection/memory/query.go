package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/setteedb/settee/pkg/connection"
)

func (m *Memory) AllDocs(ctx context.Context, includeDocs bool) ([]connection.Row, error) {
	if err := m.alive(ctx); err != nil {
		return nil, err
	}

	docs := make(map[string]map[string]any)
	m.docs.Range(func(id string, doc map[string]any) bool {
		docs[id] = doc
		return true
	})

	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([]connection.Row, 0, len(ids))
	for _, id := range ids {
		doc := docs[id]
		rev, _ := doc["_rev"].(string)
		row := connection.Row{ID: id, Key: id, Value: connection.RowValue{Rev: rev}}
		if includeDocs {
			row.Doc = copyDoc(doc)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (m *Memory) BulkGet(ctx context.Context, refs []connection.BulkRef) ([]connection.BulkResult, error) {
	if err := m.alive(ctx); err != nil {
		return nil, err
	}

	results := make([]connection.BulkResult, 0, len(refs))
	for _, ref := range refs {
		result := connection.BulkResult{ID: ref.ID}
		doc, ok := m.docs.Load(ref.ID)
		if ok && ref.Rev != "" {
			// Only the current revision is retained.
			if rev, _ := doc["_rev"].(string); rev != ref.Rev {
				ok = false
			}
		}
		if ok {
			result.Docs = []connection.BulkDoc{{OK: copyDoc(doc)}}
		} else {
			result.Docs = []connection.BulkDoc{{Error: &connection.BulkError{
				ID:     ref.ID,
				Rev:    ref.Rev,
				Err:    "not_found",
				Reason: "missing",
			}}}
		}
		results = append(results, result)
	}
	return results, nil
}

// Find evaluates a Mango-style selector over a full scan. Supported
// operators: $eq, $ne, $gt, $gte, $lt, $lte, $exists, $in; a bare value
// means $eq; multiple selector fields AND together. Field names may use
// dotted paths. A Limit of zero means unlimited.
func (m *Memory) Find(ctx context.Context, query connection.Query) (connection.FindResult, error) {
	if err := m.alive(ctx); err != nil {
		return connection.FindResult{}, err
	}

	var matched []map[string]any
	var matchErr error
	m.docs.Range(func(id string, doc map[string]any) bool {
		ok, err := matchSelector(doc, query.Selector)
		if err != nil {
			matchErr = err
			return false
		}
		if ok {
			matched = append(matched, doc)
		}
		return true
	})
	if matchErr != nil {
		return connection.FindResult{}, matchErr
	}

	if err := sortDocs(matched, query.Sort); err != nil {
		return connection.FindResult{}, err
	}

	if query.Skip > 0 {
		if query.Skip >= len(matched) {
			matched = nil
		} else {
			matched = matched[query.Skip:]
		}
	}
	if query.Limit > 0 && len(matched) > query.Limit {
		matched = matched[:query.Limit]
	}

	out := connection.FindResult{Docs: make([]map[string]any, 0, len(matched))}
	for _, doc := range matched {
		if len(query.Fields) > 0 {
			out.Docs = append(out.Docs, project(doc, query.Fields))
		} else {
			out.Docs = append(out.Docs, copyDoc(doc))
		}
	}
	if !m.indexCovers(query.Selector) {
		out.Warning = "no matching index found, create an index to optimize query time"
	}
	return out, nil
}

// indexCovers reports whether some registered index leads with one of
// the selector's fields. The scan itself never uses indexes; the check
// only feeds the advisory warning.
func (m *Memory) indexCovers(selector map[string]any) bool {
	if len(selector) == 0 {
		return true
	}
	covered := false
	m.indexes.Range(func(name string, fields []string) bool {
		if len(fields) > 0 {
			if _, ok := selector[fields[0]]; ok {
				covered = true
				return false
			}
		}
		return true
	})
	return covered
}

func indexName(fields []string) string {
	return "idx-" + strings.Join(fields, "-")
}

func matchSelector(doc, selector map[string]any) (bool, error) {
	for field, cond := range selector {
		val, present := lookup(doc, field)
		ops, isOps := operatorMap(cond)
		if !isOps {
			if !present || compare(val, cond) != 0 {
				return false, nil
			}
			continue
		}
		for op, operand := range ops {
			ok, err := applyOperator(op, val, present, operand)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
	}
	return true, nil
}

// operatorMap reports whether cond is a {"$op": operand, ...} map.
func operatorMap(cond any) (map[string]any, bool) {
	m, ok := cond.(map[string]any)
	if !ok || len(m) == 0 {
		return nil, false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return m, true
}

func applyOperator(op string, val any, present bool, operand any) (bool, error) {
	switch op {
	case "$exists":
		want, _ := operand.(bool)
		return present == want, nil
	case "$eq":
		return present && compare(val, operand) == 0, nil
	case "$ne":
		return !present || compare(val, operand) != 0, nil
	case "$gt":
		return present && ordered(val, operand) && compare(val, operand) > 0, nil
	case "$gte":
		return present && ordered(val, operand) && compare(val, operand) >= 0, nil
	case "$lt":
		return present && ordered(val, operand) && compare(val, operand) < 0, nil
	case "$lte":
		return present && ordered(val, operand) && compare(val, operand) <= 0, nil
	case "$in":
		list, ok := operand.([]any)
		if !ok {
			return false, fmt.Errorf("$in operand must be an array, got %T", operand)
		}
		if !present {
			return false, nil
		}
		for _, candidate := range list {
			if compare(val, candidate) == 0 {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("unsupported selector operator %q", op)
	}
}

// lookup resolves a possibly dotted field path against nested maps.
func lookup(doc map[string]any, path string) (any, bool) {
	cur := any(doc)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// project builds a document carrying only the named fields, recreating
// nested structure for dotted paths.
func project(doc map[string]any, fields []string) map[string]any {
	out := make(map[string]any, len(fields))
	for _, field := range fields {
		val, ok := lookup(doc, field)
		if !ok {
			continue
		}
		parts := strings.Split(field, ".")
		cur := out
		for _, part := range parts[:len(parts)-1] {
			next, ok := cur[part].(map[string]any)
			if !ok {
				next = make(map[string]any)
				cur[part] = next
			}
			cur = next
		}
		cur[parts[len(parts)-1]] = val
	}
	return out
}

func sortDocs(docs []map[string]any, keys []any) error {
	if len(keys) == 0 {
		return nil
	}
	type sortKey struct {
		field string
		desc  bool
	}
	parsed := make([]sortKey, 0, len(keys))
	for _, k := range keys {
		switch v := k.(type) {
		case string:
			parsed = append(parsed, sortKey{field: v})
		case map[string]any:
			for field, dir := range v {
				d, _ := dir.(string)
				parsed = append(parsed, sortKey{field: field, desc: d == "desc"})
			}
		case map[string]string:
			for field, dir := range v {
				parsed = append(parsed, sortKey{field: field, desc: dir == "desc"})
			}
		default:
			return fmt.Errorf("unsupported sort key %T", k)
		}
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, key := range parsed {
			a, _ := lookup(docs[i], key.field)
			b, _ := lookup(docs[j], key.field)
			c := compare(a, b)
			if c == 0 {
				continue
			}
			if key.desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return nil
}

// ordered reports whether a and b are of the same orderable kind, so
// that range operators can meaningfully rank them.
func ordered(a, b any) bool {
	if _, ok := toFloat(a); ok {
		_, ok2 := toFloat(b)
		return ok2
	}
	switch a.(type) {
	case string:
		_, ok := b.(string)
		return ok
	case bool:
		_, ok := b.(bool)
		return ok
	}
	return false
}

// compare orders two document values: -1, 0 or +1. Values of different
// kinds compare equal only via deep equality and otherwise order by
// kind, which keeps sorts stable without defining a full collation.
func compare(a, b any) int {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
		return -1
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return strings.Compare(as, bs)
		}
		if _, ok := toFloat(b); ok {
			return 1
		}
		return -1
	}
	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ab == bb:
				return 0
			case bb:
				return -1
			default:
				return 1
			}
		}
	}
	if equalValue(a, b) {
		return 0
	}
	return 1
}

func equalValue(a, b any) bool {
	return fmt.Sprintf("%#v", a) == fmt.Sprintf("%#v", b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
