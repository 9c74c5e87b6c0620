package couchbase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/couchbase/gocb/v2"

	"github.com/setteedb/settee/pkg/connection"
	"github.com/setteedb/settee/pkg/constants"
)

// keyspace renders the fully qualified `bucket`.`scope`.`collection`
// path used in N1QL statements.
func (c *Couchbase) keyspace() string {
	return fmt.Sprintf("`%s`.`%s`.`%s`", c.conf.Bucket, c.conf.Scope, c.conf.Collection)
}

func (c *Couchbase) AllDocs(ctx context.Context, includeDocs bool) ([]connection.Row, error) {
	if err := c.alive(ctx); err != nil {
		return nil, err
	}

	projection := "META(d).id AS id, d.`_rev` AS rev"
	if includeDocs {
		projection += ", d AS doc"
	}
	statement := fmt.Sprintf("SELECT %s FROM %s AS d ORDER BY META(d).id", projection, c.keyspace())

	res, err := c.cluster.Query(statement, &gocb.QueryOptions{Context: ctx})
	if err != nil {
		return nil, &connection.BackendError{Err: fmt.Errorf("all docs: %w", err)}
	}
	defer res.Close()

	var rows []connection.Row
	for res.Next() {
		var row struct {
			ID  string         `json:"id"`
			Rev string         `json:"rev"`
			Doc map[string]any `json:"doc,omitempty"`
		}
		if err := res.Row(&row); err != nil {
			return nil, &connection.BackendError{Err: fmt.Errorf("decode row: %w", err)}
		}
		rows = append(rows, connection.Row{
			ID:    row.ID,
			Key:   row.ID,
			Value: connection.RowValue{Rev: row.Rev},
			Doc:   row.Doc,
		})
	}
	if err := res.Err(); err != nil {
		return nil, &connection.BackendError{Err: fmt.Errorf("all docs: %w", err)}
	}
	return rows, nil
}

// Find translates the selector subset onto a parameterized N1QL
// statement. Projections of dotted paths come back flattened to their
// last segment, which is how N1QL aliases nested expressions.
func (c *Couchbase) Find(ctx context.Context, query connection.Query) (connection.FindResult, error) {
	if err := c.alive(ctx); err != nil {
		return connection.FindResult{}, err
	}

	projection := "d.*"
	if len(query.Fields) > 0 {
		cols := make([]string, len(query.Fields))
		for i, f := range query.Fields {
			cols[i] = fieldPath(f)
		}
		projection = strings.Join(cols, ", ")
	}

	statement := fmt.Sprintf("SELECT %s FROM %s AS d", projection, c.keyspace())
	where, params, err := whereClause(query.Selector)
	if err != nil {
		return connection.FindResult{}, err
	}
	if where != "" {
		statement += " WHERE " + where
	}
	orderBy, err := orderClause(query.Sort)
	if err != nil {
		return connection.FindResult{}, err
	}
	if orderBy != "" {
		statement += " ORDER BY " + orderBy
	}
	if query.Limit > 0 {
		statement += fmt.Sprintf(" LIMIT %d", query.Limit)
	}
	if query.Skip > 0 {
		statement += fmt.Sprintf(" OFFSET %d", query.Skip)
	}

	res, err := c.cluster.Query(statement, &gocb.QueryOptions{
		Context:         ctx,
		NamedParameters: params,
	})
	if err != nil {
		return connection.FindResult{}, &connection.BackendError{Err: fmt.Errorf("find: %w", err)}
	}
	defer res.Close()

	out := connection.FindResult{}
	for res.Next() {
		var doc map[string]any
		if err := res.Row(&doc); err != nil {
			return connection.FindResult{}, &connection.BackendError{Err: fmt.Errorf("decode row: %w", err)}
		}
		out.Docs = append(out.Docs, doc)
	}
	if err := res.Err(); err != nil {
		return connection.FindResult{}, &connection.BackendError{Err: fmt.Errorf("find: %w", err)}
	}
	return out, nil
}

// CreateIndex issues a CREATE INDEX statement over the given fields.
// The server's "index already exists" answer is surfaced as
// [constants.ErrIndexExists].
func (c *Couchbase) CreateIndex(ctx context.Context, fields []string) (connection.IndexResult, error) {
	if err := c.alive(ctx); err != nil {
		return connection.IndexResult{}, err
	}

	name := "idx-" + strings.Join(fields, "-")
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = fieldPath(f)
	}
	statement := fmt.Sprintf("CREATE INDEX `%s` ON %s(%s)",
		name, c.keyspace(), strings.Join(cols, ", "))

	res, err := c.cluster.Query(statement, &gocb.QueryOptions{Context: ctx})
	if err != nil {
		if errors.Is(err, gocb.ErrIndexExists) {
			return connection.IndexResult{}, fmt.Errorf("%q: %w", name, constants.ErrIndexExists)
		}
		return connection.IndexResult{}, &connection.BackendError{Err: fmt.Errorf("create index: %w", err)}
	}
	if err := res.Close(); err != nil {
		return connection.IndexResult{}, &connection.BackendError{Err: fmt.Errorf("create index: %w", err)}
	}
	return connection.IndexResult{Result: "created", ID: "_design/" + name, Name: name}, nil
}

// fieldPath renders a possibly dotted field as a backticked N1QL path
// rooted at the d alias.
func fieldPath(field string) string {
	parts := strings.Split(field, ".")
	for i, p := range parts {
		parts[i] = "`" + strings.ReplaceAll(p, "`", "") + "`"
	}
	return "d." + strings.Join(parts, ".")
}

// whereClause builds a deterministic conjunction from the selector.
// Fields are emitted in sorted order and operands travel as named
// parameters, never inlined.
func whereClause(selector map[string]any) (string, map[string]any, error) {
	if len(selector) == 0 {
		return "", nil, nil
	}

	fields := make([]string, 0, len(selector))
	for f := range selector {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var (
		conjuncts []string
		params    = make(map[string]any)
		n         int
	)
	bind := func(v any) string {
		name := fmt.Sprintf("p%d", n)
		n++
		params[name] = v
		return "$" + name
	}

	for _, field := range fields {
		cond := selector[field]
		path := fieldPath(field)

		ops, isOps := operatorMap(cond)
		if !isOps {
			conjuncts = append(conjuncts, fmt.Sprintf("%s = %s", path, bind(cond)))
			continue
		}

		opNames := make([]string, 0, len(ops))
		for op := range ops {
			opNames = append(opNames, op)
		}
		sort.Strings(opNames)

		for _, op := range opNames {
			operand := ops[op]
			switch op {
			case "$eq":
				conjuncts = append(conjuncts, fmt.Sprintf("%s = %s", path, bind(operand)))
			case "$ne":
				conjuncts = append(conjuncts, fmt.Sprintf("%s != %s", path, bind(operand)))
			case "$gt":
				conjuncts = append(conjuncts, fmt.Sprintf("%s > %s", path, bind(operand)))
			case "$gte":
				conjuncts = append(conjuncts, fmt.Sprintf("%s >= %s", path, bind(operand)))
			case "$lt":
				conjuncts = append(conjuncts, fmt.Sprintf("%s < %s", path, bind(operand)))
			case "$lte":
				conjuncts = append(conjuncts, fmt.Sprintf("%s <= %s", path, bind(operand)))
			case "$exists":
				want, _ := operand.(bool)
				if want {
					conjuncts = append(conjuncts, path+" IS VALUED")
				} else {
					conjuncts = append(conjuncts, path+" IS NOT VALUED")
				}
			case "$in":
				list, ok := operand.([]any)
				if !ok {
					return "", nil, fmt.Errorf("$in operand must be an array, got %T", operand)
				}
				conjuncts = append(conjuncts, fmt.Sprintf("%s IN %s", path, bind(list)))
			default:
				return "", nil, fmt.Errorf("unsupported selector operator %q", op)
			}
		}
	}
	return strings.Join(conjuncts, " AND "), params, nil
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

// orderClause renders the sort list as an ORDER BY body.
func orderClause(keys []any) (string, error) {
	if len(keys) == 0 {
		return "", nil
	}
	var parts []string
	for _, k := range keys {
		switch v := k.(type) {
		case string:
			parts = append(parts, fieldPath(v))
		case map[string]any:
			for field, dir := range v {
				d, _ := dir.(string)
				if d == "desc" {
					parts = append(parts, fieldPath(field)+" DESC")
				} else {
					parts = append(parts, fieldPath(field))
				}
			}
		case map[string]string:
			for field, dir := range v {
				if dir == "desc" {
					parts = append(parts, fieldPath(field)+" DESC")
				} else {
					parts = append(parts, fieldPath(field))
				}
			}
		default:
			return "", fmt.Errorf("unsupported sort key %T", k)
		}
	}
	return strings.Join(parts, ", "), nil
}
