// Package boiledrepos implements the domain repositories on PostgreSQL.
// Listings are composed with the sqlboiler query builder, rows are scanned and written with sqlx.
package boiledrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/sqlboiler/v4/drivers"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"

	"github.com/Jaimin17/Zenith-School-Backend/core"
	"github.com/Jaimin17/Zenith-School-Backend/core/attendance"
	"github.com/Jaimin17/Zenith-School-Backend/core/lesson"
	"github.com/Jaimin17/Zenith-School-Backend/core/school"
	"github.com/Jaimin17/Zenith-School-Backend/core/user"
)

var dialect = drivers.Dialect{
	LQ:                   '"',
	RQ:                   '"',
	UseIndexPlaceholders: true,
	UseDefaultKeyword:    true,
}

var notDeleted = qm.Where("NOT is_delete")

type Repository struct {
	exec core.DBExecutor
}

var (
	// interface compliance checks
	_ user.Repository       = (*Repository)(nil)
	_ school.Repository     = (*Repository)(nil)
	_ lesson.Repository     = (*Repository)(nil)
	_ attendance.Repository = (*Repository)(nil)
)

func NewRepository(exec core.DBExecutor) *Repository {
	return &Repository{exec: exec}
}

func (repo *Repository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

// trapNoRowsErr maps psql "no rows" err to notFound
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// isUUID guards the lookups by id: postgres rejects malformed uuids with an error instead of no rows.
func isUUID(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}

func newQuery(from string, mods ...qm.QueryMod) *queries.Query {
	q := &queries.Query{}
	queries.SetDialect(q, &dialect)
	queries.SetFrom(q, from)
	qm.Apply(q, mods...)
	return q
}

func count(ctx context.Context, exec core.DBExecutor, from string, mods ...qm.QueryMod) (int64, error) {
	q := newQuery(from, mods...)
	queries.SetSelect(q, nil)
	queries.SetCount(q)
	var n int64
	if err := q.QueryRowContext(ctx, exec).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func exists(ctx context.Context, exec core.DBExecutor, from string, mods ...qm.QueryMod) (bool, error) {
	n, err := count(ctx, exec, from, mods...)
	return n > 0, err
}

func selectAll(ctx context.Context, exec core.DBExecutor, dest interface{}, from string, mods ...qm.QueryMod) error {
	query, args := queries.BuildQuery(newQuery(from, mods...))
	return sqlx.SelectContext(ctx, exec, dest, query, args...)
}

func selectOne(ctx context.Context, exec core.DBExecutor, dest interface{}, from string, mods ...qm.QueryMod) error {
	mods = append(mods, qm.Limit(1))
	query, args := queries.BuildQuery(newQuery(from, mods...))
	return sqlx.GetContext(ctx, exec, dest, query, args...)
}

// page counts the rows matched by mods, then loads one page of them into dest.
func page(ctx context.Context, exec core.DBExecutor, dest interface{}, from string, pq core.PageQuery, ordering []core.DBOrdering, defaultOrder string, limit int, mods ...qm.QueryMod) (int64, error) {
	total, err := count(ctx, exec, from, mods...)
	if err != nil {
		return 0, err
	}
	pageMods := append(append([]qm.QueryMod{}, mods...), orderBy(ordering, defaultOrder))
	if limit > 0 {
		pageMods = append(pageMods, qm.Limit(limit), qm.Offset(pq.Offset(limit)))
	}
	if err = selectAll(ctx, exec, dest, from, pageMods...); err != nil {
		return 0, err
	}
	return total, nil
}

// orderBy always ends with "id ASC" so that pages are stable.
func orderBy(ordering []core.DBOrdering, defaultOrder string) qm.QueryMod {
	orderList := make([]string, 0, len(ordering)+2)
	for _, ord := range ordering {
		orderList = append(orderList, ord.String())
	}
	if len(orderList) == 0 && defaultOrder != "" {
		orderList = append(orderList, defaultOrder)
	}
	orderList = append(orderList, "id ASC")
	return qm.OrderBy(strings.Join(orderList, ", "))
}

// searchMod matches the search pattern against any of columns.
func searchMod(pq core.PageQuery, columns ...string) []qm.QueryMod {
	if pq.Search == "" || len(columns) == 0 {
		return nil
	}
	pattern := pq.SearchPattern()
	clauses := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		clauses[i] = col + " ILIKE ?"
		args[i] = pattern
	}
	return []qm.QueryMod{qm.Where("("+strings.Join(clauses, " OR ")+")", args...)}
}

// softDelete flags the active rows matched by mods and returns how many were flagged.
func softDelete(ctx context.Context, exec core.DBExecutor, from string, mods ...qm.QueryMod) (int64, error) {
	mods = append(mods, notDeleted)
	q := newQuery(from, mods...)
	queries.SetUpdate(q, map[string]interface{}{"is_delete": true})
	res, err := q.ExecContext(ctx, exec)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// update sets cols on the rows matched by mods.
func update(ctx context.Context, exec core.DBExecutor, from string, cols map[string]interface{}, mods ...qm.QueryMod) (int64, error) {
	q := newQuery(from, mods...)
	queries.SetUpdate(q, cols)
	res, err := q.ExecContext(ctx, exec)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// namedExec runs a named statement bound from arg's db tags.
func namedExec(ctx context.Context, exec core.DBExecutor, query string, arg interface{}) (int64, error) {
	res, err := sqlx.NamedExecContext(ctx, exec, query, arg)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func activeByID(id string) []qm.QueryMod {
	return []qm.QueryMod{qm.Where("id = ?", id), notDeleted}
}

// idMod filters on a caller-supplied id. A malformed id matches nothing.
func idMod(clause, id string) qm.QueryMod {
	if !isUUID(id) {
		return qm.Where("false")
	}
	args := make([]interface{}, strings.Count(clause, "?"))
	for i := range args {
		args[i] = id
	}
	return qm.Where(clause, args...)
}

func toArgs(ids []string) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
