package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Report flattens an error chain into log fields. Postgres errors from either
// driver contribute their SQLSTATE and the offending relation.
type Report struct {
	Message    string
	Code       Code
	Chain      []string
	PGCode     string
	Constraint string
	Table      string
	Column     string
	Detail     string
}

func Inspect(err error) Report {
	if err == nil {
		return Report{}
	}
	r := Report{Message: err.Error(), Code: CodeInternal}
	if typed := As(err); typed != nil {
		r.Code = typed.Code()
	}
	for e := err; e != nil; e = stdErrors.Unwrap(e) {
		r.Chain = append(r.Chain, fmt.Sprintf("%T", e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case stdErrors.As(err, &pgxErr):
		r.PGCode, r.Constraint, r.Table, r.Column, r.Detail =
			pgxErr.Code, pgxErr.ConstraintName, pgxErr.TableName, pgxErr.ColumnName, pgxErr.Detail
	case stdErrors.As(err, &pqErr):
		r.PGCode, r.Constraint, r.Table, r.Column, r.Detail =
			string(pqErr.Code), pqErr.Constraint, pqErr.Table, pqErr.Column, pqErr.Detail
	}
	return r
}

// Fields returns only the populated parts of r.
func (r Report) Fields() map[string]any {
	fields := map[string]any{
		"error_code":  string(r.Code),
		"error_chain": r.Chain,
	}
	for k, v := range map[string]string{
		"pg_code":       r.PGCode,
		"pg_constraint": r.Constraint,
		"pg_table":      r.Table,
		"pg_column":     r.Column,
		"pg_detail":     r.Detail,
	} {
		if v != "" {
			fields[k] = v
		}
	}
	return fields
}
