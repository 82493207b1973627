package catalog

import (
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/ewaste-depot/cpu-catalog/internal/model"
)

// Filter is a conjunction of row predicates over the catalog table. Zero
// fields do not constrain anything.
type Filter struct {
	Brand          model.Brand
	Families       []string   // family IN (...)
	NotFamilies    []string   // family NOT IN (...)
	FamilyPrefix   string     // family starts with, case-insensitive
	Generations    []string   // generation IN (...)
	ModelLike      string     // model matches a LIKE pattern, case-insensitive
	ModelNotLike   string     // model does not match a LIKE pattern
	ReleasedBefore *time.Time // release_date is known and earlier than this
}

// IsEmpty reports whether the filter matches every row.
func (f Filter) IsEmpty() bool {
	return f.Brand == "" &&
		len(f.Families) == 0 &&
		len(f.NotFamilies) == 0 &&
		f.FamilyPrefix == "" &&
		len(f.Generations) == 0 &&
		f.ModelLike == "" &&
		f.ModelNotLike == "" &&
		f.ReleasedBefore == nil
}

// dialect holds what differs between the SQL backends.
type dialect struct {
	placeholder sq.PlaceholderFormat
	like        func(col, pattern string) sq.Sqlizer
	notLike     func(col, pattern string) sq.Sqlizer
	date        func(t time.Time) any
}

var postgresDialect = dialect{
	placeholder: sq.Dollar,
	like:        func(col, p string) sq.Sqlizer { return sq.ILike{col: p} },
	notLike:     func(col, p string) sq.Sqlizer { return sq.NotILike{col: p} },
	date:        func(t time.Time) any { return t },
}

// SQLite LIKE is already case-insensitive for ASCII and dates are stored
// as ISO-8601 text, which orders correctly as strings.
var sqliteDialect = dialect{
	placeholder: sq.Question,
	like:        func(col, p string) sq.Sqlizer { return sq.Like{col: p} },
	notLike:     func(col, p string) sq.Sqlizer { return sq.NotLike{col: p} },
	date:        func(t time.Time) any { return t.Format(time.DateOnly) },
}

func (f Filter) where(d dialect) sq.And {
	var and sq.And
	if f.Brand != "" {
		and = append(and, sq.Eq{"brand": string(f.Brand)})
	}
	if len(f.Families) > 0 {
		and = append(and, sq.Eq{"family": f.Families})
	}
	if len(f.NotFamilies) > 0 {
		and = append(and, sq.NotEq{"family": f.NotFamilies})
	}
	if f.FamilyPrefix != "" {
		and = append(and, d.like("family", f.FamilyPrefix+"%"))
	}
	if len(f.Generations) > 0 {
		and = append(and, sq.Eq{"generation": f.Generations})
	}
	if f.ModelLike != "" {
		and = append(and, d.like("model", f.ModelLike))
	}
	if f.ModelNotLike != "" {
		and = append(and, d.notLike("model", f.ModelNotLike))
	}
	if f.ReleasedBefore != nil {
		and = append(and,
			sq.NotEq{"release_date": nil},
			sq.Lt{"release_date": d.date(*f.ReleasedBefore)},
		)
	}
	return and
}

func deleteQuery(f Filter, d dialect) (string, []any, error) {
	if f.IsEmpty() {
		return "", nil, ErrUnboundedDelete
	}
	return sq.Delete(Table).
		Where(f.where(d)).
		Suffix("RETURNING id").
		PlaceholderFormat(d.placeholder).
		ToSql()
}

func countQuery(f Filter, d dialect) (string, []any, error) {
	q := sq.Select("COUNT(*)").From(Table)
	if !f.IsEmpty() {
		q = q.Where(f.where(d))
	}
	return q.PlaceholderFormat(d.placeholder).ToSql()
}

func existingQuery(brand model.Brand, limit int, d dialect) (string, []any, error) {
	return sq.Select("brand", "model").
		From(Table).
		Where(sq.Eq{"brand": string(brand)}).
		Limit(uint64(limit)).
		PlaceholderFormat(d.placeholder).
		ToSql()
}

func coverageQuery() (string, []any, error) {
	return sq.Select("brand", "COUNT(*)", "COUNT(DISTINCT family)").
		From(Table).
		GroupBy("brand").
		OrderBy("brand").
		ToSql()
}
