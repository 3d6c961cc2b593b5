package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/fatih/structs"
)

// A Selection picks rows out of one table.
type Selection struct {
	// Where is an SQL condition over the column names, with ? placeholders
	// bound to Args.
	Where string
	Args  []any

	// OrderBy is a comma separated list of columns, each optionally
	// followed by ASC or DESC.
	OrderBy string

	// Limit caps the number of rows. Zero returns all of them.
	Limit  int
	Offset int
}

// A Page is the result of a selection. Rows are pointers to the struct
// registered for the table. Total counts the matching rows ignoring Limit
// and Offset.
type Page struct {
	Columns []string
	Rows    []any
	Total   int
}

// Reader reads back a recording. Tables must be registered with the row
// type they were written with before they can be selected from.
type Reader struct {
	db    *sql.DB
	types map[string]reflect.Type
}

// Open opens an existing recording file.
func Open(filename string) (*Reader, error) {
	if _, err := os.Stat(filename); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, err
	}

	return OpenDB(db), nil
}

// OpenDB reads from an already opened database.
func OpenDB(db *sql.DB) *Reader {
	return &Reader{
		db:    db,
		types: make(map[string]reflect.Type),
	}
}

// Register tells the reader which struct the rows of a table decode into.
func (r *Reader) Register(tableName string, sampleEntry any) error {
	if err := checkStructFields(sampleEntry); err != nil {
		return err
	}

	r.types[tableName] = reflect.TypeOf(sampleEntry)

	return nil
}

// Tables returns the tables present in the file, registered or not.
func (r *Reader) Tables(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}

		names = append(names, name)
	}

	return names, rows.Err()
}

// Select runs a selection on a registered table.
func (r *Reader) Select(
	ctx context.Context,
	tableName string,
	sel Selection,
) (Page, error) {
	rowType, ok := r.types[tableName]
	if !ok {
		return Page{}, fmt.Errorf("table %s is not registered", tableName)
	}

	columns := structs.Names(reflect.New(rowType).Elem().Interface())

	order, err := orderClause(sel.OrderBy, columns)
	if err != nil {
		return Page{}, err
	}

	filter := ""
	if sel.Where != "" {
		filter = " WHERE " + sel.Where
	}

	page := Page{Columns: columns}

	err = r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+tableName+filter, sel.Args...).
		Scan(&page.Total)
	if err != nil {
		return Page{}, err
	}

	query := "SELECT " + strings.Join(columns, ", ") +
		" FROM " + tableName + filter + order

	switch {
	case sel.Limit > 0:
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", sel.Limit, sel.Offset)
	case sel.Offset > 0:
		query += fmt.Sprintf(" LIMIT -1 OFFSET %d", sel.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, sel.Args...)
	if err != nil {
		return Page{}, err
	}
	defer rows.Close()

	for rows.Next() {
		ptr := reflect.New(rowType)
		v := ptr.Elem()

		targets := make([]any, v.NumField())
		for i := range targets {
			targets[i] = v.Field(i).Addr().Interface()
		}

		if err := rows.Scan(targets...); err != nil {
			return Page{}, err
		}

		page.Rows = append(page.Rows, ptr.Interface())
	}

	return page, rows.Err()
}

// Close closes the file.
func (r *Reader) Close() error {
	return r.db.Close()
}

// orderClause only lets known columns through so that OrderBy cannot carry
// arbitrary SQL.
func orderClause(orderBy string, columns []string) (string, error) {
	if strings.TrimSpace(orderBy) == "" {
		return "", nil
	}

	terms := strings.Split(orderBy, ",")
	for i, term := range terms {
		parts := strings.Fields(term)
		if len(parts) == 0 || len(parts) > 2 {
			return "", fmt.Errorf("invalid order term %q", term)
		}

		if !slices.Contains(columns, parts[0]) {
			return "", fmt.Errorf("unknown column %q", parts[0])
		}

		if len(parts) == 2 {
			dir := strings.ToUpper(parts[1])
			if dir != "ASC" && dir != "DESC" {
				return "", fmt.Errorf("invalid order direction %q", parts[1])
			}

			parts[1] = dir
		}

		terms[i] = strings.Join(parts, " ")
	}

	return " ORDER BY " + strings.Join(terms, ", "), nil
}
