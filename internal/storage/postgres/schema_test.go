package postgres

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookease/marketplace/db"
)

// --- Helpers ---

var (
	createTableRE = regexp.MustCompile(`(?s)CREATE TABLE IF NOT EXISTS (\w+) \((.+?)\n\);`)
	insertRE      = regexp.MustCompile(`INSERT INTO (\w+) \(([^)]+)\)`)
	setColumnRE   = regexp.MustCompile(`(\w+) =`)
)

// ddlColumns parses the embedded schema into table name -> column set.
func ddlColumns(t *testing.T) map[string]map[string]bool {
	t.Helper()

	tables := make(map[string]map[string]bool)
	for _, m := range createTableRE.FindAllStringSubmatch(db.Schema, -1) {
		cols := make(map[string]bool)
		for _, line := range strings.Split(m[2], "\n") {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				continue
			}
			switch fields[0] {
			case "PRIMARY", "FOREIGN", "UNIQUE", "CHECK":
				continue
			}
			cols[fields[0]] = true
		}
		tables[m[1]] = cols
	}
	require.NotEmpty(t, tables)
	return tables
}

// squash collapses a statement's whitespace so the regexes can work on
// a single line.
func squash(stmt string) string {
	return strings.Join(strings.Fields(stmt), " ")
}

func requireColumns(t *testing.T, tables map[string]map[string]bool, table, list string) {
	t.Helper()

	cols, ok := tables[table]
	require.True(t, ok, "table %s not defined in schema", table)
	for _, c := range strings.Split(list, ",") {
		c = strings.TrimSpace(c)
		assert.True(t, cols[c], "column %s.%s not defined in schema", table, c)
	}
}

// --- Tests ---

// TestStatementsMatchSchema cross-checks the column references of every
// statement constant in this package against the embedded DDL, so a
// renamed or dropped column surfaces here instead of as a runtime
// "column does not exist".
func TestStatementsMatchSchema(t *testing.T) {
	tables := ddlColumns(t)

	t.Run("select lists", func(t *testing.T) {
		requireColumns(t, tables, "users", userColumns)
		requireColumns(t, tables, "books", bookColumns)
		requireColumns(t, tables, "cart_items", cartColumns)
		requireColumns(t, tables, "orders", orderColumns)
		requireColumns(t, tables, "reviews", reviewColumns)
		requireColumns(t, tables, "wishlist_items", "id, user_id, book_id, created_at")
	})

	t.Run("insert column lists", func(t *testing.T) {
		inserts := []string{
			createUserSQL,
			createBookSQL,
			upsertCartItemSQL,
			createOrderSQL,
			createReviewSQL,
			createWishlistItemSQL,
		}
		for _, stmt := range inserts {
			m := insertRE.FindStringSubmatch(squash(stmt))
			require.NotNil(t, m, "no INSERT column list in %q", stmt)
			requireColumns(t, tables, m[1], m[2])
		}
	})

	t.Run("update set columns", func(t *testing.T) {
		updates := map[string][]string{
			"users":      {updateUserSQL, updateProfileSQL},
			"books":      {updateBookSQL, deactivateBookSQL, updateRatingSQL, decrementStockSQL},
			"cart_items": {setCartQuantitySQL},
			"orders":     {updateOrderStatusSQL},
			"reviews":    {approveReviewSQL},
		}
		for table, stmts := range updates {
			for _, stmt := range stmts {
				clause := squash(stmt)
				_, clause, ok := strings.Cut(clause, " SET ")
				require.True(t, ok, "no SET clause in %q", stmt)
				if before, _, ok := strings.Cut(clause, " WHERE "); ok {
					clause = before
				}
				for _, m := range setColumnRE.FindAllStringSubmatch(clause, -1) {
					requireColumns(t, tables, table, m[1])
				}
			}
		}
	})
}
