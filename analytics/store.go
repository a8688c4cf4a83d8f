// Package analytics implements the SQL query layer behind the dashboard,
// session, user, error, feedback, and leaderboard endpoints: parameterized
// query assembly and pagination over the relational store.
package analytics

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/sirupsen/logrus"
)

// Store provides analytics reads and feedback writes against the telemetry
// schema.
type Store struct {
	pg     *pgxpool.Pool
	jobs   *river.Client[pgx.Tx]
	schema string
	log    *logrus.Entry
}

// NewStore builds a Store on the given pool. jobs may be nil (feedback is
// then persisted without enqueuing a background job). schema defaults to
// "telemetry".
func NewStore(pg *pgxpool.Pool, jobs *river.Client[pgx.Tx], schema string, log *logrus.Entry) *Store {
	s := strings.TrimSpace(schema)
	if s == "" {
		s = "telemetry"
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Store{pg: pg, jobs: jobs, schema: s, log: log}
}

func (s *Store) table(name string) string { return s.schema + "." + name }

// cond accumulates parameterized WHERE clauses with positional arguments.
type cond struct {
	clauses []string
	args    []any
}

func (c *cond) add(expr string, arg any) {
	c.args = append(c.args, arg)
	c.clauses = append(c.clauses, fmt.Sprintf(expr, len(c.args)))
}

func (c *cond) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

func itoa(n int) string { return strconv.Itoa(n) }
