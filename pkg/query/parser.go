package query

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"triedb/pkg/common"
)

var ErrSyntax = errors.New("syntax: expected SELECT * FROM <field> [WHERE value <op> <num> [AND value <op> <num>] | WHERE value BETWEEN <num> AND <num>] [LIMIT <n>]")

var (
	selectRe  = regexp.MustCompile(`(?i)^SELECT\s+\*\s+FROM\s+([a-zA-Z_][a-zA-Z0-9_.]*)(?:\s+WHERE\s+(.+?))?(?:\s+LIMIT\s+(\d+))?$`)
	betweenRe = regexp.MustCompile(`(?i)^value\s+BETWEEN\s+(\S+)\s+AND\s+(\S+)$`)
	condRe    = regexp.MustCompile(`(?i)^value\s*(>=|<=|=|>|<)\s*(\S+)$`)
	andRe     = regexp.MustCompile(`(?i)\s+AND\s+`)
)

// Cond is one comparison against the field value; Num is kept as text until
// the field kind is known.
type Cond struct {
	Op  string
	Num string
}

// Stmt represents a parsed range query.
type Stmt struct {
	Field string
	Conds []Cond
	Limit int
}

// Parse parses:
// "SELECT * FROM price"
// "SELECT * FROM price WHERE value >= 10"
// "SELECT * FROM price WHERE value > 10 AND value <= 99.5 LIMIT 5"
// "SELECT * FROM price WHERE value BETWEEN -5 AND 5"
func Parse(s string) (*Stmt, error) {
	orig := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ";"))
	if orig == "" {
		return nil, fmt.Errorf("%w: empty query", ErrSyntax)
	}

	matches := selectRe.FindStringSubmatch(orig)
	if matches == nil {
		return nil, ErrSyntax
	}

	stmt := &Stmt{
		Field: matches[1],
		Limit: -1,
	}

	if where := strings.TrimSpace(matches[2]); where != "" {
		if m := betweenRe.FindStringSubmatch(where); m != nil {
			stmt.Conds = []Cond{{Op: ">=", Num: m[1]}, {Op: "<=", Num: m[2]}}
		} else {
			for _, part := range andRe.Split(where, -1) {
				m := condRe.FindStringSubmatch(strings.TrimSpace(part))
				if m == nil {
					return nil, fmt.Errorf("%w: bad condition %q", ErrSyntax, part)
				}
				stmt.Conds = append(stmt.Conds, Cond{Op: m[1], Num: m[2]})
			}
		}
	}

	if matches[3] != "" {
		limit, err := strconv.Atoi(matches[3])
		if err != nil {
			return nil, fmt.Errorf("%w: invalid LIMIT value", ErrSyntax)
		}
		stmt.Limit = limit
	}

	return stmt, nil
}

// domain returns the smallest and largest sortable integers of kind.
func domain(kind common.Kind) (int64, int64) {
	if kind.Width() == 32 {
		return math.MinInt32, math.MaxInt32
	}
	return math.MinInt64, math.MaxInt64
}

// Bounds folds the conditions into one inclusive range of the given kind.
// Strict comparisons step to the neighbouring sortable integer, which for
// floats is the next representable value. Contradicting conditions give an
// inverted range, which matches nothing.
func (stmt *Stmt) Bounds(kind common.Kind) (lower, upper common.Value, err error) {
	lo, hi := domain(kind)
	minBits, maxBits := lo, hi
	empty := false

	for _, c := range stmt.Conds {
		v, err := common.ParseValue(kind, c.Num)
		if err != nil {
			return common.Value{}, common.Value{}, err
		}
		b := v.Bits

		switch c.Op {
		case "=":
			lo, hi = max(lo, b), min(hi, b)
		case ">=":
			lo = max(lo, b)
		case "<=":
			hi = min(hi, b)
		case ">":
			if b == maxBits {
				empty = true
			} else {
				lo = max(lo, b+1)
			}
		case "<":
			if b == minBits {
				empty = true
			} else {
				hi = min(hi, b-1)
			}
		default:
			return common.Value{}, common.Value{}, fmt.Errorf("%w: operator %q", ErrSyntax, c.Op)
		}
	}

	if empty {
		lo, hi = maxBits, minBits
	}
	return common.Value{Kind: kind, Bits: lo}, common.Value{Kind: kind, Bits: hi}, nil
}

// Apply truncates docs to the statement's LIMIT.
func (stmt *Stmt) Apply(docs []common.DocID) []common.DocID {
	if stmt.Limit >= 0 && len(docs) > stmt.Limit {
		return docs[:stmt.Limit]
	}
	return docs
}
