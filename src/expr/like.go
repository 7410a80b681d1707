package expr

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kokes/vecdb/src/chunk"
	"github.com/kokes/vecdb/src/execctx"
	"github.com/kokes/vecdb/src/execerr"
	"github.com/kokes/vecdb/src/types"
	"github.com/kokes/vecdb/src/vector"
)

// LikeMode selects which of LIKE/ILIKE/regexp-match a Like expression runs,
// grounded on original_source's separate evaluate_like/evaluate_ilike/
// evaluate_regexp_match (src/expression/operator.rs) unified into one
// variant here since they differ only in pattern translation.
type LikeMode int

const (
	LikeCaseSensitive LikeMode = iota
	LikeCaseInsensitive
	LikeRegexp
)

// Like implements LIKE/ILIKE/~ : `%` translates to `.*`, `_` to `.`, then a
// regex match; `~` is used directly as a regex (spec.md §4.1).
type Like struct {
	Operand Expr
	Pattern Expr
	Mode    LikeMode
}

func (l Like) String() string {
	op := "LIKE"
	switch l.Mode {
	case LikeCaseInsensitive:
		op = "ILIKE"
	case LikeRegexp:
		op = "~"
	}
	return fmt.Sprintf("(%s %s %s)", l.Operand, op, l.Pattern)
}

func (l Like) ReturnType(chunk.Schema) (types.LogicalType, error) { return types.TBoolean, nil }

func (l Like) Evaluate(ctx *execctx.Context, c *chunk.DataChunk) (*vector.Vector, error) {
	vecs, err := evaluateChildren(ctx, c, l.Operand, l.Pattern)
	if err != nil {
		return nil, err
	}
	lv, pv := vecs[0], vecs[1]
	out := vector.New(types.TBoolean, c.Count())
	// cache compiled regexes by pattern text; typical plans use a constant
	// pattern, so the common case compiles exactly once.
	compiled := make(map[string]*regexp.Regexp)
	for i := 0; i < c.Count(); i++ {
		lval, pval := lv.GetValue(i), pv.GetValue(i)
		if lval.IsNull || pval.IsNull {
			out.Append(types.NewNull(types.TBoolean))
			continue
		}
		if lval.Type.ID != types.Varchar && lval.Type.ID != types.Char {
			return nil, execerr.Typef("LIKE requires a string operand, got %s", lval.Type)
		}
		re, ok := compiled[pval.Text()]
		if !ok {
			re, err = l.compile(pval.Text())
			if err != nil {
				return nil, err
			}
			compiled[pval.Text()] = re
		}
		subject := lval.Text()
		if l.Mode == LikeCaseInsensitive {
			subject = strings.ToLower(subject)
		}
		out.Append(types.NewBool(re.MatchString(subject)))
	}
	return out, nil
}

func (l Like) compile(pattern string) (*regexp.Regexp, error) {
	src := pattern
	switch l.Mode {
	case LikeCaseSensitive:
		src = translateLikePattern(pattern)
	case LikeCaseInsensitive:
		src = translateLikePattern(strings.ToLower(pattern))
	case LikeRegexp:
		src = pattern
	}
	re, err := regexp.Compile("^(?:" + src + ")$")
	if l.Mode == LikeRegexp {
		re, err = regexp.Compile(src)
	}
	if err != nil {
		return nil, execerr.Executionf("invalid pattern %q: %s", pattern, err)
	}
	return re, nil
}

// translateLikePattern converts SQL LIKE wildcards to a regex body, escaping
// every other regex metacharacter so literal characters in the pattern
// match themselves.
func translateLikePattern(pattern string) string {
	var b strings.Builder
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteByte('.')
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return b.String()
}
