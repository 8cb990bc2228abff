package workflow

import "strings"

// EvaluateCondition decides whether a step should run. Variable references
// are substituted first, then the expression is interpreted as either an
// equality test ("$env == prod", "$count != 0") or a bare truthiness check
// ("true", "$flag"). An empty expression is always true.
//
// The evaluator is deliberately tiny: no scripting, no nesting, no side
// effects. Unknown variables substitute to "" like everywhere else.
func EvaluateCondition(expr string, snapshot map[string]string) bool {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return true
	}
	expr = Substitute(expr, snapshot)

	if left, right, ok := splitOperator(expr, "!="); ok {
		return unquote(left) != unquote(right)
	}
	if left, right, ok := splitOperator(expr, "=="); ok {
		return unquote(left) == unquote(right)
	}

	value := strings.ToLower(strings.TrimSpace(expr))
	switch value {
	case "", "false", "0":
		return false
	case "true", "1":
		return true
	}
	// Any other non-empty literal is truthy, matching permissive
	// substitution semantics for bare "$flag" conditions.
	return true
}

func splitOperator(expr, op string) (left, right string, ok bool) {
	idx := strings.Index(expr, op)
	if idx < 0 {
		return "", "", false
	}
	return expr[:idx], expr[idx+len(op):], true
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
