package security

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/chainsight/chainsight/internal/schema"
	"github.com/chainsight/chainsight/internal/sqlgen"
)

type Verdict string

const (
	VerdictAccept Verdict = "ACCEPT"
	VerdictReject Verdict = "REJECT"
)

type RejectReason string

const (
	ReasonEmptyStatement          RejectReason = "EMPTY_STATEMENT"
	ReasonMultipleStatements      RejectReason = "MULTIPLE_STATEMENTS"
	ReasonOperationNotWhitelisted RejectReason = "OPERATION_NOT_WHITELISTED"
	ReasonUnknownIdentifier       RejectReason = "UNKNOWN_IDENTIFIER"
	ReasonInlineLiteral           RejectReason = "INLINE_LITERAL"
	ReasonParameterMismatch       RejectReason = "PARAMETER_MISMATCH"
	ReasonTooComplex              RejectReason = "TOO_COMPLEX"
)

// ValidationResult is the gate's verdict. On ACCEPT the sanitized statement
// plus its ordered parameters are the only thing allowed to reach the store.
type ValidationResult struct {
	Verdict           Verdict
	Reason            RejectReason
	Detail            string
	SanitizedSQL      string
	Params            []interface{}
	EffectiveRowLimit int
}

// forbiddenKeywords rejects any data- or schema-modifying operation anywhere
// in the statement, not just at the start.
var forbiddenKeywords = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|DROP|ALTER|CREATE|TRUNCATE|REPLACE|MERGE|GRANT|REVOKE|EXEC|EXECUTE|CALL|ATTACH|DETACH|PRAGMA|VACUUM|REINDEX|COPY|SET|LOCK)\b`)

// allowedKeywords are SQL words the identifier check skips.
var allowedKeywords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "JOIN": true,
	"INNER": true, "LEFT": true, "RIGHT": true, "OUTER": true,
	"FULL": true, "CROSS": true, "ON": true, "AND": true, "OR": true,
	"NOT": true, "IN": true, "EXISTS": true, "BETWEEN": true,
	"LIKE": true, "IS": true, "NULL": true, "ORDER": true, "BY": true,
	"GROUP": true, "HAVING": true, "LIMIT": true, "OFFSET": true,
	"ASC": true, "DESC": true, "DISTINCT": true, "AS": true,
	"WITH": true, "CASE": true, "WHEN": true, "THEN": true,
	"ELSE": true, "END": true, "UNION": true, "ALL": true,
	"COUNT": true, "SUM": true, "AVG": true, "MIN": true, "MAX": true,
	"ROUND": true, "CAST": true, "COALESCE": true, "NULLIF": true,
	"INTEGER": true, "TEXT": true, "REAL": true,
}

var (
	identTokenRe  = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
	limitLitRe    = regexp.MustCompile(`(?i)\bLIMIT\s+(\d+)\b`)
	limitParamRe  = regexp.MustCompile(`(?i)\bLIMIT\s+\$\d+`)
	placeholderRe = regexp.MustCompile(`\$(\d+)`)
	subqueryRe    = regexp.MustCompile(`\(\s*(?i:SELECT)\b`)
	joinRe        = regexp.MustCompile(`(?i)\bJOIN\b`)
	commentRe     = regexp.MustCompile(`--|/\*`)
	bareRunDateRe = regexp.MustCompile(`(?i)(^|[^"\w])(CURRENT_DATE)($|[^"\w])`)
	whereClauseRe = regexp.MustCompile(`(?is)\bWHERE\b(.*?)(?:\bGROUP\b|\bORDER\b|\bHAVING\b|\bLIMIT\b|$)`)
)

// quoteRunDate rewrites bare CURRENT_DATE tokens to the quoted identifier.
// Unquoted, Postgres parses the word as the clock-date function and the
// statement silently compares today against the bound range instead of the
// run-date column. Matching runs on the masked statement so string-literal
// content is left alone; stmt and masked stay byte-aligned.
func quoteRunDate(stmt, masked string) (string, string) {
	locs := bareRunDateRe.FindAllStringSubmatchIndex(masked, -1)
	for i := len(locs) - 1; i >= 0; i-- {
		s, e := locs[i][4], locs[i][5]
		stmt = stmt[:s] + `"` + stmt[s:e] + `"` + stmt[e:]
		masked = masked[:s] + `"` + masked[s:e] + `"` + masked[e:]
	}
	return stmt, masked
}

// SQLValidator is the static safety and complexity gate between generation
// and execution. Rejections are deterministic: identical input always yields
// the identical verdict and reason.
type SQLValidator struct {
	registry         *schema.Descriptor
	maxRows          int
	maxJoins         int
	maxSubqueryDepth int
}

func NewSQLValidator(registry *schema.Descriptor, maxRows, maxJoins, maxSubqueryDepth int) *SQLValidator {
	return &SQLValidator{
		registry:         registry,
		maxRows:          maxRows,
		maxJoins:         maxJoins,
		maxSubqueryDepth: maxSubqueryDepth,
	}
}

func reject(reason RejectReason, detail string) ValidationResult {
	return ValidationResult{Verdict: VerdictReject, Reason: reason, Detail: detail}
}

// Validate applies the gates in order; the first failure short-circuits.
// Candidates from the model path get no more trust than template ones —
// the gates are identical regardless of generation source.
func (v *SQLValidator) Validate(c sqlgen.Candidate) ValidationResult {
	stmt := strings.TrimSpace(c.SQL)
	if stmt == "" {
		return reject(ReasonEmptyStatement, "statement is empty")
	}
	masked := maskStringLiterals(stmt)
	stmt, masked = quoteRunDate(stmt, masked)

	// Gate 1: exactly one statement.
	// Masking is byte-for-byte, so indexes line up between stmt and masked.
	if idx := strings.IndexByte(masked, ';'); idx >= 0 {
		if strings.TrimSpace(masked[idx+1:]) != "" {
			return reject(ReasonMultipleStatements, "content after statement terminator")
		}
		stmt = strings.TrimSpace(stmt[:idx])
		masked = strings.TrimSpace(masked[:idx])
	}

	// Gate 2: read-only operations only.
	upper := strings.ToUpper(masked)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return reject(ReasonOperationNotWhitelisted, "only SELECT statements are allowed")
	}
	if m := forbiddenKeywords.FindString(masked); m != "" {
		return reject(ReasonOperationNotWhitelisted, "forbidden keyword: "+strings.ToUpper(m))
	}
	if commentRe.MatchString(masked) {
		return reject(ReasonOperationNotWhitelisted, "comment markers are not allowed")
	}

	// Gate 3: every identifier must resolve against the registry.
	if res := v.checkIdentifiers(masked); res != nil {
		return *res
	}

	// Gate 4: entity-derived values arrive as bound parameters only.
	if res := v.checkParameterization(stmt, c); res != nil {
		return *res
	}

	// Gate 5: complexity ceiling.
	if joins := len(joinRe.FindAllString(masked, -1)); joins > v.maxJoins {
		return reject(ReasonTooComplex, fmt.Sprintf("%d joins exceeds ceiling %d", joins, v.maxJoins))
	}
	if depth := len(subqueryRe.FindAllString(masked, -1)); depth > v.maxSubqueryDepth {
		return reject(ReasonTooComplex, fmt.Sprintf("subquery depth %d exceeds ceiling %d", depth, v.maxSubqueryDepth))
	}

	// Gate 6: row limit enforcement.
	sanitized, effective, res := v.applyRowLimit(stmt, masked, c)
	if res != nil {
		return *res
	}

	return ValidationResult{
		Verdict:           VerdictAccept,
		SanitizedSQL:      sanitized,
		Params:            append([]interface{}(nil), c.Params...),
		EffectiveRowLimit: effective,
	}
}

func (v *SQLValidator) checkIdentifiers(masked string) *ValidationResult {
	tokens := identTokenRe.FindAllString(masked, -1)

	// First pass: collect aliases introduced via AS, and the tables the
	// statement reads from.
	aliases := map[string]bool{}
	var tables []string
	for i, tok := range tokens {
		if strings.EqualFold(tok, "AS") && i+1 < len(tokens) {
			aliases[strings.ToUpper(tokens[i+1])] = true
		}
		if _, ok := v.registry.Table(tok); ok {
			tables = append(tables, tok)
		}
	}

	for _, tok := range tokens {
		up := strings.ToUpper(tok)
		if allowedKeywords[up] || aliases[up] {
			continue
		}
		if v.registry.KnownIdentifier(tok) {
			continue
		}
		r := reject(ReasonUnknownIdentifier, "unknown identifier: "+tok)
		return &r
	}

	// Columns in WHERE clauses must additionally be in the filter-allowed
	// set of a table the statement reads. Existence alone is not enough: a
	// known column from an unrelated table is still not a legal predicate.
	for _, m := range whereClauseRe.FindAllStringSubmatch(masked, -1) {
		for _, tok := range identTokenRe.FindAllString(m[1], -1) {
			up := strings.ToUpper(tok)
			if allowedKeywords[up] || aliases[up] {
				continue
			}
			if _, ok := v.registry.Table(tok); ok {
				continue
			}
			allowed := false
			for _, tbl := range tables {
				if v.registry.FilterAllowed(tbl, tok) {
					allowed = true
					break
				}
			}
			if !allowed {
				r := reject(ReasonUnknownIdentifier, "column not allowed as filter: "+tok)
				return &r
			}
		}
	}
	return nil
}

// checkParameterization rejects inline literals equal to entity values and
// any mismatch between placeholders and the bound-parameter sequence.
// String-valued slots only: a small integer limit carries no injection
// surface and is clamped by gate 6 anyway.
func (v *SQLValidator) checkParameterization(stmt string, c sqlgen.Candidate) *ValidationResult {
	for _, val := range entityStrings(c) {
		lit := regexp.MustCompile(`(?i)'\s*` + regexp.QuoteMeta(val) + `\s*'`)
		if lit.MatchString(stmt) {
			r := reject(ReasonInlineLiteral, "entity value inlined as literal: "+val)
			return &r
		}
	}

	maxIdx := 0
	seen := map[int]bool{}
	for _, m := range placeholderRe.FindAllStringSubmatch(stmt, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			r := reject(ReasonParameterMismatch, "malformed placeholder "+m[0])
			return &r
		}
		seen[n] = true
		if n > maxIdx {
			maxIdx = n
		}
	}
	if maxIdx != len(c.Params) || len(seen) != len(c.Params) {
		r := reject(ReasonParameterMismatch,
			fmt.Sprintf("statement references %d placeholders, %d parameters bound", maxIdx, len(c.Params)))
		return &r
	}
	return nil
}

func (v *SQLValidator) applyRowLimit(stmt, masked string, c sqlgen.Candidate) (string, int, *ValidationResult) {
	if limitParamRe.MatchString(masked) {
		r := reject(ReasonParameterMismatch, "row limit must not be a bound parameter")
		return "", 0, &r
	}

	effective := v.maxRows
	if c.Entities.Limit != nil && *c.Entities.Limit < effective {
		effective = *c.Entities.Limit
	}
	if m := limitLitRe.FindStringSubmatch(masked); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n < effective {
			effective = n
		}
		// Strip the existing clause; it is re-written below.
		loc := limitLitRe.FindStringIndex(masked)
		stmt = strings.TrimSpace(stmt[:loc[0]] + stmt[loc[1]:])
	}
	if effective < 1 {
		effective = 1
	}

	// One row past the cap lets the executor detect truncation without a
	// second query; it never reaches the caller.
	sanitized := stmt + fmt.Sprintf(" LIMIT %d", effective+1)
	return sanitized, effective, nil
}

// entityStrings lists the string-valued entity slots bound into a candidate.
func entityStrings(c sqlgen.Candidate) []string {
	var vals []string
	if c.Entities.ChainID != nil {
		vals = append(vals, *c.Entities.ChainID)
	}
	if c.Entities.Status != nil {
		vals = append(vals, string(*c.Entities.Status))
	}
	if c.Entities.DateRange != nil {
		vals = append(vals,
			c.Entities.DateRange.Start.Format("2006-01-02"),
			c.Entities.DateRange.End.Format("2006-01-02"))
	}
	return vals
}

// maskStringLiterals blanks the content of single-quoted literals so the
// structural checks cannot be confused by quoted text. Doubled quotes
// inside a literal are handled.
func maskStringLiterals(s string) string {
	out := []byte(s)
	inString := false
	for i := 0; i < len(out); i++ {
		if out[i] == '\'' {
			if inString && i+1 < len(out) && out[i+1] == '\'' {
				out[i+1] = ' '
				i++
				continue
			}
			inString = !inString
			continue
		}
		if inString {
			out[i] = ' '
		}
	}
	return string(out)
}
