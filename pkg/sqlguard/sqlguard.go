// Package sqlguard validates questions and generated SQL against the
// tenancy and safety rules every query must satisfy.
package sqlguard

import (
	"fmt"
	"regexp"
	"strings"

	libinjection "github.com/corazawaf/libinjection-go"

	"github.com/loyaltyiq/loyalty-engine/pkg/models"
)

// idPatterns detect explicit record-identifier references in questions.
// Questions must describe data in business terms, never by raw IDs.
var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)client\s+id\s+\d+`),
	regexp.MustCompile(`(?i)client_id\s+\d+`),
	regexp.MustCompile(`(?i)clientid\s+\d+`),
	regexp.MustCompile(`(?i)client\s*=\s*\d+`),
	regexp.MustCompile(`(?i)client_id\s*=\s*\d+`),
	regexp.MustCompile(`(?i)client\s+number\s+\d+`),
	regexp.MustCompile(`(?i)client\s+#\s*\d+`),
	regexp.MustCompile(`(?i)\bid\s+\d+\b`),
	regexp.MustCompile(`(?i)\bid\s*=\s*\d+\b`),
	regexp.MustCompile(`(?i)\bid\s*:\s*\d+\b`),
	regexp.MustCompile(`(?i)\bid\s*#\s*\d+\b`),
	regexp.MustCompile(`(?i)\bid\s+number\s+\d+\b`),
	regexp.MustCompile(`(?i)\bid\s+is\s+\d+\b`),
	regexp.MustCompile(`(?i)\bid\s+of\s+\d+\b`),
	regexp.MustCompile(`(?i)\bnumber\s+\d+\b`),
	regexp.MustCompile(`(?i)\b#\s*\d+\b`),
	regexp.MustCompile(`(?i)\b=\s*\d+\b`),
	regexp.MustCompile(`(?i)\b:\s*\d+\b`),
}

// dangerousPattern matches write operations, statement chaining, and common
// injection markers. Questions and generated SQL are both screened with it.
var dangerousPattern = regexp.MustCompile(`(?is)` + strings.Join([]string{
	`\bDROP\b`,
	`\bDELETE\b`,
	`\bUPDATE\b`,
	`\bINSERT\b`,
	`\bTRUNCATE\b`,
	`\bALTER\b`,
	`\bCREATE\b`,
	`\bEXEC\b`,
	`\bEXECUTE\b`,
	`\bUNION\b`,
	`--`,
	`/\*.*?\*/`,
	`@@`,
	`\b0x[0-9a-fA-F]+\b`,
	`WAITFOR\s+DELAY`,
	`BENCHMARK\s*\(`,
	`\bSLEEP\s*\(`,
	`pg_sleep\s*\(`,
	`xp_cmdshell`,
}, "|"))

// ValidateQuestion screens a user question before any model call happens.
// Returns nil when the question is safe to process.
func ValidateQuestion(question string) *models.ToolError {
	if strings.Contains(strings.ToLower(question), "client_id") {
		return models.NewToolError(models.ErrTypeClientIDViolation,
			"Client ID cannot be specified in the question")
	}

	for _, p := range idPatterns {
		if p.MatchString(question) {
			return models.NewToolError(models.ErrTypeIDViolation,
				"ID specifications are not allowed in questions")
		}
	}

	if dangerousPattern.MatchString(question) {
		return models.NewToolError(models.ErrTypeSecurityViolation,
			"Question contains potentially harmful content")
	}

	if isSQLi, _ := libinjection.IsSQLi(question); isSQLi {
		return models.NewToolError(models.ErrTypeSecurityViolation,
			"Question contains potentially harmful content")
	}

	return nil
}

// ValidateSQL checks a generated query before execution. The query must
// filter on the request's client_id and contain exactly one read-only
// statement. Returns nil when the query is safe to run.
func ValidateSQL(sqlQuery string, clientID int) *models.ToolError {
	clientIDFilter := regexp.MustCompile(
		fmt.Sprintf(`(?i)client_id\s*=\s*['"]?%d['"]?`, clientID))
	if !clientIDFilter.MatchString(sqlQuery) {
		return models.NewToolError(models.ErrTypeMissingClientID,
			"Query must filter by client_id")
	}

	if dangerousPattern.MatchString(sqlQuery) {
		return models.NewToolError(models.ErrTypeDangerousOperation,
			"Query contains potentially harmful operations")
	}

	if hasSemicolonOutsideStrings(stripTrailingSemicolon(sqlQuery)) {
		return models.NewToolError(models.ErrTypeDangerousOperation,
			"Multiple SQL statements are not allowed")
	}

	return nil
}

// NormalizeSQL trims whitespace and a trailing semicolon from a generated query.
func NormalizeSQL(sqlQuery string) string {
	return stripTrailingSemicolon(strings.TrimSpace(sqlQuery))
}

// hasSemicolonOutsideStrings returns true if the SQL contains any semicolon
// outside of string literals. A trailing semicolon should already be stripped,
// so any hit means statement chaining.
func hasSemicolonOutsideStrings(sqlQuery string) bool {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	state := stateNormal
	prevChar := rune(0)

	for _, char := range sqlQuery {
		switch state {
		case stateNormal:
			switch char {
			case ';':
				return true
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			}
		case stateSingleQuote:
			// Backslash escape (\') and SQL doubled quote ('') both keep us
			// inside the literal; doubled quotes exit and immediately re-enter.
			if char == '\'' && prevChar != '\\' {
				state = stateNormal
			}
		case stateDoubleQuote:
			if char == '"' && prevChar != '\\' {
				state = stateNormal
			}
		}
		prevChar = char
	}

	return false
}

func stripTrailingSemicolon(sqlQuery string) string {
	sqlQuery = strings.TrimRight(sqlQuery, " \t\n\r")
	if strings.HasSuffix(sqlQuery, ";") {
		sqlQuery = strings.TrimRight(strings.TrimSuffix(sqlQuery, ";"), " \t\n\r")
	}
	return sqlQuery
}
