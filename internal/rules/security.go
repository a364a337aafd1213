package rules

import (
	"regexp"

	"github.com/sprite-ai/crev/internal/model"
)

// Security is the security rule set, in reporting order.
var Security = []Rule{
	{
		ID:          "sql-concatenation",
		Category:    model.CategorySecurity,
		Severity:    model.SeverityCritical,
		Description: "SQL query built by string concatenation; use parameterized queries",
		Kind:        MatchPresent,
		Pattern: regexp.MustCompile(
			`(?i)\b(?:select\s[^\n]*\bfrom|insert\s+into|update\s+\w+\s+set|delete\s+from)\b[^\n]*?["'\x60]\s*(?:\+|\|\||\.\s*\$|%\s*[\w(])`,
		),
	},
	{
		ID:          "sql-interpolation",
		Category:    model.CategorySecurity,
		Severity:    model.SeverityHigh,
		Description: "SQL query built with string interpolation or formatting",
		Kind:        MatchPresent,
		Pattern: regexp.MustCompile(
			`(?i)(?:\bf["']|\x60)[^"'\x60\n]*\b(?:select|insert|update|delete)\b[^\n]*?\$?\{[^}\n]*\}` +
				`|\bsprintf\s*\(\s*["'\x60][^"'\x60\n]*\b(?:select|insert|update|delete)\b[^"'\x60\n]*%[sdv]` +
				`|["'][^"'\n]*\b(?:select|insert|update|delete)\b[^"'\n]*\{\w*\}["']\s*\.format\s*\(`,
		),
	},
	{
		ID:          "xss-dom-sink",
		Category:    model.CategorySecurity,
		Severity:    model.SeverityHigh,
		Description: "Markup written to an unsafe DOM sink; possible cross-site scripting",
		Kind:        MatchPresent,
		Pattern: regexp.MustCompile(
			`\.(?:innerHTML|outerHTML)\s*\+?=|\bdangerouslySetInnerHTML\b|\bdocument\.write(?:ln)?\s*\(|\.insertAdjacentHTML\s*\(`,
		),
	},
	{
		ID:          "dynamic-eval",
		Category:    model.CategorySecurity,
		Severity:    model.SeverityHigh,
		Description: "Dynamic code evaluation; attacker-controlled input could be executed",
		Kind:        MatchPresent,
		Pattern: regexp.MustCompile(
			`\b(?:eval|execScript)\s*\(|\bnew\s+Function\s*\(|\bset(?:Timeout|Interval)\s*\(\s*["']`,
		),
	},
	{
		ID:          "unescaped-template",
		Category:    model.CategorySecurity,
		Severity:    model.SeverityMedium,
		Description: "Template output marked safe or rendered unescaped",
		Kind:        MatchPresent,
		Pattern: regexp.MustCompile(
			`\|\s*safe\b|\bmark_safe\s*\(|\btemplate\.HTML\s*\(|\{\{\{[^}\n]*\}\}\}|<%-|\bv-html\b|\[innerHTML\]`,
		),
	},
	{
		ID:          "hardcoded-credential",
		Category:    model.CategorySecurity,
		Severity:    model.SeverityCritical,
		Description: "Credential-like value hardcoded in source",
		Kind:        MatchPresent,
		Pattern: regexp.MustCompile(
			`(?i)\b\w*(?:password|passwd|secret|api[_-]?key|access[_-]?key|auth[_-]?token|token)\w*\b["']?\s*(?::=|[:=])\s*["'][^"'\s]{4,}["']`,
		),
	},
	{
		ID:          "cloud-access-key",
		Category:    model.CategorySecurity,
		Severity:    model.SeverityCritical,
		Description: "Cloud access key id embedded in source",
		Kind:        MatchPresent,
		Pattern:     regexp.MustCompile(`\b(?:AKIA|ASIA)[0-9A-Z]{16}\b`),
	},
	{
		ID:          "private-key",
		Category:    model.CategorySecurity,
		Severity:    model.SeverityCritical,
		Description: "Private key material embedded in source",
		Kind:        MatchPresent,
		Pattern:     regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH |PGP )?PRIVATE KEY(?: BLOCK)?-----`),
	},
	{
		ID:          "weak-password-hash",
		Category:    model.CategorySecurity,
		Severity:    model.SeverityHigh,
		Description: "Password hashed with a fast digest; use bcrypt, scrypt or argon2",
		Kind:        MatchPresent,
		Pattern: regexp.MustCompile(
			`(?i)(?:md5|sha1|sha256)\s*\.?\s*(?:new\s*)?\(\s*[^)
]*\w*(?:password|passwd|pwd)\w*` +
				`|\w*(?:password|passwd|pwd)\w*[^
]*\.(?:md5|sha1)\s*\(`,
		),
	},
	{
		ID:          "command-injection",
		Category:    model.CategorySecurity,
		Severity:    model.SeverityHigh,
		Description: "Shell command execution; avoid passing untrusted input to a shell",
		Kind:        MatchPresent,
		Pattern: regexp.MustCompile(
			`\bos\.system\s*\(|\bsubprocess\.\w+\([^)\n]*shell\s*=\s*True|\bexec\.Command\s*\(\s*"(?:sh|bash|cmd)"|\bchild_process\.exec\s*\(|\bshell_exec\s*\(`,
		),
	},
	{
		ID:          "insecure-tls",
		Category:    model.CategorySecurity,
		Severity:    model.SeverityMedium,
		Description: "TLS certificate verification disabled",
		Kind:        MatchPresent,
		Pattern:     regexp.MustCompile(`InsecureSkipVerify:\s*true|\bverify\s*=\s*False\b|rejectUnauthorized:\s*false`),
	},
	{
		ID:          "csrf-token-missing",
		Category:    model.CategorySecurity,
		Severity:    model.SeverityMedium,
		Description: "State-changing endpoint or form without any CSRF token handling",
		Kind:        MatchUnguarded,
		Pattern: regexp.MustCompile(
			`(?i)<form\b[^>\n]*\bmethod\s*=\s*["']?post` +
				`|@(?:app|router|bp|blueprint|api)\.(?:post|put|patch|delete)\s*\(` +
				`|\bmethods\s*=\s*\[[^\]\n]*["'](?:post|put|patch|delete)["']` +
				`|\b(?:app|router)\.(?:post|put|patch|delete)\s*\(` +
				`|\bhandlefunc\s*\(\s*"(?:post|put|patch|delete)\s`,
		),
		Unless: regexp.MustCompile(`(?i)csrf|xsrf|anti[_-]?forgery|samesite`),
	},
	{
		ID:          "input-validation-missing",
		Category:    model.CategorySecurity,
		Severity:    model.SeverityHigh,
		Description: "Request parameters used without any validation or sanitization",
		Kind:        MatchUnguarded,
		Pattern: regexp.MustCompile(
			`(?im)\brequest\.(?:args|form|values|json|get_json|params|query_params|data|files|get|post|body|query)\b` +
				`|\breq\.(?:query|params|body|headers)\b` +
				`|\br\.(?:formvalue|postformvalue|url\.query)\s*\(` +
				`|\$_(?:get|post|request|cookie)\b` +
				`|(?:^|[^\w.<])input\s*\(`,
		),
		Unless: regexp.MustCompile(
			`(?i)validat|sanitiz|escape|\bschema\b|pydantic|marshmallow|\bjoi\.|\bzod\b|isdigit|isnumeric|isalnum|strconv\.|parseint|\bint\s*\(|bleach|filter_var|binding:"|\bclean_`,
		),
	},
}
