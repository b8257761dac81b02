package schema

import (
	"regexp"
	"strings"
)

var whitespacePattern = regexp.MustCompile(`\s+`)

var typeAliases = map[string]string{
	"character varying":           "VARCHAR",
	"varchar":                     "VARCHAR",
	"nvarchar":                    "VARCHAR",
	"varying character":           "VARCHAR",
	"native character":            "CHAR",
	"character":                   "CHAR",
	"char":                        "CHAR",
	"bpchar":                      "CHAR",
	"nchar":                       "CHAR",
	"text":                        "TEXT",
	"clob":                        "TEXT",
	"string":                      "VARCHAR",
	"integer":                     "INTEGER",
	"int":                         "INTEGER",
	"int4":                        "INTEGER",
	"mediumint":                   "INTEGER",
	"serial":                      "INTEGER",
	"smallint":                    "SMALLINT",
	"int2":                        "SMALLINT",
	"smallserial":                 "SMALLINT",
	"bigint":                      "BIGINT",
	"int8":                        "BIGINT",
	"bigserial":                   "BIGINT",
	"real":                        "REAL",
	"float4":                      "REAL",
	"float":                       "FLOAT",
	"double precision":            "DOUBLE_PRECISION",
	"double":                      "DOUBLE_PRECISION",
	"float8":                      "DOUBLE_PRECISION",
	"numeric":                     "NUMERIC",
	"decimal":                     "NUMERIC",
	"boolean":                     "BOOLEAN",
	"bool":                        "BOOLEAN",
	"logical":                     "BOOLEAN",
	"date":                        "DATE",
	"datetime":                    "TIMESTAMP",
	"timestamp":                   "TIMESTAMP",
	"timestamp without time zone": "TIMESTAMP",
	"timestamp with time zone":    "TIMESTAMP",
	"timestamptz":                 "TIMESTAMP",
	"time":                        "TIME",
	"time without time zone":      "TIME",
	"time with time zone":         "TIME",
	"timetz":                      "TIME",
	"interval":                    "INTERVAL",
	"bytea":                       "BLOB",
	"blob":                        "BLOB",
	"binary":                      "BLOB",
	"varbinary":                   "BLOB",
	"json":                        "JSON",
	"jsonb":                       "JSONB",
	"uuid":                        "UUID",
}

// CanonicalType reduces an engine-reported type name to a shared vocabulary:
// modifiers such as length and precision are dropped, aliases are folded and the
// result is upper case with underscores in place of spaces.
func CanonicalType(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "NULL"
	}
	if strings.HasSuffix(value, "[]") {
		return "ARRAY"
	}
	value = stripModifiers(value)
	value = strings.ToLower(whitespacePattern.ReplaceAllString(strings.TrimSpace(value), " "))
	if canonical, ok := typeAliases[value]; ok {
		return canonical
	}
	return strings.ToUpper(strings.ReplaceAll(value, " ", "_"))
}

func stripModifiers(value string) string {
	var b strings.Builder
	depth := 0
	for _, r := range value {
		switch {
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
