package metastore

import (
	"regexp"

	"github.com/ncruces/go-sqlite3"
)

// regexpUDF backs the SQL `regexp(pattern, text)` scalar function used
// by advanced_search's regex and whole_words filters (spec §9: "regex
// evaluated per-row via a user-defined SQL function"). An invalid
// pattern is treated as a non-match rather than aborting the query.
func regexpUDF(ctx sqlite3.Context, args ...sqlite3.Value) {
	pattern := args[0].Text()
	text := args[1].Text()

	re, err := regexp.Compile(pattern)
	if err != nil {
		ctx.ResultBool(false)
		return
	}
	ctx.ResultBool(re.MatchString(text))
}
