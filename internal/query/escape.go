package query

import "strings"

// likeEscape is the escape character declared in every LIKE we emit.
const likeEscape = "!"

// One pass over the input, so an added "!" is never escaped again.
var likeReplacer = strings.NewReplacer(
	"!", "!!",
	"%", "!%",
	"_", "!_",
	"[", "![",
)

// EscapeLike makes every LIKE metacharacter in s match literally.
func EscapeLike(s string) string {
	return likeReplacer.Replace(s)
}

// containsPattern is the substring pattern for a search text.
func containsPattern(s string) string {
	return "%" + EscapeLike(s) + "%"
}
