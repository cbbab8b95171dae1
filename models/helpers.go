package models

// Namespace puts all table names under a common prefix. This is useful
// when several services share one database.
var Namespace string

func tableName(defaultName string) string {
	if Namespace != "" {
		return Namespace + "_" + defaultName
	}
	return defaultName
}
