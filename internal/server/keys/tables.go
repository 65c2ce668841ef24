package keys

import (
	"fmt"
	"regexp"
)

// Tables holding surrogate keys, in schema creation order.
const (
	TableUsers         = "users"
	TableProfiles      = "user_profiles"
	TableDiaries       = "diaries"
	TableNotes         = "notes"
	TableReminders     = "reminders"
	TableMemories      = "memories"
	TableHealthLogs    = "health_logs"
	TableConversations = "conversations"
)

// ManagedTables is the fixed provisioning list.
var ManagedTables = []string{
	TableUsers,
	TableProfiles,
	TableDiaries,
	TableNotes,
	TableReminders,
	TableMemories,
	TableHealthLogs,
	TableConversations,
}

// Longest table name whose derived object names stay within PostgreSQL's
// 63 byte identifier limit.
const maxTableNameLen = 63 - len("_id_trigger")

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// SequenceName is the counter object backing table's keys.
func SequenceName(table string) string { return table + "_seq" }

// TriggerName is the insert-time assignment rule of table.
func TriggerName(table string) string { return table + "_id_trigger" }

// Table names are spliced into DDL, so only plain lower-case identifiers
// are accepted.
func validateTable(table string) error {
	if len(table) == 0 || len(table) > maxTableNameLen || !identRe.MatchString(table) {
		return fmt.Errorf("%w: %q", ErrInvalidTableName, table)
	}
	return nil
}
