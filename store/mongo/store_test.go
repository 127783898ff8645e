package mongo

import (
	"testing"
)

func TestMigrationIndexes(t *testing.T) {
	indexes := migrationIndexes()
	for _, col := range []string{
		colUsers, colPermissions, colUserPermissions, colGroups,
		colGroupPermissions, colGroupMembers, colSessions, colAuthLogs,
	} {
		if len(indexes[col]) == 0 {
			t.Errorf("no indexes for %s", col)
		}
	}
}

func TestLinkID(t *testing.T) {
	if linkID("grp_a", "usr_b") == linkID("usr_b", "grp_a") {
		t.Fatal("link keys must be ordered")
	}
}
