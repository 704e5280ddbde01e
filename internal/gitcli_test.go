package internal

import "testing"

func TestParseShortStat(t *testing.T) {
	tests := []struct {
		name    string
		summary string
		files   int
		added   int
		deleted int
	}{
		{
			name:    "full summary",
			summary: "3 files changed, 10 insertions(+), 2 deletions(-)",
			files:   3, added: 10, deleted: 2,
		},
		{
			name:    "singular forms",
			summary: "1 file changed, 1 insertion(+), 1 deletion(-)",
			files:   1, added: 1, deleted: 1,
		},
		{
			name:    "insertions only",
			summary: "2 files changed, 7 insertions(+)",
			files:   2, added: 7,
		},
		{
			name:    "deletions only",
			summary: "1 file changed, 4 deletions(-)",
			files:   1, deleted: 4,
		},
		{
			name:    "empty summary",
			summary: "",
		},
		{
			name:    "unrelated text",
			summary: "nothing to see here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, added, deleted := parseShortStat(tt.summary)
			if files != tt.files {
				t.Errorf("files = %d, want %d", files, tt.files)
			}
			if added != tt.added {
				t.Errorf("added = %d, want %d", added, tt.added)
			}
			if deleted != tt.deleted {
				t.Errorf("deleted = %d, want %d", deleted, tt.deleted)
			}
		})
	}
}
