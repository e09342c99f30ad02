package cmd

import (
	"sort"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestEntriesFromBatch(t *testing.T) {
	data := `
http:
  - link: https://example.com/a.bin
    op: downloads/a.bin
  - link: https://example.com/b.bin
    force: true
  - op: nowhere
s3:
  - link: s3://bucket/key
`
	var batch BatchFile
	if err := yaml.Unmarshal([]byte(data), &batch); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	entries := entriesFromBatch(batch, false)
	if len(entries) != 2 {
		t.Fatalf("entries = %+v, want 2", entries)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].URL < entries[j].URL })
	if entries[0].Output != "downloads/a.bin" || entries[0].Force {
		t.Errorf("first entry = %+v", entries[0])
	}
	if entries[1].Output != "" || !entries[1].Force {
		t.Errorf("second entry = %+v", entries[1])
	}

	for _, e := range entriesFromBatch(batch, true) {
		if !e.Force {
			t.Errorf("force flag should apply to %s", e.URL)
		}
	}
}
