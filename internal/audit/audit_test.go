package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sealenv/sealenv/internal/lockfile"
	"github.com/sealenv/sealenv/internal/secretfile"
)

// buildChain creates n entries with fixed timestamps, chained from the
// genesis hash.
func buildChain(n int) []Entry {
	base := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	actions := []string{ActionInit, ActionSet, ActionSet, ActionDelete, ActionTrust}
	keys := []string{NoKey, "API_KEY", "DB_URL", "API_KEY", "age1peer"}

	prev := GenesisHash
	var entries []Entry
	for i := 0; i < n; i++ {
		e := newEntry(prev, base.Add(time.Duration(i)*time.Second), actions[i%len(actions)], keys[i%len(keys)], "age1me")
		entries = append(entries, e)
		prev = e.Hash
	}
	return entries
}

func fileWithPayloads(t *testing.T, payloads []string) *secretfile.File {
	t.Helper()
	var b strings.Builder
	for _, p := range payloads {
		b.WriteString(secretfile.AuditKey + "=" + p + "\n")
	}
	f, err := secretfile.Parse([]byte(b.String()))
	if err != nil {
		t.Fatalf("failed to build audit file: %v", err)
	}
	return f
}

func payloadsOf(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Payload()
	}
	return out
}

// tamper rewrites one payload field in place, keeping the recorded hash.
func tamper(t *testing.T, payload, newKey string) string {
	t.Helper()
	fields := strings.Split(payload, "|")
	if len(fields) != 5 {
		t.Fatalf("unexpected payload %q", payload)
	}
	fields[3] = newKey
	return strings.Join(fields, "|")
}

func TestVerify_IntactChain(t *testing.T) {
	chain := buildChain(4)
	got := Verify(fileWithPayloads(t, payloadsOf(chain)))

	if len(got) != 4 {
		t.Fatalf("got %d entries, want 4", len(got))
	}
	seen := make(map[string]bool)
	for i, e := range got {
		if !e.Verified {
			t.Errorf("entry %d not verified", i)
		}
		if seen[e.Hash] {
			t.Errorf("entry %d reuses hash %s", i, e.Hash)
		}
		seen[e.Hash] = true
	}
	if got[0].Hash != hashEntry(GenesisHash, got[0].Timestamp, got[0].Action, got[0].Key, got[0].Actor) {
		t.Error("first entry does not chain from the genesis hash")
	}
}

func TestVerify_TamperedLastEntry(t *testing.T) {
	chain := buildChain(3)
	payloads := payloadsOf(chain)
	payloads[2] = tamper(t, payloads[2], "FORGED_KEY")

	got := Verify(fileWithPayloads(t, payloads))
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3", len(got))
	}
	if !got[0].Verified || !got[1].Verified {
		t.Error("entries before the tampered one lost verification")
	}
	if got[2].Verified {
		t.Error("tampered last entry still verified")
	}
}

func TestVerify_TamperedMiddleEntryBreaksSuffix(t *testing.T) {
	chain := buildChain(4)
	payloads := payloadsOf(chain)
	payloads[1] = tamper(t, payloads[1], "FORGED_KEY")

	got := Verify(fileWithPayloads(t, payloads))
	if !got[0].Verified {
		t.Error("entry before the tampered one lost verification")
	}
	for i := 1; i < 4; i++ {
		if got[i].Verified {
			t.Errorf("entry %d verified despite tampered predecessor", i)
		}
	}
}

func TestVerify_DeletedMiddleEntryBreaksSuffix(t *testing.T) {
	chain := buildChain(4)
	payloads := payloadsOf(chain)
	payloads = append(payloads[:1], payloads[2:]...)

	got := Verify(fileWithPayloads(t, payloads))
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3", len(got))
	}
	if !got[0].Verified {
		t.Error("entry before the gap lost verification")
	}
	if got[1].Verified || got[2].Verified {
		t.Error("entries after a deleted record still verified")
	}
}

func TestVerify_ReorderedEntriesDetected(t *testing.T) {
	chain := buildChain(3)
	payloads := payloadsOf(chain)
	payloads[1], payloads[2] = payloads[2], payloads[1]

	got := Verify(fileWithPayloads(t, payloads))
	if !got[0].Verified {
		t.Error("untouched first entry lost verification")
	}
	if got[1].Verified || got[2].Verified {
		t.Error("swapped entries still verified")
	}
}

func TestVerify_MalformedPayloadSkippedAndFlagsSuccessor(t *testing.T) {
	chain := buildChain(3)
	payloads := payloadsOf(chain)
	payloads[1] = "not-enough-fields"

	got := Verify(fileWithPayloads(t, payloads))
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2 (malformed record skipped)", len(got))
	}
	if !got[0].Verified {
		t.Error("entry before the malformed record lost verification")
	}
	if got[1].Verified {
		t.Error("successor of a malformed record still verified")
	}
}

func TestAppendToFile_ChainsFromTail(t *testing.T) {
	f, err := secretfile.Parse(nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	first := AppendToFile(f, ActionInit, NoKey, UnknownActor)
	second := AppendToFile(f, ActionSet, "API_KEY", UnknownActor)

	if second.Hash != hashEntry(first.Hash, second.Timestamp, second.Action, second.Key, second.Actor) {
		t.Error("second entry does not chain from the first")
	}
	for i, e := range Verify(f) {
		if !e.Verified {
			t.Errorf("entry %d not verified after append", i)
		}
	}
}

func TestAppend_PersistsVerifiedRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.env")

	if err := Append(path, ActionInit, NoKey, UnknownActor); err != nil {
		t.Fatalf("first Append failed: %v", err)
	}
	if err := Append(path, ActionSet, "API_KEY", "age1me"); err != nil {
		t.Fatalf("second Append failed: %v", err)
	}

	entries, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if !entries[0].Verified || !entries[1].Verified {
		t.Error("persisted chain did not verify")
	}
	if entries[1].Action != ActionSet || entries[1].Key != "API_KEY" || entries[1].Actor != "age1me" {
		t.Errorf("got entry %+v", entries[1])
	}

	if _, err := os.Stat(path + lockfile.Suffix); !os.IsNotExist(err) {
		t.Error("lock file still exists after Append")
	}
}

func TestAppend_PreservesSecretEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.env")
	if err := os.WriteFile(path, []byte("API_KEY=abc\n"), 0600); err != nil {
		t.Fatalf("failed to seed file: %v", err)
	}

	if err := Append(path, ActionSet, "API_KEY", UnknownActor); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	f, err := secretfile.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if entry, ok := f.Lookup("API_KEY"); !ok || entry.Value != "abc" {
		t.Errorf("secret entry damaged by audit append: %+v", entry)
	}
	if len(f.AuditPayloads()) != 1 {
		t.Errorf("got %d audit records, want 1", len(f.AuditPayloads()))
	}
}

func TestEntry_TimestampFormat(t *testing.T) {
	f, err := secretfile.Parse(nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	e := AppendToFile(f, ActionInit, NoKey, UnknownActor)

	if !strings.HasSuffix(e.Timestamp, "Z") {
		t.Errorf("timestamp %q is not UTC-suffixed", e.Timestamp)
	}
	if len(e.Timestamp) != len(TimestampFormat) {
		t.Errorf("timestamp %q does not match microsecond layout", e.Timestamp)
	}
	if _, err := e.Time(); err != nil {
		t.Errorf("timestamp %q does not parse: %v", e.Timestamp, err)
	}
}

func TestRead_MissingFileIsEmptyChain(t *testing.T) {
	entries, err := Read(filepath.Join(t.TempDir(), "absent.env"))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("missing file yielded %d entries", len(entries))
	}
}
