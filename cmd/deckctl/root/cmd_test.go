package rootcmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const seed = `{"lessons":[{"id":"l1","title":"Go Basics","slides":[
  {"id":"s1","type":"title","title":"Go"},
  {"id":"s2","type":"feature","title":"Types","content":["int","string"]}
]}]}`

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := "slides_path: " + filepath.Join(dir, "slides.json") + "\n" +
		"downloads_dir: " + filepath.Join(dir, "downloads") + "\n" +
		"output_dir: " + filepath.Join(dir, "exports") + "\n" +
		"ledger_dir: " + filepath.Join(dir, "data") + "\n" +
		"staging_dir: " + dir + "\n" +
		"pixel_ratio: 1\n" +
		"batch_settle: 1ms\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "slides.json"), []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"CONFIG_FILE", "SLIDES_PATH", "LEDGER_BACKEND", "OUTPUT_DIR", "DOWNLOADS_DIR"} {
		t.Setenv(k, "")
	}
	return dir
}

func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := New()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(dir, "config.yaml")}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPatchValidateExportLedger(t *testing.T) {
	dir := setup(t)

	if _, err := execute(t, dir, "patch", "l1", "s2", "content.1", "bool"); err != nil {
		t.Fatalf("patch: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "slides.json"))
	if !strings.Contains(string(data), `"bool"`) {
		t.Errorf("expected patched content, got %s", data)
	}

	out, err := execute(t, dir, "validate")
	if err != nil || !strings.Contains(out, "OK: 1 lessons, 2 slides") {
		t.Errorf("validate: %v %q", err, out)
	}

	out, err = execute(t, dir, "export", "l1", "--mode", "batch")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "go-basics.pdf (2 pages") {
		t.Errorf("unexpected export output %q", out)
	}

	out, err = execute(t, dir, "ledger", "list")
	if err != nil || !strings.Contains(out, "go-basics.pdf") {
		t.Errorf("ledger list: %v %q", err, out)
	}
	if _, err := execute(t, dir, "ledger", "clear"); err != nil {
		t.Fatalf("ledger clear: %v", err)
	}
	out, _ = execute(t, dir, "ledger")
	if !strings.Contains(out, "No downloads recorded") {
		t.Errorf("expected empty ledger, got %q", out)
	}
}

func TestPatch_UnknownSlide(t *testing.T) {
	dir := setup(t)
	if _, err := execute(t, dir, "patch", "l1", "nope", "title", "x"); err == nil {
		t.Error("expected error for unknown slide")
	}
}

func TestExport_BadMode(t *testing.T) {
	dir := setup(t)
	if _, err := execute(t, dir, "export", "l1", "--mode", "print"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
