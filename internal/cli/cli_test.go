package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-status/internal/status"
	"cv-status/internal/storage"
)

const templatesYAML = `templates:
  - name: intro
    subject: "Hi {{first_name}}"
    body_markdown: |
      We are hiring a **{{role}}** at {{company}}.
`

// setup points the CLI at a fresh SQLite file and a local CV folder.
func setup(t *testing.T) (dbURL, cvDir string) {
	t.Helper()
	dir := t.TempDir()
	cvDir = filepath.Join(dir, "cvs")
	require.NoError(t, os.MkdirAll(cvDir, 0o755))
	dbURL = "sqlite://" + filepath.Join(dir, "cvctl.db")

	t.Setenv("DATABASE_URL", dbURL)
	t.Setenv("LLM_PROVIDER", "none")
	t.Setenv("MAIL_TRANSPORT", "sendgrid")
	t.Setenv("LOG_FILE", filepath.Join(dir, "cvctl.log"))
	t.Setenv("LOG_LEVEL", "ERROR")
	t.Setenv("SOURCE_DIR", cvDir)
	t.Setenv("GOOGLE_DRIVE_FOLDER_ID", "")
	t.Setenv("UPLOADS_DIR", filepath.Join(dir, "uploads"))
	return dbURL, cvDir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	syncFolder, syncForce, verbose = "", false, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	err := Execute()
	return out.String(), err
}

func openDB(t *testing.T, dbURL string) *storage.DB {
	t.Helper()
	db, err := storage.NewDB(dbURL)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestSyncSetStatusAndExport(t *testing.T) {
	dbURL, cvDir := setup(t)
	require.NoError(t, os.WriteFile(filepath.Join(cvDir, "ada.txt"),
		[]byte("Ada Lovelace\nada@example.com\n7 years building Go and PostgreSQL services\n"), 0o644))

	out, err := run(t, "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "Created 1, updated 0, skipped 0, failed 0")

	out, err = run(t, "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "skipped 1")

	db := openDB(t, dbURL)
	cands, err := db.FindCandidatesByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	require.Len(t, cands, 1)
	id := cands[0].ID

	out, err = run(t, "status", "set", id, "INTERESTED")
	require.NoError(t, err)
	assert.Contains(t, out, "is now INTERESTED")

	got, err := db.GetCandidate(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, status.Interested, got.Status)

	out, err = run(t, "status", "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "INTERESTED 1")
	assert.Contains(t, out, "TOTAL      1")

	target := filepath.Join(t.TempDir(), "report")
	out, err = run(t, "export", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 candidates and 0 campaigns")
	assert.FileExists(t, target+".xlsx")
}

func TestSync_ReportsFailures(t *testing.T) {
	_, cvDir := setup(t)
	require.NoError(t, os.WriteFile(filepath.Join(cvDir, "blank.txt"), []byte("   "), 0o644))

	out, err := run(t, "sync")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 documents failed")
	assert.Contains(t, out, "failed   blank.txt")
}

func TestSync_RequiresFolder(t *testing.T) {
	setup(t)
	t.Setenv("SOURCE_DIR", "")

	_, err := run(t, "sync")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no folder")
}

func TestStatusSet_Rejects(t *testing.T) {
	setup(t)

	_, err := run(t, "status", "set", "missing", "HIRED")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid status")

	_, err = run(t, "status", "set", "missing", "replied")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid status")

	_, err = run(t, "status", "set", "missing", "REPLIED")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestTemplatesValidateAndImport(t *testing.T) {
	dbURL, _ := setup(t)
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(templatesYAML), 0o644))

	out, err := run(t, "templates", "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "ok  intro")
	assert.Contains(t, out, "1 templates valid")

	out, err = run(t, "templates", "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 created, 0 updated")

	out, err = run(t, "templates", "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "0 created, 1 updated")

	tmpls, err := openDB(t, dbURL).ListTemplates(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, tmpls, 1)
	assert.Equal(t, "intro", tmpls[0].Name)
}

func TestTemplatesValidate_NeedsNoDatabase(t *testing.T) {
	setup(t)
	t.Setenv("DATABASE_URL", "")
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("templates:\n  - {name: a, subject: \"{{salary}}\", body_text: y}\n"), 0o644))

	_, err := run(t, "templates", "validate", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "salary")

	_, err = run(t, "templates", "import", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}
