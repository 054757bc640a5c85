package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bookscan/internal/app"
	"bookscan/internal/book"
	"bookscan/internal/config"
	"bookscan/internal/platform/crypto"
)

const testSecret = "bookctl-secret"

func setupCLITestEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "bookscan.db"))
	t.Setenv("AUTH_JWT_SECRET", testSecret)
	t.Setenv("GOOGLE_BOOKS_API_KEY", "")
	t.Setenv("BOOKSRUN_API_KEY", "")
	t.Setenv("OPENLIBRARY_ENABLED", "false")
	t.Setenv("STARTING_CREDITS", "10")
	t.Setenv("LOG_FILE", "")
	return dir
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func seedBook(t *testing.T, b book.Book) {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	st, err := app.OpenStores(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer st.Close()
	_, err = st.Books.Upsert(context.Background(), b)
	require.NoError(t, err)
}

func TestNormalize(t *testing.T) {
	out, err := runCLI(t, "normalize", "059600048000", "0-596-00048-0", "hello")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "9780596000486"))
	assert.Contains(t, out, "invalid")
}

func TestToken(t *testing.T) {
	setupCLITestEnv(t)

	out, err := runCLI(t, "token", "--user", "u1")
	require.NoError(t, err)

	claims, err := crypto.ParseToken(testSecret, strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "USER", claims.Role)
}

func TestScanInventoryExport(t *testing.T) {
	dir := setupCLITestEnv(t)
	seedBook(t, book.Book{ID: "9780596000486", Title: book.Str("CGI Programming with Perl"), Authors: []string{"Scott Guelich"}})

	out, err := runCLI(t, "scan", "--user", "u1", "0596000480", "9780441013593")
	require.NoError(t, err)
	assert.Contains(t, out, "added")
	assert.Contains(t, out, "Unable to fetch book for this ISBN.")

	out, err = runCLI(t, "scan", "--user", "u1", "9780596000486")
	require.NoError(t, err)
	assert.Contains(t, out, "already owned")

	out, err = runCLI(t, "inventory", "--user", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "CGI Programming with Perl")
	assert.Contains(t, out, "1 books, 9 credits")

	file := filepath.Join(dir, "export.csv")
	_, err = runCLI(t, "export", "--user", "u1", "-o", file)
	require.NoError(t, err)
	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"simple","9780596000486","CGI Programming with Perl"`)
}

func TestCredit(t *testing.T) {
	setupCLITestEnv(t)

	out, err := runCLI(t, "credit", "--user", "u2", "--amount", "500")
	require.NoError(t, err)
	assert.Contains(t, out, "u2 now has 510 credits")

	_, err = runCLI(t, "credit", "--user", "u2", "--amount", "0")
	assert.Error(t, err)
}

func TestLookup_NoSources(t *testing.T) {
	setupCLITestEnv(t)

	_, err := runCLI(t, "lookup", "9780596000486")
	assert.ErrorContains(t, err, "no bibliographic sources")
}

func TestPrefetch_ReportsFailures(t *testing.T) {
	setupCLITestEnv(t)
	seedBook(t, book.Book{ID: "9780596000486", Title: book.Str("CGI Programming with Perl")})

	out, err := runCLI(t, "prefetch", "9780596000486", "9780441013593")
	require.NoError(t, err)
	assert.Contains(t, out, "2 requested, 1 already cached, 0 fetched, 1 failed")
	assert.Contains(t, out, "9780441013593")
}
