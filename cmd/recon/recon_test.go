package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	return out.String()
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestImportAndRun(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "catalog.db")
	catalog := writeFile(t, dir, "catalog.csv",
		"id,manufacturer,reference,name_fr,name_en\n"+
			"p-1,Moria SA,\"A10.1500, A1.2100\",Ciseaux de Vannas,Vannas scissors\n"+
			"p-2,Moria,FS802-35,Pince,Forceps\n")
	incoming := writeFile(t, dir, "incoming.csv",
		"manufacturer,reference,name_fr,description_fr\n"+
			"Moria Surgical,A1.2100,Ciseaux de Vannas courbes,Lames 8 mm\n"+
			"Moria,FS803-35,Canule irrigation,\n"+
			"Nobody,X-1,Chose,\n")

	out := execute(t, "--db", db, "import", catalog)
	assert.Contains(t, out, "created=2")

	out = execute(t, "--db", db, "import", catalog)
	assert.Contains(t, out, "existing=2", "re-import is harmless")

	ledger := filepath.Join(dir, "unmatched.csv")
	out = execute(t, "--db", db, "run", incoming, "--unmatched", ledger)
	assert.Contains(t, out, "total=3 matched=1")
	assert.Contains(t, out, "unmatched=2")

	b, err := os.ReadFile(ledger)
	require.NoError(t, err)
	assert.Contains(t, string(b), "FS803-35")
	assert.Contains(t, string(b), "brand_not_in_store")
}

func TestRun_DryRun(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "catalog.db")
	catalog := writeFile(t, dir, "catalog.csv", "id,manufacturer,reference,name_en\np-1,Moria,A1,Scissors\n")
	incoming := writeFile(t, dir, "incoming.csv", "manufacturer,reference,name_fr\nMoria,A1,Ciseaux\n")

	execute(t, "--db", db, "import", catalog)
	out := execute(t, "--db", db, "run", incoming, "--dry-run")
	assert.Contains(t, out, "matched=1")
}

func TestRun_UnsupportedInput(t *testing.T) {
	dir := t.TempDir()
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", filepath.Join(dir, "x.db"), "run", writeFile(t, dir, "in.txt", "x")})
	assert.Error(t, cmd.ExecuteContext(context.Background()))
}
