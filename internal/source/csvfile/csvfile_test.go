package csvfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ecomdash/internal/core"
)

const (
	categoryCSV = "product_category_name_english,price,order_purchase_timestamp,customer_state\n" +
		"electronics,100,2017-05-01 10:00:00,SP\n" +
		"toys,50,2017-05-01 11:00:00,RJ\n" +
		"electronics,30,2018-01-01 09:30:00,MG\n"
	stateCSV = "customer_state,unique_customers\nSP,500\nRJ,200\nMG,100\n"
	topCSV   = "product_category_name_english,price\nelectronics,130\ntoys,50\n"
)

func writeFixtures(t *testing.T, dir string) {
	t.Helper()
	mustWrite := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	mustWrite(DefaultCategoryFile, categoryCSV)
	mustWrite(DefaultStateFile, stateCSV)
	mustWrite(DefaultTopCategoryFile, topCSV)
}

func TestLoadAbsoluteDir(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)

	ds, err := New(dir, ModeWorkdir, Files{}).Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(ds.Categories) != 3 || len(ds.States) != 3 || len(ds.TopCategories) != 2 {
		t.Fatalf("unexpected sizes: %d %d %d", len(ds.Categories), len(ds.States), len(ds.TopCategories))
	}
	if ds.States[0].State != "SP" || ds.States[0].UniqueCustomers != 500 {
		t.Fatalf("unexpected first state: %+v", ds.States[0])
	}
}

func TestLoadWorkdirMode(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "data"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFixtures(t, filepath.Join(root, "data"))
	t.Chdir(root)

	if _, err := New("data", ModeWorkdir, Files{}).Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestLoadExecutableMode(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "data"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFixtures(t, filepath.Join(root, "data"))

	l := New("data", ModeExecutable, Files{})
	l.executable = func() (string, error) { return filepath.Join(root, "ecomdash"), nil }
	base, err := l.BaseDir()
	if err != nil {
		t.Fatalf("base dir: %v", err)
	}
	if base != filepath.Join(root, "data") {
		t.Fatalf("unexpected base %q", base)
	}
	if _, err := l.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)
	if err := os.Remove(filepath.Join(dir, DefaultStateFile)); err != nil {
		t.Fatal(err)
	}
	_, err := New(dir, ModeWorkdir, Files{}).Load(context.Background())
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestLoadBadColumnFails(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)
	bad := strings.Replace(topCSV, "price", "revenue", 1)
	if err := os.WriteFile(filepath.Join(dir, DefaultTopCategoryFile), []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := New(dir, ModeWorkdir, Files{}).Load(context.Background())
	if !errors.Is(err, core.ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestReadTableEmpty(t *testing.T) {
	_, err := ReadTable(context.Background(), "empty.csv", strings.NewReader(""))
	if !errors.Is(err, core.ErrEmptyTable) {
		t.Fatalf("expected ErrEmptyTable, got %v", err)
	}
}

func TestLoadRequiresTopCategoryFile(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)
	if err := os.Remove(filepath.Join(dir, DefaultTopCategoryFile)); err != nil {
		t.Fatal(err)
	}
	_, err := New(dir, ModeWorkdir, Files{}).Load(context.Background())
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("a directory without %s must fail to load, got %v", DefaultTopCategoryFile, err)
	}
}
