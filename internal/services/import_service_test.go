package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ecomdash/internal/amqp"
	"ecomdash/internal/source/csvfile"
	"ecomdash/internal/storage"
)

type fakePublisher struct {
	published []*amqp.ImportRequest
	err       error
	closed    bool
}

func (f *fakePublisher) PublishImportRequest(_ context.Context, req *amqp.ImportRequest) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, req)
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

type fakeImporter struct {
	calls []string
	err   error
}

func (f *fakeImporter) Import(_ context.Context, id, dir string, _ csvfile.PathMode) (storage.Import, error) {
	if f.err != nil {
		return storage.Import{}, f.err
	}
	f.calls = append(f.calls, dir)
	return storage.Import{ID: id, Source: "csv:" + dir, CategoryRows: 3}, nil
}

func TestRequestImportPublishes(t *testing.T) {
	pub := &fakePublisher{}
	imp := &fakeImporter{}
	svc := NewImportService(imp, pub)

	out, err := svc.RequestImport(context.Background(), "/data", csvfile.ModeWorkdir)
	if err != nil {
		t.Fatalf("RequestImport: %v", err)
	}
	if !out.Queued || len(pub.published) != 1 {
		t.Fatalf("expected one queued request, got %+v", out)
	}
	if pub.published[0].ID.String() != out.ID || pub.published[0].DataDir != "/data" {
		t.Fatalf("published request mismatch: %+v", pub.published[0])
	}
	if len(imp.calls) != 0 {
		t.Fatal("importer must not run when publishing")
	}
}

func TestRequestImportPublishesAbsoluteDir(t *testing.T) {
	t.Chdir(t.TempDir())
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	pub := &fakePublisher{}
	svc := NewImportService(nil, pub)

	if _, err := svc.RequestImport(context.Background(), "data", csvfile.ModeWorkdir); err != nil {
		t.Fatalf("RequestImport: %v", err)
	}
	got := pub.published[0].DataDir
	if !filepath.IsAbs(got) || got != filepath.Join(wd, "data") {
		t.Fatalf("published DataDir = %q, want %q", got, filepath.Join(wd, "data"))
	}
	if pub.published[0].PathMode != string(csvfile.ModeWorkdir) {
		t.Errorf("PathMode = %q", pub.published[0].PathMode)
	}
}

func TestRequestImportDirect(t *testing.T) {
	imp := &fakeImporter{}
	svc := NewImportService(imp, nil)

	out, err := svc.RequestImport(context.Background(), "/data", csvfile.ModeExecutable)
	if err != nil {
		t.Fatalf("RequestImport: %v", err)
	}
	if out.Queued || out.Import.ID != out.ID || out.Import.CategoryRows != 3 {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestRequestImportErrors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name string
		svc  *ImportService
		dir  string
		mode csvfile.PathMode
		want error
	}{
		{"bad mode", NewImportService(&fakeImporter{}, nil), "/data", "elsewhere", nil},
		{"empty dir", NewImportService(&fakeImporter{}, nil), "", csvfile.ModeWorkdir, nil},
		{"no importer", NewImportService(nil, nil), "/data", csvfile.ModeWorkdir, ErrNoImporter},
		{"publish fails", NewImportService(nil, &fakePublisher{err: boom}), "/data", csvfile.ModeWorkdir, boom},
		{"import fails", NewImportService(&fakeImporter{err: boom}, nil), "/data", csvfile.ModeWorkdir, boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.RequestImport(context.Background(), tt.dir, tt.mode)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestClose(t *testing.T) {
	if err := NewImportService(nil, nil).Close(); err != nil {
		t.Fatalf("Close without publisher: %v", err)
	}
	pub := &fakePublisher{}
	if err := NewImportService(nil, pub).Close(); err != nil || !pub.closed {
		t.Fatalf("publisher not closed: %v", err)
	}
}
