package pdf

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/lexindex/convert"
)

func TestConvertMissingFile(t *testing.T) {
	c := NewConverter()

	_, err := c.Convert(context.Background(), filepath.Join(t.TempDir(), "absent.pdf"))
	if !errors.Is(err, convert.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConvertInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(path, []byte("not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewConverter()

	_, err := c.Convert(context.Background(), path)
	if !errors.Is(err, convert.ErrConversion) {
		t.Fatalf("expected ErrConversion, got %v", err)
	}
}

func TestMatchHeading(t *testing.T) {
	tests := []struct {
		name      string
		para      string
		wantTitle string
		wantLevel int
		wantOK    bool
	}{
		{
			name:      "titulo",
			para:      "TÍTULO II\nDos Direitos e Garantias",
			wantTitle: "TÍTULO II",
			wantLevel: 0,
			wantOK:    true,
		},
		{
			name:      "capitulo",
			para:      "Capítulo IV - Disposições Gerais",
			wantTitle: "Capítulo IV - Disposições Gerais",
			wantLevel: 1,
			wantOK:    true,
		},
		{
			name:      "secao",
			para:      "Seção I\nDa Fiscalização",
			wantTitle: "Seção I",
			wantLevel: 2,
			wantOK:    true,
		},
		{
			name:   "plain paragraph",
			para:   "Art. 5º Todos são iguais perante a lei.",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, level, ok := matchHeading(tt.para)
			if ok != tt.wantOK {
				t.Fatalf("matchHeading ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if title != tt.wantTitle {
				t.Errorf("title = %q, want %q", title, tt.wantTitle)
			}
			if level != tt.wantLevel {
				t.Errorf("level = %d, want %d", level, tt.wantLevel)
			}
		})
	}
}
