package respath

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMapExample(t *testing.T) {
	got, err := Map("MyNamespace.MySubnamespace", "MyNamespace.MySubnamespace.MyFolder1.MyFolder2.MyFile.txt", string(filepath.Separator)+"temp")
	if err != nil {
		t.Fatalf("map error: %v", err)
	}
	want, _ := filepath.Abs(filepath.Join(string(filepath.Separator)+"temp", "MyFolder1", "MyFolder2", "MyFile.txt"))
	if got != want {
		t.Fatalf("mapped path mismatch: got %s want %s", got, want)
	}
}

func TestMapDeterministic(t *testing.T) {
	first, err := Map("App.Pages", "App.Pages.Shop.Cart.aspx", "/tmp/cache-root")
	if err != nil {
		t.Fatalf("map error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Map("App.Pages", "App.Pages.Shop.Cart.aspx", "/tmp/cache-root")
		if err != nil {
			t.Fatalf("map error on repeat %d: %v", i, err)
		}
		if again != first {
			t.Fatalf("mapping not deterministic: %s vs %s", again, first)
		}
	}
}

func TestMapNoInnerPeriods(t *testing.T) {
	got, err := Map("App", "App.Default.aspx", "/tmp/root")
	if err != nil {
		t.Fatalf("map error: %v", err)
	}
	want, _ := filepath.Abs(filepath.Join("/tmp/root", "Default.aspx"))
	if got != want {
		t.Fatalf("mapped path mismatch: got %s want %s", got, want)
	}
}

func TestMapEmptyDestRootUsesWorkingDirectory(t *testing.T) {
	got, err := Map("App", "App.Pages.Index.aspx", "")
	if err != nil {
		t.Fatalf("map error: %v", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd error: %v", err)
	}
	want := filepath.Join(cwd, "Pages", "Index.aspx")
	if got != want {
		t.Fatalf("mapped path mismatch: got %s want %s", got, want)
	}
}

func TestMapPrefixMismatch(t *testing.T) {
	cases := []struct {
		name string
		root string
		id   string
	}{
		{"unrelated root", "Other.Pages", "App.Pages.Index.aspx"},
		{"root appears mid identifier", "MySubnamespace", "MyNamespace.MySubnamespace.MyFolder1.MyFile.txt"},
		{"root equals identifier", "App.Pages", "App.Pages"},
	}
	for _, tc := range cases {
		if _, err := Map(tc.root, tc.id, "/tmp"); !errors.Is(err, ErrPrefixMismatch) {
			t.Fatalf("%s: expected ErrPrefixMismatch, got %v", tc.name, err)
		}
	}
}

func TestMapInvalidArguments(t *testing.T) {
	cases := []struct {
		name string
		root string
		id   string
	}{
		{"empty root", "", "App.Index.aspx"},
		{"empty identifier", "App", ""},
		{"root leading period", ".App", "App.Index.aspx"},
		{"root trailing period", "App.", "App.Index.aspx"},
		{"root doubled period", "App..Pages", "App..Pages.Index.aspx"},
		{"identifier leading period", "App", ".App.Index.aspx"},
		{"identifier trailing period", "App", "App.Index."},
		{"identifier doubled period", "App", "App..Index.aspx"},
	}
	for _, tc := range cases {
		if _, err := Map(tc.root, tc.id, "/tmp"); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("%s: expected ErrInvalidArgument, got %v", tc.name, err)
		}
	}
}

func TestMapValidationOrderRootFirst(t *testing.T) {
	// Both arguments malformed: the namespace root must be rejected first.
	_, err := Map("", "App..Index.aspx", "/tmp")
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if !strings.Contains(err.Error(), "namespace root") {
		t.Fatalf("error should mention the namespace root: %v", err)
	}
}
