package folders

import "testing"

func TestNewRegistry(t *testing.T) {
	reg, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	if got := len(reg.List()); got != 3 {
		t.Fatalf("List() returned %d folders, want 3", got)
	}

	// Config order is preserved
	ids := []string{"1", "2", "3"}
	for i, f := range reg.List() {
		if f.ID != ids[i] {
			t.Errorf("List()[%d].ID = %q, want %q", i, f.ID, ids[i])
		}
	}
}

func TestRegistryLookups(t *testing.T) {
	reg, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	tests := []struct {
		id             string
		known          bool
		packageTracked bool
		packageSize    int
	}{
		{"1", true, false, 0},
		{"2", true, true, 10},
		{"3", true, true, 10},
		{"9", false, false, 0},
		{"", false, false, 0},
	}

	for _, tt := range tests {
		if got := reg.IsKnown(tt.id); got != tt.known {
			t.Errorf("IsKnown(%q) = %v, want %v", tt.id, got, tt.known)
		}
		if got := reg.IsPackageTracked(tt.id); got != tt.packageTracked {
			t.Errorf("IsPackageTracked(%q) = %v, want %v", tt.id, got, tt.packageTracked)
		}
		if got := reg.PackageSize(tt.id); got != tt.packageSize {
			t.Errorf("PackageSize(%q) = %d, want %d", tt.id, got, tt.packageSize)
		}
	}
}

func TestRegistryGet(t *testing.T) {
	reg, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	f, ok := reg.Get("2")
	if !ok {
		t.Fatal("Get(2) not found")
	}
	if f.Label == "" {
		t.Error("Get(2) returned a folder without a label")
	}

	if _, ok := reg.Get("missing"); ok {
		t.Error("Get(missing) = ok, want not found")
	}
}
