package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsPointCloudName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"survey.las", true},
		{"survey.laz", true},
		{"survey.LAS", false}, // extension check is case-sensitive
		{"survey.LAZ", false},
		{"survey.las.txt", false},
		{"survey.xyz", false},
		{"las", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsPointCloudName(tt.name); got != tt.want {
			t.Errorf("IsPointCloudName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCheckPointCloudFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "ok.las")
	if err := os.WriteFile(good, []byte("LASF"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := CheckPointCloudFile(good); err != nil {
		t.Errorf("CheckPointCloudFile(valid) error = %v", err)
	}

	empty := filepath.Join(dir, "empty.las")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := CheckPointCloudFile(empty); err == nil {
		t.Error("CheckPointCloudFile(empty) error = nil, want non-nil")
	}

	if _, err := CheckPointCloudFile(filepath.Join(dir, "missing.las")); err == nil {
		t.Error("CheckPointCloudFile(missing) error = nil, want non-nil")
	}

	wrongExt := filepath.Join(dir, "scan.txt")
	if err := os.WriteFile(wrongExt, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := CheckPointCloudFile(wrongExt); err == nil {
		t.Error("CheckPointCloudFile(wrong extension) error = nil, want non-nil")
	}
}
