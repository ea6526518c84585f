package gpu

import (
	"reflect"
	"testing"
)

// TestParseList verifies nvidia-smi -L output parsing
func TestParseList(t *testing.T) {
	out := `GPU 0: NVIDIA A100-SXM4-40GB (UUID: GPU-1ab2c3d4)
GPU 1: NVIDIA A100-SXM4-40GB (UUID: GPU-5ef6a7b8)
GPU 2: Tesla T4 (UUID: GPU-9cd0e1f2)
`
	devices := parseList(out)

	if len(devices) != 3 {
		t.Fatalf("Expected 3 devices, got %d", len(devices))
	}
	if devices[0].Index != 0 || devices[0].Name != "NVIDIA A100-SXM4-40GB" {
		t.Errorf("Unexpected device 0: %+v", devices[0])
	}
	if devices[2].Index != 2 || devices[2].Name != "Tesla T4" {
		t.Errorf("Unexpected device 2: %+v", devices[2])
	}
}

// TestParseListGarbage verifies unrelated lines are ignored
func TestParseListGarbage(t *testing.T) {
	out := "Driver mismatch warning\n\nGPU x: broken line\n"
	if devices := parseList(out); len(devices) != 0 {
		t.Errorf("Expected no devices, got %v", devices)
	}
}

// TestParseIDList verifies comma-separated id parsing and its error cases
func TestParseIDList(t *testing.T) {
	ids, err := ParseIDList("0, 1,2,3")
	if err != nil {
		t.Fatalf("ParseIDList failed: %v", err)
	}
	if !reflect.DeepEqual(ids, []int{0, 1, 2, 3}) {
		t.Errorf("Expected [0 1 2 3], got %v", ids)
	}

	if _, err := ParseIDList("0,x"); err == nil {
		t.Error("Expected error for non-numeric id")
	}
	if _, err := ParseIDList("-1"); err == nil {
		t.Error("Expected error for negative id")
	}
	if _, err := ParseIDList(""); err == nil {
		t.Error("Expected error for empty list")
	}
}
