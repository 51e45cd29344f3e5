package models

import "testing"

func TestComputeStatusMgDl(t *testing.T) {
	tests := []struct {
		value float64
		want  GlucoseStatus
	}{
		{40, StatusCriticalLow},
		{53.9, StatusCriticalLow},
		{54, StatusLow},
		{69.9, StatusLow},
		{70, StatusNormal},
		{142, StatusNormal},
		{180, StatusNormal},
		{180.1, StatusHigh},
		{250, StatusHigh},
		{250.1, StatusCriticalHigh},
		{400, StatusCriticalHigh},
	}
	for _, tt := range tests {
		if got := ComputeStatus(tt.value, UnitMgDl); got != tt.want {
			t.Errorf("ComputeStatus(%v, mg/dL) = %s, want %s", tt.value, got, tt.want)
		}
	}
}

func TestComputeStatusMmolL(t *testing.T) {
	tests := []struct {
		value float64
		want  GlucoseStatus
	}{
		{2.5, StatusCriticalLow},
		{3.5, StatusLow},
		{5.5, StatusNormal},
		{10.0, StatusNormal},
		{12.0, StatusHigh},
		{15.0, StatusCriticalHigh},
	}
	for _, tt := range tests {
		if got := ComputeStatus(tt.value, UnitMmolL); got != tt.want {
			t.Errorf("ComputeStatus(%v, mmol/L) = %s, want %s", tt.value, got, tt.want)
		}
	}
}

func TestIsValidUnit(t *testing.T) {
	if !IsValidUnit(UnitMgDl) || !IsValidUnit(UnitMmolL) {
		t.Error("standard units should be valid")
	}
	if IsValidUnit("mg") || IsValidUnit("") {
		t.Error("unknown units should be invalid")
	}
}

func TestIsLocalOnly(t *testing.T) {
	r := Reading{ID: "local-1"}
	if !r.IsLocalOnly() {
		t.Error("reading without backend id should be local-only")
	}
	r.BackendID = "b-1"
	if r.IsLocalOnly() {
		t.Error("reading with backend id should not be local-only")
	}
}

func TestIsValidPolicy(t *testing.T) {
	for _, p := range []ResolutionPolicy{KeepMine, KeepServer, KeepBoth} {
		if !IsValidPolicy(p) {
			t.Errorf("policy %s should be valid", p)
		}
	}
	if IsValidPolicy("merge") {
		t.Error("unknown policy should be invalid")
	}
}
