package jsonld

import "testing"

func TestProcessingMode_IsValid(t *testing.T) {
	tests := []struct {
		mode ProcessingMode
		want bool
	}{
		{ProcessingModeJSONLD10, true},
		{ProcessingModeJSONLD11, true},
		{"json-ld-2.0", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := tt.mode.IsValid(); got != tt.want {
			t.Errorf("%q.IsValid() = %v; want %v", tt.mode, got, tt.want)
		}
	}
}

func TestProcessingMode_Allows11(t *testing.T) {
	if ProcessingModeJSONLD10.Allows11() {
		t.Error("1.0 mode should not allow 1.1 features")
	}
	if !ProcessingModeJSONLD11.Allows11() {
		t.Error("1.1 mode should allow 1.1 features")
	}
}

func TestState(t *testing.T) {
	if !StateDone.Terminal() || !StateFailed.Terminal() {
		t.Error("Done and Failed are terminal")
	}
	if StateWalking.Terminal() || StateLoaderWait.Terminal() {
		t.Error("Walking and LoaderWait are not terminal")
	}
	if StateLoaderWait.String() != "loader-wait" {
		t.Errorf("String() = %q", StateLoaderWait.String())
	}
}
