package updater

import "testing"

func TestUpdateAvailable(t *testing.T) {
	tests := []struct {
		name    string
		current string
		remote  string
		want    bool
	}{
		{"equal", "1.0", "1.0", false},
		{"newer", "1.0", "2.0", true},
		{"older still counts", "1.0", "0.9", true},
		{"format difference counts", "1.0", "1.0.0", true},
		{"case difference counts", "1.0-RC1", "1.0-rc1", true},
		{"whitespace counts", "1.0", " 1.0", true},
		{"trailing whitespace counts", "1.0", "1.0 ", true},
		{"non-numeric noise counts", "1.0", "1.O", true},
		{"both empty", "", "", false},
		{"empty remote counts", "1.0", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UpdateAvailable(tt.current, tt.remote); got != tt.want {
				t.Errorf("UpdateAvailable(%q, %q) = %v, want %v", tt.current, tt.remote, got, tt.want)
			}
			// The contract is exactly string inequality.
			if got := UpdateAvailable(tt.current, tt.remote); got != (tt.current != tt.remote) {
				t.Errorf("UpdateAvailable(%q, %q) diverges from string inequality", tt.current, tt.remote)
			}
		})
	}
}
