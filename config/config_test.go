package config

import "testing"

func TestParseIDList(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []int
		wantErr bool
	}{
		{"simple list", "50306,52215,52995", []int{50306, 52215, 52995}, false},
		{"spaces and trailing comma", " 1 , 2 ,3, ", []int{1, 2, 3}, false},
		{"empty string", "", nil, false},
		{"blank with spaces", "   ", nil, false},
		{"non-numeric entry", "1,abc,3", nil, true},
		{"zero ID", "1,0,3", nil, true},
		{"negative ID", "-5", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIDList(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseIDList(%q): expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseIDList(%q): unexpected error: %v", tt.in, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseIDList(%q) = %v; want %v", tt.in, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("ParseIDList(%q) = %v; want %v", tt.in, got, tt.want)
				}
			}
		})
	}
}

func TestDSN(t *testing.T) {
	c := &Config{
		PostgresHost:     "db.example.com",
		PostgresPort:     "5433",
		PostgresUser:     "scraper",
		PostgresPassword: "secret",
		PostgresDB:       "fal_db",
		PostgresSSLMode:  "require",
	}

	want := "host=db.example.com port=5433 user=scraper password=secret dbname=fal_db sslmode=require"
	if got := c.DSN(); got != want {
		t.Errorf("DSN: got %q, want %q", got, want)
	}
}
