package rules

import "testing"

func TestParseCondition(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Condition
		wantErr bool
	}{
		{
			name: "legacy triple equals",
			raw:  `sponsorType === 'self'`,
			want: Condition{Field: "sponsorType", Operator: OperatorEqual, Literal: "self"},
		},
		{
			name: "legacy triple not equals",
			raw:  `employmentStatus !== 'employed'`,
			want: Condition{Field: "employmentStatus", Operator: OperatorNotEqual, Literal: "employed"},
		},
		{
			name: "double equals with double quotes",
			raw:  `tiesStrength == "strong"`,
			want: Condition{Field: "tiesStrength", Operator: OperatorEqual, Literal: "strong"},
		},
		{
			name: "unquoted literal",
			raw:  `travelHistory != none`,
			want: Condition{Field: "travelHistory", Operator: OperatorNotEqual, Literal: "none"},
		},
		{
			name:    "garbage",
			raw:     `if sponsor then maybe`,
			wantErr: true,
		},
		{
			name:    "unsupported operator",
			raw:     `age >= 18`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCondition(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCondition failed: %v", err)
			}
			if *got != tt.want {
				t.Errorf("got %+v, want %+v", *got, tt.want)
			}
		})
	}
}
