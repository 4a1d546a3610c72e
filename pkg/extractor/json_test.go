package extractor

import "testing"

func TestExtractJSONPayload(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "json fence",
			raw:  "Here is the result:\n```json\n{\"requirements\": []}\n```\nDone.",
			want: `{"requirements": []}`,
		},
		{
			name: "plain fence",
			raw:  "```\n{\"requirements\": []}\n```",
			want: `{"requirements": []}`,
		},
		{
			name: "bare object with surrounding prose",
			raw:  `The extracted rules are {"requirements": [{"documentType": "passport"}]} as requested.`,
			want: `{"requirements": [{"documentType": "passport"}]}`,
		},
		{
			name: "braces inside string values",
			raw:  `{"description": "use {curly} braces", "n": 1}`,
			want: `{"description": "use {curly} braces", "n": 1}`,
		},
		{
			name: "nested objects",
			raw:  `prefix {"a": {"b": {"c": 1}}} suffix`,
			want: `{"a": {"b": {"c": 1}}}`,
		},
		{
			name:    "no json at all",
			raw:     "I could not find any requirements on this page.",
			wantErr: true,
		},
		{
			name:    "unbalanced object",
			raw:     `{"requirements": [`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSONPayload(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractJSONPayload failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
