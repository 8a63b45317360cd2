package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReplaceNonFinite(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "no tokens",
			in:   `[{"a":1}]`,
			want: `[{"a":1}]`,
		},
		{
			name: "bare tokens",
			in:   `[{"a":NaN,"b":Infinity,"c":-Infinity}]`,
			want: `[{"a":null,"b":null,"c":null}]`,
		},
		{
			name: "pretty printed",
			in:   "[\n  {\n    \"tissue\": NaN\n  }\n]",
			want: "[\n  {\n    \"tissue\": null\n  }\n]",
		},
		{
			name: "inside strings",
			in:   `[{"NaN":"NaN and -Infinity","q":"say \"NaN\"","v":NaN}]`,
			want: `[{"NaN":"NaN and -Infinity","q":"say \"NaN\"","v":null}]`,
		},
		{
			name: "escaped backslash before quote",
			in:   `["a\\",NaN]`,
			want: `["a\\",null]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, string(ReplaceNonFinite([]byte(tt.in))))
		})
	}
}
