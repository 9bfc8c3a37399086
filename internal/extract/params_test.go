package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/codevision/internal/models"
)

func TestSplitParameters(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect []models.Parameter
	}{
		{
			name:   "empty",
			input:  "   ",
			expect: []models.Parameter{},
		},
		{
			name:  "nested generics stay whole",
			input: "a: Map<string, List<int>>, b",
			expect: []models.Parameter{
				{Name: "a", Type: "Map<string, List<int>>"},
				{Name: "b"},
			},
		},
		{
			name:  "defaults",
			input: "x = 1, y: number = 3",
			expect: []models.Parameter{
				{Name: "x", Default: "1"},
				{Name: "y", Type: "number", Default: "3"},
			},
		},
		{
			name:  "function type keeps its arrow",
			input: "cb: (err: Error, data: string) => void, opts",
			expect: []models.Parameter{
				{Name: "cb", Type: "(err: Error, data: string) => void"},
				{Name: "opts"},
			},
		},
		{
			name:  "tuple and array types",
			input: "pair: [number, string], rest",
			expect: []models.Parameter{
				{Name: "pair", Type: "[number, string]"},
				{Name: "rest"},
			},
		},
		{
			name:   "trailing comma",
			input:  "a, b,",
			expect: []models.Parameter{{Name: "a"}, {Name: "b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, SplitParameters(tt.input))
		})
	}
}

func TestSplitParameters_ArrowInsideGeneric(t *testing.T) {
	params := SplitParameters("fn: Array<(x: number) => string>, last")
	require.Len(t, params, 2)
	assert.Equal(t, "fn", params[0].Name)
	assert.Equal(t, "last", params[1].Name)
}

func TestParseParameter(t *testing.T) {
	tests := []struct {
		token  string
		expect models.Parameter
	}{
		{"name", models.Parameter{Name: "name"}},
		{"name: string", models.Parameter{Name: "name", Type: "string"}},
		{"count = 0", models.Parameter{Name: "count", Default: "0"}},
		{"  age : number = 3 ", models.Parameter{Name: "age", Type: "number", Default: "3"}},
		{"handler: () => void", models.Parameter{Name: "handler", Type: "() => void"}},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.expect, ParseParameter(tt.token))
		})
	}
}
