package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryExposesBuiltinTools(t *testing.T) {
	reg, err := NewDefaultRegistry(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, reg.Len())

	_, ok := reg.Lookup(ToolSearch)
	assert.True(t, ok)
	_, ok = reg.Lookup(ToolCalculator)
	assert.True(t, ok)
	_, ok = reg.Lookup("nope")
	assert.False(t, ok)

	infos := reg.Infos()
	require.Len(t, infos, 2)
	assert.Equal(t, ToolSearch, infos[0].Name)
	assert.Equal(t, ToolCalculator, infos[1].Name)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(context.Background(), createSearchTool(), createSearchTool())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate tool")
}

func TestSearchToolFindsArticles(t *testing.T) {
	reg, err := NewDefaultRegistry(context.Background())
	require.NoError(t, err)
	search, ok := reg.Lookup(ToolSearch)
	require.True(t, ok)

	out, err := search.InvokableRun(context.Background(), `{"query":"return"}`)
	require.NoError(t, err)

	var result SearchOutput
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.NotEmpty(t, result.Results)
	assert.Equal(t, "kb-001", result.Results[0].ID)
}

func TestSearchToolRequiresQuery(t *testing.T) {
	reg, err := NewDefaultRegistry(context.Background())
	require.NoError(t, err)
	search, _ := reg.Lookup(ToolSearch)

	_, err = search.InvokableRun(context.Background(), `{"query":"  "}`)
	require.Error(t, err)
}

func TestCalculatorTool(t *testing.T) {
	reg, err := NewDefaultRegistry(context.Background())
	require.NoError(t, err)
	calc, _ := reg.Lookup(ToolCalculator)

	cases := []struct {
		args    string
		want    float64
		wantErr bool
	}{
		{`{"operation":"add","a":2,"b":3}`, 5, false},
		{`{"operation":"subtract","a":10,"b":4}`, 6, false},
		{`{"operation":"multiply","a":2.5,"b":4}`, 10, false},
		{`{"operation":"divide","a":9,"b":3}`, 3, false},
		{`{"operation":"divide","a":1,"b":0}`, 0, true},
		{`{"operation":"modulo","a":1,"b":2}`, 0, true},
	}
	for _, tc := range cases {
		out, err := calc.InvokableRun(context.Background(), tc.args)
		if tc.wantErr {
			assert.Error(t, err, tc.args)
			continue
		}
		require.NoError(t, err, tc.args)
		var result CalculatorOutput
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.Equal(t, tc.want, result.Result, tc.args)
	}
}
