package api

import (
	"net/url"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnakeCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Name", "name"},
		{"SubmitAs", "submit_as"},
		{"UseLatestVersions", "use_latest_versions"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, snakeCase(tt.in))
	}
}

func TestLowerFirst(t *testing.T) {
	assert.Equal(t, "testCase", lowerFirst("TestCase"))
	assert.Equal(t, "", lowerFirst(""))
}

func TestFieldsOf(t *testing.T) {
	specs := fieldsOf(reflect.TypeFor[widget]())

	byName := make(map[string]fieldSpec)
	for _, spec := range specs {
		byName[spec.goName] = spec
	}

	// The embedded base and "-" fields are not mapped.
	assert.NotContains(t, byName, "Resource")
	assert.NotContains(t, byName, "Internal")

	assert.Equal(t, "submitAs", byName["SubmitAs"].apiName)
	assert.Equal(t, "submit_as", byName["SubmitAs"].paramName)
	assert.True(t, byName["SubmitAs"].filterable)
	assert.True(t, byName["Active"].readonly)
	assert.False(t, byName["Rank"].filterable)
}

func TestFilterableFields(t *testing.T) {
	fields := filterableFields(reflect.TypeFor[widget]())

	assert.Equal(t, map[string]string{
		"name":      "name",
		"submit_as": "submitAs",
		"company":   "companyId",
	}, fields)
}

func TestFormValues(t *testing.T) {
	w := &widget{
		Name:     "one",
		SubmitAs: "draft",
		Rank:     3,
		Tags:     []string{"a", "b"},
		Active:   true,
		Internal: "hidden",
	}

	vals := formValues(w)

	assert.Equal(t, "one", vals.Get("name"))
	assert.Equal(t, "draft", vals.Get("submitAs"))
	assert.Equal(t, "3", vals.Get("rank"))
	assert.Equal(t, []string{"a", "b"}, vals["tags"])

	// Readonly, skipped, and zero-valued fields never appear.
	assert.NotContains(t, vals, "active")
	assert.NotContains(t, vals, "Internal")
	assert.NotContains(t, vals, "companyId")
}

func TestFieldValues(t *testing.T) {
	w := &widget{Name: "one", Tags: []string{"a", "b"}}

	assert.Equal(t, map[string]string{
		"name": "one",
		"tags": "a, b",
	}, FieldValues(w))
}

func TestSetFields(t *testing.T) {
	w := &widget{}
	err := setFields(w, map[string]any{
		"name":      "one",
		"submitAs":  "draft",
		"companyId": float64(7),
		"rank":      float64(3),
		"tags":      []any{"a", "b"},
		"active":    "true",
	})
	require.NoError(t, err)

	assert.Equal(t, "one", w.Name)
	assert.Equal(t, "draft", w.SubmitAs)
	assert.Equal(t, "7", w.Company)
	assert.Equal(t, 3, w.Rank)
	assert.Equal(t, []string{"a", "b"}, w.Tags)
	assert.True(t, w.Active)
}

func TestSetFieldsCoercions(t *testing.T) {
	tests := []struct {
		name    string
		data    map[string]any
		wantErr bool
		check   func(t *testing.T, w *widget)
	}{
		{
			name: "int from wire string",
			data: map[string]any{"rank": "5"},
			check: func(t *testing.T, w *widget) {
				assert.Equal(t, 5, w.Rank)
			},
		},
		{
			name: "bool from native bool",
			data: map[string]any{"active": true},
			check: func(t *testing.T, w *widget) {
				assert.True(t, w.Active)
			},
		},
		{
			name: "single value fills a slice",
			data: map[string]any{"tags": "only"},
			check: func(t *testing.T, w *widget) {
				assert.Equal(t, []string{"only"}, w.Tags)
			},
		},
		{
			name: "nil values are skipped",
			data: map[string]any{"name": nil},
			check: func(t *testing.T, w *widget) {
				assert.Empty(t, w.Name)
			},
		},
		{
			name:    "unparseable int fails",
			data:    map[string]any{"rank": "many"},
			wantErr: true,
		},
		{
			name:    "unparseable bool fails",
			data:    map[string]any{"active": "maybe"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &widget{}
			err := setFields(w, tt.data)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, w)
		})
	}
}

func TestToString(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"s", "s"},
		{float64(3), "3"},
		{float64(3.5), "3.5"},
		{true, "true"},
		{nil, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, toString(tt.in))
	}
}

func TestFormValuesEncodesForWire(t *testing.T) {
	w := &widget{Name: "a b", SubmitAs: "x&y"}
	encoded := formValues(w).Encode()

	parsed, err := url.ParseQuery(encoded)
	require.NoError(t, err)
	assert.Equal(t, "a b", parsed.Get("name"))
	assert.Equal(t, "x&y", parsed.Get("submitAs"))
}
