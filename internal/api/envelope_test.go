package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/conductor/internal/tcmtest"
)

func TestStripNS(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ns1.name", "name"},
		{"ns2.resourceIdentity", "resourceIdentity"},
		{"name", "name"},
		{"@xsi.type", "@xsi.type"},
		{"@id", "@id"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripNS(tt.in))
	}
}

func TestParseIdentity(t *testing.T) {
	t.Run("object form", func(t *testing.T) {
		ident := parseIdentity(map[string]any{
			"@id":      float64(3),
			"@version": "1",
			"@url":     "http://example.com/rest/widgets/3",
		})
		require.NotNil(t, ident)
		assert.Equal(t, "3", ident.ID)
		assert.Equal(t, "1", ident.Version)
		assert.Equal(t, "http://example.com/rest/widgets/3", ident.URL)
	})

	t.Run("single element array form", func(t *testing.T) {
		ident := parseIdentity([]any{map[string]any{"@id": "4", "@version": "0", "@url": ""}})
		require.NotNil(t, ident)
		assert.Equal(t, "4", ident.ID)
	})

	t.Run("absent", func(t *testing.T) {
		assert.Nil(t, parseIdentity(nil))
		assert.Nil(t, parseIdentity("3"))
	})
}

func TestDecodeResource(t *testing.T) {
	t.Run("wrapped resource", func(t *testing.T) {
		body := tcmtest.Body("widget", tcmtest.Fields{
			"name":             "one",
			"rank":             2,
			"resourceIdentity": tcmtest.Identity("1", "2", "http://example.com/rest/widgets/1"),
		})

		w := &widget{}
		ident, err := decodeResource(body, "widget", w)
		require.NoError(t, err)
		require.NotNil(t, ident)
		assert.Equal(t, "1", ident.ID)
		assert.Equal(t, "2", ident.Version)
		assert.Equal(t, "one", w.Name)
		assert.Equal(t, 2, w.Rank)
	})

	t.Run("bare object without wrapper", func(t *testing.T) {
		w := &widget{}
		ident, err := decodeResource([]byte(`{"ns1.name":"two"}`), "widget", w)
		require.NoError(t, err)
		assert.Nil(t, ident)
		assert.Equal(t, "two", w.Name)
	})

	t.Run("empty body leaves target untouched", func(t *testing.T) {
		w := &widget{Name: "keep"}
		ident, err := decodeResource(nil, "widget", w)
		require.NoError(t, err)
		assert.Nil(t, ident)
		assert.Equal(t, "keep", w.Name)
	})

	t.Run("non-object body fails", func(t *testing.T) {
		w := &widget{}
		_, err := decodeResource([]byte(`"nope"`), "widget", w)
		require.Error(t, err)
	})

	t.Run("invalid json fails", func(t *testing.T) {
		w := &widget{}
		_, err := decodeResource([]byte(`{`), "widget", w)
		require.Error(t, err)
	})
}

func TestDecodeListSearchResult(t *testing.T) {
	body := tcmtest.SearchResult("widgets", "widget",
		tcmtest.Fields{"name": "one", "resourceIdentity": tcmtest.Identity("1", "0", "")},
		tcmtest.Fields{"name": "two", "resourceIdentity": tcmtest.Identity("2", "0", "")},
	)

	entries, total, err := decodeList(body, "widgets", "widget")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, entries, 2)
	assert.Equal(t, "one", entries[0]["name"])
	assert.Equal(t, "two", entries[1]["name"])
}

func TestDecodeListTotalBeyondPage(t *testing.T) {
	// totalResults reports the full match count, not the page size.
	body := []byte(`{"ns1.searchresult":[{"ns1.totalResults":"12","ns1.widgets":{"ns1.widget":[{"ns1.name":"one"}]}}]}`)

	entries, total, err := decodeList(body, "widgets", "widget")
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.Len(t, entries, 1)
}

func TestDecodeListSingleEntryObject(t *testing.T) {
	// A one-entry result may arrive as an object instead of an array.
	body := []byte(`{"ns1.searchresult":[{"ns1.totalResults":1,"ns1.widgets":{"ns1.widget":{"ns1.name":"one"}}}]}`)

	entries, total, err := decodeList(body, "widgets", "widget")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, entries, 1)
	assert.Equal(t, "one", entries[0]["name"])
}

func TestDecodeListEmpty(t *testing.T) {
	body := []byte(`{"ns1.searchresult":[{"ns1.totalResults":0}]}`)

	entries, total, err := decodeList(body, "widgets", "widget")
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, entries)
}

func TestDecodeListBareArray(t *testing.T) {
	body := tcmtest.Array(
		tcmtest.Fields{"name": "one"},
		tcmtest.Fields{"name": "two"},
	)

	entries, total, err := decodeList(body, "widgets", "widget")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, entries, 2)
	assert.Equal(t, "one", entries[0]["name"])
}

func TestDecodeBoolean(t *testing.T) {
	tests := []struct {
		name    string
		body    []byte
		want    bool
		wantErr bool
	}{
		{name: "envelope true", body: tcmtest.BooleanBody(true), want: true},
		{name: "envelope false", body: tcmtest.BooleanBody(false), want: false},
		{name: "bare bool", body: []byte(`true`), want: true},
		{name: "empty body", body: nil, want: false},
		{name: "garbage value", body: []byte(`{"ns1.boolean":[{"$":"maybe"}]}`), wantErr: true},
		{name: "wrong shape", body: []byte(`[1]`), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeBoolean(tt.body)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
