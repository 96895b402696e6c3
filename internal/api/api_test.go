package api

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ternarybob/conductor/internal/tcmtest"
)

// widget is the resource type used throughout these tests.
type widget struct {
	Resource
	Name     string   `api:"name,filterable"`
	SubmitAs string   `api:"submitAs,filterable"`
	Company  string   `api:"companyId,filterable"`
	Rank     int      `api:"rank"`
	Tags     []string `api:"tags"`
	Active   bool     `api:"active,readonly"`
	Internal string   `api:"-"`
}

func (*widget) TypeName() string { return "widget" }

// volatileWidget opts out of response caching.
type volatileWidget struct {
	widget
}

func (*volatileWidget) Uncacheable() {}

func widgets() *ListOf[widget, *widget] {
	return NewList[widget, *widget](ListSpec{DefaultURL: "widgets"})
}

func widgetFields(name string) tcmtest.Fields {
	return tcmtest.Fields{
		"name":             name,
		"submitAs":         "draft",
		"rank":             3,
		"resourceIdentity": tcmtest.Identity("1", "2", ""),
	}
}

// fetchWidget stubs and performs the canonical single-resource fetch.
func fetchWidget(t *testing.T, s *tcmtest.Server, c *Client) *widget {
	t.Helper()
	s.Stub("GET", "/rest/widgets/1", 200, tcmtest.Body("widget", tcmtest.Fields{
		"name":             "one",
		"submitAs":         "draft",
		"resourceIdentity": tcmtest.Identity("1", "2", s.BaseURL()+"widgets/1"),
	}))

	w := &widget{}
	require.NoError(t, c.Get(context.Background(), "widgets/1", w))
	return w
}
