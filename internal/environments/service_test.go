package environments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/conductor/internal/api"
	"github.com/ternarybob/conductor/internal/common"
	"github.com/ternarybob/conductor/internal/tcm"
	"github.com/ternarybob/conductor/internal/tcmtest"
)

func newTestService(s *tcmtest.Server) *Service {
	c := api.NewClient(s.BaseURL(), api.WithCompany("1"))
	return NewService(c, common.GetLogger())
}

func stubElement(s *tcmtest.Server, id, name, categoryID string) {
	s.Stub("GET", "/rest/environmenttypes/elements/"+id, 200, tcmtest.Body("environmenttypeelement", tcmtest.Fields{
		"name":             name,
		"categoryId":       categoryID,
		"resourceIdentity": tcmtest.Identity(id, "0", s.BaseURL()+"environmenttypes/elements/"+id),
	}))
}

func requestsFor(s *tcmtest.Server, method, path string) []tcmtest.CapturedRequest {
	var out []tcmtest.CapturedRequest
	for _, req := range s.Requests() {
		if req.Method == method && req.Path == path {
			out = append(out, req)
		}
	}
	return out
}

func TestCreateProfile(t *testing.T) {
	s := tcmtest.NewServer()
	defer s.Close()
	svc := newTestService(s)

	stubElement(s, "1", "Windows", "1")
	stubElement(s, "2", "Linux", "1")
	stubElement(s, "3", "Firefox", "2")

	s.Stub("GET", "/rest/environmentprofiles", 200, tcmtest.Array())
	s.Stub("POST", "/rest/environmentprofiles", 201, tcmtest.Body("profile", tcmtest.Fields{
		"name":             "Desktop matrix",
		"resourceIdentity": tcmtest.Identity("4", "0", s.BaseURL()+"environmentprofiles/4"),
	}))
	s.Stub("GET", "/rest/environmentprofiles/4/environments", 200, tcmtest.Array())
	s.Stub("POST", "/rest/environmentprofiles/4/environments", 201, tcmtest.Body("environment", tcmtest.Fields{
		"resourceIdentity": tcmtest.Identity("10", "0", ""),
	}))

	profile, err := svc.CreateProfile(context.Background(), ProfileInput{
		Name:       "Desktop matrix",
		ElementIDs: []string{"1", "2", "3"},
	})
	require.NoError(t, err)
	assert.Equal(t, "4", profile.ID())

	created := requestsFor(s, "POST", "/rest/environmentprofiles")
	require.Len(t, created, 1)
	assert.Equal(t, "Desktop matrix", created[0].Form.Get("name"))
	assert.Equal(t, "1", created[0].Form.Get("companyId"))

	// One element per category: {Windows, Linux} x {Firefox}.
	envPosts := requestsFor(s, "POST", "/rest/environmentprofiles/4/environments")
	require.Len(t, envPosts, 2)
	assert.Equal(t, "Windows, Firefox", envPosts[0].Form.Get("name"))
	assert.Equal(t, []string{"1", "3"}, envPosts[0].Form["elementIds"])
	assert.Equal(t, "4", envPosts[0].Form.Get("profileId"))
	assert.Equal(t, "Linux, Firefox", envPosts[1].Form.Get("name"))
	assert.Equal(t, []string{"2", "3"}, envPosts[1].Form["elementIds"])
}

func TestCreateProfileValidation(t *testing.T) {
	s := tcmtest.NewServer()
	defer s.Close()
	svc := newTestService(s)

	_, err := svc.CreateProfile(context.Background(), ProfileInput{Name: "", ElementIDs: []string{"1"}})
	require.Error(t, err)

	_, err = svc.CreateProfile(context.Background(), ProfileInput{Name: "x"})
	require.Error(t, err)

	assert.Equal(t, 0, s.RequestCount(), "invalid input never reaches the platform")
}

func TestPopulateVersionEnvironmentsFromProfile(t *testing.T) {
	s := tcmtest.NewServer()
	defer s.Close()
	svc := newTestService(s)

	s.Stub("GET", "/rest/environmentprofiles/5/environments", 200, tcmtest.Array(
		tcmtest.Fields{"name": "Windows, Firefox", "resourceIdentity": tcmtest.Identity("10", "0", "")},
		tcmtest.Fields{"name": "Linux, Firefox", "resourceIdentity": tcmtest.Identity("11", "0", "")},
	))
	s.Stub("PUT", "/rest/productversions/2/environments", 204, nil)

	require.NoError(t, svc.PopulateVersionEnvironments(context.Background(), "2", "profile-5"))

	puts := requestsFor(s, "PUT", "/rest/productversions/2/environments")
	require.Len(t, puts, 1)
	assert.Equal(t, []string{"10", "11"}, puts[0].Form["environmentIds"])
}

func TestPopulateVersionEnvironmentsFromVersion(t *testing.T) {
	s := tcmtest.NewServer()
	defer s.Close()
	svc := newTestService(s)

	s.Stub("GET", "/rest/productversions/2", 200, tcmtest.Body("productversion", tcmtest.Fields{
		"version":          "2.0",
		"productId":        7,
		"resourceIdentity": tcmtest.Identity("2", "0", s.BaseURL()+"productversions/2"),
	}))
	s.Stub("GET", "/rest/productversions/9", 200, tcmtest.Body("productversion", tcmtest.Fields{
		"version":          "1.0",
		"productId":        7,
		"resourceIdentity": tcmtest.Identity("9", "0", s.BaseURL()+"productversions/9"),
	}))
	s.Stub("GET", "/rest/productversions/9/environments", 200, tcmtest.Array(
		tcmtest.Fields{"name": "Windows, Firefox", "resourceIdentity": tcmtest.Identity("10", "0", "")},
	))
	s.Stub("PUT", "/rest/productversions/2/environments", 204, nil)

	require.NoError(t, svc.PopulateVersionEnvironments(context.Background(), "2", "productversion-9"))

	puts := requestsFor(s, "PUT", "/rest/productversions/2/environments")
	require.Len(t, puts, 1)
	assert.Equal(t, []string{"10"}, puts[0].Form["environmentIds"])
}

func TestPopulateVersionEnvironmentsProductMismatch(t *testing.T) {
	s := tcmtest.NewServer()
	defer s.Close()
	svc := newTestService(s)

	s.Stub("GET", "/rest/productversions/2", 200, tcmtest.Body("productversion", tcmtest.Fields{
		"version":          "2.0",
		"productId":        7,
		"resourceIdentity": tcmtest.Identity("2", "0", ""),
	}))
	s.Stub("GET", "/rest/productversions/9", 200, tcmtest.Body("productversion", tcmtest.Fields{
		"version":          "1.0",
		"productId":        8,
		"resourceIdentity": tcmtest.Identity("9", "0", ""),
	}))

	err := svc.PopulateVersionEnvironments(context.Background(), "2", "productversion-9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "different product")
	assert.Empty(t, requestsFor(s, "PUT", "/rest/productversions/2/environments"))
}

func TestPopulateVersionEnvironmentsBadSource(t *testing.T) {
	s := tcmtest.NewServer()
	defer s.Close()
	svc := newTestService(s)

	tests := []string{"", "profile", "profile-", "profile-abc", "cycle-3"}
	for _, source := range tests {
		err := svc.PopulateVersionEnvironments(context.Background(), "2", source)
		require.Error(t, err, "source %q", source)
		assert.Contains(t, err.Error(), "invalid environment source")
	}
	assert.Equal(t, 0, s.RequestCount())
}

func TestCombinations(t *testing.T) {
	windows := &tcm.Element{Name: "Windows"}
	linux := &tcm.Element{Name: "Linux"}
	firefox := &tcm.Element{Name: "Firefox"}
	chrome := &tcm.Element{Name: "Chrome"}

	tests := []struct {
		name   string
		groups [][]*tcm.Element
		want   []string
	}{
		{
			name: "two by two",
			groups: [][]*tcm.Element{
				{windows, linux},
				{firefox, chrome},
			},
			want: []string{
				"Windows, Firefox",
				"Windows, Chrome",
				"Linux, Firefox",
				"Linux, Chrome",
			},
		},
		{
			name:   "single group",
			groups: [][]*tcm.Element{{windows, linux}},
			want:   []string{"Windows", "Linux"},
		},
		{
			name:   "no groups",
			groups: nil,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, combo := range combinations(tt.groups) {
				got = append(got, environmentName(combo))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
