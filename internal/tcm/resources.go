// Package tcm declares the typed Case Conductor resources: companies,
// products, users, test artifacts, and the environment model. Wire names
// and filterable fields are declared with `api` struct tags.
package tcm

import (
	"github.com/ternarybob/conductor/internal/api"
)

// Company is the owning organization of products and users.
type Company struct {
	api.Resource
	Name    string `api:"name,filterable"`
	Address string `api:"address"`
	City    string `api:"city"`
	Country string `api:"countryId"`
	Phone   string `api:"phone"`
	URL     string `api:"url"`
	Zip     string `api:"zip"`
}

func (*Company) TypeName() string { return "company" }

// Product is a product under test.
type Product struct {
	api.Resource
	Name        string `api:"name,filterable"`
	Description string `api:"description,filterable"`
	Company     string `api:"companyId,filterable"`
}

func (*Product) TypeName() string { return "product" }

// ProductVersion is one version of a product; environments attach to it.
type ProductVersion struct {
	api.Resource
	Version string `api:"version,filterable"`
	Product string `api:"productId,filterable"`
}

func (*ProductVersion) TypeName() string { return "productversion" }

// User is a platform account.
type User struct {
	api.Resource
	FirstName  string `api:"firstName,filterable"`
	LastName   string `api:"lastName,filterable"`
	Email      string `api:"email,filterable"`
	ScreenName string `api:"screenName,filterable"`
	Company    string `api:"companyId,filterable"`
}

func (*User) TypeName() string { return "user" }

// TestCase is a single test case. Activation moves it through its
// lifecycle states.
type TestCase struct {
	api.Resource
	Name        string `api:"name,filterable"`
	Description string `api:"description"`
	Product     string `api:"productId,filterable"`
	Status      string `api:"testCaseStatusId,readonly"`
}

func (*TestCase) TypeName() string { return "testcase" }

// TestSuite is an ordered collection of test cases.
type TestSuite struct {
	api.Resource
	Name              string `api:"name,filterable"`
	Description       string `api:"description"`
	Product           string `api:"productId,filterable"`
	Company           string `api:"companyId,filterable"`
	UseLatestVersions bool   `api:"useLatestVersions"`
	Status            string `api:"testSuiteStatusId,readonly"`
}

func (*TestSuite) TypeName() string { return "testsuite" }

// TestCycle groups test runs for a product over a date range.
type TestCycle struct {
	api.Resource
	Name                   string `api:"name,filterable"`
	Description            string `api:"description"`
	Product                string `api:"productId,filterable"`
	StartDate              string `api:"startDate"`
	EndDate                string `api:"endDate"`
	CommunityAccessAllowed bool   `api:"communityAccessAllowed"`
	Status                 string `api:"testCycleStatusId,readonly"`
}

func (*TestCycle) TypeName() string { return "testcycle" }

// TestRun is an execution of suites within a cycle.
type TestRun struct {
	api.Resource
	Name              string `api:"name,filterable"`
	Description       string `api:"description"`
	TestCycle         string `api:"testCycleId,filterable"`
	SelfAssignAllowed bool   `api:"selfAssignAllowed"`
	SelfAssignLimit   int    `api:"selfAssignLimit"`
	StartDate         string `api:"startDate"`
	EndDate           string `api:"endDate"`
	Status            string `api:"testRunStatusId,readonly"`
}

func (*TestRun) TypeName() string { return "testrun" }

// EnvironmentType classifies environments; group types hold whole
// environment groups rather than single choices.
type EnvironmentType struct {
	api.Resource
	Name      string `api:"name,filterable"`
	GroupType bool   `api:"groupType,filterable"`
}

func (*EnvironmentType) TypeName() string { return "environmenttype" }

// EnvironmentGroup is a named set of environments sharing a group type.
type EnvironmentGroup struct {
	api.Resource
	Name        string `api:"name,filterable"`
	Description string `api:"description"`
	Type        string `api:"environmentTypeId,filterable"`
}

func (*EnvironmentGroup) TypeName() string { return "environmentgroup" }

// Category groups environment elements (e.g. "OS", "Browser").
type Category struct {
	api.Resource
	Name string `api:"name,filterable"`
}

func (*Category) TypeName() string { return "environmenttypecategory" }

// Element is one choice within a category (e.g. "Windows").
type Element struct {
	api.Resource
	Name     string `api:"name,filterable"`
	Category string `api:"categoryId,filterable"`
}

func (*Element) TypeName() string { return "environmenttypeelement" }

// Environment is a combination of elements, one per category.
type Environment struct {
	api.Resource
	Name       string   `api:"name,filterable"`
	Profile    string   `api:"profileId,filterable"`
	ElementIDs []string `api:"elementIds"`
}

func (*Environment) TypeName() string { return "environment" }

// Profile is a named, reusable set of environments.
type Profile struct {
	api.Resource
	Name    string `api:"name,filterable"`
	Company string `api:"companyId,filterable"`
}

func (*Profile) TypeName() string { return "profile" }
