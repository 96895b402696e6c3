package tcm

import (
	"context"
	"net/url"

	"github.com/ternarybob/conductor/internal/api"
)

// List aliases so callers never spell out the generic parameters.
type (
	CompanyList          = api.ListOf[Company, *Company]
	ProductList          = api.ListOf[Product, *Product]
	ProductVersionList   = api.ListOf[ProductVersion, *ProductVersion]
	UserList             = api.ListOf[User, *User]
	TestCaseList         = api.ListOf[TestCase, *TestCase]
	TestSuiteList        = api.ListOf[TestSuite, *TestSuite]
	TestCycleList        = api.ListOf[TestCycle, *TestCycle]
	TestRunList          = api.ListOf[TestRun, *TestRun]
	EnvironmentTypeList  = api.ListOf[EnvironmentType, *EnvironmentType]
	EnvironmentGroupList = api.ListOf[EnvironmentGroup, *EnvironmentGroup]
	CategoryList         = api.ListOf[Category, *Category]
	ElementList          = api.ListOf[Element, *Element]
	EnvironmentList      = api.ListOf[Environment, *Environment]
	ProfileList          = api.ListOf[Profile, *Profile]
)

func Companies() *CompanyList {
	return api.NewList[Company, *Company](api.ListSpec{DefaultURL: "companies"})
}

func Products() *ProductList {
	return api.NewList[Product, *Product](api.ListSpec{DefaultURL: "products"})
}

func ProductVersions() *ProductVersionList {
	return api.NewList[ProductVersion, *ProductVersion](api.ListSpec{DefaultURL: "productversions"})
}

func Users() *UserList {
	return api.NewList[User, *User](api.ListSpec{DefaultURL: "users"})
}

func TestCases() *TestCaseList {
	return api.NewList[TestCase, *TestCase](api.ListSpec{DefaultURL: "testcases"})
}

func TestSuites() *TestSuiteList {
	return api.NewList[TestSuite, *TestSuite](api.ListSpec{DefaultURL: "testsuites"})
}

func TestCycles() *TestCycleList {
	return api.NewList[TestCycle, *TestCycle](api.ListSpec{DefaultURL: "testcycles"})
}

func TestRuns() *TestRunList {
	return api.NewList[TestRun, *TestRun](api.ListSpec{DefaultURL: "testruns"})
}

func EnvironmentTypes() *EnvironmentTypeList {
	return api.NewList[EnvironmentType, *EnvironmentType](api.ListSpec{DefaultURL: "environmenttypes"})
}

func EnvironmentGroups() *EnvironmentGroupList {
	return api.NewList[EnvironmentGroup, *EnvironmentGroup](api.ListSpec{DefaultURL: "environmentgroups"})
}

func Categories() *CategoryList {
	return api.NewList[Category, *Category](api.ListSpec{
		DefaultURL: "environmenttypes/categories",
		ArrayName:  "environmenttypecategories",
	})
}

func Elements() *ElementList {
	return api.NewList[Element, *Element](api.ListSpec{
		DefaultURL: "environmenttypes/elements",
		ArrayName:  "environmenttypeelements",
	})
}

func Environments() *EnvironmentList {
	return api.NewList[Environment, *Environment](api.ListSpec{DefaultURL: "environments"})
}

func Profiles() *ProfileList {
	return api.NewList[Profile, *Profile](api.ListSpec{DefaultURL: "environmentprofiles"})
}

// EmailInUse reports whether an email address is already registered.
func EmailInUse(ctx context.Context, c *api.Client, email string) (bool, error) {
	return c.GetBool(ctx, "users/emailinuse?email="+url.QueryEscape(email))
}
