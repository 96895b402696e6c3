// Package environments implements the profile and environment population
// workflows: generating a profile's environment set from selected elements,
// and copying environments onto a product version from a profile or from
// another version of the same product.
package environments

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/conductor/internal/api"
	"github.com/ternarybob/conductor/internal/tcm"
)

// sourceToken matches population sources: "profile-3" or "productversion-7".
var sourceToken = regexp.MustCompile(`^(profile|productversion)-([0-9]+)$`)

// Service orchestrates environment workflows over the platform client.
type Service struct {
	client   *api.Client
	logger   arbor.ILogger
	validate *validator.Validate
}

// NewService creates an environments service.
func NewService(client *api.Client, logger arbor.ILogger) *Service {
	return &Service{
		client:   client,
		logger:   logger,
		validate: validator.New(),
	}
}

// ProfileInput describes a profile to generate.
type ProfileInput struct {
	Name       string   `validate:"required"`
	ElementIDs []string `validate:"required,min=1,dive,required"`
}

// CreateProfile creates a named profile and auto-generates its environment
// set: the selected elements are grouped by category and every combination
// of one element per category becomes an environment.
func (s *Service) CreateProfile(ctx context.Context, in ProfileInput) (*tcm.Profile, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("invalid profile input: %w", err)
	}

	var categoryOrder []string
	byCategory := make(map[string][]*tcm.Element)
	for _, id := range in.ElementIDs {
		element, err := tcm.Elements().GetByID(ctx, s.client, id)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch element %s: %w", id, err)
		}
		if _, seen := byCategory[element.Category]; !seen {
			categoryOrder = append(categoryOrder, element.Category)
		}
		byCategory[element.Category] = append(byCategory[element.Category], element)
	}

	profiles := tcm.Profiles()
	if err := profiles.Get(ctx, s.client); err != nil {
		return nil, err
	}
	profile := &tcm.Profile{
		Name:    in.Name,
		Company: s.client.CompanyID(),
	}
	if err := profiles.Post(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	groups := make([][]*tcm.Element, 0, len(categoryOrder))
	for _, category := range categoryOrder {
		groups = append(groups, byCategory[category])
	}

	envsURL := profileEnvironmentsURL(profile.ID())
	envs := tcm.Environments()
	if err := envs.GetFrom(ctx, s.client, envsURL); err != nil {
		return nil, err
	}
	combos := combinations(groups)
	for _, combo := range combos {
		env := &tcm.Environment{
			Name:       environmentName(combo),
			Profile:    profile.ID(),
			ElementIDs: elementIDs(combo),
		}
		if err := envs.Post(ctx, env); err != nil {
			return nil, fmt.Errorf("failed to create environment %q: %w", env.Name, err)
		}
	}

	s.logger.Info().
		Str("profile_id", profile.ID()).
		Str("name", in.Name).
		Int("environments", len(combos)).
		Msg("Generated environment profile")

	return profile, nil
}

// PopulateVersionEnvironments copies environments onto a product version.
// Source is "profile-<id>" or "productversion-<id>"; a source version must
// belong to the same product as the target.
func (s *Service) PopulateVersionEnvironments(ctx context.Context, versionID, source string) error {
	m := sourceToken.FindStringSubmatch(source)
	if m == nil {
		return fmt.Errorf("invalid environment source %q", source)
	}
	kind, sourceID := m[1], m[2]

	var sourceURL string
	switch kind {
	case "profile":
		sourceURL = profileEnvironmentsURL(sourceID)
	case "productversion":
		target, err := tcm.ProductVersions().GetByID(ctx, s.client, versionID)
		if err != nil {
			return fmt.Errorf("failed to fetch target version %s: %w", versionID, err)
		}
		sourceVersion, err := tcm.ProductVersions().GetByID(ctx, s.client, sourceID)
		if err != nil {
			return fmt.Errorf("failed to fetch source version %s: %w", sourceID, err)
		}
		if target.Product != sourceVersion.Product {
			return fmt.Errorf("source version %s belongs to a different product", sourceID)
		}
		sourceURL = "productversions/" + sourceID + "/environments"
	}

	envs := tcm.Environments()
	if err := envs.GetFrom(ctx, s.client, sourceURL); err != nil {
		return err
	}
	if err := envs.PutTo(ctx, s.client, "productversions/"+versionID+"/environments"); err != nil {
		return err
	}

	s.logger.Info().
		Str("version_id", versionID).
		Str("source", source).
		Int("environments", len(envs.Entries)).
		Msg("Populated version environments")

	return nil
}

func profileEnvironmentsURL(profileID string) string {
	return "environmentprofiles/" + profileID + "/environments"
}

// combinations returns every selection of one element per group.
func combinations(groups [][]*tcm.Element) [][]*tcm.Element {
	if len(groups) == 0 {
		return nil
	}
	combos := [][]*tcm.Element{{}}
	for _, group := range groups {
		var next [][]*tcm.Element
		for _, combo := range combos {
			for _, element := range group {
				extended := make([]*tcm.Element, len(combo), len(combo)+1)
				copy(extended, combo)
				next = append(next, append(extended, element))
			}
		}
		combos = next
	}
	return combos
}

func environmentName(combo []*tcm.Element) string {
	names := make([]string, 0, len(combo))
	for _, element := range combo {
		names = append(names, element.Name)
	}
	return strings.Join(names, ", ")
}

func elementIDs(combo []*tcm.Element) []string {
	ids := make([]string, 0, len(combo))
	for _, element := range combo {
		ids = append(ids, element.ID())
	}
	return ids
}
