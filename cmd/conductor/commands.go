package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/robfig/cron/v3"

	"github.com/ternarybob/conductor/internal/api"
	"github.com/ternarybob/conductor/internal/environments"
	"github.com/ternarybob/conductor/internal/tcm"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	idColor     = color.New(color.FgYellow)
	activeColor = color.New(color.FgGreen)
	staleColor  = color.New(color.FgRed)
)

// row is one rendered list entry.
type row struct {
	id      string
	name    string
	version string
}

// activatable is satisfied by every typed resource.
type activatable interface {
	api.Remote
	Location() string
	Activate(context.Context) error
	Deactivate(context.Context) error
}

func fetchRows[T any, PT api.RemoteOf[T]](ctx context.Context, c *api.Client, l *api.ListOf[T, PT], name func(PT) string) ([]row, int, error) {
	l.Paginate(*pageFlag, *pageSizeFlag).
		Sort(*sortFlag, *sortDirFlag).
		Filter(filters)
	if err := l.Get(ctx, c); err != nil {
		return nil, 0, err
	}
	rows := make([]row, 0, len(l.Entries))
	for _, entry := range l.Entries {
		r := row{id: entry.ID(), name: name(entry)}
		if ident := entry.Identity(); ident != nil {
			r.version = ident.Version
		}
		rows = append(rows, r)
	}
	return rows, l.TotalResults(), nil
}

func runList(ctx context.Context, c *api.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: list <resource>")
	}

	var (
		rows  []row
		total int
		err   error
	)
	switch args[0] {
	case "products":
		rows, total, err = fetchRows(ctx, c, tcm.Products(), func(p *tcm.Product) string { return p.Name })
	case "productversions":
		rows, total, err = fetchRows(ctx, c, tcm.ProductVersions(), func(v *tcm.ProductVersion) string { return v.Version })
	case "testcases":
		rows, total, err = fetchRows(ctx, c, tcm.TestCases(), func(t *tcm.TestCase) string { return t.Name })
	case "testsuites":
		rows, total, err = fetchRows(ctx, c, tcm.TestSuites(), func(t *tcm.TestSuite) string { return t.Name })
	case "testcycles":
		rows, total, err = fetchRows(ctx, c, tcm.TestCycles(), func(t *tcm.TestCycle) string { return t.Name })
	case "testruns":
		rows, total, err = fetchRows(ctx, c, tcm.TestRuns(), func(t *tcm.TestRun) string { return t.Name })
	case "users":
		rows, total, err = fetchRows(ctx, c, tcm.Users(), func(u *tcm.User) string { return u.FirstName + " " + u.LastName })
	case "companies":
		rows, total, err = fetchRows(ctx, c, tcm.Companies(), func(co *tcm.Company) string { return co.Name })
	case "profiles":
		rows, total, err = fetchRows(ctx, c, tcm.Profiles(), func(p *tcm.Profile) string { return p.Name })
	case "environments":
		rows, total, err = fetchRows(ctx, c, tcm.Environments(), func(e *tcm.Environment) string { return e.Name })
	case "environmenttypes":
		rows, total, err = fetchRows(ctx, c, tcm.EnvironmentTypes(), func(et *tcm.EnvironmentType) string { return et.Name })
	case "environmentgroups":
		rows, total, err = fetchRows(ctx, c, tcm.EnvironmentGroups(), func(g *tcm.EnvironmentGroup) string { return g.Name })
	case "categories":
		rows, total, err = fetchRows(ctx, c, tcm.Categories(), func(cat *tcm.Category) string { return cat.Name })
	case "elements":
		rows, total, err = fetchRows(ctx, c, tcm.Elements(), func(e *tcm.Element) string { return e.Name })
	default:
		return fmt.Errorf("unknown resource %q", args[0])
	}
	if err != nil {
		return err
	}

	headerColor.Printf("%-8s %-6s %s\n", "ID", "VER", "NAME")
	for _, r := range rows {
		idColor.Printf("%-8s ", r.id)
		fmt.Printf("%-6s %s\n", r.version, r.name)
	}
	fmt.Printf("%d of %d total\n", len(rows), total)
	return nil
}

// fetchOne resolves a resource name and ID to a fetched typed resource.
func fetchOne(ctx context.Context, c *api.Client, resource, id string) (activatable, error) {
	switch resource {
	case "products":
		return tcm.Products().GetByID(ctx, c, id)
	case "productversions":
		return tcm.ProductVersions().GetByID(ctx, c, id)
	case "testcases":
		return tcm.TestCases().GetByID(ctx, c, id)
	case "testsuites":
		return tcm.TestSuites().GetByID(ctx, c, id)
	case "testcycles":
		return tcm.TestCycles().GetByID(ctx, c, id)
	case "testruns":
		return tcm.TestRuns().GetByID(ctx, c, id)
	case "users":
		return tcm.Users().GetByID(ctx, c, id)
	case "companies":
		return tcm.Companies().GetByID(ctx, c, id)
	case "profiles":
		return tcm.Profiles().GetByID(ctx, c, id)
	case "environments":
		return tcm.Environments().GetByID(ctx, c, id)
	case "environmenttypes":
		return tcm.EnvironmentTypes().GetByID(ctx, c, id)
	case "environmentgroups":
		return tcm.EnvironmentGroups().GetByID(ctx, c, id)
	default:
		return nil, fmt.Errorf("unknown resource %q", resource)
	}
}

func runShow(ctx context.Context, c *api.Client, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: show <resource> <id>")
	}
	res, err := fetchOne(ctx, c, args[0], args[1])
	if err != nil {
		return err
	}

	version := ""
	if ident := res.Identity(); ident != nil {
		version = ident.Version
	}
	headerColor.Printf("%s %s\n", res.TypeName(), res.ID())
	fmt.Printf("  version:  %s\n", version)
	fmt.Printf("  location: %s\n", res.Location())
	for name, value := range api.FieldValues(res) {
		fmt.Printf("  %-9s %s\n", name+":", value)
	}
	return nil
}

func runActivation(ctx context.Context, c *api.Client, args []string, activate bool) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: activate|deactivate <resource> <id>")
	}
	res, err := fetchOne(ctx, c, args[0], args[1])
	if err != nil {
		return err
	}

	if activate {
		if err := res.Activate(ctx); err != nil {
			return err
		}
		activeColor.Printf("Activated %s %s\n", res.TypeName(), res.ID())
		return nil
	}
	if err := res.Deactivate(ctx); err != nil {
		return err
	}
	staleColor.Printf("Deactivated %s %s\n", res.TypeName(), res.ID())
	return nil
}

func runPopulate(ctx context.Context, c *api.Client, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: populate <version-id> <profile-N|productversion-N>")
	}
	svc := environments.NewService(c, logger)
	if err := svc.PopulateVersionEnvironments(ctx, args[0], args[1]); err != nil {
		return err
	}
	activeColor.Printf("Populated environments for version %s from %s\n", args[0], args[1])
	return nil
}

// runWatch polls test runs on a cron schedule and reports status changes.
// Expired cache entries are swept after each poll.
func runWatch(ctx context.Context, c *api.Client, sw sweeper, args []string) error {
	if len(args) != 1 || args[0] != "runs" {
		return fmt.Errorf("usage: watch runs")
	}

	previous := make(map[string]string)
	poll := func() {
		runs := tcm.TestRuns()
		runs.Paginate(*pageFlag, *pageSizeFlag).Filter(filters)
		if err := runs.Get(ctx, c); err != nil {
			logger.Warn().Err(err).Msg("Test run poll failed")
			return
		}
		for _, run := range runs.Entries {
			prev, seen := previous[run.ID()]
			if seen && prev != run.Status {
				fmt.Printf("%s %s: %s -> %s\n",
					idColor.Sprint(run.ID()), run.Name, staleColor.Sprint(prev), activeColor.Sprint(run.Status))
			}
			previous[run.ID()] = run.Status
		}
		if sw != nil {
			if dropped, err := sw.Sweep(); err != nil {
				logger.Warn().Err(err).Msg("Cache sweep failed")
			} else if dropped > 0 {
				logger.Debug().Int("dropped", dropped).Msg("Swept expired cache entries")
			}
		}
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(*scheduleFlag, poll); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", *scheduleFlag, err)
	}

	logger.Info().Str("schedule", *scheduleFlag).Msg("Watching test runs")
	poll()
	scheduler.Start()
	defer scheduler.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	logger.Info().Msg("Shutting down")
	return nil
}

func runCache(sw sweeper, args []string) error {
	if len(args) != 1 || args[0] != "sweep" {
		return fmt.Errorf("usage: cache sweep")
	}
	if sw == nil {
		return fmt.Errorf("caching is disabled")
	}
	dropped, err := sw.Sweep()
	if err != nil {
		return err
	}
	fmt.Printf("Dropped %d expired cache entries\n", dropped)
	return nil
}
