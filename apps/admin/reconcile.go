package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/mutabaah/mutabaah/core"
	"github.com/mutabaah/mutabaah/core/calendar"
)

type reconcileCmd struct {
	Kind  string `enum:"week,year,custom" default:"week" help:"Window kind: week, year or custom."`
	Date  string `help:"Reference day (YYYY-MM-DD) of a week or year window; defaults to today."`
	Start string `help:"First day (YYYY-MM-DD) of a custom window."`
	End   string `help:"Last day (YYYY-MM-DD) of a custom window."`
	Child string `help:"Only backfill this child (ID); defaults to every child."`
}

func (cmd *reconcileCmd) window(cal *calendar.Resolver, now time.Time) (calendar.Window, error) {
	ref := cal.Day(now)
	if cmd.Date != "" {
		d, err := cal.ParseDay(cmd.Date)
		if err != nil {
			return calendar.Window{}, errors.Wrap(err, "parsing --date")
		}
		ref = d
	}

	spec := calendar.Spec{Kind: calendar.Kind(cmd.Kind)}
	if spec.Kind == calendar.KindCustom {
		if cmd.Start == "" || cmd.End == "" {
			return calendar.Window{}, core.NewValidationError(errors.New("--start and --end are required for a custom window"))
		}
		var err error
		if spec.Start, err = cal.ParseDay(cmd.Start); err != nil {
			return calendar.Window{}, errors.Wrap(err, "parsing --start")
		}
		if spec.End, err = cal.ParseDay(cmd.End); err != nil {
			return calendar.Window{}, errors.Wrap(err, "parsing --end")
		}
	}
	return cal.Resolve(ref, spec)
}

func (cmd *reconcileCmd) Run(cli *commandLine) error {
	w, err := cmd.window(cli.cal, cli.now())
	if err != nil {
		return err
	}

	ctx := context.Background()
	children, err := cli.children.Select(ctx, core.CleanString(cmd.Child))
	if err != nil {
		return err
	}
	created, err := cli.prayers.ReconcileAll(ctx, children, w)
	if err != nil {
		return errors.Wrap(err, "reconciling")
	}
	cli.printf("created %d prayer record(s) for %d child(ren) from %s to %s\n",
		created, len(children), w.StartDay(), w.EndDay())
	return nil
}
