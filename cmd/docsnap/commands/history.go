package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/docsnap/internal/eventstore"
	ferrors "git.home.luguber.info/inful/docsnap/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" help:"Number of runs to show" default:"10"`
}

func (c *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if cfg.Events.DB == "" {
		return ferrors.ConfigError("event log disabled; set events.db").Build()
	}
	store, err := eventstore.NewSQLiteStore(cfg.Events.DB)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := eventstore.History(context.Background(), store, c.Limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(g.out(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tBUILD\tTRIGGER\tSTATUS\tFINGERPRINT\tENTRIES\tDURATION\tERROR")
	for _, run := range runs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			run.StartedAt.Format(time.RFC3339), run.BuildID, run.Trigger, run.Status,
			run.Fingerprint, run.Entries, run.Duration, run.Error)
	}
	return tw.Flush()
}
