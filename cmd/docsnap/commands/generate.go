package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/docsnap/internal/generator"
)

// GenerateCmd implements the 'generate' command.
type GenerateCmd struct{}

func (c *GenerateCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	ctx := context.Background()
	rt, err := newRuntime(ctx, cfg, g.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	report, err := rt.generator.Generate(ctx, generator.TriggerCLI)
	rt.writeMetrics()
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(g.out(), "Snapshot %s written (%d entries)\n", report.Fingerprint, report.Entries)
	_, _ = fmt.Fprintf(g.out(), "Served from %s/%s\n", rt.options.DBPath, report.Fingerprint)
	return nil
}
