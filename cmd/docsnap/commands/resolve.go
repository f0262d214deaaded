package commands

import (
	"fmt"

	"git.home.luguber.info/inful/docsnap/internal/pathresolve"
	"git.home.luguber.info/inful/docsnap/internal/statictarget"
)

// ResolveCmd implements the 'resolve' command. Flags override the configuration.
type ResolveCmd struct {
	PublicPath string `name:"public-path" help:"Public asset path or URL"`
	RouterBase string `name:"router-base" help:"Client router base path"`
	APIBase    string `name:"api-base" help:"Snapshot API directory"`
}

func (c *ResolveCmd) Run(g *Global, root *CLI) error {
	if c.PublicPath != "" && c.RouterBase != "" && c.APIBase != "" {
		_, err := fmt.Fprintln(g.out(), pathresolve.Resolve(c.PublicPath, c.RouterBase, c.APIBase))
		return err
	}

	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if c.PublicPath != "" {
		cfg.Build.PublicPath = c.PublicPath
	}
	if c.RouterBase != "" {
		cfg.Router.Base = c.RouterBase
	}
	if c.APIBase != "" {
		cfg.APIBase = c.APIBase
	}
	_, err = fmt.Fprintln(g.out(), statictarget.DBPath(cfg))
	return err
}
