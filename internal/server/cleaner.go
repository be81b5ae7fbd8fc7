package server

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/gorhill/cronexpr"

	"github.com/Oscar8918/agente-maf/internal/store"
)

// Cleaner prunes conversations idle beyond the configured TTL on a cron
// schedule. Messages cascade with their conversation rows.
type Cleaner struct {
	Store   *store.Store
	Cron    string
	IdleTTL time.Duration
	Stop    chan struct{}
	Logger  *log.Logger
}

// Start runs the sweep loop until Stop is closed. Invalid cron expressions
// disable the cleaner rather than failing the server.
func (c *Cleaner) Start() {
	if c.Logger == nil {
		c.Logger = log.New(io.Discard, "", 0)
	}
	expr, err := cronexpr.Parse(c.Cron)
	if err != nil {
		c.Logger.Printf("invalid retention cron %q, cleaner disabled: %v", c.Cron, err)
		return
	}
	go func() {
		for {
			next := expr.Next(time.Now())
			if next.IsZero() {
				c.Logger.Printf("retention cron %q yields no future run, cleaner stopped", c.Cron)
				return
			}
			select {
			case <-c.Stop:
				return
			case <-time.After(time.Until(next)):
				c.sweep()
			}
		}
	}()
}

func (c *Cleaner) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-c.IdleTTL)
	pruned, err := c.Store.PruneIdle(ctx, cutoff)
	if err != nil {
		c.Logger.Printf("retention sweep failed: %v", err)
		return
	}
	if pruned > 0 {
		c.Logger.Printf("retention sweep pruned %d idle conversations", pruned)
	}
}
