// Package configdb publishes validated bootstrap configuration into a
// Redis config database, one hash per output section.
package configdb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/newtron-network/bootcfg/pkg/sysconfig"
	"github.com/newtron-network/bootcfg/pkg/util"
)

// Table layout: every output section is stored as hash
// BOOTSTRAP_CONFIG|<section>; the publish record lives at
// BOOTSTRAP_CONFIG_META|current.
const (
	Table     = "BOOTSTRAP_CONFIG"
	MetaTable = "BOOTSTRAP_CONFIG_META"
	MetaKey   = "current"

	// DefaultDB is the CONFIG_DB index
	DefaultDB = 4
)

// ErrNotPublished is returned by Read when nothing was published yet
var ErrNotPublished = errors.New("no bootstrap config published")

// Key returns the redis key of a table entry
func Key(table, entry string) string {
	return table + "|" + entry
}

// Metadata describes one publish
type Metadata struct {
	ID         string
	Source     string
	ConfigType string
	Published  time.Time
	// Sections is the section order of the published document
	Sections []string
}

func (m Metadata) fields() map[string]interface{} {
	return map[string]interface{}{
		"id":          m.ID,
		"source":      m.Source,
		"config_type": m.ConfigType,
		"published":   strconv.FormatInt(m.Published.Unix(), 10),
		"sections":    strings.Join(m.Sections, ","),
	}
}

func parseMetadata(vals map[string]string) (Metadata, error) {
	m := Metadata{
		ID:         vals["id"],
		Source:     vals["source"],
		ConfigType: vals["config_type"],
		Sections:   util.SplitCommaSeparated(vals["sections"]),
	}
	if ts := vals["published"]; ts != "" {
		sec, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			return Metadata{}, fmt.Errorf("invalid publish timestamp %q: %w", ts, err)
		}
		m.Published = time.Unix(sec, 0)
	}
	return m, nil
}

// Client wraps a redis client for the bootstrap tables
type Client struct {
	client *redis.Client
	addr   string
}

// NewClient creates a client for the config database at addr
func NewClient(addr string, db int) *Client {
	return &Client{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   db,
		}),
		addr: addr,
	}
}

// Addr returns the address the client talks to
func (c *Client) Addr() string {
	return c.addr
}

// Connect tests the connection
func (c *Client) Connect(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connecting to %s: %w", c.addr, err)
	}
	return nil
}

// Close closes the connection
func (c *Client) Close() error {
	return c.client.Close()
}

// Publish replaces the published document with out in one transaction.
// Sections left over from an earlier publish are removed.
func (c *Client) Publish(ctx context.Context, out *sysconfig.Config, meta Metadata) error {
	stale, err := c.client.Keys(ctx, Key(Table, "*")).Result()
	if err != nil {
		return fmt.Errorf("listing %s: %w", Table, err)
	}
	meta.Sections = out.SectionNames()

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(stale) > 0 {
			pipe.Del(ctx, stale...)
		}
		for _, name := range meta.Sections {
			s, _ := out.Section(name)
			fields := make([]interface{}, 0, 2*s.Len())
			for _, k := range s.Keys() {
				v, _ := s.Get(k)
				fields = append(fields, k, v)
			}
			if len(fields) == 0 {
				// redis drops empty hashes
				fields = append(fields, "NULL", "NULL")
			}
			pipe.HSet(ctx, Key(Table, name), fields...)
		}
		pipe.HSet(ctx, Key(MetaTable, MetaKey), meta.fields())
		return nil
	})
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", c.addr, err)
	}

	util.WithFields(map[string]interface{}{
		"addr":     c.addr,
		"sections": len(meta.Sections),
		"removed":  len(stale),
	}).Info("bootstrap config published")
	return nil
}

// Metadata returns the record of the last publish
func (c *Client) Metadata(ctx context.Context) (Metadata, error) {
	vals, err := c.client.HGetAll(ctx, Key(MetaTable, MetaKey)).Result()
	if err != nil {
		return Metadata{}, err
	}
	if len(vals) == 0 {
		return Metadata{}, ErrNotPublished
	}
	return parseMetadata(vals)
}

// Read returns the published document. Sections come back in publish
// order; keys within a section are sorted since redis hashes are unordered.
func (c *Client) Read(ctx context.Context) (*sysconfig.Config, error) {
	meta, err := c.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	out := sysconfig.New()
	for _, name := range meta.Sections {
		vals, err := c.client.HGetAll(ctx, Key(Table, name)).Result()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", Key(Table, name), err)
		}
		s := out.AddSection(name)
		keys := make([]string, 0, len(vals))
		for k := range vals {
			if k != "NULL" {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			s.Set(k, vals[k])
		}
	}
	return out, nil
}

// Clear removes the published document and its metadata
func (c *Client) Clear(ctx context.Context) (int, error) {
	keys, err := c.client.Keys(ctx, Key(Table, "*")).Result()
	if err != nil {
		return 0, err
	}
	keys = append(keys, Key(MetaTable, MetaKey))
	n, err := c.client.Del(ctx, keys...).Result()
	return int(n), err
}
