//go:build integration

package configdb_test

import (
	"errors"
	"testing"
	"time"

	"github.com/newtron-network/bootcfg/internal/testutil"
	"github.com/newtron-network/bootcfg/pkg/configdb"
	"github.com/newtron-network/bootcfg/pkg/model"
	"github.com/newtron-network/bootcfg/pkg/validator"
)

func TestPublishRoundTrip(t *testing.T) {
	testutil.SkipIfNoRedis(t)
	testutil.FlushDB(t, configdb.DefaultDB)

	out, err := validator.Validate(testutil.StandardSystem(), model.ConfigSystem, validator.OffboardEnvironment())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	ctx := testutil.Context(t)
	c := configdb.NewClient(testutil.RedisAddr(), configdb.DefaultDB)
	defer c.Close()
	if err := c.Connect(ctx); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Read(ctx); !errors.Is(err, configdb.ErrNotPublished) {
		t.Fatalf("Read() before publish error = %v, want ErrNotPublished", err)
	}

	// a stale section from an older publish must disappear
	testutil.WriteEntry(t, configdb.DefaultDB, configdb.Table, "cSTALE", map[string]string{"A": "1"})

	meta := configdb.Metadata{ID: "run-1", Source: "system.ini", ConfigType: "system", Published: time.Now()}
	if err := c.Publish(ctx, out, meta); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if testutil.EntryExists(t, configdb.DefaultDB, configdb.Table, "cSTALE") {
		t.Error("stale section survived publish")
	}
	got, err := c.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !got.Equal(out) {
		t.Errorf("Read() = %v, want %v", got.Map(), out.Map())
	}
	if names := got.SectionNames(); names[0] != validator.OutSystem {
		t.Errorf("first section = %s, want %s", names[0], validator.OutSystem)
	}

	m, err := c.Metadata(ctx)
	if err != nil || m.ID != "run-1" || m.Source != "system.ini" {
		t.Errorf("Metadata() = %+v, %v", m, err)
	}

	n, err := c.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if n != out.Len()+1 {
		t.Errorf("Clear() removed %d keys, want %d", n, out.Len()+1)
	}
}
