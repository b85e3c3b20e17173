package main

import (
	"database/sql"
	"flag"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/funvibe/latebind/pkg/dyn"
	"github.com/funvibe/latebind/pkg/latebind"
)

type benchResult struct {
	workload string
	site     *latebind.Site
	elapsed  time.Duration
	iters    int
}

func runBench(args []string) error {
	fs := flag.NewFlagSet("bench", flag.ContinueOnError)
	iters := fs.Int("n", 100000, "iterations per workload")
	dbPath := fs.String("db", "", "record per-site stats into a SQLite database")
	if err := fs.Parse(args); err != nil {
		return err
	}

	eng, err := latebind.New()
	if err != nil {
		return err
	}

	results := []benchResult{
		benchMonomorphic(eng, *iters),
		benchPolymorphic(eng, *iters),
		benchMegamorphic(eng, *iters),
	}

	for _, res := range results {
		st := res.site.Stats()
		perOp := res.elapsed / time.Duration(res.iters)
		mode := "inline"
		if st.Polymorphic {
			mode = "poly"
		}
		fmt.Printf("%-12s %8d iters  %10v/op  hits=%d misses=%d evictions=%d entries=%d (%s)\n",
			res.workload, res.iters, perOp, st.Hits, st.Misses, st.Evictions, st.Entries, mode)
	}

	if *dbPath != "" {
		if err := recordStats(*dbPath, results); err != nil {
			return fmt.Errorf("recording stats: %w", err)
		}
		fmt.Println(colorize("stats recorded to "+*dbPath, colorDim))
	}
	return nil
}

// benchMonomorphic hammers one site with a constant shape: the steady
// state is a pure cache hit per iteration.
func benchMonomorphic(eng *latebind.Engine, iters int) benchResult {
	op, _ := dyn.GetMember("X")
	site := eng.NewSite(op)
	p := &Point{X: 7, Y: 9}
	start := time.Now()
	for i := 0; i < iters; i++ {
		site.Execute(p) //nolint:errcheck
	}
	return benchResult{workload: "monomorphic", site: site, elapsed: time.Since(start), iters: iters}
}

// benchPolymorphic rotates a handful of shapes that all fit the inline
// cache.
func benchPolymorphic(eng *latebind.Engine, iters int) benchResult {
	op, _ := dyn.BinaryOp("+")
	site := eng.NewSite(op)
	operands := [][2]interface{}{
		{int64(1), int64(2)},
		{1.5, 2.5},
		{"a", "b"},
		{int64(3), 4.5},
	}
	start := time.Now()
	for i := 0; i < iters; i++ {
		pair := operands[i%len(operands)]
		site.Execute(pair[0], pair[1]) //nolint:errcheck
	}
	return benchResult{workload: "polymorphic", site: site, elapsed: time.Since(start), iters: iters}
}

type rec0 struct{ X int64 }
type rec1 struct{ X int64 }
type rec2 struct{ X int64 }
type rec3 struct{ X int64 }
type rec4 struct{ X int64 }
type rec5 struct{ X int64 }

// benchMegamorphic cycles more shapes than the inline cache holds,
// driving the site into the polymorphic table.
func benchMegamorphic(eng *latebind.Engine, iters int) benchResult {
	op, _ := dyn.GetMember("X")
	site := eng.NewSite(op)
	targets := []interface{}{
		rec0{X: 0}, rec1{X: 1}, rec2{X: 2}, rec3{X: 3}, rec4{X: 4}, rec5{X: 5},
	}
	start := time.Now()
	for i := 0; i < iters; i++ {
		site.Execute(targets[i%len(targets)]) //nolint:errcheck
	}
	return benchResult{workload: "megamorphic", site: site, elapsed: time.Since(start), iters: iters}
}

const statsDDL = `
CREATE TABLE IF NOT EXISTS site_stats (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	site_id     TEXT NOT NULL,
	workload    TEXT NOT NULL,
	iterations  INTEGER NOT NULL,
	hits        INTEGER NOT NULL,
	misses      INTEGER NOT NULL,
	evictions   INTEGER NOT NULL,
	promotions  INTEGER NOT NULL,
	failures    INTEGER NOT NULL,
	entries     INTEGER NOT NULL,
	polymorphic INTEGER NOT NULL,
	duration_us INTEGER NOT NULL,
	created_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

// recordStats persists the bench results. The engine itself keeps no
// on-disk state; the database belongs to this tool.
func recordStats(path string, results []benchResult) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(statsDDL); err != nil {
		return err
	}
	for _, res := range results {
		st := res.site.Stats()
		poly := 0
		if st.Polymorphic {
			poly = 1
		}
		_, err := db.Exec(
			`INSERT INTO site_stats
			 (site_id, workload, iterations, hits, misses, evictions, promotions, failures, entries, polymorphic, duration_us)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			res.site.ID(), res.workload, res.iters,
			st.Hits, st.Misses, st.Evictions, st.Promotions, st.Failures,
			st.Entries, poly, res.elapsed.Microseconds(),
		)
		if err != nil {
			return err
		}
	}
	return nil
}
