package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/funvibe/latebind/pkg/dyn"
	"github.com/funvibe/latebind/pkg/latebind"
)

// Point is the sample reflected value in the playground environment.
type Point struct {
	X, Y int
}

func (p *Point) Scale(factor int) *Point {
	return &Point{X: p.X * factor, Y: p.Y * factor}
}

func (p *Point) Norm() float64 {
	return float64(p.X*p.X + p.Y*p.Y)
}

type repl struct {
	engine *latebind.Engine
	env    map[string]interface{}
	sites  map[string]*latebind.Site
}

func runREPL() error {
	eng, err := latebind.New()
	if err != nil {
		return err
	}
	bag := dyn.NewPropertyBag()
	bag.Set("Value", int64(42))
	r := &repl{
		engine: eng,
		env: map[string]interface{}{
			"point": &Point{X: 3, Y: 4},
			"bag":   bag,
			"x":     int64(42),
			"pi":    3.14,
			"name":  "latebind",
			"null":  nil,
		},
		sites: make(map[string]*latebind.Site),
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	fmt.Println("latebind playground; type 'help' for commands")
	for {
		line, err := ln.Prompt("dyn> ")
		if err != nil {
			fmt.Println()
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ln.AppendHistory(line)
		if line == "quit" || line == "exit" {
			return nil
		}
		if out := r.eval(line); out != "" {
			fmt.Println(out)
		}
	}
}

func (r *repl) eval(line string) string {
	fields := strings.Fields(line)
	cmd, rest := fields[0], fields[1:]
	switch cmd {
	case "help":
		return replHelp
	case "vars":
		return r.listVars()
	case "get":
		if len(rest) != 2 {
			return r.fail("usage: get <var> <member>")
		}
		return r.dispatch("get/"+rest[1], mustGetMember(rest[1]), rest[0])
	case "set":
		if len(rest) != 3 {
			return r.fail("usage: set <var> <member> <value>")
		}
		return r.dispatch("set/"+rest[1], mustSetMember(rest[1]), rest[0], rest[2])
	case "call":
		if len(rest) < 2 {
			return r.fail("usage: call <var> <member> [args...]")
		}
		op, err := dyn.InvokeMember(rest[1], len(rest)-2)
		if err != nil {
			return r.fail(err.Error())
		}
		return r.dispatch(fmt.Sprintf("call/%s/%d", rest[1], len(rest)-2), op, append([]string{rest[0]}, rest[2:]...)...)
	case "op":
		if len(rest) != 3 {
			return r.fail("usage: op <left> <operator> <right>")
		}
		op, err := dyn.BinaryOp(rest[1])
		if err != nil {
			return r.fail(err.Error())
		}
		return r.dispatch("op/"+rest[1], op, rest[0], rest[2])
	case "stats":
		return r.listStats()
	default:
		return r.fail(fmt.Sprintf("unknown command %q; type 'help'", cmd))
	}
}

// dispatch routes one command through its call site; each command form
// is one static call location, so repeated commands hit the cache.
func (r *repl) dispatch(key string, op dyn.Op, operands ...string) string {
	site, ok := r.sites[key]
	if !ok {
		site = r.engine.NewSite(op)
		r.sites[key] = site
	}
	values := make([]interface{}, len(operands))
	for i, tok := range operands {
		values[i] = r.resolveToken(tok)
	}
	out, err := site.Execute(values...)
	if err != nil {
		return colorize(err.Error(), colorRed)
	}
	return colorize(fmt.Sprintf("%v", out), colorGreen)
}

// resolveToken reads an environment variable or parses a literal.
func (r *repl) resolveToken(tok string) interface{} {
	if v, ok := r.env[tok]; ok {
		return v
	}
	if tok == "nil" || tok == "null" {
		return nil
	}
	if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(tok); err == nil {
		return b
	}
	return strings.Trim(tok, `"'`)
}

func (r *repl) listVars() string {
	names := make([]string, 0, len(r.env))
	for n := range r.env {
		names = append(names, n)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, n := range names {
		fmt.Fprintf(&b, "%-8s %v\n", n, r.env[n])
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *repl) listStats() string {
	if len(r.sites) == 0 {
		return colorize("no call sites yet", colorDim)
	}
	keys := make([]string, 0, len(r.sites))
	for k := range r.sites {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		st := r.sites[k].Stats()
		mode := "inline"
		if st.Polymorphic {
			mode = "poly"
		}
		fmt.Fprintf(&b, "%-20s hits=%d misses=%d evictions=%d entries=%d (%s)\n",
			k, st.Hits, st.Misses, st.Evictions, st.Entries, mode)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *repl) fail(msg string) string {
	return colorize(msg, colorRed)
}

func mustGetMember(name string) dyn.Op {
	op, _ := dyn.GetMember(name)
	return op
}

func mustSetMember(name string) dyn.Op {
	op, _ := dyn.SetMember(name)
	return op
}

const replHelp = `commands:
  vars                          list environment values
  get <var> <member>            read a member dynamically
  set <var> <member> <value>    write a member dynamically
  call <var> <member> [args]    invoke a member dynamically
  op <left> <operator> <right>  apply a binary operator
  stats                         show per-site cache statistics
  quit`
