package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/reoring/avroskema"
	"github.com/reoring/avroskema/catalog"
	"github.com/reoring/avroskema/memo"
	"github.com/reoring/avroskema/protoschema"
)

func main() {
	_ = godotenv.Load()
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "derive":
		deriveCmd(os.Args[2:])
	case "names":
		namesCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "avroskema CLI\n\nUsage:\n  avroskema derive [-catalog a.yaml,b.json] [-proto set.binpb] [-overrides o.yaml] -type T1[,T2,...] [-o out.avsc]\n  avroskema names [-catalog a.yaml] [-overrides o.yaml]\n\nEnvironment (.env is honoured):\n  AVROSKEMA_CATALOG, AVROSKEMA_PROTO, AVROSKEMA_OVERRIDES, AVROSKEMA_CONCURRENCY")
}

// options collects the inputs shared by every subcommand.
type options struct {
	catalogs    []string
	proto       string
	overrides   []string
	concurrency int
	logf        func(format string, args ...any)
}

func (o *options) bind(fs *flag.FlagSet) {
	fs.Func("catalog", "catalog file(s), comma-separated or repeated (env AVROSKEMA_CATALOG)", func(s string) error {
		o.catalogs = append(o.catalogs, splitCSV(s)...)
		return nil
	})
	fs.StringVar(&o.proto, "proto", os.Getenv("AVROSKEMA_PROTO"), "serialized FileDescriptorSet")
	fs.Func("overrides", "overrides file(s) in catalog format (env AVROSKEMA_OVERRIDES)", func(s string) error {
		o.overrides = append(o.overrides, splitCSV(s)...)
		return nil
	})
	n, _ := strconv.Atoi(os.Getenv("AVROSKEMA_CONCURRENCY"))
	fs.IntVar(&o.concurrency, "j", n, "maximum concurrent derivations (0 = unlimited)")
}

func (o *options) defaults() {
	if len(o.catalogs) == 0 {
		o.catalogs = splitCSV(os.Getenv("AVROSKEMA_CATALOG"))
	}
	if len(o.overrides) == 0 {
		o.overrides = splitCSV(os.Getenv("AVROSKEMA_OVERRIDES"))
	}
	if o.logf == nil {
		o.logf = func(string, ...any) {}
	}
}

// load reads every catalog, overrides file and descriptor set and returns the
// provider chain together with a registry holding all declared overrides.
func load(o *options) (avroskema.Provider, *avroskema.Registry, *catalog.Catalog, error) {
	o.defaults()
	cat := catalog.New()
	for _, path := range append(append([]string(nil), o.catalogs...), o.overrides...) {
		if err := cat.LoadFile(path); err != nil {
			return nil, nil, nil, err
		}
		o.logf("loaded %s", path)
	}
	reg := avroskema.NewRegistry()
	if err := cat.Apply(reg); err != nil {
		return nil, nil, nil, err
	}
	providers := []avroskema.Provider{cat}
	if o.proto != "" {
		pp, err := protoschema.LoadDescriptorSet(o.proto)
		if err != nil {
			return nil, nil, nil, err
		}
		mp, err := memo.New(pp, 0)
		if err != nil {
			return nil, nil, nil, err
		}
		o.logf("loaded descriptor set %s", o.proto)
		providers = append(providers, mp)
	}
	return avroskema.Chain(providers...), reg, cat, nil
}

func deriveCmd(args []string) {
	fs := flag.NewFlagSet("derive", flag.ExitOnError)
	var o options
	var typesCSV string
	var out string
	var verbose bool
	o.bind(fs)
	fs.StringVar(&typesCSV, "type", "", "comma-separated root type ids")
	fs.StringVar(&out, "o", "", "output filename (default stdout)")
	fs.BoolVar(&verbose, "v", false, "enable verbose logs")
	_ = fs.Parse(args)
	if typesCSV == "" {
		fs.Usage()
		os.Exit(2)
	}
	if verbose {
		o.logf = log.Printf
	}

	roots := make([]avroskema.TypeID, 0)
	for _, s := range splitTypes(typesCSV) {
		id, err := avroskema.ParseTypeID(s)
		if err != nil {
			fatalf("-type %q: %v", s, err)
		}
		roots = append(roots, id)
	}

	w := io.Writer(os.Stdout)
	if out != "" {
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			fatalf("creating output dir: %v", err)
		}
		f, err := os.Create(out)
		if err != nil {
			fatalf("creating output: %v", err)
		}
		defer f.Close()
		w = f
	}
	if err := derive(w, &o, roots); err != nil {
		fatalf("derive: %v", err)
	}
	o.logf("derived %d document(s)", len(roots))
}

// derive writes one indented document per root, separated by newlines.
func derive(w io.Writer, o *options, roots []avroskema.TypeID) error {
	p, reg, _, err := load(o)
	if err != nil {
		return err
	}
	a := avroskema.NewAssembler(p,
		avroskema.WithRegistry(reg),
		avroskema.WithConcurrency(o.concurrency),
		avroskema.WithLogf(o.logf),
	)
	docs, err := a.DeriveAll(roots...)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		b, err := doc.MarshalIndent("", "  ")
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\n", b); err != nil {
			return err
		}
	}
	return nil
}

func namesCmd(args []string) {
	fs := flag.NewFlagSet("names", flag.ExitOnError)
	var o options
	o.bind(fs)
	_ = fs.Parse(args)
	if err := names(os.Stdout, &o); err != nil {
		fatalf("names: %v", err)
	}
}

// names lists the catalog's declared ids followed by the registered overrides.
func names(w io.Writer, o *options) error {
	_, reg, cat, err := load(o)
	if err != nil {
		return err
	}
	for _, id := range cat.IDs() {
		fmt.Fprintf(w, "type\t%s\n", id)
	}
	for _, e := range reg.Entries() {
		fmt.Fprintf(w, "override\t%s\t%s\n", e.ID, e.Override)
	}
	return nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitTypes splits on commas outside brackets, so generic ids such as
// com.x.Box[int,string] survive.
func splitTypes(s string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				if p := strings.TrimSpace(s[start:i]); p != "" {
					out = append(out, p)
				}
				start = i + 1
			}
		}
	}
	if p := strings.TrimSpace(s[start:]); p != "" {
		out = append(out, p)
	}
	return out
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
