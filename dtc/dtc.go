// Package dtc compiles the device model into the C device table the firmware
// binds its drivers with: one descriptor per enabled device, the satellite
// arrays the descriptors point at, a master table in initialization order
// and a header of device name constants.
package dtc

import (
	"fmt"
	"strings"

	"github.com/golang/glog"
	"github.com/juju/errors"
	"golang.org/x/exp/slices"

	"omibyte.io/wmdt/devconf"
	"omibyte.io/wmdt/kconfig"
	"omibyte.io/wmdt/pinmux"
	"omibyte.io/wmdt/targets"
)

// DefaultTable is the table name used when neither the options nor the
// description set one.
const DefaultTable = "default"

type Options struct {
	// TableName selects the table the firmware looks the devices up in. It
	// also names the generated source file.
	TableName string

	// RejectPinConflicts fails compilation when a pin is claimed by more
	// than one enabled device. Conflicts are otherwise only logged.
	RejectPinConflicts bool
}

// entry is one row of the master table.
type entry struct {
	name  string
	hw    string
	kind  string
	impl  string
	level int
	prio  int
	refs  [][2]string
}

type generator struct {
	gate *kconfig.Gate
	chip targets.Chip

	body    strings.Builder
	groups  []string
	entries []entry
}

// Compile generates the device table for the devices in src that gate
// enables on chip. Nothing is returned on error.
func Compile(src pinmux.Source, gate *kconfig.Gate, chip targets.Chip, opts Options) (*Output, error) {
	g := &generator{
		gate:   gate,
		chip:   chip,
		groups: []string{"common"},
	}

	out := &Output{}

	for _, conflict := range pinmux.Resolve(src, gate, chip).Conflicts() {
		if opts.RejectPinConflicts {
			return nil, errors.Annotatef(ErrPinConflict, "%s", conflict)
		}
		glog.Warningf("%s", conflict)
		out.Warnings = append(out.Warnings, conflict.String())
	}

	byClass := map[devconf.Class][]devconf.Record{}
	for _, rec := range src.Records() {
		byClass[rec.Class] = append(byClass[rec.Class], rec)
	}

	for _, class := range devconf.Classes() {
		if !gate.Enabled(class.Features()...) {
			glog.V(2).Infof("%s: driver disabled", class)
			continue
		}

		spec := specs[class]
		for _, group := range spec.groups {
			if !slices.Contains(g.groups, group) {
				g.groups = append(g.groups, group)
			}
		}

		for _, rec := range byClass[class] {
			if !rec.Exists {
				continue
			}
			if !rec.Enabled(gate, chip) {
				glog.V(1).Infof("%s: not enabled for %s", rec.Name(), chip.Name)
				continue
			}
			if err := g.emit(spec, rec); err != nil {
				return nil, err
			}
		}
	}

	// System devices come first, then ascending priority. Ties keep the
	// class processing order.
	slices.SortStableFunc(g.entries, func(a, b entry) int {
		if a.level != b.level {
			return b.level - a.level
		}
		return a.prio - b.prio
	})

	warnings, err := checkDeps(g.entries)
	if err != nil {
		return nil, err
	}
	for _, warning := range warnings {
		glog.Warning(warning)
	}
	out.Warnings = append(out.Warnings, warnings...)

	table := opts.TableName
	out.Table = table
	if len(table) == 0 {
		table = DefaultTable
	}

	names := make([]string, len(g.entries))
	for i, e := range g.entries {
		names[i] = e.name
	}
	out.Devices = names

	out.Files = []File{
		{Name: DevNameFile, Data: []byte(renderDevNames(names))},
		{Name: HeaderFile, Data: []byte(renderHeader(g.groups))},
		{Name: SourceFile(opts.TableName), Data: []byte(g.source(SourceFile(opts.TableName), table))},
	}

	glog.V(1).Infof("compiled %d devices into table %s", len(names), table)
	return out, nil
}

func (g *generator) emit(spec classSpec, rec devconf.Record) error {
	d := &device{
		rec:    rec,
		g:      g,
		base:   spec.base,
		symbol: symbolName(rec),
	}
	spec.emit(d)
	if d.err != nil {
		return d.err
	}

	level, _ := initLevel(rec.Init.Level)
	kind, impl := spec.ops(rec)
	g.entries = append(g.entries, entry{
		name:  rec.Name(),
		hw:    "dt_hw_" + d.symbol,
		kind:  kind,
		impl:  impl,
		level: level,
		prio:  rec.Init.Priority,
		refs:  rec.Refs.Names(),
	})
	g.body.WriteString(d.w.String())
	return nil
}

// opsDecls declares the driver ops tables the entries refer to, grouped by
// ops structure in the order the structures are first used.
func (g *generator) opsDecls() string {
	var kinds []string
	impls := map[string][]string{}
	for _, e := range g.entries {
		if len(e.kind) == 0 {
			continue
		}
		if _, ok := impls[e.kind]; !ok {
			kinds = append(kinds, e.kind)
		}
		if !slices.Contains(impls[e.kind], e.impl) {
			impls[e.kind] = append(impls[e.kind], e.impl)
		}
	}

	var w strings.Builder
	for _, kind := range kinds {
		fmt.Fprintf(&w, "typedef struct wm_drv_ops_structure wm_drv_%s_ops_t;\n", kind)
		for _, impl := range impls[kind] {
			fmt.Fprintf(&w, "extern const wm_drv_%s_ops_t wm_drv_%s_ops;\n", kind, impl)
		}
		w.WriteString("\n")
	}
	return w.String()
}

func (g *generator) source(file string, table string) string {
	var w strings.Builder
	fileComment(&w, file, "Device Hardware Information Module")
	w.WriteString("\n#include \"wm_dt_hw.h\"\n#include \"wm_dt_op.h\"\n\n")
	w.WriteString("#include \"wm_soc_cfgs.h\"\n#include \"wm_irq.h\"\n\n\n")
	w.WriteString("struct wm_drv_ops_structure;\n\n")
	w.WriteString(g.opsDecls())
	w.WriteString(g.body.String())

	w.WriteString("const static struct wm_dt_table_entry dt_hw_table_entry[] = {\n")
	for _, e := range g.entries {
		ops := "NULL"
		if len(e.impl) > 0 {
			ops = "(void *)&wm_drv_" + e.impl + "_ops"
		}
		fmt.Fprintf(&w, "%s{ .dev_name = %q, .hw_addr = (void *)&%s, .ops_addr = %s },\n", indent, e.name, e.hw, ops)
	}
	w.WriteString("};\n\n")
	fmt.Fprintf(&w, "WM_DT_TABLE_DEFINE(%s, (sizeof(dt_hw_table_entry) / sizeof(dt_hw_table_entry[0])), (void *)&dt_hw_table_entry[0]);\n", table)
	return w.String()
}
