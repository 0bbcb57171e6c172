// Package pinmux projects the device model onto the physical pins of a chip.
package pinmux

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/golang/glog"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"omibyte.io/wmdt/devconf"
	"omibyte.io/wmdt/kconfig"
	"omibyte.io/wmdt/targets"
)

// Source provides the device records to resolve. *devconf.Model satisfies it.
type Source interface {
	Records() []devconf.Record
}

// Assignment is one device holding a pin.
type Assignment struct {
	Device string
	Role   string
}

// Table maps every physical pin of a chip to the devices claiming it.
type Table struct {
	chip targets.Chip
	pins []map[string]string
}

// Resolve builds the pin table for the devices that are present in src and
// enabled by gate. A pin claimed by more than one device keeps every claim.
func Resolve(src Source, gate *kconfig.Gate, chip targets.Chip) *Table {
	t := &Table{
		chip: chip,
		pins: make([]map[string]string, chip.Pins),
	}
	for i := range t.pins {
		t.pins[i] = map[string]string{}
	}

	for _, rec := range src.Records() {
		if !rec.Exists || !rec.Enabled(gate, chip) {
			continue
		}
		for _, claim := range rec.Claims(chip) {
			if !chip.HasPin(claim.Pin) {
				glog.Warningf("%s: %s claims pin %d which %s does not have", rec.Name(), claim.Role, claim.Pin, chip.Name)
				continue
			}
			t.pins[claim.Pin][rec.Name()] = claim.Role
		}
	}

	return t
}

// Chip returns the chip the table was resolved for.
func (t *Table) Chip() targets.Chip {
	return t.chip
}

// Len returns the number of physical pins.
func (t *Table) Len() int {
	return len(t.pins)
}

// Pin returns a copy of the claims on pin keyed by device name.
func (t *Table) Pin(pin int) map[string]string {
	result := map[string]string{}
	if pin < 0 || pin >= len(t.pins) {
		return result
	}
	for device, role := range t.pins[pin] {
		result[device] = role
	}
	return result
}

// Assignments returns the claims on pin ordered by device name.
func (t *Table) Assignments(pin int) []Assignment {
	if pin < 0 || pin >= len(t.pins) {
		return nil
	}
	result := make([]Assignment, 0, len(t.pins[pin]))
	for device, role := range t.pins[pin] {
		result = append(result, Assignment{Device: device, Role: role})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Device < result[j].Device
	})
	return result
}

// Conflict is a pin claimed by more than one device.
type Conflict struct {
	Pin    int
	Claims []Assignment
}

func (c Conflict) String() string {
	s := "pin " + strconv.Itoa(c.Pin) + ":"
	for _, a := range c.Claims {
		s += " " + a.Device + "(" + a.Role + ")"
	}
	return s
}

// Conflicts returns every pin with more than one claim in pin order.
func (t *Table) Conflicts() []Conflict {
	var result []Conflict
	for pin, claims := range t.pins {
		if len(claims) > 1 {
			result = append(result, Conflict{Pin: pin, Claims: t.Assignments(pin)})
		}
	}
	return result
}

// Struct converts the table to the document shape served to editors:
// {"chip_type": name, "pinmux": [{device: role}, ...]} indexed by pin.
func (t *Table) Struct() (*structpb.Struct, error) {
	pins := make([]any, len(t.pins))
	for i, claims := range t.pins {
		m := make(map[string]any, len(claims))
		for device, role := range claims {
			m[device] = role
		}
		pins[i] = m
	}
	return structpb.NewStruct(map[string]any{
		"chip_type": t.chip.Name,
		"pinmux":    pins,
	})
}

// MarshalJSON renders the table as JSON.
func (t *Table) MarshalJSON() ([]byte, error) {
	s, err := t.Struct()
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(s)
}

// WriteJSON writes the indented JSON form of the table.
func (t *Table) WriteJSON(w io.Writer) error {
	s, err := t.Struct()
	if err != nil {
		return err
	}
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(s)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// WriteText writes one line per claimed pin. Unclaimed pins are listed only
// when all is set.
func (t *Table) WriteText(w io.Writer, all bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "PIN\tDEVICE\tROLE\n")
	for pin := range t.pins {
		claims := t.Assignments(pin)
		if len(claims) == 0 {
			if all {
				fmt.Fprintf(tw, "%d\t-\t-\n", pin)
			}
			continue
		}
		for i, a := range claims {
			label := strconv.Itoa(pin)
			if i > 0 {
				label = ""
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", label, a.Device, a.Role)
		}
	}
	return tw.Flush()
}
