package dtc

import (
	"fmt"
	"strings"

	"github.com/juju/errors"

	"omibyte.io/wmdt/devconf"
	"omibyte.io/wmdt/targets"
)

const indent = "    "

// device writes the definitions of one device. Output is buffered so that a
// failed device contributes nothing, and the first error sticks: every later
// call is a no-op.
type device struct {
	rec    devconf.Record
	g      *generator
	base   string
	symbol string
	w      strings.Builder
	err    error
}

func (d *device) fail(cause error, format string, args ...any) {
	if d.err == nil {
		d.err = errors.Annotatef(cause, "%s: %s", d.rec.Name(), fmt.Sprintf(format, args...))
	}
}

// translate returns s and reports a translation error when ok is false.
func (d *device) translate(s string, ok bool, format string, args ...any) string {
	if !ok {
		d.fail(ErrTranslation, format, args...)
	}
	return s
}

func (d *device) printf(format string, args ...any) {
	if d.err == nil {
		fmt.Fprintf(&d.w, format, args...)
	}
}

// line writes one indented member initializer.
func (d *device) line(format string, args ...any) {
	d.printf(indent+format+"\n", args...)
}

func (d *device) begin() {
	d.printf("const static wm_dt_hw_%s_t dt_hw_%s = {\n", d.base, d.symbol)
}

func (d *device) end() {
	d.printf("};\n\n")
}

func (d *device) init() {
	level, ok := initLevel(d.rec.Init.Level)
	if !ok {
		d.fail(ErrInitLevel, "init_level %q", d.rec.Init.Level)
		return
	}
	d.line(".init_cfg = { .init_level = %d, .init_priority = %d },", level, d.rec.Init.Priority)
}

func (d *device) reg() {
	d.regAs("reg_base", d.rec.RegBase)
}

func (d *device) regAs(field string, base uint32) {
	d.line(".%s = %#x,", field, base)
}

// irq writes the interrupt binding. Devices without one keep the zero value.
func (d *device) irq() {
	if d.rec.IRQ == nil {
		return
	}
	name, ok := targets.IRQName(d.rec.IRQ.Num)
	name = d.translate(name, ok, "irq_num %d", d.rec.IRQ.Num)
	d.line(".irq_cfg = { .irq_num = %s, .irq_priority = %d },", name, d.rec.IRQ.Priority)
}

func (d *device) gpioNum(pin int) string {
	if pin == devconf.NoPin {
		return "WM_GPIO_NUM_MAX"
	}
	if !d.g.chip.HasPin(pin) {
		d.fail(ErrTranslation, "pin %d does not exist on %s", pin, d.g.chip.Name)
	}
	return fmt.Sprintf("WM_GPIO_NUM_%d", pin)
}

func (d *device) ioMux(fun int) string {
	if fun < 1 || fun > 7 {
		d.fail(ErrTranslation, "pin function %d", fun)
	}
	return fmt.Sprintf("WM_GPIO_IOMUX_FUN%d", fun)
}

func (d *device) pinSymbol() string {
	return "dt_hw_" + d.symbol + "_pin"
}

// pins writes the pin configuration array, if the device has pins.
func (d *device) pins() {
	if len(d.rec.Pins) == 0 {
		return
	}
	d.printf("const static wm_dt_hw_pin_cfg_t %s[] = {\n", d.pinSymbol())
	for _, pin := range d.rec.Pins {
		s := fmt.Sprintf("{ .pin_num = %s, .pin_mux = %s", d.gpioNum(pin.Num), d.ioMux(pin.Fun))
		if pin.Dir != devconf.DirDefault {
			dir, ok := pinDir(pin.Dir)
			s += ", .pin_dir = " + d.translate(dir, ok, "pin %d direction %q", pin.Num, pin.Dir)
		}
		if pin.Pull != devconf.PullDefault {
			pull, ok := pinPull(pin.Pull)
			s += ", .pin_pupd = " + d.translate(pull, ok, "pin %d pull %q", pin.Num, pin.Pull)
		}
		d.line("%s },", s)
	}
	d.end()
}

func (d *device) pinLink() {
	if len(d.rec.Pins) == 0 {
		return
	}
	d.link("pin_cfg", "wm_dt_hw_pin_cfg_t", d.pinSymbol())
}

// link writes the count and pointer members referring to a satellite array.
func (d *device) link(member string, typ string, array string) {
	d.line(".%s_count = sizeof(%s) / sizeof(%s[0]),", member, array, array)
	d.line(".%s = (%s *)%s,", member, typ, array)
}

// spiDevice writes the configuration of a device attached to the SPI master.
func (d *device) spiDevice(dev devconf.SPIDevice) {
	cs := dev.CS
	if cs.Dir == devconf.DirDefault {
		cs.Dir = devconf.DirOutput
	}
	if cs.Pull == devconf.PullDefault {
		cs.Pull = devconf.PullFloat
	}
	dir, ok := pinDir(cs.Dir)
	dir = d.translate(dir, ok, "chip select direction %q", cs.Dir)
	pull, ok := pinPull(cs.Pull)
	pull = d.translate(pull, ok, "chip select pull %q", cs.Pull)

	// Continuation lines align with the opening member and the CS pin.
	spi := strings.Repeat(" ", len(indent+".spi_cfg = { "))
	pin := spi + strings.Repeat(" ", len(".pin_cs = { "))
	d.line(".spi_cfg = { .mode = %d,", dev.Mode)
	d.printf(spi+".freq = %d,\n", dev.Freq)
	d.printf(spi+".pin_cs = { .pin_num = %s,\n", d.gpioNum(cs.Num))
	d.printf(pin+".pin_mux = %s,\n", d.ioMux(cs.Fun))
	d.printf(pin+".pin_dir = %s,\n", dir)
	d.printf(pin+".pin_pupd = %s }\n", pull)
	d.line("},")
}

// refs writes the named device references in the given order. Unset
// references are left out.
func (d *device) refs(keys ...string) {
	for _, key := range keys {
		for _, ref := range d.rec.Refs.Names() {
			if ref[0] == key {
				d.line(".%s_name = %q,", key, ref[1])
			}
		}
	}
}
