package dtc

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/juju/errors"
	"golang.org/x/tools/txtar"

	"omibyte.io/wmdt/devconf"
	"omibyte.io/wmdt/kconfig"
	"omibyte.io/wmdt/targets"
)

// compileArchive compiles the description and build configuration held by a
// test archive.
func compileArchive(t *testing.T, ar *txtar.Archive) *Output {
	t.Helper()

	var description, sdkconfig []byte
	for _, f := range ar.Files {
		switch f.Name {
		case "description.yaml":
			description = f.Data
		case "sdkconfig":
			sdkconfig = f.Data
		}
	}

	gate, err := kconfig.Parse(bytes.NewReader(sdkconfig))
	if err != nil {
		t.Fatal(err)
	}
	chip, err := gate.Target()
	if err != nil {
		t.Fatal(err)
	}
	m, err := devconf.Load(devconf.NewMemStore(description), chip)
	if err != nil {
		t.Fatal(err)
	}

	out, err := Compile(m, gate, chip, Options{TableName: m.TableName()})
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func mustFile(t *testing.T, out *Output, name string) string {
	t.Helper()
	data, ok := out.File(name)
	if !ok {
		t.Fatalf("no output file %s", name)
	}
	return string(data)
}

// TestCompile runs the archives in testdata. Each holds a description, a
// build configuration and the expectations:
//
//	devices            the table entries in order, one per line
//	contains/<file>    a fragment that must appear verbatim in <file>
//	excludes/<file>    lines that must not appear anywhere in <file>
func TestCompile(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Fatal("no test archives")
	}

	for _, path := range paths {
		t.Run(strings.TrimSuffix(filepath.Base(path), ".txtar"), func(t *testing.T) {
			ar, err := txtar.ParseFile(path)
			if err != nil {
				t.Fatal(err)
			}
			out := compileArchive(t, ar)

			for _, f := range ar.Files {
				switch {
				case f.Name == "devices":
					expected := strings.Fields(string(f.Data))
					if !reflect.DeepEqual(out.Devices, expected) {
						t.Errorf("expected devices:\n%v\n\ngot:\n%v\n\n", expected, out.Devices)
					}
				case strings.HasPrefix(f.Name, "contains/"):
					name := strings.TrimPrefix(f.Name, "contains/")
					got := mustFile(t, out, name)
					if !strings.Contains(got, string(f.Data)) {
						t.Errorf("expected %s to contain:\n%s\n\ngot:\n%s\n\n", name, f.Data, got)
					}
				case strings.HasPrefix(f.Name, "excludes/"):
					name := strings.TrimPrefix(f.Name, "excludes/")
					got := mustFile(t, out, name)
					for _, line := range strings.Split(strings.TrimSpace(string(f.Data)), "\n") {
						if strings.Contains(got, line) {
							t.Errorf("expected %s not to contain %q", name, line)
						}
					}
				}
			}
		})
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	ar, err := txtar.ParseFile(filepath.Join("testdata", "board.txtar"))
	if err != nil {
		t.Fatal(err)
	}

	first := compileArchive(t, ar)
	second := compileArchive(t, ar)
	if len(first.Files) != len(second.Files) {
		t.Fatalf("expected %d files, got %d", len(first.Files), len(second.Files))
	}
	for i := range first.Files {
		if first.Files[i].Name != second.Files[i].Name || !bytes.Equal(first.Files[i].Data, second.Files[i].Data) {
			t.Errorf("%s differs between runs", first.Files[i].Name)
		}
	}
}

func TestCompileBoard(t *testing.T) {
	ar, err := txtar.ParseFile(filepath.Join("testdata", "board.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	out := compileArchive(t, ar)

	header := mustFile(t, out, HeaderFile)
	if n := strings.Count(header, "} wm_dt_hw_flash_cfg_t;"); n != 1 {
		t.Errorf("expected the shared flash configuration once, got %d", n)
	}
	if !strings.HasSuffix(header, "#endif /* __WM_DT_HW_H__ */\n") {
		t.Errorf("header is not closed:\n%s", header[max(0, len(header)-200):])
	}

	source := mustFile(t, out, SourceFile("default"))
	if strings.Count(source, "typedef struct wm_drv_ops_structure wm_drv_uart_ops_t;") != 1 {
		t.Errorf("expected a single uart ops declaration")
	}

	// The board routes pin 5 to both gpio and pwm.
	found := false
	for _, warning := range out.Warnings {
		if strings.HasPrefix(warning, "pin 5: ") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a pin 5 conflict warning, got %q", out.Warnings)
	}
}

type records []devconf.Record

func (r records) Records() []devconf.Record {
	return r
}

func record(name string, modify func(rec *devconf.Record)) devconf.Record {
	key, ok := devconf.ParseKey(name)
	if !ok {
		panic("unknown device " + name)
	}
	rec := devconf.Default(key)
	rec.Exists = true
	if modify != nil {
		modify(&rec)
	}
	return rec
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name     string
		records  records
		features []kconfig.Feature
		opts     Options
		err      error
	}{
		{
			name: "init level",
			records: records{record("uart0", func(rec *devconf.Record) {
				rec.Init.Level = "boot"
			})},
			features: []kconfig.Feature{kconfig.UART},
			err:      ErrInitLevel,
		},
		{
			name: "baud rate",
			records: records{record("uart0", func(rec *devconf.Record) {
				rec.Config = devconf.UARTConfig{Baud: 12345, StopBits: 1, DataBits: 8}
			})},
			features: []kconfig.Feature{kconfig.UART},
			err:      ErrTranslation,
		},
		{
			name: "irq number",
			records: records{record("uart0", func(rec *devconf.Record) {
				rec.IRQ = &devconf.IRQCfg{Num: 99}
			})},
			features: []kconfig.Feature{kconfig.UART},
			err:      ErrTranslation,
		},
		{
			name: "pin function",
			records: records{record("uart0", func(rec *devconf.Record) {
				rec.Pins[0].Fun = 0
			})},
			features: []kconfig.Feature{kconfig.UART},
			err:      ErrTranslation,
		},
		{
			name: "pin off chip",
			records: records{record("uart0", func(rec *devconf.Record) {
				rec.Pins[0].Num = 60
			})},
			features: []kconfig.Feature{kconfig.UART},
			err:      ErrTranslation,
		},
		{
			name:     "eeprom without bus",
			records:  records{record("eeprom0", nil)},
			features: []kconfig.Feature{kconfig.I2C},
			err:      ErrTranslation,
		},
		{
			name: "rcc without clocks",
			records: records{record("rcc", func(rec *devconf.Record) {
				rec.Config = devconf.RCCConfig{}
			})},
			err: ErrMissingArray,
		},
		{
			name:     "adc without channels",
			records:  records{record("adc", nil)},
			features: []kconfig.Feature{kconfig.ADC},
			err:      ErrMissingArray,
		},
		{
			name:     "gpio without pins",
			records:  records{record("gpio", nil)},
			features: []kconfig.Feature{kconfig.GPIO},
			err:      ErrMissingArray,
		},
		{
			name: "pin conflict",
			records: records{
				record("gpio", func(rec *devconf.Record) {
					rec.Config = devconf.GPIOConfig{Pins: []devconf.GPIOPin{{Pin: 5, Fun: 5}}}
				}),
				record("pwm", func(rec *devconf.Record) {
					rec.Pins = []devconf.Pin{{Num: 5, Fun: 3}}
				}),
			},
			features: []kconfig.Feature{kconfig.GPIO, kconfig.PWM},
			opts:     Options{RejectPinConflicts: true},
			err:      ErrPinConflict,
		},
		{
			name: "self reference",
			records: records{record("uart0", func(rec *devconf.Record) {
				rec.Refs.DMA = "uart0"
			})},
			features: []kconfig.Feature{kconfig.UART},
			err:      ErrDependencyCycle,
		},
		{
			name: "cycle",
			records: records{
				record("dma", func(rec *devconf.Record) {
					rec.Refs.RCC = "uart0"
				}),
				record("uart0", func(rec *devconf.Record) {
					rec.Refs.DMA = "dma"
				}),
			},
			features: []kconfig.Feature{kconfig.UART},
			err:      ErrDependencyCycle,
		},
	}

	chip := targets.Baseline()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gate := kconfig.New(chip.Name, tc.features...)
			out, err := Compile(tc.records, gate, chip, tc.opts)
			if !errors.Is(err, tc.err) {
				t.Errorf("expected %v, got %v", tc.err, err)
			}
			if out != nil {
				t.Errorf("expected no output on error")
			}
		})
	}
}

func TestCompileWarnings(t *testing.T) {
	chip := targets.Baseline()
	src := records{
		record("uart0", func(rec *devconf.Record) {
			rec.Refs.DMA = "dma"
			rec.Refs.RCC = "rcc"
		}),
		record("rcc", func(rec *devconf.Record) {
			rec.Init.Level = devconf.LevelApp
			rec.Init.Priority = 3
		}),
	}

	out, err := Compile(src, kconfig.New(chip.Name, kconfig.UART), chip, Options{})
	if err != nil {
		t.Fatal(err)
	}

	expected := []string{
		`uart0: dma_device "dma" is not in the device table`,
		`uart0: initialized before rcc_device "rcc"`,
	}
	if !reflect.DeepEqual(out.Warnings, expected) {
		t.Errorf("expected:\n%q\n\ngot:\n%q\n\n", expected, out.Warnings)
	}
}

func TestSourceFile(t *testing.T) {
	tests := []struct {
		table    string
		expected string
	}{
		{"", "wm_dt_hw.c"},
		{"default", "wm_dt_hw_default.c"},
		{"board", "wm_dt_hw_board.c"},
	}

	for _, tc := range tests {
		if got := SourceFile(tc.table); got != tc.expected {
			t.Errorf("SourceFile(%q): expected %s, got %s", tc.table, tc.expected, got)
		}
	}
}

func TestRenderDevNamesEmpty(t *testing.T) {
	got := renderDevNames(nil)
	if strings.Contains(got, "#define WM_DEV_") {
		t.Errorf("expected no name constants:\n%s", got)
	}
	if !strings.HasSuffix(got, "#endif /* __WM_DT_DEV_NAME_H__ */\n") {
		t.Errorf("header is not closed:\n%s", got)
	}
}

func TestOutputWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "gen")
	out := &Output{Files: []File{
		{Name: "a.h", Data: []byte("a\n")},
		{Name: "b.c", Data: []byte("b\n")},
	}}

	if err := out.Write(dir); err != nil {
		t.Fatal(err)
	}

	// Age the files so a rewrite is visible in the modification time.
	past := time.Now().Add(-time.Hour).Truncate(time.Second)
	for _, f := range out.Files {
		if err := os.Chtimes(filepath.Join(dir, f.Name), past, past); err != nil {
			t.Fatal(err)
		}
	}

	out.Files[1].Data = []byte("b2\n")
	if err := out.Write(dir); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(filepath.Join(dir, "a.h"))
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(past) {
		t.Errorf("unchanged file was rewritten")
	}

	data, err := os.ReadFile(filepath.Join(dir, "b.c"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "b2\n" {
		t.Errorf("expected b2, got %q", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	if !reflect.DeepEqual(names, []string{"a.h", "b.c"}) {
		t.Errorf("expected only the output files, got %v", names)
	}
}
