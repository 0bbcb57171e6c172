package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"omibyte.io/wmdt/dtc"
)

const description = `table_name: board
dev:
  - dev_name: rcc
    reg_base: 0x40000E00
    init_cfg: {init_level: system, init_priority: 0}
    rcc_cfg:
      - {type: cpu, clock: 240}
  - dev_name: uart0
    reg_base: 0x40010600
    init_cfg: {init_level: app, init_priority: 0}
    irq_cfg: {irq_num: 16, irq_priority: 0}
    uart_cfg: {baudrate: 115200, parity: none, stop_bits: 1, data_bits: 8, flow_ctrl: none}
    pin_cfg:
      - {pin: 2, fun: fun2}
      - {pin: 3, fun: fun2}
    rcc_device: rcc
`

const sdkconfig = `CONFIG_CHIP_NAME="W800"
CONFIG_COMPONENT_DRIVER_UART_ENABLED=y
`

// setup writes the inputs to a fresh directory and returns the arguments
// selecting them.
func setup(t *testing.T) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	desc := filepath.Join(dir, "device_table.yaml")
	if err := os.WriteFile(desc, []byte(description), 0644); err != nil {
		t.Fatal(err)
	}
	conf := filepath.Join(dir, "sdkconfig")
	if err := os.WriteFile(conf, []byte(sdkconfig), 0644); err != nil {
		t.Fatal(err)
	}
	return dir, []string{"--description", desc, "--kconfig", conf}
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	mainCmd.SetOut(&out)
	mainCmd.SetIn(strings.NewReader(stdin))
	mainCmd.SetArgs(args)
	err := mainCmd.Execute()
	return out.String(), err
}

func TestGenerate(t *testing.T) {
	dir, args := setup(t)
	gen := filepath.Join(dir, "gen")

	if _, err := run(t, "", append([]string{"generate", "-o", gen}, args...)...); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{dtc.HeaderFile, dtc.DevNameFile, dtc.SourceFile("board")} {
		if _, err := os.Stat(filepath.Join(gen, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}

	source, err := os.ReadFile(filepath.Join(gen, dtc.SourceFile("board")))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(source), `.dev_name = "uart0"`) {
		t.Errorf("expected a uart0 table entry:\n%s", source)
	}
}

func TestGetSet(t *testing.T) {
	dir, args := setup(t)

	entry, err := run(t, "", append([]string{"get", "uart0"}, args...)...)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(entry, "baudrate: 115200") {
		t.Fatalf("unexpected entry:\n%s", entry)
	}

	updated := strings.Replace(entry, "baudrate: 115200", "baudrate: 921600", 1)
	if _, err = run(t, updated, append([]string{"set", "uart0", "-f", "-"}, args...)...); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "device_table.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "921600") {
		t.Errorf("description was not updated:\n%s", data)
	}
	if !strings.Contains(string(data), "table_name: board") {
		t.Errorf("unrelated fields were lost:\n%s", data)
	}
}

func TestSetRejectsInvalidEntry(t *testing.T) {
	dir, args := setup(t)

	if _, err := run(t, "uart_cfg: {baudrate: 12345}\n", append([]string{"set", "uart0", "-f", "-"}, args...)...); err == nil {
		t.Fatal("expected an error")
	}

	data, err := os.ReadFile(filepath.Join(dir, "device_table.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != description {
		t.Errorf("description changed:\n%s", data)
	}
}

func TestPins(t *testing.T) {
	_, args := setup(t)

	out, err := run(t, "", append([]string{"pins", "--json=false", "--all=false"}, args...)...)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "UART0_TX") {
		t.Errorf("expected the uart0 pins:\n%s", out)
	}
}

func TestUnknownDevice(t *testing.T) {
	_, args := setup(t)
	if _, err := run(t, "", append([]string{"get", "uart9"}, args...)...); err == nil {
		t.Fatal("expected an error")
	}
}
