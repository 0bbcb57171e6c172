package pinmux

import (
	"bytes"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"omibyte.io/wmdt/devconf"
	"omibyte.io/wmdt/kconfig"
	"omibyte.io/wmdt/targets"
)

const description = `
dev:
  - dev_name: gpio
    gpio_cfg:
      - {pin: 5, fun: fun5, dir: output, pupd: float, interrupt_mode: none}
  - dev_name: pwm
    pin_cfg:
      - {pin: 5, fun: fun3}
      - {pin: 2, fun: fun3}
  - dev_name: uart0
    pin_cfg:
      - {pin: 35, fun: fun1}
      - {pin: 36, fun: fun1}
  - dev_name: uart5
    pin_cfg:
      - {pin: 8, fun: fun3}
      - {pin: 9, fun: fun3}
  - dev_name: i2c
    pin_cfg:
      - {pin: 1, fun: fun2}
      - {pin: 4, fun: fun2}
`

func load(t *testing.T, chip targets.Chip) *devconf.Model {
	t.Helper()
	m, err := devconf.Load(devconf.NewMemStore([]byte(description)), chip)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestResolve(t *testing.T) {
	chip := targets.Baseline()
	m := load(t, chip)

	table := Resolve(m, kconfig.New(chip.Name, kconfig.GPIO, kconfig.PWM, kconfig.UART), chip)
	if table.Len() != chip.Pins {
		t.Fatalf("expected %d pins, got %d", chip.Pins, table.Len())
	}

	tests := []struct {
		pin      int
		expected map[string]string
	}{
		{5, map[string]string{"gpio": "GPIO", "pwm": "PWM_BREAK"}},
		{2, map[string]string{"pwm": "PWM0"}},
		{35, map[string]string{"uart0": "UART0_TX"}},
		{36, map[string]string{"uart0": "UART0_RX"}},
		// The i2c driver is not enabled.
		{1, map[string]string{}},
		// W800 has no uart5.
		{8, map[string]string{}},
		{0, map[string]string{}},
	}

	for _, test := range tests {
		t.Run(strconv.Itoa(test.pin), func(t *testing.T) {
			if got := table.Pin(test.pin); !reflect.DeepEqual(got, test.expected) {
				t.Errorf("pin %d: expected %v, got %v", test.pin, test.expected, got)
			}
		})
	}
}

func TestResolveChip(t *testing.T) {
	chip, err := targets.All().FindByChip("W806")
	if err != nil {
		t.Fatal(err)
	}
	m := load(t, chip)

	table := Resolve(m, kconfig.All(chip.Name), chip)
	if table.Len() != 48 {
		t.Errorf("expected 48 pins, got %d", table.Len())
	}
	expected := map[string]string{"uart5": "UART5_TX"}
	if got := table.Pin(8); !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
	expected = map[string]string{"i2c": "I2C_SDA"}
	if got := table.Pin(4); !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestConflicts(t *testing.T) {
	chip := targets.Baseline()
	m := load(t, chip)

	conflicts := Resolve(m, kconfig.All(chip.Name), chip).Conflicts()
	expected := []Conflict{{
		Pin:    5,
		Claims: []Assignment{{Device: "gpio", Role: "GPIO"}, {Device: "pwm", Role: "PWM_BREAK"}},
	}}
	if !reflect.DeepEqual(conflicts, expected) {
		t.Fatalf("expected %v, got %v", expected, conflicts)
	}
	if s := conflicts[0].String(); s != "pin 5: gpio(GPIO) pwm(PWM_BREAK)" {
		t.Errorf("unexpected rendering %q", s)
	}

	if conflicts := Resolve(m, kconfig.New(chip.Name, kconfig.PWM), chip).Conflicts(); len(conflicts) != 0 {
		t.Errorf("expected no conflicts with gpio disabled, got %v", conflicts)
	}
}

func TestJSON(t *testing.T) {
	chip := targets.Baseline()
	m := load(t, chip)

	data, err := Resolve(m, kconfig.All(chip.Name), chip).MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}

	var s structpb.Struct
	if err := protojson.Unmarshal(data, &s); err != nil {
		t.Fatal(err)
	}
	doc := s.AsMap()

	if doc["chip_type"] != "W800" {
		t.Errorf("expected chip_type W800, got %v", doc["chip_type"])
	}
	pins, ok := doc["pinmux"].([]any)
	if !ok || len(pins) != chip.Pins {
		t.Fatalf("expected %d pin entries, got %v", chip.Pins, doc["pinmux"])
	}
	expected := map[string]any{"gpio": "GPIO", "pwm": "PWM_BREAK"}
	if !reflect.DeepEqual(pins[5], expected) {
		t.Errorf("expected %v, got %v", expected, pins[5])
	}
	if !reflect.DeepEqual(pins[0], map[string]any{}) {
		t.Errorf("expected an empty entry, got %v", pins[0])
	}
}

func TestWriteText(t *testing.T) {
	chip := targets.Baseline()
	m := load(t, chip)

	var buf bytes.Buffer
	if err := Resolve(m, kconfig.All(chip.Name), chip).WriteText(&buf, false); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// Header, pin 1, 2, 4, two claims on 5, 35 and 36.
	if len(lines) != 8 {
		t.Errorf("expected 8 lines, got %d:\n%s", len(lines), buf.String())
	}
	for _, s := range []string{"PWM_BREAK", "UART0_RX", "I2C_SCL"} {
		if !strings.Contains(buf.String(), s) {
			t.Errorf("expected %q in output", s)
		}
	}
}
