package targets

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

//go:embed chips.yaml
var rawChips []byte

var (
	chips      Chips
	baseline   string
	functions  map[string]FunctionTable
	exceptions []Exception
	pwmChannel [][]int
	pwmBreak   []int
	irqs       []string
)

var ErrChipNotFound = errors.New("chip not found")

// NoInstance is passed to Chip.Function for single instance peripherals.
const NoInstance = -1

// PWMBreakChannel is the channel number reported for PWM break input pins.
const PWMBreakChannel = -1

func All() Chips {
	return chips
}

// Baseline returns the chip assumed when no build configuration names one.
func Baseline() Chip {
	chip, err := chips.FindByChip(baseline)
	if err != nil {
		panic(err)
	}
	return chip
}

type Chips []Chip
type Chip struct {
	Name  string `yaml:"name"`
	Pins  int    `yaml:"pins"`
	UARTs int    `yaml:"uarts"`
}

type FunctionTable struct {
	Pins    map[int]int `yaml:"pins"`
	Default int         `yaml:"default"`
}

type Exception struct {
	Function string `yaml:"function"`
	Instance int    `yaml:"instance"`
	Pin      int    `yaml:"pin"`
	Fun      int    `yaml:"fun"`
}

func (c Chips) FindByChip(name string) (Chip, error) {
	for _, chip := range c {
		if strings.EqualFold(chip.Name, name) {
			return chip, nil
		}
	}
	return Chip{}, fmt.Errorf("%w: %q", ErrChipNotFound, name)
}

func (c Chips) Names() []string {
	names := make([]string, len(c))
	for i, chip := range c {
		names[i] = chip.Name
	}
	return names
}

// HasPin reports whether pin is a physical pin index on this chip.
func (c Chip) HasPin(pin int) bool {
	return pin >= 0 && pin < c.Pins
}

// HasUART reports whether the UART instance exists on this chip.
func (c Chip) HasUART(instance int) bool {
	return instance >= 0 && instance < c.UARTs
}

// Function returns the IO mux function code that routes the named function
// group to pin. Instance specific exceptions take priority over the shared
// table.
func (c Chip) Function(group string, instance int, pin int) (int, bool) {
	if !c.HasPin(pin) {
		return 0, false
	}

	if instance != NoInstance {
		for _, e := range exceptions {
			if e.Function == group && e.Instance == instance && e.Pin == pin {
				return e.Fun, true
			}
		}
	}

	table, ok := functions[group]
	if !ok {
		return 0, false
	}

	if fun, ok := table.Pins[pin]; ok {
		return fun, true
	}

	if table.Default != 0 {
		return table.Default, true
	}

	return 0, false
}

// Supports reports whether group is a known function group.
func (c Chip) Supports(group string) bool {
	_, ok := functions[group]
	return ok
}

// PWMChannel returns the PWM channel driven through pin. Break input pins
// report PWMBreakChannel.
func (c Chip) PWMChannel(pin int) (int, bool) {
	for ch, pins := range pwmChannel {
		if slices.Contains(pins, pin) {
			return ch, true
		}
	}

	if slices.Contains(pwmBreak, pin) {
		return PWMBreakChannel, true
	}

	return 0, false
}

// IRQName returns the interrupt line symbol for an interrupt number.
func IRQName(num int) (string, bool) {
	if num < 0 || num >= len(irqs) {
		return "", false
	}
	return irqs[num], true
}

func init() {
	var t struct {
		Baseline    string                   `yaml:"baseline"`
		Elements    []Chip                   `yaml:"chips"`
		Functions   map[string]FunctionTable `yaml:"functions"`
		Exceptions  []Exception              `yaml:"exceptions"`
		PWMChannels [][]int                  `yaml:"pwmChannels"`
		PWMBreak    []int                    `yaml:"pwmBreak"`
		IRQs        []string                 `yaml:"irqs"`
	}
	if err := yaml.Unmarshal(rawChips, &t); err != nil {
		panic(err)
	}

	chips = t.Elements
	baseline = t.Baseline
	functions = t.Functions
	exceptions = t.Exceptions
	pwmChannel = t.PWMChannels
	pwmBreak = t.PWMBreak
	irqs = t.IRQs
}
