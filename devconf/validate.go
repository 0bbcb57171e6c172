package devconf

import (
	"github.com/juju/errors"
	"golang.org/x/exp/slices"

	"omibyte.io/wmdt/targets"
)

// BaudRates lists the UART baud rates the driver has constants for.
var BaudRates = []int{
	600, 1200, 1800, 2400, 4800, 9600, 14400, 19200, 38400, 57600, 115200,
	230400, 460800, 921600, 1000000, 1250000, 1500000, 2000000,
}

const maxPSRAMClockHz = 80000000

// validate checks a record handed to Set. Every problem is reported as a
// NotValid error naming the device and the field.
func validate(rec Record, chip targets.Chip) error {
	name := rec.Name()

	if !rec.Init.Level.Valid() {
		return errors.NotValidf("%s: init level %q", name, rec.Init.Level)
	}
	if rec.Init.Priority < 0 || rec.Init.Priority > 255 {
		return errors.NotValidf("%s: init priority %d", name, rec.Init.Priority)
	}

	if rec.IRQ != nil {
		if _, ok := targets.IRQName(rec.IRQ.Num); !ok {
			return errors.NotValidf("%s: irq number %d", name, rec.IRQ.Num)
		}
	}

	for i, pin := range rec.Pins {
		if err := validatePin(pin, chip); err != nil {
			return errors.Annotatef(err, "%s: pin_cfg[%d]", name, i)
		}
	}

	def := defaultConfig(rec.Key)
	switch {
	case def == nil && rec.Config == nil:
		return nil
	case def == nil || rec.Config == nil || rec.Config.Class() != rec.Class:
		return errors.NotValidf("%s: configuration payload", name)
	}

	if err := validateConfig(rec.Config, chip); err != nil {
		return errors.Annotate(err, name)
	}
	return nil
}

func validatePin(pin Pin, chip targets.Chip) error {
	if !chip.HasPin(pin.Num) {
		return errors.NotValidf("pin %d on %s", pin.Num, chip.Name)
	}
	if pin.Fun < 1 || pin.Fun > 7 {
		return errors.NotValidf("function %d", pin.Fun)
	}
	switch pin.Dir {
	case DirDefault, DirInput, DirOutput:
	default:
		return errors.NotValidf("direction %q", pin.Dir)
	}
	switch pin.Pull {
	case PullDefault, PullFloat, PullUp, PullDown:
	default:
		return errors.NotValidf("pull mode %q", pin.Pull)
	}
	return nil
}

func inRange[T ~int](v T, names []string) bool {
	return v >= 0 && int(v) < len(names)
}

func validateConfig(cfg Config, chip targets.Chip) error {
	switch c := cfg.(type) {
	case RCCConfig:
		if c.CPUDiv < 2 || c.CPUDiv > 255 {
			return errors.NotValidf("cpu clock divider %d", c.CPUDiv)
		}
		if c.WLANDiv < 3 || c.WLANDiv > 255 {
			return errors.NotValidf("wlan clock divider %d", c.WLANDiv)
		}
		for _, clock := range c.Clocks {
			if !inRange(clock.Type, rccTypes) {
				return errors.NotValidf("clock type %d", clock.Type)
			}
		}
	case UARTConfig:
		if !slices.Contains(BaudRates, c.Baud) {
			return errors.NotValidf("baud rate %d", c.Baud)
		}
		if !inRange(c.Parity, parities) {
			return errors.NotValidf("parity %d", c.Parity)
		}
		if c.StopBits < 1 || c.StopBits > 2 {
			return errors.NotValidf("stop bits %d", c.StopBits)
		}
		if c.DataBits < 5 || c.DataBits > 8 {
			return errors.NotValidf("data bits %d", c.DataBits)
		}
		if !inRange(c.FlowCtrl, flowCtrls) {
			return errors.NotValidf("flow control %d", c.FlowCtrl)
		}
	case GPIOConfig:
		for _, pin := range c.Pins {
			if err := validatePin(Pin{Num: pin.Pin, Fun: pin.Fun}, chip); err != nil {
				return errors.Annotate(err, "gpio_cfg")
			}
			if !inRange(pin.Dir, gpioDirs) || !inRange(pin.Pull, gpioPulls) || !inRange(pin.IntMode, gpioIntModes) {
				return errors.NotValidf("gpio_cfg pin %d mode", pin.Pin)
			}
		}
	case SegLCDConfig:
		if !inRange(c.Duty, segLCDDuties) || !inRange(c.VLCD, segLCDVLCDs) ||
			!inRange(c.Bias, segLCDBiases) || !inRange(c.HD, segLCDDrives) {
			return errors.NotValidf("segment lcd mode")
		}
		if c.ComNum < 0 || c.ComNum > 7 {
			return errors.NotValidf("com number %d", c.ComNum)
		}
	case EEPROMConfig:
		if c.AddrWidth != 8 && c.AddrWidth != 16 {
			return errors.NotValidf("address width %d", c.AddrWidth)
		}
		if c.I2CAddr < 0 || c.I2CAddr > 0x3ff {
			return errors.NotValidf("i2c address %#x", c.I2CAddr)
		}
	case PMUConfig:
		if !inRange(c.ClkSrc, pmuClocks) {
			return errors.NotValidf("clock source %d", c.ClkSrc)
		}
	case ADCConfig:
		for _, ch := range c.Channels {
			if !validADCChannel(ch.Channel) {
				return errors.NotValidf("adc channel %d", ch.Channel)
			}
			if ch.Gain1 < 0 || ch.Gain1 > 5 || ch.Gain2 < 0 || ch.Gain2 > 3 {
				return errors.NotValidf("adc channel %d gain", ch.Channel)
			}
		}
	case EFlashConfig:
		return validateSPIDevice(c.SPI, chip)
	case SDMMCConfig:
		if c.BusWidth != 1 && c.BusWidth != 4 {
			return errors.NotValidf("bus width %d", c.BusWidth)
		}
		if !validSDClock(c.ClockHz, c.CPUClockHz) {
			return errors.NotValidf("sd clock %d Hz with a %d Hz cpu clock", c.ClockHz, c.CPUClockHz)
		}
	case TFTLCDConfig:
		if err := validateSPIDevice(c.SPI, chip); err != nil {
			return err
		}
		for _, pin := range []int{c.Reset, c.LED, c.DCX} {
			if !chip.HasPin(pin) {
				return errors.NotValidf("lcd pin %d", pin)
			}
		}
		if c.TE != NoPin && !chip.HasPin(c.TE) {
			return errors.NotValidf("lcd te pin %d", c.TE)
		}
	case PSRAMConfig:
		if !validPSRAMClock(c.ClockHz, c.CPUClockHz) {
			return errors.NotValidf("psram clock %d Hz with a %d Hz cpu clock", c.ClockHz, c.CPUClockHz)
		}
	}
	return nil
}

func validateSPIDevice(dev SPIDevice, chip targets.Chip) error {
	if dev.Mode < 0 || dev.Mode > 3 {
		return errors.NotValidf("spi mode %d", dev.Mode)
	}
	if dev.Freq <= 0 {
		return errors.NotValidf("spi frequency %d", dev.Freq)
	}
	return errors.Annotate(validatePin(dev.CS, chip), "pin_cs")
}

func validADCChannel(ch int) bool {
	return (ch >= 0 && ch <= 3) || ch == ADCDiff01 || ch == ADCDiff23
}

// defaultCPUClockHz is the cpu clock of the default clock tree, used when a
// record does not carry the current one.
func defaultCPUClockHz() int {
	c, _ := defaultConfig(Key{Class: ClassRCC}).(RCCConfig)
	return c.CPUClockHz()
}

// validSDClock reports whether clock is the cpu clock divided by an even
// factor between 2 and 16.
func validSDClock(clock, cpu int) bool {
	if clock <= 0 {
		return false
	}
	if cpu <= 0 {
		cpu = defaultCPUClockHz()
	}
	for div := 2; div <= 16; div += 2 {
		if cpu/div == clock && cpu%div == 0 {
			return true
		}
	}
	return false
}

// validPSRAMClock reports whether clock is the cpu clock divided by a factor
// between 3 and 15 and does not exceed 80 MHz.
func validPSRAMClock(clock, cpu int) bool {
	if clock <= 0 || clock > maxPSRAMClockHz {
		return false
	}
	if cpu <= 0 {
		cpu = defaultCPUClockHz()
	}
	for div := 3; div <= 15; div++ {
		if cpu/div == clock && cpu%div == 0 {
			return true
		}
	}
	return false
}
