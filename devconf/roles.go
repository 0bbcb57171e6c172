package devconf

import (
	"strconv"

	"omibyte.io/wmdt/targets"
)

// Claim is one physical pin taken by a device under a logical role such as
// UART0_TX or PWM2.
type Claim struct {
	Pin  int
	Role string
}

// role describes what one entry of a record's pin list is used for. group
// names the chip function table the IO mux code is derived from; an empty
// group leaves the code chosen by the description.
type role struct {
	name     string
	group    string
	instance int
}

var (
	mmcRoles = []role{
		{name: "MMC_CLK", group: "sdio_clk"},
		{name: "MMC_CMD", group: "sdio_cmd"},
		{name: "MMC_DAT0", group: "sdio_dat0"},
		{name: "MMC_DAT1", group: "sdio_dat1"},
		{name: "MMC_DAT2", group: "sdio_dat2"},
		{name: "MMC_DAT3", group: "sdio_dat3"},
	}
	psramRoles = []role{
		{name: "PSRAM_CK", group: "psram_ck"},
		{name: "PSRAM_CS", group: "psram_cs"},
		{name: "PSRAM_DAT0", group: "psram_dat0"},
		{name: "PSRAM_DAT1", group: "psram_dat1"},
		{name: "PSRAM_DAT2", group: "psram_dat2"},
		{name: "PSRAM_DAT3", group: "psram_dat3"},
	}
	i2cRoles = []role{
		{name: "I2C_SCL", group: "i2c_scl"},
		{name: "I2C_SDA", group: "i2c_sda"},
	}
	spimRoles = []role{
		{name: "LSPI_CK", group: "spim_clk"},
		{name: "LSPI_MISO", group: "spim_di"},
		{name: "LSPI_MOSI", group: "spim_do"},
	}
	touchRoles = []role{
		{name: "CMOD", group: "touch"},
		{name: "CDC", group: "touch"},
	}
	i2sClockRoles = []role{
		{name: "I2S_BCLK", group: "i2s_bclk"},
		{name: "I2S_LRCLK", group: "i2s_lrclk"},
	}
	i2sDataRoles = []role{
		{name: "I2S_MCLK", group: "i2s_mclk"},
		{name: "I2S_DI", group: "i2s_di"},
		{name: "I2S_DO", group: "i2s_do"},
	}
)

func (r role) withInstance(instance int) role {
	r.instance = instance
	return r
}

// pinRoles returns one role per entry of rec.Pins. Entries that do not claim
// their pin have an empty name.
func pinRoles(rec Record, chip targets.Chip) []role {
	roles := make([]role, len(rec.Pins))
	for i := range roles {
		roles[i].instance = targets.NoInstance
	}

	fixed := func(list []role) {
		for i := range roles {
			if i < len(list) {
				roles[i] = list[i].withInstance(targets.NoInstance)
			}
		}
	}

	switch rec.Class {
	case ClassUART:
		n := rec.Index()
		prefix := "UART" + strconv.Itoa(n) + "_"
		list := []role{
			{name: prefix + "TX", group: "uart_tx"},
			{name: prefix + "RX", group: "uart_rx"},
		}
		if c, ok := rec.Config.(UARTConfig); ok {
			switch c.FlowCtrl {
			case FlowRTS:
				list = append(list, role{name: prefix + "RTS", group: "uart_rts"})
			case FlowCTS:
				list = append(list, role{name: prefix + "CTS", group: "uart_cts"})
			case FlowRTSCTS:
				list = append(list,
					role{name: prefix + "RTS", group: "uart_rts"},
					role{name: prefix + "CTS", group: "uart_cts"})
			}
		}
		for i := range roles {
			if i < len(list) {
				roles[i] = list[i].withInstance(n)
			}
		}
	case ClassSDMMC, ClassSDIOSlave:
		fixed(mmcRoles)
	case ClassSDSPI:
		fixed(mmcRoles[:2])
	case ClassI2C:
		fixed(i2cRoles)
	case ClassSPIM:
		fixed(spimRoles)
	case ClassTouchSensor:
		fixed(touchRoles)
	case ClassPSRAM:
		fixed(psramRoles)
	case ClassEEPROM:
		fixed([]role{{name: "GPIO"}})
	case ClassTouchButton:
		if c, ok := rec.Config.(TouchButtonConfig); ok {
			for i, button := range c.Buttons {
				if i < len(roles) {
					roles[i].name = "TOUCH" + strconv.Itoa(button.KeyNum)
					roles[i].group = "touch"
				}
			}
		}
	case ClassPWM:
		for i, pin := range rec.Pins {
			ch, ok := chip.PWMChannel(pin.Num)
			if !ok {
				continue
			}
			roles[i].group = "pwm"
			if ch == targets.PWMBreakChannel {
				roles[i].name = "PWM_BREAK"
			} else {
				roles[i].name = "PWM" + strconv.Itoa(ch)
			}
		}
	case ClassI2S:
		fixed(i2sClockRoles)
		for i := len(i2sClockRoles); i < len(rec.Pins); i++ {
			roles[i] = i2sDataRole(rec.Pins[i], chip)
		}
	case ClassADC:
		c, _ := rec.Config.(ADCConfig)
		var names []string
		for _, ch := range c.Channels {
			switch ch.Channel {
			case ADCDiff01:
				names = append(names, "ADC0", "ADC1")
			case ADCDiff23:
				names = append(names, "ADC2", "ADC3")
			default:
				names = append(names, "ADC"+strconv.Itoa(ch.Channel))
			}
		}
		for i := range roles {
			if i < len(names) {
				roles[i].name = names[i]
				roles[i].group = "adc"
			}
		}
	}

	return roles
}

// i2sDataRole identifies an optional I2S pin by the function code it is
// routed with, since MCLK, DI and DO share several pins.
func i2sDataRole(pin Pin, chip targets.Chip) role {
	for _, r := range i2sDataRoles {
		if fun, ok := chip.Function(r.group, targets.NoInstance, pin.Num); ok && fun == pin.Fun {
			return r.withInstance(targets.NoInstance)
		}
	}
	for _, r := range i2sDataRoles {
		if _, ok := chip.Function(r.group, targets.NoInstance, pin.Num); ok {
			return r.withInstance(targets.NoInstance)
		}
	}
	return role{instance: targets.NoInstance}
}

// Claims returns every pin the record occupies together with its role.
func (rec Record) Claims(chip targets.Chip) []Claim {
	var claims []Claim
	for i, r := range pinRoles(rec, chip) {
		if len(r.name) > 0 {
			claims = append(claims, Claim{Pin: rec.Pins[i].Num, Role: r.name})
		}
	}

	switch c := rec.Config.(type) {
	case GPIOConfig:
		for _, pin := range c.Pins {
			claims = append(claims, Claim{Pin: pin.Pin, Role: "GPIO"})
		}
	case EFlashConfig:
		claims = append(claims, Claim{Pin: c.SPI.CS.Num, Role: "GPIO"})
	case TFTLCDConfig:
		for _, pin := range []int{c.SPI.CS.Num, c.Reset, c.DCX, c.LED, c.TE} {
			if pin != NoPin {
				claims = append(claims, Claim{Pin: pin, Role: "GPIO"})
			}
		}
	}

	return claims
}

// deriveFuns recomputes the IO mux function code of every pin whose role is
// backed by a chip function table. Pins the tables do not cover keep the
// code from the description.
func deriveFuns(rec *Record, chip targets.Chip) {
	for i, r := range pinRoles(*rec, chip) {
		if len(r.group) == 0 {
			continue
		}
		if fun, ok := chip.Function(r.group, r.instance, rec.Pins[i].Num); ok {
			rec.Pins[i].Fun = fun
		}
	}

	if c, ok := rec.Config.(GPIOConfig); ok {
		for i, pin := range c.Pins {
			if pin.Fun == 0 {
				c.Pins[i].Fun, _ = chip.Function("gpio", targets.NoInstance, pin.Pin)
			}
		}
	}
}
