package devconf

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"omibyte.io/wmdt/targets"
)

// decodeEntry normalizes one device entry. It never fails: fields that are
// missing or unusable keep the class default.
func decodeEntry(key Key, entry *yaml.Node, chip targets.Chip, issues *[]string) Record {
	rec := Default(key)
	rec.Exists = true

	r := reader{dev: key.Name(), node: entry, issues: issues}

	ic := r.sub("init_cfg")
	rec.Init.Level = InitLevel(ic.str("init_level", string(LevelApp)))
	rec.Init.Priority = ic.int("init_priority", 0)
	rec.RegBase = uint32(r.int("reg_base", 0))

	if r.has("irq_cfg") {
		irq := r.sub("irq_cfg")
		rec.IRQ = &IRQCfg{
			Num:      irq.int("irq_num", 0),
			Priority: irq.int("irq_priority", 0),
		}
	}

	rec.Refs = Refs{
		DMA:         r.str("dma_device", ""),
		RCC:         r.str("rcc_device", ""),
		I2C:         r.str("i2c_device", ""),
		I2S:         r.str("i2s_device", ""),
		SPI:         r.str("spi_device", ""),
		GPIO:        r.str("gpio_device", ""),
		SegLCD:      r.str("seg_lcd_device", ""),
		TouchSensor: r.str("touch_sensor_device", ""),
	}

	if r.has("pin_cfg") {
		if pins, ok := decodePins(r, chip); ok {
			rec.Pins = pins
		} else {
			r.warn("%s: unusable pin_cfg, using the class default pins", key.Name())
		}
	}

	rec.Config = decodeConfig(rec.Config, r, chip)
	deriveFuns(&rec, chip)
	return rec
}

func decodePins(r reader, chip targets.Chip) ([]Pin, bool) {
	n := lookup(r.node, "pin_cfg")
	if n.Kind == yaml.MappingNode {
		pin, ok := decodePin(r.sub("pin_cfg"), "pin", "fun", chip)
		if !ok {
			return nil, false
		}
		return []Pin{pin}, true
	}
	if n.Kind != yaml.SequenceNode {
		return nil, false
	}

	items := r.list("pin_cfg")
	if len(items) != len(n.Content) {
		return nil, false
	}

	pins := make([]Pin, 0, len(items))
	for _, item := range items {
		pin, ok := decodePin(item, "pin", "fun", chip)
		if !ok {
			return nil, false
		}
		pins = append(pins, pin)
	}
	return pins, true
}

// decodePin reads one pin mapping. The pin number is mandatory and must exist
// on the chip. An unreadable function code is left at zero to be derived from
// the chip tables.
func decodePin(r reader, pinKey string, funKey string, chip targets.Chip) (Pin, bool) {
	var pin Pin

	num, ok := scalarInt(lookup(r.node, pinKey))
	if !ok || !chip.HasPin(num) {
		r.warn("%s: pin %v is not available on %s", r.where(pinKey), num, chip.Name)
		return pin, false
	}
	pin.Num = num

	if n := lookup(r.node, funKey); n != nil {
		fun, ok := parseFun(n)
		if !ok {
			r.warn("%s: invalid function %q", r.where(funKey), n.Value)
		}
		pin.Fun = fun
	}

	switch dir := PinDir(r.str("dir", "")); dir {
	case DirDefault, DirInput, DirOutput:
		pin.Dir = dir
	default:
		r.warn("%s: unknown direction %q", r.where("dir"), dir)
	}

	switch pull := PinPull(r.str("pupd", "")); pull {
	case PullDefault, PullFloat, PullUp, PullDown:
		pin.Pull = pull
	case "pull_up":
		pin.Pull = PullUp
	case "pull_down":
		pin.Pull = PullDown
	default:
		r.warn("%s: unknown pull mode %q", r.where("pupd"), pull)
	}

	return pin, true
}

// parseFun accepts both "fun<n>" and a bare number.
func parseFun(n *yaml.Node) (int, bool) {
	if v, ok := scalarInt(n); ok {
		return v, v >= 1 && v <= 7
	}
	s, _ := scalarString(n)
	digits, ok := strings.CutPrefix(strings.ToLower(s), "fun")
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(digits)
	if err != nil || v < 1 || v > 7 {
		return 0, false
	}
	return v, true
}

func decodeConfig(def Config, r reader, chip targets.Chip) Config {
	switch c := def.(type) {
	case RCCConfig:
		var clocks []RCCClock
		for _, item := range r.list("rcc_cfg") {
			t := item.enum("type", rccTypes, int(RCCPeripheral))
			clocks = append(clocks, RCCClock{Type: RCCType(t), Clock: item.int("clock", 0)})
		}
		if clocks != nil {
			c.Clocks = clocks
		}
		for _, clock := range c.Clocks {
			if clock.Clock <= 0 {
				continue
			}
			switch clock.Type {
			case RCCCPU:
				c.CPUDiv = PLLMHz / clock.Clock
			case RCCWLAN:
				c.WLANDiv = PLLMHz / clock.Clock
			}
		}
		return c
	case UARTConfig:
		cfg := r.sub("uart_cfg")
		c.Baud = cfg.int("baudrate", c.Baud)
		c.Parity = Parity(cfg.enum("parity", parities, int(c.Parity)))
		c.StopBits = cfg.int("stop_bits", c.StopBits)
		c.DataBits = cfg.int("data_bits", c.DataBits)
		c.FlowCtrl = FlowCtrl(cfg.enum("flow_ctrl", flowCtrls, int(c.FlowCtrl)))
		return c
	case GPIOConfig:
		for _, item := range r.list("gpio_cfg") {
			num, ok := scalarInt(lookup(item.node, "pin"))
			if !ok || !chip.HasPin(num) {
				item.warn("%s: dropping unusable gpio entry", item.where("pin"))
				continue
			}
			fun, ok := 0, false
			if n := lookup(item.node, "fun"); n != nil {
				fun, ok = parseFun(n)
			}
			if !ok {
				fun, _ = chip.Function("gpio", targets.NoInstance, num)
			}
			c.Pins = append(c.Pins, GPIOPin{
				Pin:     num,
				Fun:     fun,
				Dir:     GPIODir(item.enum("dir", gpioDirs, int(GPIOInput))),
				Pull:    GPIOPull(item.enum("pupd", gpioPulls, int(GPIOFloat))),
				IntMode: GPIOIntMode(item.enum("interrupt_mode", gpioIntModes, int(IntNone))),
			})
		}
		return c
	case IFlashConfig:
		c.QuadSPI = r.sub("flash_cfg").bool("quad_spi", c.QuadSPI)
		return c
	case SegLCDConfig:
		cfg := r.sub("seg_lcd_cfg")
		c.Duty = cfg.enum("duty_sel", segLCDDuties, c.Duty)
		c.VLCD = cfg.enum("vlcd_cc", segLCDVLCDs, c.VLCD)
		c.Bias = cfg.enum("bias", segLCDBiases, c.Bias)
		c.HD = cfg.enum("hd", segLCDDrives, c.HD)
		c.FrameFreq = cfg.int("frame_freq", c.FrameFreq)
		c.ComNum = cfg.int("com_num", c.ComNum)
		return c
	case I2CConfig:
		cfg := r.sub("i2c_cfg")
		c.MaxClock = cfg.int("max_clock", c.MaxClock)
		c.Addr10Bits = cfg.bool("addr_10_bits", c.Addr10Bits)
		return c
	case EEPROMConfig:
		c.SpeedHz = r.int("speed_hz", c.SpeedHz)
		c.Size = r.int("size", c.Size)
		c.I2CAddr = r.int("i2c_addr", c.I2CAddr)
		c.PageSize = r.int("page_size", c.PageSize)
		c.AddrWidth = r.int("addr_width", c.AddrWidth)
		c.ReadOnly = r.bool("read_only", c.ReadOnly)
		c.MaxWriteTimeMs = r.int("max_write_time_ms", c.MaxWriteTimeMs)
		return c
	case PMUConfig:
		c.ClkSrc = PMUClock(r.enum("clk_src", pmuClocks, int(c.ClkSrc)))
		return c
	case TouchButtonConfig:
		for _, item := range r.list("touch_button_cfg") {
			c.Buttons = append(c.Buttons, TouchButton{
				KeyNum:    item.int("key_num", 0),
				Threshold: item.int("threshold", 0),
			})
		}
		return c
	case ADCConfig:
		for _, item := range r.list("adc_cfg") {
			c.Channels = append(c.Channels, ADCChannel{
				Channel: item.int("adc_channel", 0),
				Gain1:   item.enum("pga_gain1", levels(6), 0),
				Gain2:   item.enum("pga_gain2", levels(4), 0),
				Cmp:     item.bool("adc_cmp", false),
				CmpData: item.int("cmp_data", 0),
				CmpPol:  item.bool("cmp_pol", false),
			})
		}
		return c
	case EFlashConfig:
		c.QuadSPI = r.sub("flash_cfg").bool("quad_spi", c.QuadSPI)
		c.SPI = decodeSPIDevice(r.sub("spi_cfg"), "pin", "fun", c.SPI, chip)
		return c
	case I2SConfig:
		cfg := r.sub("i2s_cfg")
		c.ExtalClock = cfg.bool("extal_clock_en", c.ExtalClock)
		c.MclkHz = cfg.int("mclk_hz", c.MclkHz)
		return c
	case ES8374Config:
		cfg := r.sub("es8374_cfg")
		c.DMIC = cfg.bool("dmic", c.DMIC)
		c.LIN1 = cfg.bool("lin1", c.LIN1)
		c.RIN1 = cfg.bool("rin1", c.RIN1)
		c.LIN2 = cfg.bool("lin2", c.LIN2)
		c.RIN2 = cfg.bool("rin2", c.RIN2)
		c.MonoOut = cfg.bool("monoout", c.MonoOut)
		c.SpkOut = cfg.bool("spkout", c.SpkOut)
		c.I2C = cfg.bool("i2c", c.I2C)
		c.Address = cfg.int("address", c.Address)
		return c
	case SDMMCConfig:
		cfg := r.sub("sdh_cfg")
		c.ClockHz = cfg.int("clock_hz", c.ClockHz)
		c.BusWidth = cfg.int("bus_width", c.BusWidth)
		return c
	case SDIOSlaveConfig:
		c.WrapperRegBase = uint32(r.int("wrapper_reg_base", int(c.WrapperRegBase)))
		return c
	case TFTLCDConfig:
		c.SPI = decodeSPIDevice(r.sub("spi_cfg"), "pin_num", "pin_mux", c.SPI, chip)
		c.Reset = decodeIO(r, "pin_lcd_reset", c.Reset, chip)
		c.LED = decodeIO(r, "pin_lcd_led", c.LED, chip)
		c.DCX = decodeIO(r, "pin_lcd_dcx", c.DCX, chip)
		c.TE = decodeIO(r, "pin_lcd_te", c.TE, chip)
		return c
	case WDTConfig:
		c.CounterValue = r.sub("wdt_cfg").int("counter_value", c.CounterValue)
		return c
	case PSRAMConfig:
		cfg := r.sub("psram_cfg")
		c.QSPI = cfg.bool("qspi", c.QSPI)
		c.ClockHz = cfg.int("clock_hz", c.ClockHz)
		return c
	}
	return def
}

func decodeSPIDevice(r reader, pinKey string, funKey string, def SPIDevice, chip targets.Chip) SPIDevice {
	def.Mode = r.int("mode", def.Mode)
	def.Freq = r.int("freq", def.Freq)
	if r.has("pin_cs") {
		if pin, ok := decodePin(r.sub("pin_cs"), pinKey, funKey, chip); ok {
			if pin.Fun == 0 {
				pin.Fun = def.CS.Fun
			}
			def.CS = pin
		}
	}
	return def
}

// decodeIO reads a plain GPIO number. NoPin is accepted for optional pins.
func decodeIO(r reader, key string, def int, chip targets.Chip) int {
	if !r.has(key) {
		return def
	}
	v := r.int(key, def)
	if v != NoPin && !chip.HasPin(v) {
		r.warn("%s: pin %d is not available on %s", r.where(key), v, chip.Name)
		return def
	}
	return v
}

func levels(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = "level" + strconv.Itoa(i)
	}
	return names
}
