package dtc

import (
	"strings"

	"omibyte.io/wmdt/devconf"
)

// classSpec describes how one peripheral class is written out.
type classSpec struct {
	// groups are the header type definitions the class needs.
	groups []string
	// base names the descriptor type wm_dt_hw_<base>_t.
	base string
	// ops returns the driver ops structure and table of a device. Both are
	// empty for devices bound without a driver.
	ops  func(rec devconf.Record) (kind string, impl string)
	emit func(d *device)
}

func driver(kind string, impl string) func(devconf.Record) (string, string) {
	return func(devconf.Record) (string, string) {
		return kind, impl
	}
}

func simple(name string) classSpec {
	return classSpec{
		groups: []string{name},
		base:   name,
		ops:    driver(name, name),
	}
}

func with(spec classSpec, emit func(d *device)) classSpec {
	spec.emit = emit
	return spec
}

var specs = map[devconf.Class]classSpec{
	devconf.ClassRCC:   with(simple("rcc"), emitRCC),
	devconf.ClassDMA:   with(simple("dma"), emitCore),
	devconf.ClassGPIO:  with(simple("gpio"), emitGPIO),
	devconf.ClassTimer: with(simple("timer"), emitCore),
	devconf.ClassUART:  with(simple("uart"), emitUART),
	devconf.ClassPWM:   with(simple("pwm"), emitPWM),
	devconf.ClassIFlash: {
		groups: []string{"spim_dev", "iflash"},
		base:   "iflash",
		ops:    driver("iflash", "internal_flash"),
		emit:   emitIFlash,
	},
	devconf.ClassSegLCD: with(simple("seg_lcd"), emitSegLCD),
	devconf.ClassGDC0689: {
		groups: []string{"gdc0689"},
		base:   "gdc0689",
		ops:    driver("", ""),
		emit:   emitGDC0689,
	},
	devconf.ClassI2C: with(simple("i2c"), emitI2C),
	devconf.ClassEEPROM: {
		groups: []string{"eeprom"},
		base:   "eeprom",
		ops:    driver("eeprom", "eeprom_nv24c0x"),
		emit:   emitEEPROM,
	},
	devconf.ClassSPIM:        with(simple("spim"), emitSPIM),
	devconf.ClassRTC:         with(simple("rtc"), emitCore),
	devconf.ClassPMU:         with(simple("pmu"), emitPMU),
	devconf.ClassTouchSensor: with(simple("touch_sensor"), emitTouchSensor),
	devconf.ClassTouchButton: with(simple("touch_button"), emitTouchButton),
	devconf.ClassADC:         with(simple("adc"), emitADC),
	devconf.ClassEFlash: {
		groups: []string{"spim_dev", "eflash"},
		base:   "eflash",
		ops:    driver("flash", "external_flash"),
		emit:   emitEFlash,
	},
	devconf.ClassI2S: with(simple("i2s"), emitI2S),
	devconf.ClassES8374: {
		groups: []string{"es8374"},
		base:   "codec_i2s",
		ops:    driver("codec_i2s", "codec_i2s_es8374"),
		emit:   emitES8374,
	},
	devconf.ClassSDMMC: {
		groups: []string{"sdh"},
		base:   "sdh",
		ops:    driver("sdh_sdmmc", "sdh_sdmmc"),
		emit:   emitSDH,
	},
	devconf.ClassSDSPI: {
		groups: []string{"sdh"},
		base:   "sdh",
		ops:    driver("sdh_spi", "sdh_spi"),
		emit:   emitSDH,
	},
	devconf.ClassSDIOSlave: with(simple("sdio_slave"), emitSDIOSlave),
	devconf.ClassTFTLCD: {
		groups: []string{"spim_dev", "tftlcd"},
		base:   "tft_lcd_spi",
		// Every display controller has its own driver.
		ops: func(rec devconf.Record) (string, string) {
			return "tft_lcd", "tft_lcd_" + rec.Instance
		},
		emit: emitTFTLCD,
	},
	devconf.ClassWDT:    with(simple("wdt"), emitWDT),
	devconf.ClassPSRAM:  with(simple("psram"), emitPSRAM),
	devconf.ClassCRC:    with(simple("crc"), emitEngine),
	devconf.ClassCrypto: with(simple("crypto"), emitEngine),
	devconf.ClassHash:   with(simple("hash"), emitEngine),
	devconf.ClassRNG:    with(simple("rng"), emitEngine),
	devconf.ClassRSA:    with(simple("rsa"), emitEngine),
}

// symbolName returns the name the descriptor symbols of a device are built
// from. External flash parts share the flash_ prefix with other flash
// devices, so their descriptors are prefixed with an e.
func symbolName(rec devconf.Record) string {
	if rec.Class == devconf.ClassEFlash {
		return "e" + rec.Name()
	}
	return rec.Name()
}

func emitCore(d *device) {
	d.begin()
	d.init()
	d.reg()
	d.irq()
	d.end()
}

func emitRCC(d *device) {
	c, _ := d.rec.Config.(devconf.RCCConfig)
	if len(c.Clocks) == 0 {
		d.fail(ErrMissingArray, "no rcc_cfg clocks")
		return
	}

	array := "dt_hw_" + d.symbol + "_rcc"
	d.printf("const static wm_dt_hw_rcc_cfg_t %s[] = {\n", array)
	for _, clock := range c.Clocks {
		t, ok := rccType(clock.Type)
		d.line("{ .type = %s, .clock = %d },", d.translate(t, ok, "clock type %d", clock.Type), clock.Clock)
	}
	d.end()

	d.begin()
	d.init()
	d.reg()
	d.link("rcc_cfg", "wm_dt_hw_rcc_cfg_t", array)
	d.end()
}

func emitGPIO(d *device) {
	c, _ := d.rec.Config.(devconf.GPIOConfig)
	if len(c.Pins) == 0 {
		d.fail(ErrMissingArray, "no gpio_cfg pins")
		return
	}

	array := "dt_hw_" + d.symbol + "_pin_cfg"
	d.printf("const static wm_dt_hw_gpio_cfg_t %s[] = {\n", array)
	for _, pin := range c.Pins {
		dir, ok := symbol(gpioDirs, pin.Dir)
		dir = d.translate(dir, ok, "pin %d direction %d", pin.Pin, pin.Dir)
		pull, ok := symbol(gpioPulls, pin.Pull)
		pull = d.translate(pull, ok, "pin %d pull %d", pin.Pin, pin.Pull)
		mode, ok := symbol(gpioIntModes, pin.IntMode)
		mode = d.translate(mode, ok, "pin %d interrupt mode %d", pin.Pin, pin.IntMode)
		d.line("{ .pin_num = %s, .pin_mux = %s, .pin_dir = %s, .pin_pupd = %s, .int_mode = %s },",
			d.gpioNum(pin.Pin), d.ioMux(pin.Fun), dir, pull, mode)
	}
	d.end()

	d.begin()
	d.init()
	d.link("gpio_cfg", "wm_dt_hw_gpio_cfg_t", array)
	d.end()
}

func emitUART(d *device) {
	c, _ := d.rec.Config.(devconf.UARTConfig)
	baud, ok := baudRate(c.Baud)
	baud = d.translate(baud, ok, "baud rate %d", c.Baud)
	parity, ok := symbol(parities, c.Parity)
	parity = d.translate(parity, ok, "parity %d", c.Parity)
	stop, ok := stopBits(c.StopBits)
	stop = d.translate(stop, ok, "stop bits %d", c.StopBits)
	data, ok := dataBits(c.DataBits)
	data = d.translate(data, ok, "data bits %d", c.DataBits)
	flow, ok := symbol(flowCtrls, c.FlowCtrl)
	flow = d.translate(flow, ok, "flow control %d", c.FlowCtrl)

	d.pins()
	d.begin()
	d.init()
	d.reg()
	d.irq()
	d.line(".uart_cfg = { .baudrate = %s, .parity = %s, .stop_bits = %s, .data_bits = %s, .flow_ctrl = %s },",
		baud, parity, stop, data, flow)
	d.pinLink()
	d.refs("dma_device", "rcc_device")
	d.end()
}

func emitPWM(d *device) {
	d.pins()
	d.begin()
	d.init()
	d.reg()
	d.irq()
	d.pinLink()
	d.refs("dma_device")
	d.end()
}

func emitIFlash(d *device) {
	c, _ := d.rec.Config.(devconf.IFlashConfig)
	d.begin()
	d.init()
	d.reg()
	d.line(".flash_cfg = { .quad_spi = %s },", cBool(c.QuadSPI))
	d.end()
}

func emitSegLCD(d *device) {
	c, _ := d.rec.Config.(devconf.SegLCDConfig)
	duty, ok := symbol(segLCDDuties, c.Duty)
	duty = d.translate(duty, ok, "duty %d", c.Duty)
	vlcd, ok := symbol(segLCDVLCDs, c.VLCD)
	vlcd = d.translate(vlcd, ok, "vlcd %d", c.VLCD)
	bias, ok := symbol(segLCDBiases, c.Bias)
	bias = d.translate(bias, ok, "bias %d", c.Bias)
	hd, ok := symbol(segLCDDrives, c.HD)
	hd = d.translate(hd, ok, "drive strength %d", c.HD)

	d.begin()
	d.init()
	d.reg()
	d.line(".seg_lcd_cfg = { .duty_sel = %s, .vlcd_cc = %s, .bias = %s, .hd = %s, .frame_freq = %d, .com_num = %d },",
		duty, vlcd, bias, hd, c.FrameFreq, c.ComNum)
	d.refs("rcc_device")
	d.end()
}

func emitGDC0689(d *device) {
	d.pins()
	d.begin()
	d.init()
	d.pinLink()
	d.refs("seg_lcd_device")
	d.end()
}

func emitI2C(d *device) {
	c, _ := d.rec.Config.(devconf.I2CConfig)
	d.pins()
	d.begin()
	d.init()
	d.reg()
	d.irq()
	d.line(".i2c_cfg = { .max_clock = %d, .addr_10_bits = %s },", c.MaxClock, cBool(c.Addr10Bits))
	d.pinLink()
	d.refs("dma_device", "rcc_device")
	d.end()
}

func emitEEPROM(d *device) {
	c, _ := d.rec.Config.(devconf.EEPROMConfig)
	if len(d.rec.Refs.I2C) == 0 {
		d.fail(ErrTranslation, "no i2c_device")
		return
	}

	d.pins()
	d.begin()
	d.init()
	d.line(".speed_hz = %d,", c.SpeedHz)
	d.line(".i2c_addr = %#x,", c.I2CAddr)
	d.line(".size = %d,", c.Size)
	d.line(".page_size = %d,", c.PageSize)
	d.line(".addr_width = %d,", c.AddrWidth)
	d.line(".read_only = %s,", cBool(c.ReadOnly))
	d.line(".max_write_time_ms = %d,", c.MaxWriteTimeMs)
	d.refs("i2c_device")
	d.pinLink()
	d.end()
}

func emitSPIM(d *device) {
	d.pins()
	d.begin()
	d.reg()
	d.irq()
	d.init()
	d.refs("dma_device", "rcc_device")
	d.pinLink()
	d.end()
}

func emitPMU(d *device) {
	c, _ := d.rec.Config.(devconf.PMUConfig)
	src, ok := symbol(pmuClocks, c.ClkSrc)
	src = d.translate(src, ok, "clock source %d", c.ClkSrc)

	d.begin()
	d.init()
	d.reg()
	d.irq()
	d.line(".clk_src = %s,", src)
	d.end()
}

func emitTouchSensor(d *device) {
	d.pins()
	d.begin()
	d.init()
	d.reg()
	d.irq()
	d.pinLink()
	d.refs("rcc_device")
	d.end()
}

func emitTouchButton(d *device) {
	c, _ := d.rec.Config.(devconf.TouchButtonConfig)
	if len(c.Buttons) == 0 {
		d.fail(ErrMissingArray, "no touch_button_cfg buttons")
		return
	}

	d.pins()
	array := "dt_hw_" + d.symbol + "_touch_button_cfg"
	d.printf("const static wm_dt_hw_touch_button_cfg_t %s[] = {\n", array)
	for _, button := range c.Buttons {
		d.line("{ .key_num = %d, .threshold = %d },", button.KeyNum, button.Threshold)
	}
	d.end()

	d.begin()
	d.init()
	d.refs("touch_sensor_device")
	d.pinLink()
	d.link("touch_button_cfg", "wm_dt_hw_touch_button_cfg_t", array)
	d.end()
}

func emitADC(d *device) {
	c, _ := d.rec.Config.(devconf.ADCConfig)
	if len(c.Channels) == 0 {
		d.fail(ErrMissingArray, "no adc_cfg channels")
		return
	}

	d.pins()
	array := "dt_hw_" + d.symbol + "_adc_cfg"
	d.printf("const static wm_dt_hw_adc_cfg_t %s[] = {\n", array)
	for _, ch := range c.Channels {
		channel, ok := adcChannel(ch.Channel)
		channel = d.translate(channel, ok, "adc channel %d", ch.Channel)
		gain1, ok := adcGain(1, ch.Gain1)
		gain1 = d.translate(gain1, ok, "channel %d gain1 level %d", ch.Channel, ch.Gain1)
		gain2, ok := adcGain(2, ch.Gain2)
		gain2 = d.translate(gain2, ok, "channel %d gain2 level %d", ch.Channel, ch.Gain2)
		d.line("{ .adc_channel = %s, .pga_gain1 = %s, .pga_gain2 = %s, .adc_cmp = %d, .cmp_data = %d, .cmp_pol = %d },",
			channel, gain1, gain2, cFlag(ch.Cmp), ch.CmpData, cFlag(ch.CmpPol))
	}
	d.end()

	d.begin()
	d.init()
	d.reg()
	d.irq()
	d.pinLink()
	d.link("adc_cfg", "wm_dt_hw_adc_cfg_t", array)
	d.refs("dma_device", "rcc_device")
	d.end()
}

func emitEFlash(d *device) {
	c, _ := d.rec.Config.(devconf.EFlashConfig)
	d.begin()
	d.init()
	d.line(".flash_cfg = { .quad_spi = %s },", cBool(c.QuadSPI))
	d.spiDevice(c.SPI)
	d.refs("spi_device")
	d.end()
}

func emitI2S(d *device) {
	c, _ := d.rec.Config.(devconf.I2SConfig)
	d.pins()
	d.begin()
	d.init()
	d.reg()
	d.irq()
	d.line(".i2s_cfg = { .extal_clock_en = %s, .mclk_hz = %d },", cBool(c.ExtalClock), c.MclkHz)
	d.pinLink()
	d.refs("dma_device", "rcc_device")
	d.end()
}

func emitES8374(d *device) {
	c, _ := d.rec.Config.(devconf.ES8374Config)
	cont := "\n" + strings.Repeat(" ", len(indent+".es8374_cfg = { "))

	d.begin()
	d.init()
	d.line(".es8374_cfg = { .dmic = %s,"+
		cont+".lin1 = %s,"+
		cont+".rin1 = %s,"+
		cont+".lin2 = %s,"+
		cont+".rin2 = %s,"+
		cont+".monoout = %s,"+
		cont+".spkout = %s,"+
		cont+".i2c = %s,"+
		cont+".address = %#x },",
		cBool(c.DMIC), cBool(c.LIN1), cBool(c.RIN1), cBool(c.LIN2), cBool(c.RIN2),
		cBool(c.MonoOut), cBool(c.SpkOut), cBool(c.I2C), c.Address)
	d.refs("i2s_device", "gpio_device", "i2c_device")
	d.end()
}

// emitSDH writes either SD host mode. Only the card mode has a host
// configuration of its own.
func emitSDH(d *device) {
	d.pins()
	d.begin()
	d.init()
	d.reg()
	d.irq()
	if c, ok := d.rec.Config.(devconf.SDMMCConfig); ok {
		width, ok := busWidth(c.BusWidth)
		width = d.translate(width, ok, "bus width %d", c.BusWidth)
		d.line(".sdh_cfg = { .clock_hz = %d, .bus_width = %s },", c.ClockHz, width)
	}
	d.pinLink()
	d.refs("dma_device", "rcc_device")
	d.end()
}

func emitSDIOSlave(d *device) {
	c, _ := d.rec.Config.(devconf.SDIOSlaveConfig)
	d.pins()
	d.begin()
	d.init()
	d.regAs("sdio_slave_reg_base", d.rec.RegBase)
	d.regAs("wrapper_reg_base", c.WrapperRegBase)
	d.irq()
	d.pinLink()
	d.refs("rcc_device")
	d.end()
}

func emitTFTLCD(d *device) {
	c, _ := d.rec.Config.(devconf.TFTLCDConfig)
	d.begin()
	d.init()
	d.spiDevice(c.SPI)
	d.line(".io_lcd_reset = %s,", d.gpioNum(c.Reset))
	d.line(".io_lcd_led   = %s,", d.gpioNum(c.LED))
	d.line(".io_lcd_dcx   = %s,", d.gpioNum(c.DCX))
	d.line(".io_lcd_te    = %s,", d.gpioNum(c.TE))
	d.refs("spi_device", "gpio_device")
	d.end()
}

func emitWDT(d *device) {
	c, _ := d.rec.Config.(devconf.WDTConfig)
	d.begin()
	d.init()
	d.reg()
	d.irq()
	d.line(".wdt_cfg = { .counter_value = %d },", c.CounterValue)
	d.end()
}

func emitPSRAM(d *device) {
	c, _ := d.rec.Config.(devconf.PSRAMConfig)
	d.pins()
	d.begin()
	d.init()
	d.reg()
	d.line(".psram_cfg = { .spi_mode = %d, .clock_hz = %d },", cFlag(c.QSPI), c.ClockHz)
	d.pinLink()
	d.refs("dma_device", "rcc_device")
	d.end()
}

// emitEngine writes the crypto accelerators, which only need a register
// block and a clock.
func emitEngine(d *device) {
	d.begin()
	d.init()
	d.reg()
	d.irq()
	d.refs("rcc_device")
	d.end()
}
