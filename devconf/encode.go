package devconf

import (
	"strconv"
)

// encodeEntry stores rec into an entry mapping. Keys the record does not own
// are left alone.
func encodeEntry(w writer, rec Record) {
	w.str("dev_name", rec.Name())

	ic := w.sub("init_cfg")
	ic.str("init_level", string(rec.Init.Level))
	ic.int("init_priority", rec.Init.Priority)

	if rec.RegBase != 0 || lookup(w.node, "reg_base") != nil {
		w.hex("reg_base", int(rec.RegBase))
	}

	if rec.IRQ != nil {
		irq := w.sub("irq_cfg")
		irq.int("irq_num", rec.IRQ.Num)
		irq.int("irq_priority", rec.IRQ.Priority)
	} else {
		remove(w.node, "irq_cfg")
	}

	switch {
	case len(rec.Pins) == 0:
		remove(w.node, "pin_cfg")
	case rec.Class == ClassEEPROM:
		encodePin(w.sub("pin_cfg"), rec.Pins[0], "pin", "fun")
	default:
		w.list("pin_cfg", len(rec.Pins), func(i int, item writer) {
			encodePin(item, rec.Pins[i], "pin", "fun")
		})
	}

	encodeConfig(w, rec.Config)

	w.optStr("dma_device", rec.Refs.DMA)
	w.optStr("rcc_device", rec.Refs.RCC)
	w.optStr("i2c_device", rec.Refs.I2C)
	w.optStr("i2s_device", rec.Refs.I2S)
	w.optStr("spi_device", rec.Refs.SPI)
	w.optStr("gpio_device", rec.Refs.GPIO)
	w.optStr("seg_lcd_device", rec.Refs.SegLCD)
	w.optStr("touch_sensor_device", rec.Refs.TouchSensor)
}

func encodePin(w writer, pin Pin, pinKey string, funKey string) {
	w.int(pinKey, pin.Num)
	w.str(funKey, funName(pin.Fun))
	w.optStr("dir", string(pin.Dir))
	w.optStr("pupd", string(pin.Pull))
}

func funName(fun int) string {
	return "fun" + strconv.Itoa(fun)
}

func encodeConfig(w writer, cfg Config) {
	switch c := cfg.(type) {
	case RCCConfig:
		w.list("rcc_cfg", len(c.Clocks), func(i int, item writer) {
			item.str("type", c.Clocks[i].Type.String())
			item.int("clock", c.Clocks[i].Clock)
		})
	case UARTConfig:
		u := w.sub("uart_cfg")
		u.int("baudrate", c.Baud)
		u.str("parity", parities[c.Parity])
		u.int("stop_bits", c.StopBits)
		u.int("data_bits", c.DataBits)
		u.str("flow_ctrl", flowCtrls[c.FlowCtrl])
	case GPIOConfig:
		w.list("gpio_cfg", len(c.Pins), func(i int, item writer) {
			pin := c.Pins[i]
			item.int("pin", pin.Pin)
			item.str("fun", funName(pin.Fun))
			item.str("dir", gpioDirs[pin.Dir])
			item.str("pupd", gpioPulls[pin.Pull])
			item.str("interrupt_mode", gpioIntModes[pin.IntMode])
		})
	case IFlashConfig:
		w.sub("flash_cfg").bool("quad_spi", c.QuadSPI)
	case SegLCDConfig:
		s := w.sub("seg_lcd_cfg")
		s.str("duty_sel", segLCDDuties[c.Duty])
		s.str("vlcd_cc", segLCDVLCDs[c.VLCD])
		s.str("bias", segLCDBiases[c.Bias])
		s.str("hd", segLCDDrives[c.HD])
		s.int("frame_freq", c.FrameFreq)
		s.int("com_num", c.ComNum)
	case I2CConfig:
		s := w.sub("i2c_cfg")
		s.int("max_clock", c.MaxClock)
		s.bool("addr_10_bits", c.Addr10Bits)
	case EEPROMConfig:
		w.int("speed_hz", c.SpeedHz)
		w.int("size", c.Size)
		w.hex("i2c_addr", c.I2CAddr)
		w.int("page_size", c.PageSize)
		w.int("addr_width", c.AddrWidth)
		w.bool("read_only", c.ReadOnly)
		w.int("max_write_time_ms", c.MaxWriteTimeMs)
	case PMUConfig:
		w.str("clk_src", pmuClocks[c.ClkSrc])
	case TouchButtonConfig:
		w.list("touch_button_cfg", len(c.Buttons), func(i int, item writer) {
			item.int("key_num", c.Buttons[i].KeyNum)
			item.int("threshold", c.Buttons[i].Threshold)
		})
	case ADCConfig:
		w.list("adc_cfg", len(c.Channels), func(i int, item writer) {
			ch := c.Channels[i]
			item.int("adc_channel", ch.Channel)
			item.str("pga_gain1", "level"+strconv.Itoa(ch.Gain1))
			item.str("pga_gain2", "level"+strconv.Itoa(ch.Gain2))
			item.bool("adc_cmp", ch.Cmp)
			item.int("cmp_data", ch.CmpData)
			item.bool("cmp_pol", ch.CmpPol)
		})
	case EFlashConfig:
		w.sub("flash_cfg").bool("quad_spi", c.QuadSPI)
		encodeSPIDevice(w.sub("spi_cfg"), c.SPI, "pin", "fun")
	case I2SConfig:
		s := w.sub("i2s_cfg")
		s.bool("extal_clock_en", c.ExtalClock)
		s.int("mclk_hz", c.MclkHz)
	case ES8374Config:
		s := w.sub("es8374_cfg")
		s.bool("dmic", c.DMIC)
		s.bool("lin1", c.LIN1)
		s.bool("rin1", c.RIN1)
		s.bool("lin2", c.LIN2)
		s.bool("rin2", c.RIN2)
		s.bool("monoout", c.MonoOut)
		s.bool("spkout", c.SpkOut)
		s.bool("i2c", c.I2C)
		s.hex("address", c.Address)
	case SDMMCConfig:
		s := w.sub("sdh_cfg")
		s.int("clock_hz", c.ClockHz)
		s.int("bus_width", c.BusWidth)
	case SDIOSlaveConfig:
		w.hex("wrapper_reg_base", int(c.WrapperRegBase))
	case TFTLCDConfig:
		encodeSPIDevice(w.sub("spi_cfg"), c.SPI, "pin_num", "pin_mux")
		w.int("pin_lcd_reset", c.Reset)
		w.int("pin_lcd_led", c.LED)
		w.int("pin_lcd_dcx", c.DCX)
		if c.TE == NoPin && lookup(w.node, "pin_lcd_te") == nil {
			break
		}
		w.int("pin_lcd_te", c.TE)
	case WDTConfig:
		w.sub("wdt_cfg").int("counter_value", c.CounterValue)
	case PSRAMConfig:
		s := w.sub("psram_cfg")
		s.bool("qspi", c.QSPI)
		s.int("clock_hz", c.ClockHz)
	}
}

func encodeSPIDevice(w writer, dev SPIDevice, pinKey string, funKey string) {
	w.int("mode", dev.Mode)
	w.int("freq", dev.Freq)
	encodePin(w.sub("pin_cs"), dev.CS, pinKey, funKey)
}
