package devconf

// uartPins are the pins each UART is routed to when the description does not
// give a usable pin list.
var uartPins = map[string][]Pin{
	"0": {{Num: 35, Fun: 1}, {Num: 36, Fun: 1}},
	"1": {{Num: 22, Fun: 1}, {Num: 23, Fun: 1}},
	"2": {{Num: 2, Fun: 2}, {Num: 3, Fun: 2}},
	"3": {{Num: 5, Fun: 1}, {Num: 6, Fun: 1}},
	"4": {{Num: 8, Fun: 2}, {Num: 9, Fun: 2}},
	"5": {{Num: 8, Fun: 3}, {Num: 9, Fun: 3}},
}

var tftFreq = map[string]int{
	"nv3041a": 60000000,
	"st7735":  15000000,
	"gz035":   60000000,
}

// Default returns the class default record for key. The result is freshly
// allocated on every call so callers may modify it.
func Default(key Key) Record {
	rec := Record{
		Key:  key,
		Init: InitCfg{Level: LevelApp},
	}

	if key.Class == ClassUART {
		rec.Pins = append([]Pin(nil), uartPins[key.Instance]...)
	}

	rec.Config = defaultConfig(key)
	return rec
}

func defaultConfig(key Key) Config {
	switch key.Class {
	case ClassRCC:
		return RCCConfig{
			Clocks:  []RCCClock{{Type: RCCCPU, Clock: 240}, {Type: RCCWLAN, Clock: 160}},
			CPUDiv:  2,
			WLANDiv: 3,
		}
	case ClassUART:
		return UARTConfig{Baud: 115200, StopBits: 1, DataBits: 8}
	case ClassGPIO:
		return GPIOConfig{}
	case ClassIFlash:
		return IFlashConfig{QuadSPI: true}
	case ClassSegLCD:
		return SegLCDConfig{}
	case ClassI2C:
		return I2CConfig{MaxClock: 100000}
	case ClassEEPROM:
		c := EEPROMConfig{
			SpeedHz:        400000,
			Size:           256,
			I2CAddr:        0x50,
			PageSize:       16,
			AddrWidth:      8,
			MaxWriteTimeMs: 5,
		}
		if key.Instance == "1" {
			c.I2CAddr = 0x52
			c.MaxWriteTimeMs = 10
		}
		return c
	case ClassPMU:
		return PMUConfig{ClkSrc: PMUInternal}
	case ClassTouchButton:
		return TouchButtonConfig{}
	case ClassADC:
		return ADCConfig{}
	case ClassEFlash:
		return EFlashConfig{SPI: SPIDevice{Freq: 2000000, CS: Pin{Fun: 5, Dir: DirOutput, Pull: PullFloat}}}
	case ClassI2S:
		return I2SConfig{}
	case ClassES8374:
		return ES8374Config{I2C: true, Address: 0x10}
	case ClassSDMMC:
		return SDMMCConfig{ClockHz: 40000000, BusWidth: 4, CPUClockHz: 240000000}
	case ClassSDIOSlave:
		return SDIOSlaveConfig{}
	case ClassTFTLCD:
		return TFTLCDConfig{
			SPI: SPIDevice{Freq: tftFreq[key.Instance], CS: Pin{Fun: 5, Dir: DirOutput, Pull: PullFloat}},
			TE:  NoPin,
		}
	case ClassWDT:
		return WDTConfig{CounterValue: 10000000}
	case ClassPSRAM:
		return PSRAMConfig{QSPI: true, ClockHz: 80000000, CPUClockHz: 240000000}
	}
	return nil
}
