package devconf

import (
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	"omibyte.io/wmdt/kconfig"
	"omibyte.io/wmdt/targets"
)

// Class identifies a peripheral class. The declaration order is the order in
// which the firmware expects classes to be processed.
type Class int

const (
	ClassRCC Class = iota
	ClassDMA
	ClassGPIO
	ClassTimer
	ClassUART
	ClassPWM
	ClassIFlash
	ClassSegLCD
	ClassGDC0689
	ClassI2C
	ClassEEPROM
	ClassSPIM
	ClassRTC
	ClassPMU
	ClassTouchSensor
	ClassTouchButton
	ClassADC
	ClassEFlash
	ClassI2S
	ClassES8374
	ClassSDMMC
	ClassSDSPI
	ClassSDIOSlave
	ClassTFTLCD
	ClassWDT
	ClassPSRAM
	ClassCRC
	ClassCrypto
	ClassHash
	ClassRNG
	ClassRSA
	numClasses
)

type naming int

const (
	single naming = iota
	indexed
	subtyped
)

type classInfo struct {
	name      string
	naming    naming
	instances []string
	features  []kconfig.Feature
}

var classes = [numClasses]classInfo{
	ClassRCC:         {name: "rcc"},
	ClassDMA:         {name: "dma"},
	ClassGPIO:        {name: "gpio", features: []kconfig.Feature{kconfig.GPIO}},
	ClassTimer:       {name: "timer", naming: indexed, instances: numbered(6), features: []kconfig.Feature{kconfig.Timer}},
	ClassUART:        {name: "uart", naming: indexed, instances: numbered(6), features: []kconfig.Feature{kconfig.UART}},
	ClassPWM:         {name: "pwm", features: []kconfig.Feature{kconfig.PWM}},
	ClassIFlash:      {name: "iflash", features: []kconfig.Feature{kconfig.IFlash}},
	ClassSegLCD:      {name: "seg_lcd", features: []kconfig.Feature{kconfig.SegLCD}},
	ClassGDC0689:     {name: "gdc0689", features: []kconfig.Feature{kconfig.SegLCD}},
	ClassI2C:         {name: "i2c", features: []kconfig.Feature{kconfig.I2C}},
	ClassEEPROM:      {name: "eeprom", naming: indexed, instances: numbered(2), features: []kconfig.Feature{kconfig.I2C}},
	ClassSPIM:        {name: "spim", features: []kconfig.Feature{kconfig.SPIM}},
	ClassRTC:         {name: "rtc", features: []kconfig.Feature{kconfig.RTC}},
	ClassPMU:         {name: "pmu"},
	ClassTouchSensor: {name: "touch_sensor", features: []kconfig.Feature{kconfig.TouchSensor}},
	ClassTouchButton: {name: "touch_button", features: []kconfig.Feature{kconfig.TouchSensor}},
	ClassADC:         {name: "adc", features: []kconfig.Feature{kconfig.ADC}},
	ClassEFlash:      {name: "flash", naming: subtyped, instances: []string{"w25q", "gd25q", "xt25f", "th25q"}, features: []kconfig.Feature{kconfig.EFlash}},
	ClassI2S:         {name: "i2s", features: []kconfig.Feature{kconfig.I2S}},
	ClassES8374:      {name: "es8374", features: []kconfig.Feature{kconfig.I2S, kconfig.ES8374}},
	ClassSDMMC:       {name: "sdmmc", features: []kconfig.Feature{kconfig.SDMMC}},
	ClassSDSPI:       {name: "sdspi", features: []kconfig.Feature{kconfig.SDSPI}},
	ClassSDIOSlave:   {name: "sdio_slave", features: []kconfig.Feature{kconfig.SDIOSlave}},
	ClassTFTLCD:      {name: "spi", naming: subtyped, instances: []string{"nv3041a", "st7735", "gz035"}, features: []kconfig.Feature{kconfig.TFTLCD}},
	ClassWDT:         {name: "wdt", features: []kconfig.Feature{kconfig.WDT}},
	ClassPSRAM:       {name: "psram", features: []kconfig.Feature{kconfig.PSRAM}},
	ClassCRC:         {name: "crc", features: []kconfig.Feature{kconfig.CRC}},
	ClassCrypto:      {name: "crypto", features: []kconfig.Feature{kconfig.Crypto}},
	ClassHash:        {name: "hash", features: []kconfig.Feature{kconfig.Hash}},
	ClassRNG:         {name: "rng", features: []kconfig.Feature{kconfig.RNG}},
	ClassRSA:         {name: "rsa", features: []kconfig.Feature{kconfig.RSA}},
}

func numbered(n int) []string {
	instances := make([]string, n)
	for i := range instances {
		instances[i] = strconv.Itoa(i)
	}
	return instances
}

// Classes returns every peripheral class in processing order.
func Classes() []Class {
	result := make([]Class, numClasses)
	for i := range result {
		result[i] = Class(i)
	}
	return result
}

func (c Class) String() string {
	switch c {
	case ClassEFlash:
		return "eflash"
	case ClassTFTLCD:
		return "tftlcd"
	}
	if c >= 0 && c < numClasses {
		return classes[c].name
	}
	return "class(" + strconv.Itoa(int(c)) + ")"
}

// Indexed reports whether the class has more than one instance.
func (c Class) Indexed() bool {
	return classes[c].naming != single
}

// Key addresses one device: a class plus its instance, which is a decimal
// index for numbered classes, a part name for sub-typed classes and empty
// otherwise.
type Key struct {
	Class    Class
	Instance string
}

// Name returns the device name used in the description document.
func (k Key) Name() string {
	info := classes[k.Class]
	switch info.naming {
	case indexed:
		return info.name + k.Instance
	case subtyped:
		if k.Class == ClassTFTLCD {
			return k.Instance + "_" + info.name
		}
		return info.name + "_" + k.Instance
	default:
		return info.name
	}
}

func (k Key) String() string {
	return k.Name()
}

// Index returns the numeric instance of an indexed device.
func (k Key) Index() int {
	if classes[k.Class].naming != indexed {
		return targets.NoInstance
	}
	n, err := strconv.Atoi(k.Instance)
	if err != nil {
		return targets.NoInstance
	}
	return n
}

// Features returns the features that gate the class as a whole.
func (c Class) Features() []kconfig.Feature {
	return classes[c].features
}

// Features returns the features that must all be enabled for the device to
// be emitted. Display controllers additionally require their own driver.
func (k Key) Features() []kconfig.Feature {
	features := k.Class.Features()
	if k.Class == ClassTFTLCD {
		return append(append([]kconfig.Feature{}, features...), kconfig.Feature(k.Instance))
	}
	return features
}

// Enabled reports whether the device is compiled into the firmware for the
// given gate and chip.
func (k Key) Enabled(gate *kconfig.Gate, chip targets.Chip) bool {
	if !gate.Enabled(k.Features()...) {
		return false
	}
	if k.Class == ClassUART && !chip.HasUART(k.Index()) {
		return false
	}
	return true
}

// ParseKey resolves a device name from the description document.
func ParseKey(name string) (Key, bool) {
	for i, info := range classes {
		class := Class(i)
		switch info.naming {
		case single:
			if name == info.name {
				return Key{Class: class}, true
			}
		case indexed:
			if suffix, ok := strings.CutPrefix(name, info.name); ok && isDigits(suffix) {
				return Key{Class: class, Instance: suffix}, true
			}
		case subtyped:
			if class == ClassTFTLCD {
				if part, ok := strings.CutSuffix(name, "_"+info.name); ok && slices.Contains(info.instances, part) {
					return Key{Class: class, Instance: part}, true
				}
			} else if part, ok := strings.CutPrefix(name, info.name+"_"); ok && len(part) > 0 {
				return Key{Class: class, Instance: part}, true
			}
		}
	}
	return Key{}, false
}

// Keys returns every well-known device key in processing order.
func Keys() []Key {
	var keys []Key
	for _, class := range Classes() {
		info := classes[class]
		if info.naming == single {
			keys = append(keys, Key{Class: class})
			continue
		}
		for _, instance := range info.instances {
			keys = append(keys, Key{Class: class, Instance: instance})
		}
	}
	return keys
}

func isDigits(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Valid reports whether the key names a device the firmware knows about.
func (k Key) Valid() bool {
	if k.Class < 0 || k.Class >= numClasses {
		return false
	}
	info := classes[k.Class]
	switch {
	case info.naming == single:
		return len(k.Instance) == 0
	case k.Class == ClassEFlash:
		return len(k.Instance) > 0
	default:
		return slices.Contains(info.instances, k.Instance)
	}
}
