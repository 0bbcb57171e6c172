// Package kconfig reads the feature gate out of a build configuration file.
//
// Only two kinds of lines are meaningful: driver switches of the form
// CONFIG_COMPONENT_DRIVER_<X>_ENABLED=y and the chip selection
// CONFIG_CHIP_NAME="<chip>". Everything else is ignored so that newer
// configuration files keep working.
package kconfig

import (
	"bufio"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/golang/glog"
	"github.com/google/shlex"
	"github.com/juju/errors"
	"golang.org/x/exp/slices"

	"omibyte.io/wmdt/targets"
)

type Feature string

const (
	IFlash      Feature = "iflash"
	EFlash      Feature = "eflash"
	Timer       Feature = "timer"
	UART        Feature = "uart"
	GPIO        Feature = "gpio"
	PSRAM       Feature = "psram"
	PWM         Feature = "pwm"
	RTC         Feature = "rtc"
	SDMMC       Feature = "sdmmc"
	SDSPI       Feature = "sdspi"
	SDIOSlave   Feature = "sdio_slave"
	SPIM        Feature = "spim"
	WDT         Feature = "wdt"
	TFTLCD      Feature = "tftlcd"
	ST7735      Feature = "st7735"
	NV3041A     Feature = "nv3041a"
	GZ035       Feature = "gz035"
	ADC         Feature = "adc"
	CRC         Feature = "crc"
	Crypto      Feature = "crypto"
	Hash        Feature = "hash"
	RNG         Feature = "rng"
	RSA         Feature = "rsa"
	TouchSensor Feature = "touch_sensor"
	I2S         Feature = "i2s"
	ES8374      Feature = "es8374"
	SegLCD      Feature = "seg_lcd"
	I2C         Feature = "i2c"
)

const chipNameKey = "CONFIG_CHIP_NAME"

// keys maps each build configuration switch onto the feature it enables.
var keys = map[string]Feature{
	"CONFIG_COMPONENT_DRIVER_INTERNAL_FLASH_ENABLED": IFlash,
	"CONFIG_COMPONENT_DRIVER_EXTERNAL_FLASH_ENABLED": EFlash,
	"CONFIG_COMPONENT_DRIVER_TIMER_ENABLED":          Timer,
	"CONFIG_COMPONENT_DRIVER_UART_ENABLED":           UART,
	"CONFIG_COMPONENT_DRIVER_GPIO_ENABLED":           GPIO,
	"CONFIG_COMPONENT_DRIVER_PSRAM_ENABLED":          PSRAM,
	"CONFIG_COMPONENT_DRIVER_PWM_ENABLED":            PWM,
	"CONFIG_COMPONENT_DRIVER_RTC_ENABLED":            RTC,
	"CONFIG_COMPONENT_DRIVER_SDMMC_ENABLED":          SDMMC,
	"CONFIG_COMPONENT_DRIVER_SDSPI_ENABLED":          SDSPI,
	"CONFIG_COMPONENT_DRIVER_SDIO_SLAVE_ENABLED":     SDIOSlave,
	"CONFIG_COMPONENT_DRIVER_SPIM_ENABLED":           SPIM,
	"CONFIG_COMPONENT_DRIVER_WDT_ENABLED":            WDT,
	"CONFIG_COMPONENT_DRIVER_TFT_LCD_ENABLED":        TFTLCD,
	"CONFIG_COMPONENT_DRIVER_LCD_ST7735_SPI":         ST7735,
	"CONFIG_COMPONENT_DRIVER_LCD_NV3041A_SPI":        NV3041A,
	"CONFIG_COMPONENT_DRIVER_LCD_GZ035_SPI":          GZ035,
	"CONFIG_COMPONENT_DRIVER_ADC_ENABLED":            ADC,
	"CONFIG_COMPONENT_DRIVER_CRC_ENABLED":            CRC,
	"CONFIG_COMPONENT_DRIVER_CRYPTO_ENABLED":         Crypto,
	"CONFIG_COMPONENT_DRIVER_HASH_ENABLED":           Hash,
	"CONFIG_COMPONENT_DRIVER_RNG_ENABLED":            RNG,
	"CONFIG_COMPONENT_DRIVER_RSA_ENABLED":            RSA,
	"CONFIG_COMPONENT_DRIVER_TOUCH_SENSOR_ENABLED":   TouchSensor,
	"CONFIG_COMPONENT_DRIVER_I2S_ENABLED":            I2S,
	"CONFIG_COMPONENT_DRIVER_CODEC_ES8374_ENABLED":   ES8374,
	"CONFIG_COMPONENT_DRIVER_SEG_LCD_ENABLED":        SegLCD,
	"CONFIG_COMPONENT_DRIVER_I2C_ENABLED":            I2C,
}

// Features returns every feature the gate knows about, sorted by name.
func Features() []Feature {
	features := make([]Feature, 0, len(keys))
	for _, feature := range keys {
		features = append(features, feature)
	}
	slices.Sort(features)
	return features
}

// Gate is the immutable result of parsing a build configuration.
type Gate struct {
	chip    string
	enabled map[Feature]bool
}

// Chip returns the selected chip variant name.
func (g *Gate) Chip() string {
	return g.chip
}

// Enabled reports whether every listed feature is compiled in. An empty list
// is always enabled.
func (g *Gate) Enabled(features ...Feature) bool {
	for _, feature := range features {
		if !g.enabled[feature] {
			return false
		}
	}
	return true
}

// List returns the enabled features sorted by name.
func (g *Gate) List() []Feature {
	features := make([]Feature, 0, len(g.enabled))
	for feature, on := range g.enabled {
		if on {
			features = append(features, feature)
		}
	}
	slices.Sort(features)
	return features
}

// Target resolves the selected chip in the chip catalog.
func (g *Gate) Target() (targets.Chip, error) {
	return targets.All().FindByChip(g.chip)
}

// New returns a gate with exactly the listed features enabled.
func New(chip string, features ...Feature) *Gate {
	g := &Gate{
		chip:    chip,
		enabled: map[Feature]bool{},
	}
	for _, feature := range features {
		g.enabled[feature] = true
	}
	return g
}

// All returns a gate with every feature enabled.
func All(chip string) *Gate {
	return New(chip, Features()...)
}

// Parse scans a build configuration. Unknown keys, comments and malformed
// lines are skipped.
func Parse(r io.Reader) (*Gate, error) {
	g := New(targets.Baseline().Name)

	scanner := bufio.NewScanner(r)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		if key == chipNameKey {
			chip, err := unquote(value)
			if err != nil {
				glog.Warningf("line %d: unreadable %s (%v), keeping %s", lineNo, chipNameKey, err, g.chip)
				continue
			}
			if len(chip) > 0 {
				g.chip = chip
			}
			continue
		}

		if feature, ok := keys[key]; ok && value == "y" {
			g.enabled[feature] = true
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return g, nil
}

// Load parses the build configuration at path. A missing file is not an
// error: it yields a gate with every feature disabled and the baseline chip.
func Load(path string) (*Gate, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		glog.V(1).Infof("no build configuration at %s, all features disabled", path)
		return New(targets.Baseline().Name), nil
	} else if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f)
}

func unquote(value string) (string, error) {
	fields, err := shlex.Split(value)
	if err != nil {
		return "", err
	}
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], nil
}
