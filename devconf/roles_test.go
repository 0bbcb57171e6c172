package devconf

import (
	"reflect"
	"testing"

	"omibyte.io/wmdt/targets"
)

func TestClaims(t *testing.T) {
	m, _ := loadFixture(t)

	tests := []struct {
		device   string
		expected []Claim
	}{
		{"uart0", []Claim{{2, "UART0_TX"}, {3, "UART0_RX"}}},
		{"uart1", []Claim{{22, "UART1_TX"}, {23, "UART1_RX"}, {20, "UART1_RTS"}, {21, "UART1_CTS"}}},
		{"pwm", []Claim{{5, "PWM_BREAK"}, {28, "PWM0"}}},
		{"gpio", []Claim{{5, "GPIO"}, {20, "GPIO"}}},
		{"i2c", []Claim{{1, "I2C_SCL"}, {4, "I2C_SDA"}}},
		{"spim", []Claim{{17, "LSPI_CK"}, {16, "LSPI_MISO"}, {7, "LSPI_MOSI"}}},
		{"adc", []Claim{{1, "ADC0"}, {3, "ADC2"}, {2, "ADC3"}}},
		{"touch_button", []Claim{{24, "TOUCH4"}}},
		{"i2s", []Claim{{8, "I2S_BCLK"}, {9, "I2S_LRCLK"}, {7, "I2S_MCLK"}, {11, "I2S_DI"}, {10, "I2S_DO"}}},
		{"eeprom0", []Claim{{30, "GPIO"}}},
		{"flash_w25q", []Claim{{20, "GPIO"}}},
		{"st7735_spi", []Claim{{19, "GPIO"}, {26, "GPIO"}, {27, "GPIO"}, {25, "GPIO"}}},
		{"psram", []Claim{{15, "PSRAM_CK"}, {43, "PSRAM_CS"}, {18, "PSRAM_DAT0"}, {33, "PSRAM_DAT1"}, {34, "PSRAM_DAT2"}, {35, "PSRAM_DAT3"}}},
		{"gdc0689", nil},
		{"rcc", nil},
	}

	for _, test := range tests {
		t.Run(test.device, func(t *testing.T) {
			rec := mustGet(t, m, test.device)
			if claims := rec.Claims(m.Chip()); !reflect.DeepEqual(claims, test.expected) {
				t.Errorf("expected %v, got %v", test.expected, claims)
			}
		})
	}
}

func TestDeriveFuns(t *testing.T) {
	chip := targets.Baseline()

	tests := []struct {
		name     string
		rec      Record
		expected []int
	}{
		{
			name: "uart exception",
			rec: Record{
				Key:    Key{Class: ClassUART, Instance: "4"},
				Pins:   []Pin{{Num: 8, Fun: 7}, {Num: 9}, {Num: 5}, {Num: 6}},
				Config: UARTConfig{FlowCtrl: FlowRTSCTS},
			},
			expected: []int{2, 2, 4, 4},
		},
		{
			name: "untabled pin keeps its code",
			rec: Record{
				Key:    Key{Class: ClassUART, Instance: "0"},
				Pins:   []Pin{{Num: 0, Fun: 6}, {Num: 36, Fun: 6}},
				Config: UARTConfig{},
			},
			expected: []int{6, 1},
		},
		{
			name: "sdio defaults",
			rec: Record{
				Key:  Key{Class: ClassSDMMC},
				Pins: []Pin{{Num: 9}, {Num: 23}},
			},
			expected: []int{1, 2},
		},
		{
			name: "eeprom keeps its code",
			rec: Record{
				Key:  Key{Class: ClassEEPROM, Instance: "0"},
				Pins: []Pin{{Num: 30, Fun: 3}},
			},
			expected: []int{3},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec := test.rec.Clone()
			deriveFuns(&rec, chip)
			funs := make([]int, len(rec.Pins))
			for i, pin := range rec.Pins {
				funs[i] = pin.Fun
			}
			if !reflect.DeepEqual(funs, test.expected) {
				t.Errorf("expected %v, got %v", test.expected, funs)
			}
		})
	}
}
