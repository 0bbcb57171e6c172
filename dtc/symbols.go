package dtc

import (
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	"omibyte.io/wmdt/devconf"
)

// Lookup tables from the integer codes of the device model to the constants
// of the firmware headers. Each is indexed by the model's code.
var (
	parities = []string{"WM_UART_PARITY_NONE", "WM_UART_PARITY_EVEN", "WM_UART_PARITY_ODD"}

	flowCtrls = []string{
		"WM_UART_FLOW_CTRL_DISABLE",
		"WM_UART_FLOW_CTRL_RTS",
		"WM_UART_FLOW_CTRL_CTS",
		"WM_UART_FLOW_CTRL_RTS_CTS",
	}

	gpioDirs  = []string{"WM_GPIO_DIR_INPUT", "WM_GPIO_DIR_OUTPUT"}
	gpioPulls = []string{"WM_GPIO_FLOAT", "WM_GPIO_PULL_UP", "WM_GPIO_PULL_DOWN"}

	gpioIntModes = []string{
		"0",
		"WM_GPIO_IRQ_TRIG_FALLING_EDGE",
		"WM_GPIO_IRQ_TRIG_RISING_EDGE",
		"WM_GPIO_IRQ_TRIG_DOUBLE_EDGE",
		"WM_GPIO_IRQ_TRIG_LOW_LEVEL",
		"WM_GPIO_IRQ_TRIG_HIGH_LEVEL",
	}

	segLCDDuties = []string{
		"WM_SEG_LCD_DUTY_SEL_STATIC",
		"WM_SEG_LCD_DUTY_SEL_1_2",
		"WM_SEG_LCD_DUTY_SEL_1_3",
		"WM_SEG_LCD_DUTY_SEL_1_4",
		"WM_SEG_LCD_DUTY_SEL_1_5",
		"WM_SEG_LCD_DUTY_SEL_1_6",
		"WM_SEG_LCD_DUTY_SEL_1_7",
		"WM_SEG_LCD_DUTY_SEL_1_8",
	}

	segLCDVLCDs = []string{
		"WM_SEG_LCD_VLCD_CC_2_7V",
		"WM_SEG_LCD_VLCD_CC_2_9V",
		"WM_SEG_LCD_VLCD_CC_3_1V",
		"WM_SEG_LCD_VLCD_CC_3_3V",
	}

	segLCDBiases = []string{
		"WM_SEG_LCD_BIAS_1_4",
		"WM_SEG_LCD_BIAS_1_2",
		"WM_SEG_LCD_BIAS_1_3",
		"WM_SEG_LCD_BIAS_STATIC",
	}

	segLCDDrives = []string{"WM_SEG_LCD_DRIVE_STRENGTH_LOW", "WM_SEG_LCD_DRIVE_STRENGTH_HIGH"}

	pmuClocks = []string{"WM_PMU_CLOCK_SRC_32K", "WM_PMU_CLOCK_SRC_40M_DIV"}
)

// symbol returns table[code] or false when the code is out of range.
func symbol[T ~int](table []string, code T) (string, bool) {
	if code < 0 || int(code) >= len(table) {
		return "", false
	}
	return table[code], true
}

func initLevel(level devconf.InitLevel) (int, bool) {
	switch level {
	case devconf.LevelSystem:
		return 1, true
	case devconf.LevelApp:
		return 0, true
	}
	return 0, false
}

func rccType(t devconf.RCCType) (string, bool) {
	name := t.String()
	if name == "unknown" {
		return "", false
	}
	return "WM_RCC_TYPE_" + strings.ToUpper(name), true
}

func baudRate(baud int) (string, bool) {
	if !slices.Contains(devconf.BaudRates, baud) {
		return "", false
	}
	return "WM_UART_BAUDRATE_B" + strconv.Itoa(baud), true
}

func stopBits(n int) (string, bool) {
	if n < 1 || n > 2 {
		return "", false
	}
	return "WM_UART_STOP_BIT_" + strconv.Itoa(n), true
}

func dataBits(n int) (string, bool) {
	if n < 5 || n > 8 {
		return "", false
	}
	return "WM_UART_DATA_BIT_" + strconv.Itoa(n), true
}

func pinDir(dir devconf.PinDir) (string, bool) {
	switch dir {
	case devconf.DirInput:
		return "WM_GPIO_DIR_INPUT", true
	case devconf.DirOutput:
		return "WM_GPIO_DIR_OUTPUT", true
	}
	return "", false
}

func pinPull(pull devconf.PinPull) (string, bool) {
	switch pull {
	case devconf.PullFloat:
		return "WM_GPIO_FLOAT", true
	case devconf.PullUp:
		return "WM_GPIO_PULL_UP", true
	case devconf.PullDown:
		return "WM_GPIO_PULL_DOWN", true
	}
	return "", false
}

func adcChannel(ch int) (string, bool) {
	switch {
	case ch >= 0 && ch <= 3:
		return "WM_ADC_CHANNEL_" + strconv.Itoa(ch), true
	case ch == devconf.ADCDiff01:
		return "WM_ADC_CHANNEL_0_1_DIFF_INPUT", true
	case ch == devconf.ADCDiff23:
		return "WM_ADC_CHANNEL_2_3_DIFF_INPUT", true
	}
	return "", false
}

func adcGain(stage int, level int) (string, bool) {
	highest := 5
	if stage == 2 {
		highest = 3
	}
	if level < 0 || level > highest {
		return "", false
	}
	return "WM_ADC_GAIN" + strconv.Itoa(stage) + "_LEVEL_" + strconv.Itoa(level), true
}

func busWidth(width int) (string, bool) {
	switch width {
	case 1:
		return "WM_SDH_BUS_WIDTH_1BIT", true
	case 4:
		return "WM_SDH_BUS_WIDTH_4BITS", true
	}
	return "", false
}

func cBool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func cFlag(v bool) int {
	if v {
		return 1
	}
	return 0
}
