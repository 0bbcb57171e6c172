package devconf

import (
	"golang.org/x/exp/slices"
)

type InitLevel string

const (
	LevelApp    InitLevel = "app"
	LevelSystem InitLevel = "system"
)

// Valid reports whether the level is one the firmware understands. Records
// loaded from a description may carry any string here.
func (l InitLevel) Valid() bool {
	return l == LevelApp || l == LevelSystem
}

type InitCfg struct {
	Level    InitLevel
	Priority int
}

type IRQCfg struct {
	Num      int
	Priority int
}

type PinDir string

const (
	DirDefault PinDir = ""
	DirInput   PinDir = "input"
	DirOutput  PinDir = "output"
)

type PinPull string

const (
	PullDefault PinPull = ""
	PullFloat   PinPull = "float"
	PullUp      PinPull = "pullup"
	PullDown    PinPull = "pulldown"
)

// Pin is one entry of a device pin list. Fun is the IO mux function code in
// the range 1 to 7.
type Pin struct {
	Num  int
	Fun  int
	Dir  PinDir
	Pull PinPull
}

// Refs holds the names of other devices a device depends on.
type Refs struct {
	DMA         string
	RCC         string
	I2C         string
	I2S         string
	SPI         string
	GPIO        string
	SegLCD      string
	TouchSensor string
}

// Names returns the non-empty references keyed by their document key.
func (r Refs) Names() [][2]string {
	var result [][2]string
	for _, ref := range [][2]string{
		{"dma_device", r.DMA},
		{"rcc_device", r.RCC},
		{"i2c_device", r.I2C},
		{"i2s_device", r.I2S},
		{"spi_device", r.SPI},
		{"gpio_device", r.GPIO},
		{"seg_lcd_device", r.SegLCD},
		{"touch_sensor_device", r.TouchSensor},
	} {
		if len(ref[1]) > 0 {
			result = append(result, ref)
		}
	}
	return result
}

// Record is the normalized configuration of one device.
type Record struct {
	Key
	// Exists is set when the device appears in the description. Records
	// built from class defaults are never emitted.
	Exists  bool
	Init    InitCfg
	RegBase uint32
	IRQ     *IRQCfg
	Pins    []Pin
	Refs    Refs
	// Config carries the class specific payload. Classes without fields
	// of their own leave it nil.
	Config Config
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	result := r
	if r.IRQ != nil {
		irq := *r.IRQ
		result.IRQ = &irq
	}
	result.Pins = slices.Clone(r.Pins)
	if r.Config != nil {
		result.Config = r.Config.clone()
	}
	return result
}

// Config is implemented by every class payload.
type Config interface {
	Class() Class
	clone() Config
}

type RCCType int

const (
	RCCPeripheral RCCType = iota
	RCCWLAN
	RCCCPU
	RCCSDADC
	RCCQFlash
	RCCGPSec
	RCCRSA
	RCCAPB
)

var rccTypes = []string{"peripheral", "wlan", "cpu", "sd_adc", "qflash", "gpsec", "rsa", "apb"}

func (t RCCType) String() string {
	if t < 0 || int(t) >= len(rccTypes) {
		return "unknown"
	}
	return rccTypes[t]
}

type RCCClock struct {
	Type RCCType
	// Clock is in MHz.
	Clock int
}

// PLLMHz is the reference frequency every clock divider is applied to.
const PLLMHz = 480

// RCCConfig is the clock tree. The dividers and the cpu and wlan entries of
// Clocks describe the same frequencies. Set keeps them in agreement: an
// edited divider rewrites its clock, and a clock edited on its own sets the
// divider to PLLMHz / clock, after which the clock is rewritten to what that
// divider yields. A divider out of range is rejected.
type RCCConfig struct {
	Clocks  []RCCClock
	CPUDiv  int
	WLANDiv int
}

func (c RCCConfig) Class() Class { return ClassRCC }
func (c RCCConfig) clone() Config {
	c.Clocks = slices.Clone(c.Clocks)
	return c
}

// CPUClockHz returns the CPU clock produced by the divider.
func (c RCCConfig) CPUClockHz() int {
	if c.CPUDiv <= 0 {
		return 0
	}
	return PLLMHz / c.CPUDiv * 1000000
}

type Parity int

const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
)

var parities = []string{"none", "even", "odd"}

type FlowCtrl int

const (
	FlowNone FlowCtrl = iota
	FlowRTS
	FlowCTS
	FlowRTSCTS
)

var flowCtrls = []string{"none", "rts", "cts", "rts_cts"}

type UARTConfig struct {
	Baud     int
	Parity   Parity
	StopBits int
	DataBits int
	FlowCtrl FlowCtrl
}

func (c UARTConfig) Class() Class  { return ClassUART }
func (c UARTConfig) clone() Config { return c }

type GPIODir int

const (
	GPIOInput GPIODir = iota
	GPIOOutput
)

var gpioDirs = []string{"input", "output"}

type GPIOPull int

const (
	GPIOFloat GPIOPull = iota
	GPIOPullUp
	GPIOPullDown
)

var gpioPulls = []string{"float", "pull_up", "pull_down"}

type GPIOIntMode int

const (
	IntNone GPIOIntMode = iota
	IntFallingEdge
	IntRisingEdge
	IntDoubleEdge
	IntLowLevel
	IntHighLevel
)

var gpioIntModes = []string{"none", "falling_edge", "rising_edge", "double_edge", "low_level", "high_level"}

type GPIOPin struct {
	Pin     int
	Fun     int
	Dir     GPIODir
	Pull    GPIOPull
	IntMode GPIOIntMode
}

type GPIOConfig struct {
	Pins []GPIOPin
}

func (c GPIOConfig) Class() Class { return ClassGPIO }
func (c GPIOConfig) clone() Config {
	c.Pins = slices.Clone(c.Pins)
	return c
}

type IFlashConfig struct {
	QuadSPI bool
}

func (c IFlashConfig) Class() Class  { return ClassIFlash }
func (c IFlashConfig) clone() Config { return c }

var (
	segLCDDuties = []string{"static", "1/2", "1/3", "1/4", "1/5", "1/6", "1/7", "1/8"}
	segLCDVLCDs  = []string{"2.7v", "2.9v", "3.1v", "3.3v"}
	segLCDBiases = []string{"1/4", "1/2", "1/3", "static"}
	segLCDDrives = []string{"low", "high"}
)

// SegLCDConfig stores its enumerations as indexes into the lists the
// description uses: duty static..1/8, vlcd 2.7v..3.3v, bias 1/4, 1/2, 1/3,
// static and drive strength low or high.
type SegLCDConfig struct {
	Duty      int
	VLCD      int
	Bias      int
	HD        int
	FrameFreq int
	ComNum    int
}

func (c SegLCDConfig) Class() Class  { return ClassSegLCD }
func (c SegLCDConfig) clone() Config { return c }

type I2CConfig struct {
	MaxClock   int
	Addr10Bits bool
}

func (c I2CConfig) Class() Class  { return ClassI2C }
func (c I2CConfig) clone() Config { return c }

type EEPROMConfig struct {
	SpeedHz        int
	Size           int
	I2CAddr        int
	PageSize       int
	AddrWidth      int
	ReadOnly       bool
	MaxWriteTimeMs int
}

func (c EEPROMConfig) Class() Class  { return ClassEEPROM }
func (c EEPROMConfig) clone() Config { return c }

type PMUClock int

const (
	PMUInternal PMUClock = iota
	PMUExternal
)

var pmuClocks = []string{"internal", "external"}

type PMUConfig struct {
	ClkSrc PMUClock
}

func (c PMUConfig) Class() Class  { return ClassPMU }
func (c PMUConfig) clone() Config { return c }

type TouchButton struct {
	KeyNum    int
	Threshold int
}

type TouchButtonConfig struct {
	Buttons []TouchButton
}

func (c TouchButtonConfig) Class() Class { return ClassTouchButton }
func (c TouchButtonConfig) clone() Config {
	c.Buttons = slices.Clone(c.Buttons)
	return c
}

const (
	ADCDiff01 = 8
	ADCDiff23 = 9
)

type ADCChannel struct {
	// Channel is 0 to 3 for a single input, ADCDiff01 or ADCDiff23 for a
	// differential pair.
	Channel int
	Gain1   int
	Gain2   int
	Cmp     bool
	CmpData int
	CmpPol  bool
}

type ADCConfig struct {
	Channels []ADCChannel
}

func (c ADCConfig) Class() Class { return ClassADC }
func (c ADCConfig) clone() Config {
	c.Channels = slices.Clone(c.Channels)
	return c
}

// SPIDevice describes a device hanging off the SPI master.
type SPIDevice struct {
	Mode int
	Freq int
	CS   Pin
}

type EFlashConfig struct {
	QuadSPI bool
	SPI     SPIDevice
}

func (c EFlashConfig) Class() Class  { return ClassEFlash }
func (c EFlashConfig) clone() Config { return c }

type I2SConfig struct {
	ExtalClock bool
	MclkHz     int
}

func (c I2SConfig) Class() Class  { return ClassI2S }
func (c I2SConfig) clone() Config { return c }

type ES8374Config struct {
	DMIC    bool
	LIN1    bool
	RIN1    bool
	LIN2    bool
	RIN2    bool
	MonoOut bool
	SpkOut  bool
	I2C     bool
	Address int
}

func (c ES8374Config) Class() Class  { return ClassES8374 }
func (c ES8374Config) clone() Config { return c }

type SDMMCConfig struct {
	ClockHz int
	// BusWidth is 1 or 4.
	BusWidth int
	// CPUClockHz is derived from the clock tree and never persisted.
	CPUClockHz int
}

func (c SDMMCConfig) Class() Class  { return ClassSDMMC }
func (c SDMMCConfig) clone() Config { return c }

type SDIOSlaveConfig struct {
	WrapperRegBase uint32
}

func (c SDIOSlaveConfig) Class() Class  { return ClassSDIOSlave }
func (c SDIOSlaveConfig) clone() Config { return c }

// NoPin marks an optional display pin that is not connected.
const NoPin = -1

type TFTLCDConfig struct {
	SPI   SPIDevice
	Reset int
	LED   int
	DCX   int
	TE    int
}

func (c TFTLCDConfig) Class() Class  { return ClassTFTLCD }
func (c TFTLCDConfig) clone() Config { return c }

type WDTConfig struct {
	CounterValue int
}

func (c WDTConfig) Class() Class  { return ClassWDT }
func (c WDTConfig) clone() Config { return c }

type PSRAMConfig struct {
	QSPI    bool
	ClockHz int
	// CPUClockHz is derived from the clock tree and never persisted.
	CPUClockHz int
}

func (c PSRAMConfig) Class() Class  { return ClassPSRAM }
func (c PSRAMConfig) clone() Config { return c }
