// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// sht3x is a package for interfacing with the Sensirion SHT-30, SHT-31 and
// SHT-35 temperature/humidity sensors.
//
// # Datasheet
//
// https://sensirion.com/media/documents/213E6A3B/63A5A569/Datasheet_SHT3x_DIS.pdf
//
// # Protocol
//
// Every exchange starts with a 16 bit command sent most significant byte
// first. A single shot measurement returns six bytes: the temperature word, its
// CRC, the humidity word and its CRC. A frame is only accepted when both CRCs
// validate.
//
//	T = -45 + 175 * word / 65535 °C
//	RH = 100 * word / 65535 %
//
// # Accuracy
//
// SHT-30: ±0.2 °C, ±2 %RH. SHT-31: ±0.2 °C, ±2 %RH. SHT-35: ±0.1 °C, ±1.5 %RH.
package sht3x

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/sht3x/common"
)

const (
	// DefaultAddress is used when the ADDR pin is pulled low.
	DefaultAddress i2c.Addr = 0x44
	// AlternateAddress is used when the ADDR pin is pulled high.
	AlternateAddress i2c.Addr = 0x45
)

// Command is a 16 bit SHT3x opcode.
type Command uint16

const (
	CmdSoftReset   Command = 0x30a2
	CmdReadStatus  Command = 0xf32d
	CmdClearStatus Command = 0x3041

	// Single shot measurements. The polling variants release the bus while
	// the sensor converts, the stretch variants hold SCL low until data is
	// ready.
	CmdMeasureHighPolling   Command = 0x2400
	CmdMeasureHighStretch   Command = 0x2c06
	CmdMeasureMediumPolling Command = 0x240b
	CmdMeasureMediumStretch Command = 0x2c0d
	CmdMeasureLowPolling    Command = 0x2416
	CmdMeasureLowStretch    Command = 0x2c10

	CmdHeaterEnable  Command = 0x306d
	CmdHeaterDisable Command = 0x3066

	CmdReadSerialNumber Command = 0x3780
)

// Bytes returns the command as sent on the wire.
func (c Command) Bytes() []byte {
	return []byte{byte(c >> 8), byte(c)}
}

func (c Command) String() string {
	switch c {
	case CmdSoftReset:
		return "soft reset"
	case CmdReadStatus:
		return "read status"
	case CmdClearStatus:
		return "clear status"
	case CmdMeasureHighPolling, CmdMeasureHighStretch,
		CmdMeasureMediumPolling, CmdMeasureMediumStretch,
		CmdMeasureLowPolling, CmdMeasureLowStretch:
		return fmt.Sprintf("measure 0x%04x", uint16(c))
	case CmdHeaterEnable:
		return "heater enable"
	case CmdHeaterDisable:
		return "heater disable"
	case CmdReadSerialNumber:
		return "read serial number"
	default:
		return fmt.Sprintf("Command(0x%04x)", uint16(c))
	}
}

// Repeatability selects the measurement precision. Higher repeatability takes
// longer and draws more current.
type Repeatability int

const (
	RepeatabilityHigh Repeatability = iota
	RepeatabilityMedium
	RepeatabilityLow
)

func (r Repeatability) String() string {
	switch r {
	case RepeatabilityHigh:
		return "high"
	case RepeatabilityMedium:
		return "medium"
	case RepeatabilityLow:
		return "low"
	default:
		return fmt.Sprintf("Repeatability(%d)", int(r))
	}
}

// Mode selects how the host waits for a single shot measurement.
type Mode int

const (
	// Polling writes the command, sleeps for the conversion time and then
	// reads the frame.
	Polling Mode = iota
	// ClockStretching reads straight after the command; the sensor stretches
	// the clock until the frame is ready. The bus driver must support it.
	ClockStretching
)

func (m Mode) String() string {
	switch m {
	case Polling:
		return "polling"
	case ClockStretching:
		return "clock-stretching"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

var measureCommands = map[Repeatability][2]Command{
	RepeatabilityHigh:   {CmdMeasureHighPolling, CmdMeasureHighStretch},
	RepeatabilityMedium: {CmdMeasureMediumPolling, CmdMeasureMediumStretch},
	RepeatabilityLow:    {CmdMeasureLowPolling, CmdMeasureLowStretch},
}

// Conversion times rounded up from the datasheet maximums of 15.5, 6.5 and
// 4.5ms.
var settleTimes = map[Repeatability]time.Duration{
	RepeatabilityHigh:   20 * time.Millisecond,
	RepeatabilityMedium: 10 * time.Millisecond,
	RepeatabilityLow:    5 * time.Millisecond,
}

// MeasureCommand returns the single shot command for the repeatability and
// mode pair.
func MeasureCommand(r Repeatability, m Mode) (Command, error) {
	cmds, ok := measureCommands[r]
	if !ok {
		return 0, fmt.Errorf("sht3x: invalid repeatability %s", r)
	}
	if m != Polling && m != ClockStretching {
		return 0, fmt.Errorf("sht3x: invalid mode %s", m)
	}
	return cmds[m], nil
}

// Status is the sensor status register.
type Status uint16

const (
	StatusAlertPending        Status = 1 << 15
	StatusHeaterOn            Status = 1 << 13
	StatusHumidityAlert       Status = 1 << 11
	StatusTemperatureAlert    Status = 1 << 10
	StatusResetDetected       Status = 1 << 4
	StatusCommandFailed       Status = 1 << 1
	StatusWriteChecksumFailed Status = 1 << 0
)

var statusNames = []struct {
	flag Status
	name string
}{
	{StatusAlertPending, "AlertPending"},
	{StatusHeaterOn, "HeaterOn"},
	{StatusHumidityAlert, "HumidityAlert"},
	{StatusTemperatureAlert, "TemperatureAlert"},
	{StatusResetDetected, "ResetDetected"},
	{StatusCommandFailed, "CommandFailed"},
	{StatusWriteChecksumFailed, "WriteChecksumFailed"},
}

func (s Status) String() string {
	var names []string
	for _, n := range statusNames {
		if s&n.flag != 0 {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "0"
	}
	return strings.Join(names, "|")
}

// Reading is one validated temperature/humidity sample.
type Reading struct {
	Temperature physic.Temperature
	Humidity    physic.RelativeHumidity
}

// Celsius returns the temperature in °C.
func (r Reading) Celsius() float64 {
	return r.Temperature.Celsius()
}

// Percent returns the relative humidity in %.
func (r Reading) Percent() float64 {
	return float64(r.Humidity) / float64(physic.PercentRH)
}

// FaultFunc receives the description of an unrecoverable read failure. It is
// expected not to return.
type FaultFunc func(msg string)

// Opts holds the configuration options for the device.
type Opts struct {
	Repeatability Repeatability
	Mode          Mode
	// SettleTime is the wait between the measurement command and the frame
	// read in Polling mode. 0 uses the conversion time of Repeatability.
	SettleTime time.Duration
	// Fault is called by ReadTemperature and ReadHumidity on failure. nil logs
	// the message at fatal level to stderr, which exits the process.
	Fault FaultFunc
	// Logger receives frame level debug output. nil disables logging.
	Logger *zerolog.Logger
}

// DefaultOpts is a high repeatability polling measurement.
var DefaultOpts = Opts{
	Repeatability: RepeatabilityHigh,
	Mode:          Polling,
}

const (
	frameSize  = 6
	resetDelay = 10 * time.Millisecond
	// The heater commands have no documented execution time but the next
	// command fails without a pause.
	commandDelay = time.Millisecond

	// Magic numbers for count to value conversions.
	temperatureOffset float64 = -45.0
	temperatureScalar float64 = 175.0
	humidityScalar    float64 = 100.0
	scaleDivisor      float64 = 65535.0
)

// Dev represents a SHT-3X series temperature/humidity sensor.
type Dev struct {
	d          *i2c.Dev
	opts       Opts
	cmdMeasure Command
	settle     time.Duration
	log        zerolog.Logger
	fault      FaultFunc

	mu       sync.Mutex
	last     Reading
	valid    bool
	shutdown chan struct{}
	wg       sync.WaitGroup
}

// New returns a SHT-3X sensor on bus at addr. The sensor is soft reset and its
// status register read back; an error is returned if either fails, so a
// missing device is reported here. opts can be nil.
func New(bus i2c.Bus, addr i2c.Addr, opts *Opts) (*Dev, error) {
	dev, err := newDev(bus, addr, opts)
	if err != nil {
		return nil, err
	}
	if err := dev.Reset(); err != nil {
		return nil, fmt.Errorf("sht3x: device not responding at %#x: %w", uint16(addr), err)
	}
	status, err := dev.ReadStatus()
	if err != nil {
		return nil, fmt.Errorf("sht3x: device not responding at %#x: %w", uint16(addr), err)
	}
	dev.log.Debug().Stringer("status", status).Msg("probed")
	return dev, nil
}

func newDev(bus i2c.Bus, addr i2c.Addr, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	cmd, err := MeasureCommand(opts.Repeatability, opts.Mode)
	if err != nil {
		return nil, err
	}
	dev := &Dev{
		d:          &i2c.Dev{Bus: bus, Addr: uint16(addr)},
		opts:       *opts,
		cmdMeasure: cmd,
		settle:     opts.SettleTime,
		log:        zerolog.Nop(),
		fault:      opts.Fault,
	}
	if dev.settle <= 0 {
		dev.settle = settleTimes[opts.Repeatability]
	}
	if opts.Logger != nil {
		dev.log = opts.Logger.With().Str("device", dev.String()).Uint16("addr", uint16(addr)).Logger()
	}
	if dev.fault == nil {
		dev.fault = fatal
	}
	return dev, nil
}

func fatal(msg string) {
	l := zerolog.New(os.Stderr).With().Timestamp().Logger()
	l.Fatal().Msg(msg)
}

func (dev *Dev) writeCommand(cmd Command) error {
	if err := dev.d.Tx(cmd.Bytes(), nil); err != nil {
		return &BusError{Op: "write " + cmd.String(), Err: err}
	}
	return nil
}

func (dev *Dev) read(r []byte) error {
	if err := dev.d.Tx(nil, r); err != nil {
		return &BusError{Op: "read", Err: err}
	}
	return nil
}

// Reset issues a soft-reset to the device.
func (dev *Dev) Reset() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	err := dev.writeCommand(CmdSoftReset)
	time.Sleep(resetDelay)
	return err
}

// ReadStatus returns the status register.
func (dev *Dev) ReadStatus() (Status, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if err := dev.writeCommand(CmdReadStatus); err != nil {
		return 0, err
	}
	r := make([]byte, 3)
	if err := dev.read(r); err != nil {
		return 0, err
	}
	if err := checkWord(QuantityStatus, r); err != nil {
		return 0, err
	}
	return Status(common.Word(r)), nil
}

// ClearStatus clears the alert and reset flags of the status register.
func (dev *Dev) ClearStatus() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.writeCommand(CmdClearStatus)
}

// SetHeater switches the internal heater on or off. The heater state is
// reported by StatusHeaterOn.
func (dev *Dev) SetHeater(on bool) error {
	cmd := CmdHeaterDisable
	if on {
		cmd = CmdHeaterEnable
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	err := dev.writeCommand(cmd)
	time.Sleep(commandDelay)
	return err
}

// SerialNumber returns the device serial number set at the factory.
func (dev *Dev) SerialNumber() (uint32, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if err := dev.writeCommand(CmdReadSerialNumber); err != nil {
		return 0, err
	}
	time.Sleep(commandDelay)
	r := make([]byte, frameSize)
	if err := dev.read(r); err != nil {
		return 0, err
	}
	for _, w := range [][]byte{r[0:3], r[3:6]} {
		if err := checkWord(QuantitySerialNumber, w); err != nil {
			return 0, err
		}
	}
	return uint32(common.Word(r[0:2]))<<16 | uint32(common.Word(r[3:5])), nil
}

// Measure performs one single shot measurement and returns both quantities
// from the same frame. The cached reading returned by Last is only updated
// when both CRCs validate.
func (dev *Dev) Measure() (Reading, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if err := dev.writeCommand(dev.cmdMeasure); err != nil {
		return Reading{}, err
	}
	if dev.opts.Mode == Polling {
		time.Sleep(dev.settle)
	}
	frame := make([]byte, frameSize)
	if err := dev.read(frame); err != nil {
		return Reading{}, err
	}
	r, err := decodeFrame(frame)
	if err != nil {
		dev.log.Warn().Err(err).Hex("frame", frame).Msg("frame rejected")
		return Reading{}, err
	}
	dev.log.Debug().Hex("frame", frame).Float64("celsius", r.Celsius()).Float64("rh", r.Percent()).Msg("measured")
	dev.last = r
	dev.valid = true
	return r, nil
}

// Last returns the most recent valid reading. ok is false until a
// measurement succeeds.
func (dev *Dev) Last() (r Reading, ok bool) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.last, dev.valid
}

// Temperature performs a full measurement and returns the temperature.
func (dev *Dev) Temperature() (physic.Temperature, error) {
	r, err := dev.Measure()
	if err != nil {
		return 0, err
	}
	return r.Temperature, nil
}

// Humidity performs a full measurement and returns the relative humidity.
func (dev *Dev) Humidity() (physic.RelativeHumidity, error) {
	r, err := dev.Measure()
	if err != nil {
		return 0, err
	}
	return r.Humidity, nil
}

// ReadTemperature performs a full measurement and returns the temperature in
// °C. On failure the Fault function is called and NaN is returned if it
// returns.
func (dev *Dev) ReadTemperature() float64 {
	r, err := dev.Measure()
	if err != nil {
		dev.fault(faultMessage(QuantityTemperature, err))
		return math.NaN()
	}
	return r.Celsius()
}

// ReadHumidity performs a full measurement and returns the relative humidity
// in %. On failure the Fault function is called and NaN is returned if it
// returns.
func (dev *Dev) ReadHumidity() float64 {
	r, err := dev.Measure()
	if err != nil {
		dev.fault(faultMessage(QuantityHumidity, err))
		return math.NaN()
	}
	return r.Percent()
}

// The tag names the accessor that failed, not the word whose CRC failed.
func faultMessage(q Quantity, err error) string {
	kind := "CRC"
	if !errors.Is(err, ErrCRC) {
		kind = "BUS"
	}
	return fmt.Sprintf("SHT3X %s %s FAIL", strings.ToUpper(q.String()), kind)
}

func decodeFrame(frame []byte) (Reading, error) {
	if len(frame) != frameSize {
		return Reading{}, fmt.Errorf("sht3x: frame is %d bytes, expected %d", len(frame), frameSize)
	}
	if err := checkWord(QuantityTemperature, frame[0:3]); err != nil {
		return Reading{}, err
	}
	if err := checkWord(QuantityHumidity, frame[3:6]); err != nil {
		return Reading{}, err
	}
	return Reading{
		Temperature: countToTemperature(common.Word(frame[0:2])),
		Humidity:    countToHumidity(common.Word(frame[3:5])),
	}, nil
}

// checkWord validates a 3 byte word/CRC group as sent by the sensor.
func checkWord(q Quantity, w []byte) error {
	if want := common.CRC8(w[:2]); want != w[2] {
		return &CRCError{Quantity: q, Got: w[2], Want: want}
	}
	return nil
}

// convert the count to a temperature value. The full word range maps to
// -45…130 °C, no clamping is applied.
func countToTemperature(count uint16) physic.Temperature {
	c := temperatureOffset + float64(count)*temperatureScalar/scaleDivisor
	return physic.ZeroCelsius + physic.Temperature(c*float64(physic.Celsius))
}

func countToHumidity(count uint16) physic.RelativeHumidity {
	rh := float64(count) * humidityScalar / scaleDivisor
	return physic.RelativeHumidity(rh * float64(physic.PercentRH))
}

// Sense reads temperature and humidity from the device in a single
// transaction. Implements physic.SenseEnv.
func (dev *Dev) Sense(e *physic.Env) error {
	e.Pressure = 0
	r, err := dev.Measure()
	if err != nil {
		e.Temperature = 0
		e.Humidity = 0
		return err
	}
	e.Temperature = r.Temperature
	e.Humidity = r.Humidity
	return nil
}

// SenseContinuous continuously reads from the device and sends the output
// to the returned channel. Failed reads are skipped. To terminate the read,
// call Dev.Halt().
func (dev *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.shutdown != nil {
		return nil, errors.New("sht3x: SenseContinuous already running")
	}
	if interval < dev.settle {
		return nil, errors.New("sht3x: sample interval is < measurement duration")
	}
	dev.shutdown = make(chan struct{})
	ch := make(chan physic.Env, 16)
	dev.wg.Add(1)
	go func(shutdown <-chan struct{}) {
		defer dev.wg.Done()
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-shutdown:
				return
			case <-ticker.C:
				env := physic.Env{}
				if err := dev.Sense(&env); err != nil {
					dev.log.Warn().Err(err).Msg("continuous read")
					continue
				}
				select {
				case ch <- env:
				case <-shutdown:
					return
				}
			}
		}
	}(dev.shutdown)
	return ch, nil
}

// Precision returns the smallest change in readings the device can produce.
// Implements physic.SenseEnv.
func (dev *Dev) Precision(e *physic.Env) {
	e.Temperature = physic.Temperature(math.Round(temperatureScalar / scaleDivisor * float64(physic.Celsius)))
	e.Humidity = physic.RelativeHumidity(math.Round(humidityScalar / scaleDivisor * float64(physic.PercentRH)))
	e.Pressure = 0
}

// Halt terminates a SenseContinuous command if running. Implements
// conn.Resource.
func (dev *Dev) Halt() error {
	dev.mu.Lock()
	if dev.shutdown == nil {
		dev.mu.Unlock()
		return nil
	}
	close(dev.shutdown)
	dev.shutdown = nil
	dev.mu.Unlock()
	dev.wg.Wait()
	return nil
}

// String returns a string representation of the device.
func (dev *Dev) String() string {
	return "sht3x"
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
