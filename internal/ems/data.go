package ems

import (
	"encoding/json"
	"math"
)

// Float is one telemetry channel in engineering units. NaN means the
// channel has never been decoded ("no data yet") and marshals as JSON null
// so the dashboard can distinguish "unknown" from a real zero.
type Float float64

// MarshalJSON encodes NaN as null.
func (f Float) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(f)) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}

// UnmarshalJSON decodes null back to NaN.
func (f *Float) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = Float(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// Valid reports whether the channel has been decoded at least once.
func (f Float) Valid() bool { return !math.IsNaN(float64(f)) }

// Data is the accumulated ECU telemetry snapshot with engineering-unit
// conversions applied. It is the single destination for both the UART frame
// decoder and the CAN decoder; consumers get a value copy via
// Decoder.Snapshot and never observe a half-updated record.
//
// Field groups mirror the wire protocol: fast fields arrive in every frame
// (~50 Hz), slow groups rotate one per frame on a 10-frame cycle.
type Data struct {
	// Connection status
	Connected   bool   `json:"connected"`
	PacketCount uint32 `json:"packetCount"`
	ErrorCount  uint32 `json:"errorCount"`

	// Fast data (updated every frame)
	RPM           Float `json:"rpm"`
	IgnAngle      Float `json:"ignAngle"`  // degrees, 0.25 resolution
	InjTimeMs     Float `json:"injTimeMs"` // injector pulse width
	TPS           Float `json:"tps"`       // throttle position 0-100 %
	DBWPos        Float `json:"dbwPos"`    // electronic throttle actual 0-100 %
	MAPKpa        Float `json:"mapKpa"`    // manifold pressure
	Lambda        Float `json:"lambda"`    // wideband lambda
	Speed         Float `json:"speed"`     // vehicle speed km/h
	FuelFlow      Float `json:"fuelFlow"`  // instantaneous fuel flow (1/16 units)
	KnockV        Float `json:"knockV"`    // knock sensor voltage
	TransientCorr int8  `json:"transientCorr"`
	Runlevel      uint8 `json:"runlevel"`
	CylNo         uint8 `json:"cylNo"`

	// Slow 0: corrections & electrical
	CorrAngle       int8  `json:"corrAngle"`
	LambdaTarget    Float `json:"lambdaTarget"`
	LambdaCorrFast  int8  `json:"lambdaCorrFast"`
	LambdaCorrSlow  int8  `json:"lambdaCorrSlow"`
	FuelPressureKpa Float `json:"fuelPressureKpa"`
	DwellMs         Float `json:"dwellMs"`
	Voltage         Float `json:"voltage"` // battery voltage V
	Gear            int8  `json:"gear"`
	DBWCmd          Float `json:"dbwCmd"` // DBW commanded position
	Lambda2         Float `json:"lambda2"`

	// Slow 1: flags & boost
	FlagMajor      uint8  `json:"flagMajor"`
	FlagMinor      uint8  `json:"flagMinor"`
	FlagNotify     uint8  `json:"flagNotify"`
	FlagNotify2    uint8  `json:"flagNotify2"`
	FlagProtection uint8  `json:"flagProtection"`
	IdlePos        Float  `json:"idlePos"` // idle valve 0-100 %
	Airflow        uint16 `json:"airflow"`
	BoostDuty      uint8  `json:"boostDuty"`
	BoostTarget    uint8  `json:"boostTarget"`

	// Slow 2: injection details
	EGRPos           uint8 `json:"egrPos"`
	EGRTarget        uint8 `json:"egrTarget"`
	InjDuty          uint8 `json:"injDuty"` // injection duty cycle %
	InjLagTime       int16 `json:"injLagTime"`
	InjEndAngle      int8  `json:"injEndAngle"`
	FuelPressCoef    uint8 `json:"fuelPressCoef"`
	AirChargeT       int8  `json:"airChargeT"`
	InjAirChargeCorr int8  `json:"injAirChargeCorr"`
	Speed2           uint8 `json:"speed2"`
	BackPressureKpa  Float `json:"backPressureKpa"`

	// Slow 3: VVT & traction
	IgnAccelCorr int16 `json:"ignAccelCorr"`
	VVT1Curr     int8  `json:"vvt1Curr"`
	VVT1Target   int8  `json:"vvt1Target"`
	VVT2Curr     int8  `json:"vvt2Curr"`
	VVT2Target   int8  `json:"vvt2Target"`
	VVT1BCurr    int8  `json:"vvt1bCurr"`
	VVT2BCurr    int8  `json:"vvt2bCurr"`
	TCSCorr      uint8 `json:"tcsCorr"`
	PWM3DTarget  Float `json:"pwm3dTarget"`
	PWM3DCurr    Float `json:"pwm3dCurr"`

	// Slow 4: trip computer
	TripFuelL       Float `json:"tripFuelL"`       // 0.01 L resolution
	TripPathKm      Float `json:"tripPathKm"`      // 0.1 km resolution
	CurrFuelCons    Float `json:"currFuelCons"`    // L/100km
	TripFuelCons    Float `json:"tripFuelCons"`    // L/100km
	FuelComposition Float `json:"fuelComposition"` // ethanol %

	// Slow 5: raw ADC
	ADCTps    uint8 `json:"adcTps"`
	ADCClt    uint8 `json:"adcClt"`
	ADCIat    uint8 `json:"adcIat"`
	ADCDbw1   uint8 `json:"adcDbw1"`
	ADCDbw2   uint8 `json:"adcDbw2"`
	ADCMap    uint8 `json:"adcMap"`
	ADCLambda uint8 `json:"adcLambda"`

	// Slow 6: analog inputs ADC
	ADCAn [10]uint8 `json:"adcAn"`

	// Slow 7: I/O state
	InputState      uint8  `json:"inputState"`
	OutputState     uint16 `json:"outputState"`
	DBWDriverStatus uint8  `json:"dbwDriverStatus"`
	DBWSystemStatus uint8  `json:"dbwSystemStatus"`
	GasState        uint8  `json:"gasState"`
	ATTemp          int8   `json:"atTemp"`
	ATState         uint8  `json:"atState"`
	FuelLevel       uint8  `json:"fuelLevel"`

	// Slow 8: temperatures & pressures
	CLT         Float `json:"clt"`      // coolant temp C
	IAT         Float `json:"iat"`      // intake air temp C
	OilTemp     Float `json:"oilTemp"`  // oil temp C
	FuelTemp    Float `json:"fuelTemp"` // fuel temp C
	EGT1        Float `json:"egt1"`     // exhaust gas temp 1
	EGT2        Float `json:"egt2"`     // exhaust gas temp 2
	OilPressure Float `json:"oilPressure"` // bar (0.1 resolution)

	// Slow 9: PWM outputs
	PWMDuty [6]Float `json:"pwmDuty"` // PWM channels 1-6, 0-100 %
}

// reset restores the never-seen-data state: counters zeroed, connection
// down, every float channel NaN.
func (d *Data) reset() {
	nan := Float(math.NaN())
	*d = Data{}

	d.RPM = nan
	d.IgnAngle = nan
	d.InjTimeMs = nan
	d.TPS = nan
	d.DBWPos = nan
	d.MAPKpa = nan
	d.Lambda = nan
	d.Speed = nan
	d.FuelFlow = nan
	d.KnockV = nan

	d.LambdaTarget = nan
	d.FuelPressureKpa = nan
	d.DwellMs = nan
	d.Voltage = nan
	d.DBWCmd = nan
	d.Lambda2 = nan

	d.IdlePos = nan
	d.BackPressureKpa = nan

	d.PWM3DTarget = nan
	d.PWM3DCurr = nan

	d.TripFuelL = nan
	d.TripPathKm = nan
	d.CurrFuelCons = nan
	d.TripFuelCons = nan
	d.FuelComposition = nan

	d.CLT = nan
	d.IAT = nan
	d.OilTemp = nan
	d.FuelTemp = nan
	d.EGT1 = nan
	d.EGT2 = nan
	d.OilPressure = nan

	for i := range d.PWMDuty {
		d.PWMDuty[i] = nan
	}
}
