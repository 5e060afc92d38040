package tfluna

// Measurement is one reading as reported by the sensor. Distance is in
// centimeters, Strength in device units; TemperatureRaw is the register value
// and only meaningful together with the other two fields of the same read.
type Measurement struct {
	Distance       uint16
	Strength       uint16
	TemperatureRaw uint16
}

// Temperature returns the chip temperature in degrees Celsius.
func (m Measurement) Temperature() float64 {
	return TemperatureCelsius(m.TemperatureRaw)
}

// TemperatureCelsius converts a raw temperature register value: raw/8 - 256.
func TemperatureCelsius(raw uint16) float64 {
	return float64(raw)/8.0 - 256.0
}
