package calculator

const (
	AOFastPeriod   = 5
	AOSlowPeriod   = 34
	ACSmoothPeriod = 5
)

// AwesomeOscillator returns SMA(5) - SMA(34) of the median price series.
// The first AOSlowPeriod-1 positions are undefined.
func AwesomeOscillator(median Series) Series {
	return Sub(SMA(median, AOFastPeriod), SMA(median, AOSlowPeriod))
}

// AcceleratorOscillator returns AO - SMA(5) of AO. Positions whose smoothing
// window touches an undefined AO value are undefined.
func AcceleratorOscillator(ao Series) Series {
	return Sub(ao, SMA(ao, ACSmoothPeriod))
}
