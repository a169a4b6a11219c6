package models

import "time"

// Bar is a single OHLCV candle.
//
// Time is the left label of the bar's period: the instant the period
// starts, in UTC. Open/High/Low/Close are the usual price points and
// Volume the total quantity traded inside the period.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}
