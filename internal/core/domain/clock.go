package domain

import "time"

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

// SystemClock は UTC の現在時刻を返す Clock です。
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
