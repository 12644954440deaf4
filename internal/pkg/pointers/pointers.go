package pointers

import "time"

func Float64(v float64) *float64 { return &v }
func String(v string) *string { return &v }
func Time(v time.Time) *time.Time { return &v }
