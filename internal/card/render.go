package card

import (
	"fmt"
	"io"
	"time"
)

// FormatShortTime formats t as a zh-TW short time ("上午9:05", "下午2:30") in tz.
// The zero time formats as "".
func FormatShortTime(t time.Time, tz *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if tz != nil {
		t = t.In(tz)
	}

	period := "上午"
	hour := t.Hour()
	if hour >= 12 {
		period = "下午"
	}
	hour %= 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%s%d:%02d", period, hour, t.Minute())
}

// Render writes a plain-text card.
func (v View) Render(w io.Writer) error {
	status := "↻"
	if v.IsLoading {
		status = "…"
	}

	_, err := fmt.Fprintf(w,
		"%s (%s)\n%s\n%.1f °C  %s\n風速 %.1f m/s\n降雨機率 %d%%\n舒適度 %s\n最後觀測時間：%s %s\n[%s theme]\n",
		v.LocationName, v.City,
		v.Description,
		v.Temperature, v.Icon,
		v.WindSpeed,
		v.RainPercent,
		v.Comfortability,
		v.ObservedAt, status,
		v.Theme,
	)
	return err
}
