package weather

import (
	"testing"
	"time"
)

func TestMergeTakesEachFieldFromItsSource(t *testing.T) {
	obsTime := time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)
	obs := Observation{
		LocationName:       "臺北",
		ObservationTime:    obsTime,
		WindSpeed:          1.1,
		Temperature:        22.3,
		WeatherDescription: "陰",
	}
	fc := Forecast{
		Description:     "多雲時晴",
		WeatherCode:     2,
		RainProbability: 48.3,
		Comfortability:  "舒適",
		StartTime:       obsTime.Add(-2 * time.Hour),
		EndTime:         obsTime.Add(4 * time.Hour),
	}

	vm := Merge(obs, fc)

	if vm.Temperature != 22.3 || vm.WindSpeed != 1.1 || vm.LocationName != "臺北" {
		t.Errorf("observation fields not merged: %+v", vm)
	}
	if !vm.ObservationTime.Equal(obsTime) {
		t.Errorf("ObservationTime = %v, want %v", vm.ObservationTime, obsTime)
	}
	if vm.Description != "多雲時晴" || vm.WeatherCode != 2 || vm.Comfortability != "舒適" || vm.RainProbability != 48.3 {
		t.Errorf("forecast fields not merged: %+v", vm)
	}
	if vm.ObservedCondition != "陰" {
		t.Errorf("ObservedCondition = %q, want %q", vm.ObservedCondition, "陰")
	}
	if vm.IsLoading {
		t.Error("merged view must not be loading")
	}
}

func TestMergeEmptyForecastLeavesObservationIntact(t *testing.T) {
	vm := Merge(Observation{LocationName: "花蓮", Temperature: 18.5}, Forecast{})

	if vm.LocationName != "花蓮" || vm.Temperature != 18.5 {
		t.Errorf("observation fields overwritten: %+v", vm)
	}
	if vm.Description != "" || vm.WeatherCode != 0 {
		t.Errorf("unexpected forecast fields: %+v", vm)
	}
}

func TestLocationKey(t *testing.T) {
	loc := Location{Station: "板橋", Region: "新北市"}
	if got := loc.Key(); got != "板橋:新北市" {
		t.Errorf("Key() = %q, want %q", got, "板橋:新北市")
	}
}
