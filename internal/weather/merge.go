package weather

// Merge combines one observation and one forecast into a single ViewModel.
// Every field is taken from exactly one named source.
func Merge(obs Observation, fc Forecast) ViewModel {
	return ViewModel{
		// observation
		LocationName:      obs.LocationName,
		Temperature:       obs.Temperature,
		WindSpeed:         obs.WindSpeed,
		ObservationTime:   obs.ObservationTime,
		ObservedCondition: obs.WeatherDescription,

		// forecast
		Description:     fc.Description,
		WeatherCode:     fc.WeatherCode,
		Comfortability:  fc.Comfortability,
		RainProbability: fc.RainProbability,

		IsLoading: false,
	}
}
