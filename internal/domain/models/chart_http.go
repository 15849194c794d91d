package models

// Requests for chart HTTP endpoints. Defined in domain for consistency and reuse.

type BirthChartRequest struct {
	Date         string             `json:"date" validate:"required,datetime=2006-01-02"`
	Time         string             `json:"time" default:"12:00"`
	Latitude     *float64           `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude    *float64           `json:"longitude" validate:"required,gte=-180,lte=180"`
	Timezone     string             `json:"timezone" validate:"omitempty,timezone"`
	UTCOffset    *float64           `json:"utc_offset" validate:"omitempty,gte=-14,lte=14"`
	HouseSystem  string             `json:"house_system" default:"placidus" validate:"oneof=placidus koch porphyry regiomontanus campanus equal whole_sign"`
	IncludeMinor bool               `json:"include_minor_aspects"`
	Orbs         map[string]float64 `json:"orbs" validate:"omitempty,dive,gte=0,lte=30"`
}

// BirthData converts the request to core input. Call only after validation.
func (r BirthChartRequest) BirthData() BirthData {
	var lat, lon float64
	if r.Latitude != nil {
		lat = *r.Latitude
	}
	if r.Longitude != nil {
		lon = *r.Longitude
	}
	return BirthData{
		Date:      r.Date,
		Time:      r.Time,
		Latitude:  lat,
		Longitude: lon,
		Timezone:  r.Timezone,
		UTCOffset: r.UTCOffset,
	}
}

func (r BirthChartRequest) Options() ChartOptions {
	return ChartOptions{HouseSystem: r.HouseSystem, IncludeMinor: r.IncludeMinor, Orbs: r.Orbs}
}

type SynastryRequest struct {
	First        BirthChartRequest  `json:"first"`
	Second       BirthChartRequest  `json:"second"`
	IncludeMinor bool               `json:"include_minor_aspects"`
	Orbs         map[string]float64 `json:"orbs" validate:"omitempty,dive,gte=0,lte=30"`
}

func (r SynastryRequest) Options() ChartOptions {
	return ChartOptions{IncludeMinor: r.IncludeMinor, Orbs: r.Orbs}
}

type SkyRequest struct {
	Latitude  float64 `query:"lat" json:"lat" validate:"gte=-90,lte=90"`
	Longitude float64 `query:"lon" json:"lon" validate:"gte=-180,lte=180"`
	At        string  `query:"at" json:"at"`
}

type SkyStreamRequest struct {
	Latitude  float64 `query:"lat" json:"lat" validate:"gte=-90,lte=90"`
	Longitude float64 `query:"lon" json:"lon" validate:"gte=-180,lte=180"`
	Interval  int     `query:"interval" json:"interval" default:"60" validate:"gte=1,lte=3600"`
}

type ChartIDRequest struct {
	ID string `param:"id" validate:"required,hexadecimal,len=32"`
}

type ListChartsRequest struct {
	Limit int `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=100"`
}

type BatchChartsRequest struct {
	Charts []BirthChartRequest `json:"charts" validate:"required,min=1,max=50,dive"`
}
