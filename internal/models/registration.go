package models

// Registration is one row of CAR_REGIST_SIDO plus the fields derived from
// RegDate when the table is loaded.
type Registration struct {
	CarType   string `json:"car_type"`
	UsageType string `json:"usage_type"`
	Sido      string `json:"sido"`
	Sigungu   string `json:"sigungu"`
	RegDate   string `json:"reg_date"` // YYYYMMDD
	Count     int64  `json:"count"`

	Year  string `json:"year"`
	Month string `json:"month"`
}

// DeriveDate fills Year and Month from RegDate. Short values keep whatever
// prefix is available.
func (r *Registration) DeriveDate() {
	r.Year = substr(r.RegDate, 0, 4)
	r.Month = substr(r.RegDate, 4, 6)
}

func substr(s string, from, to int) string {
	if from >= len(s) {
		return ""
	}
	if to > len(s) {
		to = len(s)
	}
	return s[from:to]
}
