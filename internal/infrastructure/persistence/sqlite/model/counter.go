package model

type Counter struct {
	CounterID    int64   `gorm:"column:counter_id;primaryKey"`
	CounterCode  string  `gorm:"column:counter_code;type:text;not null"`
	CounterName  string  `gorm:"column:counter_name;type:text;not null"`
	Vendor       string  `gorm:"column:vendor;type:text;not null"`
	VendorSiteID string  `gorm:"column:vendor_site_id;type:text;not null"`
	Latitude     float64 `gorm:"column:latitude;not null"`
	Longitude    float64 `gorm:"column:longitude;not null"`
	CounterNotes *string `gorm:"column:counter_notes;type:text"`
}

func (Counter) TableName() string {
	return "counters"
}
