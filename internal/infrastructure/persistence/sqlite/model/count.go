package model

type Count struct {
	CountID      int64    `gorm:"column:count_id;primaryKey"`
	DatastreamID int64    `gorm:"column:datastream_id;not null;index"`
	DateTime     string   `gorm:"column:date_time;type:text;not null;index"`
	RawCount     *int64   `gorm:"column:raw_count"`
	MaxDay       *int64   `gorm:"column:maxday"`
	MaxHour      *int64   `gorm:"column:maxhour"`
	Gap          *int64   `gorm:"column:gap"`
	Zero         *int64   `gorm:"column:zero"`
	Stat         *int64   `gorm:"column:stat"`
	CleanedCount *float64 `gorm:"column:cleaned_count"`
}

func (Count) TableName() string {
	return "counts"
}
