package model

type TrafficKV struct {
	Key       string `gorm:"column:key;primaryKey;type:text"`
	Value     string `gorm:"column:value;type:text;not null"`
	UpdatedAt string `gorm:"column:updated_at;type:text;not null"`
}

func (TrafficKV) TableName() string {
	return "traffic_kv"
}
