package model

type Datastream struct {
	DatastreamID        int64   `gorm:"column:datastream_id;primaryKey"`
	CounterID           int64   `gorm:"column:counter_id;not null;index"`
	DatastreamType      string  `gorm:"column:datastream_type;type:text;not null"`
	DatastreamName      string  `gorm:"column:datastream_name;type:text;not null"`
	DatastreamDirection string  `gorm:"column:datastream_direction;type:text;not null"`
	DatastreamNotes     *string `gorm:"column:datastream_notes;type:text"`
}

func (Datastream) TableName() string {
	return "datastreams"
}
