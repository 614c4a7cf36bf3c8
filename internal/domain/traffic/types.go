package traffic

import "time"

// DatastreamType classifies the traffic a datastream measures.
type DatastreamType string

const (
	TypePedestrian      DatastreamType = "PEDESTRIAN"
	TypeCyclist         DatastreamType = "CYCLIST"
	TypeRoadwayCyclist  DatastreamType = "ROADWAY_CYCLIST"
	TypeSidewalkCyclist DatastreamType = "SIDEWALK_CYCLIST"
	TypeCombined        DatastreamType = "COMBINED"
)

// DatastreamDirection is the flow direction a datastream measures.
type DatastreamDirection string

const (
	DirectionIn         DatastreamDirection = "IN"
	DirectionOut        DatastreamDirection = "OUT"
	DirectionNorthbound DatastreamDirection = "NB"
	DirectionSouthbound DatastreamDirection = "SB"
	DirectionEastbound  DatastreamDirection = "EB"
	DirectionWestbound  DatastreamDirection = "WB"
	DirectionCombined   DatastreamDirection = "COMBINED"
)

// Counter is a physical sensor location.
type Counter struct {
	CounterID    int64   `json:"counter_id" validate:"required"`
	CounterCode  string  `json:"counter_code" validate:"required"`
	CounterName  string  `json:"counter_name" validate:"required"`
	Vendor       string  `json:"vendor" validate:"required"`
	VendorSiteID string  `json:"vendor_site_id" validate:"required"`
	Latitude     float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude    float64 `json:"longitude" validate:"gte=-180,lte=180"`
	CounterNotes *string `json:"counter_notes"`
}

// Datastream is one directional, typed traffic feed from a counter.
type Datastream struct {
	DatastreamID        int64               `json:"datastream_id" validate:"required"`
	CounterID           int64               `json:"counter_id" validate:"required"`
	DatastreamType      DatastreamType      `json:"datastream_type" validate:"required,oneof=PEDESTRIAN CYCLIST ROADWAY_CYCLIST SIDEWALK_CYCLIST COMBINED"`
	DatastreamName      string              `json:"datastream_name" validate:"required"`
	DatastreamDirection DatastreamDirection `json:"datastream_direction" validate:"required,oneof=IN OUT NB SB EB WB COMBINED"`
	DatastreamNotes     *string             `json:"datastream_notes"`
}

// Count is one timestamped observation on a datastream. The QA flags record
// pass (1) or fail (0) for each daily quality check; NULL means not assessed.
type Count struct {
	CountID      int64     `json:"count_id" validate:"required"`
	DatastreamID int64     `json:"datastream_id" validate:"required"`
	DateTime     time.Time `json:"date_time" validate:"required"`
	RawCount     *int64    `json:"raw_count"`
	MaxDay       *int64    `json:"maxday" validate:"omitempty,oneof=0 1"`
	MaxHour      *int64    `json:"maxhour" validate:"omitempty,oneof=0 1"`
	Gap          *int64    `json:"gap" validate:"omitempty,oneof=0 1"`
	Zero         *int64    `json:"zero" validate:"omitempty,oneof=0 1"`
	Stat         *int64    `json:"stat" validate:"omitempty,oneof=0 1"`
	CleanedCount *float64  `json:"cleaned_count"`
}
