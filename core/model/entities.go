package model

import "time"

// Aggregator is a tenant account managing a portfolio of sites.
type Aggregator struct {
	AggregatorID int64
	Name         string
}

// Site is a single end-device / connection point registered by an aggregator.
type Site struct {
	SiteID       int64
	AggregatorID int64
	NMI          string
	TimezoneID   string
	SFDI         int64
	LFDI         string
	CreatedTime  time.Time
	ChangedTime  time.Time
}

// SiteReadingType describes a stream of readings for a site (unit of
// measure, scaling). Individual SiteReading rows hang off it.
type SiteReadingType struct {
	SiteReadingTypeID    int64
	AggregatorID         int64
	SiteID               int64
	UOM                  int
	PowerOfTenMultiplier int
	ChangedTime          time.Time
}

// SiteReading is one metering sample submitted for a SiteReadingType.
type SiteReading struct {
	SiteReadingID     int64
	SiteReadingTypeID int64
	Value             int64
	QualityFlags      int
	TimePeriodStart   time.Time
	TimePeriodSeconds int
	ChangedTime       time.Time

	// ReadingType is eagerly loaded by the store so the owning
	// aggregator/site can be resolved without further queries.
	ReadingType *SiteReadingType
}

// DynamicOperatingEnvelope is a time bounded import/export power limit
// issued to a site.
type DynamicOperatingEnvelope struct {
	DynamicOperatingEnvelopeID int64
	SiteID                     int64
	ImportLimitActiveWatts     int64
	ExportLimitActiveWatts     int64
	StartTime                  time.Time
	DurationSeconds            int
	ChangedTime                time.Time

	Site *Site
}

// TariffGeneratedRate is a stored tariff price row. A single row carries the
// four independent price streams exposed on the wire.
type TariffGeneratedRate struct {
	TariffGeneratedRateID int64
	TariffID              int64
	SiteID                int64
	StartTime             time.Time // site-local, set by the store
	DurationSeconds       int
	ImportActivePrice     int64
	ExportActivePrice     int64
	ImportReactivePrice   int64
	ExportReactivePrice   int64
	ChangedTime           time.Time

	Site *Site
}

// SiteDER is the single logical DER device modelled for every site.
type SiteDER struct {
	SiteDERID   int64
	SiteID      int64
	ChangedTime time.Time

	Site *Site
}

// SiteDERAvailability reports the forecast availability of a site's DER.
type SiteDERAvailability struct {
	SiteDERAvailabilityID   int64
	SiteDERID               int64
	AvailabilityDurationSec int
	EstimatedWAvail         int64
	EstimatedVarAvail       int64
	ChangedTime             time.Time

	SiteDER *SiteDER
}

// SiteDERRating holds the nameplate ratings of a site's DER.
type SiteDERRating struct {
	SiteDERRatingID int64
	SiteDERID       int64
	MaxW            int64
	MaxVA           int64
	MaxVar          int64
	ChangedTime     time.Time

	SiteDER *SiteDER
}

// SiteDERSetting holds the currently configured settings of a site's DER.
type SiteDERSetting struct {
	SiteDERSettingID int64
	SiteDERID        int64
	SetMaxW          int64
	SetMaxVA         int64
	SetGradW         int64
	ChangedTime      time.Time

	SiteDER *SiteDER
}

// SiteDERStatus holds the last reported operational status of a site's DER.
type SiteDERStatus struct {
	SiteDERStatusID        int64
	SiteDERID              int64
	GeneratorConnectStatus int
	OperationalModeStatus  int
	ChangedTime            time.Time

	SiteDER *SiteDER
}
