package sep2

import "encoding/xml"

// Namespace constants for the notification envelope.
const (
	XMLNS    = "urn:ieee:std:2030.5:ns"
	XMLNSXsi = "http://www.w3.org/2001/XMLSchema-instance"
)

// NotificationStatus values carried in the envelope. Only the default status
// is emitted for changed entities.
const NotificationStatusDefault = 0

// Notification is the 2030.5 notification envelope POSTed to a
// subscription's notificationURI. Resource holds one of the payload types
// below; each marshals itself as the <Resource> element with an xsi:type
// discriminator.
type Notification struct {
	XMLName            xml.Name `xml:"Notification"`
	Xmlns              string   `xml:"xmlns,attr"`
	XmlnsXsi           string   `xml:"xmlns:xsi,attr"`
	SubscribedResource string   `xml:"subscribedResource"`
	Status             int      `xml:"status"`
	SubscriptionURI    string   `xml:"subscriptionURI"`
	Resource           any
}

// XMLString serializes the notification with the standard XML header.
func (n *Notification) XMLString() (string, error) {
	b, err := xml.Marshal(n)
	if err != nil {
		return "", err
	}
	return xml.Header + string(b), nil
}

// ActivePower is a scaled watt quantity.
type ActivePower struct {
	Multiplier int   `xml:"multiplier"`
	Value      int64 `xml:"value"`
}

// Interval is a start/duration pair in epoch seconds.
type Interval struct {
	Duration int   `xml:"duration"`
	Start    int64 `xml:"start"`
}

// EndDevice is the list entry for a site.
type EndDevice struct {
	Href        string `xml:"href,attr"`
	SFDI        int64  `xml:"sFDI"`
	LFDI        string `xml:"lFDI,omitempty"`
	ChangedTime int64  `xml:"changedTime"`
}

// EndDeviceList is the payload for site change notifications.
type EndDeviceList struct {
	XMLName    xml.Name    `xml:"Resource"`
	XsiType    string      `xml:"xsi:type,attr"`
	All        int         `xml:"all,attr"`
	Results    int         `xml:"results,attr"`
	EndDevices []EndDevice `xml:"EndDevice"`
}

// DERControlBase carries the CSIP-AUS import/export limit controls.
type DERControlBase struct {
	OpModImpLimW *ActivePower `xml:"opModImpLimW,omitempty"`
	OpModExpLimW *ActivePower `xml:"opModExpLimW,omitempty"`
}

// DERControl is the list entry for a dynamic operating envelope.
type DERControl struct {
	MRID     string         `xml:"mRID"`
	Interval Interval       `xml:"interval"`
	Base     DERControlBase `xml:"DERControlBase"`
}

// DERControlList is the payload for DOE change notifications.
type DERControlList struct {
	XMLName     xml.Name     `xml:"Resource"`
	XsiType     string       `xml:"xsi:type,attr"`
	All         int          `xml:"all,attr"`
	Results     int          `xml:"results,attr"`
	DERControls []DERControl `xml:"DERControl"`
}

// TimeTariffInterval is the list entry for one price of one price stream.
type TimeTariffInterval struct {
	Interval Interval `xml:"interval"`
	Price    int64    `xml:"price"`
}

// TimeTariffIntervalList is the payload for tariff rate notifications.
type TimeTariffIntervalList struct {
	XMLName             xml.Name             `xml:"Resource"`
	XsiType             string               `xml:"xsi:type,attr"`
	All                 int                  `xml:"all,attr"`
	Results             int                  `xml:"results,attr"`
	TimeTariffIntervals []TimeTariffInterval `xml:"TimeTariffInterval"`
}

// Reading is the list entry for one metering sample.
type Reading struct {
	Value        int64    `xml:"value"`
	QualityFlags int      `xml:"qualityFlags"`
	TimePeriod   Interval `xml:"timePeriod"`
}

// ReadingList is the payload for reading change notifications.
type ReadingList struct {
	XMLName  xml.Name  `xml:"Resource"`
	XsiType  string    `xml:"xsi:type,attr"`
	All      int       `xml:"all,attr"`
	Results  int       `xml:"results,attr"`
	Readings []Reading `xml:"Reading"`
}

// DERAvailability is the singleton payload for DER availability changes.
type DERAvailability struct {
	XMLName              xml.Name `xml:"Resource"`
	XsiType              string   `xml:"xsi:type,attr"`
	Href                 string   `xml:"href,attr"`
	AvailabilityDuration int      `xml:"availabilityDuration"`
	EstimatedWAvail      int64    `xml:"statWAvail>value"`
	EstimatedVarAvail    int64    `xml:"statVarAvail>value"`
}

// DERCapability is the singleton payload for DER rating changes.
type DERCapability struct {
	XMLName   xml.Name    `xml:"Resource"`
	XsiType   string      `xml:"xsi:type,attr"`
	Href      string      `xml:"href,attr"`
	RtgMaxW   ActivePower `xml:"rtgMaxW"`
	RtgMaxVA  int64       `xml:"rtgMaxVA>value"`
	RtgMaxVar int64       `xml:"rtgMaxVar>value"`
}

// DERSettings is the singleton payload for DER setting changes.
type DERSettings struct {
	XMLName  xml.Name    `xml:"Resource"`
	XsiType  string      `xml:"xsi:type,attr"`
	Href     string      `xml:"href,attr"`
	SetMaxW  ActivePower `xml:"setMaxW"`
	SetMaxVA int64       `xml:"setMaxVA>value"`
	SetGradW int64       `xml:"setGradW"`
}

// DERStatus is the singleton payload for DER status changes.
type DERStatus struct {
	XMLName               xml.Name `xml:"Resource"`
	XsiType               string   `xml:"xsi:type,attr"`
	Href                  string   `xml:"href,attr"`
	GenConnectStatus      int      `xml:"genConnectStatus>value"`
	OperationalModeStatus int      `xml:"operationalModeStatus>value"`
}

// xsi:type discriminators for the payloads above.
const (
	XsiTypeEndDeviceList          = "EndDeviceList"
	XsiTypeDERControlList         = "DERControlList"
	XsiTypeTimeTariffIntervalList = "TimeTariffIntervalList"
	XsiTypeReadingList            = "ReadingList"
	XsiTypeDERAvailability        = "DERAvailability"
	XsiTypeDERCapability          = "DERCapability"
	XsiTypeDERSettings            = "DERSettings"
	XsiTypeDERStatus              = "DERStatus"
)
