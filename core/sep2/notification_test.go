package sep2

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridpulse/csipd/core/model"
)

func TestMapSitesToNotificationXML(t *testing.T) {
	sub := &model.Subscription{SubscriptionID: 4}
	sites := []*model.Site{{
		SiteID:      2,
		SFDI:        123456,
		LFDI:        "ABCDEF",
		ChangedTime: time.Unix(1700000000, 0).UTC(),
	}}

	n := MapSitesToNotification(sites, sub, "/api")
	assert.Equal(t, "/api/edev", n.SubscribedResource)
	assert.Equal(t, "/api/edev/0/sub/4", n.SubscriptionURI)

	out, err := n.XMLString()
	require.NoError(t, err)
	assert.Contains(t, out, `<Notification xmlns="urn:ieee:std:2030.5:ns"`)
	assert.Contains(t, out, `xsi:type="EndDeviceList"`)
	assert.Contains(t, out, `<sFDI>123456</sFDI>`)
	assert.Contains(t, out, `<lFDI>ABCDEF</lFDI>`)
	assert.Contains(t, out, `all="1"`)
	assert.Contains(t, out, `results="1"`)
}

func TestMapDoesToNotificationXML(t *testing.T) {
	siteID := int64(3)
	sub := &model.Subscription{SubscriptionID: 1, ScopedSiteID: &siteID}
	does := []*model.DynamicOperatingEnvelope{{
		DynamicOperatingEnvelopeID: 255,
		SiteID:                     3,
		ImportLimitActiveWatts:     5000,
		ExportLimitActiveWatts:     3000,
		StartTime:                  time.Unix(1700000000, 0).UTC(),
		DurationSeconds:            300,
	}}

	n := MapDoesToNotification(does, sub, "")
	assert.Equal(t, "/edev/3/derp/doe/derc", n.SubscribedResource)

	out, err := n.XMLString()
	require.NoError(t, err)
	assert.Contains(t, out, `xsi:type="DERControlList"`)
	assert.Contains(t, out, "<mRID>000000000000000000000000000000FF</mRID>")
	assert.Contains(t, out, "<opModImpLimW>")
	assert.Contains(t, out, "<value>5000</value>")
	assert.Contains(t, out, "<duration>300</duration>")
}

func TestMapDoesToNotificationUnscopedHref(t *testing.T) {
	sub := &model.Subscription{SubscriptionID: 1}
	does := []*model.DynamicOperatingEnvelope{{
		DynamicOperatingEnvelopeID: 1,
		SiteID:                     42,
		StartTime:                  time.Unix(1700000000, 0).UTC(),
	}}

	n := MapDoesToNotification(does, sub, "")
	assert.Equal(t, "/edev/0/derp/doe/derc", n.SubscribedResource)
	assert.Equal(t, "/edev/0/sub/1", n.SubscriptionURI)
}

func TestMapRatesToNotificationPickStream(t *testing.T) {
	siteID := int64(3)
	sub := &model.Subscription{SubscriptionID: 1, ScopedSiteID: &siteID}
	rates := []*model.TariffGeneratedRate{{
		TariffID:          7,
		SiteID:            3,
		StartTime:         time.Unix(1700000000, 0).UTC(),
		DurationSeconds:   1800,
		ImportActivePrice: 27000,
		ExportActivePrice: -1000,
	}}

	n, err := MapRatesToNotification(7, "2024-05-01", ExportActivePowerKWH, rates, sub, "")
	require.NoError(t, err)
	assert.Equal(t, "/edev/3/tp/7/rc/2024-05-01/2/tti", n.SubscribedResource)

	out, err := n.XMLString()
	require.NoError(t, err)
	assert.Contains(t, out, `xsi:type="TimeTariffIntervalList"`)
	assert.Contains(t, out, "<price>-1000</price>")
	assert.NotContains(t, out, "<price>27000</price>")
}

func TestMapRatesToNotificationUnknownStream(t *testing.T) {
	sub := &model.Subscription{}
	_, err := MapRatesToNotification(1, "2024-05-01", PricingReadingType(0), []*model.TariffGeneratedRate{{}}, sub, "")
	assert.Error(t, err)
}

func TestMapReadingsToNotificationXML(t *testing.T) {
	siteID := int64(5)
	sub := &model.Subscription{SubscriptionID: 8, ScopedSiteID: &siteID}
	readings := []*model.SiteReading{{
		Value:             42,
		QualityFlags:      1,
		TimePeriodStart:   time.Unix(1700000000, 0).UTC(),
		TimePeriodSeconds: 300,
	}}

	n := MapReadingsToNotification(9, readings, sub, "")
	assert.Equal(t, "/edev/5/mup/9/rs/all/r", n.SubscribedResource)

	out, err := n.XMLString()
	require.NoError(t, err)
	assert.Contains(t, out, `xsi:type="ReadingList"`)
	assert.Contains(t, out, "<value>42</value>")
}

func TestMapDERStatusToNotificationXML(t *testing.T) {
	siteID := int64(4)
	sub := &model.Subscription{SubscriptionID: 2, ScopedSiteID: &siteID}
	status := &model.SiteDERStatus{GeneratorConnectStatus: 1, OperationalModeStatus: 2}

	n := MapDERStatusToNotification(1, status, sub, "")
	assert.Equal(t, "/edev/4/der/1/ders", n.SubscribedResource)

	out, err := n.XMLString()
	require.NoError(t, err)
	assert.Contains(t, out, `xsi:type="DERStatus"`)
	assert.Contains(t, out, "<genConnectStatus><value>1</value></genConnectStatus>")
}
