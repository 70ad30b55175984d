package model

import "fmt"

// SubscriptionResource identifies the kind of server resource a Subscription
// is tracking changes on.
type SubscriptionResource int

const (
	ResourceSite SubscriptionResource = iota + 1
	ResourceReading
	ResourceDynamicOperatingEnvelope
	ResourceTariffGeneratedRate
	ResourceSiteDERAvailability
	ResourceSiteDERRating
	ResourceSiteDERSetting
	ResourceSiteDERStatus
)

func (r SubscriptionResource) String() string {
	switch r {
	case ResourceSite:
		return "site"
	case ResourceReading:
		return "reading"
	case ResourceDynamicOperatingEnvelope:
		return "dynamic_operating_envelope"
	case ResourceTariffGeneratedRate:
		return "tariff_generated_rate"
	case ResourceSiteDERAvailability:
		return "site_der_availability"
	case ResourceSiteDERRating:
		return "site_der_rating"
	case ResourceSiteDERSetting:
		return "site_der_setting"
	case ResourceSiteDERStatus:
		return "site_der_status"
	default:
		return fmt.Sprintf("unknown(%d)", int(r))
	}
}

// ParseSubscriptionResource converts a resource name (as used in config and
// CLI flags) back into a SubscriptionResource.
func ParseSubscriptionResource(s string) (SubscriptionResource, error) {
	for r := ResourceSite; r <= ResourceSiteDERStatus; r++ {
		if r.String() == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown subscription resource %q", s)
}

// ConditionAttribute identifies which entity attribute a
// SubscriptionCondition evaluates.
type ConditionAttribute int

// ConditionReadingValue is the only attribute defined by the protocol
// mapping: the raw value of a site reading.
const ConditionReadingValue ConditionAttribute = 0
