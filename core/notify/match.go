package notify

import "github.com/gridpulse/csipd/core/model"

// EntitiesServicedBySubscription returns the subset of entities the
// subscription is scoped and conditioned to receive, preserving input
// order. The result is an independent slice, safe to iterate repeatedly.
func EntitiesServicedBySubscription(sub *model.Subscription, resource model.SubscriptionResource, entities []Entity) ([]Entity, error) {
	behaviour, err := behaviourFor(resource)
	if err != nil {
		return nil, err
	}
	if sub.ResourceType != resource {
		return nil, nil
	}

	matched := make([]Entity, 0, len(entities))
	for _, e := range entities {
		if sub.ScopedSiteID != nil && behaviour.siteID(e) != *sub.ScopedSiteID {
			continue
		}
		if sub.ResourceID != nil && behaviour.filterID(e) != *sub.ResourceID {
			continue
		}
		if !allConditionsSatisfied(sub.Conditions, resource, e) {
			continue
		}
		matched = append(matched, e)
	}
	return matched, nil
}

// allConditionsSatisfied applies every condition; each one narrows the
// trigger further (AND). An empty condition list matches unconditionally.
func allConditionsSatisfied(conds []model.SubscriptionCondition, resource model.SubscriptionResource, e Entity) bool {
	for _, c := range conds {
		if !conditionSatisfied(c, resource, e) {
			return false
		}
	}
	return true
}

// conditionSatisfied reports whether the entity's attribute value lies
// strictly outside the condition's inclusive normal band. A missing bound
// is unbounded on that side.
func conditionSatisfied(c model.SubscriptionCondition, resource model.SubscriptionResource, e Entity) bool {
	// The reading value is the only attribute with a protocol mapping;
	// conditions on other attributes or resource kinds cannot constrain
	// anything and are skipped.
	if c.Attribute != model.ConditionReadingValue || resource != model.ResourceReading {
		return true
	}

	value := e.(*model.SiteReading).Value
	if c.LowerThreshold != nil && value < *c.LowerThreshold {
		return true
	}
	if c.UpperThreshold != nil && value > *c.UpperThreshold {
		return true
	}
	return false
}
