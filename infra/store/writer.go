package store

import (
	"context"
	"fmt"

	"github.com/gridpulse/csipd/core/model"
)

// Write helpers. IDs are assigned by the database and written back into the
// passed structs.

func (s *SQLiteStore) lastID(res interface{ LastInsertId() (int64, error) }, what string) (int64, error) {
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s id: %w", what, err)
	}
	return id, nil
}

// InsertSite stores a site.
func (s *SQLiteStore) InsertSite(ctx context.Context, site *model.Site) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO site (aggregator_id, nmi, timezone_id, sfdi, lfdi, created_time, changed_time)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		site.AggregatorID, site.NMI, site.TimezoneID, site.SFDI, site.LFDI,
		millis(site.CreatedTime), millis(site.ChangedTime))
	if err != nil {
		return fmt.Errorf("insert site: %w", err)
	}
	site.SiteID, err = s.lastID(res, "site")
	return err
}

// InsertSiteReadingType stores a reading type.
func (s *SQLiteStore) InsertSiteReadingType(ctx context.Context, rt *model.SiteReadingType) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO site_reading_type (aggregator_id, site_id, uom, power_of_ten_multiplier, changed_time)
		VALUES (?, ?, ?, ?, ?)`,
		rt.AggregatorID, rt.SiteID, rt.UOM, rt.PowerOfTenMultiplier, millis(rt.ChangedTime))
	if err != nil {
		return fmt.Errorf("insert reading type: %w", err)
	}
	rt.SiteReadingTypeID, err = s.lastID(res, "reading type")
	return err
}

// InsertSiteReading stores a reading sample.
func (s *SQLiteStore) InsertSiteReading(ctx context.Context, r *model.SiteReading) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO site_reading (site_reading_type_id, value, quality_flags, time_period_start,
		                          time_period_seconds, changed_time)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.SiteReadingTypeID, r.Value, r.QualityFlags, millis(r.TimePeriodStart),
		r.TimePeriodSeconds, millis(r.ChangedTime))
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	r.SiteReadingID, err = s.lastID(res, "reading")
	return err
}

// InsertDoe stores an operating envelope.
func (s *SQLiteStore) InsertDoe(ctx context.Context, d *model.DynamicOperatingEnvelope) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO dynamic_operating_envelope (site_id, import_limit_active_watts,
		                                        export_limit_active_watts, start_time,
		                                        duration_seconds, changed_time)
		VALUES (?, ?, ?, ?, ?, ?)`,
		d.SiteID, d.ImportLimitActiveWatts, d.ExportLimitActiveWatts,
		millis(d.StartTime), d.DurationSeconds, millis(d.ChangedTime))
	if err != nil {
		return fmt.Errorf("insert doe: %w", err)
	}
	d.DynamicOperatingEnvelopeID, err = s.lastID(res, "doe")
	return err
}

// InsertRate stores a tariff rate. Start times are persisted in UTC.
func (s *SQLiteStore) InsertRate(ctx context.Context, r *model.TariffGeneratedRate) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tariff_generated_rate (tariff_id, site_id, start_time, duration_seconds,
		                                   import_active_price, export_active_price,
		                                   import_reactive_price, export_reactive_price, changed_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.TariffID, r.SiteID, millis(r.StartTime), r.DurationSeconds,
		r.ImportActivePrice, r.ExportActivePrice, r.ImportReactivePrice, r.ExportReactivePrice,
		millis(r.ChangedTime))
	if err != nil {
		return fmt.Errorf("insert rate: %w", err)
	}
	r.TariffGeneratedRateID, err = s.lastID(res, "rate")
	return err
}

// InsertSiteDER stores a site's DER record.
func (s *SQLiteStore) InsertSiteDER(ctx context.Context, d *model.SiteDER) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO site_der (site_id, changed_time) VALUES (?, ?)`,
		d.SiteID, millis(d.ChangedTime))
	if err != nil {
		return fmt.Errorf("insert site der: %w", err)
	}
	d.SiteDERID, err = s.lastID(res, "site der")
	return err
}

// InsertDERAvailability stores a DER availability report.
func (s *SQLiteStore) InsertDERAvailability(ctx context.Context, a *model.SiteDERAvailability) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO site_der_availability (site_der_id, availability_duration_sec,
		                                   estimated_w_avail, estimated_var_avail, changed_time)
		VALUES (?, ?, ?, ?, ?)`,
		a.SiteDERID, a.AvailabilityDurationSec, a.EstimatedWAvail, a.EstimatedVarAvail,
		millis(a.ChangedTime))
	if err != nil {
		return fmt.Errorf("insert der availability: %w", err)
	}
	a.SiteDERAvailabilityID, err = s.lastID(res, "der availability")
	return err
}

// InsertDERRating stores a DER nameplate rating.
func (s *SQLiteStore) InsertDERRating(ctx context.Context, r *model.SiteDERRating) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO site_der_rating (site_der_id, max_w, max_va, max_var, changed_time)
		VALUES (?, ?, ?, ?, ?)`,
		r.SiteDERID, r.MaxW, r.MaxVA, r.MaxVar, millis(r.ChangedTime))
	if err != nil {
		return fmt.Errorf("insert der rating: %w", err)
	}
	r.SiteDERRatingID, err = s.lastID(res, "der rating")
	return err
}

// InsertDERSetting stores a DER settings report.
func (s *SQLiteStore) InsertDERSetting(ctx context.Context, st *model.SiteDERSetting) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO site_der_setting (site_der_id, set_max_w, set_max_va, set_grad_w, changed_time)
		VALUES (?, ?, ?, ?, ?)`,
		st.SiteDERID, st.SetMaxW, st.SetMaxVA, st.SetGradW, millis(st.ChangedTime))
	if err != nil {
		return fmt.Errorf("insert der setting: %w", err)
	}
	st.SiteDERSettingID, err = s.lastID(res, "der setting")
	return err
}

// InsertDERStatus stores a DER status report.
func (s *SQLiteStore) InsertDERStatus(ctx context.Context, st *model.SiteDERStatus) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO site_der_status (site_der_id, generator_connect_status,
		                             operational_mode_status, changed_time)
		VALUES (?, ?, ?, ?)`,
		st.SiteDERID, st.GeneratorConnectStatus, st.OperationalModeStatus, millis(st.ChangedTime))
	if err != nil {
		return fmt.Errorf("insert der status: %w", err)
	}
	st.SiteDERStatusID, err = s.lastID(res, "der status")
	return err
}

// InsertSubscription stores a subscription and its conditions.
func (s *SQLiteStore) InsertSubscription(ctx context.Context, sub *model.Subscription) error {
	var resourceID, scopedSiteID any
	if sub.ResourceID != nil {
		resourceID = *sub.ResourceID
	}
	if sub.ScopedSiteID != nil {
		scopedSiteID = *sub.ScopedSiteID
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO subscription (aggregator_id, resource_type, resource_id, scoped_site_id,
		                          notification_uri, entity_limit, created_time, changed_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.AggregatorID, sub.ResourceType.String(), resourceID, scopedSiteID,
		sub.NotificationURI, sub.EntityLimit, millis(sub.CreatedTime), millis(sub.ChangedTime))
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	sub.SubscriptionID, err = s.lastID(res, "subscription")
	if err != nil {
		return err
	}
	for i := range sub.Conditions {
		cond := &sub.Conditions[i]
		cond.SubscriptionID = sub.SubscriptionID
		var lower, upper any
		if cond.LowerThreshold != nil {
			lower = *cond.LowerThreshold
		}
		if cond.UpperThreshold != nil {
			upper = *cond.UpperThreshold
		}
		condRes, err := s.db.ExecContext(ctx, `
			INSERT INTO subscription_condition (subscription_id, attribute, lower_threshold, upper_threshold)
			VALUES (?, ?, ?, ?)`,
			cond.SubscriptionID, int(cond.Attribute), lower, upper)
		if err != nil {
			return fmt.Errorf("insert condition: %w", err)
		}
		cond.SubscriptionConditionID, err = s.lastID(condRes, "condition")
		if err != nil {
			return err
		}
	}
	return nil
}
