package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gridpulse/csipd/core/logger"
	"github.com/gridpulse/csipd/core/model"
)

// SQLiteStore implements the notification engine's read surface plus the
// write helpers used to ingest entities and register subscriptions.
type SQLiteStore struct {
	db  *sql.DB
	log logger.Logger
}

// Open opens (and creates if needed) the database at cfg.Path and applies the
// schema.
func Open(cfg Config, log logger.Logger) (*SQLiteStore, error) {
	cfg.SetDefaults()
	if log == nil {
		log = logger.Nop{}
	}
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite %s: %w", cfg.Path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		log.Warnf("set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		log.Warnf("enable foreign keys: %v", err)
	}
	if err := initSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, log: log}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for migrations and maintenance.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func millis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// siteLocal converts a stored UTC timestamp into the site's local timezone.
// Unknown timezones fall back to UTC.
func siteLocal(ms int64, timezoneID string) time.Time {
	loc, err := time.LoadLocation(timezoneID)
	if err != nil {
		loc = time.UTC
	}
	return time.UnixMilli(ms).In(loc)
}

const siteColumns = "site_id, aggregator_id, nmi, timezone_id, sfdi, lfdi, created_time, changed_time"

func scanSite(scan func(...any) error) (*model.Site, error) {
	var site model.Site
	var created, changed int64
	if err := scan(&site.SiteID, &site.AggregatorID, &site.NMI, &site.TimezoneID,
		&site.SFDI, &site.LFDI, &created, &changed); err != nil {
		return nil, err
	}
	site.CreatedTime = fromMillis(created)
	site.ChangedTime = fromMillis(changed)
	return &site, nil
}

// SitesByChangedAt returns every site whose changed_time matches ts exactly.
func (s *SQLiteStore) SitesByChangedAt(ctx context.Context, ts time.Time) ([]*model.Site, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+siteColumns+" FROM site WHERE changed_time = ?", millis(ts))
	if err != nil {
		return nil, fmt.Errorf("query sites: %w", err)
	}
	defer rows.Close()

	var sites []*model.Site
	for rows.Next() {
		site, err := scanSite(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// ReadingsByChangedAt returns readings changed at ts with their reading type
// eagerly loaded.
func (s *SQLiteStore) ReadingsByChangedAt(ctx context.Context, ts time.Time) ([]*model.SiteReading, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.site_reading_id, r.site_reading_type_id, r.value, r.quality_flags,
		       r.time_period_start, r.time_period_seconds, r.changed_time,
		       t.aggregator_id, t.site_id, t.uom, t.power_of_ten_multiplier, t.changed_time
		FROM site_reading r
		JOIN site_reading_type t ON t.site_reading_type_id = r.site_reading_type_id
		WHERE r.changed_time = ?`, millis(ts))
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	var readings []*model.SiteReading
	for rows.Next() {
		var r model.SiteReading
		var rt model.SiteReadingType
		var start, changed, typeChanged int64
		if err := rows.Scan(&r.SiteReadingID, &r.SiteReadingTypeID, &r.Value, &r.QualityFlags,
			&start, &r.TimePeriodSeconds, &changed,
			&rt.AggregatorID, &rt.SiteID, &rt.UOM, &rt.PowerOfTenMultiplier, &typeChanged); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		rt.SiteReadingTypeID = r.SiteReadingTypeID
		rt.ChangedTime = fromMillis(typeChanged)
		r.TimePeriodStart = fromMillis(start)
		r.ChangedTime = fromMillis(changed)
		r.ReadingType = &rt
		readings = append(readings, &r)
	}
	return readings, rows.Err()
}

// DoesByChangedAt returns operating envelopes changed at ts with their site
// eagerly loaded.
func (s *SQLiteStore) DoesByChangedAt(ctx context.Context, ts time.Time) ([]*model.DynamicOperatingEnvelope, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.dynamic_operating_envelope_id, d.site_id, d.import_limit_active_watts,
		       d.export_limit_active_watts, d.start_time, d.duration_seconds, d.changed_time,
		       `+prefixedSiteColumns("s")+`
		FROM dynamic_operating_envelope d
		JOIN site s ON s.site_id = d.site_id
		WHERE d.changed_time = ?`, millis(ts))
	if err != nil {
		return nil, fmt.Errorf("query does: %w", err)
	}
	defer rows.Close()

	var does []*model.DynamicOperatingEnvelope
	for rows.Next() {
		var d model.DynamicOperatingEnvelope
		var site model.Site
		var start, changed, siteCreated, siteChanged int64
		if err := rows.Scan(&d.DynamicOperatingEnvelopeID, &d.SiteID, &d.ImportLimitActiveWatts,
			&d.ExportLimitActiveWatts, &start, &d.DurationSeconds, &changed,
			&site.SiteID, &site.AggregatorID, &site.NMI, &site.TimezoneID,
			&site.SFDI, &site.LFDI, &siteCreated, &siteChanged); err != nil {
			return nil, fmt.Errorf("scan doe: %w", err)
		}
		d.StartTime = fromMillis(start)
		d.ChangedTime = fromMillis(changed)
		site.CreatedTime = fromMillis(siteCreated)
		site.ChangedTime = fromMillis(siteChanged)
		d.Site = &site
		does = append(does, &d)
	}
	return does, rows.Err()
}

// RatesByChangedAt returns tariff rates changed at ts. Rate start times are
// returned in the owning site's local timezone.
func (s *SQLiteStore) RatesByChangedAt(ctx context.Context, ts time.Time) ([]*model.TariffGeneratedRate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.tariff_generated_rate_id, r.tariff_id, r.site_id, r.start_time,
		       r.duration_seconds, r.import_active_price, r.export_active_price,
		       r.import_reactive_price, r.export_reactive_price, r.changed_time,
		       `+prefixedSiteColumns("s")+`
		FROM tariff_generated_rate r
		JOIN site s ON s.site_id = r.site_id
		WHERE r.changed_time = ?`, millis(ts))
	if err != nil {
		return nil, fmt.Errorf("query rates: %w", err)
	}
	defer rows.Close()

	var rates []*model.TariffGeneratedRate
	for rows.Next() {
		var r model.TariffGeneratedRate
		var site model.Site
		var start, changed, siteCreated, siteChanged int64
		if err := rows.Scan(&r.TariffGeneratedRateID, &r.TariffID, &r.SiteID, &start,
			&r.DurationSeconds, &r.ImportActivePrice, &r.ExportActivePrice,
			&r.ImportReactivePrice, &r.ExportReactivePrice, &changed,
			&site.SiteID, &site.AggregatorID, &site.NMI, &site.TimezoneID,
			&site.SFDI, &site.LFDI, &siteCreated, &siteChanged); err != nil {
			return nil, fmt.Errorf("scan rate: %w", err)
		}
		r.StartTime = siteLocal(start, site.TimezoneID)
		r.ChangedTime = fromMillis(changed)
		site.CreatedTime = fromMillis(siteCreated)
		site.ChangedTime = fromMillis(siteChanged)
		r.Site = &site
		rates = append(rates, &r)
	}
	return rates, rows.Err()
}

func prefixedSiteColumns(alias string) string {
	return alias + ".site_id, " + alias + ".aggregator_id, " + alias + ".nmi, " +
		alias + ".timezone_id, " + alias + ".sfdi, " + alias + ".lfdi, " +
		alias + ".created_time, " + alias + ".changed_time"
}

// derJoin selects a DER child table row plus its site_der parent and site.
func (s *SQLiteStore) queryDERChildren(ctx context.Context, table, idColumn, columns string, ts time.Time,
	scanRow func(rows *sql.Rows, der *model.SiteDER) error) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.`+idColumn+`, c.site_der_id, `+columns+`, c.changed_time,
		       d.site_id, d.changed_time,
		       `+prefixedSiteColumns("s")+`
		FROM `+table+` c
		JOIN site_der d ON d.site_der_id = c.site_der_id
		JOIN site s ON s.site_id = d.site_id
		WHERE c.changed_time = ?`, millis(ts))
	if err != nil {
		return fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var der model.SiteDER
		if err := scanRow(rows, &der); err != nil {
			return fmt.Errorf("scan %s: %w", table, err)
		}
	}
	return rows.Err()
}

func scanDERParent(der *model.SiteDER) (dest []any, finish func()) {
	site := &model.Site{}
	var derChanged, siteCreated, siteChanged int64
	dest = []any{
		&der.SiteID, &derChanged,
		&site.SiteID, &site.AggregatorID, &site.NMI, &site.TimezoneID,
		&site.SFDI, &site.LFDI, &siteCreated, &siteChanged,
	}
	finish = func() {
		der.ChangedTime = fromMillis(derChanged)
		site.CreatedTime = fromMillis(siteCreated)
		site.ChangedTime = fromMillis(siteChanged)
		der.Site = site
	}
	return dest, finish
}

// DERAvailabilitiesByChangedAt returns DER availability rows changed at ts.
func (s *SQLiteStore) DERAvailabilitiesByChangedAt(ctx context.Context, ts time.Time) ([]*model.SiteDERAvailability, error) {
	var out []*model.SiteDERAvailability
	err := s.queryDERChildren(ctx, "site_der_availability", "site_der_availability_id",
		"c.availability_duration_sec, c.estimated_w_avail, c.estimated_var_avail", ts,
		func(rows *sql.Rows, der *model.SiteDER) error {
			var a model.SiteDERAvailability
			var changed int64
			parent, finish := scanDERParent(der)
			dest := append([]any{&a.SiteDERAvailabilityID, &a.SiteDERID,
				&a.AvailabilityDurationSec, &a.EstimatedWAvail, &a.EstimatedVarAvail, &changed}, parent...)
			if err := rows.Scan(dest...); err != nil {
				return err
			}
			finish()
			der.SiteDERID = a.SiteDERID
			a.ChangedTime = fromMillis(changed)
			a.SiteDER = der
			out = append(out, &a)
			return nil
		})
	return out, err
}

// DERRatingsByChangedAt returns DER rating rows changed at ts.
func (s *SQLiteStore) DERRatingsByChangedAt(ctx context.Context, ts time.Time) ([]*model.SiteDERRating, error) {
	var out []*model.SiteDERRating
	err := s.queryDERChildren(ctx, "site_der_rating", "site_der_rating_id",
		"c.max_w, c.max_va, c.max_var", ts,
		func(rows *sql.Rows, der *model.SiteDER) error {
			var r model.SiteDERRating
			var changed int64
			parent, finish := scanDERParent(der)
			dest := append([]any{&r.SiteDERRatingID, &r.SiteDERID,
				&r.MaxW, &r.MaxVA, &r.MaxVar, &changed}, parent...)
			if err := rows.Scan(dest...); err != nil {
				return err
			}
			finish()
			der.SiteDERID = r.SiteDERID
			r.ChangedTime = fromMillis(changed)
			r.SiteDER = der
			out = append(out, &r)
			return nil
		})
	return out, err
}

// DERSettingsByChangedAt returns DER setting rows changed at ts.
func (s *SQLiteStore) DERSettingsByChangedAt(ctx context.Context, ts time.Time) ([]*model.SiteDERSetting, error) {
	var out []*model.SiteDERSetting
	err := s.queryDERChildren(ctx, "site_der_setting", "site_der_setting_id",
		"c.set_max_w, c.set_max_va, c.set_grad_w", ts,
		func(rows *sql.Rows, der *model.SiteDER) error {
			var st model.SiteDERSetting
			var changed int64
			parent, finish := scanDERParent(der)
			dest := append([]any{&st.SiteDERSettingID, &st.SiteDERID,
				&st.SetMaxW, &st.SetMaxVA, &st.SetGradW, &changed}, parent...)
			if err := rows.Scan(dest...); err != nil {
				return err
			}
			finish()
			der.SiteDERID = st.SiteDERID
			st.ChangedTime = fromMillis(changed)
			st.SiteDER = der
			out = append(out, &st)
			return nil
		})
	return out, err
}

// DERStatusesByChangedAt returns DER status rows changed at ts.
func (s *SQLiteStore) DERStatusesByChangedAt(ctx context.Context, ts time.Time) ([]*model.SiteDERStatus, error) {
	var out []*model.SiteDERStatus
	err := s.queryDERChildren(ctx, "site_der_status", "site_der_status_id",
		"c.generator_connect_status, c.operational_mode_status", ts,
		func(rows *sql.Rows, der *model.SiteDER) error {
			var st model.SiteDERStatus
			var changed int64
			parent, finish := scanDERParent(der)
			dest := append([]any{&st.SiteDERStatusID, &st.SiteDERID,
				&st.GeneratorConnectStatus, &st.OperationalModeStatus, &changed}, parent...)
			if err := rows.Scan(dest...); err != nil {
				return err
			}
			finish()
			der.SiteDERID = st.SiteDERID
			st.ChangedTime = fromMillis(changed)
			st.SiteDER = der
			out = append(out, &st)
			return nil
		})
	return out, err
}

// SubscriptionsForResource returns every subscription of aggregatorID for the
// given resource kind, conditions included.
func (s *SQLiteStore) SubscriptionsForResource(ctx context.Context, aggregatorID int64, resource model.SubscriptionResource) ([]*model.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT subscription_id, aggregator_id, resource_type, resource_id, scoped_site_id,
		       notification_uri, entity_limit, created_time, changed_time
		FROM subscription
		WHERE aggregator_id = ? AND resource_type = ?`, aggregatorID, resource.String())
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*model.Subscription
	byID := map[int64]*model.Subscription{}
	for rows.Next() {
		var sub model.Subscription
		var resourceType string
		var resourceID, scopedSiteID sql.NullInt64
		var created, changed int64
		if err := rows.Scan(&sub.SubscriptionID, &sub.AggregatorID, &resourceType,
			&resourceID, &scopedSiteID, &sub.NotificationURI, &sub.EntityLimit,
			&created, &changed); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		parsed, err := model.ParseSubscriptionResource(resourceType)
		if err != nil {
			return nil, fmt.Errorf("subscription %d: %w", sub.SubscriptionID, err)
		}
		sub.ResourceType = parsed
		if resourceID.Valid {
			v := resourceID.Int64
			sub.ResourceID = &v
		}
		if scopedSiteID.Valid {
			v := scopedSiteID.Int64
			sub.ScopedSiteID = &v
		}
		sub.CreatedTime = fromMillis(created)
		sub.ChangedTime = fromMillis(changed)
		subs = append(subs, &sub)
		byID[sub.SubscriptionID] = &sub
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, nil
	}
	if err := s.loadConditions(ctx, byID); err != nil {
		return nil, err
	}
	return subs, nil
}

func (s *SQLiteStore) loadConditions(ctx context.Context, subs map[int64]*model.Subscription) error {
	ids := make([]any, 0, len(subs))
	placeholders := ""
	for id := range subs {
		if placeholders != "" {
			placeholders += ","
		}
		placeholders += "?"
		ids = append(ids, id)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT subscription_condition_id, subscription_id, attribute, lower_threshold, upper_threshold
		FROM subscription_condition
		WHERE subscription_id IN (`+placeholders+`)`, ids...)
	if err != nil {
		return fmt.Errorf("query conditions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cond model.SubscriptionCondition
		var attr int
		var lower, upper sql.NullInt64
		if err := rows.Scan(&cond.SubscriptionConditionID, &cond.SubscriptionID, &attr, &lower, &upper); err != nil {
			return fmt.Errorf("scan condition: %w", err)
		}
		cond.Attribute = model.ConditionAttribute(attr)
		if lower.Valid {
			v := lower.Int64
			cond.LowerThreshold = &v
		}
		if upper.Valid {
			v := upper.Int64
			cond.UpperThreshold = &v
		}
		if sub, ok := subs[cond.SubscriptionID]; ok {
			sub.Conditions = append(sub.Conditions, cond)
		}
	}
	return rows.Err()
}

// AppendTransmitLog records one delivery attempt. Best effort by contract.
func (s *SQLiteStore) AppendTransmitLog(ctx context.Context, rec model.TransmitLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transmit_log (subscription_id, transmit_time, transmit_duration_ms,
		                          notification_size_bytes, attempt, http_status_code)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.SubscriptionID, millis(rec.TransmitTime), rec.TransmitDurationMS,
		rec.NotificationSizeBytes, rec.Attempt, rec.HTTPStatusCode)
	if err != nil {
		return fmt.Errorf("insert transmit log: %w", err)
	}
	return nil
}
