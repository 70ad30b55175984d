package store

import (
	"database/sql"
	"fmt"
)

// All timestamps are stored as unix milliseconds in UTC. Rate start times are
// localised to the owning site's timezone when read back.
const schema = `
CREATE TABLE IF NOT EXISTS site (
    site_id INTEGER PRIMARY KEY AUTOINCREMENT,
    aggregator_id INTEGER NOT NULL,
    nmi TEXT NOT NULL,
    timezone_id TEXT NOT NULL,
    sfdi INTEGER NOT NULL,
    lfdi TEXT NOT NULL,
    created_time INTEGER NOT NULL,
    changed_time INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_site_changed ON site(changed_time);

CREATE TABLE IF NOT EXISTS site_reading_type (
    site_reading_type_id INTEGER PRIMARY KEY AUTOINCREMENT,
    aggregator_id INTEGER NOT NULL,
    site_id INTEGER NOT NULL REFERENCES site(site_id),
    uom INTEGER NOT NULL,
    power_of_ten_multiplier INTEGER NOT NULL,
    changed_time INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS site_reading (
    site_reading_id INTEGER PRIMARY KEY AUTOINCREMENT,
    site_reading_type_id INTEGER NOT NULL REFERENCES site_reading_type(site_reading_type_id),
    value INTEGER NOT NULL,
    quality_flags INTEGER NOT NULL,
    time_period_start INTEGER NOT NULL,
    time_period_seconds INTEGER NOT NULL,
    changed_time INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_site_reading_changed ON site_reading(changed_time);

CREATE TABLE IF NOT EXISTS dynamic_operating_envelope (
    dynamic_operating_envelope_id INTEGER PRIMARY KEY AUTOINCREMENT,
    site_id INTEGER NOT NULL REFERENCES site(site_id),
    import_limit_active_watts INTEGER NOT NULL,
    export_limit_active_watts INTEGER NOT NULL,
    start_time INTEGER NOT NULL,
    duration_seconds INTEGER NOT NULL,
    changed_time INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_doe_changed ON dynamic_operating_envelope(changed_time);

CREATE TABLE IF NOT EXISTS tariff_generated_rate (
    tariff_generated_rate_id INTEGER PRIMARY KEY AUTOINCREMENT,
    tariff_id INTEGER NOT NULL,
    site_id INTEGER NOT NULL REFERENCES site(site_id),
    start_time INTEGER NOT NULL,
    duration_seconds INTEGER NOT NULL,
    import_active_price INTEGER NOT NULL,
    export_active_price INTEGER NOT NULL,
    import_reactive_price INTEGER NOT NULL,
    export_reactive_price INTEGER NOT NULL,
    changed_time INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_rate_changed ON tariff_generated_rate(changed_time);

CREATE TABLE IF NOT EXISTS site_der (
    site_der_id INTEGER PRIMARY KEY AUTOINCREMENT,
    site_id INTEGER NOT NULL REFERENCES site(site_id),
    changed_time INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS site_der_availability (
    site_der_availability_id INTEGER PRIMARY KEY AUTOINCREMENT,
    site_der_id INTEGER NOT NULL REFERENCES site_der(site_der_id),
    availability_duration_sec INTEGER NOT NULL,
    estimated_w_avail INTEGER NOT NULL,
    estimated_var_avail INTEGER NOT NULL,
    changed_time INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS site_der_rating (
    site_der_rating_id INTEGER PRIMARY KEY AUTOINCREMENT,
    site_der_id INTEGER NOT NULL REFERENCES site_der(site_der_id),
    max_w INTEGER NOT NULL,
    max_va INTEGER NOT NULL,
    max_var INTEGER NOT NULL,
    changed_time INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS site_der_setting (
    site_der_setting_id INTEGER PRIMARY KEY AUTOINCREMENT,
    site_der_id INTEGER NOT NULL REFERENCES site_der(site_der_id),
    set_max_w INTEGER NOT NULL,
    set_max_va INTEGER NOT NULL,
    set_grad_w INTEGER NOT NULL,
    changed_time INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS site_der_status (
    site_der_status_id INTEGER PRIMARY KEY AUTOINCREMENT,
    site_der_id INTEGER NOT NULL REFERENCES site_der(site_der_id),
    generator_connect_status INTEGER NOT NULL,
    operational_mode_status INTEGER NOT NULL,
    changed_time INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS subscription (
    subscription_id INTEGER PRIMARY KEY AUTOINCREMENT,
    aggregator_id INTEGER NOT NULL,
    resource_type TEXT NOT NULL,
    resource_id INTEGER,
    scoped_site_id INTEGER,
    notification_uri TEXT NOT NULL,
    entity_limit INTEGER NOT NULL,
    created_time INTEGER NOT NULL,
    changed_time INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_subscription_agg_resource
    ON subscription(aggregator_id, resource_type);

CREATE TABLE IF NOT EXISTS subscription_condition (
    subscription_condition_id INTEGER PRIMARY KEY AUTOINCREMENT,
    subscription_id INTEGER NOT NULL REFERENCES subscription(subscription_id),
    attribute INTEGER NOT NULL,
    lower_threshold INTEGER,
    upper_threshold INTEGER
);

CREATE TABLE IF NOT EXISTS transmit_log (
    transmit_log_id INTEGER PRIMARY KEY AUTOINCREMENT,
    subscription_id INTEGER NOT NULL,
    transmit_time INTEGER NOT NULL,
    transmit_duration_ms INTEGER NOT NULL,
    notification_size_bytes INTEGER NOT NULL,
    attempt INTEGER NOT NULL,
    http_status_code INTEGER NOT NULL
);
`

func initSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
