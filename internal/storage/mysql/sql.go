package mysql

const upsertPackageSQL = `
INSERT INTO packages
  (id, resource, owner_id, supplier_ref, constant_price, discount, total_tax_amount, free_age_limit, raw)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  owner_id         = VALUES(owner_id),
  supplier_ref     = VALUES(supplier_ref),
  constant_price   = VALUES(constant_price),
  discount         = VALUES(discount),
  total_tax_amount = VALUES(total_tax_amount),
  free_age_limit   = VALUES(free_age_limit),
  raw              = VALUES(raw),
  updated_at       = CURRENT_TIMESTAMP
`

const upsertI18nSQL = `
INSERT INTO package_i18n
  (resource, package_id, lang, name, description, extras)
VALUES
  (?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name        = VALUES(name),
  description = VALUES(description),
  extras      = VALUES(extras)
`

const deletePeriodsSQL = `DELETE FROM price_periods WHERE resource = ? AND package_id = ?`

const insertPeriodsPrefix = "INSERT INTO price_periods\n  (resource, package_id, main_price, child_price, start_date, end_date, currency_id)\nVALUES "

const setStatusSQL = `UPDATE packages SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND resource = ?`

const insertMissSQL = `
INSERT INTO ingest_misses (resource, id, http_status, reason)
VALUES (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE seen_at = CURRENT_TIMESTAMP
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const getPackageSQL = `
SELECT id, resource, owner_id, supplier_ref, constant_price, discount, total_tax_amount, free_age_limit, status
FROM packages
WHERE id = ? AND resource = ?
`

// Open-started periods sort first, matching the calculator's ordering.
const listPeriodsSQL = `
SELECT id, package_id, main_price, child_price, start_date, end_date, currency_id
FROM price_periods
WHERE resource = ? AND package_id = ?
ORDER BY start_date IS NOT NULL, start_date, id
`

// Localized name/description for the requested lang, falling back to English.
const getPackageViewSQL = `
SELECT
  p.id, p.resource, p.owner_id, p.constant_price, p.discount, p.total_tax_amount, p.free_age_limit, p.status,
  COALESCE(i.name, e.name),
  COALESCE(i.description, e.description)
FROM packages p
LEFT JOIN package_i18n i ON i.resource = p.resource AND i.package_id = p.id AND i.lang = ?
LEFT JOIN package_i18n e ON e.resource = p.resource AND e.package_id = p.id AND e.lang = 'en'
WHERE p.id = ? AND p.resource = ?
`

const listPackagesSelect = `
SELECT
  p.id, p.resource, p.owner_id, p.constant_price, p.discount, p.total_tax_amount, p.free_age_limit, p.status,
  COALESCE(i.name, e.name)
FROM packages p
LEFT JOIN package_i18n i ON i.resource = p.resource AND i.package_id = p.id AND i.lang = ?
LEFT JOIN package_i18n e ON e.resource = p.resource AND e.package_id = p.id AND e.lang = 'en'
`

const countPackagesSelect = `
SELECT COUNT(*)
FROM packages p
LEFT JOIN package_i18n i ON i.resource = p.resource AND i.package_id = p.id AND i.lang = ?
LEFT JOIN package_i18n e ON e.resource = p.resource AND e.package_id = p.id AND e.lang = 'en'
`

const getCurrencySQL = `SELECT id, code, symbol FROM currencies WHERE id = ?`
